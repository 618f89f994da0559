// Package catalog holds the kennel's puppy listings and static texts.
// The catalog is read-only at runtime; edits happen in the JSON file.
package catalog

import (
	"fmt"
	"slices"
)

// Sex of a puppy as stored under the "gender" key.
type Sex string

const (
	Male   Sex = "Male"
	Female Sex = "Female"
)

// Item is one puppy listing.
type Item struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Age         string  `json:"age"`
	Sex         Sex     `json:"gender"`
	Color       string  `json:"color"`
	Price       string  `json:"price"`
	Available   bool    `json:"available"`
	Description string  `json:"description"`
	PhotoURL    *string `json:"photo_url"`
}

// Photo is the photo URL or Telegram file id, or "" when the listing has none.
func (it Item) Photo() string {
	if it.PhotoURL == nil {
		return ""
	}
	return *it.PhotoURL
}

// Contact is the kennel's public contact block.
type Contact struct {
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Location string `json:"location"`
}

// Catalog is the full persisted document.
type Catalog struct {
	Items   []Item  `json:"puppies"`
	About   string  `json:"about"`
	Contact Contact `json:"contact_info"`
}

// Item looks an item up by id.
func (c *Catalog) Item(id int) (Item, bool) {
	if c == nil {
		return Item{}, false
	}
	for _, it := range c.Items {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}

// Available returns the items on sale, in catalog order.
func (c *Catalog) Available() []Item {
	if c == nil {
		return nil
	}
	out := make([]Item, 0, len(c.Items))
	for _, it := range c.Items {
		if it.Available {
			out = append(out, it)
		}
	}
	return out
}

// Validate checks that ids are unique and sexes are known.
func (c *Catalog) Validate() error {
	seen := make(map[int]struct{}, len(c.Items))
	for _, it := range c.Items {
		if _, dup := seen[it.ID]; dup {
			return fmt.Errorf("catalog: duplicate item id %d", it.ID)
		}
		seen[it.ID] = struct{}{}
		if it.Sex != Male && it.Sex != Female {
			return fmt.Errorf("catalog: item %d has unknown gender %q", it.ID, it.Sex)
		}
	}
	return nil
}

// Clone returns a deep copy so callers can hold it past a reload.
func (c *Catalog) Clone() *Catalog {
	if c == nil {
		return nil
	}
	out := *c
	out.Items = slices.Clone(c.Items)
	for i := range out.Items {
		if p := out.Items[i].PhotoURL; p != nil {
			url := *p
			out.Items[i].PhotoURL = &url
		}
	}
	return &out
}

// Seed returns the catalog written on first start.
func Seed() *Catalog {
	return &Catalog{
		Items: []Item{
			{
				ID:          1,
				Name:        "Bruno",
				Age:         "8 weeks",
				Sex:         Male,
				Color:       "Black Brindle",
				Price:       "$2,500",
				Available:   true,
				Description: "Healthy, vaccinated, champion bloodline",
			},
			{
				ID:          2,
				Name:        "Luna",
				Age:         "10 weeks",
				Sex:         Female,
				Color:       "Blue/Grey",
				Price:       "$2,800",
				Available:   true,
				Description: "Beautiful temperament, first shots completed",
			},
		},
		About: "We breed premium Cane Corso puppies with excellent temperament and champion bloodlines. " +
			"All puppies come with health certificates, first vaccinations, and a health guarantee.",
		Contact: Contact{
			Phone:    "+1-XXX-XXX-XXXX",
			Email:    "info@canecorsopuppies.com",
			Location: "Your Location",
		},
	}
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/m3rciful/kennelbot/kennel/inquiry"
)

func printInquiries(out io.Writer, records []inquiry.Record, asJSON bool) error {
	if asJSON {
		if records == nil {
			records = []inquiry.Record{}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}
	if len(records) == 0 {
		_, err := fmt.Fprintln(out, "no inquiries")
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tUSER\tNAME\tPHONE\tEMAIL\tMESSAGE")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\n",
			r.Date, r.UserID, oneLine(r.Name), oneLine(r.Phone), oneLine(r.Email), oneLine(r.Message))
	}
	return tw.Flush()
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

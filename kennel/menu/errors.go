package menu

type codedError struct {
	msg  string
	code string
}

func (e *codedError) Error() string { return e.msg }
func (e *codedError) Code() string  { return e.code }

var (
	// ErrInvalidTransition is returned with the current screen re-rendered.
	ErrInvalidTransition error = &codedError{msg: "menu: invalid transition", code: "INVALID_TRANSITION"}
	// ErrItemNotFound is returned with the not-found screen.
	ErrItemNotFound error = &codedError{msg: "menu: item not found", code: "ITEM_NOT_FOUND"}
)

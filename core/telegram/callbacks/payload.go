package callbacks

import (
	"strconv"
	"strings"
)

// SplitPayload splits a raw payload; an empty payload is a syntax error.
func SplitPayload(payload, sep string) ([]string, error) {
	if payload == "" {
		return nil, strconv.ErrSyntax
	}
	return strings.Split(payload, sep), nil
}

package models

import (
	"errors"
	"fmt"
	"strings"
)

// NotFoundError is returned when neither the primary quote source nor its
// fallback produced a nonzero price for a symbol. It is a typed result, not
// a panic path: callers distinguish "symbol doesn't exist" from "providers
// are down" only through the accompanying warnings.
type NotFoundError struct {
	Symbol   string
	Warnings []string
}

func (e *NotFoundError) Error() string {
	if len(e.Warnings) == 0 {
		return fmt.Sprintf("no quote available for %s", e.Symbol)
	}
	return fmt.Sprintf("no quote available for %s: %s", e.Symbol, strings.Join(e.Warnings, "; "))
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

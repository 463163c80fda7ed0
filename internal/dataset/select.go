package dataset

import (
	"errors"
	"fmt"
)

// SelectionReason says why no column is selected.
type SelectionReason int

const (
	// NoColumnChosen means the user has not picked a column yet.
	NoColumnChosen SelectionReason = iota
	// UnknownColumn means the request names no live column.
	UnknownColumn
)

// SelectionError is the "not chosen" state. It is a normal branch, not a
// failure: callers skip chart generation and prompt instead.
type SelectionError struct {
	Requested string
	Reason    SelectionReason
}

func (e *SelectionError) Error() string {
	if e.Reason == UnknownColumn {
		return fmt.Sprintf("column %q is not in the table", e.Requested)
	}
	return "no column chosen"
}

// Select returns requested unchanged when it names one of t's live columns.
func Select(t *Table, requested string) (string, error) {
	if requested == "" {
		return "", &SelectionError{Reason: NoColumnChosen}
	}
	if _, ok := t.Column(requested); !ok {
		return "", &SelectionError{Requested: requested, Reason: UnknownColumn}
	}
	return requested, nil
}

// IsNotChosen reports whether err is the "not chosen" selection state.
func IsNotChosen(err error) bool {
	var se *SelectionError
	return errors.As(err, &se)
}

package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDateNotFound means a "new submissions" page has no heading to read the date from.
	ErrDateNotFound = errors.New("date not found on the page")
	// ErrDateFormatInvalid means the heading exists but its date phrase is not recognised.
	ErrDateFormatInvalid = errors.New("date format not recognized")
	// ErrTranslationFailed wraps any failure of the translation service.
	ErrTranslationFailed = errors.New("translation failed")
)

// InvalidSubjectError rejects a subject code that has no listing.
type InvalidSubjectError struct {
	Code  string
	Known []string
}

func (e *InvalidSubjectError) Error() string {
	if len(e.Known) == 0 {
		return fmt.Sprintf("invalid subject code: %s", e.Code)
	}
	return fmt.Sprintf("invalid subject code: %s (use one of %s)", e.Code, strings.Join(e.Known, ", "))
}

// IsInvalidSubject reports whether err carries an InvalidSubjectError.
func IsInvalidSubject(err error) bool {
	var e *InvalidSubjectError
	return errors.As(err, &e)
}

// IsListingDateError reports whether err comes from reading a listing date.
func IsListingDateError(err error) bool {
	return errors.Is(err, ErrDateNotFound) || errors.Is(err, ErrDateFormatInvalid)
}

package mapping

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrCourseNotFound = errors.New("course not found")
	ErrOutOfRange     = errors.New("mapping: cell out of range")
	ErrInvalidLevel   = errors.New("mapping: invalid correlation level")
	ErrUnknownAxis    = errors.New("mapping: unknown axis")
	ErrNotLoaded      = errors.New("mapping: editor not loaded")
	ErrNoOutcomes     = errors.New("mapping: course has no outcomes")
	ErrEditorClosed   = errors.New("mapping: editor closed")
)

// StatusError is returned by a Backend when the server answers with a non-2xx status.
type StatusError struct {
	Code    int
	Message string
}

func (err *StatusError) Error() string {
	if err.Message == "" {
		return fmt.Sprintf("server responded with status %d", err.Code)
	}
	return fmt.Sprintf("server responded with status %d: %s", err.Code, err.Message)
}

// LoadError is a LoadFailure: the mapping could not be fetched.
type LoadError struct {
	CourseID string
	Err      error
}

func (err *LoadError) Error() string {
	return fmt.Sprintf("loading mapping for course %q: %v", err.CourseID, err.Err)
}

func (err *LoadError) Unwrap() error { return err.Err }

// SaveError is a SaveFailure: the mapping could not be submitted. Local edits are kept.
type SaveError struct {
	CourseID string
	Err      error
}

func (err *SaveError) Error() string {
	return fmt.Sprintf("saving mapping for course %q: %v", err.CourseID, err.Err)
}

func (err *SaveError) Unwrap() error { return err.Err }

func IsLoadFailure(err error) bool {
	var lerr *LoadError
	return errors.As(err, &lerr)
}

func IsSaveFailure(err error) bool {
	var serr *SaveError
	return errors.As(err, &serr)
}

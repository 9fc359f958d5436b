package scaffold

import (
	"errors"
	"fmt"
)

// Kind classifies a build error.
type Kind int

const (
	// KindUnknown is returned by KindOf for errors not produced by a build.
	KindUnknown Kind = iota

	// KindAlreadyExists means a directory or generated file was already
	// present. Builds report it only as StatusExisted and never attach it
	// to an Error; it exists so callers can name the outcome.
	KindAlreadyExists

	// KindCreationFailure covers permissions, invalid names, missing
	// destinations and other unexpected create/copy errors.
	KindCreationFailure

	// KindRenameConflict means the renamed target file already exists.
	KindRenameConflict

	// KindRenameSourceMissing means the just-copied file vanished before
	// it could be renamed.
	KindRenameSourceMissing

	// KindTemplateMissing means the template file is absent from the set.
	KindTemplateMissing
)

func (k Kind) String() string {
	switch k {
	case KindAlreadyExists:
		return "already exists"
	case KindCreationFailure:
		return "creation failure"
	case KindRenameConflict:
		return "rename conflict"
	case KindRenameSourceMissing:
		return "rename source missing"
	case KindTemplateMissing:
		return "template missing"
	default:
		return "unknown"
	}
}

var (
	// ErrInvalidName is wrapped when a folder name is not a single path element.
	ErrInvalidName = errors.New("invalid folder name")

	// ErrDestinationMissing is wrapped when an artifact's destination
	// folder does not exist.
	ErrDestinationMissing = errors.New("destination folder does not exist")
)

// Error is a classified error for one path of a build.
type Error struct {
	Kind Kind
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s %s: %s", e.Op, e.Path, e.Kind)
	}
	return fmt.Sprintf("%s %s: %s: %v", e.Op, e.Path, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

package scaffold

import (
	"errors"

	"github.com/google/uuid"
)

// Status is the outcome for one path.
type Status int

const (
	StatusCreated Status = iota
	StatusExisted
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusCreated:
		return "created"
	case StatusExisted:
		return "existed"
	case StatusFailed:
		return "failed"
	}
	return "unknown"
}

// ItemType says whether an item is a directory or a file.
type ItemType int

const (
	ItemDir ItemType = iota
	ItemFile
)

// Item records what happened to one path.
type Item struct {
	Path   string
	Type   ItemType
	Status Status

	// Bytes written, for files.
	Bytes int64

	// Err is set for failed items and holds an *Error.
	Err error
}

// Report enumerates the outcome of a build, in the order work was done.
type Report struct {
	ID    string
	Root  string
	Items []Item
}

func newReport(root string) *Report {
	return &Report{ID: uuid.NewString(), Root: root}
}

func (r *Report) add(it Item) {
	r.Items = append(r.Items, it)
}

// Merge appends other's items to r.
func (r *Report) Merge(other *Report) {
	if other == nil {
		return
	}
	r.Items = append(r.Items, other.Items...)
}

// Paths returns the paths of items with the given status and type.
func (r *Report) Paths(status Status, typ ItemType) []string {
	var out []string
	for _, it := range r.Items {
		if it.Status == status && it.Type == typ {
			out = append(out, it.Path)
		}
	}
	return out
}

// Failed returns the failed items.
func (r *Report) Failed() []Item {
	var out []Item
	for _, it := range r.Items {
		if it.Status == StatusFailed {
			out = append(out, it)
		}
	}
	return out
}

// Err joins the errors of all failed items, or returns nil.
func (r *Report) Err() error {
	var errs []error
	for _, it := range r.Failed() {
		errs = append(errs, it.Err)
	}
	return errors.Join(errs...)
}

// Summary counts a report's items.
type Summary struct {
	Created int
	Existed int
	Failed  int
	Bytes   int64
}

// Summary returns item counts by status and the total bytes written.
func (r *Report) Summary() Summary {
	var s Summary
	for _, it := range r.Items {
		switch it.Status {
		case StatusCreated:
			s.Created++
		case StatusExisted:
			s.Existed++
		case StatusFailed:
			s.Failed++
		}
		s.Bytes += it.Bytes
	}
	return s
}

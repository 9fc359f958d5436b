package model

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// DateLayout is the date format used in experiment identifiers.
const DateLayout = "2006-01-02"

// Experiment identifies a single experiment by date and name.
//
// The canonical identifier is computed when the value is built and again
// by WithDate and WithName. Fields are unexported so the identifier can
// only change together with the inputs it is derived from.
//
// Example:
//
//	exp := NewExperiment(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), "Pump Test 1")
//	// exp.ID() == "2024-03-05 - Pump_Test_1"
type Experiment struct {
	date time.Time
	name string
	id   string
}

// NewExperiment creates an Experiment for the given date and raw name.
//
// Only the calendar date of date is used. Spaces in rawName are replaced
// with underscores.
func NewExperiment(date time.Time, rawName string) Experiment {
	e := Experiment{
		date: truncateDate(date),
		name: NormalizeName(rawName),
	}
	e.id = BuildIdentifier(e.date, e.name)
	return e
}

// WithDate returns a copy of e using date, with the identifier recomputed.
func (e Experiment) WithDate(date time.Time) Experiment {
	return NewExperiment(date, e.name)
}

// WithName returns a copy of e using rawName, with the identifier recomputed.
func (e Experiment) WithName(rawName string) Experiment {
	return NewExperiment(e.date, rawName)
}

// DateString returns the date formatted as YYYY-MM-DD.
func (e Experiment) DateString() string {
	return e.date.Format(DateLayout)
}

// Name returns the normalized experiment name.
func (e Experiment) Name() string {
	return e.name
}

// ID returns the canonical identifier "<YYYY-MM-DD> - <name>".
func (e Experiment) ID() string {
	return e.id
}

// NotesFileName returns the file name of the generated notes file.
func (e Experiment) NotesFileName() string {
	return e.id + "_notes.txt"
}

// String implements fmt.Stringer.
func (e Experiment) String() string {
	return e.id
}

// BuildIdentifier returns the canonical identifier for date and rawName.
//
// rawName is not trimmed; every space is replaced with an underscore and
// nothing else is validated.
func BuildIdentifier(date time.Time, rawName string) string {
	return date.Format(DateLayout) + " - " + NormalizeName(rawName)
}

// NormalizeName replaces every space in raw with an underscore.
func NormalizeName(raw string) string {
	return strings.ReplaceAll(raw, " ", "_")
}

// ParseDate parses a YYYY-MM-DD date and rejects impossible calendar days.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return t, nil
}

// Today returns the current local date at midnight.
func Today() time.Time {
	return truncateDate(time.Now())
}

func truncateDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Request bundles everything a single build needs.
type Request struct {
	// Parent is the directory the experiment root is created in.
	Parent string

	Experiment Experiment
	Folders    FolderSelection
	Images     ImageFormatSelection
	Files      FileSelection
}

// Root returns the experiment root directory, Parent/<canonical id>.
func (r Request) Root() string {
	return filepath.Join(r.Parent, r.Experiment.ID())
}

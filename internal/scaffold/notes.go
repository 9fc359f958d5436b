package scaffold

import (
	"fmt"

	"github.com/handiism/expstart/internal/model"
)

// NotesContent returns the body of a new notes file: a title line, a
// tab separated header and a first entry dated with the experiment date.
func NotesContent(exp model.Experiment) string {
	return fmt.Sprintf("This is a note file for %s\nDate\t\tTime\t\tNotes\n%s\t\t\tFile Created\n",
		exp.ID(), exp.DateString())
}

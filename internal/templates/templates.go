// Package templates locates the bundled template files that experiment
// trees are provisioned from.
package templates

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/handiism/expstart/internal/model"
)

// EnvDir names the environment variable that overrides the template directory.
const EnvDir = "EXPSTART_TEMPLATES"

// ErrNotFound is returned by Locate when no candidate directory exists.
var ErrNotFound = errors.New("template directory not found")

// Set is a directory holding the template files named in the artifact table.
type Set struct {
	Dir string
}

// Path returns the template path for spec, or "" for generated artifacts.
func (s Set) Path(spec model.ArtifactSpec) string {
	if spec.Generated {
		return ""
	}
	return filepath.Join(s.Dir, spec.Source)
}

// Status describes one template file.
type Status struct {
	Spec    model.ArtifactSpec
	Path    string
	Present bool
	Size    int64
}

// Check reports every copied artifact and whether its template is present.
func (s Set) Check() []Status {
	var out []Status
	for _, spec := range model.Specs() {
		if spec.Generated {
			continue
		}
		st := Status{Spec: spec, Path: s.Path(spec)}
		if info, err := os.Stat(st.Path); err == nil && info.Mode().IsRegular() {
			st.Present = true
			st.Size = info.Size()
		}
		out = append(out, st)
	}
	return out
}

// Missing returns the sources of templates that are absent.
func (s Set) Missing() []string {
	var missing []string
	for _, st := range s.Check() {
		if !st.Present {
			missing = append(missing, st.Spec.Source)
		}
	}
	return missing
}

// Candidates returns the template directories searched by default, in
// order: configured, $EXPSTART_TEMPLATES, ./files, <executable dir>/files.
func Candidates(configured string) []string {
	var dirs []string
	if configured != "" {
		dirs = append(dirs, configured)
	}
	if env := os.Getenv(EnvDir); env != "" {
		dirs = append(dirs, env)
	}
	dirs = append(dirs, "files")
	if exe, err := os.Executable(); err == nil {
		dirs = append(dirs, filepath.Join(filepath.Dir(exe), "files"))
	}
	return dirs
}

// Locate returns a Set for the first candidate that is an existing directory.
func Locate(candidates ...string) (Set, error) {
	for _, dir := range candidates {
		if dir == "" {
			continue
		}
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			abs, err := filepath.Abs(dir)
			if err != nil {
				abs = dir
			}
			return Set{Dir: abs}, nil
		}
	}
	return Set{}, ErrNotFound
}

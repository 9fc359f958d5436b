package config

import (
	"fmt"
	"os"

	ioutils "github.com/handiism/expstart/internal/io"
	"github.com/handiism/expstart/internal/model"
)

// Manifest lists experiments to build in one batch.
//
// Selections left out of an entry fall back to the manifest defaults,
// which in turn fall back to Settings.
//
// Example (YAML):
//
//	parent_folder: /data/experiments
//	experiments:
//	  - name: Pump Test 1
//	    date: 2024-03-05
//	  - name: Pump Test 2
//	    date: 2024-03-06
//	    folders: {data: true, plots: true}
type Manifest struct {
	ParentFolder string                      `json:"parent_folder" yaml:"parent_folder"`
	Folders      *model.FolderSelection      `json:"folders" yaml:"folders"`
	ImageFormats *model.ImageFormatSelection `json:"image_formats" yaml:"image_formats"`
	Files        *model.FileSelection        `json:"files" yaml:"files"`
	Experiments  []ManifestEntry             `json:"experiments" yaml:"experiments"`
}

// ManifestEntry is one experiment in a Manifest.
type ManifestEntry struct {
	Name         string                      `json:"name" yaml:"name"`
	Date         string                      `json:"date" yaml:"date"`
	ParentFolder string                      `json:"parent_folder" yaml:"parent_folder"`
	Folders      *model.FolderSelection      `json:"folders" yaml:"folders"`
	ImageFormats *model.ImageFormatSelection `json:"image_formats" yaml:"image_formats"`
	Files        *model.FileSelection        `json:"files" yaml:"files"`
}

// LoadManifest reads a JSON or YAML manifest. Unlike Load, a missing file
// is an error.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := unmarshal(path, data, &m); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &m, nil
}

// Requests resolves every entry into a build request. Entries without a
// date use today; an invalid date or empty name is an error naming the
// entry.
func (m *Manifest) Requests(s *Settings) ([]model.Request, error) {
	if len(m.Experiments) == 0 {
		return nil, fmt.Errorf("manifest lists no experiments")
	}

	reqs := make([]model.Request, 0, len(m.Experiments))
	for i, e := range m.Experiments {
		if e.Name == "" {
			return nil, fmt.Errorf("experiment %d: name is required", i+1)
		}

		date := model.Today()
		if e.Date != "" {
			d, err := model.ParseDate(e.Date)
			if err != nil {
				return nil, fmt.Errorf("experiment %d (%s): %w", i+1, e.Name, err)
			}
			date = d
		}

		name := e.Name
		if s.SanitizeNames {
			name = ioutils.SanitizeFileName(name)
		}

		req := s.ToRequest(model.NewExperiment(date, name))
		req.Parent = firstNonEmpty(e.ParentFolder, m.ParentFolder, s.ParentFolder)
		req.Folders = pick(e.Folders, m.Folders, s.Folders)
		req.Images = pick(e.ImageFormats, m.ImageFormats, s.ImageFormats)
		req.Files = pick(e.Files, m.Files, s.Files)
		reqs = append(reqs, req)
	}
	return reqs, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func pick[T any](entry, manifest *T, fallback T) T {
	switch {
	case entry != nil:
		return *entry
	case manifest != nil:
		return *manifest
	default:
		return fallback
	}
}

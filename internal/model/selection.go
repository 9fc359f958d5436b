package model

import (
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

// Top-level category folder names.
const (
	FolderData      = "data"
	FolderImages    = "images"
	FolderNotebooks = "notebooks"
	FolderPlots     = "plots"
	FolderVideos    = "videos"
)

// Image format sub-folder names.
const (
	FormatJPG = "JPG"
	FormatNEF = "NEF"
	FormatPNG = "PNG"
	FormatSVG = "SVG"
)

// DefaultCustomFolderNames are the names offered for the three custom folders.
var DefaultCustomFolderNames = [3]string{"literature", "misc", "zzz_obsolete"}

// CustomFolder is a user-named top-level folder.
type CustomFolder struct {
	Name    string `json:"name" yaml:"name"`
	Enabled bool   `json:"enabled" yaml:"enabled"`
}

// CustomFolders holds the three custom folder slots.
//
// Config files may list fewer than three entries; the remaining slots are
// left empty. More than three is an error.
type CustomFolders [3]CustomFolder

func (c *CustomFolders) set(list []CustomFolder) error {
	if len(list) > len(*c) {
		return fmt.Errorf("at most %d custom folders, got %d", len(*c), len(list))
	}
	*c = CustomFolders{}
	copy(c[:], list)
	return nil
}

// UnmarshalJSON accepts a list of up to three custom folders.
func (c *CustomFolders) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var list []CustomFolder
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	return c.set(list)
}

// UnmarshalYAML accepts a list of up to three custom folders.
func (c *CustomFolders) UnmarshalYAML(value *yaml.Node) error {
	if value.Tag == "!!null" {
		return nil
	}
	var list []CustomFolder
	if err := value.Decode(&list); err != nil {
		return err
	}
	return c.set(list)
}

// FolderSelection holds which top-level folders a build creates.
type FolderSelection struct {
	Data      bool          `json:"data" yaml:"data"`
	Images    bool          `json:"images" yaml:"images"`
	Notebooks bool          `json:"notebooks" yaml:"notebooks"`
	Plots     bool          `json:"plots" yaml:"plots"`
	Videos    bool          `json:"videos" yaml:"videos"`
	Custom    CustomFolders `json:"custom" yaml:"custom"`
}

// DefaultFolderSelection selects every standard folder and names the custom
// folders without enabling them.
func DefaultFolderSelection() FolderSelection {
	sel := FolderSelection{
		Data:      true,
		Images:    true,
		Notebooks: true,
		Plots:     true,
		Videos:    true,
	}
	for i, name := range DefaultCustomFolderNames {
		sel.Custom[i] = CustomFolder{Name: name}
	}
	return sel
}

// Folders returns the selected folder names in build order: data, images,
// notebooks, plots, videos, then the custom folders. A custom folder is
// included only when it is enabled and has a non-empty name.
func (s FolderSelection) Folders() []string {
	var folders []string
	for _, f := range []struct {
		on   bool
		name string
	}{
		{s.Data, FolderData},
		{s.Images, FolderImages},
		{s.Notebooks, FolderNotebooks},
		{s.Plots, FolderPlots},
		{s.Videos, FolderVideos},
	} {
		if f.on {
			folders = append(folders, f.name)
		}
	}
	for _, c := range s.Custom {
		if c.Enabled && c.Name != "" {
			folders = append(folders, c.Name)
		}
	}
	return folders
}

// Set enables the standard folder called name.
func (s *FolderSelection) Set(name string) error {
	switch strings.ToLower(name) {
	case FolderData:
		s.Data = true
	case FolderImages:
		s.Images = true
	case FolderNotebooks:
		s.Notebooks = true
	case FolderPlots:
		s.Plots = true
	case FolderVideos:
		s.Videos = true
	default:
		return fmt.Errorf("unknown folder %q", name)
	}
	return nil
}

// SetCustom replaces the custom folders with names, enabling each one.
// At most three names are accepted.
func (s *FolderSelection) SetCustom(names []string) error {
	if len(names) > len(s.Custom) {
		return fmt.Errorf("at most %d custom folders, got %d", len(s.Custom), len(names))
	}
	for i := range s.Custom {
		s.Custom[i] = CustomFolder{Name: DefaultCustomFolderNames[i]}
		if i < len(names) {
			s.Custom[i] = CustomFolder{Name: names[i], Enabled: true}
		}
	}
	return nil
}

// ImageFormatSelection holds which format folders are created under images.
// It is ignored unless FolderSelection.Images is set.
type ImageFormatSelection struct {
	JPG bool `json:"jpg" yaml:"jpg"`
	NEF bool `json:"nef" yaml:"nef"`
	PNG bool `json:"png" yaml:"png"`
	SVG bool `json:"svg" yaml:"svg"`
}

// DefaultImageFormatSelection selects every format.
func DefaultImageFormatSelection() ImageFormatSelection {
	return ImageFormatSelection{JPG: true, NEF: true, PNG: true, SVG: true}
}

// Formats returns the selected formats in the order JPG, NEF, PNG, SVG.
func (s ImageFormatSelection) Formats() []string {
	var formats []string
	if s.JPG {
		formats = append(formats, FormatJPG)
	}
	if s.NEF {
		formats = append(formats, FormatNEF)
	}
	if s.PNG {
		formats = append(formats, FormatPNG)
	}
	if s.SVG {
		formats = append(formats, FormatSVG)
	}
	return formats
}

// Set enables the format called name (case-insensitive).
func (s *ImageFormatSelection) Set(name string) error {
	switch strings.ToUpper(name) {
	case FormatJPG:
		s.JPG = true
	case FormatNEF:
		s.NEF = true
	case FormatPNG:
		s.PNG = true
	case FormatSVG:
		s.SVG = true
	default:
		return fmt.Errorf("unknown image format %q", name)
	}
	return nil
}

// Artifact identifies one provisioned file.
type Artifact int

const (
	// ArtifactNotes is the generated notes file in the experiment root.
	ArtifactNotes Artifact = iota

	// ArtifactVideoScript is the video script text template.
	ArtifactVideoScript

	// ArtifactNotebook is the notebook starter.
	ArtifactNotebook

	// ArtifactScript is the script starter.
	ArtifactScript

	// ArtifactContactAngle is the contact-angle spreadsheet template.
	ArtifactContactAngle

	// ArtifactPressureTransducer is the pressure-transducer spreadsheet template.
	ArtifactPressureTransducer

	// ArtifactExpSetup is the experiment-setup drawing template.
	ArtifactExpSetup

	// ArtifactConcatVideo is the video-concatenation helper script.
	ArtifactConcatVideo
)

// ArtifactSpec binds an artifact to its template and destination.
type ArtifactSpec struct {
	Artifact Artifact

	// Key is the short name used on the command line and in config files.
	Key string

	// Label is a human readable description.
	Label string

	// Source is the template file name. Empty for generated artifacts.
	Source string

	// Dest is the destination folder relative to the experiment root,
	// slash separated. Empty means the root itself.
	Dest string

	// Rename prefixes the copied file with the canonical identifier.
	Rename bool

	// Generated artifacts are synthesized rather than copied.
	Generated bool
}

// TargetName returns the final file name of the artifact for experiment id.
func (s ArtifactSpec) TargetName(id string) string {
	switch {
	case s.Generated:
		return id + "_notes.txt"
	case s.Rename:
		return id + s.Source
	default:
		return s.Source
	}
}

var specs = []ArtifactSpec{
	{Artifact: ArtifactNotes, Key: "notes", Label: "Notes file (_notes.txt)", Generated: true},
	{Artifact: ArtifactVideoScript, Key: "video_script", Label: "Video script (video_scripts.txt)", Source: "video_scripts.txt", Dest: FolderVideos},
	{Artifact: ArtifactNotebook, Key: "notebook", Label: "Notebook starter (_notebook.ipynb)", Source: "_notebook.ipynb", Dest: FolderNotebooks, Rename: true},
	{Artifact: ArtifactScript, Key: "script", Label: "Script starter (_py_script.py)", Source: "_py_script.py", Dest: FolderNotebooks, Rename: true},
	{Artifact: ArtifactContactAngle, Key: "contact_angle", Label: "Contact angle template (.xlsx)", Source: "optical_contact_angle_template.xlsx", Dest: FolderNotebooks},
	{Artifact: ArtifactPressureTransducer, Key: "pressure_transducer", Label: "Pressure transducer template (.xlsx)", Source: "pressure_transducer_unit_conversion.xlsx", Dest: FolderNotebooks},
	{Artifact: ArtifactExpSetup, Key: "exp_setup", Label: "Experiment setup drawing (_exp_setup.svg)", Source: "_exp_setup.svg", Dest: path.Join(FolderImages, FormatSVG), Rename: true},
	{Artifact: ArtifactConcatVideo, Key: "concat_video", Label: "Video concatenation helper (concatenate.bat)", Source: "concatenate.bat", Dest: FolderVideos},
}

// Specs returns the artifact table in provisioning order.
func Specs() []ArtifactSpec {
	out := make([]ArtifactSpec, len(specs))
	copy(out, specs)
	return out
}

// Spec returns the table entry for a.
func (a Artifact) Spec() ArtifactSpec {
	if int(a) < 0 || int(a) >= len(specs) {
		return ArtifactSpec{Artifact: a, Key: fmt.Sprintf("artifact(%d)", int(a))}
	}
	return specs[a]
}

// String returns the artifact key.
func (a Artifact) String() string {
	return a.Spec().Key
}

// ParseArtifact maps a key such as "notebook" to its Artifact.
func ParseArtifact(key string) (Artifact, error) {
	k := strings.ToLower(strings.ReplaceAll(key, "-", "_"))
	for _, s := range specs {
		if s.Key == k {
			return s.Artifact, nil
		}
	}
	return 0, fmt.Errorf("unknown file %q", key)
}

// FileSelection holds which artifacts are provisioned.
type FileSelection struct {
	Notes              bool `json:"notes" yaml:"notes"`
	VideoScript        bool `json:"video_script" yaml:"video_script"`
	Notebook           bool `json:"notebook" yaml:"notebook"`
	Script             bool `json:"script" yaml:"script"`
	ContactAngle       bool `json:"contact_angle" yaml:"contact_angle"`
	PressureTransducer bool `json:"pressure_transducer" yaml:"pressure_transducer"`
	ExpSetup           bool `json:"exp_setup" yaml:"exp_setup"`
	ConcatVideo        bool `json:"concat_video" yaml:"concat_video"`
}

// DefaultFileSelection returns the files provisioned when nothing else is configured.
func DefaultFileSelection() FileSelection {
	return FileSelection{
		Notes:       true,
		VideoScript: true,
		Notebook:    true,
		ExpSetup:    true,
		ConcatVideo: true,
	}
}

func (s *FileSelection) flag(a Artifact) *bool {
	switch a {
	case ArtifactNotes:
		return &s.Notes
	case ArtifactVideoScript:
		return &s.VideoScript
	case ArtifactNotebook:
		return &s.Notebook
	case ArtifactScript:
		return &s.Script
	case ArtifactContactAngle:
		return &s.ContactAngle
	case ArtifactPressureTransducer:
		return &s.PressureTransducer
	case ArtifactExpSetup:
		return &s.ExpSetup
	case ArtifactConcatVideo:
		return &s.ConcatVideo
	}
	return nil
}

// Selected reports whether a is selected.
func (s FileSelection) Selected(a Artifact) bool {
	if p := s.flag(a); p != nil {
		return *p
	}
	return false
}

// Set selects a.
func (s *FileSelection) Set(a Artifact) {
	if p := s.flag(a); p != nil {
		*p = true
	}
}

// Artifacts returns the selected artifacts in table order.
func (s FileSelection) Artifacts() []Artifact {
	var out []Artifact
	for _, spec := range specs {
		if s.Selected(spec.Artifact) {
			out = append(out, spec.Artifact)
		}
	}
	return out
}

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/handiism/expstart/internal/model"
	"gopkg.in/yaml.v3"
)

// EnvConfig names the environment variable holding the config file path.
const EnvConfig = "EXPSTART_CONFIG"

// Settings holds all configuration options.
type Settings struct {
	// Location settings
	ParentFolder string `json:"parent_folder" yaml:"parent_folder"`
	TemplatesDir string `json:"templates_dir" yaml:"templates_dir"`

	// Default selections offered by the CLI and the form
	Folders      model.FolderSelection      `json:"folders" yaml:"folders"`
	ImageFormats model.ImageFormatSelection `json:"image_formats" yaml:"image_formats"`
	Files        model.FileSelection        `json:"files" yaml:"files"`

	// Behaviour
	SanitizeNames       bool `json:"sanitize_names" yaml:"sanitize_names"`
	Reveal              bool `json:"reveal" yaml:"reveal"`
	MaxConcurrentBuilds int  `json:"max_concurrent_builds" yaml:"max_concurrent_builds"`
}

// DefaultSettings returns settings with default values.
func DefaultSettings() *Settings {
	homeDir, _ := os.UserHomeDir()
	return &Settings{
		ParentFolder: filepath.Join(homeDir, "Documents", "experiments"),

		Folders:      model.DefaultFolderSelection(),
		ImageFormats: model.DefaultImageFormatSelection(),
		Files:        model.DefaultFileSelection(),

		SanitizeNames:       false,
		Reveal:              false,
		MaxConcurrentBuilds: 2,
	}
}

// DefaultPath returns the config path: $EXPSTART_CONFIG, or
// <user config dir>/expstart/config.json.
func DefaultPath() string {
	if p := os.Getenv(EnvConfig); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "expstart.json"
	}
	return filepath.Join(dir, "expstart", "config.json")
}

// Load reads settings from a JSON or YAML file. Files ending in .yaml or
// .yml are YAML; anything else is JSON. A missing file yields defaults.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSettings(), nil
		}
		return nil, err
	}

	settings := DefaultSettings()
	if err := unmarshal(path, data, settings); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	return settings, nil
}

// Save writes settings to a JSON or YAML file, by extension.
func (s *Settings) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(s)
	} else {
		data, err = json.MarshalIndent(s, "", "  ")
	}
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// ToRequest builds a request for the experiment using the settings'
// parent folder and default selections.
func (s *Settings) ToRequest(exp model.Experiment) model.Request {
	return model.Request{
		Parent:     s.ParentFolder,
		Experiment: exp,
		Folders:    s.Folders,
		Images:     s.ImageFormats,
		Files:      s.Files,
	}
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

func unmarshal(path string, data []byte, v any) error {
	if isYAML(path) {
		return yaml.Unmarshal(data, v)
	}
	return json.Unmarshal(data, v)
}

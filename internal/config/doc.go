// Package config provides configuration management for expstart.
//
// This package handles:
//   - Loading and saving settings from JSON or YAML files
//   - Default configuration values
//   - Batch manifests listing several experiments
//
// # Default Settings
//
//	settings := config.DefaultSettings()
//	// Experiments go under ~/Documents/experiments
//	// All standard folders and image formats selected
//	// Custom folders literature, misc, zzz_obsolete named but disabled
//
// # Loading from File
//
//	settings, err := config.Load(config.DefaultPath())
//	if err != nil {
//	    // Uses defaults if file doesn't exist
//	}
//
// The format follows the extension: .yaml/.yml is YAML, anything else JSON.
//
// # Manifests
//
//	m, err := config.LoadManifest("batch.yaml")
//	reqs, err := m.Requests(settings)
package config

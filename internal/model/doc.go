// Package model defines the core data structures used throughout
// expstart.
//
// # Experiment
//
// Experiment pairs a calendar date with a normalized name and derives the
// canonical identifier that names the experiment's root folder:
//
//	exp := model.NewExperiment(date, "Pump Test 1")
//	fmt.Println(exp.ID()) // "2024-03-05 - Pump_Test_1"
//
// Experiment is a value. WithDate and WithName return a copy with the
// identifier recomputed, so the identifier can never drift from its inputs.
//
// # Selections
//
// FolderSelection, ImageFormatSelection and FileSelection describe what a
// build creates. Each exposes its choices in a fixed order:
//
//	sel.Folders()    // data, images, notebooks, plots, videos, custom-0..2
//	img.Formats()    // JPG, NEF, PNG, SVG
//	files.Artifacts() // in artifact table order
//
// # Artifacts
//
// Specs returns the fixed table binding each template artifact to its
// source file, destination folder and rename policy.
package model

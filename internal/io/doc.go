// Package ioutils provides the file system primitives used to build
// experiment trees.
//
// # File Operations
//
//	// Copy a template, keeping its mode and modification time
//	n, err := ioutils.CopyFile(ctx, "/templates/_notebook.ipynb", "/exp/notebooks/_notebook.ipynb")
//
//	// Create one directory; an existing one is reported via IsExist
//	if err := ioutils.MakeDir(path); err != nil && !ioutils.IsExist(err) {
//	    // real failure
//	}
//
//	// Rename, refusing to replace an existing file
//	err := ioutils.RenameNoClobber(oldPath, newPath)
//	errors.Is(err, ioutils.ErrTargetExists)
//
// # Filename Sanitization
//
//	safe := ioutils.SanitizeFileName("Run: 1/2") // Returns "Run_ 1_2"
package ioutils

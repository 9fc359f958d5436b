// Package reveal shows a directory in the host's file manager.
package reveal

import (
	"os/exec"
	"runtime"
)

// Command returns the program and arguments that open path in the file
// manager for goos.
//
// On Windows the folder is opened directly. A "/select,<path>" argument
// gets quoted as a whole when path has spaces, which explorer rejects.
func Command(goos, path string) (string, []string) {
	switch goos {
	case "windows":
		return "explorer", []string{path}
	case "darwin":
		return "open", []string{path}
	default:
		return "xdg-open", []string{path}
	}
}

// Open starts the file manager on path and does not wait for it.
func Open(path string) error {
	name, args := Command(runtime.GOOS, path)
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go cmd.Wait() //nolint:errcheck
	return nil
}

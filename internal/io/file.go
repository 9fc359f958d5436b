package ioutils

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"regexp"
	"strings"
)

// ErrTargetExists is returned by RenameNoClobber when the target is taken.
var ErrTargetExists = errors.New("rename target already exists")

// CopyFile copies a file from source to destination and returns the number
// of bytes written.
//
// The destination is created if it doesn't exist, or truncated if it does.
// Permission bits and modification time of the source are applied to the
// destination where the file system supports it.
//
// Example:
//
//	n, err := CopyFile(ctx, "files/_notebook.ipynb", "exp/notebooks/_notebook.ipynb")
func CopyFile(ctx context.Context, src, dst string) (int64, error) {
	sourceFile, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer sourceFile.Close()

	info, err := sourceFile.Stat()
	if err != nil {
		return 0, err
	}

	destFile, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return 0, err
	}

	n, err := io.Copy(destFile, sourceFile)
	if cerr := destFile.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return n, err
	}

	// Metadata is best effort.
	_ = os.Chmod(dst, info.Mode().Perm())
	_ = os.Chtimes(dst, info.ModTime(), info.ModTime())

	return n, nil
}

// WriteFileExclusive writes data to a new file and fails with an error
// matching fs.ErrExist if path is already present.
func WriteFileExclusive(ctx context.Context, path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return err
	}
	_, err = f.Write(data)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

// MakeDir creates a single directory with mode 0755.
//
// Parent directories are not created. If path already exists the returned
// error matches fs.ErrExist, which callers usually treat as success.
func MakeDir(path string) error {
	return os.Mkdir(path, 0755)
}

// IsExist reports whether err says the target already exists.
func IsExist(err error) bool {
	return errors.Is(err, fs.ErrExist)
}

// RenameNoClobber renames oldPath to newPath unless newPath already exists.
//
// A missing oldPath yields an error matching fs.ErrNotExist; a taken
// newPath yields ErrTargetExists. The check and the rename are not atomic;
// callers serialize access to the directory.
func RenameNoClobber(oldPath, newPath string) error {
	if _, err := os.Lstat(oldPath); err != nil {
		return err
	}
	if _, err := os.Lstat(newPath); err == nil {
		return &os.LinkError{Op: "rename", Old: oldPath, New: newPath, Err: ErrTargetExists}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.Rename(oldPath, newPath)
}

var (
	invalidChars   = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
	trailingDots   = regexp.MustCompile(`\.+$`)
	repeatedSpaces = regexp.MustCompile(`\s+`)
)

// SanitizeFileName removes or replaces characters that are invalid in file/folder names.
//
// The following transformations are applied:
//   - Invalid characters (<>:"/\|?* and control chars 0x00-0x1f) → underscore
//   - Trailing dots → removed (Windows limitation)
//   - Multiple whitespace → single space
//   - Trailing whitespace → removed
//
// Example:
//
//	SanitizeFileName("Run: 1/2")  // Returns "Run_ 1_2"
//	SanitizeFileName("Trial...")  // Returns "Trial"
func SanitizeFileName(name string) string {
	name = invalidChars.ReplaceAllString(name, "_")
	name = trailingDots.ReplaceAllString(name, "")
	name = repeatedSpaces.ReplaceAllString(name, " ")
	return strings.TrimRight(name, " ")
}

// IsSinglePathElement reports whether name can be used as one directory
// entry: non-empty, not "." or "..", and free of path separators.
func IsSinglePathElement(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`)
}

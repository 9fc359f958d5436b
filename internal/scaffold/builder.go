package scaffold

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	ioutils "github.com/handiism/expstart/internal/io"
	"github.com/handiism/expstart/internal/model"
	"github.com/handiism/expstart/internal/templates"
)

// ProgressLevel indicates the severity/type of a progress message.
type ProgressLevel int

const (
	LevelInfo ProgressLevel = iota
	LevelVerbose
	LevelWarning
	LevelError
	LevelSuccess
)

func (l ProgressLevel) String() string {
	switch l {
	case LevelInfo:
		return "info"
	case LevelVerbose:
		return "verbose"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	case LevelSuccess:
		return "success"
	}
	return "unknown"
}

// Event represents a build progress update.
type Event struct {
	Message string
	Level   ProgressLevel

	// Path is the file or directory the event is about, if any.
	Path string
}

// Builder creates experiment trees and provisions their files.
//
// A Builder is safe for concurrent use. Builds of the same root are
// serialized through its Locker.
type Builder struct {
	templates  templates.Set
	locks      *Locker
	reveal     func(path string) error
	onProgress func(Event)
}

// Option configures a Builder.
type Option func(*Builder)

// WithLocker shares a Locker between Builders.
func WithLocker(l *Locker) Option {
	return func(b *Builder) {
		b.locks = l
	}
}

// WithReveal sets a function called with the root after it exists,
// typically to show it in a file manager.
func WithReveal(fn func(path string) error) Option {
	return func(b *Builder) {
		b.reveal = fn
	}
}

// NewBuilder creates a Builder that copies templates from tmpl and reports
// progress to onProgress, which may be nil.
func NewBuilder(tmpl templates.Set, onProgress func(Event), opts ...Option) *Builder {
	b := &Builder{
		templates:  tmpl,
		locks:      NewLocker(),
		onProgress: onProgress,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// WithProgress returns a copy of b that reports to onProgress. The copy
// shares b's Locker.
func (b *Builder) WithProgress(onProgress func(Event)) *Builder {
	c := *b
	c.onProgress = onProgress
	return &c
}

// Build creates the tree for req and provisions its files.
//
// ctx is only checked before work starts; a build that has begun runs to
// completion. The returned error is non-nil only when ctx is done.
// Per-path failures are recorded in the report.
func (b *Builder) Build(ctx context.Context, req model.Request) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	root := req.Root()
	unlock := b.locks.Lock(root)
	defer unlock()

	report := newReport(root)
	b.progress(Event{Message: fmt.Sprintf("Building %s", req.Experiment.ID()), Level: LevelInfo, Path: root})

	tree := b.CreateTree(req.Parent, req.Experiment.ID(), req.Folders, req.Images)
	report.Merge(tree)

	if b.reveal != nil && rootUsable(tree) {
		if err := b.reveal(root); err != nil {
			b.progress(Event{Message: fmt.Sprintf("Could not open %s: %v", root, err), Level: LevelWarning, Path: root})
		}
	}

	report.Merge(b.ProvisionFiles(ctx, root, req.Files, req.Experiment))

	s := report.Summary()
	if s.Failed == 0 {
		b.progress(Event{Message: fmt.Sprintf("Built %s: %d created, %d existed", req.Experiment.ID(), s.Created, s.Existed), Level: LevelSuccess, Path: root})
	} else {
		b.progress(Event{Message: fmt.Sprintf("Finished %s with %d failure(s)", req.Experiment.ID(), s.Failed), Level: LevelWarning, Path: root})
	}

	return report, nil
}

// CreateTree creates parent/canonicalID and the selected folders inside it.
//
// Every directory is attempted independently in a fixed order: the root,
// then folders.Folders(), then the selected image formats under images
// when images is selected. An existing directory is reported as existed;
// any other error marks that directory failed and the walk continues.
func (b *Builder) CreateTree(parent, canonicalID string, folders model.FolderSelection, images model.ImageFormatSelection) *Report {
	root := filepath.Join(parent, canonicalID)
	report := newReport(root)

	report.add(b.makeDir(root))

	for _, name := range folders.Folders() {
		if !ioutils.IsSinglePathElement(name) {
			path := filepath.Join(root, name)
			err := &Error{Kind: KindCreationFailure, Op: "mkdir", Path: path, Err: fmt.Errorf("%w: %q", ErrInvalidName, name)}
			b.progress(Event{Message: err.Error(), Level: LevelError, Path: path})
			report.add(Item{Path: path, Type: ItemDir, Status: StatusFailed, Err: err})
			continue
		}
		report.add(b.makeDir(filepath.Join(root, name)))
	}

	if folders.Images {
		for _, format := range images.Formats() {
			report.add(b.makeDir(filepath.Join(root, model.FolderImages, format)))
		}
	}

	return report
}

func (b *Builder) makeDir(path string) Item {
	err := ioutils.MakeDir(path)
	switch {
	case err == nil:
		b.progress(Event{Message: fmt.Sprintf("Created %s", path), Level: LevelVerbose, Path: path})
		return Item{Path: path, Type: ItemDir, Status: StatusCreated}
	case ioutils.IsExist(err):
		if info, statErr := os.Stat(path); statErr == nil && info.IsDir() {
			b.progress(Event{Message: fmt.Sprintf("Folder exists: %s", path), Level: LevelInfo, Path: path})
			return Item{Path: path, Type: ItemDir, Status: StatusExisted}
		}
		err = fmt.Errorf("%w: not a directory", err)
	}

	e := &Error{Kind: KindCreationFailure, Op: "mkdir", Path: path, Err: err}
	b.progress(Event{Message: e.Error(), Level: LevelError, Path: path})
	return Item{Path: path, Type: ItemDir, Status: StatusFailed, Err: e}
}

// ProvisionFiles writes the notes file and copies the selected templates
// into root, in artifact table order.
//
// Each artifact is independent: a missing template, missing destination
// folder or failed copy affects only that artifact. Renamed artifacts are
// copied first and then renamed to <canonical id><source>; when the rename
// fails the copy stays under its original name and a failed item is
// recorded for the target.
func (b *Builder) ProvisionFiles(ctx context.Context, root string, sel model.FileSelection, exp model.Experiment) *Report {
	report := newReport(root)

	for _, a := range sel.Artifacts() {
		spec := a.Spec()
		if spec.Generated {
			report.add(b.writeNotes(ctx, root, exp))
			continue
		}
		for _, it := range b.copyTemplate(ctx, root, spec, exp.ID()) {
			report.add(it)
		}
	}

	return report
}

func (b *Builder) writeNotes(ctx context.Context, root string, exp model.Experiment) Item {
	path := filepath.Join(root, exp.NotesFileName())
	content := []byte(NotesContent(exp))

	err := ioutils.WriteFileExclusive(ctx, path, content)
	switch {
	case err == nil:
		b.progress(Event{Message: fmt.Sprintf("Created %s", path), Level: LevelVerbose, Path: path})
		return Item{Path: path, Type: ItemFile, Status: StatusCreated, Bytes: int64(len(content))}
	case ioutils.IsExist(err):
		b.progress(Event{Message: fmt.Sprintf("Notes file exists, leaving it untouched: %s", path), Level: LevelInfo, Path: path})
		return Item{Path: path, Type: ItemFile, Status: StatusExisted}
	}

	e := &Error{Kind: KindCreationFailure, Op: "write", Path: path, Err: err}
	b.progress(Event{Message: e.Error(), Level: LevelError, Path: path})
	return Item{Path: path, Type: ItemFile, Status: StatusFailed, Err: e}
}

func (b *Builder) copyTemplate(ctx context.Context, root string, spec model.ArtifactSpec, id string) []Item {
	src := b.templates.Path(spec)
	destDir := filepath.Join(root, filepath.FromSlash(spec.Dest))
	copied := filepath.Join(destDir, spec.Source)

	fail := func(kind Kind, op, path string, err error) Item {
		e := &Error{Kind: kind, Op: op, Path: path, Err: err}
		b.progress(Event{Message: e.Error(), Level: LevelError, Path: path})
		return Item{Path: path, Type: ItemFile, Status: StatusFailed, Err: e}
	}

	if info, err := os.Stat(src); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []Item{fail(KindTemplateMissing, "copy", copied, err)}
		}
		return []Item{fail(KindCreationFailure, "copy", copied, err)}
	} else if !info.Mode().IsRegular() {
		return []Item{fail(KindTemplateMissing, "copy", copied, fmt.Errorf("%s is not a regular file", src))}
	}

	if info, err := os.Stat(destDir); err != nil || !info.IsDir() {
		return []Item{fail(KindCreationFailure, "copy", copied, fmt.Errorf("%w: %s", ErrDestinationMissing, destDir))}
	}

	n, err := ioutils.CopyFile(ctx, src, copied)
	if err != nil {
		return []Item{fail(KindCreationFailure, "copy", copied, err)}
	}

	if !spec.Rename {
		b.progress(Event{Message: fmt.Sprintf("Copied %s", copied), Level: LevelVerbose, Path: copied})
		return []Item{{Path: copied, Type: ItemFile, Status: StatusCreated, Bytes: n}}
	}

	target := filepath.Join(destDir, spec.TargetName(id))
	if err := renameFile(copied, target); err != nil {
		kind := renameKind(err)
		if kind == KindRenameSourceMissing {
			return []Item{fail(kind, "rename", target, err)}
		}
		b.progress(Event{Message: fmt.Sprintf("Rename failed, copy left as %s", copied), Level: LevelWarning, Path: copied})
		return []Item{
			{Path: copied, Type: ItemFile, Status: StatusCreated, Bytes: n},
			fail(kind, "rename", target, err),
		}
	}

	b.progress(Event{Message: fmt.Sprintf("Copied %s", target), Level: LevelVerbose, Path: target})
	return []Item{{Path: target, Type: ItemFile, Status: StatusCreated, Bytes: n}}
}

// renameFile moves a fresh copy to its final name.
var renameFile = ioutils.RenameNoClobber

// renameKind classifies an error from RenameNoClobber.
func renameKind(err error) Kind {
	switch {
	case errors.Is(err, ioutils.ErrTargetExists):
		return KindRenameConflict
	case errors.Is(err, fs.ErrNotExist):
		return KindRenameSourceMissing
	}
	return KindCreationFailure
}

// rootUsable reports whether the tree's root directory exists.
func rootUsable(tree *Report) bool {
	return len(tree.Items) > 0 && tree.Items[0].Status != StatusFailed
}

func (b *Builder) progress(event Event) {
	if b.onProgress != nil {
		b.onProgress(event)
	}
}

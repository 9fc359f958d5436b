package scaffold

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	ioutils "github.com/handiism/expstart/internal/io"
	"github.com/handiism/expstart/internal/model"
	"github.com/handiism/expstart/internal/templates"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDate = time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

// writeTemplates fills dir with one small file per copied artifact.
func writeTemplates(t *testing.T, dir string) templates.Set {
	t.Helper()
	for _, spec := range model.Specs() {
		if spec.Generated {
			continue
		}
		require.NoError(t, os.WriteFile(filepath.Join(dir, spec.Source), []byte("template "+spec.Key), 0644))
	}
	return templates.Set{Dir: dir}
}

// listTree returns every path under root, relative and slash separated,
// with a trailing slash on directories.
func listTree(t *testing.T, root string) []string {
	t.Helper()
	var out []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			rel += "/"
		}
		out = append(out, rel)
		return nil
	})
	require.NoError(t, err)
	sort.Strings(out)
	return out
}

type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func (l *eventLog) record(e Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *eventLog) levels(path string) []ProgressLevel {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []ProgressLevel
	for _, e := range l.events {
		if e.Path == path {
			out = append(out, e.Level)
		}
	}
	return out
}

func TestBuild_Scenario(t *testing.T) {
	parent := t.TempDir()
	builder := NewBuilder(writeTemplates(t, t.TempDir()), nil)

	req := model.Request{
		Parent:     parent,
		Experiment: model.NewExperiment(testDate, "Pump Test 1"),
		Folders:    model.FolderSelection{Data: true, Images: true},
		Images:     model.ImageFormatSelection{PNG: true},
		Files:      model.FileSelection{Notes: true},
	}

	report, err := builder.Build(context.Background(), req)
	require.NoError(t, err)
	require.NoError(t, report.Err())

	root := filepath.Join(parent, "2024-03-05 - Pump_Test_1")
	assert.Equal(t, root, report.Root)

	want := []string{
		"2024-03-05 - Pump_Test_1_notes.txt",
		"data/",
		"images/",
		"images/PNG/",
	}
	if diff := cmp.Diff(want, listTree(t, root)); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}

	notes, err := os.ReadFile(filepath.Join(root, "2024-03-05 - Pump_Test_1_notes.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(notes), "2024-03-05 - Pump_Test_1")
	assert.Contains(t, string(notes), "2024-03-05")

	s := report.Summary()
	assert.Equal(t, Summary{Created: 5, Bytes: int64(len(notes))}, s)
}

func TestCreateTree_Idempotent(t *testing.T) {
	parent := t.TempDir()
	events := &eventLog{}
	builder := NewBuilder(templates.Set{}, events.record)

	id := model.BuildIdentifier(testDate, "rerun")
	folders := model.DefaultFolderSelection()
	images := model.DefaultImageFormatSelection()

	first := builder.CreateTree(parent, id, folders, images)
	require.NoError(t, first.Err())
	assert.Empty(t, first.Paths(StatusExisted, ItemDir))

	tree := listTree(t, filepath.Join(parent, id))

	second := builder.CreateTree(parent, id, folders, images)
	require.NoError(t, second.Err())
	assert.Empty(t, second.Paths(StatusCreated, ItemDir))
	assert.Equal(t, first.Paths(StatusCreated, ItemDir), second.Paths(StatusExisted, ItemDir))
	assert.Equal(t, tree, listTree(t, filepath.Join(parent, id)))
	for _, it := range second.Items {
		// Existing folders are a status, never an error.
		assert.NoError(t, it.Err, it.Path)
		assert.NotEqual(t, KindAlreadyExists, KindOf(it.Err))
	}

	root := filepath.Join(parent, id)
	assert.Equal(t, []ProgressLevel{LevelVerbose, LevelInfo}, events.levels(root))
}

func TestCreateTree_SelectionFidelity(t *testing.T) {
	tests := []struct {
		name    string
		folders model.FolderSelection
		images  model.ImageFormatSelection
		want    []string
	}{
		{
			name: "nothing selected",
			want: nil,
		},
		{
			name:   "formats ignored without images",
			images: model.DefaultImageFormatSelection(),
			folders: model.FolderSelection{
				Plots: true,
			},
			want: []string{"plots/"},
		},
		{
			name:    "images without formats",
			folders: model.FolderSelection{Images: true},
			want:    []string{"images/"},
		},
		{
			name: "customs need flag and name",
			folders: model.FolderSelection{
				Notebooks: true,
				Custom: [3]model.CustomFolder{
					{Name: "literature", Enabled: true},
					{Name: "misc"},
					{Name: "", Enabled: true},
				},
			},
			want: []string{"literature/", "notebooks/"},
		},
		{
			name:    "everything",
			folders: model.FolderSelection{Data: true, Images: true, Notebooks: true, Plots: true, Videos: true},
			images:  model.DefaultImageFormatSelection(),
			want: []string{
				"data/", "images/", "images/JPG/", "images/NEF/", "images/PNG/", "images/SVG/",
				"notebooks/", "plots/", "videos/",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parent := t.TempDir()
			report := NewBuilder(templates.Set{}, nil).CreateTree(parent, "exp", tt.folders, tt.images)
			require.NoError(t, report.Err())

			if diff := cmp.Diff(tt.want, listTree(t, filepath.Join(parent, "exp"))); diff != "" {
				t.Errorf("tree mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCreateTree_Order(t *testing.T) {
	parent := t.TempDir()
	folders := model.FolderSelection{
		Videos: true, Data: true, Images: true,
		Custom: [3]model.CustomFolder{{}, {}, {Name: "zzz_obsolete", Enabled: true}},
	}
	images := model.ImageFormatSelection{SVG: true, JPG: true}

	report := NewBuilder(templates.Set{}, nil).CreateTree(parent, "exp", folders, images)

	root := filepath.Join(parent, "exp")
	want := []string{
		root,
		filepath.Join(root, "data"),
		filepath.Join(root, "images"),
		filepath.Join(root, "videos"),
		filepath.Join(root, "zzz_obsolete"),
		filepath.Join(root, "images", "JPG"),
		filepath.Join(root, "images", "SVG"),
	}
	assert.Equal(t, want, report.Paths(StatusCreated, ItemDir))
}

func TestCreateTree_InvalidCustomName(t *testing.T) {
	parent := t.TempDir()
	folders := model.FolderSelection{
		Data:   true,
		Custom: [3]model.CustomFolder{{Name: "../escape", Enabled: true}, {Name: "ok", Enabled: true}},
	}

	report := NewBuilder(templates.Set{}, nil).CreateTree(parent, "exp", folders, model.ImageFormatSelection{})

	failed := report.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, KindCreationFailure, KindOf(failed[0].Err))
	assert.ErrorIs(t, failed[0].Err, ErrInvalidName)
	assert.DirExists(t, filepath.Join(parent, "exp", "ok"))
	assert.NoDirExists(t, filepath.Join(parent, "escape"))
}

func TestCreateTree_RootFailureIsBestEffort(t *testing.T) {
	parent := filepath.Join(t.TempDir(), "does", "not", "exist")

	report := NewBuilder(templates.Set{}, nil).CreateTree(parent, "exp", model.FolderSelection{Data: true, Images: true}, model.ImageFormatSelection{PNG: true})

	require.Len(t, report.Items, 4, "every directory is still attempted")
	for _, it := range report.Items {
		assert.Equal(t, StatusFailed, it.Status, it.Path)
		assert.Equal(t, KindCreationFailure, KindOf(it.Err))
	}
}

func TestCreateTree_FileInTheWay(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "exp")
	require.NoError(t, os.Mkdir(root, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "data"), []byte("x"), 0644))

	report := NewBuilder(templates.Set{}, nil).CreateTree(parent, "exp", model.FolderSelection{Data: true, Plots: true}, model.ImageFormatSelection{})

	failed := report.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, filepath.Join(root, "data"), failed[0].Path)
	assert.Equal(t, []string{root}, report.Paths(StatusExisted, ItemDir))
}

func fullRequest(parent string) model.Request {
	return model.Request{
		Parent:     parent,
		Experiment: model.NewExperiment(testDate, "Valve Study"),
		Folders:    model.DefaultFolderSelection(),
		Images:     model.DefaultImageFormatSelection(),
		Files: model.FileSelection{
			Notes: true, VideoScript: true, Notebook: true, Script: true,
			ContactAngle: true, PressureTransducer: true, ExpSetup: true, ConcatVideo: true,
		},
	}
}

func TestBuild_RenameCorrectness(t *testing.T) {
	parent := t.TempDir()
	builder := NewBuilder(writeTemplates(t, t.TempDir()), nil)
	req := fullRequest(parent)

	report, err := builder.Build(context.Background(), req)
	require.NoError(t, err)
	require.NoError(t, report.Err())

	root := req.Root()
	id := req.Experiment.ID()
	for _, spec := range model.Specs() {
		if !spec.Rename {
			continue
		}
		dir := filepath.Join(root, filepath.FromSlash(spec.Dest))
		assert.FileExists(t, filepath.Join(dir, id+spec.Source))
		assert.NoFileExists(t, filepath.Join(dir, spec.Source))
	}

	assert.FileExists(t, filepath.Join(root, "videos", "video_scripts.txt"))
	assert.FileExists(t, filepath.Join(root, "videos", "concatenate.bat"))
	assert.FileExists(t, filepath.Join(root, "notebooks", "optical_contact_angle_template.xlsx"))
	assert.FileExists(t, filepath.Join(root, "notebooks", "pressure_transducer_unit_conversion.xlsx"))

	data, err := os.ReadFile(filepath.Join(root, "notebooks", id+"_notebook.ipynb"))
	require.NoError(t, err)
	assert.Equal(t, "template notebook", string(data))

	var planned []string
	for _, p := range Plan(req) {
		planned = append(planned, p.Path)
	}
	var got []string
	for _, it := range report.Items {
		got = append(got, it.Path)
	}
	assert.Equal(t, planned, got)
}

func TestBuild_RerunReportsRenameConflict(t *testing.T) {
	parent := t.TempDir()
	builder := NewBuilder(writeTemplates(t, t.TempDir()), nil)
	req := fullRequest(parent)
	ctx := context.Background()

	_, err := builder.Build(ctx, req)
	require.NoError(t, err)

	notesPath := filepath.Join(req.Root(), req.Experiment.NotesFileName())
	require.NoError(t, os.WriteFile(notesPath, []byte("my own notes"), 0644))

	report, err := builder.Build(ctx, req)
	require.NoError(t, err)

	var kinds []Kind
	for _, it := range report.Failed() {
		kinds = append(kinds, KindOf(it.Err))
	}
	assert.Equal(t, []Kind{KindRenameConflict, KindRenameConflict, KindRenameConflict}, kinds)

	// The un-renamed copy stays in place.
	assert.FileExists(t, filepath.Join(req.Root(), "notebooks", "_notebook.ipynb"))

	// Directories are existed, never failed.
	assert.Empty(t, report.Paths(StatusCreated, ItemDir))

	notes, err := os.ReadFile(notesPath)
	require.NoError(t, err)
	assert.Equal(t, "my own notes", string(notes))
	assert.Contains(t, report.Paths(StatusExisted, ItemFile), notesPath)
}

func TestProvisionFiles_TemplateMissing(t *testing.T) {
	tplDir := t.TempDir()
	set := writeTemplates(t, tplDir)
	require.NoError(t, os.Remove(filepath.Join(tplDir, "_py_script.py")))

	parent := t.TempDir()
	req := fullRequest(parent)
	report, err := NewBuilder(set, nil).Build(context.Background(), req)
	require.NoError(t, err)

	failed := report.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, KindTemplateMissing, KindOf(failed[0].Err))
	assert.ErrorIs(t, failed[0].Err, fs.ErrNotExist)

	// Later artifacts are still provisioned.
	assert.FileExists(t, filepath.Join(req.Root(), "videos", "concatenate.bat"))
}

func TestProvisionFiles_DestinationMissing(t *testing.T) {
	parent := t.TempDir()
	req := model.Request{
		Parent:     parent,
		Experiment: model.NewExperiment(testDate, "no videos"),
		Folders:    model.FolderSelection{Notebooks: true},
		Files:      model.FileSelection{VideoScript: true, Notebook: true},
	}

	report, err := NewBuilder(writeTemplates(t, t.TempDir()), nil).Build(context.Background(), req)
	require.NoError(t, err)

	failed := report.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, KindCreationFailure, KindOf(failed[0].Err))
	assert.ErrorIs(t, failed[0].Err, ErrDestinationMissing)
	assert.NoDirExists(t, filepath.Join(req.Root(), "videos"))
	assert.FileExists(t, filepath.Join(req.Root(), "notebooks", req.Experiment.ID()+"_notebook.ipynb"))
}

func TestBuild_Reveal(t *testing.T) {
	parent := t.TempDir()
	var revealed []string
	builder := NewBuilder(templates.Set{}, nil, WithReveal(func(p string) error {
		revealed = append(revealed, p)
		return nil
	}))

	req := model.Request{Parent: parent, Experiment: model.NewExperiment(testDate, "x")}
	_, err := builder.Build(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []string{req.Root()}, revealed)

	// No reveal when the root could not be created.
	revealed = nil
	req.Parent = filepath.Join(parent, "missing")
	_, err = builder.Build(context.Background(), req)
	require.NoError(t, err)
	assert.Empty(t, revealed)
}

func TestBuild_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	parent := t.TempDir()
	report, err := NewBuilder(templates.Set{}, nil).Build(ctx, model.Request{Parent: parent, Experiment: model.NewExperiment(testDate, "x")})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, report)

	entries, err := os.ReadDir(parent)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestBuild_ConcurrentSameRoot(t *testing.T) {
	parent := t.TempDir()
	builder := NewBuilder(writeTemplates(t, t.TempDir()), nil)
	req := fullRequest(parent)

	const n = 8
	reports := make([]*Report, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, err := builder.Build(context.Background(), req)
			assert.NoError(t, err)
			reports[i] = r
		}()
	}
	wg.Wait()

	clean := 0
	for _, r := range reports {
		require.NotNil(t, r)
		for _, it := range r.Failed() {
			assert.Equal(t, KindRenameConflict, KindOf(it.Err), it.Err)
		}
		if r.Err() == nil {
			clean++
		}
	}
	assert.Equal(t, 1, clean, "exactly one build provisions a fresh tree")
	assert.Zero(t, builder.locks.size())
}

func TestNotesContent(t *testing.T) {
	exp := model.NewExperiment(testDate, "Pump Test 1")
	content := NotesContent(exp)
	assert.True(t, strings.HasPrefix(content, "This is a note file for 2024-03-05 - Pump_Test_1\n"))
	assert.Contains(t, content, "2024-03-05\t\t\tFile Created")
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindUnknown, KindOf(os.ErrNotExist))
	err := &Error{Kind: KindRenameSourceMissing, Op: "rename", Path: "p", Err: fs.ErrNotExist}
	assert.Equal(t, KindRenameSourceMissing, KindOf(err))
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Contains(t, err.Error(), "rename source missing")
}

func TestBuilder_WithProgress(t *testing.T) {
	var base, scoped eventLog
	builder := NewBuilder(templates.Set{}, base.record)
	other := builder.WithProgress(scoped.record)

	assert.Same(t, builder.locks, other.locks)

	parent := t.TempDir()
	_, err := other.Build(context.Background(), model.Request{Parent: parent, Experiment: model.NewExperiment(testDate, "x")})
	require.NoError(t, err)

	assert.Empty(t, base.events)
	assert.NotEmpty(t, scoped.events)
}

func TestRenameKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"target exists", &os.LinkError{Op: "rename", Old: "a", New: "b", Err: ioutils.ErrTargetExists}, KindRenameConflict},
		{"source missing", &fs.PathError{Op: "lstat", Path: "a", Err: fs.ErrNotExist}, KindRenameSourceMissing},
		{"permission", &os.LinkError{Op: "rename", Old: "a", New: "b", Err: fs.ErrPermission}, KindCreationFailure},
		{"other", errors.New("disk on fire"), KindCreationFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, renameKind(tt.err))
		})
	}
}

func TestBuild_RenameSourceMissing(t *testing.T) {
	orig := renameFile
	t.Cleanup(func() { renameFile = orig })
	// The copy disappears between copying and renaming.
	renameFile = func(oldPath, newPath string) error {
		if err := os.Remove(oldPath); err != nil {
			return err
		}
		return orig(oldPath, newPath)
	}

	parent := t.TempDir()
	req := model.Request{
		Parent:     parent,
		Experiment: model.NewExperiment(testDate, "vanish"),
		Folders:    model.FolderSelection{Notebooks: true},
		Files:      model.FileSelection{Notebook: true},
	}
	report, err := NewBuilder(writeTemplates(t, t.TempDir()), nil).Build(context.Background(), req)
	require.NoError(t, err)

	notebooks := filepath.Join(req.Root(), "notebooks")
	target := filepath.Join(notebooks, "2024-03-05 - vanish_notebook.ipynb")

	failed := report.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, target, failed[0].Path)
	assert.Equal(t, KindRenameSourceMissing, KindOf(failed[0].Err))
	assert.ErrorIs(t, failed[0].Err, fs.ErrNotExist)

	// No copy item is recorded for the vanished file.
	assert.Empty(t, report.Paths(StatusCreated, ItemFile))
	assert.NoFileExists(t, filepath.Join(notebooks, "_notebook.ipynb"))
	assert.NoFileExists(t, target)
}

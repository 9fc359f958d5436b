package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/handiism/expstart/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), s)
}

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()
	assert.Equal(t, []string{"data", "images", "notebooks", "plots", "videos"}, s.Folders.Folders())
	assert.Equal(t, []string{"JPG", "NEF", "PNG", "SVG"}, s.ImageFormats.Formats())
	assert.Equal(t, "literature", s.Folders.Custom[0].Name)
	assert.False(t, s.Files.Script)
	assert.True(t, s.Files.ConcatVideo)
	assert.Equal(t, 2, s.MaxConcurrentBuilds)
}

func TestSaveLoad_JSONAndYAML(t *testing.T) {
	for _, name := range []string{"config.json", "config.yaml", "config.yml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)

			s := DefaultSettings()
			s.ParentFolder = "/srv/experiments"
			s.Folders.Custom[1] = model.CustomFolder{Name: "refs", Enabled: true}
			s.ImageFormats.NEF = false
			s.Files.Script = true
			s.Reveal = true
			require.NoError(t, s.Save(path))

			loaded, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, s, loaded)
		})
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("parent_folder: /lab\nreveal: true\n"), 0644))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/lab", s.ParentFolder)
	assert.True(t, s.Reveal)
	assert.Equal(t, model.DefaultFileSelection(), s.Files)
}

func TestLoad_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "config.json")
}

func TestDefaultPath_Env(t *testing.T) {
	t.Setenv(EnvConfig, "/etc/expstart.yaml")
	assert.Equal(t, "/etc/expstart.yaml", DefaultPath())
}

func TestManifest_Requests(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch.yaml")
	body := `parent_folder: /lab
files:
  notes: true
experiments:
  - name: Pump Test 1
    date: 2024-03-05
  - name: "Pump: Test 2"
    date: 2024-03-06
    parent_folder: /other
    folders:
      data: true
      plots: true
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	m, err := LoadManifest(path)
	require.NoError(t, err)

	s := DefaultSettings()
	s.SanitizeNames = true
	reqs, err := m.Requests(s)
	require.NoError(t, err)
	require.Len(t, reqs, 2)

	assert.Equal(t, "/lab", reqs[0].Parent)
	assert.Equal(t, "2024-03-05 - Pump_Test_1", reqs[0].Experiment.ID())
	assert.Equal(t, s.Folders, reqs[0].Folders)
	assert.Equal(t, model.FileSelection{Notes: true}, reqs[0].Files)

	assert.Equal(t, "/other", reqs[1].Parent)
	assert.Equal(t, "2024-03-06 - Pump__Test_2", reqs[1].Experiment.ID())
	assert.Equal(t, []string{"data", "plots"}, reqs[1].Folders.Folders())
	assert.Equal(t, model.FileSelection{Notes: true}, reqs[1].Files)
}

func TestManifest_RequestsErrors(t *testing.T) {
	s := DefaultSettings()

	_, err := (&Manifest{}).Requests(s)
	assert.Error(t, err)

	_, err = (&Manifest{Experiments: []ManifestEntry{{Date: "2024-03-05"}}}).Requests(s)
	assert.ErrorContains(t, err, "name is required")

	_, err = (&Manifest{Experiments: []ManifestEntry{{Name: "x", Date: "2024-02-30"}}}).Requests(s)
	assert.ErrorContains(t, err, "experiment 1 (x)")
}

func TestManifest_DefaultDateIsToday(t *testing.T) {
	m := &Manifest{Experiments: []ManifestEntry{{Name: "today"}}}
	reqs, err := m.Requests(DefaultSettings())
	require.NoError(t, err)
	assert.Equal(t, time.Now().Format(model.DateLayout), reqs[0].Experiment.DateString())
}

func TestLoadManifest_Missing(t *testing.T) {
	_, err := LoadManifest(filepath.Join(t.TempDir(), "none.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_CustomFolderCount(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		body    string
		want    model.CustomFolders
		wantErr bool
	}{
		{
			name: "yaml one entry",
			file: "config.yaml",
			body: "folders:\n  data: true\n  custom:\n    - {name: literature, enabled: true}\n",
			want: model.CustomFolders{{Name: "literature", Enabled: true}},
		},
		{
			name: "json one entry",
			file: "config.json",
			body: `{"folders": {"data": true, "custom": [{"name": "literature", "enabled": true}]}}`,
			want: model.CustomFolders{{Name: "literature", Enabled: true}},
		},
		{
			name: "yaml two entries",
			file: "config.yml",
			body: "folders:\n  custom:\n    - {name: a, enabled: false}\n    - {name: b, enabled: true}\n",
			want: model.CustomFolders{{Name: "a"}, {Name: "b", Enabled: true}},
		},
		{
			name:    "yaml four entries",
			file:    "config.yaml",
			body:    "folders:\n  custom: [{name: a}, {name: b}, {name: c}, {name: d}]\n",
			wantErr: true,
		},
		{
			name:    "json four entries",
			file:    "config.json",
			body:    `{"folders": {"custom": [{"name": "a"}, {"name": "b"}, {"name": "c"}, {"name": "d"}]}}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			require.NoError(t, os.WriteFile(path, []byte(tt.body), 0644))

			s, err := Load(path)
			if tt.wantErr {
				assert.ErrorContains(t, err, "at most 3 custom folders")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.Folders.Custom)
			assert.True(t, s.Folders.Data)
		})
	}
}

func TestLoadManifest_ShortCustomList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch.yaml")
	body := `experiments:
  - name: run
    date: 2024-03-05
    folders:
      plots: true
      custom:
        - {name: literature, enabled: true}
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	m, err := LoadManifest(path)
	require.NoError(t, err)
	reqs, err := m.Requests(DefaultSettings())
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	assert.Equal(t, []string{"plots", "literature"}, reqs[0].Folders.Folders())
}

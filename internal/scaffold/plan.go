package scaffold

import (
	"path/filepath"

	"github.com/handiism/expstart/internal/model"
)

// Planned is one path a build would touch.
type Planned struct {
	Path string
	Type ItemType
}

// Plan lists the directories and files Build would create for req, in
// build order, without touching the file system. Renamed artifacts are
// listed under their final names.
func Plan(req model.Request) []Planned {
	root := req.Root()
	out := []Planned{{Path: root, Type: ItemDir}}

	for _, name := range req.Folders.Folders() {
		out = append(out, Planned{Path: filepath.Join(root, name), Type: ItemDir})
	}
	if req.Folders.Images {
		for _, format := range req.Images.Formats() {
			out = append(out, Planned{Path: filepath.Join(root, model.FolderImages, format), Type: ItemDir})
		}
	}

	for _, a := range req.Files.Artifacts() {
		spec := a.Spec()
		dir := filepath.Join(root, filepath.FromSlash(spec.Dest))
		out = append(out, Planned{Path: filepath.Join(dir, spec.TargetName(req.Experiment.ID())), Type: ItemFile})
	}

	return out
}

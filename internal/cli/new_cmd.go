package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	ioutils "github.com/handiism/expstart/internal/io"
	"github.com/handiism/expstart/internal/model"
	"github.com/handiism/expstart/internal/scaffold"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// requestFlags are the selection flags shared by new and id.
type requestFlags struct {
	parent    string
	date      string
	folders   []string
	formats   []string
	custom    []string
	files     []string
	templates string
	sanitize  bool
	reveal    bool
	dryRun    bool
}

func newNewCmd(app *App) *cobra.Command {
	var f requestFlags

	cmd := &cobra.Command{
		Use:   "new <name>...",
		Short: "Create an experiment folder tree",
		Long: `Create <parent>/<YYYY-MM-DD> - <name>/ and provision its files.

Arguments are joined with spaces to form the name; spaces become underscores.
Selections default to the config file. Existing folders are kept; a rerun
reports them as existing.`,
		Example: `  expstart new Pump Test 1 --date 2024-03-05 --folders data,images --formats PNG --files notes
  expstart new "Valve study" --custom literature,misc --dry-run`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := f.request(cmd, app, strings.Join(args, " "))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if f.dryRun {
				printPlan(out, req)
				return nil
			}

			reveal := app.Settings.Reveal
			if cmd.Flags().Changed("reveal") {
				reveal = f.reveal
			}

			builder := app.newBuilder(app.templateSet(f.templates), reveal)
			report, err := builder.Build(cmd.Context(), req)
			if err != nil {
				return err
			}

			app.Logger.Info("build finished",
				zap.String("report_id", report.ID),
				zap.String("root", report.Root),
				zap.Int("failed", report.Summary().Failed))

			printReport(out, report)
			if failed := len(report.Failed()); failed > 0 {
				return fmt.Errorf("%d item(s) failed", failed)
			}
			return nil
		},
	}

	f.register(cmd)
	cmd.Flags().StringVar(&f.templates, "templates", "", "template directory (default: config, $EXPSTART_TEMPLATES, ./files)")
	cmd.Flags().BoolVar(&f.reveal, "reveal", false, "open the experiment folder in the file manager")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "print what would be created without touching the disk")

	return cmd
}

func (f *requestFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.parent, "parent", "", "parent directory (default from config)")
	cmd.Flags().StringVar(&f.date, "date", "", "experiment date YYYY-MM-DD (default today)")
	cmd.Flags().StringSliceVar(&f.folders, "folders", nil, "folders to create: data,images,notebooks,plots,videos")
	cmd.Flags().StringSliceVar(&f.formats, "formats", nil, "image format folders: JPG,NEF,PNG,SVG")
	cmd.Flags().StringSliceVar(&f.custom, "custom", nil, "up to three custom folder names")
	cmd.Flags().StringSliceVar(&f.files, "files", nil, "files to provision: "+artifactKeys())
	cmd.Flags().BoolVar(&f.sanitize, "sanitize", false, "replace characters that are invalid in file names")
}

// request resolves flags on top of the loaded settings.
func (f *requestFlags) request(cmd *cobra.Command, app *App, rawName string) (model.Request, error) {
	s := app.Settings
	flags := cmd.Flags()

	date := model.Today()
	if f.date != "" {
		d, err := model.ParseDate(f.date)
		if err != nil {
			return model.Request{}, err
		}
		date = d
	}

	sanitize := s.SanitizeNames
	if flags.Changed("sanitize") {
		sanitize = f.sanitize
	}
	if sanitize {
		rawName = ioutils.SanitizeFileName(rawName)
	}

	req := s.ToRequest(model.NewExperiment(date, rawName))
	if f.parent != "" {
		req.Parent = f.parent
	}

	if flags.Changed("folders") {
		custom := req.Folders.Custom
		req.Folders = model.FolderSelection{Custom: custom}
		for _, name := range f.folders {
			if err := req.Folders.Set(strings.TrimSpace(name)); err != nil {
				return model.Request{}, err
			}
		}
	}
	if flags.Changed("custom") {
		if err := req.Folders.SetCustom(f.custom); err != nil {
			return model.Request{}, err
		}
	}
	if flags.Changed("formats") {
		req.Images = model.ImageFormatSelection{}
		for _, name := range f.formats {
			if err := req.Images.Set(strings.TrimSpace(name)); err != nil {
				return model.Request{}, err
			}
		}
	}
	if flags.Changed("files") {
		req.Files = model.FileSelection{}
		for _, key := range f.files {
			a, err := model.ParseArtifact(strings.TrimSpace(key))
			if err != nil {
				return model.Request{}, err
			}
			req.Files.Set(a)
		}
	}

	return req, nil
}

func artifactKeys() string {
	var keys []string
	for _, s := range model.Specs() {
		keys = append(keys, s.Key)
	}
	return strings.Join(keys, ",")
}

func newIDCmd(app *App) *cobra.Command {
	var f requestFlags

	cmd := &cobra.Command{
		Use:   "id <name>...",
		Short: "Print the canonical experiment identifier",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := f.request(cmd, app, strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), req.Experiment.ID())
			return nil
		},
	}

	cmd.Flags().StringVar(&f.date, "date", "", "experiment date YYYY-MM-DD (default today)")
	cmd.Flags().BoolVar(&f.sanitize, "sanitize", false, "replace characters that are invalid in file names")
	return cmd
}

func printPlan(w io.Writer, req model.Request) {
	fmt.Fprintf(w, "Would create %s\n", req.Root())
	for _, p := range scaffold.Plan(req)[1:] {
		kind := "file"
		if p.Type == scaffold.ItemDir {
			kind = "dir "
		}
		fmt.Fprintf(w, "  %s %s\n", kind, p.Path)
	}
}

func printReport(w io.Writer, report *scaffold.Report) {
	for _, it := range report.Items {
		var mark string
		switch it.Status {
		case scaffold.StatusCreated:
			mark = "+"
		case scaffold.StatusExisted:
			mark = "="
		case scaffold.StatusFailed:
			mark = "!"
		}
		line := fmt.Sprintf("%s %s", mark, it.Path)
		if it.Err != nil {
			line += fmt.Sprintf(" (%s)", scaffold.KindOf(it.Err))
		}
		fmt.Fprintln(w, line)
	}

	s := report.Summary()
	fmt.Fprintf(w, "%s: %d created, %d existed, %d failed, %s written\n",
		report.Root, s.Created, s.Existed, s.Failed, humanize.Bytes(uint64(s.Bytes)))
}

package cli

import (
	"fmt"

	"github.com/handiism/expstart/internal/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newBatchCmd(app *App) *cobra.Command {
	var (
		jobs    int
		tmplDir string
		dryRun  bool
	)

	cmd := &cobra.Command{
		Use:   "batch <manifest>",
		Short: "Create several experiment trees from a manifest",
		Long: `Create every experiment listed in a JSON or YAML manifest.

Builds run concurrently up to --jobs; experiments that resolve to the same
folder are built one after the other.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := config.LoadManifest(args[0])
			if err != nil {
				return err
			}
			reqs, err := m.Requests(app.Settings)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if dryRun {
				for _, req := range reqs {
					printPlan(out, req)
				}
				return nil
			}

			limit := app.Settings.MaxConcurrentBuilds
			if cmd.Flags().Changed("jobs") {
				limit = jobs
			}

			builder := app.newBuilder(app.templateSet(tmplDir), app.Settings.Reveal)
			reports, err := builder.BuildAll(cmd.Context(), reqs, limit)

			failed := 0
			for _, r := range reports {
				if r == nil {
					continue
				}
				app.Logger.Info("build finished", zap.String("report_id", r.ID), zap.String("root", r.Root))
				printReport(out, r)
				failed += len(r.Failed())
			}
			if err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d item(s) failed", failed)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&jobs, "jobs", "j", 0, "concurrent builds (default from config)")
	cmd.Flags().StringVar(&tmplDir, "templates", "", "template directory")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print what would be created without touching the disk")
	return cmd
}

package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newTemplatesCmd(app *App) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Show which template files are available",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			set := app.templateSet(dir)
			out := cmd.OutOrStdout()

			fmt.Fprintf(out, "Templates in %s\n", set.Dir)
			missing := 0
			for _, st := range set.Check() {
				if st.Present {
					fmt.Fprintf(out, "  ok       %-42s %8s  -> %s\n", st.Spec.Source, humanize.Bytes(uint64(st.Size)), st.Spec.Dest)
					continue
				}
				missing++
				fmt.Fprintf(out, "  missing  %-42s %8s  -> %s\n", st.Spec.Source, "", st.Spec.Dest)
			}
			if missing > 0 {
				return fmt.Errorf("%d template(s) missing", missing)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "templates", "", "template directory")
	return cmd
}

package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List model sizes and their cache state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SIZE\tNAME\tDOWNLOAD\tCACHED\tPATH")
		for _, m := range e.cache.Options() {
			selected := ""
			if m.Size == e.settings.ModelSize {
				selected = " *"
			}
			path := "-"
			if m.Downloaded {
				path = m.LocalPath
			}
			fmt.Fprintf(w, "%s%s\t%s\t%s\t%t\t%s\n", m.Size, selected, m.Name, m.SizeLabel, m.Downloaded, path)
		}
		return w.Flush()
	},
}

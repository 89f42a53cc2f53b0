package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/luispater/bokchoy/internal/browser"
	"github.com/luispater/bokchoy/internal/browser/common"
	"github.com/spf13/cobra"
)

func getCmdBrowsers(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "browsers",
		Short: "List the browser names accepted by SELENIUM_BROWSER",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "NAME\tBACKEND")
			for _, kind := range common.Kinds {
				marker := ""
				if selected, ok := common.ParseKind(cfg.Browser); ok && selected == kind {
					marker = " *"
				}
				_, _ = fmt.Fprintf(w, "%s%s\t%s\n", kind, marker, browser.Backend(kind, cfg))
			}
			return w.Flush()
		},
	}
}

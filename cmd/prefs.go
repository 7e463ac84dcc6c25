package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/fieldroute/app"
)

var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Display preferences of the active project",
}

func init() {
	namesCmd := &cobra.Command{
		Use:       "show-names [on|off]",
		Short:     "Show client names instead of postcodes",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return inProject(func(_ context.Context, _ *app.Service, ws *app.Workspace) error {
				p := ws.Prefs()
				defer p.Close()
				if len(args) == 1 {
					switch args[0] {
					case "on":
						p.SetShowNames(true)
					case "off":
						p.SetShowNames(false)
					default:
						return fmt.Errorf("expected on or off, got %q", args[0])
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "show names: %t\n", p.ShowNames())
				return nil
			})
		},
	}
	prefsCmd.AddCommand(namesCmd)
	rootCmd.AddCommand(prefsCmd)
}

package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/fieldroute/app"
	"github.com/kilianp07/fieldroute/core/events"
)

var distancesCmd = &cobra.Command{
	Use:   "distances",
	Short: "Geocode the project postcodes and compute driving times between them",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return inProject(func(ctx context.Context, svc *app.Service, ws *app.Workspace) error {
			errOut := cmd.ErrOrStderr()
			sub := svc.Bus().Subscribe()
			done := make(chan struct{})
			go func() {
				defer close(done)
				for ev := range sub {
					if p, ok := ev.(events.ProgressEvent); ok {
						fmt.Fprintf(errOut, "\r%s %5.1f%% %s", p.Stage, p.Percent, detailStyle.Render(p.Message))
					}
				}
			}()
			res, err := svc.Distances(ctx, ws)
			svc.Bus().Unsubscribe(sub)
			<-done
			fmt.Fprintln(errOut)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %d locations, %d of %d pairs routed in %s\n",
				completeStyle.Render("done:"), len(res.Locations), res.Pairs-res.RouteFailures, res.Pairs, res.Duration.Round(time.Second))
			for _, pc := range res.GeocodeFailures {
				warn(out, "could not geocode %s", pc)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(distancesCmd)
}

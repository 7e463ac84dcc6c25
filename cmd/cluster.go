package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kilianp07/fieldroute/app"
	"github.com/kilianp07/fieldroute/core/cluster"
	"github.com/kilianp07/fieldroute/core/model"
)

var clusterCmd = &cobra.Command{
	Use:   "cluster",
	Short: "Group customers into service regions",
}

var (
	clusterOpts app.ClusterOptions
	mapOut      string
)

func init() {
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Cluster the geocoded customers into regions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return inProject(func(_ context.Context, svc *app.Service, ws *app.Workspace) error {
				res, err := svc.Cluster(ws, clusterOpts)
				if err != nil {
					return err
				}
				printRegions(cmd.OutOrStdout(), ws, res)
				return nil
			})
		},
	}
	runCmd.Flags().IntVarP(&clusterOpts.Regions, "regions", "k", 0, "number of regions")
	runCmd.Flags().StringVar(&clusterOpts.Depot, "depot", "", "home base postcode")
	runCmd.Flags().BoolVar(&clusterOpts.Save, "save", false, "store the parameters in the project file")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the saved regions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return inProject(func(_ context.Context, svc *app.Service, ws *app.Workspace) error {
				res, err := svc.LoadRegions(ws)
				if err != nil {
					return err
				}
				printRegions(cmd.OutOrStdout(), ws, res)
				return nil
			})
		},
	}

	moveCmd := editCommand("move POSTCODE REGION", "Move a customer to another region", 2,
		func(r *cluster.Result, args []string) (string, error) {
			region, err := strconv.Atoi(args[1])
			if err != nil {
				return "", fmt.Errorf("invalid region %q", args[1])
			}
			from, err := r.Move(args[0], region)
			return fmt.Sprintf("moved %s from region %d to %d", model.NormalizePostcode(args[0]), from, region), err
		})
	excludeCmd := editCommand("exclude POSTCODE", "Leave a customer out of every region", 1,
		func(r *cluster.Result, args []string) (string, error) {
			from, err := r.Exclude(args[0])
			return fmt.Sprintf("excluded %s from region %d", model.NormalizePostcode(args[0]), from), err
		})
	newRegionCmd := editCommand("new-region POSTCODE", "Create a region holding a customer", 1,
		func(r *cluster.Result, args []string) (string, error) {
			region, err := r.NewRegion(args[0])
			return fmt.Sprintf("created region %d for %s", region, model.NormalizePostcode(args[0])), err
		})
	renameCmd := editCommand("rename REGION NAME", "Name a region", 2,
		func(r *cluster.Result, args []string) (string, error) {
			region, err := strconv.Atoi(args[0])
			if err != nil {
				return "", fmt.Errorf("invalid region %q", args[0])
			}
			return fmt.Sprintf("region %d is now %q", region, args[1]), r.Rename(region, args[1])
		})
	colorCmd := editCommand("color REGION COLOR", "Set the category colour of a region by name or code", 2,
		func(r *cluster.Result, args []string) (string, error) {
			region, err := strconv.Atoi(args[0])
			if err != nil {
				return "", fmt.Errorf("invalid region %q", args[0])
			}
			code, ok := model.ColorCodeByName(args[1])
			if !ok {
				if code, err = strconv.Atoi(args[1]); err != nil {
					return "", fmt.Errorf("unknown colour %q", args[1])
				}
			}
			return fmt.Sprintf("region %d is now %s", region, model.ColorName(code)), r.Recolor(region, code)
		})

	mapCmd := &cobra.Command{
		Use:   "map",
		Short: "Render the regions as an HTML chart",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return inProject(func(_ context.Context, svc *app.Service, ws *app.Workspace) error {
				path := mapOut
				if path == "" {
					path = ws.Store.Path("region_map.html")
				}
				f, err := os.Create(path)
				if err != nil {
					return err
				}
				if err := svc.RegionMap(ws, f); err != nil {
					_ = f.Close()
					return err
				}
				if err := f.Close(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
				return nil
			})
		},
	}
	mapCmd.Flags().StringVarP(&mapOut, "out", "o", "", "output file, defaults to region_map.html in the project")

	clusterCmd.AddCommand(runCmd, showCmd, moveCmd, excludeCmd, newRegionCmd, renameCmd, colorCmd, mapCmd)
	rootCmd.AddCommand(clusterCmd)
}

// editCommand builds a subcommand that changes the saved regions.
func editCommand(use, short string, nargs int, edit func(r *cluster.Result, args []string) (string, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(nargs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return inProject(func(_ context.Context, svc *app.Service, ws *app.Workspace) error {
				var msg string
				_, err := svc.EditRegions(ws, func(r *cluster.Result) error {
					var err error
					msg, err = edit(r, args)
					return err
				})
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), msg)
				return nil
			})
		},
	}
}

func printRegions(w io.Writer, ws *app.Workspace, res *cluster.Result) {
	prefs := ws.Prefs()
	heading(w, fmt.Sprintf("%d regions around %s", res.Regions(), res.Depot.Postcode))
	custs := res.Customers()
	names := make(map[string]string, len(custs))
	for _, c := range custs {
		names[c.Postcode] = c.ClientName
	}
	for _, s := range res.Summary() {
		labels := make([]string, len(s.Postcodes))
		for i, pc := range s.Postcodes {
			labels[i] = prefs.Label(model.Location{Postcode: pc, ClientName: names[pc]})
		}
		if s.Excluded {
			fmt.Fprintf(w, "%s (%d): %s\n", warnStyle.Render("Excluded"), s.CustomerCount, strings.Join(labels, ", "))
			continue
		}
		st := res.Style(s.Region)
		fmt.Fprintf(w, "%s %d customers, min %d day(s): %s\n",
			swatch(st.ColorCode, fmt.Sprintf("%d. %s", s.Region, st.Name)), s.CustomerCount, s.MinimumDays, strings.Join(labels, ", "))
	}
	if out := res.Outcome(); out != nil {
		fmt.Fprintln(w, detailStyle.Render(fmt.Sprintf("driving time per region (min): %v", roundAll(out.Metrics))))
	}
}

func roundAll(v []float64) []int {
	out := make([]int, len(v))
	for i, f := range v {
		out[i] = int(f + 0.5)
	}
	return out
}

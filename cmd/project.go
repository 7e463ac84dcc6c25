package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/fieldroute/app"
	"github.com/kilianp07/fieldroute/core/journal"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Create, open and inspect projects",
}

var (
	newLocations string
	openAdopt    bool
	historyLimit int
	historyStage string
)

func init() {
	newCmd := &cobra.Command{
		Use:   "new NAME",
		Short: "Create a project and make it active",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(_ context.Context, svc *app.Service) error {
				dir, err := svc.Launcher.New(args[0], newLocations)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", dir)
				return nil
			})
		},
	}
	newCmd.Flags().StringVarP(&newLocations, "locations", "l", "", "CSV file copied in as locations.csv")

	openCmd := &cobra.Command{
		Use:   "open NAME|PATH",
		Short: "Make a project active",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(_ context.Context, svc *app.Service) error {
				target := args[0]
				if strings.ContainsRune(target, filepath.Separator) {
					abs, err := filepath.Abs(target)
					if err != nil {
						return err
					}
					target = abs
				}
				dir, err := svc.Launcher.Open(target, openAdopt)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "opened %s\n", dir)
				return nil
			})
		},
	}
	openCmd.Flags().BoolVar(&openAdopt, "adopt", false, "use the parent of PATH as the projects directory")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List projects, most recent first in the recent section",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(func(_ context.Context, svc *app.Service) error {
				names, err := svc.Launcher.List()
				if err != nil {
					return err
				}
				cfg := svc.Launcher.Config()
				out := cmd.OutOrStdout()
				heading(out, "Projects in "+cfg.ProjectsDirectory)
				for _, n := range names {
					marker := "  "
					if n == cfg.Active() {
						marker = completeStyle.Render("* ")
					}
					fmt.Fprintln(out, marker+n)
				}
				if len(cfg.RecentProjects) > 0 {
					fmt.Fprintln(out, detailStyle.Render("recent: "+strings.Join(cfg.RecentProjects, ", ")))
				}
				return nil
			})
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a project directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(_ context.Context, svc *app.Service) error {
				if err := svc.Launcher.Delete(args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
				return nil
			})
		},
	}

	dirCmd := &cobra.Command{
		Use:   "dir [PATH]",
		Short: "Show or change the projects directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(_ context.Context, svc *app.Service) error {
				if len(args) == 1 {
					if err := svc.Launcher.SetProjectsDirectory(args[0]); err != nil {
						return err
					}
				}
				fmt.Fprintln(cmd.OutOrStdout(), svc.Launcher.Config().ProjectsDirectory)
				return nil
			})
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show the workflow progress of the project",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return inProject(func(_ context.Context, _ *app.Service, ws *app.Workspace) error {
				out := cmd.OutOrStdout()
				heading(out, "Project "+ws.Name)
				for _, t := range ws.Status() {
					fmt.Fprintf(out, "%d. %-26s %s\n", t.Number, t.Name, stateStyle(t.State).Render(t.State.String()))
					for _, n := range t.Notes {
						fmt.Fprintln(out, "   "+detailStyle.Render(n))
					}
				}
				return nil
			})
		},
	}

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show the run journal of the project",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return inProject(func(ctx context.Context, svc *app.Service, ws *app.Workspace) error {
				recs, err := svc.History(ctx, journal.Query{Project: ws.Name, Stage: historyStage, Limit: historyLimit})
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, r := range recs {
					line := fmt.Sprintf("%s  %-11s %-11s items=%d failures=%d", r.Timestamp.Local().Format(time.DateTime), r.Kind, r.Stage, r.Items, r.Failures)
					if r.DurationMS > 0 {
						line += fmt.Sprintf(" took=%s", time.Duration(r.DurationMS)*time.Millisecond)
					}
					if a := r.Details["action"]; a != "" {
						line += fmt.Sprintf(" %s %s %s %s", a, r.Details["postcode"], r.Details["date"], r.Details["start"])
					}
					if r.Error != "" {
						line += " " + errorStyle.Render(r.Error)
					}
					fmt.Fprintln(out, line)
				}
				return nil
			})
		},
	}
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "most recent records to show")
	historyCmd.Flags().StringVar(&historyStage, "stage", "", "only records of this stage")

	projectCmd.AddCommand(newCmd, openCmd, listCmd, deleteCmd, dirCmd, statusCmd, historyCmd)
	rootCmd.AddCommand(projectCmd)
}

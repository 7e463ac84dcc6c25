package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kilianp07/fieldroute/app"
	"github.com/kilianp07/fieldroute/core/calendar"
	"github.com/kilianp07/fieldroute/core/model"
)

var calendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "Assign working days to regions",
}

var icsOut string

func init() {
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "List the regions and their assigned days",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return inProject(func(_ context.Context, svc *app.Service, ws *app.Workspace) error {
				org, err := svc.Calendar(ws)
				if err != nil {
					return err
				}
				printCalendar(cmd.OutOrStdout(), org)
				return nil
			})
		},
	}

	toggleCmd := &cobra.Command{
		Use:   "toggle REGION DATE...",
		Short: "Assign dates to a region, or free dates it already holds",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			region, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid region %q", args[0])
			}
			return inProject(func(_ context.Context, svc *app.Service, ws *app.Workspace) error {
				org, err := svc.Calendar(ws)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, arg := range args[1:] {
					date, err := parseDate(arg)
					if err != nil {
						return err
					}
					action, prev, err := org.Toggle(date, region)
					if err != nil {
						return err
					}
					line := fmt.Sprintf("%s %s region %d", date.Format(model.ScheduleDateLayout), action, region)
					if action == calendar.Reassigned {
						line += fmt.Sprintf(" (was %d)", prev)
					}
					fmt.Fprintln(out, line)
				}
				if org.Len() == 0 {
					_, err := svc.ClearCalendar(ws, org)
					return err
				}
				short, err := svc.SaveCalendar(ws, org, true)
				printShortfalls(out, short)
				return err
			})
		},
	}

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Fail when a region has fewer days than its minimum",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return inProject(func(_ context.Context, svc *app.Service, ws *app.Workspace) error {
				org, err := svc.Calendar(ws)
				if err != nil {
					return err
				}
				_, short, err := org.Schedule(false)
				printShortfalls(cmd.OutOrStdout(), short)
				return err
			})
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every assigned day",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return inProject(func(_ context.Context, svc *app.Service, ws *app.Workspace) error {
				org, err := svc.Calendar(ws)
				if err != nil {
					return err
				}
				n, err := svc.ClearCalendar(ws, org)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "cleared %d day(s)\n", n)
				return nil
			})
		},
	}

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export the saved calendar as an iCalendar file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return inProject(func(_ context.Context, svc *app.Service, ws *app.Workspace) error {
				org, err := svc.Calendar(ws)
				if err != nil {
					return err
				}
				path := icsOut
				if path == "" {
					path = ws.Store.Path("region_schedule.ics")
				}
				f, err := os.Create(path)
				if err != nil {
					return err
				}
				n, err := svc.ExportCalendar(org, f)
				if cerr := f.Close(); err == nil {
					err = cerr
				}
				if err != nil {
					_ = os.Remove(path)
					if errors.Is(err, calendar.ErrNoAssignments) {
						return fmt.Errorf("nothing to export: %w", err)
					}
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "exported %d day(s) to %s\n", n, path)
				return nil
			})
		},
	}
	exportCmd.Flags().StringVarP(&icsOut, "out", "o", "", "output file, defaults to region_schedule.ics in the project")

	calendarCmd.AddCommand(showCmd, toggleCmd, checkCmd, clearCmd, exportCmd)
	rootCmd.AddCommand(calendarCmd)
}

func printCalendar(w io.Writer, org *calendar.Organizer) {
	heading(w, fmt.Sprintf("%d day(s) assigned", org.Len()))
	for _, r := range org.Regions() {
		days := org.DaysFor(r.ID)
		dates := make([]string, len(days))
		for i, d := range days {
			dates[i] = d.Format("Mon 02 Jan")
		}
		status := fmt.Sprintf("%d/%d", len(days), r.MinimumDays)
		if len(days) < r.MinimumDays {
			status = warnStyle.Render(status)
		}
		fmt.Fprintf(w, "%s %s customers=%d %s\n", swatch(r.ColorCode, fmt.Sprintf("%d. %s", r.ID, r.Name)),
			status, len(r.Postcodes), detailStyle.Render(strings.Join(dates, ", ")))
	}
}

func printShortfalls(w io.Writer, short []calendar.Shortfall) {
	for _, s := range short {
		warn(w, "%s has %d of %d minimum day(s)", s.Name, s.Assigned, s.Minimum)
	}
}

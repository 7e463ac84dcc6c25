package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kilianp07/fieldroute/app"
	"github.com/kilianp07/fieldroute/core/model"
	"github.com/kilianp07/fieldroute/core/scheduler"
	"github.com/kilianp07/fieldroute/pkg/export"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Offer, confirm and review customer appointments",
}

var (
	duration    int
	acceptClash bool
	inCalendar  bool
	agendaFmt   string
)

func init() {
	regionsCmd := &cobra.Command{
		Use:   "regions",
		Short: "List regions with their scheduled and optimal days",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return inProject(func(_ context.Context, svc *app.Service, ws *app.Workspace) error {
				sch, err := svc.Scheduler(ws)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, r := range sch.Regions() {
					days := sch.RegionDates(r)
					line := fmt.Sprintf("region %d: %d customer(s), %d day(s), optimal %d",
						r, len(sch.RegionPostcodes(r)), len(days), sch.OptimalDays(r))
					if len(days) == 0 {
						line = pendingStyle.Render(line)
					}
					fmt.Fprintln(out, line)
				}
				return nil
			})
		},
	}

	slotsCmd := &cobra.Command{
		Use:   "slots POSTCODE",
		Short: "Print the appointment offer for a customer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return inProject(func(_ context.Context, svc *app.Service, ws *app.Workspace) error {
				sch, err := svc.Scheduler(ws)
				if err != nil {
					return err
				}
				slots, err := sch.AvailableSlots(args[0], duration)
				if err != nil {
					return err
				}
				d := duration
				if d == 0 {
					d = sch.Config().DefaultDuration
				}
				fmt.Fprintln(cmd.OutOrStdout(), scheduler.FormatOffer(slots, d, sch.Config().SlotMinutes))
				return nil
			})
		},
	}
	slotsCmd.Flags().IntVarP(&duration, "duration", "d", 0, "visit length in minutes")

	bookCmd := &cobra.Command{
		Use:   "book POSTCODE DATE TIME",
		Short: "Confirm an appointment",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := parseDate(args[1])
			if err != nil {
				return err
			}
			start, err := model.ParseClock(args[2])
			if err != nil {
				return err
			}
			return inProject(func(_ context.Context, svc *app.Service, ws *app.Workspace) error {
				sch, err := svc.Scheduler(ws)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				res, err := svc.Book(ws, sch, app.Booking{
					Date:            date,
					Start:           start,
					Postcode:        args[0],
					Duration:        duration,
					AcceptConflicts: acceptClash,
					InCalendar:      inCalendar,
				})
				for _, c := range res.Conflicts {
					warn(out, "%s", c)
				}
				if errors.Is(err, app.ErrConflicts) {
					return fmt.Errorf("%w, rerun with --force to book anyway", err)
				}
				if err != nil {
					return err
				}
				if res.Replaced != nil {
					fmt.Fprintf(out, "replaced pending %s at %s\n", res.Replaced.Postcode, res.Replaced.Start)
				}
				a := res.Appointment
				fmt.Fprintln(out, completeStyle.Render(fmt.Sprintf("confirmed %s on %s at %s (%s)",
					a.Postcode, a.DateKey(), a.Start.Format12h(), scheduler.DurationText(a.DurationMinutes))))
				return nil
			})
		},
	}
	bookCmd.Flags().IntVarP(&duration, "duration", "d", 0, "visit length in minutes")
	bookCmd.Flags().BoolVar(&acceptClash, "force", false, "book even when a drive overlaps a visit")
	bookCmd.Flags().BoolVar(&inCalendar, "in-calendar", false, "mark the appointment as already in the calendar")

	removeCmd := &cobra.Command{
		Use:   "remove DATE TIME",
		Short: "Remove a confirmed appointment",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := parseDate(args[0])
			if err != nil {
				return err
			}
			start, err := model.ParseClock(args[1])
			if err != nil {
				return err
			}
			return inProject(func(_ context.Context, svc *app.Service, ws *app.Workspace) error {
				sch, err := svc.Scheduler(ws)
				if err != nil {
					return err
				}
				a, err := svc.Unbook(ws, sch, date, start)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed %s on %s at %s\n", a.Postcode, a.DateKey(), a.Start)
				return nil
			})
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear REGION",
		Short: "Remove every appointment of a region",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			region, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid region %q", args[0])
			}
			return inProject(func(_ context.Context, svc *app.Service, ws *app.Workspace) error {
				sch, err := svc.Scheduler(ws)
				if err != nil {
					return err
				}
				n, err := svc.ClearRegion(ws, sch, region)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed %d appointment(s) from region %d\n", n, region)
				return nil
			})
		},
	}

	dayCmd := &cobra.Command{
		Use:   "day DATE",
		Short: "Show the visits and drives of a day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := parseDate(args[0])
			if err != nil {
				return err
			}
			return inProject(func(_ context.Context, svc *app.Service, ws *app.Workspace) error {
				sch, err := svc.Scheduler(ws)
				if err != nil {
					return err
				}
				entries := svc.Agenda(sch, date)
				out := cmd.OutOrStdout()
				switch strings.ToLower(agendaFmt) {
				case "json":
					return export.WriteJSON(out, entries)
				case "csv":
					return export.WriteCSV(out, entries)
				case "", "text":
					printAgenda(out, date.Format("Monday 02 January 2006"), entries)
					return nil
				default:
					return fmt.Errorf("unknown format %q", agendaFmt)
				}
			})
		},
	}
	dayCmd.Flags().StringVarP(&agendaFmt, "format", "f", "text", "text, json or csv")

	travelCmd := &cobra.Command{
		Use:   "travel POSTCODE",
		Short: "Show driving times from a customer to its region and home",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return inProject(func(_ context.Context, svc *app.Service, ws *app.Workspace) error {
				sch, err := svc.Scheduler(ws)
				if err != nil {
					return err
				}
				rep, err := sch.Report(args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				names := ws.Prefs().ShowNames()
				heading(out, fmt.Sprintf("%s, region %d", rep.Postcode, rep.Region))
				printTravel(out, "nearby", rep.Nearby, names)
				printTravel(out, "to "+sch.Home(), rep.ToHome, names)
				return nil
			})
		},
	}

	efficiencyCmd := &cobra.Command{
		Use:   "efficiency DATE",
		Short: "Compare the booked visiting order with an optimised tour",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := parseDate(args[0])
			if err != nil {
				return err
			}
			return inProject(func(_ context.Context, svc *app.Service, ws *app.Workspace) error {
				sch, err := svc.Scheduler(ws)
				if err != nil {
					return err
				}
				e, err := sch.Efficiency(date)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "booked %.0f min, optimal %.0f min, ratio %.2f\n", e.Actual, e.Optimal, e.Ratio)
				if e.Inefficient {
					warn(out, "suggested order: %s", strings.Join(e.Suggested, " -> "))
				}
				return nil
			})
		},
	}

	scheduleCmd.AddCommand(regionsCmd, slotsCmd, bookCmd, removeCmd, clearCmd, dayCmd, travelCmd, efficiencyCmd)
	rootCmd.AddCommand(scheduleCmd)
}

func printAgenda(w io.Writer, title string, entries []export.Entry) {
	heading(w, title)
	if len(entries) == 0 {
		fmt.Fprintln(w, pendingStyle.Render("nothing booked"))
		return
	}
	for _, e := range entries {
		line := fmt.Sprintf("%5s-%-5s %-5s %s", e.Start, e.End, e.Kind, e.From)
		if e.Kind == "drive" {
			line = detailStyle.Render(fmt.Sprintf("%5s-%-5s drive %s -> %s (%d min)", e.Start, e.End, e.From, e.To, e.Minutes))
		}
		if e.Conflict {
			line = errorStyle.Render(line + " conflict")
		}
		fmt.Fprintln(w, line)
	}
}

func printTravel(w io.Writer, title string, rows []scheduler.TravelEntry, names bool) {
	fmt.Fprintln(w, detailStyle.Render(title))
	for _, r := range rows {
		label := r.Postcode
		if names && r.ClientName != "" {
			label = r.ClientName
		}
		line := fmt.Sprintf("  %-24s %4d min", label, r.Minutes)
		if r.Scheduled {
			line = completeStyle.Render(line + " booked")
		}
		fmt.Fprintln(w, line)
	}
}

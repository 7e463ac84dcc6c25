package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/fieldroute/app"
	"github.com/kilianp07/fieldroute/config"
	coremon "github.com/kilianp07/fieldroute/core/monitoring"
	"github.com/kilianp07/fieldroute/infra/logger"
)

var (
	cfgPath     string
	projectName string
)

var rootCmd = &cobra.Command{
	Use:           "fieldroute",
	Short:         "Plan field-service regions, calendars and appointments",
	SilenceUsage:  true,
	SilenceErrors: true,
	Version:       app.Version,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "configuration file (YAML or JSON)")
	rootCmd.PersistentFlags().StringVarP(&projectName, "project", "p", "", "project name, defaults to the active project")
}

// Execute runs the CLI.
func Execute() error {
	defer coremon.Repanic()
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("error:"), err)
	}
	return err
}

// run loads the configuration, starts the service and hands it to fn. The
// context is cancelled on SIGINT or SIGTERM.
func run(fn func(ctx context.Context, svc *app.Service) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()
	return fn(ctx, svc)
}

// inProject is run with the workspace selected by --project.
func inProject(fn func(ctx context.Context, svc *app.Service, ws *app.Workspace) error) error {
	return run(func(ctx context.Context, svc *app.Service) error {
		ws, err := svc.Workspace(projectName)
		if err != nil {
			return err
		}
		return fn(ctx, svc, ws)
	})
}

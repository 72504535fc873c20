package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/startbuilds/excel-mysql-exporter/internal/export/entity"
	"github.com/startbuilds/excel-mysql-exporter/internal/export/inbound"
)

const shutdownTimeout = 30 * time.Second

type rootFlags struct {
	config string
	output string
}

// NewRootCommand builds the exporter command tree.
func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	flags := &rootFlags{}

	rc := &cobra.Command{
		Use:           "exporter",
		Short:         "Export workbook sheets into relational tables",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			_, err := inbound.ParseOutputFormat(flags.output)
			return err
		},
	}
	rc.SetOut(stdout)
	rc.SetErr(stderr)

	rc.PersistentFlags().StringVarP(&flags.config, "config", "c", "", "config file (default ./config/config.yaml with LOCAL=true, else /config/config.yaml)")
	rc.PersistentFlags().StringVarP(&flags.output, "output", "o", string(inbound.OutputTable), "result format: table, json or yaml")

	rc.AddCommand(
		newExportCommand(flags, entity.ModeFull, "Export every row of the configured sheets"),
		newExportCommand(flags, entity.ModeIncremental, "Export rows dated after the last run of each table"),
		newWatchCommand(flags),
		newServeCommand(flags),
	)

	return rc
}

func newExportCommand(flags *rootFlags, mode entity.Mode, short string) *cobra.Command {
	return &cobra.Command{
		Use:   string(mode) + " <file>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			a, err := New(ctx, Options{ConfigPath: flags.config})
			if err != nil {
				return err
			}
			defer a.Close(context.WithoutCancel(ctx))

			result := a.runOnce(ctx, mode, args[0])
			return a.report(cmd.OutOrStdout(), flags.output, result)
		},
	}
}

func newWatchCommand(flags *rootFlags) *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "watch <file>",
		Short: "Export the workbook every time it is saved",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m := entity.Mode(mode)
			if !m.Valid() {
				return fmt.Errorf("unknown mode %q, want full or incremental", mode)
			}

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			a, err := New(ctx, Options{ConfigPath: flags.config})
			if err != nil {
				return err
			}
			defer a.Close(context.WithoutCancel(ctx))

			out := cmd.OutOrStdout()
			w := inbound.NewWatcher(args[0], a.settings.WatchDebounce,
				func(ctx context.Context, path string) entity.ExportResult {
					return a.runOnce(ctx, m, path)
				},
				func(result entity.ExportResult) {
					if err := a.report(out, flags.output, result); err != nil {
						fmt.Fprintln(cmd.ErrOrStderr(), err)
					}
				},
			)

			a.goroutine.Go(ctx, w.Watch)
			return a.goroutine.Wait()
		},
	}
	cmd.Flags().StringVar(&mode, "mode", string(entity.ModeIncremental), "export mode for each run: full or incremental")

	return cmd
}

func newServeCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Accept export uploads over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := New(cmd.Context(), Options{ConfigPath: flags.config, Serve: true})
			if err != nil {
				return err
			}
			if a.httpServer == nil || a.export == nil {
				a.Close(cmd.Context())
				return errors.New("export module is disabled")
			}

			<-a.Start()

			ctx, cancel := context.WithTimeout(context.WithoutCancel(cmd.Context()), shutdownTimeout)
			defer cancel()
			a.Stop(ctx)

			return nil
		},
	}
}

func (a *App) runOnce(ctx context.Context, mode entity.Mode, path string) entity.ExportResult {
	if a.export == nil {
		return entity.ExportResult{Mode: mode, Source: path, Err: errors.New("export module is disabled")}
	}
	if mode == entity.ModeIncremental {
		return a.export.Usecase.RunIncremental(ctx, path)
	}
	return a.export.Usecase.RunFull(ctx, path)
}

func (a *App) report(w io.Writer, output string, result entity.ExportResult) error {
	format, err := inbound.ParseOutputFormat(output)
	if err != nil {
		return err
	}
	if err := inbound.RenderResult(w, format, result); err != nil {
		return err
	}
	if !result.Success {
		if result.Err != nil {
			return result.Err
		}
		return errors.New("export failed")
	}
	return nil
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

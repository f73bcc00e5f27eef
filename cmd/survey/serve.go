package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	survey "github.com/Lokiragnarock/srm-cia-survey"
	"github.com/Lokiragnarock/srm-cia-survey/internal/cli"
	"github.com/Lokiragnarock/srm-cia-survey/internal/config"
	httpadapter "github.com/Lokiragnarock/srm-cia-survey/pkg/adapters/http"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Serves the survey as a JSON API with server-sent events for session
updates and Prometheus metrics. Sessions live in the configured store.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)

		st, err := buildStack(ctx, cmd, func(s *config.Settings) {
			if cmd.Flags().Changed("addr") {
				s.Addr, _ = cmd.Flags().GetString("addr")
			}
			if cmd.Flags().Changed("metrics-addr") {
				s.MetricsAddr, _ = cmd.Flags().GetString("metrics-addr")
			}
			if cmd.Flags().Changed("watch") {
				s.Watch, _ = cmd.Flags().GetBool("watch")
			}
		}, cli.WithRegisterer(reg))
		if err != nil {
			return err
		}
		defer st.Close()

		metrics := promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
		opts := []httpadapter.Option{
			httpadapter.WithLogger(st.Logger),
			httpadapter.WithResponses(st.Responses),
			httpadapter.WithMaxInputSize(st.Settings.MaxInputSize),
			httpadapter.WithInfo("survey", survey.Version),
			httpadapter.WithWatcher(st.Engine),
		}
		if st.Settings.MetricsAddr == "" {
			opts = append(opts, httpadapter.WithMetricsHandler(metrics))
		}

		servers := []*http.Server{{
			Addr:              st.Settings.Addr,
			Handler:           httpadapter.NewHandler(st.Manager(), opts...),
			ReadHeaderTimeout: 10 * time.Second,
		}}
		if st.Settings.MetricsAddr != "" {
			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics)
			servers = append(servers, &http.Server{
				Addr:              st.Settings.MetricsAddr,
				Handler:           mux,
				ReadHeaderTimeout: 10 * time.Second,
			})
		}

		g, gctx := errgroup.WithContext(ctx)
		for _, srv := range servers {
			g.Go(func() error {
				st.Logger.Info("listening", "addr", srv.Addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("server %s: %w", srv.Addr, err)
				}
				return nil
			})
		}
		if st.Settings.Watch {
			g.Go(func() error {
				err := st.Engine.AutoReload(gctx)
				if errors.Is(err, survey.ErrNotWatchable) {
					st.Logger.Warn("hot reload is not available for this source")
					return nil
				}
				return err
			})
		}
		g.Go(func() error {
			<-gctx.Done()
			st.Logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			var errs []error
			for _, srv := range servers {
				if err := srv.Shutdown(shutdownCtx); err != nil {
					errs = append(errs, err)
					_ = srv.Close()
				}
			}
			return errors.Join(errs...)
		})

		return g.Wait()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", ":8080", "Address to listen on")
	serveCmd.Flags().String("metrics-addr", "", "Serve /metrics on a separate address")
	serveCmd.Flags().Bool("watch", false, "Reload the survey when the definition file changes")
}

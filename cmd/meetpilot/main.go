// meetpilot is a real-time co-pilot for one-on-one meetings: it watches the
// manager's live notes and decides, turn by turn, whether to interject with
// an observation, question or suggested action.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"meetpilot/internal/config"
	"meetpilot/internal/llm"
	"meetpilot/internal/logging"
	"meetpilot/internal/orchestrator"
	"meetpilot/internal/server"
	"meetpilot/internal/session"
	"meetpilot/internal/store"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "meetpilot",
		Short:         "Real-time co-pilot for one-on-one meetings",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd())
	root.AddCommand(newAnalyzeCmd())
	return root
}

func newServeCmd() *cobra.Command {
	var (
		cfgPath string
		addr    string
		verbose bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the meetpilot server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := logging.New(verbose)
			if err != nil {
				return err
			}
			defer logger.Sync()

			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, cfgPath, logger)
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "meetpilot.yaml", "path to the config file")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	return cmd
}

func newAnalyzeCmd() *cobra.Command {
	var (
		cfgPath    string
		employeeID string
		verbose    bool
	)
	cmd := &cobra.Command{
		Use:   "analyze [text]",
		Short: "Run one pipeline turn over a note and print the resulting events",
		Long: `Runs a single analysis turn outside a live session: the note text is fed
straight into the pipeline (no debounce or word-delta gates) and the
emitted events are printed as JSON. Text is read from the argument, or
from stdin when no argument is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logging.New(verbose)
			if err != nil {
				return err
			}
			defer logger.Sync()

			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			var text string
			if len(args) == 1 {
				text = args[0]
			} else {
				raw, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				text = string(raw)
			}
			if strings.TrimSpace(text) == "" {
				return errors.New("no note text given")
			}
			return analyze(cmd.Context(), cfg, text, employeeID, cmd.OutOrStdout(), logger)
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "meetpilot.yaml", "path to the config file")
	cmd.Flags().StringVar(&employeeID, "employee", "adhoc", "employee ID for stored context")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	return cmd
}

// analyze runs one explicit turn against a fresh session and writes the
// emitted events to out.
func analyze(ctx context.Context, cfg *config.Config, text, employeeID string, out io.Writer, logger *zap.Logger) error {
	st, err := store.Open(cfg.Storage.Path, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	client, err := llm.NewClient(ctx, cfg.LLM, logger)
	if err != nil {
		return err
	}

	var events []orchestrator.Event
	emit := func(_ session.Key, evs []orchestrator.Event) {
		events = append(events, evs...)
	}

	policy := session.NewPolicyStore(cfg.Gating)
	orch := orchestrator.New(policy, orchestrator.NewAgents(client, logger, cfg), st, st, emit, logger, cfg.Timeouts)
	defer orch.Detector().Stop()

	orch.HandleExplicitMessage(session.NewKey("adhoc", employeeID), text)

	if events == nil {
		events = []orchestrator.Event{}
	}
	raw, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(raw))
	return err
}

func serve(ctx context.Context, cfg *config.Config, cfgPath string, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(cfg.Storage.Path, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	client, err := llm.NewClient(ctx, cfg.LLM, logger)
	if err != nil {
		return err
	}

	policy := session.NewPolicyStore(cfg.Gating)
	hub := server.NewHub(logger)
	orch := orchestrator.New(policy, orchestrator.NewAgents(client, logger, cfg), st, st, hub.Emit, logger, cfg.Timeouts)
	defer orch.Detector().Stop()

	// Gating thresholds follow the config file without a restart.
	if watcher, err := config.NewWatcher(cfgPath, logger, policy.SetGating); err != nil {
		logger.Warn("config watcher unavailable", zap.Error(err))
	} else if err := watcher.Start(ctx); err != nil {
		logger.Warn("config watcher failed to start", zap.Error(err))
	} else {
		defer watcher.Stop()
	}

	srv := server.New(st, orch, hub, logger)
	httpSrv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", cfg.Server.Addr), zap.String("version", version))
		if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

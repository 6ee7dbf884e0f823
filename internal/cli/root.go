package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/vietddude/stylelog"

	"github.com/vietddude/fathem/internal/core/config"
	"github.com/vietddude/fathem/internal/infra/metrics"
	"github.com/vietddude/fathem/internal/infra/rpc"
	"github.com/vietddude/fathem/internal/infra/rpc/apierr"
)

var (
	cfgPath     string
	isDebug     bool
	metricsPort int

	client        *rpc.Client
	metricsServer *metrics.Server
)

var rootCmd = &cobra.Command{
	Use:   "fathem",
	Short: "Fathem conversation API client",
	Long: `fathem tracks support conversations against the Fathem API.
Every call is retried with exponential backoff, honoring the server's retry-after hint.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logError(err)
		cancel()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "config.yaml", "config file (default is config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&isDebug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().IntVar(&metricsPort, "metrics-port", 0, "serve prometheus metrics on this port (0 = config value)")
}

// setup builds the API client. Only commands that talk to the API run it, so
// help and completion work without credentials.
func setup(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	// Load Configuration
	cfg, err := config.Load(cfgPath)
	if err != nil {
		stylelog.InitDefault()
		return err
	}

	// Setup logging
	slogLevel := slog.LevelInfo
	if isDebug || cfg.Logging.Level == "debug" {
		slogLevel = slog.LevelDebug
	}

	stylelog.InitDefault(&tint.Options{
		Level:      slogLevel,
		TimeFormat: time.RFC3339,
	})

	rpcCfg := cfg.RPC()
	rpcCfg.Retry.OnRetry = func(err error, attempt int) {
		slog.Info("Call failed, retrying",
			"command", cmd.Name(),
			"attempt", attempt,
			"kind", apierr.KindOf(err),
		)
	}

	client, err = rpc.NewClient(rpcCfg)
	if err != nil {
		return err
	}

	port := cfg.Metrics.Port
	if metricsPort != 0 {
		port = metricsPort
	}
	if port > 0 {
		metricsServer = metrics.NewServer(port)
		metricsServer.Start()
	}

	slog.Debug("Client initialized", "base_url", cfg.Client.BaseURL, "attempts", cfg.Retry.Attempts)
	return nil
}

func teardown(cmd *cobra.Command, args []string) error {
	if metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsServer.Stop(ctx); err != nil {
			slog.Error("Error stopping metrics server", "error", err)
		}
	}
	if client != nil {
		return client.Close()
	}
	return nil
}

// logError reports a failed command with the classified metadata.
func logError(err error) {
	apiErr, ok := apierr.As(err)
	if !ok {
		slog.Error("Command failed", "error", err)
		return
	}

	attrs := []any{"kind", apiErr.Kind, "message", apiErr.Message}
	if apiErr.Status != 0 {
		attrs = append(attrs, "status", apiErr.Status)
	}
	if apiErr.RequestID != "" {
		attrs = append(attrs, "request_id", apiErr.RequestID)
	}
	if secs, ok := apiErr.RetryAfterHint(); ok {
		attrs = append(attrs, "retry_after", time.Duration(secs)*time.Second)
	}
	if apiErr.Details != nil && apiErr.Kind == apierr.KindValidation {
		attrs = append(attrs, "details", apiErr.Details)
	}
	slog.Error("Command failed", attrs...)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}

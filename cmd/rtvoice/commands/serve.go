package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/spf13/cobra"

	"github.com/majnioui/openai-realtime-voice-to-voice-example/cmd/rtvoice/internal/config"
	"github.com/majnioui/openai-realtime-voice-to-voice-example/pkg/credential"
	"github.com/majnioui/openai-realtime-voice-to-voice-example/pkg/observability"
	openairealtime "github.com/majnioui/openai-realtime-voice-to-voice-example/pkg/openai-realtime"
)

var serveFlags struct {
	addr         string
	instructions string
	publicDir    string
	envFile      string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the credential backend",
	Long: `Run the credential backend.

The backend keeps OPENAI_API_KEY on the server and mints a short-lived
realtime session for every GET /session. It also serves GET /models,
/healthz, /metrics and, with --public, a static site.

OPENAI_API_KEY and PORT are read from the environment or a .env file.`,
	RunE: runServe,
}

func init() {
	f := serveCmd.Flags()
	f.StringVar(&serveFlags.addr, "addr", "", "listen address (default "+config.DefaultBackendAddr+", or 0.0.0.0:$PORT)")
	f.StringVar(&serveFlags.instructions, "instructions", "", "instructions file (.yaml with an instructions key, or plain text)")
	f.StringVar(&serveFlags.publicDir, "public", "", "directory of static files to serve at /")
	f.StringVar(&serveFlags.envFile, "env-file", ".env", "dotenv file to load if present")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(serveFlags.envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load %s: %w", serveFlags.envFile, err)
	}
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is not set")
	}

	file, err := loadService[config.Backend](config.ServiceBackend)
	if err != nil {
		return err
	}
	if serveFlags.instructions != "" {
		file.InstructionsFile = serveFlags.instructions
	}
	if serveFlags.publicDir != "" {
		file.PublicDir = serveFlags.publicDir
	}
	cfg := credential.DefaultServerConfig()
	if err := file.Apply(&cfg); err != nil {
		return err
	}

	addr := config.DefaultBackendAddr
	switch {
	case serveFlags.addr != "":
		addr = serveFlags.addr
	case file.Addr != "":
		addr = file.Addr
	case os.Getenv("PORT") != "":
		addr = "0.0.0.0:" + os.Getenv("PORT")
	}

	logger := slog.Default()
	metrics := observability.NewMetrics(appName, nil)
	models := openai.NewClient(option.WithAPIKey(apiKey))
	srv := credential.NewServer(cfg,
		openairealtime.NewClient(openairealtime.WithAPIKey(apiKey)),
		credential.WithModels(&models),
		credential.WithMetrics(metrics),
		credential.WithLogger(logger),
	)

	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("credential backend listening", "addr", addr, "model", cfg.Model, "voice", cfg.Voice)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

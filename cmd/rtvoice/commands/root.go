package commands

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/majnioui/openai-realtime-voice-to-voice-example/cmd/rtvoice/internal/config"
	"github.com/majnioui/openai-realtime-voice-to-voice-example/pkg/cli"
)

const appName = "rtvoice"

// logToFile marks commands that own the terminal; their logs go to the
// default log file unless --log-file says otherwise.
const logToFile = "log-to-file"

var (
	verbose     bool
	logFile     string
	contextName string

	globalConfig   *config.Config
	configLoadErr  error
	closeLogOutput func() error
)

var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "Realtime voice-to-voice client and credential backend",
	Long: `rtvoice - talk to a realtime voice model over WebRTC.

"rtvoice serve" runs the credential backend that holds the API key and mints
short-lived session tokens. "rtvoice talk" fetches a token from it, connects
to the model and streams the microphone while playing the reply.

Configuration is stored in the OS config directory (or $RTVOICE_CONFIG_DIR):
  macOS:   ~/Library/Application Support/rtvoice/
  Linux:   ~/.config/rtvoice/
  Windows: %AppData%/rtvoice/

Examples:
  rtvoice config add-context laptop
  rtvoice config use-context laptop
  rtvoice config set laptop voice backend_url http://localhost:3000
  rtvoice serve &
  rtvoice talk`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging(cmd)
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if closeLogOutput != nil {
			err := closeLogOutput()
			closeLogOutput = nil
			return err
		}
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	pf.StringVar(&logFile, "log-file", "", `log file ("-" for stderr)`)
	pf.StringVarP(&contextName, "context", "c", "", "configuration context (default: current)")
}

func initConfig() {
	cfg, err := config.Load()
	if err != nil {
		configLoadErr = err
		return
	}
	globalConfig = cfg
}

// GetConfig returns the loaded configuration.
func GetConfig() (*config.Config, error) {
	if globalConfig == nil {
		if configLoadErr != nil {
			return nil, fmt.Errorf("config not available: %w", configLoadErr)
		}
		cfg, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("config not available: %w", err)
		}
		globalConfig = cfg
	}
	return globalConfig, nil
}

// loadService reads a service file from the selected context. Without a
// context or file it returns the zero value, so every command works with
// flags alone.
func loadService[T any](service string) (*T, error) {
	cfg, err := GetConfig()
	if err != nil {
		return nil, err
	}
	dir, err := cfg.ResolveContext(contextName)
	if err != nil {
		if contextName == "" && cfg.CurrentContext == "" {
			return new(T), nil
		}
		return nil, err
	}
	v, err := config.LoadService[T](dir, service)
	if err != nil {
		if errors.Is(err, config.ErrServiceNotFound) {
			return new(T), nil
		}
		return nil, err
	}
	return v, nil
}

func setupLogging(cmd *cobra.Command) error {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	path := logFile
	if path == "" && cmd.Annotations[logToFile] == "true" {
		paths, err := cli.NewPaths(appName)
		if err != nil {
			return err
		}
		if err := paths.EnsureLogDir(); err != nil {
			return fmt.Errorf("create log dir: %w", err)
		}
		path = paths.LogPath(cmd.Name() + ".log")
	}

	var w io.Writer = os.Stderr
	if path != "" && path != "-" {
		lj := &lumberjack.Logger{
			Filename:   path,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     14, // days
		}
		w = lj
		closeLogOutput = lj.Close
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
	return nil
}

// IsVerbose returns whether debug logging is on.
func IsVerbose() bool {
	return verbose
}

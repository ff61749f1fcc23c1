package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/majnioui/openai-realtime-voice-to-voice-example/cmd/rtvoice/internal/config"
	"github.com/majnioui/openai-realtime-voice-to-voice-example/pkg/audio/portaudio"
	"github.com/majnioui/openai-realtime-voice-to-voice-example/pkg/audiolevel"
	"github.com/majnioui/openai-realtime-voice-to-voice-example/pkg/credential"
	"github.com/majnioui/openai-realtime-voice-to-voice-example/pkg/device"
	"github.com/majnioui/openai-realtime-voice-to-voice-example/pkg/observability"
	openairealtime "github.com/majnioui/openai-realtime-voice-to-voice-example/pkg/openai-realtime"
	"github.com/majnioui/openai-realtime-voice-to-voice-example/pkg/panel"
	"github.com/majnioui/openai-realtime-voice-to-voice-example/pkg/rtcpeer"
	"github.com/majnioui/openai-realtime-voice-to-voice-example/pkg/voice"
)

var talkFlags struct {
	backendURL   string
	realtimeURL  string
	model        string
	panelAddr    string
	inputDevice  int
	outputDevice int
	noStart      bool
}

var talkCmd = &cobra.Command{
	Use:   "talk",
	Short: "Start a voice session with the default audio devices",
	Long: `Start a full-duplex voice session.

The session token comes from the credential backend (see "rtvoice serve").
Press enter to stop or restart the session and q to quit. With --panel the
session is also shown, and can be switched, from a browser.

Logs go to the rtvoice cache directory unless --log-file is given.`,
	Annotations: map[string]string{logToFile: "true"},
	RunE:        runTalk,
}

func init() {
	addTalkFlags(talkCmd)
	rootCmd.AddCommand(talkCmd)
}

func addTalkFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&talkFlags.backendURL, "backend", "", "credential backend URL (default "+config.DefaultBackendURL+")")
	f.StringVar(&talkFlags.realtimeURL, "realtime-url", "", "realtime API base URL")
	f.StringVar(&talkFlags.model, "model", "", "realtime model")
	f.StringVar(&talkFlags.panelAddr, "panel", "", "serve the browser panel on this address, e.g. localhost:8080")
	f.IntVar(&talkFlags.inputDevice, "input-device", portaudio.DefaultDevice, "input device index (see rtvoice devices)")
	f.IntVar(&talkFlags.outputDevice, "output-device", portaudio.DefaultDevice, "output device index")
	f.BoolVar(&talkFlags.noStart, "no-start", false, "wait for enter before starting")
}

// talkSettings is voice.yaml with flags applied.
type talkSettings struct {
	file         *config.Voice
	cfg          voice.Config
	backendURL   string
	realtimeURL  string
	model        string
	panelAddr    string
	inputDevice  int
	outputDevice int
}

func resolveTalkSettings(cmd *cobra.Command, file *config.Voice) (talkSettings, error) {
	s := talkSettings{
		file:         file,
		cfg:          voice.DefaultConfig(),
		backendURL:   config.DefaultBackendURL,
		realtimeURL:  file.RealtimeURL,
		model:        openairealtime.DefaultModel,
		panelAddr:    file.PanelAddr,
		inputDevice:  portaudio.DefaultDevice,
		outputDevice: portaudio.DefaultDevice,
	}
	file.Apply(&s.cfg)
	if file.BackendURL != "" {
		s.backendURL = file.BackendURL
	}
	if file.Model != "" {
		s.model = file.Model
	}
	if file.InputDevice != nil {
		s.inputDevice = *file.InputDevice
	}
	if file.OutputDevice != nil {
		s.outputDevice = *file.OutputDevice
	}

	flags := cmd.Flags()
	if flags.Changed("backend") {
		s.backendURL = talkFlags.backendURL
	}
	if flags.Changed("realtime-url") {
		s.realtimeURL = talkFlags.realtimeURL
	}
	if flags.Changed("model") {
		s.model = talkFlags.model
	}
	if flags.Changed("panel") {
		s.panelAddr = talkFlags.panelAddr
	}
	if flags.Changed("input-device") {
		s.inputDevice = talkFlags.inputDevice
	}
	if flags.Changed("output-device") {
		s.outputDevice = talkFlags.outputDevice
	}
	return s, s.cfg.Validate()
}

func runTalk(cmd *cobra.Command, args []string) error {
	file, err := loadService[config.Voice](config.ServiceVoice)
	if err != nil {
		return err
	}
	s, err := resolveTalkSettings(cmd, file)
	if err != nil {
		return err
	}
	logger := slog.Default()

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("init audio: %w", err)
	}
	defer portaudio.Terminate()

	speaker, err := device.NewSpeaker(device.WithDevice(s.outputDevice), device.WithLogger(logger))
	if err != nil {
		return err
	}
	defer speaker.Close()

	rtOpts := []openairealtime.Option{}
	if s.realtimeURL != "" {
		rtOpts = append(rtOpts, openairealtime.WithHTTPURL(s.realtimeURL))
	}
	rt := openairealtime.NewClient(rtOpts...)

	monitorOpts := []audiolevel.Option{audiolevel.WithLogger(logger)}
	if file.LevelThreshold > 0 {
		monitorOpts = append(monitorOpts, audiolevel.WithThreshold(file.LevelThreshold))
	}

	term := newTerminalPresenter(cmd.OutOrStdout())
	presenters := []voice.Presenter{term}
	var web *panel.Panel
	if s.panelAddr != "" {
		web = panel.New(panel.WithLogger(logger))
		presenters = append(presenters, web)
	}

	peerOpts := []rtcpeer.Option{rtcpeer.WithLogger(logger)}
	if len(file.ICEServers) > 0 {
		peerOpts = append(peerOpts, rtcpeer.WithICEServers(file.ICEServers...))
	}

	mgr := voice.NewManager(voice.Dependencies{
		Credentials: credential.NewClient(s.backendURL, nil),
		Negotiator: voice.NegotiatorFunc(func(ctx context.Context, token, offer string) (string, error) {
			return rt.ExchangeSDP(ctx, token, s.model, offer)
		}),
		Peers:       rtcpeer.NewFactory(peerOpts...),
		Microphones: device.NewCapture(device.WithDevice(s.inputDevice), device.WithLogger(logger)),
		Sink:        speaker,
		Presenter:   voice.Presenters(presenters...),
		Monitor:     audiolevel.NewMonitor(monitorOpts...),
	},
		voice.WithConfig(s.cfg),
		voice.WithMetrics(observability.NewMetrics(appName, nil)),
		voice.WithLogger(logger),
	)
	defer mgr.Close()
	term.watchMic(func() bool {
		mic := mgr.Handles().Microphone
		return mic != nil && mic.Enabled()
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if web != nil {
		srv := &http.Server{Addr: s.panelAddr, Handler: web.Router(mgr), ReadHeaderTimeout: 10 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("panel server", "error", err)
			}
		}()
		defer func() {
			web.Close()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		logger.Info("panel listening", "addr", s.panelAddr)
	}

	term.OnStatus(voice.StatusIdle)
	toggle := func() {
		if mgr.Active() {
			mgr.Stop()
			return
		}
		go func() {
			if err := mgr.Start(ctx); err != nil && !errors.Is(err, voice.ErrAborted) {
				logger.Warn("session start failed", "error", err)
			}
		}()
	}
	if !talkFlags.noStart {
		toggle()
	}
	return keyLoop(ctx, cmd.InOrStdin(), toggle)
}

// keyLoop calls toggle on every empty line of in and returns on "q", EOF
// or cancellation.
func keyLoop(ctx context.Context, in io.Reader, toggle func()) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- strings.TrimSpace(sc.Text()):
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				// Stdin closed: keep running until interrupted.
				<-ctx.Done()
				return nil
			}
			switch strings.ToLower(line) {
			case "":
				toggle()
			case "q", "quit", "exit":
				return nil
			}
		}
	}
}

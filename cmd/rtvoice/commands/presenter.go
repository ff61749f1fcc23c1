package commands

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/majnioui/openai-realtime-voice-to-voice-example/pkg/audiolevel"
	"github.com/majnioui/openai-realtime-voice-to-voice-example/pkg/cli"
	"github.com/majnioui/openai-realtime-voice-to-voice-example/pkg/voice"
)

const (
	clearScreen = "\x1b[H\x1b[2J"
	frameWidth  = 44
	talkHelp    = "enter: start/stop  q: quit"
)

// terminalPresenter draws the session as a lipgloss frame. On a terminal
// each change redraws in place; otherwise frames are appended.
type terminalPresenter struct {
	w      io.Writer
	redraw bool
	now    func() time.Time

	mu    sync.Mutex
	view  cli.StatusView
	since time.Time
	micOn func() bool
}

func newTerminalPresenter(w io.Writer) *terminalPresenter {
	return &terminalPresenter{
		w:      w,
		redraw: isTerminal(w),
		now:    time.Now,
		view: cli.StatusView{
			Styles: cli.NewStyles(cli.DefaultTheme),
			Title:  appName,
			Status: voice.StatusIdle,
			Help:   talkHelp,
		},
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fi, err := f.Stat()
	return err == nil && fi.Mode()&os.ModeCharDevice != 0
}

// watchMic makes the frame show whether the microphone is enabled.
func (p *terminalPresenter) watchMic(fn func() bool) {
	p.mu.Lock()
	p.micOn = fn
	p.mu.Unlock()
}

func (p *terminalPresenter) OnStatus(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.view.Status = text
	p.view.Failed = voice.IsFailureStatus(text)
	switch {
	case text == voice.StatusConnecting || text == voice.StatusIdle || p.view.Failed:
		p.since = time.Time{}
	case p.since.IsZero():
		p.since = p.now()
	}
	p.drawLocked()
}

func (p *terminalPresenter) OnAISpeakingChanged(speaking bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.view.AISpeaking = speaking
	if !speaking {
		p.view.Intensity = 0
	}
	p.drawLocked()
}

func (p *terminalPresenter) OnUserSpeakingChanged(speaking bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.view.UserSpeaking = speaking
	p.drawLocked()
}

func (p *terminalPresenter) OnLevel(r audiolevel.Report) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if r.Intensity == p.view.Intensity || !p.redraw {
		return
	}
	p.view.Intensity = r.Intensity
	p.drawLocked()
}

func (p *terminalPresenter) drawLocked() {
	if p.micOn != nil {
		p.view.MicOn = p.micOn()
	}
	p.view.Uptime = ""
	if !p.since.IsZero() {
		p.view.Uptime = cli.FormatDuration(p.now().Sub(p.since))
	}
	frame := p.view.Render(frameWidth)
	if p.redraw {
		io.WriteString(p.w, clearScreen+frame+"\n")
		return
	}
	io.WriteString(p.w, frame+"\n")
}

var (
	_ voice.Presenter      = (*terminalPresenter)(nil)
	_ voice.LevelPresenter = (*terminalPresenter)(nil)
)

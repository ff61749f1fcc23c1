package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme is the color scheme of the status frame.
type Theme struct {
	Primary lipgloss.Color
	Accent  lipgloss.Color
	Dim     lipgloss.Color
	Error   lipgloss.Color
}

// DefaultTheme is bright green on the terminal background.
var DefaultTheme = Theme{
	Primary: lipgloss.Color("#00ff9f"),
	Accent:  lipgloss.Color("#3f8cff"),
	Dim:     lipgloss.Color("#6e7681"),
	Error:   lipgloss.Color("#ff5f5f"),
}

// Styles are derived from a Theme.
type Styles struct {
	Frame  lipgloss.Style
	Title  lipgloss.Style
	Status lipgloss.Style
	Error  lipgloss.Style
	Active lipgloss.Style
	Help   lipgloss.Style
}

// NewStyles creates styles from t.
func NewStyles(t Theme) Styles {
	return Styles{
		Frame: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Primary).
			Padding(0, 1),
		Title:  lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Status: lipgloss.NewStyle(),
		Error:  lipgloss.NewStyle().Foreground(t.Error),
		Active: lipgloss.NewStyle().Bold(true).Foreground(t.Accent),
		Help:   lipgloss.NewStyle().Foreground(t.Dim),
	}
}

// levelBars indexes by wave intensity.
var levelBars = [...]string{"▁▁▁▁", "▃▁▃▁", "▅▃▅▃", "▇▅▇▅"}

// StatusView is one frame of the live session display.
type StatusView struct {
	Styles Styles

	Title        string
	Status       string
	Failed       bool
	AISpeaking   bool
	UserSpeaking bool
	MicOn        bool
	Intensity    int
	Uptime       string
	Help         string
}

// Render draws the frame width columns wide. A width below 20 renders
// without a border.
func (v StatusView) Render(width int) string {
	st := v.Styles

	status := st.Status.Render(v.Status)
	if v.Failed {
		status = st.Error.Render(v.Status)
	}

	ai := st.Help.Render("ai    " + levelBars[0])
	if v.AISpeaking {
		ai = st.Active.Render("ai    " + levelBars[clampIntensity(v.Intensity)])
	}
	user := st.Help.Render("you   ····")
	if v.UserSpeaking {
		user = st.Active.Render("you   ●●●●")
	}
	mic := st.Help.Render("mic   off")
	if v.MicOn {
		mic = st.Status.Render("mic   on")
	}

	lines := []string{st.Title.Render(v.Title), status, "", ai, user, mic}
	if v.Uptime != "" {
		lines = append(lines, st.Help.Render("up    "+v.Uptime))
	}
	body := strings.Join(lines, "\n")

	if width < 20 {
		return body + "\n" + st.Help.Render(v.Help)
	}
	// Width excludes the border.
	frame := st.Frame.Width(width - 2).Render(body)
	return frame + "\n" + st.Help.Render(v.Help)
}

func clampIntensity(i int) int {
	return min(max(i, 0), len(levelBars)-1)
}

package hal

import (
	"context"
	"errors"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const termRefresh = 50 * time.Millisecond

var (
	termFrameStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240"))
	termHelpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// Term renders frames in the terminal with half-block characters and turns
// key presses into button presses.
type Term struct {
	fs      *frameStore
	presser Presser
}

func NewTerm(width, height int, presser Presser) *Term {
	return &Term{fs: newFrameStore(width, height), presser: presser}
}

func (t *Term) Size() (int, int) { return t.fs.size() }

func (t *Term) Flush(b *Bitmap) error {
	t.fs.store(b)
	return nil
}

func (t *Term) Close() error { return nil }

// Run blocks until the user quits or ctx is done.
func (t *Term) Run(ctx context.Context) error {
	w, h := t.fs.size()
	m := &termModel{term: t, snap: NewBitmap(w, h)}
	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}

type termTickMsg struct{}

func termTick() tea.Cmd {
	return tea.Tick(termRefresh, func(time.Time) tea.Msg { return termTickMsg{} })
}

type termModel struct {
	term   *Term
	snap   *Bitmap
	frames uint64
}

func (m *termModel) Init() tea.Cmd {
	return termTick()
}

func (m *termModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case termTickMsg:
		m.frames = m.term.fs.snapshot(m.snap)
		return m, termTick()
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		}
		if b, ok := termButton(msg.String()); ok && m.term.presser != nil {
			m.term.presser.Press(b)
		}
	}
	return m, nil
}

func termButton(key string) (Button, bool) {
	switch key {
	case "up", "k", "w":
		return ButtonUp, true
	case "down", "j", "s":
		return ButtonDown, true
	case "left", "h", "a":
		return ButtonLeft, true
	case "right", "l", "d":
		return ButtonRight, true
	case "enter", " ":
		return ButtonCenter, true
	}
	return 0, false
}

func (m *termModel) View() string {
	return termFrameStyle.Render(renderHalfBlocks(m.snap)) + "\n" +
		termHelpStyle.Render("arrows move  enter selects  q quits")
}

// renderHalfBlocks packs two pixel rows into each text row.
func renderHalfBlocks(b *Bitmap) string {
	var sb strings.Builder
	for y := 0; y < b.height; y += 2 {
		if y > 0 {
			sb.WriteByte('\n')
		}
		for x := 0; x < b.width; x++ {
			top, bottom := b.At(x, y), b.At(x, y+1)
			switch {
			case top && bottom:
				sb.WriteRune('█')
			case top:
				sb.WriteRune('▀')
			case bottom:
				sb.WriteRune('▄')
			default:
				sb.WriteByte(' ')
			}
		}
	}
	return sb.String()
}

package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/wasm-hal/config"
	"github.com/wippyai/wasm-hal/hal"
	"github.com/wippyai/wasm-hal/hal/sim"
	"github.com/wippyai/wasm-hal/host"
	"github.com/wippyai/wasm-hal/runtime"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#555555")).
			Padding(0, 1)

	headStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#87CEEB"))

	highStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#98FB98"))

	lowStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
)

const (
	maxCalls = 12
	maxUART  = 64
)

type keyMap struct {
	Up, Down, Toggle, Quit key.Binding
}

func (k keyMap) ShortHelp() []key.Binding { return []key.Binding{k.Up, k.Down, k.Toggle, k.Quit} }

func (k keyMap) FullHelp() [][]key.Binding { return [][]key.Binding{k.ShortHelp()} }

var keys = keyMap{
	Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Toggle: key.NewBinding(key.WithKeys(" ", "space"), key.WithHelp("space", "toggle input level")),
	Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

type (
	tickMsg time.Time
	callMsg host.Call
	diagMsg string
	uartMsg []byte
	doneMsg struct{ err error }
)

type dashboard struct {
	ctx      context.Context
	err      error
	rt       *runtime.Runtime
	cancel   context.CancelFunc
	name     string
	bin      []byte
	pins     []uint32
	calls    []host.Call
	uart     []byte
	diag     strings.Builder
	snap     host.Snapshot
	log      viewport.Model
	help     help.Model
	selected int
	running  bool
}

func newDashboard(ctx context.Context, name string, bin []byte) *dashboard {
	ctx, cancel := context.WithCancel(ctx)
	return &dashboard{
		ctx:     ctx,
		cancel:  cancel,
		name:    name,
		bin:     bin,
		log:     viewport.New(60, 8),
		help:    help.New(),
		running: true,
	}
}

func (m *dashboard) Init() tea.Cmd {
	return tea.Batch(m.runGuest, tick())
}

func (m *dashboard) runGuest() tea.Msg {
	return doneMsg{err: m.rt.RunWASM(m.ctx, m.bin)}
}

func tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			m.cancel()
			return m, tea.Quit
		case key.Matches(msg, keys.Up):
			if m.selected > 0 {
				m.selected--
			}
		case key.Matches(msg, keys.Down):
			if m.selected < len(m.pins)-1 {
				m.selected++
			}
		case key.Matches(msg, keys.Toggle):
			m.toggle()
		}

	case tea.WindowSizeMsg:
		m.log.Width = max(msg.Width-4, 20)
		m.help.Width = msg.Width

	case tickMsg:
		m.snap = m.rt.Host().Snapshot()
		return m, tick()

	case callMsg:
		m.calls = append(m.calls, host.Call(msg))
		if len(m.calls) > maxCalls {
			m.calls = m.calls[len(m.calls)-maxCalls:]
		}

	case diagMsg:
		m.diag.WriteString(string(msg))
		m.log.SetContent(m.diag.String())
		m.log.GotoBottom()

	case uartMsg:
		m.uart = append(m.uart, msg...)
		if len(m.uart) > maxUART {
			m.uart = m.uart[len(m.uart)-maxUART:]
		}

	case doneMsg:
		m.running = false
		m.err = msg.err
		m.snap = m.rt.Host().Snapshot()
	}
	return m, nil
}

// toggle flips the external level of the selected pin, as a button would.
// Outputs are driven by the guest and are left alone.
func (m *dashboard) toggle() {
	board := m.rt.Sim()
	if board == nil || len(m.pins) == 0 {
		return
	}
	pin := m.pins[m.selected]
	level, dir, ok := board.Level(pin)
	if !ok || dir == hal.DirectionOutput {
		return
	}
	_ = board.SetLevel(pin, !level)
}

func (m *dashboard) View() string {
	var b strings.Builder

	status := "running"
	switch {
	case m.running:
	case m.err != nil:
		status = errorStyle.Render("stopped: " + m.err.Error())
	default:
		status = "finished"
	}
	b.WriteString(titleStyle.Render("wasmhal"))
	fmt.Fprintf(&b, " %s  %s  %d calls\n", m.name, status, m.snap.Calls)

	panes := lipgloss.JoinHorizontal(lipgloss.Top,
		paneStyle.Render(m.pinsView()),
		paneStyle.Render(m.callsView()))
	b.WriteString(panes)
	b.WriteString("\n")
	b.WriteString(paneStyle.Render(headStyle.Render("diagnostics") + "\n" + m.log.View()))
	b.WriteString("\n")
	b.WriteString(m.help.View(keys))
	return b.String()
}

func (m *dashboard) pinsView() string {
	var b strings.Builder
	b.WriteString(headStyle.Render("pins"))
	b.WriteString("\n")
	board := m.rt.Sim()
	for i, pin := range m.pins {
		claim := m.rt.Host().Claimed(hal.PinID{Pin: pin})
		line := fmt.Sprintf("gpio%-3d %-6s", pin, claim)
		if board != nil {
			if level, _, ok := board.Level(pin); ok {
				if level {
					line += highStyle.Render("● high")
				} else {
					line += lowStyle.Render("○ low ")
				}
			}
		}
		if i == m.selected {
			line = selectedStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(headStyle.Render("uart"))
	b.WriteString("\n")
	if len(m.snap.UART) == 0 {
		b.WriteString(lowStyle.Render("closed"))
	}
	for _, u := range m.snap.UART {
		fmt.Fprintf(&b, "handle %d  tx %s rx %s  %d baud\n", u.Handle, u.TX, u.RX, u.Baud)
		fmt.Fprintf(&b, "tx> %q", string(m.uart))
	}
	return b.String()
}

func (m *dashboard) callsView() string {
	var b strings.Builder
	b.WriteString(headStyle.Render("recent calls"))
	b.WriteString("\n")
	for _, c := range m.calls {
		b.WriteString(formatCall(c))
		b.WriteString("\n")
	}
	return b.String()
}

func formatCall(c host.Call) string {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = fmt.Sprint(a)
	}
	s := c.Name + "(" + strings.Join(args, ", ") + ")"
	if c.HasResult {
		r := c.Result.String()
		if c.Result.OK() {
			r = highStyle.Render(r)
		} else {
			r = errorStyle.Render(r)
		}
		s += " = " + r
	}
	return s
}

// sink forwards runtime activity into the program's event loop.
type sink struct {
	p    *tea.Program
	uart bool
}

func (s *sink) OnCall(c host.Call) { s.p.Send(callMsg(c)) }

func (s *sink) Write(b []byte) (int, error) {
	if s.uart {
		s.p.Send(uartMsg(append([]byte(nil), b...)))
	} else {
		s.p.Send(diagMsg(string(b)))
	}
	return len(b), nil
}

func runDashboard(cfg *config.Config, name string, bin []byte) error {
	m := newDashboard(context.Background(), name, bin)
	defer m.cancel()
	p := tea.NewProgram(m, tea.WithAltScreen())

	// logs would tear the alternate screen; the dashboard shows the calls
	rt, err := runtime.New(m.ctx, cfg,
		runtime.WithDiagnostics(&sink{p: p}),
		runtime.WithCallObserver(&sink{p: p}),
		runtime.WithSimOptions(sim.WithUARTTap(&sink{p: p, uart: true})))
	if err != nil {
		return err
	}
	defer rt.Close(context.Background())
	m.rt = rt
	m.pins = rt.Board().PinMap().Pins()

	if _, err := p.Run(); err != nil {
		return err
	}
	return m.err
}

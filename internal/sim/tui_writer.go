package sim

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"fsa-anomaly-lab/internal/anomaly"
	"fsa-anomaly-lab/internal/config"
	"fsa-anomaly-lab/internal/fsa"
	"fsa-anomaly-lab/internal/telemetry"
)

// teaProgram abstracts bubbletea.Program for testing.
type teaProgram interface {
	Send(tea.Msg)
}

// eventsMsg carries the log entries of one tick (or one replayed line).
type eventsMsg struct{ entries []telemetry.LogEntry }

// snapshotMsg carries the committed state after a tick or reset.
type snapshotMsg struct{ snap Snapshot }

// adminMsg reports admin UI status.
type adminMsg struct {
	addr   string
	active bool
}

type controllerMsg struct{ ctrl Controller }

// statusMsg reports the outcome of a control action and the state after it.
type statusMsg struct {
	text string
	snap *Snapshot
}

const (
	healthBarCells = 10
	sparkRunes     = "▁▂▃▄▅▆▇█"
)

var (
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	titleStyle = lipgloss.NewStyle().Bold(true)
)

// TUIWriter renders the simulation using a bubbletea TUI.
type TUIWriter struct {
	program    teaProgram
	done       chan struct{}
	sendSignal atomic.Bool
}

// NewTUIWriter starts a bubbletea program and returns a TUIWriter. Control
// keys act on the simulator handed over through SetController.
func NewTUIWriter(ctx context.Context, cfg *config.SimulationConfig) *TUIWriter {
	w := &TUIWriter{done: make(chan struct{})}
	w.sendSignal.Store(true)
	m := newTUIModel(ctx, cfg)
	p := tea.NewProgram(m, tea.WithAltScreen())
	w.program = p
	go func() {
		_, _ = p.Run()
		close(w.done)
		if w.sendSignal.Load() {
			if proc, err := os.FindProcess(os.Getpid()); err == nil {
				_ = proc.Signal(os.Interrupt)
			}
		}
	}()
	return w
}

// WriteEvent implements EventWriter.
func (w *TUIWriter) WriteEvent(e telemetry.LogEntry) error {
	w.program.Send(eventsMsg{entries: []telemetry.LogEntry{e}})
	return nil
}

// WriteEvents sends a whole tick in one message.
func (w *TUIWriter) WriteEvents(entries []telemetry.LogEntry) error {
	cp := append([]telemetry.LogEntry(nil), entries...)
	w.program.Send(eventsMsg{entries: cp})
	return nil
}

// WriteSnapshot implements SnapshotWriter.
func (w *TUIWriter) WriteSnapshot(snap Snapshot) error {
	w.program.Send(snapshotMsg{snap: snap})
	return nil
}

// SetController implements ControllerSetter.
func (w *TUIWriter) SetController(c Controller) {
	w.program.Send(controllerMsg{ctrl: c})
}

// SetAdminStatus updates the admin UI indicator.
func (w *TUIWriter) SetAdminStatus(addr string, active bool) {
	w.program.Send(adminMsg{addr: addr, active: active})
}

// Close shuts down the TUI program and waits for cleanup.
func (w *TUIWriter) Close() error {
	w.sendSignal.Store(false)
	if w.program != nil {
		w.program.Send(tea.Quit())
	}
	if w.done != nil {
		<-w.done
	}
	return nil
}

type tuiModel struct {
	ctx       context.Context
	cfg       *config.SimulationConfig
	ctrl      Controller
	table     table.Model
	vp        viewport.Model
	logs      []telemetry.LogEntry // newest first
	snap      Snapshot
	nodeCount int
	admin     bool
	adminAddr string
	wrap      bool
	help      bool
	status    string
	width     int
	height    int
}

func newTUIModel(ctx context.Context, cfg *config.SimulationConfig) tuiModel {
	if cfg == nil {
		cfg = config.Default()
	}
	cols := []table.Column{
		{Title: "Node", Width: 10},
		{Title: "State", Width: 6},
		{Title: "Last Event", Width: 18},
		{Title: "Anomalies", Width: 44},
		{Title: "Health", Width: 16},
	}
	t := table.New(table.WithColumns(cols), table.WithHeight(cfg.Nodes()+1))
	return tuiModel{
		ctx:       ctx,
		cfg:       cfg,
		table:     t,
		vp:        viewport.New(0, 0),
		nodeCount: cfg.Nodes(),
	}
}

func (m tuiModel) Init() tea.Cmd { return nil }

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetWidth(msg.Width)
		m.vp.Width = msg.Width
		m.updateLayout()
		m.refreshViewport()
	case tea.KeyMsg:
		if m.help {
			switch msg.String() {
			case "?", "h", "esc":
				m.help = false
				m.updateLayout()
			case "q", "ctrl+c":
				return m, tea.Quit
			}
			return m, nil
		}
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			return m, m.control(func(c Controller) string {
				if c.Stop() {
					return "stopped"
				}
				c.Start(m.ctx)
				return "running"
			})
		case "n":
			return m, m.control(func(c Controller) string {
				res := c.Step(m.ctx)
				return fmt.Sprintf("stepped to tick %d", res.Tick)
			})
		case "r":
			n := m.nodeCount
			return m, m.control(func(c Controller) string {
				c.Reset(n)
				return fmt.Sprintf("reset with %d nodes", n)
			})
		case "1", "2", "4":
			x := float64(msg.String()[0] - '0')
			return m, m.control(func(c Controller) string {
				c.SetSpeed(x)
				return fmt.Sprintf("speed %gx", x)
			})
		case "+", "=":
			m.nodeCount++
			m.status = fmt.Sprintf("next reset: %d nodes", m.nodeCount)
			return m, nil
		case "-":
			m.nodeCount = config.ClampNodeCount(m.nodeCount - 1)
			m.status = fmt.Sprintf("next reset: %d nodes", m.nodeCount)
			return m, nil
		case "w":
			m.wrap = !m.wrap
			m.refreshViewport()
			return m, nil
		case "h", "?":
			m.help = true
			return m, nil
		case "j", "down":
			m.vp.LineDown(1)
		case "k", "up":
			m.vp.LineUp(1)
		case "pgdown":
			m.vp.LineDown(10)
		case "pgup":
			m.vp.LineUp(10)
		case "g", "home":
			m.vp.GotoTop()
		}
		return m, nil
	case eventsMsg:
		for _, e := range msg.entries {
			m.logs = append([]telemetry.LogEntry{e}, m.logs...)
			m.applyEntry(e)
		}
		if len(m.logs) > LogCapacity {
			m.logs = m.logs[:LogCapacity]
		}
		m.refreshTable()
		m.refreshViewport()
	case snapshotMsg:
		m.snap = msg.snap
		m.logs = append([]telemetry.LogEntry(nil), msg.snap.Log...)
		m.refreshTable()
		m.updateLayout()
		m.refreshViewport()
	case controllerMsg:
		m.ctrl = msg.ctrl
	case adminMsg:
		m.admin = msg.active
		m.adminAddr = msg.addr
	case statusMsg:
		m.status = msg.text
		// a tick may have landed between the action and this message
		if msg.snap != nil && (msg.snap.RunID != m.snap.RunID || msg.snap.Tick >= m.snap.Tick) {
			m.snap = *msg.snap
			m.logs = append([]telemetry.LogEntry(nil), msg.snap.Log...)
			m.refreshTable()
			m.updateLayout()
			m.refreshViewport()
		}
	}
	return m, nil
}

// control runs fn against the controller off the UI goroutine.
func (m tuiModel) control(fn func(Controller) string) tea.Cmd {
	c := m.ctrl
	if c == nil {
		return func() tea.Msg { return statusMsg{text: "no simulator attached"} }
	}
	return func() tea.Msg {
		text := fn(c)
		snap := c.Snapshot()
		return statusMsg{text: text, snap: &snap}
	}
}

// applyEntry keeps the node table current when only events arrive (replay).
func (m *tuiModel) applyEntry(e telemetry.LogEntry) {
	ev := e.Event
	for i := range m.snap.Nodes {
		if m.snap.Nodes[i].ID == e.NodeID {
			m.snap.Nodes[i].State = e.NewState
			m.snap.Nodes[i].LastEvent = &ev
			m.snap.Nodes[i].Anomalies = e.Anomalies
			m.snap.Nodes[i].Health = e.Health
			return
		}
	}
	m.snap.Nodes = append(m.snap.Nodes, Node{
		ID:        e.NodeID,
		State:     e.NewState,
		LastEvent: &ev,
		Anomalies: e.Anomalies,
		Health:    e.Health,
	})
}

func (m *tuiModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.snap.Nodes))
	for _, n := range m.snap.Nodes {
		last := "—"
		if n.LastEvent != nil {
			last = string(*n.LastEvent)
		}
		rows = append(rows, table.Row{n.ID, string(n.State), last, badges(n.Anomalies), healthBar(n.Health)})
	}
	m.table.SetRows(rows)
	m.table.SetHeight(len(rows) + 1)
}

func badges(labels []fsa.AnomalyLabel) string {
	if len(labels) == 0 {
		return "✓"
	}
	names := make([]string, len(labels))
	for i, l := range labels {
		names[i] = l.Display()
	}
	return strings.Join(names, ", ")
}

func healthBar(h int) string {
	filled := h * healthBarCells / anomaly.MaxHealth
	return strings.Repeat("█", filled) + strings.Repeat("░", healthBarCells-filled) + fmt.Sprintf(" %3d", h)
}

// sparkline scales counts onto block glyphs; an all-zero series renders flat.
func sparkline(points []telemetry.TrendPoint) string {
	runes := []rune(sparkRunes)
	peak := 0
	for _, p := range points {
		if p.Count > peak {
			peak = p.Count
		}
	}
	var b strings.Builder
	for _, p := range points {
		idx := 0
		if peak > 0 {
			idx = p.Count * (len(runes) - 1) / peak
		}
		b.WriteRune(runes[idx])
	}
	return b.String()
}

func stateStyle(s fsa.State) lipgloss.Style {
	switch s {
	case fsa.StateOK:
		return okStyle
	case fsa.StateWarn:
		return warnStyle
	case fsa.StateError:
		return errStyle
	}
	return mutedStyle
}

func (m tuiModel) renderLine(e telemetry.LogEntry) string {
	line := fmt.Sprintf("[%s] %s: %s (%s → %s)",
		e.Timestamp.Format("15:04:05"), e.NodeID, e.Event,
		stateStyle(e.PrevState).Render(string(e.PrevState)),
		stateStyle(e.NewState).Render(string(e.NewState)))
	if len(e.Anomalies) > 0 {
		line += errStyle.Render(" ⚠️ " + e.AnomalyText())
	}
	return line
}

func (m *tuiModel) refreshViewport() {
	lines := make([]string, 0, len(m.logs))
	for _, e := range m.logs {
		l := m.renderLine(e)
		if m.wrap && m.vp.Width > 0 {
			l = wordwrap.String(l, m.vp.Width)
		}
		lines = append(lines, l)
	}
	m.vp.SetContent(strings.Join(lines, "\n"))
}

func (m *tuiModel) updateLayout() {
	used := lipgloss.Height(m.renderHeader()) + lipgloss.Height(m.table.View()) +
		lipgloss.Height(m.renderTrend()) + lipgloss.Height(m.renderBottom()) + 2
	h := m.height - used
	if h < 1 {
		h = 1
	}
	m.vp.Height = h
}

func (m tuiModel) renderHeader() string {
	runState := errStyle.Render("● STOPPED")
	if m.snap.Running {
		runState = okStyle.Render("● RUNNING")
	}
	counts := Registry(m.snap.Nodes).CountByState()
	runID := m.snap.RunID
	if len(runID) > 8 {
		runID = runID[:8]
	}
	return fmt.Sprintf("%s  run %s │ nodes %d │ tick %d │ events %d │ anomalies %d │ %s %s %s │ %s every %s",
		titleStyle.Render("FSA Anomaly Lab"),
		runID, len(m.snap.Nodes), m.snap.Tick, m.snap.TotalEvents, m.snap.TotalAnomalies,
		okStyle.Render(fmt.Sprintf("OK %d", counts[fsa.StateOK])),
		warnStyle.Render(fmt.Sprintf("WARN %d", counts[fsa.StateWarn])),
		errStyle.Render(fmt.Sprintf("ERROR %d", counts[fsa.StateError])),
		runState, m.snap.TickInterval)
}

func (m tuiModel) renderTrend() string {
	if len(m.snap.Trend) == 0 {
		return mutedStyle.Render("Anomaly trend: no ticks yet")
	}
	last := m.snap.Trend[len(m.snap.Trend)-1]
	return fmt.Sprintf("Anomaly trend %s  last %d", errStyle.Render(sparkline(m.snap.Trend)), last.Count)
}

func (m tuiModel) renderBottom() string {
	adminColor := lipgloss.Color("9")
	if m.admin {
		adminColor = lipgloss.Color("10")
	}
	wrapColor := lipgloss.Color("9")
	if m.wrap {
		wrapColor = lipgloss.Color("10")
	}
	adminIndicator := lipgloss.NewStyle().Foreground(adminColor).Render("●")
	wrapIndicator := lipgloss.NewStyle().Foreground(wrapColor).Render("●")
	admin := "admin"
	if m.adminAddr != "" {
		admin = "admin " + m.adminAddr
	}
	bar := fmt.Sprintf("%s %s  %s wrap  │ space start/stop  n step  r reset(%d)  +/- nodes  1/2/4 speed  h help  q quit",
		adminIndicator, admin, wrapIndicator, m.nodeCount)
	if m.status != "" {
		bar += "\n" + mutedStyle.Render(m.status)
	}
	return bar
}

func (m tuiModel) renderHelp() string {
	lines := []string{
		titleStyle.Render("Keys"),
		"space  start or stop the clock",
		"n      run one tick",
		"r      reset with the pending node count",
		"+ / -  change the pending node count",
		"1 2 4  tick speed (1s, 500ms, 250ms)",
		"w      wrap event lines",
		"j / k  scroll events",
		"h ?    toggle this help",
		"q      quit",
	}
	return strings.Join(lines, "\n")
}

func (m tuiModel) View() string {
	if m.help {
		return m.renderHelp()
	}
	sections := []string{
		m.renderHeader(),
		m.table.View(),
		m.renderTrend(),
		titleStyle.Render("Events"),
		m.vp.View(),
		m.renderBottom(),
	}
	return strings.Join(sections, "\n")
}

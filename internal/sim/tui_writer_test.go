package sim

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"fsa-anomaly-lab/internal/config"
	"fsa-anomaly-lab/internal/fsa"
	"fsa-anomaly-lab/internal/telemetry"
)

type fakeProgram struct{ msgs []tea.Msg }

func (f *fakeProgram) Send(msg tea.Msg) { f.msgs = append(f.msgs, msg) }

// fakeController records the control calls made by the TUI.
type fakeController struct {
	started, stopped, steps int
	resetTo                 int
	speed                   float64
	running                 bool
}

func (f *fakeController) Start(context.Context) bool {
	f.started++
	f.running = true
	return true
}

func (f *fakeController) Stop() bool {
	if !f.running {
		return false
	}
	f.stopped++
	f.running = false
	return true
}

func (f *fakeController) Step(context.Context) TickResult {
	f.steps++
	return TickResult{Tick: f.steps}
}

func (f *fakeController) Reset(n int)        { f.resetTo = n }
func (f *fakeController) SetSpeed(x float64) { f.speed = x }
func (f *fakeController) Snapshot() Snapshot { return Snapshot{} }

func key(r string) tea.KeyMsg {
	if r == " " {
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(r)}
}

// press feeds a key and runs any returned command synchronously.
func press(t *testing.T, m tuiModel, k string) tuiModel {
	t.Helper()
	mi, cmd := m.Update(key(k))
	m = mi.(tuiModel)
	if cmd != nil {
		mi, _ = m.Update(cmd())
		m = mi.(tuiModel)
	}
	return m
}

func TestTUIWriterMessages(t *testing.T) {
	p := &fakeProgram{}
	w := &TUIWriter{program: p}
	e := telemetry.LogEntry{NodeID: "node-1", Event: fsa.EventPingOK, Timestamp: time.Unix(0, 0).UTC()}
	if err := w.WriteEvent(e); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, ok := p.msgs[0].(eventsMsg); !ok {
		t.Fatalf("expected eventsMsg, got %T", p.msgs[0])
	}
	if err := w.WriteSnapshot(Snapshot{Tick: 1}); err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if _, ok := p.msgs[1].(snapshotMsg); !ok {
		t.Fatalf("expected snapshotMsg, got %T", p.msgs[1])
	}
	w.SetAdminStatus(":8080", true)
	if _, ok := p.msgs[2].(adminMsg); !ok {
		t.Fatalf("expected adminMsg, got %T", p.msgs[2])
	}
	w.SetController(&fakeController{})
	if _, ok := p.msgs[3].(controllerMsg); !ok {
		t.Fatalf("expected controllerMsg, got %T", p.msgs[3])
	}
}

func TestTUISnapshotFillsTable(t *testing.T) {
	m := newTUIModel(context.Background(), config.Default())
	mi, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m = mi.(tuiModel)

	ev := fsa.EventSuspiciousTraffic
	snap := Snapshot{
		RunID: "abcdef123456",
		Nodes: []Node{
			{ID: "node-1", State: fsa.StateError, LastEvent: &ev, Anomalies: []fsa.AnomalyLabel{fsa.AnomalyDDoSSuspicion}, Health: 98},
			{ID: "node-2", State: fsa.StateOK, Health: 100},
		},
		Log: []telemetry.LogEntry{{NodeID: "node-1", Event: ev, PrevState: fsa.StateOK, NewState: fsa.StateError,
			Anomalies: []fsa.AnomalyLabel{fsa.AnomalyDDoSSuspicion}, Timestamp: time.Unix(0, 0).UTC()}},
		Trend:          []telemetry.TrendPoint{{Tick: 1, Count: 1}},
		Tick:           1,
		TotalEvents:    2,
		TotalAnomalies: 1,
	}
	mi, _ = m.Update(snapshotMsg{snap: snap})
	m = mi.(tuiModel)

	rows := m.table.Rows()
	if len(rows) != 2 {
		t.Fatalf("rows = %d", len(rows))
	}
	if rows[0][1] != "ERROR" || rows[0][2] != "suspicious_traffic" || rows[0][3] != "DDoS suspicion" {
		t.Fatalf("row = %v", rows[0])
	}
	if rows[1][2] != "—" || rows[1][3] != "✓" {
		t.Fatalf("fresh node row = %v", rows[1])
	}
	view := m.View()
	for _, want := range []string{"tick 1", "anomalies 1", "abcdef12", "DDoS suspicion"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q", want)
		}
	}
}

func TestTUIEventsWithoutSnapshot(t *testing.T) {
	m := newTUIModel(context.Background(), nil)
	for i := 0; i < LogCapacity+10; i++ {
		mi, _ := m.Update(eventsMsg{entries: []telemetry.LogEntry{{NodeID: "node-1", Tick: i + 1, NewState: fsa.StateWarn, Health: 90}}})
		m = mi.(tuiModel)
	}
	if len(m.logs) != LogCapacity {
		t.Fatalf("logs = %d, want %d", len(m.logs), LogCapacity)
	}
	if m.logs[0].Tick != LogCapacity+10 {
		t.Fatalf("newest entry not first: %d", m.logs[0].Tick)
	}
	if len(m.snap.Nodes) != 1 || m.snap.Nodes[0].State != fsa.StateWarn || m.snap.Nodes[0].Health != 90 {
		t.Fatalf("node table not derived from events: %+v", m.snap.Nodes)
	}
}

func TestTUIControlKeys(t *testing.T) {
	ctrl := &fakeController{}
	m := newTUIModel(context.Background(), config.Default())
	mi, _ := m.Update(controllerMsg{ctrl: ctrl})
	m = mi.(tuiModel)

	m = press(t, m, " ")
	if ctrl.started != 1 || m.status != "running" {
		t.Fatalf("space should start: %+v status=%q", ctrl, m.status)
	}
	m = press(t, m, " ")
	if ctrl.stopped != 1 || m.status != "stopped" {
		t.Fatalf("space should stop: %+v", ctrl)
	}
	m = press(t, m, "n")
	if ctrl.steps != 1 {
		t.Fatalf("n should step")
	}
	m = press(t, m, "4")
	if ctrl.speed != 4 {
		t.Fatalf("speed = %v", ctrl.speed)
	}
	m = press(t, m, "+")
	m = press(t, m, "+")
	m = press(t, m, "r")
	if ctrl.resetTo != config.DefaultNodeCount+2 {
		t.Fatalf("reset to %d", ctrl.resetTo)
	}
	for i := 0; i < 20; i++ {
		m = press(t, m, "-")
	}
	if m.nodeCount != 1 {
		t.Fatalf("node count should clamp at 1, got %d", m.nodeCount)
	}
}

func TestTUIWithoutController(t *testing.T) {
	m := newTUIModel(context.Background(), nil)
	m = press(t, m, "n")
	if m.status != "no simulator attached" {
		t.Fatalf("status = %q", m.status)
	}
}

func TestSparklineAndHealthBar(t *testing.T) {
	got := sparkline([]telemetry.TrendPoint{{Count: 0}, {Count: 7}, {Count: 14}})
	if got != "▁▄█" {
		t.Fatalf("sparkline = %q", got)
	}
	if got := sparkline([]telemetry.TrendPoint{{Count: 0}, {Count: 0}}); got != "▁▁" {
		t.Fatalf("flat sparkline = %q", got)
	}
	if got := healthBar(100); !strings.HasPrefix(got, strings.Repeat("█", healthBarCells)) {
		t.Fatalf("full bar = %q", got)
	}
	if got := healthBar(0); !strings.HasPrefix(got, strings.Repeat("░", healthBarCells)) {
		t.Fatalf("empty bar = %q", got)
	}
}

func TestWrapToggle(t *testing.T) {
	m := newTUIModel(context.Background(), nil)
	mi, _ := m.Update(tea.WindowSizeMsg{Width: 20, Height: 40})
	m = mi.(tuiModel)
	mi, _ = m.Update(eventsMsg{entries: []telemetry.LogEntry{{NodeID: "node-1", Event: fsa.EventPacketLossHigh,
		PrevState: fsa.StateOK, NewState: fsa.StateWarn, Anomalies: []fsa.AnomalyLabel{fsa.AnomalyPacketLossStorm}}}})
	m = mi.(tuiModel)
	before := strings.Count(m.vp.View(), "\n")
	m = press(t, m, "w")
	if !m.wrap {
		t.Fatalf("wrap not toggled")
	}
	if lines := strings.Split(strings.TrimRight(m.vp.View(), " \n"), "\n"); len(lines) < 2 {
		t.Fatalf("expected wrapped content, view had %d newlines before", before)
	}
}

func TestTUIControlRefreshesSnapshot(t *testing.T) {
	s := newTestSimulator(t, 2, nil)
	m := newTUIModel(context.Background(), config.Default())
	mi, _ := m.Update(controllerMsg{ctrl: s})
	m = mi.(tuiModel)

	m = press(t, m, "n")
	if m.status != "stepped to tick 1" {
		t.Fatalf("status = %q", m.status)
	}
	if m.snap.Tick != 1 || len(m.snap.Nodes) != 2 || len(m.logs) != 2 {
		t.Fatalf("snapshot not refreshed: tick=%d nodes=%d logs=%d", m.snap.Tick, len(m.snap.Nodes), len(m.logs))
	}
	if !strings.Contains(m.View(), "STOPPED") {
		t.Fatalf("header should show the stopped clock")
	}
}

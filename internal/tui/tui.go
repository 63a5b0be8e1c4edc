// Package tui drives a headless card stack from a terminal.
//
// The front card follows the mouse: a left-button drag is converted from
// cells to pixels and fed to the stack's gesture machinery, so thresholds,
// pulses and commits behave as they do in the window. A click without
// motion toggles the layout.
package tui

import (
	"fmt"
	"io"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/phanxgames/magstack"
)

const (
	// DefaultCellWidth and DefaultCellHeight are the pixels one terminal
	// cell stands for.
	DefaultCellWidth  = 10
	DefaultCellHeight = 20

	tickInterval = 100 * time.Millisecond
	maxEvents    = 6
	maxRows      = 12

	// velocitySmoothing matches the weight the window input keeps from the
	// previous velocity estimate.
	velocitySmoothing = 0.3
)

var (
	colorCyan   = lipgloss.Color("36")
	colorGreen  = lipgloss.Color("35")
	colorYellow = lipgloss.Color("220")
	colorWhite  = lipgloss.Color("255")
	colorDim    = lipgloss.Color("240")

	styleTitle  = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleFront  = lipgloss.NewStyle().Bold(true).Foreground(colorWhite)
	styleCard   = lipgloss.NewStyle().Foreground(colorWhite)
	styleDim    = lipgloss.NewStyle().Foreground(colorDim)
	styleActive = lipgloss.NewStyle().Foreground(colorYellow)
	styleDetail = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorGreen).Padding(0, 1)
)

type tickMsg time.Time

type drag struct {
	card     uuid.UUID
	originX  int
	originY  int
	started  bool
	last     magstack.Vec2
	lastAt   time.Time
	velocity magstack.Vec2
	sample   magstack.Sample
}

// Model is the bubbletea model over one stack.
type Model struct {
	stack  *magstack.Stack
	logger *log.Logger

	cellW, cellH float64
	now          func() time.Time

	drag      *drag
	events    []string
	presented *magstack.Item
	pulses    int
}

// New returns a model over a headless stack holding items. opts configure
// the stack; the model installs its own event sink and presenter.
func New(items []magstack.Item, opts ...magstack.StackOption) (*Model, error) {
	m := &Model{
		logger: log.New(io.Discard),
		cellW:  DefaultCellWidth,
		cellH:  DefaultCellHeight,
		now:    time.Now,
	}
	opts = append(opts,
		magstack.WithEventSink(magstack.EventSinkFunc(m.record)),
		magstack.WithPresenter(m),
		magstack.WithHaptics(magstack.HapticsFunc(func() { m.pulses++ })),
	)
	st, err := magstack.NewStack(nil, items, opts...)
	if err != nil {
		return nil, err
	}
	m.stack = st
	return m, nil
}

// SetCellSize sets the pixels per terminal cell used to convert drags.
func (m *Model) SetCellSize(w, h float64) {
	m.cellW, m.cellH = w, h
}

// SetLogger replaces the model's logger. Rejected gestures are logged at
// debug level.
func (m *Model) SetLogger(l *log.Logger) {
	if l != nil {
		m.logger = l
	}
}

// Stack returns the driven stack.
func (m *Model) Stack() *magstack.Stack { return m.stack }

// Present records item as the shown detail.
func (m *Model) Present(item magstack.Item) {
	m.presented = &item
}

func (m *Model) record(ev magstack.StackEvent) {
	var line string
	switch ev.Type {
	case magstack.EventPulse:
		line = fmt.Sprintf("pulse %s on %s", ev.Direction, ev.Item.ID)
	case magstack.EventDismissed:
		line = fmt.Sprintf("dismissed %s, %d left", ev.Item.ID, ev.Remaining)
	case magstack.EventSelected:
		line = fmt.Sprintf("selected %s", ev.Item.ID)
	case magstack.EventSpringBack:
		line = fmt.Sprintf("%s springs back", ev.Item.ID)
	case magstack.EventModeChanged:
		line = fmt.Sprintf("mode %s", ev.Mode)
	default:
		line = ev.Type.String()
	}
	m.events = append(m.events, line)
	if len(m.events) > maxEvents {
		m.events = m.events[len(m.events)-maxEvents:]
	}
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *Model) Init() tea.Cmd {
	return tick()
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		// Drains results posted by background loaders.
		_ = m.stack.Update()
		return m, tick()

	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case tea.MouseMsg:
		m.handleMouse(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "q", "ctrl+c":
		return tea.Quit
	case "esc":
		switch {
		case m.drag != nil:
			m.endDrag(true)
		case m.presented != nil:
			m.presented = nil
		}
	case "t", " ":
		m.stack.Toggle()
	case "enter":
		if top := m.stack.Registry().Top(); top != nil {
			_ = m.stack.Select(top.ID)
		}
	case "d":
		m.flick(magstack.Vec2{Y: m.stack.Config().DismissThreshold + 1})
	case "right", "l":
		m.flick(magstack.Vec2{X: m.stack.Config().HalfWidth})
	case "up", "k":
		m.flick(magstack.Vec2{Y: -m.stack.Config().HalfHeight})
	}
	return nil
}

// flick drags the front card straight to translation and releases it.
func (m *Model) flick(translation magstack.Vec2) {
	top := m.stack.Registry().Top()
	if top == nil || m.drag != nil {
		return
	}
	if err := m.stack.BeginDrag(top.ID, 0); err != nil {
		m.logger.Debug("drag start", "err", err)
		return
	}
	if _, err := m.stack.Drag(top.ID, translation); err != nil {
		m.logger.Debug("drag", "err", err)
	}
	if _, err := m.stack.EndDrag(top.ID, translation, magstack.Vec2{}, false); err != nil {
		m.logger.Debug("drag end", "err", err)
	}
}

func (m *Model) handleMouse(msg tea.MouseMsg) {
	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft || m.drag != nil {
			return
		}
		top := m.stack.Registry().Top()
		if top == nil {
			return
		}
		m.drag = &drag{card: top.ID, originX: msg.X, originY: msg.Y, lastAt: m.now()}

	case tea.MouseActionMotion:
		if m.drag == nil {
			return
		}
		t := m.translation(msg)
		if !m.drag.started {
			if t == (magstack.Vec2{}) {
				return
			}
			if err := m.stack.BeginDrag(m.drag.card, 0); err != nil {
				m.logger.Debug("drag start", "err", err)
				m.drag = nil
				return
			}
			m.drag.started = true
		}
		m.track(t)
		s, err := m.stack.Drag(m.drag.card, t)
		if err != nil {
			m.logger.Debug("drag", "err", err)
			return
		}
		m.drag.sample = s

	case tea.MouseActionRelease:
		if m.drag == nil {
			return
		}
		if !m.drag.started {
			m.drag = nil
			m.stack.Toggle()
			return
		}
		// A release on the last motion cell carries no movement; sampling
		// it would damp the flick velocity.
		if t := m.translation(msg); t != m.drag.last {
			m.track(t)
		}
		m.endDrag(false)
	}
}

func (m *Model) translation(msg tea.MouseMsg) magstack.Vec2 {
	return magstack.Vec2{
		X: float64(msg.X-m.drag.originX) * m.cellW,
		Y: float64(msg.Y-m.drag.originY) * m.cellH,
	}
}

// track updates the drag's smoothed velocity in pixels per second.
func (m *Model) track(t magstack.Vec2) {
	d := m.drag
	now := m.now()
	if dt := now.Sub(d.lastAt).Seconds(); dt > 0 {
		ix := (t.X - d.last.X) / dt
		iy := (t.Y - d.last.Y) / dt
		d.velocity.X = velocitySmoothing*d.velocity.X + (1-velocitySmoothing)*ix
		d.velocity.Y = velocitySmoothing*d.velocity.Y + (1-velocitySmoothing)*iy
	}
	d.last = t
	d.lastAt = now
}

func (m *Model) endDrag(cancelled bool) {
	d := m.drag
	m.drag = nil
	if !d.started {
		return
	}
	if _, err := m.stack.EndDrag(d.card, d.last, d.velocity, cancelled); err != nil {
		m.logger.Debug("drag end", "err", err)
	}
}

func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(styleTitle.Render("magstack"))
	b.WriteString(styleDim.Render(fmt.Sprintf("  %s  %d cards  %d pulses", m.stack.Mode(), m.stack.Len(), m.pulses)))
	b.WriteString("\n\n")

	cards := m.stack.Registry().Cards()
	if len(cards) == 0 {
		b.WriteString(styleDim.Render("  (empty)"))
		b.WriteString("\n")
	}
	for i, c := range cards {
		if i == maxRows {
			b.WriteString(styleDim.Render(fmt.Sprintf("  ... %d more", len(cards)-maxRows)))
			b.WriteString("\n")
			break
		}
		row := fmt.Sprintf("%3d  %-28s y%+7.1f  x%.2f  a%.2f",
			c.Rest.Depth, c.Item.ID, c.Rest.OffsetY, c.Rest.Scale, c.Rest.Opacity)
		if i == 0 {
			b.WriteString(styleFront.Render("> " + row))
		} else {
			b.WriteString(styleCard.Render("  " + row))
		}
		b.WriteString("\n")
	}

	if d := m.drag; d != nil && d.started {
		b.WriteString("\n")
		b.WriteString(styleDim.Render(fmt.Sprintf("drag (%+.0f, %+.0f)  v(%+.0f, %+.0f)",
			d.last.X, d.last.Y, d.velocity.X, d.velocity.Y)))
		for i, p := range d.sample.Progress {
			label := fmt.Sprintf("  %s %3.0f%%", magstack.Direction(i), p*100)
			if d.sample.Active[i] {
				b.WriteString(styleActive.Render(label))
			} else {
				b.WriteString(styleDim.Render(label))
			}
		}
		b.WriteString("\n")
	}

	if m.presented != nil {
		b.WriteString("\n")
		b.WriteString(styleDetail.Render("PDF VIEW\n" + m.presented.ID + "\n" + styleDim.Render("esc to close")))
		b.WriteString("\n")
	}

	if len(m.events) > 0 {
		b.WriteString("\n")
		for _, e := range m.events {
			b.WriteString(styleDim.Render("  " + e))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(styleDim.Render("drag the front card  click toggle  t toggle  enter select  d dismiss  q quit"))
	b.WriteString("\n")
	return b.String()
}

// Run starts the terminal program and blocks until the user quits.
func Run(m *Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion()).Run()
	return err
}

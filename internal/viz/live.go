package viz

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/davner/daesim/internal/dynsys"
	"github.com/davner/daesim/internal/flow"
	"github.com/davner/daesim/internal/stepper"
)

const liveCapacity = 600

var (
	statsStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("240")).Padding(0, 2)
	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

type sampleMsg struct {
	t   float64
	xs  []dynsys.State
	err error
}

type tickMsg time.Time

// Model is a bubbletea model following a stepper run: a background
// goroutine marches the system and streams accepted samples; the view
// charts the first component of the watched constituent.
type Model struct {
	name    string
	watch   int
	samples chan sampleMsg

	cancel context.CancelFunc
	values []float64
	t      float64
	steps  int
	err    error
	done   bool
}

// NewModel starts the run in the background and returns the model to
// hand to tea.NewProgram.
func NewModel(name string, path *flow.Path, cfg stepper.Config, x0 []dynsys.State, watch int) *Model {
	ctx, cancel := context.WithCancel(context.Background())
	m := &Model{
		name:    name,
		watch:   watch,
		samples: make(chan sampleMsg, 64),
		cancel:  cancel,
	}

	go func() {
		st := stepper.New(path, cfg)
		err := st.RunWithCallback(ctx, x0, func(t float64, xs []dynsys.State) bool {
			select {
			case m.samples <- sampleMsg{t: t, xs: xs}:
			case <-ctx.Done():
				return false
			}
			return true
		})
		// Deliver the failure through the channel: err is read by the
		// event loop, which must not race this goroutine.
		if err != nil && ctx.Err() == nil {
			select {
			case m.samples <- sampleMsg{err: err}:
			case <-ctx.Done():
			}
		}
		close(m.samples)
	}()

	return m
}

func (m *Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/30, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.cancel()
			return m, tea.Quit
		}
	case tickMsg:
		for {
			select {
			case s, ok := <-m.samples:
				if !ok {
					m.done = true
					return m, tick()
				}
				if s.err != nil {
					m.err = s.err
					m.done = true
					continue
				}
				m.t = s.t
				m.steps++
				m.values = append(m.values, s.xs[m.watch][0])
				if len(m.values) > liveCapacity {
					m.values = m.values[len(m.values)-liveCapacity:]
				}
			default:
				return m, tick()
			}
		}
	}
	return m, nil
}

func (m *Model) View() string {
	var chart string
	if len(m.values) >= 2 {
		chart = asciigraph.Plot(m.values,
			asciigraph.Width(chartWidth),
			asciigraph.Height(chartHeight))
	} else {
		chart = "waiting for samples..."
	}

	stats := statsStyle.Render(fmt.Sprintf("t      %.4f\nsteps  %d", m.t, m.steps))
	status := ""
	if m.done {
		status = " [finished]"
	}
	if m.err != nil {
		status = fmt.Sprintf(" [error: %v]", m.err)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(m.name+status),
		chartStyle.Render(chart),
		stats,
		helpStyle.Render("q: quit"),
	)
}

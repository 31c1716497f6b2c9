package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/nodeplot/pkg/engine"
	errs "github.com/matzehuels/nodeplot/pkg/errors"
	"github.com/matzehuels/nodeplot/pkg/feedback"
	"github.com/matzehuels/nodeplot/pkg/globals"
	"github.com/matzehuels/nodeplot/pkg/graph"
	"github.com/matzehuels/nodeplot/pkg/scene"
)

// frameInterval is how often the inspector re-lowers an edited graph.
const frameInterval = 100 * time.Millisecond

var (
	inspectSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	inspectNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	inspectDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// inspectCommand creates the inspect command.
func (c *CLI) inspectCommand() *cobra.Command {
	var (
		engineURL string
		offline   bool
	)

	cmd := &cobra.Command{
		Use:   "inspect [scene]",
		Short: "Browse and edit a scene interactively",
		Long: `Open a scene in an interactive terminal view.

Edits re-lower the graph on the next frame. With an engine configured, each
new document is evaluated in the background and its results are applied
when they arrive; results for superseded documents are discarded.

Keys: ↑/↓ select, +/- quality, u unlink inputs, x delete node,
e evaluate, a toggle auto-evaluate, w write scene, q quit.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("engine") {
				engineURL = c.Config.Engine.URL
			}
			if offline {
				engineURL = ""
			}
			return c.runInspect(cmd.Context(), args[0], engineURL)
		},
	}

	cmd.Flags().StringVar(&engineURL, "engine", "", "compute engine URL")
	cmd.Flags().BoolVar(&offline, "offline", false, "lower only, never contact the engine")

	return cmd
}

func (c *CLI) runInspect(ctx context.Context, path, engineURL string) error {
	sc, _, err := c.loadScene(path)
	if err != nil {
		return err
	}
	format, _ := scene.FormatOf(path)

	var eng engine.Engine
	if engineURL != "" {
		if eng, err = engine.NewHTTPEngine(engineURL, c.Config.Engine.Timeout); err != nil {
			return err
		}
	}

	m := newInspectModel(ctx, sc.Graph, sc.Globals, eng)
	m.path, m.format = path, format

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(inspectModel); ok && fm.message != "" {
		printInfo("%s", fm.message)
	}
	return nil
}

// =============================================================================
// inspectModel - Frame-driven graph inspector
// =============================================================================

// frameMsg drives one inspector frame.
type frameMsg time.Time

// resultMsg carries an engine answer for one request.
type resultMsg struct {
	requestID string
	batch     []feedback.Record
	err       error
}

// inspectModel is the bubbletea model for the inspector. Only Update touches
// the graph; engine calls run in commands and report back as resultMsg.
type inspectModel struct {
	ctx      context.Context
	graph    *graph.Graph
	globals  *globals.Set
	exchange *engine.Exchange
	engine   engine.Engine

	path   string
	format scene.Format

	cursor  int
	dirty   bool
	auto    bool
	pending int

	descriptors int
	unconnected int
	stale       int
	message     string
}

func newInspectModel(ctx context.Context, g *graph.Graph, vars *globals.Set, eng engine.Engine) inspectModel {
	return inspectModel{
		ctx:      ctx,
		graph:    g,
		globals:  vars,
		exchange: engine.NewExchange(g, vars, eng, nil),
		engine:   eng,
		dirty:    true,
		auto:     eng != nil,
	}
}

func tick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return frameMsg(t) })
}

func (m inspectModel) Init() tea.Cmd {
	return tick()
}

func (m inspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case frameMsg:
		cmd := m.frame()
		return m, tea.Batch(cmd, tick())
	case resultMsg:
		m.deliver(msg)
		return m, nil
	case tea.KeyMsg:
		return m.key(msg.String())
	}
	return m, nil
}

// frame re-lowers the graph if it changed since the last frame and, in auto
// mode, starts an evaluation of the new document.
func (m *inspectModel) frame() tea.Cmd {
	if !m.dirty {
		return nil
	}
	m.dirty = false

	req, err := m.exchange.Submit(m.ctx)
	if err != nil {
		m.message = errs.UserMessage(err)
		return nil
	}
	m.descriptors = len(req.Document.Descriptors)
	m.unconnected = len(req.Document.Unconnected)
	if m.engine == nil || !m.auto {
		return nil
	}
	return m.evaluate(req)
}

func (m *inspectModel) evaluate(req *engine.Request) tea.Cmd {
	m.pending++
	x, ctx := m.exchange, m.ctx
	return func() tea.Msg {
		batch, err := x.Evaluate(ctx, req)
		return resultMsg{requestID: req.ID, batch: batch, err: err}
	}
}

func (m *inspectModel) deliver(msg resultMsg) {
	m.pending--
	if msg.err != nil {
		m.message = errs.UserMessage(msg.err)
		return
	}
	s, err := m.exchange.Deliver(m.ctx, msg.requestID, msg.batch)
	if errs.Is(err, errs.ErrCodeStale) {
		m.stale++
		return
	}
	m.message = s.String()
}

func (m inspectModel) key(k string) (tea.Model, tea.Cmd) {
	nodes := m.graph.Nodes()
	var sel *graph.Node
	if m.cursor < len(nodes) {
		sel = nodes[m.cursor]
	}

	switch k {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(nodes)-1 {
			m.cursor++
		}
	case "+", "=", "-":
		if sel == nil {
			break
		}
		a, ok := m.graph.FindAttribute(sel.ID, graph.Static, "quality")
		if !ok {
			break
		}
		delta := 1
		if k == "-" {
			delta = -1
		}
		v, _ := m.graph.SetSlider(sel.ID, a.Label, a.Payload.(*graph.IntSlider).Value+delta)
		m.message = fmt.Sprintf("%s quality = %d", nodeTitle(sel), v)
		m.dirty = true
	case "u":
		if sel == nil {
			break
		}
		for _, a := range m.graph.Attributes(sel.ID) {
			if a.Kind == graph.Input {
				m.graph.DestroyLink(a.ID)
			}
		}
		m.message = "unlinked inputs of " + nodeTitle(sel)
		m.dirty = true
	case "x":
		if sel == nil {
			break
		}
		m.graph.RemoveNode(sel.ID)
		m.message = "removed " + nodeTitle(sel)
		if m.cursor >= m.graph.NodeCount() && m.cursor > 0 {
			m.cursor--
		}
		m.dirty = true
	case "e":
		if m.engine == nil {
			m.message = "no compute engine configured"
			break
		}
		req, err := m.exchange.Submit(m.ctx)
		if err != nil {
			m.message = errs.UserMessage(err)
			break
		}
		return m, m.evaluate(req)
	case "a":
		m.auto = !m.auto && m.engine != nil
	case "w":
		if err := m.write(); err != nil {
			m.message = err.Error()
		} else {
			m.message = "wrote " + m.path
		}
	}
	return m, nil
}

// write saves the current graph back to the scene file.
func (m inspectModel) write() error {
	if m.path == "" {
		return fmt.Errorf("no scene file")
	}
	data, err := scene.Marshal(scene.Capture(m.graph, m.globals), m.format)
	if err != nil {
		return err
	}
	return os.WriteFile(m.path, data, 0o644)
}

func nodeTitle(n *graph.Node) string {
	if n.Name != "" {
		return n.Name
	}
	return fmt.Sprintf("%s #%d", n.Type, n.ID)
}

func (m inspectModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("nodeplot inspect"))
	if m.path != "" {
		b.WriteString(" " + inspectDimStyle.Render(m.path))
	}
	b.WriteString("\n\n")

	nodes := m.graph.Nodes()
	for i, n := range nodes {
		cursor := "  "
		style := inspectNormalStyle
		if i == m.cursor {
			cursor = "▸ "
			style = inspectSelectedStyle
		}
		line := fmt.Sprintf("%s%s %-4d %-10s %-16s", cursor, statusIcon(n.Status()), n.ID, n.Type, n.Name)
		b.WriteString(style.Render(line))
		if msg := n.Message(); msg != "" {
			b.WriteString(" " + inspectDimStyle.Render(msg))
		}
		b.WriteString("\n")
	}
	if len(nodes) == 0 {
		b.WriteString(inspectDimStyle.Render("  (empty graph)\n"))
	}

	if m.cursor < len(nodes) {
		b.WriteString("\n")
		b.WriteString(m.details(nodes[m.cursor]))
	}

	b.WriteString("\n")
	auto := "off"
	if m.auto {
		auto = "on"
	}
	b.WriteString(inspectDimStyle.Render(fmt.Sprintf(
		"%d descriptors · %d unconnected · %d in flight · %d stale · auto %s",
		m.descriptors, m.unconnected, m.pending, m.stale, auto)))
	b.WriteString("\n")
	if m.message != "" {
		b.WriteString(m.message + "\n")
	}
	b.WriteString(inspectDimStyle.Render("↑/↓ select  +/- quality  u unlink  x delete  e evaluate  a auto  w write  q quit"))
	return b.String()
}

// details lists the attributes of n with their values or links.
func (m inspectModel) details(n *graph.Node) string {
	var b strings.Builder
	for _, a := range m.graph.Attributes(n.ID) {
		var value string
		switch {
		case a.Payload != nil:
			value = fmt.Sprint(a.Payload.Literal())
		case a.Kind == graph.Input:
			value = "unconnected"
			if src, ok := m.graph.FindLinkedNode(a.ID); ok {
				value = fmt.Sprintf("%s node %d", iconArrow, src)
			}
		default:
			value = a.Pin.String()
		}
		fmt.Fprintf(&b, "    %-7s %-12s %s\n", a.Kind, a.Label, inspectDimStyle.Render(value))
	}
	return b.String()
}

// Package ui provides optional terminal interfaces.
package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nibzard/tagtree/internal/tags"
)

// LoadFunc opens a fresh tag store, with tasks resolvable through its
// requester. The TUI calls it on start and on every refresh.
type LoadFunc func() (*tags.Store, error)

// TUIOption configures the TUI behavior.
type TUIOption func(*tuiConfig)

type tuiConfig struct {
	refresh  time.Duration
	workview bool
}

// WithRefreshInterval sets how often the store is reloaded. Zero disables
// periodic reloads.
func WithRefreshInterval(d time.Duration) TUIOption {
	return func(c *tuiConfig) {
		c.refresh = d
	}
}

// WithWorkview starts the TUI showing workview counts.
func WithWorkview(enabled bool) TUIOption {
	return func(c *tuiConfig) {
		c.workview = enabled
	}
}

// RunTUI starts the tag browser.
func RunTUI(ctx context.Context, load LoadFunc, opts ...TUIOption) error {
	if !IsTTY(os.Stdout) {
		return fmt.Errorf("tui requires a TTY")
	}
	model := newTUIModel(load, opts...)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	return err
}

type tuiModel struct {
	load         LoadFunc
	store        *tags.Store
	rows         []tagRow
	cursor       int
	workview     bool
	showHelp     bool
	loadErr      error
	tickInterval time.Duration
}

// tagRow is one line of the flattened tag tree.
type tagRow struct {
	tag      *tags.Tag
	depth    int
	count    int
	countErr error
}

type tickMsg time.Time

func newTUIModel(load LoadFunc, opts ...TUIOption) *tuiModel {
	c := &tuiConfig{refresh: 2 * time.Second}
	for _, opt := range opts {
		opt(c)
	}
	return &tuiModel{
		load:         load,
		workview:     c.workview,
		tickInterval: c.refresh,
	}
}

func (m *tuiModel) Init() tea.Cmd {
	m.refresh()
	if m.tickInterval <= 0 {
		return nil
	}
	return tickCmd(m.tickInterval)
}

func (m *tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "j", "down":
			m.move(1)
		case "k", "up":
			m.move(-1)
		case "g", "home":
			m.cursor = 0
		case "G", "end":
			m.cursor = max(len(m.rows)-1, 0)
		case "w":
			m.workview = !m.workview
			m.recount()
		case "r", "f5":
			m.refresh()
		case "h", "?":
			m.showHelp = !m.showHelp
		}
		return m, nil
	case tickMsg:
		m.refresh()
		return m, tickCmd(m.tickInterval)
	}
	return m, nil
}

func (m *tuiModel) View() string {
	var b strings.Builder
	writeTitle(&b)

	if m.showHelp {
		writeHelp(&b)
		writeFooter(&b, m.tickInterval)
		return b.String()
	}

	if m.loadErr != nil {
		b.WriteString("Error loading tag store:\n")
		b.WriteString("  " + m.loadErr.Error() + "\n\n")
		writeFooter(&b, m.tickInterval)
		return b.String()
	}
	if m.store == nil {
		b.WriteString("Loading...\n\n")
		writeFooter(&b, m.tickInterval)
		return b.String()
	}

	writeTree(&b, m.rows, m.cursor, m.workview)
	if sel := m.selected(); sel != nil {
		writeDetails(&b, sel)
	}
	b.WriteString(fmt.Sprintf("Store: %s\n", m.store.Path()))
	writeFooter(&b, m.tickInterval)
	return b.String()
}

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// refresh reloads the store and keeps the cursor on the same tag name.
func (m *tuiModel) refresh() {
	var current string
	if sel := m.selected(); sel != nil {
		current = sel.Name()
	}

	store, err := m.load()
	if err != nil {
		m.loadErr = err
		m.store = nil
		m.rows = nil
		return
	}
	m.loadErr = nil
	m.store = store
	m.rows = buildRows(store, m.workview)

	m.cursor = 0
	for i, r := range m.rows {
		if r.tag.Name() == current {
			m.cursor = i
			break
		}
	}
}

func (m *tuiModel) recount() {
	for i := range m.rows {
		m.rows[i].count, m.rows[i].countErr = m.rows[i].tag.TaskCount(m.workview)
	}
}

func (m *tuiModel) move(delta int) {
	if len(m.rows) == 0 {
		m.cursor = 0
		return
	}
	m.cursor = min(max(m.cursor+delta, 0), len(m.rows)-1)
}

func (m *tuiModel) selected() *tags.Tag {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return nil
	}
	return m.rows[m.cursor].tag
}

// buildRows flattens the tag forest depth-first, roots and siblings in
// name order.
func buildRows(s *tags.Store, workview bool) []tagRow {
	var rows []tagRow
	var walk func(t *tags.Tag, depth int)
	walk = func(t *tags.Tag, depth int) {
		count, err := t.TaskCount(workview)
		rows = append(rows, tagRow{tag: t, depth: depth, count: count, countErr: err})
		for _, c := range t.Children() {
			walk(c, depth+1)
		}
	}
	for _, root := range s.Roots() {
		walk(root, 0)
	}
	return rows
}

func writeTitle(b *strings.Builder) {
	title := "tagtree"
	b.WriteString(title + "\n")
	b.WriteString(strings.Repeat("=", len(title)) + "\n\n")
}

func writeTree(b *strings.Builder, rows []tagRow, cursor int, workview bool) {
	label := "active tasks"
	if workview {
		label = "workview tasks"
	}
	b.WriteString(fmt.Sprintf("Tags (%s)\n\n", label))
	if len(rows) == 0 {
		b.WriteString("  No tags yet.\n\n")
		return
	}
	for i, r := range rows {
		marker := " "
		if i == cursor {
			marker = ">"
		}
		count := fmt.Sprintf("%d", r.count)
		if r.countErr != nil {
			count = "?"
		}
		name := strings.Repeat("  ", r.depth) + r.tag.Name()
		b.WriteString(fmt.Sprintf("%s %-40s %4s\n", marker, name, count))
	}
	b.WriteString("\n")
}

func writeDetails(b *strings.Builder, t *tags.Tag) {
	b.WriteString("Selected: " + t.Name() + "\n")
	for _, k := range t.AttributeNames(true) {
		v, _ := t.Attribute(k)
		b.WriteString(fmt.Sprintf("  %s = %s\n", k, v))
	}
	b.WriteString(fmt.Sprintf("  tasks: %d own, %d with children\n\n", len(t.OwnTasks()), len(t.Tasks())))
}

func writeHelp(b *strings.Builder) {
	b.WriteString("Keyboard Shortcuts\n\n")
	b.WriteString("  q, ctrl+c    Quit\n")
	b.WriteString("  j, down      Next tag\n")
	b.WriteString("  k, up        Previous tag\n")
	b.WriteString("  g, G         First / last tag\n")
	b.WriteString("  w            Toggle workview counts\n")
	b.WriteString("  r, F5        Reload tag store\n")
	b.WriteString("  h, ?         Toggle this help screen\n\n")
}

func writeFooter(b *strings.Builder, interval time.Duration) {
	if interval <= 0 {
		b.WriteString("Press h for help | q to quit\n")
		return
	}
	b.WriteString(fmt.Sprintf("Press h for help | q to quit | Refreshing every %s\n", interval))
}

// IsTTY returns true if w is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}

package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/mlevart/blocklog_viewer/internal/blocklog"
	"github.com/mlevart/blocklog_viewer/internal/trace"
)

// traceData is an immutable, self-contained view of one load of the
// input logs. It is rebuilt on each file change and swapped atomically
// into the UI model.
type traceData struct {
	dir      string
	analysis map[string]*blocklog.BlockLog
	summary  map[string]*blocklog.BlockLog
	workers  []string
	messages []blocklog.Message
	matrix   *trace.Matrix // nil when the log has no messages
	loadedAt time.Time
}

// loadTrace reads and aligns the logs under dir.
func loadTrace(dir string) (*traceData, error) {
	analysis, summary, err := blocklog.LoadDir(dir)
	if err != nil {
		return nil, err
	}
	d := &traceData{
		dir:      dir,
		analysis: analysis,
		summary:  summary,
		workers:  blocklog.SortedIDs(analysis),
		messages: blocklog.CollectMessages(analysis),
		loadedAt: time.Now(),
	}
	if len(d.messages) > 0 {
		d.matrix, err = trace.Align(d.messages, analysis)
		if err != nil {
			return nil, err
		}
	}
	return d, nil
}

// runTUI starts the interactive viewer over the logs in dir.
func runTUI(dir string) error {
	data, err := loadTrace(dir)
	if err != nil {
		return err
	}

	w, err := blocklog.NewWatcher(dir)
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer w.Close()

	m := newModel(data, w)
	p := tea.NewProgram(m, tea.WithAltScreen())

	// Feed log file changes into the TUI.
	go func() {
		for range w.Changes() {
			p.Send(logsChangedMsg{})
		}
	}()

	_, err = p.Run()
	return err
}

// --- Messages ---

type logsChangedMsg struct{}

type traceReadyMsg struct {
	data *traceData
	err  error
}

// --- Key bindings ---

type keyMap struct {
	Quit    key.Binding
	Tab     key.Binding
	Refresh key.Binding
	Up      key.Binding
	Down    key.Binding
	Help    key.Binding
	Filter  key.Binding
}

var keys = keyMap{
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Tab:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next view")),
	Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
	Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("k/up", "up")),
	Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("j/down", "down")),
	Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Filter:  key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter worker")),
}

// viewKeys maps single keys to views for fast navigation.
var viewKeys = map[string]viewID{
	"t": viewTimeline,
	"m": viewMessages,
	"w": viewWorkers,
	"g": viewTopology,
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.Refresh, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab, k.Refresh, k.Up, k.Down},
		{k.Filter, k.Help, k.Quit},
	}
}

// --- Views ---

type viewID int

const (
	viewTimeline viewID = iota
	viewMessages
	viewWorkers
	viewTopology
	viewCount // sentinel
)

func (v viewID) String() string {
	switch v {
	case viewTimeline:
		return "Timeline"
	case viewMessages:
		return "Messages"
	case viewWorkers:
		return "Workers"
	case viewTopology:
		return "Topology"
	}
	return "?"
}

// --- Model ---

type uiModel struct {
	data    *traceData
	watcher *blocklog.Watcher

	activeView   viewID
	width        int
	height       int
	scrollPos    int
	filterWorker string // worker filter for Messages/Timeline ("" = all)

	help     help.Model
	showHelp bool

	loadErr error
}

func newModel(data *traceData, w *blocklog.Watcher) uiModel {
	return uiModel{
		data:    data,
		watcher: w,
		help:    help.New(),
	}
}

func (m uiModel) Init() tea.Cmd {
	return nil
}

func (m uiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Single-key view shortcuts first (always available).
		if v, ok := viewKeys[msg.String()]; ok {
			m.activeView = v
			m.scrollPos = 0
			if v != viewMessages && v != viewTimeline {
				m.filterWorker = ""
			}
			return m, nil
		}

		switch {
		case key.Matches(msg, keys.Quit):
			m.watcher.Close()
			return m, tea.Quit

		case key.Matches(msg, keys.Tab):
			m.activeView = (m.activeView + 1) % viewCount
			if m.activeView != viewMessages && m.activeView != viewTimeline {
				m.filterWorker = ""
			}
			m.scrollPos = 0

		case key.Matches(msg, keys.Refresh):
			return m, m.reload()

		case key.Matches(msg, keys.Up):
			if m.scrollPos > 0 {
				m.scrollPos--
			}

		case key.Matches(msg, keys.Down):
			// Generous upper bound; View() clamps if we overshoot.
			maxScroll := len(m.data.messages)*8 + len(m.data.workers) + 20
			if m.scrollPos < maxScroll {
				m.scrollPos++
			}

		case key.Matches(msg, keys.Filter):
			// Cycle worker filter: "" -> first -> ... -> "".
			if m.activeView == viewMessages || m.activeView == viewTimeline {
				m.filterWorker = nextWorker(m.data.workers, m.filterWorker)
				m.scrollPos = 0
			}

		case key.Matches(msg, keys.Help):
			m.showHelp = !m.showHelp
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case logsChangedMsg:
		return m, m.reload()

	case traceReadyMsg:
		if msg.err != nil {
			m.loadErr = msg.err
		} else if msg.data != nil {
			m.data = msg.data
			m.loadErr = nil
		}
	}

	return m, nil
}

func (m uiModel) reload() tea.Cmd {
	dir := m.data.dir
	return func() tea.Msg {
		data, err := loadTrace(dir)
		return traceReadyMsg{data: data, err: err}
	}
}

// nextWorker advances the filter cycle over the sorted worker ids.
func nextWorker(workers []string, current string) string {
	if current == "" {
		if len(workers) > 0 {
			return workers[0]
		}
		return ""
	}
	for i, id := range workers {
		if id == current {
			if i+1 < len(workers) {
				return workers[i+1]
			}
			return "" // wrap to "all"
		}
	}
	return ""
}

// --- Styles ---

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")).
			Background(lipgloss.Color("#1E1E2E")).
			Padding(0, 1)

	tabActiveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#CDD6F4")).
			Background(lipgloss.Color("#7C3AED")).
			Padding(0, 1)

	tabInactiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#6C7086")).
				Background(lipgloss.Color("#313244")).
				Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#89B4FA"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C7086"))

	workerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#89B4FA")).
			Bold(true)

	downStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A6E3A1")).
			Bold(true)

	upStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#F38BA8")).
		Bold(true)

	neutralStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F9E2AF")).
			Bold(true)

	gridLineStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C7086"))

	errStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F38BA8")).
			Bold(true)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#CDD6F4")).
			Background(lipgloss.Color("#1E1E2E"))
)

// arrowStyle picks the style for a classified arrow glyph.
func arrowStyle(a trace.Arrow) lipgloss.Style {
	switch a {
	case trace.ArrowDown:
		return downStyle
	case trace.ArrowUp:
		return upStyle
	default:
		return neutralStyle
	}
}

// arrowGlyph is the terminal rendering of a classified arrow.
func arrowGlyph(a trace.Arrow) string {
	switch a {
	case trace.ArrowDown:
		return "↓"
	case trace.ArrowUp:
		return "↑"
	default:
		return "●"
	}
}

// contextHelp returns help text appropriate for the current view.
func contextHelp(v viewID) string {
	switch v {
	case viewMessages, viewTimeline:
		return "j/k: scroll | /: filter worker | t/m/w/g: views | tab: next | r: reload | ?: help | q: quit"
	default:
		return "j/k: scroll | t/m/w/g: views | tab: next | r: reload | ?: help | q: quit"
	}
}

// --- View rendering ---

func (m uiModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var b strings.Builder

	b.WriteString(m.renderTitleBar())
	b.WriteRune('\n')
	b.WriteString(m.renderTabBar())
	b.WriteRune('\n')
	b.WriteRune('\n')

	contentHeight := m.height - 5 // title + tabs + status + padding
	if m.showHelp {
		contentHeight -= 3
	}
	if contentHeight < 0 {
		contentHeight = 0
	}

	var content string
	if m.loadErr != nil {
		content = errStyle.Render(fmt.Sprintf("  load failed: %v", m.loadErr))
	} else {
		switch m.activeView {
		case viewTimeline:
			content = m.renderTimeline()
		case viewMessages:
			content = m.renderMessages()
		case viewWorkers:
			content = m.renderWorkers()
		case viewTopology:
			content = m.renderTopology()
		}
	}

	// Apply scroll using a local variable; View() is a value receiver.
	lines := strings.Split(content, "\n")
	scrollPos := m.scrollPos
	if scrollPos >= len(lines) {
		scrollPos = max(0, len(lines)-1)
	}
	if scrollPos > 0 && scrollPos < len(lines) {
		lines = lines[scrollPos:]
	}
	if len(lines) > contentHeight {
		lines = lines[:contentHeight]
	}
	content = strings.Join(lines, "\n")

	// Truncate each line to terminal width so content doesn't wrap on
	// resize. Uses ANSI-aware width measurement.
	content = truncateLines(content, m.width)
	b.WriteString(content)

	// Pad to fill screen.
	rendered := strings.Count(b.String(), "\n")
	for rendered < m.height-2 {
		b.WriteRune('\n')
		rendered++
	}

	if m.showHelp {
		b.WriteString(m.help.View(keys))
	} else {
		b.WriteString(m.renderStatusBar())
	}

	return b.String()
}

func (m uiModel) renderTitleBar() string {
	title := titleStyle.Render("block log viewer")
	rows := 0
	if m.data.matrix != nil {
		rows = m.data.matrix.Len()
	}
	stats := dimStyle.Render(fmt.Sprintf(
		"%d workers | %d messages | %d timeline rows",
		len(m.data.workers), len(m.data.messages), rows,
	))
	gap := strings.Repeat(" ", max(0, m.width-lipgloss.Width(title)-lipgloss.Width(stats)-2))
	return title + gap + stats
}

func (m uiModel) renderTabBar() string {
	var tabs []string
	for i := viewID(0); i < viewCount; i++ {
		if i == m.activeView {
			tabs = append(tabs, tabActiveStyle.Render(i.String()))
		} else {
			tabs = append(tabs, tabInactiveStyle.Render(i.String()))
		}
	}
	return strings.Join(tabs, " ")
}

func (m uiModel) renderStatusBar() string {
	ago := time.Since(m.data.loadedAt).Truncate(time.Second)
	left := fmt.Sprintf(" %s", contextHelp(m.activeView))
	right := fmt.Sprintf("loaded %s ago ", ago)
	gap := strings.Repeat(" ", max(0, m.width-len(left)-len(right)))
	return statusBarStyle.Render(left + gap + right)
}

// --- Timeline view ---
//
// The matrix as a text grid: workers as columns, relative time
// increasing downward. Each populated cell shows the classifier's
// arrow glyph plus the message type.

func (m uiModel) renderTimeline() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Timeline"))
	if m.filterWorker != "" {
		b.WriteString(dimStyle.Render(" "))
		b.WriteString(workerStyle.Render(fmt.Sprintf("[filter: %s]", m.filterWorker)))
	}
	b.WriteRune('\n')

	if m.data.matrix == nil {
		b.WriteString(dimStyle.Render("  (no messages)"))
		b.WriteRune('\n')
		return b.String()
	}

	// Legend.
	b.WriteString(dimStyle.Render("  "))
	b.WriteString(downStyle.Render("↓"))
	b.WriteString(dimStyle.Render("=postcondition to successors  "))
	b.WriteString(upStyle.Render("↑"))
	b.WriteString(dimStyle.Render("=error condition to predecessors  "))
	b.WriteString(neutralStyle.Render("●"))
	b.WriteString(dimStyle.Render("=result / other"))
	b.WriteRune('\n')
	b.WriteRune('\n')

	columns := m.data.matrix.Columns
	colWidth := 16 // width per worker column
	tsColWidth := 7

	// Header row: worker ids.
	b.WriteString(dimStyle.Render(fmt.Sprintf("  %-*s", tsColWidth, "t+")))
	for _, id := range columns {
		name := id
		if len(name) > colWidth-2 {
			name = name[:colWidth-2]
		}
		if id == m.filterWorker {
			b.WriteString(workerStyle.Render(fmt.Sprintf("%-*s", colWidth, name)))
		} else {
			b.WriteString(headerStyle.Render(fmt.Sprintf("%-*s", colWidth, name)))
		}
	}
	b.WriteRune('\n')

	// Separator line.
	b.WriteString(dimStyle.Render("  " + strings.Repeat("─", tsColWidth)))
	for range columns {
		b.WriteString(dimStyle.Render(strings.Repeat("─", colWidth)))
	}
	b.WriteRune('\n')

	for _, t := range m.data.matrix.Times() {
		row := m.data.matrix.Row(t)
		if m.filterWorker != "" && !rowHasWorker(row, columns, m.filterWorker) {
			continue
		}

		b.WriteString(dimStyle.Render(fmt.Sprintf("  %-*d", tsColWidth, t)))
		for _, slot := range row {
			if slot == nil {
				b.WriteString(gridLineStyle.Render(fmt.Sprintf("%-*s", colWidth, "│")))
				continue
			}
			d := trace.Classify(*slot, m.data.analysis)
			glyph := arrowStyle(d.Arrow).Render(arrowGlyph(d.Arrow))
			label := shortType(slot.Type)
			if len(label) > colWidth-3 {
				label = label[:colWidth-3]
			}
			b.WriteString(glyph)
			b.WriteString(fmt.Sprintf(" %-*s", colWidth-2, label))
		}
		b.WriteRune('\n')
	}

	return b.String()
}

// rowHasWorker reports whether a row has a message in the given
// worker's column.
func rowHasWorker(row []*blocklog.Message, columns []string, worker string) bool {
	for i, id := range columns {
		if id == worker {
			return row[i] != nil
		}
	}
	return false
}

// shortType abbreviates a message type for grid cells.
func shortType(t blocklog.MessageType) string {
	switch t {
	case blocklog.BlockPostcondition:
		return "POST"
	case blocklog.ErrorCondition:
		return "ERR"
	case blocklog.ErrorConditionUnreachable:
		return "ERR-UNREACH"
	case blocklog.FoundResult:
		return "RESULT"
	default:
		return string(t)
	}
}

// --- Messages view ---

func (m uiModel) renderMessages() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Messages"))
	if m.filterWorker != "" {
		b.WriteString(dimStyle.Render(" "))
		b.WriteString(workerStyle.Render(fmt.Sprintf("[filter: %s]", m.filterWorker)))
	}
	b.WriteRune('\n')

	msgs := m.data.messages
	if m.filterWorker != "" {
		var filtered []blocklog.Message
		for _, msg := range msgs {
			if msg.From == m.filterWorker {
				filtered = append(filtered, msg)
			}
		}
		msgs = filtered
	}
	if len(msgs) == 0 {
		if m.filterWorker != "" {
			b.WriteString(dimStyle.Render(fmt.Sprintf("  (no messages from %s)", m.filterWorker)))
		} else {
			b.WriteString(dimStyle.Render("  (no messages)"))
		}
		b.WriteRune('\n')
		return b.String()
	}

	first := m.data.messages[0].Timestamp
	bodyIndent := "        " // 8 spaces
	bodyWidth := m.width - len(bodyIndent) - 1
	if bodyWidth < 20 {
		bodyWidth = 20
	}

	for _, msg := range msgs {
		d := trace.Classify(msg, m.data.analysis)
		ts := dimStyle.Render(fmt.Sprintf("[t+%d]", msg.Timestamp-first))
		glyph := arrowStyle(d.Arrow).Render(arrowGlyph(d.Arrow))
		b.WriteString(fmt.Sprintf("  %s %s %s %s -> %s\n",
			ts, glyph, workerStyle.Render(msg.From),
			string(msg.Type), d.ReceiverLabel()))
		for _, line := range wrapText(trace.DisplayPayload(msg), bodyWidth) {
			b.WriteString(bodyIndent)
			b.WriteString(line)
			b.WriteRune('\n')
		}
	}

	return b.String()
}

// --- Workers view ---

func (m uiModel) renderWorkers() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Workers"))
	b.WriteRune('\n')

	if len(m.data.workers) == 0 {
		b.WriteString(dimStyle.Render("  (no workers in log)"))
		b.WriteRune('\n')
		return b.String()
	}

	b.WriteString(dimStyle.Render(fmt.Sprintf("  %-8s %-20s %-20s %-8s %s",
		"ID", "Predecessors", "Successors", "Code", "Messages")))
	b.WriteRune('\n')

	for _, id := range m.data.workers {
		w := m.data.analysis[id]
		line := fmt.Sprintf("  %-8s %-20s %-20s %-8d %d",
			id,
			strings.Join(w.DisplayPredecessors(), ","),
			strings.Join(w.DisplaySuccessors(), ","),
			len(w.Code), len(w.Messages))
		b.WriteString(line)
		b.WriteRune('\n')
	}

	return b.String()
}

// --- Topology view ---

func (m uiModel) renderTopology() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Topology"))
	b.WriteRune('\n')
	b.WriteString(dimStyle.Render("  Declared successor edges from the summary log (see graph.png for the rendered image)."))
	b.WriteRune('\n')
	b.WriteRune('\n')

	ids := blocklog.SortedIDs(m.data.summary)
	if len(ids) == 0 {
		b.WriteString(dimStyle.Render("  (no workers in summary)"))
		b.WriteRune('\n')
		return b.String()
	}

	edges := 0
	for _, id := range ids {
		for _, succ := range m.data.summary[id].Successors {
			b.WriteString(fmt.Sprintf("  %s %s %s\n",
				workerStyle.Render(id),
				downStyle.Render("→"),
				workerStyle.Render(succ)))
			edges++
		}
	}
	if edges == 0 {
		b.WriteString(dimStyle.Render("  (no edges declared)"))
		b.WriteRune('\n')
	}

	return b.String()
}

// --- Helpers ---

// truncateLines truncates each line in content to at most width visible
// characters, preserving ANSI escape codes. This prevents terminal line
// wrapping when the window is resized narrower.
func truncateLines(content string, width int) string {
	if width <= 0 {
		return content
	}
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		if lipgloss.Width(line) > width {
			lines[i] = ansi.Truncate(line, width, "")
		}
	}
	return strings.Join(lines, "\n")
}

// wrapText breaks s into lines of at most width characters, splitting on
// word boundaries where possible. If a single word exceeds width it is
// hard-split. Embedded newlines are respected.
func wrapText(s string, width int) []string {
	if width <= 0 {
		width = 80
	}
	paragraphs := strings.Split(s, "\n")
	var lines []string
	for _, para := range paragraphs {
		lines = append(lines, wrapParagraph(para, width)...)
	}
	return lines
}

// wrapParagraph wraps a single paragraph (no embedded newlines) to
// width. Indexing is rune-based so a hard split never cuts a
// multi-byte character in half.
func wrapParagraph(s string, width int) []string {
	runes := []rune(s)
	if len(runes) <= width {
		return []string{s}
	}

	var lines []string
	for len(runes) > 0 {
		if len(runes) <= width {
			lines = append(lines, string(runes))
			break
		}
		// Try to break at a space at or before position width.
		cut := -1
		for i := width; i > 0; i-- {
			if runes[i] == ' ' {
				cut = i
				break
			}
		}
		if cut <= 0 {
			// No space found — hard-split at width.
			cut = width
			lines = append(lines, string(runes[:cut]))
			runes = runes[cut:]
		} else {
			lines = append(lines, string(runes[:cut]))
			runes = runes[cut+1:] // skip the space
		}
	}
	return lines
}

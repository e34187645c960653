// Package statsui provides the Bubble Tea stats interface.
package statsui

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/tuiquiz/internal/model"
	"github.com/verte-zerg/tuiquiz/internal/stats"
	"github.com/verte-zerg/tuiquiz/internal/store"
)

const (
	tabOverview = iota
	tabItems
	tabCategories
	tabRecords
	tabCount
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
)

// Model implements the Bubble Tea stats UI.
type Model struct {
	kv     store.KV
	cfg    model.StatsConfig
	labels map[string]string

	report stats.Report
	errMsg string

	tabs      []string
	activeTab int
	overview  viewport.Model
	tables    [tabCount]table.Model
	layouts   [tabCount]tableLayout

	width  int
	height int

	filterMode   bool
	filterInputs []textinput.Model
	filterIndex  int
	filterError  string
}

type tableLayout struct {
	width  int
	height int
}

// NewModel constructs a stats UI model. labels maps item ids to readable
// names and may be nil.
func NewModel(kv store.KV, cfg model.StatsConfig, labels map[string]string) *Model {
	if cfg.CurveWindow < 1 {
		cfg.CurveWindow = 1
	}
	m := &Model{
		kv:       kv,
		cfg:      cfg,
		labels:   labels,
		tabs:     []string{"Overview", "Items", "Categories", "Records"},
		overview: viewport.New(0, 0),
	}
	m.tables[tabItems] = newTable(recordColumns())
	m.tables[tabCategories] = newTable(recordColumns())
	m.tables[tabRecords] = newTable(bestColumns())
	m.initInputs()
	m.refreshReport()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderTabContents()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || (!m.filterMode && msg.String() == "q") {
			return m, tea.Quit
		}
		if m.filterMode {
			return m.updateFilter(msg)
		}
		switch msg.String() {
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "=":
			m.cfg.CurveWindow = nextCurveWindow(m.cfg.CurveWindow)
			m.renderTabContents()
			return m, nil
		case "-":
			m.cfg.CurveWindow = prevCurveWindow(m.cfg.CurveWindow)
			m.renderTabContents()
			return m, nil
		case "/":
			return m.startFilter()
		case "g", "home":
			if m.activeTab == tabOverview {
				m.overview.GotoTop()
			} else {
				m.tables[m.activeTab].GotoTop()
			}
			return m, nil
		case "G", "end":
			if m.activeTab == tabOverview {
				m.overview.GotoBottom()
			} else {
				m.tables[m.activeTab].GotoBottom()
			}
			return m, nil
		}
		var cmd tea.Cmd
		if m.activeTab == tabOverview {
			m.overview, cmd = m.overview.Update(msg)
		} else {
			m.tables[m.activeTab], cmd = m.tables[m.activeTab].Update(msg)
		}
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(bodyHeight), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) initInputs() {
	m.filterInputs = []textinput.Model{
		newFilterInput("Domain: "),
		newFilterInput("Last: "),
		newFilterInput("Curve window: "),
		newFilterInput("Top items: "),
	}
	m.setInputsFromConfig()
}

func newFilterInput(prompt string) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.CharLimit = 0
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

func (m *Model) setInputsFromConfig() {
	m.filterInputs[0].SetValue(m.cfg.Domain)
	m.filterInputs[1].SetValue(optionalInt(m.cfg.Last))
	m.filterInputs[2].SetValue(strconv.Itoa(m.cfg.CurveWindow))
	m.filterInputs[3].SetValue(optionalInt(m.cfg.Top))
}

func optionalInt(n int) string {
	if n <= 0 {
		return ""
	}
	return strconv.Itoa(n)
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := lipgloss.Height(activeNavStyle.Render("X"))
	if tabsHeight < 1 {
		tabsHeight = 1
	}
	headerHeight = tabsHeight + 1
	footerHeight = 1
	if !m.filterMode && m.errMsg != "" {
		footerHeight++
	}
	bodyHeight = m.height - headerHeight - footerHeight
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	m.overview.Width = m.width
	m.overview.Height = bodyHeight
	for tab := tabItems; tab < tabCount; tab++ {
		m.setTableSize(tab, m.width, bodyHeight)
	}
	for i := range m.filterInputs {
		promptWidth := lipgloss.Width(m.filterInputs[i].Prompt)
		m.filterInputs[i].Width = maxInt(10, m.width-promptWidth-2)
	}
}

func (m *Model) moveTab(delta int) {
	next := m.activeTab + delta
	if next < 0 {
		next = len(m.tabs) - 1
	}
	if next >= len(m.tabs) {
		next = 0
	}
	m.activeTab = next
	for tab := tabItems; tab < tabCount; tab++ {
		if tab == m.activeTab {
			m.tables[tab].Focus()
		} else {
			m.tables[tab].Blur()
		}
	}
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	tabs := padLines(m.renderTabs(), m.width)
	filters := padLines(m.renderFilterSummary(), m.width)
	return tabs + "\n" + filters
}

func (m *Model) renderFilterSummary() string {
	domain := m.cfg.Domain
	if domain == "" {
		domain = "any"
	}
	last := "all"
	if m.cfg.Last > 0 {
		last = strconv.Itoa(m.cfg.Last)
	}
	top := "all"
	if m.cfg.Top > 0 {
		top = strconv.Itoa(m.cfg.Top)
	}
	summary := fmt.Sprintf("Settings: domain=%s  last=%s  window=%d  top=%s", domain, last, m.cfg.CurveWindow, top)
	return headerStyle.Render(truncateLine(summary, m.width))
}

func (m *Model) renderFooter() string {
	if m.filterMode {
		return headerStyle.Render("tab/shift+tab: next field  enter: apply  esc: cancel")
	}
	help := headerStyle.Render("Nav: left/right  Scroll: up/down/pgup/pgdn  Window: -/=  Settings: /  Quit: q")
	if m.errMsg != "" {
		return help + "\n" + errorStyle.Render(m.errMsg)
	}
	return help
}

func (m *Model) renderFilterForm() string {
	lines := []string{"Settings (enter to apply, esc to cancel)"}
	for _, input := range m.filterInputs {
		lines = append(lines, input.View())
	}
	if m.filterError != "" {
		lines = append(lines, errorStyle.Render(m.filterError))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderBody(height int) string {
	if m.filterMode {
		return fitLines(m.renderFilterForm(), m.width, height)
	}
	if m.activeTab == tabOverview {
		return fitLines(m.overview.View(), m.width, height)
	}
	if len(m.tables[m.activeTab].Rows()) == 0 {
		return fitLines(emptyMessage(m.activeTab), m.width, height)
	}
	return fitLines(tableMutedStyle.Render(m.tables[m.activeTab].View()), m.width, height)
}

func emptyMessage(tab int) string {
	switch tab {
	case tabItems:
		return "No item stats found."
	case tabCategories:
		return "No category stats found."
	default:
		return "No records yet."
	}
}

func (m *Model) refreshReport() {
	report, err := stats.BuildReport(context.Background(), m.kv, m.cfg)
	if err != nil {
		m.errMsg = err.Error()
		m.overview.SetContent("Failed to load stats.")
		return
	}
	m.errMsg = ""
	report.Labels = m.labels
	m.report = report
	m.tables[tabItems].SetRows(recordRows(report.LabeledItems(), stats.ItemWeight))
	m.tables[tabCategories].SetRows(recordRows(report.Categories, stats.CategoryMultiplier))
	m.tables[tabRecords].SetRows(bestRows(report.Records))
	m.renderTabContents()
}

func (m *Model) renderTabContents() {
	if m.errMsg != "" {
		m.overview.SetContent("Failed to load stats.")
		return
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.overview.SetContent(renderOverview(m.report, m.cfg.CurveWindow, width))
}

func renderOverview(r stats.Report, window, width int) string {
	if len(r.Sessions) == 0 {
		return "No sessions found."
	}
	parts := []string{renderSummaryCards(r.Sessions, width)}
	var buf bytes.Buffer
	if err := stats.RenderCurve(&buf, r.Sessions, window, maxInt(10, width-12)); err != nil {
		parts = append(parts, fmt.Sprintf("Failed to render curve: %v", err))
	} else {
		parts = append(parts, strings.TrimRight(buf.String(), "\n"))
	}
	if weak := stats.Weakest(r.LabeledItems(), 5, stats.ItemWeight); len(weak) > 0 {
		parts = append(parts, headerStyle.Render("Weakest: ")+strings.Join(weak, ", "))
	}
	return strings.Join(parts, "\n\n")
}

func renderSummaryCards(sessions []model.SessionRecord, width int) string {
	s := stats.Summarize(sessions)
	cards := []string{
		metricCard("Sessions", fmt.Sprintf("%d", s.Sessions)),
		metricCard("Questions", fmt.Sprintf("%d", s.Answered)),
		metricCard("Avg Acc", fmt.Sprintf("%.1f%%", s.AvgAccuracy*100)),
		metricCard("Best Acc", fmt.Sprintf("%.1f%%", s.BestAccuracy*100)),
		metricCard("Avg Time", fmt.Sprintf("%.2fs", s.AvgSecsPerTask)),
	}
	if width < 80 {
		return strings.Join(cards, "\n")
	}
	row1 := lipgloss.JoinHorizontal(lipgloss.Top, cards[0], cards[1], cards[2])
	row2 := lipgloss.JoinHorizontal(lipgloss.Top, cards[3], cards[4])
	return lipgloss.JoinVertical(lipgloss.Left, row1, row2)
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func newTable(cols []table.Column) table.Model {
	t := table.New(
		table.WithColumns(cols),
		table.WithHeight(1),
	)
	t.SetStyles(tableStyles())
	return t
}

func recordColumns() []table.Column {
	return []table.Column{
		{Title: "Id", Width: 14},
		{Title: "Accuracy", Width: 9},
		{Title: "Weight", Width: 7},
		{Title: "Attempts", Width: 8},
		{Title: "Wrong", Width: 6},
	}
}

func bestColumns() []table.Column {
	return []table.Column{
		{Title: "Mode", Width: 20},
		{Title: "Score", Width: 7},
		{Title: "Time", Width: 8},
		{Title: "Set", Width: 10},
	}
}

func recordRows(recs []model.NamedRecord, weight func(model.PerformanceRecord) float64) []table.Row {
	sorted := stats.SortByWeight(recs, weight)
	rows := make([]table.Row, 0, len(sorted))
	for _, r := range sorted {
		rows = append(rows, table.Row{
			r.ID,
			fmt.Sprintf("%.2f%%", r.Record.Accuracy()*100),
			fmt.Sprintf("%.3f", weight(r.Record)),
			fmt.Sprintf("%d", r.Record.Attempts),
			fmt.Sprintf("%d", r.Record.Wrongs),
		})
	}
	return rows
}

func bestRows(recs []store.KeyedRecord) []table.Row {
	rows := make([]table.Row, 0, len(recs))
	for _, r := range recs {
		set := "-"
		if r.Record.Timestamp > 0 {
			set = time.UnixMilli(r.Record.Timestamp).Format("2006-01-02")
		}
		rows = append(rows, table.Row{
			r.ModeKey,
			fmt.Sprintf("%d/%d", r.Record.Score, r.Record.Total),
			fmt.Sprintf("%.1fs", r.Record.Time),
			set,
		})
	}
	return rows
}

func tableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func (m *Model) setTableSize(tab, width, height int) {
	viewportHeight := maxInt(1, height-1)
	if m.layouts[tab].width == width && m.layouts[tab].height == viewportHeight {
		return
	}
	m.layouts[tab] = tableLayout{width: width, height: viewportHeight}
	m.tables[tab].SetWidth(width)
	m.tables[tab].SetHeight(viewportHeight)
	m.adjustTableHeight(tab, height)
}

// adjustTableHeight corrects for the header border, which the table does
// not count in its height.
func (m *Model) adjustTableHeight(tab, bodyHeight int) {
	target := maxInt(1, bodyHeight)
	t := &m.tables[tab]
	for i := 0; i < 2; i++ {
		viewHeight := lipgloss.Height(t.View())
		if viewHeight == target {
			return
		}
		t.SetHeight(maxInt(1, t.Height()+target-viewHeight))
	}
}

func (m *Model) startFilter() (tea.Model, tea.Cmd) {
	m.filterMode = true
	m.filterError = ""
	m.setInputsFromConfig()
	return m, m.setFilterIndex(0)
}

func (m *Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.filterMode = false
		m.filterError = ""
		return m, nil
	case tea.KeyEnter:
		if err := m.applyFilter(); err != nil {
			m.filterError = err.Error()
			return m, nil
		}
		m.filterMode = false
		m.filterError = ""
		m.refreshReport()
		m.updateLayout()
		return m, nil
	case tea.KeyTab:
		return m, m.setFilterIndex(m.filterIndex + 1)
	case tea.KeyShiftTab:
		return m, m.setFilterIndex(m.filterIndex - 1)
	}
	var cmd tea.Cmd
	m.filterInputs[m.filterIndex], cmd = m.filterInputs[m.filterIndex].Update(msg)
	return m, cmd
}

func (m *Model) setFilterIndex(idx int) tea.Cmd {
	count := len(m.filterInputs)
	if idx < 0 {
		idx = count - 1
	}
	if idx >= count {
		idx = 0
	}
	m.filterIndex = idx
	var cmd tea.Cmd
	for i := range m.filterInputs {
		if i == m.filterIndex {
			cmd = m.filterInputs[i].Focus()
		} else {
			m.filterInputs[i].Blur()
		}
	}
	return cmd
}

func (m *Model) applyFilter() error {
	domain := ""
	if raw := strings.TrimSpace(m.filterInputs[0].Value()); raw != "" {
		d, ok := model.ParseDomain(raw)
		if !ok {
			return fmt.Errorf("invalid domain (use arithmetic or spelling)")
		}
		domain = d.String()
	}
	last, err := parseOptionalInt(m.filterInputs[1].Value(), 0)
	if err != nil {
		return fmt.Errorf("invalid last value (use 0 or positive integer)")
	}
	window, err := parseOptionalInt(m.filterInputs[2].Value(), 1)
	if err != nil || window < 1 {
		return fmt.Errorf("invalid curve window (use integer >= 1)")
	}
	top, err := parseOptionalInt(m.filterInputs[3].Value(), 0)
	if err != nil {
		return fmt.Errorf("invalid top value (use 0 or positive integer)")
	}
	m.cfg = model.StatsConfig{
		Domain:      domain,
		Last:        last,
		CurveWindow: window,
		Top:         top,
	}
	return nil
}

func parseOptionalInt(raw string, def int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid number %q", raw)
	}
	return n, nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func nextCurveWindow(n int) int {
	if n < 5 {
		return 5
	}
	if n%5 == 0 {
		return n + 5
	}
	return ((n / 5) + 1) * 5
}

func prevCurveWindow(n int) int {
	if n <= 5 {
		return 1
	}
	if n%5 == 0 {
		return n - 5
	}
	return (n / 5) * 5
}

func padLines(s string, width int) string {
	if width <= 0 || s == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	return strings.Join(lines, "\n")
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}

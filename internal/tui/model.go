// Package tui provides the Bubble Tea typing interface.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/verte-zerg/typerank/internal/daily"
	"github.com/verte-zerg/typerank/internal/generator"
	"github.com/verte-zerg/typerank/internal/model"
	"github.com/verte-zerg/typerank/internal/result"
	"github.com/verte-zerg/typerank/internal/session"
	statsPkg "github.com/verte-zerg/typerank/internal/stats"
)

const (
	refillWords   = 50
	visibleRows   = 3
	renderAhead   = 80
	chartHeight   = 8
	contentFactor = 0.70
)

var (
	correctStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	incorrectStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	extraStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#A8071A"))
	missedStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F")).Underline(true)
	pendingStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	currentWordStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	footerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	titleStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
)

type screen int

const (
	screenTyping screen = iota
	screenResult
)

type keyMap struct {
	Restart key.Binding
	Quit    key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Restart, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var defaultKeys = keyMap{
	Restart: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "restart")),
	Quit:    key.NewBinding(key.WithKeys("esc", "ctrl+c"), key.WithHelp("esc", "quit")),
}

// Options wires the typing screen to the engine.
type Options struct {
	Settings model.Settings
	// Vocabulary feeds practice tests. Ignored when DailyDate is set.
	Vocabulary []string
	// DailyDate switches to the daily challenge for that date with DailyWords as the text.
	DailyDate  string
	DailyWords []string

	Generator      *generator.Generator
	Results        *result.Aggregator
	Tracker        *daily.Tracker
	Logger         *zap.Logger
	SampleInterval time.Duration
}

type tickMsg struct {
	sess *session.Session
	at   time.Time
}

type doneMsg struct {
	sess *session.Session
}

// Model implements the Bubble Tea typing UI.
type Model struct {
	opts   Options
	logger *zap.Logger
	keys   keyMap
	help   help.Model
	now    func() time.Time

	width  int
	height int

	screen  screen
	sess    *session.Session
	waiting bool

	last          *model.TestResult
	newBest       bool
	dailyRecorded bool
	best          *model.PersonalBest
}

// NewModel constructs a typing TUI model.
func NewModel(opts Options) *Model {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Generator == nil {
		opts.Generator = generator.New()
	}
	if opts.SampleInterval <= 0 {
		opts.SampleInterval = session.DefaultSampleInterval
	}
	m := &Model{
		opts:   opts,
		logger: logger,
		keys:   defaultKeys,
		help:   help.New(),
		now:    time.Now,
	}
	m.resetSession()
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
		m.help.Width = msg.Width
		return m, nil
	case tickMsg:
		return m, m.handleTick(msg)
	case doneMsg:
		if msg.sess == m.sess {
			m.waiting = false
		}
		return m, nil
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.sess.Abandon()
			return m, tea.Quit
		case key.Matches(msg, m.keys.Restart):
			m.sess.Abandon()
			m.resetSession()
			return m, nil
		}
		if m.screen != screenTyping {
			return m, nil
		}
		switch msg.Type {
		case tea.KeyBackspace, tea.KeyDelete:
			m.sess.Erase(m.now())
		case tea.KeySpace:
			m.sess.Type(' ', m.now())
		case tea.KeyRunes:
			if msg.Alt {
				return m, nil
			}
			for _, r := range msg.Runes {
				m.sess.Type(r, m.now())
			}
		default:
			return m, nil
		}
		return m, m.afterInput()
	default:
		return m, nil
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.screen == screenResult {
		return m.resultView()
	}
	words, cursor := m.wordViews()
	if len(words) == 0 {
		return ""
	}
	styledRunes := buildStyledRunes(words, m.sess.Current())
	if m.width == 0 || m.height == 0 {
		return renderStyledRunes(styledRunes)
	}
	contentWidth := int(float64(m.width) * contentFactor)
	if contentWidth < 1 {
		contentWidth = 1
	}
	lines := wrapStyledRunes(styledRunes, contentWidth)
	lines = visibleLines(lines, cursorLineOf(styledRunes, contentWidth, cursor), visibleRows)
	content := lipgloss.NewStyle().Width(contentWidth).Render(strings.Join(lines, "\n"))
	footer := m.renderFooter()
	if footer == "" || m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	bodyHeight := m.height - 2
	body := lipgloss.Place(m.width, bodyHeight, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	helpLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, m.help.View(m.keys))
	return body + "\n" + footerLine + "\n" + helpLine
}

// Result returns the last completed result, if any.
func (m *Model) Result() (model.TestResult, bool) {
	if m.last == nil {
		return model.TestResult{}, false
	}
	return *m.last, true
}

func (m *Model) daily() bool {
	return m.opts.DailyDate != ""
}

// settings are the configured settings, pinned to the fixed word count for a daily challenge.
func (m *Model) settings() model.Settings {
	s := m.opts.Settings
	if m.daily() {
		s.Mode = model.ModeWords
		s.WordCount = len(m.opts.DailyWords)
	}
	return s
}

func (m *Model) resetSession() {
	s := m.settings()
	cfg := session.Config{Mode: s.Mode, SampleInterval: m.opts.SampleInterval}
	var words []string
	switch {
	case m.daily():
		words = m.opts.DailyWords
	case s.Mode == model.ModeTime:
		cfg.TimeLimit = time.Duration(s.TimeLimit) * time.Second
		words = m.generate(refillWords * 2)
	default:
		words = m.generate(s.WordCount)
	}
	m.sess = session.New(cfg, words)
	m.screen = screenTyping
	m.waiting = false
	m.newBest = false
	m.dailyRecorded = false
	m.best = nil
	if m.opts.Results != nil {
		if pb, ok := m.opts.Results.PersonalBest(result.PBKey(s.Language, s.Mode, s.ModeValue())); ok {
			m.best = &pb
		}
	}
}

func (m *Model) generate(count int) []string {
	return m.opts.Generator.Generate(m.opts.Vocabulary, count, generator.Options{
		Punctuation: m.opts.Settings.Punctuation,
		Numbers:     m.opts.Settings.Numbers,
	})
}

func (m *Model) afterInput() tea.Cmd {
	m.refill()
	switch m.sess.Phase().(type) {
	case session.Finished:
		m.complete()
		return nil
	case session.Running:
		if !m.waiting {
			m.waiting = true
			return waitForTick(m.sess)
		}
	}
	return nil
}

func (m *Model) handleTick(msg tickMsg) tea.Cmd {
	if msg.sess != m.sess || m.screen != screenTyping {
		return nil
	}
	if m.sess.Tick(msg.at) {
		m.waiting = false
		m.complete()
		return nil
	}
	m.refill()
	return waitForTick(m.sess)
}

func (m *Model) refill() {
	if m.sess.NeedsWords() && !m.daily() {
		m.sess.Extend(m.generate(refillWords))
	}
}

// waitForTick blocks until the session ticks or ends. Stale messages carry their
// session so the model can drop them after a restart.
func waitForTick(sess *session.Session) tea.Cmd {
	ticks := sess.Ticks()
	done := sess.Done()
	return func() tea.Msg {
		select {
		case at := <-ticks:
			return tickMsg{sess: sess, at: at}
		case <-done:
			return doneMsg{sess: sess}
		}
	}
}

func (m *Model) complete() {
	m.screen = screenResult
	if m.opts.Results == nil {
		return
	}
	state, err := m.sess.Snapshot()
	if err != nil {
		m.logger.Error("snapshot failed", zap.Error(err))
		return
	}
	ctx := context.Background()
	settings := m.settings()
	var res model.TestResult
	if m.daily() {
		res, err = m.opts.Results.AggregateDaily(ctx, state, settings)
	} else {
		res, err = m.opts.Results.Aggregate(ctx, state, settings)
	}
	if err != nil {
		m.logger.Error("aggregate failed", zap.Error(err))
		return
	}
	m.last = &res
	m.newBest = m.opts.Results.IsPersonalBest(res)
	if m.daily() && m.opts.Tracker != nil {
		recorded, err := m.opts.Tracker.Record(ctx, model.DailyChallengeResult{
			Date:        m.opts.DailyDate,
			WPM:         res.WPM,
			Accuracy:    res.Accuracy,
			CompletedAt: res.Timestamp,
		})
		if err != nil {
			m.logger.Error("daily record failed", zap.Error(err))
		}
		m.dailyRecorded = recorded
	}
}

// wordViews returns the words worth rendering and the cursor's rune offset among them.
func (m *Model) wordViews() ([]wordView, int) {
	cur := m.sess.Current()
	n := m.sess.WordCount()
	if limit := cur + renderAhead; limit < n {
		n = limit
	}
	words := make([]wordView, 0, n)
	cursor := 0
	for i := 0; i < n; i++ {
		target, typed := m.sess.Word(i)
		words = append(words, wordView{target: target, typed: typed})
		if i < cur {
			cursor += max(len(target), len(typed)) + 1
		} else if i == cur {
			cursor += len(typed)
		}
	}
	return words, cursor
}

func (m *Model) renderFooter() string {
	if m.sess == nil {
		return ""
	}
	now := m.now()
	var segments []string
	if m.daily() {
		segments = append(segments, "Daily "+m.opts.DailyDate)
	}
	switch m.sess.Phase().(type) {
	case session.Idle:
		segments = append(segments, "Start typing")
	default:
		if m.settings().Mode == model.ModeTime {
			segments = append(segments, fmt.Sprintf("%ds left", int(m.sess.Remaining(now).Round(time.Second)/time.Second)))
		} else {
			segments = append(segments, fmt.Sprintf("%d/%d words", m.sess.Current(), m.sess.WordCount()))
		}
		segments = append(segments, fmt.Sprintf("%d WPM · %.1f%%", m.sess.LiveWPM(now), m.sess.LiveAccuracy()))
	}
	if m.best != nil {
		segments = append(segments, fmt.Sprintf("PB %d WPM", m.best.WPM))
	}
	return footerStyle.Render(strings.Join(segments, "  "))
}

func (m *Model) resultView() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Test complete"))
	b.WriteString("\n\n")
	if m.last == nil {
		b.WriteString("Result could not be recorded.\n")
	} else {
		width := statsPkg.PlotWidthFor(m.width)
		if err := statsPkg.RenderResult(&b, *m.last, width, chartHeight, true); err != nil {
			m.logger.Warn("render result failed", zap.Error(err))
		}
		if m.newBest {
			b.WriteString(titleStyle.Render("New personal best!"))
			b.WriteString("\n")
		}
		if m.daily() && m.opts.Tracker != nil {
			state := m.opts.Tracker.State()
			if m.dailyRecorded {
				fmt.Fprintf(&b, "Daily challenge %s recorded. Streak %d (longest %d)\n",
					m.opts.DailyDate, state.CurrentStreak, state.LongestStreak)
			} else {
				fmt.Fprintf(&b, "Daily challenge %s was already completed; this run is practice.\n", m.opts.DailyDate)
			}
		}
	}
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	content := b.String()
	if m.width == 0 || m.height == 0 {
		return content
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

// Package session runs one quiz session: it serves items from the selector,
// resolves each question exactly once by answer or timeout, records outcomes,
// and compares the result with the stored best record.
package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/verte-zerg/tuiquiz/internal/content"
	"github.com/verte-zerg/tuiquiz/internal/history"
	"github.com/verte-zerg/tuiquiz/internal/model"
	"github.com/verte-zerg/tuiquiz/internal/selector"
	"github.com/verte-zerg/tuiquiz/internal/store"
)

// Sentinel errors returned by Controller. None of them changes state.
var (
	ErrNotRunning    = errors.New("session: not running")
	ErrLocked        = errors.New("session: question already resolved")
	ErrPending       = errors.New("session: question still pending")
	ErrInvalidAnswer = errors.New("session: answer not understood")
)

// Phase is the controller state.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseRunning
	PhaseEnded
)

func (p Phase) String() string {
	switch p {
	case PhaseRunning:
		return "running"
	case PhaseEnded:
		return "ended"
	default:
		return "idle"
	}
}

// Question is the item currently in flight.
type Question struct {
	Seq   uint64
	Index int
	Total int
	Item  model.Item
	Limit time.Duration
}

// Resolution describes how a question was resolved.
type Resolution struct {
	Question Question
	Correct  bool
	TimedOut bool
	Given    string
	Elapsed  time.Duration
	Score    int
	Last     bool
}

// Summary is the outcome of a completed session.
type Summary struct {
	Score     int
	Total     int
	Elapsed   time.Duration
	ModeKey   string
	Previous  *model.BestRecord
	NewRecord bool
	Verdict   string
	StartedAt time.Time
	EndedAt   time.Time
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock replaces time.Now.
func WithClock(clock func() time.Time) Option {
	return func(c *Controller) {
		c.clock = clock
	}
}

// WithLogger sets the hook for recoverable problems.
func WithLogger(logf func(format string, args ...any)) Option {
	return func(c *Controller) {
		c.logf = logf
	}
}

// WithSelector injects the selector, typically one with a seeded source.
// The injected selector is kept across Start calls and its own depth wins
// over the configured one.
func WithSelector(sel *selector.Selector) Option {
	return func(c *Controller) {
		c.sel = sel
		c.fixedSel = sel != nil
	}
}

// WithPool fixes the item pool instead of deriving it from the config.
func WithPool(pool []model.Item) Option {
	return func(c *Controller) {
		c.fixedPool = pool
	}
}

// WithSessionLog appends every completed session to log.
func WithSessionLog(log *store.Sessions) Option {
	return func(c *Controller) {
		c.sessions = log
	}
}

// Controller is the explicit state of one session. It is driven from a
// single goroutine.
type Controller struct {
	stats     *store.Stats
	records   *store.Records
	sessions  *store.Sessions
	sel       *selector.Selector
	fixedSel  bool
	fixedPool []model.Item
	clock     func() time.Time
	logf      func(format string, args ...any)

	cfg       model.Config
	pool      []model.Item
	phase     Phase
	index     int
	score     int
	elapsed   time.Duration
	startedAt time.Time
	seq       uint64
	current   Question
	deadline  *Deadline
	window    *history.Window
	used      *history.UsedSet
	summary   Summary
}

// New returns an idle controller.
func New(stats *store.Stats, records *store.Records, opts ...Option) *Controller {
	c := &Controller{
		stats:   stats,
		records: records,
		clock:   time.Now,
		logf:    func(string, ...any) {},
		window:  history.NewWindow(history.DefaultSize),
		used:    history.NewUsedSet(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Phase returns the current state.
func (c *Controller) Phase() Phase {
	return c.phase
}

// Config returns the normalized configuration of the last Start.
func (c *Controller) Config() model.Config {
	return c.cfg
}

// Score returns the running score.
func (c *Controller) Score() int {
	return c.score
}

// Current returns the question in flight.
func (c *Controller) Current() (Question, bool) {
	if c.phase != PhaseRunning {
		return Question{}, false
	}
	return c.current, true
}

// Remaining returns the display countdown of the current question.
func (c *Controller) Remaining() time.Duration {
	if c.phase != PhaseRunning || c.deadline == nil || !c.deadline.Pending() {
		return 0
	}
	return c.deadline.Remaining(c.clock())
}

// Locked reports whether the current question no longer accepts input.
func (c *Controller) Locked() bool {
	return c.deadline == nil || !c.deadline.Pending()
}

// Summary returns the summary of the last completed session.
func (c *Controller) Summary() Summary {
	return c.summary
}

// Start normalizes cfg, resets all session state, and serves the first
// question.
func (c *Controller) Start(ctx context.Context, cfg model.Config) (Question, error) {
	c.cancelDeadline()
	cfg = Normalize(cfg)
	c.cfg = cfg
	c.pool = c.loadPool(cfg)
	if !c.fixedSel {
		seed := cfg.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		c.sel = selector.NewWithRand(rand.New(rand.NewSource(seed)), cfg.ExclusionDepth)
	}

	c.phase = PhaseRunning
	c.index = 0
	c.score = 0
	c.elapsed = 0
	c.startedAt = c.clock()
	c.window = history.NewWindow(cfg.HistorySize)
	c.used = history.NewUsedSet()
	c.summary = Summary{}
	return c.serve()
}

// Restart starts again with the same configuration.
func (c *Controller) Restart(ctx context.Context) (Question, error) {
	return c.Start(ctx, c.cfg)
}

// Abandon cancels the pending deadline and returns to idle.
func (c *Controller) Abandon() {
	c.cancelDeadline()
	c.phase = PhaseIdle
}

// Answer resolves the current question with input. Input that cannot be
// read as an answer leaves the question open. An answer arriving at or after
// zero remaining time resolves as a timeout.
func (c *Controller) Answer(ctx context.Context, input string) (Resolution, error) {
	if c.phase != PhaseRunning {
		return Resolution{}, ErrNotRunning
	}
	if c.Locked() {
		return Resolution{}, ErrLocked
	}
	correct, ok := checkAnswer(c.current.Item, input)
	if !ok {
		return Resolution{}, ErrInvalidAnswer
	}
	now := c.clock()
	if c.deadline.Remaining(now) <= 0 {
		return c.Expire(ctx, c.deadline.Seq())
	}
	c.deadline.Resolve()
	return c.resolve(ctx, correct, false, strings.TrimSpace(input), c.deadline.Elapsed(now)), nil
}

// Expire resolves question seq as a timeout credited with the full
// allotment. A stale seq or an already resolved question returns ErrLocked.
func (c *Controller) Expire(ctx context.Context, seq uint64) (Resolution, error) {
	if c.phase != PhaseRunning {
		return Resolution{}, ErrNotRunning
	}
	if c.deadline == nil || seq != c.deadline.Seq() || !c.deadline.Resolve() {
		return Resolution{}, ErrLocked
	}
	return c.resolve(ctx, false, true, "", c.deadline.Limit()), nil
}

// Next serves the following question once the current one is resolved.
// It returns false when the session has ended.
func (c *Controller) Next(ctx context.Context) (Question, bool, error) {
	switch c.phase {
	case PhaseEnded:
		return Question{}, false, nil
	case PhaseIdle:
		return Question{}, false, ErrNotRunning
	}
	if !c.Locked() {
		return Question{}, false, ErrPending
	}
	if c.index >= c.cfg.Tasks {
		c.finish(ctx)
		return Question{}, false, nil
	}
	q, err := c.serve()
	if err != nil {
		return Question{}, false, err
	}
	return q, true, nil
}

func (c *Controller) serve() (Question, error) {
	var used *history.UsedSet
	if c.cfg.Domain == model.DomainSpelling {
		used = c.used
	}
	item, err := c.sel.Next(c.pool, c.stats, c.window, used)
	if err != nil {
		c.phase = PhaseIdle
		return Question{}, fmt.Errorf("failed to select item: %w", err)
	}
	c.index++
	c.seq++
	c.window.Push(item.ID)
	c.used.Add(item.ID)
	limit := time.Duration(c.cfg.Seconds) * time.Second
	c.deadline = newDeadline(c.seq, c.clock(), limit)
	c.current = Question{
		Seq:   c.seq,
		Index: c.index,
		Total: c.cfg.Tasks,
		Item:  item,
		Limit: limit,
	}
	return c.current, nil
}

func (c *Controller) resolve(ctx context.Context, correct, timedOut bool, given string, elapsed time.Duration) Resolution {
	if correct {
		c.score++
	}
	c.elapsed += elapsed
	if err := c.stats.Record(ctx, c.current.Item, correct); err != nil {
		c.logf("failed to save stats for %s: %v\n", c.current.Item.ID, err)
	}
	return Resolution{
		Question: c.current,
		Correct:  correct,
		TimedOut: timedOut,
		Given:    given,
		Elapsed:  elapsed,
		Score:    c.score,
		Last:     c.index >= c.cfg.Tasks,
	}
}

func (c *Controller) finish(ctx context.Context) {
	c.phase = PhaseEnded
	endedAt := c.clock()
	key := model.ModeKey(c.cfg.Domain, c.cfg.Tasks, c.cfg.Seconds)
	sum := Summary{
		Score:     c.score,
		Total:     c.cfg.Tasks,
		Elapsed:   c.elapsed,
		ModeKey:   key,
		Verdict:   Verdict(c.score, c.cfg.Tasks),
		StartedAt: c.startedAt,
		EndedAt:   endedAt,
	}
	candidate := model.BestRecord{
		Score:     c.score,
		Total:     c.cfg.Tasks,
		Time:      c.elapsed.Seconds(),
		Timestamp: endedAt.UnixMilli(),
	}
	if c.records != nil {
		improved, prev, err := c.records.Submit(ctx, key, candidate)
		if err != nil {
			c.logf("failed to save record: %v\n", err)
		}
		sum.NewRecord = improved
		sum.Previous = prev
	}
	if c.sessions != nil {
		_, err := c.sessions.Insert(ctx, model.SessionRecord{
			StartedAt: c.startedAt,
			EndedAt:   endedAt,
			Domain:    c.cfg.Domain.String(),
			Tasks:     c.cfg.Tasks,
			Seconds:   c.cfg.Seconds,
			Score:     c.score,
			Total:     c.cfg.Tasks,
			ElapsedMs: c.elapsed.Milliseconds(),
		})
		if err != nil {
			c.logf("failed to save session: %v\n", err)
		}
	}
	c.summary = sum
}

func (c *Controller) cancelDeadline() {
	if c.deadline != nil {
		c.deadline.Cancel()
	}
}

func (c *Controller) loadPool(cfg model.Config) []model.Item {
	if len(c.fixedPool) > 0 {
		return c.fixedPool
	}
	res, err := content.Pool(cfg)
	if err != nil {
		c.logf("failed to load content, using built-in items: %v\n", err)
		return content.Fallback()
	}
	if res.Fallback && cfg.ContentPath != "" {
		c.logf("no usable items in %s; using built-in items\n", cfg.ContentPath)
	}
	return res.Items
}

// checkAnswer reports whether input is correct for item, and whether input
// could be read at all. Spelling answers may be the 1-based option number,
// the option text, or the full word.
func checkAnswer(item model.Item, input string) (correct, ok bool) {
	input = strings.TrimSpace(input)
	if input == "" {
		return false, false
	}
	if item.Domain == model.DomainArithmetic {
		v, err := strconv.Atoi(input)
		if err != nil {
			return false, false
		}
		return v == item.Product(), true
	}
	if n, err := strconv.Atoi(input); err == nil {
		if n < 1 || n > len(item.Options) {
			return false, false
		}
		return n-1 == item.Answer, true
	}
	for i, opt := range item.Options {
		if strings.EqualFold(opt, input) {
			return i == item.Answer, true
		}
	}
	if item.Full != "" && strings.EqualFold(item.Full, input) {
		return true, true
	}
	return false, false
}

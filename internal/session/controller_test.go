package session

import (
	"context"
	"errors"
	"math/rand"
	"strconv"
	"testing"
	"time"

	"github.com/verte-zerg/tuiquiz/internal/model"
	"github.com/verte-zerg/tuiquiz/internal/selector"
	"github.com/verte-zerg/tuiquiz/internal/store"
)

type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.now = f.now.Add(d)
}

type harness struct {
	ctl      *Controller
	clock    *fakeClock
	kv       *store.Memory
	stats    *store.Stats
	records  *store.Records
	sessions *store.Sessions
	warnings []string
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	ctx := context.Background()
	h := &harness{
		clock: &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)},
		kv:    store.NewMemory(),
	}
	st, err := store.LoadStats(ctx, h.kv)
	if err != nil {
		t.Fatalf("load stats: %v", err)
	}
	h.stats = st
	h.records = store.NewRecords(h.kv)
	h.sessions = store.NewSessions(h.kv)
	base := []Option{
		WithClock(h.clock.Now),
		WithSelector(selector.NewWithRand(rand.New(rand.NewSource(7)), selector.DefaultDepth)),
		WithSessionLog(h.sessions),
		WithLogger(func(format string, args ...any) {
			h.warnings = append(h.warnings, format)
		}),
	}
	h.ctl = New(h.stats, h.records, append(base, opts...)...)
	return h
}

func arithmeticConfig(tasks, seconds int) model.Config {
	return model.Config{
		Domain:         model.DomainArithmetic,
		Tasks:          tasks,
		Seconds:        seconds,
		TableSize:      10,
		ExclusionDepth: selector.DefaultDepth,
		HistorySize:    20,
	}
}

func answerCorrectly(t *testing.T, h *harness, q Question) Resolution {
	t.Helper()
	h.clock.Advance(2 * time.Second)
	res, err := h.ctl.Answer(context.Background(), strconv.Itoa(q.Item.Product()))
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if !res.Correct {
		t.Fatalf("expected correct answer for %s", q.Item.ID)
	}
	return res
}

func TestPerfectSessionSetsRecord(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	q, err := h.ctl.Start(ctx, arithmeticConfig(3, 10))
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	for i := 1; ; i++ {
		if q.Index != i || q.Total != 3 {
			t.Fatalf("unexpected question position %d/%d", q.Index, q.Total)
		}
		res := answerCorrectly(t, h, q)
		if res.Elapsed != 2*time.Second {
			t.Fatalf("elapsed = %v", res.Elapsed)
		}
		next, ok, err := h.ctl.Next(ctx)
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		if !ok {
			if !res.Last {
				t.Fatalf("session ended before the last question")
			}
			break
		}
		q = next
	}
	if h.ctl.Phase() != PhaseEnded {
		t.Fatalf("phase = %v", h.ctl.Phase())
	}
	sum := h.ctl.Summary()
	if sum.Score != 3 || sum.Total != 3 || !sum.NewRecord || sum.Previous != nil {
		t.Fatalf("unexpected summary %+v", sum)
	}
	if sum.Elapsed != 6*time.Second || sum.ModeKey != "arithmetic|3|10" {
		t.Fatalf("unexpected summary %+v", sum)
	}
	best, err := h.records.Get(ctx, sum.ModeKey)
	if err != nil || best == nil {
		t.Fatalf("record not stored: %v", err)
	}
	if best.Score != 3 || best.Time != 6 {
		t.Fatalf("unexpected record %+v", best)
	}
	logged, err := h.sessions.List(ctx, model.StatsConfig{})
	if err != nil || len(logged) != 1 || logged[0].ElapsedMs != 6000 {
		t.Fatalf("expected one logged session, got %+v err=%v", logged, err)
	}
}

func TestTimeoutCountsWrongWithFullAllotment(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	q, err := h.ctl.Start(ctx, arithmeticConfig(2, 5))
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	h.clock.Advance(5 * time.Second)
	if h.ctl.Remaining() != 0 {
		t.Fatalf("expected no time remaining")
	}
	res, err := h.ctl.Expire(ctx, q.Seq)
	if err != nil {
		t.Fatalf("expire: %v", err)
	}
	if res.Correct || !res.TimedOut || res.Elapsed != 5*time.Second {
		t.Fatalf("unexpected resolution %+v", res)
	}
	rec, ok := h.stats.ItemRecord(q.Item.ID)
	if !ok || rec.Attempts != 1 || rec.Wrongs != 1 {
		t.Fatalf("expected wrong outcome recorded, got %+v", rec)
	}
	if _, err := h.ctl.Answer(ctx, strconv.Itoa(q.Item.Product())); !errors.Is(err, ErrLocked) {
		t.Fatalf("late answer must be locked, got %v", err)
	}
	if _, err := h.ctl.Expire(ctx, q.Seq); !errors.Is(err, ErrLocked) {
		t.Fatalf("second expiry must be locked, got %v", err)
	}
	rec, _ = h.stats.ItemRecord(q.Item.ID)
	if rec.Attempts != 1 {
		t.Fatalf("question resolved twice: %+v", rec)
	}
}

func TestAnswerAfterDeadlineResolvesAsTimeout(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	q, err := h.ctl.Start(ctx, arithmeticConfig(1, 3))
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	h.clock.Advance(4 * time.Second)
	res, err := h.ctl.Answer(ctx, strconv.Itoa(q.Item.Product()))
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if res.Correct || !res.TimedOut || res.Elapsed != 3*time.Second {
		t.Fatalf("expected timeout resolution, got %+v", res)
	}
}

func TestStaleExpiryIsIgnored(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	first, err := h.ctl.Start(ctx, arithmeticConfig(3, 10))
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	answerCorrectly(t, h, first)
	second, ok, err := h.ctl.Next(ctx)
	if err != nil || !ok {
		t.Fatalf("next: ok=%v err=%v", ok, err)
	}
	if _, err := h.ctl.Expire(ctx, first.Seq); !errors.Is(err, ErrLocked) {
		t.Fatalf("stale expiry must be ignored, got %v", err)
	}
	if h.ctl.Locked() {
		t.Fatalf("current question must stay open")
	}
	if cur, _ := h.ctl.Current(); cur.Seq != second.Seq {
		t.Fatalf("current question changed")
	}
}

func TestDoubleSubmitAndInvalidInput(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	q, err := h.ctl.Start(ctx, arithmeticConfig(2, 10))
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := h.ctl.Answer(ctx, "abc"); !errors.Is(err, ErrInvalidAnswer) {
		t.Fatalf("expected ErrInvalidAnswer, got %v", err)
	}
	if h.ctl.Locked() {
		t.Fatalf("invalid input must not lock the question")
	}
	if _, _, err := h.ctl.Next(ctx); !errors.Is(err, ErrPending) {
		t.Fatalf("expected ErrPending, got %v", err)
	}
	answerCorrectly(t, h, q)
	if _, err := h.ctl.Answer(ctx, strconv.Itoa(q.Item.Product())); !errors.Is(err, ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
	if h.ctl.Score() != 1 {
		t.Fatalf("score = %d", h.ctl.Score())
	}
}

func TestWorseSessionKeepsRecord(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	prev := model.BestRecord{Score: 2, Total: 2, Time: 1.5, Timestamp: 1}
	if _, _, err := h.records.Submit(ctx, "arithmetic|2|10", prev); err != nil {
		t.Fatalf("seed record: %v", err)
	}
	q, err := h.ctl.Start(ctx, arithmeticConfig(2, 10))
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	for {
		h.clock.Advance(time.Second)
		if _, err := h.ctl.Answer(ctx, strconv.Itoa(q.Item.Product()+1)); err != nil {
			t.Fatalf("answer: %v", err)
		}
		next, ok, err := h.ctl.Next(ctx)
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		if !ok {
			break
		}
		q = next
	}
	sum := h.ctl.Summary()
	if sum.NewRecord || sum.Previous == nil || sum.Previous.Score != 2 {
		t.Fatalf("expected previous record kept, got %+v", sum)
	}
	best, _ := h.records.Get(ctx, "arithmetic|2|10")
	if best.Score != 2 || best.Time != 1.5 {
		t.Fatalf("record overwritten: %+v", best)
	}
	if sum.Verdict != Verdict(0, 2) {
		t.Fatalf("verdict = %q", sum.Verdict)
	}
}

func TestSpellingNeverRepeatsWithinSession(t *testing.T) {
	ctx := context.Background()
	pool := []model.Item{
		{ID: "a", Domain: model.DomainSpelling, Masked: "b_t", Full: "bit", Options: []string{"i", "y"}, Category: "i/y"},
		{ID: "b", Domain: model.DomainSpelling, Masked: "m_th", Full: "myth", Options: []string{"i", "y"}, Answer: 1, Category: "i/y"},
		{ID: "c", Domain: model.DomainSpelling, Masked: "s_t", Full: "sit", Options: []string{"i", "y"}, Category: "i/y"},
	}
	h := newHarness(t, WithPool(pool))
	cfg := model.Config{Domain: model.DomainSpelling, Tasks: 3, Seconds: 10, ExclusionDepth: 0, HistorySize: 20}
	q, err := h.ctl.Start(ctx, cfg)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	seen := map[string]bool{}
	for {
		if seen[q.Item.ID] {
			t.Fatalf("item %q repeated", q.Item.ID)
		}
		seen[q.Item.ID] = true
		h.clock.Advance(time.Second)
		res, err := h.ctl.Answer(ctx, q.Item.CorrectOption())
		if err != nil || !res.Correct {
			t.Fatalf("answer by option text: correct=%v err=%v", res.Correct, err)
		}
		next, ok, err := h.ctl.Next(ctx)
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		if !ok {
			break
		}
		q = next
	}
	if len(seen) != 3 {
		t.Fatalf("expected all items served once, got %v", seen)
	}
	cat, ok := h.stats.CategoryRecord("i/y")
	if !ok || cat.Attempts != 3 || cat.Wrongs != 0 {
		t.Fatalf("unexpected category record %+v", cat)
	}
	if h.ctl.Summary().ModeKey != "spelling|3|10" {
		t.Fatalf("mode key = %q", h.ctl.Summary().ModeKey)
	}
}

func TestCheckAnswerSpellingForms(t *testing.T) {
	item := model.Item{Domain: model.DomainSpelling, Masked: "m_th", Full: "myth", Options: []string{"i", "y"}, Answer: 1}
	cases := []struct {
		input   string
		correct bool
		ok      bool
	}{
		{"2", true, true},
		{"1", false, true},
		{"3", false, false},
		{" Y ", true, true},
		{"i", false, true},
		{"MYTH", true, true},
		{"math", false, false},
		{"", false, false},
	}
	for _, tc := range cases {
		correct, ok := checkAnswer(item, tc.input)
		if correct != tc.correct || ok != tc.ok {
			t.Fatalf("checkAnswer(%q) = %v,%v want %v,%v", tc.input, correct, ok, tc.correct, tc.ok)
		}
	}
}

func TestAbandonReturnsToIdle(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	q, err := h.ctl.Start(ctx, arithmeticConfig(5, 10))
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	h.ctl.Abandon()
	if h.ctl.Phase() != PhaseIdle {
		t.Fatalf("phase = %v", h.ctl.Phase())
	}
	if _, err := h.ctl.Answer(ctx, "1"); !errors.Is(err, ErrNotRunning) {
		t.Fatalf("expected ErrNotRunning, got %v", err)
	}
	if _, err := h.ctl.Expire(ctx, q.Seq); !errors.Is(err, ErrNotRunning) {
		t.Fatalf("expected ErrNotRunning, got %v", err)
	}
	if _, ok := h.stats.ItemRecord(q.Item.ID); ok {
		t.Fatalf("abandoned question must not be recorded")
	}
	if recs, _ := h.records.List(ctx); len(recs) != 0 {
		t.Fatalf("abandoned session must not submit a record")
	}
}

func TestRestartResetsSession(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	q, err := h.ctl.Start(ctx, arithmeticConfig(2, 10))
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	answerCorrectly(t, h, q)
	q, err = h.ctl.Restart(ctx)
	if err != nil {
		t.Fatalf("restart: %v", err)
	}
	if q.Index != 1 || h.ctl.Score() != 0 || h.ctl.Phase() != PhaseRunning {
		t.Fatalf("restart did not reset: index=%d score=%d", q.Index, h.ctl.Score())
	}
}

func TestNormalize(t *testing.T) {
	cfg := Normalize(model.Config{Tasks: -1, Seconds: 1, HistorySize: 3, ExclusionDepth: 9})
	if cfg.Domain != model.DomainArithmetic || cfg.Tasks != DefaultTasks || cfg.Seconds != MinSeconds {
		t.Fatalf("unexpected normalized config %+v", cfg)
	}
	if cfg.ExclusionDepth != 3 {
		t.Fatalf("depth must not exceed history size, got %d", cfg.ExclusionDepth)
	}
	if got := Normalize(model.Config{Seconds: 500}).Seconds; got != MaxSeconds {
		t.Fatalf("seconds = %d", got)
	}
	if got := Normalize(model.Config{}).Seconds; got != DefaultSeconds {
		t.Fatalf("seconds = %d", got)
	}
	if got := Normalize(model.Config{}).ExclusionDepth; got != selector.DefaultDepth {
		t.Fatalf("unset depth = %d, want %d", got, selector.DefaultDepth)
	}
}

func TestUnsetDepthKeepsRecentFactsOut(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.ctl = New(h.stats, h.records, WithClock(h.clock.Now))
	cfg := model.Config{Domain: model.DomainArithmetic, Tasks: 400, Seconds: 10, TableSize: 3, Seed: 1}
	q, err := h.ctl.Start(ctx, cfg)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if got := h.ctl.Config().ExclusionDepth; got != selector.DefaultDepth {
		t.Fatalf("depth = %d", got)
	}
	prev := ""
	served := 0
	for {
		served++
		if q.Item.ID == prev {
			t.Fatalf("question %d repeats %s", q.Index, q.Item.ID)
		}
		prev = q.Item.ID
		h.clock.Advance(time.Second)
		if _, err := h.ctl.Answer(ctx, strconv.Itoa(q.Item.Product())); err != nil {
			t.Fatalf("answer: %v", err)
		}
		next, ok, err := h.ctl.Next(ctx)
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		if !ok {
			break
		}
		q = next
	}
	if served != 400 {
		t.Fatalf("served %d questions", served)
	}
}

func TestStartRebuildsSelectorFromConfig(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.ctl = New(h.stats, h.records, WithClock(h.clock.Now))
	cfg := arithmeticConfig(2, 10)
	cfg.ExclusionDepth = 2
	cfg.Seed = 3
	if _, err := h.ctl.Start(ctx, cfg); err != nil {
		t.Fatalf("start: %v", err)
	}
	first := h.ctl.sel
	if first.Depth() != 2 {
		t.Fatalf("depth = %d", first.Depth())
	}
	cfg.ExclusionDepth = 4
	cfg.Seed = 9
	if _, err := h.ctl.Start(ctx, cfg); err != nil {
		t.Fatalf("start: %v", err)
	}
	if h.ctl.sel == first || h.ctl.sel.Depth() != 4 {
		t.Fatalf("selector not rebuilt: depth=%d", h.ctl.sel.Depth())
	}
}

func TestInjectedSelectorSurvivesStart(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	injected := h.ctl.sel
	cfg := arithmeticConfig(2, 10)
	cfg.ExclusionDepth = 1
	if _, err := h.ctl.Start(ctx, cfg); err != nil {
		t.Fatalf("start: %v", err)
	}
	if h.ctl.sel != injected {
		t.Fatalf("injected selector replaced")
	}
}

func TestFiveQuestionMixedSession(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	q, err := h.ctl.Start(ctx, arithmeticConfig(5, 10))
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	served := 0
	for {
		served++
		it := q.Item
		if it.X < 1 || it.X > 10 || it.Y < 1 || it.Y > 10 {
			t.Fatalf("operands out of range: %d × %d", it.X, it.Y)
		}
		if q.Index != served || q.Total != 5 || q.Limit != 10*time.Second {
			t.Fatalf("unexpected question %d/%d limit %v", q.Index, q.Total, q.Limit)
		}
		var res Resolution
		switch served {
		case 1, 4:
			res = answerCorrectly(t, h, q)
		case 2:
			h.clock.Advance(3 * time.Second)
			res, err = h.ctl.Answer(ctx, strconv.Itoa(it.Product()+1))
		case 3:
			h.clock.Advance(10 * time.Second)
			res, err = h.ctl.Expire(ctx, q.Seq)
		default:
			h.clock.Advance(11 * time.Second)
			res, err = h.ctl.Answer(ctx, strconv.Itoa(it.Product()))
		}
		if err != nil {
			t.Fatalf("question %d: %v", served, err)
		}
		if served == 2 && (res.Correct || res.TimedOut) {
			t.Fatalf("wrong answer resolved as %+v", res)
		}
		if (served == 3 || served == 5) && (!res.TimedOut || res.Elapsed != 10*time.Second) {
			t.Fatalf("question %d should time out with the full allotment, got %+v", served, res)
		}
		next, ok, err := h.ctl.Next(ctx)
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		if !ok {
			break
		}
		q = next
	}
	if served != 5 {
		t.Fatalf("served %d questions", served)
	}
	if h.ctl.Phase() != PhaseEnded {
		t.Fatalf("phase = %v", h.ctl.Phase())
	}
	sum := h.ctl.Summary()
	if sum.Score < 0 || sum.Score > 5 || sum.Score != 2 || sum.Total != 5 {
		t.Fatalf("unexpected summary %+v", sum)
	}
	if sum.ModeKey != "arithmetic|5|10" {
		t.Fatalf("mode key = %q", sum.ModeKey)
	}
}

func TestVerdictThresholds(t *testing.T) {
	if Verdict(19, 20) == Verdict(17, 20) {
		t.Fatalf("95%% and 85%% must differ")
	}
	if Verdict(17, 20) != Verdict(18, 20) {
		t.Fatalf("85%% and 90%% share a band")
	}
	if Verdict(9, 20) == Verdict(10, 20) {
		t.Fatalf("45%% and 50%% must differ")
	}
}

func TestFormatRemaining(t *testing.T) {
	cases := map[time.Duration]string{
		0:                         "00:00",
		-time.Second:              "00:00",
		100 * time.Millisecond:    "00:01",
		10 * time.Second:          "00:10",
		119500 * time.Millisecond: "02:00",
	}
	for d, want := range cases {
		if got := FormatRemaining(d); got != want {
			t.Fatalf("FormatRemaining(%v) = %q, want %q", d, got, want)
		}
	}
}

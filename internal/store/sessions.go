package store

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/verte-zerg/tuiquiz/internal/model"
)

// SessionsNS holds the completed-session log. Keys are ULIDs so key order is
// chronological.
const SessionsNS = "sessions"

// Sessions is the append-only log of completed sessions.
type Sessions struct {
	ns      Namespace
	entropy *rand.Rand
	warn    func(format string, args ...any)
}

// NewSessions returns a session log on kv.
func NewSessions(kv KV, opts ...Option) *Sessions {
	o := buildOptions(opts)
	return &Sessions{
		ns:      NewNamespace(kv, SessionsNS),
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
		warn:    o.warn,
	}
}

// Insert appends a session and returns its id.
func (s *Sessions) Insert(ctx context.Context, rec model.SessionRecord) (string, error) {
	ts := rec.EndedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	rec.ID = ulid.MustNew(ulid.Timestamp(ts), s.entropy).String()
	if err := s.ns.SetJSON(ctx, rec.ID, rec); err != nil {
		return "", err
	}
	return rec.ID, nil
}

// List returns sessions in chronological order, filtered by domain and
// trimmed to the last cfg.Last entries.
func (s *Sessions) List(ctx context.Context, cfg model.StatsConfig) ([]model.SessionRecord, error) {
	entries, err := s.ns.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	var out []model.SessionRecord
	for _, e := range entries {
		var rec model.SessionRecord
		if err := json.Unmarshal(e.Value, &rec); err != nil {
			s.warn("ignoring corrupt session %q: %v\n", e.Key, err)
			continue
		}
		if cfg.Domain != "" && rec.Domain != cfg.Domain {
			continue
		}
		out = append(out, rec)
	}
	if cfg.Last > 0 && len(out) > cfg.Last {
		out = out[len(out)-cfg.Last:]
	}
	return out, nil
}

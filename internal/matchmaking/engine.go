package matchmaking

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/IdanG7/matchmaker-platform/internal/domains/entities"
)

// Config holds the engine's matchmaking knobs. Bound at construction,
// immutable afterwards.
type Config struct {
	// BandInitial is the MMR tolerance at zero wait time.
	BandInitial int
	// BandMax caps the tolerance regardless of wait.
	BandMax int
	// BandGrowthPerSec widens the tolerance per second of wait.
	BandGrowthPerSec int
	// MaxWaitTime is the age beyond which an entry is silently evicted.
	MaxWaitTime time.Duration
	// MinMatchQuality is the lower bound on quality for a match to be emitted.
	MinMatchQuality float64
	// TickInterval is the cadence the driver is expected to honor. The engine
	// itself never sleeps.
	TickInterval time.Duration
	// NumTeams is the number of teams per match.
	NumTeams int
}

func DefaultConfig() Config {
	return Config{
		BandInitial:      100,
		BandMax:          500,
		BandGrowthPerSec: 10,
		MaxWaitTime:      120 * time.Second,
		MinMatchQuality:  0.6,
		TickInterval:     200 * time.Millisecond,
		NumTeams:         2,
	}
}

func (c Config) validate() error {
	if c.BandInitial < 0 || c.BandMax < c.BandInitial || c.BandGrowthPerSec < 0 {
		return fmt.Errorf("invalid MMR band config: initial=%d max=%d growth=%d",
			c.BandInitial, c.BandMax, c.BandGrowthPerSec)
	}
	if c.MaxWaitTime <= 0 {
		return fmt.Errorf("max wait time must be positive, got %s", c.MaxWaitTime)
	}
	if c.MinMatchQuality < 0 || c.MinMatchQuality > 1 {
		return fmt.Errorf("min match quality must be in [0, 1], got %f", c.MinMatchQuality)
	}
	if c.NumTeams != 2 {
		return fmt.Errorf("unsupported team count %d: only 2-team matches are supported", c.NumTeams)
	}
	return nil
}

// Option customizes an Engine at construction.
type Option func(*Engine)

// WithClock replaces the engine's time source. Tests inject a fixed clock.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithMatchIDSource replaces the match id generator. Tests inject a seedable
// one; the default draws UUIDv4 from the platform entropy source.
func WithMatchIDSource(newID func() string) Option {
	return func(e *Engine) { e.newMatchID = newID }
}

// Engine is the public surface of the matchmaking core. It owns the bucket
// index and is single-owner: all operations must run on the driver goroutine.
type Engine struct {
	cfg        Config
	index      *BucketIndex
	builder    *TeamBuilder
	now        func() time.Time
	newMatchID func() string
}

func NewEngine(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		cfg:        cfg,
		index:      NewBucketIndex(),
		builder:    NewTeamBuilder(cfg.NumTeams, cfg.MinMatchQuality),
		now:        time.Now,
		newMatchID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Enqueue validates the entry and inserts it into its bucket. A zero
// EnqueuedAt is stamped with the engine's clock. Validation failures leave
// the engine unchanged.
func (e *Engine) Enqueue(entry entities.QueueEntry) error {
	if err := validateEntry(entry); err != nil {
		return err
	}
	if entry.EnqueuedAt.IsZero() {
		entry.EnqueuedAt = e.now()
	}
	return e.index.Insert(entry)
}

// Dequeue removes the party if queued. Unknown parties are a no-op.
func (e *Engine) Dequeue(partyID string) {
	e.index.Remove(partyID)
}

func (e *Engine) IsQueued(partyID string) bool {
	return e.index.Contains(partyID)
}

func (e *Engine) Size() int {
	return e.index.Size()
}

func (e *Engine) SizeOf(key entities.BucketKey) int {
	return e.index.SizeOf(key)
}

func (e *Engine) SizesByKey() map[string]int {
	return e.index.SizesByKey()
}

// Tick runs one match-forming cycle and returns the matches committed during
// it. A single timestamp captured at entry governs every age calculation in
// the cycle. Parties appearing in a returned match, and parties older than
// MaxWaitTime, are gone from the index when Tick returns.
func (e *Engine) Tick() []entities.MatchResult {
	now := e.now()
	var matches []entities.MatchResult

	for _, key := range e.index.Keys() {
		e.evictTimedOut(key, now)

		for e.index.SizeOf(key) >= e.cfg.NumTeams {
			view := e.index.BucketView(key)
			tolerance := e.tolerance(view[0], now)

			result, ok := e.builder.TryFormMatch(view, key.TeamSize, tolerance)
			if !ok {
				break
			}
			e.verifyRosters(result, key)

			result.MatchID = e.newMatchID()
			result.Region = key.Region
			result.Mode = key.Mode
			result.TeamSize = key.TeamSize

			e.index.RemoveMany(result.PartyIDs)
			matches = append(matches, result)
		}
	}

	return matches
}

// tolerance is the permitted MMR spread for a match anchored on this entry,
// growing linearly with its wait and capped at BandMax.
func (e *Engine) tolerance(entry entities.QueueEntry, now time.Time) int {
	waitSec := int(now.Sub(entry.EnqueuedAt).Seconds())
	if waitSec < 0 {
		waitSec = 0
	}
	band := e.cfg.BandInitial + waitSec*e.cfg.BandGrowthPerSec
	if band > e.cfg.BandMax {
		band = e.cfg.BandMax
	}
	return band
}

func (e *Engine) evictTimedOut(key entities.BucketKey, now time.Time) {
	var expired []string
	for _, entry := range e.index.BucketView(key) {
		if now.Sub(entry.EnqueuedAt) > e.cfg.MaxWaitTime {
			expired = append(expired, entry.PartyID)
		}
	}
	if len(expired) > 0 {
		e.index.RemoveMany(expired)
	}
}

// verifyRosters aborts on a malformed match out of the team builder. A bad
// roster is an engine defect, never something to hand downstream.
func (e *Engine) verifyRosters(result entities.MatchResult, key entities.BucketKey) {
	if len(result.Teams) != e.cfg.NumTeams {
		panic(fmt.Sprintf("matchmaking: got %d teams, want %d", len(result.Teams), e.cfg.NumTeams))
	}
	seen := make(map[string]struct{}, key.TeamSize*e.cfg.NumTeams)
	for _, roster := range result.Teams {
		if len(roster) != key.TeamSize {
			panic(fmt.Sprintf("matchmaking: roster has %d players, want %d", len(roster), key.TeamSize))
		}
		for _, playerID := range roster {
			if _, dup := seen[playerID]; dup {
				panic(fmt.Sprintf("matchmaking: player %s assigned to more than one team", playerID))
			}
			seen[playerID] = struct{}{}
		}
	}
}

func validateEntry(entry entities.QueueEntry) error {
	switch {
	case entry.PartyID == "":
		return fmt.Errorf("%w: empty party id", ErrInvalidEntry)
	case entry.Region == "":
		return fmt.Errorf("%w: empty region", ErrInvalidEntry)
	case entry.Mode == "":
		return fmt.Errorf("%w: empty mode", ErrInvalidEntry)
	case entry.TeamSize < 1:
		return fmt.Errorf("%w: team size %d", ErrInvalidEntry, entry.TeamSize)
	case entry.PartySize < 1 || entry.PartySize > entry.TeamSize:
		return fmt.Errorf("%w: party size %d for team size %d", ErrInvalidEntry, entry.PartySize, entry.TeamSize)
	case len(entry.PlayerIDs) != entry.PartySize:
		return fmt.Errorf("%w: %d player ids for party size %d", ErrInvalidEntry, len(entry.PlayerIDs), entry.PartySize)
	}
	for _, playerID := range entry.PlayerIDs {
		if playerID == "" {
			return fmt.Errorf("%w: empty player id", ErrInvalidEntry)
		}
	}
	return nil
}

package matchmaker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/IdanG7/matchmaker-platform/internal/matchmaking"
	"github.com/IdanG7/matchmaker-platform/internal/transport"
	"github.com/IdanG7/matchmaker-platform/pkg/logging"
)

// Service drives the matchmaking engine: it is the engine's single owner,
// draining inbound queue events and ticking on a fixed cadence. Transport
// callbacks hand events over through the inbox channel; nothing touches the
// engine from any other goroutine.
type Service struct {
	cfg    Config
	engine *matchmaking.Engine
	sink   transport.Publisher
	inbox  chan transport.QueueEvent

	totalMatches uint64
}

func NewService(cfg Config, engine *matchmaking.Engine, sink transport.Publisher) *Service {
	return &Service{
		cfg:    cfg,
		engine: engine,
		sink:   sink,
		inbox:  make(chan transport.QueueEvent, 1024),
	}
}

// HandleQueueEvent enqueues an inbound event for the engine goroutine. Safe
// to call from transport callbacks; blocks when the inbox is full, which
// backpressures the subscription.
func (s *Service) HandleQueueEvent(ev transport.QueueEvent) {
	s.inbox <- ev
}

// Run loops until the context is cancelled, interleaving inbound events with
// tick and stats timers.
func (s *Service) Run(ctx context.Context) error {
	tick := time.NewTicker(s.cfg.Engine.TickInterval)
	defer tick.Stop()
	stats := time.NewTicker(s.cfg.StatsInterval)
	defer stats.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-s.inbox:
			s.apply(ev)
		case <-tick.C:
			s.runTick()
		case <-stats.C:
			s.logStats()
		}
	}
}

func (s *Service) apply(ev transport.QueueEvent) {
	switch ev.EventType {
	case transport.EventQueueEnter:
		if err := s.engine.Enqueue(ev.Entry()); err != nil {
			logging.Error("failed to enqueue party",
				zap.String("party_id", ev.PartyID),
				zap.Error(err),
			)
			return
		}
		logging.Info("party queued",
			zap.String("party_id", ev.PartyID),
			zap.String("region", ev.Region),
			zap.String("mode", ev.Mode),
			zap.Int("avg_mmr", ev.AvgMMR),
		)
	case transport.EventQueueLeave:
		s.engine.Dequeue(ev.PartyID)
		logging.Info("party left queue", zap.String("party_id", ev.PartyID))
	default:
		logging.Warn("unknown queue event type", zap.String("event_type", ev.EventType))
	}
}

func (s *Service) runTick() {
	start := time.Now()
	matches := s.engine.Tick()

	for _, match := range matches {
		if err := s.sink.PublishMatchFound(match); err != nil {
			logging.Error("failed to publish match",
				zap.String("match_id", match.MatchID),
				zap.Error(err),
			)
			continue
		}
		s.totalMatches++
		logging.Info("match formed",
			zap.String("match_id", match.MatchID),
			zap.String("region", match.Region),
			zap.String("mode", match.Mode),
			zap.Int("avg_mmr", match.AvgMMR),
			zap.Float64("quality_score", match.QualityScore),
		)
	}

	if elapsed := time.Since(start); elapsed > s.cfg.Engine.TickInterval {
		logging.Warn("tick overran interval",
			zap.Duration("elapsed", elapsed),
			zap.Duration("interval", s.cfg.Engine.TickInterval),
		)
	}
}

func (s *Service) logStats() {
	sizes := s.engine.SizesByKey()
	logging.Info("matchmaking stats",
		zap.Int("total_queued", s.engine.Size()),
		zap.Uint64("total_matches", s.totalMatches),
		zap.Int("buckets", len(sizes)),
		zap.Any("bucket_sizes", sizes),
	)
}

package transport

import (
	"github.com/IdanG7/matchmaker-platform/internal/domains/entities"
)

// FakePublisher records published matches in memory. Safe for the tests'
// single publishing goroutine plus one reader through the channel.
type FakePublisher struct {
	Matches chan entities.MatchResult
}

func NewFakePublisher() *FakePublisher {
	return &FakePublisher{
		Matches: make(chan entities.MatchResult, 64),
	}
}

func (p *FakePublisher) PublishMatchFound(match entities.MatchResult) error {
	p.Matches <- match
	return nil
}

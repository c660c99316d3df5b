package transport

import (
	"time"

	"github.com/IdanG7/matchmaker-platform/internal/domains/entities"
)

// Event types carried on the queue-events subject.
const (
	EventQueueEnter = "queue_enter"
	EventQueueLeave = "queue_leave"
)

// Default subjects. The gateway publishes queue events per mode and region
// under the matchmaker.queue prefix; the matchmaker subscribes with a
// wildcard and announces formed matches on match.found.
const (
	DefaultQueueSubject      = "matchmaker.queue.>"
	DefaultMatchFoundSubject = "match.found"
)

// QueueEvent is the inbound wire event for a party entering or leaving the
// queue. Leave events carry only party id, mode, and region.
type QueueEvent struct {
	EventType string    `json:"event_type"`
	PartyID   string    `json:"party_id"`
	Mode      string    `json:"mode"`
	TeamSize  int       `json:"team_size,omitempty"`
	AvgMMR    int       `json:"avg_mmr,omitempty"`
	Region    string    `json:"region"`
	PartySize int       `json:"party_size,omitempty"`
	PlayerIDs []string  `json:"player_ids,omitempty"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// Entry converts an enter event into a queue entry. A missing timestamp is
// left zero for the engine to stamp with its own clock.
func (ev QueueEvent) Entry() entities.QueueEntry {
	return entities.QueueEntry{
		PartyID:    ev.PartyID,
		Region:     ev.Region,
		Mode:       ev.Mode,
		TeamSize:   ev.TeamSize,
		PartySize:  ev.PartySize,
		AvgMMR:     ev.AvgMMR,
		PlayerIDs:  ev.PlayerIDs,
		EnqueuedAt: ev.Timestamp,
	}
}

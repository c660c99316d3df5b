package entities

import (
	"strconv"
	"time"
)

// QueueEntry is one party's presence in the matchmaking queue. Entries are
// immutable once enqueued; aging is derived from EnqueuedAt.
type QueueEntry struct {
	PartyID    string    `json:"party_id"`
	Region     string    `json:"region"`
	Mode       string    `json:"mode"`
	TeamSize   int       `json:"team_size"`
	PartySize  int       `json:"party_size"`
	AvgMMR     int       `json:"avg_mmr"`
	PlayerIDs  []string  `json:"player_ids"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// Bucket returns the compatibility key this entry is queued under.
func (e QueueEntry) Bucket() BucketKey {
	return BucketKey{
		Region:   e.Region,
		Mode:     e.Mode,
		TeamSize: e.TeamSize,
	}
}

// BucketKey partitions the queue. Two parties may only match each other if
// their keys are equal.
type BucketKey struct {
	Region   string
	Mode     string
	TeamSize int
}

func (k BucketKey) String() string {
	return k.Region + ":" + k.Mode + ":" + strconv.Itoa(k.TeamSize)
}

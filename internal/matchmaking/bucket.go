package matchmaking

import (
	"fmt"
	"sort"

	"github.com/IdanG7/matchmaker-platform/internal/domains/entities"
)

// BucketIndex holds every live queue entry, partitioned by bucket key. It owns
// the entries: lookups by party id resolve through a side map holding only the
// key. The index is not safe for concurrent use; the engine is its single
// owner.
type BucketIndex struct {
	buckets map[entities.BucketKey][]entities.QueueEntry
	parties map[string]entities.BucketKey
}

func NewBucketIndex() *BucketIndex {
	return &BucketIndex{
		buckets: make(map[entities.BucketKey][]entities.QueueEntry),
		parties: make(map[string]entities.BucketKey),
	}
}

// Insert adds the entry to its bucket, keeping the bucket ordered by
// EnqueuedAt. Entries arrive in near-time order, so the common case appends.
func (x *BucketIndex) Insert(entry entities.QueueEntry) error {
	if _, ok := x.parties[entry.PartyID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateParty, entry.PartyID)
	}

	key := entry.Bucket()
	bucket := x.buckets[key]
	i := sort.Search(len(bucket), func(i int) bool {
		return bucket[i].EnqueuedAt.After(entry.EnqueuedAt)
	})
	bucket = append(bucket, entities.QueueEntry{})
	copy(bucket[i+1:], bucket[i:])
	bucket[i] = entry

	x.buckets[key] = bucket
	x.parties[entry.PartyID] = key
	return nil
}

// Remove drops the party if present. Removing an absent party is a no-op.
func (x *BucketIndex) Remove(partyID string) {
	key, ok := x.parties[partyID]
	if !ok {
		return
	}
	x.removeFromBucket(key, map[string]struct{}{partyID: {}})
}

// RemoveMany drops every listed party in one pass, used when a match is
// committed or a batch of entries times out.
func (x *BucketIndex) RemoveMany(partyIDs []string) {
	byKey := make(map[entities.BucketKey]map[string]struct{})
	for _, id := range partyIDs {
		key, ok := x.parties[id]
		if !ok {
			continue
		}
		if byKey[key] == nil {
			byKey[key] = make(map[string]struct{})
		}
		byKey[key][id] = struct{}{}
	}
	for key, ids := range byKey {
		x.removeFromBucket(key, ids)
	}
}

func (x *BucketIndex) removeFromBucket(key entities.BucketKey, ids map[string]struct{}) {
	bucket := x.buckets[key]
	kept := bucket[:0]
	for _, e := range bucket {
		if _, drop := ids[e.PartyID]; drop {
			delete(x.parties, e.PartyID)
			continue
		}
		kept = append(kept, e)
	}
	if len(kept) == 0 {
		delete(x.buckets, key)
		return
	}
	x.buckets[key] = kept
}

func (x *BucketIndex) Contains(partyID string) bool {
	_, ok := x.parties[partyID]
	return ok
}

// BucketView returns a copy of one bucket's entries, oldest first. The caller
// may keep the slice across later index mutations.
func (x *BucketIndex) BucketView(key entities.BucketKey) []entities.QueueEntry {
	bucket, ok := x.buckets[key]
	if !ok {
		return nil
	}
	view := make([]entities.QueueEntry, len(bucket))
	copy(view, bucket)
	return view
}

// Keys returns the key of every non-empty bucket, in no particular order.
func (x *BucketIndex) Keys() []entities.BucketKey {
	keys := make([]entities.BucketKey, 0, len(x.buckets))
	for key := range x.buckets {
		keys = append(keys, key)
	}
	return keys
}

func (x *BucketIndex) Size() int {
	return len(x.parties)
}

func (x *BucketIndex) SizeOf(key entities.BucketKey) int {
	return len(x.buckets[key])
}

func (x *BucketIndex) SizesByKey() map[string]int {
	sizes := make(map[string]int, len(x.buckets))
	for key, bucket := range x.buckets {
		sizes[key.String()] = len(bucket)
	}
	return sizes
}

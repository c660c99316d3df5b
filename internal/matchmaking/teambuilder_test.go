package matchmaking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IdanG7/matchmaker-platform/internal/domains/entities"
)

func builderEntry(partyID string, mmr, partySize int, enqueuedAt time.Time) entities.QueueEntry {
	playerIDs := make([]string, partySize)
	for i := range playerIDs {
		playerIDs[i] = partyID + "_p" + string(rune('a'+i))
	}
	return entities.QueueEntry{
		PartyID:    partyID,
		Region:     "us-west",
		Mode:       "ranked",
		TeamSize:   5,
		PartySize:  partySize,
		AvgMMR:     mmr,
		PlayerIDs:  playerIDs,
		EnqueuedAt: enqueuedAt,
	}
}

func allPlayers(result entities.MatchResult) []string {
	var players []string
	for _, roster := range result.Teams {
		players = append(players, roster...)
	}
	return players
}

func TestTeamBuilder_TenSolos(t *testing.T) {
	builder := NewTeamBuilder(2, 0.6)

	var candidates []entities.QueueEntry
	for i := 0; i < 10; i++ {
		candidates = append(candidates,
			builderEntry("party"+string(rune('0'+i)), 1500+i*10, 1, baseTime.Add(time.Duration(i)*time.Second)))
	}

	result, ok := builder.TryFormMatch(candidates, 5, 200)
	require.True(t, ok)

	require.Len(t, result.Teams, 2)
	assert.Len(t, result.Teams[0], 5)
	assert.Len(t, result.Teams[1], 5)
	assert.Len(t, result.PartyIDs, 10)
	assert.Greater(t, result.QualityScore, 0.7)

	// Every player lands on exactly one roster.
	seen := make(map[string]int)
	for _, player := range allPlayers(result) {
		seen[player]++
	}
	require.Len(t, seen, 10)
	for player, count := range seen {
		assert.Equal(t, 1, count, "player %s rostered %d times", player, count)
	}
}

func TestTeamBuilder_InsufficientPlayers(t *testing.T) {
	builder := NewTeamBuilder(2, 0.6)

	var candidates []entities.QueueEntry
	for i := 0; i < 5; i++ {
		candidates = append(candidates,
			builderEntry("party"+string(rune('0'+i)), 1500, 1, baseTime))
	}

	_, ok := builder.TryFormMatch(candidates, 5, 200)
	assert.False(t, ok)
}

func TestTeamBuilder_ToleranceGate(t *testing.T) {
	builder := NewTeamBuilder(2, 0.6)

	candidates := []entities.QueueEntry{
		builderEntry("low", 1000, 5, baseTime),
		builderEntry("high", 2000, 5, baseTime.Add(time.Second)),
	}

	_, ok := builder.TryFormMatch(candidates, 5, 200)
	assert.False(t, ok)
}

func TestTeamBuilder_PartyStaysTogether(t *testing.T) {
	builder := NewTeamBuilder(2, 0.6)

	candidates := []entities.QueueEntry{
		builderEntry("trio", 1500, 3, baseTime),
	}
	for i := 0; i < 7; i++ {
		candidates = append(candidates,
			builderEntry("solo"+string(rune('0'+i)), 1500, 1, baseTime.Add(time.Duration(i+1)*time.Second)))
	}

	result, ok := builder.TryFormMatch(candidates, 5, 100)
	require.True(t, ok)
	assert.Len(t, allPlayers(result), 10)

	trio := candidates[0]
	for _, roster := range result.Teams {
		found := 0
		for _, player := range roster {
			for _, member := range trio.PlayerIDs {
				if player == member {
					found++
				}
			}
		}
		assert.Contains(t, []int{0, 3}, found, "trio must not be split across teams")
	}
}

func TestTeamBuilder_QualityFloor(t *testing.T) {
	builder := NewTeamBuilder(2, 0.6)

	// Legal under tolerance but lopsided: one full team at 1000, one at 1400.
	candidates := []entities.QueueEntry{
		builderEntry("low", 1000, 5, baseTime),
		builderEntry("high", 1400, 5, baseTime.Add(time.Second)),
	}

	_, ok := builder.TryFormMatch(candidates, 5, 500)
	assert.False(t, ok)

	// The same candidates pass once the floor allows them.
	lax := NewTeamBuilder(2, 0.5)
	result, ok := lax.TryFormMatch(candidates, 5, 500)
	require.True(t, ok)
	assert.Less(t, result.QualityScore, 0.6)
}

func TestTeamBuilder_PrefixGrowsUntilEnoughPlayers(t *testing.T) {
	builder := NewTeamBuilder(2, 0.6)

	// Required count is 4; the first two prefixes are short of players.
	candidates := []entities.QueueEntry{
		builderEntryWithTeamSize("a", 1500, 1, 2, baseTime),
		builderEntryWithTeamSize("b", 1500, 1, 2, baseTime.Add(time.Second)),
		builderEntryWithTeamSize("c", 1500, 1, 2, baseTime.Add(2*time.Second)),
		builderEntryWithTeamSize("d", 1500, 1, 2, baseTime.Add(3*time.Second)),
	}

	result, ok := builder.TryFormMatch(candidates, 2, 100)
	require.True(t, ok)
	assert.Len(t, result.PartyIDs, 4)
}

func TestTeamBuilder_InfeasibleSplitRejected(t *testing.T) {
	builder := NewTeamBuilder(2, 0.6)

	// 1+1+2 players for 2v2: the greedy pass seats the solos on opposite
	// teams and the duo has nowhere to go.
	candidates := []entities.QueueEntry{
		builderEntryWithTeamSize("solo1", 1500, 1, 2, baseTime),
		builderEntryWithTeamSize("solo2", 1500, 1, 2, baseTime.Add(time.Second)),
		builderEntryWithTeamSize("duo", 1500, 2, 2, baseTime.Add(2*time.Second)),
	}

	_, ok := builder.TryFormMatch(candidates, 2, 100)
	assert.False(t, ok)
}

func TestTeamBuilder_Deterministic(t *testing.T) {
	builder := NewTeamBuilder(2, 0.6)

	var candidates []entities.QueueEntry
	for i := 0; i < 12; i++ {
		candidates = append(candidates,
			builderEntry("party"+string(rune('a'+i)), 1480+i*7, 1, baseTime.Add(time.Duration(i)*time.Second)))
	}

	first, ok := builder.TryFormMatch(candidates, 5, 300)
	require.True(t, ok)
	second, ok := builder.TryFormMatch(candidates, 5, 300)
	require.True(t, ok)

	assert.Equal(t, first, second)
}

func TestTeamBuilder_MMRFigures(t *testing.T) {
	builder := NewTeamBuilder(2, 0.0)

	candidates := []entities.QueueEntry{
		builderEntry("low", 1400, 5, baseTime),
		builderEntry("high", 1600, 5, baseTime.Add(time.Second)),
	}

	result, ok := builder.TryFormMatch(candidates, 5, 500)
	require.True(t, ok)

	assert.Equal(t, 1500, result.AvgMMR)
	// Player-weighted population stddev: every player sits 100 from the mean.
	assert.Equal(t, 100, result.MMRVariance)
	// balance = 1 - 200/500, variance = 1 - 100/1000, wait = 1.
	assert.InDelta(t, 0.5*0.6+0.3*0.9+0.2, result.QualityScore, 1e-9)
}

func builderEntryWithTeamSize(partyID string, mmr, partySize, teamSize int, enqueuedAt time.Time) entities.QueueEntry {
	entry := builderEntry(partyID, mmr, partySize, enqueuedAt)
	entry.TeamSize = teamSize
	return entry
}

package matchmaking

import (
	"math"
	"sort"

	"github.com/IdanG7/matchmaker-platform/internal/domains/entities"
)

// Scoring model constants. These are part of the quality definition, not
// configuration.
const (
	balanceScale  = 500
	varianceScale = 1000

	balanceWeight  = 0.5
	varianceWeight = 0.3
	waitWeight     = 0.2
)

// TeamBuilder decides whether a legal, balanced match can be assembled from a
// bucket's candidates and, if so, assembles it. It is pure computation: no
// clock, no ids, no index access.
type TeamBuilder struct {
	numTeams   int
	minQuality float64
}

func NewTeamBuilder(numTeams int, minQuality float64) *TeamBuilder {
	return &TeamBuilder{
		numTeams:   numTeams,
		minQuality: minQuality,
	}
}

// TryFormMatch searches oldest-first candidates from a single bucket for the
// shortest prefix that fills every team within the MMR tolerance and clears
// the quality floor. The oldest candidate is a member of every prefix
// considered, so a newer party can never be matched past it.
//
// The returned result has rosters, party ids, and scores populated; the
// caller stamps match id and bucket dimensions.
func (b *TeamBuilder) TryFormMatch(candidates []entities.QueueEntry, teamSize, tolerance int) (entities.MatchResult, bool) {
	required := teamSize * b.numTeams

	available := 0
	for _, e := range candidates {
		available += e.PartySize
	}
	if available < required {
		return entities.MatchResult{}, false
	}

	players := 0
	minMMR, maxMMR := 0, 0
	for n, e := range candidates {
		players += e.PartySize
		if n == 0 {
			minMMR, maxMMR = e.AvgMMR, e.AvgMMR
		} else {
			minMMR = min(minMMR, e.AvgMMR)
			maxMMR = max(maxMMR, e.AvgMMR)
		}
		if n < 1 || players < required {
			continue
		}
		prefix := candidates[:n+1]

		if maxMMR-minMMR > tolerance {
			continue
		}

		teams, ok := b.balance(prefix, teamSize)
		if !ok {
			continue
		}

		result := buildResult(teams, teamSize)
		if result.QualityScore < b.minQuality {
			continue
		}
		return result, true
	}

	return entities.MatchResult{}, false
}

// balance assigns each party of the prefix to a full team roster, greedily
// and deterministically: highest MMR first, each party onto the team with the
// lowest summed weighted MMR that still has room. Fails if any party cannot
// be placed or any team ends short of teamSize.
func (b *TeamBuilder) balance(prefix []entities.QueueEntry, teamSize int) ([][]entities.QueueEntry, bool) {
	sorted := make([]entities.QueueEntry, len(prefix))
	copy(sorted, prefix)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].AvgMMR != sorted[j].AvgMMR {
			return sorted[i].AvgMMR > sorted[j].AvgMMR
		}
		if !sorted[i].EnqueuedAt.Equal(sorted[j].EnqueuedAt) {
			return sorted[i].EnqueuedAt.Before(sorted[j].EnqueuedAt)
		}
		return sorted[i].PartyID < sorted[j].PartyID
	})

	teams := make([][]entities.QueueEntry, b.numTeams)
	mmrSums := make([]int, b.numTeams)
	counts := make([]int, b.numTeams)

	for _, entry := range sorted {
		target := -1
		for i := 0; i < b.numTeams; i++ {
			if counts[i]+entry.PartySize > teamSize {
				continue
			}
			if target < 0 ||
				mmrSums[i] < mmrSums[target] ||
				(mmrSums[i] == mmrSums[target] && counts[i] < counts[target]) {
				target = i
			}
		}
		if target < 0 {
			return nil, false
		}
		teams[target] = append(teams[target], entry)
		mmrSums[target] += entry.AvgMMR * entry.PartySize
		counts[target] += entry.PartySize
	}

	for i := range counts {
		if counts[i] != teamSize {
			return nil, false
		}
	}
	return teams, true
}

// buildResult flattens team assignments into rosters and computes the
// aggregate MMR figures and the quality score.
func buildResult(teams [][]entities.QueueEntry, teamSize int) entities.MatchResult {
	var result entities.MatchResult
	result.Teams = make([][]string, len(teams))

	totalMMR := 0
	totalPlayers := 0
	for i, team := range teams {
		result.Teams[i] = make([]string, 0, teamSize)
		for _, entry := range team {
			result.Teams[i] = append(result.Teams[i], entry.PlayerIDs...)
			result.PartyIDs = append(result.PartyIDs, entry.PartyID)
			totalMMR += entry.AvgMMR * entry.PartySize
			totalPlayers += entry.PartySize
		}
	}

	result.AvgMMR = totalMMR / totalPlayers
	result.MMRVariance = mmrStddev(teams, result.AvgMMR, totalPlayers)
	result.QualityScore = qualityScore(teams, result.MMRVariance)
	return result
}

// mmrStddev is the player-weighted population standard deviation of party
// MMR, truncated to an integer.
func mmrStddev(teams [][]entities.QueueEntry, avgMMR, totalPlayers int) int {
	sumSquared := 0
	for _, team := range teams {
		for _, entry := range team {
			diff := entry.AvgMMR - avgMMR
			sumSquared += diff * diff * entry.PartySize
		}
	}
	return int(math.Sqrt(float64(sumSquared / totalPlayers)))
}

func qualityScore(teams [][]entities.QueueEntry, mmrVariance int) float64 {
	// Team balance: difference between player-weighted team means.
	minMean, maxMean := 0, 0
	for i, team := range teams {
		teamMMR := 0
		teamPlayers := 0
		for _, entry := range team {
			teamMMR += entry.AvgMMR * entry.PartySize
			teamPlayers += entry.PartySize
		}
		mean := teamMMR / teamPlayers
		if i == 0 {
			minMean, maxMean = mean, mean
		} else {
			minMean = min(minMean, mean)
			maxMean = max(maxMean, mean)
		}
	}
	balance := 1.0 - float64(min(maxMean-minMean, balanceScale))/balanceScale

	varianceScore := 1.0 - float64(min(mmrVariance, varianceScale))/varianceScale

	// Wait fairness is a flat placeholder until per-party wait weighting is
	// settled.
	waitScore := 1.0

	return balanceWeight*balance + varianceWeight*varianceScore + waitWeight*waitScore
}

package game

import (
	"sort"

	"kanjizoo/internal/domain"
)

// rankPlayers projects the player map into ordered standings. Scores sort
// descending; equal scores keep join order and share a rank (dense
// competition ranking: the rank only advances when the score strictly
// drops).
func rankPlayers(players map[string]*player) []domain.LeaderboardEntry {
	ids := make([]string, 0, len(players))
	for id := range players {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return players[ids[i]].joinOrder < players[ids[j]].joinOrder
	})
	sort.SliceStable(ids, func(i, j int) bool {
		return players[ids[i]].score > players[ids[j]].score
	})

	entries := make([]domain.LeaderboardEntry, 0, len(ids))
	rank := 1
	for i, id := range ids {
		p := players[id]
		if i > 0 && p.score < players[ids[i-1]].score {
			rank = i + 1
		}
		entries = append(entries, domain.LeaderboardEntry{
			Rank:  rank,
			Name:  p.name,
			Score: p.score,
			ID:    id,
		})
	}
	return entries
}

package entity

import (
	"cmp"
	"slices"
)

type LeaderboardEntry struct {
	Rank int    `json:"rank"`
	Name string `json:"name"`
	Wins int    `json:"wins"`
}

// RankLeaderboard orders wins descending; equal counts are ordered by name.
func RankLeaderboard(wins map[string]int) []LeaderboardEntry {
	entries := make([]LeaderboardEntry, 0, len(wins))
	for name, count := range wins {
		entries = append(entries, LeaderboardEntry{Name: name, Wins: count})
	}

	slices.SortFunc(entries, func(a, b LeaderboardEntry) int {
		if c := cmp.Compare(b.Wins, a.Wins); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})

	for i := range entries {
		entries[i].Rank = i + 1
	}

	return entries
}

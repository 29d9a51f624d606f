// Package stats reduces a batch of recent matches into the per-player summary
// columns the tracker stores. All functions are pure; network-dependent
// region lookups happen in the sync service, which hands the raw codes here.
package stats

import (
	"math"

	"dota-tracker/internal/domain"
)

// Summary holds stats derived from a batch of recent matches. Nil fields mean
// the batch offered no information (empty input), never "zero".
type Summary struct {
	WinRate   *float64
	KDA       *float64
	AvgGPM    *int
	AvgXPM    *int
	TopHeroID *int
}

// Summarize reduces recent matches to a Summary. KDA aggregates kill, assist
// and death totals across the whole batch before dividing once; it is not an
// average of per-match ratios. A batch with zero total deaths reports kills
// plus assists directly.
func Summarize(matches []domain.MatchRecord) Summary {
	if len(matches) == 0 {
		return Summary{}
	}

	var wins, kills, deaths, assists, gpm, xpm int
	heroCounts := make(map[int]int)
	var heroOrder []int

	for _, m := range matches {
		radiant := m.PlayerSlot < 128
		if radiant == m.RadiantWin {
			wins++
		}

		kills += m.Kills
		deaths += m.Deaths
		assists += m.Assists
		gpm += m.GoldPerMin
		xpm += m.XPPerMin

		if _, seen := heroCounts[m.HeroID]; !seen {
			heroOrder = append(heroOrder, m.HeroID)
		}
		heroCounts[m.HeroID]++
	}

	n := float64(len(matches))

	winRate := round2(float64(wins) / n * 100)

	kda := float64(kills + assists)
	if deaths != 0 {
		kda = float64(kills+assists) / float64(deaths)
	}
	kda = round2(kda)

	avgGPM := int(math.Round(float64(gpm) / n))
	avgXPM := int(math.Round(float64(xpm) / n))

	// Ties go to the hero seen first in the batch, not the lowest ID.
	topHero := heroOrder[0]
	for _, h := range heroOrder[1:] {
		if heroCounts[h] > heroCounts[topHero] {
			topHero = h
		}
	}

	return Summary{
		WinRate:   &winRate,
		KDA:       &kda,
		AvgGPM:    &avgGPM,
		AvgXPM:    &avgXPM,
		TopHeroID: &topHero,
	}
}

// TopRegion tallies region codes against the known-region table and returns
// the most frequent one, ties broken by first appearance. Unknown codes are
// dropped; if nothing valid remains the result is nil so the stored region is
// left alone.
func TopRegion(codes []int) *int {
	counts := make(map[int]int)
	var order []int

	for _, c := range codes {
		if _, known := domain.RegionNames[c]; !known {
			continue
		}
		if _, seen := counts[c]; !seen {
			order = append(order, c)
		}
		counts[c]++
	}

	if len(order) == 0 {
		return nil
	}

	best := order[0]
	for _, c := range order[1:] {
		if counts[c] > counts[best] {
			best = c
		}
	}
	return &best
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

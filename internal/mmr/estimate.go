// Package mmr estimates a numeric skill score from the coarse rank tier
// OpenDota reports. Tiers encode medal*10+stars with medal 1 (Herald) through
// 8 (Immortal).
package mmr

import "math"

const (
	medalStep  = 770
	starStep   = 154
	divineBase = 4620
	divineStep = 200
)

// ImmortalCurve maps a leaderboard position to an estimated MMR for the top
// medal, where stars stop meaning anything. The numbers are a calibration
// choice, not an algorithm: any two-segment curve that decreases in position
// works. Defaults were fitted so position 3551 lands near 9500.
type ImmortalCurve struct {
	// Floor is returned for Immortal players without a leaderboard position.
	Floor int
	// Knee splits the steep top segment from the shallow tail.
	Knee         int
	TopMMR       float64
	SteepSlope   float64
	KneeMMR      float64
	ShallowSlope float64
}

var DefaultImmortalCurve = ImmortalCurve{
	Floor:        5620,
	Knee:         1000,
	TopMMR:       13500,
	SteepSlope:   2.5,
	KneeMMR:      11000,
	ShallowSlope: 0.6,
}

// Estimate converts a rank tier plus optional leaderboard position into an
// estimated MMR using the default Immortal curve. Nil or zero tiers and
// out-of-range medals yield nil.
func Estimate(rankTier, leaderboardRank *int) *int {
	return DefaultImmortalCurve.Estimate(rankTier, leaderboardRank)
}

func (c ImmortalCurve) Estimate(rankTier, leaderboardRank *int) *int {
	if rankTier == nil || *rankTier == 0 {
		return nil
	}

	medal := *rankTier / 10
	stars := *rankTier % 10

	switch {
	case medal >= 1 && medal <= 6:
		v := (medal-1)*medalStep + starBonus(stars)*starStep
		return &v
	case medal == 7:
		v := divineBase + starBonus(stars)*divineStep
		return &v
	case medal == 8:
		return c.fromLeaderboard(leaderboardRank)
	}

	return nil
}

func (c ImmortalCurve) fromLeaderboard(rank *int) *int {
	if rank == nil || *rank == 0 {
		v := c.Floor
		return &v
	}

	r := *rank
	var v int
	if r <= c.Knee {
		v = int(math.Floor(c.TopMMR - float64(r)*c.SteepSlope))
	} else {
		v = int(math.Floor(c.KneeMMR - float64(r-c.Knee)*c.ShallowSlope))
	}
	return &v
}

// The first star carries no bonus; a starless tier counts the same as one star.
func starBonus(stars int) int {
	if stars > 1 {
		return stars - 1
	}
	return 0
}

package domain

import "time"

// Player is one tracked roster member. Identity is the 64-bit Steam ID as a
// string; everything else is enrichment from OpenDota and may be absent until
// the first successful sync. Nil means "never learned", not "zero".
type Player struct {
	ID               int64    `json:"id"`
	SteamID          string   `json:"steam_id"`
	Name             *string  `json:"name"`
	Dotabuff         *string  `json:"dotabuff"`
	MMREstimate      *int     `json:"mmr_estimate"`
	RankTier         *int     `json:"rank_tier"`
	RankLeaderboard  *int     `json:"rank_leaderboard"`
	Profile          *string  `json:"profile"`
	Avatar           *string  `json:"avatar"`
	RecentWinRate    *float64 `json:"recent_win_rate"`
	RecentKDA        *float64 `json:"recent_kda"`
	RecentGPM        *int     `json:"recent_gpm"`
	RecentXPM        *int     `json:"recent_xpm"`
	MostPlayedHeroID *int     `json:"most_played_hero_id"`
	RegionCluster    *int     `json:"region_cluster"`

	// Epoch millis of the last sync that actually wrote stats, 0 before then.
	LastUpdate int64 `json:"last_update"`
}

// StatsUpdate carries the fields a sync step may overwrite. A nil field keeps
// the stored value (coalesce); a non-nil field overwrites it, including
// non-nil zero values.
type StatsUpdate struct {
	MMREstimate      *int
	RankTier         *int
	RankLeaderboard  *int
	Profile          *string
	Avatar           *string
	RecentWinRate    *float64
	RecentKDA        *float64
	RecentGPM        *int
	RecentXPM        *int
	MostPlayedHeroID *int
	RegionCluster    *int
}

// Empty reports whether the update carries no new values at all. Merging an
// empty update is a no-op and must not touch last_update.
func (u StatsUpdate) Empty() bool {
	return u.MMREstimate == nil &&
		u.RankTier == nil &&
		u.RankLeaderboard == nil &&
		u.Profile == nil &&
		u.Avatar == nil &&
		u.RecentWinRate == nil &&
		u.RecentKDA == nil &&
		u.RecentGPM == nil &&
		u.RecentXPM == nil &&
		u.MostPlayedHeroID == nil &&
		u.RegionCluster == nil
}

// MatchRecord is one entry of an OpenDota recent-matches response, reduced to
// the fields the aggregator consumes. PlayerSlot < 128 means the player was
// on Radiant.
type MatchRecord struct {
	MatchID    int64 `json:"match_id"`
	PlayerSlot int   `json:"player_slot"`
	RadiantWin bool  `json:"radiant_win"`
	Kills      int   `json:"kills"`
	Deaths     int   `json:"deaths"`
	Assists    int   `json:"assists"`
	GoldPerMin int   `json:"gold_per_min"`
	XPPerMin   int   `json:"xp_per_min"`
	HeroID     int   `json:"hero_id"`
}

// SyncRun is the in-memory state of the roster sync loop. Exactly one lives
// per process; it is reset at the start of each run and never persisted.
type SyncRun struct {
	Running   bool       `json:"running"`
	Total     int        `json:"total"`
	Processed int        `json:"processed"`
	Errors    int        `json:"errors"`
	LastRun   *time.Time `json:"last_run"`
	RunID     string     `json:"run_id,omitempty"`
}

// Event types pushed over the websocket channel.
const (
	EventPlayerUpdate = "PLAYER_UPDATE"
	EventSyncProgress = "SYNC_PROGRESS"
	EventSyncComplete = "SYNC_COMPLETE"
)

// Event is the envelope for every websocket push.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// RegionNames maps Dota 2 server region codes to display names. Only codes
// present here count toward a player's region classification; anything else
// coming back from match details is a cluster ID or garbage and is discarded.
var RegionNames = map[int]string{
	1:  "US WEST",
	2:  "US EAST",
	3:  "EUROPE",
	5:  "SINGAPORE",
	6:  "DUBAI",
	7:  "AUSTRALIA",
	8:  "STOCKHOLM",
	9:  "AUSTRIA",
	10: "BRAZIL",
	11: "SOUTHAFRICA",
	12: "PW TELECOM SHANGHAI",
	13: "PW UNICOM",
	14: "CHILE",
	15: "PERU",
	16: "INDIA",
	17: "PW TELECOM GUANGDONG",
	18: "PW TELECOM ZHEJIANG",
	19: "JAPAN",
	20: "PW TELECOM WUHAN",
	25: "PW UNICOM TIANJIN",
	37: "TAIWAN",
	38: "ARGENTINA",
}

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"dota-tracker/internal/domain"

	"github.com/rs/zerolog"
)

const playerColumns = `id, steam_id, name, dotabuff, mmr_estimate, rank_tier,
	rank_leaderboard, profile, avatar, recent_win_rate, recent_kda, recent_gpm,
	recent_xpm, most_played_hero_id, region_cluster, last_update`

type PlayerRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewPlayerRepository(db *sql.DB, logger zerolog.Logger) *PlayerRepository {
	return &PlayerRepository{db: db, logger: logger}
}

func (r *PlayerRepository) ListAll(ctx context.Context) ([]domain.Player, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+playerColumns+` FROM players ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	defer rows.Close()

	var players []domain.Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, err
		}
		players = append(players, *p)
	}
	return players, rows.Err()
}

func (r *PlayerRepository) FindBySteamID(ctx context.Context, steamID string) (*domain.Player, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+playerColumns+` FROM players WHERE steam_id = ?`, steamID)
	return scanPlayer(row)
}

// Upsert creates the player if the steam_id is new, otherwise refreshes name
// and dotabuff where the caller supplied them. steam_id never duplicates.
func (r *PlayerRepository) Upsert(ctx context.Context, steamID string, name, dotabuff *string) (*domain.Player, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO players (steam_id, name, dotabuff, last_update) VALUES (?, ?, ?, 0)
		ON CONFLICT(steam_id) DO UPDATE SET
			name = COALESCE(excluded.name, name),
			dotabuff = COALESCE(excluded.dotabuff, dotabuff)`,
		steamID, nullString(name), nullString(dotabuff))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert player %s: %w", steamID, err)
	}
	return r.FindBySteamID(ctx, steamID)
}

// MergeStats applies a coalesce-update: nil fields keep the stored value,
// non-nil fields overwrite it. A fully empty update performs no write at all,
// leaving last_update untouched.
func (r *PlayerRepository) MergeStats(ctx context.Context, steamID string, u domain.StatsUpdate) (*domain.Player, error) {
	if u.Empty() {
		r.logger.Debug().Str("steam_id", steamID).Msg("empty stats update, skipping write")
		return r.FindBySteamID(ctx, steamID)
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE players SET
			mmr_estimate = COALESCE(?, mmr_estimate),
			rank_tier = COALESCE(?, rank_tier),
			rank_leaderboard = COALESCE(?, rank_leaderboard),
			profile = COALESCE(?, profile),
			avatar = COALESCE(?, avatar),
			recent_win_rate = COALESCE(?, recent_win_rate),
			recent_kda = COALESCE(?, recent_kda),
			recent_gpm = COALESCE(?, recent_gpm),
			recent_xpm = COALESCE(?, recent_xpm),
			most_played_hero_id = COALESCE(?, most_played_hero_id),
			region_cluster = COALESCE(?, region_cluster),
			last_update = ?
		WHERE steam_id = ?`,
		nullInt(u.MMREstimate),
		nullInt(u.RankTier),
		nullInt(u.RankLeaderboard),
		nullString(u.Profile),
		nullString(u.Avatar),
		nullFloat(u.RecentWinRate),
		nullFloat(u.RecentKDA),
		nullInt(u.RecentGPM),
		nullInt(u.RecentXPM),
		nullInt(u.MostPlayedHeroID),
		nullInt(u.RegionCluster),
		time.Now().UnixMilli(),
		steamID)
	if err != nil {
		return nil, fmt.Errorf("failed to merge stats for %s: %w", steamID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, sql.ErrNoRows
	}

	return r.FindBySteamID(ctx, steamID)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlayer(row rowScanner) (*domain.Player, error) {
	var p domain.Player
	var (
		name, dotabuff, profile, avatar sql.NullString
		mmr, tier, lb, gpm, xpm, hero   sql.NullInt64
		region                          sql.NullInt64
		winRate, kda                    sql.NullFloat64
	)

	err := row.Scan(&p.ID, &p.SteamID, &name, &dotabuff, &mmr, &tier, &lb,
		&profile, &avatar, &winRate, &kda, &gpm, &xpm, &hero, &region, &p.LastUpdate)
	if err != nil {
		return nil, err
	}

	p.Name = fromNullString(name)
	p.Dotabuff = fromNullString(dotabuff)
	p.MMREstimate = fromNullInt(mmr)
	p.RankTier = fromNullInt(tier)
	p.RankLeaderboard = fromNullInt(lb)
	p.Profile = fromNullString(profile)
	p.Avatar = fromNullString(avatar)
	p.RecentWinRate = fromNullFloat(winRate)
	p.RecentKDA = fromNullFloat(kda)
	p.RecentGPM = fromNullInt(gpm)
	p.RecentXPM = fromNullInt(xpm)
	p.MostPlayedHeroID = fromNullInt(hero)
	p.RegionCluster = fromNullInt(region)

	return &p, nil
}

func nullString(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func fromNullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}

func fromNullInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

func fromNullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return &v.Float64
}

package service

import (
	"context"
	"sync"
	"time"

	"dota-tracker/internal/api"
	"dota-tracker/internal/auth"
	"dota-tracker/internal/config"
	"dota-tracker/internal/constants"
	"dota-tracker/internal/domain"
	"dota-tracker/internal/mmr"
	"dota-tracker/internal/repository"
	"dota-tracker/internal/stats"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// StatsClient is the slice of the OpenDota client the sync engine needs.
type StatsClient interface {
	GetPlayer(ctx context.Context, accountID string) (*api.PlayerProfile, error)
	GetRecentMatches(ctx context.Context, accountID string) ([]domain.MatchRecord, error)
	GetMatch(ctx context.Context, matchID int64) (*api.MatchDetail, error)
}

// Notifier fans events out to connected clients, best effort.
type Notifier interface {
	Broadcast(e domain.Event)
	BroadcastRole(role string, e domain.Event)
}

// SyncService walks the full roster sequentially, enriching each player from
// OpenDota and pushing progress to subscribers. At most one run is active per
// process; starting while running is a no-op that returns the live snapshot.
type SyncService struct {
	client   StatsClient
	players  *repository.PlayerRepository
	notifier Notifier
	logger   zerolog.Logger

	playerDelay time.Duration
	regionDelay time.Duration

	mu  sync.Mutex
	run domain.SyncRun
}

func NewSyncService(
	client StatsClient,
	players *repository.PlayerRepository,
	notifier Notifier,
	cfg *config.Config,
	logger zerolog.Logger,
) *SyncService {
	return &SyncService{
		client:      client,
		players:     players,
		notifier:    notifier,
		logger:      logger,
		playerDelay: cfg.PlayerDelay,
		regionDelay: cfg.RegionDelay,
	}
}

// Status returns a snapshot of the current run state.
func (s *SyncService) Status() domain.SyncRun {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.run
}

// Start freezes the roster, initialises the run state and kicks off the
// background loop, returning immediately. The loop outlives the caller's
// request, so it runs on its own context.
func (s *SyncService) Start(ctx context.Context) (domain.SyncRun, error) {
	s.mu.Lock()
	if s.run.Running {
		snap := s.run
		s.mu.Unlock()
		s.logger.Info().Str("run_id", snap.RunID).Msg("sync already running, ignoring start")
		return snap, nil
	}
	s.mu.Unlock()

	roster, err := s.players.ListAll(ctx)
	if err != nil {
		return domain.SyncRun{}, err
	}

	s.mu.Lock()
	if s.run.Running {
		// Lost the race against another starter while listing the roster.
		snap := s.run
		s.mu.Unlock()
		return snap, nil
	}
	now := time.Now()
	s.run = domain.SyncRun{
		Running: true,
		Total:   len(roster),
		LastRun: &now,
		RunID:   gonanoid.Must(8),
	}
	snap := s.run
	s.mu.Unlock()

	s.logger.Info().Str("run_id", snap.RunID).Int("total", snap.Total).Msg("sync run started")
	go s.loop(context.Background(), roster)

	return snap, nil
}

func (s *SyncService) loop(ctx context.Context, roster []domain.Player) {
	for _, p := range roster {
		updated, err := s.syncPlayer(ctx, p.SteamID)
		if err != nil {
			s.logger.Error().Err(err).Str("steam_id", p.SteamID).Msg("player sync failed")
			s.mu.Lock()
			s.run.Errors++
			s.mu.Unlock()
		} else if updated != nil {
			s.notifier.Broadcast(domain.Event{Type: domain.EventPlayerUpdate, Data: updated})
		}

		s.mu.Lock()
		s.run.Processed++
		snap := s.run
		s.mu.Unlock()
		s.notifier.BroadcastRole(auth.RoleAdmin, domain.Event{Type: domain.EventSyncProgress, Data: snap})

		time.Sleep(s.playerDelay)
	}

	s.mu.Lock()
	s.run.Running = false
	snap := s.run
	s.mu.Unlock()

	s.logger.Info().
		Str("run_id", snap.RunID).
		Int("processed", snap.Processed).
		Int("errors", snap.Errors).
		Msg("sync run completed")
	s.notifier.BroadcastRole(auth.RoleAdmin, domain.Event{Type: domain.EventSyncComplete, Data: snap})
}

// syncPlayer runs one roster step: fetch profile and recent matches
// concurrently (each degrading to empty on failure), derive stats, merge into
// the stored record. A malformed steam_id skips the player without error; a
// fully degraded fetch is not an error either, it just merges nothing.
func (s *SyncService) syncPlayer(ctx context.Context, steamID string) (*domain.Player, error) {
	accountID, err := api.AccountIDFromSteamID(steamID)
	if err != nil {
		s.logger.Warn().Str("steam_id", steamID).Msg("steam id does not convert, skipping player")
		return nil, nil
	}

	fetchCtx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	var profile *api.PlayerProfile
	var matches []domain.MatchRecord

	var g errgroup.Group
	g.Go(func() error {
		p, err := s.client.GetPlayer(fetchCtx, accountID)
		if err != nil {
			s.logger.Warn().Err(err).Str("steam_id", steamID).Msg("profile fetch failed, continuing without")
			return nil
		}
		profile = p
		return nil
	})
	g.Go(func() error {
		m, err := s.client.GetRecentMatches(fetchCtx, accountID)
		if err != nil {
			s.logger.Warn().Err(err).Str("steam_id", steamID).Msg("matches fetch failed, continuing without")
			return nil
		}
		matches = m
		return nil
	})
	_ = g.Wait()

	update := s.buildUpdate(ctx, profile, matches)
	return s.players.MergeStats(ctx, steamID, update)
}

func (s *SyncService) buildUpdate(ctx context.Context, profile *api.PlayerProfile, matches []domain.MatchRecord) domain.StatsUpdate {
	var update domain.StatsUpdate

	if profile != nil {
		update.RankTier = profile.RankTier
		update.RankLeaderboard = profile.LeaderboardRank
		if profile.Profile != nil {
			update.Profile = profile.Profile.PersonaName
			update.Avatar = profile.Profile.AvatarFull
		}

		// Prefer the tier-derived estimate; fall back to whatever OpenDota reports.
		if profile.MMREstimate != nil {
			update.MMREstimate = profile.MMREstimate.Estimate
		}
		if est := mmr.Estimate(profile.RankTier, profile.LeaderboardRank); est != nil {
			update.MMREstimate = est
		}
	}

	if len(matches) > 0 {
		summary := stats.Summarize(matches)
		update.RecentWinRate = summary.WinRate
		update.RecentKDA = summary.KDA
		update.RecentGPM = summary.AvgGPM
		update.RecentXPM = summary.AvgXPM
		update.MostPlayedHeroID = summary.TopHeroID
		update.RegionCluster = s.scanRegions(ctx, matches)
	}

	return update
}

// scanRegions looks up match details for the first few recent matches and
// tallies the region codes that belong to the known-region set. Lookup
// failures are logged and skipped; they never affect the rest of the update.
func (s *SyncService) scanRegions(ctx context.Context, matches []domain.MatchRecord) *int {
	n := constants.RegionLookupMatches
	if len(matches) < n {
		n = len(matches)
	}

	var codes []int
	for _, m := range matches[:n] {
		detail, err := s.client.GetMatch(ctx, m.MatchID)
		if err != nil {
			s.logger.Warn().Err(err).Int64("match_id", m.MatchID).Msg("match detail fetch failed, skipping region")
		} else if detail != nil && detail.Region != nil {
			codes = append(codes, *detail.Region)
		}
		time.Sleep(s.regionDelay)
	}

	return stats.TopRegion(codes)
}

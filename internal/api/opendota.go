package api

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"dota-tracker/internal/config"
	"dota-tracker/internal/constants"
	"dota-tracker/internal/domain"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
	"golang.org/x/time/rate"
)

// steamID64Base is where 64-bit Steam IDs start; subtracting it yields the
// 32-bit account ID OpenDota keys on.
const steamID64Base uint64 = 76561197960265728

var ErrInvalidSteamID = errors.New("steam id does not convert to an account id")

// Client talks to the OpenDota REST API. Every request goes through a shared
// limiter sized to the free-tier ceiling, so callers never have to think
// about the budget for a single call.
type Client struct {
	baseURL string
	client  *fasthttp.Client
	limiter *rate.Limiter
	logger  zerolog.Logger
}

func NewClient(cfg *config.Config, logger zerolog.Logger) *Client {
	return &Client{
		baseURL: cfg.OpenDotaURL,
		client: &fasthttp.Client{
			MaxConnsPerHost:     100,
			ReadTimeout:         constants.ExternalAPITimeout,
			WriteTimeout:        constants.ExternalAPITimeout,
			MaxIdleConnDuration: 1 * time.Minute,
		},
		limiter: rate.NewLimiter(
			rate.Every(time.Minute/constants.OpenDotaRequestsPerMinute),
			constants.OpenDotaBurst,
		),
		logger: logger,
	}
}

// AccountIDFromSteamID converts a roster steam_id into OpenDota's account id
// space. Short inputs (under 16 characters) are assumed to already be account
// IDs and pass through untouched, garbage included; long inputs must parse as
// a 64-bit Steam ID.
func AccountIDFromSteamID(steamID string) (string, error) {
	if len(steamID) < 16 {
		return steamID, nil
	}
	v, err := strconv.ParseUint(steamID, 10, 64)
	if err != nil || v < steamID64Base {
		return "", ErrInvalidSteamID
	}
	return strconv.FormatUint(v-steamID64Base, 10), nil
}

func (c *Client) GetPlayer(ctx context.Context, accountID string) (*PlayerProfile, error) {
	url := fmt.Sprintf("%s/players/%s", c.baseURL, accountID)
	return doRequest[PlayerProfile](ctx, c, url)
}

func (c *Client) GetRecentMatches(ctx context.Context, accountID string) ([]domain.MatchRecord, error) {
	url := fmt.Sprintf("%s/players/%s/recentMatches", c.baseURL, accountID)
	matches, err := doRequest[[]domain.MatchRecord](ctx, c, url)
	if err != nil {
		return nil, err
	}
	return *matches, nil
}

func (c *Client) GetMatch(ctx context.Context, matchID int64) (*MatchDetail, error) {
	url := fmt.Sprintf("%s/matches/%d", c.baseURL, matchID)
	return doRequest[MatchDetail](ctx, c, url)
}

func doRequest[T any](ctx context.Context, client *Client, url string) (*T, error) {
	if err := client.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)

	deadline, ok := ctx.Deadline()
	if ok {
		if err := client.client.DoDeadline(req, resp, deadline); err != nil {
			return nil, err
		}
	} else {
		if err := client.client.Do(req, resp); err != nil {
			return nil, err
		}
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("opendota: unexpected status %d", resp.StatusCode())
	}

	var result T
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// PlayerProfile is the /players/{id} response. Every field is optional; the
// sync engine treats absence as "no new value".
type PlayerProfile struct {
	RankTier        *int         `json:"rank_tier"`
	LeaderboardRank *int         `json:"leaderboard_rank"`
	MMREstimate     *MMREstimate `json:"mmr_estimate"`
	Profile         *ProfileInfo `json:"profile"`
}

type MMREstimate struct {
	Estimate *int `json:"estimate"`
}

type ProfileInfo struct {
	AccountID   int64   `json:"account_id"`
	PersonaName *string `json:"personaname"`
	AvatarFull  *string `json:"avatarfull"`
}

// MatchDetail is the /matches/{id} response trimmed to the region code used
// for classification.
type MatchDetail struct {
	MatchID int64 `json:"match_id"`
	Region  *int  `json:"region"`
}

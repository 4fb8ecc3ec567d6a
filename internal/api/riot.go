// Package api translates domain operations into upstream riotgames.com URLs
// and typed results. Transport is delegated to the proxy gateway; region
// codes pick between the continental and platform hosts.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"

	"github.com/rs/zerolog"

	"league-tracker/internal/regions"
)

// ErrAccountNotFound is returned when the riot-id does not resolve. Unlike
// the live-game lookup, a missing account is an error to the caller.
var ErrAccountNotFound = errors.New("account not found")

// Getter is the transport contract the gateway satisfies. A nil body with a
// nil error means the upstream answered 404.
type Getter interface {
	Get(ctx context.Context, target, apiKey string) ([]byte, error)
}

type RiotClient struct {
	gw     Getter
	logger zerolog.Logger

	// puuid → encrypted summoner id. Static data, so memoizing for the
	// process lifetime is safe; redundant writes are idempotent.
	mu          sync.RWMutex
	summonerIDs map[string]string
}

func NewRiotClient(gw Getter, logger zerolog.Logger) *RiotClient {
	return &RiotClient{
		gw:          gw,
		logger:      logger,
		summonerIDs: make(map[string]string),
	}
}

// AccountByRiotID resolves "name#tag" to an account on the continental host.
func (c *RiotClient) AccountByRiotID(ctx context.Context, name, tag, region, apiKey string) (*Account, error) {
	target := fmt.Sprintf("%s/riot/account/v1/accounts/by-riot-id/%s/%s",
		regions.Resolve(region).ContinentalHost(), url.PathEscape(name), url.PathEscape(tag))

	body, err := c.gw.Get(ctx, target, apiKey)
	if err != nil {
		return nil, fmt.Errorf("account lookup: %w", err)
	}
	if body == nil {
		return nil, ErrAccountNotFound
	}

	var account Account
	if err := json.Unmarshal(body, &account); err != nil {
		return nil, fmt.Errorf("account lookup: %w", err)
	}
	return &account, nil
}

// ActiveGame resolves the player's current match, or nil when they are not
// in one. A payload without participants is treated as "no active game" as
// well; relays occasionally pass malformed bodies through.
func (c *RiotClient) ActiveGame(ctx context.Context, puuid, region, apiKey string) (*LiveGame, error) {
	target := fmt.Sprintf("%s/lol/spectator/v5/active-games/by-summoner/%s",
		regions.Resolve(region).PlatformHost(), url.PathEscape(puuid))

	body, err := c.gw.Get(ctx, target, apiKey)
	if err != nil {
		return nil, fmt.Errorf("active game lookup: %w", err)
	}
	if body == nil {
		return nil, nil
	}

	var game LiveGame
	if err := json.Unmarshal(body, &game); err != nil {
		return nil, fmt.Errorf("active game lookup: %w", err)
	}
	if len(game.Participants) == 0 {
		c.logger.Debug().Str("puuid", puuid).Msg("active game payload without participants, treating as no game")
		return nil, nil
	}
	return &game, nil
}

// SummonerIDByPUUID resolves the platform-internal summoner id, memoized
// per puuid for the life of the process.
func (c *RiotClient) SummonerIDByPUUID(ctx context.Context, puuid, region, apiKey string) (string, error) {
	c.mu.RLock()
	id, ok := c.summonerIDs[puuid]
	c.mu.RUnlock()
	if ok {
		return id, nil
	}

	target := fmt.Sprintf("%s/lol/summoner/v4/summoners/by-puuid/%s",
		regions.Resolve(region).PlatformHost(), url.PathEscape(puuid))

	body, err := c.gw.Get(ctx, target, apiKey)
	if err != nil {
		return "", fmt.Errorf("summoner lookup: %w", err)
	}
	if body == nil {
		return "", fmt.Errorf("summoner lookup: no summoner for puuid")
	}

	var summoner Summoner
	if err := json.Unmarshal(body, &summoner); err != nil {
		return "", fmt.Errorf("summoner lookup: %w", err)
	}

	c.mu.Lock()
	c.summonerIDs[puuid] = summoner.ID
	c.mu.Unlock()
	return summoner.ID, nil
}

// LeagueEntries returns the player's ranked rows. When summonerID is empty
// it is resolved through the memoized summoner lookup first; if that fails
// the result degrades to an empty list, since ranked standing is
// best-effort enrichment data.
func (c *RiotClient) LeagueEntries(ctx context.Context, summonerID, puuid, region, apiKey string) ([]RankEntry, error) {
	if summonerID == "" {
		var err error
		summonerID, err = c.SummonerIDByPUUID(ctx, puuid, region, apiKey)
		if err != nil {
			c.logger.Warn().Err(err).Str("puuid", puuid).Msg("summoner fallback failed, skipping rank")
			return nil, nil
		}
	}

	target := fmt.Sprintf("%s/lol/league/v4/entries/by-summoner/%s",
		regions.Resolve(region).PlatformHost(), url.PathEscape(summonerID))

	body, err := c.gw.Get(ctx, target, apiKey)
	if err != nil {
		return nil, fmt.Errorf("league lookup: %w", err)
	}
	if body == nil {
		return nil, nil
	}

	var entries []RankEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("league lookup: %w", err)
	}
	return entries, nil
}

// TopMasteries returns the player's top champion masteries, highest points
// first as provided by the upstream.
func (c *RiotClient) TopMasteries(ctx context.Context, puuid, region, apiKey string, count int) ([]MasteryEntry, error) {
	target := fmt.Sprintf("%s/lol/champion-mastery/v4/champion-masteries/by-puuid/%s/top?count=%d",
		regions.Resolve(region).PlatformHost(), url.PathEscape(puuid), count)

	body, err := c.gw.Get(ctx, target, apiKey)
	if err != nil {
		return nil, fmt.Errorf("mastery lookup: %w", err)
	}
	if body == nil {
		return nil, nil
	}

	var entries []MasteryEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("mastery lookup: %w", err)
	}
	return entries, nil
}

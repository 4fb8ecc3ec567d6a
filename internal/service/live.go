package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"league-tracker/internal/api"
	"league-tracker/internal/domain"
	"league-tracker/internal/gateway"
	"league-tracker/internal/metrics"
	"league-tracker/internal/repository"
)

// ErrNotInGame means the account resolved but has no active match. Callers
// surface it distinctly from real failures.
var ErrNotInGame = errors.New("player is not currently in an active game")

// LiveGame is the resolved match handed back alongside the enrichment
// stream.
type LiveGame struct {
	Game    *api.LiveGame
	Account *api.Account
}

type LiveGameService struct {
	riot     RiotAPI
	enricher *Enricher
	lookups  *repository.LookupRepository
	logger   zerolog.Logger
	metrics  *metrics.Metrics
}

func NewLiveGameService(riot RiotAPI, enricher *Enricher, lookups *repository.LookupRepository, logger zerolog.Logger, m *metrics.Metrics) *LiveGameService {
	return &LiveGameService{riot: riot, enricher: enricher, lookups: lookups, logger: logger, metrics: m}
}

// Watch resolves name#tag to a live game and streams enrichment snapshots
// through publish. Account and active-game failures propagate typed; rank
// and mastery failures degrade inside the pipeline.
func (s *LiveGameService) Watch(ctx context.Context, name, tag, region, apiKey string, publish Publisher) (*LiveGame, []domain.EnrichedParticipant, error) {
	s.logger.Info().Str("name", name).Str("tag", tag).Str("region", region).Msg("resolving live game")

	account, err := s.riot.AccountByRiotID(ctx, name, tag, region, apiKey)
	if err != nil {
		s.metrics.Lookup(lookupOutcome(err))
		s.logger.Error().Err(err).Str("name", name).Str("tag", tag).Msg("account resolve failed")
		return nil, nil, fmt.Errorf("resolve account %s#%s: %w", name, tag, err)
	}

	game, err := s.riot.ActiveGame(ctx, account.PUUID, region, apiKey)
	if err != nil {
		s.metrics.Lookup(lookupOutcome(err))
		s.logger.Error().Err(err).Str("puuid", account.PUUID).Msg("active game resolve failed")
		return nil, nil, fmt.Errorf("resolve active game: %w", err)
	}
	if game == nil {
		s.metrics.Lookup("not_in_game")
		s.logger.Info().Str("puuid", account.PUUID).Msg("player not in an active game")
		return nil, nil, ErrNotInGame
	}

	s.metrics.Lookup("ok")
	s.recordLookup(account, region)

	s.logger.Info().
		Int64("game_id", game.GameID).
		Str("game_mode", game.GameMode).
		Int("participants", len(game.Participants)).
		Msg("live game found, enriching")

	enriched, err := s.enricher.Run(ctx, region, apiKey, game.Participants, publish)
	if err != nil {
		return &LiveGame{Game: game, Account: account}, enriched, err
	}
	return &LiveGame{Game: game, Account: account}, enriched, nil
}

// Suggestions returns recent successful lookups matching the query prefix.
func (s *LiveGameService) Suggestions(ctx context.Context, query string) ([]domain.Lookup, error) {
	return s.lookups.Search(ctx, query)
}

// recordLookup persists the resolved account in the background; history is
// best-effort and must not delay the enrichment stream.
func (s *LiveGameService) recordLookup(account *api.Account, region string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		lookup := &domain.Lookup{
			PUUID:      account.PUUID,
			GameName:   account.GameName,
			TagLine:    account.TagLine,
			Region:     region,
			LastSeenAt: time.Now(),
		}
		if err := s.lookups.Record(ctx, lookup); err != nil {
			s.logger.Warn().Err(err).Str("puuid", account.PUUID).Msg("failed to record lookup")
		}
	}()
}

func lookupOutcome(err error) string {
	switch {
	case errors.Is(err, gateway.ErrForbidden):
		return "forbidden"
	case errors.Is(err, gateway.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, api.ErrAccountNotFound):
		return "account_not_found"
	default:
		return "error"
	}
}

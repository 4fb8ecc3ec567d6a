package service

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"league-tracker/internal/api"
	"league-tracker/internal/config"
	"league-tracker/internal/domain"
	"league-tracker/internal/metrics"
)

// RiotAPI is the slice of the riot client the services need; the concrete
// *api.RiotClient satisfies it.
type RiotAPI interface {
	AccountByRiotID(ctx context.Context, name, tag, region, apiKey string) (*api.Account, error)
	ActiveGame(ctx context.Context, puuid, region, apiKey string) (*api.LiveGame, error)
	LeagueEntries(ctx context.Context, summonerID, puuid, region, apiKey string) ([]api.RankEntry, error)
	TopMasteries(ctx context.Context, puuid, region, apiKey string, count int) ([]api.MasteryEntry, error)
}

// ChampionResolver resolves numeric champion ids to display names.
type ChampionResolver interface {
	Name(ctx context.Context, championID int64) string
}

// Publisher receives one snapshot after initialization and one after every
// participant settles.
type Publisher func(domain.Snapshot)

// Enricher walks live-game participants strictly one at a time, pacing
// each step with a rate limiter so the two upstream calls per participant
// stay under the per-second quota. The two calls for one participant run
// concurrently with each other, never with another participant's.
type Enricher struct {
	riot    RiotAPI
	champs  ChampionResolver
	logger  zerolog.Logger
	metrics *metrics.Metrics

	interval     time.Duration
	masteryCount int
}

func NewEnricher(riot RiotAPI, champs ChampionResolver, cfg *config.Config, logger zerolog.Logger, m *metrics.Metrics) *Enricher {
	return &Enricher{
		riot:         riot,
		champs:       champs,
		logger:       logger,
		metrics:      m,
		interval:     cfg.EnrichInterval,
		masteryCount: cfg.MasteryCount,
	}
}

// Run enriches the participants in their original order, publishing the
// initial unloaded state immediately and the full list again after every
// participant. A participant's total failure never aborts the batch; it is
// marked loaded with whatever defaults remain. Cancellation is honored
// between participants, never mid-participant.
func (e *Enricher) Run(ctx context.Context, region, apiKey string, parts []api.LiveParticipant, publish Publisher) ([]domain.EnrichedParticipant, error) {
	start := time.Now()
	n := len(parts)

	enriched := make([]domain.EnrichedParticipant, n)
	for i, p := range parts {
		enriched[i] = domain.EnrichedParticipant{
			PUUID:        p.PUUID,
			SummonerID:   p.SummonerID,
			RiotID:       p.RiotID,
			ChampionID:   p.ChampionID,
			ChampionName: e.champs.Name(ctx, p.ChampionID),
			TeamID:       p.TeamID,
			Spell1ID:     p.Spell1ID,
			Spell2ID:     p.Spell2ID,
			Perks:        p.Perks,
		}
	}
	publish(snapshot(enriched, 0))

	// The limiter starts with one token, so the first participant is not
	// delayed; every later one waits out the configured interval.
	limiter := rate.NewLimiter(rate.Every(e.interval), 1)

	for i := range enriched {
		if err := limiter.Wait(ctx); err != nil {
			e.logger.Info().Int("settled", i).Int("total", n).Msg("enrichment cancelled")
			return enriched, err
		}

		e.enrichOne(ctx, region, apiKey, &enriched[i])
		enriched[i].IsLoaded = true

		progress := int(math.Round(float64(i+1) / float64(n) * 100))
		publish(snapshot(enriched, progress))
	}

	e.metrics.ObserveEnrich(time.Since(start))
	e.logger.Info().Int("participants", n).Dur("elapsed", time.Since(start)).Msg("enrichment complete")
	return enriched, nil
}

// enrichOne fires the rank and mastery lookups for a single participant
// concurrently. Each has its own degrade-to-empty handler, so neither can
// fail the batch.
func (e *Enricher) enrichOne(ctx context.Context, region, apiKey string, p *domain.EnrichedParticipant) {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		entries, err := e.riot.LeagueEntries(gctx, p.SummonerID, p.PUUID, region, apiKey)
		if err != nil {
			e.logger.Warn().Err(err).Str("puuid", p.PUUID).Msg("rank lookup failed, leaving unranked")
			return nil
		}
		for i := range entries {
			if entries[i].QueueType == api.QueueRankedSolo {
				p.RankSolo = &entries[i]
				break
			}
		}
		return nil
	})

	g.Go(func() error {
		mastery, err := e.riot.TopMasteries(gctx, p.PUUID, region, apiKey, e.masteryCount)
		if err != nil {
			e.logger.Warn().Err(err).Str("puuid", p.PUUID).Msg("mastery lookup failed, leaving empty")
			return nil
		}
		p.Mastery = mastery
		return nil
	})

	// Handlers above swallow their own errors.
	_ = g.Wait()
}

func snapshot(enriched []domain.EnrichedParticipant, progress int) domain.Snapshot {
	out := make([]domain.EnrichedParticipant, len(enriched))
	copy(out, enriched)
	return domain.Snapshot{Participants: out, Progress: progress}
}

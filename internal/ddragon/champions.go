// Package ddragon holds the process-wide champion catalog, lazily populated
// from the Data Dragon CDN. The CDN is static and unauthenticated, so it is
// fetched directly rather than through the proxy gateway.
package ddragon

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"

	"league-tracker/internal/constants"
)

const baseURL = "https://ddragon.leagueoflegends.com"

type ChampionStats struct {
	HP                   float64 `json:"hp"`
	HPPerLevel           float64 `json:"hpperlevel"`
	MP                   float64 `json:"mp"`
	Armor                float64 `json:"armor"`
	SpellBlock           float64 `json:"spellblock"`
	AttackDamage         float64 `json:"attackdamage"`
	AttackDamagePerLevel float64 `json:"attackdamageperlevel"`
	AttackSpeed          float64 `json:"attackspeed"`
	AttackRange          float64 `json:"attackrange"`
	MoveSpeed            float64 `json:"movespeed"`
}

type Champion struct {
	ID    int64
	Name  string
	Title string
	Stats ChampionStats
}

type Catalog struct {
	client *fasthttp.Client
	logger zerolog.Logger

	mu   sync.RWMutex
	byID map[int64]Champion
}

func NewCatalog(logger zerolog.Logger) *Catalog {
	return &Catalog{
		client: &fasthttp.Client{
			ReadTimeout:  constants.ExternalAPITimeout,
			WriteTimeout: constants.ExternalAPITimeout,
		},
		logger: logger,
	}
}

// Name resolves a numeric champion id to its display name, or "" when the
// catalog cannot be loaded or the id is unknown. Failures here must never
// block enrichment.
func (c *Catalog) Name(ctx context.Context, championID int64) string {
	champ, ok := c.ByID(ctx, championID)
	if !ok {
		return ""
	}
	return champ.Name
}

func (c *Catalog) ByID(ctx context.Context, championID int64) (Champion, bool) {
	if err := c.ensure(ctx); err != nil {
		c.logger.Warn().Err(err).Msg("champion catalog unavailable")
		return Champion{}, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	champ, ok := c.byID[championID]
	return champ, ok
}

// ensure populates the catalog on first use. Population is idempotent; a
// concurrent duplicate load just overwrites the map with identical data,
// and a failed load is retried on the next call.
func (c *Catalog) ensure(ctx context.Context) error {
	c.mu.RLock()
	loaded := c.byID != nil
	c.mu.RUnlock()
	if loaded {
		return nil
	}

	version, err := c.latestVersion(ctx)
	if err != nil {
		return fmt.Errorf("ddragon versions: %w", err)
	}

	body, err := c.get(ctx, fmt.Sprintf("%s/cdn/%s/data/en_US/champion.json", baseURL, version))
	if err != nil {
		return fmt.Errorf("ddragon champions: %w", err)
	}

	var payload struct {
		Data map[string]struct {
			Key   string        `json:"key"`
			Name  string        `json:"name"`
			Title string        `json:"title"`
			Stats ChampionStats `json:"stats"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return fmt.Errorf("ddragon champions: %w", err)
	}

	byID := make(map[int64]Champion, len(payload.Data))
	for _, entry := range payload.Data {
		id, err := strconv.ParseInt(entry.Key, 10, 64)
		if err != nil {
			continue
		}
		byID[id] = Champion{ID: id, Name: entry.Name, Title: entry.Title, Stats: entry.Stats}
	}
	if len(byID) == 0 {
		return fmt.Errorf("ddragon champions: empty catalog for version %s", version)
	}

	c.mu.Lock()
	c.byID = byID
	c.mu.Unlock()

	c.logger.Info().Str("version", version).Int("champions", len(byID)).Msg("champion catalog loaded")
	return nil
}

func (c *Catalog) latestVersion(ctx context.Context) (string, error) {
	body, err := c.get(ctx, baseURL+"/api/versions.json")
	if err != nil {
		return "", err
	}
	var versions []string
	if err := json.Unmarshal(body, &versions); err != nil {
		return "", err
	}
	if len(versions) == 0 {
		return "", fmt.Errorf("empty version list")
	}
	return versions[0], nil
}

func (c *Catalog) get(ctx context.Context, target string) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(target)
	req.Header.SetMethod(fasthttp.MethodGet)

	deadline := time.Now().Add(constants.ExternalAPITimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.client.DoDeadline(req, resp, deadline); err != nil {
		return nil, err
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("status %d for %s", resp.StatusCode(), target)
	}
	return append([]byte(nil), resp.Body()...), nil
}

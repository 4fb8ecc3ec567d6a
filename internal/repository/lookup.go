package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"

	"league-tracker/internal/constants"
	"league-tracker/internal/domain"
)

// LookupRepository stores successfully resolved accounts for the search
// suggestion endpoint. A nil repository is valid and stores nothing, so
// services can run without a database in tests.
type LookupRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewLookupRepository(db *sql.DB, logger zerolog.Logger) *LookupRepository {
	return &LookupRepository{db: db, logger: logger}
}

// Record upserts by puuid, refreshing name, tag and last-seen time. Riot IDs
// can change over time, the puuid cannot.
func (r *LookupRepository) Record(ctx context.Context, lookup *domain.Lookup) error {
	if r == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	id, err := gonanoid.New()
	if err != nil {
		return fmt.Errorf("generate lookup id: %w", err)
	}

	now := time.Now()
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO lookups (id, puuid, game_name, tag_line, region, last_seen_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (puuid) DO UPDATE SET
			game_name = excluded.game_name,
			tag_line = excluded.tag_line,
			region = excluded.region,
			last_seen_at = excluded.last_seen_at`,
		id, lookup.PUUID, lookup.GameName, lookup.TagLine, lookup.Region, lookup.LastSeenAt, now)
	if err != nil {
		return fmt.Errorf("record lookup: %w", err)
	}

	r.logger.Debug().Str("puuid", lookup.PUUID).Str("name", lookup.GameName).Msg("lookup recorded")
	return nil
}

// Search returns recent lookups whose name starts with the query, newest
// first.
func (r *LookupRepository) Search(ctx context.Context, query string) ([]domain.Lookup, error) {
	if r == nil {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, puuid, game_name, tag_line, region, last_seen_at, created_at
		FROM lookups
		WHERE game_name LIKE ? || '%'
		ORDER BY last_seen_at DESC
		LIMIT ?`,
		query, constants.SearchSuggestionLimit)
	if err != nil {
		return nil, fmt.Errorf("search lookups: %w", err)
	}
	defer rows.Close()

	var lookups []domain.Lookup
	for rows.Next() {
		var l domain.Lookup
		if err := rows.Scan(&l.ID, &l.PUUID, &l.GameName, &l.TagLine, &l.Region, &l.LastSeenAt, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan lookup: %w", err)
		}
		lookups = append(lookups, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("search lookups: %w", err)
	}
	return lookups, nil
}

package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"league-tracker/internal/api"
	"league-tracker/internal/domain"
	"league-tracker/internal/gateway"
)

func newTestLiveService(riot RiotAPI) *LiveGameService {
	return NewLiveGameService(riot, newTestEnricher(riot), nil, zerolog.Nop(), nil)
}

func TestWatchNotInGame(t *testing.T) {
	riot := &fakeRiot{
		account: &api.Account{PUUID: "p-ana", GameName: "Ana", TagLine: "NA1"},
		game:    nil,
	}
	svc := newTestLiveService(riot)

	published := false
	_, _, err := svc.Watch(context.Background(), "Ana", "NA1", "NA", "key", func(domain.Snapshot) {
		published = true
	})

	assert.ErrorIs(t, err, ErrNotInGame)
	assert.False(t, published, "nothing is streamed when there is no game")
}

func TestWatchAccountNotFound(t *testing.T) {
	riot := &fakeRiot{accountErr: api.ErrAccountNotFound}
	svc := newTestLiveService(riot)

	_, _, err := svc.Watch(context.Background(), "Nobody", "XX", "NA", "key", func(domain.Snapshot) {})

	assert.ErrorIs(t, err, api.ErrAccountNotFound)
}

func TestWatchForbiddenPropagates(t *testing.T) {
	riot := &fakeRiot{accountErr: gateway.ErrForbidden}
	svc := newTestLiveService(riot)

	_, _, err := svc.Watch(context.Background(), "Ana", "NA1", "NA", "badkey", func(domain.Snapshot) {})

	assert.ErrorIs(t, err, gateway.ErrForbidden,
		"a dead credential must stay distinguishable at the top level")
}

func TestWatchSuccessStreamsEnrichment(t *testing.T) {
	parts := tenParticipants()
	riot := &fakeRiot{
		account:   &api.Account{PUUID: "p-ana", GameName: "Ana", TagLine: "NA1"},
		game:      &api.LiveGame{GameID: 7, GameMode: "CLASSIC", Participants: parts},
		entries:   map[string][]api.RankEntry{},
		masteries: map[string][]api.MasteryEntry{},
	}
	for _, p := range parts {
		riot.entries[p.PUUID] = soloEntry("DIAMOND")
	}
	svc := newTestLiveService(riot)

	var snapshots []domain.Snapshot
	game, enriched, err := svc.Watch(context.Background(), "Ana", "NA1", "NA", "key", func(s domain.Snapshot) {
		snapshots = append(snapshots, s)
	})

	require.NoError(t, err)
	require.NotNil(t, game)
	assert.EqualValues(t, 7, game.Game.GameID)
	assert.Equal(t, "p-ana", game.Account.PUUID)
	assert.Len(t, snapshots, 11)
	require.Len(t, enriched, 10)
	for _, p := range enriched {
		assert.True(t, p.IsLoaded)
	}
}

package domain

import (
	"time"

	"league-tracker/internal/api"
)

// EnrichedParticipant is a live-game participant plus the rank, mastery and
// champion data the pipeline fills in. IsLoaded flips to true exactly once,
// whether or not the individual fetches succeeded.
type EnrichedParticipant struct {
	PUUID        string             `json:"puuid"`
	SummonerID   string             `json:"summonerId,omitempty"`
	RiotID       string             `json:"riotId,omitempty"`
	ChampionID   int64              `json:"championId"`
	ChampionName string             `json:"championName,omitempty"`
	TeamID       int64              `json:"teamId"`
	Spell1ID     int64              `json:"spell1Id"`
	Spell2ID     int64              `json:"spell2Id"`
	Perks        *api.Perks         `json:"perks,omitempty"`
	RankSolo     *api.RankEntry     `json:"rankSolo,omitempty"`
	Mastery      []api.MasteryEntry `json:"mastery,omitempty"`
	IsLoaded     bool               `json:"isLoaded"`
}

// Snapshot is one incremental publication of the enrichment pipeline: the
// full participant list (a fresh slice each time) and rounded percentage
// progress.
type Snapshot struct {
	Participants []EnrichedParticipant `json:"participants"`
	Progress     int                   `json:"progress"`
}

// Lookup is one successfully resolved account, kept for search suggestions.
type Lookup struct {
	ID         string    `json:"id"`
	PUUID      string    `json:"puuid"`
	GameName   string    `json:"gameName"`
	TagLine    string    `json:"tagLine"`
	Region     string    `json:"region"`
	LastSeenAt time.Time `json:"lastSeenAt"`
	CreatedAt  time.Time `json:"createdAt"`
}

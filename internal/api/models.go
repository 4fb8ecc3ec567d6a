package api

// QueueRankedSolo is the league-v4 queueType the enrichment pipeline keeps;
// other queues (flex, arena) are discarded.
const QueueRankedSolo = "RANKED_SOLO_5x5"

type Account struct {
	PUUID    string `json:"puuid"`
	GameName string `json:"gameName"`
	TagLine  string `json:"tagLine"`
}

type Summoner struct {
	ID            string `json:"id"`
	PUUID         string `json:"puuid"`
	ProfileIconID int    `json:"profileIconId"`
	SummonerLevel int    `json:"summonerLevel"`
}

type LiveGame struct {
	GameID       int64             `json:"gameId"`
	GameMode     string            `json:"gameMode"`
	GameType     string            `json:"gameType"`
	MapID        int64             `json:"mapId"`
	GameLength   int64             `json:"gameLength"`
	PlatformID   string            `json:"platformId"`
	Participants []LiveParticipant `json:"participants"`
}

type LiveParticipant struct {
	PUUID string `json:"puuid"`
	// Spectator payloads routinely omit summonerId; the league lookup then
	// resolves it through summoner-v4.
	SummonerID string `json:"summonerId"`
	RiotID     string `json:"riotId"`
	ChampionID int64  `json:"championId"`
	TeamID     int64  `json:"teamId"`
	Spell1ID   int64  `json:"spell1Id"`
	Spell2ID   int64  `json:"spell2Id"`
	Perks      *Perks `json:"perks,omitempty"`
}

type Perks struct {
	PerkIDs      []int64 `json:"perkIds"`
	PerkStyle    int64   `json:"perkStyle"`
	PerkSubStyle int64   `json:"perkSubStyle"`
}

type RankEntry struct {
	QueueType    string `json:"queueType"`
	Tier         string `json:"tier"`
	Rank         string `json:"rank"`
	LeaguePoints int    `json:"leaguePoints"`
	Wins         int    `json:"wins"`
	Losses       int    `json:"losses"`
	HotStreak    bool   `json:"hotStreak"`
	Veteran      bool   `json:"veteran"`
	FreshBlood   bool   `json:"freshBlood"`
}

type MasteryEntry struct {
	ChampionID     int64 `json:"championId"`
	ChampionLevel  int   `json:"championLevel"`
	ChampionPoints int   `json:"championPoints"`
	LastPlayTime   int64 `json:"lastPlayTime"`
}

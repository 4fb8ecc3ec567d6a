// Package regions maps user-facing region codes to the two hostnames the
// upstream API partitions its endpoints across: a continental host for
// account-wide endpoints and a platform host for summoner, league and
// spectator endpoints.
package regions

import "strings"

type Routing struct {
	// e.g. "americas" — riot/account endpoints.
	Continental string
	// e.g. "na1" — summoner, league, spectator endpoints.
	Platform string
}

var routingTable = map[string]Routing{
	"NA":   {Continental: "americas", Platform: "na1"},
	"EUW":  {Continental: "europe", Platform: "euw1"},
	"EUNE": {Continental: "europe", Platform: "eun1"},
	"KR":   {Continental: "asia", Platform: "kr"},
}

var defaultRouting = Routing{Continental: "americas", Platform: "na1"}

// Resolve returns the host pair for a region code. Unknown codes fall back
// to the NA pair.
func Resolve(region string) Routing {
	if r, ok := routingTable[strings.ToUpper(region)]; ok {
		return r
	}
	return defaultRouting
}

// Supported lists the region codes with an explicit routing entry.
func Supported() []string {
	return []string{"NA", "EUW", "EUNE", "KR"}
}

func (r Routing) ContinentalHost() string {
	return "https://" + r.Continental + ".api.riotgames.com"
}

func (r Routing) PlatformHost() string {
	return "https://" + r.Platform + ".api.riotgames.com"
}

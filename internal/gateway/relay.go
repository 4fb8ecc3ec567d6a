package gateway

import (
	"encoding/json"
	"fmt"
	"net/url"
)

// Relay is one public URL-rewriting proxy. Wrap builds the relay's request
// URL for a fully-encoded target; Unwrap recovers the upstream status and
// body from the relay's response, which is either passed through verbatim
// or folded into a JSON envelope depending on the relay.
type Relay struct {
	Name   string
	Wrap   func(target string) string
	Unwrap func(status int, body []byte) (int, []byte, error)
}

func passthrough(status int, body []byte) (int, []byte, error) {
	return status, body, nil
}

// allOriginsEnvelope is the shape of api.allorigins.win/get responses: the
// upstream body is a string field and the upstream status is nested under
// status.http_code.
type allOriginsEnvelope struct {
	Contents string `json:"contents"`
	Status   struct {
		HTTPCode int `json:"http_code"`
	} `json:"status"`
}

func unwrapAllOrigins(status int, body []byte) (int, []byte, error) {
	if status != 200 {
		return status, body, nil
	}
	var env allOriginsEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return 0, nil, fmt.Errorf("relay envelope not parseable: %w", err)
	}
	if env.Status.HTTPCode != 0 {
		status = env.Status.HTTPCode
	}
	return status, []byte(env.Contents), nil
}

// DefaultRelays is the fixed priority order: the envelope relay first, then
// two passthrough relays as fallbacks.
func DefaultRelays() []Relay {
	return []Relay{
		{
			Name: "allorigins",
			Wrap: func(target string) string {
				return "https://api.allorigins.win/get?url=" + url.QueryEscape(target)
			},
			Unwrap: unwrapAllOrigins,
		},
		{
			Name: "corsproxy",
			Wrap: func(target string) string {
				return "https://corsproxy.io/?url=" + url.QueryEscape(target)
			},
			Unwrap: passthrough,
		},
		{
			Name: "codetabs",
			Wrap: func(target string) string {
				return "https://api.codetabs.com/v1/proxy?quest=" + url.QueryEscape(target)
			},
			Unwrap: passthrough,
		},
	}
}

// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package protocol maps negotiated protocol tokens, as reported by a
// transport connection, to a closed set of HTTP protocol versions.
package protocol

import "strings"

// Protocol identifies the wire protocol a response was received over.
type Protocol int

const (
	// HTTP10 is also the fallback for every unrecognized token.
	HTTP10 Protocol = iota
	HTTP11
	SPDY3
	HTTP2
	H2PriorKnowledge
	QUIC
	HTTP3
)

var tokens = map[string]Protocol{
	"http/1.0":           HTTP10,
	"http/1.1":           HTTP11,
	"spdy/3.1":           SPDY3,
	"h2":                 HTTP2,
	"h2_prior_knowledge": H2PriorKnowledge,
	"quic":               QUIC,
	"h3":                 HTTP3,
}

// String returns the canonical token of p.
func (p Protocol) String() string {
	switch p {
	case HTTP11:
		return "http/1.1"
	case SPDY3:
		return "spdy/3.1"
	case HTTP2:
		return "h2"
	case H2PriorKnowledge:
		return "h2_prior_knowledge"
	case QUIC:
		return "quic"
	case HTTP3:
		return "h3"
	default:
		return "http/1.0"
	}
}

// Version returns the HTTP version string along with its major and
// minor numbers, in the form net/http expects on a response.
func (p Protocol) Version() (proto string, major, minor int) {
	switch p {
	case HTTP11:
		return "HTTP/1.1", 1, 1
	case SPDY3, HTTP2, H2PriorKnowledge:
		return "HTTP/2.0", 2, 0
	case QUIC, HTTP3:
		return "HTTP/3.0", 3, 0
	default:
		return "HTTP/1.0", 1, 0
	}
}

// Parse reports the Protocol for a known token. Matching ignores case
// and surrounding whitespace. IETF draft tokens of the form "h3-<n>"
// are recognized as HTTP3.
func Parse(token string) (Protocol, bool) {
	t := strings.ToLower(strings.TrimSpace(token))
	if p, ok := tokens[t]; ok {
		return p, true
	}
	if draft, ok := strings.CutPrefix(t, "h3-"); ok && isDigits(draft) {
		return HTTP3, true
	}
	return HTTP10, false
}

// Resolve never fails: any token Parse does not recognize, including
// the empty string, resolves to HTTP10.
func Resolve(token string) Protocol {
	p, _ := Parse(token)
	return p
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

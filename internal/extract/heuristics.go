// Package extract implements best-effort extraction of head-to-head matchups
// from tournament-bracket HTML. The matching policy lives in a Heuristics
// value so the tree-walking extractor can be exercised against synthetic
// documents without touching a real page.
package extract

import "regexp"

// Heuristics is the swappable matching policy consumed by the Extractor.
type Heuristics struct {
	// ContainerClassHints are class-name substrings that mark a node as a
	// candidate match container, in priority order.
	ContainerClassHints []string

	// TeamClassHints are class-name substrings that mark an element as
	// carrying a team name.
	TeamClassHints []string

	// AltStoplist holds image alt texts that never name a team.
	AltStoplist []string

	// KnownTeams is the fixed entity list used by the fallback strategies.
	KnownTeams []string

	// RoundPattern matches stage labels like "Round 3".
	RoundPattern *regexp.Regexp

	// StageIndexes maps lower-case stage substrings to round sort keys for
	// brackets labeled by stage name instead of number. Checked in order of
	// StageOrder so "semifinal" wins over its "final" substring.
	StageIndexes map[string]int
	StageOrder   []string

	// AncestorDepth bounds the upward walk when deriving the round label.
	AncestorDepth int

	// PairDepth bounds the common-ancestor walk when pairing known-team
	// text nodes into containers.
	PairDepth int

	// DefaultRound and DefaultRoundIndex apply when no label is found.
	// Unlabeled matches join the earliest batch so the first prediction
	// pass on an unlabeled bracket still does work.
	DefaultRound      string
	DefaultRoundIndex int

	// MinNameLen and MaxNameLen bound plausible team-name lengths.
	MinNameLen int
	MaxNameLen int
}

// DefaultHeuristics returns the policy tuned for CS tournament pages.
func DefaultHeuristics() Heuristics {
	return Heuristics{
		ContainerClassHints: []string{"bracket-match", "match", "fixture", "game"},
		TeamClassHints:      []string{"team-name", "teamname", "team", "opponent"},
		AltStoplist:         []string{"logo", "icon", "flag"},
		KnownTeams: []string{
			"Natus Vincere", "NAVI", "G2 Esports", "G2", "FaZe Clan", "FaZe",
			"Team Vitality", "Vitality", "Astralis", "MOUZ", "mousesports",
			"Team Spirit", "Spirit", "Heroic", "Cloud9", "Complexity",
			"Team Liquid", "Liquid", "ENCE", "BIG", "Eternal Fire",
			"paiN", "FURIA", "Imperial", "Monte", "GamerLegion",
			"MIBR", "TheMongolz", "Virtus.pro", "Falcons",
			"9z", "SAW", "Aurora", "fnatic", "Ninjas in Pyjamas", "NIP",
		},
		RoundPattern: regexp.MustCompile(`(?i)round\s+(\d+)`),
		StageIndexes: map[string]int{
			"quarterfinal": 6,
			"quarter":      6,
			"semifinal":    7,
			"semi":         7,
			"grand final":  8,
			"final":        8,
		},
		StageOrder:        []string{"quarterfinal", "quarter", "semifinal", "semi", "grand final", "final"},
		AncestorDepth:     8,
		PairDepth:         5,
		DefaultRound:      "Round 1",
		DefaultRoundIndex: 1,
		MinNameLen:        2,
		MaxNameLen:        30,
	}
}

package extract

import (
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/csmajors/bracket-predictor/internal/model"
)

// Extractor scans a parsed HTML document for match containers and produces
// one MatchDescriptor per matchup found. Scanning is synchronous, idempotent
// and never fails — absence of signal yields an empty or partial list.
type Extractor struct {
	h      Heuristics
	logger *zap.Logger
}

// New creates an Extractor with the given matching policy.
func New(h Heuristics, logger *zap.Logger) *Extractor {
	return &Extractor{h: h, logger: logger}
}

var seedPrefix = regexp.MustCompile(`^[\(\[]?\d+[\)\].:]?\s+`)

// Scan walks the document and returns deduplicated match descriptors.
// Re-scanning an unchanged document yields descriptors with identical IDs.
func (e *Extractor) Scan(doc *html.Node) []model.MatchDescriptor {
	containers := e.findContainers(doc)

	var out []model.MatchDescriptor
	seen := make(map[string]struct{})

	for _, c := range containers {
		team1, team2, ok := e.extractTeams(c.node)
		if c.team1 != "" {
			// Known-team pairing already named the teams.
			team1, team2, ok = c.team1, c.team2, true
		}
		if !ok {
			// Fewer than two plausible names — not a match, not an error.
			continue
		}

		id := model.MatchID(team1, team2)
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		round, roundIndex := e.deriveRound(c.node)
		out = append(out, model.MatchDescriptor{
			ID:         id,
			Team1:      team1,
			Team2:      team2,
			Tournament: e.findTournament(doc, c.node),
			MatchType:  findMatchType(textContent(c.node)),
			Round:      round,
			RoundIndex: roundIndex,
		})
	}

	if e.logger != nil {
		e.logger.Debug("scan complete",
			zap.Int("containers", len(containers)),
			zap.Int("matches", len(out)),
		)
	}
	return out
}

// candidate is a container node, optionally with teams already resolved by
// the known-team pairing fallback.
type candidate struct {
	node  *html.Node
	team1 string
	team2 string
}

// findContainers collects candidate match containers by class-hint priority.
// When no hint matches anything, it falls back to pairing known-team text
// nodes under their nearest common ancestor.
func (e *Extractor) findContainers(doc *html.Node) []candidate {
	var out []candidate
	taken := make(map[*html.Node]struct{})

	for _, hint := range e.h.ContainerClassHints {
		walk(doc, func(n *html.Node) {
			if n.Type != html.ElementNode {
				return
			}
			if _, ok := taken[n]; ok {
				return
			}
			if strings.Contains(strings.ToLower(nodeClass(n)), hint) {
				taken[n] = struct{}{}
				out = append(out, candidate{node: n})
			}
		})
	}

	if len(out) == 0 {
		out = e.pairKnownTeams(doc)
	}
	return out
}

// pairKnownTeams scans leaf text nodes for known-entity names in document
// order and pairs consecutive hits via their nearest common ancestor within
// PairDepth levels. Unpairable hits are dropped.
func (e *Extractor) pairKnownTeams(doc *html.Node) []candidate {
	type hit struct {
		node *html.Node
		team string
	}
	var hits []hit

	walk(doc, func(n *html.Node) {
		if n.Type != html.TextNode {
			return
		}
		text := strings.ToLower(n.Data)
		if strings.TrimSpace(text) == "" {
			return
		}
		for _, team := range e.h.KnownTeams {
			if strings.Contains(text, strings.ToLower(team)) {
				hits = append(hits, hit{node: n, team: team})
				break
			}
		}
	})

	var out []candidate
	for i := 0; i+1 < len(hits); i += 2 {
		a, b := hits[i], hits[i+1]
		if a.team == b.team {
			continue
		}
		anc := commonAncestor(a.node, b.node, e.h.PairDepth)
		if anc == nil {
			continue
		}
		out = append(out, candidate{node: anc, team1: a.team, team2: b.team})
	}
	return out
}

// extractTeams applies the strategy cascade: team-name class hints, then
// image alt attributes, then known-team substrings. The first strategy
// yielding at least two unique names wins; the first two become the pair.
func (e *Extractor) extractTeams(container *html.Node) (string, string, bool) {
	if teams := e.teamsByClass(container); len(teams) >= 2 {
		return teams[0], teams[1], true
	}
	if teams := e.teamsByImageAlt(container); len(teams) >= 2 {
		return teams[0], teams[1], true
	}
	if teams := e.teamsByKnownNames(container); len(teams) >= 2 {
		return teams[0], teams[1], true
	}
	return "", "", false
}

func (e *Extractor) teamsByClass(container *html.Node) []string {
	var teams []string
	walk(container, func(n *html.Node) {
		if n.Type != html.ElementNode {
			return
		}
		class := strings.ToLower(nodeClass(n))
		if class == "" {
			return
		}
		matched := false
		for _, hint := range e.h.TeamClassHints {
			if strings.Contains(class, hint) {
				matched = true
				break
			}
		}
		if !matched {
			return
		}
		name := seedPrefix.ReplaceAllString(textContent(n), "")
		teams = e.appendName(teams, name)
	})
	return teams
}

func (e *Extractor) teamsByImageAlt(container *html.Node) []string {
	var teams []string
	walk(container, func(n *html.Node) {
		if n.Type != html.ElementNode || n.Data != "img" {
			return
		}
		alt := strings.TrimSpace(attrValue(n, "alt"))
		if alt == "" {
			return
		}
		for _, stop := range e.h.AltStoplist {
			if strings.EqualFold(alt, stop) {
				return
			}
		}
		teams = e.appendName(teams, alt)
	})
	return teams
}

// teamsByKnownNames matches the fixed entity list against the container text,
// ordered by position of occurrence. Overlapping matches (e.g. "G2" inside
// "G2 Esports") keep only the earlier, longer hit.
func (e *Extractor) teamsByKnownNames(container *html.Node) []string {
	text := strings.ToLower(textContent(container))

	type span struct {
		team       string
		start, end int
	}
	var spans []span
	for _, team := range e.h.KnownTeams {
		idx := strings.Index(text, strings.ToLower(team))
		if idx < 0 {
			continue
		}
		overlaps := false
		for _, s := range spans {
			if idx < s.end && idx+len(team) > s.start {
				overlaps = true
				break
			}
		}
		if !overlaps {
			spans = append(spans, span{team: team, start: idx, end: idx + len(team)})
		}
	}

	// Insertion sort by start offset; candidate lists are tiny.
	for i := 1; i < len(spans); i++ {
		for j := i; j > 0 && spans[j].start < spans[j-1].start; j-- {
			spans[j], spans[j-1] = spans[j-1], spans[j]
		}
	}

	var teams []string
	for _, s := range spans {
		teams = e.appendName(teams, s.team)
	}
	return teams
}

func (e *Extractor) appendName(teams []string, name string) []string {
	name = strings.TrimSpace(name)
	if len(name) < e.h.MinNameLen || len(name) > e.h.MaxNameLen {
		return teams
	}
	for _, t := range teams {
		if t == name {
			return teams
		}
	}
	return append(teams, name)
}

// deriveRound climbs the container's ancestors looking at nearby preceding
// siblings for a "Round N" label or a recognized stage name. The nearest
// label wins; unlabeled containers get the default round so every descriptor
// still sorts deterministically.
func (e *Extractor) deriveRound(container *html.Node) (string, int) {
	node := container
	for depth := 0; depth < e.h.AncestorDepth && node != nil; depth++ {
		for sib := node.PrevSibling; sib != nil; sib = sib.PrevSibling {
			if label, idx, ok := e.matchRoundLabel(textContent(sib)); ok {
				return label, idx
			}
		}
		node = node.Parent
	}
	return e.h.DefaultRound, e.h.DefaultRoundIndex
}

func (e *Extractor) matchRoundLabel(text string) (string, int, bool) {
	if m := e.h.RoundPattern.FindStringSubmatch(text); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil && n > 0 {
			return "Round " + m[1], n, true
		}
	}
	lower := strings.ToLower(text)
	for _, stage := range e.h.StageOrder {
		if strings.Contains(lower, stage) {
			return titleCase(stage), e.h.StageIndexes[stage], true
		}
	}
	return "", 0, false
}

// findTournament looks for an event name near the container, falling back to
// the first document heading.
func (e *Extractor) findTournament(doc, container *html.Node) string {
	node := container
	for depth := 0; depth < e.h.AncestorDepth && node != nil; depth++ {
		class := strings.ToLower(nodeClass(node))
		if strings.Contains(class, "tournament") || strings.Contains(class, "event") {
			if name := boundedText(textContent(node)); name != "" {
				return name
			}
		}
		node = node.Parent
	}

	var heading string
	walk(doc, func(n *html.Node) {
		if heading != "" || n.Type != html.ElementNode {
			return
		}
		if n.Data == "h1" || n.Data == "h2" {
			heading = boundedText(textContent(n))
		}
	})
	if heading != "" {
		return heading
	}
	return "Championship"
}

func boundedText(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 3 && len(s) < 100 {
		return s
	}
	return ""
}

// findMatchType sniffs the series format from container text.
func findMatchType(text string) string {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "bo5") || strings.Contains(lower, "best of 5"):
		return "Best of 5"
	case strings.Contains(lower, "bo1") || strings.Contains(lower, "best of 1"):
		return "Best of 1"
	default:
		return "Best of 3"
	}
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// walk applies fn to every node in depth-first document order.
func walk(n *html.Node, fn func(*html.Node)) {
	fn(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

// textContent returns the space-joined text of a subtree.
func textContent(n *html.Node) string {
	var sb strings.Builder
	var traverse func(*html.Node)
	traverse = func(node *html.Node) {
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
			sb.WriteString(" ")
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(n)
	return strings.TrimSpace(sb.String())
}

func nodeClass(n *html.Node) string {
	return attrValue(n, "class")
}

func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// commonAncestor finds the nearest shared ancestor of a and b, walking at
// most maxDepth levels up from each.
func commonAncestor(a, b *html.Node, maxDepth int) *html.Node {
	ancestors := make(map[*html.Node]struct{})
	node := a
	for depth := 0; depth <= maxDepth && node != nil; depth++ {
		ancestors[node] = struct{}{}
		node = node.Parent
	}
	node = b
	for depth := 0; depth <= maxDepth && node != nil; depth++ {
		if _, ok := ancestors[node]; ok {
			return node
		}
		node = node.Parent
	}
	return nil
}

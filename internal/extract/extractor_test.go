package extract

import (
	"strings"
	"testing"

	"go.uber.org/zap"
)

func newTestExtractor() *Extractor {
	return New(DefaultHeuristics(), zap.NewNop())
}

func TestScan_TeamNameClasses(t *testing.T) {
	raw := `<html><body>
		<h1>IEM Katowice 2026</h1>
		<div>Round 2</div>
		<div class="bracket-match">
			<div class="team-name">1. NAVI</div>
			<div class="team-name">FaZe Clan</div>
		</div>
	</body></html>`

	doc, err := Parse(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("parsing html: %v", err)
	}

	matches := newTestExtractor().Scan(doc)
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}

	m := matches[0]
	if m.Team1 != "NAVI" {
		t.Errorf("expected seed prefix stripped, got team1 %q", m.Team1)
	}
	if m.Team2 != "FaZe Clan" {
		t.Errorf("expected team2 'FaZe Clan', got %q", m.Team2)
	}
	if m.ID != "navivsfazeclan" {
		t.Errorf("expected id navivsfazeclan, got %q", m.ID)
	}
	if m.Round != "Round 2" || m.RoundIndex != 2 {
		t.Errorf("expected Round 2 / index 2, got %q / %d", m.Round, m.RoundIndex)
	}
	if m.Tournament != "IEM Katowice 2026" {
		t.Errorf("expected tournament from heading, got %q", m.Tournament)
	}
	if m.MatchType != "Best of 3" {
		t.Errorf("expected default match type, got %q", m.MatchType)
	}
}

func TestScan_ImageAltFallback(t *testing.T) {
	raw := `<html><body>
		<div class="match">
			<img alt="logo">
			<img alt="Team Spirit"> vs <img alt="MOUZ">
		</div>
	</body></html>`

	doc, err := Parse(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("parsing html: %v", err)
	}

	matches := newTestExtractor().Scan(doc)
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}

	m := matches[0]
	if m.Team1 != "Team Spirit" || m.Team2 != "MOUZ" {
		t.Errorf("expected alt-text teams skipping the stoplist, got %q vs %q", m.Team1, m.Team2)
	}
}

func TestScan_KnownTeamPairing(t *testing.T) {
	// No container or team classes anywhere: the extractor pairs consecutive
	// known-team text nodes under their common ancestor.
	raw := `<html><body>
		<table>
			<tr><td>Natus Vincere</td><td>FaZe Clan</td></tr>
			<tr><td>Team Spirit</td><td>MOUZ</td></tr>
		</table>
	</body></html>`

	doc, err := Parse(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("parsing html: %v", err)
	}

	matches := newTestExtractor().Scan(doc)
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}

	if matches[0].ID != "natusvincerevsfazeclan" {
		t.Errorf("unexpected first id %q", matches[0].ID)
	}
	if matches[1].ID != "teamspiritvsmouz" {
		t.Errorf("unexpected second id %q", matches[1].ID)
	}
}

func TestScan_StageLabelRound(t *testing.T) {
	raw := `<html><body>
		<section>
			<h2>Semifinals</h2>
			<div class="match">
				<div class="team">Heroic</div>
				<div class="team">Cloud9</div>
			</div>
		</section>
	</body></html>`

	doc, err := Parse(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("parsing html: %v", err)
	}

	matches := newTestExtractor().Scan(doc)
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}

	if matches[0].Round != "Semifinal" || matches[0].RoundIndex != 7 {
		t.Errorf("expected Semifinal / 7, got %q / %d", matches[0].Round, matches[0].RoundIndex)
	}
}

func TestScan_UnlabeledRoundDefaults(t *testing.T) {
	raw := `<html><body>
		<div class="match">
			<div class="team">Heroic</div>
			<div class="team">Cloud9</div>
		</div>
	</body></html>`

	doc, err := Parse(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("parsing html: %v", err)
	}

	matches := newTestExtractor().Scan(doc)
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}

	if matches[0].Round != "Round 1" || matches[0].RoundIndex != 1 {
		t.Errorf("expected default Round 1 / 1, got %q / %d", matches[0].Round, matches[0].RoundIndex)
	}
	if matches[0].Tournament != "Championship" {
		t.Errorf("expected fallback tournament name, got %q", matches[0].Tournament)
	}
}

func TestScan_MatchTypeDetection(t *testing.T) {
	raw := `<html><body>
		<div class="match">
			<span>BO5</span>
			<div class="team">Heroic</div>
			<div class="team">Cloud9</div>
		</div>
	</body></html>`

	doc, err := Parse(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("parsing html: %v", err)
	}

	matches := newTestExtractor().Scan(doc)
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	if matches[0].MatchType != "Best of 5" {
		t.Errorf("expected Best of 5, got %q", matches[0].MatchType)
	}
}

func TestScan_DeduplicatesRepeatedMatches(t *testing.T) {
	raw := `<html><body>
		<div class="match">
			<div class="team">Heroic</div>
			<div class="team">Cloud9</div>
		</div>
		<div class="match">
			<div class="team">Heroic</div>
			<div class="team">Cloud9</div>
		</div>
	</body></html>`

	doc, err := Parse(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("parsing html: %v", err)
	}

	matches := newTestExtractor().Scan(doc)
	if len(matches) != 1 {
		t.Fatalf("expected duplicate container collapsed to 1 match, got %d", len(matches))
	}
}

func TestScan_Idempotent(t *testing.T) {
	raw := `<html><body>
		<div>Round 3</div>
		<div class="fixture">
			<div class="team">ENCE</div>
			<div class="team">BIG</div>
		</div>
	</body></html>`

	doc, err := Parse(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("parsing html: %v", err)
	}

	ex := newTestExtractor()
	first := ex.Scan(doc)
	second := ex.Scan(doc)

	if len(first) != len(second) {
		t.Fatalf("expected identical scan sizes, got %d and %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Errorf("scan %d: id %q != %q", i, first[i].ID, second[i].ID)
		}
	}
}

func TestScan_IgnoresContainersWithoutTwoTeams(t *testing.T) {
	raw := `<html><body>
		<div class="match">
			<div class="team">OnlyOneTeam</div>
		</div>
	</body></html>`

	doc, err := Parse(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("parsing html: %v", err)
	}

	matches := newTestExtractor().Scan(doc)
	if len(matches) != 0 {
		t.Fatalf("expected no matches, got %d", len(matches))
	}
}

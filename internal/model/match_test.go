package model

import "testing"

func TestMatchID(t *testing.T) {
	tests := []struct {
		team1, team2 string
		want         string
	}{
		{"NAVI", "FaZe", "navivsfaze"},
		{"G2 Esports", "Team Vitality", "g2esportsvsteamvitality"},
		{"Virtus.pro", "Ninjas in Pyjamas", "virtusprovsninjasinpyjamas"},
		{"9z", "BIG", "9zvsbig"},
	}

	for _, tt := range tests {
		if got := MatchID(tt.team1, tt.team2); got != tt.want {
			t.Errorf("MatchID(%q, %q) = %q, want %q", tt.team1, tt.team2, got, tt.want)
		}
	}
}

func TestMatchID_OrderSensitive(t *testing.T) {
	ab := MatchID("Alpha", "Beta")
	ba := MatchID("Beta", "Alpha")
	if ab == ba {
		t.Errorf("expected order-sensitive IDs, both were %q", ab)
	}
}

func TestMatchID_Stable(t *testing.T) {
	if MatchID("FaZe Clan", "MOUZ") != MatchID("FaZe Clan", "MOUZ") {
		t.Error("expected identical inputs to yield identical IDs")
	}
}

func TestClampConfidence(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{-10, 0},
		{0, 0},
		{55, 55},
		{100, 100},
		{150, 100},
	}

	for _, tt := range tests {
		if got := ClampConfidence(tt.in); got != tt.want {
			t.Errorf("ClampConfidence(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestValidRisk(t *testing.T) {
	for _, valid := range []string{"low", "medium", "high"} {
		if !ValidRisk(valid) {
			t.Errorf("expected %q to be valid", valid)
		}
	}
	for _, invalid := range []string{"", "moderate", "LOW", "extreme"} {
		if ValidRisk(invalid) {
			t.Errorf("expected %q to be invalid", invalid)
		}
	}
}

package predict

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"github.com/csmajors/bracket-predictor/internal/model"
)

// completionSchema mirrors the JSON format the prompt asks the model to emit.
// Confidence is a pointer so "absent" is distinguishable from zero.
type completionSchema struct {
	PredictedWinner string   `json:"predictedWinner"`
	Confidence      *int     `json:"confidence"`
	PredictedScore  string   `json:"predictedScore"`
	KeyFactors      []string `json:"keyFactors"`
	RiskLevel       string   `json:"riskLevel"`
	BriefAnalysis   string   `json:"briefAnalysis"`
}

// parseCompletion turns raw completion text into a well-formed result. It
// first tries the JSON the prompt asked for; if the model rambled instead,
// the heuristic fallback still produces a usable prediction. Given non-empty
// text this never fails.
func parseCompletion(text string, req model.PredictionRequest) *model.PredictionResult {
	result := &model.PredictionResult{
		Team1:       req.Team1,
		Team2:       req.Team2,
		RawResponse: text,
		Timestamp:   time.Now().UTC(),
	}

	if raw, ok := extractJSONObject(text); ok {
		var parsed completionSchema
		if err := json.Unmarshal([]byte(raw), &parsed); err == nil && parsed.PredictedWinner != "" {
			result.PredictedWinner = parsed.PredictedWinner
			result.Confidence = model.ClampConfidence(valueOr(parsed.Confidence, defaultConfidence))
			result.PredictedScore = parsed.PredictedScore
			result.KeyFactors = parsed.KeyFactors
			result.RiskLevel = normalizeRisk(parsed.RiskLevel)
			result.BriefAnalysis = parsed.BriefAnalysis
			return result
		}
	}

	result.PredictedWinner = fallbackWinner(text, req)
	result.Confidence = fallbackConfidence(text)
	result.RiskLevel = model.RiskMedium
	result.BriefAnalysis = truncate(text, 500)
	return result
}

// extractJSONObject returns the first balanced top-level JSON object
// substring, honoring string literals and escapes.
func extractJSONObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

const defaultConfidence = 55

// fallbackWinner picks whichever team is mentioned more often in the text;
// a tie means the model never committed to a side.
func fallbackWinner(text string, req model.PredictionRequest) string {
	lower := strings.ToLower(text)
	count1 := strings.Count(lower, strings.ToLower(req.Team1))
	count2 := strings.Count(lower, strings.ToLower(req.Team2))

	switch {
	case count1 > count2:
		return req.Team1
	case count2 > count1:
		return req.Team2
	default:
		return model.WinnerUncertain
	}
}

var percentPattern = regexp.MustCompile(`(\d{1,2}|100)\s*%`)

// fallbackConfidence reads the first "NN%" in the text, else grades hedging
// language.
func fallbackConfidence(text string) int {
	if m := percentPattern.FindStringSubmatch(text); m != nil {
		n := 0
		for _, c := range m[1] {
			n = n*10 + int(c-'0')
		}
		return model.ClampConfidence(n)
	}

	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "highly likely") || strings.Contains(lower, "very confident"):
		return 80
	case strings.Contains(lower, "likely") || strings.Contains(lower, "should win"):
		return 65
	case strings.Contains(lower, "close") || strings.Contains(lower, "toss-up"):
		return 50
	default:
		return defaultConfidence
	}
}

func normalizeRisk(s string) model.RiskLevel {
	s = strings.ToLower(strings.TrimSpace(s))
	if model.ValidRisk(s) {
		return model.RiskLevel(s)
	}
	return model.RiskMedium
}

func valueOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

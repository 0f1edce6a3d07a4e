package predict

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/csmajors/bracket-predictor/internal/model"
)

// systemPrompt frames the model as an esports analyst and pins the output
// contract to structured JSON.
const systemPrompt = `You are an expert CS2 esports analyst with deep knowledge of professional Counter-Strike.
You analyze team match histories, recent form, head-to-head records, map pools, and roster changes to predict match outcomes.
Your predictions should be based on factual historical performance and current team conditions.
Always provide your analysis in a structured JSON format.`

// snippetLimit bounds each search snippet embedded in the prompt.
const snippetLimit = 300

// buildUserPrompt composes the single natural-language prompt: match
// metadata, optional search context, and the fixed JSON response schema.
func buildUserPrompt(req model.PredictionRequest, searchContext string) string {
	var b strings.Builder

	fmt.Fprintf(&b, `Analyze this CS2 match and provide a prediction:

**Match Details:**
- Team 1: %s
- Team 2: %s
- Tournament: %s
- Match Type: %s

`, req.Team1, req.Team2, orDefault(req.Tournament, "Major Championship"), orDefault(req.MatchType, "Best of 3"))

	if searchContext != "" {
		b.WriteString("**Recent Context (from web search):**\n")
		b.WriteString(searchContext)
		b.WriteString("\n\n")
	}

	b.WriteString(`**Analysis Request:**
Based on these teams' recent performances, head-to-head records, map pools, current form, and any recent roster changes, predict the outcome of this match.

Please provide your response in the following JSON format:
{
  "predictedWinner": "Team Name",
  "confidence": 75,
  "predictedScore": "2-1",
  "keyFactors": [
    "Factor 1 explanation",
    "Factor 2 explanation",
    "Factor 3 explanation"
  ],
  "riskLevel": "low|medium|high",
  "briefAnalysis": "2-3 sentence summary of the prediction rationale"
}`)

	return b.String()
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// truncate caps s at n bytes without splitting a multi-byte rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

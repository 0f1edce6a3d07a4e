package model

// MatchPhase is the lifecycle of one match within a prediction pass.
type MatchPhase string

const (
	PhaseLoading MatchPhase = "loading"
	PhaseSuccess MatchPhase = "success"
	PhaseError   MatchPhase = "error"
)

// MatchState is what the presentation layer is told about one match.
// Result is set only for PhaseSuccess, Error only for PhaseError.
type MatchState struct {
	Phase  MatchPhase        `json:"phase"`
	Result *PredictionResult `json:"result,omitempty"`
	Error  string            `json:"error,omitempty"`
}

// PassStatus describes the engine as a whole.
type PassStatus string

const (
	PassIdle     PassStatus = "idle"
	PassScanning PassStatus = "scanning"
	PassBusy     PassStatus = "busy"
	PassError    PassStatus = "error"
	PassAllDone  PassStatus = "all_done"
)

// PassSummary reports the outcome of one round-gated prediction pass.
// NextRound is empty when no unpredicted rounds remain.
type PassSummary struct {
	Predicted int    `json:"predicted"`
	Failed    int    `json:"failed"`
	NextRound string `json:"next_round,omitempty"`
}

// Settings is the flat, runtime-editable configuration record — the stored
// counterpart of the extension-style options page. Values here override the
// config file.
type Settings struct {
	CompletionAPIKey string `json:"completion_api_key,omitempty"`
	SearchAPIKey     string `json:"search_api_key,omitempty"`
	ModelID          string `json:"model_id,omitempty"`
	AutoPredict      bool   `json:"auto_predict"`
	ShowConfidence   bool   `json:"show_confidence"`
	IncludeRankings  bool   `json:"include_rankings"`
}

package model

import json "github.com/goccy/go-json"

type EvaluationResponse struct {
	CalculationMetadata CalculationMetadata `json:"calculation_metadata"`
	Result              ScenarioResult      `json:"result"`
}

type CalculationMetadata struct {
	CalculationID          string `json:"calculation_id"`
	Profile                string `json:"profile"`
	CalculationStartedAt   string `json:"calculation_started_at"`
	CalculationCompletedAt string `json:"calculation_completed_at"`
	CalculationDurationMs  int64  `json:"calculation_duration_ms"`
	CalculationOutcome     string `json:"calculation_outcome"`
}

type CompareResponse struct {
	Baseline  EvaluationResponse `json:"baseline"`
	Candidate EvaluationResponse `json:"candidate"`
	Patch     []PatchOperation   `json:"patch"`
	Revert    []PatchOperation   `json:"revert"`
}

const (
	OpAdd     = "add"
	OpRemove  = "remove"
	OpReplace = "replace"
)

// PatchOperation is a single RFC 6902 operation.
type PatchOperation struct {
	Op    string      `json:"op"`
	Path  string      `json:"path"`
	Value interface{} `json:"value"`
}

// MarshalJSON drops value from remove operations only; add and replace keep
// it even when it is null.
func (o PatchOperation) MarshalJSON() ([]byte, error) {
	if o.Op == OpRemove {
		return json.Marshal(struct {
			Op   string `json:"op"`
			Path string `json:"path"`
		}{o.Op, o.Path})
	}
	type plain PatchOperation
	return json.Marshal(plain(o))
}

type ErrorResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

const (
	OutcomeSuccess             = "SUCCESS"
	OutcomeSuccessWithWarnings = "SUCCESS_WITH_WARNINGS"
)

package model

import "encoding/json"

// ScenarioRequest is the body accepted by the evaluate, summary and
// submission endpoints. Preset fills defaults before Scenario is applied.
type ScenarioRequest struct {
	Name     string          `json:"name,omitempty"`
	Preset   string          `json:"preset,omitempty"`
	Scenario json.RawMessage `json:"scenario"`
}

type CompareRequest struct {
	Baseline  ScenarioRequest `json:"baseline"`
	Candidate ScenarioRequest `json:"candidate"`
}

type VoteRequest struct {
	Option string `json:"option"`
}

// Package engine derives the full capitation-versus-fee-for-service picture
// for one scenario. Every function here is pure: no I/O, no shared state.
package engine

import (
	"time"

	"github.com/google/uuid"

	"capitation-engine/internal/model"
	"capitation-engine/internal/rules"
)

// Evaluate normalises raw and runs every derivation stage against profile p.
// It never fails; every degenerate input resolves to a documented value and
// a message.
func Evaluate(raw model.ScenarioInput, p *rules.Profile) model.ScenarioResult {
	in, msgs := Normalize(raw, p)
	n := &normalizer{msgs: msgs}

	ffs := feeForService(&in, p)
	team := composeTeam(&in, p)
	demand := projectDemand(&in, p, team)
	mix := serviceMix(&in, p, demand.TotalVisits, n)
	cp := capitation(&in, p, team, demand, ffs)
	cov := evaluateCoverage(&in, p, team)
	m := collectMetrics(&in, ffs, cp, team, demand, mix, cov)
	score := scoreScenario(p, m, cov)

	messages := n.msgs
	if messages == nil {
		messages = []model.CalculationMessage{}
	}
	for i := range messages {
		messages[i].ID = i
	}

	return model.ScenarioResult{
		Profile:    p.Name,
		Input:      in,
		FFS:        ffs,
		Capitation: cp,
		Team:       team,
		Demand:     demand,
		ServiceMix: mix,
		Coverage:   cov,
		Score:      score,
		Benchmarks: benchmark(&in, p, ffs, demand, team, cov),
		Messages:   messages,
	}
}

// Process wraps Evaluate with calculation metadata.
func Process(raw model.ScenarioInput, p *rules.Profile) *model.EvaluationResponse {
	start := time.Now()

	result := Evaluate(raw, p)

	outcome := model.OutcomeSuccess
	if len(result.Messages) > 0 {
		outcome = model.OutcomeSuccessWithWarnings
	}

	elapsed := time.Since(start)
	now := time.Now().UTC()

	return &model.EvaluationResponse{
		CalculationMetadata: model.CalculationMetadata{
			CalculationID:          uuid.New().String(),
			Profile:                p.Name,
			CalculationStartedAt:   now.Add(-elapsed).Format(time.RFC3339),
			CalculationCompletedAt: now.Format(time.RFC3339),
			CalculationDurationMs:  elapsed.Milliseconds(),
			CalculationOutcome:     outcome,
		},
		Result: result,
	}
}

// DefaultInput returns a scenario seeded from p: fee-for-service fields from
// the profession's role profile, default CTCs and the default service mix.
// An empty or non-clinical profession uses the profile default.
func DefaultInput(p *rules.Profile, profession model.Role) model.ScenarioInput {
	if !profession.Clinical() {
		profession = p.DefaultProfession
	}
	rp := p.Role(profession)

	ctc := make(map[model.Role]float64, len(model.Roles))
	for _, role := range model.Roles {
		ctc[role] = p.Role(role).DefaultCTC
	}
	mix := p.DefaultServiceMix

	return model.ScenarioInput{
		Profession:       profession,
		ConsultsPerDay:   rp.DefaultDailyCount,
		Fee:              rp.DefaultFee,
		CostOfServicePct: rp.DefaultCostPct,
		VisitsPerUser:    p.Demand.VisitsPerUser,
		Team:             map[model.Role]float64{profession: 1},
		CTC:              ctc,
		ServiceMix:       &mix,
	}
}

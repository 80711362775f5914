package engine

import (
	"math"

	"capitation-engine/internal/model"
	"capitation-engine/internal/rules"
)

func feeForService(in *model.ScenarioInput, p *rules.Profile) model.FFSResult {
	consultations := in.ConsultsPerDay * p.WorkingDays
	turnover := consultations * in.Fee
	cost := turnover * in.CostOfServicePct / 100
	return model.FFSResult{
		AnnualConsultations: consultations,
		Turnover:            model.NewAmount(turnover),
		CostOfService:       model.NewAmount(cost),
		NetIncome:           model.NewAmount(turnover - cost),
		CostPerConsult:      in.Fee * in.CostOfServicePct / 100,
	}
}

func capitation(in *model.ScenarioInput, p *rules.Profile, team model.TeamResult, demand model.DemandResult, ffs model.FFSResult) model.CapitationResult {
	budget := in.Population * in.CapitationRate

	var costOfService float64
	switch p.Cost.Policy {
	case rules.CostPolicyFlatRemainder:
		costOfService = p.Cost.FlatPct / 100 * math.Max(0, budget-team.TotalCost)
	default:
		// Clinic visits only; CHW community contacts carry no consult cost.
		costOfService = ffs.CostPerConsult * demand.TotalVisits
	}

	var referral float64
	if in.FTE(model.RolePsychiatrist) == 0 {
		referral = demand.ClinicalUsers * p.Cost.MedicationNeedFraction * p.Cost.ReferralCostPerUser
	}

	net := budget - team.TotalCost - costOfService - referral

	// The principal draws their own salary (pro rata up to one FTE) plus
	// their share of whatever the contract leaves over.
	principalCTC := in.CTC[in.Profession] * math.Min(1, in.FTE(in.Profession))
	income := principalCTC + p.Cost.SurplusShare*net

	return model.CapitationResult{
		CostPolicy:      p.Cost.Policy,
		Budget:          model.NewAmount(budget),
		TeamCost:        model.NewAmount(team.TotalCost),
		CostOfService:   model.NewAmount(costOfService),
		ReferralCost:    model.NewAmount(referral),
		NetIncome:       model.NewAmount(net),
		RemainingBudget: model.NewAmount(budget - team.TotalCost),
		PrincipalIncome: model.NewAmount(income),
		TeamCostPct:     pct(team.TotalCost, budget),
		IncomeDiffPct:   safeRatio(income-ffs.NetIncome.Annual, ffs.NetIncome.Annual, 0) * 100,
		CostPerVisit:    safeRatio(team.TotalCost, demand.TotalVisits, 0),
	}
}

package engine

import (
	"math"

	"capitation-engine/internal/model"
	"capitation-engine/internal/rules"
)

func benchmark(in *model.ScenarioInput, p *rules.Profile, ffs model.FFSResult, demand model.DemandResult,
	team model.TeamResult, cov model.CoverageResult) model.BenchmarkResult {
	national := p.Benchmarks.NationalRatio
	return model.BenchmarkResult{
		FFSAnnualConsultations:    ffs.AnnualConsultations,
		EngagementMultiplier:      perHead(demand.TotalEngaged, ffs.AnnualConsultations),
		TreatmentGapClosedPct:     math.Min(100, perHead(demand.TotalEngaged, in.Population*p.Benchmarks.Prevalence)*100),
		PopulationPerPsychologist: model.Ratio(unboundedRatio(in.Population, team.PsychologistFTE)),
		NationalRatio:             national,
		CoverageIndexPct:          math.Min(100, perHead(team.PsychologistFTE*national, in.Population)*100),
		TaskShiftRatio:            cov.SupervisionRatio,
	}
}

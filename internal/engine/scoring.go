package engine

import (
	"math"
	"strings"

	"capitation-engine/internal/model"
	"capitation-engine/internal/rules"
)

type metrics map[string]float64

func collectMetrics(in *model.ScenarioInput, ffs model.FFSResult, cp model.CapitationResult, team model.TeamResult,
	demand model.DemandResult, mix model.ServiceMixResult, cov model.CoverageResult) metrics {
	m := metrics{
		rules.MetricIncomeRatioPct:          unboundedRatio(cp.PrincipalIncome.Annual, ffs.NetIncome.Annual) * 100,
		rules.MetricCapacityUtilisationPct:  float64(demand.CapacityUtilisationPct),
		rules.MetricPopEngagedPct:           demand.PopEngagedPct,
		rules.MetricTeamCostPct:             cp.TeamCostPct,
		rules.MetricEffectiveUtilisationPct: demand.EffectiveUtilisationPct,
		rules.MetricTaskShiftRatio:          float64(cov.SupervisionRatio),
		rules.MetricVisitsPerUser:           in.VisitsPerUser,
		rules.MetricNurseFTE:                in.FTE(model.RoleMentalHealthNurse),
	}
	for _, line := range mix.Lines {
		if line.Category == "group" {
			m[rules.MetricGroupMixPct] = line.Pct
		}
	}
	return m
}

func coverageGaps(cov model.CoverageResult) map[string]bool {
	return map[string]bool{
		rules.GapNoPsychiatrist:  hasTag(cov.Missing, ServicePrescribing),
		rules.GapNoPsychologist:  hasTag(cov.Missing, ServiceDiagnosisTherapy),
		rules.GapIllegalTeam:     !cov.TeamIsLegal,
		rules.GapNoNurse:         hasTag(cov.Missing, ServiceCrisisTriage),
		rules.GapNoCommunityTeam: hasTag(cov.Missing, ServiceCommunityOutreach),
	}
}

func scoreScenario(p *rules.Profile, m metrics, cov model.CoverageResult) model.ScoreResult {
	gaps := coverageGaps(cov)
	res := model.ScoreResult{
		Max:         p.MaxScore(),
		Suggestions: []string{},
		Badges:      []string{},
	}
	seen := make(map[string]bool)

	for _, c := range p.Scoring.Components {
		sc := model.ScoreComponent{Key: c.Key, Label: c.Label, Max: c.Max}
		var applied []string

		if c.Ladder != nil {
			v := m[c.Metric]
			sc.Metric = model.Ratio(v)
			sc.Points = Lookup(*c.Ladder, v)
		} else {
			var deducted float64
			for _, d := range c.Deductions {
				if gaps[d.Gap] {
					deducted += d.Points
					applied = append(applied, d.Suggestion)
				}
			}
			sc.Metric = model.Ratio(deducted)
			sc.Points = math.Max(0, c.Max-deducted)
		}

		res.Components = append(res.Components, sc)
		res.Total += sc.Points

		if sc.Points < c.SuggestBelow {
			text := c.Suggestion
			if len(applied) > 0 {
				text = c.Suggestion + ": " + strings.Join(applied, "; ") + "."
			}
			if text != "" && !seen[text] {
				seen[text] = true
				res.Suggestions = append(res.Suggestions, text)
			}
		}
	}

	res.Grade, res.Rating = grade(p.Scoring.Grades, res.Total)

	for _, b := range p.Scoring.Badges {
		if earned(b, m) {
			res.Badges = append(res.Badges, b.Name)
		}
	}
	return res
}

func grade(grades []rules.Grade, total float64) (string, string) {
	for _, g := range grades {
		if total >= g.Min {
			return g.Grade, g.Rating
		}
	}
	if len(grades) == 0 {
		return "", ""
	}
	last := grades[len(grades)-1]
	return last.Grade, last.Rating
}

func earned(b rules.Badge, m metrics) bool {
	if len(b.Conditions) == 0 {
		return false
	}
	for _, c := range b.Conditions {
		if !satisfies(c.Direction, m[c.Metric], c.Threshold) {
			return false
		}
	}
	return true
}

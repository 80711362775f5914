package engine

import (
	"math"

	"capitation-engine/internal/model"
	"capitation-engine/internal/rules"
)

// chwFTE is the community health worker head count the scenario funds.
// Auto-sizing profiles derive it from health-promotion effort per
// population unit; otherwise the user's team value stands.
func chwFTE(in *model.ScenarioInput, p *rules.Profile) (float64, bool) {
	if !p.CHW.AutoSize {
		return in.FTE(model.RoleCommunityHealthWorker), false
	}
	if p.CHW.PopulationUnit <= 0 {
		return 0, true
	}
	return in.HealthPromotionPct / 100 * (in.Population / p.CHW.PopulationUnit), true
}

func composeTeam(in *model.ScenarioInput, p *rules.Profile) model.TeamResult {
	var t model.TeamResult
	t.CHWFTE, t.CHWAutoSized = chwFTE(in, p)

	var sessionMinutes float64
	for _, role := range model.Roles {
		rp := p.Role(role)
		fte := in.FTE(role)
		if role == model.RoleCommunityHealthWorker {
			fte = t.CHWFTE
		}
		line := model.TeamLine{
			Role: role,
			FTE:  fte,
			CTC:  in.CTC[role],
			Cost: fte * in.CTC[role],
		}
		if role.Clinical() {
			line.DailyCapacity = fte * rp.DailyCapacity
			t.ClinicalFTE += fte
			t.RawDailyCapacity += line.DailyCapacity
			sessionMinutes += fte * rp.SessionMinutes
		}
		t.TotalCost += line.Cost
		t.Lines = append(t.Lines, line)
	}
	t.PsychologistFTE = in.FTE(model.RoleClinicalPsychologist) + in.FTE(model.RoleCounsellingPsychologist)

	// The principal's own supervision/MDT time comes off once, however many
	// FTE of their role the team carries.
	t.DailyCapacity = t.RawDailyCapacity
	if in.FTE(in.Profession) > 0 {
		duty := p.Demand.DutyFraction * p.Role(in.Profession).DailyCapacity
		t.DailyCapacity = math.Max(0, t.RawDailyCapacity-duty)
	}
	t.DutyDeduction = t.RawDailyCapacity - t.DailyCapacity

	t.NoClinicalStaff = t.ClinicalFTE == 0
	t.AvgSessionMinutes = safeRatio(sessionMinutes, t.ClinicalFTE, 0)
	return t
}

// EffectiveUtilisation applies health-promotion effort to the base rate and
// never lets it fall below the floor of irreducible chronic-care demand.
func EffectiveUtilisation(basePct, effortPct, floorPct float64) float64 {
	return math.Max(floorPct, basePct*(1-effortPct/100))
}

func projectDemand(in *model.ScenarioInput, p *rules.Profile, team model.TeamResult) model.DemandResult {
	d := model.DemandResult{
		BaseUtilisationPct: in.UtilisationPct,
		VisitsPerUser:      in.VisitsPerUser,
	}
	reduced := in.UtilisationPct * (1 - in.HealthPromotionPct/100)
	d.EffectiveUtilisationPct = EffectiveUtilisation(in.UtilisationPct, in.HealthPromotionPct, p.Demand.UtilisationFloorPct)
	d.UtilisationFloored = reduced < p.Demand.UtilisationFloorPct

	d.ClinicalUsers = in.Population * d.EffectiveUtilisationPct / 100
	d.TotalVisits = d.ClinicalUsers * d.VisitsPerUser
	d.VisitsPerDay = d.TotalVisits / p.WorkingDays

	d.CHWPeopleEngaged = team.CHWFTE * p.CHW.EngagementPerCHW
	d.CHWUniqueEngaged = d.CHWPeopleEngaged * (1 - p.CHW.OverlapFraction)
	d.TotalEngaged = d.ClinicalUsers + d.CHWUniqueEngaged
	d.PopEngagedPct = math.Min(100, pct(d.TotalEngaged, in.Population))

	load := unboundedRatio(d.VisitsPerDay, team.DailyCapacity) * 100
	d.CapacityUtilisationPct = model.Ratio(load)
	d.CapacityUnbounded = math.IsInf(load, 1)
	return d
}

package engine

import (
	"math"

	"capitation-engine/internal/model"
	"capitation-engine/internal/rules"
)

// Service tags. A tag appears in exactly one of the available or missing
// lists of a CoverageResult.
const (
	ServiceDiagnosisTherapy      = "diagnosis_and_therapy"
	ServiceNeuropsychForensic    = "neuropsych_forensic_assessment"
	ServicePrescribing           = "prescribing_severe_illness"
	ServiceCrisisTriage          = "crisis_triage_screening"
	ServiceSupervisedCounselling = "supervised_counselling"
	ServiceCommunityOutreach     = "community_outreach"
)

// Regulatory violation tags.
const (
	ViolationUnsupervisedCounsellors  = "unsupervised_counsellors"
	ViolationSupervisionRatioExceeded = "supervision_ratio_exceeded"
	ViolationCHWWithoutClinician      = "chw_without_clinician"
)

type staffing struct {
	psychiatrist, clinical, counselling, counsellors, nurse, chw, clinicalFTE float64
}

func (s staffing) psychologists() float64 {
	return s.clinical + s.counselling
}

type serviceRule struct {
	tag       string
	available func(s staffing) bool
}

var serviceRules = []serviceRule{
	{ServiceDiagnosisTherapy, func(s staffing) bool { return s.clinical > 0 || s.counselling > 0 }},
	{ServiceNeuropsychForensic, func(s staffing) bool { return s.clinical > 0 }},
	{ServicePrescribing, func(s staffing) bool { return s.psychiatrist > 0 }},
	{ServiceCrisisTriage, func(s staffing) bool { return s.nurse > 0 }},
	{ServiceSupervisedCounselling, func(s staffing) bool { return s.counsellors > 0 && s.psychologists() > 0 }},
	{ServiceCommunityOutreach, func(s staffing) bool { return s.chw > 0 }},
}

type violationRule struct {
	tag      string
	violated func(s staffing, ratio, maxRatio float64) bool
}

var violationRules = []violationRule{
	{ViolationUnsupervisedCounsellors, func(s staffing, _, _ float64) bool {
		return s.counsellors > 0 && s.psychologists() == 0
	}},
	// An unbounded ratio is already reported as unsupervised counsellors.
	{ViolationSupervisionRatioExceeded, func(_ staffing, ratio, maxRatio float64) bool {
		return !math.IsInf(ratio, 1) && ratio > maxRatio
	}},
	{ViolationCHWWithoutClinician, func(s staffing, _, _ float64) bool {
		return s.chw > 0 && s.clinicalFTE == 0
	}},
}

// SupervisionRatio is registered counsellors per supervising psychologist:
// 0 with no counsellors, +Inf with counsellors but no psychologist.
func SupervisionRatio(counsellors, psychologists float64) float64 {
	return unboundedRatio(counsellors, psychologists)
}

func evaluateCoverage(in *model.ScenarioInput, p *rules.Profile, team model.TeamResult) model.CoverageResult {
	s := staffing{
		psychiatrist: in.FTE(model.RolePsychiatrist),
		clinical:     in.FTE(model.RoleClinicalPsychologist),
		counselling:  in.FTE(model.RoleCounsellingPsychologist),
		counsellors:  in.FTE(model.RoleRegisteredCounsellor),
		nurse:        in.FTE(model.RoleMentalHealthNurse),
		chw:          team.CHWFTE,
		clinicalFTE:  team.ClinicalFTE,
	}

	cov := model.CoverageResult{
		Available:  []string{},
		Missing:    []string{},
		Violations: []string{},
	}
	for _, rule := range serviceRules {
		if rule.available(s) {
			cov.Available = append(cov.Available, rule.tag)
		} else {
			cov.Missing = append(cov.Missing, rule.tag)
		}
	}

	ratio := SupervisionRatio(s.counsellors, s.psychologists())
	for _, rule := range violationRules {
		if rule.violated(s, ratio, p.Compliance.MaxSupervisionRatio) {
			cov.Violations = append(cov.Violations, rule.tag)
		}
	}
	cov.TeamIsLegal = len(cov.Violations) == 0
	cov.SupervisionRatio = model.Ratio(ratio)
	cov.SupervisionUnbounded = math.IsInf(ratio, 1)
	return cov
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

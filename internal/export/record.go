// Package export turns scenario results into the flat submission record used
// by workshop data files, and writes records as CSV, JSON or MessagePack.
package export

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"capitation-engine/internal/model"
)

// Record is the canonical flat submission schema. Field names match the
// workshop's historical export files.
type Record struct {
	Timestamp                  string  `db:"timestamp" json:"timestamp" msgpack:"timestamp"`
	Name                       string  `db:"name" json:"name" msgpack:"name"`
	Profession                 string  `db:"profession" json:"profession" msgpack:"profession"`
	FFSIncome                  float64 `db:"ffs_income" json:"ffs_income" msgpack:"ffs_income"`
	Population                 float64 `db:"population" json:"population" msgpack:"population"`
	CapitationRate             float64 `db:"capitation_rate" json:"capitation_rate" msgpack:"capitation_rate"`
	UtilisationRate            float64 `db:"utilisation_rate" json:"utilisation_rate" msgpack:"utilisation_rate"`
	FTEPsychiatrist            float64 `db:"fte_psychiatrist" json:"fte_psychiatrist" msgpack:"fte_psychiatrist"`
	FTEClinicalPsychologist    float64 `db:"fte_clinical_psychologist" json:"fte_clinical_psychologist" msgpack:"fte_clinical_psychologist"`
	FTECounsellingPsychologist float64 `db:"fte_counselling_psychologist" json:"fte_counselling_psychologist" msgpack:"fte_counselling_psychologist"`
	FTERegisteredCounsellor    float64 `db:"fte_registered_counsellor" json:"fte_registered_counsellor" msgpack:"fte_registered_counsellor"`
	FTEMentalHealthNurse       float64 `db:"fte_mental_health_nurse" json:"fte_mental_health_nurse" msgpack:"fte_mental_health_nurse"`
	FTECommunityHealthWorker   float64 `db:"fte_community_health_worker" json:"fte_community_health_worker" msgpack:"fte_community_health_worker"`
	CapIncome                  float64 `db:"cap_income" json:"cap_income" msgpack:"cap_income"`
	IncomeDiffPct              float64 `db:"income_diff_pct" json:"income_diff_pct" msgpack:"income_diff_pct"`
	PopEngagedPct              float64 `db:"pop_engaged_pct" json:"pop_engaged_pct" msgpack:"pop_engaged_pct"`
	ValueScore                 float64 `db:"value_score" json:"value_score" msgpack:"value_score"`
	TeamIllegal                bool    `db:"team_illegal" json:"team_illegal" msgpack:"team_illegal"`
	ServicesAvailable          string  `db:"services_available" json:"services_available" msgpack:"services_available"`
	ServicesMissing            string  `db:"services_missing" json:"services_missing" msgpack:"services_missing"`
}

// Columns is the header order for delimited exports.
var Columns = []string{
	"timestamp", "name", "profession", "ffs_income", "population", "capitation_rate", "utilisation_rate",
	"fte_psychiatrist", "fte_clinical_psychologist", "fte_counselling_psychologist",
	"fte_registered_counsellor", "fte_mental_health_nurse", "fte_community_health_worker",
	"cap_income", "income_diff_pct", "pop_engaged_pct", "value_score", "team_illegal",
	"services_available", "services_missing",
}

// TagSeparator joins service tags inside one record field.
const TagSeparator = "; "

// FromResult flattens res. Money is rounded to cents and percentages to two
// decimals.
func FromResult(name string, res model.ScenarioResult, at time.Time) Record {
	in := res.Input
	team := make(map[model.Role]float64, len(res.Team.Lines))
	for _, line := range res.Team.Lines {
		team[line.Role] = line.FTE
	}

	return Record{
		Timestamp:                  at.UTC().Format(time.RFC3339),
		Name:                       strings.TrimSpace(name),
		Profession:                 string(in.Profession),
		FFSIncome:                  round2(res.FFS.NetIncome.Annual),
		Population:                 in.Population,
		CapitationRate:             round2(in.CapitationRate),
		UtilisationRate:            round2(res.Demand.EffectiveUtilisationPct),
		FTEPsychiatrist:            team[model.RolePsychiatrist],
		FTEClinicalPsychologist:    team[model.RoleClinicalPsychologist],
		FTECounsellingPsychologist: team[model.RoleCounsellingPsychologist],
		FTERegisteredCounsellor:    team[model.RoleRegisteredCounsellor],
		FTEMentalHealthNurse:       team[model.RoleMentalHealthNurse],
		FTECommunityHealthWorker:   round2(team[model.RoleCommunityHealthWorker]),
		CapIncome:                  round2(res.Capitation.PrincipalIncome.Annual),
		IncomeDiffPct:              round2(res.Capitation.IncomeDiffPct),
		PopEngagedPct:              round2(res.Demand.PopEngagedPct),
		ValueScore:                 round2(res.Score.Total),
		TeamIllegal:                !res.Coverage.TeamIsLegal,
		ServicesAvailable:          strings.Join(res.Coverage.Available, TagSeparator),
		ServicesMissing:            strings.Join(res.Coverage.Missing, TagSeparator),
	}
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// fields returns the record's values in Columns order, formatted for text.
func (r Record) fields() []string {
	return []string{
		r.Timestamp,
		r.Name,
		r.Profession,
		money(r.FFSIncome),
		num(r.Population),
		money(r.CapitationRate),
		num(r.UtilisationRate),
		num(r.FTEPsychiatrist),
		num(r.FTEClinicalPsychologist),
		num(r.FTECounsellingPsychologist),
		num(r.FTERegisteredCounsellor),
		num(r.FTEMentalHealthNurse),
		num(r.FTECommunityHealthWorker),
		money(r.CapIncome),
		num(r.IncomeDiffPct),
		num(r.PopEngagedPct),
		num(r.ValueScore),
		boolString(r.TeamIllegal),
		r.ServicesAvailable,
		r.ServicesMissing,
	}
}

func money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

func num(v float64) string {
	return decimal.NewFromFloat(v).String()
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

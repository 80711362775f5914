// Package presets holds the named quick-start scenarios offered on the
// dashboard. A preset fills the capitation side of a scenario; the
// fee-for-service baseline is left to the caller.
package presets

import (
	"sort"

	"capitation-engine/internal/model"
)

type Preset struct {
	Name               string                 `json:"name"`
	Description        string                 `json:"description"`
	Population         float64                `json:"population"`
	CapitationRate     float64                `json:"capitation_rate"`
	UtilisationPct     float64                `json:"utilisation_pct"`
	VisitsPerUser      float64                `json:"visits_per_user"`
	HealthPromotionPct float64                `json:"health_promotion_pct"`
	Team               map[model.Role]float64 `json:"team"`
}

// Apply overwrites the capitation fields of in with the preset's values.
// The team is replaced wholesale so stale roles do not carry over.
func (p *Preset) Apply(in *model.ScenarioInput) {
	in.Population = p.Population
	in.CapitationRate = p.CapitationRate
	in.UtilisationPct = p.UtilisationPct
	in.VisitsPerUser = p.VisitsPerUser
	in.HealthPromotionPct = p.HealthPromotionPct

	team := make(map[model.Role]float64, len(p.Team))
	for role, fte := range p.Team {
		team[role] = fte
	}
	in.Team = team
}

var registry = map[string]*Preset{
	"minimal": {
		Name:               "minimal",
		Description:        "Lean R80 contract: counsellor-heavy team, no psychiatrist.",
		Population:         80000,
		CapitationRate:     80,
		UtilisationPct:     3,
		VisitsPerUser:      4,
		HealthPromotionPct: 10,
		Team: map[model.Role]float64{
			model.RoleClinicalPsychologist:    0.5,
			model.RoleCounsellingPsychologist: 0.5,
			model.RoleRegisteredCounsellor:    10,
			model.RoleMentalHealthNurse:       0.5,
			model.RoleCommunityHealthWorker:   4,
		},
	},
	"optimal": {
		Name:               "optimal",
		Description:        "Balanced R120 contract with sessional psychiatry.",
		Population:         80000,
		CapitationRate:     120,
		UtilisationPct:     4,
		VisitsPerUser:      5,
		HealthPromotionPct: 20,
		Team: map[model.Role]float64{
			model.RolePsychiatrist:            0.5,
			model.RoleClinicalPsychologist:    1,
			model.RoleCounsellingPsychologist: 0.5,
			model.RoleRegisteredCounsellor:    12,
			model.RoleMentalHealthNurse:       1,
			model.RoleCommunityHealthWorker:   4,
		},
	},
	"dream": {
		Name:               "dream",
		Description:        "Comprehensive R200 contract with a full multidisciplinary team.",
		Population:         80000,
		CapitationRate:     200,
		UtilisationPct:     6,
		VisitsPerUser:      6,
		HealthPromotionPct: 30,
		Team: map[model.Role]float64{
			model.RolePsychiatrist:            1,
			model.RoleClinicalPsychologist:    1.5,
			model.RoleCounsellingPsychologist: 1,
			model.RoleRegisteredCounsellor:    20,
			model.RoleMentalHealthNurse:       1.5,
			model.RoleCommunityHealthWorker:   6,
		},
	},
}

func Get(name string) (*Preset, bool) {
	p, ok := registry[name]
	return p, ok
}

// Names lists the preset names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns every preset ordered by capitation rate.
func All() []*Preset {
	all := make([]*Preset, 0, len(registry))
	for _, p := range registry {
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CapitationRate < all[j].CapitationRate })
	return all
}

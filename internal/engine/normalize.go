package engine

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"

	"capitation-engine/internal/model"
	"capitation-engine/internal/rules"
)

type domain struct {
	min, max float64
}

var (
	populationDomain = domain{0, 10_000_000}
	capitationDomain = domain{0, 10_000}
	consultsDomain   = domain{0, 60}
	feeDomain        = domain{0, 50_000}
	percentDomain    = domain{0, 100}
	fteDomain        = domain{0, 200}
	ctcDomain        = domain{0, 20_000_000}
	visitsDomain     = domain{0, 52}
	mixWeightDomain  = domain{0, 100}
)

type normalizer struct {
	msgs []model.CalculationMessage
}

func (n *normalizer) warn(code, field, format string, args ...interface{}) {
	n.msgs = append(n.msgs, model.CalculationMessage{
		Level:   model.LevelWarning,
		Code:    code,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	})
}

// clamp pins v into d and records a CLAMPED message when it had to move.
// Non-finite values go to the domain minimum.
func (n *normalizer) clamp(field string, v float64, d domain) float64 {
	switch {
	case math.IsNaN(v) || math.IsInf(v, 0):
		n.warn(model.CodeClamped, field, "%s is not a finite number, using %g", field, d.min)
		return d.min
	case v < d.min:
		n.warn(model.CodeClamped, field, "%s %g is below %g, clamped", field, v, d.min)
		return d.min
	case v > d.max:
		n.warn(model.CodeClamped, field, "%s %g is above %g, clamped", field, v, d.max)
		return d.max
	}
	return v
}

// Normalize returns a copy of raw with every field inside its domain, unknown
// roles dropped, missing CTCs defaulted and visits-per-user defaulted. Under
// auto-sizing profiles a user CHW count is zeroed. The
// returned messages are the non-silent record of every adjustment.
func Normalize(raw model.ScenarioInput, p *rules.Profile) (model.ScenarioInput, []model.CalculationMessage) {
	n := &normalizer{}
	in := raw.Clone()

	if !in.Profession.Clinical() {
		n.warn(model.CodeUnknownProfession, "profession", "profession %q is not a clinical role, using %s", in.Profession, p.DefaultProfession)
		in.Profession = p.DefaultProfession
	}

	in.ConsultsPerDay = n.clamp("consults_per_day", in.ConsultsPerDay, consultsDomain)
	in.Fee = n.clamp("fee", in.Fee, feeDomain)
	in.CostOfServicePct = n.clamp("cost_of_service_pct", in.CostOfServicePct, percentDomain)
	in.Population = n.clamp("population", in.Population, populationDomain)
	in.CapitationRate = n.clamp("capitation_rate", in.CapitationRate, capitationDomain)
	in.UtilisationPct = n.clamp("utilisation_pct", in.UtilisationPct, percentDomain)
	in.HealthPromotionPct = n.clamp("health_promotion_pct", in.HealthPromotionPct, percentDomain)
	in.VisitsPerUser = n.clamp("visits_per_user", in.VisitsPerUser, visitsDomain)
	if in.VisitsPerUser == 0 {
		in.VisitsPerUser = p.Demand.VisitsPerUser
	}

	for _, role := range unknownRoles(raw.Team) {
		n.warn(model.CodeUnknownRole, "team", "unknown team role %q ignored", role)
	}
	for _, role := range unknownRoles(raw.CTC) {
		n.warn(model.CodeUnknownRole, "ctc", "unknown CTC role %q ignored", role)
	}
	team := make(map[model.Role]float64, len(model.Roles))
	ctc := make(map[model.Role]float64, len(model.Roles))
	for _, role := range model.Roles {
		team[role] = n.clamp("team."+string(role), in.Team[role], fteDomain)
		v, ok := in.CTC[role]
		if !ok {
			v = p.Role(role).DefaultCTC
		}
		ctc[role] = n.clamp("ctc."+string(role), v, ctcDomain)
	}
	if chw := team[model.RoleCommunityHealthWorker]; p.CHW.AutoSize && chw > 0 {
		n.warn(model.CodeCHWAutoSized, "team."+string(model.RoleCommunityHealthWorker),
			"profile %s sizes community health workers from health-promotion effort, team value %g ignored", p.Name, chw)
		team[model.RoleCommunityHealthWorker] = 0
	}
	in.Team = team
	in.CTC = ctc

	if in.ServiceMix != nil {
		mix := *in.ServiceMix
		mix.Screening = n.clamp("service_mix.screening", mix.Screening, mixWeightDomain)
		mix.Brief = n.clamp("service_mix.brief", mix.Brief, mixWeightDomain)
		mix.Group = n.clamp("service_mix.group", mix.Group, mixWeightDomain)
		mix.Crisis = n.clamp("service_mix.crisis", mix.Crisis, mixWeightDomain)
		in.ServiceMix = &mix
	}

	return in, n.msgs
}

func unknownRoles(m map[model.Role]float64) []string {
	var unknown []string
	for role := range m {
		if !role.Known() {
			unknown = append(unknown, string(role))
		}
	}
	sort.Strings(unknown)
	return unknown
}

// NormalizeShares rescales raw weights so they sum to 100 while keeping their
// ratios. An all-zero input cannot be rescaled; it falls back to equal shares
// and reports fallback=true.
func NormalizeShares(raw []float64) (shares []float64, fallback bool) {
	shares = make([]float64, len(raw))
	if len(raw) == 0 {
		return shares, false
	}
	total := floats.Sum(raw)
	if total <= 0 {
		for i := range shares {
			shares[i] = 100 / float64(len(raw))
		}
		return shares, true
	}
	for i, w := range raw {
		shares[i] = w / total * 100
	}
	return shares, false
}

func serviceMix(in *model.ScenarioInput, p *rules.Profile, totalVisits float64, n *normalizer) model.ServiceMixResult {
	mix := p.DefaultServiceMix
	if in.ServiceMix != nil {
		mix = *in.ServiceMix
	}
	weights := mix.Weights()
	shares, fallback := NormalizeShares(weights)
	if fallback {
		n.warn(model.CodeEqualSplitFallback, "service_mix", "service mix weights sum to zero, using equal shares")
	}

	lines := make([]model.MixLine, len(shares))
	for i, share := range shares {
		lines[i] = model.MixLine{
			Category:  model.ServiceCategories[i],
			RawWeight: weights[i],
			Pct:       share,
			Visits:    totalVisits * share / 100,
		}
	}
	return model.ServiceMixResult{Lines: lines, Fallback: fallback}
}

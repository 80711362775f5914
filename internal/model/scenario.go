package model

type Role string

const (
	RolePsychiatrist            Role = "psychiatrist"
	RoleClinicalPsychologist    Role = "clinical_psychologist"
	RoleCounsellingPsychologist Role = "counselling_psychologist"
	RoleRegisteredCounsellor    Role = "registered_counsellor"
	RoleMentalHealthNurse       Role = "mental_health_nurse"
	RoleCommunityHealthWorker   Role = "community_health_worker"
)

// Roles lists every team role in reporting order. CHW is last and is the
// only non-clinical role.
var Roles = []Role{
	RolePsychiatrist,
	RoleClinicalPsychologist,
	RoleCounsellingPsychologist,
	RoleRegisteredCounsellor,
	RoleMentalHealthNurse,
	RoleCommunityHealthWorker,
}

func (r Role) Clinical() bool {
	return r != RoleCommunityHealthWorker && r.Known()
}

func (r Role) Known() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

// ScenarioInput is one evaluation's worth of user-supplied parameters.
type ScenarioInput struct {
	Profession Role `json:"profession"`

	// Fee-for-service baseline
	ConsultsPerDay   float64 `json:"consults_per_day"`
	Fee              float64 `json:"fee"`
	CostOfServicePct float64 `json:"cost_of_service_pct"`

	// Capitation model
	Population         float64 `json:"population"`
	CapitationRate     float64 `json:"capitation_rate"`
	UtilisationPct     float64 `json:"utilisation_pct"`
	HealthPromotionPct float64 `json:"health_promotion_pct"`
	VisitsPerUser      float64 `json:"visits_per_user"`

	Team       map[Role]float64 `json:"team"`
	CTC        map[Role]float64 `json:"ctc"`
	ServiceMix *ServiceMix      `json:"service_mix,omitempty"`
}

// FTE returns the team FTE for a role, zero when absent.
func (in *ScenarioInput) FTE(r Role) float64 {
	return in.Team[r]
}

// Clone returns a deep copy so normalisation never touches caller data.
func (in ScenarioInput) Clone() ScenarioInput {
	out := in
	out.Team = make(map[Role]float64, len(in.Team))
	for k, v := range in.Team {
		out.Team[k] = v
	}
	out.CTC = make(map[Role]float64, len(in.CTC))
	for k, v := range in.CTC {
		out.CTC[k] = v
	}
	if in.ServiceMix != nil {
		mix := *in.ServiceMix
		out.ServiceMix = &mix
	}
	return out
}

// ServiceMix holds raw session-type weights. They need not sum to 100.
type ServiceMix struct {
	Screening float64 `json:"screening" yaml:"screening"`
	Brief     float64 `json:"brief" yaml:"brief"`
	Group     float64 `json:"group" yaml:"group"`
	Crisis    float64 `json:"crisis" yaml:"crisis"`
}

func (m ServiceMix) Weights() []float64 {
	return []float64{m.Screening, m.Brief, m.Group, m.Crisis}
}

var ServiceCategories = []string{"screening", "brief", "group", "crisis"}

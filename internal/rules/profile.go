// Package rules holds the versioned constant tables that parameterise the
// engine: role reference data, demand and cost constants, compliance limits
// and scoring ladders. Each dashboard generation is a named Profile.
package rules

import (
	"fmt"
	"math"

	"capitation-engine/internal/model"
)

const (
	CostPolicyPerConsult    = "per_consult"
	CostPolicyFlatRemainder = "flat_remainder"
)

const (
	DirectionAtLeast = "at_least"
	DirectionAtMost  = "at_most"
	DirectionBelow   = "below"
)

func knownDirection(d string) bool {
	return d == DirectionAtLeast || d == DirectionAtMost || d == DirectionBelow
}

// Metric keys a scoring component or badge can refer to.
const (
	MetricIncomeRatioPct          = "income_ratio_pct"
	MetricCapacityUtilisationPct  = "capacity_utilisation_pct"
	MetricPopEngagedPct           = "pop_engaged_pct"
	MetricTeamCostPct             = "team_cost_pct"
	MetricEffectiveUtilisationPct = "effective_utilisation_pct"
	MetricTaskShiftRatio          = "task_shift_ratio"
	MetricVisitsPerUser           = "visits_per_user"
	MetricGroupMixPct             = "group_mix_pct"
	MetricNurseFTE                = "nurse_fte"
)

// Gap keys used by deduction-scored components.
const (
	GapNoPsychiatrist  = "no_psychiatrist"
	GapNoPsychologist  = "no_psychologist"
	GapIllegalTeam     = "illegal_team"
	GapNoNurse         = "no_nurse"
	GapNoCommunityTeam = "no_community_team"
)

var knownMetrics = map[string]bool{
	MetricIncomeRatioPct:          true,
	MetricCapacityUtilisationPct:  true,
	MetricPopEngagedPct:           true,
	MetricTeamCostPct:             true,
	MetricEffectiveUtilisationPct: true,
	MetricTaskShiftRatio:          true,
	MetricVisitsPerUser:           true,
	MetricGroupMixPct:             true,
	MetricNurseFTE:                true,
}

var knownGaps = map[string]bool{
	GapNoPsychiatrist:  true,
	GapNoPsychologist:  true,
	GapIllegalTeam:     true,
	GapNoNurse:         true,
	GapNoCommunityTeam: true,
}

type RoleProfile struct {
	Title             string  `yaml:"title" json:"title"`
	DefaultFee        float64 `yaml:"default_fee" json:"default_fee"`
	DefaultDailyCount float64 `yaml:"default_daily_patients" json:"default_daily_patients"`
	DefaultCostPct    float64 `yaml:"default_cost_pct" json:"default_cost_pct"`
	DailyCapacity     float64 `yaml:"daily_capacity" json:"daily_capacity"`
	SessionMinutes    float64 `yaml:"session_minutes" json:"session_minutes"`
	DefaultCTC        float64 `yaml:"default_ctc" json:"default_ctc"`
	Scope             string  `yaml:"scope" json:"scope"`
	CanPrescribe      bool    `yaml:"can_prescribe" json:"can_prescribe"`
	CanDiagnose       bool    `yaml:"can_diagnose" json:"can_diagnose"`
	CanSupervise      bool    `yaml:"can_supervise" json:"can_supervise"`
	Independent       bool    `yaml:"independent" json:"independent"`
}

type Demand struct {
	UtilisationFloorPct float64 `yaml:"utilisation_floor_pct" json:"utilisation_floor_pct"`
	VisitsPerUser       float64 `yaml:"visits_per_user" json:"visits_per_user"`
	DutyFraction        float64 `yaml:"duty_fraction" json:"duty_fraction"`
}

type CHW struct {
	AutoSize         bool    `yaml:"auto_size" json:"auto_size"`
	PopulationUnit   float64 `yaml:"population_unit" json:"population_unit"`
	EngagementPerCHW float64 `yaml:"engagement_per_chw" json:"engagement_per_chw"`
	OverlapFraction  float64 `yaml:"overlap_fraction" json:"overlap_fraction"`
}

type Cost struct {
	Policy                 string  `yaml:"policy" json:"policy"`
	FlatPct                float64 `yaml:"flat_pct" json:"flat_pct"`
	MedicationNeedFraction float64 `yaml:"medication_need_fraction" json:"medication_need_fraction"`
	ReferralCostPerUser    float64 `yaml:"referral_cost_per_user" json:"referral_cost_per_user"`
	SurplusShare           float64 `yaml:"surplus_share" json:"surplus_share"`
}

type Compliance struct {
	MaxSupervisionRatio float64 `yaml:"max_supervision_ratio" json:"max_supervision_ratio"`
}

type Benchmarks struct {
	Prevalence    float64 `yaml:"prevalence" json:"prevalence"`
	NationalRatio float64 `yaml:"national_population_per_psychologist" json:"national_population_per_psychologist"`
}

type Step struct {
	Threshold float64 `yaml:"threshold" json:"threshold"`
	Points    float64 `yaml:"points" json:"points"`
}

// Ladder is an ordered breakpoint table. For at_least ladders steps run from
// the highest threshold down, for at_most and below ladders from the lowest
// up; the first step the metric satisfies wins, otherwise Else applies.
// below is the strict form of at_most.
type Ladder struct {
	Direction string  `yaml:"direction" json:"direction"`
	Steps     []Step  `yaml:"steps" json:"steps"`
	Else      float64 `yaml:"else" json:"else"`
}

type Deduction struct {
	Gap        string  `yaml:"gap" json:"gap"`
	Points     float64 `yaml:"points" json:"points"`
	Suggestion string  `yaml:"suggestion" json:"suggestion"`
}

// Component is one scored dimension. Exactly one of Ladder or Deductions is
// set: ladder components map a metric to points, deduction components start
// at Max and subtract per gap, floored at zero.
type Component struct {
	Key          string      `yaml:"key" json:"key"`
	Label        string      `yaml:"label" json:"label"`
	Max          float64     `yaml:"max" json:"max"`
	Metric       string      `yaml:"metric" json:"metric"`
	Ladder       *Ladder     `yaml:"ladder" json:"ladder,omitempty"`
	Deductions   []Deduction `yaml:"deductions" json:"deductions,omitempty"`
	SuggestBelow float64     `yaml:"suggest_below" json:"suggest_below"`
	Suggestion   string      `yaml:"suggestion" json:"suggestion"`
}

type Grade struct {
	Min    float64 `yaml:"min" json:"min"`
	Grade  string  `yaml:"grade" json:"grade"`
	Rating string  `yaml:"rating" json:"rating"`
}

type Condition struct {
	Metric    string  `yaml:"metric" json:"metric"`
	Direction string  `yaml:"direction" json:"direction"`
	Threshold float64 `yaml:"threshold" json:"threshold"`
}

type Badge struct {
	Name       string      `yaml:"name" json:"name"`
	Conditions []Condition `yaml:"conditions" json:"conditions"`
}

type Scoring struct {
	Components []Component `yaml:"components" json:"components"`
	Grades     []Grade     `yaml:"grades" json:"grades"`
	Badges     []Badge     `yaml:"badges" json:"badges"`
}

type Profile struct {
	Name              string                     `yaml:"name" json:"name"`
	Description       string                     `yaml:"description" json:"description"`
	WorkingDays       float64                    `yaml:"working_days" json:"working_days"`
	DefaultProfession model.Role                 `yaml:"default_profession" json:"default_profession"`
	DefaultServiceMix model.ServiceMix           `yaml:"default_service_mix" json:"default_service_mix"`
	Roles             map[model.Role]RoleProfile `yaml:"roles" json:"roles"`
	Demand            Demand                     `yaml:"demand" json:"demand"`
	CHW               CHW                        `yaml:"chw" json:"chw"`
	Cost              Cost                       `yaml:"cost" json:"cost"`
	Compliance        Compliance                 `yaml:"compliance" json:"compliance"`
	Benchmarks        Benchmarks                 `yaml:"benchmarks" json:"benchmarks"`
	Scoring           Scoring                    `yaml:"scoring" json:"scoring"`
}

// Role returns the reference data for r; unknown roles yield a zero profile.
func (p *Profile) Role(r model.Role) RoleProfile {
	return p.Roles[r]
}

// MaxScore is the sum of component maxima.
func (p *Profile) MaxScore() float64 {
	var total float64
	for _, c := range p.Scoring.Components {
		total += c.Max
	}
	return total
}

// Validate checks the table is internally coherent. Component maxima must
// sum to exactly 100 so totals stay in [0,100] by construction.
func (p *Profile) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("profile has no name")
	}
	if p.WorkingDays <= 0 {
		return fmt.Errorf("profile %s: working_days must be positive", p.Name)
	}
	for _, r := range model.Roles {
		if _, ok := p.Roles[r]; !ok {
			return fmt.Errorf("profile %s: missing role %s", p.Name, r)
		}
	}
	if !p.DefaultProfession.Clinical() {
		return fmt.Errorf("profile %s: default profession %q is not a clinical role", p.Name, p.DefaultProfession)
	}
	switch p.Cost.Policy {
	case CostPolicyPerConsult, CostPolicyFlatRemainder:
	default:
		return fmt.Errorf("profile %s: unknown cost policy %q", p.Name, p.Cost.Policy)
	}
	if p.Demand.UtilisationFloorPct <= 0 {
		return fmt.Errorf("profile %s: utilisation floor must be positive", p.Name)
	}
	if p.Demand.DutyFraction < 0 || p.Demand.DutyFraction > 1 {
		return fmt.Errorf("profile %s: duty_fraction out of range", p.Name)
	}
	if p.CHW.OverlapFraction < 0 || p.CHW.OverlapFraction > 1 {
		return fmt.Errorf("profile %s: overlap_fraction out of range", p.Name)
	}

	seen := make(map[string]bool)
	for _, c := range p.Scoring.Components {
		if seen[c.Key] {
			return fmt.Errorf("profile %s: duplicate component %s", p.Name, c.Key)
		}
		seen[c.Key] = true
		if err := c.validate(); err != nil {
			return fmt.Errorf("profile %s: %w", p.Name, err)
		}
	}
	if total := p.MaxScore(); math.Abs(total-100) > 1e-9 {
		return fmt.Errorf("profile %s: component maxima sum to %g, want 100", p.Name, total)
	}

	for i := 1; i < len(p.Scoring.Grades); i++ {
		if p.Scoring.Grades[i].Min >= p.Scoring.Grades[i-1].Min {
			return fmt.Errorf("profile %s: grades must be ordered by descending min", p.Name)
		}
	}
	for _, b := range p.Scoring.Badges {
		for _, cond := range b.Conditions {
			if !knownMetrics[cond.Metric] {
				return fmt.Errorf("profile %s: badge %s uses unknown metric %s", p.Name, b.Name, cond.Metric)
			}
			if !knownDirection(cond.Direction) {
				return fmt.Errorf("profile %s: badge %s has bad direction %q", p.Name, b.Name, cond.Direction)
			}
		}
	}
	return nil
}

func (c Component) validate() error {
	if c.Max <= 0 {
		return fmt.Errorf("component %s: max must be positive", c.Key)
	}
	if (c.Ladder == nil) == (len(c.Deductions) == 0) {
		return fmt.Errorf("component %s: exactly one of ladder or deductions is required", c.Key)
	}
	if len(c.Deductions) > 0 {
		for _, d := range c.Deductions {
			if !knownGaps[d.Gap] {
				return fmt.Errorf("component %s: unknown gap %s", c.Key, d.Gap)
			}
			if d.Points < 0 {
				return fmt.Errorf("component %s: negative deduction for %s", c.Key, d.Gap)
			}
		}
		return nil
	}

	if !knownMetrics[c.Metric] {
		return fmt.Errorf("component %s: unknown metric %q", c.Key, c.Metric)
	}
	l := c.Ladder
	if l.Else < 0 || l.Else > c.Max {
		return fmt.Errorf("component %s: else points out of range", c.Key)
	}
	for i, s := range l.Steps {
		if s.Points < 0 || s.Points > c.Max {
			return fmt.Errorf("component %s: step %d points out of range", c.Key, i)
		}
		if i == 0 {
			continue
		}
		prev := l.Steps[i-1].Threshold
		switch l.Direction {
		case DirectionAtLeast:
			if s.Threshold >= prev {
				return fmt.Errorf("component %s: at_least thresholds must descend", c.Key)
			}
		case DirectionAtMost, DirectionBelow:
			if s.Threshold <= prev {
				return fmt.Errorf("component %s: %s thresholds must ascend", c.Key, l.Direction)
			}
		}
	}
	if !knownDirection(l.Direction) {
		return fmt.Errorf("component %s: unknown direction %q", c.Key, l.Direction)
	}
	return nil
}

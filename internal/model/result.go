package model

// ScenarioResult is the full derivation for one ScenarioInput.
type ScenarioResult struct {
	Profile    string               `json:"profile"`
	Input      ScenarioInput        `json:"input"`
	FFS        FFSResult            `json:"ffs"`
	Capitation CapitationResult     `json:"capitation"`
	Team       TeamResult           `json:"team"`
	Demand     DemandResult         `json:"demand"`
	ServiceMix ServiceMixResult     `json:"service_mix"`
	Coverage   CoverageResult       `json:"coverage"`
	Score      ScoreResult          `json:"score"`
	Benchmarks BenchmarkResult      `json:"benchmarks"`
	Messages   []CalculationMessage `json:"messages"`
}

type FFSResult struct {
	AnnualConsultations float64 `json:"annual_consultations"`
	Turnover            Amount  `json:"turnover"`
	CostOfService       Amount  `json:"cost_of_service"`
	NetIncome           Amount  `json:"net_income"`
	CostPerConsult      float64 `json:"cost_per_consult"`
}

type CapitationResult struct {
	CostPolicy      string  `json:"cost_policy"`
	Budget          Amount  `json:"budget"`
	TeamCost        Amount  `json:"team_cost"`
	CostOfService   Amount  `json:"cost_of_service"`
	ReferralCost    Amount  `json:"referral_cost"`
	NetIncome       Amount  `json:"net_income"`
	RemainingBudget Amount  `json:"remaining_budget"`
	PrincipalIncome Amount  `json:"principal_income"`
	TeamCostPct     float64 `json:"team_cost_pct"`
	IncomeDiffPct   float64 `json:"income_diff_pct"`
	CostPerVisit    float64 `json:"cost_per_visit"`
}

type TeamLine struct {
	Role          Role    `json:"role"`
	FTE           float64 `json:"fte"`
	CTC           float64 `json:"ctc"`
	Cost          float64 `json:"cost"`
	DailyCapacity float64 `json:"daily_capacity"`
}

type TeamResult struct {
	Lines             []TeamLine `json:"lines"`
	ClinicalFTE       float64    `json:"clinical_fte"`
	PsychologistFTE   float64    `json:"psychologist_fte"`
	CHWFTE            float64    `json:"chw_fte"`
	CHWAutoSized      bool       `json:"chw_auto_sized"`
	TotalCost         float64    `json:"total_cost"`
	RawDailyCapacity  float64    `json:"raw_daily_capacity"`
	DutyDeduction     float64    `json:"duty_deduction"`
	DailyCapacity     float64    `json:"daily_capacity"`
	AvgSessionMinutes float64    `json:"avg_session_minutes"`
	NoClinicalStaff   bool       `json:"no_clinical_staff"`
}

type DemandResult struct {
	BaseUtilisationPct      float64 `json:"base_utilisation_pct"`
	EffectiveUtilisationPct float64 `json:"effective_utilisation_pct"`
	UtilisationFloored      bool    `json:"utilisation_floored"`
	ClinicalUsers           float64 `json:"clinical_users"`
	VisitsPerUser           float64 `json:"visits_per_user"`
	TotalVisits             float64 `json:"total_visits"`
	VisitsPerDay            float64 `json:"visits_per_day"`
	CHWPeopleEngaged        float64 `json:"chw_people_engaged"`
	CHWUniqueEngaged        float64 `json:"chw_unique_engaged"`
	TotalEngaged            float64 `json:"total_engaged"`
	PopEngagedPct           float64 `json:"pop_engaged_pct"`
	CapacityUtilisationPct  Ratio   `json:"capacity_utilisation_pct"`
	CapacityUnbounded       bool    `json:"capacity_unbounded"`
}

type MixLine struct {
	Category  string  `json:"category"`
	RawWeight float64 `json:"raw_weight"`
	Pct       float64 `json:"pct"`
	Visits    float64 `json:"visits"`
}

type ServiceMixResult struct {
	Lines    []MixLine `json:"lines"`
	Fallback bool      `json:"fallback"`
}

type CoverageResult struct {
	Available            []string `json:"services_available"`
	Missing              []string `json:"services_missing"`
	Violations           []string `json:"violations"`
	TeamIsLegal          bool     `json:"team_is_legal"`
	SupervisionRatio     Ratio    `json:"supervision_ratio"`
	SupervisionUnbounded bool     `json:"supervision_unbounded"`
}

type ScoreComponent struct {
	Key    string  `json:"key"`
	Label  string  `json:"label"`
	Metric Ratio   `json:"metric"`
	Points float64 `json:"points"`
	Max    float64 `json:"max"`
}

type ScoreResult struct {
	Components  []ScoreComponent `json:"components"`
	Total       float64          `json:"total"`
	Max         float64          `json:"max"`
	Grade       string           `json:"grade"`
	Rating      string           `json:"rating"`
	Suggestions []string         `json:"suggestions"`
	Badges      []string         `json:"badges"`
}

// Component returns the named component, or a zero value when the active
// profile does not score it.
func (s ScoreResult) Component(key string) ScoreComponent {
	for _, c := range s.Components {
		if c.Key == key {
			return c
		}
	}
	return ScoreComponent{Key: key}
}

type BenchmarkResult struct {
	FFSAnnualConsultations    float64 `json:"ffs_annual_consultations"`
	EngagementMultiplier      float64 `json:"engagement_multiplier"`
	TreatmentGapClosedPct     float64 `json:"treatment_gap_closed_pct"`
	PopulationPerPsychologist Ratio   `json:"population_per_psychologist"`
	NationalRatio             float64 `json:"national_ratio"`
	CoverageIndexPct          float64 `json:"coverage_index_pct"`
	TaskShiftRatio            Ratio   `json:"task_shift_ratio"`
}

package export

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"capitation-engine/internal/model"
	"capitation-engine/internal/rules"
)

const rule = "===================================================================="

// Summary renders a plain-text package summary for one evaluated scenario.
func Summary(p *rules.Profile, name string, res model.ScenarioResult, at time.Time) string {
	var b strings.Builder
	if strings.TrimSpace(name) == "" {
		name = "Anonymous"
	}

	fmt.Fprintf(&b, "MENTAL HEALTH CAPITATION PACKAGE SUMMARY\n")
	fmt.Fprintf(&b, "Prepared for: %s\n", name)
	fmt.Fprintf(&b, "Generated:    %s (rules %s)\n\n", at.UTC().Format("2006-01-02 15:04"), res.Profile)

	score := res.Score
	fmt.Fprintf(&b, "VALUE SCORE: %s/%s (Grade %s, %s)\n", humanize.Ftoa(round2(score.Total)), humanize.Ftoa(score.Max), score.Grade, score.Rating)
	badges := "None"
	if len(score.Badges) > 0 {
		badges = strings.Join(score.Badges, ", ")
	}
	fmt.Fprintf(&b, "BADGES: %s\n", badges)

	section(&b, "INCOME")
	fmt.Fprintf(&b, "Fee-for-service net:  %s/yr (%s/month)\n", rands(res.FFS.NetIncome.Annual), rands(res.FFS.NetIncome.Monthly))
	fmt.Fprintf(&b, "Capitation income:    %s/yr (%s/month)\n", rands(res.Capitation.PrincipalIncome.Annual), rands(res.Capitation.PrincipalIncome.Monthly))
	fmt.Fprintf(&b, "Difference:           %+.1f%%\n", res.Capitation.IncomeDiffPct)

	section(&b, "BUDGET")
	fmt.Fprintf(&b, "Population covered:   %s\n", count(res.Input.Population))
	fmt.Fprintf(&b, "Capitation rate:      R%s per person per year\n", humanize.Ftoa(res.Input.CapitationRate))
	fmt.Fprintf(&b, "Total budget:         %s\n", rands(res.Capitation.Budget.Annual))
	fmt.Fprintf(&b, "Cost of service:      %s (%s)\n", rands(res.Capitation.CostOfService.Annual), res.Capitation.CostPolicy)
	if res.Capitation.ReferralCost.Annual > 0 {
		fmt.Fprintf(&b, "Psychiatric referral: %s\n", rands(res.Capitation.ReferralCost.Annual))
	}
	fmt.Fprintf(&b, "Remaining budget:     %s\n", rands(res.Capitation.RemainingBudget.Annual))

	section(&b, "TEAM")
	for _, line := range res.Team.Lines {
		if line.FTE == 0 {
			continue
		}
		fmt.Fprintf(&b, "%-26s %6.2f FTE @ %s = %s\n", p.Role(line.Role).Title, line.FTE, rands(line.CTC), rands(line.Cost))
	}
	fmt.Fprintf(&b, "Total team cost:      %s (%.1f%% of budget)\n", rands(res.Team.TotalCost), res.Capitation.TeamCostPct)
	fmt.Fprintf(&b, "Task-shift ratio:     %s counsellors per psychologist\n", ratio(res.Coverage.SupervisionRatio, 1))
	legal := "yes"
	if !res.Coverage.TeamIsLegal {
		legal = "NO (" + strings.Join(res.Coverage.Violations, ", ") + ")"
	}
	fmt.Fprintf(&b, "Team is legal:        %s\n", legal)

	section(&b, "DEMAND AND SERVICE MIX")
	fmt.Fprintf(&b, "Effective utilisation: %.1f%%\n", res.Demand.EffectiveUtilisationPct)
	fmt.Fprintf(&b, "Clinical users:        %s\n", count(res.Demand.ClinicalUsers))
	fmt.Fprintf(&b, "Total visits:          %s (%s per user)\n", count(res.Demand.TotalVisits), humanize.Ftoa(res.Demand.VisitsPerUser))
	fmt.Fprintf(&b, "Capacity used:         %s%%\n", ratio(res.Demand.CapacityUtilisationPct, 0))
	for _, line := range res.ServiceMix.Lines {
		fmt.Fprintf(&b, "  %-10s %5.1f%% (%s sessions)\n", line.Category, line.Pct, count(line.Visits))
	}

	section(&b, "KEY METRICS")
	fmt.Fprintf(&b, "Population per psychologist: 1:%s (national 1:%s)\n",
		ratio(res.Benchmarks.PopulationPerPsychologist, 0), count(res.Benchmarks.NationalRatio))
	fmt.Fprintf(&b, "People engaged:              %s (%.1f%% of population)\n", count(res.Demand.TotalEngaged), res.Demand.PopEngagedPct)
	fmt.Fprintf(&b, "Treatment gap closed:        %.1f%%\n", res.Benchmarks.TreatmentGapClosedPct)
	fmt.Fprintf(&b, "Cost per visit:              %s\n", rands(res.Capitation.CostPerVisit))

	section(&b, "SCORE BREAKDOWN")
	for _, c := range score.Components {
		fmt.Fprintf(&b, "%-28s %s/%s\n", c.Label, humanize.Ftoa(round2(c.Points)), humanize.Ftoa(c.Max))
	}
	if len(res.Coverage.Missing) > 0 {
		fmt.Fprintf(&b, "Cannot deliver: %s\n", strings.Join(res.Coverage.Missing, ", "))
	}

	if len(score.Suggestions) > 0 {
		section(&b, "SUGGESTIONS")
		for _, s := range score.Suggestions {
			fmt.Fprintf(&b, "- %s\n", s)
		}
	}
	return b.String()
}

func section(b *strings.Builder, title string) {
	fmt.Fprintf(b, "\n%s\n%s\n%s\n", rule, title, rule)
}

// rands formats a rand amount with thousands separators and no cents.
func rands(v float64) string {
	if v < 0 {
		return "-R" + humanize.Comma(int64(math.Round(-v)))
	}
	return "R" + humanize.Comma(int64(math.Round(v)))
}

func count(v float64) string {
	return humanize.Comma(int64(math.Round(v)))
}

func ratio(r model.Ratio, decimals int) string {
	if r.Unbounded() {
		return "unbounded"
	}
	if decimals == 0 {
		return count(float64(r))
	}
	return humanize.CommafWithDigits(float64(r), decimals)
}

package rules

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"capitation-engine/internal/model"
)

func TestParse_BuiltinProfiles(t *testing.T) {
	profiles, def, err := Parse(builtinProfiles)
	require.NoError(t, err)

	assert.Equal(t, "v7", def)
	assert.Len(t, profiles, 3)
	for name, p := range profiles {
		assert.InDelta(t, 100.0, p.MaxScore(), 1e-9, "profile %s", name)
		for _, r := range model.Roles {
			_, ok := p.Roles[r]
			assert.True(t, ok, "profile %s missing role %s", name, r)
		}
	}

	v7 := profiles["v7"]
	assert.Equal(t, CostPolicyPerConsult, v7.Cost.Policy)
	assert.Equal(t, 250.0, v7.WorkingDays)
	assert.Equal(t, 0.20, v7.Demand.DutyFraction)
	assert.Equal(t, 1.5, v7.Demand.UtilisationFloorPct)
	assert.True(t, v7.CHW.AutoSize)
	assert.Equal(t, 10.0, v7.Compliance.MaxSupervisionRatio)
	assert.Equal(t, 18.0, v7.Role(model.RolePsychiatrist).DailyCapacity)
	assert.Equal(t, 7.0, v7.Role(model.RoleClinicalPsychologist).DailyCapacity)
	assert.True(t, v7.Role(model.RolePsychiatrist).CanPrescribe)
	assert.False(t, v7.Role(model.RoleRegisteredCounsellor).CanSupervise)

	keys := make([]string, 0, 4)
	for _, c := range v7.Scoring.Components {
		keys = append(keys, c.Key)
	}
	assert.Equal(t, []string{"income", "coverage", "workload", "access"}, keys)
	assert.Equal(t, 30.0, v7.Scoring.Components[0].Max)
	assert.Equal(t, 40.0, v7.Scoring.Components[1].Max)

	assert.Equal(t, CostPolicyFlatRemainder, profiles["v5"].Cost.Policy)
	assert.Equal(t, 40.0, profiles["v5"].Scoring.Components[0].Max)
	assert.False(t, profiles["simplified"].CHW.AutoSize)
}

func TestParse_RejectsMaximaNotSummingTo100(t *testing.T) {
	table := strings.Replace(string(builtinProfiles), "max: 40\n          deductions: *coverage_deductions", "max: 30\n          deductions: *coverage_deductions", 1)
	require.NotEqual(t, string(builtinProfiles), table)

	_, _, err := Parse([]byte(table))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "want 100")
}

func TestParse_RejectsUnknownPolicy(t *testing.T) {
	table := strings.Replace(string(builtinProfiles), "policy: per_consult", "policy: guesswork", 1)

	_, _, err := Parse([]byte(table))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown cost policy")
}

func TestParse_RejectsEmptyTable(t *testing.T) {
	_, _, err := Parse([]byte("default: v7\nprofiles: []\n"))
	require.Error(t, err)
}

func TestComponentValidate_LadderOrdering(t *testing.T) {
	c := Component{
		Key:    "broken",
		Max:    10,
		Metric: MetricPopEngagedPct,
		Ladder: &Ladder{
			Direction: DirectionAtLeast,
			Steps:     []Step{{Threshold: 2, Points: 5}, {Threshold: 6, Points: 10}},
		},
	}
	require.Error(t, c.validate())

	c.Ladder.Steps = []Step{{Threshold: 6, Points: 10}, {Threshold: 2, Points: 5}}
	require.NoError(t, c.validate())

	c.Ladder.Direction = DirectionBelow
	require.Error(t, c.validate())
	c.Ladder.Steps = []Step{{Threshold: 2, Points: 10}, {Threshold: 6, Points: 5}}
	require.NoError(t, c.validate())

	c.Ladder.Direction = "under"
	require.Error(t, c.validate())
	c.Ladder.Direction = DirectionBelow

	c.Deductions = []Deduction{{Gap: GapNoNurse, Points: 1}}
	require.Error(t, c.validate(), "ladder and deductions together are ambiguous")
}

func TestRegistry_BuiltinOnly(t *testing.T) {
	reg, err := NewRegistry("", "", zerolog.Nop())
	require.NoError(t, err)

	assert.Equal(t, "v7", reg.DefaultName())
	assert.Equal(t, []string{"simplified", "v5", "v7"}, reg.Names())

	p, ok := reg.Get("")
	require.True(t, ok)
	assert.Equal(t, "v7", p.Name)
	assert.Same(t, p, reg.Default())

	_, ok = reg.Get("v99")
	assert.False(t, ok)
}

func TestRegistry_UnknownDefault(t *testing.T) {
	_, err := NewRegistry("", "nope", zerolog.Nop())
	require.Error(t, err)
}

func TestRegistry_RemoteOverrideIsCached(t *testing.T) {
	profiles, _, err := Parse(builtinProfiles)
	require.NoError(t, err)
	remote := *profiles["v7"]
	remote.Description = "remote copy"
	remote.Demand.DutyFraction = 0.25
	body, err := json.Marshal(remote)
	require.NoError(t, err)

	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if r.URL.Path != "/profiles/v7" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(body)
	}))
	defer srv.Close()

	reg, err := NewRegistry(srv.URL, "", zerolog.Nop())
	require.NoError(t, err)

	p, ok := reg.Get("v7")
	require.True(t, ok)
	assert.Equal(t, "remote copy", p.Description)
	assert.Equal(t, 0.25, p.Demand.DutyFraction)

	again, ok := reg.Get("v7")
	require.True(t, ok)
	assert.Same(t, p, again)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestRegistry_RemoteFailureFallsBackToBuiltin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	reg, err := NewRegistry(srv.URL, "v5", zerolog.Nop())
	require.NoError(t, err)

	p, ok := reg.Get("")
	require.True(t, ok)
	assert.Equal(t, "v5", p.Name)
	assert.Equal(t, CostPolicyFlatRemainder, p.Cost.Policy)
}

func TestRegistry_RemoteInvalidProfileFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"name":"v7","working_days":0}`))
	}))
	defer srv.Close()

	reg, err := NewRegistry(srv.URL, "", zerolog.Nop())
	require.NoError(t, err)

	p, ok := reg.Get("v7")
	require.True(t, ok)
	assert.Equal(t, 250.0, p.WorkingDays)
}

func TestRegistry_UnknownNamesNeverReachRemote(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	reg, err := NewRegistry(srv.URL, "", zerolog.Nop())
	require.NoError(t, err)

	for _, name := range []string{"v8", "v7-extra", "../admin"} {
		_, ok := reg.Get(name)
		assert.False(t, ok, name)
	}
	assert.Equal(t, int32(0), atomic.LoadInt32(&hits))

	cached := 0
	reg.cache.Range(func(_, _ interface{}) bool {
		cached++
		return true
	})
	assert.Zero(t, cached)
}

func TestRegistry_RemoteProfileKeepsRequestedName(t *testing.T) {
	profiles, _, err := Parse(builtinProfiles)
	require.NoError(t, err)
	remote := *profiles["v5"]
	remote.Name = "something-else"
	body, err := json.Marshal(remote)
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(body)
	}))
	defer srv.Close()

	reg, err := NewRegistry(srv.URL, "", zerolog.Nop())
	require.NoError(t, err)

	p, ok := reg.Get("v5")
	require.True(t, ok)
	assert.Equal(t, "v5", p.Name)
}

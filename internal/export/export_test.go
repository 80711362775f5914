package export

import (
	"bytes"
	"encoding/csv"
	"math"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"capitation-engine/internal/engine"
	"capitation-engine/internal/model"
	"capitation-engine/internal/rules"
)

var at = time.Date(2026, 2, 3, 9, 15, 0, 0, time.UTC)

func evaluate(t *testing.T) (*rules.Profile, model.ScenarioResult) {
	t.Helper()
	reg, err := rules.NewRegistry("", "v7", zerolog.Nop())
	require.NoError(t, err)
	p := reg.Default()

	in := engine.DefaultInput(p, model.RoleClinicalPsychologist)
	in.Population = 80000
	in.CapitationRate = 120
	in.UtilisationPct = 3
	in.Team = map[model.Role]float64{
		model.RoleClinicalPsychologist: 1,
		model.RoleRegisteredCounsellor: 5,
		model.RoleMentalHealthNurse:    1,
	}
	return p, engine.Evaluate(in, p)
}

func TestFromResult(t *testing.T) {
	_, res := evaluate(t)

	r := FromResult("  Dr. Nkosi ", res, at)

	assert.Equal(t, "2026-02-03T09:15:00Z", r.Timestamp)
	assert.Equal(t, "Dr. Nkosi", r.Name)
	assert.Equal(t, "clinical_psychologist", r.Profession)
	assert.Equal(t, 1_350_000.0, r.FFSIncome)
	assert.Equal(t, 5.0, r.FTERegisteredCounsellor)
	assert.Equal(t, 0.0, r.FTEPsychiatrist)
	assert.False(t, r.TeamIllegal)
	assert.Equal(t, res.Score.Total, r.ValueScore)
	assert.Contains(t, r.ServicesMissing, engine.ServicePrescribing)
	assert.Equal(t, strings.Join(res.Coverage.Available, TagSeparator), r.ServicesAvailable)
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 1.24, round2(1.235))
	assert.Equal(t, -3.33, round2(-10.0/3))
	assert.Equal(t, 0.0, round2(0))
}

func TestWriteCSV(t *testing.T) {
	_, res := evaluate(t)
	var buf bytes.Buffer

	require.NoError(t, Write(&buf, FormatCSV, []Record{FromResult("A", res, at), FromResult("B", res, at)}))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, Columns, rows[0])
	assert.Len(t, rows[1], len(Columns))
	assert.Equal(t, "1350000.00", rows[1][3])
	assert.Equal(t, "B", rows[2][1])
}

func TestWriteJSONEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatJSON, nil))
	assert.JSONEq(t, `[]`, buf.String())
}

func TestWriteJSONFieldNames(t *testing.T) {
	_, res := evaluate(t)
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatJSON, []Record{FromResult("A", res, at)}))

	var decoded []map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 1)
	for _, col := range Columns {
		assert.Contains(t, decoded[0], col)
	}
}

func TestWriteMsgpack(t *testing.T) {
	_, res := evaluate(t)
	want := FromResult("A", res, at)
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatMsgpack, []Record{want}))

	var got []Record
	require.NoError(t, msgpack.NewDecoder(&buf).Decode(&got))
	require.Len(t, got, 1)
	assert.Equal(t, want, got[0])
}

func TestWriteUnknownFormat(t *testing.T) {
	err := Write(&bytes.Buffer{}, "xml", nil)
	require.Error(t, err)

	_, ok := ContentType("xml")
	assert.False(t, ok)
	ct, ok := ContentType(FormatCSV)
	assert.True(t, ok)
	assert.Contains(t, ct, "text/csv")
}

func TestSummary(t *testing.T) {
	p, res := evaluate(t)

	text := Summary(p, "", res, at)

	assert.Contains(t, text, "Prepared for: Anonymous")
	assert.Contains(t, text, "Generated:    2026-02-03 09:15 (rules v7)")
	assert.Contains(t, text, "R1,350,000/yr")
	assert.Contains(t, text, "Total budget:         R9,600,000")
	assert.Contains(t, text, "Clinical Psychologist")
	assert.NotContains(t, text, "Psychiatrist ")
	assert.Contains(t, text, "Income vs fee-for-service")
	assert.Contains(t, text, "prescribing_severe_illness")
}

func TestRands(t *testing.T) {
	assert.Equal(t, "R1,234,568", rands(1234567.6))
	assert.Equal(t, "-R236,000", rands(-236000))
	assert.Equal(t, "unbounded", ratio(model.Ratio(math.Inf(1)), 1))
}

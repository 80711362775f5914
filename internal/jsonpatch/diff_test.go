package jsonpatch

import (
	"math"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"capitation-engine/internal/model"
)

func TestDiffObjectsSortedAndTyped(t *testing.T) {
	a := map[string]interface{}{"b": 1.0, "a": 2.0, "gone": "x"}
	b := map[string]interface{}{"b": 1.0, "a": 3.0, "c": map[string]interface{}{"k/~": true}}

	fwd, bwd := DiffBoth(a, b, "")

	assert.Equal(t, []model.PatchOperation{
		{Op: model.OpRemove, Path: "/gone"},
		{Op: model.OpReplace, Path: "/a", Value: 3.0},
		{Op: model.OpAdd, Path: "/c", Value: map[string]interface{}{"k/~": true}},
	}, fwd)
	assert.Equal(t, []model.PatchOperation{
		{Op: model.OpAdd, Path: "/gone", Value: "x"},
		{Op: model.OpReplace, Path: "/a", Value: 2.0},
		{Op: model.OpRemove, Path: "/c"},
	}, bwd)
}

func TestDiffArrays(t *testing.T) {
	a := []interface{}{"x", "y", "z"}
	b := []interface{}{"x", "q"}

	fwd, bwd := DiffBoth(a, b, "/tags")

	assert.Equal(t, []model.PatchOperation{
		{Op: model.OpReplace, Path: "/tags/1", Value: "q"},
		{Op: model.OpRemove, Path: "/tags/2"},
	}, fwd)
	assert.Equal(t, []model.PatchOperation{
		{Op: model.OpReplace, Path: "/tags/1", Value: "y"},
		{Op: model.OpAdd, Path: "/tags/2", Value: "z"},
	}, bwd)
}

func TestDiffTypeChange(t *testing.T) {
	ops := Diff(map[string]interface{}{"v": []interface{}{1.0}}, map[string]interface{}{"v": nil}, "")
	require.Len(t, ops, 1)
	assert.Equal(t, model.OpReplace, ops[0].Op)
	assert.Nil(t, ops[0].Value)

	raw, err := json.Marshal(ops)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"op":"replace","path":"/v","value":null}]`, string(raw))
}

func TestRemoveOmitsValue(t *testing.T) {
	raw, err := json.Marshal(model.PatchOperation{Op: model.OpRemove, Path: "/x"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"op":"remove","path":"/x"}`, string(raw))
}

func TestBetweenStructs(t *testing.T) {
	type doc struct {
		Score float64     `json:"score"`
		Ratio model.Ratio `json:"ratio"`
	}

	fwd, bwd, err := Between(doc{Score: 50, Ratio: 2}, doc{Score: 50, Ratio: model.Ratio(math.Inf(1))})
	require.NoError(t, err)
	assert.Equal(t, []model.PatchOperation{{Op: model.OpReplace, Path: "/ratio", Value: nil}}, fwd)
	assert.Equal(t, []model.PatchOperation{{Op: model.OpReplace, Path: "/ratio", Value: 2.0}}, bwd)

	fwd, _, err = Between(doc{Score: 1}, doc{Score: 1})
	require.NoError(t, err)
	assert.NotNil(t, fwd)
	assert.Empty(t, fwd)
}

// Package jsonpatch computes RFC 6902 patches between two JSON documents.
// Object keys are visited in sorted order so the same pair of documents
// always yields the same patch.
package jsonpatch

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	"capitation-engine/internal/model"
)

// Between encodes a and b to JSON and returns the forward patch (a to b) and
// the revert patch (b to a).
func Between(a, b interface{}) (fwd, bwd []model.PatchOperation, err error) {
	da, err := decode(a)
	if err != nil {
		return nil, nil, err
	}
	db, err := decode(b)
	if err != nil {
		return nil, nil, err
	}
	fwd, bwd = DiffBoth(da, db, "")
	if fwd == nil {
		fwd = []model.PatchOperation{}
	}
	if bwd == nil {
		bwd = []model.PatchOperation{}
	}
	return fwd, bwd, nil
}

func decode(v interface{}) (interface{}, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	return doc, nil
}

// Diff returns the patch that transforms a into b. Both must be generic
// JSON values (maps, slices, strings, float64, bool, nil).
func Diff(a, b interface{}, path string) []model.PatchOperation {
	fwd, _ := DiffBoth(a, b, path)
	return fwd
}

// DiffBoth computes the forward and revert patches in one traversal.
func DiffBoth(a, b interface{}, path string) (fwd, bwd []model.PatchOperation) {
	aMap, aIsMap := a.(map[string]interface{})
	bMap, bIsMap := b.(map[string]interface{})
	if aIsMap && bIsMap {
		return diffObjects(aMap, bMap, path)
	}

	aArr, aIsArr := a.([]interface{})
	bArr, bIsArr := b.([]interface{})
	if aIsArr && bIsArr {
		return diffArrays(aArr, bArr, path)
	}

	if aIsMap || bIsMap || aIsArr || bIsArr || a != b {
		return []model.PatchOperation{replace(path, b)}, []model.PatchOperation{replace(path, a)}
	}
	return nil, nil
}

func diffObjects(a, b map[string]interface{}, path string) (fwd, bwd []model.PatchOperation) {
	for _, k := range sortedKeys(a) {
		if _, ok := b[k]; !ok {
			child := path + "/" + escapeKey(k)
			fwd = append(fwd, remove(child))
			bwd = append(bwd, add(child, a[k]))
		}
	}

	for _, k := range sortedKeys(b) {
		child := path + "/" + escapeKey(k)
		av, inA := a[k]
		if !inA {
			fwd = append(fwd, add(child, b[k]))
			bwd = append(bwd, remove(child))
			continue
		}
		subFwd, subBwd := DiffBoth(av, b[k], child)
		fwd = append(fwd, subFwd...)
		bwd = append(bwd, subBwd...)
	}
	return fwd, bwd
}

func diffArrays(a, b []interface{}, path string) (fwd, bwd []model.PatchOperation) {
	common := len(a)
	if len(b) < common {
		common = len(b)
	}

	for i := 0; i < common; i++ {
		subFwd, subBwd := DiffBoth(a[i], b[i], path+"/"+strconv.Itoa(i))
		fwd = append(fwd, subFwd...)
		bwd = append(bwd, subBwd...)
	}

	// Removals run from the tail so earlier indices stay valid.
	for i := len(a) - 1; i >= common; i-- {
		fwd = append(fwd, remove(path+"/"+strconv.Itoa(i)))
	}
	for i := common; i < len(a); i++ {
		bwd = append(bwd, add(path+"/"+strconv.Itoa(i), a[i]))
	}
	for i := common; i < len(b); i++ {
		fwd = append(fwd, add(path+"/"+strconv.Itoa(i), b[i]))
	}
	for i := len(b) - 1; i >= common; i-- {
		bwd = append(bwd, remove(path+"/"+strconv.Itoa(i)))
	}
	return fwd, bwd
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func replace(path string, value interface{}) model.PatchOperation {
	return model.PatchOperation{Op: model.OpReplace, Path: path, Value: value}
}

func add(path string, value interface{}) model.PatchOperation {
	return model.PatchOperation{Op: model.OpAdd, Path: path, Value: value}
}

func remove(path string) model.PatchOperation {
	return model.PatchOperation{Op: model.OpRemove, Path: path}
}

// escapeKey escapes a JSON Pointer token per RFC 6901.
func escapeKey(s string) string {
	s = strings.ReplaceAll(s, "~", "~0")
	return strings.ReplaceAll(s, "/", "~1")
}

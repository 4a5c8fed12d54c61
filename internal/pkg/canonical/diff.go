package canonical

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Change records the before/after values at one field path. A side that is
// absent in one document is reported as nil.
type Change struct {
	Before interface{} `json:"before"`
	After  interface{} `json:"after"`
}

// Diff performs a structural comparison of two JSON documents and returns a
// mapping from dotted field path to the change at that path.
//
// Object keys are matched by name regardless of order. Arrays are compared
// positionally by index: a reordering of otherwise-identical elements shows
// up as per-index changes, not as a move. That is a deliberate simplicity
// tradeoff; callers that need move detection must post-process the result.
func Diff(a, b []byte) (map[string]Change, error) {
	var docA, docB interface{}
	if len(a) > 0 {
		if err := json.Unmarshal(a, &docA); err != nil {
			return nil, fmt.Errorf("diff: left document: %w", err)
		}
	}
	if len(b) > 0 {
		if err := json.Unmarshal(b, &docB); err != nil {
			return nil, fmt.Errorf("diff: right document: %w", err)
		}
	}

	changes := make(map[string]Change)
	walk("", docA, docB, changes)
	return changes, nil
}

func walk(path string, a, b interface{}, out map[string]Change) {
	mapA, okA := a.(map[string]interface{})
	mapB, okB := b.(map[string]interface{})
	if okA && okB {
		for key, valA := range mapA {
			valB, present := mapB[key]
			if !present {
				out[join(path, key)] = Change{Before: valA, After: nil}
				continue
			}
			walk(join(path, key), valA, valB, out)
		}
		for key, valB := range mapB {
			if _, present := mapA[key]; !present {
				out[join(path, key)] = Change{Before: nil, After: valB}
			}
		}
		return
	}

	arrA, okA := a.([]interface{})
	arrB, okB := b.([]interface{})
	if okA && okB {
		longest := len(arrA)
		if len(arrB) > longest {
			longest = len(arrB)
		}
		for i := 0; i < longest; i++ {
			var valA, valB interface{}
			if i < len(arrA) {
				valA = arrA[i]
			}
			if i < len(arrB) {
				valB = arrB[i]
			}
			walk(join(path, strconv.Itoa(i)), valA, valB, out)
		}
		return
	}

	if !scalarEqual(a, b) {
		key := path
		if key == "" {
			key = "."
		}
		out[key] = Change{Before: a, After: b}
	}
}

func scalarEqual(a, b interface{}) bool {
	if a == nil && b == nil {
		return true
	}
	// Mixed container/scalar mismatches land here too; re-marshal and
	// compare bytes so the comparison stays total.
	rawA, errA := json.Marshal(a)
	rawB, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return string(rawA) == string(rawB)
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

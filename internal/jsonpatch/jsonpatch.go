// Package jsonpatch wraps github.com/evanphx/json-patch/v5's JSON
// Merge Patch (RFC 7396) support for the overrides translator (spec
// §3, §4.4): recurrenceOverrides entries are patch *objects* (a flat
// map of changed keys), which is exactly what a merge patch is —
// there is no need for the heavier RFC 6902 operation-list form.
package jsonpatch

import (
	"encoding/json"
	"fmt"

	jp "github.com/evanphx/json-patch/v5"
)

// Forbidden lists the top-level patch keys that cause an entire
// override patch to be discarded (spec §3 invariants).
var Forbidden = map[string]bool{
	"uid":                 true,
	"relatedTo":           true,
	"prodId":              true,
	"isAllDay":            true,
	"recurrenceRule":      true,
	"recurrenceOverrides": true,
	"replyTo":             true,
	"participantId":       true,
}

// CreatePatch returns the JSON merge patch taking master to exception.
func CreatePatch(master, exception []byte) ([]byte, error) {
	patch, err := jp.CreateMergePatch(master, exception)
	if err != nil {
		return nil, fmt.Errorf("jsonpatch: create patch: %w", err)
	}
	return patch, nil
}

// ApplyPatch applies a JSON merge patch to master, returning the
// patched document.
func ApplyPatch(master, patch []byte) ([]byte, error) {
	out, err := jp.MergePatch(master, patch)
	if err != nil {
		return nil, fmt.Errorf("jsonpatch: apply patch: %w", err)
	}
	return out, nil
}

// HasForbiddenKey reports whether the decoded top-level patch object
// contains any of the forbidden keys and should be discarded whole
// (spec §3 invariants, §4.4 Writing).
func HasForbiddenKey(patch map[string]interface{}) bool {
	for k := range patch {
		if Forbidden[k] {
			return true
		}
	}
	return false
}

// Decode unmarshals a patch object into a generic map, the shape every
// recurrenceOverrides entry takes on the wire.
func Decode(patch []byte) (map[string]interface{}, error) {
	var m map[string]interface{}
	if err := json.Unmarshal(patch, &m); err != nil {
		return nil, fmt.Errorf("jsonpatch: decode patch: %w", err)
	}
	return m, nil
}

// Encode marshals a patch object back to its wire form.
func Encode(patch map[string]interface{}) ([]byte, error) {
	data, err := json.Marshal(patch)
	if err != nil {
		return nil, fmt.Errorf("jsonpatch: encode patch: %w", err)
	}
	return data, nil
}

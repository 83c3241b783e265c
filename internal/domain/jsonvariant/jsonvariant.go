// Package jsonvariant backs the typed JSON columns: a struct of known keys
// plus a bag of unknown keys that round-trips untouched.
package jsonvariant

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"
)

// Split decodes raw into a key map and removes the known keys from it. The
// returned map holds only the unknown keys; known holds the raw values of
// the known ones.
func Split(raw []byte, knownKeys ...string) (known map[string]json.RawMessage, extra map[string]json.RawMessage, err error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return map[string]json.RawMessage{}, nil, nil
	}
	all := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &all); err != nil {
		return nil, nil, err
	}
	known = map[string]json.RawMessage{}
	for _, k := range knownKeys {
		if v, ok := all[k]; ok {
			known[k] = v
			delete(all, k)
		}
	}
	if len(all) == 0 {
		all = nil
	}
	return known, all, nil
}

// Join encodes known values (skipping nil) over extra. Known keys win.
// encoding/json sorts map keys, so output is deterministic.
func Join(extra map[string]json.RawMessage, known map[string]any) ([]byte, error) {
	out := make(map[string]json.RawMessage, len(extra)+len(known))
	for k, v := range extra {
		out[k] = v
	}
	for k, v := range known {
		if isNil(v) {
			delete(out, k)
			continue
		}
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("marshal %s: %w", k, err)
		}
		out[k] = b
	}
	return json.Marshal(out)
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	switch t := v.(type) {
	case json.RawMessage:
		return t == nil
	}
	b, err := json.Marshal(v)
	return err == nil && string(b) == "null"
}

// MergePatch applies an RFC 7396 merge patch: objects merge recursively,
// null deletes, anything else replaces.
func MergePatch(target, patch []byte) ([]byte, error) {
	var p any
	if err := json.Unmarshal(patch, &p); err != nil {
		return nil, fmt.Errorf("decode patch: %w", err)
	}
	var t any
	if len(bytes.TrimSpace(target)) > 0 {
		if err := json.Unmarshal(target, &t); err != nil {
			return nil, fmt.Errorf("decode target: %w", err)
		}
	}
	return json.Marshal(mergeValue(t, p))
}

func mergeValue(target, patch any) any {
	pm, ok := patch.(map[string]any)
	if !ok {
		return patch
	}
	tm, ok := target.(map[string]any)
	if !ok {
		tm = map[string]any{}
	}
	for k, v := range pm {
		if v == nil {
			delete(tm, k)
			continue
		}
		tm[k] = mergeValue(tm[k], v)
	}
	return tm
}

// Value and Scan helpers shared by the column types.

func Value(v any) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func Scan(src any, dst any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported json column type %T", src)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

// DBDataType picks jsonb on Postgres and JSON elsewhere.
func DBDataType(db *gorm.DB) string {
	switch db.Dialector.Name() {
	case "postgres":
		return "jsonb"
	default:
		return "JSON"
	}
}

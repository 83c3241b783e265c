package jsonvariant

import (
	"encoding/json"
	"testing"
)

func TestSplitJoinPreservesUnknownKeys(t *testing.T) {
	raw := []byte(`{"share":{"filename":"a.pdf"},"crm_ref":{"id":7},"flag":true}`)
	known, extra, err := Split(raw, "share")
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if string(known["share"]) != `{"filename":"a.pdf"}` {
		t.Fatalf("known share: got=%s", known["share"])
	}
	if len(extra) != 2 {
		t.Fatalf("extra: want=2 keys got=%d", len(extra))
	}
	out, err := Join(extra, map[string]any{"share": map[string]string{"filename": "b.pdf"}})
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	want := `{"crm_ref":{"id":7},"flag":true,"share":{"filename":"b.pdf"}}`
	if string(out) != want {
		t.Fatalf("Join: want=%s got=%s", want, out)
	}
}

func TestMergePatch(t *testing.T) {
	cases := []struct {
		name, target, patch, want string
	}{
		{"add", `{"a":1}`, `{"b":2}`, `{"a":1,"b":2}`},
		{"null deletes", `{"a":1,"b":2}`, `{"a":null}`, `{"b":2}`},
		{"nested", `{"s":{"x":1,"y":2}}`, `{"s":{"y":3}}`, `{"s":{"x":1,"y":3}}`},
		{"array replaces", `{"a":[1,2]}`, `{"a":[3]}`, `{"a":[3]}`},
		{"empty target", ``, `{"a":1}`, `{"a":1}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := MergePatch([]byte(tc.target), []byte(tc.patch))
			if err != nil {
				t.Fatalf("MergePatch: %v", err)
			}
			if !jsonEqual(t, got, []byte(tc.want)) {
				t.Fatalf("MergePatch: want=%s got=%s", tc.want, got)
			}
		})
	}
}

func jsonEqual(t *testing.T, a, b []byte) bool {
	t.Helper()
	var x, y any
	if err := json.Unmarshal(a, &x); err != nil {
		t.Fatalf("unmarshal a: %v", err)
	}
	if err := json.Unmarshal(b, &y); err != nil {
		t.Fatalf("unmarshal b: %v", err)
	}
	ax, _ := json.Marshal(x)
	by, _ := json.Marshal(y)
	return string(ax) == string(by)
}

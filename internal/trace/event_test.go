package trace

import (
	"reflect"
	"testing"
)

func TestEventRoundTrip(t *testing.T) {
	events := []Event{
		{Step: 0, TS: 1.5, File: "t.src", Line: 1, Col: 0, Desc: "var x = 10", Depth: 0, Scope: ModuleScope, Vars: map[string]string{}},
		{Step: 1, TS: 1.6, File: "t.src", Line: 2, Col: 4, Desc: "x = x + 1", Depth: 0, Scope: ModuleScope, Vars: map[string]string{"x": "10"}},
		{Step: 2, TS: 1.7, File: "", Line: 0, Col: 0, Desc: "", Depth: 2, Scope: "f", Vars: map[string]string{"n": "5", "y": "10"}},
	}
	for _, want := range events {
		line, err := want.Encode()
		if err != nil {
			t.Fatalf("Encode: %v", err)
		}
		got, err := Decode(line)
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("round trip mismatch: got %+v, want %+v", got, want)
		}
	}
}

func TestDecodeMissingVarsDefaultsEmpty(t *testing.T) {
	got, err := Decode([]byte(`{"step":0,"ts":0,"file":"a","line":1,"col":0,"desc":"x","depth":0,"scope":"<module>"}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Vars == nil || len(got.Vars) != 0 {
		t.Errorf("expected empty non-nil vars map, got %#v", got.Vars)
	}
}

func TestDecodeUnknownFieldsIgnored(t *testing.T) {
	_, err := Decode([]byte(`{"step":0,"ts":0,"file":"a","line":1,"col":0,"desc":"x","depth":0,"scope":"s","extra":"ignored"}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
}

func TestDecodeRejectsNotJSON(t *testing.T) {
	if _, err := Decode([]byte("not json at all")); err == nil {
		t.Error("expected error for malformed line")
	}
}

func TestDecodeRejectsMissingRequiredScalar(t *testing.T) {
	if _, err := Decode([]byte(`{"file":"a","desc":"x"}`)); err == nil {
		t.Error("expected error for missing required scalars")
	}
}

func TestDecodeScopeDefaultsToModule(t *testing.T) {
	got, err := Decode([]byte(`{"step":0,"ts":0,"file":"a","line":1,"col":0,"desc":"x","depth":0}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Scope != ModuleScope {
		t.Errorf("expected default scope %q, got %q", ModuleScope, got.Scope)
	}
}

func TestTruncateDesc(t *testing.T) {
	short := "echo x"
	if got := TruncateDesc(short); got != short {
		t.Errorf("short string should be unchanged, got %q", got)
	}

	long := ""
	for i := 0; i < 100; i++ {
		long += "a"
	}
	got := TruncateDesc(long)
	if len([]rune(got)) != DescTruncate {
		t.Errorf("expected truncated length %d, got %d", DescTruncate, len([]rune(got)))
	}
	if got[len(got)-len("…"):] != "…" {
		t.Errorf("expected ellipsis suffix, got %q", got)
	}
}

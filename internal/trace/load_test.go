package trace

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsEmpty(t *testing.T) {
	events, err := Load(filepath.Join(t.TempDir(), "nope.trace"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("expected empty slice, got %v", events)
	}
}

func TestLoadSkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.trace")
	content := `{"step":0,"ts":0,"file":"a","line":1,"col":0,"desc":"x","depth":0,"scope":"<module>","vars":{}}
not json at all
{"step":1,"ts":0.1,"file":"a","line":2,"col":0,"desc":"y","depth":0,"scope":"<module>","vars":{}}

{"file":"missing-required-scalars"}
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	events, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 valid events, got %d: %+v", len(events), events)
	}
	if events[0].Step != 0 || events[1].Step != 1 {
		t.Errorf("unexpected steps: %+v", events)
	}
}

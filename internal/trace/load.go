package trace

import (
	"bufio"
	"os"
)

// Load reads a line-delimited trace file, decoding one Event per line and
// skipping malformed lines silently. A missing file yields an empty, non-nil
// slice rather than an error — the replayer treats "no trace yet" the same
// as "empty trace" (§7: EOF/missing input is never fatal to the loader).
func Load(path string) ([]Event, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []Event{}, nil
		}
		return nil, err
	}
	defer f.Close()

	events := make([]Event, 0, 256)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		e, err := Decode(line)
		if err != nil {
			continue
		}
		events = append(events, e)
	}
	return events, nil
}

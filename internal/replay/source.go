package replay

import (
	"os"
	"strings"
)

// sourceCache is an append-only cache of source files, keyed by path, read
// lazily the first time any event references them (§4.E, §5 "source-file
// cache ... is append-only, keyed by absolute path").
type sourceCache struct {
	files map[string][]string
}

func newSourceCache() *sourceCache {
	return &sourceCache{files: make(map[string][]string)}
}

// lines returns path's lines, reading and caching it on first access. A
// file that cannot be read yields a single placeholder line rather than an
// error — the source pane has no way to surface a read failure other than
// showing something in place of the missing text.
func (c *sourceCache) lines(path string) []string {
	if path == "" {
		return []string{"(no file)"}
	}
	if lines, ok := c.files[path]; ok {
		return lines
	}
	data, err := os.ReadFile(path)
	if err != nil {
		lines := []string{"(unable to read " + path + ")"}
		c.files[path] = lines
		return lines
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	c.files[path] = lines
	return lines
}

// Package tracewriter is the runtime half of the trace contract: a
// process-wide step counter, scope-depth tracker, and append-only,
// flush-per-event trace file writer, reached by instrumented code through
// the package-level functions at the bottom of this file.
package tracewriter

import (
	"bufio"
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/thing-king/timetrace/internal/trace"
)

// DefaultPath is the trace file used when neither an explicit path nor the
// environment variable override is supplied.
const DefaultPath = ".debug.trace"

// PathEnvVar is the environment variable that overrides the trace path.
const PathEnvVar = "DEBUG_TRACE_PATH"

// ringSize is the number of most-recent events retained for the summary.
const ringSize = 15

// Writer is the process-wide trace writer. Its zero value is not usable;
// construct with New. A Writer is not safe for concurrent use unless built
// with WithMutex — §5 makes that the caller's obligation, not an implicit
// internal lock.
type Writer struct {
	mu *sync.Mutex // nil unless WithMutex was used

	path string
	f    *os.File
	w    *bufio.Writer

	step  int
	depth int
	scope string

	ring       []trace.Event
	maxDepth   int
	scopesSeen []string
	scopeSet   map[string]bool

	mirror *otlpMirror

	stopSignal context.CancelFunc
	closed     bool
}

// Option configures a Writer at construction time.
type Option func(*Writer)

// WithMutex wraps every operation in a mutex, for callers that may emit from
// multiple goroutines. Without it, the writer is documented single-writer-
// per-process and the caller must serialize access itself.
func WithMutex() Option {
	return func(w *Writer) { w.mu = &sync.Mutex{} }
}

// New constructs an uninitialized Writer; call Init before first Emit, or
// rely on the package-level DebugLog family, which lazily inits a shared
// default Writer on first use.
func New(opts ...Option) *Writer {
	w := &Writer{scope: trace.ModuleScope, scopeSet: make(map[string]bool)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Init opens (truncating) path for append, resets all counters, and installs
// an interrupt hook (os.Interrupt, i.e. SIGINT; SIGTERM is not handled) that
// flushes and closes the writer so a trace file is never left without its
// summary on a clean interrupt. A
// failure to open the file is fatal to the writer only: the instrumented
// program must proceed with writes silently dropped (§7) rather than crash.
func (w *Writer) Init(path string) error {
	w.lock()
	defer w.unlock()

	if w.f != nil {
		w.closeLocked()
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		log.Printf("tracewriter: failed to open %q: %v (trace writes will be dropped)", path, err)
		w.path = path
		w.f = nil
		w.w = nil
		return nil
	}

	w.path = path
	w.f = f
	w.w = bufio.NewWriter(f)
	w.step = 0
	w.depth = 0
	w.scope = trace.ModuleScope
	w.ring = w.ring[:0]
	w.maxDepth = 0
	w.scopesSeen = nil
	w.scopeSet = make(map[string]bool)
	w.closed = false
	w.mirror = newOTLPMirror(context.Background())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	w.stopSignal = stop
	go func() {
		<-ctx.Done()
		if cerr := w.Close(); cerr != nil {
			log.Printf("tracewriter: close on interrupt: %v", cerr)
		}
	}()

	return nil
}

// resolvePath applies §9(c): an explicit non-empty path wins over the
// environment variable, which wins over DefaultPath.
func resolvePath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if env := os.Getenv(PathEnvVar); env != "" {
		return env
	}
	return DefaultPath
}

// Emit records one event. If the writer has never been initialized, it
// lazily initializes against the resolved default path. File open failure
// during lazy init is swallowed per §7 — emit never fails the caller.
func (w *Writer) Emit(file string, line, col int, desc string, vars map[string]string) {
	w.lock()
	if w.path == "" {
		w.unlock()
		_ = w.Init(resolvePath(""))
		w.lock()
	}
	defer w.unlock()

	e := trace.Event{
		Step:  w.step,
		TS:    nowSeconds(),
		File:  file,
		Line:  line,
		Col:   col,
		Desc:  trace.TruncateDesc(desc),
		Depth: w.depth,
		Scope: w.scope,
		Vars:  vars,
	}
	w.step++

	w.appendRing(e)
	if e.Depth > w.maxDepth {
		w.maxDepth = e.Depth
	}
	if e.Scope != trace.ModuleScope && !w.scopeSet[e.Scope] {
		w.scopeSet[e.Scope] = true
		w.scopesSeen = append(w.scopesSeen, e.Scope)
	}
	w.mirror.mirror(e)

	if w.w == nil {
		return
	}
	line2, err := e.Encode()
	if err != nil {
		log.Printf("tracewriter: failed to encode event: %v", err)
		return
	}
	if _, err := w.w.Write(line2); err != nil {
		log.Printf("tracewriter: write failed: %v", err)
		return
	}
	if err := w.w.Flush(); err != nil {
		log.Printf("tracewriter: flush failed: %v", err)
	}
}

func (w *Writer) appendRing(e trace.Event) {
	w.ring = append(w.ring, e)
	if len(w.ring) > ringSize {
		w.ring = w.ring[len(w.ring)-ringSize:]
	}
}

// EnterScope sets the current scope to name and increments depth, called by
// the generated prologue of an instrumented procedure.
func (w *Writer) EnterScope(name string) {
	w.lock()
	defer w.unlock()
	w.scope = name
	w.depth++
}

// ExitScope decrements depth; at or below zero it clamps to zero and resets
// scope to the module sentinel.
func (w *Writer) ExitScope() {
	w.lock()
	defer w.unlock()
	w.depth--
	if w.depth <= 0 {
		w.depth = 0
		w.scope = trace.ModuleScope
	}
}

// Close writes the human-readable summary file and closes the trace file
// handle. It is safe to call more than once.
func (w *Writer) Close() error {
	w.lock()
	defer w.unlock()
	return w.closeLocked()
}

func (w *Writer) closeLocked() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if w.stopSignal != nil {
		w.stopSignal()
	}
	if w.w != nil {
		if err := w.w.Flush(); err != nil {
			log.Printf("tracewriter: final flush failed: %v", err)
		}
	}
	var closeErr error
	if w.f != nil {
		closeErr = w.f.Close()
	}
	if w.path != "" {
		if err := writeSummary(summaryPath(w.path), w.step, w.maxDepth, w.scopesSeen, w.ring); err != nil {
			log.Printf("tracewriter: failed to write summary: %v", err)
		}
	}
	if w.mirror != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		w.mirror.shutdown(shutdownCtx)
		cancel()
	}
	return closeErr
}

func (w *Writer) lock() {
	if w.mu != nil {
		w.mu.Lock()
	}
}

func (w *Writer) unlock() {
	if w.mu != nil {
		w.mu.Unlock()
	}
}

// nowSeconds returns the current wall-clock time in fractional seconds,
// monotonic enough per writer for §3's non-decreasing ts invariant.
func nowSeconds() float64 {
	return float64(time.Now().UnixNano()) / 1e9
}

// summaryPath replaces path's extension with .summary.
func summaryPath(path string) string {
	for i := len(path) - 1; i >= 0 && path[i] != '/'; i-- {
		if path[i] == '.' {
			return path[:i] + ".summary"
		}
	}
	return path + ".summary"
}

// --- package-level default writer, the five-name surface generated code calls ---

var (
	defaultOnce sync.Once
	defaultW    *Writer
)

func defaultWriter() *Writer {
	defaultOnce.Do(func() {
		defaultW = New(WithMutex())
	})
	return defaultW
}

// InitDebugLog opens the default trace writer against the resolved path
// (explicit path wins over DEBUG_TRACE_PATH wins over DefaultPath, §9(c)).
func InitDebugLog(path string) error {
	return defaultWriter().Init(resolvePath(path))
}

// CloseDebugLog closes the default trace writer, writing its summary.
func CloseDebugLog() error {
	return defaultWriter().Close()
}

// DebugLog emits one event on the default trace writer.
func DebugLog(file string, line, col int, desc string, vars map[string]string) {
	defaultWriter().Emit(file, line, col, desc, vars)
}

// EnterScope enters scope name on the default trace writer.
func EnterScope(name string) {
	defaultWriter().EnterScope(name)
}

// ExitScope exits the current scope on the default trace writer.
func ExitScope() {
	defaultWriter().ExitScope()
}

package tracewriter

import (
	"fmt"
	"reflect"
)

// SafeRepr stringifies v through a capability-guarded path: if v exposes a
// way to render itself (fmt.Stringer, error, or a concrete scalar/composite
// fmt can format), that rendering is used; if anything panics while
// formatting, the panic is recovered and "<error>" is substituted; values
// whose kind fmt cannot meaningfully render at all (func, chan, unsafe
// pointer — Go's analogue of "a program lacking any stringification
// capability") become "<no representation>". This guarantees callers in the
// generated emit path never fail from value capture.
func SafeRepr(v interface{}) (result string) {
	defer func() {
		if r := recover(); r != nil {
			result = "<error>"
		}
	}()

	if v == nil {
		return "<nil>"
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return "<no representation>"
	}

	return fmt.Sprintf("%v", v)
}

// Snapshot builds the vars mapping for an emission: name -> SafeRepr(value)
// for every entry in the instrumenter's known-vars snapshot.
func Snapshot(values map[string]interface{}) map[string]string {
	out := make(map[string]string, len(values))
	for name, v := range values {
		out[name] = SafeRepr(v)
	}
	return out
}

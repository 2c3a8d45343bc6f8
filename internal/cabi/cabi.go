// Command cabi builds as a C archive/shared library (`go build
// -buildmode=c-shared`) exposing the engine's stable C ABI (spec.md §6.1): a
// thin, exported surface wrapping one package-level CompositionEngine
// instance behind a mutex, the same shape as cmd/daemon's D-Bus export but
// for a cgo-linked host (a keyboard hook written in C/C++/Objective-C/Swift)
// instead of Fcitx5's D-Bus frontend. It lives under internal/ because
// nothing in this module imports it as a Go package — C callers link the
// compiled archive/shared object instead.
//
// Delta ownership follows the engine-owned discipline spec.md §5 allows as
// alternative (a): govietime_on_key returns a pointer into a single
// package-level buffer that is only valid until the next on_key call, so
// govietime_free_delta is a documented no-op rather than a real release.
package main

/*
#include <stdint.h>

typedef struct {
	int32_t  chars[256];
	int32_t  action;
	int32_t  backspace;
	int32_t  count;
	uint32_t flags;
	uint32_t seq;
} govietime_delta;
*/
import "C"

import (
	"sync"

	"github.com/username/goviet-ime/internal/engine"
)

var (
	mu       sync.Mutex
	eng      *engine.CompositionEngine
	outDelta C.govietime_delta
)

// ensureInit lazily creates the singleton; govietime_init also calls this
// directly, but every other export tolerates being called first (matching
// spec.md §6.1's "init() — create the singleton. Idempotent.").
func ensureInit() {
	if eng == nil {
		eng = engine.NewCompositionEngine()
	}
}

//export govietime_init
func govietime_init() {
	mu.Lock()
	defer mu.Unlock()
	ensureInit()
}

//export govietime_on_key
func govietime_on_key(keyCode C.int32_t, caps, ctrl, shift C.int) *C.govietime_delta {
	mu.Lock()
	defer mu.Unlock()
	ensureInit()

	delta := eng.OnKey(engine.KeyCode(keyCode), caps != 0, shift != 0, ctrl != 0)
	fillCDelta(delta)
	return &outDelta
}

// fillCDelta copies an engine-owned Delta into the package-level C struct
// returned to the host. Only the first Count entries of chars are
// meaningful, same as the Go-side Delta (spec.md §6.1's `count` field).
func fillCDelta(d *engine.Delta) {
	outDelta.action = C.int32_t(d.Action)
	outDelta.backspace = C.int32_t(d.Backspace)
	outDelta.count = C.int32_t(d.Count)
	outDelta.flags = C.uint32_t(d.Flags)
	outDelta.seq = C.uint32_t(d.Seq)
	for i := 0; i < d.Count; i++ {
		outDelta.chars[i] = C.int32_t(d.Chars[i])
	}
}

//export govietime_free_delta
func govietime_free_delta(d *C.govietime_delta) {
	// No-op: the delta is engine-owned (see package doc), valid only until
	// the next govietime_on_key call. Exported anyway so hosts written
	// against the heap-owned discipline still link.
	_ = d
}

//export govietime_set_scheme
func govietime_set_scheme(scheme C.int) {
	mu.Lock()
	defer mu.Unlock()
	ensureInit()
	if scheme == 1 {
		eng.SetScheme(engine.SchemeVNI)
	} else {
		eng.SetScheme(engine.SchemeTelex)
	}
}

//export govietime_set_enabled
func govietime_set_enabled(enabled C.int) {
	mu.Lock()
	defer mu.Unlock()
	ensureInit()
	eng.SetEnabled(enabled != 0)
}

//export govietime_clear_buffer
func govietime_clear_buffer() {
	mu.Lock()
	defer mu.Unlock()
	ensureInit()
	eng.ClearBuffer()
}

//export govietime_clear_all
func govietime_clear_all() {
	mu.Lock()
	defer mu.Unlock()
	ensureInit()
	eng.ClearAll()
}

//export govietime_set_option
func govietime_set_option(optionID, value C.int) C.int {
	mu.Lock()
	defer mu.Unlock()
	ensureInit()
	if eng.SetOption(engine.OptionID(optionID), int(value)) {
		return 1
	}
	return 0
}

//export govietime_add_shortcut
func govietime_add_shortcut(trigger, expansion *C.char) C.int {
	mu.Lock()
	defer mu.Unlock()
	ensureInit()
	if eng.AddShortcut(C.GoString(trigger), C.GoString(expansion)) {
		return 1
	}
	return 0
}

//export govietime_remove_shortcut
func govietime_remove_shortcut(trigger *C.char) C.int {
	mu.Lock()
	defer mu.Unlock()
	ensureInit()
	if eng.RemoveShortcut(C.GoString(trigger)) {
		return 1
	}
	return 0
}

//export govietime_clear_shortcuts
func govietime_clear_shortcuts() {
	mu.Lock()
	defer mu.Unlock()
	ensureInit()
	eng.ClearShortcuts()
}

//export govietime_compare_versions
func govietime_compare_versions(a, b *C.char) C.int {
	return C.int(engine.CompareVersions(C.GoString(a), C.GoString(b)))
}

// main is required by package main but is never invoked under
// -buildmode=c-shared/c-archive; the real entry points are the //export
// functions above, called by the host process that links this library.
func main() {}

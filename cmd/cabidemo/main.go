// Command cabidemo is a smoke host for the engine's scheme-neutral OnKey/
// Delta surface (spec.md §6.1) — the same contract internal/cabi exports
// over cgo, driven here straight through the engine package so the
// backspace+insert protocol can be exercised without a C caller.
//
// Usage: cabidemo [-scheme telex|vni] "text to type"
package main

import (
	"flag"
	"fmt"
	"strings"

	"github.com/username/goviet-ime/internal/engine"
)

func main() {
	scheme := flag.String("scheme", "telex", "input scheme: telex or vni")
	flag.Parse()

	text := strings.Join(flag.Args(), " ")
	if text == "" {
		text = "tooi muoons chuyeenr sang tieesng vieejt nhung ddoi khi anh aas."
	}

	eng := engine.NewCompositionEngine()
	if strings.EqualFold(*scheme, "vni") {
		eng.SetScheme(engine.SchemeVNI)
	}

	var field []rune // simulates the host's focused text field
	for _, r := range text {
		caps := false
		delta := eng.OnKey(engine.KeyCode(r), caps, false, false)
		applyDelta(&field, delta)
	}

	fmt.Println(string(field))
}

// applyDelta performs the backspace+insert a real keyboard hook would apply
// to its focused field, per spec.md §6.1's delta contract.
func applyDelta(field *[]rune, delta *engine.Delta) {
	switch delta.Action {
	case engine.ActionNoop:
		return
	case engine.ActionEdit, engine.ActionRestore:
		f := *field
		if delta.Backspace > 0 {
			n := len(f) - delta.Backspace
			if n < 0 {
				n = 0
			}
			f = f[:n]
		}
		f = append(f, []rune(delta.Text())...)
		*field = f
	}
}

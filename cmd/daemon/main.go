package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/godbus/dbus/v5"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/username/goviet-ime/internal/engine"
)

const (
	serviceName = "com.github.goviet.ime"
	objectPath  = "/Engine"
)

// InputEngine is the D-Bus object that receives key events from Fcitx5.
type InputEngine struct {
	engine *engine.CompositionEngine
}

// NewInputEngine creates a new InputEngine with default settings.
func NewInputEngine() *InputEngine {
	return &InputEngine{
		engine: engine.NewCompositionEngine(),
	}
}

// ProcessKey handles key events from Fcitx5 frontend.
// Input: keysym (X11 keycode), modifiers (Shift/Ctrl/Alt state)
// Output: handled (was key consumed), commitText (text to commit), preeditText (composition)
func (e *InputEngine) ProcessKey(keysym uint32, modifiers uint32) (bool, string, string, *dbus.Error) {
	event := engine.KeyEvent{
		KeySym:    keysym,
		Modifiers: modifiers,
	}

	result := e.engine.ProcessKey(event)

	log.Debug().
		Str("key", keyLogString(keysym)).
		Str("mods", modsLogString(modifiers)).
		Str("preedit", result.Preedit).
		Str("commit", result.CommitText).
		Bool("handled", result.Handled).
		Msg("key event")

	return result.Handled, result.CommitText, result.Preedit, nil
}

// Reset clears the current composition state.
func (e *InputEngine) Reset() *dbus.Error {
	e.engine.Reset()
	log.Info().Msg("engine reset")
	return nil
}

// SetEnabled enables or disables the engine.
func (e *InputEngine) SetEnabled(enabled bool) *dbus.Error {
	e.engine.SetEnabled(enabled)
	log.Info().Bool("enabled", enabled).Msg("engine enabled state changed")
	return nil
}

// GetPreedit returns the current preedit string.
func (e *InputEngine) GetPreedit() (string, *dbus.Error) {
	return e.engine.GetPreedit(), nil
}

func keyLogString(keysym uint32) string {
	if char := engine.KeysymToRune(keysym); char != 0 {
		return fmt.Sprintf("%q", char)
	}
	switch keysym {
	case engine.KeysymBackspace:
		return "Backspace"
	case engine.KeysymSpace:
		return "Space"
	case engine.KeysymReturn:
		return "Enter"
	case engine.KeysymTab:
		return "Tab"
	case engine.KeysymEscape:
		return "Esc"
	case engine.KeysymDelete:
		return "Delete"
	case 0xff51:
		return "Left"
	case 0xff52:
		return "Up"
	case 0xff53:
		return "Right"
	case 0xff54:
		return "Down"
	case 0xff50:
		return "Home"
	case 0xff57:
		return "End"
	case 0xff55:
		return "PgUp"
	case 0xff56:
		return "PgDn"
	}
	return fmt.Sprintf("0x%x", keysym)
}

func modsLogString(modifiers uint32) string {
	mods := ""
	if modifiers&engine.ModShift != 0 {
		mods += "Shift+"
	}
	if modifiers&engine.ModControl != 0 {
		mods += "Ctrl+"
	}
	if modifiers&engine.ModMod1 != 0 {
		mods += "Alt+"
	}
	return mods
}

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "no .env file found, using system environment variables")
	}

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("GOVIET_ENV") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// 1. Connect to Session Bus
	conn, err := dbus.SessionBus()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to session bus")
	}
	defer conn.Close()

	// 2. Register Service Name
	reply, err := conn.RequestName(serviceName, dbus.NameFlagDoNotQueue)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to request bus name")
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		log.Fatal().Msg("name already taken - another instance may be running")
	}

	// 3. Create and export the engine
	inputEngine := NewInputEngine()
	if err := conn.Export(inputEngine, dbus.ObjectPath(objectPath), serviceName); err != nil {
		log.Fatal().Err(err).Msg("failed to export object")
	}

	log.Info().
		Str("service", serviceName).
		Str("object_path", objectPath).
		Str("input_method", inputEngine.engine.GetConfig().InputMethodName).
		Msg("goviet-ime backend is running")

	// 4. Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	log.Info().Msg("shutting down")
}

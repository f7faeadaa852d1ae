// Package tray provides a system tray control surface for the signlens translator.
package tray

import (
	"sync"

	"github.com/getlantern/systray"
	"github.com/rs/zerolog/log"
)

// Tray represents the system tray application.
type Tray struct {
	onTranslate func(on bool) error
	onOpenUI    func()
	onQuit      func()
	translating bool
	mu          sync.RWMutex

	// Menu items stored for later updates
	menuToggle   *systray.MenuItem
	menuLastSign *systray.MenuItem
}

// New creates a new Tray instance with translation off.
func New() *Tray {
	return &Tray{}
}

// OnTranslate sets the callback run when translation is toggled. If it
// returns an error the toggle is reverted.
func (t *Tray) OnTranslate(fn func(on bool) error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onTranslate = fn
}

// OnOpenUI sets the callback function to be called when the open menu item is clicked.
func (t *Tray) OnOpenUI(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpenUI = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit closes the tray, making Run return.
func (t *Tray) Quit() {
	systray.Quit()
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("signlens")
	systray.SetTooltip("signlens ASL translator")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.translating), "Start or stop translating")
	systray.AddSeparator()

	t.menuLastSign = systray.AddMenuItem("Last: none", "Last recognized sign")
	t.menuLastSign.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuOpen := systray.AddMenuItem("Open Translator...", "Open the translator in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit signlens")

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuOpen.ClickedCh:
				t.handleOpenUI()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {
	log.Debug().Msg("tray exited")
}

func toggleTitle(translating bool) string {
	if translating {
		return "● Translating"
	}
	return "○ Paused"
}

// handleToggle flips translation and reverts when the callback fails.
func (t *Tray) handleToggle() {
	t.mu.Lock()
	on := !t.translating
	callback := t.onTranslate
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		if err := callback(on); err != nil {
			log.Warn().Err(err).Bool("on", on).Msg("tray toggle failed")
			return
		}
	}

	t.SetTranslating(on)
}

func (t *Tray) handleOpenUI() {
	t.mu.RLock()
	callback := t.onOpenUI
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetTranslating updates the toggle without invoking the callback, for
// changes made elsewhere (API, camera disconnect).
func (t *Tray) SetTranslating(on bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.translating = on
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(on))
	}
}

// SetLastSign updates the last sign display in the menu.
func (t *Tray) SetLastSign(label string) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuLastSign != nil {
		if label == "" {
			t.menuLastSign.SetTitle("Last: none")
		} else {
			t.menuLastSign.SetTitle("Last: " + label)
		}
	}
}

// IsTranslating returns the current toggle state.
func (t *Tray) IsTranslating() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.translating
}

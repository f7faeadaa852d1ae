package main

import (
	"strings"
	"testing"
)

func TestKeyFor(t *testing.T) {
	tests := []struct {
		sign      string
		lowercase bool
		want      key
		ok        bool
	}{
		{"A", false, key{text: "A"}, true},
		{"A", true, key{text: "a"}, true},
		{"HELLO", false, key{text: "HELLO"}, true},
		{"space", false, key{named: "space"}, true},
		{"DEL", false, key{named: "backspace"}, true},
		{"  ", false, key{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.sign, func(t *testing.T) {
			got, ok := keyFor(tt.sign, tt.lowercase)
			if ok != tt.ok || got != tt.want {
				t.Errorf("keyFor(%q) = %+v, %v; want %+v, %v", tt.sign, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestTypeCommand(t *testing.T) {
	tests := []struct {
		name     string
		goos     string
		key      key
		wantCmd  string
		wantArgs string
	}{
		{"mac text", "darwin", key{text: "B"}, "osascript", `-e tell application "System Events" to keystroke "B"`},
		{"mac space", "darwin", key{named: "space"}, "osascript", "-e tell application \"System Events\" to key code 49"},
		{"linux text", "linux", key{text: "B"}, "xdotool", "type -- B"},
		{"linux backspace", "linux", key{named: "backspace"}, "xdotool", "key BackSpace"},
		{"unsupported", "plan9", key{text: "B"}, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, args := typeCommand(tt.goos, tt.key)
			if cmd != tt.wantCmd {
				t.Errorf("command = %q, want %q", cmd, tt.wantCmd)
			}
			if got := strings.Join(args, " "); got != tt.wantArgs {
				t.Errorf("args = %q, want %q", got, tt.wantArgs)
			}
		})
	}
}

func TestAppleScriptFor_Escapes(t *testing.T) {
	script := appleScriptFor(key{text: `say "hi"`})
	if !strings.Contains(script, `keystroke "say \"hi\""`) {
		t.Errorf("script not escaped: %s", script)
	}
}

// Package main provides a keyboard plugin that types each settled sign
// into the focused application. Letters are typed as-is; the SPACE and DEL
// signs map to the space bar and backspace.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// Request represents the input from the plugin executor.
type Request struct {
	Event      string          `json:"event"`
	Sign       string          `json:"sign"`
	Confidence float64         `json:"confidence"`
	Config     json.RawMessage `json:"config"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Config is the optional plugin configuration.
type Config struct {
	// Lowercase types letters in lower case.
	Lowercase bool `json:"lowercase"`
}

// key is one thing to type: either text or a named key.
type key struct {
	text  string
	named string // "space" or "backspace"
}

func main() {
	// Read request from stdin
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	if req.Event != "settled" {
		writeSuccessResponse()
		return
	}

	var cfg Config
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			writeErrorResponse(fmt.Sprintf("failed to parse config: %v", err))
			return
		}
	}

	k, ok := keyFor(req.Sign, cfg.Lowercase)
	if !ok {
		writeErrorResponse(fmt.Sprintf("cannot type sign %q", req.Sign))
		return
	}

	name, args := typeCommand(runtime.GOOS, k)
	if name == "" {
		writeErrorResponse("typing is not supported on " + runtime.GOOS)
		return
	}
	if err := run(name, args...); err != nil {
		writeErrorResponse(fmt.Sprintf("typing %q failed: %v", req.Sign, err))
		return
	}

	writeSuccessResponse()
}

// keyFor maps a sign label to what should be typed.
func keyFor(sign string, lowercase bool) (key, bool) {
	switch strings.ToUpper(strings.TrimSpace(sign)) {
	case "":
		return key{}, false
	case "SPACE":
		return key{named: "space"}, true
	case "DEL", "DELETE":
		return key{named: "backspace"}, true
	}

	text := strings.TrimSpace(sign)
	if lowercase {
		text = strings.ToLower(text)
	}
	return key{text: text}, true
}

// typeCommand builds the command that types k on goos.
func typeCommand(goos string, k key) (string, []string) {
	switch goos {
	case "darwin":
		return "osascript", []string{"-e", appleScriptFor(k)}
	case "linux":
		switch k.named {
		case "space":
			return "xdotool", []string{"key", "space"}
		case "backspace":
			return "xdotool", []string{"key", "BackSpace"}
		}
		return "xdotool", []string{"type", "--", k.text}
	}
	return "", nil
}

// appleScriptFor generates an AppleScript for k.
func appleScriptFor(k key) string {
	switch k.named {
	case "space":
		return `tell application "System Events" to key code 49`
	case "backspace":
		return `tell application "System Events" to key code 51`
	}
	escaped := strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(k.text)
	return fmt.Sprintf(`tell application "System Events" to keystroke "%s"`, escaped)
}

// writeErrorResponse writes an error response to stdout.
func writeErrorResponse(errMsg string) {
	resp := Response{
		Success: false,
		Error:   errMsg,
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}

// writeSuccessResponse writes a success response to stdout.
func writeSuccessResponse() {
	resp := Response{
		Success: true,
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}

// run executes a command and returns any error with its output.
func run(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}

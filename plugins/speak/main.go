// Package main provides a text-to-speech plugin that speaks each settled
// sign aloud using the platform speech command (say on macOS, espeak on
// Linux, SAPI through PowerShell on Windows).
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strconv"
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
	Voice string `json:"voice"`
	// Rate is in words per minute; 0 keeps the platform default.
	Rate int `json:"rate"`
	// Phrases maps sign labels to what is spoken, e.g. "ILY" to "I love you".
	Phrases map[string]string `json:"phrases"`
}

// eventPhrases are spoken for lifecycle events when subscribed.
var eventPhrases = map[string]string{
	"started": "Translation started",
	"stopped": "Translation stopped",
}

func main() {
	// Read request from stdin
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	var cfg Config
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			writeErrorResponse(fmt.Sprintf("failed to parse config: %v", err))
			return
		}
	}

	text := phraseFor(req, cfg)
	if text == "" {
		writeSuccessResponse("")
		return
	}

	name, args := speechCommand(runtime.GOOS, text, cfg)
	if name == "" {
		writeErrorResponse("speech is not supported on " + runtime.GOOS)
		return
	}
	if err := run(name, args...); err != nil {
		writeErrorResponse(fmt.Sprintf("speaking %q failed: %v", text, err))
		return
	}

	writeSuccessResponse(text)
}

// phraseFor picks what to say for req.
func phraseFor(req Request, cfg Config) string {
	if req.Event != "settled" {
		return eventPhrases[req.Event]
	}

	sign := strings.TrimSpace(req.Sign)
	if p, ok := cfg.Phrases[sign]; ok {
		return p
	}
	switch strings.ToUpper(sign) {
	case "SPACE", "DEL", "DELETE", "NOTHING":
		return ""
	}
	return sign
}

// speechCommand builds the command that speaks text on goos.
func speechCommand(goos, text string, cfg Config) (string, []string) {
	switch goos {
	case "darwin":
		var args []string
		if cfg.Voice != "" {
			args = append(args, "-v", cfg.Voice)
		}
		if cfg.Rate > 0 {
			args = append(args, "-r", strconv.Itoa(cfg.Rate))
		}
		return "say", append(args, text)
	case "linux":
		var args []string
		if cfg.Voice != "" {
			args = append(args, "-v", cfg.Voice)
		}
		if cfg.Rate > 0 {
			args = append(args, "-s", strconv.Itoa(cfg.Rate))
		}
		return "espeak", append(args, "--", text)
	case "windows":
		escaped := strings.ReplaceAll(text, "'", "''")
		script := "Add-Type -AssemblyName System.Speech; " +
			"(New-Object System.Speech.Synthesis.SpeechSynthesizer).Speak('" + escaped + "')"
		return "powershell", []string{"-NoProfile", "-Command", script}
	}
	return "", nil
}

// writeErrorResponse writes an error response to stdout.
func writeErrorResponse(errMsg string) {
	resp := Response{
		Success: false,
		Error:   errMsg,
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}

// writeSuccessResponse writes a success response carrying the spoken text.
func writeSuccessResponse(spoken string) {
	data, _ := json.Marshal(map[string]string{"spoken": spoken})
	resp := Response{
		Success: true,
		Data:    data,
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

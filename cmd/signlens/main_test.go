package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/ayusman/signlens/internal/config"
)

func TestUIURL(t *testing.T) {
	tests := []struct {
		addr string
		want string
	}{
		{":8080", "http://localhost:8080/"},
		{"127.0.0.1:9000", "http://127.0.0.1:9000/"},
	}
	for _, tt := range tests {
		if got := uiURL(tt.addr); got != tt.want {
			t.Errorf("uiURL(%q) = %q, want %q", tt.addr, got, tt.want)
		}
	}
}

func TestApplyFlags(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.Flags().AddFlagSet(rootCmd.Flags())
	t.Cleanup(func() {
		addrFlag, endpointFlag, cameraFlag, dataDirFlag = "", "", -1, ""
	})

	if err := cmd.Flags().Parse([]string{"--addr", ":9090", "--camera", "2", "--data-dir", "/tmp/sl"}); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	cfg := &config.Config{Addr: ":8080", Endpoint: "http://svc", CameraID: 0, DataDir: "/home/x/.signlens"}
	applyFlags(cmd, cfg)

	if cfg.Addr != ":9090" || cfg.CameraID != 2 || cfg.DataDir != "/tmp/sl" {
		t.Errorf("flags not applied: %+v", cfg)
	}
	if cfg.Endpoint != "http://svc" {
		t.Errorf("unset flag overrode Endpoint: %q", cfg.Endpoint)
	}
	if os.Getenv("SIGNLENS_PLUGIN_DIR") == "" && cfg.PluginDir != filepath.Join("/tmp/sl", "plugins") {
		t.Errorf("PluginDir = %q", cfg.PluginDir)
	}
}

func TestAppConfig(t *testing.T) {
	cfg := &config.Config{
		Endpoint:            "http://svc",
		RequestTimeout:      3 * time.Second,
		SmoothingFrames:     6,
		MinStability:        3,
		HistorySize:         20,
		TargetFPS:           15,
		MaxCameraRetries:    4,
		MaxConsecutiveFails: 7,
	}

	ac := appConfig(cfg, nil, 0.8)

	if ac.Stabilizer.Threshold != 0.8 || ac.Predict.ConfidenceThreshold != 0.8 {
		t.Errorf("threshold not propagated: %+v %+v", ac.Stabilizer, ac.Predict)
	}
	if ac.Stabilizer.WindowSize != 6 || ac.Stabilizer.MinStability != 3 || ac.Stabilizer.HistorySize != 20 {
		t.Errorf("stabilizer = %+v", ac.Stabilizer)
	}
	if ac.Session.MaxRetries != 4 || ac.TargetFPS != 15 || ac.MaxConsecutiveFails != 7 {
		t.Errorf("app config = %+v", ac)
	}
	if !ac.Predict.EnableLandmarks || ac.Predict.Timeout != 3*time.Second {
		t.Errorf("predict = %+v", ac.Predict)
	}
}

func TestFindWebDir_DataDir(t *testing.T) {
	wd, _ := os.Getwd()
	tmp := t.TempDir()
	if err := os.Chdir(tmp); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(wd) })

	dataDir := filepath.Join(tmp, "data")
	if got := findWebDir(dataDir); got != "" {
		t.Fatalf("findWebDir() = %q, want empty", got)
	}

	if err := os.MkdirAll(filepath.Join(dataDir, "web"), 0755); err != nil {
		t.Fatal(err)
	}
	if got := findWebDir(dataDir); got != filepath.Join(dataDir, "web") {
		t.Errorf("findWebDir() = %q", got)
	}
}

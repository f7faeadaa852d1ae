package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ayusman/signlens/internal/app"
	"github.com/ayusman/signlens/internal/capture"
	"github.com/ayusman/signlens/internal/config"
	"github.com/ayusman/signlens/internal/logging"
	"github.com/ayusman/signlens/internal/predict"
	"github.com/ayusman/signlens/internal/server"
	"github.com/ayusman/signlens/internal/stabilizer"
	"github.com/ayusman/signlens/internal/store"
	"github.com/ayusman/signlens/internal/tray"
)

// CLI flags
var (
	addrFlag     string
	endpointFlag string
	cameraFlag   int
	dataDirFlag  string
	webDirFlag   string
	logLevelFlag string
	trayFlag     bool
	startFlag    bool
)

var rootCmd = &cobra.Command{
	Use:   "signlens",
	Short: "Real-time ASL translation from a webcam",
	Long: `signlens captures webcam frames, sends them to a sign recognition
service and turns the noisy per-frame predictions into stable recognized
signs. A local web UI shows the preview with the hand skeleton, the current
sign and the recognition history.

Settings are read from a .env file and SIGNLENS_* environment variables;
flags take precedence.

Examples:
  signlens
  signlens --endpoint http://127.0.0.1:5000/api/process_frame
  signlens --camera 1 --tray --start`,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().StringVar(&addrFlag, "addr", "", "HTTP listen address (default :8080)")
	rootCmd.Flags().StringVar(&endpointFlag, "endpoint", "", "prediction service URL")
	rootCmd.Flags().IntVar(&cameraFlag, "camera", -1, "camera device index")
	rootCmd.Flags().StringVar(&dataDirFlag, "data-dir", "", "directory for the database and plugins")
	rootCmd.Flags().StringVar(&webDirFlag, "web-dir", "", "directory with the web UI")
	rootCmd.Flags().StringVar(&logLevelFlag, "log-level", "", "debug, info, warn or error")
	rootCmd.Flags().BoolVar(&trayFlag, "tray", false, "show a system tray icon")
	rootCmd.Flags().BoolVar(&startFlag, "start", false, "enable the camera and start translating at launch")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// applyFlags overrides cfg with the flags the user set.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("addr") {
		cfg.Addr = addrFlag
	}
	if flags.Changed("endpoint") {
		cfg.Endpoint = endpointFlag
	}
	if flags.Changed("camera") {
		cfg.CameraID = cameraFlag
	}
	if flags.Changed("data-dir") {
		cfg.DataDir = dataDirFlag
		if os.Getenv("SIGNLENS_PLUGIN_DIR") == "" {
			cfg.PluginDir = filepath.Join(dataDirFlag, "plugins")
		}
	}
	if flags.Changed("web-dir") {
		cfg.WebDir = webDirFlag
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevelFlag
	}
	if flags.Changed("tray") {
		cfg.Tray = trayFlag
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	applyFlags(cmd, cfg)
	logging.Init(cfg.LogLevel)

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	st, err := store.New(cfg.DBPath())
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	threshold := st.Settings().GetFloat(store.SettingConfidenceThreshold, cfg.ConfidenceThreshold)

	a := app.New(appConfig(cfg, st, threshold))
	defer a.Close()

	if err := a.DiscoverPlugins(); err != nil {
		log.Warn().Err(err).Str("dir", cfg.PluginDir).Msg("plugin discovery failed")
	}

	webDir := cfg.WebDir
	if webDir == "" {
		webDir = findWebDir(cfg.DataDir)
	}
	if webDir != "" {
		log.Info().Str("dir", webDir).Msg("serving web UI")
	}

	srv := server.New(server.Config{StaticDir: webDir, Store: st, App: a})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if startFlag {
		go autoStart(ctx, a)
	}

	log.Info().
		Str("addr", cfg.Addr).
		Str("endpoint", cfg.Endpoint).
		Float64("threshold", threshold).
		Msg("signlens starting")

	if !cfg.Tray {
		return srv.ListenAndServe(ctx, cfg.Addr)
	}

	// The tray owns the main thread; the server runs beside it.
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe(ctx, cfg.Addr)
	}()

	t := newTray(ctx, a, uiURL(cfg.Addr))
	go func() {
		<-ctx.Done()
		t.Quit()
	}()
	t.Run()
	stop()

	if err := <-errCh; err != nil {
		return err
	}
	return nil
}

func appConfig(cfg *config.Config, st *store.Store, threshold float64) app.Config {
	return app.Config{
		Store:         st,
		PluginDir:     cfg.PluginDir,
		PluginTimeout: cfg.PluginTimeout,
		CameraID:      cfg.CameraID,
		Session: capture.SessionConfig{
			MaxRetries:   cfg.MaxCameraRetries,
			FrameTimeout: cfg.FrameTimeout,
		},
		Predict: predict.Options{
			Endpoint:            cfg.Endpoint,
			Timeout:             cfg.RequestTimeout,
			ConfidenceThreshold: threshold,
			SmoothingFrames:     cfg.SmoothingFrames,
			EnableLandmarks:     true,
		},
		Stabilizer: stabilizer.Config{
			Threshold:    threshold,
			WindowSize:   cfg.SmoothingFrames,
			MinStability: cfg.MinStability,
			HistorySize:  cfg.HistorySize,
		},
		TargetFPS:           cfg.TargetFPS,
		MaxConsecutiveFails: cfg.MaxConsecutiveFails,
	}
}

func autoStart(ctx context.Context, a *app.App) {
	if err := a.EnableCamera(ctx); err != nil {
		log.Error().Err(err).Msg("camera could not be enabled at launch")
		return
	}
	if err := a.Start(); err != nil {
		log.Error().Err(err).Msg("translation could not be started at launch")
	}
}

// newTray builds the tray menu and keeps it in sync with app events.
func newTray(ctx context.Context, a *app.App, url string) *tray.Tray {
	t := tray.New()
	t.OnTranslate(func(on bool) error {
		if !on {
			a.Stop()
			return nil
		}
		if a.Session().State() != capture.StateLive {
			if err := a.EnableCamera(ctx); err != nil {
				return err
			}
		}
		return a.Start()
	})
	t.OnOpenUI(func() {
		if err := openBrowser(url); err != nil {
			log.Warn().Err(err).Str("url", url).Msg("failed to open browser")
		}
	})
	t.OnQuit(func() {
		log.Info().Msg("quit from tray")
	})

	events, unsubscribe := a.Subscribe()
	go func() {
		defer unsubscribe()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				switch ev.Type {
				case app.EventSettled:
					t.SetLastSign(ev.Recognition.Label)
				case app.EventStatus:
					t.SetTranslating(ev.Status.Running)
				}
			}
		}
	}()

	return t
}

// uiURL turns a listen address into a browsable URL.
func uiURL(addr string) string {
	host := addr
	if strings.HasPrefix(host, ":") {
		host = "localhost" + host
	}
	return "http://" + host + "/"
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	case "linux", "freebsd":
		cmd = exec.Command("xdg-open", url)
	default:
		return errors.New("unsupported platform")
	}
	return cmd.Start()
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and <data dir>/web.
// Returns the first existing directory or empty string if none found.
func findWebDir(dataDir string) string {
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	dataWebDir := filepath.Join(dataDir, "web")
	if info, err := os.Stat(dataWebDir); err == nil && info.IsDir() {
		return dataWebDir
	}

	return ""
}

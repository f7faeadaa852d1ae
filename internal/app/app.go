// Package app wires the translator together: camera session, frame
// scheduler, prediction client and stabilizer, plus the side channels that
// present results (events, history persistence and plugin hooks).
package app

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"gocv.io/x/gocv"

	"github.com/ayusman/signlens/internal/capture"
	"github.com/ayusman/signlens/internal/hand"
	"github.com/ayusman/signlens/internal/plugin"
	"github.com/ayusman/signlens/internal/predict"
	"github.com/ayusman/signlens/internal/scheduler"
	"github.com/ayusman/signlens/internal/stabilizer"
	"github.com/ayusman/signlens/internal/store"
)

// ErrCameraNotReady is returned by Start when the camera is not live.
var ErrCameraNotReady = errors.New("camera is not ready")

// Predictor sends one encoded frame to the recognition service.
type Predictor interface {
	Predict(ctx context.Context, jpeg []byte, frameID uint64) (predict.Response, error)
}

// Config holds configuration options for the application.
type Config struct {
	Store         *store.Store
	PluginDir     string
	PluginTimeout time.Duration

	// Camera defaults to the OpenCV device CameraID.
	Camera   capture.Device
	CameraID int
	Session  capture.SessionConfig

	// Predictor defaults to a predict.Client built from Predict.
	Predictor Predictor
	Predict   predict.Options

	Stabilizer          stabilizer.Config
	TargetFPS           int
	MaxConsecutiveFails int

	// NewTicker overrides the display ticker, mainly for tests.
	NewTicker func() scheduler.Ticker
}

// Status is a point-in-time view of the translator.
type Status struct {
	Running           bool            `json:"running"`
	Visible           bool            `json:"visible"`
	Camera            capture.State   `json:"camera"`
	CameraRetries     int             `json:"camera_retries"`
	FPS               float64         `json:"fps"`
	AvgProcessingMs   float64         `json:"avg_processing_ms"`
	Frames            uint64          `json:"frames"`
	Current           string          `json:"current,omitempty"`
	CurrentConfidence float64         `json:"current_confidence,omitempty"`
	Stability         int             `json:"stability"`
	SessionID         string          `json:"session_id,omitempty"`
	Scheduler         scheduler.Stats `json:"scheduler"`
}

// App is the translator.
type App struct {
	config    Config
	session   *capture.Session
	sched     *scheduler.Scheduler
	predictor Predictor
	overlay   *hand.Overlay
	events    *broker

	pluginMgr *plugin.Manager
	hooks     *plugin.Hooks

	// Owned by the scheduler loop while running.
	budget  *predict.Budget
	latency *predict.Latency

	// mu guards the stabilizer and run state below.
	mu        sync.Mutex
	stab      *stabilizer.Stabilizer
	running   bool
	sessionID string
	watchStop chan struct{}

	frames  atomic.Uint64
	quality atomic.Int32
	avgMs   atomic.Uint64 // math.Float64bits

	previewMu sync.Mutex
	preview   gocv.Mat
	closed    bool // preview released; guarded by previewMu
}

// New creates a new App instance with the given configuration.
func New(config Config) *App {
	if config.Camera == nil {
		config.Camera = capture.NewCamera(config.CameraID)
	}
	if config.Predictor == nil {
		config.Predictor = predict.NewClient(config.Predict)
	}

	mgr := plugin.NewManager(config.PluginDir)

	a := &App{
		config:    config,
		session:   capture.NewSession(config.Camera, config.Session),
		predictor: config.Predictor,
		overlay:   hand.NewOverlay(),
		events:    newBroker(),
		pluginMgr: mgr,
		hooks:     plugin.NewHooks(mgr, plugin.NewExecutor(config.PluginTimeout)),
		budget:    predict.NewBudget(config.MaxConsecutiveFails),
		latency:   &predict.Latency{},
		stab:      stabilizer.New(config.Stabilizer),
		preview:   gocv.NewMat(),
	}
	a.quality.Store(predict.DefaultQuality)

	if config.Store != nil {
		a.hooks.SetConfigSource(func(name string) json.RawMessage {
			v, err := config.Store.Settings().Get(store.PluginConfigKey(name))
			if err != nil || !json.Valid([]byte(v)) {
				return nil
			}
			return json.RawMessage(v)
		})
	}

	a.sched = scheduler.New(scheduler.Config{
		TargetFPS: config.TargetFPS,
		NewTicker: config.NewTicker,
		Ready:     func() bool { return a.session.State() == capture.StateLive },
		OnStop:    a.overlay.Clear,
	}, a.cycle)

	return a
}

// DiscoverPlugins scans the plugin directory and loads available plugins.
func (a *App) DiscoverPlugins() error {
	return a.pluginMgr.Discover()
}

// PluginManager returns the plugin manager.
func (a *App) PluginManager() *plugin.Manager {
	return a.pluginMgr
}

// EnableCamera acquires the camera. Failures are also published as a
// notice carrying the remediation for the error kind.
//
// Re-acquiring replaces the stream the running loop watches for
// disconnection, so an active translation is stopped first.
func (a *App) EnableCamera(ctx context.Context) error {
	a.Stop()

	err := a.session.Acquire(ctx)
	if err != nil && ctx.Err() != nil {
		a.publishStatus()
		return err
	}
	if err != nil {
		title, msg := capture.Remediation(err)
		a.notify(LevelError, title, msg)
		a.publishStatus()
		return err
	}

	a.notify(LevelInfo, "Camera Ready", "Camera ready!")
	a.publishStatus()
	return nil
}

// DisableCamera stops translation and releases the camera.
func (a *App) DisableCamera() error {
	a.Stop()
	err := a.session.Release()
	a.publishStatus()
	return err
}

// Start begins translating. The camera must be live.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.running {
		return nil
	}
	if a.session.State() != capture.StateLive {
		return ErrCameraNotReady
	}

	a.stab.Reset()
	a.budget = predict.NewBudget(a.config.MaxConsecutiveFails)
	a.latency.Reset()
	a.quality.Store(predict.DefaultQuality)
	a.overlay.Clear()
	a.frames.Store(0)

	a.sessionID = ""
	if a.config.Store != nil {
		sess, err := a.config.Store.Sessions().Start(time.Now())
		if err != nil {
			log.Warn().Err(err).Msg("failed to record session start")
		} else {
			a.sessionID = sess.ID
		}
	}

	if err := a.sched.Start(); err != nil {
		return err
	}

	a.watchStop = make(chan struct{})
	go a.watchDisconnect(a.session.Disconnected(), a.watchStop)

	a.running = true
	log.Info().Str("session", a.sessionID).Msg("translation started")

	go a.publishStatus()
	a.hooks.Fire(context.Background(), plugin.Request{Event: plugin.EventStarted, Timestamp: time.Now()})
	return nil
}

// Stop halts translation. It is safe to call when not running.
func (a *App) Stop() {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return
	}
	a.running = false
	close(a.watchStop)
	sessionID := a.sessionID
	a.mu.Unlock()

	a.sched.Stop()

	a.mu.Lock()
	a.stab.Reset()
	a.mu.Unlock()

	if a.config.Store != nil && sessionID != "" {
		if err := a.config.Store.Sessions().End(sessionID, time.Now(), int(a.frames.Load())); err != nil {
			log.Warn().Err(err).Str("session", sessionID).Msg("failed to record session end")
		}
	}

	log.Info().Str("session", sessionID).Uint64("frames", a.frames.Load()).Msg("translation stopped")
	a.publishStatus()
	a.hooks.Fire(context.Background(), plugin.Request{Event: plugin.EventStopped, Timestamp: time.Now()})
}

// watchDisconnect stops translation once when the camera goes away.
func (a *App) watchDisconnect(disconnected <-chan struct{}, stop <-chan struct{}) {
	select {
	case <-disconnected:
		a.Stop()
		title, msg := capture.Remediation(capture.ErrDeviceDisconnected)
		a.notify(LevelError, title, msg)
	case <-stop:
	}
}

// SetVisible pauses or resumes frame processing.
func (a *App) SetVisible(visible bool) {
	a.sched.SetVisible(visible)
	a.publishStatus()
}

// Running reports whether translation is active.
func (a *App) Running() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.running
}

// Session returns the camera session.
func (a *App) Session() *capture.Session {
	return a.session
}

// Overlay returns the landmark overlay for drawing on previews.
func (a *App) Overlay() *hand.Overlay {
	return a.overlay
}

// Subscribe registers for events. Call the returned func to unsubscribe.
func (a *App) Subscribe() (<-chan Event, func()) {
	return a.events.subscribe()
}

// History returns the in-memory recognitions, newest first.
func (a *App) History() []stabilizer.Recognition {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stab.History()
}

// ClearHistory empties the in-memory and persisted history.
func (a *App) ClearHistory() error {
	a.mu.Lock()
	a.stab.ClearHistory()
	a.mu.Unlock()

	if a.config.Store == nil {
		return nil
	}
	_, err := a.config.Store.Recognitions().Clear()
	return err
}

// Status returns a snapshot of the translator state.
func (a *App) Status() Status {
	a.mu.Lock()
	st := Status{
		Running:   a.running,
		Stability: a.stab.Stability(),
		SessionID: a.sessionID,
	}
	if cur, ok := a.stab.Current(); ok {
		st.Current = cur.Label
		st.CurrentConfidence = cur.Confidence
	}
	a.mu.Unlock()

	stats := a.sched.Stats()
	st.Visible = a.sched.Visible()
	st.Camera = a.session.State()
	st.CameraRetries = a.session.Retries()
	st.FPS = stats.FPS
	st.AvgProcessingMs = float64FromBits(a.avgMs.Load())
	st.Frames = a.frames.Load()
	st.Scheduler = stats
	return st
}

// Preview returns a copy of the most recent frame sent for prediction. When
// translation is stopped it reads straight from the live camera.
func (a *App) Preview() (gocv.Mat, bool) {
	if !a.Running() && a.session.State() == capture.StateLive {
		frame, err := a.session.ReadFrame()
		if err != nil {
			return gocv.Mat{}, false
		}
		a.setPreview(frame)
		frame.Close()
	}

	a.previewMu.Lock()
	defer a.previewMu.Unlock()

	if a.closed || a.preview.Empty() {
		return gocv.Mat{}, false
	}
	return a.preview.Clone(), true
}

// setPreview may run on a worker that outlived Stop; it is a no-op after Close.
func (a *App) setPreview(frame *gocv.Mat) {
	a.previewMu.Lock()
	defer a.previewMu.Unlock()
	if a.closed {
		return
	}
	frame.CopyTo(&a.preview)
}

// Close stops translation, releases the camera and waits for plugin runs.
func (a *App) Close() error {
	a.Stop()
	err := a.session.Release()
	a.hooks.Wait()

	a.previewMu.Lock()
	if !a.closed {
		a.closed = true
		a.preview.Close()
	}
	a.previewMu.Unlock()

	return err
}

func (a *App) notify(level, title, message string) {
	ev := log.Info()
	switch level {
	case LevelWarning:
		ev = log.Warn()
	case LevelError:
		ev = log.Error()
	}
	ev.Str("title", title).Msg(message)

	a.events.publish(Event{
		Type:   EventNotice,
		Time:   time.Now(),
		Notice: &Notice{Level: level, Title: title, Message: message},
	})
}

func (a *App) publishStatus() {
	st := a.Status()
	a.events.publish(Event{Type: EventStatus, Time: time.Now(), Status: &st})
}

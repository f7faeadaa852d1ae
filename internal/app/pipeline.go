package app

import (
	"bytes"
	"context"
	"errors"
	"math"
	"time"

	"github.com/rs/zerolog/log"
	"gocv.io/x/gocv"

	"github.com/ayusman/signlens/internal/hand"
	"github.com/ayusman/signlens/internal/plugin"
	"github.com/ayusman/signlens/internal/predict"
	"github.com/ayusman/signlens/internal/scheduler"
	"github.com/ayusman/signlens/internal/stabilizer"
	"github.com/ayusman/signlens/internal/store"
)

// cycle runs off the scheduler loop: read a frame, encode it and ask the
// service. Everything that touches translator state happens in the returned
// func, which the scheduler only runs while the request is current.
func (a *App) cycle(ctx context.Context, req scheduler.FrameRequest) func() {
	start := time.Now()

	frame, err := a.session.ReadFrame()
	if err != nil {
		log.Debug().Err(err).Uint64("frame", req.ID).Msg("frame read failed")
		return nil
	}
	if ctx.Err() != nil {
		frame.Close()
		return nil
	}
	a.setPreview(frame)

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, *frame, []int{int(gocv.IMWriteJpegQuality), int(a.quality.Load())})
	frame.Close()
	if err != nil {
		log.Debug().Err(err).Uint64("frame", req.ID).Msg("jpeg encode failed")
		return nil
	}
	jpeg := bytes.Clone(buf.GetBytes())
	buf.Close()

	resp, err := a.predictor.Predict(ctx, jpeg, req.ID)
	elapsed := time.Since(start)

	return func() { a.apply(req, resp, err, elapsed) }
}

// apply runs on the scheduler loop.
func (a *App) apply(req scheduler.FrameRequest, resp predict.Response, err error, elapsed time.Duration) {
	if errors.Is(err, predict.ErrCanceled) {
		return
	}

	a.latency.Observe(elapsed)
	avg := a.latency.Average()
	a.quality.Store(int32(predict.QualityFor(avg)))
	a.avgMs.Store(float64Bits(float64(avg) / float64(time.Millisecond)))
	a.frames.Add(1)

	if err != nil || !resp.Success {
		if err != nil {
			log.Debug().Err(err).Uint64("frame", req.ID).Msg("prediction failed")
		}
		a.mu.Lock()
		a.stab.Skip()
		a.mu.Unlock()
		if a.budget.Fail() {
			a.notify(LevelWarning, "Processing Issues", "Processing issues detected. Please try again.")
		}
		return
	}
	a.budget.Succeed()

	sample := resp.Sample(time.Now())

	a.mu.Lock()
	res := a.stab.Observe(sample)
	a.mu.Unlock()

	switch {
	case res.ClearOverlay:
		a.overlay.Clear()
	case res.Valid && hand.Valid(sample.Landmarks):
		a.overlay.Set(sample.Landmarks)
	}

	a.events.publish(Event{
		Type: EventPrediction,
		Time: sample.Timestamp,
		Prediction: &Prediction{
			FrameID:      req.ID,
			Label:        sample.Label,
			Confidence:   sample.Confidence,
			HandDetected: sample.HandDetected,
			Landmarks:    sample.Landmarks,
			Vote:         res.Vote.Label,
			Stability:    res.Stability,
		},
	})

	if res.Settled {
		a.settled(res.Recognition)
	}
}

func (a *App) settled(rec stabilizer.Recognition) {
	log.Info().Str("sign", rec.Label).Float64("confidence", rec.Confidence).Msg("sign recognized")

	if a.config.Store != nil {
		a.mu.Lock()
		sessionID := a.sessionID
		a.mu.Unlock()

		err := a.config.Store.Recognitions().Create(&store.Recognition{
			SessionID:  sessionID,
			Label:      rec.Label,
			Confidence: rec.Confidence,
			CreatedAt:  rec.At,
		})
		if err != nil {
			log.Warn().Err(err).Str("sign", rec.Label).Msg("failed to persist recognition")
		}
	}

	a.events.publish(Event{Type: EventSettled, Time: rec.At, Recognition: &rec})

	a.hooks.Fire(context.Background(), plugin.Request{
		Event:      plugin.EventSettled,
		Sign:       rec.Label,
		Confidence: rec.Confidence,
		Timestamp:  rec.At,
	})
}

func float64Bits(f float64) uint64     { return math.Float64bits(f) }
func float64FromBits(b uint64) float64 { return math.Float64frombits(b) }

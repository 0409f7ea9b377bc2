package orchestration

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/koscakluka/ema-voicebot/core/audio"
)

type audioInput struct {
	// base stores the configured capture client, nil when unconfigured.
	base audio.Input

	// isCapturing reports whether the input client is currently capturing audio.
	isCapturing atomic.Bool
}

func (a *audioInput) Set(client audio.Input) {
	if a == nil {
		return
	}

	a.base = nil
	a.isCapturing.Store(false)
	if isNilClient(client) {
		return
	}
	a.base = client
}

func (a *audioInput) IsConfigured() bool { return a != nil && a.base != nil }
func (a *audioInput) IsCapturing() bool  { return a != nil && a.isCapturing.Load() }

func (a *audioInput) Capture(ctx context.Context, onAudio func(audio []byte)) error {
	if !a.IsConfigured() {
		return ErrAudioInputMissing
	}

	if !a.isCapturing.CompareAndSwap(false, true) {
		return fmt.Errorf("audio input already capturing")
	}

	if err := a.base.StartCapture(ctx, onAudio); err != nil {
		a.isCapturing.Store(false)
		return fmt.Errorf("failed to start capture: %w", err)
	}
	return nil
}

func (a *audioInput) StopCapture() error {
	if !a.IsConfigured() || !a.isCapturing.CompareAndSwap(true, false) {
		return nil
	}

	if err := a.base.StopCapture(); err != nil {
		return fmt.Errorf("failed to stop capture: %w", err)
	}
	return nil
}

func (a *audioInput) EncodingInfo() audio.EncodingInfo {
	if a.IsConfigured() {
		return a.base.EncodingInfo()
	}

	return audio.GetDefaultEncodingInfo()
}

package orchestration

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/koscakluka/ema-voicebot/core/audio"
	"github.com/koscakluka/ema-voicebot/core/events"
	"github.com/koscakluka/ema-voicebot/core/speechtotext"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	// frameBufferSize is the number of device chunks buffered between the
	// device callback and the listener, chunks beyond it are dropped
	frameBufferSize = 512
	chunkBufferSize = 64
)

// CaptureUtterance stops any playback, listens on the audio input for a single
// phrase and returns its transcript.
//
// Listening waits up to the listen timeout for audio louder than the energy
// threshold, then streams the phrase to the recognizer until a pause of the
// pause threshold or the phrase time limit is reached. Failures are reported
// as [*speechtotext.CaptureError]; nothing is added to the history.
func (o *Orchestrator) CaptureUtterance(ctx context.Context, opts ...speechtotext.RecognitionOption) (string, error) {
	if o.closed.Load() {
		return "", ErrClosed
	}

	o.turnMu.Lock()
	defer o.turnMu.Unlock()

	resume := o.player.Suspend(&o.audioOutput)
	defer resume()

	ctx, span := tracer.Start(ctx, "capture utterance")
	defer span.End()

	fail := func(err *speechtotext.CaptureError) (string, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		o.events.emit(events.NewUserCaptureFailed(err.Kind))
		return "", err
	}

	if !o.speechToText.isConfigured() {
		return fail(speechtotext.NewCaptureError(speechtotext.CaptureErrorServiceUnavailable, ErrNoRecognizer))
	}
	if !o.audioInput.IsConfigured() {
		return fail(speechtotext.NewCaptureError(speechtotext.CaptureErrorServiceUnavailable, ErrAudioInputMissing))
	}

	captureCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	encoding := o.audioInput.EncodingInfo()
	frames := make(chan []byte, frameBufferSize)
	if err := o.audioInput.Capture(captureCtx, func(chunk []byte) {
		select {
		case frames <- chunk:
		default:
		}
	}); err != nil {
		return fail(speechtotext.NewCaptureError(speechtotext.CaptureErrorServiceUnavailable, err))
	}
	defer func() {
		if err := o.audioInput.StopCapture(); err != nil {
			logger.WarnContext(ctx, "failed to stop audio capture", "error", err)
		}
	}()

	l := listener{
		options:         o.listenOptions,
		encoding:        encoding,
		onSpeechStarted: func() { o.events.emit(events.NewUserSpeechStarted()) },
		onSpeechEnded:   func() { o.events.emit(events.NewUserSpeechEnded()) },
	}
	transcript, err := l.listen(captureCtx, frames, func(chunks <-chan []byte) <-chan recognitionResult {
		return o.speechToText.recognize(captureCtx, chunks, encoding, o.events.emit, opts...)
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}

		var captureErr *speechtotext.CaptureError
		if !errors.As(err, &captureErr) {
			captureErr = speechtotext.NewCaptureError(speechtotext.CaptureErrorServiceUnavailable, err)
		}
		return fail(captureErr)
	}

	span.SetAttributes(attribute.Int("transcript.length", len(transcript)))
	o.events.emit(events.NewUserTranscriptFinal(transcript))
	return transcript, nil
}

// listener is the energy based voice activity detection in front of the
// recognizer. Durations are measured in audio time, wall clock timers only
// guard against a device that stops delivering audio.
type listener struct {
	options  listenOptions
	encoding audio.EncodingInfo

	onSpeechStarted func()
	onSpeechEnded   func()
}

func (l *listener) notify(hook func()) {
	if hook != nil {
		hook()
	}
}

func (l *listener) isSpeech(frame []byte) bool {
	return audio.Level(frame, l.encoding) >= l.options.energyThreshold
}

func (l *listener) listen(
	ctx context.Context,
	frames <-chan []byte,
	startRecognition func(chunks <-chan []byte) <-chan recognitionResult,
) (string, error) {
	first, err := l.awaitSpeech(ctx, frames)
	if err != nil {
		return "", err
	}
	l.notify(l.onSpeechStarted)

	chunks := make(chan []byte, chunkBufferSize)
	var closeOnce sync.Once
	closeChunks := func() { closeOnce.Do(func() { close(chunks) }) }
	defer closeChunks()

	results := startRecognition(chunks)
	var result *recognitionResult
	forward := func(frame []byte) bool {
		select {
		case chunks <- frame:
			return true
		case r := <-results:
			result = &r
			return false
		}
	}

	guard := time.NewTimer(l.options.phraseTimeLimit + l.options.pauseThreshold)
	defer guard.Stop()

	phrase := l.encoding.Duration(len(first))
	var silence time.Duration
	if forward(first) {
	phraseLoop:
		for phrase < l.options.phraseTimeLimit && silence < l.options.pauseThreshold {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-guard.C:
				break phraseLoop
			case r := <-results:
				result = &r
				break phraseLoop
			case frame := <-frames:
				duration := l.encoding.Duration(len(frame))
				phrase += duration
				if l.isSpeech(frame) {
					silence = 0
				} else {
					silence += duration
				}
				if !forward(frame) {
					break phraseLoop
				}
			}
		}
	}
	closeChunks()
	l.notify(l.onSpeechEnded)

	if result == nil {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case r := <-results:
			result = &r
		}
	}

	if result.err != nil {
		return "", result.err
	}

	transcript := strings.TrimSpace(result.transcript)
	if transcript == "" {
		return "", speechtotext.NewCaptureError(speechtotext.CaptureErrorUnintelligible, errors.New("empty transcript"))
	}
	return transcript, nil
}

// awaitSpeech returns the first frame loud enough to be speech
func (l *listener) awaitSpeech(ctx context.Context, frames <-chan []byte) ([]byte, error) {
	noSpeech := speechtotext.NewCaptureError(speechtotext.CaptureErrorNoSpeechDetected, nil)

	timeout := time.NewTimer(l.options.listenTimeout)
	defer timeout.Stop()

	var waited time.Duration
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timeout.C:
			return nil, noSpeech
		case frame := <-frames:
			if l.isSpeech(frame) {
				return frame, nil
			}

			waited += l.encoding.Duration(len(frame))
			if waited >= l.options.listenTimeout {
				return nil, noSpeech
			}
		}
	}
}

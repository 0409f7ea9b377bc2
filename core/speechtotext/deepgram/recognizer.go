package deepgram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	api "github.com/deepgram/deepgram-go-sdk/pkg/api/listen/v1/websocket/interfaces"
	"github.com/gorilla/websocket"
	"github.com/koscakluka/ema-voicebot/core/audio"
	"github.com/koscakluka/ema-voicebot/core/internal/deepgramaudio"
	"github.com/koscakluka/ema-voicebot/core/speechtotext"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	DefaultListenURL = "wss://api.deepgram.com/v1/listen"
	DefaultModel     = "nova-3"

	// finalizeTimeout bounds the wait for the last results after CloseStream
	finalizeTimeout = 5 * time.Second
)

var _ speechtotext.Recognizer = (*Recognizer)(nil)

type Recognizer struct {
	apiKey    string
	model     string
	listenURL string
	dialer    *websocket.Dialer
}

type RecognizerOption func(*Recognizer)

func WithModel(model string) RecognizerOption {
	return func(r *Recognizer) {
		if model != "" {
			r.model = model
		}
	}
}

// WithListenURL points the recognizer at a different listen endpoint, mostly
// useful for tests
func WithListenURL(listenURL string) RecognizerOption {
	return func(r *Recognizer) { r.listenURL = listenURL }
}

func WithDialer(dialer *websocket.Dialer) RecognizerOption {
	return func(r *Recognizer) {
		if dialer != nil {
			r.dialer = dialer
		}
	}
}

func NewRecognizer(apiKey string, opts ...RecognizerOption) (*Recognizer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("deepgram api key is required")
	}

	r := &Recognizer{
		apiKey:    apiKey,
		model:     DefaultModel,
		listenURL: DefaultListenURL,
		dialer:    websocket.DefaultDialer,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Recognize streams audio to the Deepgram listen socket and returns the final
// transcript once the audio channel is closed and Deepgram has flushed its
// last results.
func (r *Recognizer) Recognize(ctx context.Context, chunks <-chan []byte, encoding audio.EncodingInfo, opts ...speechtotext.RecognitionOption) (string, error) {
	options := speechtotext.ApplyRecognitionOptions(opts...)

	ctx, span := tracer.Start(ctx, "recognize speech")
	defer span.End()
	span.SetAttributes(attribute.String("request.model", r.model))

	fail := func(kind speechtotext.CaptureErrorKind, err error) (string, error) {
		captureErr := speechtotext.NewCaptureError(kind, err)
		span.RecordError(captureErr)
		span.SetStatus(codes.Error, captureErr.Error())
		return "", captureErr
	}

	conn, err := r.connect(ctx, encoding, options)
	if err != nil {
		return fail(speechtotext.CaptureErrorServiceUnavailable, err)
	}
	defer conn.Close()

	s := newSession(options)
	readDone := make(chan error, 1)
	go func() { readDone <- s.readMessages(conn) }()

	streamErr := func() error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case err := <-readDone:
				// the socket went away while we were still streaming
				if err == nil {
					err = errors.New("connection closed before the end of audio")
				}
				return err
			case chunk, ok := <-chunks:
				if !ok {
					return nil
				}
				if err := conn.WriteMessage(websocket.BinaryMessage, chunk); err != nil {
					return fmt.Errorf("failed to write to deepgram client: %w", err)
				}
			}
		}
	}()
	if streamErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return fail(speechtotext.CaptureErrorServiceUnavailable, streamErr)
	}

	if err := conn.WriteJSON(struct {
		Type string `json:"type"`
	}{Type: string(api.TypeCloseStreamResponse)}); err != nil {
		return fail(speechtotext.CaptureErrorServiceUnavailable, fmt.Errorf("failed to close deepgram stream: %w", err))
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case err := <-readDone:
		if err != nil {
			return fail(speechtotext.CaptureErrorServiceUnavailable, err)
		}
	case <-time.After(finalizeTimeout):
		logger.WarnContext(ctx, "timed out waiting for final deepgram results")
	}

	transcript := s.transcript()
	span.SetAttributes(attribute.Int("response.transcript_length", len(transcript)))
	if transcript == "" {
		return fail(speechtotext.CaptureErrorUnintelligible, errors.New("empty transcript"))
	}
	return transcript, nil
}

func (r *Recognizer) connect(ctx context.Context, encoding audio.EncodingInfo, options speechtotext.RecognitionOptions) (*websocket.Conn, error) {
	listenURL, err := url.Parse(r.listenURL)
	if err != nil {
		return nil, fmt.Errorf("invalid listen url: %w", err)
	}

	queryParams := listenURL.Query()
	if err := deepgramaudio.SetQuery(queryParams, encoding); err != nil {
		return nil, fmt.Errorf("invalid encoding: %w", err)
	}
	queryParams.Set("channels", "1")
	queryParams.Set("model", r.model)
	queryParams.Set("language", options.Language)
	queryParams.Set("smart_format", "true")
	queryParams.Set("interim_results", "true")
	queryParams.Set("utterance_end_ms", "1000")
	queryParams.Set("endpointing", "300")
	queryParams.Set("vad_events", "true")
	listenURL.RawQuery = queryParams.Encode()

	conn, _, err := r.dialer.DialContext(ctx, listenURL.String(),
		http.Header{"Authorization": {"Token " + r.apiKey}})
	if err != nil {
		return nil, fmt.Errorf("failed to open socket connection to deepgram: %w", err)
	}

	return conn, nil
}

// session accumulates the results of one listen connection
type session struct {
	options speechtotext.RecognitionOptions

	// mu guards accumulatedTranscript, it is read after a finalize timeout
	mu                    sync.Mutex
	accumulatedTranscript []string
	unendedSegment        bool
}

func newSession(options speechtotext.RecognitionOptions) *session {
	return &session{options: options}
}

func (s *session) transcript() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return strings.TrimSpace(strings.Join(s.accumulatedTranscript, " "))
}

func (s *session) appendFinal(transcript string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accumulatedTranscript = append(s.accumulatedTranscript, transcript)
	return strings.Join(s.accumulatedTranscript, " ")
}

// readMessages returns nil once Deepgram closes the connection normally
func (s *session) readMessages(conn *websocket.Conn) error {
	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			return fmt.Errorf("failed to read deepgram websocket message: %w", err)
		}
		if msgType == websocket.TextMessage {
			s.processMessage(msg)
		}
	}
}

func (s *session) processMessage(msg []byte) {
	var parsedMsg struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(msg, &parsedMsg); err != nil {
		logger.Warn("failed to unmarshal deepgram message", "error", err)
		return
	}

	switch api.TypeResponse(parsedMsg.Type) {
	case api.TypeMessageResponse:
		var msgResp api.MessageResponse
		if err := json.Unmarshal(msg, &msgResp); err != nil {
			logger.Warn("failed to unmarshal deepgram results", "error", err)
			return
		}

		transcript := ""
		if len(msgResp.Channel.Alternatives) > 0 {
			transcript = strings.TrimSpace(msgResp.Channel.Alternatives[0].Transcript)
		}

		if msgResp.IsFinal {
			if transcript != "" {
				s.options.InterimTranscriptionCallback(s.appendFinal(transcript))
			}
			if msgResp.SpeechFinal {
				s.onSpeechEnded()
			}
		} else if transcript != "" {
			s.options.InterimTranscriptionCallback(strings.TrimSpace(s.transcript() + " " + transcript))
		}

	case api.TypeUtteranceEndResponse:
		if s.unendedSegment {
			s.onSpeechEnded()
		}

	case api.TypeSpeechStartedResponse:
		s.unendedSegment = true
	}
}

func (s *session) onSpeechEnded() {
	s.unendedSegment = false
	s.options.SpeechEndedCallback()
}

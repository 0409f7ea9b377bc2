package google

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/koscakluka/ema-voicebot/core/audio"
	"github.com/koscakluka/ema-voicebot/core/speechtotext"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var _ speechtotext.Recognizer = (*Recognizer)(nil)

type openStreamFunc func(ctx context.Context) (speechpb.Speech_StreamingRecognizeClient, error)

// Recognizer uses Google Cloud Speech streaming recognition. Credentials come
// from Application Default Credentials.
type Recognizer struct {
	client     *speech.Client
	openStream openStreamFunc
}

func NewRecognizer(ctx context.Context) (*Recognizer, error) {
	client, err := speech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech client: %w", err)
	}

	return &Recognizer{
		client: client,
		openStream: func(ctx context.Context) (speechpb.Speech_StreamingRecognizeClient, error) {
			return client.StreamingRecognize(ctx)
		},
	}, nil
}

func (r *Recognizer) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

func (r *Recognizer) Recognize(ctx context.Context, chunks <-chan []byte, encoding audio.EncodingInfo, opts ...speechtotext.RecognitionOption) (string, error) {
	options := speechtotext.ApplyRecognitionOptions(opts...)

	ctx, span := tracer.Start(ctx, "recognize speech")
	defer span.End()

	fail := func(kind speechtotext.CaptureErrorKind, err error) (string, error) {
		captureErr := speechtotext.NewCaptureError(kind, err)
		span.RecordError(captureErr)
		span.SetStatus(codes.Error, captureErr.Error())
		return "", captureErr
	}

	recognitionEncoding, err := convertEncoding(encoding)
	if err != nil {
		return fail(speechtotext.CaptureErrorServiceUnavailable, err)
	}

	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	stream, err := r.openStream(streamCtx)
	if err != nil {
		return fail(speechtotext.CaptureErrorServiceUnavailable, fmt.Errorf("could not start streaming recognize: %w", err))
	}

	if err := stream.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_StreamingConfig{
			StreamingConfig: &speechpb.StreamingRecognitionConfig{
				Config: &speechpb.RecognitionConfig{
					Encoding:        recognitionEncoding,
					SampleRateHertz: int32(encoding.SampleRate),
					LanguageCode:    options.Language,
				},
				InterimResults: true,
			},
		},
	}); err != nil {
		return fail(speechtotext.CaptureErrorServiceUnavailable, fmt.Errorf("could not send streaming config: %w", err))
	}

	sendDone := make(chan error, 1)
	go func() {
		sendDone <- sendAudio(streamCtx, stream, chunks)
	}()

	var finals []string
	for {
		resp, err := stream.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return "", ctxErr
			}
			return fail(speechtotext.CaptureErrorServiceUnavailable, fmt.Errorf("cannot stream results: %w", err))
		}

		for _, result := range resp.GetResults() {
			alternatives := result.GetAlternatives()
			if len(alternatives) == 0 {
				continue
			}
			transcript := strings.TrimSpace(alternatives[0].GetTranscript())
			if transcript == "" {
				continue
			}

			if result.GetIsFinal() {
				finals = append(finals, transcript)
				options.InterimTranscriptionCallback(strings.Join(finals, " "))
			} else {
				options.InterimTranscriptionCallback(strings.TrimSpace(strings.Join(finals, " ") + " " + transcript))
			}
		}
	}

	if err := <-sendDone; err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return fail(speechtotext.CaptureErrorServiceUnavailable, err)
	}

	transcript := strings.TrimSpace(strings.Join(finals, " "))
	span.SetAttributes(attribute.Int("response.transcript_length", len(transcript)))
	if transcript == "" {
		return fail(speechtotext.CaptureErrorUnintelligible, errors.New("no recognition results"))
	}
	return transcript, nil
}

func sendAudio(ctx context.Context, stream speechpb.Speech_StreamingRecognizeClient, chunks <-chan []byte) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case chunk, ok := <-chunks:
			if !ok {
				if err := stream.CloseSend(); err != nil {
					return fmt.Errorf("failed to close send stream: %w", err)
				}
				return nil
			}
			if len(chunk) == 0 {
				continue
			}
			if err := stream.Send(&speechpb.StreamingRecognizeRequest{
				StreamingRequest: &speechpb.StreamingRecognizeRequest_AudioContent{
					AudioContent: chunk,
				},
			}); err != nil {
				return fmt.Errorf("could not send audio content: %w", err)
			}
		}
	}
}

func convertEncoding(encoding audio.EncodingInfo) (speechpb.RecognitionConfig_AudioEncoding, error) {
	switch encoding.Format {
	case audio.EncodingLinear16:
		return speechpb.RecognitionConfig_LINEAR16, nil
	case audio.EncodingMulaw:
		return speechpb.RecognitionConfig_MULAW, nil
	}
	return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED, fmt.Errorf("unsupported encoding %q", encoding.Format.Name())
}

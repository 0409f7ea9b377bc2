package google

import (
	"context"
	"errors"
	"io"
	"testing"

	"cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/koscakluka/ema-voicebot/core/audio"
	"github.com/koscakluka/ema-voicebot/core/speechtotext"
	"google.golang.org/grpc"
)

type streamStub struct {
	grpc.ClientStream

	sent      []*speechpb.StreamingRecognizeRequest
	closed    chan struct{}
	responses []*speechpb.StreamingRecognizeResponse
	recvErr   error
}

func newStreamStub(responses ...*speechpb.StreamingRecognizeResponse) *streamStub {
	return &streamStub{closed: make(chan struct{}), responses: responses}
}

func (s *streamStub) Send(req *speechpb.StreamingRecognizeRequest) error {
	s.sent = append(s.sent, req)
	return nil
}

func (s *streamStub) CloseSend() error {
	close(s.closed)
	return nil
}

// Recv hands out the queued responses once the client has finished sending
func (s *streamStub) Recv() (*speechpb.StreamingRecognizeResponse, error) {
	if s.recvErr != nil {
		return nil, s.recvErr
	}
	<-s.closed
	if len(s.responses) == 0 {
		return nil, io.EOF
	}
	resp := s.responses[0]
	s.responses = s.responses[1:]
	return resp, nil
}

func result(transcript string, final bool) *speechpb.StreamingRecognizeResponse {
	return &speechpb.StreamingRecognizeResponse{
		Results: []*speechpb.StreamingRecognitionResult{{
			IsFinal:      final,
			Alternatives: []*speechpb.SpeechRecognitionAlternative{{Transcript: transcript}},
		}},
	}
}

func recognizerWith(stream *streamStub) *Recognizer {
	return &Recognizer{openStream: func(context.Context) (speechpb.Speech_StreamingRecognizeClient, error) {
		return stream, nil
	}}
}

func chunks(data ...[]byte) <-chan []byte {
	ch := make(chan []byte, len(data))
	for _, chunk := range data {
		ch <- chunk
	}
	close(ch)
	return ch
}

func TestRecognizeJoinsFinalResults(t *testing.T) {
	stream := newStreamStub(result("what", false), result("what is", true), result("two plus two", true))

	var interim []string
	transcript, err := recognizerWith(stream).Recognize(context.Background(),
		chunks([]byte{1, 2}, []byte{3, 4}),
		audio.GetDefaultEncodingInfo(),
		speechtotext.WithInterimTranscriptionCallback(func(s string) { interim = append(interim, s) }))
	if err != nil {
		t.Fatalf("expected recognition to succeed, got %v", err)
	}
	if transcript != "what is two plus two" {
		t.Fatalf("unexpected transcript %q", transcript)
	}
	if len(interim) != 3 {
		t.Fatalf("expected 3 interim updates, got %v", interim)
	}

	if len(stream.sent) != 3 {
		t.Fatalf("expected config plus 2 audio requests, got %d", len(stream.sent))
	}
	config := stream.sent[0].GetStreamingConfig().GetConfig()
	if config.GetEncoding() != speechpb.RecognitionConfig_LINEAR16 || config.GetSampleRateHertz() != 16000 {
		t.Fatalf("unexpected recognition config %+v", config)
	}
}

func TestRecognizeWithoutResultsIsUnintelligible(t *testing.T) {
	_, err := recognizerWith(newStreamStub()).Recognize(context.Background(), chunks([]byte{0, 0}), audio.GetDefaultEncodingInfo())
	if !errors.Is(err, speechtotext.ErrUnintelligible) {
		t.Fatalf("expected unintelligible error, got %v", err)
	}
}

func TestRecognizeRPCFailureIsServiceUnavailable(t *testing.T) {
	stream := newStreamStub()
	stream.recvErr = errors.New("rpc error: code = Unavailable")

	_, err := recognizerWith(stream).Recognize(context.Background(), chunks(), audio.GetDefaultEncodingInfo())
	if !errors.Is(err, speechtotext.ErrServiceUnavailable) {
		t.Fatalf("expected service unavailable error, got %v", err)
	}
}

func TestRecognizeOpenFailureIsServiceUnavailable(t *testing.T) {
	recognizer := &Recognizer{openStream: func(context.Context) (speechpb.Speech_StreamingRecognizeClient, error) {
		return nil, errors.New("no credentials")
	}}

	_, err := recognizer.Recognize(context.Background(), chunks(), audio.GetDefaultEncodingInfo())
	if !errors.Is(err, speechtotext.ErrServiceUnavailable) {
		t.Fatalf("expected service unavailable error, got %v", err)
	}
}

package orchestration

import (
	"context"
	"encoding/binary"
	"sync"

	"github.com/koscakluka/ema-voicebot/core/audio"
	"github.com/koscakluka/ema-voicebot/core/llms"
	"github.com/koscakluka/ema-voicebot/core/speechtotext"
	"github.com/koscakluka/ema-voicebot/core/texttospeech"
)

type completionStub struct {
	mu       sync.Mutex
	reply    string
	err      error
	calls    int
	received [][]llms.Turn
}

func (c *completionStub) Complete(_ context.Context, history []llms.Turn, _ ...llms.CompletionOption) (*llms.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.calls++
	c.received = append(c.received, history)
	if c.err != nil {
		return nil, c.err
	}
	return &llms.Response{Content: c.reply}, nil
}

type recognizerStub struct {
	transcript string
	err        error
	// interim is reported through the interim callback with the first chunk
	interim []string

	mu     sync.Mutex
	chunks int
}

func (r *recognizerStub) Recognize(ctx context.Context, chunks <-chan []byte, _ audio.EncodingInfo, opts ...speechtotext.RecognitionOption) (string, error) {
	options := speechtotext.ApplyRecognitionOptions(opts...)
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case _, ok := <-chunks:
			if !ok {
				return r.transcript, r.err
			}
			r.mu.Lock()
			r.chunks++
			first := r.chunks == 1
			r.mu.Unlock()
			if first {
				for _, transcript := range r.interim {
					options.InterimTranscriptionCallback(transcript)
				}
			}
		}
	}
}

func (r *recognizerStub) receivedChunks() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.chunks
}

type synthesizerStub struct {
	err   error
	calls int
}

func (s *synthesizerStub) Synthesize(_ context.Context, text string, opts ...texttospeech.SynthesisOption) (audio.Clip, error) {
	s.calls++
	if s.err != nil {
		return audio.Clip{}, s.err
	}
	options := texttospeech.ApplySynthesisOptions(texttospeech.SynthesisOptions{}, opts...)
	return audio.NewClip(text, make([]byte, 3200), options.EncodingInfo), nil
}

// blockingSynthesizerStub holds every synthesis until release is closed
type blockingSynthesizerStub struct {
	started chan struct{}
	release chan struct{}
}

func newBlockingSynthesizerStub() *blockingSynthesizerStub {
	return &blockingSynthesizerStub{started: make(chan struct{}, 1), release: make(chan struct{})}
}

func (s *blockingSynthesizerStub) Synthesize(ctx context.Context, text string, opts ...texttospeech.SynthesisOption) (audio.Clip, error) {
	s.started <- struct{}{}
	select {
	case <-ctx.Done():
		return audio.Clip{}, ctx.Err()
	case <-s.release:
	}
	options := texttospeech.ApplySynthesisOptions(texttospeech.SynthesisOptions{}, opts...)
	return audio.NewClip(text, make([]byte, 3200), options.EncodingInfo), nil
}

// outputStub queues audio and only confirms marks when finish is called
type outputStub struct {
	mu      sync.Mutex
	sent    int
	marks   []func()
	clears  int
	sendErr error
}

func (o *outputStub) EncodingInfo() audio.EncodingInfo { return audio.GetDefaultEncodingInfo() }

func (o *outputStub) SendAudio(data []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.sendErr != nil {
		return o.sendErr
	}
	o.sent += len(data)
	return nil
}

func (o *outputStub) ClearBuffer() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.clears++
	o.marks = nil
}

func (o *outputStub) Mark(mark string, callback func(string)) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.marks = append(o.marks, func() { callback(mark) })
	return nil
}

func (o *outputStub) finish() {
	o.mu.Lock()
	marks := o.marks
	o.marks = nil
	o.mu.Unlock()

	for _, mark := range marks {
		mark()
	}
}

// inputStub delivers a scripted sequence of frames once capture starts
type inputStub struct {
	frames  [][]byte
	onStart func()

	mu       sync.Mutex
	starts   int
	stops    int
	stopping chan struct{}
}

func (i *inputStub) EncodingInfo() audio.EncodingInfo { return audio.GetDefaultEncodingInfo() }

func (i *inputStub) StartCapture(ctx context.Context, onAudio func([]byte)) error {
	if i.onStart != nil {
		i.onStart()
	}

	i.mu.Lock()
	i.starts++
	stopping := make(chan struct{})
	i.stopping = stopping
	i.mu.Unlock()

	go func() {
		for _, frame := range i.frames {
			select {
			case <-ctx.Done():
				return
			case <-stopping:
				return
			default:
				onAudio(frame)
			}
		}
	}()
	return nil
}

func (i *inputStub) StopCapture() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.stops++
	if i.stopping != nil {
		close(i.stopping)
		i.stopping = nil
	}
	return nil
}

// frame is 10ms of linear16 audio at a constant amplitude
func frame(amplitude int16) []byte {
	data := make([]byte, 320)
	for i := 0; i < len(data); i += 2 {
		binary.LittleEndian.PutUint16(data[i:], uint16(amplitude))
	}
	return data
}

func frames(count int, amplitude int16) [][]byte {
	result := make([][]byte, count)
	for i := range result {
		result[i] = frame(amplitude)
	}
	return result
}

func script(parts ...[][]byte) [][]byte {
	var result [][]byte
	for _, part := range parts {
		result = append(result, part...)
	}
	return result
}

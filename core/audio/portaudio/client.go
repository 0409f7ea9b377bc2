package portaudio

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"
	"github.com/koscakluka/ema-voicebot/core/audio"
)

var (
	_ audio.Input  = (*Client)(nil)
	_ audio.Output = (*Client)(nil)
)

const (
	DefaultBufferSize = 1024

	maxReadFailures = 10
	readRetryDelay  = 5 * time.Millisecond
)

// Client plays and captures mono linear16 audio on the default PortAudio
// devices. Playback runs on its own goroutine fed by SendAudio.
type Client struct {
	bufferSize int

	inStream  *portaudio.Stream
	outStream *portaudio.Stream
	in        []int16
	out       []int16

	mu            sync.Mutex
	leftoverAudio []byte
	marks         []playbackMark
	wake          chan struct{}
	done          chan struct{}
	playbackDone  chan struct{}

	captureMu     sync.Mutex
	captureCancel context.CancelFunc
	captureDone   chan struct{}

	closeOnce sync.Once
}

type playbackMark struct {
	name     string
	position int
	callback func(string)
}

func NewClient(bufferSize int) (*Client, error) {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}

	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
	}

	c := &Client{
		bufferSize:   bufferSize,
		in:           make([]int16, bufferSize),
		out:          make([]int16, bufferSize),
		wake:         make(chan struct{}, 1),
		done:         make(chan struct{}),
		playbackDone: make(chan struct{}),
	}

	var err error
	c.inStream, err = portaudio.OpenDefaultStream(1, 0, audio.DefaultSampleRate, bufferSize, c.in)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("failed to open PortAudio input stream: %w", err)
	}

	c.outStream, err = portaudio.OpenDefaultStream(0, 1, audio.DefaultSampleRate, bufferSize, c.out)
	if err != nil {
		c.inStream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("failed to open PortAudio output stream: %w", err)
	}

	if err := c.outStream.Start(); err != nil {
		c.inStream.Close()
		c.outStream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("failed to start PortAudio output stream: %w", err)
	}

	go c.playback()
	return c, nil
}

func (c *Client) EncodingInfo() audio.EncodingInfo {
	return audio.EncodingInfo{
		SampleRate: audio.DefaultSampleRate,
		Format:     audio.EncodingLinear16,
	}
}

func (c *Client) StartCapture(ctx context.Context, onAudio func(audio []byte)) error {
	c.captureMu.Lock()
	defer c.captureMu.Unlock()
	if c.captureCancel != nil {
		return fmt.Errorf("capture already running")
	}

	if err := c.inStream.Start(); err != nil {
		return fmt.Errorf("failed to start PortAudio input stream: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	c.captureCancel = cancel
	c.captureDone = make(chan struct{})

	go func(done chan struct{}) {
		defer close(done)
		captureLoop(ctx, c.inStream.Read, c.in, onAudio)
	}(c.captureDone)

	return nil
}

// captureLoop reads buffers until ctx is done and hands them to onAudio as
// linear16 chunks. Overflowed reads still carry audio. Other read failures are
// retried with a growing delay, after maxReadFailures in a row capture ends.
func captureLoop(ctx context.Context, read func() error, samples []int16, onAudio func([]byte)) {
	failures := 0
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := read(); err != nil && !errors.Is(err, portaudio.InputOverflowed) {
			failures++
			if failures >= maxReadFailures {
				logger.Error("stopped reading from PortAudio stream", "error", err, "failures", failures)
				return
			}
			logger.Warn("failed to read from PortAudio stream", "error", err, "failures", failures)

			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Duration(failures) * readRetryDelay):
			}
			continue
		}
		failures = 0

		chunk := make([]byte, len(samples)*2)
		for i, sample := range samples {
			binary.LittleEndian.PutUint16(chunk[i*2:], uint16(sample))
		}
		onAudio(chunk)
	}
}

func (c *Client) StopCapture() error {
	c.captureMu.Lock()
	defer c.captureMu.Unlock()
	if c.captureCancel == nil {
		return nil
	}

	c.captureCancel()
	<-c.captureDone
	c.captureCancel = nil
	c.captureDone = nil

	if err := c.inStream.Stop(); err != nil {
		return fmt.Errorf("failed to stop PortAudio input stream: %w", err)
	}
	return nil
}

func (c *Client) SendAudio(audio []byte) error {
	c.mu.Lock()
	c.leftoverAudio = append(c.leftoverAudio, audio...)
	c.mu.Unlock()

	c.notify()
	return nil
}

// ClearBuffer drops queued audio. Pending marks are dropped without being
// called.
func (c *Client) ClearBuffer() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.leftoverAudio = nil
	c.marks = nil
}

func (c *Client) Mark(mark string, callback func(string)) error {
	c.mu.Lock()
	c.marks = append(c.marks, playbackMark{
		name:     mark,
		position: len(c.leftoverAudio),
		callback: callback,
	})
	c.mu.Unlock()

	c.notify()
	return nil
}

func (c *Client) Close() {
	c.closeOnce.Do(func() {
		_ = c.StopCapture()

		close(c.done)
		<-c.playbackDone

		c.outStream.Stop()
		c.outStream.Close()
		c.inStream.Close()
		portaudio.Terminate()
	})
}

func (c *Client) notify() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *Client) playback() {
	defer close(c.playbackDone)

	bufferBytes := c.bufferSize * 2
	chunk := make([]byte, bufferBytes)
	for {
		c.mu.Lock()
		n := copy(chunk, c.leftoverAudio)
		c.leftoverAudio = c.leftoverAudio[n:]
		passed := c.advanceMarks(n)
		c.mu.Unlock()

		for _, mark := range passed {
			mark.callback(mark.name)
		}

		if n == 0 {
			select {
			case <-c.done:
				return
			case <-c.wake:
				continue
			}
		}

		for i := range c.out {
			if i*2+1 < n {
				c.out[i] = int16(binary.LittleEndian.Uint16(chunk[i*2:]))
			} else {
				c.out[i] = 0
			}
		}
		if err := c.outStream.Write(); err != nil {
			logger.Warn("failed to write to PortAudio stream", "error", err)
		}

		select {
		case <-c.done:
			return
		default:
		}
	}
}

// advanceMarks moves marks forward by the number of bytes about to be played
// and returns the ones that are reached. Caller must hold mu.
func (c *Client) advanceMarks(played int) []playbackMark {
	passedMarks := 0
	for i, mark := range c.marks {
		if mark.position > played {
			c.marks[i].position -= played
		} else {
			passedMarks++
		}
	}
	if passedMarks == 0 {
		return nil
	}

	passed := c.marks[:passedMarks]
	c.marks = c.marks[passedMarks:]
	return passed
}

package miniaudio

import (
	"context"
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"
	"github.com/koscakluka/ema-voicebot/core/audio"
)

var (
	_ audio.Input  = (*Client)(nil)
	_ audio.Output = (*Client)(nil)
)

type Client struct {
	// audioContext is only saved to be able to uninitialize it, it is an
	// ownership thing
	audioContext *malgo.AllocatedContext
	encodingInfo audio.EncodingInfo
	closeOnce    sync.Once
	playbackClient
	captureClient
}

func NewClient() (*Client, error) {
	audioCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {})
	if err != nil {
		return nil, fmt.Errorf("malgo InitContext failed: %w", err)
	}

	client := Client{
		audioContext: audioCtx,
		encodingInfo: audio.GetDefaultEncodingInfo(),
	}

	if err := client.playbackClient.Init(audioCtx, client.encodingInfo); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to initialize playback client: %w", err)
	}

	if err := client.playbackClient.Start(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to start playback device: %w", err)
	}

	if err := client.captureClient.Init(audioCtx, client.encodingInfo); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to initialize capture client: %w", err)
	}

	return &client, nil
}

func (c *Client) StartCapture(_ context.Context, onAudio func(audio []byte)) error {
	return c.captureClient.Start(onAudio)
}

func (c *Client) StopCapture() error {
	return c.captureClient.Stop()
}

// Close releases both devices and the audio context. Repeated calls are
// ignored, the same client is usually both input and output.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		_ = c.captureClient.Uninit()
		_ = c.playbackClient.Uninit()
		_ = c.audioContext.Uninit()
		c.audioContext.Free()
	})
}

func (c *Client) SendAudio(audio []byte) error {
	return c.playbackClient.SendAudio(audio)
}

func (c *Client) ClearBuffer() {
	c.playbackClient.ClearBuffer()
}

func (c *Client) Mark(mark string, callback func(string)) error {
	return c.playbackClient.Mark(mark, callback)
}

func (c *Client) EncodingInfo() audio.EncodingInfo {
	return c.encodingInfo
}

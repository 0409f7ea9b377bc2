package orchestration

import (
	"github.com/koscakluka/ema-voicebot/core/audio"
)

// audioOutput wraps the optional playback device used by the speech player.
//
// Without a device configured, audio is dropped and marks are confirmed
// immediately so playback state still progresses.
type audioOutput struct {
	// base stores the configured output client, nil when unconfigured.
	base audio.Output
}

// Set replaces the configured output client. Nil and typed-nil clients are
// treated as unconfigured.
func (a *audioOutput) Set(client audio.Output) {
	if a == nil {
		return
	}

	a.base = nil
	if isNilClient(client) {
		return
	}
	a.base = client
}

func (a *audioOutput) isConfigured() bool { return a != nil && a.base != nil }

// SendAudio forwards a chunk to the configured output client, if there is no
// client the chunk is dropped.
func (a *audioOutput) SendAudio(audio []byte) error {
	if !a.isConfigured() {
		return nil
	}
	return a.base.SendAudio(audio)
}

// Mark calls callback once all audio sent so far has been played.
//
// Without output configured, the callback is invoked immediately.
func (a *audioOutput) Mark(mark string, callback func(string)) error {
	if !a.isConfigured() {
		callback(mark)
		return nil
	}
	return a.base.Mark(mark, callback)
}

// Clear flushes buffered output and drops pending marks on the configured
// client.
func (a *audioOutput) Clear() {
	if a.isConfigured() {
		a.base.ClearBuffer()
	}
}

// EncodingInfo returns the active output encoding metadata.
//
// If no client is configured, the project default encoding is used.
func (a *audioOutput) EncodingInfo() audio.EncodingInfo {
	if a.isConfigured() {
		return a.base.EncodingInfo()
	}

	return audio.GetDefaultEncodingInfo()
}

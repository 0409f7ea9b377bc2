package audio

import "context"

// Input is a capture device delivering raw chunks in its EncodingInfo
type Input interface {
	EncodingInfo() EncodingInfo
	StartCapture(ctx context.Context, onAudio func(audio []byte)) error
	StopCapture() error
}

// Output is a playback device. Mark invokes the callback once every chunk sent
// before it has been played; ClearBuffer drops queued audio and pending marks.
type Output interface {
	EncodingInfo() EncodingInfo
	SendAudio(audio []byte) error
	ClearBuffer()
	Mark(mark string, callback func(string)) error
}

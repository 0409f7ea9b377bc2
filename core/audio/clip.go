package audio

import (
	"time"

	"github.com/google/uuid"
)

// Clip is a transient buffer of synthesized speech. It is owned by the turn
// that produced it and is never persisted.
type Clip struct {
	ID           string
	Text         string
	Data         []byte
	EncodingInfo EncodingInfo
}

func NewClip(text string, data []byte, encodingInfo EncodingInfo) Clip {
	return Clip{
		ID:           uuid.NewString(),
		Text:         text,
		Data:         data,
		EncodingInfo: encodingInfo,
	}
}

func (c Clip) IsEmpty() bool { return len(c.Data) == 0 }

func (c Clip) Duration() time.Duration { return c.EncodingInfo.Duration(len(c.Data)) }

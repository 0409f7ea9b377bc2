// Package deepgramaudio holds the audio encoding rules shared by the Deepgram
// listen and speak sockets.
package deepgramaudio

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/koscakluka/ema-voicebot/core/audio"
)

// Validate reports whether Deepgram streams raw audio in encoding. Linear16
// is accepted at the common rates, the companded formats only at telephony
// rates.
func Validate(encoding audio.EncodingInfo) error {
	switch encoding.Format {
	case audio.EncodingLinear16:
		switch encoding.SampleRate {
		case 8000, 16000, 24000, 32000, 48000:
			return nil
		}
	case audio.EncodingMulaw, audio.EncodingALaw:
		switch encoding.SampleRate {
		case 8000, 16000:
			return nil
		}
	default:
		return fmt.Errorf("unsupported encoding %q", encoding.Format.Name())
	}
	return fmt.Errorf("unsupported sample rate %d for %s", encoding.SampleRate, encoding.Format.Name())
}

// SetQuery validates encoding and sets the encoding and sample_rate socket
// parameters
func SetQuery(query url.Values, encoding audio.EncodingInfo) error {
	if err := Validate(encoding); err != nil {
		return err
	}
	query.Set("encoding", encoding.Format.Name())
	query.Set("sample_rate", strconv.Itoa(encoding.SampleRate))
	return nil
}

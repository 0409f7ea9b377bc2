package deepgramaudio

import (
	"net/url"
	"testing"

	"github.com/koscakluka/ema-voicebot/core/audio"
)

func TestValidate(t *testing.T) {
	valid := []audio.EncodingInfo{
		audio.GetDefaultEncodingInfo(),
		{SampleRate: 48000, Format: audio.EncodingLinear16},
		{SampleRate: 8000, Format: audio.EncodingMulaw},
		{SampleRate: 16000, Format: audio.EncodingALaw},
	}
	for _, encoding := range valid {
		if err := Validate(encoding); err != nil {
			t.Fatalf("expected %+v to be accepted, got %v", encoding, err)
		}
	}

	invalid := []audio.EncodingInfo{
		{SampleRate: 44100, Format: audio.EncodingLinear16},
		{SampleRate: 24000, Format: audio.EncodingMulaw},
		{SampleRate: 16000},
	}
	for _, encoding := range invalid {
		if err := Validate(encoding); err == nil {
			t.Fatalf("expected %+v to be rejected", encoding)
		}
	}
}

func TestSetQuery(t *testing.T) {
	query := url.Values{}
	if err := SetQuery(query, audio.EncodingInfo{SampleRate: 8000, Format: audio.EncodingMulaw}); err != nil {
		t.Fatalf("expected encoding to be accepted, got %v", err)
	}
	if query.Get("encoding") != "mulaw" || query.Get("sample_rate") != "8000" {
		t.Fatalf("unexpected query %v", query)
	}

	query = url.Values{}
	if err := SetQuery(query, audio.EncodingInfo{SampleRate: 44100, Format: audio.EncodingLinear16}); err == nil || len(query) != 0 {
		t.Fatalf("expected rejected encoding to leave the query untouched")
	}
}

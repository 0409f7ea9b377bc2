package commands

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	orchestration "github.com/koscakluka/ema-voicebot/core"
	"github.com/koscakluka/ema-voicebot/core/audio"
	"github.com/koscakluka/ema-voicebot/core/conversations"
	"github.com/koscakluka/ema-voicebot/core/llms"
	"github.com/koscakluka/ema-voicebot/core/speechtotext"
	"github.com/koscakluka/ema-voicebot/internal/config"
)

type deviceStub struct {
	closed int
}

func (d *deviceStub) EncodingInfo() audio.EncodingInfo { return audio.GetDefaultEncodingInfo() }
func (d *deviceStub) StartCapture(context.Context, func([]byte)) error {
	return nil
}
func (d *deviceStub) StopCapture() error { return nil }
func (d *deviceStub) SendAudio([]byte) error { return nil }
func (d *deviceStub) ClearBuffer() {}
func (d *deviceStub) Close() { d.closed++ }
func (d *deviceStub) Mark(mark string, callback func(string)) error {
	callback(mark)
	return nil
}

func stubAudioDevice(t *testing.T) *deviceStub {
	t.Helper()

	device := &deviceStub{}
	original := openAudioDevice
	openAudioDevice = func(string) (audioDevice, error) { return device, nil }
	t.Cleanup(func() { openAudioDevice = original })
	return device
}

type completionStub struct {
	reply string
	err   error
}

func (c *completionStub) Complete(context.Context, []llms.Turn, ...llms.CompletionOption) (*llms.Response, error) {
	if c.err != nil {
		return nil, c.err
	}
	return &llms.Response{Content: c.reply}, nil
}

func textConfig() *config.Config {
	cfg := config.Default()
	cfg.LLM.GroqAPIKey = "gsk"
	cfg.LLM.Model = config.DefaultModel
	return cfg
}

func TestNewOrchestratorTextOnly(t *testing.T) {
	cfg := textConfig()
	cfg.LLM.Greeting = "Hi!"

	session, err := newOrchestrator(context.Background(), cfg)
	if err != nil {
		t.Fatalf("expected session to be created, got %v", err)
	}
	defer session.Close()

	if session.CanListen() || session.CanSpeak() {
		t.Fatalf("expected a text-only session")
	}
	history := session.History()
	if len(history) != 1 || history[0].Text != "Hi!" {
		t.Fatalf("expected configured greeting, got %+v", history)
	}
}

func TestNewOrchestratorWiresVoice(t *testing.T) {
	device := stubAudioDevice(t)

	cfg := textConfig()
	cfg.Audio.Backend = config.BackendMiniaudio
	cfg.Speech.STTProvider = config.ProviderDeepgram
	cfg.Speech.TTSProvider = config.ProviderDeepgram
	cfg.Speech.DeepgramAPIKey = "dg"

	session, err := newOrchestrator(context.Background(), cfg)
	if err != nil {
		t.Fatalf("expected session to be created, got %v", err)
	}
	if !session.CanListen() || !session.CanSpeak() {
		t.Fatalf("expected voice input and output to be wired")
	}

	if err := session.Close(); err != nil {
		t.Fatalf("expected close to succeed, got %v", err)
	}
	if device.closed == 0 {
		t.Fatalf("expected audio device to be closed with the session")
	}
}

func TestNewOrchestratorClosesDeviceOnFailure(t *testing.T) {
	device := stubAudioDevice(t)
	original := newGoogleRecognizer
	newGoogleRecognizer = func(context.Context) (speechtotext.Recognizer, error) {
		return nil, errors.New("no credentials")
	}
	t.Cleanup(func() { newGoogleRecognizer = original })

	cfg := textConfig()
	cfg.Audio.Backend = config.BackendPortaudio
	cfg.Speech.STTProvider = config.ProviderGoogle

	if _, err := newOrchestrator(context.Background(), cfg); err == nil {
		t.Fatalf("expected recognizer failure to be reported")
	}
	if device.closed != 1 {
		t.Fatalf("expected audio device to be closed once, got %d", device.closed)
	}
}

func TestNewOrchestratorRejectsBadVoice(t *testing.T) {
	device := stubAudioDevice(t)

	cfg := textConfig()
	cfg.Audio.Backend = config.BackendMiniaudio
	cfg.Speech.TTSProvider = config.ProviderDeepgram
	cfg.Speech.DeepgramAPIKey = "dg"
	cfg.Speech.Voice = "not-a-voice"

	if _, err := newOrchestrator(context.Background(), cfg); err == nil {
		t.Fatalf("expected unknown voice to be rejected")
	}
	if device.closed != 1 {
		t.Fatalf("expected audio device to be closed, got %d", device.closed)
	}
}

func TestAnswerPrintsReply(t *testing.T) {
	session := orchestration.NewOrchestrator(orchestration.WithCompletionClient(&completionStub{reply: "Paris"}))

	var out bytes.Buffer
	if err := answer(context.Background(), &out, session, "What is the capital of France?", false); err != nil {
		t.Fatalf("expected answer to succeed, got %v", err)
	}
	if out.String() != "Bot: Paris\n" {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestAnswerRejectsEmptyQuestion(t *testing.T) {
	completion := &completionStub{reply: "unused"}
	session := orchestration.NewOrchestrator(orchestration.WithCompletionClient(completion))

	var out bytes.Buffer
	if err := answer(context.Background(), &out, session, "   ", false); err == nil {
		t.Fatalf("expected empty question to be rejected")
	}
	if out.Len() != 0 || len(session.History()) != 1 {
		t.Fatalf("expected nothing to happen for an empty question")
	}
}

func TestAnswerReportsCompletionFailure(t *testing.T) {
	completion := &completionStub{err: llms.NewCompletionError(llms.CompletionErrorAuth, 401, nil)}
	session := orchestration.NewOrchestrator(orchestration.WithCompletionClient(completion))

	var out bytes.Buffer
	err := answer(context.Background(), &out, session, "hi", false)
	if !errors.Is(err, llms.ErrAuth) {
		t.Fatalf("expected auth error, got %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("expected no reply to be printed, got %q", out.String())
	}
}

func TestAnswerSpeakNeedsSynthesizer(t *testing.T) {
	session := orchestration.NewOrchestrator(orchestration.WithCompletionClient(&completionStub{reply: "Paris"}))

	var out bytes.Buffer
	if err := answer(context.Background(), &out, session, "hi", true); err == nil {
		t.Fatalf("expected missing synthesizer to be reported")
	}
}

func TestResumedSessionContinuesTranscript(t *testing.T) {
	saved := []llms.Turn{
		llms.NewAssistantTurn("Hello! Ask me anything."),
		llms.NewUserTurn("What is the capital of France?"),
		llms.NewAssistantTurn("Paris"),
	}
	data, err := conversations.Export(saved)
	if err != nil {
		t.Fatalf("expected export to succeed, got %v", err)
	}
	path := filepath.Join(t.TempDir(), "transcript.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to write transcript: %v", err)
	}

	history, err := loadTranscript(path)
	if err != nil {
		t.Fatalf("expected transcript to load, got %v", err)
	}
	cfg := textConfig()
	cfg.LLM.Greeting = "Hi!"
	session, err := newOrchestrator(context.Background(), cfg, orchestration.WithHistory(history))
	if err != nil {
		t.Fatalf("expected session to be created, got %v", err)
	}
	defer session.Close()

	got := session.History()
	if len(got) != 3 || got[1].Text != "What is the capital of France?" || got[2].Text != "Paris" {
		t.Fatalf("expected the saved turns to be restored, got %+v", got)
	}
	if reset := session.ResetHistory(); len(reset) != 1 || reset[0].Text != "Hi!" {
		t.Fatalf("expected reset to go back to the configured greeting, got %+v", reset)
	}
}

func TestLoadTranscriptRejectsBadFiles(t *testing.T) {
	if _, err := loadTranscript(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatalf("expected a missing transcript to be reported")
	}

	path := filepath.Join(t.TempDir(), "broken.json")
	os.WriteFile(path, []byte(`{"turns":[{"speaker":"narrator","text":"hi"}]}`), 0o644)
	if _, err := loadTranscript(path); err == nil {
		t.Fatalf("expected an unknown speaker to be rejected")
	}
}

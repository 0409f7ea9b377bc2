// Package config loads the voicebot's startup configuration from an optional
// YAML file and environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	ProviderGroq   = "groq"
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"

	ProviderDeepgram = "deepgram"
	ProviderGoogle   = "google"
	ProviderNone     = "none"

	BackendMiniaudio = "miniaudio"
	BackendPortaudio = "portaudio"

	DefaultModel    = "llama3-70b-8192"
	DefaultGreeting = "Hello! Ask me anything."
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	LLM    LLMConfig    `yaml:"llm"`
	Speech SpeechConfig `yaml:"speech"`
	Audio  AudioConfig  `yaml:"audio"`
}

type LLMConfig struct {
	Provider     string `yaml:"provider"`
	Model        string `yaml:"model,omitempty"`
	SystemPrompt string `yaml:"system_prompt,omitempty"`
	Greeting     string `yaml:"greeting,omitempty"`

	GroqAPIKey   string `yaml:"groq_api_key,omitempty"`
	OpenAIAPIKey string `yaml:"openai_api_key,omitempty"`
	GeminiAPIKey string `yaml:"gemini_api_key,omitempty"`
}

type SpeechConfig struct {
	STTProvider    string `yaml:"stt_provider"`
	TTSProvider    string `yaml:"tts_provider"`
	Voice          string `yaml:"voice,omitempty"`
	Language       string `yaml:"language,omitempty"`
	DeepgramAPIKey string `yaml:"deepgram_api_key,omitempty"`
}

type AudioConfig struct {
	Backend string `yaml:"backend"`
}

// Default returns a text-only configuration talking to Groq
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider: ProviderGroq,
			Greeting: DefaultGreeting,
		},
		Speech: SpeechConfig{
			STTProvider: ProviderNone,
			TTSProvider: ProviderNone,
		},
		Audio: AudioConfig{Backend: ProviderNone},
	}
}

// Load reads path (when not empty), applies environment overrides and
// validates the result.
func Load(path string) (*Config, error) {
	return load(path, os.LookupEnv)
}

func load(path string, lookupEnv func(string) (string, bool)) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnv(lookupEnv)
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookupEnv func(string) (string, bool)) {
	overrides := map[string]*string{
		"EMA_LLM_PROVIDER":  &c.LLM.Provider,
		"GROQ_API_KEY":      &c.LLM.GroqAPIKey,
		"OPENAI_API_KEY":    &c.LLM.OpenAIAPIKey,
		"GEMINI_API_KEY":    &c.LLM.GeminiAPIKey,
		"EMA_MODEL":         &c.LLM.Model,
		"EMA_SYSTEM_PROMPT": &c.LLM.SystemPrompt,
		"EMA_GREETING":      &c.LLM.Greeting,
		"EMA_STT_PROVIDER":  &c.Speech.STTProvider,
		"EMA_TTS_PROVIDER":  &c.Speech.TTSProvider,
		"EMA_TTS_VOICE":     &c.Speech.Voice,
		"EMA_LANGUAGE":      &c.Speech.Language,
		"DEEPGRAM_API_KEY":  &c.Speech.DeepgramAPIKey,
		"EMA_AUDIO_BACKEND": &c.Audio.Backend,
	}
	for name, field := range overrides {
		if value, ok := lookupEnv(name); ok && strings.TrimSpace(value) != "" {
			*field = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalize() {
	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	c.Speech.STTProvider = strings.ToLower(strings.TrimSpace(c.Speech.STTProvider))
	c.Speech.TTSProvider = strings.ToLower(strings.TrimSpace(c.Speech.TTSProvider))
	c.Audio.Backend = strings.ToLower(strings.TrimSpace(c.Audio.Backend))

	if c.LLM.Provider == "" {
		c.LLM.Provider = ProviderGroq
	}
	// other providers fall back to their client's default model
	if c.LLM.Provider == ProviderGroq && strings.TrimSpace(c.LLM.Model) == "" {
		c.LLM.Model = DefaultModel
	}
	if c.Speech.STTProvider == "" {
		c.Speech.STTProvider = ProviderNone
	}
	if c.Speech.TTSProvider == "" {
		c.Speech.TTSProvider = ProviderNone
	}
	if c.Audio.Backend == "" {
		c.Audio.Backend = ProviderNone
	}
	if strings.TrimSpace(c.LLM.Greeting) == "" {
		c.LLM.Greeting = DefaultGreeting
	}
}

// Validate reports missing credentials for the selected providers
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case ProviderGroq, ProviderOpenAI, ProviderGemini:
	default:
		return fmt.Errorf("%w: unknown llm provider %q", ErrInvalidConfig, c.LLM.Provider)
	}
	if c.CompletionAPIKey() == "" {
		return fmt.Errorf("%w: %s api key is required", ErrInvalidConfig, c.LLM.Provider)
	}

	switch c.Speech.STTProvider {
	case ProviderDeepgram, ProviderGoogle, ProviderNone:
	default:
		return fmt.Errorf("%w: unknown stt provider %q", ErrInvalidConfig, c.Speech.STTProvider)
	}

	switch c.Speech.TTSProvider {
	case ProviderDeepgram, ProviderNone:
	default:
		return fmt.Errorf("%w: unknown tts provider %q", ErrInvalidConfig, c.Speech.TTSProvider)
	}

	switch c.Audio.Backend {
	case BackendMiniaudio, BackendPortaudio, ProviderNone:
	default:
		return fmt.Errorf("%w: unknown audio backend %q", ErrInvalidConfig, c.Audio.Backend)
	}

	usesDeepgram := c.Speech.STTProvider == ProviderDeepgram || c.Speech.TTSProvider == ProviderDeepgram
	if usesDeepgram && c.Speech.DeepgramAPIKey == "" {
		return fmt.Errorf("%w: deepgram api key is required", ErrInvalidConfig)
	}

	return nil
}

// CompletionAPIKey returns the key of the selected completion provider
func (c *Config) CompletionAPIKey() string {
	switch c.LLM.Provider {
	case ProviderGroq:
		return c.LLM.GroqAPIKey
	case ProviderOpenAI:
		return c.LLM.OpenAIAPIKey
	case ProviderGemini:
		return c.LLM.GeminiAPIKey
	default:
		return ""
	}
}

func (c *Config) VoiceEnabled() bool {
	return c.Audio.Backend != ProviderNone &&
		(c.Speech.STTProvider != ProviderNone || c.Speech.TTSProvider != ProviderNone)
}

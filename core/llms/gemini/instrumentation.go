package gemini

import "go.opentelemetry.io/otel"

const scopeName = "github.com/koscakluka/ema-voicebot/core/llms/gemini"

var tracer = otel.Tracer(scopeName)

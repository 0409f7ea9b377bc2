package google

import "go.opentelemetry.io/otel"

const scopeName = "github.com/koscakluka/ema-voicebot/core/speechtotext/google"

var tracer = otel.Tracer(scopeName)

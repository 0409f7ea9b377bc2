package conversations

import "github.com/koscakluka/ema-voicebot/core/llms"

// ActiveContext exposes a read-only view of a live session to presentation
// code.
type ActiveContext interface {
	// Past turns only. Ordering: oldest -> newest.
	History() []llms.Turn

	// AllocatedClips is the number of synthesized clips still held for
	// playback.
	AllocatedClips() int
}

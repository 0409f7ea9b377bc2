package deepgram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/koscakluka/ema-voicebot/core/audio"
	"github.com/koscakluka/ema-voicebot/core/internal/deepgramaudio"
)

type speakRequest struct {
	ws *websocket.Conn
	mu sync.Mutex

	closed bool
}

func (c *TextToSpeechClient) newSpeakRequest(ctx context.Context, voice Voice, encodingInfo audio.EncodingInfo) (*speakRequest, error) {
	speakURL, err := url.Parse(c.speakURL)
	if err != nil {
		return nil, fmt.Errorf("invalid speak url: %w", err)
	}

	urlValues := speakURL.Query()
	if err := deepgramaudio.SetQuery(urlValues, encodingInfo); err != nil {
		return nil, fmt.Errorf("invalid encoding: %w", err)
	}
	urlValues.Set("model", string(voice))
	urlValues.Set("container", "none")
	speakURL.RawQuery = urlValues.Encode()

	conn, _, err := c.dialer.DialContext(ctx, speakURL.String(),
		http.Header{"Authorization": {"token " + c.apiKey}})
	if err != nil {
		return nil, fmt.Errorf("failed to open socket connection to deepgram: %w", err)
	}

	return &speakRequest{ws: conn}, nil
}

// speak sends the text in segments Deepgram accepts, followed by one flush,
// and collects audio until the flush is confirmed
func (r *speakRequest) speak(ctx context.Context, text string) ([]byte, error) {
	for _, segment := range splitText(text, maxSpeakTextLength) {
		if err := r.sendWebsocketMessage(sendTextMsg(segment)); err != nil {
			return nil, fmt.Errorf("failed to send text: %w", err)
		}
	}
	if err := r.sendWebsocketMessage(flushMsg); err != nil {
		return nil, fmt.Errorf("failed to flush text: %w", err)
	}

	stop := context.AfterFunc(ctx, func() { _ = r.ws.Close() })
	defer stop()

	var data []byte
	for {
		msgType, msg, err := r.ws.ReadMessage()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("websocket read error: %w", err)
		}

		switch msgType {
		case websocket.BinaryMessage:
			data = append(data, msg...)
		case websocket.TextMessage:
			var parsedMsg struct {
				Type        string `json:"type"`
				Description string `json:"description"`
			}
			if err := json.Unmarshal(msg, &parsedMsg); err != nil {
				logger.WarnContext(ctx, "failed to unmarshal deepgram message", "error", err)
				continue
			}

			switch parsedMsg.Type {
			case "Flushed":
				return data, nil
			case "Warning":
				logger.WarnContext(ctx, "deepgram warning", "description", parsedMsg.Description)
			case "Error":
				return nil, fmt.Errorf("deepgram error: %s", parsedMsg.Description)
			}
		}
	}
}

func (r *speakRequest) close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.mu.Unlock()

	err := r.sendWebsocketMessage(closeMsg)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	if closeErr := r.ws.Close(); closeErr != nil && err != nil {
		return fmt.Errorf("failed to close websocket: %w", errors.Join(err, closeErr))
	}
	return nil
}

type websocketMessage struct {
	Type string `json:"type"`
}

type speakMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

var (
	sendTextMsg = func(text string) speakMessage { return speakMessage{Type: "Speak", Text: text} }
	flushMsg    = websocketMessage{Type: "Flush"}
	closeMsg    = websocketMessage{Type: "Close"}
)

func (r *speakRequest) sendWebsocketMessage(msg any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || r.ws == nil {
		return fmt.Errorf("websocket connection closed")
	}

	if err := r.ws.WriteJSON(msg); err != nil {
		return fmt.Errorf("failed to write to websocket: %w", err)
	}
	return nil
}

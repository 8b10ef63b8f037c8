package realtime

import (
	"encoding/json"

	"github.com/anonto42/socialpulse/backend/internal/models"
)

// Frame types exchanged over the push channel
const (
	FrameJoin         = "join"
	FramePing         = "ping"
	FrameNotification = "notification"
	FrameJoined       = "joined"
	FramePong         = "pong"
	FrameError        = "error"
)

// Frame is one JSON text message on the socket.
// UserID is only set by clients on join; Data only by the server.
type Frame struct {
	Type   string          `json:"type"`
	UserID uint            `json:"user_id,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
}

type JoinedData struct {
	UserID uint `json:"user_id"`
}

type ErrorData struct {
	Message string `json:"message"`
}

// EncodeNotification builds the push frame for a notification
func EncodeNotification(view models.NotificationView) ([]byte, error) {
	return encodeFrame(FrameNotification, view)
}

func encodeFrame(frameType string, data any) ([]byte, error) {
	frame := Frame{Type: frameType}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		frame.Data = raw
	}
	return json.Marshal(frame)
}

// mustEncode is for frames built from fixed types that cannot fail to marshal
func mustEncode(frameType string, data any) []byte {
	b, err := encodeFrame(frameType, data)
	if err != nil {
		panic(err)
	}
	return b
}

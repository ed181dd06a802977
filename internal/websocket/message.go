package websocket

import (
	"encoding/json"

	"github.com/isdelr/realtimemaps-be/internal/models"
)

// Message defines the structure for websocket notifications.
type Message struct {
	Action  string      `json:"action"`
	Payload interface{} `json:"payload"`
}

// NewReportCreatedMessage announces a freshly stored route report.
func NewReportCreatedMessage(report models.RouteReport) []byte {
	b, _ := json.Marshal(Message{Action: "report.created", Payload: report})
	return b
}

// EchoMessage is the reply to a text frame from a client.
func EchoMessage(text []byte) []byte {
	return append([]byte("Echo: "), text...)
}

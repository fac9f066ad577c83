package model

// WebSocket message types
const (
	WSMessageTypeProgress = "progress"
	WSMessageTypeComplete = "complete"
	WSMessageTypeError    = "error"
	WSMessageTypePing     = "ping"
	WSMessageTypePong     = "pong"
)

// WSMessage is the base WebSocket message envelope.
type WSMessage struct {
	Type string `json:"type"`
}

// WSProgressMessage carries a live progress snapshot to job subscribers.
type WSProgressMessage struct {
	Type     string   `json:"type"`
	JobID    string   `json:"jobId"`
	State    Phase    `json:"state"`
	Progress Progress `json:"progress"`
}

// WSCompleteMessage announces a finished artifact to job subscribers.
type WSCompleteMessage struct {
	Type     string `json:"type"`
	JobID    string `json:"jobId"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	Format   string `json:"format"`
}

// WSErrorMessage announces a failed job to subscribers.
type WSErrorMessage struct {
	Type    string `json:"type"`
	JobID   string `json:"jobId"`
	Message string `json:"message"`
}

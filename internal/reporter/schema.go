package reporter

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionCheat Action = "cheat"
	ActionPing  Action = "ping"
)

// Request is the client→server frame for the proctor stream. Payload is the
// JSON-encoded ProctorEvent, passed as a string.
type Request struct {
	Action  Action `json:"action"`
	Payload string `json:"payload,omitempty"`
}

// ProctorEvent records one proctoring observation on the candidate device.
type ProctorEvent struct {
	Type      string `json:"type"`
	Channel   string `json:"channel,omitempty"`
	Detail    string `json:"detail,omitempty"`
	Count     int    `json:"count,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

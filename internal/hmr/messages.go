package hmr

// Message types sent to connected clients.
const (
	MessageConnected  = "connected"
	MessageUpdate     = "update"
	MessageFullReload = "full-reload"
	MessagePrune      = "prune"
)

// Update is one boundary update record inside an update message.
type Update struct {
	// Type is the boundary module's kind plus an "-update" suffix
	// (e.g., "js-update", "css-update").
	Type string `json:"type"`

	// Timestamp is the shared HMR timestamp for the batch.
	Timestamp int64 `json:"timestamp"`

	// Path is the boundary module's URL.
	Path string `json:"path"`

	// AcceptedPath is the URL of the dependency edge through which the
	// update was absorbed. Equals Path for self-accepting modules.
	AcceptedPath string `json:"acceptedPath"`
}

// Message is the JSON payload delivered over the HMR websocket.
type Message struct {
	Type string `json:"type"`

	// Path is set on full-reload messages triggered by a specific page.
	Path string `json:"path,omitempty"`

	// Updates is set on update messages.
	Updates []Update `json:"updates,omitempty"`

	// Paths is set on prune messages.
	Paths []string `json:"paths,omitempty"`
}

// Transport delivers messages to every connected client.
type Transport interface {
	Send(msg Message)
}

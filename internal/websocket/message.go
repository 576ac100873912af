package websocket

import "encoding/json"

// Message types sent to browsers.
const (
	TypeEvent   = "event"
	TypeHTML    = "html"
	TypeCommand = "command"
)

// Message is the envelope of everything pushed over the socket.
type Message struct {
	Type    string      `json:"type"`
	Target  string      `json:"target,omitempty"`
	Payload interface{} `json:"payload"`
}

// MarshalJSON encodes []byte payloads as strings; json.RawMessage payloads stay raw JSON.
func (m Message) MarshalJSON() ([]byte, error) {
	type Alias Message
	msg := struct {
		*Alias
		Payload interface{} `json:"payload"`
	}{
		Alias: (*Alias)(&m),
	}

	if b, ok := m.Payload.([]byte); ok {
		msg.Payload = string(b)
	} else {
		msg.Payload = m.Payload
	}

	return json.Marshal(msg)
}

// NewEventMessage wraps a bus event; topic becomes the target.
func NewEventMessage(topic string, payload json.RawMessage) *Message {
	return &Message{Type: TypeEvent, Target: topic, Payload: payload}
}

// NewHTMLMessage wraps an HTML fragment for the element with id target.
func NewHTMLMessage(html string, target string) *Message {
	return &Message{Type: TypeHTML, Target: target, Payload: html}
}

// Command asks the browser to do something.
type Command struct {
	Name    string      `json:"name"`
	Payload interface{} `json:"payload,omitempty"`
}

// NewCommand creates a command message.
func NewCommand(name string, payload ...interface{}) *Message {
	var p interface{}
	if len(payload) > 0 {
		p = payload[0]
	}
	return &Message{Type: TypeCommand, Payload: Command{Name: name, Payload: p}}
}

// Command names understood by the browser script.
const (
	CmdReload           = "reload"
	CmdShowNotification = "show_notification"
)

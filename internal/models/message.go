package models

import "time"

type MessageType string

const (
	MessageText       MessageType = "text"
	MessageQuickReply MessageType = "quick_reply"
)

// QuickReply is a labelled button offered alongside a reply. The transport,
// not the engine, enforces WhatsApp's 3-button / 20-character limits.
type QuickReply struct {
	Text    string `json:"text"`
	Payload string `json:"payload"`
}

// Message is an outbound bot reply.
type Message struct {
	ID           string       `json:"id"`
	Text         string       `json:"text"`
	Sender       string       `json:"sender"` // always "bot"
	Timestamp    time.Time    `json:"timestamp"`
	Type         MessageType  `json:"type"`
	QuickReplies []QuickReply `json:"quickReplies,omitempty"`
}

package whatsapp

import "encoding/json"

// Inbound is a normalized inbound message extracted from a webhook payload.
// For interactive button replies Text carries the button's payload id.
type Inbound struct {
	From      string
	Text      string
	Type      string // "text" or "interactive"
	Timestamp string
}

// VerifyWebhook implements the hub.challenge handshake. It returns the
// challenge to echo back, or false when the mode or token do not match.
func VerifyWebhook(mode, token, challenge, verifyToken string) (string, bool) {
	if mode == "subscribe" && token == verifyToken && token != "" {
		return challenge, true
	}
	return "", false
}

// Graph webhook envelope, trimmed to the fields we read.
type webhookBody struct {
	Object string `json:"object"`
	Entry  []struct {
		Changes []struct {
			Value struct {
				Messages []struct {
					From      string `json:"from"`
					Type      string `json:"type"`
					Timestamp string `json:"timestamp"`
					Text      *struct {
						Body string `json:"body"`
					} `json:"text"`
					Interactive *struct {
						Type        string `json:"type"`
						ButtonReply *struct {
							ID    string `json:"id"`
							Title string `json:"title"`
						} `json:"button_reply"`
					} `json:"interactive"`
				} `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

// ParseWebhook extracts the first inbound message from a webhook body.
// Malformed or non-message payloads (status updates etc.) return ok=false.
func ParseWebhook(body []byte) (Inbound, bool) {
	var wb webhookBody
	if err := json.Unmarshal(body, &wb); err != nil {
		return Inbound{}, false
	}
	if wb.Object != "whatsapp_business_account" || len(wb.Entry) == 0 {
		return Inbound{}, false
	}
	for _, entry := range wb.Entry {
		for _, change := range entry.Changes {
			for _, msg := range change.Value.Messages {
				in := Inbound{From: msg.From, Type: msg.Type, Timestamp: msg.Timestamp}
				switch {
				case msg.Interactive != nil && msg.Interactive.ButtonReply != nil:
					in.Text = msg.Interactive.ButtonReply.ID
				case msg.Text != nil:
					in.Text = msg.Text.Body
				default:
					continue
				}
				return in, true
			}
		}
	}
	return Inbound{}, false
}

package whatsapp

import "testing"

func TestVerifyWebhook(t *testing.T) {
	tests := []struct {
		name      string
		mode      string
		token     string
		challenge string
		verify    string
		wantOK    bool
	}{
		{"valid handshake", "subscribe", "secret", "12345", "secret", true},
		{"wrong token", "subscribe", "wrong", "12345", "secret", false},
		{"wrong mode", "unsubscribe", "secret", "12345", "secret", false},
		{"empty token never matches", "subscribe", "", "12345", "", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			challenge, ok := VerifyWebhook(tc.mode, tc.token, tc.challenge, tc.verify)
			if ok != tc.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tc.wantOK)
			}
			if ok && challenge != tc.challenge {
				t.Errorf("challenge = %q, want %q", challenge, tc.challenge)
			}
		})
	}
}

const textPayload = `{
  "object": "whatsapp_business_account",
  "entry": [{
    "changes": [{
      "value": {
        "messages": [{
          "from": "254712345678",
          "type": "text",
          "timestamp": "1750000000",
          "text": {"body": "hello there"}
        }]
      }
    }]
  }]
}`

const buttonPayload = `{
  "object": "whatsapp_business_account",
  "entry": [{
    "changes": [{
      "value": {
        "messages": [{
          "from": "254712345678",
          "type": "interactive",
          "timestamp": "1750000000",
          "interactive": {
            "type": "button_reply",
            "button_reply": {"id": "view_members", "title": "View Members"}
          }
        }]
      }
    }]
  }]
}`

const statusPayload = `{
  "object": "whatsapp_business_account",
  "entry": [{
    "changes": [{
      "value": {
        "statuses": [{"id": "wamid.x", "status": "delivered"}]
      }
    }]
  }]
}`

func TestParseWebhookText(t *testing.T) {
	in, ok := ParseWebhook([]byte(textPayload))
	if !ok {
		t.Fatal("text payload not parsed")
	}
	if in.From != "254712345678" || in.Type != "text" || in.Text != "hello there" {
		t.Errorf("parsed = %+v", in)
	}
}

func TestParseWebhookButtonReply(t *testing.T) {
	in, ok := ParseWebhook([]byte(buttonPayload))
	if !ok {
		t.Fatal("button payload not parsed")
	}
	if in.Type != "interactive" {
		t.Errorf("type = %q", in.Type)
	}
	// The button's payload id, not its title, drives the flow engine.
	if in.Text != "view_members" {
		t.Errorf("text = %q, want view_members", in.Text)
	}
}

func TestParseWebhookRejects(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"object": "whatsapp_business_account", "entry": [`},
		{"wrong object", `{"object": "page", "entry": []}`},
		{"no entries", `{"object": "whatsapp_business_account", "entry": []}`},
		{"status update only", statusPayload},
		{"empty body", ``},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, ok := ParseWebhook([]byte(tc.body)); ok {
				t.Error("payload without a message should not parse")
			}
		})
	}
}

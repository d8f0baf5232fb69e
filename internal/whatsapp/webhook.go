package whatsapp

// WebhookPayload is the body the Cloud API posts to the webhook. Every level
// may be absent; FirstTextMessage walks it without assuming any of them.
type WebhookPayload struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

type Entry struct {
	ID      string   `json:"id"`
	Changes []Change `json:"changes"`
}

type Change struct {
	Field string       `json:"field"`
	Value *ChangeValue `json:"value"`
}

type ChangeValue struct {
	MessagingProduct string           `json:"messaging_product"`
	Metadata         *Metadata        `json:"metadata,omitempty"`
	Contacts         []Contact        `json:"contacts,omitempty"`
	Messages         []InboundMessage `json:"messages,omitempty"`
	Statuses         []Status         `json:"statuses,omitempty"`
}

type Metadata struct {
	DisplayPhoneNumber string `json:"display_phone_number"`
	PhoneNumberID      string `json:"phone_number_id"`
}

type Contact struct {
	WaID    string `json:"wa_id"`
	Profile struct {
		Name string `json:"name"`
	} `json:"profile"`
}

type InboundMessage struct {
	From      string    `json:"from"`
	ID        string    `json:"id"`
	Timestamp string    `json:"timestamp"`
	Type      string    `json:"type"`
	Text      *textBody `json:"text,omitempty"`
}

// Status is a delivery/read receipt; the webhook ignores these.
type Status struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	RecipientID string `json:"recipient_id"`
}

// FirstTextMessage returns the sender and body of entry[0].changes[0].value.messages[0]
// when that message is a non-empty text message.
func (p *WebhookPayload) FirstTextMessage() (from, body string, ok bool) {
	if p == nil || len(p.Entry) == 0 {
		return "", "", false
	}
	changes := p.Entry[0].Changes
	if len(changes) == 0 || changes[0].Value == nil {
		return "", "", false
	}
	messages := changes[0].Value.Messages
	if len(messages) == 0 {
		return "", "", false
	}
	msg := messages[0]
	if msg.Type != "text" || msg.Text == nil || msg.Text.Body == "" || msg.From == "" {
		return "", "", false
	}
	return msg.From, msg.Text.Body, true
}

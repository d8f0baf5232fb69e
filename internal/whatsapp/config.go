package whatsapp

// Config holds the Cloud API credentials and the webhook verification secret.
type Config struct {
	Token         string `envconfig:"WHATSAPP_TOKEN"`
	PhoneNumberID string `envconfig:"WHATSAPP_PHONE_NUMBER_ID"`
	VerifyToken   string `envconfig:"WHATSAPP_VERIFY_TOKEN"`
	APIVersion    string `envconfig:"WHATSAPP_API_VERSION" default:"v21.0"`
	// OwnerNumber receives contact-form notifications.
	OwnerNumber string `envconfig:"WHATSAPP_OWNER_NUMBER"`
	BaseURL     string `envconfig:"WHATSAPP_BASE_URL" default:"https://graph.facebook.com"`
}

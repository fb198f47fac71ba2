package config

// MailConfig holds the Resend settings used by the booking consumer to
// send confirmation mails.  Mail is disabled without an API key.
type MailConfig struct {
	Enabled bool
	APIKey  string
	From    string
}

func LoadMailConfig() MailConfig {
	key := getenv("RESEND_API_KEY", "")
	return MailConfig{
		Enabled: key != "" && envBool("MAIL_ENABLED", true),
		APIKey:  key,
		From:    getenv("MAIL_FROM", "Events <no-reply@example.com>"),
	}
}

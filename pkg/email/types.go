package email

// Message is a single outbound email.
type Message struct {
	To      []string
	CC      []string
	BCC     []string
	Subject string

	// TextBody is required; HTMLBody is optional and sent as an alternative.
	TextBody string
	HTMLBody string
}

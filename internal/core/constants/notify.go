package constants

const (
	ContentTypeHeader = "Content-Type"
	ContentTypeJSON   = "application/json"
)

// Webhook message dressing
const (
	// Sender name used when a channel record carries none
	DefaultMessengerUsername = "Solewatch"

	// Footer line rendered under product embeds
	EmbedFooterText = "Solewatch · restock watch"

	// Prefixes for plain log and error notifications
	LogMessagePrefix   = "🔹"
	ErrorMessagePrefix = "❗️"
)

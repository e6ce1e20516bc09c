package domain

// Channel identifiers, in the fixed reporting order.
const (
	ChannelCalls  = "calls"
	ChannelEmails = "emails"
)

// ChannelSpec maps a log channel to its backend index and field names.
// Specs are defined once at process start and never mutated.
type ChannelSpec struct {
	ID             string `json:"id"`
	Index          string `json:"index"`
	TimestampField string `json:"timestamp_field"`
	TextField      string `json:"text_field"`
}

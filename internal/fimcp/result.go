package fimcp

// Status discriminates the Result tagged union.
type Status string

const (
	// StatusOK means the tool produced a payload (structured or opaque text).
	StatusOK Status = "ok"

	// StatusLoginRequired means the remote service interrupted the call:
	// the user must complete an out-of-band login before retrying.
	StatusLoginRequired Status = "login_required"

	// StatusFailed means the call could not be completed (transport
	// failure, non-success HTTP status, or remote error reply).
	StatusFailed Status = "failed"
)

// Result is the outcome of one remote tool invocation.
//
// Exactly one variant is populated, selected by Status:
//   - StatusOK: Text always; Payload when the inner text decoded as JSON
//   - StatusLoginRequired: LoginURL and Message
//   - StatusFailed: Reason
type Result struct {
	Status Status

	// Payload is the structured inner payload, nil when the inner text
	// was not a JSON object.
	Payload map[string]any

	// Text is the raw inner text of the reply. For structured payloads
	// this is the JSON source; for opaque replies it is the
	// instructional string itself.
	Text string

	// LoginURL is where the user completes the out-of-band login step.
	LoginURL string

	// Message is the human-readable login instruction carried with the
	// interrupt.
	Message string

	// Reason describes a failure. Never shown to the user verbatim;
	// the orchestrator converts it to a generic apology.
	Reason string
}

// Ok builds a successful result from inner text and its decoded payload
// (payload may be nil for opaque text).
func Ok(text string, payload map[string]any) Result {
	return Result{Status: StatusOK, Text: text, Payload: payload}
}

// LoginRequired builds a login interrupt result.
func LoginRequired(loginURL, message string) Result {
	return Result{Status: StatusLoginRequired, LoginURL: loginURL, Message: message}
}

// Failure builds a failed result.
func Failure(reason string) Result {
	return Result{Status: StatusFailed, Reason: reason}
}

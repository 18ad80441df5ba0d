package models

// ErrorKind classifies a failed answer request. The session maps each kind to a single
// user-facing sentence, so adapters should pick the most specific kind that applies.
type ErrorKind string

const (
	// ErrorKindNoDocument means the document-present precondition was not met. Only the
	// document-QA backend produces this kind.
	ErrorKindNoDocument ErrorKind = "no_document"
	// ErrorKindNotConfigured means the backend requires a credential that was never supplied.
	ErrorKindNotConfigured ErrorKind = "not_configured"
	// ErrorKindContentBlocked means the provider refused the response on safety grounds.
	ErrorKindContentBlocked ErrorKind = "content_blocked"
	// ErrorKindNetwork means the backend could not be reached, including request deadlines.
	ErrorKindNetwork ErrorKind = "network"
	// ErrorKindBackend covers well-formed HTTP errors and malformed payloads not otherwise
	// classified.
	ErrorKindBackend ErrorKind = "backend"
)

// AnswerResult is the normalized outcome of an answer request. Every backend adapter catches
// all of its failures and returns one of these; no raw error crosses the adapter boundary.
type AnswerResult struct {
	OK     bool
	Answer string

	// ErrorKind and Message are filled when OK is false. Message carries the underlying
	// detail for logging; it is never shown to the user directly.
	ErrorKind ErrorKind
	Message   string
}

// Answered wraps a successful answer.
func Answered(answer string) AnswerResult {
	return AnswerResult{OK: true, Answer: answer}
}

// Failed wraps a classified failure.
func Failed(kind ErrorKind, message string) AnswerResult {
	return AnswerResult{ErrorKind: kind, Message: message}
}

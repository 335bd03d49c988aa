// Package assistant answers free-text questions about the account book.
//
// # Entry Points
//
// NewClient: chat-completions HTTP client built from Config.
// New: wrap a Completer into an Assistant.
// Assistant.Ask: answer a question about an account snapshot.
//
// # Retry Behaviour
//
// The client retries on HTTP 408/429/5xx and network timeouts with
// exponential backoff (base 1s, max 10s, up to 3 attempts by default).
// Context cancellation aborts retries immediately.
//
// # Fallback
//
// Ask never returns an error. Without an API key it answers with a fixed
// disabled message; on any completion failure it logs the error and answers
// with an apology, setting Answer.Degraded.
package assistant

package queue

// Class is the retry classification of a failed send.
type Class string

const (
	// ClassTransient failures are retried with backoff.
	ClassTransient Class = "transient"
	// ClassPermanent failures are terminal: the record moves to failed
	// and is retained for user-visible surfacing.
	ClassPermanent Class = "permanent"
)

// ClassifyStatus classifies an HTTP-style status code. Timeouts, rate
// limiting, server errors, and auth failures are retried (re-auth is an
// out-of-band concern); the remaining 4xx are validation rejections and
// terminal. Anything unrecognized is treated as transient so a write is
// never dropped on an unclassifiable response.
func ClassifyStatus(code int) Class {
	switch {
	case code == 401, code == 403, code == 408, code == 429:
		return ClassTransient
	case code >= 500:
		return ClassTransient
	case code >= 400:
		return ClassPermanent
	default:
		return ClassTransient
	}
}

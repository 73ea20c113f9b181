package evolution

import "net/http"

// Kind classifies why an evolve request failed
type Kind string

// Error kinds
const (
	KindInvalidBody          Kind = "InvalidBody"
	KindMissingFields        Kind = "MissingFields"
	KindInvalidAPIURL        Kind = "InvalidApiUrl"
	KindInvalidTemperature   Kind = "InvalidTemperature"
	KindUpstreamHTTPError    Kind = "UpstreamHttpError"
	KindEmptyUpstreamContent Kind = "EmptyUpstreamContent"
	KindUnparsableResponse   Kind = "UnparsableResponse"
	KindTransportFailure     Kind = "TransportFailure"
)

// Error is a terminal evolve failure. Status is the HTTP status reported to
// the caller and Message is the client-facing error text.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	// Raw is the model output that could not be parsed
	Raw string
	// Missing lists absent required fields for KindMissingFields
	Missing []string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Rejected reports whether the request was refused before any upstream call.
func (e *Error) Rejected() bool {
	switch e.Kind {
	case KindInvalidBody, KindMissingFields, KindInvalidAPIURL, KindInvalidTemperature:
		return true
	}
	return false
}

// InvalidBody wraps a request body that could not be decoded.
func InvalidBody(err error) *Error {
	return &Error{
		Kind:    KindInvalidBody,
		Status:  http.StatusBadRequest,
		Message: "Invalid request body: " + err.Error(),
		Err:     err,
	}
}

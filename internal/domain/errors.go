package domain

import "errors"

// Sentinel errors shared by services and adapters.
// Wrap them with fmt.Errorf("%w: ...") and match with errors.Is.
var (
	// ErrValidation means a required field is missing or malformed. Nothing was written.
	ErrValidation = errors.New("validation failed")

	// ErrNotConfigured means an upstream credential (LLM or speech key) is missing.
	ErrNotConfigured = errors.New("upstream not configured")

	// ErrUpstream means the LLM, speech API or store could not be reached or answered non-2xx.
	ErrUpstream = errors.New("upstream request failed")

	// ErrMalformedUpstream means the upstream answered but the payload had no usable content.
	ErrMalformedUpstream = errors.New("unexpected upstream response format")

	// ErrUnparseable means the model output was not valid JSON, even after substring recovery.
	ErrUnparseable = errors.New("model did not return valid JSON")

	// ErrUnsupportedAudio means the uploaded file is not an accepted audio format.
	ErrUnsupportedAudio = errors.New("unsupported audio format")
)

// UnparseableError keeps the raw model output so the relay can echo it back.
type UnparseableError struct {
	Raw string
	Err error
}

func (e *UnparseableError) Error() string {
	if e.Err != nil {
		return ErrUnparseable.Error() + ": " + e.Err.Error()
	}
	return ErrUnparseable.Error()
}

func (e *UnparseableError) Unwrap() error {
	return ErrUnparseable
}

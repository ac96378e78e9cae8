package submission

import (
	"errors"
	"fmt"
)

// Stage names a step of the submission pipeline.
type Stage string

const (
	StageGenerate Stage = "generate"
	StageEncrypt  Stage = "encrypt"
	StageUpload   Stage = "upload"
	StageEncode   Stage = "encode"
	StageWrap     Stage = "wrap"
	StageDispatch Stage = "dispatch"
	StageConfirm  Stage = "confirm"
)

// ErrDigestMismatch is returned when fetched content does not hash to the published digest.
var ErrDigestMismatch = errors.New("content digest mismatch")

// ErrLocatorMismatch is returned when a locator does not match the published locator field.
var ErrLocatorMismatch = errors.New("locator does not match its ledger commitment")

// SubmissionError carries the stage at which a ledger write flow stopped.
type SubmissionError struct {
	Stage Stage
	Err   error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("submission failed at %s: %v", e.Stage, e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// UploadError is a content store failure.
type UploadError struct {
	Name string
	Err  error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload of %s failed: %v", e.Name, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// DispatchError is a ledger write rejected before a handle was returned.
type DispatchError struct {
	Function string
	Err      error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch of %s rejected: %v", e.Function, e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }

func fail(stage Stage, err error) error {
	return &SubmissionError{Stage: stage, Err: err}
}

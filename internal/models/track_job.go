package models

import (
	"encoding/json"
	"errors"
	"fmt"
)

// TrackJob asks the confirmation engine to follow one dispatched transaction to a terminal state.
// Used across the gateway, processing, and messaging layers
type TrackJob struct {
	RequestID    string `json:"RequestID"`
	Handle       string `json:"Handle"`             // provisional id returned at dispatch
	Kind         string `json:"Kind"`               // submit_report, update_status, add_comment
	ReportID     string `json:"ReportID,omitempty"` // "<n>field", known for status updates and comments
	DispatchedAt string `json:"DispatchedAt"`       // RFC3339Nano, string for easy JSON serialization
}

// Validate checks the fields the engine cannot work without.
func (j *TrackJob) Validate() error {
	switch {
	case j.RequestID == "":
		return errors.New("tracking job has no request id")
	case j.Handle == "":
		return fmt.Errorf("tracking job %s has no handle", j.RequestID)
	case j.Kind == "":
		return fmt.Errorf("tracking job %s has no kind", j.RequestID)
	}
	return nil
}

// EncodeTrackJob serializes a job for the queue.
func EncodeTrackJob(j *TrackJob) ([]byte, error) {
	if err := j.Validate(); err != nil {
		return nil, err
	}
	b, err := json.Marshal(j)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize tracking job: %w", err)
	}
	return b, nil
}

// DecodeTrackJob parses and validates a queued job.
func DecodeTrackJob(b []byte) (*TrackJob, error) {
	var j TrackJob
	if err := json.Unmarshal(b, &j); err != nil {
		return nil, fmt.Errorf("message deserialization failed: %w", err)
	}
	if err := j.Validate(); err != nil {
		return nil, err
	}
	return &j, nil
}

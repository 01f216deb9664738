package telemetry

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrMalformedRecording matches every MalformedRecordingError via errors.Is.
var ErrMalformedRecording = errors.New("malformed lap recording")

// MalformedRecordingError reports a lap file that is not parseable or lacks required top-level fields.
// It is recoverable: callers label the lap invalid and keep going.
type MalformedRecordingError struct {
	Path string
	Err  error
}

func (e *MalformedRecordingError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrMalformedRecording, e.Path, e.Err)
}

func (e *MalformedRecordingError) Unwrap() error { return e.Err }

// Cause lets errors.Cause reach the underlying decode error.
func (e *MalformedRecordingError) Cause() error { return e.Err }

func (e *MalformedRecordingError) Is(target error) bool {
	return target == ErrMalformedRecording
}

func malformed(path string, err error) error {
	return &MalformedRecordingError{Path: path, Err: err}
}

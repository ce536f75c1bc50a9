package upload

import (
	"bytes"

	wav "github.com/youpy/go-wav"
)

// ProbeDurationMinutes decodes the audio duration in minutes. Only WAV
// containers decode locally; everything else, including corrupt data, yields
// zero so the upload still goes through. A zero-duration candidate trivially
// passes quota checks, which is the documented trade-off of probing on the
// client side.
func ProbeDurationMinutes(data []byte) (minutes float64) {
	defer func() {
		// The decoder indexes header fields directly; treat a panic on a
		// truncated RIFF chunk the same as a decode failure.
		if recover() != nil {
			minutes = 0
		}
	}()

	reader := wav.NewReader(bytes.NewReader(data))
	duration, err := reader.Duration()
	if err != nil {
		return 0
	}
	return duration.Minutes()
}

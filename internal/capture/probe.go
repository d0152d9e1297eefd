package capture

import (
	"encoding/json"
	"strconv"

	"github.com/pkg/errors"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// ProbeDuration reads the container duration of a media file via ffprobe.
func ProbeDuration(path string) (float64, error) {
	raw, err := ffmpeg.Probe(path)
	if err != nil {
		return 0, errors.Wrap(err, "capture: probe")
	}

	var info struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal([]byte(raw), &info); err != nil {
		return 0, errors.Wrap(err, "capture: parse probe output")
	}

	d, err := strconv.ParseFloat(info.Format.Duration, 64)
	if err != nil {
		return 0, errors.Wrap(err, "capture: parse duration")
	}
	return d, nil
}

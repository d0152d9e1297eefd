// Package capture renders a job description locally with ffmpeg. It is the
// fallback path when the cloud render backend rejects a submission.
package capture

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	ffmpeg "github.com/u2takey/ffmpeg-go"

	"hospup-backend/internal/shared/telemetry"
	"hospup-backend/internal/timeline"
)

// Vertical 9:16 output, the format every template in the catalog targets.
const (
	outputWidth  = 1080
	outputHeight = 1920
	outputFPS    = "30"
)

// Result describes a finished local render on disk.
type Result struct {
	Path        string
	Format      string
	ContentType string
}

// Renderer encodes job descriptions into mp4 files under WorkDir. Encodes
// are serialized: ffmpeg saturates the host, so only one runs at a time.
type Renderer struct {
	mu      sync.Mutex
	WorkDir string
}

func NewRenderer(workDir string) *Renderer {
	return &Renderer{WorkDir: workDir}
}

// Capture encodes the full composed timeline and returns the output file.
// It blocks for the duration of the encode.
func (r *Renderer) Capture(ctx context.Context, job timeline.JobDescription) (Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if len(job.Clips) == 0 {
		return Result{}, errors.New("capture: job has no clips")
	}
	if err := os.MkdirAll(r.WorkDir, 0o755); err != nil {
		return Result{}, errors.Wrap(err, "capture: create work dir")
	}

	outPath := filepath.Join(r.WorkDir, fmt.Sprintf("render_%d.mp4", time.Now().UnixNano()))

	video := composeVideo(job)
	err := video.Output(outPath, ffmpeg.KwArgs{
		"c:v":      "libx264",
		"preset":   "medium",
		"crf":      23,
		"movflags": "+faststart",
		"pix_fmt":  "yuv420p",
		"t":        fmt.Sprintf("%.3f", job.TotalDuration),
		"an":       "",
	}).OverWriteOutput().ErrorToStdOut().Run()
	if err != nil {
		_ = os.Remove(outPath)
		return Result{}, errors.Wrap(err, "capture: ffmpeg encode")
	}

	if d, probeErr := ProbeDuration(outPath); probeErr == nil {
		telemetry.Info("capture.complete", map[string]any{
			"path":             outPath,
			"duration":         d,
			"planned_duration": job.TotalDuration,
		})
	}

	return Result{Path: outPath, Format: "mp4", ContentType: "video/mp4"}, nil
}

// composeVideo builds the filter graph: each clip trimmed and normalized to
// the output frame, concatenated, then text overlays stamped on top.
func composeVideo(job timeline.JobDescription) *ffmpeg.Stream {
	streams := make([]*ffmpeg.Stream, len(job.Clips))
	for i, clip := range job.Clips {
		streams[i] = clipStream(clip)
	}

	video := streams[0]
	if len(streams) > 1 {
		video = ffmpeg.Filter(streams, "concat", ffmpeg.Args{
			fmt.Sprintf("n=%d:v=1:a=0", len(streams)),
		})
	}

	for _, text := range job.Texts {
		video = video.Filter("drawtext", ffmpeg.Args{drawTextArg(text)})
	}
	return video
}

func clipStream(clip timeline.ResolvedClip) *ffmpeg.Stream {
	return ffmpeg.Input(clip.VideoURL, ffmpeg.KwArgs{
		"t": fmt.Sprintf("%.3f", clip.Duration),
	}).
		Filter("scale", ffmpeg.Args{
			fmt.Sprintf("%d:%d:force_original_aspect_ratio=decrease", outputWidth, outputHeight),
		}).
		Filter("pad", ffmpeg.Args{
			fmt.Sprintf("%d:%d:(ow-iw)/2:(oh-ih)/2", outputWidth, outputHeight),
		}).
		Filter("setsar", ffmpeg.Args{"1"}).
		Filter("fps", ffmpeg.Args{outputFPS})
}

// drawTextArg renders one overlay as a drawtext filter argument. The overlay
// is visible only inside its [start, end) window.
func drawTextArg(text timeline.TextElement) string {
	parts := []string{
		fmt.Sprintf("text='%s'", escapeDrawText(text.Content)),
		fmt.Sprintf("fontsize=%d", int(styleFloat(text.Style, "fontSize", 48))),
		fmt.Sprintf("fontcolor=%s", styleString(text.Style, "color", "white")),
		"bordercolor=black",
		"borderw=2",
	}
	if alpha := styleFloat(text.Style, "opacity", 1); alpha < 1 {
		parts = append(parts, fmt.Sprintf("alpha=%.2f", alpha))
	}
	parts = append(parts, positionExprs(text.Position)...)
	parts = append(parts, fmt.Sprintf("enable='between(t,%.3f,%.3f)'", text.StartTime, text.EndTime))
	return strings.Join(parts, ":")
}

// positionExprs converts fractional coordinates into drawtext x/y
// expressions, offset by the anchor.
func positionExprs(pos timeline.Position) []string {
	x := fmt.Sprintf("w*%.4f", pos.X)
	y := fmt.Sprintf("h*%.4f", pos.Y)
	switch pos.Anchor {
	case "top-left":
		// coordinates already name the top-left corner
	case "bottom":
		x += "-tw/2"
		y += "-th"
	default: // center
		x += "-tw/2"
		y += "-th/2"
	}
	return []string{"x=" + x, "y=" + y}
}

func escapeDrawText(s string) string {
	replacer := strings.NewReplacer(
		`\`, `\\`,
		`'`, `\'`,
		`:`, `\:`,
		`%`, `\%`,
	)
	return replacer.Replace(s)
}

func styleString(style map[string]any, key, fallback string) string {
	if v, ok := style[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

func styleFloat(style map[string]any, key string, fallback float64) float64 {
	switch v := style[key].(type) {
	case float64:
		if v > 0 {
			return v
		}
	case int:
		if v > 0 {
			return float64(v)
		}
	}
	return fallback
}

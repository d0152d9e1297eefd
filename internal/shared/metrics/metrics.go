package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

var (
	renderStartedTotal   atomic.Uint64
	renderCompletedTotal atomic.Uint64
	renderFailedTotal    atomic.Uint64
	renderFallbackTotal  atomic.Uint64

	renderDuration = newHistogram([]float64{1000, 2500, 5000, 10000, 30000, 60000, 120000, 300000})

	jobsReceivedTotal             atomic.Uint64
	jobsCompletedTotal            atomic.Uint64
	jobsFailedTotal               atomic.Uint64
	jobsDeletedUnrecoverableTotal atomic.Uint64
)

// IncRenderStarted increments the started counter.
func IncRenderStarted() {
	renderStartedTotal.Add(1)
}

// IncRenderCompleted increments the completed counter.
func IncRenderCompleted() {
	renderCompletedTotal.Add(1)
}

// IncRenderFailed increments the failed counter.
func IncRenderFailed() {
	renderFailedTotal.Add(1)
}

// IncRenderFallback counts jobs that switched to the local capture path.
func IncRenderFallback() {
	renderFallbackTotal.Add(1)
}

// ObserveRenderDurationMs records a render duration in milliseconds.
func ObserveRenderDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	renderDuration.Observe(value)
}

// IncRenderJobsReceived counts queue messages picked up by the worker.
func IncRenderJobsReceived() {
	jobsReceivedTotal.Add(1)
}

// IncRenderJobsCompleted counts queue messages processed and deleted.
func IncRenderJobsCompleted() {
	jobsCompletedTotal.Add(1)
}

// IncRenderJobsFailed counts queue messages whose processing failed.
func IncRenderJobsFailed() {
	jobsFailedTotal.Add(1)
}

// IncRenderJobsDeletedUnrecoverable counts malformed messages dropped
// without processing.
func IncRenderJobsDeletedUnrecoverable() {
	jobsDeletedUnrecoverableTotal.Add(1)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "render_started_total", "Total render jobs started", renderStartedTotal.Load())
	writeCounter(&buf, "render_completed_total", "Total render jobs completed", renderCompletedTotal.Load())
	writeCounter(&buf, "render_failed_total", "Total render jobs failed", renderFailedTotal.Load())
	writeCounter(&buf, "render_fallback_total", "Total render jobs recovered via local capture", renderFallbackTotal.Load())
	writeCounter(&buf, "render_jobs_received_total", "Total queue messages received by the worker", jobsReceivedTotal.Load())
	writeCounter(&buf, "render_jobs_completed_total", "Total queue messages processed successfully", jobsCompletedTotal.Load())
	writeCounter(&buf, "render_jobs_failed_total", "Total queue messages whose processing failed", jobsFailedTotal.Load())
	writeCounter(&buf, "render_jobs_deleted_unrecoverable_total", "Total malformed queue messages dropped", jobsDeletedUnrecoverableTotal.Load())
	writeHistogram(&buf, "render_duration_ms", "Render duration in milliseconds", renderDuration.Snapshot())
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}

package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// Middleware creates a Gin middleware for metrics collection
func Middleware(metrics *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method

		reqSize := c.Request.ContentLength
		if reqSize < 0 {
			reqSize = 0
		}

		c.Next()

		// Route templates keep label cardinality bounded
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		duration := time.Since(start)
		status := strconv.Itoa(c.Writer.Status())
		respSize := int64(c.Writer.Size())
		if respSize < 0 {
			respSize = 0
		}

		metrics.RecordHTTPRequest(method, path, status, duration, reqSize, respSize)
	}
}

// Timer measures a browser step
type Timer struct {
	start   time.Time
	metrics *Metrics
	step    string
}

// NewTimer creates a new timer
func NewTimer(metrics *Metrics, step string) *Timer {
	return &Timer{
		start:   time.Now(),
		metrics: metrics,
		step:    step,
	}
}

// Stop stops the timer and records the duration. A nil Timer or a Timer
// without metrics is a no-op.
func (t *Timer) Stop(err error) time.Duration {
	if t == nil {
		return 0
	}
	duration := time.Since(t.start)
	if t.metrics != nil {
		t.metrics.RecordBrowserStep(t.step, duration, err)
	}
	return duration
}

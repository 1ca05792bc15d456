package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/GriffinCanCode/awardtoken/internal/api/middleware"
	"github.com/GriffinCanCode/awardtoken/internal/domain/token"
	"github.com/GriffinCanCode/awardtoken/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/awardtoken/internal/infrastructure/resilience"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Version is reported by the root endpoint
const Version = "1.0.0"

// MaxBodyBytes caps the /get-token request body
const MaxBodyBytes = 100 << 10

// TokenRunner runs one browser session for a validated request
type TokenRunner interface {
	Run(ctx context.Context, req *token.Request, j *token.Journal) (*token.Outcome, error)
}

// SessionCounter reports how many browsers are running
type SessionCounter interface {
	Active() int
}

// Handlers contains all HTTP handlers
type Handlers struct {
	tokens   TokenRunner
	decode   token.DecodeOptions
	metrics  *monitoring.Metrics
	logger   *zap.Logger
	breaker  *resilience.Breaker
	sessions SessionCounter
}

// NewHandlers creates a new handler set
func NewHandlers(tokens TokenRunner, decode token.DecodeOptions, metrics *monitoring.Metrics, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		tokens:  tokens,
		decode:  decode,
		metrics: metrics,
		logger:  logger,
	}
}

// WithBreaker reports the launch breaker state on /health
func (h *Handlers) WithBreaker(b *resilience.Breaker) *Handlers {
	h.breaker = b
	return h
}

// WithSessions reports live browser sessions on /health
func (h *Handlers) WithSessions(s SessionCounter) *Handlers {
	h.sessions = s
	return h
}

// Root handles the service banner
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "awardtoken",
		"version": Version,
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	status := "healthy"
	browser := gin.H{}

	if h.breaker != nil {
		state := h.breaker.State()
		browser["breaker"] = state.String()
		if state == resilience.StateOpen {
			status = "degraded"
		}
	}
	if h.sessions != nil {
		browser["active"] = h.sessions.Active()
	}

	resp := gin.H{
		"status":  status,
		"browser": browser,
	}
	if h.metrics != nil {
		resp["uptime_seconds"] = int64(time.Since(h.metrics.StartTime()).Seconds())
		resp["stats"] = h.metrics.Snapshot()
	}

	c.JSON(http.StatusOK, resp)
}

// GetToken handles POST /get-token
func (h *Handlers) GetToken(c *gin.Context) {
	j := token.NewJournal(h.logger.With(zap.String("request_id", middleware.GetRequestID(c))))
	j.Add("Request received")

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxBodyBytes)
	body, err := c.GetRawData()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			j.Addf("Request body exceeds %d bytes", tooLarge.Limit)
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Request body too large", "log": j.Lines()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read request body", "log": j.Lines()})
		return
	}

	req, err := token.Decode(body, h.decode, j)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validationMessage(err), "log": j.Lines()})
		return
	}

	out, err := h.tokens.Run(c.Request.Context(), req, j)
	if err != nil {
		_ = c.Error(err)
		status := http.StatusInternalServerError
		if resilience.IsRejection(err) {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"error": err.Error(), "log": j.Lines()})
		return
	}

	if out.OK() {
		c.JSON(http.StatusOK, gin.H{"success": true, "token": out.Token, "log": j.Lines()})
		return
	}

	resp := gin.H{"error": out.Error, "log": j.Lines()}
	if len(out.Response) > 0 {
		resp["response"] = out.Response
	}
	c.JSON(http.StatusInternalServerError, resp)
}

// validationMessage maps decode errors onto the wire messages
func validationMessage(err error) string {
	switch {
	case errors.Is(err, token.ErrMissingInput):
		return "Missing cookies or url"
	case errors.Is(err, token.ErrCookiesNotArray):
		return "Cookies must be an array"
	case errors.Is(err, token.ErrInvalidAwardID):
		return "awardId must be numeric"
	case errors.Is(err, token.ErrInvalidProxy):
		return "proxy must be a string"
	default:
		return "Invalid JSON body"
	}
}

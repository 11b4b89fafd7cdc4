package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/funnel/backend/internal/domain/funnel"
	"github.com/funnel/backend/internal/domain/shared"
	"github.com/funnel/backend/internal/infrastructure/event"
	"github.com/funnel/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const sseMessageBufferSize = 64

// SSEMessage is one server-sent event
type SSEMessage struct {
	Event string
	Data  string
	ID    string
}

type sseClient struct {
	id   string
	msgs chan SSEMessage
}

// OutcomeStreamHandler pushes report and refresh outcomes to dashboard
// clients over server-sent events. It is registered on the event bus as a
// handler of the outcome event types.
type OutcomeStreamHandler struct {
	BaseHandler
	logger     *zap.Logger
	heartbeat  time.Duration
	maxClients int

	mu      sync.Mutex
	clients map[string]*sseClient

	ctx     context.Context
	cancel  context.CancelFunc
	startMu sync.Mutex
	started bool
}

// OutcomeStreamOption configures an OutcomeStreamHandler
type OutcomeStreamOption func(*OutcomeStreamHandler)

// WithSSELogger sets the logger
func WithSSELogger(logger *zap.Logger) OutcomeStreamOption {
	return func(h *OutcomeStreamHandler) {
		h.logger = logger
	}
}

// WithSSEHeartbeat sets the heartbeat interval
func WithSSEHeartbeat(interval time.Duration) OutcomeStreamOption {
	return func(h *OutcomeStreamHandler) {
		if interval > 0 {
			h.heartbeat = interval
		}
	}
}

// WithSSEMaxClients caps concurrent streams; zero means unlimited
func WithSSEMaxClients(n int) OutcomeStreamOption {
	return func(h *OutcomeStreamHandler) {
		h.maxClients = n
	}
}

// NewOutcomeStreamHandler creates a new OutcomeStreamHandler
func NewOutcomeStreamHandler(opts ...OutcomeStreamOption) *OutcomeStreamHandler {
	ctx, cancel := context.WithCancel(context.Background())
	h := &OutcomeStreamHandler{
		logger:     zap.NewNop(),
		heartbeat:  30 * time.Second,
		maxClients: 100,
		clients:    make(map[string]*sseClient),
		ctx:        ctx,
		cancel:     cancel,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// EventTypes implements shared.EventHandler
func (h *OutcomeStreamHandler) EventTypes() []string {
	return []string{
		funnel.EventTypeReportGenerated,
		funnel.EventTypeReportGenerationFailed,
		funnel.EventTypeRefreshCompleted,
	}
}

// Handle implements shared.EventHandler by broadcasting the event
func (h *OutcomeStreamHandler) Handle(_ context.Context, e shared.DomainEvent) error {
	env, err := event.Wrap(e)
	if err != nil {
		return err
	}
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	h.broadcast(SSEMessage{
		Event: env.Type,
		Data:  string(data),
		ID:    env.ID.String(),
	})
	return nil
}

// Start begins sending heartbeats
func (h *OutcomeStreamHandler) Start() error {
	h.startMu.Lock()
	defer h.startMu.Unlock()

	if h.started {
		return errors.New("outcome stream already started")
	}
	go h.sendHeartbeats()
	h.started = true
	h.logger.Info("Outcome stream started", zap.Duration("heartbeat", h.heartbeat))
	return nil
}

// Stop disconnects every client
func (h *OutcomeStreamHandler) Stop() {
	h.cancel()
	h.logger.Info("Outcome stream stopped")
}

// ClientCount returns the number of connected clients
func (h *OutcomeStreamHandler) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *OutcomeStreamHandler) register() (*sseClient, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.maxClients > 0 && len(h.clients) >= h.maxClients {
		return nil, false
	}
	client := &sseClient{
		id:   uuid.NewString(),
		msgs: make(chan SSEMessage, sseMessageBufferSize),
	}
	h.clients[client.id] = client
	return client, true
}

func (h *OutcomeStreamHandler) unregister(client *sseClient) {
	h.mu.Lock()
	delete(h.clients, client.id)
	h.mu.Unlock()
}

// broadcast never blocks; slow clients lose messages
func (h *OutcomeStreamHandler) broadcast(msg SSEMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.clients {
		select {
		case client.msgs <- msg:
		default:
			h.logger.Warn("SSE client buffer full, dropping message",
				zap.String("client_id", client.id),
				zap.String("event", msg.Event))
		}
	}
}

func (h *OutcomeStreamHandler) sendHeartbeats() {
	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			return
		case now := <-ticker.C:
			h.broadcast(SSEMessage{
				Event: "heartbeat",
				Data:  fmt.Sprintf(`{"timestamp":%d}`, now.Unix()),
			})
		}
	}
}

// Stream holds the connection open and writes outcome events as they are
// published. Over the client cap it answers 503.
func (h *OutcomeStreamHandler) Stream(c *gin.Context) {
	client, ok := h.register()
	if !ok {
		h.Error(c, http.StatusServiceUnavailable, dto.ErrCodeMaxConnections, "Maximum number of event streams reached")
		return
	}
	defer h.unregister(client)

	// the server write timeout would otherwise cut the stream
	_ = http.NewResponseController(c.Writer).SetWriteDeadline(time.Time{})

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	h.logger.Debug("SSE client connected", zap.String("client_id", client.id))

	writeEvent(c.Writer, SSEMessage{
		Event: "connected",
		Data:  fmt.Sprintf(`{"client_id":%q,"timestamp":%d}`, client.id, time.Now().Unix()),
	})
	c.Writer.Flush()

	reqCtx := c.Request.Context()
	for {
		select {
		case <-reqCtx.Done():
			h.logger.Debug("SSE client disconnected", zap.String("client_id", client.id))
			return
		case <-h.ctx.Done():
			return
		case msg := <-client.msgs:
			writeEvent(c.Writer, msg)
			c.Writer.Flush()
		}
	}
}

func writeEvent(w io.Writer, msg SSEMessage) {
	if msg.Event != "" {
		fmt.Fprintf(w, "event: %s\n", msg.Event)
	}
	if msg.ID != "" {
		fmt.Fprintf(w, "id: %s\n", msg.ID)
	}
	fmt.Fprintf(w, "data: %s\n\n", msg.Data)
}

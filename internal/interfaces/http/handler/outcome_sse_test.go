package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/funnel/backend/internal/domain/funnel"
	"github.com/funnel/backend/internal/infrastructure/event"
	"github.com/funnel/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type sseEvent struct {
	name string
	id   string
	data string
}

// readEvent reads lines until a blank line ends the event
func readEvent(t *testing.T, r *bufio.Reader) sseEvent {
	t.Helper()
	var ev sseEvent
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case line == "":
			return ev
		case strings.HasPrefix(line, "event: "):
			ev.name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "id: "):
			ev.id = strings.TrimPrefix(line, "id: ")
		case strings.HasPrefix(line, "data: "):
			ev.data = strings.TrimPrefix(line, "data: ")
		}
	}
}

func openStream(t *testing.T, h *OutcomeStreamHandler) (*bufio.Reader, func()) {
	t.Helper()

	r := gin.New()
	r.GET("/api/v1/events/stream", h.Stream)
	srv := httptest.NewServer(r)

	ctx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/events/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	return bufio.NewReader(resp.Body), func() {
		cancel()
		resp.Body.Close()
		srv.Close()
	}
}

func TestOutcomeStreamHandler_EventTypes(t *testing.T) {
	h := NewOutcomeStreamHandler()
	assert.ElementsMatch(t, []string{
		funnel.EventTypeReportGenerated,
		funnel.EventTypeReportGenerationFailed,
		funnel.EventTypeRefreshCompleted,
	}, h.EventTypes())
}

func TestOutcomeStreamHandler_Stream(t *testing.T) {
	h := NewOutcomeStreamHandler(WithSSELogger(zaptest.NewLogger(t)))
	defer h.Stop()

	body, closeStream := openStream(t, h)
	defer closeStream()

	connected := readEvent(t, body)
	assert.Equal(t, "connected", connected.name)
	assert.Contains(t, connected.data, "client_id")
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	published := funnel.NewRefreshCompletedEvent(false, 2, []string{"http://b/hook"})
	require.NoError(t, h.Handle(context.Background(), published))

	got := readEvent(t, body)
	assert.Equal(t, funnel.EventTypeRefreshCompleted, got.name)
	assert.Equal(t, published.EventID().String(), got.id)

	var env event.Envelope
	require.NoError(t, json.Unmarshal([]byte(got.data), &env))
	assert.Equal(t, funnel.EventTypeRefreshCompleted, env.Type)

	var payload funnel.RefreshCompletedEvent
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	assert.False(t, payload.Success)
	assert.Equal(t, []string{"http://b/hook"}, payload.Failed)
}

func TestOutcomeStreamHandler_Heartbeat(t *testing.T) {
	h := NewOutcomeStreamHandler(WithSSEHeartbeat(20 * time.Millisecond))
	require.NoError(t, h.Start())
	defer h.Stop()

	body, closeStream := openStream(t, h)
	defer closeStream()

	assert.Equal(t, "connected", readEvent(t, body).name)
	assert.Equal(t, "heartbeat", readEvent(t, body).name)
}

func TestOutcomeStreamHandler_StartTwice(t *testing.T) {
	h := NewOutcomeStreamHandler()
	defer h.Stop()

	require.NoError(t, h.Start())
	assert.Error(t, h.Start())
}

func TestOutcomeStreamHandler_MaxClients(t *testing.T) {
	h := NewOutcomeStreamHandler(WithSSEMaxClients(1))
	defer h.Stop()

	_, ok := h.register()
	require.True(t, ok)

	r := gin.New()
	r.GET("/api/v1/events/stream", h.Stream)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/events/stream", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, dto.ErrCodeMaxConnections, decode(t, w).Error.Code)
}

func TestOutcomeStreamHandler_BroadcastDropsWhenFull(t *testing.T) {
	h := NewOutcomeStreamHandler()
	defer h.Stop()

	client, ok := h.register()
	require.True(t, ok)

	for range sseMessageBufferSize + 5 {
		h.broadcast(SSEMessage{Event: "heartbeat", Data: "{}"})
	}
	assert.Len(t, client.msgs, sseMessageBufferSize)

	h.unregister(client)
	assert.Zero(t, h.ClientCount())
}

package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandlerRegistry_GetHandlers(t *testing.T) {
	registry := NewHandlerRegistry()
	specific := newRecordingHandler()
	wildcard := newRecordingHandler()

	registry.Register(specific, "report.generated", "report.generation_failed")
	registry.Register(wildcard)

	handlers := registry.GetHandlers("report.generated")
	assert.Len(t, handlers, 2)
	assert.Same(t, specific, handlers[0])
	assert.Same(t, wildcard, handlers[1])

	handlers = registry.GetHandlers("refresh.completed")
	assert.Len(t, handlers, 1)
	assert.Same(t, wildcard, handlers[0])
}

func TestHandlerRegistry_Unregister(t *testing.T) {
	registry := NewHandlerRegistry()
	first := newRecordingHandler()
	second := newRecordingHandler()
	wildcard := newRecordingHandler()

	registry.Register(first, "report.generated")
	registry.Register(second, "report.generated")
	registry.Register(wildcard)

	registry.Unregister(first)
	registry.Unregister(wildcard)

	handlers := registry.GetHandlers("report.generated")
	assert.Len(t, handlers, 1)
	assert.Same(t, second, handlers[0])

	registry.Unregister(second)
	assert.Empty(t, registry.GetHandlers("report.generated"))
	assert.Equal(t, 0, registry.Count())
}

func TestHandlerRegistry_SnapshotIsIndependent(t *testing.T) {
	registry := NewHandlerRegistry()
	h := newRecordingHandler()
	registry.Register(h, "report.generated")

	snapshot := registry.GetHandlers("report.generated")
	registry.Unregister(h)

	assert.Len(t, snapshot, 1)
}

func TestHandlerRegistry_Count(t *testing.T) {
	registry := NewHandlerRegistry()
	multi := newRecordingHandler()

	registry.Register(multi, "report.generated", "refresh.completed")
	registry.Register(newRecordingHandler())

	assert.Equal(t, 2, registry.Count())
}

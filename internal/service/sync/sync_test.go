package sync

import (
	"io"
	"log/slog"

	"moment/internal/domain/repositories"
	"moment/internal/repository/memory"
)

// Shared test fixtures: in-memory stores sharing one monotonic clock, the
// same wiring shape main uses with postgres.

func newTestStores() (repositories.Stores, *memory.Clock) {
	clock := memory.NewClock()
	stores := repositories.Stores{
		Notes:      memory.NewNoteStore(clock),
		Tags:       memory.NewTagStore(clock),
		TodoItems:  memory.NewTodoItemStore(clock),
		NoteImages: memory.NewNoteImageStore(clock),
	}
	return stores, clock
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestOrchestrator() (*Orchestrator, repositories.Stores) {
	stores, clock := newTestStores()
	reconciler := NewReconciler(stores, testLogger())
	delta := NewDeltaEngine(stores, testLogger())
	return NewOrchestrator(reconciler, delta, memory.NewTxManager(), clock, testLogger()), stores
}

func strPtr(s string) *string { return &s }

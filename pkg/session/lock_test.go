package session

import (
	"context"
	"fmt"
	"testing"

	"github.com/Lokiragnarock/srm-cia-survey/internal/compiler"
	"github.com/Lokiragnarock/srm-cia-survey/internal/runtime"
	"github.com/Lokiragnarock/srm-cia-survey/pkg/adapters/memory"
	"github.com/Lokiragnarock/srm-cia-survey/pkg/domain"
)

func TestManager_LockLifecycle(t *testing.T) {
	graph, err := compiler.Compile([]domain.Record{
		{QID: "q1", Type: "radio", Options: "Yes|No", BranchLogic: "default:submit"},
	})
	if err != nil {
		t.Fatal(err)
	}
	engine, err := runtime.NewEngine(graph)
	if err != nil {
		t.Fatal(err)
	}

	mgr := NewManager(engine, memory.NewStore())
	ctx := context.Background()
	count := 1000

	for i := 0; i < count; i++ {
		sid := fmt.Sprintf("session-%d", i)
		_, _ = mgr.Start(ctx, sid)
		_ = mgr.Delete(ctx, sid)
	}

	lockCount := len(mgr.locks)
	if lockCount != 0 {
		t.Errorf("Memory Leak Detected: %d locks remaining in memory after Delete", lockCount)
	}
}

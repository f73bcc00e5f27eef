package tests

import (
	"context"
	"testing"

	"github.com/Lokiragnarock/srm-cia-survey/pkg/domain"
	"github.com/Lokiragnarock/srm-cia-survey/pkg/ports"
)

// ConfigLoaderContractTest is a reusable test suite that verifies if an adapter complies with ports.ConfigLoader.
// want is the exact record list the loader is expected to produce, in order.
func ConfigLoaderContractTest(t *testing.T, loader ports.ConfigLoader, want []domain.Record) {
	t.Helper()

	t.Run("Load_Order", func(t *testing.T) {
		got, err := loader.Load(context.Background())
		if err != nil {
			t.Fatalf("unexpected error loading records: %v", err)
		}
		if len(got) != len(want) {
			t.Fatalf("expected %d records, got %d", len(want), len(got))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("record %d mismatch.\n got %+v\nwant %+v", i, got[i], want[i])
			}
		}
	})

	t.Run("Load_Repeatable", func(t *testing.T) {
		a, err := loader.Load(context.Background())
		if err != nil {
			t.Fatalf("first load: %v", err)
		}
		b, err := loader.Load(context.Background())
		if err != nil {
			t.Fatalf("second load: %v", err)
		}
		if len(a) != len(b) {
			t.Errorf("loads differ in length: %d vs %d", len(a), len(b))
		}
	})

	t.Run("Load_Canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := loader.Load(ctx); err == nil {
			t.Error("expected error for canceled context, got nil")
		}
	})
}

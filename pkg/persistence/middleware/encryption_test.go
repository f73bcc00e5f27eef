package middleware_test

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"io"
	"testing"

	"github.com/Lokiragnarock/srm-cia-survey/pkg/domain"
	"github.com/Lokiragnarock/srm-cia-survey/pkg/persistence/middleware"
	"github.com/Lokiragnarock/srm-cia-survey/pkg/ports"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, k); err != nil {
		t.Fatal(err)
	}
	return k
}

func wrap(t *testing.T, store ports.StateStore, cfg middleware.EncryptionConfig) ports.StateStore {
	t.Helper()
	mw, err := middleware.NewEncryptionMiddleware(cfg)
	if err != nil {
		t.Fatalf("NewEncryptionMiddleware: %v", err)
	}
	return mw(store)
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlyingStore := NewMockStore()
	secureStore := wrap(t, underlyingStore, middleware.EncryptionConfig{ActiveKey: generateKey(t)})

	ctx := context.Background()
	sessionID := "test-session"
	originalState := domain.NewState(sessionID, "q2")
	originalState.History = []string{"q1"}
	originalState.Answers["q1"] = "Senior Manager"
	originalState.Path = []domain.PathEntry{{NodeID: "q1", Answer: "Senior Manager"}}

	if err := secureStore.Save(ctx, sessionID, originalState); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// The underlying store only sees the envelope.
	storedState, err := underlyingStore.Load(ctx, sessionID)
	if err != nil {
		t.Fatalf("Underlying load failed: %v", err)
	}
	if _, ok := storedState.Answers["q1"]; ok {
		t.Fatal("Expected answers to be hidden")
	}
	if _, ok := storedState.Answers[middleware.EnvelopeField]; !ok {
		t.Fatal("Expected envelope field in answers")
	}
	if storedState.CurrentNodeID != "" || len(storedState.History) != 0 {
		t.Errorf("Expected navigation to be hidden, got %+v", storedState)
	}

	loadedState, err := secureStore.Load(ctx, sessionID)
	if err != nil {
		t.Fatalf("Load via middleware failed: %v", err)
	}
	if loadedState.Answers["q1"] != "Senior Manager" || loadedState.CurrentNodeID != "q2" {
		t.Errorf("Unexpected decrypted state: %+v", loadedState)
	}
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlyingStore := NewMockStore()
	oldKey := generateKey(t)
	newKey := generateKey(t)

	secureStoreOld := wrap(t, underlyingStore, middleware.EncryptionConfig{ActiveKey: oldKey})

	ctx := context.Background()
	sessionID := "rotation-session"
	originalState := domain.NewState(sessionID, "q1")
	originalState.Answers["q0"] = "encrypted-with-old-key"

	if err := secureStoreOld.Save(ctx, sessionID, originalState); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	secureStoreNew := wrap(t, underlyingStore, middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})

	loadedState, err := secureStoreNew.Load(ctx, sessionID)
	if err != nil {
		t.Fatalf("Load with rotated key failed: %v", err)
	}
	if loadedState.Answers["q0"] != "encrypted-with-old-key" {
		t.Errorf("Decryption with fallback key failed")
	}

	loadedState.Answers["q0"] = "encrypted-with-new-key"
	if err := secureStoreNew.Save(ctx, sessionID, loadedState); err != nil {
		t.Fatalf("Save with new key failed: %v", err)
	}

	if _, err := secureStoreOld.Load(ctx, sessionID); err == nil {
		t.Error("Expected failure when loading new-key encryption with old-key middleware")
	}
}

func TestEncryptionMiddleware_RejectsPlainState(t *testing.T) {
	underlyingStore := NewMockStore()
	_ = underlyingStore.Save(context.Background(), "plain", domain.NewState("plain", "q1"))

	secureStore := wrap(t, underlyingStore, middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	if _, err := secureStore.Load(context.Background(), "plain"); err != middleware.ErrMissingEnvelope {
		t.Errorf("Expected ErrMissingEnvelope, got %v", err)
	}
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	_, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")})
	if err != middleware.ErrInvalidKey {
		t.Errorf("Expected ErrInvalidKey, got %v", err)
	}
}

func TestParseKey(t *testing.T) {
	key := generateKey(t)

	got, err := middleware.ParseKey(hex.EncodeToString(key))
	if err != nil || string(got) != string(key) {
		t.Errorf("hex key not parsed: %v", err)
	}
	if _, err := middleware.ParseKey("too-short"); err == nil {
		t.Error("Expected error for short key")
	}
}

package auth

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	ctx := context.Background()

	sess := Session{Token: NewToken(), AccountID: 7, Username: "admin"}
	if err := store.Put(ctx, sess, time.Minute); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}

	got, ok, err := store.Get(ctx, sess.Token)
	if err != nil || !ok {
		t.Fatalf("Get() = %v, %v, %v", got, ok, err)
	}
	if got != sess {
		t.Errorf("Get() = %+v, want %+v", got, sess)
	}
}

func TestMemoryStoreMiss(t *testing.T) {
	store := NewMemoryStore(time.Minute)

	_, ok, err := store.Get(context.Background(), "no-such-token")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if ok {
		t.Error("Get() reported a hit for an absent token")
	}
}

func TestMemoryStoreDeleteIdempotent(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	ctx := context.Background()

	sess := Session{Token: NewToken(), AccountID: 1, Username: "admin"}
	if err := store.Put(ctx, sess, time.Minute); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}

	if err := store.Delete(ctx, sess.Token); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if _, ok, _ := store.Get(ctx, sess.Token); ok {
		t.Error("session survived Delete()")
	}
	// Deleting an already-absent token still succeeds.
	if err := store.Delete(ctx, sess.Token); err != nil {
		t.Errorf("second Delete() failed: %v", err)
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	ctx := context.Background()

	sess := Session{Token: NewToken(), AccountID: 1, Username: "admin"}
	if err := store.Put(ctx, sess, 10*time.Millisecond); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}

	time.Sleep(20 * time.Millisecond)
	if _, ok, _ := store.Get(ctx, sess.Token); ok {
		t.Error("session still live past its TTL")
	}
}

func TestNewTokenUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		tok := NewToken()
		if tok == "" || seen[tok] {
			t.Fatalf("NewToken() produced empty or repeated token %q", tok)
		}
		seen[tok] = true
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("1234")
	if err != nil {
		t.Fatalf("HashPassword() failed: %v", err)
	}
	if hash == "1234" {
		t.Fatal("HashPassword() stored the plaintext")
	}
	if !CheckPassword(hash, "1234") {
		t.Error("CheckPassword() rejected the right password")
	}
	if CheckPassword(hash, "4321") {
		t.Error("CheckPassword() accepted the wrong password")
	}
}

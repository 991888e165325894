package core

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSessionManager(t *testing.T) {
	t.Run("create then get", func(t *testing.T) {
		m := NewSessionManager(time.Hour)
		sess := m.Create()
		if sess.ID == "" {
			t.Fatal("session id is empty")
		}
		got, err := m.Get(sess.ID)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got != sess {
			t.Error("Get() returned a different session")
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		m := NewSessionManager(time.Hour)
		if _, err := m.Get("missing"); !errors.Is(err, ErrSessionNotFound) {
			t.Errorf("Get() error = %v, want ErrSessionNotFound", err)
		}
	})

	t.Run("get or create", func(t *testing.T) {
		m := NewSessionManager(time.Hour)
		first, created := m.GetOrCreate("")
		if !created {
			t.Error("empty id should create")
		}
		again, created := m.GetOrCreate(first.ID)
		if created || again != first {
			t.Error("known id should return the existing session")
		}
		_, created = m.GetOrCreate("stale-id")
		if !created {
			t.Error("unknown id should create")
		}
		if m.Len() != 2 {
			t.Errorf("Len() = %d, want 2", m.Len())
		}
	})

	t.Run("sessions have independent stores", func(t *testing.T) {
		m := NewSessionManager(time.Hour)
		a, b := m.Create(), m.Create()
		a.Store().Append(sampleRecord("A"))
		if b.Store().Len() != 0 {
			t.Error("stores are shared between sessions")
		}
	})

	t.Run("sweep removes idle sessions", func(t *testing.T) {
		now := time.Date(2024, 4, 5, 9, 0, 0, 0, time.UTC)
		m := NewSessionManager(time.Hour)
		m.now = func() time.Time { return now }

		idle := m.Create()
		now = now.Add(50 * time.Minute)
		active := m.Create()
		now = now.Add(20 * time.Minute)

		if removed := m.Sweep(); removed != 1 {
			t.Errorf("Sweep() = %d, want 1", removed)
		}
		if _, err := m.Get(idle.ID); !errors.Is(err, ErrSessionNotFound) {
			t.Error("idle session survived sweep")
		}
		if _, err := m.Get(active.ID); err != nil {
			t.Errorf("active session removed: %v", err)
		}
	})
}

func TestSession_BeginIsExclusive(t *testing.T) {
	sess := NewSessionManager(0).Create()

	release, err := sess.begin(context.Background())
	if err != nil {
		t.Fatalf("begin() error = %v", err)
	}

	if _, err := sess.begin(context.Background()); !errors.Is(err, ErrOperationInProgress) {
		t.Errorf("second begin() error = %v, want ErrOperationInProgress", err)
	}

	release()

	release, err = sess.begin(context.Background())
	if err != nil {
		t.Fatalf("begin() after release error = %v", err)
	}
	release()
}

package core

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

// waitForRenders polls until n document renders hold a slot.
func waitForRenders(t *testing.T, svc *Service, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for svc.RenderStatus().Active != n {
		if time.Now().After(deadline) {
			t.Fatalf("active renders = %d, want %d", svc.RenderStatus().Active, n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func newGatedService(t *testing.T, renderer DocumentRenderer, slots int, wait time.Duration) (*Service, *memorySink) {
	t.Helper()
	sink := &memorySink{}
	svc, err := NewService(renderer, sink, ServiceConfig{
		MaxConcurrentRenders: slots,
		RenderWaitTime:       wait,
	})
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	svc.now = func() time.Time { return fixedNow }
	return svc, sink
}

func TestRenderGate_SaturatedExportIsTurnedAway(t *testing.T) {
	renderer := &fakeRenderer{block: make(chan struct{})}
	svc, sink := newGatedService(t, renderer, 1, 50*time.Millisecond)

	first := svc.Sessions().Create()
	second := svc.Sessions().Create()

	done := make(chan error, 1)
	go func() {
		_, err := svc.ExportPDF(context.Background(), first, Form{Identifier: "A"})
		done <- err
	}()
	waitForRenders(t, svc, 1)

	if status := svc.RenderStatus(); status.Available != 0 || status.MaxConcurrent != 1 {
		t.Errorf("RenderStatus() = %+v, want no free slots of 1", status)
	}

	_, err := svc.ExportPDF(context.Background(), second, Form{Identifier: "B"})
	if !errors.Is(err, ErrTooManyRenders) {
		t.Fatalf("ExportPDF() on a full gate error = %v, want ErrTooManyRenders", err)
	}
	if second.Store().Len() != 0 {
		t.Errorf("turned-away export grew the store to %d", second.Store().Len())
	}
	if ev := sink.last(); ev.Success || ev.SessionID != second.ID {
		t.Errorf("audit event = %+v, want failure for the second session", ev)
	}

	// CSV exports do not render a document and are not gated.
	if _, err := svc.ExportCSV(context.Background(), second, Form{Identifier: "B"}); err != nil {
		t.Errorf("ExportCSV() while renders are saturated error = %v", err)
	}

	close(renderer.block)
	if err := <-done; err != nil {
		t.Fatalf("first ExportPDF() error = %v", err)
	}
}

func TestRenderGate_WaiterGetsFreedSlot(t *testing.T) {
	renderer := &fakeRenderer{block: make(chan struct{})}
	svc, _ := newGatedService(t, renderer, 1, 2*time.Second)

	results := make(chan error, 2)
	for _, id := range []string{"A", "B"} {
		id := id
		sess := svc.Sessions().Create()
		go func() {
			_, err := svc.ExportXLSX(context.Background(), sess, Form{Identifier: id})
			results <- err
		}()
	}
	waitForRenders(t, svc, 1)

	// One render holds the slot and the other waits; unblocking lets both
	// finish within the wait.
	close(renderer.block)
	for i := 0; i < 2; i++ {
		if err := <-results; err != nil {
			t.Errorf("ExportXLSX() error = %v", err)
		}
	}
	if got := svc.RenderStatus().Active; got != 0 {
		t.Errorf("active renders after completion = %d, want 0", got)
	}
}

func TestRenderGate_CancelledWaitIsNotBusy(t *testing.T) {
	renderer := &fakeRenderer{block: make(chan struct{})}
	defer close(renderer.block)
	svc, _ := newGatedService(t, renderer, 1, time.Minute)

	go func() {
		_, _ = svc.ExportPDF(context.Background(), svc.Sessions().Create(), Form{})
	}()
	waitForRenders(t, svc, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	sess := svc.Sessions().Create()
	_, err := svc.ExportPDF(ctx, sess, Form{Identifier: "late"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("ExportPDF() error = %v, want context.DeadlineExceeded", err)
	}
	if errors.Is(err, ErrTooManyRenders) {
		t.Error("request deadline reported as a busy gate")
	}
	if sess.Store().Len() != 0 {
		t.Errorf("store len = %d, want 0", sess.Store().Len())
	}
}

func TestRenderGate_WaitForExports(t *testing.T) {
	t.Run("returns once renders finish", func(t *testing.T) {
		renderer := &fakeRenderer{block: make(chan struct{})}
		svc, _ := newGatedService(t, renderer, 2, time.Second)

		go func() {
			_, _ = svc.ExportPDF(context.Background(), svc.Sessions().Create(), Form{})
		}()
		waitForRenders(t, svc, 1)

		drained := make(chan error, 1)
		go func() { drained <- svc.WaitForExports(context.Background()) }()

		select {
		case err := <-drained:
			t.Fatalf("WaitForExports() returned %v while a render was active", err)
		case <-time.After(30 * time.Millisecond):
		}

		close(renderer.block)
		select {
		case err := <-drained:
			if err != nil {
				t.Errorf("WaitForExports() error = %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("WaitForExports() did not return after the render finished")
		}
	})

	t.Run("gives up with the context", func(t *testing.T) {
		renderer := &fakeRenderer{block: make(chan struct{})}
		defer close(renderer.block)
		svc, _ := newGatedService(t, renderer, 2, time.Second)

		go func() {
			_, _ = svc.ExportPDF(context.Background(), svc.Sessions().Create(), Form{})
		}()
		waitForRenders(t, svc, 1)

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		if err := svc.WaitForExports(ctx); !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("WaitForExports() error = %v, want context.DeadlineExceeded", err)
		}
	})

	t.Run("idle service returns immediately", func(t *testing.T) {
		svc, _ := newGatedService(t, &fakeRenderer{}, 0, 0)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if err := svc.WaitForExports(ctx); err != nil {
			t.Errorf("WaitForExports() on idle service error = %v", err)
		}
	})
}

func TestSessionGate_ImportDuringExport(t *testing.T) {
	renderer := &fakeRenderer{block: make(chan struct{})}
	svc, sink := newGatedService(t, renderer, 2, time.Second)
	busy := svc.Sessions().Create()
	other := svc.Sessions().Create()

	done := make(chan error, 1)
	go func() {
		_, err := svc.ExportPDF(context.Background(), busy, Form{Identifier: "A"})
		done <- err
	}()
	waitForRenders(t, svc, 1)

	csv := testHeader + "\nB1,t,l,u,e,d,s,r"
	if _, err := svc.Import(context.Background(), busy, "x.csv", strings.NewReader(csv)); !errors.Is(err, ErrOperationInProgress) {
		t.Errorf("Import() on busy session error = %v, want ErrOperationInProgress", err)
	}
	if ev := sink.last(); ev.Action != ActionImport || ev.Success {
		t.Errorf("audit event = %+v, want failed import", ev)
	}

	// Sessions are gated independently.
	if _, err := svc.Import(context.Background(), other, "x.csv", strings.NewReader(csv)); err != nil {
		t.Errorf("Import() on another session error = %v", err)
	}
	if other.Store().Len() != 1 {
		t.Errorf("other store len = %d, want 1", other.Store().Len())
	}

	close(renderer.block)
	if err := <-done; err != nil {
		t.Fatalf("ExportPDF() error = %v", err)
	}

	// The slot is free again once the export returned.
	if _, err := svc.Import(context.Background(), busy, "x.csv", strings.NewReader(csv)); err != nil {
		t.Errorf("Import() after export error = %v", err)
	}
}

func TestOperationGate_ReleaseIsIdempotent(t *testing.T) {
	gate := newSessionGate()

	release, err := gate.Enter(context.Background())
	if err != nil {
		t.Fatalf("Enter() error = %v", err)
	}
	release()
	release()

	if got := gate.Status(); got.Active != 0 || got.Available != 1 {
		t.Errorf("Status() after double release = %+v, want idle", got)
	}
	release, err = gate.Enter(context.Background())
	if err != nil {
		t.Fatalf("Enter() after release error = %v", err)
	}
	release()
}

func TestNewOperationGate_Defaults(t *testing.T) {
	tests := []struct {
		name  string
		gate  *OperationGate
		slots int
	}{
		{"render gate", newRenderGate(0, 0), DefaultMaxConcurrentRenders},
		{"render gate configured", newRenderGate(3, time.Second), 3},
		{"session gate", newSessionGate(), 1},
		{"non-positive slots", NewOperationGate(-1, 0, ErrOperationInProgress), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.gate.Status().MaxConcurrent; got != tt.slots {
				t.Errorf("MaxConcurrent = %d, want %d", got, tt.slots)
			}
		})
	}

	if got := newRenderGate(0, 0).wait; got != DefaultRenderWaitTime {
		t.Errorf("render gate wait = %v, want %v", got, DefaultRenderWaitTime)
	}
}

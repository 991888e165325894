package core

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeScanner struct {
	reading TagReading
	err     error
	delay   time.Duration
}

func (f fakeScanner) ScanTag(ctx context.Context) (TagReading, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return TagReading{}, ctx.Err()
		}
	}
	return f.reading, f.err
}

type fakeLocator struct {
	pos   Position
	err   error
	delay time.Duration
}

func (f fakeLocator) Locate(ctx context.Context) (Position, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return Position{}, ctx.Err()
		}
	}
	return f.pos, f.err
}

func TestAcquire(t *testing.T) {
	ctx := context.Background()
	okTag := fakeScanner{reading: TagReading{Identifier: "04:A1:B2"}}
	okPos := fakeLocator{pos: Position{Latitude: 25.033, Longitude: 121.5654}}

	t.Run("both succeed", func(t *testing.T) {
		tag, pos, err := Acquire(ctx, okTag, okPos)
		if err != nil {
			t.Fatalf("Acquire() error = %v", err)
		}
		if tag.Identifier != "04:A1:B2" {
			t.Errorf("Identifier = %q", tag.Identifier)
		}
		if pos.String() != "25.033000, 121.565400" {
			t.Errorf("Position = %q", pos.String())
		}
	})

	failures := []struct {
		name        string
		scanner     TagScanner
		locator     Locator
		wantKind    error
		wantSensor  string
		wantMessage string
	}{
		{
			name:        "location denied after tag succeeds",
			scanner:     okTag,
			locator:     fakeLocator{err: NewSensorError(SensorLocation, ErrPermissionDenied, MsgLocationDenied)},
			wantKind:    ErrPermissionDenied,
			wantSensor:  SensorLocation,
			wantMessage: MsgLocationDenied,
		},
		{
			name:        "tag unsupported",
			scanner:     fakeScanner{err: NewSensorError(SensorTag, ErrSensorUnsupported, MsgTagUnsupported)},
			locator:     okPos,
			wantKind:    ErrSensorUnsupported,
			wantSensor:  SensorTag,
			wantMessage: MsgTagUnsupported,
		},
		{
			name:        "plain location error becomes acquisition failure",
			scanner:     okTag,
			locator:     fakeLocator{err: errors.New("position unavailable")},
			wantKind:    ErrAcquisitionFailed,
			wantSensor:  SensorLocation,
			wantMessage: MsgLocationFailed,
		},
		{
			name:        "plain tag error becomes acquisition failure",
			scanner:     fakeScanner{err: errors.New("read aborted")},
			locator:     fakeLocator{pos: Position{}, delay: time.Second},
			wantKind:    ErrAcquisitionFailed,
			wantSensor:  SensorTag,
			wantMessage: MsgTagFailed,
		},
	}

	for _, tt := range failures {
		t.Run(tt.name, func(t *testing.T) {
			tag, pos, err := Acquire(ctx, tt.scanner, tt.locator)
			if !errors.Is(err, tt.wantKind) {
				t.Fatalf("Acquire() error = %v, want kind %v", err, tt.wantKind)
			}
			var se *SensorError
			if !errors.As(err, &se) {
				t.Fatalf("error %T is not a *SensorError", err)
			}
			if se.Sensor != tt.wantSensor || se.Message != tt.wantMessage {
				t.Errorf("SensorError = %+v", se)
			}
			if tag != (TagReading{}) || pos != (Position{}) {
				t.Errorf("partial result returned: %+v %+v", tag, pos)
			}
		})
	}
}

func TestAcquire_FailureCancelsOtherSensor(t *testing.T) {
	start := time.Now()
	_, _, err := Acquire(context.Background(),
		fakeScanner{err: NewSensorError(SensorTag, ErrSensorUnsupported, MsgTagUnsupported)},
		fakeLocator{delay: 10 * time.Second},
	)
	if !errors.Is(err, ErrSensorUnsupported) {
		t.Fatalf("Acquire() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("Acquire() waited %v for the cancelled sensor", elapsed)
	}
}

func TestAcquire_CallerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := Acquire(ctx, fakeScanner{delay: time.Second}, fakeLocator{delay: time.Second})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Acquire() error = %v, want context.Canceled", err)
	}
}

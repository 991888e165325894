package core

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// User-facing causes reported when a sensor fails.
const (
	MsgTagUnsupported      = "此瀏覽器不支援 Web NFC"
	MsgLocationUnsupported = "您的瀏覽器不支援地理定位功能"
	MsgLocationDenied      = "您已拒絕 GPS 權限"
	MsgLocationFailed      = "無法取得 GPS 位置"
	MsgTagFailed           = "無法讀取 NFC 標籤"
)

// Sensor names used in SensorError.
const (
	SensorTag      = "nfc"
	SensorLocation = "gps"
)

// TagReading is the result of a near-field tag scan.
type TagReading struct {
	Identifier string `json:"identifier"`
}

// Position is a geolocation fix in decimal degrees.
type Position struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// String formats the position the way it is stored in a record,
// six decimals each, comma-space separated.
func (p Position) String() string {
	return fmt.Sprintf("%.6f, %.6f", p.Latitude, p.Longitude)
}

// TagScanner acquires a tag identifier. Implementations may block until the
// tag is presented; they should return when ctx is done.
type TagScanner interface {
	ScanTag(ctx context.Context) (TagReading, error)
}

// Locator acquires the device position.
type Locator interface {
	Locate(ctx context.Context) (Position, error)
}

// SensorError reports a failed acquisition. Kind is one of
// ErrSensorUnsupported, ErrPermissionDenied or ErrAcquisitionFailed and
// Message is the cause shown to the user.
type SensorError struct {
	Sensor  string
	Kind    error
	Message string
}

func (e *SensorError) Error() string {
	return fmt.Sprintf("%s: %v: %s", e.Sensor, e.Kind, e.Message)
}

func (e *SensorError) Unwrap() error {
	return e.Kind
}

// NewSensorError builds a SensorError, defaulting Kind to
// ErrAcquisitionFailed.
func NewSensorError(sensor string, kind error, message string) *SensorError {
	if kind == nil {
		kind = ErrAcquisitionFailed
	}
	return &SensorError{Sensor: sensor, Kind: kind, Message: message}
}

// ScanResult is what a successful acquisition writes into the form.
type ScanResult struct {
	Identifier string   `json:"identifier"`
	Location   string   `json:"location"`
	Position   Position `json:"position"`
	Timestamp  string   `json:"timestamp"`
}

// Acquire runs the tag scan and the location fix concurrently and waits for
// both. If either fails the combined call fails with that sensor's error;
// a partial success is never returned. There is no internal timeout.
func Acquire(ctx context.Context, scanner TagScanner, locator Locator) (TagReading, Position, error) {
	var (
		tag TagReading
		pos Position
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := scanner.ScanTag(gctx)
		if err != nil {
			return asSensorError(SensorTag, err, MsgTagFailed)
		}
		tag = r
		return nil
	})
	g.Go(func() error {
		p, err := locator.Locate(gctx)
		if err != nil {
			return asSensorError(SensorLocation, err, MsgLocationFailed)
		}
		pos = p
		return nil
	})

	if err := g.Wait(); err != nil {
		return TagReading{}, Position{}, err
	}
	return tag, pos, nil
}

// asSensorError keeps an existing SensorError and wraps anything else as an
// acquisition failure with fallback as the user message.
func asSensorError(sensor string, err error, fallback string) error {
	var se *SensorError
	if errors.As(err, &se) {
		return se
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &SensorError{Sensor: sensor, Kind: ErrAcquisitionFailed, Message: fallback}
}

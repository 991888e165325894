package web

import (
	"context"

	"github.com/JonMunkholm/fieldform/internal/core"
)

// Sensor error kinds the browser reports when a reading fails.
const (
	kindUnsupported = "unsupported"
	kindDenied      = "denied"
	kindFailed      = "failed"
)

// sensorFailure is the browser's account of a failed reading. Message is
// optional and replaces the default cause text.
type sensorFailure struct {
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// tagReport is what the page posts for the NFC half of a scan.
type tagReport struct {
	sensorFailure
	Identifier string `json:"identifier,omitempty"`
}

// locationReport is what the page posts for the GPS half of a scan.
type locationReport struct {
	sensorFailure
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// scanRequest is the body of POST /api/scan. The browser owns the sensors;
// the server joins the two outcomes all-or-nothing.
type scanRequest struct {
	Tag      *tagReport      `json:"tag"`
	Location *locationReport `json:"location"`
}

// reportedTag replays a tagReport as a core.TagScanner.
type reportedTag struct{ report *tagReport }

func (t reportedTag) ScanTag(ctx context.Context) (core.TagReading, error) {
	if err := ctx.Err(); err != nil {
		return core.TagReading{}, err
	}
	rep := t.report
	if rep == nil {
		return core.TagReading{}, core.NewSensorError(core.SensorTag, core.ErrAcquisitionFailed, core.MsgTagFailed)
	}
	if rep.Error != "" {
		return core.TagReading{}, rep.sensorError(core.SensorTag, core.MsgTagUnsupported, core.MsgTagFailed, core.MsgTagFailed)
	}
	if rep.Identifier == "" {
		return core.TagReading{}, core.NewSensorError(core.SensorTag, core.ErrAcquisitionFailed, core.MsgTagFailed)
	}
	return core.TagReading{Identifier: rep.Identifier}, nil
}

// reportedLocation replays a locationReport as a core.Locator.
type reportedLocation struct{ report *locationReport }

func (l reportedLocation) Locate(ctx context.Context) (core.Position, error) {
	if err := ctx.Err(); err != nil {
		return core.Position{}, err
	}
	rep := l.report
	if rep == nil {
		return core.Position{}, core.NewSensorError(core.SensorLocation, core.ErrAcquisitionFailed, core.MsgLocationFailed)
	}
	if rep.Error != "" {
		return core.Position{}, rep.sensorError(core.SensorLocation, core.MsgLocationUnsupported, core.MsgLocationDenied, core.MsgLocationFailed)
	}
	if rep.Latitude == nil || rep.Longitude == nil {
		return core.Position{}, core.NewSensorError(core.SensorLocation, core.ErrAcquisitionFailed, core.MsgLocationFailed)
	}
	return core.Position{Latitude: *rep.Latitude, Longitude: *rep.Longitude}, nil
}

// sensorError converts the reported kind to a core.SensorError, using the
// matching default cause when the browser sent no message.
func (f sensorFailure) sensorError(sensor, unsupported, denied, failed string) error {
	kind, msg := core.ErrAcquisitionFailed, failed
	switch f.Error {
	case kindUnsupported:
		kind, msg = core.ErrSensorUnsupported, unsupported
	case kindDenied:
		kind, msg = core.ErrPermissionDenied, denied
	}
	if f.Message != "" {
		msg = f.Message
	}
	return core.NewSensorError(sensor, kind, msg)
}

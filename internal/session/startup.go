package session

import (
	"context"
	"fmt"

	"github.com/signalsfoundry/geospatial-navigator/internal/logging"
	"github.com/signalsfoundry/geospatial-navigator/internal/task"
	"github.com/signalsfoundry/geospatial-navigator/model"
)

// runLocationStartup brings the location service up. It runs off the tick
// goroutine and reports user-facing problems as events.
func (s *Session) runLocationStartup(ctx context.Context) ([]model.Event, error) {
	loc := s.deps.Location

	if err := s.ensurePermission(ctx, model.PermissionFineLocation); err != nil {
		return nil, err
	}
	if !loc.EnabledByUser() {
		return []model.Event{{Type: model.EventLocationDisabled}}, nil
	}

	loc.Start()
	err := task.WaitUntil(ctx, s.cfg.PollInterval, func() bool {
		return loc.Status() != model.LocationInitializing
	})
	if err != nil {
		return nil, err
	}

	if status := loc.Status(); status != model.LocationRunning {
		loc.Stop()
		return []model.Event{{Type: model.EventLocationUnavailable, Message: status.String()}}, nil
	}
	return nil, nil
}

// runAvailability walks the tracking subsystem through availability and
// install, checks camera permission, then asks for positioning coverage at
// the device's location once the location service is up.
func (s *Session) runAvailability(ctx context.Context) ([]model.Event, error) {
	tracker := s.deps.Tracker

	if tracker.SessionStatus() == model.SessionUninitialized {
		if err := tracker.CheckAvailability(ctx); err != nil {
			return nil, fmt.Errorf("check availability: %w", err)
		}
	}
	if tracker.SessionStatus() == model.SessionNeedsInstall {
		if err := tracker.Install(ctx); err != nil {
			return nil, fmt.Errorf("install tracking support: %w", err)
		}
	}

	if err := s.ensurePermission(ctx, model.PermissionCamera); err != nil {
		return nil, err
	}
	if !s.deps.Permissions.Has(model.PermissionCamera) {
		return []model.Event{{Type: model.EventCameraPermissionDenied}}, nil
	}

	err := task.WaitUntil(ctx, s.cfg.PollInterval, func() bool {
		return !s.locationStartup.Running()
	})
	if err != nil {
		return nil, err
	}
	if status := s.deps.Location.Status(); status != model.LocationRunning {
		return []model.Event{{Type: model.EventLocationUnavailable, Message: status.String()}}, nil
	}

	lat, lon := s.deps.Location.LastReading()
	vps, err := tracker.CheckVPSAvailability(ctx, lat, lon)
	if err != nil {
		return nil, fmt.Errorf("check positioning coverage: %w", err)
	}
	return []model.Event{{Type: model.EventVPSAvailability, Message: vps.String()}}, nil
}

// ensurePermission prompts for p when missing and waits out the grace delay
// so the answer has a chance to land. The caller re-checks Has afterwards.
func (s *Session) ensurePermission(ctx context.Context, p model.Permission) error {
	perms := s.deps.Permissions
	if perms.Has(p) {
		return nil
	}
	perms.Request(p)
	return task.Sleep(ctx, s.cfg.PermissionGrace)
}

func (s *Session) pollStartup(f *Frame) {
	for _, t := range []struct {
		name string
		task *task.Task[[]model.Event]
	}{
		{"location startup", &s.locationStartup},
		{"availability check", &s.availability},
	} {
		events, err, ok := t.task.Poll()
		if !ok {
			continue
		}
		if err != nil {
			s.log.Warn(s.ctx, t.name+" failed", logging.Err(err))
			continue
		}
		for _, ev := range events {
			s.emit(f, ev)
		}
	}
}

package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/soundwave/internal/models"
	"github.com/desertthunder/soundwave/internal/shared"
	"github.com/urfave/cli/v3"
)

// DevicesList enumerates the user's available devices.
func (r *Runner) DevicesList(ctx context.Context, cmd *cli.Command) error {
	app, err := r.open(ctx, nil)
	if err != nil {
		return err
	}
	defer app.Close()

	var list []models.Device
	err = r.authorized(ctx, app, func(ctx context.Context) error {
		list, err = app.Devices.ListDevices(ctx)
		return err
	})
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(list, true)
	}

	if len(list) == 0 {
		return r.writePlain("No devices found. Open Spotify on a phone or computer and try again.\n")
	}

	for _, d := range list {
		marker := " "
		if d.IsActive {
			marker = "*"
		}
		r.writePlain("%s %s %-24s %-12s %s\n", marker, d.Type.Icon(), d.Name, d.Type, d.ID)
	}
	return nil
}

// DevicesSelect transfers playback to the device matching the given ID or name.
func (r *Runner) DevicesSelect(ctx context.Context, cmd *cli.Command) error {
	target := cmd.StringArg("device")
	if target == "" {
		return fmt.Errorf("%w: device ID or name", shared.ErrMissingArgument)
	}

	app, err := r.open(ctx, nil)
	if err != nil {
		return err
	}
	defer app.Close()

	var (
		device models.Device
		active *models.Device
	)
	err = r.authorized(ctx, app, func(ctx context.Context) error {
		if _, err := app.Devices.ListDevices(ctx); err != nil {
			return err
		}
		var ok bool
		if device, ok = app.Devices.Find(target); !ok {
			return fmt.Errorf("%w: no device matches %q", shared.ErrInvalidArgument, target)
		}
		active, err = app.Devices.SelectDevice(ctx, device)
		return err
	})
	if err != nil {
		return err
	}

	if active == nil || active.ID != device.ID {
		return r.writePlain("Transfer to %s requested; it is not active yet\n", device.Name)
	}
	return r.writePlain("✓ Playback transferred to %s %s\n", active.Type.Icon(), active.Name)
}

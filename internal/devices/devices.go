// package devices enumerates remote playback devices and mediates playback transfer.
package devices

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/soundwave/internal/models"
	"github.com/desertthunder/soundwave/internal/shared"
)

// Remote is the subset of the Web API client the coordinator needs.
type Remote interface {
	Devices(ctx context.Context) ([]models.Device, error)
	TransferPlayback(ctx context.Context, deviceID string, play bool) error
}

// Coordinator caches the last successful device enumeration.
//
// The cache only changes on a successful read from the server; a failed transfer never moves
// the active device.
type Coordinator struct {
	remote Remote
	logger *log.Logger

	mu      sync.RWMutex
	devices []models.Device
}

func NewCoordinator(remote Remote, logger *log.Logger) *Coordinator {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Coordinator{remote: remote, logger: shared.WithLogger(logger, "component", "devices")}
}

// ActiveOf returns the first device flagged active, or nil.
func ActiveOf(devices []models.Device) *models.Device {
	for i := range devices {
		if devices[i].IsActive {
			d := devices[i]
			return &d
		}
	}
	return nil
}

// ListDevices fetches the device set and replaces the cache.
func (c *Coordinator) ListDevices(ctx context.Context) ([]models.Device, error) {
	devices, err := c.remote.Devices(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.devices = append([]models.Device(nil), devices...)
	c.mu.Unlock()

	c.logger.Debug("devices listed", "count", len(devices))
	return devices, nil
}

// ActiveDevice returns the active device from the cache without a network call.
func (c *Coordinator) ActiveDevice() *models.Device {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return ActiveOf(c.devices)
}

// Active re-enumerates and returns the active device. No active device is
// [shared.ErrNoActiveDevice].
func (c *Coordinator) Active(ctx context.Context) (*models.Device, error) {
	devices, err := c.ListDevices(ctx)
	if err != nil {
		return nil, err
	}
	active := ActiveOf(devices)
	if active == nil {
		return nil, shared.ErrNoActiveDevice
	}
	return active, nil
}

// SelectDevice transfers playback to device, resuming it there, then re-enumerates to confirm.
// On failure the cached state is untouched and the error wraps [shared.ErrDeviceTransfer].
func (c *Coordinator) SelectDevice(ctx context.Context, device models.Device) (*models.Device, error) {
	if device.ID == "" {
		return nil, fmt.Errorf("%w: device id", shared.ErrMissingArgument)
	}

	if err := c.remote.TransferPlayback(ctx, device.ID, true); err != nil {
		c.logger.Warn("transfer failed", "device", device.Name, "error", err)
		return nil, fmt.Errorf("%w: %s: %w", shared.ErrDeviceTransfer, device.Name, err)
	}

	devices, err := c.remote.Devices(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: confirming %s: %w", shared.ErrDeviceTransfer, device.Name, err)
	}

	c.mu.Lock()
	c.devices = append([]models.Device(nil), devices...)
	c.mu.Unlock()

	active := ActiveOf(devices)
	if active == nil || active.ID != device.ID {
		c.logger.Warn("transfer accepted but device not yet active", "device", device.Name)
	}
	return active, nil
}

// Find looks a device up by ID or case-sensitive name in the cache.
func (c *Coordinator) Find(idOrName string) (models.Device, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, d := range c.devices {
		if d.ID == idOrName || d.Name == idOrName {
			return d, true
		}
	}
	return models.Device{}, false
}

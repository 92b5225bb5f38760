package gpu

import (
	"fmt"

	"github.com/fxnlabs/nvbandwidth/internal/config"
	"go.uber.org/zap"
)

// NewDriver selects and initializes the driver named by cfg.Backend.
//
// With "auto" the CUDA driver is used when the binary was built with the cuda
// tag and at least one device is present; otherwise the run falls back to the
// simulated machine described by cfg.Simulation.
func NewDriver(cfg *config.Config, log *zap.Logger) (Driver, error) {
	switch cfg.Backend {
	case config.BackendSim:
		return newSimDriver(cfg, log)
	case config.BackendCUDA:
		drv := tryCreateCUDADriver(log)
		if drv == nil {
			return nil, fmt.Errorf("backend %q requested but the binary was built without CUDA support", cfg.Backend)
		}
		if err := drv.Init(); err != nil {
			return nil, fmt.Errorf("failed to initialize CUDA driver: %w", err)
		}
		return drv, nil
	case config.BackendAuto:
		if drv := tryCreateCUDADriver(log); drv != nil {
			err := drv.Init()
			if err == nil {
				var n int
				n, err = drv.DeviceCount()
				if err == nil && n > 0 {
					log.Info("Using CUDA driver", zap.Int("devices", n))
					return drv, nil
				}
			}
			log.Warn("CUDA driver not usable, falling back to simulation", zap.Error(err))
			_ = drv.Close()
		}
		return newSimDriver(cfg, log)
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

func newSimDriver(cfg *config.Config, log *zap.Logger) (Driver, error) {
	drv := NewSimDriver(cfg.Simulation, log)
	if err := drv.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize simulated driver: %w", err)
	}
	log.Info("Using simulated driver",
		zap.Int("devices", cfg.Simulation.DeviceCount),
		zap.String("device_name", cfg.Simulation.DeviceName))
	return drv, nil
}

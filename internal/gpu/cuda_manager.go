//go:build cuda
// +build cuda

package gpu

import "go.uber.org/zap"

// tryCreateCUDADriver creates a CUDA driver when cuda build tag is present
func tryCreateCUDADriver(log *zap.Logger) Driver {
	return NewCUDADriver(log)
}

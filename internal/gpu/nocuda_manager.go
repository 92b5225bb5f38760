//go:build !cuda
// +build !cuda

package gpu

import "go.uber.org/zap"

// tryCreateCUDADriver reports that no CUDA driver exists when cuda build tag is NOT present
func tryCreateCUDADriver(*zap.Logger) Driver {
	return nil
}

//go:build !cuda
// +build !cuda

package gpu

import (
	"testing"

	"github.com/fxnlabs/nvbandwidth/internal/config"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestNewDriver_CUDAWithoutSupport(t *testing.T) {
	cfg := config.Default()
	cfg.Backend = config.BackendCUDA

	_, err := NewDriver(cfg, zap.NewNop())
	assert.ErrorContains(t, err, "without CUDA support")
}

// Package fatal ends the process after an error nvbandwidth cannot recover
// from. Registered atexit handlers run first.
package fatal

import (
	"errors"

	"github.com/fxnlabs/nvbandwidth/internal/gpu"
	"github.com/fxnlabs/nvbandwidth/internal/memnode"
	"github.com/tebeka/atexit"
	"go.uber.org/zap"
)

// ExitCode is the status of an aborted run.
const ExitCode = 1

// exit is replaced in tests.
var exit = atexit.Exit

// Abort logs err with what is known about its cause and exits.
func Abort(log *zap.Logger, err error) {
	var drvErr *gpu.Error
	var mismatch *memnode.MismatchError
	switch {
	case errors.As(err, &drvErr):
		log.Error("driver call failed",
			zap.String("call", drvErr.Call),
			zap.Int("code", drvErr.Code),
			zap.String("name", drvErr.Name),
			zap.Error(err))
	case errors.As(err, &mismatch):
		fields := []zap.Field{
			zap.String("node", mismatch.Node),
			zap.Uint64("size", mismatch.Size),
			zap.Uint64("mismatches", mismatch.Count),
		}
		for _, m := range mismatch.First {
			fields = append(fields, zap.Uint64("offset", m.Offset))
		}
		log.Error("data verification failed", append(fields, zap.Error(err))...)
	default:
		log.Error("test case failed", zap.Error(err))
	}
	exit(ExitCode)
}

// Handler returns Abort bound to log.
func Handler(log *zap.Logger) func(error) {
	return func(err error) {
		Abort(log, err)
	}
}

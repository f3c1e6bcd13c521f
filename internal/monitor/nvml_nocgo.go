//go:build !cgo

package monitor

import (
	"context"

	"github.com/rileyhilliard/gpugraph/internal/logger"
)

// NVMLSampler is a stand-in for builds without cgo: NVML can't be loaded,
// so every slot is always Unavailable.
type NVMLSampler struct {
	log logger.Logger
}

// NewNVMLSampler creates the cgo-less stand-in.
func NewNVMLSampler(log logger.Logger) *NVMLSampler {
	if log == nil {
		log = logger.Noop()
	}
	return &NVMLSampler{log: log}
}

// Name returns "nvml".
func (s *NVMLSampler) Name() string { return "nvml" }

// Close is a no-op.
func (s *NVMLSampler) Close() error { return nil }

// Sample implements Sampler.
func (s *NVMLSampler) Sample(_ context.Context, maxSlots int) Batch {
	s.log.Debug("nvml unavailable: built without cgo")
	if maxSlots <= 0 {
		return Batch{}
	}
	return NewBatch(maxSlots)
}

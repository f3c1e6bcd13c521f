//go:build cgo

package monitor

import (
	"context"
	"fmt"
	"sync"

	"github.com/NVIDIA/go-nvml/pkg/nvml"

	"github.com/rileyhilliard/gpugraph/internal/logger"
)

// NVMLSampler reads utilization straight from the NVIDIA management library.
// Device index N fills slot N. If the library can't be loaded every slot is
// Unavailable, and the next Sample tries again.
type NVMLSampler struct {
	mu          sync.Mutex
	initialized bool
	log         logger.Logger
}

// NewNVMLSampler creates an NVML-backed sampler. The library is loaded on first use.
func NewNVMLSampler(log logger.Logger) *NVMLSampler {
	if log == nil {
		log = logger.Noop()
	}
	return &NVMLSampler{log: log}
}

// Name returns "nvml".
func (s *NVMLSampler) Name() string { return "nvml" }

// Close shuts the library down if it was loaded.
func (s *NVMLSampler) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return nil
	}
	s.initialized = false
	if ret := nvml.Shutdown(); ret != nvml.SUCCESS {
		return fmt.Errorf("nvml shutdown failed: %s", nvml.ErrorString(ret))
	}
	return nil
}

func (s *NVMLSampler) init() error {
	if s.initialized {
		return nil
	}
	if ret := nvml.Init(); ret != nvml.SUCCESS {
		return fmt.Errorf("nvml init failed: %s", nvml.ErrorString(ret))
	}
	s.initialized = true
	return nil
}

// Sample implements Sampler.
func (s *NVMLSampler) Sample(_ context.Context, maxSlots int) Batch {
	batch := NewBatch(maxSlots)
	if maxSlots <= 0 {
		return batch
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.init(); err != nil {
		s.log.Debug("nvml unavailable: %v", err)
		return batch
	}

	count, ret := nvml.DeviceGetCount()
	if ret != nvml.SUCCESS {
		s.log.Debug("nvml device count failed: %s", nvml.ErrorString(ret))
		return batch
	}

	for i := 0; i < count && i < maxSlots; i++ {
		dev, ret := nvml.DeviceGetHandleByIndex(i)
		if ret != nvml.SUCCESS {
			continue
		}
		util, ret := dev.GetUtilizationRates()
		if ret != nvml.SUCCESS {
			continue
		}
		batch[i] = float64(util.Gpu) / 100.0
	}

	return batch
}

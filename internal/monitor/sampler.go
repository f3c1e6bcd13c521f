package monitor

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"time"

	"github.com/rileyhilliard/gpugraph/internal/logger"
	"github.com/rileyhilliard/gpugraph/internal/monitor/parsers"
)

// Sampler produces one Batch per call.
//
// Sample never fails. Whatever goes wrong (tool missing, garbled output,
// fewer devices than slots) shows up as Unavailable slots in the batch.
type Sampler interface {
	Sample(ctx context.Context, maxSlots int) Batch
	Name() string
	Close() error
}

// CommandSampler runs a text-producing command and scans its output.
//
// Lines that parse are assigned to slots in the order they appear: the
// first matching line is slot 0, the second slot 1, and so on. Device IDs
// printed by the tool are not used, so if the tool skips a device every
// later device shifts down one slot.
type CommandSampler struct {
	name    string
	runner  Runner
	command string
	parse   parsers.LineParser
	timeout time.Duration
	log     logger.Logger
}

// CommandSamplerOptions configures a CommandSampler.
type CommandSamplerOptions struct {
	Name    string
	Runner  Runner // defaults to a LocalRunner
	Command string
	Parse   parsers.LineParser
	// Timeout bounds each command run. Zero means no bound: a hung tool
	// stalls its tick until it exits.
	Timeout time.Duration
	Logger  logger.Logger
}

// NewCommandSampler creates a sampler from opts.
func NewCommandSampler(opts CommandSamplerOptions) *CommandSampler {
	if opts.Runner == nil {
		opts.Runner = &LocalRunner{}
	}
	if opts.Parse == nil {
		opts.Parse = parsers.ROCm
	}
	if opts.Logger == nil {
		opts.Logger = logger.Noop()
	}
	if opts.Name == "" {
		opts.Name = "command"
	}
	return &CommandSampler{
		name:    opts.Name,
		runner:  opts.Runner,
		command: opts.Command,
		parse:   opts.Parse,
		timeout: opts.Timeout,
		log:     opts.Logger,
	}
}

// Name returns the sampler's display name.
func (s *CommandSampler) Name() string { return s.name }

// Close releases the runner's connection, if it holds one.
func (s *CommandSampler) Close() error {
	if c, ok := s.runner.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Sample runs the command once and returns maxSlots readings.
func (s *CommandSampler) Sample(ctx context.Context, maxSlots int) Batch {
	if maxSlots <= 0 {
		return Batch{}
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	out, err := s.runner.Run(ctx, s.command)
	if err != nil {
		s.log.Debug("%s unavailable: %v", s.name, err)
		return NewBatch(maxSlots)
	}

	return ScanBatch(bytes.NewReader(out), s.parse, maxSlots)
}

// ScanBatch reads r line by line and fills a batch in encounter order.
// Lines that don't parse are skipped. Scanning stops once maxSlots lines
// have matched; slots left over stay Unavailable.
func ScanBatch(r io.Reader, parse parsers.LineParser, maxSlots int) Batch {
	batch := NewBatch(maxSlots)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), 1024*1024)

	found := 0
	for found < maxSlots && scanner.Scan() {
		v, ok := parse(scanner.Text())
		if !ok {
			continue
		}
		batch[found] = v
		found++
	}

	return batch
}

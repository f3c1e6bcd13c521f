package config

import (
	"fmt"

	"github.com/rileyhilliard/gpugraph/internal/errors"
	"github.com/rileyhilliard/gpugraph/internal/logger"
	"github.com/rileyhilliard/gpugraph/internal/monitor"
)

// NewSampler builds the sampler the config describes. Text sources run
// locally through sh, or over SSH when Host is set.
func (c *Config) NewSampler(log logger.Logger) (monitor.Sampler, error) {
	kind, ok := monitor.ParseSourceKind(c.Source)
	if !ok {
		return nil, errors.New(errors.ErrConfig,
			fmt.Sprintf("Unknown source '%s'", c.Source),
			"Use rocm, nvidia, nvml or command.")
	}

	if kind == monitor.SourceNVML {
		if c.Host != "" {
			return nil, errors.New(errors.ErrConfig,
				"The nvml source only reads local GPUs",
				"Drop 'host', or use the nvidia source to query nvidia-smi over SSH.")
		}
		return monitor.NewNVMLSampler(log), nil
	}

	command := monitor.BuildSourceCommand(kind, c.Command)
	if command == "" {
		return nil, errors.New(errors.ErrConfig,
			"The command source needs a command",
			"Set 'command' in your .gpugraph.yaml.")
	}

	var runner monitor.Runner = &monitor.LocalRunner{}
	name := string(kind)
	if c.Host != "" {
		runner = monitor.NewRemoteRunner(c.Host, 0)
		name = fmt.Sprintf("%s@%s", kind, c.Host)
	}

	return monitor.NewCommandSampler(monitor.CommandSamplerOptions{
		Name:    name,
		Runner:  runner,
		Command: command,
		Parse:   monitor.LineParserFor(kind, c.Marker),
		Timeout: c.SampleTimeout,
		Logger:  log,
	}), nil
}

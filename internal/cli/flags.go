package cli

import (
	"fmt"
	"time"

	"github.com/rileyhilliard/gpugraph/internal/config"
	"github.com/rileyhilliard/gpugraph/internal/errors"
	"github.com/rileyhilliard/gpugraph/internal/logger"
	"github.com/rileyhilliard/gpugraph/internal/monitor"
	"github.com/rileyhilliard/gpugraph/pkg/sshutil"
	"github.com/spf13/cobra"
)

// overrideFlags are config values that can be set per run.
type overrideFlags struct {
	Interval string
	Source   string
	Command  string
	Marker   string
	Host     string
	Timeout  string
}

// addOverrideFlags registers --interval, --source, --command, --marker,
// --host and --timeout on a command.
func addOverrideFlags(cmd *cobra.Command, flags *overrideFlags) {
	cmd.Flags().StringVar(&flags.Interval, "interval", "", "sampling interval (500ms to 10s, in 500ms steps)")
	cmd.Flags().StringVar(&flags.Source, "source", "", "reading source: rocm, nvidia, nvml or command")
	cmd.Flags().StringVar(&flags.Command, "command", "", "command to run instead of the source's built-in tool")
	cmd.Flags().StringVar(&flags.Marker, "marker", "", "text before each usage value (command source)")
	cmd.Flags().StringVar(&flags.Host, "host", "", "sample a remote machine over SSH (alias, host or user@host)")
	cmd.Flags().StringVar(&flags.Timeout, "timeout", "", "give up on a sample after this long (e.g., 3s)")

	_ = cmd.RegisterFlagCompletionFunc("source", completeSources)
	_ = cmd.RegisterFlagCompletionFunc("host", completeHosts)
}

func completeSources(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	out := make([]string, 0, len(monitor.Sources))
	for _, kind := range monitor.Sources {
		out = append(out, string(kind))
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

// completeHosts offers the aliases from ~/.ssh/config.
func completeHosts(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	hosts, err := sshutil.Hosts(sshutil.DefaultConfigPath())
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	out := make([]string, 0, len(hosts))
	for _, h := range hosts {
		out = append(out, h.Alias+"\t"+h.Description())
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

// apply copies the set flags onto cfg.
func (f overrideFlags) apply(cfg *config.Config) error {
	if f.Interval != "" {
		d, err := parseDurationFlag("interval", f.Interval)
		if err != nil {
			return err
		}
		cfg.UpdateInterval = d
	}
	if f.Timeout != "" {
		d, err := parseDurationFlag("timeout", f.Timeout)
		if err != nil {
			return err
		}
		cfg.SampleTimeout = d
	}
	if f.Source != "" {
		cfg.Source = f.Source
	}
	if f.Command != "" {
		cfg.Command = f.Command
	}
	if f.Marker != "" {
		cfg.Marker = f.Marker
	}
	if f.Host != "" {
		cfg.Host = f.Host
	}
	return nil
}

func parseDurationFlag(name, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("'%s' doesn't look like a valid %s", value, name),
			"Try something like 500ms, 2s, or 1.5s.")
	}
	return d, nil
}

// loadConfig finds and loads the config, applies flag overrides and
// validates the result. path is "" when no file was found.
func loadConfig(flags overrideFlags) (cfg *config.Config, path string, err error) {
	cfg, path, err = config.LoadOrDefault(cfgFile)
	if err != nil {
		return nil, "", err
	}
	if err := flags.apply(cfg); err != nil {
		return nil, "", err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// newGraph builds a stopped graph and its sampler from cfg.
func newGraph(cfg *config.Config, log logger.Logger) (*monitor.Graph, error) {
	sampler, err := cfg.NewSampler(log)
	if err != nil {
		return nil, err
	}
	return monitor.NewGraph(monitor.GraphOptions{
		Settings:    cfg.ToSettings(),
		HistorySize: cfg.HistorySize,
		Sampler:     sampler,
		Logger:      log,
	}), nil
}

package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/rileyhilliard/gpugraph/internal/config"
	"github.com/rileyhilliard/gpugraph/internal/errors"
	"github.com/rileyhilliard/gpugraph/internal/monitor"
	"github.com/rileyhilliard/gpugraph/internal/ui"
	"github.com/rileyhilliard/gpugraph/pkg/sshutil"
	"github.com/spf13/cobra"
)

// Canvas size bounds offered by the form.
const (
	minCanvasSize = 50
	maxCanvasSize = 500
)

// localHost is the host picker's "no SSH" choice.
const localHost = ""

var configureGlobal bool

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Edit graph settings interactively",
	Long: `Walk through the graph settings in a form and save them.

Covers canvas size, update interval, where readings come from, and the
enabled flag and color of each GPU slot. Existing comments and unknown keys
in the config file are kept.

Saves to the config file in use, or a new .gpugraph.yaml in the current
directory. Use --global to write ~/.config/gpugraph/config.yaml instead.

Examples:
  gpugraph configure
  gpugraph configure --global`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return configureCommand(configureGlobal)
	},
}

func init() {
	configureCmd.Flags().BoolVar(&configureGlobal, "global", false, "save to ~/.config/gpugraph/config.yaml")
	rootCmd.AddCommand(configureCmd)
}

// formValues holds the form's fields as huh edits them.
type formValues struct {
	Width    string
	Height   string
	Interval time.Duration
	Source   string
	Host     string
	Slots    string
	Enabled  []bool
	Colors   []string
}

func newFormValues(cfg *config.Config) *formValues {
	v := &formValues{
		Width:    strconv.Itoa(cfg.Width),
		Height:   strconv.Itoa(cfg.Height),
		Interval: monitor.ClampInterval(cfg.UpdateInterval),
		Source:   cfg.Source,
		Host:     cfg.Host,
		Slots:    strconv.Itoa(len(cfg.Slots)),
	}
	v.resizeSlots(cfg.Slots)
	return v
}

// resizeSlots sizes Enabled and Colors to the Slots count, seeding them
// from slots and then from the defaults.
func (v *formValues) resizeSlots(slots []config.SlotConfig) {
	n, err := strconv.Atoi(v.Slots)
	if err != nil || n < 1 {
		n = 1
	}
	defaults := config.DefaultSlots()
	v.Enabled = make([]bool, n)
	v.Colors = make([]string, n)
	for i := 0; i < n; i++ {
		switch {
		case i < len(slots):
			v.Enabled[i], v.Colors[i] = slots[i].Enabled, slots[i].Color
		case i < len(defaults):
			v.Enabled[i], v.Colors[i] = defaults[i].Enabled, defaults[i].Color
		default:
			v.Colors[i] = "#ffffff"
		}
	}
}

// apply copies the form onto cfg. The form validates each field, so
// errors here mean a field was skipped.
func (v *formValues) apply(cfg *config.Config) error {
	width, err := strconv.Atoi(strings.TrimSpace(v.Width))
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, "Width must be a number", "")
	}
	height, err := strconv.Atoi(strings.TrimSpace(v.Height))
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, "Height must be a number", "")
	}

	cfg.Width = width
	cfg.Height = height
	cfg.UpdateInterval = v.Interval
	cfg.Source = v.Source
	cfg.Host = strings.TrimSpace(v.Host)
	cfg.Slots = make([]config.SlotConfig, len(v.Enabled))
	for i := range v.Enabled {
		cfg.Slots[i] = config.SlotConfig{Enabled: v.Enabled[i], Color: strings.ToLower(strings.TrimSpace(v.Colors[i]))}
	}
	return config.Validate(cfg)
}

func validateCanvasSize(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("enter a whole number of pixels")
	}
	if n < minCanvasSize || n > maxCanvasSize {
		return fmt.Errorf("must be between %d and %d", minCanvasSize, maxCanvasSize)
	}
	return nil
}

func validateSlotCount(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 || n > config.MaxSlots {
		return fmt.Errorf("enter a number from 1 to %d", config.MaxSlots)
	}
	return nil
}

func validateColor(s string) error {
	s = strings.TrimSpace(s)
	if _, err := colorful.Hex(s); err != nil || len(s) != 7 {
		return fmt.Errorf("use #rrggbb, like #00ff00")
	}
	return nil
}

// intervalOptions lists every selectable interval, 500ms apart.
func intervalOptions() []huh.Option[time.Duration] {
	var opts []huh.Option[time.Duration]
	for d := monitor.MinInterval; d <= monitor.MaxInterval; d += monitor.IntervalStep {
		opts = append(opts, huh.NewOption(d.String(), d))
	}
	return opts
}

func sourceOptions() []huh.Option[string] {
	labels := map[monitor.SourceKind]string{
		monitor.SourceROCm:    "rocm-smi (AMD)",
		monitor.SourceNvidia:  "nvidia-smi (NVIDIA)",
		monitor.SourceNVML:    "NVML library (NVIDIA, local only)",
		monitor.SourceCommand: "custom command",
	}
	var opts []huh.Option[string]
	for _, kind := range monitor.Sources {
		opts = append(opts, huh.NewOption(labels[kind], string(kind)))
	}
	return opts
}

// hostOptions offers "this machine" plus every alias in ~/.ssh/config.
// current is included even when it isn't an alias.
func hostOptions(hosts []sshutil.HostEntry, current string) []huh.Option[string] {
	opts := []huh.Option[string]{huh.NewOption("this machine", localHost)}
	found := current == localHost
	for _, h := range hosts {
		label := h.Alias
		if desc := h.Description(); desc != h.Alias {
			label = fmt.Sprintf("%s (%s)", h.Alias, desc)
		}
		opts = append(opts, huh.NewOption(label, h.Alias))
		if h.Alias == current {
			found = true
		}
	}
	if !found {
		opts = append(opts, huh.NewOption(current, current))
	}
	return opts
}

func configureCommand(global bool) error {
	cfg, path, err := config.LoadOrDefault(cfgFile)
	if err != nil {
		return err
	}
	if global {
		path = config.GlobalConfigPath()
	} else if path == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return err
		}
		path = filepath.Join(cwd, config.ConfigFileName)
	}

	values := newFormValues(cfg)

	hostField := huh.Field(huh.NewInput().
		Title("SSH host").
		Description("Leave empty to sample this machine").
		Placeholder("gpu-box or user@192.168.1.100").
		Value(&values.Host))
	if hosts, err := sshutil.Hosts(sshutil.DefaultConfigPath()); err == nil && len(hosts) > 0 {
		hostField = huh.NewSelect[string]().
			Title("Sample which machine?").
			Options(hostOptions(hosts, values.Host)...).
			Value(&values.Host)
	}

	general := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Width").
				Description(fmt.Sprintf("Canvas width in pixels (%d-%d)", minCanvasSize, maxCanvasSize)).
				Value(&values.Width).
				Validate(validateCanvasSize),
			huh.NewInput().
				Title("Height").
				Description(fmt.Sprintf("Canvas height in pixels (%d-%d)", minCanvasSize, maxCanvasSize)).
				Value(&values.Height).
				Validate(validateCanvasSize),
			huh.NewSelect[time.Duration]().
				Title("Update interval").
				Options(intervalOptions()...).
				Value(&values.Interval),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Reading source").
				Options(sourceOptions()...).
				Value(&values.Source),
			hostField,
			huh.NewInput().
				Title("GPU slots").
				Description(fmt.Sprintf("How many GPUs to track (1-%d)", config.MaxSlots)).
				Value(&values.Slots).
				Validate(validateSlotCount),
		),
	)
	if err := general.Run(); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to get user input",
			"Check terminal compatibility, or edit .gpugraph.yaml by hand")
	}

	values.resizeSlots(cfg.Slots)

	var slotGroups []*huh.Group
	for i := range values.Enabled {
		slotGroups = append(slotGroups, huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Show GPU %d?", i)).
				Value(&values.Enabled[i]),
			huh.NewInput().
				Title(fmt.Sprintf("GPU %d color", i)).
				Description("#rrggbb").
				Value(&values.Colors[i]).
				Validate(validateColor),
		))
	}
	if err := huh.NewForm(slotGroups...).Run(); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to get user input",
			"Check terminal compatibility, or edit .gpugraph.yaml by hand")
	}

	if err := values.apply(cfg); err != nil {
		return err
	}

	if cfg.Host != "" && !confirmHost(cfg.Host) {
		return errors.New(errors.ErrSSH,
			fmt.Sprintf("Not saved: couldn't connect to '%s'", cfg.Host),
			"Check the host is reachable: ssh "+cfg.Host)
	}

	if err := config.Save(path, cfg); err != nil {
		return err
	}
	fmt.Printf("%s Saved %s\n", ui.SymbolSuccess, path)
	return nil
}

// confirmHost tries an SSH connection to host. When it fails the user is
// asked whether to save anyway.
func confirmHost(host string) bool {
	fmt.Println()
	spinner := ui.NewSpinner("Testing connection to " + host)
	spinner.Start()

	client, err := sshutil.Dial(host, 10*time.Second)
	if err == nil {
		client.Close()
		spinner.Success()
		return true
	}
	spinner.Fail()
	fmt.Printf("\n%v\n", err)

	var saveAnyway bool
	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title("Save anyway? (You can fix the connection later)").
			Value(&saveAnyway),
	))
	if err := form.Run(); err != nil {
		return false
	}
	return saveAnyway
}

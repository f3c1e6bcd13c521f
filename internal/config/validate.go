package config

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/rileyhilliard/gpugraph/internal/errors"
	"github.com/rileyhilliard/gpugraph/internal/monitor"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the config for errors and returns the first one as a
// structured CONFIG error.
func Validate(cfg *Config) error {
	if cfg == nil {
		return nil
	}

	if err := validate.Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if stderrors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return errors.New(errors.ErrConfig, describe(fieldErrs[0]), suggest(fieldErrs[0]))
		}
		return errors.WrapWithCode(err, errors.ErrConfig, "Invalid config", "Check your .gpugraph.yaml.")
	}

	if err := validateInterval(cfg); err != nil {
		return err
	}

	for i, slot := range cfg.Slots {
		// colorful.Hex ignores trailing digits, so check the length too.
		if _, err := colorful.Hex(slot.Color); err != nil || (len(slot.Color) != 4 && len(slot.Color) != 7) {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("Slot %d color '%s' isn't a #rrggbb color", i, slot.Color),
				"Use six hex digits, like #00ff00.")
		}
	}

	return nil
}

func validateInterval(cfg *Config) error {
	d := cfg.UpdateInterval
	if d < monitor.MinInterval || d > monitor.MaxInterval {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("update_interval %s is out of range", d),
			fmt.Sprintf("Pick something between %s and %s.", monitor.MinInterval, monitor.MaxInterval))
	}
	if d%monitor.IntervalStep != 0 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("update_interval %s isn't a multiple of %s", d, monitor.IntervalStep),
			fmt.Sprintf("Try %s.", monitor.ClampInterval(d)))
	}
	return nil
}

// describe turns a validator failure into a sentence naming the YAML key.
func describe(fe validator.FieldError) string {
	key := yamlKey(fe)
	switch fe.Tag() {
	case "min":
		return fmt.Sprintf("%s must be at least %s", key, fe.Param())
	case "max":
		if fe.Field() == "Slots" {
			return fmt.Sprintf("Too many slots: at most %s are supported", fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", key, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s '%v' isn't one of: %s", key, fe.Value(), strings.ReplaceAll(fe.Param(), " ", ", "))
	case "required", "required_if":
		return fmt.Sprintf("%s is required", key)
	case "hexcolor":
		return fmt.Sprintf("%s '%v' isn't a hex color", key, fe.Value())
	}
	return fmt.Sprintf("%s is invalid", key)
}

func suggest(fe validator.FieldError) string {
	switch fe.Field() {
	case "Command", "Marker":
		return "The command source needs both 'command' and 'marker' set."
	case "Source":
		return "Use rocm, nvidia, nvml or command."
	case "Color":
		return "Use six hex digits, like #00ff00."
	}
	return "Check your .gpugraph.yaml."
}

// yamlKey maps a struct namespace like Config.Slots[1].Color to slots[1].color.
func yamlKey(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i != -1 {
		ns = ns[i+1:]
	}
	parts := strings.Split(ns, ".")
	for i, p := range parts {
		parts[i] = snake(p)
	}
	return strings.Join(parts, ".")
}

func snake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

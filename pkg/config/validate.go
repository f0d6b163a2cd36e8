package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/google/uuid"
	"gopkg.in/go-playground/validator.v9"
)

// ClientIDPrefix prefixes generated MQTT client IDs
const ClientIDPrefix = "weatherlink-ns-"

// ApplyDefaults fills unset fields from their default tags.  Optional
// sections are only defaulted when present.
func ApplyDefaults(c *ConfigData) error {
	if err := defaults.Set(c); err != nil {
		return fmt.Errorf("failed to set default field values: %w", err)
	}
	if c.REST != nil {
		if err := defaults.Set(c.REST); err != nil {
			return fmt.Errorf("failed to set default field values: %w", err)
		}
	}
	if c.Storage.TimescaleDB != nil {
		if err := defaults.Set(c.Storage.TimescaleDB); err != nil {
			return fmt.Errorf("failed to set default field values: %w", err)
		}
	}
	if c.Host.ClientID == "" {
		c.Host.ClientID = ClientIDPrefix + uuid.New().String()[:8]
	}
	return nil
}

// Validate checks a configuration with defaults applied
func Validate(c *ConfigData) error {
	v := validator.New()
	for name, fn := range map[string]validator.Func{
		"duration": duration,
		"port":     port,
	} {
		if err := v.RegisterValidation(name, fn); err != nil {
			return fmt.Errorf("failed to register validator type %s: %w", name, err)
		}
	}

	err := v.Struct(c)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s (%s)", e.Namespace(), e.Tag()))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, ", "))
}

// Intervals returns the parsed short and long poll intervals
func (p PollingData) Intervals() (short, long time.Duration, err error) {
	if short, err = time.ParseDuration(p.ShortPoll); err != nil {
		return 0, 0, fmt.Errorf("short-poll: %w", err)
	}
	if long, err = time.ParseDuration(p.LongPoll); err != nil {
		return 0, 0, fmt.Errorf("long-poll: %w", err)
	}
	return short, long, nil
}

// Go duration of at least one second
func duration(fl validator.FieldLevel) bool {
	d, err := time.ParseDuration(fl.Field().String())
	return err == nil && d >= time.Second
}

func port(fl validator.FieldLevel) bool {
	p := fl.Field().Int()
	return p > 0 && p <= 65535
}

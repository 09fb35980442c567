package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/loog-project/rulist/internal/ui"
)

// config is the merged view of flags, RULIST_* environment variables and the config file.
type config struct {
	Endpoint      string
	PageSize      int
	Timeout       time.Duration
	Feedback      bool
	FeedbackDelay time.Duration
	Layout        ui.Layout
	Filter        string

	RecordFile  string
	DurableSync bool

	RateLimit float64
	RateBurst int

	Headless bool
	Debug    bool
	Truncate bool
}

func loadConfig() (*config, error) {
	layout, err := ui.ParseLayout(viper.GetString("layout"))
	if err != nil {
		return nil, err
	}
	c := &config{
		Endpoint:      viper.GetString("endpoint"),
		PageSize:      viper.GetInt("page-size"),
		Timeout:       viper.GetDuration("timeout"),
		Feedback:      !viper.GetBool("no-feedback"),
		FeedbackDelay: viper.GetDuration("feedback-delay"),
		Layout:        layout,
		Filter:        viper.GetString("filter"),
		RecordFile:    viper.GetString("record"),
		DurableSync:   !viper.GetBool("no-durable-sync"),
		RateLimit:     viper.GetFloat64("rate-limit"),
		RateBurst:     viper.GetInt("rate-burst"),
		Headless:      viper.GetBool("headless"),
		Debug:         viper.GetBool("debug"),
		Truncate:      viper.GetBool("truncate-debug"),
	}
	return c, c.validate()
}

func (c *config) validate() error {
	var errs []error
	if c.PageSize < 1 {
		errs = append(errs, fmt.Errorf("page size must be at least 1, got %d", c.PageSize))
	}
	if c.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive, got %s", c.Timeout))
	}
	if c.FeedbackDelay < 0 {
		errs = append(errs, fmt.Errorf("feedback delay must not be negative, got %s", c.FeedbackDelay))
	}
	if c.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("rate limit must not be negative, got %g", c.RateLimit))
	}
	if c.RateLimit > 0 && c.RateBurst < 1 {
		errs = append(errs, fmt.Errorf("rate burst must be at least 1, got %d", c.RateBurst))
	}
	return errors.Join(errs...)
}

package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/HendryAvila/bibly/internal/logging"
)

// ValidationError is a single invalid field.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors collects every invalid field.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e))
	for i, err := range e {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

// ValidNoPlanStyles lists the accepted agent.no_plan_style values.
func ValidNoPlanStyles() []string {
	return []string{"completed", "error"}
}

// ValidLogFormats lists the accepted logging.format values.
func ValidLogFormats() []string {
	return []string{logging.FormatJSON, logging.FormatText}
}

// Validate checks every section and returns all problems found.
func (c *Config) Validate() []ValidationError {
	var errs []ValidationError
	errs = append(errs, c.validateServer()...)
	errs = append(errs, c.validateAgent()...)
	errs = append(errs, c.validateSource()...)
	errs = append(errs, c.validateCache()...)
	errs = append(errs, c.validateLogging()...)
	return errs
}

func (c *Config) validateServer() []ValidationError {
	var errs []ValidationError
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, ValidationError{"server.port", c.Server.Port, "must be between 1 and 65535"})
	}
	if c.Server.ReadTimeout < 0 {
		errs = append(errs, ValidationError{"server.read_timeout", c.Server.ReadTimeout, "must not be negative"})
	}
	if c.Server.WriteTimeout < 0 {
		errs = append(errs, ValidationError{"server.write_timeout", c.Server.WriteTimeout, "must not be negative"})
	}
	if c.Server.PublicURL != "" && !isHTTPURL(c.Server.PublicURL) {
		errs = append(errs, ValidationError{"server.public_url", c.Server.PublicURL, "must be an http(s) URL"})
	}
	return errs
}

func (c *Config) validateAgent() []ValidationError {
	var errs []ValidationError
	a := c.Agent
	if strings.TrimSpace(a.Name) == "" {
		errs = append(errs, ValidationError{"agent.name", a.Name, "must not be empty"})
	}
	if a.MaxDays < 1 {
		errs = append(errs, ValidationError{"agent.max_days", a.MaxDays, "must be at least 1"})
	}
	if a.DefaultDays < 1 || (a.MaxDays >= 1 && a.DefaultDays > a.MaxDays) {
		errs = append(errs, ValidationError{"agent.default_days", a.DefaultDays, "must be between 1 and agent.max_days"})
	}
	if strings.TrimSpace(a.DefaultTopic) == "" {
		errs = append(errs, ValidationError{"agent.default_topic", a.DefaultTopic, "must not be empty"})
	}
	if a.FetchTimeout <= 0 {
		errs = append(errs, ValidationError{"agent.fetch_timeout", a.FetchTimeout, "must be positive"})
	}
	if !slices.Contains(ValidNoPlanStyles(), a.NoPlanStyle) {
		errs = append(errs, ValidationError{"agent.no_plan_style", a.NoPlanStyle,
			"must be one of " + strings.Join(ValidNoPlanStyles(), ", ")})
	}
	return errs
}

func (c *Config) validateSource() []ValidationError {
	var errs []ValidationError
	s := c.Source
	if !isHTTPURL(s.BaseURL) {
		errs = append(errs, ValidationError{"source.base_url", s.BaseURL, "must be an http(s) URL"})
	}
	if strings.TrimSpace(s.Bible) == "" {
		errs = append(errs, ValidationError{"source.bible", s.Bible, "must not be empty"})
	}
	if s.Timeout <= 0 {
		errs = append(errs, ValidationError{"source.timeout", s.Timeout, "must be positive"})
	}
	if s.RatePerSecond < 0 {
		errs = append(errs, ValidationError{"source.rate_per_second", s.RatePerSecond, "must not be negative"})
	}
	if s.RatePerSecond > 0 && s.Burst < 1 {
		errs = append(errs, ValidationError{"source.burst", s.Burst, "must be at least 1 when rate limiting"})
	}
	return errs
}

func (c *Config) validateCache() []ValidationError {
	if c.Cache.Enabled && c.Cache.TTL <= 0 {
		return []ValidationError{{"cache.ttl", c.Cache.TTL, "must be positive when the cache is enabled"}}
	}
	return nil
}

func (c *Config) validateLogging() []ValidationError {
	var errs []ValidationError
	if !logging.ValidLevel(c.Logging.Level) {
		errs = append(errs, ValidationError{"logging.level", c.Logging.Level, "must be one of DEBUG, INFO, WARN, ERROR"})
	}
	if !slices.Contains(ValidLogFormats(), strings.ToLower(c.Logging.Format)) {
		errs = append(errs, ValidationError{"logging.format", c.Logging.Format,
			"must be one of " + strings.Join(ValidLogFormats(), ", ")})
	}
	return errs
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

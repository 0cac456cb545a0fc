// Package tune implements the instruction tuning loop: a Producer
// turns an instruction into candidate output, an Evaluator scores the
// candidate, and an Advisor proposes the next instruction from the
// score and the session's run history.
package tune

import "time"

// Settings are the tunable generation parameters for one invocation.
// Settings is a value type; every call gets its own copy, so overrides
// never leak between calls.
type Settings struct {
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// SettingsOption overrides a single field over the role defaults.
type SettingsOption func(*Settings)

func WithTemperature(temperature float64) SettingsOption {
	return func(s *Settings) {
		s.Temperature = temperature
	}
}

func WithMaxTokens(maxTokens int) SettingsOption {
	return func(s *Settings) {
		s.MaxTokens = maxTokens
	}
}

func WithTimeout(timeout time.Duration) SettingsOption {
	return func(s *Settings) {
		s.Timeout = timeout
	}
}

// MergeSettings applies the given overrides over defaults, field by
// field. Fields without an override keep the default.
func MergeSettings(defaults Settings, opts ...SettingsOption) Settings {
	merged := defaults
	for _, opt := range opts {
		opt(&merged)
	}
	return merged
}

// ProducerDefaults favor variety in generated candidates.
func ProducerDefaults() Settings {
	return Settings{
		Temperature: 0.7,
		MaxTokens:   1024,
		Timeout:     30 * time.Second,
	}
}

// EvaluatorDefaults are strict to keep scoring variance low between
// otherwise identical runs.
func EvaluatorDefaults() Settings {
	return Settings{
		Temperature: 0.1,
		MaxTokens:   64,
		Timeout:     30 * time.Second,
	}
}

// AdvisorDefaults sit between the two: a revised instruction needs
// some creativity but not a long output.
func AdvisorDefaults() Settings {
	return Settings{
		Temperature: 0.2,
		MaxTokens:   512,
		Timeout:     30 * time.Second,
	}
}

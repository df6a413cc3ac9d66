package bracefmt

// FormatOption configures Format and the helpers built on it.
type FormatOption func(*formatConfig)

type formatConfig struct {
	validate bool
	strict   bool
}

// WithValidation rejects input that is not valid UTF-8 or looks binary.
func WithValidation(enabled bool) FormatOption {
	return func(cfg *formatConfig) {
		cfg.validate = enabled
	}
}

// WithStrict makes open blocks at end of input an error.
func WithStrict(enabled bool) FormatOption {
	return func(cfg *formatConfig) {
		cfg.strict = enabled
	}
}

func buildConfig(opts []FormatOption) formatConfig {
	cfg := formatConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

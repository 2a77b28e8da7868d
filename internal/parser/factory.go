package parser

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"invoicerecon/internal/config"
	"invoicerecon/internal/port"
)

// ProviderFactory is a function that creates a DocumentParser from a provider config.
type ProviderFactory func(cfg *config.ParserProviderConfig) (port.DocumentParser, error)

// registry of parser provider factories, populated by init() in each provider package
// or explicitly via RegisterProvider.
var providers = map[string]ProviderFactory{}

// RegisterProvider registers a parser provider factory by name.
func RegisterProvider(name string, factory ProviderFactory) {
	providers[name] = factory
}

// NewParser creates a DocumentParser from a provider config using the registered factory.
func NewParser(cfg *config.ParserProviderConfig) (port.DocumentParser, error) {
	factory, ok := providers[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown parser provider: %s", cfg.Provider)
	}
	return factory(cfg)
}

// NewChain builds the configured providers, each wrapped in a RetryParser.
// With more than one provider the result is a FallbackParser in
// primary, secondary, tertiary order.
func NewChain(cfg *config.ParserConfig, log logrus.FieldLogger) (port.DocumentParser, error) {
	configs := []*config.ParserProviderConfig{cfg.PrimaryConfig()}
	if s := cfg.SecondaryConfig(); s != nil {
		configs = append(configs, s)
	}
	if t := cfg.TertiaryConfig(); t != nil {
		configs = append(configs, t)
	}

	parsers := make([]port.DocumentParser, 0, len(configs))
	names := make([]string, 0, len(configs))
	for _, pc := range configs {
		p, err := NewParser(pc)
		if err != nil {
			return nil, err
		}
		parsers = append(parsers, NewRetryParser(p, pc.Provider, pc.MaxRetries, 0, log))
		names = append(names, pc.Provider)
	}

	if len(parsers) == 1 {
		return parsers[0], nil
	}
	log.WithField("providers", names).Info("extraction fallback chain configured")
	return NewFallbackParser(parsers, names, log), nil
}

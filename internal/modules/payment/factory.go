package payment

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

type Config struct {
	Provider        string
	Delay           time.Duration
	Timeout         time.Duration
	MaxRetries      int
	StripeSecretKey string
}

// NewGateway builds the configured provider wrapped in retry and, when
// attempts is non-nil, attempt logging.
func NewGateway(cfg Config, attempts AttemptRepository, log *zap.Logger) (Gateway, error) {
	var base Gateway
	switch cfg.Provider {
	case ProviderSimulated, "":
		base = NewSimulated(SimulatedConfig{Delay: cfg.Delay})
	case ProviderStripe:
		g, err := NewStripe(StripeConfig{SecretKey: cfg.StripeSecretKey})
		if err != nil {
			return nil, err
		}
		base = g
	default:
		return nil, fmt.Errorf("unsupported payment provider: %s", cfg.Provider)
	}

	if attempts != nil {
		base = NewRecorder(base, attempts, log)
	}

	rc := DefaultRetryConfig()
	rc.MaxRetries = cfg.MaxRetries
	if cfg.Timeout > 0 {
		rc.AttemptTimeout = cfg.Timeout
	}
	return NewResilient(base, rc, log), nil
}

package quickdash

import (
	"github.com/RustMunkey/quickdash-sub005/core"
	"github.com/RustMunkey/quickdash-sub005/providers/paypal"
	"github.com/RustMunkey/quickdash-sub005/providers/resend"
	"github.com/RustMunkey/quickdash-sub005/providers/shipengine"
	"github.com/RustMunkey/quickdash-sub005/providers/stripe"
)

func StripeProvider() core.Provider {
	return stripe.New()
}

func ShipEngineProvider() core.Provider {
	return shipengine.New()
}

func ResendProvider(cfg resend.Config) core.Provider {
	return resend.New(cfg)
}

func PayPalProvider(cfg paypal.Config) core.Provider {
	return paypal.New(cfg)
}

// PayPalSandboxProvider forces the sandbox verification endpoint
// regardless of what cfg.APIBase says.
func PayPalSandboxProvider(cfg paypal.Config) core.Provider {
	cfg.APIBase = paypal.SandboxAPIBase
	return paypal.New(cfg)
}

// BuiltinRegistry returns a registry preloaded with every bundled
// provider using default configuration.
func BuiltinRegistry() (*core.ProviderRegistry, error) {
	registry := core.NewProviderRegistry()
	providers := []core.Provider{
		StripeProvider(),
		ShipEngineProvider(),
		ResendProvider(resend.Config{}),
		PayPalProvider(paypal.Config{}),
	}
	for _, provider := range providers {
		if err := registry.Register(provider); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

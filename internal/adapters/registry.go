package adapters

import (
	"fmt"
	"net/http"
	"sort"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/jpp0ca/tunebridge/internal/adapters/httpx"
	"github.com/jpp0ca/tunebridge/internal/adapters/spotify"
	"github.com/jpp0ca/tunebridge/internal/adapters/tidal"
	"github.com/jpp0ca/tunebridge/internal/adapters/youtube"
	"github.com/jpp0ca/tunebridge/internal/config"
	"github.com/jpp0ca/tunebridge/internal/domain"
	"github.com/jpp0ca/tunebridge/internal/ports"
)

// ProviderRegistry maps provider names to their Provider implementations.
// It is safe for concurrent use.
type ProviderRegistry struct {
	mu        sync.RWMutex
	providers map[string]ports.Provider
}

// NewProviderRegistry creates an empty registry.
func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{
		providers: make(map[string]ports.Provider),
	}
}

// NewDefaultRegistry registers every built-in catalog, configured from cfg.
// base is the transport under each provider client; nil means
// http.DefaultTransport.
func NewDefaultRegistry(cfg *config.Config, base http.RoundTripper, logger *log.Logger) *ProviderRegistry {
	opts := httpx.Options{
		Base:      base,
		Timeout:   cfg.HTTPTimeout,
		RateLimit: cfg.ProviderRateLimit,
		RetryMax:  cfg.ProviderRetryMax,
		Logger:    logger,
	}

	r := NewProviderRegistry()
	r.Register(spotify.NewProvider(spotify.Config{
		BaseURL: cfg.SpotifyBaseURL,
		HTTP:    opts,
		Logger:  logger,
	}))
	r.Register(tidal.NewProvider(tidal.Config{
		BaseURL:     cfg.TidalBaseURL,
		CountryCode: cfg.TidalCountryCode,
		HTTP:        opts,
		Logger:      logger,
	}))
	r.Register(youtube.NewProvider(youtube.Config{
		BaseURL: cfg.YouTubeBaseURL,
		HTTP:    opts,
		Logger:  logger,
	}))
	return r
}

// Register adds a provider to the registry, keyed by its Name().
func (r *ProviderRegistry) Register(provider ports.Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[provider.Name()] = provider
}

// Get returns the provider for the given name. The error wraps
// domain.ErrUnknownProvider.
func (r *ProviderRegistry) Get(name string) (ports.Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	provider, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownProvider, name)
	}
	return provider, nil
}

// Available returns the names of all registered providers, sorted.
func (r *ProviderRegistry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

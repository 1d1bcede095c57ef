package providers

import "fmt"

// Registry manages available providers keyed by id.
type Registry struct {
	providers map[string]Provider
}

// Factory creates a provider from a spec.
type Factory func(spec Spec) (Provider, error)

var factories = make(map[string]Factory)

// RegisterFactory registers a factory function for a provider type.
// Provider implementations call this from init.
func RegisterFactory(providerType string, factory Factory) {
	factories[providerType] = factory
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
	}
}

// Register adds a provider to the registry.
func (r *Registry) Register(provider Provider) {
	r.providers[provider.ID()] = provider
}

// Get retrieves a provider by id.
func (r *Registry) Get(id string) (Provider, bool) {
	provider, exists := r.providers[id]
	return provider, exists
}

// List returns all registered provider ids.
func (r *Registry) List() []string {
	ids := make([]string, 0, len(r.providers))
	for id := range r.providers {
		ids = append(ids, id)
	}
	return ids
}

// Close closes all registered providers and cleans up their resources.
func (r *Registry) Close() error {
	for _, provider := range r.providers {
		if err := provider.Close(); err != nil {
			return err
		}
	}
	return nil
}

// Spec holds the configuration needed to create a provider instance.
type Spec struct {
	ID       string
	Type     string
	Model    string
	BaseURL  string
	Defaults Defaults
}

// CreateFromSpec creates a provider implementation from a spec.
// Returns an error if the provider type is unsupported.
func CreateFromSpec(spec Spec) (Provider, error) {
	baseURL := spec.BaseURL
	if baseURL == "" {
		switch spec.Type {
		case "openrouter":
			baseURL = "https://openrouter.ai/api/v1"
		case "mock":
			// No base URL needed for the mock provider.
		}
	}
	spec.BaseURL = baseURL

	factory, ok := factories[spec.Type]
	if !ok {
		return nil, &ProviderError{
			Provider:  spec.Type,
			Retryable: false,
			Err:       fmt.Errorf("unsupported provider type %q", spec.Type),
		}
	}
	return factory(spec)
}

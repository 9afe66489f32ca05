package provider

// Registry holds the configured providers in registration order.
type Registry struct {
	defaultName string
	providers   []Provider
}

func NewRegistry(defaultName string) *Registry {
	return &Registry{defaultName: defaultName}
}

// Register adds p. A provider registered under an existing name replaces it.
func (r *Registry) Register(p Provider) {
	for i, existing := range r.providers {
		if existing.Name() == p.Name() {
			r.providers[i] = p
			return
		}
	}
	r.providers = append(r.providers, p)
}

func (r *Registry) Get(name string) (Provider, bool) {
	for _, p := range r.providers {
		if p.Name() == name {
			return p, true
		}
	}
	return nil, false
}

// Default is the configured default provider name, registered or not.
func (r *Registry) Default() string {
	return r.defaultName
}

func (r *Registry) Names() []string {
	names := make([]string, len(r.providers))
	for i, p := range r.providers {
		names[i] = p.Name()
	}
	return names
}

func (r *Registry) Len() int {
	return len(r.providers)
}

// Chain returns the providers to try for one request: preferred if it is
// registered, otherwise the default, then every other provider in
// registration order, cut to attempts entries. attempts <= 0 means no limit.
func (r *Registry) Chain(preferred string, attempts int) []Provider {
	first := ""
	if _, ok := r.Get(preferred); ok {
		first = preferred
	} else if _, ok := r.Get(r.defaultName); ok {
		first = r.defaultName
	}

	chain := make([]Provider, 0, len(r.providers))
	if first != "" {
		p, _ := r.Get(first)
		chain = append(chain, p)
	}
	for _, p := range r.providers {
		if p.Name() != first {
			chain = append(chain, p)
		}
	}
	if attempts > 0 && len(chain) > attempts {
		chain = chain[:attempts]
	}
	return chain
}

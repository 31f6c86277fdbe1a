package relay

// Registry maps bot identifiers to chat backend endpoints. It is built once
// at startup and never mutated afterwards.
type Registry struct {
	bots       map[string]string
	defaultURL string
}

func NewRegistry(bots map[string]string, defaultURL string) *Registry {
	own := make(map[string]string, len(bots))
	for id, url := range bots {
		own[id] = url
	}
	return &Registry{bots: own, defaultURL: defaultURL}
}

// Resolve returns the endpoint for a bot id; unknown ids get the default.
func (r *Registry) Resolve(botID string) string {
	if url, ok := r.bots[botID]; ok {
		return url
	}
	return r.defaultURL
}

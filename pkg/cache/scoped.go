package cache

// ScopedKeyer prefixes every key from an inner Keyer, isolating tenants
// that share a backend.
//
//	keyer := cache.NewScopedKeyer(nil, cache.KeyScope(apiKey))
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix. A nil inner keyer means
// [DefaultKeyer].
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// KeyScope returns a namespace prefix for an API key that does not reveal it.
func KeyScope(apiKey string) string {
	return "key:" + Hash([]byte(apiKey))[:16] + ":"
}

// AnalysisKey implements [Keyer].
func (k *ScopedKeyer) AnalysisKey(body []byte, opts AnalysisKeyOpts) string {
	return k.prefix + k.inner.AnalysisKey(body, opts)
}

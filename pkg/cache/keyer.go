package cache

// Keyer derives cache keys.
type Keyer interface {
	// AnalysisKey returns the key for an analyzer response to body.
	AnalysisKey(body []byte, opts AnalysisKeyOpts) string
}

// AnalysisKeyOpts are the request properties that change an analyzer
// response without appearing in the hashed body.
type AnalysisKeyOpts struct {
	Server string `json:"server"`
	Strict bool   `json:"strict"`
}

// DefaultKeyer hashes every input into the key.
type DefaultKeyer struct{}

// NewDefaultKeyer returns a DefaultKeyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// AnalysisKey implements [Keyer].
func (DefaultKeyer) AnalysisKey(body []byte, opts AnalysisKeyOpts) string {
	return hashKey("analysis", Hash(body), opts)
}

var _ Keyer = DefaultKeyer{}

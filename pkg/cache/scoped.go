package cache

// ScopedKeyer wraps a Keyer with a prefix so that several pattern roots
// can share one backend without colliding.
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "serve:"+Hash([]byte(root))[:12]+":")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// InfoKey generates a prefixed key for pattern summaries.
func (k *ScopedKeyer) InfoKey(patternHash, catalog string) string {
	return k.prefix + k.inner.InfoKey(patternHash, catalog)
}

// ArtifactKey generates a prefixed key for rendered artifacts.
func (k *ScopedKeyer) ArtifactKey(patternHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(patternHash, opts)
}

package cache

// ScopedKeyer wraps a Keyer with a prefix for multi-project isolation.
// The server uses one scope per project so that clearing a project's cache
// can't touch another project's artifacts.
//
// Example usage:
//
//	// Project-scoped keys on the server
//	projKeyer := NewScopedKeyer(NewDefaultKeyer(), "project:"+projectID+":")
//
//	// Unscoped keys for single-project CLI runs
//	cliKeyer := NewDefaultKeyer()
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

// ComposeKey generates a prefixed key for composed documents.
func (k *ScopedKeyer) ComposeKey(recordsHash string, opts ComposeKeyOpts) string {
	return k.prefix + k.inner.ComposeKey(recordsHash, opts)
}

// FlowKey generates a prefixed key for rendered flow graphs.
func (k *ScopedKeyer) FlowKey(graphHash string, opts FlowKeyOpts) string {
	return k.prefix + k.inner.FlowKey(graphHash, opts)
}

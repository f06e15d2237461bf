package cache

// Keyer builds cache keys for the artifact classes the pipeline produces.
// Keys embed a content hash of the full input tuple, so any change to the
// screen set, platform, or project name yields a different key.
type Keyer interface {
	// ComposeKey keys a composed document by the content hash of its
	// record set plus the composition options.
	ComposeKey(recordsHash string, opts ComposeKeyOpts) string

	// FlowKey keys a rendered flow graph by the content hash of its
	// record-and-edge set plus the render options.
	FlowKey(graphHash string, opts FlowKeyOpts) string
}

// ComposeKeyOpts are the composition inputs that participate in the key
// beyond the record set itself.
type ComposeKeyOpts struct {
	Platform    string `json:"platform"`
	ProjectName string `json:"project_name"`
}

// FlowKeyOpts are the flow-render inputs that participate in the key.
type FlowKeyOpts struct {
	Format string `json:"format"` // "dot" or "svg"
}

// DefaultKeyer is the standard key scheme.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// ComposeKey generates a key in the form "compose:<sha256>".
func (k *DefaultKeyer) ComposeKey(recordsHash string, opts ComposeKeyOpts) string {
	return hashKey("compose", recordsHash, opts)
}

// FlowKey generates a key in the form "flowsvg:<sha256>".
func (k *DefaultKeyer) FlowKey(graphHash string, opts FlowKeyOpts) string {
	return hashKey("flowsvg", graphHash, opts)
}

// Ensure DefaultKeyer implements Keyer.
var _ Keyer = (*DefaultKeyer)(nil)

package cache

// Keyer generates cache keys for the three cached value classes: stored
// flow documents, computed layouts, and rendered artifacts.
//
// Layout and artifact keys hash their inputs, so any change to the graph
// content or the options invalidates naturally. Document keys are plain
// prefixed identifiers, so they can be deleted by ID.
type Keyer interface {
	// DocumentKey generates a key for a stored flow document.
	DocumentKey(namespace, id string) string

	// LayoutKey generates a key for a computed layout, from the graph
	// content hash and the options that shaped the computation.
	LayoutKey(graphHash string, opts LayoutKeyOpts) string

	// ArtifactKey generates a key for a rendered artifact, from the layout
	// hash and the render options.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// LayoutKeyOpts are the options that affect a layout computation.
type LayoutKeyOpts struct {
	// UseMeasured records whether host-measured sizes fed the layout.
	UseMeasured bool `json:"use_measured"`

	// ConfigHash fingerprints the layout tuning table.
	ConfigHash string `json:"config_hash"`
}

// ArtifactKeyOpts are the options that affect a rendered artifact.
type ArtifactKeyOpts struct {
	// Format is the output format (svg, png, dot, json).
	Format string `json:"format"`

	// Theme selects the render color scheme.
	Theme string `json:"theme"`
}

// DefaultKeyer is the standard key scheme.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// DocumentKey generates a key of the form doc:namespace:id.
func (k *DefaultKeyer) DocumentKey(namespace, id string) string {
	return "doc:" + namespace + ":" + id
}

// LayoutKey generates a hashed key for a computed layout.
func (k *DefaultKeyer) LayoutKey(graphHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", graphHash, opts)
}

// ArtifactKey generates a hashed key for a rendered artifact.
func (k *DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}

// Ensure DefaultKeyer implements Keyer.
var _ Keyer = (*DefaultKeyer)(nil)

package cache

// ArtifactKeyOpts lists the render options that change an artifact.
type ArtifactKeyOpts struct {
	Format     string `json:"format"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Background string `json:"background"`
	Points     bool   `json:"points"`
	Viewport   string `json:"viewport,omitempty"`
	Palette    string `json:"palette,omitempty"` // palette fingerprint
	Catalog    string `json:"catalog,omitempty"` // resolver fingerprint
}

// Keyer builds cache keys.
type Keyer interface {
	// InfoKey identifies the decoded summary of a pattern resolved
	// against one catalog.
	InfoKey(patternHash, catalog string) string
	// ArtifactKey identifies one rendering of a pattern.
	ArtifactKey(patternHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer is the standard [Keyer].
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// InfoKey returns "info:<hash>", or "info:<hash>:<catalog>" when a
// catalog fingerprint is given.
func (DefaultKeyer) InfoKey(patternHash, catalog string) string {
	if catalog == "" {
		return "info:" + patternHash
	}
	return "info:" + patternHash + ":" + catalog
}

// ArtifactKey hashes the pattern hash with the options.
func (DefaultKeyer) ArtifactKey(patternHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", patternHash, opts)
}

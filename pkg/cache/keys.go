package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Keyer derives cache keys. Implementations must put every input that
// changes a result into its key.
type Keyer interface {
	// LayoutKey names the layout of a tree whose canonical JSON hashes to
	// treeHash.
	LayoutKey(treeHash string, opts LayoutKeyOpts) string
	// ArtifactKey names a document rendered from a layout hashing to
	// layoutHash.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// LayoutKeyOpts are the settings a layout depends on.
type LayoutKeyOpts struct {
	Direction string  `json:"dir"`
	Drawer    string  `json:"drawer"`
	RankSep   float64 `json:"rank_sep,omitempty"`
	NodeSep   float64 `json:"node_sep,omitempty"`
}

// ArtifactKeyOpts are the settings a rendered document depends on.
type ArtifactKeyOpts struct {
	Format      string  `json:"format"`
	Rasterizer  string  `json:"rasterizer,omitempty"`
	Scale       float64 `json:"scale,omitempty"`
	Margin      float64 `json:"margin,omitempty"`
	Transparent bool    `json:"transparent,omitempty"`
	Detailed    bool    `json:"detailed,omitempty"`
	Photos      bool    `json:"photos,omitempty"`
}

// DefaultKeyer hashes options into prefixed keys of the form
// "layout:<sha256>" and "artifact:<sha256>".
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

func (DefaultKeyer) LayoutKey(treeHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", treeHash, opts)
}

func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}

// hashKey generates a cache key by hashing the components.
// The key format is: prefix:hash(parts...)
func hashKey(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s:%s", prefix, hex.EncodeToString(hash[:]))
}

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

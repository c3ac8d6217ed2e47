// Package memory provides in-memory implementations of application ports.
package memory

import (
	"sort"
	"strings"
	"sync"

	"github.com/assetkit-dev/assetkit/internal/application/ports"
	"github.com/assetkit-dev/assetkit/internal/domain/entities"
	"github.com/assetkit-dev/assetkit/internal/scripting/hostenv"
)

// Ensure interface compliance
var (
	_ ports.AssetCache       = (*AssetCache)(nil)
	_ hostenv.AssetDirectory = (*AssetCache)(nil)
)

// AssetCache is an in-memory store of constructed assets. It doubles as the
// directory scripts use to look up other loaded assets.
type AssetCache struct {
	assets map[string]*entities.Asset
	mu     sync.RWMutex
}

// NewAssetCache creates an empty cache.
func NewAssetCache() *AssetCache {
	return &AssetCache{
		assets: make(map[string]*entities.Asset),
	}
}

// Get returns the asset stored under key.
func (c *AssetCache) Get(key string) (*entities.Asset, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	a, ok := c.assets[key]
	return a, ok
}

// Put stores an asset. Callers must only store initialized assets.
func (c *AssetCache) Put(key string, asset *entities.Asset) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.assets[key] = asset
}

// Delete removes key and reports whether it was present.
func (c *AssetCache) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.assets[key]
	delete(c.assets, key)
	return ok
}

// Len returns the number of cached assets.
func (c *AssetCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.assets)
}

// Find returns the first live asset whose name matches, ignoring case.
// Ties are broken by GUID so the answer is stable.
func (c *AssetCache) Find(name string) (hostenv.AssetInfo, bool) {
	for _, info := range c.All() {
		if strings.EqualFold(info.Name, name) {
			return info, true
		}
	}
	return hostenv.AssetInfo{}, false
}

// FindByGUID returns the live asset with the given GUID.
func (c *AssetCache) FindByGUID(guid string) (hostenv.AssetInfo, bool) {
	for _, info := range c.All() {
		if strings.EqualFold(info.GUID, guid) {
			return info, true
		}
	}
	return hostenv.AssetInfo{}, false
}

// All lists live assets sorted by name, then GUID. An asset cached under
// several keys is listed once.
func (c *AssetCache) All() []hostenv.AssetInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()

	seen := make(map[*entities.Asset]bool, len(c.assets))
	out := make([]hostenv.AssetInfo, 0, len(c.assets))
	for _, a := range c.assets {
		if a.IsDestroyed() || seen[a] {
			continue
		}
		seen[a] = true
		out = append(out, hostenv.AssetInfo{
			GUID: a.GUID().String(),
			Name: a.Name(),
			Type: a.TypeName(),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].GUID < out[j].GUID
	})
	return out
}

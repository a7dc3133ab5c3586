// Admin managed map from internal asset ids to issuance/redemption
// capabilities. The binding is bidirectional and unique: one id per
// capability, one capability per id.

package assetregistry

import (
	"errors"
	"sort"
	"sync"

	"github.com/TEENet-io/wrap-go/agreement"
)

var (
	ErrAssetExists     = errors.New("asset id already registered")
	ErrCapabilityBound = errors.New("capability already bound to another asset id")
	ErrAssetNotFound   = errors.New("asset id not registered")
)

type Registry struct {
	mu   sync.RWMutex
	byId map[agreement.AssetID]agreement.WrappedAsset
	ids  map[agreement.WrappedAsset]agreement.AssetID
}

func NewRegistry() *Registry {
	return &Registry{
		byId: make(map[agreement.AssetID]agreement.WrappedAsset),
		ids:  make(map[agreement.WrappedAsset]agreement.AssetID),
	}
}

func (r *Registry) Add(id agreement.AssetID, asset agreement.WrappedAsset) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byId[id]; ok {
		return ErrAssetExists
	}
	if _, ok := r.ids[asset]; ok {
		return ErrCapabilityBound
	}

	r.byId[id] = asset
	r.ids[asset] = id
	return nil
}

func (r *Registry) Remove(id agreement.AssetID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	asset, ok := r.byId[id]
	if !ok {
		return ErrAssetNotFound
	}

	delete(r.byId, id)
	delete(r.ids, asset)
	return nil
}

func (r *Registry) Get(id agreement.AssetID) (agreement.WrappedAsset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	asset, ok := r.byId[id]
	if !ok {
		return nil, ErrAssetNotFound
	}
	return asset, nil
}

// IdOf is the reverse lookup of Get.
func (r *Registry) IdOf(asset agreement.WrappedAsset) (agreement.AssetID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.ids[asset]
	if !ok {
		return 0, ErrAssetNotFound
	}
	return id, nil
}

func (r *Registry) Has(id agreement.AssetID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.byId[id]
	return ok
}

// List returns the registered asset ids in ascending order.
func (r *Registry) List() []agreement.AssetID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]agreement.AssetID, 0, len(r.byId))
	for id := range r.byId {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

package web

import (
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
)

// resultStore parks rendered batch CSVs between the upload response and the
// download click. Entries expire on their own; nothing is persisted.
type resultStore struct {
	cache *gocache.Cache
}

func newResultStore(ttl time.Duration) *resultStore {
	return &resultStore{cache: gocache.New(ttl, 2*ttl)}
}

// put stores the CSV bytes and returns the download token.
func (s *resultStore) put(data []byte) string {
	id := uuid.NewString()
	s.cache.Set(id, data, gocache.DefaultExpiration)
	return id
}

// get returns the stored CSV for a token, if it has not expired.
func (s *resultStore) get(id string) ([]byte, bool) {
	v, ok := s.cache.Get(id)
	if !ok {
		return nil, false
	}
	data, ok := v.([]byte)
	return data, ok
}

package geocode

import (
	"fmt"
	"sync"
)

// gridPrecision rounds coordinates to ~1km cells so nearby lookups share
// a cache entry.
const gridPrecision = 100

// CachedService memoizes reverse geocoding results on a coordinate grid.
// The cache is in-memory and lives as long as the process.
type CachedService struct {
	client *Client

	mu    sync.Mutex
	cache map[string]*Location
}

func NewCachedService(client *Client) *CachedService {
	return &CachedService{
		client: client,
		cache:  make(map[string]*Location),
	}
}

func roundToGrid(coord float64) float64 {
	return float64(int(coord*gridPrecision)) / gridPrecision
}

func gridKey(lat, lon float64) string {
	return fmt.Sprintf("%.2f:%.2f", roundToGrid(lat), roundToGrid(lon))
}

// Lookup returns the location for the given coordinates, consulting the
// grid cache before the network.
func (s *CachedService) Lookup(lat, lon float64) (*Location, error) {
	key := gridKey(lat, lon)

	s.mu.Lock()
	if loc, ok := s.cache[key]; ok {
		s.mu.Unlock()
		return loc, nil
	}
	s.mu.Unlock()

	loc, err := s.client.ReverseGeocode(lat, lon)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache[key] = loc
	s.mu.Unlock()
	return loc, nil
}

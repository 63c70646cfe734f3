// Package memory holds the process-lifetime fallback for likes.
package memory

import (
	"sort"
	"sync"

	"github.com/njprem/travelswipe/internal/domain"
	"github.com/njprem/travelswipe/internal/repository/ports"
)

// LikeCache stores likes that could not be written to the remote table. It
// is keyed like the remote table, so a repeated like replaces the entry.
type LikeCache struct {
	mu    sync.RWMutex
	likes map[string]domain.LikeRecord
}

func NewLikeCache() *LikeCache {
	return &LikeCache{likes: make(map[string]domain.LikeRecord)}
}

func (c *LikeCache) Put(record domain.LikeRecord) {
	record.Source = domain.LikeSourceFallback
	c.mu.Lock()
	defer c.mu.Unlock()
	c.likes[record.Key()] = record
}

func (c *LikeCache) Has(userID, packageID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.likes[domain.LikeKey(userID, packageID)]
	return ok
}

// ListByUser returns the user's entries ordered by creation time.
func (c *LikeCache) ListByUser(userID string) []domain.LikeRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]domain.LikeRecord, 0)
	for _, record := range c.likes {
		if record.UserID == userID {
			out = append(out, record)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].PackageID < out[j].PackageID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (c *LikeCache) CountByUser(userID string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	count := 0
	for _, record := range c.likes {
		if record.UserID == userID {
			count++
		}
	}
	return count
}

func (c *LikeCache) Remove(userID, packageID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.likes, domain.LikeKey(userID, packageID))
}

var _ ports.LikeCache = (*LikeCache)(nil)

package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"quiz-duel-service/internal/app"
	"quiz-duel-service/internal/domain"
)

// ThemeCache wraps a ThemeCatalog with a TTL cache so the theme list, which
// every client fetches on load, does not hit the database each time.
type ThemeCache struct {
	source app.ThemeCatalog
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu        sync.RWMutex
	themes    []domain.Theme
	expiresAt time.Time
}

func NewThemeCache(source app.ThemeCatalog, ttl time.Duration) *ThemeCache {
	return &ThemeCache{
		source: source,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *ThemeCache) ListThemes(ctx context.Context) ([]domain.Theme, error) {
	now := c.clock()

	c.mu.RLock()
	if c.themes != nil && c.expiresAt.After(now) {
		themes := c.themes
		c.mu.RUnlock()
		return themes, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do("themes", func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if c.themes != nil && c.expiresAt.After(now) {
			themes := c.themes
			c.mu.RUnlock()
			return themes, nil
		}
		c.mu.RUnlock()

		themes, err := c.source.ListThemes(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.themes = themes
		c.expiresAt = now.Add(c.ttlWithJitter())
		c.mu.Unlock()
		return themes, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Theme), nil
}

func (c *ThemeCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

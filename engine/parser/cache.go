package parser

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/omniql-engine/redisom/engine/models"
	"github.com/omniql-engine/redisom/internal/logger"
)

// DefaultCacheSize bounds the number of parsed intents kept per Cache.
const DefaultCacheSize = 1024

// Cache memoizes parsed intents per (entity, method). Concurrent first
// requests for the same key parse once and share the result. Failed parses
// are not cached.
type Cache struct {
	intents *lru.Cache[string, *models.MethodIntent]
	group   singleflight.Group
	log     *logger.Logger
	observe func(hit bool)
}

// NewCache creates a cache holding up to size intents. observe, when
// non-nil, is told about every hit and miss.
func NewCache(size int, log *logger.Logger, observe func(hit bool)) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	intents, err := lru.New[string, *models.MethodIntent](size)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Cache{intents: intents, log: log, observe: observe}, nil
}

// Get returns the intent for method on s, parsing it on first use.
func (c *Cache) Get(method string, s *models.EntitySchema) (*models.MethodIntent, error) {
	key := s.Name + "#" + method
	if intent, ok := c.intents.Get(key); ok {
		c.record(true)
		return intent, nil
	}
	c.record(false)

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		if intent, ok := c.intents.Get(key); ok {
			return intent, nil
		}
		intent, err := Parse(method, s)
		if err != nil {
			c.log.ParserLogger(s.Name).Warn("method rejected").
				Str("method", method).
				Err(err).
				Send()
			return nil, err
		}
		c.intents.Add(key, intent)
		c.log.ParserLogger(s.Name).Debug("method parsed").
			Str("method", method).
			Int("parts", len(intent.Parts)).
			Str("category", string(intent.Category)).
			Send()
		return intent, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.MethodIntent), nil
}

// Len reports how many intents are cached.
func (c *Cache) Len() int {
	return c.intents.Len()
}

func (c *Cache) record(hit bool) {
	if c.observe != nil {
		c.observe(hit)
	}
}

// Package redisom maps Go entity types onto Redis search indexes. Derived
// method names (findByCategoryAndPriceBetween) and typed predicate chains
// compile to RediSearch queries, Bloom/Cuckoo/Count-Min lookups or
// FT.AGGREGATE pipelines, and replies decode back into entities.
package redisom

import (
	"github.com/omniql-engine/redisom/engine/models"
	"github.com/omniql-engine/redisom/engine/probabilistic"
	"github.com/omniql-engine/redisom/engine/translator"
)

// Explain compiles a derived method for s without touching the backend and
// returns the command it would issue. Methods routed to a probabilistic
// structure render their BF/CF/CMS command instead of a search.
func (c *Client) Explain(s *models.EntitySchema, method string, args ...interface{}) (string, error) {
	if call, ok := probabilistic.TryDispatch(method, s); ok {
		var operand interface{}
		if len(args) > 0 {
			operand = args[0]
		}
		cmd, err := call.Args(operand)
		if err != nil {
			return "", err
		}
		return models.CommandString(cmd), nil
	}
	q, err := c.CompileMethod(s, method, args...)
	if err != nil {
		return "", err
	}
	return q.String(), nil
}

// CompileMethod parses (or fetches from the cache) a derived method and binds
// args to it.
func (c *Client) CompileMethod(s *models.EntitySchema, method string, args ...interface{}) (*models.CompiledQuery, error) {
	intent, err := c.intents.Get(method, s)
	if err != nil {
		c.metrics.RecordCompile("method", err)
		return nil, err
	}
	q, err := translator.CompileIntent(s, intent, args, c.cc)
	c.metrics.RecordCompile("method", err)
	return q, err
}

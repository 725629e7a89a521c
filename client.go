// client.go

package redisom

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/omniql-engine/redisom/engine/models"
	"github.com/omniql-engine/redisom/engine/parser"
	"github.com/omniql-engine/redisom/engine/probabilistic"
	"github.com/omniql-engine/redisom/engine/reverse"
	"github.com/omniql-engine/redisom/engine/schema"
	"github.com/omniql-engine/redisom/engine/validator"
	"github.com/omniql-engine/redisom/internal/config"
	"github.com/omniql-engine/redisom/internal/logger"
	"github.com/omniql-engine/redisom/internal/metrics"
	"github.com/omniql-engine/redisom/mapping"
)

// ============================================
// BACKEND
// ============================================

// Backend executes raw commands. *redis.Client, *redis.ClusterClient and
// redis.UniversalClient all satisfy it.
type Backend interface {
	Do(ctx context.Context, args ...interface{}) *redis.Cmd
}

// ============================================
// CLIENT STRUCT
// ============================================

// Client compiles queries for registered entities and runs them against a
// Redis backend with the search and probabilistic modules loaded.
type Client struct {
	backend  Backend
	registry *schema.Registry
	intents  *parser.Cache
	updater  *probabilistic.Updater
	cc       models.CompileContext
	log      *logger.Logger
	metrics  *metrics.Metrics
	closer   func() error
}

// Option configures a Client.
type Option func(*options)

type options struct {
	log       *logger.Logger
	reg       prometheus.Registerer
	registry  *schema.Registry
	cc        models.CompileContext
	cacheSize int
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *logger.Logger) Option { return func(o *options) { o.log = l } }

// WithMetricsRegisterer registers the client's collectors with reg.
func WithMetricsRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.reg = reg }
}

// WithRegistry shares a schema registry between clients.
func WithRegistry(r *schema.Registry) Option { return func(o *options) { o.registry = r } }

// WithDialect sets the DIALECT sent with every query.
func WithDialect(d int) Option { return func(o *options) { o.cc.Dialect = d } }

// WithMaxLimit sets the LIMIT applied to searches that do not page.
func WithMaxLimit(n int) Option { return func(o *options) { o.cc.MaxLimit = n } }

// WithIndexPrefix prepends prefix to every index name.
func WithIndexPrefix(prefix string) Option { return func(o *options) { o.cc.IndexPrefix = prefix } }

// WithIntentCacheSize bounds the number of parsed method names kept.
func WithIntentCacheSize(n int) Option { return func(o *options) { o.cacheSize = n } }

// ============================================
// CONSTRUCTORS
// ============================================

// New wraps a backend.
func New(backend Backend, opts ...Option) (*Client, error) {
	o := options{cacheSize: parser.DefaultCacheSize}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logger.Nop()
	}
	if o.registry == nil {
		o.registry = schema.NewRegistry(o.log)
	}
	if o.cc.Dialect == 0 {
		o.cc.Dialect = mapping.DefaultDialect
	}

	c := &Client{
		backend:  backend,
		registry: o.registry,
		cc:       o.cc,
		log:      o.log,
		metrics:  metrics.NewMetrics(o.reg),
	}
	intents, err := parser.NewCache(o.cacheSize, o.log, c.metrics.RecordIntentCache)
	if err != nil {
		return nil, err
	}
	c.intents = intents
	c.updater = probabilistic.NewUpdater(c, c.registry, o.log)
	return c, nil
}

// NewFromConfig connects to the configured Redis URL. Options given here
// override the ones derived from cfg.
func NewFromConfig(cfg *config.Config, opts ...Option) (*Client, error) {
	ropts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	ropts.Protocol = cfg.Redis.Protocol
	ropts.UnstableResp3 = cfg.Redis.Protocol == 3
	if cfg.Redis.DialTimeout > 0 {
		ropts.DialTimeout = cfg.Redis.DialTimeout
	}
	if cfg.Redis.ReadTimeout > 0 {
		ropts.ReadTimeout = cfg.Redis.ReadTimeout
	}
	rdb := redis.NewClient(ropts)

	base := []Option{
		WithLogger(logger.NewLogger(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})),
		WithDialect(cfg.Search.Dialect),
		WithMaxLimit(cfg.Search.MaxLimit),
		WithIndexPrefix(cfg.Search.IndexPrefix),
		WithIntentCacheSize(cfg.Search.IntentCacheSize),
	}
	c, err := New(rdb, append(base, opts...)...)
	if err != nil {
		rdb.Close()
		return nil, err
	}
	c.closer = rdb.Close
	return c, nil
}

// Close releases the connection pool when the client owns it.
func (c *Client) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer()
}

// Registry returns the schema registry.
func (c *Client) Registry() *schema.Registry { return c.registry }

// CompileContext returns the settings queries are compiled with.
func (c *Client) CompileContext() models.CompileContext { return c.cc }

// Metrics exposes the client's collectors.
func (c *Client) Metrics() *metrics.Metrics { return c.metrics }

// ============================================
// EXECUTION
// ============================================

// Do issues one raw command, recording its duration and outcome.
func (c *Client) Do(ctx context.Context, args ...interface{}) *redis.Cmd {
	name := commandName(args)
	start := time.Now()
	cmd := c.backend.Do(ctx, args...)
	duration := time.Since(start)

	err := cmd.Err()
	if errors.Is(err, redis.Nil) {
		err = nil
	}
	c.metrics.RecordExecution(name, duration, err)
	c.log.LogQuery(name, models.CommandString(args), duration, 0, err)
	return cmd
}

// Execute validates and runs a compiled FT.SEARCH or FT.AGGREGATE command
// and decodes its reply.
func (c *Client) Execute(ctx context.Context, q *models.CompiledQuery) (*models.ResultSet, error) {
	if err := validator.Validate(q); err != nil {
		return nil, err
	}
	args := q.Args()
	reply, err := c.Do(ctx, args...).Result()
	if err != nil {
		return nil, models.NewQueryExecutionError(q.String(), err)
	}
	rs, err := reverse.Decode(q, reply)
	if err != nil {
		return nil, models.NewQueryExecutionError(q.String(), err)
	}
	c.metrics.RecordRows(len(rs.Rows))
	c.log.QueryLogger(q.Command).Debug("reply decoded").
		Int64("total", rs.Total).
		Int("rows", len(rs.Rows)).
		Send()
	return rs, nil
}

// Delete removes documents by key and returns how many existed.
func (c *Client) Delete(ctx context.Context, keys ...string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	args := make([]interface{}, 0, len(keys)+1)
	args = append(args, "DEL")
	for _, k := range keys {
		args = append(args, k)
	}
	n, err := c.Do(ctx, args...).Int64()
	if err != nil {
		return 0, models.NewQueryExecutionError(models.CommandString(args), err)
	}
	return n, nil
}

// ============================================
// INDEX MANAGEMENT
// ============================================

// CreateIndex issues FT.CREATE for the schema and reserves its Bloom,
// Cuckoo and Count-Min structures.
func (c *Client) CreateIndex(ctx context.Context, s *models.EntitySchema) error {
	args := schema.CreateIndexArgs(s)
	args[1] = c.cc.IndexFor(s)
	if err := c.Do(ctx, args...).Err(); err != nil {
		return models.NewQueryExecutionError(models.CommandString(args), err)
	}
	if err := probabilistic.Reserve(ctx, c, s); err != nil {
		return err
	}
	c.log.SchemaLogger(s.Name).Info("index created").Str("index", c.cc.IndexFor(s)).Send()
	return nil
}

// DropIndex issues FT.DROPINDEX, deleting the documents when deleteDocs is set.
func (c *Client) DropIndex(ctx context.Context, s *models.EntitySchema, deleteDocs bool) error {
	args := schema.DropIndexArgs(s, deleteDocs)
	args[1] = c.cc.IndexFor(s)
	if err := c.Do(ctx, args...).Err(); err != nil {
		return models.NewQueryExecutionError(models.CommandString(args), err)
	}
	return nil
}

// AfterSave records a saved entity in its probabilistic structures. Storage
// layers call it once the document has been written.
func (c *Client) AfterSave(ctx context.Context, entity interface{}) error {
	return c.updater.AfterSave(ctx, entity)
}

// ============================================
// HELPERS
// ============================================

func commandName(args []interface{}) string {
	if len(args) == 0 {
		return ""
	}
	if s, ok := args[0].(string); ok {
		return s
	}
	return fmt.Sprint(args[0])
}

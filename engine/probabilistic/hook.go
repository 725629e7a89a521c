package probabilistic

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"

	search "github.com/omniql-engine/redisom/engine/builders/redis"
	"github.com/omniql-engine/redisom/engine/models"
	"github.com/omniql-engine/redisom/engine/schema"
	"github.com/omniql-engine/redisom/internal/logger"
)

// Hook is called by the storage layer after an entity has been saved.
type Hook interface {
	AfterSave(ctx context.Context, entity interface{}) error
}

// Updater adds saved values to the Bloom/Cuckoo filters and Count-Min
// sketches declared on the entity's fields.
type Updater struct {
	doer     Doer
	registry *schema.Registry
	log      *logger.Logger
}

var _ Hook = (*Updater)(nil)

// NewUpdater creates an Updater. A nil logger disables logging.
func NewUpdater(d Doer, registry *schema.Registry, log *logger.Logger) *Updater {
	if log == nil {
		log = logger.Nop()
	}
	return &Updater{
		doer:     d,
		registry: registry,
		log:      log.WithFields(map[string]interface{}{"component": "probabilistic"}),
	}
}

// AfterSave updates every structure of the entity. A failing command is
// logged and the remaining fields are still updated; all failures are
// returned joined.
func (u *Updater) AfterSave(ctx context.Context, entity interface{}) error {
	s, err := u.registry.Describe(reflect.TypeOf(entity))
	if err != nil {
		return err
	}
	return u.Update(ctx, s, entity)
}

// AfterSaveAll runs AfterSave for each entity.
func (u *Updater) AfterSaveAll(ctx context.Context, entities ...interface{}) error {
	var errs []error
	for _, e := range entities {
		if err := u.AfterSave(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Update writes the entity's values using an explicit schema (entities held
// as maps have no Go type to describe).
func (u *Updater) Update(ctx context.Context, s *models.EntitySchema, entity interface{}) error {
	var errs []error
	for _, cmd := range UpdateCommands(s, entity) {
		if err := u.doer.Do(ctx, cmd...).Err(); err != nil {
			u.log.Error("probabilistic update failed").
				Str("entity", s.Name).
				Str("command", models.CommandString(cmd)).
				Err(err).
				Send()
			errs = append(errs, models.NewQueryExecutionError(models.CommandString(cmd), err))
		}
	}
	return errors.Join(errs...)
}

// UpdateCommands returns the BF.ADD, CF.ADD and CMS.INCRBY commands that
// record entity. Collections add or count each element; a map of numbers
// increments each key by its value. Unset and empty fields are skipped.
func UpdateCommands(s *models.EntitySchema, entity interface{}) [][]interface{} {
	var cmds [][]interface{}
	for _, fd := range s.Fields {
		if fd.Filter == nil && fd.Sketch == nil {
			continue
		}
		v, ok := schema.ValueAt(entity, fd)
		if !ok || v == nil || v == "" {
			continue
		}

		if fd.Filter != nil {
			kind, add := KindBloom, "BF.ADD"
			if fd.Filter.Kind == models.FilterCuckoo {
				kind, add = KindCuckoo, "CF.ADD"
			}
			key := KeyFor(s, fd, kind)
			for _, it := range search.Flatten(v) {
				cmds = append(cmds, []interface{}{add, key, search.FormatScalar(it)})
			}
		}

		if fd.Sketch != nil {
			key := KeyFor(s, fd, KindCountMin)
			if incr, ok := increments(v); ok {
				args := []interface{}{"CMS.INCRBY", key}
				for _, kv := range incr {
					args = append(args, kv.item, kv.n)
				}
				if len(incr) > 0 {
					cmds = append(cmds, args)
				}
				continue
			}
			items := search.Flatten(v)
			if len(items) == 0 {
				continue
			}
			args := []interface{}{"CMS.INCRBY", key}
			for _, it := range items {
				args = append(args, search.FormatScalar(it), 1)
			}
			cmds = append(cmds, args)
		}
	}
	return cmds
}

type increment struct {
	item string
	n    int64
}

// increments reads a map[string]<number> as item increments, sorted by item.
func increments(v interface{}) ([]increment, bool) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	out := make([]increment, 0, rv.Len())
	for _, k := range sortedKeys(rv) {
		n, err := toInt64(rv.MapIndex(k).Interface())
		if err != nil {
			return nil, false
		}
		out = append(out, increment{item: k.String(), n: n})
	}
	return out, true
}

func sortedKeys(m reflect.Value) []reflect.Value {
	keys := m.MapKeys()
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys
}

func toInt64(v interface{}) (int64, error) {
	rv := reflect.ValueOf(v)
	switch {
	case rv.CanInt():
		return rv.Int(), nil
	case rv.CanUint():
		return int64(rv.Uint()), nil
	case rv.CanFloat():
		return int64(rv.Float()), nil
	}
	return 0, fmt.Errorf("increment of type %T is not a number", v)
}

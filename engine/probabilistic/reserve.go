package probabilistic

import (
	"context"
	"errors"

	"github.com/omniql-engine/redisom/engine/models"
)

// ReserveCommands returns the commands creating every structure declared on
// the schema, keyed by structure key.
func ReserveCommands(s *models.EntitySchema) ([]string, [][]interface{}) {
	var keys []string
	var cmds [][]interface{}
	for _, fd := range s.Fields {
		if f := fd.Filter; f != nil {
			if f.Kind == models.FilterCuckoo {
				key := KeyFor(s, fd, KindCuckoo)
				keys = append(keys, key)
				cmds = append(cmds, []interface{}{"CF.RESERVE", key, f.Capacity})
			} else {
				key := KeyFor(s, fd, KindBloom)
				keys = append(keys, key)
				cmds = append(cmds, []interface{}{"BF.RESERVE", key, f.ErrorRate, f.Capacity})
			}
		}
		if sk := fd.Sketch; sk != nil {
			key := KeyFor(s, fd, KindCountMin)
			keys = append(keys, key)
			if sk.Init == models.SketchByDimensions {
				cmds = append(cmds, []interface{}{"CMS.INITBYDIM", key, sk.Width, sk.Depth})
			} else {
				cmds = append(cmds, []interface{}{"CMS.INITBYPROB", key, sk.ErrorRate, sk.Probability})
			}
		}
	}
	return keys, cmds
}

// Reserve creates the structures of s that do not exist yet. Existing keys
// are left untouched.
func Reserve(ctx context.Context, d Doer, s *models.EntitySchema) error {
	keys, cmds := ReserveCommands(s)
	var errs []error
	for i, key := range keys {
		n, err := d.Do(ctx, "EXISTS", key).Int64()
		if err != nil {
			errs = append(errs, models.NewQueryExecutionError("EXISTS "+key, err))
			continue
		}
		if n > 0 {
			continue
		}
		if err := d.Do(ctx, cmds[i]...).Err(); err != nil {
			errs = append(errs, models.NewQueryExecutionError(models.CommandString(cmds[i]), err))
		}
	}
	return errors.Join(errs...)
}

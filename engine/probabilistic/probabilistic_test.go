package probabilistic

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/redis/go-redis/v9"

	"github.com/omniql-engine/redisom/engine/models"
	"github.com/omniql-engine/redisom/engine/schema"
)

type user struct {
	ID     string         `redisom:"id"`
	Email  string         `redisom:"tag" bloom:"capacity=1000,error=0.01"`
	Nick   string         `cuckoo:"name=nicks"`
	Team   string         `redisom:"tag" countmin:""`
	Skills []string       `countmin:"width=100,depth=5"`
	Votes  map[string]int `countmin:"name=votes"`
	Name   string         `redisom:"text"`
}

// recorder is a Doer that records commands and answers from a function.
type recorder struct {
	calls [][]interface{}
	reply func(args []interface{}) (interface{}, error)
}

func (r *recorder) Do(ctx context.Context, args ...interface{}) *redis.Cmd {
	r.calls = append(r.calls, args)
	if r.reply == nil {
		return redis.NewCmdResult("OK", nil)
	}
	return redis.NewCmdResult(r.reply(args))
}

func userSchema(t *testing.T) (*schema.Registry, *models.EntitySchema) {
	t.Helper()
	reg := schema.NewRegistry(nil)
	s, err := reg.Describe(reflect.TypeOf(user{}))
	if err != nil {
		t.Fatal(err)
	}
	return reg, s
}

func TestTryDispatch(t *testing.T) {
	_, s := userSchema(t)

	tests := []struct {
		method string
		kind   Kind
		key    string
		ok     bool
	}{
		{"existsByEmail", KindBloom, "bf:user:email", true},
		{"existsByNick", KindCuckoo, "nicks", true},
		{"countByTeam", KindCountMin, "cms:user:team", true},
		{"countByVotes", KindCountMin, "votes", true},
		{"existsByName", "", "", false},
		{"countByEmail", "", "", false},
		{"existsByTeam", "", "", false},
		{"existsByEmailAndName", "", "", false},
		{"existsBy", "", "", false},
		{"findByEmail", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			call, ok := TryDispatch(tt.method, s)
			if ok != tt.ok {
				t.Fatalf("TryDispatch ok = %v, want %v", ok, tt.ok)
			}
			if !ok {
				return
			}
			if call.Kind != tt.kind || call.Key != tt.key {
				t.Errorf("call = %s %s, want %s %s", call.Kind, call.Key, tt.kind, tt.key)
			}
		})
	}
}

func TestCallArgs(t *testing.T) {
	_, s := userSchema(t)
	bloom, _ := TryDispatch("existsByEmail", s)
	cuckoo, _ := TryDispatch("existsByNick", s)
	cms, _ := TryDispatch("countByTeam", s)

	tests := []struct {
		name    string
		call    *Call
		operand interface{}
		want    []interface{}
	}{
		{"bloom single", bloom, "a@b.c", []interface{}{"BF.EXISTS", "bf:user:email", "a@b.c"}},
		{"bloom multi", bloom, []string{"a", "b"}, []interface{}{"BF.MEXISTS", "bf:user:email", "a", "b"}},
		{"cuckoo single", cuckoo, "ada", []interface{}{"CF.EXISTS", "nicks", "ada"}},
		{"cuckoo multi", cuckoo, []string{"x", "y"}, []interface{}{"CF.MEXISTS", "nicks", "x", "y"}},
		{"countmin", cms, 42, []interface{}{"CMS.QUERY", "cms:user:team", "42"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.call.Args(tt.operand)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Args mismatch (-want +got):\n%s", diff)
			}
		})
	}

	if _, err := bloom.Args([]string{}); !errors.Is(err, ErrNoValues) {
		t.Errorf("empty operand err = %v, want ErrNoValues", err)
	}
}

func TestExecute(t *testing.T) {
	_, s := userSchema(t)
	ctx := context.Background()

	bloom, _ := TryDispatch("existsByEmail", s)
	rec := &recorder{reply: func(args []interface{}) (interface{}, error) {
		if args[0] == "BF.MEXISTS" {
			return []interface{}{int64(1), int64(0)}, nil
		}
		return true, nil
	}}
	got, err := bloom.Exists(ctx, rec, "a@b.c")
	if err != nil || !cmp.Equal(got, []bool{true}) {
		t.Errorf("Exists = %v, %v", got, err)
	}
	got, err = bloom.Exists(ctx, rec, []string{"a", "b"})
	if err != nil || !cmp.Equal(got, []bool{true, false}) {
		t.Errorf("Exists multi = %v, %v", got, err)
	}

	cms, _ := TryDispatch("countByTeam", s)
	counts, err := cms.Count(ctx, &recorder{reply: func([]interface{}) (interface{}, error) {
		return []interface{}{int64(7)}, nil
	}}, "core")
	if err != nil || !cmp.Equal(counts, []int64{7}) {
		t.Errorf("Count = %v, %v", counts, err)
	}

	if _, err := cms.Exists(ctx, rec, "core"); err == nil {
		t.Error("Exists on a count-min call should fail")
	}

	failing := &recorder{reply: func([]interface{}) (interface{}, error) {
		return nil, errors.New("ERR not found")
	}}
	_, err = bloom.Exists(ctx, failing, "x")
	var qe *models.QueryExecutionError
	if !errors.As(err, &qe) || qe.Query != "BF.EXISTS bf:user:email x" {
		t.Errorf("err = %v, want QueryExecutionError for the BF.EXISTS command", err)
	}
}

func TestUpdater(t *testing.T) {
	reg, _ := userSchema(t)
	rec := &recorder{}
	u := NewUpdater(rec, reg, nil)

	err := u.AfterSave(context.Background(), &user{
		ID:     "1",
		Email:  "ada@example.com",
		Nick:   "ada",
		Team:   "core",
		Skills: []string{"go", "redis"},
		Votes:  map[string]int{"b": 2, "a": 1},
	})
	if err != nil {
		t.Fatal(err)
	}
	want := [][]interface{}{
		{"BF.ADD", "bf:user:email", "ada@example.com"},
		{"CF.ADD", "nicks", "ada"},
		{"CMS.INCRBY", "cms:user:team", "core", 1},
		{"CMS.INCRBY", "cms:user:skills", "go", 1, "redis", 1},
		{"CMS.INCRBY", "votes", "a", int64(1), "b", int64(2)},
	}
	if diff := cmp.Diff(want, rec.calls); diff != "" {
		t.Errorf("AfterSave commands mismatch (-want +got):\n%s", diff)
	}
}

func TestUpdaterCollectsFailures(t *testing.T) {
	reg, _ := userSchema(t)
	rec := &recorder{reply: func(args []interface{}) (interface{}, error) {
		if args[0] == "CF.ADD" {
			return nil, errors.New("ERR cuckoo")
		}
		return "OK", nil
	}}
	u := NewUpdater(rec, reg, nil)
	err := u.AfterSaveAll(context.Background(), user{Email: "a", Nick: "b"}, user{Email: "c"})
	if !errors.Is(err, models.ErrQueryExecution) {
		t.Fatalf("err = %v, want ErrQueryExecution", err)
	}
	// Both entities are still processed after the first failure.
	if len(rec.calls) != 3 {
		t.Errorf("issued %d commands, want 3: %v", len(rec.calls), rec.calls)
	}
}

func TestReserve(t *testing.T) {
	_, s := userSchema(t)
	rec := &recorder{reply: func(args []interface{}) (interface{}, error) {
		if args[0] == "EXISTS" {
			if args[1] == "nicks" {
				return int64(1), nil
			}
			return int64(0), nil
		}
		return "OK", nil
	}}
	if err := Reserve(context.Background(), rec, s); err != nil {
		t.Fatal(err)
	}

	var created [][]interface{}
	for _, c := range rec.calls {
		if c[0] != "EXISTS" {
			created = append(created, c)
		}
	}
	want := [][]interface{}{
		{"BF.RESERVE", "bf:user:email", 0.01, int64(1000)},
		{"CMS.INITBYPROB", "cms:user:team", 0.001, 0.99},
		{"CMS.INITBYDIM", "cms:user:skills", int64(100), int64(5)},
		{"CMS.INITBYPROB", "votes", 0.001, 0.99},
	}
	if diff := cmp.Diff(want, created); diff != "" {
		t.Errorf("Reserve commands mismatch (-want +got):\n%s", diff)
	}
}

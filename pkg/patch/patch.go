// Package patch computes the minimal, policy-constrained list of patch
// operations that turns a previous desired state into a new one.
//
// States are flat maps of field name to value. Only fields named by the
// Policy are ever emitted; everything else is immutable from the point of view
// of an update and is silently ignored.
package patch

import (
	"reflect"
	"strings"
)

type Op string

const (
	OpAdd     Op = "add"
	OpReplace Op = "replace"
	OpRemove  Op = "remove"
)

// Operation is a single mutation against one top-level field. Path is a JSON
// pointer ("/description").
type Operation struct {
	Op    Op     `json:"op"`
	Path  string `json:"path"`
	Value any    `json:"value,omitempty"`
}

// Policy declares which fields of a kind may change in place.
type Policy struct {
	Add           []string
	Replace       []string
	Remove        []string
	AddForReplace []string
}

// Fields returns every field named by the policy, in declaration order, without duplicates.
func (p Policy) Fields() []string {
	seen := map[string]bool{}
	var out []string
	for _, list := range [][]string{p.Add, p.AddForReplace, p.Replace, p.Remove} {
		for _, f := range list {
			if !seen[f] {
				seen[f] = true
				out = append(out, f)
			}
		}
	}
	return out
}

// Diff returns the operations turning oldState into newState under policy.
// Operations are grouped add, then replace (addForReplace first), then remove,
// each group in policy order. A path appears at most once. An empty result
// means the update is a no-op.
//
// A replace field cleared in newState is replaced with its zero value unless
// the policy lists it in Remove.
func Diff(newState, oldState map[string]any, policy Policy) []Operation {
	ops := []Operation{}
	emitted := map[string]bool{}

	emit := func(op Op, field string, value any) {
		if emitted[field] {
			return
		}
		emitted[field] = true
		o := Operation{Op: op, Path: Path(field)}
		if op != OpRemove {
			o.Value = value
		}
		ops = append(ops, o)
	}

	for _, f := range policy.Add {
		if !present(oldState, f) && present(newState, f) {
			emit(OpAdd, f, newState[f])
		}
	}

	for _, f := range policy.AddForReplace {
		if !present(oldState, f) && present(newState, f) {
			emit(OpReplace, f, newState[f])
		}
	}

	removable := map[string]bool{}
	for _, f := range policy.Remove {
		removable[f] = true
	}

	for _, f := range policy.Replace {
		if !present(oldState, f) {
			continue
		}
		switch {
		case present(newState, f):
			if !Equal(newState[f], oldState[f]) {
				emit(OpReplace, f, newState[f])
			}
		case !removable[f]:
			emit(OpReplace, f, zeroOf(oldState[f]))
		}
	}

	for _, f := range policy.Remove {
		if present(oldState, f) && !present(newState, f) {
			emit(OpRemove, f, nil)
		}
	}

	return ops
}

// Path converts a field name into a JSON pointer, escaping per RFC 6901.
func Path(field string) string {
	field = strings.ReplaceAll(field, "~", "~0")
	field = strings.ReplaceAll(field, "/", "~1")
	return "/" + field
}

// Equal reports deep value equality. Absent values (nil, "", empty collections)
// are equal to each other.
func Equal(a, b any) bool {
	if isZero(a) && isZero(b) {
		return true
	}
	return reflect.DeepEqual(normalize(a), normalize(b))
}

func present(state map[string]any, field string) bool {
	if state == nil {
		return false
	}
	v, ok := state[field]
	return ok && !isZero(v)
}

func isZero(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice:
		return rv.Len() == 0
	case reflect.Ptr, reflect.Interface:
		return rv.IsNil()
	case reflect.String:
		return rv.Len() == 0
	}
	// false and 0 are real values
	return false
}

// zeroOf returns the zero value of v's dereferenced type.
func zeroOf(v any) any {
	n := normalize(v)
	if n == nil {
		return nil
	}
	return reflect.Zero(reflect.TypeOf(n)).Interface()
}

// normalize dereferences pointers so that *string("a") equals "a".
func normalize(v any) any {
	rv := reflect.ValueOf(v)
	for rv.IsValid() && (rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface) {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return nil
	}
	return rv.Interface()
}

// StateOf flattens the exported top-level fields of a struct into a state map
// keyed by their mapstructure tag (or field name). Absent values are omitted.
// Fields tagged `patch:"-"` are skipped.
func StateOf(v any) map[string]any {
	state := map[string]any{}
	rv := reflect.ValueOf(v)
	for rv.IsValid() && rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return state
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() || rv.Kind() != reflect.Struct {
		return state
	}

	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() || sf.Tag.Get("patch") == "-" {
			continue
		}
		name := sf.Name
		if tag := sf.Tag.Get("mapstructure"); tag != "" {
			name = strings.Split(tag, ",")[0]
			if name == "-" {
				continue
			}
		}
		fv := rv.Field(i).Interface()
		if isZero(fv) {
			continue
		}
		state[name] = normalize(fv)
	}
	return state
}

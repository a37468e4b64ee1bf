package sqltemplate

import "strings"

// Scope is the lookup chain for dotted paths: an optional loop variable,
// checked first, then the global parameters.
type Scope struct {
	params Value
	local  *loopVar
}

// loopVar is the single name a foreach iteration binds.
type loopVar struct {
	name  string
	value Value
}

// GlobalScope returns a Scope with no loop variable.
func GlobalScope(params Value) Scope {
	return Scope{params: params}
}

// WithLocal returns a Scope binding name to value in front of the global
// parameters. An enclosing loop variable is shadowed, not chained.
func (s Scope) WithLocal(name string, value Value) Scope {
	return Scope{params: s.params, local: &loopVar{name: name, value: value}}
}

// Params returns the global parameters of the scope.
func (s Scope) Params() Value { return s.params }

// Resolve looks up a dotted path. The loop variable is tried first with the
// full path; on any missing segment the global parameters are tried. A path
// that resolves nowhere yields null.
func (s Scope) Resolve(path string) Value {
	path = strings.TrimSpace(path)
	if path == "" {
		return Null()
	}
	segments := strings.Split(path, ".")

	if s.local != nil && segments[0] == s.local.name {
		if v, ok := descend(s.local.value, segments[1:]); ok {
			return v
		}
	}
	if v, ok := descend(s.params, segments); ok {
		return v
	}
	return Null()
}

func descend(root Value, segments []string) (Value, bool) {
	current := root
	for _, seg := range segments {
		next, ok := current.Get(seg)
		if !ok {
			return Null(), false
		}
		current = next
	}
	return current, true
}

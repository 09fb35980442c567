package filter

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/loog-project/rulist/internal/user"
)

// MatchAll is the expression used when none is given.
const MatchAll = "All()"

// Env is the environment filter expressions are evaluated in.
// Fields are reachable as User.FirstName etc., methods as plain functions.
type Env struct {
	User user.Record
}

func (e Env) All() bool {
	return true
}

func (e Env) None() bool {
	return false
}

func (e Env) HasAvatar() bool {
	return strings.TrimSpace(e.User.AvatarURL) != ""
}

// Names matches if any value equals the first, last or full name (case-insensitive).
func (e Env) Names(vals ...string) bool {
	if len(vals) == 0 {
		return true
	}
	for _, val := range vals {
		if strings.EqualFold(val, e.User.FirstName) ||
			strings.EqualFold(val, e.User.LastName) ||
			strings.EqualFold(val, e.User.FullName()) {
			return true
		}
	}
	return false
}

func (e Env) Name(vals ...string) bool {
	return e.Names(vals...)
}

func (e Env) IDs(vals ...string) bool {
	if len(vals) == 0 {
		return true
	}
	for _, val := range vals {
		if val == string(e.User.ID) {
			return true
		}
	}
	return false
}

func (e Env) NameContains(s string) bool {
	return strings.Contains(strings.ToLower(e.User.FullName()), strings.ToLower(s))
}

// Filter decides which users are displayed.
type Filter struct {
	expression string
	program    *vm.Program
}

// Compile compiles a boolean expression. An empty expression matches everything.
func Compile(expression string) (*Filter, error) {
	if strings.TrimSpace(expression) == "" {
		expression = MatchAll
	}
	program, err := expr.Compile(expression, expr.Env(Env{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("cannot compile filter expression %q: %w", expression, err)
	}
	return &Filter{expression: expression, program: program}, nil
}

func (f *Filter) Match(r user.Record) (bool, error) {
	out, err := expr.Run(f.program, Env{User: r})
	if err != nil {
		return false, err
	}
	pass, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("filter returned %T, want bool", out)
	}
	return pass, nil
}

// MatchAll reports whether the filter lets everything through unchanged.
func (f *Filter) MatchAll() bool {
	return f == nil || f.expression == MatchAll
}

func (f *Filter) String() string {
	if f == nil {
		return MatchAll
	}
	return f.expression
}

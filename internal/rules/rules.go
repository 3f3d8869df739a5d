// Package rules compiles the CUE rulebook that events reference through
// their rule id.
//
// A rulebook is a CUE document with a top-level "rule" struct keyed by rule
// id. Every rule is unified with the #Rule schema, so defaults such as
// pool_size are filled in and range constraints are enforced by CUE itself:
//
//	rule: standard: {
//		name:         "Standard individual"
//		nature:       "individual"
//		pool_touches: 5
//		de_touches:   15
//	}
package rules

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/piste/internal/model"
)

//go:embed schema.cue
var schemaSource string

//go:embed default.cue
var defaultSource string

// Rule is the compiled form of one rulebook entry.
type Rule struct {
	ID          string
	Name        string
	Nature      model.Nature
	PoolTouches int
	DETouches   int
	PoolSize    int
	MinPoolSize int

	// CutoffRatio is 0 when the rule leaves the qualification share to the
	// process configuration.
	CutoffRatio float64
}

// Cutoff returns the rule's qualification share, or fallback when unset.
func (r Rule) Cutoff(fallback float64) float64 {
	if r.CutoffRatio > 0 {
		return r.CutoffRatio
	}
	return fallback
}

// Rulebook is an immutable set of rules.
type Rulebook struct {
	rules map[string]Rule
	ids   []string
}

// Lookup returns the rule with the given id.
func (b *Rulebook) Lookup(id string) (Rule, bool) {
	if b == nil {
		return Rule{}, false
	}
	r, ok := b.rules[id]
	return r, ok
}

// IDs returns the rule ids in ascending order.
func (b *Rulebook) IDs() []string {
	out := make([]string, len(b.ids))
	copy(out, b.ids)
	return out
}

// Default returns the embedded rulebook.
func Default() *Rulebook {
	b, err := Compile("default.cue", defaultSource)
	if err != nil {
		panic(fmt.Sprintf("embedded rulebook: %v", err))
	}
	return b
}

// Load compiles the rulebook at path. An empty path yields the embedded
// rulebook.
func Load(path string) (*Rulebook, error) {
	if path == "" {
		return Default(), nil
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rulebook: %w", err)
	}
	return Compile(path, string(src))
}

// Compile parses src and validates every rule against the schema.
func Compile(filename, src string) (*Rulebook, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	def := schema.LookupPath(cue.ParsePath("#Rule"))

	v := ctx.CompileString(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	rulesVal := v.LookupPath(cue.ParsePath("rule"))
	if !rulesVal.Exists() {
		return nil, &CompileError{
			Field:   "rule",
			Message: "at least one rule is required",
			Pos:     v.Pos(),
		}
	}

	iter, err := rulesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	book := &Rulebook{rules: make(map[string]Rule)}
	for iter.Next() {
		id := iter.Label()
		r, err := compileRule(id, def.Unify(iter.Value()))
		if err != nil {
			return nil, err
		}
		book.rules[id] = r
		book.ids = append(book.ids, id)
	}
	if len(book.ids) == 0 {
		return nil, &CompileError{
			Field:   "rule",
			Message: "at least one rule is required",
			Pos:     rulesVal.Pos(),
		}
	}
	sort.Strings(book.ids)

	return book, nil
}

func compileRule(id string, v cue.Value) (Rule, error) {
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return Rule{}, formatCUEError(err)
	}

	r := Rule{ID: id}
	var err error
	if r.Name, err = lookupString(v, "name"); err != nil {
		return Rule{}, err
	}
	nature, err := lookupString(v, "nature")
	if err != nil {
		return Rule{}, err
	}
	r.Nature = model.Nature(nature)

	ints := []struct {
		field string
		dst   *int
	}{
		{"pool_touches", &r.PoolTouches},
		{"de_touches", &r.DETouches},
		{"pool_size", &r.PoolSize},
		{"min_pool_size", &r.MinPoolSize},
	}
	for _, f := range ints {
		if *f.dst, err = lookupInt(v, f.field); err != nil {
			return Rule{}, err
		}
	}

	if r.MinPoolSize > r.PoolSize {
		return Rule{}, &CompileError{
			Field:   "rule." + id + ".min_pool_size",
			Message: fmt.Sprintf("min_pool_size %d exceeds pool_size %d", r.MinPoolSize, r.PoolSize),
			Pos:     v.Pos(),
		}
	}

	cr := v.LookupPath(cue.ParsePath("cutoff_ratio"))
	if cr.Exists() && cr.IsConcrete() {
		f, err := cr.Float64()
		if err != nil {
			return Rule{}, formatCUEError(err)
		}
		r.CutoffRatio = f
	}

	return r, nil
}

func lookupString(v cue.Value, field string) (string, error) {
	s, err := v.LookupPath(cue.ParsePath(field)).String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func lookupInt(v cue.Value, field string) (int, error) {
	fv, _ := v.LookupPath(cue.ParsePath(field)).Default()
	n, err := fv.Int64()
	if err != nil {
		return 0, formatCUEError(err)
	}
	return int(n), nil
}

// CompileError represents a rulebook error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}

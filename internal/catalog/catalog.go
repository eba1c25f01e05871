// Package catalog holds the verb registry: a name-keyed set of verb
// definitions built once from declarative sources, checked for authoring
// defects, and read-only afterwards.
package catalog

import (
	"errors"
	"slices"
	"sort"

	"github.com/cockroachdb/apd/v3"

	"github.com/roach88/verbcheck/internal/ir"
	"github.com/roach88/verbcheck/internal/suggest"
)

// Catalog is an immutable verb registry. Safe for concurrent use.
type Catalog struct {
	verbs   map[string]*ir.VerbDefinition
	names   []string // sorted
	domains []string // sorted, unique
}

// New copies defs, compiles their patterns, and runs the load-time checks.
// On any defect it returns a *DefectError and no catalog.
func New(defs []ir.VerbDefinition) (*Catalog, error) {
	c := &Catalog{verbs: make(map[string]*ir.VerbDefinition, len(defs))}
	var defects []Defect

	for i := range defs {
		def := cloneVerb(&defs[i])
		defects = append(defects, checkVerb(def)...)
		if def.Name == "" {
			continue
		}
		if _, dup := c.verbs[def.Name]; dup {
			defects = append(defects, Defect{
				Verb:    def.Name,
				Code:    ErrDuplicateVerb,
				Message: "verb is declared more than once",
			})
			continue
		}
		c.verbs[def.Name] = def
	}
	if len(defects) > 0 {
		return nil, &DefectError{Defects: defects}
	}

	domainSet := make(map[string]bool)
	for name, def := range c.verbs {
		c.names = append(c.names, name)
		domainSet[def.Domain] = true
	}
	sort.Strings(c.names)
	for d := range domainSet {
		c.domains = append(c.domains, d)
	}
	sort.Strings(c.domains)
	return c, nil
}

// Lookup returns the definition for a verb name. The returned definition
// is shared and must not be modified.
func (c *Catalog) Lookup(name string) (*ir.VerbDefinition, bool) {
	def, ok := c.verbs[name]
	return def, ok
}

// SuggestSimilar ranks catalog verb names close to name.
// A limit of zero or less uses suggest.DefaultLimit.
func (c *Catalog) SuggestSimilar(name string, limit int) []string {
	if limit <= 0 {
		limit = suggest.DefaultLimit
	}
	return suggest.Rank(name, c.names, limit)
}

// Names returns every verb name in sorted order.
func (c *Catalog) Names() []string {
	return slices.Clone(c.names)
}

// Len returns the number of verbs.
func (c *Catalog) Len() int {
	return len(c.verbs)
}

// Domains returns the distinct domain tags in sorted order.
func (c *Catalog) Domains() []string {
	return slices.Clone(c.domains)
}

// Verbs returns the definitions of one domain, or all of them when domain
// is empty, sorted by name.
func (c *Catalog) Verbs(domain string) []*ir.VerbDefinition {
	var out []*ir.VerbDefinition
	for _, name := range c.names {
		def := c.verbs[name]
		if domain == "" || def.Domain == domain {
			out = append(out, def)
		}
	}
	return out
}

// Compile converts declarations into definitions and builds the catalog.
// Conversion defects and load-time check defects are reported together,
// each tagged with the source its verb was declared in.
func Compile(decls []VerbDecl) (*Catalog, error) {
	type defectKey struct{ verb, field, code string }

	var defects []Defect
	reported := make(map[defectKey]bool)
	defs := make([]ir.VerbDefinition, 0, len(decls))
	sources := make(map[string]string, len(decls))

	for _, d := range decls {
		def, convDefects := d.Definition()
		for i := range convDefects {
			convDefects[i].Source = d.Source
			reported[defectKey{convDefects[i].Verb, convDefects[i].Field, convDefects[i].Code}] = true
		}
		defects = append(defects, convDefects...)
		if _, seen := sources[def.Name]; !seen {
			sources[def.Name] = d.Source
		}
		defs = append(defs, def)
	}

	cat, err := New(defs)
	var defectErr *DefectError
	if errors.As(err, &defectErr) {
		for _, d := range defectErr.Defects {
			// A declaration that failed to convert leaves a zero value
			// behind; its check defect repeats the conversion defect.
			if reported[defectKey{d.Verb, d.Field, d.Code}] {
				continue
			}
			if d.Source == "" {
				d.Source = sources[d.Verb]
			}
			defects = append(defects, d)
		}
	} else if err != nil {
		return nil, err
	}
	if len(defects) > 0 {
		return nil, &DefectError{Defects: defects}
	}
	return cat, nil
}

func cloneVerb(v *ir.VerbDefinition) *ir.VerbDefinition {
	out := *v
	out.Args = cloneArgs(v.Args)
	out.Constraints = make([]ir.CrossConstraint, len(v.Constraints))
	for i, c := range v.Constraints {
		c.Args = slices.Clone(c.Args)
		out.Constraints[i] = c
	}
	if v.Produces != nil {
		p := *v.Produces
		out.Produces = &p
	}
	out.Examples = slices.Clone(v.Examples)
	return &out
}

func cloneArgs(args []ir.ArgumentSpec) []ir.ArgumentSpec {
	if args == nil {
		return nil
	}
	out := make([]ir.ArgumentSpec, len(args))
	for i, a := range args {
		a.Type = cloneType(a.Type)
		if a.Default != nil {
			d := *a.Default
			a.Default = &d
		}
		rules := make([]ir.ValidationRule, len(a.Rules))
		for j, r := range a.Rules {
			rules[j] = cloneRule(r)
		}
		a.Rules = rules
		out[i] = a
	}
	return out
}

func cloneType(t ir.Type) ir.Type {
	t.Values = slices.Clone(t.Values)
	if t.Elem != nil {
		e := cloneType(*t.Elem)
		t.Elem = &e
	}
	t.Fields = cloneArgs(t.Fields)
	if t.Options != nil {
		opts := make([]ir.Type, len(t.Options))
		for i, o := range t.Options {
			opts[i] = cloneType(o)
		}
		t.Options = opts
	}
	return t
}

func cloneRule(r ir.ValidationRule) ir.ValidationRule {
	r.Min = cloneDecimal(r.Min)
	r.Max = cloneDecimal(r.Max)
	if r.MinLen != nil {
		n := *r.MinLen
		r.MinLen = &n
	}
	if r.MaxLen != nil {
		n := *r.MaxLen
		r.MaxLen = &n
	}
	if r.After != nil {
		b := *r.After
		r.After = &b
	}
	if r.Before != nil {
		b := *r.Before
		r.Before = &b
	}
	return r
}

func cloneDecimal(d *apd.Decimal) *apd.Decimal {
	if d == nil {
		return nil
	}
	return new(apd.Decimal).Set(d)
}

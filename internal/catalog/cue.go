package catalog

import (
	"errors"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"
)

// CompileError is a declaration error with its CUE source position.
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

// LoadCUE loads the CUE package in dir and decodes every verb declared
// under the top-level "verb" struct:
//
//	verb: "case.open": {
//		produces: "case"
//		args: [
//			{name: "title", type: "text", required: true},
//		]
//	}
//
// All declaration errors are collected and returned joined.
func LoadCUE(dir string) ([]VerbDecl, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("catalog directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("catalog directory: not a directory: %s", dir)
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, fmt.Errorf("no CUE instances loaded from %s", dir)
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, fmt.Errorf("loading CUE files: %w", formatCUEError(inst.Err))
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("building CUE value: %w", formatCUEError(err))
	}
	return CompileVerbs(value)
}

// CompileVerbs decodes every field of the "verb" struct of a built value.
func CompileVerbs(value cue.Value) ([]VerbDecl, error) {
	verbsVal := value.LookupPath(cue.ParsePath("verb"))
	if !verbsVal.Exists() {
		return nil, &CompileError{Field: "verb", Message: "no verb struct found", Pos: value.Pos()}
	}
	iter, err := verbsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var decls []VerbDecl
	var errs []error
	for iter.Next() {
		decl, err := CompileVerb(iter.Selector().Unquoted(), iter.Value())
		if err != nil {
			errs = append(errs, err)
			continue
		}
		decls = append(decls, decl)
	}
	return decls, errors.Join(errs...)
}

// CompileVerb decodes one verb struct. Unknown fields are rejected with
// their position so that typos do not silently drop a rule.
func CompileVerb(name string, v cue.Value) (VerbDecl, error) {
	if err := v.Err(); err != nil {
		return VerbDecl{}, formatCUEError(err)
	}
	if err := checkVerbShape(v); err != nil {
		return VerbDecl{}, err
	}

	var decl VerbDecl
	if err := v.Decode(&decl); err != nil {
		return VerbDecl{}, formatCUEError(err)
	}
	if decl.Name == "" {
		decl.Name = name
	} else if decl.Name != name {
		return VerbDecl{}, &CompileError{
			Field:   "verb." + name + ".name",
			Message: fmt.Sprintf("name %q does not match label %q", decl.Name, name),
			Pos:     v.Pos(),
		}
	}
	decl.Source = posString(v.Pos())
	return decl, nil
}

var (
	verbFields       = fieldSet("name", "domain", "description", "examples", "produces", "args", "constraints")
	argFields        = fieldSet("name", "type", "required", "default", "rules", "fields", "description")
	defaultFields    = fieldSet("context", "value")
	ruleFields       = fieldSet("kind", "min", "max", "pattern", "description", "after", "before")
	constraintFields = fieldSet("kind", "args", "when", "equals", "then", "lesser", "greater")
)

func checkVerbShape(v cue.Value) error {
	if err := closedFields(v, "verb", verbFields); err != nil {
		return err
	}
	if err := eachListItem(v, "args", func(item cue.Value) error {
		return checkArgShape(item)
	}); err != nil {
		return err
	}
	return eachListItem(v, "constraints", func(item cue.Value) error {
		return closedFields(item, "constraint", constraintFields)
	})
}

func checkArgShape(v cue.Value) error {
	if err := closedFields(v, "arg", argFields); err != nil {
		return err
	}
	if d := v.LookupPath(cue.ParsePath("default")); d.Exists() {
		if err := closedFields(d, "default", defaultFields); err != nil {
			return err
		}
	}
	if err := eachListItem(v, "rules", func(item cue.Value) error {
		return closedFields(item, "rule", ruleFields)
	}); err != nil {
		return err
	}
	return eachListItem(v, "fields", checkArgShape)
}

func closedFields(v cue.Value, what string, allowed map[string]bool) error {
	iter, err := v.Fields()
	if err != nil {
		return formatCUEError(err)
	}
	for iter.Next() {
		label := iter.Selector().Unquoted()
		if !allowed[label] {
			return &CompileError{
				Field:   what,
				Message: fmt.Sprintf("unknown field %q", label),
				Pos:     iter.Value().Pos(),
			}
		}
	}
	return nil
}

func eachListItem(v cue.Value, field string, fn func(cue.Value) error) error {
	listVal := v.LookupPath(cue.ParsePath(field))
	if !listVal.Exists() {
		return nil
	}
	iter, err := listVal.List()
	if err != nil {
		return formatCUEError(err)
	}
	for iter.Next() {
		if err := fn(iter.Value()); err != nil {
			return err
		}
	}
	return nil
}

func fieldSet(names ...string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}

func posString(pos token.Pos) string {
	if !pos.IsValid() {
		return ""
	}
	return fmt.Sprintf("%s:%d:%d", pos.Filename(), pos.Line(), pos.Column())
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}

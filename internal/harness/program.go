package harness

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/verbcheck/internal/ir"
	"github.com/roach88/verbcheck/internal/testutil"
)

// BuildProgram renders scenario steps as DSL source, one call per line,
// with the exact spans a parser would attach.
func BuildProgram(steps []Step) (*ir.Program, error) {
	b := testutil.NewProgram()
	for i, step := range steps {
		args, err := stepArgs(step)
		if err != nil {
			return nil, fmt.Errorf("program[%d] %s: %w", i, step.Call, err)
		}
		b.Call(step.Call, args...)
	}
	return b.Program(), nil
}

func stepArgs(step Step) ([]testutil.KV, error) {
	var args []testutil.KV
	if step.Args.Kind != 0 {
		kvs, err := entriesOf(&step.Args)
		if err != nil {
			return nil, err
		}
		args = kvs
	}
	if step.As != "" {
		args = append(args, testutil.As(strings.TrimPrefix(step.As, "@")))
	}
	return args, nil
}

func entriesOf(n *yaml.Node) ([]testutil.KV, error) {
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: expected a mapping", n.Line)
	}
	kvs := make([]testutil.KV, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		lit, err := literalOf(val)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key.Value, err)
		}
		kvs = append(kvs, testutil.Kw(key.Value, lit))
	}
	return kvs, nil
}

// literalOf maps a YAML node onto a DSL literal. Scalars keep their raw
// text so decimals are written exactly as the scenario spells them.
func literalOf(n *yaml.Node) (testutil.Lit, error) {
	switch n.Kind {
	case yaml.AliasNode:
		return literalOf(n.Alias)
	case yaml.SequenceNode:
		items := make([]testutil.Lit, len(n.Content))
		for i, c := range n.Content {
			lit, err := literalOf(c)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			items[i] = lit
		}
		return testutil.List(items...), nil
	case yaml.MappingNode:
		kvs, err := entriesOf(n)
		if err != nil {
			return nil, err
		}
		return testutil.Map(kvs...), nil
	}

	switch n.ShortTag() {
	case "!!str", "!!timestamp":
		if name, ok := strings.CutPrefix(n.Value, "@"); ok {
			return testutil.Sym(name), nil
		}
		return testutil.Text(n.Value), nil
	case "!!int":
		v, err := strconv.ParseInt(n.Value, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: integer %q: %w", n.Line, n.Value, err)
		}
		return testutil.Int(v), nil
	case "!!float":
		return testutil.Dec(n.Value), nil
	case "!!bool":
		v, err := strconv.ParseBool(n.Value)
		if err != nil {
			return nil, fmt.Errorf("line %d: boolean %q: %w", n.Line, n.Value, err)
		}
		return testutil.Bool(v), nil
	case "!!null":
		return nil, fmt.Errorf("line %d: null is not a value", n.Line)
	default:
		return nil, fmt.Errorf("line %d: unsupported literal %s", n.Line, n.ShortTag())
	}
}

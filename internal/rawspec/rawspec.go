// Package rawspec decodes filter specifications and parameter values from
// YAML or JSON documents.
//
// A filter document is the nested-list form accepted by filter.Compile.
// Mappings may only appear as argument placeholders:
//
//	- ":or"
//	- - ["status", "open"]
//	  - ["total gt", {param: minTotal}]
//	  - ["items", [["price gt", {expr: "^.total"}]]]
//
// A parameter document is a flat mapping of parameter names to scalar
// values.
package rawspec

import (
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/recfilter/internal/filter"
)

// Error is a decoding error at a position of the source document.
type Error struct {
	Line    int
	Column  int
	Message string
}

func (e *Error) Error() string {
	if e.Line == 0 {
		return e.Message
	}
	return fmt.Sprintf("line %d, column %d: %s", e.Line, e.Column, e.Message)
}

func nodeError(n *yaml.Node, format string, args ...any) *Error {
	return &Error{Line: n.Line, Column: n.Column, Message: fmt.Sprintf(format, args...)}
}

// DecodeFile reads and decodes the filter specification at path.
func DecodeFile(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read filter file %s: %w", path, err)
	}
	spec, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return spec, nil
}

// Decode decodes a filter specification. An empty document yields a nil
// specification.
func Decode(data []byte) (any, error) {
	root, err := parse(data)
	if err != nil || root == nil {
		return nil, err
	}
	return specValue(root)
}

// DecodeNode decodes a filter specification embedded in a larger YAML
// document. A zero or null node yields a nil specification.
func DecodeNode(n *yaml.Node) (any, error) {
	root := rootNode(n)
	if root == nil {
		return nil, nil
	}
	return specValue(root)
}

// DecodeParamsFile reads and decodes the parameter values at path.
func DecodeParamsFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read params file %s: %w", path, err)
	}
	values, err := DecodeParams(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return values, nil
}

// DecodeParams decodes a mapping of parameter names to values. An empty
// document yields an empty map.
func DecodeParams(data []byte) (map[string]any, error) {
	root, err := parse(data)
	if err != nil {
		return nil, err
	}
	return paramValues(root)
}

// DecodeParamsNode decodes parameter values embedded in a larger YAML
// document.
func DecodeParamsNode(n *yaml.Node) (map[string]any, error) {
	return paramValues(rootNode(n))
}

func paramValues(root *yaml.Node) (map[string]any, error) {
	values := map[string]any{}
	if root == nil {
		return values, nil
	}
	if root.Kind != yaml.MappingNode {
		return nil, nodeError(root, "parameters must be a mapping")
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i], resolveAlias(root.Content[i+1])
		if key.Kind != yaml.ScalarNode || key.Tag != "!!str" {
			return nil, nodeError(key, "parameter names must be strings")
		}
		if _, dup := values[key.Value]; dup {
			return nil, nodeError(key, "duplicate parameter %q", key.Value)
		}
		if val.Kind != yaml.ScalarNode {
			return nil, nodeError(val, "parameter %q must be a scalar", key.Value)
		}
		v, err := scalarValue(val)
		if err != nil {
			return nil, err
		}
		values[key.Value] = v
	}
	return values, nil
}

// parse returns the root node of the single document in data, or nil if
// the document is empty.
func parse(data []byte) (*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &Error{Message: err.Error()}
	}
	return rootNode(&doc), nil
}

// rootNode unwraps document and alias nodes. It returns nil for an empty
// document or a null value.
func rootNode(n *yaml.Node) *yaml.Node {
	if n == nil || n.Kind == 0 {
		return nil
	}
	if n.Kind == yaml.DocumentNode {
		if len(n.Content) == 0 {
			return nil
		}
		n = n.Content[0]
	}
	n = resolveAlias(n)
	if n.Kind == yaml.ScalarNode && n.Tag == "!!null" {
		return nil
	}
	return n
}

func resolveAlias(n *yaml.Node) *yaml.Node {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

func specValue(n *yaml.Node) (any, error) {
	n = resolveAlias(n)
	switch n.Kind {
	case yaml.SequenceNode:
		list := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := specValue(c)
			if err != nil {
				return nil, err
			}
			list = append(list, v)
		}
		return list, nil
	case yaml.MappingNode:
		return placeholder(n)
	case yaml.ScalarNode:
		return scalarValue(n)
	default:
		return nil, nodeError(n, "unexpected YAML node")
	}
}

// placeholder decodes a {param: name} or {expr: expression} mapping.
func placeholder(n *yaml.Node) (any, error) {
	if len(n.Content) != 2 {
		return nil, nodeError(n, "placeholder must have exactly one of the keys param or expr")
	}
	key, val := n.Content[0], resolveAlias(n.Content[1])
	if val.Kind != yaml.ScalarNode || val.Tag != "!!str" || val.Value == "" {
		return nil, nodeError(val, "%s placeholder requires a non-empty string", key.Value)
	}
	switch key.Value {
	case "param":
		return filter.Param{Name: val.Value}, nil
	case "expr":
		return filter.Expr{Expr: val.Value}, nil
	default:
		return nil, nodeError(key, "unknown placeholder %q", key.Value)
	}
}

func scalarValue(n *yaml.Node) (any, error) {
	switch n.Tag {
	case "!!null":
		return nil, nil
	case "!!str":
		return n.Value, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, nodeError(n, "%v", err)
		}
		return b, nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err == nil {
			return i, nil
		}
		var u uint64
		if err := n.Decode(&u); err != nil {
			return nil, nodeError(n, "integer %s out of range", n.Value)
		}
		return u, nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, nodeError(n, "%v", err)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, nodeError(n, "number %s is not finite", n.Value)
		}
		return f, nil
	case "!!timestamp":
		var ts time.Time
		if err := n.Decode(&ts); err != nil {
			return nil, nodeError(n, "%v", err)
		}
		return ts, nil
	default:
		return nil, nodeError(n, "unsupported value of type %s", n.Tag)
	}
}

// IsDecodeError reports whether err is a positioned decoding error.
func IsDecodeError(err error) bool {
	var e *Error
	return errors.As(err, &e)
}

package manifest

import (
	"fmt"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"anon-bd/anonrun/pkg/failure"
)

const (
	tagNull  = "!!null"
	tagInt   = "!!int"
	tagFloat = "!!float"
	tagBool  = "!!bool"
)

// lookup returns the value node stored under key in a mapping node.
func lookup(node *yaml.Node, key string) (*yaml.Node, bool) {
	if node == nil || node.Kind != yaml.MappingNode {
		return nil, false
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return resolveAlias(node.Content[i+1]), true
		}
	}
	return nil, false
}

func resolveAlias(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}

func isNull(n *yaml.Node) bool {
	return n == nil || (n.Kind == yaml.ScalarNode && n.Tag == tagNull)
}

// RequireField returns the value stored under key. It fails with a
// configuration error when the key is absent or explicitly null; required
// fields never fall back to a default.
func RequireField(node *yaml.Node, key string) (*yaml.Node, error) {
	n, ok := lookup(node, key)
	if !ok || isNull(n) {
		return nil, failure.Configuration(key, "missing required key: %s", key)
	}
	return n, nil
}

// optionalField returns the value under key, treating null as absent.
func optionalField(node *yaml.Node, key string) (*yaml.Node, bool) {
	n, ok := lookup(node, key)
	if !ok || isNull(n) {
		return nil, false
	}
	return n, true
}

// ReadRoundedInt reads the required numeric field key as an int. Integer
// values pass through unchanged; fractional values are rounded to the
// nearest integer, halves away from zero (2.5 -> 3, 2.4 -> 2, -2.5 -> -3).
func ReadRoundedInt(node *yaml.Node, key string) (int, error) {
	n, err := RequireField(node, key)
	if err != nil {
		return 0, err
	}
	d, err := numberValue(n)
	if err != nil {
		return 0, failure.Configuration(key, "%s %v", key, err)
	}
	return toInt(d.Round(0), key)
}

// readInt reads a numeric scalar that must hold an integral value.
func readInt(n *yaml.Node, key string) (int, error) {
	d, err := numberValue(n)
	if err != nil {
		return 0, failure.Configuration(key, "%s %v", key, err)
	}
	if !d.IsInteger() {
		return 0, failure.Configuration(key, "%s must be an integer, got %s", key, n.Value)
	}
	return toInt(d, key)
}

// readFloat reads a numeric scalar as float64.
func readFloat(n *yaml.Node, key string) (float64, error) {
	d, err := numberValue(n)
	if err != nil {
		return 0, failure.Configuration(key, "%s %v", key, err)
	}
	f, _ := d.Float64()
	return f, nil
}

// readBool reads a boolean scalar.
func readBool(n *yaml.Node, key string) (bool, error) {
	if n.Kind != yaml.ScalarNode || n.Tag != tagBool {
		return false, failure.Configuration(key, "%s must be a boolean, got %q", key, n.Value)
	}
	var b bool
	if err := n.Decode(&b); err != nil {
		return false, failure.Configuration(key, "%s must be a boolean: %v", key, err)
	}
	return b, nil
}

// readString reads any non-null scalar as its literal text.
func readString(n *yaml.Node, key string) (string, error) {
	if n.Kind != yaml.ScalarNode {
		return "", failure.Configuration(key, "%s must be a string", key)
	}
	return n.Value, nil
}

func numberValue(n *yaml.Node) (decimal.Decimal, error) {
	if n.Kind != yaml.ScalarNode || (n.Tag != tagInt && n.Tag != tagFloat) {
		return decimal.Zero, fmt.Errorf("must be a number, got %q", n.Value)
	}
	if n.Tag == tagInt {
		// Decode accepts every YAML integer form, not just decimal digits.
		var i int64
		if err := n.Decode(&i); err != nil {
			return decimal.Zero, fmt.Errorf("must be a number: %v", err)
		}
		return decimal.NewFromInt(i), nil
	}
	d, err := decimal.NewFromString(n.Value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("must be a finite number, got %q", n.Value)
	}
	return d, nil
}

var (
	maxInt32 = decimal.NewFromInt(1<<31 - 1)
	minInt32 = decimal.NewFromInt(-1 << 31)
)

func toInt(d decimal.Decimal, key string) (int, error) {
	if d.GreaterThan(maxInt32) || d.LessThan(minInt32) {
		return 0, failure.Configuration(key, "%s is out of range: %s", key, d.String())
	}
	return int(d.IntPart()), nil
}

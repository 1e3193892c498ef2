package manifest

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"anon-bd/anonrun/pkg/dataset"
	"anon-bd/anonrun/pkg/failure"
)

// Load reads and validates the manifest at path. JSON manifests are accepted
// since JSON is a subset of YAML.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, failure.IO(path, "cannot read manifest "+path, err)
	}
	return Parse(data, path)
}

// Parse parses and validates a manifest document. Every problem is collected
// into a single ValidationError; sections are checked in the order input,
// output, hierarchy_separator, attributes, privacy, algorithm, and array
// entries in array order, so the report is deterministic.
//
// Parse performs no file I/O: input, hierarchy and output paths are checked
// when the job is prepared.
func Parse(data []byte, path string) (*Manifest, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, failure.Configuration("", "cannot parse manifest %s: %v", path, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, failure.Configuration("", "manifest %s is empty", path)
	}
	root := resolveAlias(doc.Content[0])
	if root.Kind != yaml.MappingNode {
		return nil, failure.Configuration("", "manifest %s must be an object", path)
	}

	p := &parser{}
	m := p.manifest(root)
	m.Path = path

	if len(p.errs) > 0 {
		return nil, ValidationError{Path: path, Errors: p.errs}
	}
	return m, nil
}

type parser struct {
	errs []FieldError
}

func (p *parser) add(field string, n *yaml.Node, format string, args ...any) {
	fe := FieldError{Field: field, Message: fmt.Sprintf(format, args...)}
	if n != nil {
		fe.Line = n.Line
	}
	p.errs = append(p.errs, fe)
}

// addErr records err against field, unwrapping configuration errors so the
// report carries their message rather than the kind prefix.
func (p *parser) addErr(field string, n *yaml.Node, err error) {
	var fe *failure.Error
	if errors.As(err, &fe) {
		p.add(field, n, "%s", fe.Message)
		return
	}
	p.add(field, n, "%v", err)
}

func join(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

// require returns the required child key of parent or records an error.
func (p *parser) require(parent *yaml.Node, prefix, key string) *yaml.Node {
	n, err := RequireField(parent, key)
	if err != nil {
		p.addErr(join(prefix, key), parent, err)
		return nil
	}
	return n
}

// mapping returns n if it is a mapping node or records an error.
func (p *parser) mapping(n *yaml.Node, field string) *yaml.Node {
	if n == nil {
		return nil
	}
	if n.Kind != yaml.MappingNode {
		p.add(field, n, "must be an object")
		return nil
	}
	return n
}

// sequence returns the entries of n if it is a sequence node or records an error.
func (p *parser) sequence(n *yaml.Node, field string) ([]*yaml.Node, bool) {
	if n.Kind != yaml.SequenceNode {
		p.add(field, n, "must be an array")
		return nil, false
	}
	items := make([]*yaml.Node, len(n.Content))
	for i, item := range n.Content {
		items[i] = resolveAlias(item)
	}
	return items, true
}

func (p *parser) requiredString(parent *yaml.Node, prefix, key string) string {
	n := p.require(parent, prefix, key)
	if n == nil {
		return ""
	}
	s, err := readString(n, key)
	if err != nil {
		p.addErr(join(prefix, key), n, err)
		return ""
	}
	if strings.TrimSpace(s) == "" {
		p.add(join(prefix, key), n, "must not be empty")
	}
	return s
}

func (p *parser) optionalString(parent *yaml.Node, prefix, key, def string) string {
	n, ok := optionalField(parent, key)
	if !ok {
		return def
	}
	s, err := readString(n, key)
	if err != nil {
		p.addErr(join(prefix, key), n, err)
		return def
	}
	return s
}

func (p *parser) optionalSeparator(parent *yaml.Node, prefix, key string, def rune) rune {
	n, ok := optionalField(parent, key)
	if !ok {
		return def
	}
	s, err := readString(n, key)
	if err != nil {
		p.addErr(join(prefix, key), n, err)
		return def
	}
	if utf8.RuneCountInString(s) != 1 {
		p.add(join(prefix, key), n, "must be a single character, got %q", s)
		return def
	}
	r, _ := utf8.DecodeRuneInString(s)
	if r == '"' {
		p.add(join(prefix, key), n, "must not be the quote character")
		return def
	}
	return r
}

func (p *parser) manifest(root *yaml.Node) *Manifest {
	m := &Manifest{
		Version: p.optionalString(root, "", "version", ""),
	}

	if in := p.mapping(p.require(root, "", "input"), "input"); in != nil {
		m.Input = p.input(in)
	} else {
		m.Input.Separator = DefaultSeparator
	}

	if out := p.mapping(p.require(root, "", "output"), "output"); out != nil {
		m.Output = p.output(out)
	}

	m.HierarchySeparator = p.optionalSeparator(root, "", "hierarchy_separator", m.Input.Separator)

	if attrs := p.require(root, "", "attributes"); attrs != nil {
		m.Attributes = p.attributes(attrs)
	}

	if priv := p.mapping(p.require(root, "", "privacy"), "privacy"); priv != nil {
		m.Privacy = p.privacy(priv)
	}

	m.Algorithm = Algorithm{Search: DefaultSearch, Metric: DefaultMetric}
	if n, ok := optionalField(root, "algorithm"); ok {
		if alg := p.mapping(n, "algorithm"); alg != nil {
			m.Algorithm = p.algorithm(alg)
		}
	}

	return m
}

func (p *parser) input(n *yaml.Node) Input {
	in := Input{
		Path:      p.requiredString(n, "input", "path"),
		Separator: p.optionalSeparator(n, "input", "separator", DefaultSeparator),
		Encoding:  p.optionalString(n, "input", "encoding", DefaultEncoding),
	}
	if _, err := dataset.LookupEncoding(in.Encoding); err != nil {
		field, _ := optionalField(n, "encoding")
		p.add("input.encoding", field, "unsupported encoding %q", in.Encoding)
	}
	return in
}

func (p *parser) output(n *yaml.Node) Output {
	out := Output{
		Path:      p.requiredString(n, "output", "path"),
		Overwrite: DefaultOverwrite,
	}
	if v, ok := optionalField(n, "overwrite"); ok {
		b, err := readBool(v, "overwrite")
		if err != nil {
			p.addErr("output.overwrite", v, err)
		} else {
			out.Overwrite = b
		}
	}
	return out
}

func (p *parser) attributes(n *yaml.Node) []AttributeSpec {
	items, ok := p.sequence(n, "attributes")
	if !ok {
		return nil
	}

	attrs := make([]AttributeSpec, 0, len(items))
	seen := make(map[string]int, len(items))
	for i, item := range items {
		prefix := fmt.Sprintf("attributes[%d]", i)
		if p.mapping(item, prefix) == nil {
			continue
		}

		a := AttributeSpec{
			Name:          p.requiredString(item, prefix, "name"),
			Role:          p.optionalString(item, prefix, "role", "insensitive"),
			DataType:      p.optionalString(item, prefix, "data_type", ""),
			HierarchyPath: p.optionalString(item, prefix, "hierarchy", ""),
		}

		if a.Name != "" {
			if first, dup := seen[a.Name]; dup {
				p.add(prefix+".name", item, "duplicate attribute %q (first declared at attributes[%d])", a.Name, first)
			} else {
				seen[a.Name] = i
			}
		}
		if a.IsQuasiIdentifying() && strings.TrimSpace(a.HierarchyPath) == "" {
			p.add(prefix+".hierarchy", item, "quasi-identifying attribute %q has no hierarchy", a.Name)
		}

		attrs = append(attrs, a)
	}
	return attrs
}

func (p *parser) privacy(n *yaml.Node) Privacy {
	priv := Privacy{SuppressionLimit: DefaultSuppressionLimit}

	if kn := p.require(n, "privacy", "k"); kn != nil {
		k, err := readInt(kn, "k")
		switch {
		case err != nil:
			p.addErr("privacy.k", kn, err)
		case k < 1:
			p.add("privacy.k", kn, "k must be at least 1, got %d", k)
		default:
			priv.K = k
		}
	}

	if sn, ok := optionalField(n, "suppression_limit"); ok {
		s, err := readFloat(sn, "suppression_limit")
		switch {
		case err != nil:
			p.addErr("privacy.suppression_limit", sn, err)
		case s < 0 || s > 1:
			p.add("privacy.suppression_limit", sn, "suppression_limit must be within [0, 1], got %v", s)
		default:
			priv.SuppressionLimit = s
		}
	}

	if ln, ok := optionalField(n, "l_diversity"); ok {
		if items, ok := p.sequence(ln, "privacy.l_diversity"); ok {
			for i, item := range items {
				if spec, ok := p.lDiversity(item, fmt.Sprintf("privacy.l_diversity[%d]", i)); ok {
					priv.LDiversity = append(priv.LDiversity, spec)
				}
			}
		}
	}

	if tn, ok := optionalField(n, "t_closeness"); ok {
		if items, ok := p.sequence(tn, "privacy.t_closeness"); ok {
			for i, item := range items {
				if spec, ok := p.tCloseness(item, fmt.Sprintf("privacy.t_closeness[%d]", i)); ok {
					priv.TCloseness = append(priv.TCloseness, spec)
				}
			}
		}
	}

	return priv
}

func (p *parser) lDiversity(n *yaml.Node, prefix string) (LDiversitySpec, bool) {
	if p.mapping(n, prefix) == nil {
		return LDiversitySpec{}, false
	}
	before := len(p.errs)

	spec := LDiversitySpec{
		Column: p.requiredString(n, prefix, "column"),
		Type:   strings.ToLower(p.optionalString(n, prefix, "type", DefaultLDiversityType)),
		C:      DefaultRecursiveC,
	}

	if ln := p.require(n, prefix, "l"); ln != nil {
		l, err := readInt(ln, "l")
		switch {
		case err != nil:
			p.addErr(prefix+".l", ln, err)
		case l < 1:
			p.add(prefix+".l", ln, "l must be at least 1, got %d", l)
		default:
			spec.L = l
		}
	}

	switch spec.Type {
	case LDiversityDistinct, LDiversityEntropy, LDiversityRecursive, LDiversityRecursiveC:
	default:
		typeNode, _ := optionalField(n, "type")
		p.add(prefix+".type", typeNode, "unknown l-diversity type %q (want distinct, entropy or recursive)", spec.Type)
	}

	if cn, ok := optionalField(n, "c"); ok {
		c, err := readFloat(cn, "c")
		switch {
		case err != nil:
			p.addErr(prefix+".c", cn, err)
		case c <= 0:
			p.add(prefix+".c", cn, "c must be positive, got %v", c)
		default:
			spec.C = c
		}
	}

	return spec, len(p.errs) == before
}

func (p *parser) tCloseness(n *yaml.Node, prefix string) (TClosenessSpec, bool) {
	if p.mapping(n, prefix) == nil {
		return TClosenessSpec{}, false
	}
	before := len(p.errs)

	spec := TClosenessSpec{
		Column:   p.requiredString(n, prefix, "column"),
		Distance: strings.ToLower(p.optionalString(n, prefix, "distance", DefaultTDistance)),
	}

	t, err := ReadRoundedInt(n, "t")
	if err != nil {
		tn, _ := lookup(n, "t")
		if tn == nil {
			tn = n
		}
		p.addErr(prefix+".t", tn, err)
	} else if t < 0 {
		tn, _ := lookup(n, "t")
		p.add(prefix+".t", tn, "t must not be negative, got %d", t)
	} else {
		spec.T = t
	}

	switch spec.Distance {
	case DistanceEqual, DistanceHierarchical:
	default:
		dn, _ := optionalField(n, "distance")
		p.add(prefix+".distance", dn, "unknown t-closeness distance %q (want equal or hierarchical)", spec.Distance)
	}

	return spec, len(p.errs) == before
}

func (p *parser) algorithm(n *yaml.Node) Algorithm {
	alg := Algorithm{
		Search: strings.ToLower(p.optionalString(n, "algorithm", "search", DefaultSearch)),
		Metric: p.optionalString(n, "algorithm", "metric", DefaultMetric),
	}
	if alg.Search != SearchFast && alg.Search != SearchOptimal {
		sn, _ := optionalField(n, "search")
		p.add("algorithm.search", sn, "unknown search %q (want fast or optimal)", alg.Search)
	}
	return alg
}

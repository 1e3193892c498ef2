package manifest

import "anon-bd/anonrun/pkg/attribute"

// Defaults applied while parsing a manifest.
const (
	DefaultSeparator        = ','
	DefaultEncoding         = "utf-8"
	DefaultOverwrite        = true
	DefaultSuppressionLimit = 0.0
	DefaultLDiversityType   = LDiversityDistinct
	DefaultRecursiveC       = 0.5
	DefaultTDistance        = DistanceEqual
	DefaultSearch           = SearchFast
	DefaultMetric           = "precision"
)

// l-diversity variants accepted in privacy.l_diversity[].type.
const (
	LDiversityDistinct   = "distinct"
	LDiversityEntropy    = "entropy"
	LDiversityRecursive  = "recursive"
	LDiversityRecursiveC = "recursivec"
)

// t-closeness distances accepted in privacy.t_closeness[].distance.
const (
	DistanceEqual        = "equal"
	DistanceHierarchical = "hierarchical"
)

// Search strategies accepted in algorithm.search.
const (
	SearchFast    = "fast"
	SearchOptimal = "optimal"
)

// Manifest is a validated anonymization job description.
type Manifest struct {
	// Path is the file the manifest was loaded from, if any.
	Path string

	// Version is the informational manifest version.
	Version string

	Input  Input
	Output Output

	// HierarchySeparator splits hierarchy file lines. Defaults to the input
	// separator.
	HierarchySeparator rune

	Attributes []AttributeSpec
	Privacy    Privacy
	Algorithm  Algorithm
}

// Input locates the dataset to anonymize.
type Input struct {
	Path      string
	Separator rune
	Encoding  string
}

// Output locates where the anonymized dataset is written.
type Output struct {
	Path      string
	Overwrite bool
}

// AttributeSpec declares one dataset column.
type AttributeSpec struct {
	Name string

	// Role is the raw role name as written in the manifest.
	Role string

	// DataType is the raw data-type name; empty when not declared.
	DataType string

	// HierarchyPath is the hierarchy file; required for quasi-identifiers.
	HierarchyPath string
}

// ResolvedRole returns the engine role for the attribute.
func (a AttributeSpec) ResolvedRole() attribute.Role {
	return attribute.ResolveRole(a.Role)
}

// ResolvedDataType returns the engine data type for the attribute.
func (a AttributeSpec) ResolvedDataType() attribute.DataType {
	return attribute.ResolveDataType(a.DataType)
}

// HasDataType reports whether the manifest declared a data type.
func (a AttributeSpec) HasDataType() bool {
	return a.DataType != ""
}

// IsQuasiIdentifying reports whether the attribute is a quasi-identifier.
func (a AttributeSpec) IsQuasiIdentifying() bool {
	return attribute.IsQuasiIdentifying(a.Role)
}

// Privacy holds the privacy requirements of the job.
type Privacy struct {
	K                int
	SuppressionLimit float64
	LDiversity       []LDiversitySpec
	TCloseness       []TClosenessSpec
}

// LDiversitySpec is one privacy.l_diversity entry.
type LDiversitySpec struct {
	Column string
	L      int
	Type   string  // Lower-cased variant name
	C      float64 // Only meaningful for recursive variants
}

// IsRecursive reports whether the entry asks for recursive-(c,l)-diversity.
func (s LDiversitySpec) IsRecursive() bool {
	return s.Type == LDiversityRecursive || s.Type == LDiversityRecursiveC
}

// TClosenessSpec is one privacy.t_closeness entry.
type TClosenessSpec struct {
	Column   string
	T        int    // Rounded to nearest, never truncated
	Distance string // Lower-cased distance name
}

// Algorithm carries search hints passed through to the engine.
type Algorithm struct {
	Search string
	Metric string
}

// HierarchyPaths returns the hierarchy files a job loads, in attribute
// order.
func (m *Manifest) HierarchyPaths() []string {
	var paths []string
	for _, a := range m.Attributes {
		if a.HierarchyPath != "" && m.NeedsHierarchy(a) {
			paths = append(paths, a.HierarchyPath)
		}
	}
	return paths
}

// NeedsHierarchy reports whether a job loads the hierarchy of a: always for
// quasi-identifiers, and for other attributes only when a hierarchical
// t-closeness entry names the column.
func (m *Manifest) NeedsHierarchy(a AttributeSpec) bool {
	if a.IsQuasiIdentifying() {
		return true
	}
	for _, tc := range m.Privacy.TCloseness {
		if tc.Column == a.Name && tc.Distance == DistanceHierarchical {
			return true
		}
	}
	return false
}

// Attribute returns the attribute spec named name.
func (m *Manifest) Attribute(name string) (AttributeSpec, bool) {
	for _, a := range m.Attributes {
		if a.Name == name {
			return a, true
		}
	}
	return AttributeSpec{}, false
}

// Package privacy assembles the privacy models an anonymization job asks
// the engine to enforce.
package privacy

import (
	"fmt"
	"strconv"

	"anon-bd/anonrun/pkg/hierarchy"
)

// ModelKind tags a privacy model.
type ModelKind string

const (
	KindKAnonymity ModelKind = "k_anonymity"
	KindLDiversity ModelKind = "l_diversity"
	KindTCloseness ModelKind = "t_closeness"
)

// Model is one privacy criterion. The concrete types are KAnonymity,
// LDiversity and TCloseness.
type Model interface {
	Kind() ModelKind
	String() string
	isModel()
}

// KAnonymity requires every quasi-identifier combination to appear in at
// least K records.
type KAnonymity struct {
	K int
}

func (KAnonymity) Kind() ModelKind { return KindKAnonymity }
func (KAnonymity) isModel()        {}

func (m KAnonymity) String() string {
	return fmt.Sprintf("%d-anonymity", m.K)
}

// LDiversityVariant selects how diversity is measured.
type LDiversityVariant string

const (
	Distinct  LDiversityVariant = "distinct"
	Entropy   LDiversityVariant = "entropy"
	Recursive LDiversityVariant = "recursive"
)

// LDiversity requires at least L well-represented sensitive values per
// equivalence class.
type LDiversity struct {
	Column  string
	L       int
	Variant LDiversityVariant

	// C bounds the most frequent value for the recursive variant. Nil means
	// the engine's l-only recursive form.
	C *float64
}

func (LDiversity) Kind() ModelKind { return KindLDiversity }
func (LDiversity) isModel()        {}

func (m LDiversity) String() string {
	if m.Variant == Recursive && m.C != nil {
		return fmt.Sprintf("recursive-(%s,%d)-diversity on %s", strconv.FormatFloat(*m.C, 'g', -1, 64), m.L, m.Column)
	}
	return fmt.Sprintf("%s-%d-diversity on %s", m.Variant, m.L, m.Column)
}

// TDistance selects the ground distance for t-closeness.
type TDistance string

const (
	EqualDistance        TDistance = "equal"
	HierarchicalDistance TDistance = "hierarchical"
)

// TCloseness bounds the distance between a class's sensitive-value
// distribution and the overall distribution.
type TCloseness struct {
	Column   string
	T        int
	Distance TDistance

	// Hierarchy is set for hierarchical distance only.
	Hierarchy *hierarchy.Hierarchy
}

func (TCloseness) Kind() ModelKind { return KindTCloseness }
func (TCloseness) isModel()        {}

func (m TCloseness) String() string {
	return fmt.Sprintf("%d-closeness (%s distance) on %s", m.T, m.Distance, m.Column)
}

// Variant names an optional model form that only some engines implement.
type Variant string

const (
	// VariantRecursiveCL is recursive-(c,l)-diversity with an explicit c.
	VariantRecursiveCL Variant = "recursive_cl"
)

// Capabilities reports which optional variants an engine implements.
type Capabilities interface {
	Supports(v Variant) bool
}

// Config is the complete privacy configuration of a job.
type Config struct {
	// Models holds k-anonymity first, then l-diversity and t-closeness
	// entries in manifest order.
	Models []Model

	// SuppressionLimit is the largest fraction of records the engine may drop.
	SuppressionLimit float64
}

// Summary describes each model on one line, in order.
func (c *Config) Summary() []string {
	lines := make([]string, 0, len(c.Models)+1)
	for _, m := range c.Models {
		lines = append(lines, m.String())
	}
	lines = append(lines, fmt.Sprintf("suppression limit %s", strconv.FormatFloat(c.SuppressionLimit, 'g', -1, 64)))
	return lines
}

// Count returns how many models of the given kind the configuration holds.
func (c *Config) Count(kind ModelKind) int {
	n := 0
	for _, m := range c.Models {
		if m.Kind() == kind {
			n++
		}
	}
	return n
}

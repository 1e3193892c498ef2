package privacy

import (
	"fmt"
	"log/slog"

	"anon-bd/anonrun/pkg/failure"
	"anon-bd/anonrun/pkg/hierarchy"
	"anon-bd/anonrun/pkg/manifest"
)

// MatrixSource exposes hierarchies registered on a dataset definition as raw
// level matrices.
type MatrixSource interface {
	HierarchyMatrix(column string) [][]string
}

// Assembler builds a Config from the privacy section of a manifest.
type Assembler struct {
	// Hierarchies is the job's hierarchy cache, consulted first for
	// hierarchical t-closeness.
	Hierarchies *hierarchy.Cache

	// Definition is the fallback hierarchy source. With the attribute
	// processing order of a job it never holds a hierarchy the cache lacks;
	// it covers callers that register hierarchies without the loader.
	Definition MatrixSource

	// Engine decides whether recursive-(c,l)-diversity keeps its c.
	Engine Capabilities

	Logger *slog.Logger
}

// NewAssembler creates an assembler. Any argument may be nil.
func NewAssembler(cache *hierarchy.Cache, def MatrixSource, engine Capabilities, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{
		Hierarchies: cache,
		Definition:  def,
		Engine:      engine,
		Logger:      logger.With("component", "privacy.assembler"),
	}
}

// Assemble builds the privacy models for p. k-anonymity always comes first;
// l-diversity and t-closeness entries follow in manifest order.
func (a *Assembler) Assemble(p manifest.Privacy) (*Config, error) {
	cfg := &Config{
		Models:           []Model{KAnonymity{K: p.K}},
		SuppressionLimit: p.SuppressionLimit,
	}

	for i, spec := range p.LDiversity {
		m, err := a.lDiversity(i, spec)
		if err != nil {
			return nil, err
		}
		cfg.Models = append(cfg.Models, m)
	}

	for i, spec := range p.TCloseness {
		m, err := a.tCloseness(i, spec)
		if err != nil {
			return nil, err
		}
		cfg.Models = append(cfg.Models, m)
	}

	a.Logger.Debug("privacy configuration assembled",
		"models", len(cfg.Models),
		"suppression_limit", cfg.SuppressionLimit,
	)
	return cfg, nil
}

func (a *Assembler) lDiversity(i int, spec manifest.LDiversitySpec) (Model, error) {
	switch spec.Type {
	case manifest.LDiversityDistinct:
		return LDiversity{Column: spec.Column, L: spec.L, Variant: Distinct}, nil

	case manifest.LDiversityEntropy:
		return LDiversity{Column: spec.Column, L: spec.L, Variant: Entropy}, nil

	case manifest.LDiversityRecursive, manifest.LDiversityRecursiveC:
		m := LDiversity{Column: spec.Column, L: spec.L, Variant: Recursive}
		if a.supports(VariantRecursiveCL) {
			c := spec.C
			m.C = &c
			return m, nil
		}
		a.Logger.Warn("engine lacks recursive-(c,l)-diversity; enforcing l-only recursive diversity",
			"column", spec.Column,
			"l", spec.L,
			"dropped_c", spec.C,
		)
		return m, nil

	default:
		key := fmt.Sprintf("privacy.l_diversity[%d].type", i)
		return nil, failure.Configuration(key, "unknown l-diversity type %q for column %s", spec.Type, spec.Column)
	}
}

func (a *Assembler) tCloseness(i int, spec manifest.TClosenessSpec) (Model, error) {
	switch spec.Distance {
	case manifest.DistanceEqual:
		return TCloseness{Column: spec.Column, T: spec.T, Distance: EqualDistance}, nil

	case manifest.DistanceHierarchical:
		h := a.hierarchyFor(spec.Column)
		if h == nil {
			return nil, failure.Configuration(spec.Column,
				"hierarchical t-closeness requires a hierarchy for column: %s", spec.Column)
		}
		return TCloseness{Column: spec.Column, T: spec.T, Distance: HierarchicalDistance, Hierarchy: h}, nil

	default:
		key := fmt.Sprintf("privacy.t_closeness[%d].distance", i)
		return nil, failure.Configuration(key, "unknown t-closeness distance %q for column %s", spec.Distance, spec.Column)
	}
}

func (a *Assembler) hierarchyFor(column string) *hierarchy.Hierarchy {
	if h, ok := a.Hierarchies.Get(column); ok {
		return h
	}
	if a.Definition == nil {
		return nil
	}
	matrix := a.Definition.HierarchyMatrix(column)
	if matrix == nil {
		return nil
	}
	a.Logger.Debug("hierarchy taken from dataset definition", "column", column)
	return hierarchy.FromMatrix(matrix)
}

func (a *Assembler) supports(v Variant) bool {
	return a.Engine != nil && a.Engine.Supports(v)
}

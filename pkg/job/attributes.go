package job

import (
	"errors"
	"io/fs"
	"log/slog"

	"anon-bd/anonrun/pkg/dataset"
	"anon-bd/anonrun/pkg/failure"
	"anon-bd/anonrun/pkg/hierarchy"
	"anon-bd/anonrun/pkg/manifest"
)

// defineAttributes registers every manifest attribute on a new dataset
// definition and loads the hierarchies the job uses into cache.
func (r *Runner) defineAttributes(m *manifest.Manifest, table *dataset.Table, cache *hierarchy.Cache, logger *slog.Logger) (*dataset.Definition, error) {
	def := dataset.NewDefinition()
	loader := hierarchy.NewLoader(m.HierarchySeparator, cache)

	for _, a := range m.Attributes {
		if table.ColumnIndex(a.Name) < 0 {
			return nil, failure.Configuration(a.Name, "attribute %s is not a column of input %s", a.Name, m.Input.Path)
		}

		role := a.ResolvedRole()
		def.SetAttributeType(a.Name, role)
		if a.HasDataType() {
			def.SetDataType(a.Name, a.ResolvedDataType())
		}

		if a.HierarchyPath == "" {
			if a.IsQuasiIdentifying() {
				return nil, failure.Configuration(a.Name, "quasi-identifying attribute %s has no hierarchy", a.Name)
			}
			logger.Debug("attribute registered", "attribute", a.Name, "role", role.String())
			continue
		}
		if !m.NeedsHierarchy(a) {
			logger.Debug("attribute registered, hierarchy not used",
				"attribute", a.Name,
				"role", role.String(),
				"hierarchy", a.HierarchyPath,
			)
			continue
		}

		h, err := loader.LoadAttribute(a.Name, a.HierarchyPath)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, failure.Configuration(a.Name, "hierarchy file for attribute %s not found: %s", a.Name, a.HierarchyPath)
			}
			return nil, err
		}
		def.SetHierarchy(a.Name, h.Matrix())
		r.Metrics.RecordHierarchyRows(h.Len())

		logger.Debug("attribute registered",
			"attribute", a.Name,
			"role", role.String(),
			"hierarchy", a.HierarchyPath,
			"hierarchy_rows", h.Len(),
			"hierarchy_levels", h.Depth(),
		)
	}

	return def, nil
}

package dataset

import "anon-bd/anonrun/pkg/attribute"

type attributeDef struct {
	role        attribute.Role
	dataType    attribute.DataType
	hasDataType bool
	hierarchy   [][]string
}

// Definition records how each attribute of a table is treated: its role,
// its declared data type and, for generalized attributes, its hierarchy.
// Attributes keep registration order.
type Definition struct {
	order []string
	attrs map[string]*attributeDef
}

// NewDefinition creates an empty definition.
func NewDefinition() *Definition {
	return &Definition{attrs: make(map[string]*attributeDef)}
}

func (d *Definition) get(name string) *attributeDef {
	def, ok := d.attrs[name]
	if !ok {
		def = &attributeDef{}
		d.attrs[name] = def
		d.order = append(d.order, name)
	}
	return def
}

// SetAttributeType sets the role of the named attribute.
func (d *Definition) SetAttributeType(name string, role attribute.Role) {
	d.get(name).role = role
}

// SetDataType sets the data type of the named attribute.
func (d *Definition) SetDataType(name string, dt attribute.DataType) {
	def := d.get(name)
	def.dataType = dt
	def.hasDataType = true
}

// SetHierarchy attaches a generalization level matrix to the named attribute.
func (d *Definition) SetHierarchy(name string, matrix [][]string) {
	d.get(name).hierarchy = matrix
}

// AttributeType returns the role of the named attribute. Unregistered
// attributes are insensitive.
func (d *Definition) AttributeType(name string) attribute.Role {
	if def, ok := d.attrs[name]; ok {
		return def.role
	}
	return attribute.Insensitive
}

// DataType returns the declared data type of the named attribute and whether
// one was declared.
func (d *Definition) DataType(name string) (attribute.DataType, bool) {
	if def, ok := d.attrs[name]; ok && def.hasDataType {
		return def.dataType, true
	}
	return attribute.String, false
}

// HierarchyMatrix returns the level matrix attached to the named attribute,
// or nil.
func (d *Definition) HierarchyMatrix(name string) [][]string {
	if def, ok := d.attrs[name]; ok {
		return def.hierarchy
	}
	return nil
}

// Attributes returns the registered attribute names in registration order.
func (d *Definition) Attributes() []string {
	return append([]string(nil), d.order...)
}

// QuasiIdentifiers returns the quasi-identifying attribute names in
// registration order.
func (d *Definition) QuasiIdentifiers() []string {
	var names []string
	for _, name := range d.order {
		if d.attrs[name].role == attribute.QuasiIdentifying {
			names = append(names, name)
		}
	}
	return names
}

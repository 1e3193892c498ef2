// Package attribute maps manifest role and data-type names onto the fixed
// enumerations the anonymization engine understands. Resolution is total:
// unknown names degrade to the most permissive value instead of failing.
package attribute

import "strings"

// Role is the part an attribute plays in re-identification risk.
type Role int

const (
	// Insensitive attributes are kept as-is.
	Insensitive Role = iota
	// Identifying attributes are removed from the output.
	Identifying
	// QuasiIdentifying attributes are generalized through a hierarchy.
	QuasiIdentifying
	// Sensitive attributes are protected by l-diversity or t-closeness.
	Sensitive
)

// String returns the canonical wire name of the role.
func (r Role) String() string {
	switch r {
	case Identifying:
		return "identifying"
	case QuasiIdentifying:
		return "quasi_identifying"
	case Sensitive:
		return "sensitive"
	default:
		return "insensitive"
	}
}

// DataType is the value domain of an attribute.
type DataType int

const (
	String DataType = iota
	Integer
	Decimal
	Date
)

// String returns the canonical wire name of the data type.
func (d DataType) String() string {
	switch d {
	case Integer:
		return "integer"
	case Decimal:
		return "decimal"
	case Date:
		return "date"
	default:
		return "string"
	}
}

var roleSynonyms = map[string]Role{
	"qi":                          QuasiIdentifying,
	"quasi-identifying":           QuasiIdentifying,
	"quasi_identifying":           QuasiIdentifying,
	"quasi-identifying attribute": QuasiIdentifying,
	"sensitive":                   Sensitive,
	"sensitive_attribute":         Sensitive,
	"identifying":                 Identifying,
	"identifying_attribute":       Identifying,
}

var dataTypeSynonyms = map[string]DataType{
	"integer": Integer,
	"int":     Integer,
	"decimal": Decimal,
	"double":  Decimal,
	"float":   Decimal,
	"date":    Date,
}

// ResolveRole maps a manifest role name to a Role. Matching is
// case-insensitive; empty and unknown names resolve to Insensitive.
func ResolveRole(role string) Role {
	if r, ok := roleSynonyms[normalize(role)]; ok {
		return r
	}
	return Insensitive
}

// ResolveDataType maps a manifest data-type name to a DataType. Matching is
// case-insensitive; empty and unknown names resolve to String.
func ResolveDataType(name string) DataType {
	if d, ok := dataTypeSynonyms[normalize(name)]; ok {
		return d
	}
	return String
}

// IsQuasiIdentifying reports whether role names a quasi-identifying attribute.
func IsQuasiIdentifying(role string) bool {
	return ResolveRole(role) == QuasiIdentifying
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

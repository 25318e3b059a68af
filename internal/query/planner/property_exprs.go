package planner

import (
	"github.com/kestreldb/kestrel/internal/query/expr"
)

// PropertyExprCollection maps a pattern variable to the property expressions
// referenced downstream of the match. Single-node scans and extends
// materialize these columns; the bound-node scans that seed relationship
// plans and the ID-only scans read internal IDs only.
type PropertyExprCollection struct {
	properties map[string][]expr.Expression
}

// NewPropertyExprCollection creates an empty collection.
func NewPropertyExprCollection() *PropertyExprCollection {
	return &PropertyExprCollection{properties: make(map[string][]expr.Expression)}
}

// AddProperty records that a property of the named variable is needed.
// Duplicates collapse.
func (c *PropertyExprCollection) AddProperty(variable string, property *expr.PropertyAccess) {
	for _, existing := range c.properties[variable] {
		if existing.String() == property.String() {
			return
		}
	}
	c.properties[variable] = append(c.properties[variable], property)
}

// Properties returns the properties to materialize for a variable.
func (c *PropertyExprCollection) Properties(variable string) []expr.Expression {
	return c.properties[variable]
}

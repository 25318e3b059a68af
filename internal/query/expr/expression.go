package expr

import (
	"fmt"
	"strings"

	"github.com/kestreldb/kestrel/internal/catalog"
)

// Expression represents a bound expression in a query plan. Expressions
// arrive from the binder with every variable resolved; the planner never
// mutates them.
type Expression interface {
	// String returns a canonical representation. Two expressions are treated
	// as equal iff their canonical representations are equal.
	String() string
	// DataType returns the data type of the expression.
	DataType() catalog.DataType
	// Accept accepts a visitor.
	Accept(visitor Visitor) error
}

// VariableRef references a pattern variable (a query node or relationship).
type VariableRef struct {
	Name string
	Type catalog.DataType
}

func (v *VariableRef) String() string {
	return v.Name
}

func (v *VariableRef) DataType() catalog.DataType {
	return v.Type
}

func (v *VariableRef) Accept(visitor Visitor) error {
	return visitor.VisitVariableRef(v)
}

// PropertyAccess references a property of a pattern variable, e.g. a.age.
// The internal ID of a query node is modeled as the reserved property _id.
type PropertyAccess struct {
	Variable string
	Property string
	Type     catalog.DataType
}

// InternalIDProperty is the reserved property name for a node's internal ID.
const InternalIDProperty = "_id"

// NewInternalID returns the internal-ID expression of the named node.
func NewInternalID(variable string) *PropertyAccess {
	return &PropertyAccess{Variable: variable, Property: InternalIDProperty, Type: catalog.TypeInt64}
}

// IsInternalID reports whether the expression is a node internal-ID.
func IsInternalID(e Expression) bool {
	p, ok := e.(*PropertyAccess)
	return ok && p.Property == InternalIDProperty
}

func (p *PropertyAccess) String() string {
	return p.Variable + "." + p.Property
}

func (p *PropertyAccess) DataType() catalog.DataType {
	return p.Type
}

func (p *PropertyAccess) Accept(visitor Visitor) error {
	return visitor.VisitPropertyAccess(p)
}

// Literal represents a literal value.
type Literal struct {
	Value any
	Type  catalog.DataType
}

func (l *Literal) String() string {
	if l.Value == nil {
		return "NULL"
	}
	switch v := l.Value.(type) {
	case string:
		return fmt.Sprintf("'%s'", strings.ReplaceAll(v, "'", "''"))
	case bool:
		if v {
			return "TRUE"
		}
		return "FALSE"
	default:
		return fmt.Sprintf("%v", l.Value)
	}
}

func (l *Literal) DataType() catalog.DataType {
	return l.Type
}

func (l *Literal) Accept(visitor Visitor) error {
	return visitor.VisitLiteral(l)
}

// FunctionCall represents a (possibly Boolean) function application. The
// binder lowers comparison and logical operators to function calls, so a
// predicate like a.age = b.age arrives as EQUALS(a.age, b.age).
type FunctionCall struct {
	Name string
	Args []Expression
	Type catalog.DataType
}

func (f *FunctionCall) String() string {
	args := make([]string, len(f.Args))
	for i, arg := range f.Args {
		args[i] = arg.String()
	}
	return fmt.Sprintf("%s(%s)", f.Name, strings.Join(args, ", "))
}

func (f *FunctionCall) DataType() catalog.DataType {
	return f.Type
}

func (f *FunctionCall) Accept(visitor Visitor) error {
	return visitor.VisitFunctionCall(f)
}

// Subquery represents a nested query expression (EXISTS / COUNT subquery).
// DependentVars lists the outer variables the inner query correlates on.
type Subquery struct {
	Kind          SubqueryKind
	DependentVars []string
	Type          catalog.DataType
}

// SubqueryKind distinguishes subquery expression forms.
type SubqueryKind int

const (
	SubqueryExists SubqueryKind = iota
	SubqueryCount
)

func (s *Subquery) String() string {
	kind := "EXISTS"
	if s.Kind == SubqueryCount {
		kind = "COUNT"
	}
	return fmt.Sprintf("%s-SUBQUERY(%s)", kind, strings.Join(s.DependentVars, ", "))
}

func (s *Subquery) DataType() catalog.DataType {
	return s.Type
}

func (s *Subquery) Accept(visitor Visitor) error {
	return visitor.VisitSubquery(s)
}

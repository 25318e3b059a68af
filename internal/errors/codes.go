package errors

// Error codes used across the planner. Values follow the SQLSTATE convention
// for classes the wire layer understands (42 for binder faults, 57 for
// operator intervention, 0A for unsupported features, XX for internal
// faults), plus a vendor class KP for planner-specific conditions.
const (
	// SyntaxError indicates the input could not be parsed.
	SyntaxError = "42601"
	// UndefinedVariable indicates a pattern variable is not bound.
	UndefinedVariable = "42P01"
	// DatatypeMismatch indicates an ill-typed expression reached the planner.
	DatatypeMismatch = "42804"

	// QueryCanceled indicates the client canceled the statement.
	QueryCanceled = "57014"
	// PlanningTimeout indicates the planning deadline expired before a
	// complete plan was found.
	PlanningTimeout = "57015"

	// FeatureNotSupported indicates a recognized but unimplemented feature.
	FeatureNotSupported = "0A000"

	// PlanningError indicates the planner rejected the query.
	PlanningError = "KP001"
	// HintInfeasible indicates a join-order hint references unknown
	// variables or a disconnected topology.
	HintInfeasible = "KP002"
	// ConfigError indicates an invalid planner configuration value.
	ConfigError = "KP003"

	// InternalError indicates a planner invariant was violated.
	InternalError = "XX000"
)

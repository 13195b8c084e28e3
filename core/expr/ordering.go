package expr

// SortKey orders records by the value found at the end of Path. An empty path
// orders by the record itself.
type SortKey struct {
	Path       []Field
	Descending bool
	// NullSafe asks the evaluator to treat a null navigation along Path as a
	// null key instead of failing.
	NullSafe bool
	// Constant keys compare every pair of records as equal.
	Constant bool
}

// Ordering is a list of sort keys in precedence order.
type Ordering []SortKey

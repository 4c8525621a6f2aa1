package types

// Op is a filter comparison operator.
type Op string

// Supported filter operators.
const (
	OpEqual          Op = "=="
	OpGreaterOrEqual Op = ">="
	OpLessOrEqual    Op = "<="
	OpIn             Op = "in"
)

// MaxInValues caps the cardinality of an OpIn filter value. Queries carrying
// a longer value set are rejected with ErrInvalidFilter; callers needing more
// values must partition them into chunks of at most this size.
const MaxInValues = 30

// Filter narrows a query to documents whose field satisfies Op against Value.
// For OpIn, Value must be a []string of at most MaxInValues entries.
type Filter struct {
	Field string
	Op    Op
	Value any
}

// Query describes a filtered, ordered read of a collection. All filters are
// conjunctive. OrderBy fields sort ascending; an empty OrderBy leaves the
// result order backend-defined. Limit <= 0 means no limit.
type Query struct {
	Filters []Filter
	OrderBy []string
	Limit   int
}

// Where appends an equality or range filter and returns the query for
// chaining.
func (q Query) Where(field string, op Op, value any) Query {
	q.Filters = append(q.Filters, Filter{Field: field, Op: op, Value: value})
	return q
}

// Validate checks filter well-formedness. Returns ErrInvalidFilter for an
// unknown operator or an oversized OpIn value set.
func (q Query) Validate() error {
	for _, f := range q.Filters {
		switch f.Op {
		case OpEqual, OpGreaterOrEqual, OpLessOrEqual:
		case OpIn:
			values, ok := f.Value.([]string)
			if !ok {
				return ErrInvalidFilter
			}
			if len(values) == 0 || len(values) > MaxInValues {
				return ErrInvalidFilter
			}
		default:
			return ErrInvalidFilter
		}
	}
	return nil
}

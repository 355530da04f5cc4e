// Package queryexpr compiles condition trees into expr-lang programs that
// evaluate against in-memory records.
//
// It exists for dry runs: checking which sample records a constraint set
// would select before handing the set to a real query builder. It does
// not generate SQL and never touches a database.
//
// CRITICAL: filter values are bound as program arguments, never
// interpolated into the expression source.
package queryexpr

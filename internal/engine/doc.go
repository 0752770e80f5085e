// Package engine wraps the embedded DuckDB instance behind a small
// statement-oriented API. It also defines the tagged wire value that
// carries cells across the session boundary and the sanitizer that turns
// caller-supplied names into safe SQL identifiers.
package engine

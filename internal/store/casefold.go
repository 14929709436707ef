package store

import (
	"database/sql/driver"

	"golang.org/x/text/cases"
	"modernc.org/sqlite"
)

func init() {
	sqlite.MustRegisterDeterministicScalarFunction("casefold", 1, casefold)
}

// casefold is the SQL casefold(x) function: full Unicode case folding of a
// text value. NULL and non-text values pass through.
func casefold(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case string:
		return foldString(v), nil
	case []byte:
		return foldString(string(v)), nil
	default:
		return v, nil
	}
}

// foldString is the Go side of casefold. A Caser holds state, so each call
// gets its own.
func foldString(s string) string {
	return cases.Fold().String(s)
}

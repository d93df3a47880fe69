// Package errors derives low-cardinality error class names for metric
// tags and log fields.
package errors

import (
	stderrors "errors"
	"reflect"
	"strings"
)

// Classify names the innermost error's concrete type in snake_case,
// e.g. "pgconn_pgerror" or "errors_errorstring". It returns "" for nil
// and "unknown" when reflection cannot name the type.
func Classify(err error) string {
	if err == nil {
		return ""
	}
	for {
		inner := stderrors.Unwrap(err)
		if inner == nil {
			break
		}
		err = inner
	}
	return typeName(reflect.TypeOf(err))
}

func typeName(t reflect.Type) string {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return "unknown"
	}

	name := strings.NewReplacer("*", "", ".", "_").Replace(strings.ToLower(t.String()))
	if name == "" {
		return "unknown"
	}
	return name
}

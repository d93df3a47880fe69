package errors

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Patterns for the Detail line Postgres attaches to constraint errors.
var (
	reDuplicateKey    = regexp.MustCompile(`Key \(([^)]+)\)=`)
	reStillReferenced = regexp.MustCompile(`is still referenced from table "?([^"]+)"?`)
	reMissingParent   = regexp.MustCompile(`is not present in table "?([^"]+)"?`)
)

// Sentinel failures that arrive wrapped from the driver. Context errors
// are checked before pgx.ErrNoRows so a canceled query reports as
// canceled rather than missing.
var dbSentinels = []struct {
	is      error
	code    ErrorCode
	message string
}{
	{context.DeadlineExceeded, ErrCodeTimeout, "Request timed out. Please try again."},
	{context.Canceled, ErrCodeCanceled, "Request was canceled."},
	{pgx.ErrNoRows, ErrCodeNotFound, "Resource not found"},
}

// MapDBError translates storage-layer failures into AppErrors: context
// deadline and cancellation, pgx.ErrNoRows, and the Postgres constraint
// classes (unique, foreign key, check, not-null). Anything else passes
// through unchanged so callers can wrap it themselves.
func MapDBError(err error) error {
	if err == nil {
		return nil
	}
	for _, s := range dbSentinels {
		if errors.Is(err, s.is) {
			return &AppError{Code: s.code, Message: s.message, Cause: err}
		}
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgerrcode.UniqueViolation:
		return uniqueConflict(pgErr)
	case pgerrcode.ForeignKeyViolation:
		return foreignKeyViolation(pgErr)
	case pgerrcode.CheckViolation:
		return constraintValidation(pgErr, "This field has an invalid value.", "Invalid data. Please check your input.")
	case pgerrcode.NotNullViolation:
		return constraintValidation(pgErr, "This field is required.", "Required field is missing. Please check your input.")
	default:
		return &AppError{
			Code:    ErrCodeInternal,
			Message: "A database error occurred. Please try again.",
			Cause:   pgErr,
		}
	}
}

// uniqueConflict reports a duplicate value, naming the offending column
// when the server tells us which one it was.
func uniqueConflict(pgErr *pgconn.PgError) *AppError {
	return &AppError{
		Code:    ErrCodeConflict,
		Message: "This value already exists. Please choose a different one.",
		Field:   conflictField(pgErr),
		Cause:   pgErr,
	}
}

// conflictField resolves the column behind a unique violation. Column
// metadata is authoritative, the Detail text comes next, and constraint
// name inference is last since multi-column names are ambiguous.
func conflictField(pgErr *pgconn.PgError) string {
	if pgErr.ColumnName != "" {
		return pgErr.ColumnName
	}
	if m := reDuplicateKey.FindStringSubmatch(pgErr.Detail); len(m) == 2 {
		return m[1]
	}
	return fieldFromConstraint(pgErr.ConstraintName)
}

func foreignKeyViolation(pgErr *pgconn.PgError) *AppError {
	return &AppError{Code: ErrCodeForeignKey, Message: foreignKeyMessage(pgErr), Cause: pgErr}
}

// foreignKeyMessage distinguishes deleting a row that children still
// reference from inserting a child whose parent is missing. The Detail
// text carries the other table's name in both cases.
func foreignKeyMessage(pgErr *pgconn.PgError) string {
	if m := reStillReferenced.FindStringSubmatch(pgErr.Detail); len(m) == 2 {
		return "Cannot delete because this item is in use by " + displayName(m[1]) + "."
	}
	if m := reMissingParent.FindStringSubmatch(pgErr.Detail); len(m) == 2 {
		return "Cannot complete operation because the referenced " + displayName(m[1]) + " does not exist."
	}
	if pgErr.TableName != "" {
		return "Cannot complete operation because this item is in use by " + displayName(pgErr.TableName) + "."
	}
	return fallbackForeignKeyMessage(pgErr.ConstraintName)
}

// constraintValidation covers check and not-null violations, which
// differ only in wording and in whether a column name is available.
func constraintValidation(pgErr *pgconn.PgError, fieldMessage, genericMessage string) *AppError {
	if pgErr.ColumnName == "" {
		return &AppError{Code: ErrCodeValidation, Message: genericMessage, Cause: pgErr}
	}
	return &AppError{
		Code:    ErrCodeValidation,
		Message: fieldMessage,
		Field:   pgErr.ColumnName,
		Cause:   pgErr,
	}
}

// sqlFunctions are middle segments of expression-index constraint names
// ("tickets_lower_key") that must not be mistaken for columns.
var sqlFunctions = map[string]bool{
	"lower": true, "upper": true, "trim": true, "ltrim": true, "rtrim": true,
	"md5": true, "sha1": true, "sha256": true, "encode": true, "decode": true,
}

// fieldFromConstraint guesses the column from a conventional constraint
// name such as "tickets_subject_key". Names with more or fewer than
// three segments stay unresolved: they belong to multi-column,
// expression, or hand-written constraints where any guess would mislead.
func fieldFromConstraint(name string) string {
	parts := strings.Split(name, "_")
	if len(parts) != 3 {
		return ""
	}
	if sqlFunctions[strings.ToLower(parts[1])] {
		return ""
	}
	return parts[1]
}

// displayNames overrides the generated display name for tables whose
// snake_case form reads badly in user-facing messages.
var displayNames = map[string]string{
	"tickets":          "Ticket",
	"assignment_rules": "Assignment Rule",
}

// displayName renders a table name for use inside an error message.
func displayName(table string) string {
	table = strings.ToLower(strings.TrimSpace(table))
	if name, ok := displayNames[table]; ok {
		return name
	}
	return titleWords(strings.ReplaceAll(table, "_", " "))
}

// titleWords upper-cases the first letter of each space-separated word.
// Table identifiers are ASCII so byte arithmetic is enough.
func titleWords(s string) string {
	words := strings.Split(s, " ")
	for i, w := range words {
		if w != "" && 'a' <= w[0] && w[0] <= 'z' {
			words[i] = string(w[0]-'a'+'A') + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// fallbackForeignKeyMessage is the last resort when neither Detail nor
// table metadata survived. Rule constraints are matched first because
// ticket foreign keys mention both tables in their names.
func fallbackForeignKeyMessage(constraint string) string {
	constraint = strings.ToLower(constraint)
	switch {
	case strings.Contains(constraint, "rule"):
		return "Cannot delete assignment rule because it is in use by a Ticket."
	case strings.Contains(constraint, "ticket"):
		return "Cannot complete operation because the referenced Ticket does not exist."
	default:
		return "Cannot complete operation because this item is in use."
	}
}

package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorMessage(t *testing.T) {
	bare := &AppError{Code: ErrCodeNotFound, Message: "report job not found"}
	assert.Equal(t, "report job not found", bare.Error())

	cause := errors.New("connection refused")
	wrapped := &AppError{Code: ErrCodeGeneration, Message: "generate accounts report", Cause: cause}
	assert.Equal(t, "generate accounts report: connection refused", wrapped.Error())
	assert.Same(t, cause, wrapped.Unwrap())
}

func TestConstructorsStampCodes(t *testing.T) {
	tests := []struct {
		name    string
		build   func() *AppError
		code    ErrorCode
		message string
		field   string
	}{
		{"NotFound", func() *AppError { return NotFound("job missing") }, ErrCodeNotFound, "job missing", ""},
		{"NotFoundf", func() *AppError { return NotFoundf("report job %s not found", "rj-1") }, ErrCodeNotFound, "report job rj-1 not found", ""},
		{"Conflict", func() *AppError { return Conflict("duplicate ticket") }, ErrCodeConflict, "duplicate ticket", ""},
		{"Conflictf", func() *AppError { return Conflictf("open ticket for %s exists", "a@b.co") }, ErrCodeConflict, "open ticket for a@b.co exists", ""},
		{"Validation", func() *AppError { return Validation("subject too long") }, ErrCodeValidation, "subject too long", ""},
		{"Validationf", func() *AppError { return Validationf("priority %q unknown", "urgent") }, ErrCodeValidation, `priority "urgent" unknown`, ""},
		{"ValidationField", func() *AppError { return ValidationField("reporter_email", "bad address") }, ErrCodeValidation, "bad address", "reporter_email"},
		{"InvalidKind", func() *AppError { return InvalidKind("unknown kind") }, ErrCodeInvalidKind, "unknown kind", ""},
		{"InvalidKindf", func() *AppError { return InvalidKindf("kind %q unknown", "quarterly") }, ErrCodeInvalidKind, `kind "quarterly" unknown`, ""},
		{"NotReady", func() *AppError { return NotReady("job is processing") }, ErrCodeNotReady, "job is processing", ""},
		{"NotReadyf", func() *AppError { return NotReadyf("job %s is %s", "rj-1", "pending") }, ErrCodeNotReady, "job rj-1 is pending", ""},
		{"Generation", func() *AppError { return Generation("template failed") }, ErrCodeGeneration, "template failed", ""},
		{"Generationf", func() *AppError { return Generationf("render %s section", "totals") }, ErrCodeGeneration, "render totals section", ""},
		{"ForeignKey", func() *AppError { return ForeignKey("rule still in use") }, ErrCodeForeignKey, "rule still in use", ""},
		{"Internal", func() *AppError { return Internal("unexpected state") }, ErrCodeInternal, "unexpected state", ""},
		{"Internalf", func() *AppError { return Internalf("lost %d rows", 3) }, ErrCodeInternal, "lost 3 rows", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.build()
			require.NotNil(t, err)
			assert.Equal(t, tt.code, err.Code)
			assert.Equal(t, tt.message, err.Message)
			assert.Equal(t, tt.field, err.Field)
			assert.Nil(t, err.Cause)
		})
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("disk full")

	err := Wrap(cause, ErrCodeGeneration, "write report file")
	require.NotNil(t, err)
	assert.Equal(t, ErrCodeGeneration, err.Code)
	assert.Equal(t, "write report file", err.Message)
	assert.ErrorIs(t, err, cause)

	errf := Wrapf(cause, ErrCodeInternal, "flush %s", "spool")
	require.NotNil(t, errf)
	assert.Equal(t, "flush spool", errf.Message)
	assert.ErrorIs(t, errf, cause)
}

func TestWrapNilStaysNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrCodeInternal, "ignored"))
	assert.Nil(t, Wrapf(nil, ErrCodeInternal, "ignored %d", 1))
}

// Every predicate is run against an error of every code, so a predicate
// wired to the wrong constant fails here even when its own code passes.
func TestPredicatesMatchExactlyTheirCode(t *testing.T) {
	predicates := map[ErrorCode]func(error) bool{
		ErrCodeNotFound:    IsNotFound,
		ErrCodeConflict:    IsConflict,
		ErrCodeValidation:  IsValidation,
		ErrCodeInvalidKind: IsInvalidKind,
		ErrCodeNotReady:    IsNotReady,
		ErrCodeGeneration:  IsGeneration,
		ErrCodeForeignKey:  IsForeignKey,
		ErrCodeInternal:    IsInternal,
		ErrCodeTimeout:     IsTimeout,
		ErrCodeCanceled:    IsCanceled,
	}

	for predCode, predicate := range predicates {
		assert.False(t, predicate(nil), "%s predicate must reject nil", predCode)
		assert.False(t, predicate(errors.New("plain")), "%s predicate must reject plain errors", predCode)
		for errCode := range predicates {
			err := fmt.Errorf("loading: %w", newError(errCode, "boom"))
			assert.Equal(t, predCode == errCode, predicate(err),
				"predicate for %s given wrapped %s error", predCode, errCode)
		}
	}
}

func TestGetCodeAndField(t *testing.T) {
	assert.Equal(t, ErrCodeNotReady, GetCode(NotReady("still processing")))
	assert.Equal(t, ErrCodeValidation, GetCode(fmt.Errorf("create: %w", ValidationField("subject", "required"))))
	assert.Equal(t, ErrorCode(""), GetCode(errors.New("plain")))
	assert.Equal(t, ErrorCode(""), GetCode(nil))

	assert.Equal(t, "subject", GetField(ValidationField("subject", "required")))
	assert.Empty(t, GetField(NotFound("gone")))
	assert.Empty(t, GetField(nil))
}

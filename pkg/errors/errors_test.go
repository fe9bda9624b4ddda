package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		retryable bool
		detailsOK bool
	}{
		{CodeValidation, http.StatusBadRequest, false, true},
		{CodeUnauthorized, http.StatusUnauthorized, false, false},
		{CodeForbidden, http.StatusForbidden, false, false},
		{CodeNotFound, http.StatusNotFound, false, false},
		{CodeConflict, http.StatusConflict, false, false},
		{CodeStateConflict, http.StatusUnprocessableEntity, false, true},
		{CodeIdempotency, http.StatusConflict, false, true},
		{CodeRateLimit, http.StatusTooManyRequests, false, false},
		{CodeInternal, http.StatusInternalServerError, true, false},
		{CodeDependency, http.StatusServiceUnavailable, true, true},
		{CodePolicyBlocked, http.StatusNotImplemented, false, true},
	}
	require.Len(t, catalog, len(tests))
	for _, tt := range tests {
		m := MetadataFor(tt.code)
		assert.Equal(t, tt.status, m.HTTPStatus, tt.code)
		assert.Equal(t, tt.retryable, m.Retryable, tt.code)
		assert.Equal(t, tt.detailsOK, m.DetailsAllowed, tt.code)
		assert.NotEmpty(t, m.PublicMessage, tt.code)
	}
	assert.Equal(t, "operation disabled by platform policy", MetadataFor(CodePolicyBlocked).PublicMessage)
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, MetadataFor("SOMETHING_UNKNOWN").HTTPStatus)
}

func TestErrorAccessors(t *testing.T) {
	base := New(CodeValidation, "missing foo")
	assert.Equal(t, CodeValidation, base.Code())
	assert.Equal(t, "missing foo", base.Message())
	assert.Equal(t, "VALIDATION_ERROR: missing foo", base.Error())
	assert.Nil(t, base.Details())
	assert.Equal(t, map[string]any{"field": "foo"}, base.WithDetails(map[string]any{"field": "foo"}).Details())

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeConflict, cause, "ctx")
	assert.ErrorIs(t, wrapped, cause)
	assert.Equal(t, CodeConflict, wrapped.Code())
	assert.Nil(t, Wrap(CodeInternal, nil, "x").Unwrap())

	var nilErr *Error
	assert.Equal(t, CodeInternal, nilErr.Code())
	assert.Empty(t, nilErr.Message())
	assert.Nil(t, nilErr.WithDetails("x"))
}

func TestAsAndIsCodeWalkTheChain(t *testing.T) {
	inner := New(CodeNotFound, "order not found")
	outer := fmt.Errorf("loading order: %w", inner)

	assert.Same(t, inner, As(outer))
	assert.Nil(t, As(nil))
	assert.Nil(t, As(stdErrors.New("plain")))
	assert.True(t, IsCode(outer, CodeNotFound))
	assert.False(t, IsCode(outer, CodeForbidden))
	assert.False(t, IsCode(nil, CodeNotFound))
}

func TestDumpCollectsChainAndPostgresFields(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "ux_returns_number", TableName: "return_requests", Message: "duplicate key"}
	err := Wrap(CodeDependency, fmt.Errorf("insert: %w", pgErr), "create return")

	d := Dump(err)
	assert.Equal(t, CodeDependency, d.Code)
	assert.Equal(t, err.Error(), d.TopMessage)
	assert.Len(t, d.Chain, 3)
	assert.Equal(t, "23505", d.PGCode)
	assert.Equal(t, "ux_returns_number", d.PGConstraint)
	assert.Equal(t, "return_requests", d.PGTable)

	pqDump := Dump(fmt.Errorf("legacy: %w", &pq.Error{Code: "23503", Table: "orders"}))
	assert.Equal(t, "23503", pqDump.PGCode)
	assert.Equal(t, "orders", pqDump.PGTable)
	assert.Empty(t, pqDump.Code)

	assert.Equal(t, ErrorDump{}, Dump(nil))
}

func TestDumpCapsChainLength(t *testing.T) {
	err := stdErrors.New("root")
	for i := 0; i < maxChain*2; i++ {
		err = fmt.Errorf("layer %d: %w", i, err)
	}
	assert.Len(t, Dump(err).Chain, maxChain)
}

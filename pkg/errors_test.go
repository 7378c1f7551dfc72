package pkg

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestToErrorResponse_AppError(t *testing.T) {
	err := fmt.Errorf("approve: %w", NewInsufficientFundsError())

	resp := ToErrorResponse(zap.NewNop(), "trace-1", err)

	assert.Equal(t, http.StatusBadRequest, resp.Status)
	assert.Equal(t, ErrInsufficientFundsCode.Code, resp.Code)
	assert.Equal(t, "insufficient balance", resp.Message)
}

func TestToErrorResponse_UnknownErrorIs500(t *testing.T) {
	resp := ToErrorResponse(zap.NewNop(), "trace-1", errors.New("connection refused"))

	assert.Equal(t, http.StatusInternalServerError, resp.Status)
	assert.Equal(t, ErrServerCode.Code, resp.Code)
	assert.Equal(t, ErrServerCode.Message, resp.Message)
}

func TestHasCode(t *testing.T) {
	assert.True(t, HasCode(NewAlreadyProcessedError(), ErrAlreadyProcessedCode))
	assert.True(t, errors.Is(NewAlreadyProcessedError(), ErrAlreadyProcessed))
	assert.False(t, HasCode(NewValidationError("bad"), ErrAlreadyProcessedCode))
	assert.False(t, HasCode(errors.New("plain"), ErrInvalidInputCode))
}

func TestHandleSQLError(t *testing.T) {
	logger := zap.NewNop()

	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{name: "no rows", err: pgx.ErrNoRows, want: ErrRecordNotFoundCode},
		{name: "unique", err: &pgconn.PgError{Code: "23505"}, want: ErrSQLDuplicateCode},
		{name: "foreign key", err: &pgconn.PgError{Code: "23503"}, want: ErrSQLConflictCode},
		{name: "check", err: &pgconn.PgError{Code: "23514"}, want: ErrInsufficientFundsCode},
		{name: "bad uuid", err: &pgconn.PgError{Code: "22P02"}, want: ErrSQLInvalidInput},
		{name: "other pg", err: &pgconn.PgError{Code: "40001"}, want: ErrSQLUnknownCode},
		{name: "non pg", err: errors.New("boom"), want: ErrSQLUnknownCode},
		{name: "already mapped", err: NewAlreadyProcessedError(), want: ErrAlreadyProcessedCode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HandleSQLError("trace", logger, tt.err)
			assert.True(t, HasCode(got, tt.want), "got %v", got)
		})
	}
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, IsUniqueViolation(nil))
}

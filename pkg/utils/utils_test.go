package utils

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCalculateExponentialBackoffWithJitter(t *testing.T) {
	base := 100 * time.Millisecond
	maxDelay := time.Second

	assert.Equal(t, time.Duration(0), CalculateExponentialBackoffWithJitter(0, base, maxDelay))
	for attempt := 1; attempt <= 3; attempt++ {
		want := base << (attempt - 1)
		got := CalculateExponentialBackoffWithJitter(attempt, base, maxDelay)
		assert.GreaterOrEqual(t, got, want-want/8, "attempt %d", attempt)
		assert.LessOrEqual(t, got, want+want/8, "attempt %d", attempt)
	}
	capped := CalculateExponentialBackoffWithJitter(50, base, maxDelay)
	assert.LessOrEqual(t, capped, maxDelay)
	assert.GreaterOrEqual(t, capped, maxDelay-maxDelay/8)
	assert.Equal(t, time.Nanosecond, CalculateExponentialBackoffWithJitter(1, time.Nanosecond, maxDelay))
}

func TestParsePagination(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		query      string
		wantLimit  int
		wantOffset int
	}{
		{"", DefaultPageLimit, 0},
		{"?limit=10&offset=20", 10, 20},
		{"?limit=-1&offset=-5", DefaultPageLimit, 0},
		{"?limit=100000", MaxPageLimit, 0},
		{"?limit=abc", DefaultPageLimit, 0},
	}
	for _, tt := range tests {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest("GET", "/"+tt.query, nil)
		limit, offset := ParsePagination(c)
		assert.Equal(t, tt.wantLimit, limit, tt.query)
		assert.Equal(t, tt.wantOffset, offset, tt.query)
	}
}

func TestFormatConfigErrors(t *testing.T) {
	type cfg struct {
		JwtSecret string `validate:"required,min=16"`
		Port      string `validate:"required"`
	}
	err := validator.New().Struct(cfg{JwtSecret: "short"})
	require.Error(t, err)

	got := FormatConfigErrors(zap.NewNop(), err)
	assert.EqualError(t, got, "invalid config: JwtSecret, Port")

	plain := errors.New("boom")
	assert.Same(t, plain, FormatConfigErrors(zap.NewNop(), plain))
}

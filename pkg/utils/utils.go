package utils

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 200
)

// IsEmpty checks if a string is empty.
func IsEmpty(s string) bool {
	return s == ""
}

// IsBlank checks if a string is empty after trimming whitespace.
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// ParseStructEnv binds env vars to struct fields using a mapstructure tag
func ParseStructEnv(cfg interface{}) error {
	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if IsEmpty(tag) {
			continue
		}
		if err := viper.BindEnv(tag); err != nil {
			return err
		}
	}
	return viper.Unmarshal(cfg)
}

// FormatConfigErrors logs each failed validation rule of cfg and returns a single summary error.
func FormatConfigErrors(logger *zap.Logger, err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		logger.Error("config validation failed", zap.Error(err))
		return err
	}
	fields := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		logger.Error("invalid config value",
			zap.String("field", fe.Namespace()),
			zap.String("rule", fe.Tag()),
			zap.String("param", fe.Param()),
		)
		fields = append(fields, fe.Field())
	}
	return fmt.Errorf("invalid config: %s", strings.Join(fields, ", "))
}

// ParsePagination reads ?limit and ?offset, clamping limit to [1, MaxPageLimit].
func ParsePagination(c *gin.Context) (limit, offset int) {
	limit = DefaultPageLimit
	if raw := c.Query("limit"); !IsEmpty(raw) {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	if raw := c.Query("offset"); !IsEmpty(raw) {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			offset = n
		}
	}
	return limit, offset
}

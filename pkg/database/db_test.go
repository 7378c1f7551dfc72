package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskDSN(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "postgres://ledger:s3cret@db:5432/ledger?sslmode=disable", want: "postgres://*****:*****@db:5432/ledger?sslmode=disable"},
		{in: "postgres://db:5432/ledger", want: "postgres://db:5432/ledger"},
		{in: "postgres://ledger@db:5432/ledger", want: "postgres://ledger@db:5432/ledger"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, maskDSN(tt.in))
	}
}

package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"$1,234.56", "1234.56"},
		{"(45.67)", "-45.67"},
		{"($1,000.00)", "-1000.00"},
		{"", "0.00"},
		{"   ", "0.00"},
		{"-12.50", "-12.50"},
		{"1000", "1000.00"},
		{"abc", "0.00"},
		{"12.3.4", "0.00"},
		{"()", "0.00"},
		{" 7.10 ", "7.10"},
		{"1e50000000", "0.00"},
		{"-2.5E3", "0.00"},
		{"(45.67", "0.00"},
		{"45.67)", "0.00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Parse(tt.in).StringFixed(2), "Parse(%q)", tt.in)
	}
}

func TestHasExponent(t *testing.T) {
	assert.True(t, HasExponent("1e5"))
	assert.True(t, HasExponent("1E-5"))
	assert.False(t, HasExponent("1234.56"))
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "", Format(decimal.Zero))
	assert.Equal(t, "3.50", Format(decimal.RequireFromString("3.5")))
	assert.Equal(t, "1000.00", Format(decimal.RequireFromString("1000")))
}

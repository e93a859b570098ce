package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeSymbol(t *testing.T) {
	assert.Equal(t, "AAPL", NormalizeSymbol("  aapl "))
	assert.Equal(t, "BRK.B", NormalizeSymbol("brk.b"))
}

func TestValidateSymbol(t *testing.T) {
	valid := []string{"AAPL", "BRK.B", "BF-B", "shop.to", "X"}
	for _, s := range valid {
		assert.NoError(t, ValidateSymbol(s), s)
	}

	invalid := []string{"", "   ", "AAPL$", "../ETC", "A B", "THISSYMBOLISWAYTOOLONGTOBEREAL"}
	for _, s := range invalid {
		assert.Error(t, ValidateSymbol(s), s)
	}
}

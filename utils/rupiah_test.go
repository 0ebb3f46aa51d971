package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatRupiah(t *testing.T) {
	assert.Equal(t, "Rp 500.000", FormatRupiah(500000))
	assert.Equal(t, "Rp 1.500.000", FormatRupiah(1500000))
	assert.Equal(t, "Rp 0", FormatRupiah(0))
}

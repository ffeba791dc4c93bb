package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/rattle/internal/core/domain"
)

func TestCanonicalSpecs(t *testing.T) {
	a := domain.CanonicalSpecs([]string{"xtensor", "xsimd"})
	b := domain.CanonicalSpecs([]string{"xsimd", "xtensor", "xsimd"})

	assert.Equal(t, a, b)
	assert.Equal(t, "xsimd;xtensor;", a)
	assert.Empty(t, domain.CanonicalSpecs(nil))
}

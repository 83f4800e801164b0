package textnorm_test

import (
	"testing"

	"pharmadelivery/internal/pkg/textnorm"

	"github.com/stretchr/testify/assert"
)

func TestFold(t *testing.T) {
	testCases := []struct {
		in   string
		want string
	}{
		{in: "Paracétamol", want: "paracetamol"},
		{in: "  PHARMACIE   de   GARDE ", want: "pharmacie de garde"},
		{in: "Ordonnance reçue", want: "ordonnance recue"},
		{in: "", want: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, textnorm.Fold(tc.in))
		})
	}
}

func TestContains(t *testing.T) {
	assert.True(t, textnorm.Contains("Doliprane Paracétamol 500mg", "paracetamol"))
	assert.True(t, textnorm.Contains("Efferalgan", "EFFER"))
	assert.False(t, textnorm.Contains("Ibuprofène", "paracetamol"))
	assert.False(t, textnorm.Contains("anything", "   "))
}

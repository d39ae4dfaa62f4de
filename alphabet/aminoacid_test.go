package alphabet

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTranslateCodonCanonical(t *testing.T) {
	assert.Equal(t, Aminoacid('M'), TranslateCodon(A, T, G))
	assert.Equal(t, Aminoacid('F'), TranslateCodon(T, T, T))
	assert.Equal(t, AStop, TranslateCodon(T, A, A))
}

func TestTranslateCodonAllGapsIsGap(t *testing.T) {
	assert.Equal(t, AGap, TranslateCodon(Gap, Gap, Gap))
}

func TestTranslateCodonPartialGapIsX(t *testing.T) {
	assert.Equal(t, AX, TranslateCodon(A, Gap, G))
}

func TestTranslateCodonAmbiguousAgreeingResolutionsTranslate(t *testing.T) {
	// TTY = TTT|TTC, both Phe.
	assert.Equal(t, Aminoacid('F'), TranslateCodon(T, T, Y))
}

func TestTranslateCodonAmbiguousDisagreeingResolutionsIsX(t *testing.T) {
	// RTG = ATG (Met) or GTG (Val): disagree.
	assert.Equal(t, AX, TranslateCodon(R, T, G))
}

func TestAminoacidString(t *testing.T) {
	assert.Equal(t, "-", AGap.String())
	assert.True(t, AGap.IsGap())
}

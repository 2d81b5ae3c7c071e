package derive

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBloatRatioNilWhenNotApplicable(t *testing.T) {
	got := BloatRatio(nil, TableBloatFactors{IsNA: true})
	assert.Nil(t, got)
}

func TestBloatRatioInRange(t *testing.T) {
	attrs := []TableAttribute{
		{Align: AlignInt, AvgWidth: 4},
		{Align: AlignDouble, AvgWidth: 8},
		{Align: AlignChar, AvgWidth: 20},
	}
	factors := TableBloatFactors{
		TblPages:    1000,
		RelTuples:   500000,
		BS:          8192,
		PageHdr:     24,
		FillFactor:  1.0,
		TplDataSize: 32,
		TplHdrSize:  23,
		MA:          8,
	}

	got := BloatRatio(attrs, factors)
	if assert.NotNil(t, got) {
		assert.GreaterOrEqual(t, *got, 0.0)
		assert.LessOrEqual(t, *got, 100.0)
	}
}

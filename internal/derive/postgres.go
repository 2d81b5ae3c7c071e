package derive

import "math"

// Alignment codes from pg_type.typalign.
const (
	AlignChar  = 1
	AlignShort = 2
	AlignInt   = 4
	AlignDouble = 8
)

// TableAttribute is one column's contribution to the padding model: its
// alignment requirement and its average on-disk width.
type TableAttribute struct {
	Align    int
	AvgWidth float64
}

// TableBloatFactors is the per-table inputs collected alongside the
// attribute list.
type TableBloatFactors struct {
	TblPages    float64
	RelTuples   float64
	BS          float64
	PageHdr     float64
	FillFactor  float64
	IsNA        bool
	TplDataSize float64
	TplHdrSize  float64
	MA          float64
}

// BloatRatio estimates a table's bloat percentage from its attribute
// alignment padding and reported page count: pad the tuple, estimate the
// page count a fully-packed table would need, and compare to the actual
// page count. Returns nil when the table's stats are marked not-applicable
// (is_na).
func BloatRatio(attrs []TableAttribute, f TableBloatFactors) *float64 {
	if f.IsNA {
		return nil
	}

	padding := 0.0
	offset := 0.0
	for _, a := range attrs {
		align := float64(a.Align)
		if align > 1 {
			rem := math.Mod(offset, align)
			if rem != 0 {
				padding += align - rem
				offset += align - rem
			}
		}
		offset += a.AvgWidth
	}
	// Tuples themselves align to 4 bytes; pad out the last attribute.
	if rem := math.Mod(offset, 4); rem != 0 {
		padding += 4 - rem
	}

	tplDataSize := f.TplDataSize + padding

	tplSize := 4 + f.TplHdrSize + tplDataSize + 2*f.MA
	tplSize -= modOrMA(f.TplHdrSize, f.MA)
	tplSize -= modOrMA(math.Ceil(tplDataSize), f.MA)

	estPagesFF := math.Ceil(f.RelTuples / ((f.BS - f.PageHdr) * f.FillFactor / (tplSize * 100)))

	ratio := 0.0
	if f.TblPages-estPagesFF > 0 {
		ratio = 100 * (f.TblPages - estPagesFF) / f.TblPages
	}
	return &ratio
}

// modOrMA returns MA itself when v is an exact multiple of MA, and v%MA
// otherwise.
func modOrMA(v, ma float64) float64 {
	rem := math.Mod(v, ma)
	if rem == 0 {
		return ma
	}
	return rem
}

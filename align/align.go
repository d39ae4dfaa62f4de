package align

// Result is the outcome of aligning one query sequence against the
// reference (§4.E): both output sequences are the same length and consist
// of the original bytes interleaved with '-' gap characters.
type Result struct {
	RefAligned   []byte
	QueryAligned []byte
	Score        int
	Warnings     []string
}

// fullWidth is a band half-width guaranteed to cover the entire DP matrix,
// used for the full-matrix fallback path.
func fullWidth(refLen, queryLen int) int {
	w := refLen
	if queryLen > w {
		w = queryLen
	}
	return w + 1
}

// Align implements §4.D/§4.E end to end: it seeds anchors from ref onto
// query, runs the banded Gotoh DP along the anchor-derived diagonal,
// widening the band once on failure, and falls back to an unbanded
// (full-matrix) alignment when seeding could not find enough anchors or the
// banded attempts still fail to recover a path that respects MaxIndel.
func Align(ref, query []byte, seedParams SeedParams, scoreParams ScoreParams) Result {
	var warnings []string

	seeds := FindSeeds(ref, query, seedParams)
	if seeds.Fallback {
		warnings = append(warnings, "insufficient seed matches; falling back to full-matrix alignment")
		return alignFullMatrix(ref, query, scoreParams, warnings)
	}

	center := centerFunc(seeds.Anchors, len(ref), len(query))
	bandWidth := scoreParams.BandWidth
	if refAln, queryAln, score, ok := bandedAlign(ref, query, center, bandWidth, scoreParams); ok {
		return Result{RefAligned: refAln, QueryAligned: queryAln, Score: score, Warnings: warnings}
	}

	warnings = append(warnings, "banded alignment failed, retrying with a doubled band width")
	if refAln, queryAln, score, ok := bandedAlign(ref, query, center, bandWidth*2, scoreParams); ok {
		return Result{RefAligned: refAln, QueryAligned: queryAln, Score: score, Warnings: warnings}
	}

	warnings = append(warnings, "banded alignment failed twice; falling back to full-matrix alignment")
	return alignFullMatrix(ref, query, scoreParams, warnings)
}

func alignFullMatrix(ref, query []byte, scoreParams ScoreParams, warnings []string) Result {
	center := centerFunc(nil, len(ref), len(query))
	width := fullWidth(len(ref), len(query))
	refAln, queryAln, score, ok := bandedAlign(ref, query, center, width, scoreParams)
	if !ok {
		warnings = append(warnings, "alignment failed: no path respects the configured maximum indel length")
		return Result{Warnings: warnings}
	}
	return Result{RefAligned: refAln, QueryAligned: queryAln, Score: score, Warnings: warnings}
}

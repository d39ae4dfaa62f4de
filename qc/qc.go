// Package qc implements the independently-scored quality-control rules
// (component H, §4.H) plus the supplemented primerChanges rule (§12): each
// rule is config-gated and nullable, and the aggregate score is their sum
// against the §4.H status thresholds.
//
// The independent-counter/threshold evaluation style is grounded on the
// teacher's grailbio-bio/fusion/stats.go, which accumulates several
// unrelated counters over a single pass and exposes them as separate named
// fields rather than one monolithic struct method.
package qc

import (
	"sort"

	"github.com/grailbio/nextclade-go/mutation"
	"github.com/grailbio/nextclade-go/seq"
)

// Status is the aggregate QC verdict.
type Status string

const (
	StatusGood     Status = "good"
	StatusMediocre Status = "mediocre"
	StatusBad      Status = "bad"
)

func statusFor(score float64) Status {
	switch {
	case score < 30:
		return StatusGood
	case score < 100:
		return StatusMediocre
	default:
		return StatusBad
	}
}

// MissingDataConfig configures the missingData rule.
type MissingDataConfig struct {
	Threshold float64
	ScoreBias float64
}

// MissingDataResult is the missingData rule's outcome.
type MissingDataResult struct {
	TotalMissing int
	Score        float64
}

func evalMissingData(cfg MissingDataConfig, totalMissing int) MissingDataResult {
	if cfg.Threshold == 0 {
		return MissingDataResult{TotalMissing: totalMissing}
	}
	raw := (float64(totalMissing)-cfg.Threshold+cfg.ScoreBias)*100.0/cfg.Threshold - cfg.ScoreBias
	if raw < 0 {
		raw = 0
	}
	return MissingDataResult{TotalMissing: totalMissing, Score: raw}
}

// MixedSitesConfig configures the mixedSites rule.
type MixedSitesConfig struct {
	Threshold float64
}

// MixedSitesResult is the mixedSites rule's outcome.
type MixedSitesResult struct {
	TotalMixed int
	Score      float64
}

func evalMixedSites(cfg MixedSitesConfig, totalMixed int) MixedSitesResult {
	if cfg.Threshold == 0 {
		return MixedSitesResult{TotalMixed: totalMixed}
	}
	return MixedSitesResult{TotalMixed: totalMixed, Score: float64(totalMixed) * 100.0 / cfg.Threshold}
}

// PrivateMutationsConfig configures the privateMutations rule.
type PrivateMutationsConfig struct {
	Typical float64
	Cutoff  float64
}

// PrivateMutationsResult is the privateMutations rule's outcome.
type PrivateMutationsResult struct {
	Total int
	Score float64
}

func evalPrivateMutations(cfg PrivateMutationsConfig, total int) PrivateMutationsResult {
	if cfg.Cutoff == 0 {
		return PrivateMutationsResult{Total: total}
	}
	raw := float64(total) * 100.0 / cfg.Cutoff
	upperBound := float64(total) * 100.0
	if cfg.Typical != 0 {
		upperBound = float64(total) * 100.0 / cfg.Typical
	}
	if raw < 0 {
		raw = 0
	}
	if raw > upperBound {
		raw = upperBound
	}
	return PrivateMutationsResult{Total: total, Score: raw}
}

// SnpClustersConfig configures the snpClusters rule.
type SnpClustersConfig struct {
	WindowSize    int
	ClusterCutOff int
	ScoreWeight   float64
}

// SnpClustersResult is the snpClusters rule's outcome.
type SnpClustersResult struct {
	Clusters []seq.Range
	Score    float64
}

// findClusters returns the maximal merged windows of width windowSize that
// contain at least clusterCutOff of the given sorted positions.
func findClusters(positions []int, windowSize, clusterCutOff int) []seq.Range {
	if clusterCutOff <= 0 || windowSize <= 0 {
		return nil
	}
	var hot []seq.Range
	j := 0
	for i := range positions {
		if j < i {
			j = i
		}
		for j < len(positions) && positions[j] < positions[i]+windowSize {
			j++
		}
		if j-i >= clusterCutOff {
			hot = append(hot, seq.NewRange(positions[i], positions[i]+windowSize))
		}
	}
	return mergeRanges(hot)
}

func mergeRanges(ranges []seq.Range) []seq.Range {
	if len(ranges) == 0 {
		return nil
	}
	merged := []seq.Range{ranges[0]}
	for _, r := range ranges[1:] {
		last := &merged[len(merged)-1]
		if r.Begin <= last.End {
			if r.End > last.End {
				last.End = r.End
			}
			continue
		}
		merged = append(merged, r)
	}
	return merged
}

func evalSnpClusters(cfg SnpClustersConfig, substitutions []mutation.NucleotideSubstitution) SnpClustersResult {
	if cfg.WindowSize == 0 || cfg.ClusterCutOff == 0 {
		return SnpClustersResult{}
	}
	positions := make([]int, len(substitutions))
	for i, s := range substitutions {
		positions[i] = s.Pos
	}
	sort.Ints(positions)
	clusters := findClusters(positions, cfg.WindowSize, cfg.ClusterCutOff)
	return SnpClustersResult{Clusters: clusters, Score: float64(len(clusters)) * cfg.ScoreWeight}
}

// Primer is one PCR primer with its reference span (§12 supplement).
type Primer struct {
	Name  string
	Range seq.Range
}

// PrimerChangesConfig configures the supplemented primerChanges rule.
type PrimerChangesConfig struct {
	Primers     []Primer
	ScoreWeight float64
}

// PrimerChangesResult is the primerChanges rule's outcome.
type PrimerChangesResult struct {
	Changed []string
	Score   float64
}

func evalPrimerChanges(cfg PrimerChangesConfig, substitutions []mutation.NucleotideSubstitution) PrimerChangesResult {
	if len(cfg.Primers) == 0 {
		return PrimerChangesResult{}
	}
	var changed []string
	for _, p := range cfg.Primers {
		for _, s := range substitutions {
			if p.Range.Contains(s.Pos) {
				changed = append(changed, p.Name)
				break
			}
		}
	}
	return PrimerChangesResult{Changed: changed, Score: float64(len(changed)) * cfg.ScoreWeight}
}

// Config gates each rule; a nil field disables that rule (§4.H "each rule
// is independently enable-able").
type Config struct {
	MissingData      *MissingDataConfig
	MixedSites       *MixedSitesConfig
	PrivateMutations *PrivateMutationsConfig
	SnpClusters      *SnpClustersConfig
	PrimerChanges    *PrimerChangesConfig
}

// Inputs bundles everything the rules need about one analysed sequence.
type Inputs struct {
	TotalMissing         int
	TotalMixed           int
	Substitutions        []mutation.NucleotideSubstitution
	PrivateMutationCount int
}

// Result is the full per-sequence QC report.
type Result struct {
	MissingData      *MissingDataResult
	MixedSites       *MixedSitesResult
	PrivateMutations *PrivateMutationsResult
	SnpClusters      *SnpClustersResult
	PrimerChanges    *PrimerChangesResult
	Score            float64
	Status           Status
}

// Evaluate runs every enabled rule and aggregates the result.
func Evaluate(cfg Config, in Inputs) Result {
	var r Result
	if cfg.MissingData != nil {
		res := evalMissingData(*cfg.MissingData, in.TotalMissing)
		r.MissingData = &res
		r.Score += res.Score
	}
	if cfg.MixedSites != nil {
		res := evalMixedSites(*cfg.MixedSites, in.TotalMixed)
		r.MixedSites = &res
		r.Score += res.Score
	}
	if cfg.PrivateMutations != nil {
		res := evalPrivateMutations(*cfg.PrivateMutations, in.PrivateMutationCount)
		r.PrivateMutations = &res
		r.Score += res.Score
	}
	if cfg.SnpClusters != nil {
		res := evalSnpClusters(*cfg.SnpClusters, in.Substitutions)
		r.SnpClusters = &res
		r.Score += res.Score
	}
	if cfg.PrimerChanges != nil {
		res := evalPrimerChanges(*cfg.PrimerChanges, in.Substitutions)
		r.PrimerChanges = &res
		r.Score += res.Score
	}
	r.Status = statusFor(r.Score)
	return r
}

// Package resultio implements the serial, ordered output filter of §4.J
// stage 3: it merges each analysis.Result into the aligned FASTA, per-gene
// FASTAs, insertions CSV, errors CSV and the optional JSON/TSV outputs
// described in §6, writing the reference peptides exactly once on the
// first item.
//
// The buffered-writer-plus-flush-on-close style (bufio.Writer wrapping the
// caller's io.Writer, flushed once at the end rather than after every
// record) follows
// grailbio-bio/fusion/parsegencode/parsegencode.go's PrintParsedGTFRecords.
package resultio

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"

	"github.com/grailbio/nextclade-go/analysis"
	"github.com/grailbio/nextclade-go/genemap"
	"github.com/grailbio/nextclade-go/pipeline"
	"github.com/grailbio/nextclade-go/translate"
)

// SchemaVersion is embedded in the results JSON output (§6 "Output: results
// JSON").
const SchemaVersion = "nextclade-go-result-1"

// Config names every optional output sink; a nil field disables that
// output, matching the CLI's --output-* flags (§6) being individually
// optional.
type Config struct {
	AlignedFasta io.Writer
	GeneFasta    map[string]io.Writer // gene name -> its FASTA output
	Insertions   io.Writer
	Errors       io.Writer
	JSON         io.Writer
	TSV          io.Writer

	Reference []byte
	GeneMap   *genemap.GeneMap
}

// Writer drives every output configured in Config, consuming
// pipeline.Output values strictly in index order (the pipeline guarantees
// this; Writer does no reordering of its own).
type Writer struct {
	cfg Config

	alignedFasta *bufio.Writer
	geneFasta    map[string]*bufio.Writer
	insertions   *csv.Writer
	errorsCSV    *csv.Writer
	tsv          *bufio.Writer

	jsonResults []resultRecord
	qcScores    []float64

	wroteReferencePeptides bool
	wroteTSVHeader         bool
}

// NewWriter wraps every configured sink and writes the CSV/TSV headers.
func NewWriter(cfg Config) (*Writer, error) {
	w := &Writer{cfg: cfg, geneFasta: make(map[string]*bufio.Writer)}

	if cfg.AlignedFasta != nil {
		w.alignedFasta = bufio.NewWriter(cfg.AlignedFasta)
	}
	for name, sink := range cfg.GeneFasta {
		w.geneFasta[name] = bufio.NewWriter(sink)
	}
	if cfg.Insertions != nil {
		w.insertions = csv.NewWriter(cfg.Insertions)
		if err := w.insertions.Write([]string{"seqName", "insertions"}); err != nil {
			return nil, errors.Wrap(err, "resultio: write insertions header")
		}
	}
	if cfg.Errors != nil {
		w.errorsCSV = csv.NewWriter(cfg.Errors)
		if err := w.errorsCSV.Write([]string{"seqName", "error"}); err != nil {
			return nil, errors.Wrap(err, "resultio: write errors header")
		}
	}
	if cfg.TSV != nil {
		w.tsv = bufio.NewWriter(cfg.TSV)
	}
	return w, nil
}

func writeFastaRecord(w *bufio.Writer, name string, seq []byte) error {
	if _, err := fmt.Fprintf(w, ">%s\n", name); err != nil {
		return err
	}
	if _, err := w.Write(seq); err != nil {
		return err
	}
	_, err := w.WriteString("\n")
	return err
}

// writeReferencePeptides writes the "Reference" record to every per-gene
// FASTA output, translating each gene directly off the ungapped reference
// (§6 "First record is the reference peptide named Reference").
func (w *Writer) writeReferencePeptides() error {
	if w.wroteReferencePeptides || w.cfg.GeneMap == nil {
		return nil
	}
	w.wroteReferencePeptides = true
	for _, gene := range w.cfg.GeneMap.Genes() {
		sink, ok := w.geneFasta[gene.Name]
		if !ok {
			continue
		}
		if gene.Start < 0 || gene.End > len(w.cfg.Reference) {
			continue
		}
		refSlice := w.cfg.Reference[gene.Start:gene.End]
		peptide, err := translate.Translate(gene.Name, refSlice, refSlice)
		if err != nil {
			return errors.Wrapf(err, "resultio: translate reference gene %q", gene.Name)
		}
		if err := writeFastaRecord(sink, "Reference", []byte(peptide.RefString())); err != nil {
			return errors.Wrap(err, "resultio: write reference peptide")
		}
	}
	return nil
}

func formatInsertions(result analysis.Result) string {
	var parts []string
	for _, ins := range result.Mutation.Insertions {
		parts = append(parts, fmt.Sprintf("%d:%s", ins.Pos, string(ins.Inserted)))
	}
	return strings.Join(parts, ";")
}

// resultRecord is the JSON-serialisable mirror of analysis.Result (§6
// "Output: results JSON... mirrors AnalysisResult per sequence").
type resultRecord struct {
	Index           int      `json:"index"`
	Name            string   `json:"seqName"`
	HasError        bool     `json:"hasError"`
	Error           string   `json:"error,omitempty"`
	Warnings        []string `json:"warnings,omitempty"`
	Score           int      `json:"alignmentScore,omitempty"`
	AlignmentStart  int      `json:"alignmentStart,omitempty"`
	AlignmentEnd    int      `json:"alignmentEnd,omitempty"`
	Substitutions   int      `json:"totalSubstitutions,omitempty"`
	Deletions       int      `json:"totalDeletions,omitempty"`
	Insertions      int      `json:"totalInsertions,omitempty"`
	MissingRanges   int      `json:"totalMissing,omitempty"`
	Clade           string   `json:"clade,omitempty"`
	QCScore         float64  `json:"qcScore,omitempty"`
	QCStatus        string   `json:"qcStatus,omitempty"`
	PrivateMutCount int      `json:"privateMutationCount,omitempty"`
	Genes           []string `json:"genes,omitempty"`
}

// resultsSummary aggregates QC scores across the whole run, so a caller can
// spot a systematically low-quality batch without scanning every record.
type resultsSummary struct {
	Count       int     `json:"count"`
	MeanQCScore float64 `json:"meanQcScore,omitempty"`
	StdDevScore float64 `json:"stdDevQcScore,omitempty"`
}

type resultsDocument struct {
	SchemaVersion string         `json:"schemaVersion"`
	Summary       resultsSummary `json:"summary"`
	Results       []resultRecord `json:"results"`
}

func toResultRecord(out pipeline.Output) resultRecord {
	rec := resultRecord{Index: out.Index, Name: out.Name, Warnings: out.Warnings}
	if out.HasError {
		rec.HasError = true
		if out.Error != nil {
			rec.Error = out.Error.Error()
		}
		return rec
	}
	result, ok := out.Result.(analysis.Result)
	if !ok {
		return rec
	}
	rec.Score = result.Score
	rec.AlignmentStart = result.Mutation.AlignmentStart
	rec.AlignmentEnd = result.Mutation.AlignmentEnd
	rec.Substitutions = len(result.Mutation.Substitutions)
	rec.Deletions = len(result.Mutation.Deletions)
	rec.Insertions = len(result.Mutation.Insertions)
	rec.MissingRanges = len(result.Mutation.MissingRanges)
	rec.Clade = result.Clade
	rec.QCScore = result.QC.Score
	rec.QCStatus = string(result.QC.Status)
	rec.PrivateMutCount = result.PrivateCount
	for _, p := range result.Peptides {
		rec.Genes = append(rec.Genes, p.Gene.Name)
	}
	return rec
}

func (w *Writer) writeTSVRow(out pipeline.Output) error {
	if w.tsv == nil {
		return nil
	}
	if !w.wroteTSVHeader {
		w.wroteTSVHeader = true
		if _, err := w.tsv.WriteString("seqName\tclade\tqcStatus\tqcScore\ttotalSubstitutions\ttotalDeletions\ttotalInsertions\ttotalMissing\n"); err != nil {
			return err
		}
	}
	rec := toResultRecord(out)
	_, err := fmt.Fprintf(w.tsv, "%s\t%s\t%s\t%g\t%d\t%d\t%d\t%d\n",
		rec.Name, rec.Clade, rec.QCStatus, rec.QCScore,
		rec.Substitutions, rec.Deletions, rec.Insertions, rec.MissingRanges)
	return err
}

// Emit implements pipeline.EmitFunc: it is called once per item, strictly
// in input index order.
func (w *Writer) Emit(out pipeline.Output) error {
	if err := w.writeReferencePeptides(); err != nil {
		return err
	}

	if w.cfg.JSON != nil {
		rec := toResultRecord(out)
		w.jsonResults = append(w.jsonResults, rec)
		if !out.HasError {
			w.qcScores = append(w.qcScores, rec.QCScore)
		}
	}
	if err := w.writeTSVRow(out); err != nil {
		return errors.Wrap(err, "resultio: write TSV row")
	}

	if out.HasError {
		if w.errorsCSV != nil {
			msg := ""
			if out.Error != nil {
				msg = out.Error.Error()
			}
			if err := w.errorsCSV.Write([]string{out.Name, msg}); err != nil {
				return errors.Wrap(err, "resultio: write errors row")
			}
		}
		return nil
	}

	result, ok := out.Result.(analysis.Result)
	if !ok {
		return errors.Errorf("resultio: item %q: Output.Result is not an analysis.Result", out.Name)
	}

	if w.alignedFasta != nil {
		if err := writeFastaRecord(w.alignedFasta, out.Name, result.QueryAligned); err != nil {
			return errors.Wrap(err, "resultio: write aligned FASTA record")
		}
	}
	for _, p := range result.Peptides {
		sink, ok := w.geneFasta[p.Gene.Name]
		if !ok {
			continue
		}
		if err := writeFastaRecord(sink, out.Name, []byte(p.Peptide.QueryString())); err != nil {
			return errors.Wrapf(err, "resultio: write gene %q FASTA record", p.Gene.Name)
		}
	}
	if w.insertions != nil {
		if ins := formatInsertions(result); ins != "" {
			if err := w.insertions.Write([]string{out.Name, ins}); err != nil {
				return errors.Wrap(err, "resultio: write insertions row")
			}
		}
	}
	return nil
}

// Close flushes every buffered sink and, if configured, writes the JSON
// results document. It must be called exactly once after the pipeline
// finishes.
func (w *Writer) Close() error {
	if w.alignedFasta != nil {
		if err := w.alignedFasta.Flush(); err != nil {
			return errors.Wrap(err, "resultio: flush aligned FASTA")
		}
	}
	for name, sink := range w.geneFasta {
		if err := sink.Flush(); err != nil {
			return errors.Wrapf(err, "resultio: flush gene %q FASTA", name)
		}
	}
	if w.insertions != nil {
		w.insertions.Flush()
		if err := w.insertions.Error(); err != nil {
			return errors.Wrap(err, "resultio: flush insertions CSV")
		}
	}
	if w.errorsCSV != nil {
		w.errorsCSV.Flush()
		if err := w.errorsCSV.Error(); err != nil {
			return errors.Wrap(err, "resultio: flush errors CSV")
		}
	}
	if w.tsv != nil {
		if err := w.tsv.Flush(); err != nil {
			return errors.Wrap(err, "resultio: flush TSV")
		}
	}
	if w.cfg.JSON != nil {
		summary := resultsSummary{Count: len(w.jsonResults)}
		if len(w.qcScores) > 0 {
			summary.MeanQCScore, summary.StdDevScore = stat.MeanStdDev(w.qcScores, nil)
		}
		doc := resultsDocument{SchemaVersion: SchemaVersion, Summary: summary, Results: w.jsonResults}
		enc := json.NewEncoder(w.cfg.JSON)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return errors.Wrap(err, "resultio: write results JSON")
		}
	}
	return nil
}

package dataset

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"strconv"

	"github.com/grailbio/base/file"
	"github.com/pkg/errors"

	"github.com/grailbio/nextclade-go/encoding/gff"
	"github.com/grailbio/nextclade-go/genemap"
	"github.com/grailbio/nextclade-go/qc"
	"github.com/grailbio/nextclade-go/seq"
)

// Bundle file names, flat under a dataset's base URL or local directory
// (§6 "Environment / persisted state").
const (
	fileReference = "reference.fasta"
	fileTree      = "tree.json"
	fileGeneMap   = "genemap.gff"
	filePrimers   = "primers.csv"
	fileQC        = "qc.json"
	fileTag       = "tag.json"
)

// Bundle holds every artifact a dataset contributes to one run (§6).
// TreeJSON is kept as raw bytes: it is handed unmodified to
// encoding/auspice.Parse by the caller, since that package -- not this one
// -- owns Auspice JSON semantics.
type Bundle struct {
	Reference []byte
	TreeJSON  []byte
	GeneMap   *genemap.GeneMap
	Primers   []qc.Primer
	QC        qc.Config
	Tag       Tag
}

// fetchBundleFile fetches one named bundle member, tolerating its absence
// only for the optional members (genemap.gff, primers.csv and qc.json).
func fetchBundleFile(ctx context.Context, baseURL, name string, required bool) ([]byte, error) {
	data, err := downloadToBuffer(ctx, baseURL, name)
	if err != nil {
		if !required {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "dataset: fetch required bundle member %s", name)
	}
	return data, nil
}

// parseReferenceFasta extracts the single ungapped reference record; a
// dataset reference.fasta carries exactly one sequence (§3).
func parseReferenceFasta(data []byte) ([]byte, error) {
	var out []byte
	var inRecord bool
	start := 0
	for i := 0; i <= len(data); i++ {
		if i == len(data) || data[i] == '\n' {
			line := data[start:i]
			start = i + 1
			if len(line) > 0 && line[len(line)-1] == '\r' {
				line = line[:len(line)-1]
			}
			if len(line) == 0 {
				continue
			}
			if line[0] == '>' {
				if inRecord {
					break
				}
				inRecord = true
				continue
			}
			if inRecord {
				out = append(out, line...)
			}
		}
	}
	if len(out) == 0 {
		return nil, errors.New("dataset: reference.fasta has no sequence")
	}
	return out, nil
}

// parsePrimers reads the supplemented PCR primer list (§12 "PCR primer
// checking"): a two-column CSV of primer name and 1-based inclusive
// "start-end" reference range.
func parsePrimers(data []byte) ([]qc.Primer, error) {
	r := csv.NewReader(bufio.NewReader(bytes.NewReader(data)))
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "dataset: parse primers.csv")
	}
	var primers []qc.Primer
	for i, row := range rows {
		if i == 0 && len(row) > 0 && row[0] == "name" {
			continue // header row
		}
		if len(row) < 2 {
			continue
		}
		rng, err := parseRange(row[1])
		if err != nil {
			return nil, errors.Wrapf(err, "dataset: primers.csv row %d", i+1)
		}
		primers = append(primers, qc.Primer{Name: row[0], Range: rng})
	}
	return primers, nil
}

// parseRange parses "start-end", 1-based inclusive, into a 0-based
// half-open seq.Range.
func parseRange(s string) (seq.Range, error) {
	for i := 0; i < len(s); i++ {
		if s[i] == '-' {
			start, err := strconv.Atoi(s[:i])
			if err != nil {
				return seq.Range{}, err
			}
			end, err := strconv.Atoi(s[i+1:])
			if err != nil {
				return seq.Range{}, err
			}
			return seq.Range{Begin: start - 1, End: end}, nil
		}
	}
	return seq.Range{}, errors.Errorf("dataset: malformed range %q", s)
}

func parseQCConfig(data []byte) (qc.Config, error) {
	if len(data) == 0 {
		return qc.Config{}, nil
	}
	var cfg qc.Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return qc.Config{}, errors.Wrap(err, "dataset: parse qc.json")
	}
	return cfg, nil
}

// FetchBundle downloads every bundle member for one dataset under baseURL
// (§6), parsing each into Bundle and also returning the raw bytes fetched
// (RawBundle) so a caller like "dataset get" can mirror the bundle to disk
// verbatim rather than re-serializing the parsed forms. GeneMap, Primers
// and QC are all optional (a dataset may target an alignment-only workflow
// with no annotated genes); Reference, TreeJSON and Tag are required.
func FetchBundle(ctx context.Context, baseURL string) (Bundle, RawBundle, error) {
	var raw RawBundle

	refData, err := fetchBundleFile(ctx, baseURL, fileReference, true)
	if err != nil {
		return Bundle{}, raw, err
	}
	raw.Reference = refData
	reference, err := parseReferenceFasta(refData)
	if err != nil {
		return Bundle{}, raw, err
	}

	treeData, err := fetchBundleFile(ctx, baseURL, fileTree, true)
	if err != nil {
		return Bundle{}, raw, err
	}
	raw.TreeJSON = treeData

	tagData, err := fetchBundleFile(ctx, baseURL, fileTag, true)
	if err != nil {
		return Bundle{}, raw, err
	}
	raw.Tag = tagData
	tag, err := ReadTag(bytes.NewReader(tagData))
	if err != nil {
		return Bundle{}, raw, err
	}

	bundle := Bundle{Reference: reference, TreeJSON: treeData, Tag: tag}

	geneMapData, err := fetchBundleFile(ctx, baseURL, fileGeneMap, false)
	if err != nil {
		return Bundle{}, raw, err
	}
	if geneMapData != nil {
		raw.GeneMap = geneMapData
		gm, err := gff.Parse(bytes.NewReader(geneMapData))
		if err != nil {
			return Bundle{}, raw, errors.Wrap(err, "dataset: parse genemap.gff")
		}
		bundle.GeneMap = gm
	}

	primersData, err := fetchBundleFile(ctx, baseURL, filePrimers, false)
	if err != nil {
		return Bundle{}, raw, err
	}
	if primersData != nil {
		raw.Primers = primersData
		primers, err := parsePrimers(primersData)
		if err != nil {
			return Bundle{}, raw, err
		}
		bundle.Primers = primers
	}

	qcData, err := fetchBundleFile(ctx, baseURL, fileQC, false)
	if err != nil {
		return Bundle{}, raw, err
	}
	raw.QC = qcData
	cfg, err := parseQCConfig(qcData)
	if err != nil {
		return Bundle{}, raw, err
	}
	bundle.QC = cfg

	return bundle, raw, nil
}

// WriteBundle persists a fetched bundle to a local directory (typically the
// on-disk dataset cache), one flat file per member, using
// github.com/grailbio/base/file so the destination may itself be a
// registered remote path (§1 "thin wrappers around the core").
func WriteBundle(ctx context.Context, dir string, raw RawBundle) error {
	writes := map[string][]byte{
		fileReference: raw.Reference,
		fileTree:      raw.TreeJSON,
		fileGeneMap:   raw.GeneMap,
		filePrimers:   raw.Primers,
		fileQC:        raw.QC,
		fileTag:       raw.Tag,
	}
	for name, data := range writes {
		if data == nil {
			continue
		}
		if err := writeFile(ctx, dir+"/"+name, data); err != nil {
			return errors.Wrapf(err, "dataset: write %s", name)
		}
	}
	return nil
}

// RawBundle is the byte-level counterpart of Bundle, used when caching an
// already-fetched bundle verbatim rather than re-serializing its parsed
// form.
type RawBundle struct {
	Reference []byte
	TreeJSON  []byte
	GeneMap   []byte
	Primers   []byte
	QC        []byte
	Tag       []byte
}

func writeFile(ctx context.Context, path string, data []byte) error {
	f, err := file.Create(ctx, path)
	if err != nil {
		return err
	}
	if _, err := f.Writer(ctx).Write(data); err != nil {
		f.Close(ctx)
		return err
	}
	return f.Close(ctx)
}

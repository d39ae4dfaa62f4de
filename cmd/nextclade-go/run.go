package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/pkg/errors"
	"v.io/x/lib/cmdline"

	"github.com/grailbio/nextclade-go/align"
	"github.com/grailbio/nextclade-go/analysis"
	"github.com/grailbio/nextclade-go/encoding/auspice"
	"github.com/grailbio/nextclade-go/encoding/fasta"
	"github.com/grailbio/nextclade-go/encoding/gff"
	"github.com/grailbio/nextclade-go/encoding/resultio"
	"github.com/grailbio/nextclade-go/genemap"
	"github.com/grailbio/nextclade-go/pipeline"
	"github.com/grailbio/nextclade-go/qc"
	"github.com/grailbio/nextclade-go/seq"
)

// runFlags holds the "run" subcommand's flag values (§6's output-*/input-*
// CLI surface).
type runFlags struct {
	jobs             *int
	inputFasta       *string
	inputRootSeq     *string
	inputGeneMap     *string
	inputTree        *string
	inputQCConfig    *string
	inputPCRPrimers  *string
	outputDir        *string
	outputBasename   *string
	outputFasta      *string
	outputInsertions *string
	outputErrors     *string
	outputTSV        *string
	outputJSON       *string
	outputTree       *string
	genes            *string
}

func newCmdRun() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:  "run",
		Short: "Align, analyze and classify query sequences against a reference dataset",
	}
	flags := runFlags{
		jobs:             cmd.Flags.Int("jobs", 0, "Maximum number of concurrent analysis workers; 0 = runtime.NumCPU()"),
		inputFasta:       cmd.Flags.String("input-fasta", "", "Input FASTA path of query sequences (required)"),
		inputRootSeq:     cmd.Flags.String("input-root-seq", "", "Reference FASTA path (required)"),
		inputGeneMap:     cmd.Flags.String("input-gene-map", "", "GFF gene map path"),
		inputTree:        cmd.Flags.String("input-tree", "", "Auspice reference tree JSON path"),
		inputQCConfig:    cmd.Flags.String("input-qc-config", "", "QC rule configuration JSON path"),
		inputPCRPrimers:  cmd.Flags.String("input-pcr-primers", "", "PCR primer CSV path (name,1-based-range columns)"),
		outputDir:        cmd.Flags.String("output-dir", "", "Directory for default-named outputs; combined with --output-basename"),
		outputBasename:   cmd.Flags.String("output-basename", "nextclade", "Basename for default-named outputs under --output-dir"),
		outputFasta:      cmd.Flags.String("output-fasta", "", "Aligned query FASTA output path (default: <dir>/<basename>.aligned.fasta when --output-dir is set)"),
		outputInsertions: cmd.Flags.String("output-insertions", "", "Insertions CSV output path"),
		outputErrors:     cmd.Flags.String("output-errors", "", "Per-sequence errors CSV output path"),
		outputTSV:        cmd.Flags.String("output-tsv", "", "Tabular summary TSV output path"),
		outputJSON:       cmd.Flags.String("output-json", "", "Results JSON output path"),
		outputTree:       cmd.Flags.String("output-tree", "", "Auspice tree JSON output path, annotated with query clade assignments"),
		genes:            cmd.Flags.String("genes", "", "Comma-separated subset of gene names to translate; empty means every gene in the gene map"),
	}
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		return runAnalysis(vcontext.Background(), flags)
	})
	return cmd
}

// defaultPath returns explicit if set, else dir/basename.suffix when dir is
// set, else "" (output not requested).
func defaultPath(explicit, dir, basename, suffix string) string {
	if explicit != "" {
		return explicit
	}
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, basename+suffix)
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func openReader(ctx context.Context, path string) (io.ReadCloser, error) {
	f, err := file.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	return struct {
		io.Reader
		io.Closer
	}{f.Reader(ctx), closerFunc(func() error { return f.Close(ctx) })}, nil
}

func readReferenceFasta(ctx context.Context, path string) ([]byte, error) {
	r, err := openReader(ctx, path)
	if err != nil {
		return nil, errors.Wrapf(err, "open reference %s", path)
	}
	defer r.Close()
	records, err := fasta.ReadAll(fasta.NewReader(r))
	if err != nil {
		return nil, errors.Wrap(err, "parse reference FASTA")
	}
	if len(records) == 0 {
		return nil, errors.New("reference FASTA has no sequence")
	}
	return records[0].Seq, nil
}

func readGeneMap(ctx context.Context, path string) (*genemap.GeneMap, error) {
	r, err := openReader(ctx, path)
	if err != nil {
		return nil, errors.Wrapf(err, "open gene map %s", path)
	}
	defer r.Close()
	return gff.Parse(r)
}

func filterGenes(gm *genemap.GeneMap, names string) *genemap.GeneMap {
	if names == "" {
		return gm
	}
	wanted := make(map[string]bool)
	for _, n := range strings.Split(names, ",") {
		wanted[strings.TrimSpace(n)] = true
	}
	filtered := genemap.New()
	for _, g := range gm.Genes() {
		if wanted[g.Name] {
			filtered.Add(g)
		}
	}
	return filtered
}

func readAuspiceTree(ctx context.Context, path string) (*auspice.Tree, error) {
	r, err := openReader(ctx, path)
	if err != nil {
		return nil, errors.Wrapf(err, "open tree %s", path)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read tree")
	}
	return auspice.Parse(data)
}

func readQCConfig(ctx context.Context, path string) (qc.Config, error) {
	r, err := openReader(ctx, path)
	if err != nil {
		return qc.Config{}, errors.Wrapf(err, "open QC config %s", path)
	}
	defer r.Close()
	var cfg qc.Config
	if err := json.NewDecoder(r).Decode(&cfg); err != nil {
		return qc.Config{}, errors.Wrap(err, "parse QC config")
	}
	return cfg, nil
}

func parsePrimerRange(s string) (seq.Range, error) {
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
	return seq.Range{}, errors.Errorf("malformed primer range %q", s)
}

func readPrimers(ctx context.Context, path string) ([]qc.Primer, error) {
	r, err := openReader(ctx, path)
	if err != nil {
		return nil, errors.Wrapf(err, "open PCR primers %s", path)
	}
	defer r.Close()
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "parse PCR primers")
	}
	var primers []qc.Primer
	for i, row := range rows {
		if i == 0 && len(row) > 0 && row[0] == "name" {
			continue
		}
		if len(row) < 2 {
			continue
		}
		rng, err := parsePrimerRange(row[1])
		if err != nil {
			return nil, errors.Wrapf(err, "PCR primers row %d", i+1)
		}
		primers = append(primers, qc.Primer{Name: row[0], Range: rng})
	}
	return primers, nil
}

// createOutput returns a file.File for an output path, or (nil, nil) if
// path is empty (the output was not requested).
func createOutput(ctx context.Context, path string) (file.File, error) {
	if path == "" {
		return nil, nil
	}
	return file.Create(ctx, path)
}

// nodeAssignments records, under lock, which tree node each analyzed query
// was assigned to, so --output-tree can annotate the reference tree after
// the pipeline finishes (the output filter itself only sees one item at a
// time, in order, but the tree annotation needs every query up front).
type nodeAssignments struct {
	mu     sync.Mutex
	byNode map[int][]string
}

func newNodeAssignments() *nodeAssignments {
	return &nodeAssignments{byNode: make(map[int][]string)}
}

func (n *nodeAssignments) record(name string, result analysis.Result) {
	if !result.HasAssignment {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.byNode[result.NodeID] = append(n.byNode[result.NodeID], name)
}

// writeAnnotatedTree attaches each node's assigned query names under
// node_attrs.assignedQueries and writes the result.
func writeAnnotatedTree(ctx context.Context, path string, auspiceTree *auspice.Tree, assignments *nodeAssignments, arena *arenaIndex) error {
	auspiceTree.Walk(func(n *auspice.Node) {
		id, ok := arena.nodeID(n)
		if !ok {
			return
		}
		names := assignments.byNode[id]
		if len(names) == 0 {
			return
		}
		values := make([]auspice.Value, len(names))
		for i, name := range names {
			values[i] = auspice.String(name)
		}
		n.SetAttribute("assignedQueries", auspice.ArrayOf(values))
	})
	data, err := auspiceTree.Marshal()
	if err != nil {
		return errors.Wrap(err, "marshal annotated tree")
	}
	out, err := file.Create(ctx, path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	if _, err := out.Writer(ctx).Write(data); err != nil {
		out.Close(ctx)
		return err
	}
	return out.Close(ctx)
}

func runAnalysis(ctx context.Context, flags runFlags) error {
	if *flags.inputFasta == "" || *flags.inputRootSeq == "" {
		return errors.New("run: --input-fasta and --input-root-seq are required")
	}

	reference, err := readReferenceFasta(ctx, *flags.inputRootSeq)
	if err != nil {
		return err
	}

	gm := genemap.New()
	if *flags.inputGeneMap != "" {
		parsed, err := readGeneMap(ctx, *flags.inputGeneMap)
		if err != nil {
			return err
		}
		gm = filterGenes(parsed, *flags.genes)
	}

	opts := &analysis.Options{
		Reference:   reference,
		GeneMap:     gm,
		SeedParams:  align.DefaultSeedParams(),
		ScoreParams: align.DefaultScoreParams(),
	}

	var auspiceTree *auspice.Tree
	var arena *arenaIndex
	if *flags.inputTree != "" {
		auspiceTree, err = readAuspiceTree(ctx, *flags.inputTree)
		if err != nil {
			return errors.Wrap(err, "parse tree")
		}
		built, index, err := buildArenaIndexed(auspiceTree)
		if err != nil {
			return errors.Wrap(err, "build tree arena")
		}
		opts.Tree = built
		arena = index
	}

	if *flags.inputQCConfig != "" {
		cfg, err := readQCConfig(ctx, *flags.inputQCConfig)
		if err != nil {
			return err
		}
		opts.QC = cfg
	}

	if *flags.inputPCRPrimers != "" {
		primers, err := readPrimers(ctx, *flags.inputPCRPrimers)
		if err != nil {
			return err
		}
		if len(primers) > 0 {
			if opts.QC.PrimerChanges == nil {
				opts.QC.PrimerChanges = &qc.PrimerChangesConfig{ScoreWeight: 1}
			}
			opts.QC.PrimerChanges.Primers = primers
		}
	}

	inFile, err := file.Open(ctx, *flags.inputFasta)
	if err != nil {
		return errors.Wrapf(err, "open input FASTA %s", *flags.inputFasta)
	}
	defer inFile.Close(ctx)
	stream := fasta.NewReader(inFile.Reader(ctx))

	dir, basename := *flags.outputDir, *flags.outputBasename
	resultCfg := resultio.Config{Reference: reference, GeneMap: gm, GeneFasta: make(map[string]io.Writer)}
	var closers []func() error
	track := func(out file.File) {
		closers = append(closers, func() error { return out.Close(ctx) })
	}

	if out, err := createOutput(ctx, defaultPath(*flags.outputFasta, dir, basename, ".aligned.fasta")); err != nil {
		return errors.Wrap(err, "create output FASTA")
	} else if out != nil {
		resultCfg.AlignedFasta = out.Writer(ctx)
		track(out)
	}
	if out, err := createOutput(ctx, defaultPath(*flags.outputInsertions, dir, basename, ".insertions.csv")); err != nil {
		return errors.Wrap(err, "create output insertions")
	} else if out != nil {
		resultCfg.Insertions = out.Writer(ctx)
		track(out)
	}
	if out, err := createOutput(ctx, defaultPath(*flags.outputErrors, dir, basename, ".errors.csv")); err != nil {
		return errors.Wrap(err, "create output errors")
	} else if out != nil {
		resultCfg.Errors = out.Writer(ctx)
		track(out)
	}
	if out, err := createOutput(ctx, defaultPath(*flags.outputTSV, dir, basename, ".tsv")); err != nil {
		return errors.Wrap(err, "create output TSV")
	} else if out != nil {
		resultCfg.TSV = out.Writer(ctx)
		track(out)
	}
	if out, err := createOutput(ctx, defaultPath(*flags.outputJSON, dir, basename, ".json")); err != nil {
		return errors.Wrap(err, "create output JSON")
	} else if out != nil {
		resultCfg.JSON = out.Writer(ctx)
		track(out)
	}
	if dir != "" {
		for _, gene := range gm.Genes() {
			out, err := file.Create(ctx, filepath.Join(dir, basename+".gene."+gene.Name+".fasta"))
			if err != nil {
				return errors.Wrapf(err, "create gene %q FASTA", gene.Name)
			}
			resultCfg.GeneFasta[gene.Name] = out.Writer(ctx)
			track(out)
		}
	}
	defer func() {
		for _, c := range closers {
			if err := c(); err != nil {
				log.Error.Printf("run: close output: %v", err)
			}
		}
	}()

	writer, err := resultio.NewWriter(resultCfg)
	if err != nil {
		return errors.Wrap(err, "create result writer")
	}

	var assignments *nodeAssignments
	treeOutPath := defaultPath(*flags.outputTree, dir, basename, ".tree.json")
	if treeOutPath != "" && auspiceTree != nil {
		assignments = newNodeAssignments()
	}

	emit := writer.Emit
	if assignments != nil {
		emit = func(out pipeline.Output) error {
			if !out.HasError {
				if result, ok := out.Result.(analysis.Result); ok {
					assignments.record(out.Name, result)
				}
			}
			return writer.Emit(out)
		}
	}

	next := func() (pipeline.Input, bool, error) {
		rec, ok, err := stream.Next()
		if err != nil || !ok {
			return pipeline.Input{}, ok, err
		}
		return pipeline.Input{Index: rec.Index, Name: rec.Name, RawSeq: rec.Seq}, true, nil
	}
	transform := func(in pipeline.Input) (interface{}, []string, error) {
		return analysis.Analyze(in.Name, in.RawSeq, opts)
	}

	if err := pipeline.Run(*flags.jobs, next, transform, emit); err != nil {
		return errors.Wrap(err, "run pipeline")
	}
	if err := writer.Close(); err != nil {
		return err
	}

	if assignments != nil {
		if err := writeAnnotatedTree(ctx, treeOutPath, auspiceTree, assignments, arena); err != nil {
			return errors.Wrap(err, "write annotated tree")
		}
	}
	return nil
}

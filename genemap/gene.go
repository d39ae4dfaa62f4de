// Package genemap holds the ordered name -> Gene map that encoding/gff
// builds from the GFF-subset gene annotation format described in §6 of the
// specification.
package genemap

import "github.com/pkg/errors"

// Strand is the reading strand of a gene.
type Strand byte

const (
	Forward Strand = '+'
	Reverse Strand = '-'
)

// Gene describes one annotated coding region. Start/End are 0-based
// half-open reference coordinates; Frame is 0-based {0,1,2}.
type Gene struct {
	Name   string
	Start  int
	End    int
	Strand Strand
	Frame  int
}

// Length returns End - Start.
func (g Gene) Length() int { return g.End - g.Start }

// Validate checks the invariants from §3: End > Start.  A CDS length that
// is not a multiple of 3 is not rejected here -- §3 explicitly allows
// translation to proceed (it will emit frame shifts); it is surfaced as a
// Gene.WellFormed() helper instead so callers can warn without failing.
func (g Gene) Validate() error {
	if g.End <= g.Start {
		return errors.Errorf("genemap: gene %q has end %d <= start %d", g.Name, g.End, g.Start)
	}
	if g.Frame < 0 || g.Frame > 2 {
		return errors.Errorf("genemap: gene %q has invalid frame %d", g.Name, g.Frame)
	}
	return nil
}

// WellFormed reports whether the gene's length is divisible by 3, i.e.
// whether it describes a complete run of codons.
func (g Gene) WellFormed() bool { return g.Length()%3 == 0 }

// GeneMap is an ordered mapping from gene name to Gene; iteration order is
// the order genes first appeared in the source file.
type GeneMap struct {
	names []string
	genes map[string]Gene
}

// New returns an empty GeneMap.
func New() *GeneMap {
	return &GeneMap{genes: make(map[string]Gene)}
}

// Add inserts or replaces the gene entry named g.Name, preserving first-seen
// order.
func (m *GeneMap) Add(g Gene) {
	if _, ok := m.genes[g.Name]; !ok {
		m.names = append(m.names, g.Name)
	}
	m.genes[g.Name] = g
}

// Get returns the gene named name, and whether it was present.
func (m *GeneMap) Get(name string) (Gene, bool) {
	g, ok := m.genes[name]
	return g, ok
}

// Names returns gene names in stable, first-seen order.
func (m *GeneMap) Names() []string {
	return append([]string(nil), m.names...)
}

// Genes returns the genes themselves in Names() order.
func (m *GeneMap) Genes() []Gene {
	out := make([]Gene, 0, len(m.names))
	for _, n := range m.names {
		out = append(out, m.genes[n])
	}
	return out
}

// Len returns the number of genes in the map.
func (m *GeneMap) Len() int { return len(m.names) }

package dataset

import (
	"context"
	"encoding/gob"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/gogo/protobuf/proto"
	"github.com/golang/snappy"
	"github.com/grailbio/base/log"
	"github.com/pkg/errors"

	"github.com/grailbio/nextclade-go/biopb"
	"github.com/grailbio/nextclade-go/genemap"
	"github.com/grailbio/nextclade-go/tree"
)

// geneMapCacheRecord is the gob-encoded payload stored under each cache
// entry: the gene map flattened to a plain slice, since genemap.GeneMap
// keeps its ordering in unexported fields that gob cannot see.
type geneMapCacheRecord struct {
	Genes []genemap.Gene
}

// cacheFileName derives the on-disk cache file for a dataset tag (§12
// "Dataset tag metadata... keyed by dataset tag"): the tag date plus the
// reference accession is specific enough to invalidate the cache whenever
// either changes.
func cacheFileName(tag Tag) string {
	return tag.Name + "_" + tag.ReferenceAccession + "_" + tag.TagDate + ".genemap.snappy"
}

// LoadGeneMapCache reads a cached gene map for tag from dir, if present.
// A missing or unreadable cache entry is not an error: the caller falls
// back to re-parsing genemap.gff from the bundle.
func LoadGeneMapCache(dir string, tag Tag) (*genemap.GeneMap, bool) {
	path := filepath.Join(dir, cacheFileName(tag))
	f, err := os.Open(path)
	if err != nil {
		return nil, false
	}
	defer f.Close()

	var rec geneMapCacheRecord
	if err := gob.NewDecoder(snappy.NewReader(f)).Decode(&rec); err != nil {
		log.Error.Printf("dataset: discarding unreadable gene map cache %s: %v", path, err)
		return nil, false
	}

	gm := genemap.New()
	for _, g := range rec.Genes {
		gm.Add(g)
	}
	return gm, true
}

// StoreGeneMapCache persists gm under dir, snappy-compressed, keyed by tag
// (§11 "github.com/golang/snappy ... dataset package: snappy-compressed
// on-disk cache of parsed gene maps, keyed by dataset tag").
func StoreGeneMapCache(ctx context.Context, dir string, tag Tag, gm *genemap.GeneMap) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "dataset: create gene map cache dir")
	}
	path := filepath.Join(dir, cacheFileName(tag))
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "dataset: create gene map cache %s", path)
	}

	w := snappy.NewBufferedWriter(f)
	rec := geneMapCacheRecord{Genes: gm.Genes()}
	if err := gob.NewEncoder(w).Encode(rec); err != nil {
		w.Close()
		f.Close()
		return errors.Wrap(err, "dataset: encode gene map cache")
	}
	if err := w.Close(); err != nil {
		f.Close()
		return errors.Wrap(err, "dataset: flush gene map cache")
	}
	return f.Close()
}

// treeCacheFileName derives the on-disk cache file for a dataset tag's
// preprocessed clade-assignment tree, distinct from the gene map cache since
// either may be present without the other.
func treeCacheFileName(tag Tag) string {
	return tag.Name + "_" + tag.ReferenceAccession + "_" + tag.TagDate + ".arena.pb.snappy"
}

// LoadTreeCache reads a cached, preprocessed tree.Arena for tag from dir, if
// present, verifying it against referenceChecksum (analysis.Checksum of the
// dataset's parsed reference sequence) before trusting it: a cache built against a
// different reference would otherwise silently mis-assign every query.
func LoadTreeCache(dir string, tag Tag, referenceChecksum uint64) (*tree.Arena, bool) {
	path := filepath.Join(dir, treeCacheFileName(tag))
	f, err := os.Open(path)
	if err != nil {
		return nil, false
	}
	defer f.Close()

	data, err := ioutil.ReadAll(snappy.NewReader(f))
	if err != nil {
		log.Error.Printf("dataset: discarding unreadable tree cache %s: %v", path, err)
		return nil, false
	}
	var cached biopb.CachedArena
	if err := proto.Unmarshal(data, &cached); err != nil {
		log.Error.Printf("dataset: discarding corrupt tree cache %s: %v", path, err)
		return nil, false
	}
	if cached.ReferenceChecksum != referenceChecksum {
		log.Error.Printf("dataset: discarding stale tree cache %s: reference checksum mismatch", path)
		return nil, false
	}
	return tree.FromCached(&cached), true
}

// StoreTreeCache persists a.Preprocess()'d arena under dir, protobuf-encoded
// and snappy-compressed, keyed by tag and pinned to referenceChecksum.
func StoreTreeCache(ctx context.Context, dir string, tag Tag, a *tree.Arena, referenceChecksum uint64) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "dataset: create tree cache dir")
	}
	path := filepath.Join(dir, treeCacheFileName(tag))
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "dataset: create tree cache %s", path)
	}

	data, err := proto.Marshal(tree.ToCached(a, referenceChecksum))
	if err != nil {
		f.Close()
		return errors.Wrap(err, "dataset: encode tree cache")
	}
	w := snappy.NewBufferedWriter(f)
	if _, err := w.Write(data); err != nil {
		w.Close()
		f.Close()
		return errors.Wrap(err, "dataset: write tree cache")
	}
	if err := w.Close(); err != nil {
		f.Close()
		return errors.Wrap(err, "dataset: flush tree cache")
	}
	return f.Close()
}

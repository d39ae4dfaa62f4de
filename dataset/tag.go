// Package dataset implements the dataset-download subsystem named as an
// external collaborator in §1/§6: fetching a reference bundle (a reference
// sequence, gene map, tree, QC config, PCR primers and a tag) from a
// configurable index, and caching parsed artifacts on disk between runs.
//
// This package is deliberately thin (§1: "thin wrappers around the core"),
// but still carries the teacher's ambient stack per SPEC_FULL §10/§13: the
// same error-wrapping and logging conventions as the core packages, not a
// bare os/http rewrite.
package dataset

import (
	"encoding/json"
	"io"

	"github.com/pkg/errors"
)

// Tag is the per-dataset metadata file (§6 "tag.json", §12 "Dataset tag
// metadata"): enough to decide whether a local bundle copy is stale
// relative to the index without re-downloading the whole bundle.
type Tag struct {
	SchemaVersion      string `json:"schemaVersion"`
	Name               string `json:"name"`
	ReferenceAccession string `json:"referenceAccession"`
	TagDate            string `json:"tag"`
}

// ReadTag decodes a tag.json document.
func ReadTag(r io.Reader) (Tag, error) {
	var t Tag
	if err := json.NewDecoder(r).Decode(&t); err != nil {
		return Tag{}, errors.Wrap(err, "dataset: decode tag.json")
	}
	return t, nil
}

// WriteTag encodes a tag.json document.
func WriteTag(w io.Writer, t Tag) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(t); err != nil {
		return errors.Wrap(err, "dataset: encode tag.json")
	}
	return nil
}

// IsStale reports whether local (the tag read from an on-disk bundle) is
// older than remote (the tag the index currently advertises for the same
// dataset name), per §12's "decide whether a local copy is stale".
func (local Tag) IsStale(remote Tag) bool {
	return local.Name != remote.Name || local.TagDate < remote.TagDate
}

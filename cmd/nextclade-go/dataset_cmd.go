package main

import (
	"context"
	"fmt"

	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/vcontext"
	"github.com/pkg/errors"
	"v.io/x/lib/cmdline"

	"github.com/grailbio/nextclade-go/analysis"
	"github.com/grailbio/nextclade-go/dataset"
	"github.com/grailbio/nextclade-go/encoding/auspice"
)

func newCmdDataset() *cmdline.Command {
	return &cmdline.Command{
		Name:     "dataset",
		Short:    "List and download reference datasets",
		Children: []*cmdline.Command{newCmdDatasetList(), newCmdDatasetGet()},
	}
}

func newCmdDatasetList() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:  "list",
		Short: "List datasets advertised by a dataset index",
	}
	baseURL := cmd.Flags.String("server", "", "Dataset index base URL (http(s):// or s3://), required")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		return datasetList(vcontext.Background(), *baseURL)
	})
	return cmd
}

func datasetList(ctx context.Context, baseURL string) error {
	if baseURL == "" {
		return errors.New("dataset list: --server is required")
	}
	entries, err := dataset.FetchIndex(ctx, baseURL)
	if err != nil {
		return err
	}
	for _, e := range entries {
		fmt.Printf("%s\t%s\t%s\n", e.Name, e.Tag.ReferenceAccession, e.Tag.TagDate)
	}
	return nil
}

func newCmdDatasetGet() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "get",
		Short:    "Download one dataset's bundle into a local directory",
		ArgsName: "name",
	}
	baseURL := cmd.Flags.String("server", "", "Dataset index base URL (http(s):// or s3://), required")
	outputDir := cmd.Flags.String("output-dir", "", "Local directory to write the bundle into, required")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return errors.Errorf("dataset get takes one dataset name argument, got %v", argv)
		}
		return datasetGet(vcontext.Background(), *baseURL, argv[0], *outputDir)
	})
	return cmd
}

func datasetGet(ctx context.Context, baseURL, name, outputDir string) error {
	if baseURL == "" || outputDir == "" {
		return errors.New("dataset get: --server and --output-dir are required")
	}
	bundle, raw, err := dataset.FetchBundle(ctx, baseURL+"/"+name)
	if err != nil {
		return errors.Wrapf(err, "dataset get: fetch %s", name)
	}
	if err := dataset.WriteBundle(ctx, outputDir, raw); err != nil {
		return errors.Wrap(err, "dataset get: write bundle")
	}
	if bundle.GeneMap != nil {
		if err := dataset.StoreGeneMapCache(ctx, outputDir, bundle.Tag, bundle.GeneMap); err != nil {
			return errors.Wrap(err, "dataset get: cache gene map")
		}
	}
	if len(bundle.TreeJSON) > 0 {
		auspiceTree, err := auspice.Parse(bundle.TreeJSON)
		if err != nil {
			return errors.Wrap(err, "dataset get: parse tree.json")
		}
		arena, _, err := buildArenaIndexed(auspiceTree)
		if err != nil {
			return errors.Wrap(err, "dataset get: build tree arena")
		}
		checksum := analysis.Checksum(bundle.Reference)
		if err := dataset.StoreTreeCache(ctx, outputDir, bundle.Tag, arena, checksum); err != nil {
			return errors.Wrap(err, "dataset get: cache tree arena")
		}
	}
	return nil
}

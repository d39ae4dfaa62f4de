package dataset

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/pkg/errors"
)

// IndexEntry describes one dataset the index advertises (§6 "dataset
// list").
type IndexEntry struct {
	Name string `json:"name"`
	Tag  Tag    `json:"tag"`
}

// indexFileName is the file the index lives at under a base URL, mirroring
// the flat per-dataset layout of the bundle files themselves (§6).
const indexFileName = "index.json"

// open returns a ReadCloser over baseURL+"/"+name: an S3 GetObject when
// baseURL has an s3:// scheme (grounded on
// grailbio-bio/encoding/bamprovider/provider_test.go's aws-sdk-go session
// wiring), otherwise a plain HTTP GET (§1 "HTTP fetches of reference
// bundles").
func open(ctx context.Context, baseURL, name string) (io.ReadCloser, error) {
	url := strings.TrimRight(baseURL, "/") + "/" + name
	if strings.HasPrefix(baseURL, "s3://") {
		return openS3(ctx, url)
	}
	return openHTTP(ctx, url)
}

func openHTTP(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "dataset: build request for %s", url)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "dataset: fetch %s", url)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, errors.Errorf("dataset: fetch %s: HTTP %d", url, resp.StatusCode)
	}
	return resp.Body, nil
}

// parseS3URL splits "s3://bucket/key..." into (bucket, key).
func parseS3URL(url string) (bucket, key string, err error) {
	trimmed := strings.TrimPrefix(url, "s3://")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", errors.Errorf("dataset: malformed s3 URL %q", url)
	}
	return parts[0], parts[1], nil
}

func openS3(ctx context.Context, url string) (io.ReadCloser, error) {
	bucket, key, err := parseS3URL(url)
	if err != nil {
		return nil, err
	}
	sess, err := session.NewSession(aws.NewConfig())
	if err != nil {
		return nil, errors.Wrap(err, "dataset: create AWS session")
	}
	out, err := s3.New(sess).GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "dataset: s3 GetObject %s", url)
	}
	return out.Body, nil
}

// downloadToBuffer fetches one object fully into memory; every bundle member
// (reference FASTA, gene map, tree JSON, primers, QC config, tag) is small
// enough that streaming it would add complexity with no benefit.
func downloadToBuffer(ctx context.Context, baseURL, name string) ([]byte, error) {
	rc, err := open(ctx, baseURL, name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// FetchIndex retrieves and parses the dataset index (§6 "dataset list").
func FetchIndex(ctx context.Context, baseURL string) ([]IndexEntry, error) {
	data, err := downloadToBuffer(ctx, baseURL, indexFileName)
	if err != nil {
		return nil, errors.Wrap(err, "dataset: fetch index")
	}
	var entries []IndexEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, errors.Wrap(err, "dataset: parse index.json")
	}
	return entries, nil
}

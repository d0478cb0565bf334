// Package publish uploads build output to an S3 bucket.
package publish

import (
	"context"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/modkit-dev/modkit/internal/config"
	"github.com/modkit-dev/modkit/internal/xerrors"
)

// ObjectPutter is the part of the S3 client the publisher needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Publisher uploads a directory tree of built assets to S3.
type Publisher struct {
	client ObjectPutter
	bucket string
	prefix string

	// Logf receives one line per uploaded object. Optional.
	Logf func(format string, args ...any)
}

// NewPublisher creates a publisher for the given bucket and key prefix.
func NewPublisher(client ObjectPutter, bucket, prefix string) *Publisher {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &Publisher{
		client: client,
		bucket: bucket,
		prefix: prefix,
	}
}

// NewFromConfig builds a publisher from the project's deploy settings,
// resolving AWS credentials from the default chain.
func NewFromConfig(ctx context.Context, cfg *config.Config) (*Publisher, error) {
	if cfg.Deploy.Bucket == "" {
		return nil, xerrors.New("M300").
			WithSuggestion("Add a deploy.bucket entry to modkit.json")
	}

	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Deploy.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Deploy.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return NewPublisher(s3.NewFromConfig(awsCfg), cfg.Deploy.Bucket, cfg.Deploy.Prefix), nil
}

// Publish uploads every file under dir, keyed by its slash-normalized
// path relative to dir. Returns the number of uploaded objects.
func (p *Publisher) Publish(ctx context.Context, dir string) (int, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("walk %s: %w", dir, err)
	}
	sort.Strings(paths)

	uploaded := 0
	for _, path := range paths {
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return uploaded, err
		}
		key := p.prefix + filepath.ToSlash(rel)

		f, err := os.Open(path)
		if err != nil {
			return uploaded, err
		}
		_, err = p.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(p.bucket),
			Key:         aws.String(key),
			Body:        f,
			ContentType: aws.String(ContentTypeFor(path)),
		})
		f.Close()
		if err != nil {
			return uploaded, fmt.Errorf("upload %s: %w", key, err)
		}
		uploaded++

		if p.Logf != nil {
			p.Logf("Uploaded s3://%s/%s", p.bucket, key)
		}
	}

	return uploaded, nil
}

// ContentTypeFor returns the MIME type to upload a file with. The web
// asset types are pinned so serving does not depend on the host's mime
// database.
func ContentTypeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html":
		return "text/html; charset=utf-8"
	case ".js", ".mjs":
		return "application/javascript; charset=utf-8"
	case ".css":
		return "text/css; charset=utf-8"
	case ".json":
		return "application/json"
	case ".svg":
		return "image/svg+xml"
	case ".wasm":
		return "application/wasm"
	}
	if t := mime.TypeByExtension(filepath.Ext(path)); t != "" {
		return t
	}
	return "application/octet-stream"
}

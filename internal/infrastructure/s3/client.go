package s3infra

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/turo-backend/internal/config"
	"github.com/turo-backend/internal/domain"
	"github.com/turo-backend/internal/pkg/token"
	"golang.org/x/sync/errgroup"
)

// tokenMetadataKey is the object metadata entry holding the download token.
const tokenMetadataKey = "download-token"

// deleteConcurrency bounds the per-prefix deletion fan-out.
const deleteConcurrency = 8

// objectAPI is the subset of the S3 client the store calls directly.
type objectAPI interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// Store wraps S3 operations for the application.
type Store struct {
	client        objectAPI
	uploader      *manager.Uploader
	bucket        string
	publicBaseURL string
}

// NewClient creates an S3 client. When cfg.AWSEndpointURL is set (LocalStack),
// it overrides the endpoint and enables path-style addressing.
func NewClient(awsCfg aws.Config, cfg *config.Config) *s3.Client {
	clientOpts := []func(*s3.Options){}
	if cfg.AWSEndpointURL != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.AWSEndpointURL)
			o.UsePathStyle = true
		})
	}
	return s3.NewFromConfig(awsCfg, clientOpts...)
}

// NewStore creates a Store for bucket. Public URLs are rooted at publicBaseURL.
func NewStore(client *s3.Client, bucket, publicBaseURL string) *Store {
	return &Store{
		client:        client,
		uploader:      manager.NewUploader(client),
		bucket:        bucket,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

// Upload stores data under key with a fresh download token and returns the
// public-read URL embedding that token.
func (s *Store) Upload(ctx context.Context, key string, data io.Reader, contentType string) (string, error) {
	tok := token.NewDownloadToken()
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        data,
		ContentType: aws.String(contentType),
		Metadata:    map[string]string{tokenMetadataKey: tok},
	})
	if err != nil {
		return "", fmt.Errorf("s3 upload %s: %w", key, err)
	}
	return PublicURL(s.publicBaseURL, key, tok), nil
}

// PublicURL builds the token-bearing download URL for key.
func PublicURL(baseURL, key, tok string) string {
	return fmt.Sprintf("%s/v1/blobs/o/%s?alt=media&token=%s",
		baseURL, url.PathEscape(key), url.QueryEscape(tok))
}

// Object is an opened blob. Callers must close Body.
type Object struct {
	Body          io.ReadCloser
	ContentType   string
	ContentLength int64
}

// Open returns the object at key when tok matches its download token.
// A missing object yields domain.ErrNotFound; a wrong token domain.ErrForbidden.
func (s *Store) Open(ctx context.Context, key, tok string) (*Object, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("s3 get object: %w", err)
	}
	if tok == "" || out.Metadata[tokenMetadataKey] != tok {
		out.Body.Close()
		return nil, domain.ErrForbidden
	}
	return &Object{
		Body:          out.Body,
		ContentType:   aws.ToString(out.ContentType),
		ContentLength: aws.ToInt64(out.ContentLength),
	}, nil
}

// DeleteReport partitions a prefix deletion into succeeded and failed keys.
type DeleteReport struct {
	Deleted []string
	Failed  map[string]error
}

// DeletePrefix lists every object under prefix and deletes them in parallel.
// Individual failures are collected in the report rather than returned; the
// error is non-nil only when the listing itself fails.
func (s *Store) DeletePrefix(ctx context.Context, prefix string) (*DeleteReport, error) {
	keys, err := s.list(ctx, prefix)
	if err != nil {
		return nil, err
	}

	report := &DeleteReport{Failed: map[string]error{}}
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(deleteConcurrency)
	for _, key := range keys {
		g.Go(func() error {
			err := s.Delete(gctx, key)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Failed[key] = err
				return nil
			}
			report.Deleted = append(report.Deleted, key)
			return nil
		})
	}
	_ = g.Wait()

	if len(report.Failed) > 0 {
		slog.Warn("some blobs could not be deleted", "prefix", prefix,
			"deleted", len(report.Deleted), "failed", len(report.Failed))
	}
	return report, nil
}

func (s *Store) list(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	p := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("s3 list %s: %w", prefix, err)
		}
		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
	}
	return keys, nil
}

// Delete removes a file from S3.
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	return err
}

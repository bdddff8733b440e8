package s3infra

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turo-backend/internal/domain"
)

func TestPublicURL_EscapesPath(t *testing.T) {
	got := PublicURL("https://api.example.com", "users/u1/selfie/me photo.jpg", "tok-123")
	assert.Equal(t, "https://api.example.com/v1/blobs/o/users%2Fu1%2Fselfie%2Fme%20photo.jpg?alt=media&token=tok-123", got)
}

func TestNewStore_TrimsTrailingSlash(t *testing.T) {
	s := NewStore(nil, "bucket", "http://localhost:3000/")
	assert.Equal(t, "http://localhost:3000", s.publicBaseURL)
}

type fakeS3 struct {
	mu      sync.Mutex
	objects map[string]map[string]string // key -> metadata
	failDel map[string]bool
	deleted []string
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	md, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(strings.NewReader("payload")),
		Metadata:      md,
		ContentType:   aws.String("image/jpeg"),
		ContentLength: aws.Int64(7),
	}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	key := aws.ToString(in.Key)
	if f.failDel[key] {
		return nil, errors.New("access denied")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, key)
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	var contents []types.Object
	for key := range f.objects {
		if strings.HasPrefix(key, aws.ToString(in.Prefix)) {
			contents = append(contents, types.Object{Key: aws.String(key)})
		}
	}
	return &s3.ListObjectsV2Output{Contents: contents, IsTruncated: aws.Bool(false)}, nil
}

func TestDeletePrefix_PartialFailureStillDeletesOthers(t *testing.T) {
	fake := &fakeS3{
		objects: map[string]map[string]string{
			"users/u1/selfie/a.jpg":          nil,
			"users/u1/id_verification/b.png": nil,
			"users/u1/credentials/c.pdf":     nil,
			"users/u2/selfie/z.jpg":          nil,
		},
		failDel: map[string]bool{"users/u1/id_verification/b.png": true},
	}
	s := &Store{client: fake, bucket: "b"}

	report, err := s.DeletePrefix(context.Background(), "users/u1/")
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"users/u1/selfie/a.jpg", "users/u1/credentials/c.pdf"}, report.Deleted)
	assert.Len(t, report.Failed, 1)
	assert.Contains(t, report.Failed, "users/u1/id_verification/b.png")
	assert.NotContains(t, fake.deleted, "users/u2/selfie/z.jpg")
}

func TestDeletePrefix_Empty(t *testing.T) {
	s := &Store{client: &fakeS3{objects: map[string]map[string]string{}}, bucket: "b"}
	report, err := s.DeletePrefix(context.Background(), "users/none/")
	require.NoError(t, err)
	assert.Empty(t, report.Deleted)
	assert.Empty(t, report.Failed)
}

func TestOpen_TokenGate(t *testing.T) {
	fake := &fakeS3{objects: map[string]map[string]string{
		"users/u1/selfie/a.jpg": {tokenMetadataKey: "tok-1"},
	}}
	s := &Store{client: fake, bucket: "b"}
	ctx := context.Background()

	obj, err := s.Open(ctx, "users/u1/selfie/a.jpg", "tok-1")
	require.NoError(t, err)
	defer obj.Body.Close()
	assert.Equal(t, "image/jpeg", obj.ContentType)
	assert.Equal(t, int64(7), obj.ContentLength)

	_, err = s.Open(ctx, "users/u1/selfie/a.jpg", "wrong")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = s.Open(ctx, "users/u1/selfie/a.jpg", "")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = s.Open(ctx, "users/u1/missing.jpg", "tok-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

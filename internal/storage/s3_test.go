package storage

import (
	"context"
	"errors"
	"io"
	"regexp"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/require"
)

type fakePutter struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakePutter) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = params
	if params.Body != nil {
		f.body, _ = io.ReadAll(params.Body)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestPutResume(t *testing.T) {
	putter := &fakePutter{}
	store := newS3Store(putter, "resumes-bucket")
	store.now = func() time.Time { return time.Date(2025, 3, 9, 10, 0, 0, 0, time.UTC) }

	key, err := store.PutResume(context.Background(), "user-1", "Ann Résumé.pdf", []byte("%PDF-1.7"))
	require.NoError(t, err)
	require.Regexp(t, regexp.MustCompile(`^resumes/user-1/2025/03/[0-9a-f-]{36}\.pdf$`), key)

	require.Equal(t, "resumes-bucket", aws.ToString(putter.input.Bucket))
	require.Equal(t, key, aws.ToString(putter.input.Key))
	require.Equal(t, "application/pdf", aws.ToString(putter.input.ContentType))
	require.Equal(t, int64(8), aws.ToInt64(putter.input.ContentLength))
	require.Equal(t, "Ann Rsum.pdf", putter.input.Metadata["original-name"])
	require.Equal(t, []byte("%PDF-1.7"), putter.body)
}

func TestPutResumeError(t *testing.T) {
	store := newS3Store(&fakePutter{err: errors.New("access denied")}, "bucket")

	_, err := store.PutResume(context.Background(), "user-1", "cv.pdf", []byte("x"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "access denied")
}

func TestNewS3StoreRequiresBucket(t *testing.T) {
	_, err := NewS3Store(context.Background(), S3Config{})
	require.Error(t, err)
}

package media

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"app/internal/model"
)

type fakePresigner struct {
	err error
}

func (f *fakePresigner) PresignGetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &v4.PresignedHTTPRequest{
		URL: "https://signed.example/" + aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key),
	}, nil
}

func TestParseS3URL(t *testing.T) {
	bucket, key, ok := ParseS3URL("s3://assets/u1/a.jpg")
	require.True(t, ok)
	assert.Equal(t, "assets", bucket)
	assert.Equal(t, "u1/a.jpg", key)

	for _, url := range []string{"https://cdn.example/a.jpg", "a.jpg", "s3://", "s3://bucket-only", "s3://bucket/"} {
		_, _, ok := ParseS3URL(url)
		assert.False(t, ok, url)
	}
}

func TestResolveRewritesOnlyS3URLs(t *testing.T) {
	r := NewResolver(&fakePresigner{}, time.Hour)
	job := model.PlatformJob{
		Payload: model.JobPayload{
			Content: &model.JobContent{
				MediaURLs: []string{"s3://assets/a.jpg", "https://cdn.example/b.jpg"},
			},
		},
	}

	require.NoError(t, r.Resolve(context.Background(), &job))

	assert.Equal(t, "https://signed.example/assets/a.jpg", job.Payload.Content.MediaURLs[0])
	assert.Equal(t, "https://cdn.example/b.jpg", job.Payload.Content.MediaURLs[1])
}

func TestResolveNoContentIsNoop(t *testing.T) {
	r := NewResolver(&fakePresigner{}, time.Hour)
	job := model.PlatformJob{}
	assert.NoError(t, r.Resolve(context.Background(), &job))
}

func TestResolvePresignFailure(t *testing.T) {
	r := NewResolver(&fakePresigner{err: errors.New("no credentials")}, time.Hour)
	job := model.PlatformJob{
		Payload: model.JobPayload{
			Content: &model.JobContent{MediaURLs: []string{"s3://assets/a.jpg"}},
		},
	}

	err := r.Resolve(context.Background(), &job)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "s3://assets/a.jpg")
}

// Package media rewrites private s3:// asset references into URLs the
// automation engine can fetch directly.
package media

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"app/internal/model"
)

type presignAPI interface {
	PresignGetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// Resolver presigns GET URLs for s3:// media references. Plain HTTP(S)
// URLs and bare file paths pass through untouched.
type Resolver struct {
	presigner presignAPI
	expiry    time.Duration
}

func NewResolver(presigner presignAPI, expiry time.Duration) *Resolver {
	return &Resolver{presigner: presigner, expiry: expiry}
}

// Resolve rewrites the job's media URLs in place. A presign failure is an
// error: the engine cannot fetch a private object by its s3:// name.
func (r *Resolver) Resolve(ctx context.Context, job *model.PlatformJob) error {
	if job.Payload.Content == nil {
		return nil
	}
	for i, url := range job.Payload.Content.MediaURLs {
		bucket, key, ok := ParseS3URL(url)
		if !ok {
			continue
		}
		req, err := r.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		}, s3.WithPresignExpires(r.expiry))
		if err != nil {
			return fmt.Errorf("presigning %s: %w", url, err)
		}
		job.Payload.Content.MediaURLs[i] = req.URL
	}
	return nil
}

// ParseS3URL splits an s3://bucket/key URL into its parts. ok is false
// for anything that is not an s3 URL with both bucket and key.
func ParseS3URL(url string) (bucket, key string, ok bool) {
	rest, found := strings.CutPrefix(url, "s3://")
	if !found {
		return "", "", false
	}
	bucket, key, found = strings.Cut(rest, "/")
	if !found || bucket == "" || key == "" {
		return "", "", false
	}
	return bucket, key, true
}

package delivery

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"go.uber.org/zap"
)

// Uploader is the part of s3manager.Uploader the sink uses.
type Uploader interface {
	UploadWithContext(ctx aws.Context, input *s3manager.UploadInput, opts ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error)
}

// S3Sink uploads artifacts to a bucket under a key prefix.
type S3Sink struct {
	bucket   string
	prefix   string
	uploader Uploader
	log      *zap.Logger
}

// NewS3Sink parses target ("s3://bucket/prefix") and builds an uploader
// from the default AWS credential chain.
func NewS3Sink(target, region string, log *zap.Logger) (*S3Sink, error) {
	bucket, prefix, err := parseS3Target(target)
	if err != nil {
		return nil, err
	}
	sess, err := session.NewSession(&aws.Config{Region: aws.String(region)})
	if err != nil {
		return nil, fmt.Errorf("aws session: %w", err)
	}
	return NewS3SinkWithUploader(bucket, prefix, s3manager.NewUploader(sess), log), nil
}

func NewS3SinkWithUploader(bucket, prefix string, uploader Uploader, log *zap.Logger) *S3Sink {
	if log == nil {
		log = zap.NewNop()
	}
	return &S3Sink{
		bucket:   bucket,
		prefix:   strings.Trim(prefix, "/"),
		uploader: uploader,
		log:      log.Named("delivery.s3"),
	}
}

func (s *S3Sink) Deliver(ctx context.Context, a Artifact) (string, error) {
	if err := checkFilename(a.Filename); err != nil {
		return "", err
	}
	key := path.Join(s.prefix, a.Filename)
	input := &s3manager.UploadInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(a.Body),
	}
	if a.ContentType != "" {
		input.ContentType = aws.String(a.ContentType)
	}
	if _, err := s.uploader.UploadWithContext(ctx, input); err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	location := "s3://" + s.bucket + "/" + key
	s.log.Debug("artifact uploaded", zap.String("location", location))
	return location, nil
}

func parseS3Target(target string) (string, string, error) {
	u, err := url.Parse(target)
	if err != nil || u.Scheme != "s3" || u.Host == "" {
		return "", "", fmt.Errorf("invalid s3 target %q", target)
	}
	return u.Host, u.Path, nil
}

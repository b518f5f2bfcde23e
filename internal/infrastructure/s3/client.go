package s3infra

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/fairdatause/qualify-api/internal/config"
	awsinfra "github.com/fairdatause/qualify-api/internal/infrastructure/aws"
	"github.com/fairdatause/qualify-api/internal/pkg/id"
	json "github.com/goccy/go-json"
)

type putter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Archive keeps a raw copy of each qualification submission for audit.
type Archive struct {
	client putter
	bucket string
	now    func() time.Time
}

// NewClient creates an S3 client. When cfg.AWSEndpointURL is set (LocalStack),
// it overrides the endpoint and enables path-style addressing.
func NewClient(ctx context.Context, cfg *config.Config) (*s3.Client, error) {
	awsCfg, err := awsinfra.LoadConfig(ctx, cfg, cfg.AWSRegion)
	if err != nil {
		return nil, err
	}

	clientOpts := []func(*s3.Options){}
	if cfg.AWSEndpointURL != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.AWSEndpointURL)
			o.UsePathStyle = true
		})
	}
	return s3.NewFromConfig(awsCfg, clientOpts...), nil
}

func NewArchive(client putter, bucket string) *Archive {
	return &Archive{client: client, bucket: bucket, now: time.Now}
}

// Store writes v as JSON under submissions/YYYY/MM/DD/<ulid>.json and
// returns the object URL.
func (a *Archive) Store(ctx context.Context, v interface{}) (string, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode submission: %w", err)
	}
	key := fmt.Sprintf("submissions/%s/%s.json", a.now().UTC().Format("2006/01/02"), id.New())
	return a.upload(ctx, key, bytes.NewReader(body), "application/json")
}

func (a *Archive) upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error) {
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        r,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("s3 put object: %w", err)
	}
	return fmt.Sprintf("s3://%s/%s", a.bucket, key), nil
}

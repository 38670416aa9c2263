package s3infra

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/promo-claim/internal/application/claim"
	"github.com/promo-claim/internal/config"
	"github.com/promo-claim/internal/domain"
	"github.com/promo-claim/internal/infrastructure/awsutil"
	"github.com/promo-claim/internal/pkg/id"
)

// PutObjectAPI is the subset of the S3 client Store needs.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Store uploads voucher photos straight to a bucket. It satisfies
// claim.Uploader as an alternative to the HTTP storage endpoint.
type Store struct {
	client        PutObjectAPI
	bucket        string
	publicBaseURL string
}

var _ claim.Uploader = (*Store)(nil)

// NewClient creates an S3 client. When cfg.AWSEndpointURL is set (LocalStack),
// it overrides the endpoint and enables path-style addressing.
func NewClient(ctx context.Context, cfg *config.Config) (*s3.Client, error) {
	awsCfg, err := awsutil.Load(ctx, cfg, cfg.AWSRegion)
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

// NewStore creates a Store. publicBaseURL prefixes object keys in returned
// URLs; when empty an s3:// URL is returned.
func NewStore(client PutObjectAPI, bucket, publicBaseURL string) *Store {
	return &Store{client: client, bucket: bucket, publicBaseURL: strings.TrimRight(publicBaseURL, "/")}
}

// Upload writes the photo under vouchers/<ulid><ext> and returns its URL.
func (s *Store) Upload(ctx context.Context, p *domain.Photo) (string, error) {
	key := objectKey(p.MediaType)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(p.Data),
		ContentType:   aws.String(p.MediaType),
		ContentLength: aws.Int64(p.Size()),
	})
	if err != nil {
		return "", &claim.UploadError{Err: fmt.Errorf("s3 put object: %w", err)}
	}
	if s.publicBaseURL != "" {
		return s.publicBaseURL + "/" + key, nil
	}
	return fmt.Sprintf("s3://%s/%s", s.bucket, key), nil
}

func objectKey(mediaType string) string {
	ext := ".bin"
	switch strings.ToLower(mediaType) {
	case "image/jpeg", "image/jpg":
		ext = ".jpg"
	case "image/png":
		ext = ".png"
	case "image/webp":
		ext = ".webp"
	default:
		if exts, _ := mime.ExtensionsByType(mediaType); len(exts) > 0 {
			ext = exts[0]
		}
	}
	return "vouchers/" + id.New() + ext
}

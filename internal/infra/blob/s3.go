package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	appcfg "github.com/engunity-ai/engunity/internal/config"
)

// UploadMeta describes an object after a successful upload.
type UploadMeta struct {
	Bucket string
	Key    string
	URL    string
	ETag   string
	SizeB  int64
}

// Store is the object storage contract consumed by the services. S3Deps is
// the production implementation; tests substitute their own.
type Store interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (*UploadMeta, error)
	Download(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
	PresignGet(ctx context.Context, key string, expire time.Duration) (string, error)
}

type S3Deps struct {
	Client   *s3.Client
	Uploader *manager.Uploader
	Presign  *s3.PresignClient

	bucket        string
	region        string
	publicBaseURL string
}

func NewS3(ctx context.Context, cfg *appcfg.Config) (*S3Deps, error) {
	if cfg.S3.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket not set")
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.S3.Region),
	}
	if cfg.S3.AccessKey != "" && cfg.S3.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3.AccessKey, cfg.S3.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		// Supabase Storage and MinIO expose S3-compatible endpoints that
		// require path-style addressing.
		if cfg.S3.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3.Endpoint)
		}
		o.UsePathStyle = cfg.S3.UsePathStyle
	})

	return &S3Deps{
		Client:        client,
		Uploader:      manager.NewUploader(client),
		Presign:       s3.NewPresignClient(client),
		bucket:        cfg.S3.Bucket,
		region:        cfg.S3.Region,
		publicBaseURL: strings.TrimSuffix(cfg.S3.PublicBaseURL, "/"),
	}, nil
}

func (d *S3Deps) Upload(ctx context.Context, key string, data []byte, contentType string) (*UploadMeta, error) {
	ctxUp, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	out, err := d.Uploader.Upload(ctxUp, &s3.PutObjectInput{
		Bucket:      aws.String(d.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return nil, fmt.Errorf("s3 upload failed: %w", err)
	}

	etag := ""
	if out.ETag != nil {
		etag = strings.Trim(*out.ETag, `"`)
	}
	return &UploadMeta{
		Bucket: d.bucket,
		Key:    key,
		URL:    d.PublicURL(key),
		ETag:   etag,
		SizeB:  int64(len(data)),
	}, nil
}

func (d *S3Deps) Download(ctx context.Context, key string) ([]byte, error) {
	ctxGet, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	resp, err := d.Client.GetObject(ctxGet, &s3.GetObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("s3 get failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

func (d *S3Deps) Delete(ctx context.Context, key string) error {
	ctxDel, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := d.Client.DeleteObject(ctxDel, &s3.DeleteObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3 delete failed: %w", err)
	}
	return nil
}

// PublicURL returns the stable URL for an object. With a configured public
// base (Supabase Storage public buckets, CDN fronts) that base wins; the
// virtual-hosted AWS form is the fallback.
func (d *S3Deps) PublicURL(key string) string {
	if d.publicBaseURL != "" {
		return fmt.Sprintf("%s/%s/%s", d.publicBaseURL, d.bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", d.bucket, d.region, key)
}

func (d *S3Deps) PresignGet(ctx context.Context, key string, expire time.Duration) (string, error) {
	req, err := d.Presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expire))
	if err != nil {
		return "", fmt.Errorf("presign get failed: %w", err)
	}
	return req.URL, nil
}

// KeyFromURL recovers the object key from a stored public URL, used on the
// delete path when older rows carry only the URL. Keys are always scoped
// under the documents/ prefix, so the last occurrence of that segment marks
// the key start.
func KeyFromURL(url string) string {
	if i := strings.LastIndex(url, "/documents/"); i >= 0 {
		return url[i+1:]
	}
	return ""
}

package blobstore

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"recordkeeper/internal/filex"
)

// s3API is the subset of the S3 client the store uses. A seam for tests.
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Options configures the S3-compatible backend (MinIO in development).
type S3Options struct {
	RootUser     string
	RootPassword string
	Bucket       string
	Region       string
	BaseEndpoint string
}

// S3Store implements Store over an S3-compatible backend.
type S3Store struct {
	client s3API
	bucket string
	base   string
}

// NewS3Store builds an S3 client with static credentials against the
// configured endpoint.
func NewS3Store(ctx context.Context, opts S3Options) (*S3Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(opts.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			opts.RootUser,
			opts.RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(opts.BaseEndpoint)
		o.UsePathStyle = true
	})

	return &S3Store{
		client: client,
		bucket: opts.Bucket,
		base:   strings.TrimSuffix(opts.BaseEndpoint, "/"),
	}, nil
}

// storageName derives a collision-free object key: a random UUID carrying the
// original file's extension so content type survives the rename.
func storageName(origName string) string {
	_, ext := filex.SplitExt(origName)
	if ext == "" {
		return uuid.NewString()
	}
	return uuid.NewString() + "." + ext
}

func (s *S3Store) urlFor(key string) string {
	return fmt.Sprintf("%s/%s/%s", s.base, s.bucket, key)
}

func (s *S3Store) keyFromURL(url string) (string, error) {
	prefix := s.base + "/" + s.bucket + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", fmt.Errorf("url %q does not belong to bucket %q", url, s.bucket)
	}
	key := strings.TrimPrefix(url, prefix)
	if key == "" {
		return "", fmt.Errorf("url %q has an empty object key", url)
	}
	return key, nil
}

func (s *S3Store) Upload(ctx context.Context, origName string, r io.Reader, size int64, contentType string, progress ProgressFunc) (*FileInfo, error) {
	key := storageName(origName)

	body := &progressReader{r: r, total: size, progress: progress}

	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return nil, fmt.Errorf("upload error: %w", err)
	}

	return &FileInfo{
		OrigName:    origName,
		Name:        key,
		URL:         s.urlFor(key),
		Size:        size,
		ContentType: contentType,
		Uploaded:    time.Now(),
	}, nil
}

func (s *S3Store) Download(ctx context.Context, url string, w io.Writer, progress ProgressFunc) (int64, error) {
	key, err := s.keyFromURL(url)
	if err != nil {
		return 0, err
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return 0, fmt.Errorf("download error: %w", err)
	}
	defer out.Body.Close()

	var total int64
	if out.ContentLength != nil {
		total = *out.ContentLength
	}

	n, err := io.Copy(w, &progressReader{r: out.Body, total: total, progress: progress})
	if err != nil {
		return n, fmt.Errorf("download error: %w", err)
	}
	if total <= 0 && progress != nil {
		progress(100)
	}
	return n, nil
}

func (s *S3Store) Delete(ctx context.Context, url string) error {
	key, err := s.keyFromURL(url)
	if err != nil {
		return err
	}
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return fmt.Errorf("delete error: %w", err)
	}
	return nil
}

// progressReader reports consumed bytes as a 0-100 percentage. With an
// unknown total it stays silent; the caller decides what indeterminate means.
type progressReader struct {
	r        io.Reader
	total    int64
	read     int64
	progress ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.read += int64(n)
	if p.progress != nil && p.total > 0 && n > 0 {
		pct := float64(p.read) / float64(p.total) * 100
		if pct > 100 {
			pct = 100
		}
		p.progress(pct)
	}
	return n, err
}

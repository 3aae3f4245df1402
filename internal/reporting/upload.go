package reporting

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Uploader copies a written report artifact to remote storage and returns
// its remote location.
type Uploader interface {
	Upload(ctx context.Context, localPath string) (string, error)
	Close() error
}

// Destination is a parsed s3:// or gs:// upload target.
type Destination struct {
	Scheme string
	Bucket string
	Prefix string
}

func ParseDestination(raw string) (Destination, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return Destination{}, fmt.Errorf("invalid upload url: %w", err)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "s3" && scheme != "gs" {
		return Destination{}, fmt.Errorf("upload url scheme must be s3 or gs, got %q", u.Scheme)
	}
	if u.Host == "" {
		return Destination{}, errors.New("upload url is missing a bucket")
	}
	return Destination{Scheme: scheme, Bucket: u.Host, Prefix: strings.Trim(u.Path, "/")}, nil
}

func (d Destination) objectKey(localPath string) string {
	name := filepath.Base(localPath)
	if d.Prefix == "" {
		return name
	}
	return path.Join(d.Prefix, name)
}

// NewUploader builds the uploader matching the destination scheme. An empty
// raw URL yields a nil uploader.
func NewUploader(ctx context.Context, raw, awsRegion string) (Uploader, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	dest, err := ParseDestination(raw)
	if err != nil {
		return nil, err
	}
	switch dest.Scheme {
	case "s3":
		opts := []func(*awsconfig.LoadOptions) error{}
		if awsRegion != "" {
			opts = append(opts, awsconfig.WithRegion(awsRegion))
		}
		cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("reporting.NewUploader: load aws config: %w", err)
		}
		return &S3Uploader{client: s3.NewFromConfig(cfg), dest: dest}, nil
	default:
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("reporting.NewUploader: gcs client: %w", err)
		}
		return &GCSUploader{client: client, dest: dest}, nil
	}
}

type s3API interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Uploader struct {
	client s3API
	dest   Destination
}

func (u *S3Uploader) Upload(ctx context.Context, localPath string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	key := u.dest.objectKey(localPath)
	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.dest.Bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(contentType(localPath)),
	})
	if err != nil {
		return "", fmt.Errorf("reporting.S3Uploader.Upload %s: %w", key, err)
	}
	return "s3://" + u.dest.Bucket + "/" + key, nil
}

func (u *S3Uploader) Close() error { return nil }

type GCSUploader struct {
	client *storage.Client
	dest   Destination
}

func (u *GCSUploader) Upload(ctx context.Context, localPath string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	key := u.dest.objectKey(localPath)
	wc := u.client.Bucket(u.dest.Bucket).Object(key).NewWriter(ctx)
	wc.ContentType = contentType(localPath)
	if _, err := io.Copy(wc, f); err != nil {
		_ = wc.Close()
		return "", fmt.Errorf("reporting.GCSUploader.Upload %s: %w", key, err)
	}
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("reporting.GCSUploader.Upload %s: %w", key, err)
	}
	return "gs://" + u.dest.Bucket + "/" + key, nil
}

func (u *GCSUploader) Close() error { return u.client.Close() }

// UploadAll uploads every path, stopping at the first failure.
func UploadAll(ctx context.Context, u Uploader, paths []string) ([]string, error) {
	if u == nil {
		return nil, nil
	}
	var remote []string
	for _, p := range paths {
		loc, err := u.Upload(ctx, p)
		if err != nil {
			return remote, err
		}
		remote = append(remote, loc)
	}
	return remote, nil
}

func contentType(p string) string {
	switch strings.ToLower(filepath.Ext(p)) {
	case ".json":
		return "application/json"
	case ".yaml":
		return "application/yaml"
	case ".html":
		return "text/html; charset=utf-8"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	if t := mime.TypeByExtension(filepath.Ext(p)); t != "" {
		return t
	}
	return "application/octet-stream"
}

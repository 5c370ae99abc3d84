package store

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/joe/worldsync/internal/catalog"
	"github.com/joe/worldsync/internal/transfer"
)

// mtimeMetadataKey holds the source modification time of an uploaded object. S3 sets
// LastModified to the upload time, which would make every upload look newer than the
// local copy on the next scan.
const mtimeMetadataKey = "mtime"

// S3API is the subset of the S3 client used by the S3 store.
type S3API interface {
	s3.ListObjectsV2APIClient
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Config configures the S3 client.
type S3Config struct {
	Region string
	// Endpoint selects an S3-compatible service with path-style addressing.
	Endpoint string
	// AccessKey and SecretKey override the default credential chain when both are set.
	AccessKey string
	SecretKey string
}

// S3 is a remote side stored under a prefix of an S3 bucket. Only objects directly
// under the prefix are listed.
type S3 struct {
	client S3API
	bucket string
	prefix string
}

// NewS3 creates an S3 store on an existing client.
func NewS3(client S3API, bucket, prefix string) *S3 {
	prefix = strings.Trim(prefix, "/")
	if prefix != "" {
		prefix += "/"
	}

	return &S3{client: client, bucket: bucket, prefix: prefix}
}

// OpenS3 builds an S3 client from the default AWS configuration plus cfg.
func OpenS3(ctx context.Context, bucket, prefix string, cfg S3Config) (*S3, error) {
	var opts []func(*config.LoadOptions) error

	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}

	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return NewS3(client, bucket, prefix), nil
}

// Name returns the s3:// URL of the store.
func (s *S3) Name() string {
	return "s3://" + s.bucket + "/" + s.prefix
}

// List returns the objects directly under the prefix. Modification times come from the
// mtime metadata written by Upload, falling back to LastModified for foreign objects.
func (s *S3) List(ctx context.Context) ([]catalog.FileEntry, error) {
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(s.bucket),
		Prefix:    aws.String(s.prefix),
		Delimiter: aws.String("/"),
	})

	var entries []catalog.FileEntry

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", s.Name(), err)
		}

		for _, object := range page.Contents {
			key := aws.ToString(object.Key)

			name := strings.TrimPrefix(key, s.prefix)
			if name == "" || strings.Contains(name, "/") {
				continue
			}

			modTime, err := s.modTime(ctx, key, aws.ToTime(object.LastModified))
			if err != nil {
				return nil, err
			}

			entries = append(entries, catalog.FileEntry{
				Identity:   name,
				ModifiedAt: modTime,
				Size:       aws.ToInt64(object.Size),
				Location:   key,
			})
		}
	}

	return entries, nil
}

func (s *S3) modTime(ctx context.Context, key string, lastModified time.Time) (time.Time, error) {
	head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read metadata of %s: %w", key, err)
	}

	if raw, ok := head.Metadata[mtimeMetadataKey]; ok {
		if parsed, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			return parsed, nil
		}
	}

	return lastModified, nil
}

// Upload puts req.Body at prefix+name with the modification time in metadata. The key is
// derived from the name, so replacing an existing object is an overwrite.
func (s *S3) Upload(ctx context.Context, req transfer.UploadRequest) (string, error) {
	key := s.prefix + req.Name

	// PutObject signs the payload and needs a seekable body of known length.
	data, err := io.ReadAll(req.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", req.Name, err)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String("application/octet-stream"),
		Metadata: map[string]string{
			mtimeMetadataKey: req.ModTime.UTC().Format(time.RFC3339Nano),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to put %s: %w", key, err)
	}

	return key, nil
}

// Download streams the object at key.
func (s *S3) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}

	return out.Body, nil
}

// Close is a no-op; the S3 client holds no connection state that needs releasing.
func (s *S3) Close() error {
	return nil
}

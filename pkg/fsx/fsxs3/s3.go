package fsxs3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/hirecopilot/relay/pkg/fsx"
)

// S3FileSystem implements fsx.FileSystemWithPresign backed by an S3 bucket.
// Paths map to object keys under an optional key prefix.
type S3FileSystem struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
	prefix  string
}

// New creates an S3 file system for the given bucket using the default AWS
// credential chain.
func New(ctx context.Context, bucket, prefix, region string) (*S3FileSystem, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg)
	return NewWithClient(client, bucket, prefix), nil
}

// NewWithClient creates an S3 file system with a pre-built client.
func NewWithClient(client *s3.Client, bucket, prefix string) *S3FileSystem {
	return &S3FileSystem{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  bucket,
		prefix:  strings.Trim(prefix, "/"),
	}
}

// ============================================================================
// FileReader Implementation
// ============================================================================

func (fs *S3FileSystem) ReadFile(ctx context.Context, filePath string) ([]byte, error) {
	reader, err := fs.ReadFileStream(ctx, filePath)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read object body: %w", err)
	}
	return data, nil
}

func (fs *S3FileSystem) ReadFileStream(ctx context.Context, filePath string) (io.ReadCloser, error) {
	out, err := fs.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(fs.bucket),
		Key:    aws.String(fs.key(filePath)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("file not found: %s", filePath)
		}
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	return out.Body, nil
}

func (fs *S3FileSystem) Stat(ctx context.Context, filePath string) (fsx.FileInfo, error) {
	out, err := fs.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(fs.bucket),
		Key:    aws.String(fs.key(filePath)),
	})
	if err != nil {
		if isNotFound(err) {
			return fsx.FileInfo{}, fmt.Errorf("file not found: %s", filePath)
		}
		return fsx.FileInfo{}, fmt.Errorf("failed to head object: %w", err)
	}

	info := fsx.FileInfo{
		Name:     path.Base(filePath),
		Size:     aws.ToInt64(out.ContentLength),
		Metadata: out.Metadata,
	}
	if out.LastModified != nil {
		info.ModTime = *out.LastModified
	}
	if out.ContentType != nil {
		info.ContentType = *out.ContentType
	}
	return info, nil
}

func (fs *S3FileSystem) List(ctx context.Context, dirPath string) ([]fsx.FileInfo, error) {
	prefix := fs.key(dirPath)
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	var infos []fsx.FileInfo
	paginator := s3.NewListObjectsV2Paginator(fs.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(fs.bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}

		for _, cp := range page.CommonPrefixes {
			infos = append(infos, fsx.FileInfo{
				Name:  path.Base(strings.TrimSuffix(aws.ToString(cp.Prefix), "/")),
				IsDir: true,
			})
		}
		for _, obj := range page.Contents {
			info := fsx.FileInfo{
				Name: path.Base(aws.ToString(obj.Key)),
				Size: aws.ToInt64(obj.Size),
			}
			if obj.LastModified != nil {
				info.ModTime = *obj.LastModified
			}
			infos = append(infos, info)
		}
	}

	return infos, nil
}

func (fs *S3FileSystem) Exists(ctx context.Context, filePath string) (bool, error) {
	_, err := fs.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(fs.bucket),
		Key:    aws.String(fs.key(filePath)),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to head object: %w", err)
	}
	return true, nil
}

// ============================================================================
// FileWriter Implementation
// ============================================================================

func (fs *S3FileSystem) WriteFile(ctx context.Context, filePath string, data []byte) error {
	return fs.WriteFileStream(ctx, filePath, bytes.NewReader(data))
}

func (fs *S3FileSystem) WriteFileStream(ctx context.Context, filePath string, r io.Reader) error {
	_, err := fs.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(fs.bucket),
		Key:    aws.String(fs.key(filePath)),
		Body:   r,
	})
	if err != nil {
		return fmt.Errorf("failed to put object: %w", err)
	}
	return nil
}

// CreateDir is a no-op: S3 has no directories, prefixes appear as objects do.
func (fs *S3FileSystem) CreateDir(ctx context.Context, dirPath string) error {
	return nil
}

// ============================================================================
// FileDeleter Implementation
// ============================================================================

func (fs *S3FileSystem) DeleteFile(ctx context.Context, filePath string) error {
	_, err := fs.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(fs.bucket),
		Key:    aws.String(fs.key(filePath)),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

func (fs *S3FileSystem) DeleteDir(ctx context.Context, dirPath string, recursive bool) error {
	if !recursive {
		return nil
	}

	prefix := fs.key(dirPath)
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	paginator := s3.NewListObjectsV2Paginator(fs.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(fs.bucket),
		Prefix: aws.String(prefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("failed to list objects for delete: %w", err)
		}
		if len(page.Contents) == 0 {
			continue
		}

		objects := make([]types.ObjectIdentifier, 0, len(page.Contents))
		for _, obj := range page.Contents {
			objects = append(objects, types.ObjectIdentifier{Key: obj.Key})
		}

		_, err = fs.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(fs.bucket),
			Delete: &types.Delete{Objects: objects},
		})
		if err != nil {
			return fmt.Errorf("failed to delete objects: %w", err)
		}
	}

	return nil
}

// ============================================================================
// PathOperations Implementation
// ============================================================================

func (fs *S3FileSystem) Join(elem ...string) string {
	return path.Join(elem...)
}

// ============================================================================
// PresignedURLGenerator Implementation
// ============================================================================

func (fs *S3FileSystem) GetPresignedDownloadURL(ctx context.Context, filePath string, expiration time.Duration) (string, error) {
	req, err := fs.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(fs.bucket),
		Key:    aws.String(fs.key(filePath)),
	}, s3.WithPresignExpires(expiration))
	if err != nil {
		return "", fmt.Errorf("failed to presign download: %w", err)
	}
	return req.URL, nil
}

func (fs *S3FileSystem) GetPresignedUploadURL(ctx context.Context, filePath string, expiration time.Duration) (string, error) {
	return fs.GetPresignedUploadURLWithOptions(ctx, filePath, fsx.PresignedURLOptions{Expiration: expiration})
}

func (fs *S3FileSystem) GetPresignedUploadURLWithOptions(ctx context.Context, filePath string, opts fsx.PresignedURLOptions) (string, error) {
	input := &s3.PutObjectInput{
		Bucket: aws.String(fs.bucket),
		Key:    aws.String(fs.key(filePath)),
	}
	if opts.ContentType != "" {
		input.ContentType = aws.String(opts.ContentType)
	}
	if len(opts.Metadata) > 0 {
		input.Metadata = opts.Metadata
	}

	req, err := fs.presign.PresignPutObject(ctx, input, s3.WithPresignExpires(opts.Expiration))
	if err != nil {
		return "", fmt.Errorf("failed to presign upload: %w", err)
	}
	return req.URL, nil
}

// ============================================================================
// Internal
// ============================================================================

func (fs *S3FileSystem) key(filePath string) string {
	cleaned := strings.TrimPrefix(path.Clean("/"+filePath), "/")
	if fs.prefix == "" {
		return cleaned
	}
	return fs.prefix + "/" + cleaned
}

func isNotFound(err error) bool {
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return true
	}
	var noKey *types.NoSuchKey
	return errors.As(err, &noKey)
}

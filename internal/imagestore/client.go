package imagestore

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/imamik/overcloud/internal/config"
	"github.com/imamik/overcloud/internal/deployerr"
)

const defaultRegion = "us-east-1"

// Object is the stored state of one image.
type Object struct {
	Key          string
	ETag         string
	Metadata     map[string]string
	LastModified time.Time
}

func (o *Object) image() *Image {
	return &Image{
		ID:         o.ETag,
		Name:       o.Key,
		Checksum:   o.Metadata[MetaMD5],
		Properties: o.Metadata,
		CreatedAt:  o.LastModified,
	}
}

// Client stores images as objects in one bucket. The ETag of an object
// stands in for an image ID.
type Client struct {
	s3     *s3.Client
	bucket string
}

// NewClient creates a client for the bucket described by cfg. Without
// static keys the default AWS credential chain is used.
func NewClient(ctx context.Context, cfg config.ImageStore) (*Client, error) {
	if cfg.Bucket == "" {
		return nil, deployerr.Configf("image_store.bucket is required")
	}
	region := cfg.Region
	if region == "" {
		region = defaultRegion
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})
	return &Client{s3: client, bucket: cfg.Bucket}, nil
}

// Bucket returns the bucket name.
func (c *Client) Bucket() string {
	return c.bucket
}

// EnsureBucket creates the bucket unless it already exists.
func (c *Client) EnsureBucket(ctx context.Context) error {
	_, err := c.s3.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(c.bucket)})
	if err == nil {
		return nil
	}
	if !isNotFoundError(err) {
		return fmt.Errorf("failed to check bucket %s: %w", c.bucket, err)
	}

	_, err = c.s3.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(c.bucket)})
	if err != nil && !isBucketAlreadyOwnedByYou(err) {
		return fmt.Errorf("failed to create bucket %s: %w", c.bucket, err)
	}
	return nil
}

// Head returns the stored object, or nil if there is none.
func (c *Client) Head(ctx context.Context, key string) (*Object, error) {
	out, err := c.s3.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFoundError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to stat object %s in bucket %s: %w", key, c.bucket, err)
	}
	return &Object{
		Key:          key,
		ETag:         trimETag(out.ETag),
		Metadata:     out.Metadata,
		LastModified: aws.ToTime(out.LastModified),
	}, nil
}

// Put uploads the file at path as key.
func (c *Client) Put(ctx context.Context, key, path string, metadata map[string]string) (*Object, error) {
	// #nosec G304
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	out, err := c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(key),
		Body:          f,
		ContentLength: aws.Int64(info.Size()),
		Metadata:      metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to put object %s in bucket %s: %w", key, c.bucket, err)
	}
	return &Object{Key: key, ETag: trimETag(out.ETag), Metadata: metadata}, nil
}

// Copy copies src to dst inside the bucket, metadata included.
func (c *Client) Copy(ctx context.Context, src, dst string) error {
	_, err := c.s3.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:            aws.String(c.bucket),
		Key:               aws.String(dst),
		CopySource:        aws.String(c.bucket + "/" + url.PathEscape(src)),
		MetadataDirective: types.MetadataDirectiveCopy,
	})
	if err != nil {
		return fmt.Errorf("failed to copy object %s to %s: %w", src, dst, err)
	}
	return nil
}

// Find returns the object called name as an image, or nil.
func (c *Client) Find(ctx context.Context, name string) (*Image, error) {
	obj, err := c.Head(ctx, name)
	if err != nil || obj == nil {
		return nil, err
	}
	return obj.image(), nil
}

// Upload puts the file with its properties and checksum as metadata.
func (c *Client) Upload(ctx context.Context, req UploadRequest) (*Image, error) {
	meta := make(map[string]string, len(req.Properties)+1)
	maps.Copy(meta, req.Properties)
	meta[MetaMD5] = req.Checksum

	obj, err := c.Put(ctx, req.Name, req.Path, meta)
	if err != nil {
		return nil, err
	}
	return obj.image(), nil
}

// Archive copies img to name.
func (c *Client) Archive(ctx context.Context, img *Image, name string) error {
	return c.Copy(ctx, img.Name, name)
}

func trimETag(etag *string) string {
	return strings.Trim(aws.ToString(etag), `"`)
}

func isBucketAlreadyOwnedByYou(err error) bool {
	var owned *types.BucketAlreadyOwnedByYou
	if errors.As(err, &owned) {
		return true
	}
	// S3-compatible services do not always return the typed errors.
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode() == "BucketAlreadyOwnedByYou"
	}
	return false
}

func isNotFoundError(err error) bool {
	var nsb *types.NoSuchBucket
	if errors.As(err, &nsb) {
		return true
	}
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchBucket", "NoSuchKey", "404":
			return true
		}
	}
	return false
}

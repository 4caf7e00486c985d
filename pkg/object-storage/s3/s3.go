package s3

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	objectstorage "github.com/knowhive/knowhive/pkg/object-storage"
)

type S3 struct {
	Endpoint string
	Region   string
	Bucket   string
	ak       string
	sk       string
	cli      *s3.Client

	pathStyle bool
}

type Option func(*S3)

// WithPathStyle addresses objects as endpoint/bucket/key, MinIO needs it.
func WithPathStyle(on bool) Option {
	return func(s *S3) {
		s.pathStyle = on
	}
}

func NewS3Client(endpoint, region, bucket, ak, sk string, opts ...Option) (*S3, error) {
	cli := &S3{
		Endpoint: endpoint,
		Region:   region,
		Bucket:   bucket,
		ak:       ak,
		sk:       sk,
	}
	for _, opt := range opts {
		opt(cli)
	}

	if _, err := cli.DefaultConfig(context.Background()); err != nil {
		return nil, err
	}
	return cli, nil
}

func (s *S3) DefaultConfig(ctx context.Context) (aws.Config, error) {
	loadOpts := []func(*config.LoadOptions) error{
		config.WithCredentialsProvider(credentials.StaticCredentialsProvider{
			Value: aws.Credentials{
				AccessKeyID: s.ak, SecretAccessKey: s.sk,
			},
		}),
		config.WithRegion(s.Region),
	}
	if s.Endpoint != "" {
		loadOpts = append(loadOpts, config.WithEndpointResolverWithOptions(aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
			return aws.Endpoint{
				URL:               s.Endpoint,
				SigningRegion:     s.Region,
				HostnameImmutable: s.pathStyle,
			}, nil
		})))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return aws.Config{}, err
	}

	s.cli = s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = s.pathStyle
	})
	return cfg, nil
}

func objectKey(key string) (string, error) {
	return objectstorage.CleanKey(strings.TrimPrefix(key, "/"))
}

func (s *S3) GenGetObjectPreSignURL(ctx context.Context, filePath string, ttl time.Duration) (string, error) {
	key, err := objectKey(filePath)
	if err != nil {
		return "", err
	}
	req, err := s3.NewPresignClient(s.cli).PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", err
	}
	return req.URL, nil
}

func (s *S3) Put(ctx context.Context, fullPath string, body io.Reader, contentType string) error {
	key, err := objectKey(fullPath)
	if err != nil {
		return err
	}
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	_, err = manager.NewUploader(s.cli).Upload(ctx, input)
	return err
}

func (s *S3) Get(ctx context.Context, fullPath string) (*objectstorage.Object, error) {
	key, err := objectKey(fullPath)
	if err != nil {
		return nil, err
	}
	resp, err := s.cli.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, objectstorage.ErrObjectNotFound
		}
		return nil, err
	}

	size := resp.ContentLength
	if size <= 0 {
		size = -1
	}
	return &objectstorage.Object{
		Body:        resp.Body,
		Size:        size,
		ContentType: aws.ToString(resp.ContentType),
	}, nil
}

func (s *S3) Delete(ctx context.Context, fullPath string) error {
	key, err := objectKey(fullPath)
	if err != nil {
		return err
	}
	_, err = s.cli.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(key),
	})
	return err
}

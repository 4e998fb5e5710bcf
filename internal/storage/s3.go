package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"
)

// S3Store implements Store on AWS S3 through aws-sdk-go-v2.
type S3Store struct {
	client     *s3.Client
	opts       Options
	baseURL    *url.URL // nil when using the AWS default endpoint
	publicBase string
	log        *zap.Logger
}

// NewS3Store loads the AWS configuration. Static credentials from opts take
// precedence over the default credential chain. A non-empty Endpoint
// switches to path-style addressing against that host.
func NewS3Store(ctx context.Context, opts Options, log *zap.Logger) (*S3Store, error) {
	if opts.Region == "" {
		opts.Region = "us-east-1"
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(opts.Region)}
	if opts.Account != "" && opts.Secret != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.Account, opts.Secret, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	s := &S3Store{
		opts:       opts,
		publicBase: strings.TrimRight(opts.PublicBase, "/"),
		log:        log.Named("storage"),
	}
	if opts.Endpoint != "" {
		scheme := "http"
		if opts.UseSSL {
			scheme = "https"
		}
		s.baseURL = &url.URL{Scheme: scheme, Host: opts.Endpoint}
	}
	s.client = s3.NewFromConfig(awsCfg, s.clientOptions)
	return s, nil
}

func (s *S3Store) clientOptions(o *s3.Options) {
	if s.baseURL != nil {
		o.BaseEndpoint = aws.String(s.baseURL.String())
		o.UsePathStyle = true
	}
}

// EnsureContainer implements Store.
func (s *S3Store) EnsureContainer(ctx context.Context) (Container, error) {
	bucket := s.opts.Container

	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)})
	if err != nil {
		var notFound *types.NotFound
		if !errors.As(err, &notFound) {
			return nil, unavailable("head bucket", err)
		}
		if err := s.createBucket(ctx, bucket); err != nil {
			return nil, err
		}
	}

	if s.opts.Public {
		_, err := s.client.PutBucketPolicy(ctx, &s3.PutBucketPolicyInput{
			Bucket: aws.String(bucket),
			Policy: aws.String(publicReadPolicy(bucket)),
		})
		if err != nil {
			return nil, unavailable("put bucket policy", err)
		}
	}

	return &s3Bucket{store: s, name: bucket}, nil
}

func (s *S3Store) createBucket(ctx context.Context, bucket string) error {
	in := &s3.CreateBucketInput{Bucket: aws.String(bucket)}
	if s.opts.Region != "us-east-1" {
		in.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(s.opts.Region),
		}
	}

	_, err := s.client.CreateBucket(ctx, in)
	if err != nil {
		var owned *types.BucketAlreadyOwnedByYou
		var exists *types.BucketAlreadyExists
		if errors.As(err, &owned) || errors.As(err, &exists) {
			return nil
		}
		return unavailable(fmt.Sprintf("create bucket %q", bucket), err)
	}
	s.log.Info("created bucket", zap.String("bucket", bucket))
	return nil
}

type s3Bucket struct {
	store *S3Store
	name  string
}

func (b *s3Bucket) Name() string { return b.name }

func (b *s3Bucket) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	in := &s3.PutObjectInput{
		Bucket:      aws.String(b.name),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	}
	if size >= 0 {
		in.ContentLength = aws.Int64(size)
	}
	if _, err := b.store.client.PutObject(ctx, in); err != nil {
		return unavailable(fmt.Sprintf("put object %q", key), err)
	}
	return nil
}

func (b *s3Bucket) List(ctx context.Context) iter.Seq2[Object, error] {
	return func(yield func(Object, error) bool) {
		pages := s3.NewListObjectsV2Paginator(b.store.client, &s3.ListObjectsV2Input{
			Bucket: aws.String(b.name),
		})
		for pages.HasMorePages() {
			page, err := pages.NextPage(ctx)
			if err != nil {
				yield(Object{}, unavailable("list objects", err))
				return
			}
			for _, obj := range page.Contents {
				o := Object{Key: aws.ToString(obj.Key), LastModified: aws.ToTime(obj.LastModified)}
				if !yield(o, nil) {
					return
				}
			}
		}
	}
}

func (b *s3Bucket) ObjectURL(key string) string {
	if b.store.publicBase != "" {
		return b.store.publicBase + "/" + key
	}
	if b.store.baseURL != nil {
		return b.store.baseURL.JoinPath(b.name, key).String()
	}
	u := url.URL{
		Scheme: "https",
		Host:   fmt.Sprintf("%s.s3.%s.amazonaws.com", b.name, b.store.opts.Region),
	}
	return u.JoinPath(key).String()
}

func (b *s3Bucket) SignedURL(ctx context.Context, req SignRequest) (string, error) {
	presigner := s3.NewPresignClient(b.store.client)
	signed, err := presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.name),
		Key:    aws.String(req.Key),
	},
		s3.WithPresignExpires(req.Expiry),
		s3.WithPresignClientFromClientOptions(func(o *s3.Options) {
			o.Credentials = credentials.NewStaticCredentialsProvider(req.Account, req.Secret, "")
		}),
	)
	if err != nil {
		return "", fmt.Errorf("presign %q: %w", req.Key, err)
	}
	return signed.URL, nil
}

var _ Store = (*S3Store)(nil)

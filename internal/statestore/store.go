package statestore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-logr/logr"

	"github.com/stagehand-dev/stagehand/internal/config"
)

// DefaultPrefix is the key prefix under which definitions live.
const DefaultPrefix = "definitions/"

// Store reads and writes environment definitions in a single bucket.
type Store struct {
	s3       *s3.Client
	bucket   string
	prefix   string
	timeouts *config.Timeouts
	log      logr.Logger
}

// Option customizes a Store.
type Option func(*Store)

// WithLogger sets the logger. The default discards all output.
func WithLogger(log logr.Logger) Option {
	return func(s *Store) {
		s.log = log
	}
}

// WithTimeouts overrides the retry settings, primarily for tests.
func WithTimeouts(t *config.Timeouts) Option {
	return func(s *Store) {
		s.timeouts = t
	}
}

// WithPrefix changes the key prefix definitions are stored under.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		if prefix != "" && !strings.HasSuffix(prefix, "/") {
			prefix += "/"
		}
		s.prefix = prefix
	}
}

// NewStore creates a store over the bucket described by cfg. An empty
// endpoint defaults to the Hetzner Object Storage endpoint of the region.
func NewStore(cfg config.StateConfig, accessKey, secretKey string, opts ...Option) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("state bucket is required")
	}
	if cfg.Region == "" {
		return nil, errors.New("state region is required")
	}
	if accessKey == "" || secretKey == "" {
		return nil, errors.New("state credentials are required")
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://%s.your-objectstorage.com", cfg.Region)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")),
		awsconfig.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = false // Hetzner uses virtual-hosted style
	})

	store := &Store{
		s3:     client,
		bucket: cfg.Bucket,
		prefix: DefaultPrefix,
		log:    logr.Discard(),
	}
	for _, opt := range opts {
		opt(store)
	}
	if store.timeouts == nil {
		store.timeouts = config.LoadTimeouts()
	}
	return store, nil
}

func (s *Store) key(name string) string {
	return s.prefix + name
}

func validateName(name string) error {
	if name == "" {
		return errors.New("definition name is empty")
	}
	if strings.Contains(name, "/") {
		return fmt.Errorf("definition name %q must not contain slashes", name)
	}
	return nil
}

// Get returns a definition's content and its current ETag. The ETag feeds
// conditional writes via PutOptions.IfMatch.
func (s *Store) Get(ctx context.Context, name string) ([]byte, string, error) {
	if err := validateName(name); err != nil {
		return nil, "", err
	}

	result, err := s.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil {
		if isNoSuchKey(err) {
			return nil, "", fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, "", fmt.Errorf("failed to get definition %s: %w", name, err)
	}
	defer result.Body.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(result.Body); err != nil {
		return nil, "", fmt.Errorf("failed to read definition %s: %w", name, err)
	}

	return buf.Bytes(), aws.ToString(result.ETag), nil
}

// PutOptions controls the write precondition. At most one of IfMatch and
// IfNoneMatch applies; IfMatch wins when both are set.
type PutOptions struct {
	// IfMatch lets the write succeed only while the stored ETag still
	// matches, guarding against lost updates.
	IfMatch string

	// IfNoneMatch lets the write succeed only if no object exists yet.
	IfNoneMatch bool
}

// Put uploads a definition and returns the new ETag. A failed precondition
// surfaces as ErrPersistenceConflict.
func (s *Store) Put(ctx context.Context, name string, data []byte, opts PutOptions) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}

	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.key(name)),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	}
	switch {
	case opts.IfMatch != "":
		input.IfMatch = aws.String(opts.IfMatch)
	case opts.IfNoneMatch:
		input.IfNoneMatch = aws.String("*")
	}

	result, err := s.s3.PutObject(ctx, input)
	if err != nil {
		if isPreconditionFailed(err) {
			return "", fmt.Errorf("%w: %s", ErrPersistenceConflict, name)
		}
		return "", fmt.Errorf("failed to put definition %s: %w", name, err)
	}
	return aws.ToString(result.ETag), nil
}

// Definition describes a stored definition, for listing.
type Definition struct {
	Name         string
	Size         int64
	LastModified time.Time
}

// List returns all stored definitions in key order.
func (s *Store) List(ctx context.Context) ([]Definition, error) {
	var defs []Definition

	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix),
	}
	for {
		result, err := s.s3.ListObjectsV2(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to list definitions in bucket %s: %w", s.bucket, err)
		}

		for _, obj := range result.Contents {
			key := aws.ToString(obj.Key)
			name := strings.TrimPrefix(key, s.prefix)
			if name == "" {
				continue
			}
			defs = append(defs, Definition{
				Name:         name,
				Size:         aws.ToInt64(obj.Size),
				LastModified: aws.ToTime(obj.LastModified),
			})
		}

		if result.NextContinuationToken == nil {
			break
		}
		input.ContinuationToken = result.NextContinuationToken
	}

	return defs, nil
}

// Delete removes a definition. Deleting an absent definition succeeds.
func (s *Store) Delete(ctx context.Context, name string) error {
	if err := validateName(name); err != nil {
		return err
	}

	_, err := s.s3.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil {
		return fmt.Errorf("failed to delete definition %s: %w", name, err)
	}
	return nil
}

// EnsureBucket creates the bucket if it does not exist yet. A bucket we
// already own is not an error.
func (s *Store) EnsureBucket(ctx context.Context) error {
	_, err := s.s3.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		if isBucketAlreadyOwnedByYou(err) {
			return nil
		}
		return fmt.Errorf("failed to create bucket %s: %w", s.bucket, err)
	}
	s.log.Info("created state bucket", "bucket", s.bucket)
	return nil
}

// Ping verifies the bucket exists and the credentials can reach it.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.s3.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		return fmt.Errorf("state bucket %s is not reachable: %w", s.bucket, err)
	}
	return nil
}

package persist

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3BackendConfig configures an S3-backed remote mirror with optional
// DynamoDB-based locking, the coordination mechanism the core's design
// notes invite an implementer to add without touching the planner or
// applier contracts.
type S3BackendConfig struct {
	Bucket        string
	Key           string
	Region        string
	DynamoDBTable string
	Encrypt       bool
	Profile       string
}

// s3Backend implements Backend over AWS S3, with DynamoDB conditional
// writes for exclusive locking, grounded directly on the teacher's
// internal/state/s3_backend.go and re-pointed from PKL-over-tempfile
// decoding to direct JSON unmarshaling of the mirror.
type s3Backend struct {
	bucket        string
	key           string
	region        string
	dynamoDBTable string
	encrypt       bool
	profile       string

	s3Client *s3.Client
	dbClient *dynamodb.Client
	lockID   string
}

// NewS3Backend constructs an S3-backed Backend from cfg, loading AWS
// credentials the standard SDK way (environment, shared config, or an
// explicit profile).
func NewS3Backend(ctx context.Context, cfg S3BackendConfig) (Backend, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("persist: s3 backend requires a bucket")
	}

	key := cfg.Key
	if key == "" {
		key = "mirrorplan/store.json"
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	b := &s3Backend{
		bucket:        cfg.Bucket,
		key:           key,
		region:        region,
		dynamoDBTable: cfg.DynamoDBTable,
		encrypt:       cfg.Encrypt,
		profile:       cfg.Profile,
	}
	if err := b.initClients(ctx); err != nil {
		return nil, fmt.Errorf("persist: initialize s3 backend: %w", err)
	}
	return b, nil
}

func (b *s3Backend) initClients(ctx context.Context) error {
	var opts []func(*awsconfig.LoadOptions) error
	opts = append(opts, awsconfig.WithRegion(b.region))
	if b.profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(b.profile))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return fmt.Errorf("unable to load AWS config: %w", err)
	}

	b.s3Client = s3.NewFromConfig(cfg)
	if b.dynamoDBTable != "" {
		b.dbClient = dynamodb.NewFromConfig(cfg)
	}
	return nil
}

func (b *s3Backend) Read(ctx context.Context) (*Mirror, error) {
	result, err := b.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key),
	})
	if err != nil {
		var nsk *s3types.NoSuchKey
		if errors.As(err, &nsk) || strings.Contains(err.Error(), "NoSuchKey") || strings.Contains(err.Error(), "404") {
			return NewMirror(), nil
		}
		return nil, &ErrPersistence{Kind: "s3 read", Err: fmt.Errorf("s3://%s/%s: %w", b.bucket, b.key, err)}
	}
	defer result.Body.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(result.Body); err != nil {
		return nil, &ErrPersistence{Kind: "s3 read", Err: err}
	}
	content := buf.Bytes()

	if IsEncrypted(content) {
		decrypted, err := DecryptMirror(content)
		if err != nil {
			return nil, &ErrPersistence{Kind: "decrypt", Err: err}
		}
		content = decrypted
	}

	mirror := NewMirror()
	if len(content) > 0 {
		if err := json.Unmarshal(content, mirror); err != nil {
			return nil, &ErrPersistence{Kind: "decode", Err: err}
		}
	}
	return mirror, nil
}

func (b *s3Backend) Write(ctx context.Context, mirror *Mirror) error {
	content, err := json.MarshalIndent(mirror, "", "  ")
	if err != nil {
		return &ErrPersistence{Kind: "encode", Err: err}
	}

	if b.encrypt {
		content, err = EncryptMirror(content)
		if err != nil {
			return &ErrPersistence{Kind: "encrypt", Err: err}
		}
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key),
		Body:   bytes.NewReader(content),
	}
	if b.encrypt {
		input.ServerSideEncryption = s3types.ServerSideEncryptionAes256
	}

	if _, err := b.s3Client.PutObject(ctx, input); err != nil {
		return &ErrPersistence{Kind: "s3 write", Err: fmt.Errorf("s3://%s/%s: %w", b.bucket, b.key, err)}
	}
	return nil
}

func (b *s3Backend) Lock(ctx context.Context) error {
	if b.dynamoDBTable == "" {
		return nil
	}

	b.lockID = fmt.Sprintf("mirrorplan-%d-%d", os.Getpid(), time.Now().UnixNano())

	_, err := b.dbClient.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(b.dynamoDBTable),
		Item: map[string]dbtypes.AttributeValue{
			"LockID":  &dbtypes.AttributeValueMemberS{Value: b.key},
			"Info":    &dbtypes.AttributeValueMemberS{Value: b.lockID},
			"Created": &dbtypes.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339)},
		},
		ConditionExpression: aws.String("attribute_not_exists(LockID)"),
	})
	if err != nil {
		if strings.Contains(err.Error(), "ConditionalCheckFailedException") {
			return fmt.Errorf("persist: mirror is locked by another process (LockID=%q, table %q)", b.key, b.dynamoDBTable)
		}
		return &ErrPersistence{Kind: "lock", Err: err}
	}
	return nil
}

func (b *s3Backend) Unlock(ctx context.Context) error {
	if b.dynamoDBTable == "" {
		return nil
	}
	_, err := b.dbClient.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(b.dynamoDBTable),
		Key: map[string]dbtypes.AttributeValue{
			"LockID": &dbtypes.AttributeValueMemberS{Value: b.key},
		},
	})
	if err != nil {
		return &ErrPersistence{Kind: "unlock", Err: err}
	}
	return nil
}

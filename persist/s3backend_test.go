package persist

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewS3BackendRequiresBucket(t *testing.T) {
	_, err := NewS3Backend(context.Background(), S3BackendConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket")
}

func TestNewS3BackendDefaults(t *testing.T) {
	b, err := NewS3Backend(context.Background(), S3BackendConfig{Bucket: "my-bucket"})
	if err != nil {
		t.Skipf("skipping s3 backend test (no AWS credentials): %v", err)
	}
	s3b, ok := b.(*s3Backend)
	require.True(t, ok)
	assert.Equal(t, "my-bucket", s3b.bucket)
	assert.Equal(t, "mirrorplan/store.json", s3b.key)
	assert.Equal(t, "us-east-1", s3b.region)
	assert.Empty(t, s3b.dynamoDBTable)
	assert.False(t, s3b.encrypt)
}

func TestNewS3BackendCustomConfig(t *testing.T) {
	cfg := S3BackendConfig{
		Bucket:        "custom-bucket",
		Key:           "custom/path/store.json",
		Region:        "eu-west-1",
		DynamoDBTable: "mirrorplan-locks",
		Encrypt:       true,
		Profile:       "staging",
	}
	b, err := NewS3Backend(context.Background(), cfg)
	if err != nil {
		t.Skipf("skipping s3 backend test (no AWS credentials): %v", err)
	}
	s3b, ok := b.(*s3Backend)
	require.True(t, ok)
	assert.Equal(t, "custom-bucket", s3b.bucket)
	assert.Equal(t, "custom/path/store.json", s3b.key)
	assert.Equal(t, "eu-west-1", s3b.region)
	assert.Equal(t, "mirrorplan-locks", s3b.dynamoDBTable)
	assert.True(t, s3b.encrypt)
}

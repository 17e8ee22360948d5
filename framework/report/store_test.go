package report

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/launchdarkly/go-test-helpers/v2/httphelpers"
	"github.com/redis/go-redis/v9"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	store := FileStore{Dir: dir}
	r := sampleReport()

	path1, err := store.Save(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "test_results_20300102T030405.000000006Z.json"), path1)

	path2, err := store.Save(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "test_results_20300102T030405.000000006Z-1.json"), path2)

	data, err := os.ReadFile(path1)
	require.NoError(t, err)
	parsed, err := ParseReport(data)
	require.NoError(t, err)
	assert.Equal(t, r, parsed)
}

type fakeRedis struct {
	values map[string]string
	index  []redis.Z
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, _ time.Duration) *redis.StatusCmd {
	f.values[key] = string(value.([]byte))
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) ZAdd(ctx context.Context, key string, members ...redis.Z) *redis.IntCmd {
	f.index = append(f.index, members...)
	return redis.NewIntResult(int64(len(members)), nil)
}

func TestRedisStore(t *testing.T) {
	fake := &fakeRedis{values: make(map[string]string)}
	store := &RedisStore{client: fake, addr: "localhost:6379"}
	r := sampleReport()

	location, err := store.Save(context.Background(), r)
	require.NoError(t, err)
	key := DefaultRedisPrefix + ":" + r.Timestamp
	assert.Equal(t, "redis://localhost:6379/"+key, location)

	parsed, err := ParseReport([]byte(fake.values[key]))
	require.NoError(t, err)
	assert.Equal(t, r, parsed)

	require.Len(t, fake.index, 1)
	assert.Equal(t, key, fake.index[0].Member)
	assert.Equal(t, float64(time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC).UnixMilli()), fake.index[0].Score)
}

func TestNewRedisStoreRejectsBadURL(t *testing.T) {
	_, err := NewRedisStore("not a url", "")
	assert.Error(t, err)

	store, err := NewRedisStore("redis://example:6380/2", "")
	require.NoError(t, err)
	assert.Equal(t, "redis://example:6380", store.String())
	assert.NoError(t, store.Close())
}

func TestConsulStore(t *testing.T) {
	handler, requests := httphelpers.RecordingHandler(
		httphelpers.HandlerWithResponse(http.StatusOK, http.Header{"Content-Type": {"application/json"}}, []byte("true")))
	httphelpers.WithServer(handler, func(server *httptest.Server) {
		store, err := NewConsulStore(server.URL, "runs/")
		require.NoError(t, err)
		r := sampleReport()

		location, err := store.Save(context.Background(), r)
		require.NoError(t, err)
		assert.Contains(t, location, "/runs/"+r.Timestamp)

		req := <-requests
		assert.Equal(t, "PUT", req.Request.Method)
		assert.Equal(t, "/v1/kv/runs/"+r.Timestamp, req.Request.URL.Path)
		parsed, err := ParseReport(req.Body)
		require.NoError(t, err)
		assert.Equal(t, r, parsed)
	})
}

func TestConsulStoreError(t *testing.T) {
	httphelpers.WithServer(httphelpers.HandlerWithStatus(http.StatusInternalServerError), func(server *httptest.Server) {
		store, err := NewConsulStore(server.URL, "")
		require.NoError(t, err)
		_, err = store.Save(context.Background(), sampleReport())
		assert.Error(t, err)
	})
}

type fakeDynamoDB struct {
	inputs []*dynamodb.PutItemInput
}

func (f *fakeDynamoDB) PutItem(ctx context.Context, params *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (
	*dynamodb.PutItemOutput, error) {
	f.inputs = append(f.inputs, params)
	return &dynamodb.PutItemOutput{}, nil
}

func TestDynamoDBStore(t *testing.T) {
	fake := &fakeDynamoDB{}
	store := &DynamoDBStore{client: fake, table: "reports"}
	r := sampleReport()

	location, err := store.Save(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, "dynamodb://reports/run-1/"+r.Timestamp, location)

	require.Len(t, fake.inputs, 1)
	input := fake.inputs[0]
	assert.Equal(t, "reports", *input.TableName)
	assert.Equal(t, &types.AttributeValueMemberS{Value: "run-1"}, input.Item["runId"])
	assert.Equal(t, &types.AttributeValueMemberS{Value: r.Timestamp}, input.Item["timestamp"])
	assert.Equal(t, &types.AttributeValueMemberN{Value: "1"}, input.Item["failed"])
	body := input.Item["report"].(*types.AttributeValueMemberS).Value
	parsed, err := ParseReport([]byte(body))
	require.NoError(t, err)
	assert.Equal(t, r, parsed)
}

package report

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const (
	// Schema of the DynamoDB table
	tablePartitionKey = "runId"
	tableSortKey      = "timestamp"
	reportAttribute   = "report"
	transportAttr     = "transport"
	failedAttribute   = "failed"

	// DefaultDynamoDBTable is used when no table name is given.
	DefaultDynamoDBTable = "mcp-test-harness-reports"
)

type dynamoDBPutter interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (
		*dynamodb.PutItemOutput, error)
}

// DynamoDBStore saves each report as one item, keyed by run ID and timestamp.
type DynamoDBStore struct {
	client dynamoDBPutter
	table  string
}

// NewDynamoDBStore creates a DynamoDBStore using the default AWS credential chain. The region and
// endpoint are optional; an endpoint is useful for a local DynamoDB.
func NewDynamoDBStore(ctx context.Context, table, region, endpoint string) (*DynamoDBStore, error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("could not load AWS configuration: %w", err)
	}
	client := dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
	if table == "" {
		table = DefaultDynamoDBTable
	}
	return &DynamoDBStore{client: client, table: table}, nil
}

func (s *DynamoDBStore) String() string { return "dynamodb table " + s.table }

func (s *DynamoDBStore) Save(ctx context.Context, r AggregateReport) (string, error) {
	data, err := r.MarshalJSON()
	if err != nil {
		return "", err
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item: map[string]types.AttributeValue{
			tablePartitionKey: &types.AttributeValueMemberS{Value: r.RunID},
			tableSortKey:      &types.AttributeValueMemberS{Value: r.Timestamp},
			transportAttr:     &types.AttributeValueMemberS{Value: r.Transport},
			failedAttribute:   &types.AttributeValueMemberN{Value: fmt.Sprint(r.Failed)},
			reportAttribute:   &types.AttributeValueMemberS{Value: string(data)},
		},
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("dynamodb://%s/%s/%s", s.table, r.RunID, r.Timestamp), nil
}

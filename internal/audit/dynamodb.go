package audit

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// DynamoDBClientInterface defines the interface for DynamoDB operations
type DynamoDBClientInterface interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

type DynamoDBAuditSink struct {
	TableName string
	client    DynamoDBClientInterface
}

// NewDynamoDBAuditSink creates a sink with the default AWS client
// (created on the first record)
func NewDynamoDBAuditSink(tableName string) AuditSink {
	return &DynamoDBAuditSink{
		TableName: tableName,
	}
}

// NewDynamoDBAuditSinkWithClient creates a sink with a custom client
// This is used for testing
func NewDynamoDBAuditSinkWithClient(tableName string, client DynamoDBClientInterface) AuditSink {
	return &DynamoDBAuditSink{
		TableName: tableName,
		client:    client,
	}
}

func (s *DynamoDBAuditSink) Record(ctx context.Context, record Record) error {
	// Initialize client if not set (for production use)
	if s.client == nil {
		cfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return fmt.Errorf("unable to load AWS SDK config: %v", err)
		}
		s.client = dynamodb.NewFromConfig(cfg)
	}

	// Convert record to DynamoDB attribute values
	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %v", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.TableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to put item in DynamoDB table %s: %v", s.TableName, err)
	}

	return nil
}

package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// TableReadyTimeout bounds how long EnsureTable waits for a table to leave
// CREATING.
const TableReadyTimeout = 2 * time.Minute

// TableCreator is the slice of the DynamoDB API needed to bootstrap tables.
type TableCreator interface {
	CreateTable(context.Context, *dynamodb.CreateTableInput, ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	DescribeTable(context.Context, *dynamodb.DescribeTableInput, ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// EnsureTable creates an on-demand table with a single string hash key and
// returns once the table is ACTIVE. An existing table is not an error, but it
// is still waited on since it may have been created moments ago.
func EnsureTable(ctx context.Context, client TableCreator, table, hashKey string, waitOpts ...func(*dynamodb.TableExistsWaiterOptions)) error {
	_, err := client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(table),
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(hashKey), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(hashKey), KeyType: types.KeyTypeHash},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	if err != nil {
		var inUse *types.ResourceInUseException
		if !errors.As(err, &inUse) {
			return fmt.Errorf("storage: create table %s: %w", table, err)
		}
	}

	waiter := dynamodb.NewTableExistsWaiter(client, waitOpts...)
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(table)}, TableReadyTimeout); err != nil {
		return fmt.Errorf("storage: wait for table %s: %w", table, err)
	}
	return nil
}

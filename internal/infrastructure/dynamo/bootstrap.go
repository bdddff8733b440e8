package dynamo

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/turo-backend/internal/config"
)

// Bootstrap creates all DynamoDB tables and GSIs if they don't already exist.
// Safe to call on every startup; tables that already exist are skipped.
func Bootstrap(ctx context.Context, client *dynamodb.Client, tables config.DynamoTables) {
	createTable(ctx, client, hashTable(tables.OTPs, keyEmail))
	enableTTL(ctx, client, tables.OTPs, "ttl")

	identities := hashTable(tables.Identities, keyIdentityID)
	identities.AttributeDefinitions = append(identities.AttributeDefinitions,
		types.AttributeDefinition{AttributeName: aws.String(keyEmail), AttributeType: types.ScalarAttributeTypeS},
	)
	identities.GlobalSecondaryIndexes = []types.GlobalSecondaryIndex{gsi(emailIndex, keyEmail, "")}
	// Deletions feed the account cleanup cascade.
	identities.StreamSpecification = streamSpec(types.StreamViewTypeOldImage)
	createTable(ctx, client, identities)

	createTable(ctx, client, hashTable(tables.Users, keyUserID))

	userDetails := hashTable(tables.UserDetails, keyUserID)
	// Inserts feed registration statistics.
	userDetails.StreamSpecification = streamSpec(types.StreamViewTypeNewImage)
	createTable(ctx, client, userDetails)

	createTable(ctx, client, hashTable(tables.MentorVerifications, keyUserID))
	createTable(ctx, client, hashTable(tables.SysStats, keyStatID))
	createTable(ctx, client, hashTable(tables.DailyStats, keyDate))
	createTable(ctx, client, hashTable(tables.Activities, keyActivityID))
}

// hashTable describes an on-demand table keyed by a single string attribute.
func hashTable(name, hashKey string) *dynamodb.CreateTableInput {
	return &dynamodb.CreateTableInput{
		TableName:   aws.String(name),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(hashKey), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(hashKey), KeyType: types.KeyTypeHash},
		},
	}
}

func streamSpec(view types.StreamViewType) *types.StreamSpecification {
	return &types.StreamSpecification{
		StreamEnabled:  aws.Bool(true),
		StreamViewType: view,
	}
}

// gsi builds a GSI descriptor. If sortKey is empty, only a hash key is added.
func gsi(indexName, hashKey, sortKey string) types.GlobalSecondaryIndex {
	ks := []types.KeySchemaElement{
		{AttributeName: aws.String(hashKey), KeyType: types.KeyTypeHash},
	}
	if sortKey != "" {
		ks = append(ks, types.KeySchemaElement{
			AttributeName: aws.String(sortKey), KeyType: types.KeyTypeRange,
		})
	}
	return types.GlobalSecondaryIndex{
		IndexName:  aws.String(indexName),
		KeySchema:  ks,
		Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
	}
}

func createTable(ctx context.Context, client *dynamodb.Client, input *dynamodb.CreateTableInput) {
	_, err := client.CreateTable(ctx, input)
	if err != nil {
		// ResourceInUseException means the table already exists.
		var riue *types.ResourceInUseException
		if !errors.As(err, &riue) {
			slog.Warn("could not create table", "table", *input.TableName, "err", err)
		}
	} else {
		slog.Info("created table", "table", *input.TableName)
	}
}

func enableTTL(ctx context.Context, client *dynamodb.Client, tableName, ttlAttr string) {
	_, err := client.UpdateTimeToLive(ctx, &dynamodb.UpdateTimeToLiveInput{
		TableName: aws.String(tableName),
		TimeToLiveSpecification: &types.TimeToLiveSpecification{
			Enabled:       aws.Bool(true),
			AttributeName: aws.String(ttlAttr),
		},
	})
	if err != nil {
		slog.Warn("could not enable TTL", "table", tableName, "err", err)
	}
}

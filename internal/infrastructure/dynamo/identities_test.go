package dynamo

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turo-backend/internal/domain"
)

func testIdentity() *domain.Identity {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return &domain.Identity{IdentityID: "id-1", Email: "a@b.c", CreatedAt: now, UpdatedAt: now}
}

func TestCreateIdentityItems_IdentityAndClaimBothConditional(t *testing.T) {
	items, err := createIdentityItems("identities", testIdentity())
	require.NoError(t, err)
	require.Len(t, items, 2)

	for _, item := range items {
		require.NotNil(t, item.Put)
		assert.Equal(t, "identities", *item.Put.TableName)
		assert.Equal(t, "attribute_not_exists(#pk)", *item.Put.ConditionExpression)
		assert.Equal(t, "identity_id", item.Put.ExpressionAttributeNames["#pk"])
	}

	ident := items[identityItem].Put.Item
	assert.Equal(t, &types.AttributeValueMemberS{Value: "id-1"}, ident["identity_id"])
	assert.Equal(t, &types.AttributeValueMemberS{Value: "a@b.c"}, ident["email"])

	claim := items[claimItem].Put.Item
	assert.Equal(t, &types.AttributeValueMemberS{Value: "email#a@b.c"}, claim["identity_id"])
	assert.Equal(t, &types.AttributeValueMemberS{Value: "id-1"}, claim["owner_id"])
	assert.NotContains(t, claim, "email", "claim must stay out of the email index")
}

func TestDeleteIdentityItems_ReleasesOwnedClaim(t *testing.T) {
	items := deleteIdentityItems("identities", testIdentity())
	require.Len(t, items, 2)

	del := items[identityItem].Delete
	require.NotNil(t, del)
	assert.Equal(t, &types.AttributeValueMemberS{Value: "id-1"}, del.Key["identity_id"])
	assert.Equal(t, "attribute_exists(#pk)", *del.ConditionExpression)

	claim := items[claimItem].Delete
	require.NotNil(t, claim)
	assert.Equal(t, &types.AttributeValueMemberS{Value: "email#a@b.c"}, claim.Key["identity_id"])
	assert.Equal(t, "attribute_not_exists(#pk) OR #owner = :owner", *claim.ConditionExpression)
	assert.Equal(t, "owner_id", claim.ExpressionAttributeNames["#owner"])
	assert.Equal(t, &types.AttributeValueMemberS{Value: "id-1"}, claim.ExpressionAttributeValues[":owner"])
}

func TestCancelledBy(t *testing.T) {
	cancelled := func(codes ...string) error {
		reasons := make([]types.CancellationReason, len(codes))
		for i, c := range codes {
			reasons[i] = types.CancellationReason{Code: aws.String(c)}
		}
		return fmt.Errorf("transact: %w", &types.TransactionCanceledException{CancellationReasons: reasons})
	}

	tests := []struct {
		name  string
		err   error
		index int
		want  bool
	}{
		{"claim taken", cancelled("None", "ConditionalCheckFailed"), claimItem, true},
		{"claim taken is not identity failure", cancelled("None", "ConditionalCheckFailed"), identityItem, false},
		{"identity gone", cancelled("ConditionalCheckFailed", "None"), identityItem, true},
		{"conflict is not a condition failure", cancelled("None", "TransactionConflict"), claimItem, false},
		{"missing reasons", cancelled(), claimItem, false},
		{"other error", errors.New("boom"), claimItem, false},
		{"nil", nil, claimItem, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cancelledBy(tt.err, tt.index))
		})
	}
}

func TestEmailClaimKey(t *testing.T) {
	key := domain.EmailClaimKey("a@b.c")
	assert.Equal(t, "email#a@b.c", key)
	assert.True(t, domain.IsEmailClaim(key))
	assert.False(t, domain.IsEmailClaim("01HZY3"))
}

package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/turo-backend/internal/domain"
	"github.com/turo-backend/internal/pkg/id"
)

// IdentityRepo is the identity provider's user store.
type IdentityRepo struct {
	client *dynamodb.Client
	table  string
}

func NewIdentityRepo(client *dynamodb.Client, table string) *IdentityRepo {
	return &IdentityRepo{client: client, table: table}
}

// Create and Delete write the identity and its email claim together.
// Index of each item within those transactions:
const (
	identityItem = 0
	claimItem    = 1
)

func (r *IdentityRepo) Get(ctx context.Context, identityID string) (*domain.Identity, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.table),
		Key:            strKey(keyIdentityID, identityID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, domain.ErrNotFound
	}
	var ident domain.Identity
	if err := attributevalue.UnmarshalMap(out.Item, &ident); err != nil {
		return nil, fmt.Errorf("unmarshal identity: %w", err)
	}
	return &ident, nil
}

// GetByEmail resolves the email claim with a consistent read and falls back to
// the email GSI for identities that predate claims.
func (r *IdentityRepo) GetByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	owner, err := r.claimOwner(ctx, email)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if owner != "" {
		return r.Get(ctx, owner)
	}

	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.table),
		IndexName:              aws.String(emailIndex),
		KeyConditionExpression: aws.String("#e = :e"),
		ExpressionAttributeNames: map[string]string{
			"#e": keyEmail,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":e": &types.AttributeValueMemberS{Value: email},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, domain.ErrNotFound
	}
	var ident domain.Identity
	if err := attributevalue.UnmarshalMap(out.Items[0], &ident); err != nil {
		return nil, fmt.Errorf("unmarshal identity: %w", err)
	}
	return &ident, nil
}

// Create registers a new enabled identity for email. When another caller has
// already claimed the email, the existing identity is returned instead.
func (r *IdentityRepo) Create(ctx context.Context, email string) (*domain.Identity, error) {
	now := time.Now().UTC()
	ident := &domain.Identity{
		IdentityID: id.New(),
		Email:      email,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	items, err := createIdentityItems(r.table, ident)
	if err != nil {
		return nil, err
	}
	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: items,
	})
	if cancelledBy(err, claimItem) {
		owner, err := r.claimOwner(ctx, email)
		if err != nil {
			return nil, fmt.Errorf("resolve email claim: %w", err)
		}
		return r.Get(ctx, owner)
	}
	if err != nil {
		return nil, err
	}
	return ident, nil
}

// Delete removes the identity and releases its email claim. Missing identities
// yield ErrNotFound.
func (r *IdentityRepo) Delete(ctx context.Context, identityID string) error {
	ident, err := r.Get(ctx, identityID)
	if err != nil {
		return err
	}
	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: deleteIdentityItems(r.table, ident),
	})
	if cancelledBy(err, identityItem) {
		return domain.ErrNotFound
	}
	return err
}

// claimOwner returns the identity id holding the email claim, or ErrNotFound.
func (r *IdentityRepo) claimOwner(ctx context.Context, email string) (string, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.table),
		Key:            strKey(keyIdentityID, domain.EmailClaimKey(email)),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return "", err
	}
	owner, ok := out.Item[fieldOwnerID].(*types.AttributeValueMemberS)
	if !ok || owner.Value == "" {
		return "", domain.ErrNotFound
	}
	return owner.Value, nil
}

// createIdentityItems puts the identity and its email claim, each only if absent.
// The claim carries no email attribute so it stays out of the email GSI.
func createIdentityItems(table string, ident *domain.Identity) ([]types.TransactWriteItem, error) {
	item, err := attributevalue.MarshalMap(ident)
	if err != nil {
		return nil, fmt.Errorf("marshal identity: %w", err)
	}
	claim := map[string]types.AttributeValue{
		keyIdentityID: &types.AttributeValueMemberS{Value: domain.EmailClaimKey(ident.Email)},
		fieldOwnerID:  &types.AttributeValueMemberS{Value: ident.IdentityID},
	}
	put := func(item map[string]types.AttributeValue) types.TransactWriteItem {
		return types.TransactWriteItem{Put: &types.Put{
			TableName:           aws.String(table),
			Item:                item,
			ConditionExpression: aws.String("attribute_not_exists(#pk)"),
			ExpressionAttributeNames: map[string]string{
				"#pk": keyIdentityID,
			},
		}}
	}
	items := make([]types.TransactWriteItem, 2)
	items[identityItem] = put(item)
	items[claimItem] = put(claim)
	return items, nil
}

// deleteIdentityItems removes the identity and the claim it owns. A missing
// claim is tolerated; a claim owned by someone else cancels the delete.
func deleteIdentityItems(table string, ident *domain.Identity) []types.TransactWriteItem {
	items := make([]types.TransactWriteItem, 2)
	items[identityItem] = types.TransactWriteItem{Delete: &types.Delete{
		TableName:           aws.String(table),
		Key:                 strKey(keyIdentityID, ident.IdentityID),
		ConditionExpression: aws.String("attribute_exists(#pk)"),
		ExpressionAttributeNames: map[string]string{
			"#pk": keyIdentityID,
		},
	}}
	items[claimItem] = types.TransactWriteItem{Delete: &types.Delete{
		TableName:           aws.String(table),
		Key:                 strKey(keyIdentityID, domain.EmailClaimKey(ident.Email)),
		ConditionExpression: aws.String("attribute_not_exists(#pk) OR #owner = :owner"),
		ExpressionAttributeNames: map[string]string{
			"#pk":    keyIdentityID,
			"#owner": fieldOwnerID,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":owner": &types.AttributeValueMemberS{Value: ident.IdentityID},
		},
	}}
	return items
}

// cancelledBy reports whether err is a transaction cancellation caused by a
// failed condition on the item at index.
func cancelledBy(err error, index int) bool {
	var tce *types.TransactionCanceledException
	if !errors.As(err, &tce) || index >= len(tce.CancellationReasons) {
		return false
	}
	return aws.ToString(tce.CancellationReasons[index].Code) == "ConditionalCheckFailed"
}

// SetDisabled flips the disabled flag. Missing identities yield ErrNotFound.
func (r *IdentityRepo) SetDisabled(ctx context.Context, identityID string, disabled bool) error {
	ue, err := buildUpdateExpr(map[string]interface{}{
		fieldDisabled:  disabled,
		fieldUpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	ue.Names["#pk"] = keyIdentityID
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.table),
		Key:                       strKey(keyIdentityID, identityID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(#pk)"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return notFoundOnConditionFailure(err)
}

// Delete removes the identity. Missing identities yield ErrNotFound.
func (r *IdentityRepo) Delete(ctx context.Context, identityID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(r.table),
		Key:                 strKey(keyIdentityID, identityID),
		ConditionExpression: aws.String("attribute_exists(#pk)"),
		ExpressionAttributeNames: map[string]string{
			"#pk": keyIdentityID,
		},
	})
	return notFoundOnConditionFailure(err)
}

func notFoundOnConditionFailure(err error) error {
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return domain.ErrNotFound
	}
	return err
}

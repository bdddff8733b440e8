package dynamo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/turo-backend/internal/config"
	"github.com/turo-backend/internal/domain"
)

// ProfileRepo owns the three profile layers: users (public), user_details
// (private) and mentor_verifications (admin). Writes that span layers go
// through TransactWriteItems so they commit all-or-nothing.
type ProfileRepo struct {
	client        *dynamodb.Client
	users         string
	details       string
	verifications string
}

func NewProfileRepo(client *dynamodb.Client, tables config.DynamoTables) *ProfileRepo {
	return &ProfileRepo{
		client:        client,
		users:         tables.Users,
		details:       tables.UserDetails,
		verifications: tables.MentorVerifications,
	}
}

// Save merges all three documents of w in one transaction.
func (r *ProfileRepo) Save(ctx context.Context, w *domain.ProfileWrite) error {
	items, err := r.saveItems(w)
	if err != nil {
		return err
	}
	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: items,
	})
	return err
}

func (r *ProfileRepo) saveItems(w *domain.ProfileWrite) ([]types.TransactWriteItem, error) {
	public, err := mergeUpdate(r.users, w.UserID, w.Public, nil)
	if err != nil {
		return nil, fmt.Errorf("public profile: %w", err)
	}
	private, err := mergeUpdate(r.details, w.UserID, w.Private, nil)
	if err != nil {
		return nil, fmt.Errorf("private detail: %w", err)
	}

	av, err := attributevalue.MarshalMap(w.Verification)
	if err != nil {
		return nil, fmt.Errorf("marshal verification: %w", err)
	}
	set := make(map[string]interface{}, len(av))
	for k, v := range av {
		set[k] = v
	}
	add := map[string]interface{}{}
	if ss, err := certificateSet(w.Verification.Credentials); err != nil {
		return nil, err
	} else if ss != nil {
		add[fieldCredentials] = ss
	}
	if ss, err := certificateSet(w.Verification.Achievements); err != nil {
		return nil, err
	} else if ss != nil {
		add[fieldAchievements] = ss
	}
	verification, err := mergeUpdate(r.verifications, w.UserID, set, add)
	if err != nil {
		return nil, fmt.Errorf("verification: %w", err)
	}

	return []types.TransactWriteItem{{Update: public}, {Update: private}, {Update: verification}}, nil
}

// mergeUpdate builds an upsert that overwrites only the supplied top-level
// attributes. The key attribute is never rewritten.
func mergeUpdate(table, userID string, set, add map[string]interface{}) (*types.Update, error) {
	fields := make(map[string]interface{}, len(set))
	for k, v := range set {
		if k == keyUserID {
			continue
		}
		fields[k] = v
	}
	ue, err := buildUpdate(fields, add)
	if err != nil {
		return nil, err
	}
	return &types.Update{
		TableName:                 aws.String(table),
		Key:                       strKey(keyUserID, userID),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	}, nil
}

// certificateSet encodes certs as a String Set of canonical JSON. ADDing it
// to an existing set is a union: an entry equal in every field to one already
// stored is not duplicated, and order is not preserved. Returns nil for an
// empty list since DynamoDB rejects empty sets.
func certificateSet(certs []domain.Certificate) (types.AttributeValue, error) {
	if len(certs) == 0 {
		return nil, nil
	}
	seen := make(map[string]struct{}, len(certs))
	values := make([]string, 0, len(certs))
	for _, c := range certs {
		b, err := json.Marshal(c)
		if err != nil {
			return nil, fmt.Errorf("marshal certificate: %w", err)
		}
		s := string(b)
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		values = append(values, s)
	}
	return &types.AttributeValueMemberSS{Value: values}, nil
}

// DeleteAll removes the user's document from every profile layer atomically.
// Layers that hold no document for userID are ignored.
func (r *ProfileRepo) DeleteAll(ctx context.Context, userID string) error {
	var items []types.TransactWriteItem
	for _, table := range []string{r.users, r.details, r.verifications} {
		items = append(items, types.TransactWriteItem{
			Delete: &types.Delete{
				TableName: aws.String(table),
				Key:       strKey(keyUserID, userID),
			},
		})
	}
	_, err := r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: items,
	})
	return err
}

// SetDetailActive updates is_active on an existing private detail.
// A missing document yields ErrNotFound.
func (r *ProfileRepo) SetDetailActive(ctx context.Context, userID string, active bool) error {
	ue, err := buildUpdateExpr(map[string]interface{}{
		fieldIsActive:  active,
		fieldUpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	ue.Names["#pk"] = keyUserID
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.details),
		Key:                       strKey(keyUserID, userID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(#pk)"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return notFoundOnConditionFailure(err)
}

// SetPublicActive merges is_active into the public profile, creating it if absent.
func (r *ProfileRepo) SetPublicActive(ctx context.Context, userID string, active bool) error {
	upd, err := mergeUpdate(r.users, userID, map[string]interface{}{fieldIsActive: active}, nil)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 upd.TableName,
		Key:                       upd.Key,
		UpdateExpression:          upd.UpdateExpression,
		ExpressionAttributeNames:  upd.ExpressionAttributeNames,
		ExpressionAttributeValues: upd.ExpressionAttributeValues,
	})
	return err
}

func (r *ProfileRepo) GetPublic(ctx context.Context, userID string) (*domain.PublicProfile, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.users),
		Key:       strKey(keyUserID, userID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, domain.ErrNotFound
	}
	var p domain.PublicProfile
	if err := attributevalue.UnmarshalMap(out.Item, &p); err != nil {
		return nil, fmt.Errorf("unmarshal public profile: %w", err)
	}
	return &p, nil
}

// ScanMissingTimestamps walks every public profile and returns those lacking
// created_at or updated_at, along with the number of documents scanned.
func (r *ProfileRepo) ScanMissingTimestamps(ctx context.Context) ([]domain.TimestampBackfill, int, error) {
	p := dynamodb.NewScanPaginator(r.client, &dynamodb.ScanInput{
		TableName:            aws.String(r.users),
		ProjectionExpression: aws.String("#pk, #c, #u"),
		ExpressionAttributeNames: map[string]string{
			"#pk": keyUserID,
			"#c":  fieldCreatedAt,
			"#u":  fieldUpdatedAt,
		},
	})
	var (
		missing []domain.TimestampBackfill
		scanned int
	)
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, scanned, err
		}
		for _, item := range page.Items {
			scanned++
			if b, ok := timestampGaps(item); ok {
				missing = append(missing, b)
			}
		}
	}
	return missing, scanned, nil
}

func timestampGaps(item map[string]types.AttributeValue) (domain.TimestampBackfill, bool) {
	key, _ := item[keyUserID].(*types.AttributeValueMemberS)
	if key == nil {
		return domain.TimestampBackfill{}, false
	}
	b := domain.TimestampBackfill{
		UserID:     key.Value,
		SetCreated: isAbsent(item[fieldCreatedAt]),
		SetUpdated: isAbsent(item[fieldUpdatedAt]),
	}
	return b, b.SetCreated || b.SetUpdated
}

// isAbsent treats only a missing attribute as absent; an explicit NULL counts as set.
func isAbsent(av types.AttributeValue) bool {
	return av == nil
}

// BackfillTimestamps writes now into each missing timestamp, committing at
// most maxTransactItems updates per transaction.
func (r *ProfileRepo) BackfillTimestamps(ctx context.Context, fixes []domain.TimestampBackfill, now time.Time) error {
	items := make([]types.TransactWriteItem, 0, len(fixes))
	for _, f := range fixes {
		if upd := backfillUpdate(r.users, f, now); upd != nil {
			items = append(items, types.TransactWriteItem{Update: upd})
		}
	}
	for start := 0; start < len(items); start += maxTransactItems {
		end := min(start+maxTransactItems, len(items))
		if _, err := r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
			TransactItems: items[start:end],
		}); err != nil {
			return fmt.Errorf("commit backfill batch at %d: %w", start, err)
		}
	}
	return nil
}

func backfillUpdate(table string, f domain.TimestampBackfill, now time.Time) *types.Update {
	names := map[string]string{}
	var clauses []string
	if f.SetCreated {
		names["#c"] = fieldCreatedAt
		clauses = append(clauses, "#c = :now")
	}
	if f.SetUpdated {
		names["#u"] = fieldUpdatedAt
		clauses = append(clauses, "#u = :now")
	}
	if len(clauses) == 0 {
		return nil
	}
	expr := "SET " + clauses[0]
	if len(clauses) > 1 {
		expr += ", " + clauses[1]
	}
	return &types.Update{
		TableName:                aws.String(table),
		Key:                      strKey(keyUserID, f.UserID),
		UpdateExpression:         aws.String(expr),
		ExpressionAttributeNames: names,
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":now": timestampAV(now),
		},
	}
}

package dynamo

import (
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turo-backend/internal/domain"
)

func testProfileRepo() *ProfileRepo {
	return &ProfileRepo{users: "users", details: "user_details", verifications: "mentor_verifications"}
}

func TestSaveItems_ThreeLayersNeverRewriteKey(t *testing.T) {
	r := testProfileRepo()
	w := &domain.ProfileWrite{
		UserID:  "u1",
		Public:  domain.Document{"display_name": "Ana", "user_id": "spoofed"},
		Private: domain.Document{"phone": "123"},
		Verification: domain.MentorVerification{
			UserID:             "u1",
			VerificationStatus: domain.VerificationStatusPending,
			UpdatedAt:          time.Now(),
		},
	}

	items, err := r.saveItems(w)
	require.NoError(t, err)
	require.Len(t, items, 3)

	tables := []string{"users", "user_details", "mentor_verifications"}
	for i, item := range items {
		require.NotNil(t, item.Update)
		assert.Equal(t, tables[i], *item.Update.TableName)
		assert.Equal(t, &types.AttributeValueMemberS{Value: "u1"}, item.Update.Key["user_id"])
		assert.NotContains(t, namesOf(item.Update), "user_id")
	}
	assert.Contains(t, namesOf(items[2].Update), "verification_status")
	assert.NotContains(t, namesOf(items[2].Update), "credentials")
}

func TestSaveItems_CertificatesAreAddedAsSets(t *testing.T) {
	r := testProfileRepo()
	w := &domain.ProfileWrite{
		UserID:  "u1",
		Public:  domain.Document{"updated_at": "x"},
		Private: domain.Document{"updated_at": "x"},
		Verification: domain.MentorVerification{
			Credentials:  []domain.Certificate{{Title: aws.String("BSc"), Year: aws.String("2020")}},
			Achievements: []domain.Certificate{{Title: aws.String("Award")}},
		},
	}

	items, err := r.saveItems(w)
	require.NoError(t, err)

	upd := items[2].Update
	assert.Contains(t, *upd.UpdateExpression, " ADD ")
	assert.Contains(t, namesOf(upd), "credentials")
	assert.Contains(t, namesOf(upd), "achievements")
}

func TestCertificateSet_CanonicalAndDeduplicated(t *testing.T) {
	c := domain.Certificate{Title: aws.String("BSc"), Year: aws.String("2020"), CertificateURL: aws.String("https://x")}
	av, err := certificateSet([]domain.Certificate{c, c, {Title: aws.String("MSc")}})
	require.NoError(t, err)

	ss, ok := av.(*types.AttributeValueMemberSS)
	require.True(t, ok)
	assert.Equal(t, []string{
		`{"title":"BSc","year":"2020","certificateUrl":"https://x"}`,
		`{"title":"MSc","year":null}`,
	}, ss.Value)
}

func TestCertificateSet_EmptyIsNil(t *testing.T) {
	av, err := certificateSet(nil)
	require.NoError(t, err)
	assert.Nil(t, av)
}

func TestTimestampGaps(t *testing.T) {
	ts := &types.AttributeValueMemberS{Value: "2026-01-01T00:00:00Z"}
	tests := []struct {
		name string
		item map[string]types.AttributeValue
		want domain.TimestampBackfill
		ok   bool
	}{
		{
			name: "complete",
			item: map[string]types.AttributeValue{"user_id": &types.AttributeValueMemberS{Value: "a"}, "created_at": ts, "updated_at": ts},
		},
		{
			name: "missing both",
			item: map[string]types.AttributeValue{"user_id": &types.AttributeValueMemberS{Value: "b"}},
			want: domain.TimestampBackfill{UserID: "b", SetCreated: true, SetUpdated: true},
			ok:   true,
		},
		{
			name: "missing updated",
			item: map[string]types.AttributeValue{
				"user_id":    &types.AttributeValueMemberS{Value: "c"},
				"created_at": ts,
			},
			want: domain.TimestampBackfill{UserID: "c", SetUpdated: true},
			ok:   true,
		},
		{
			name: "explicit null counts as present",
			item: map[string]types.AttributeValue{
				"user_id":    &types.AttributeValueMemberS{Value: "d"},
				"created_at": &types.AttributeValueMemberNULL{Value: true},
				"updated_at": ts,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := timestampGaps(tt.item)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestBackfillUpdate(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	upd := backfillUpdate("users", domain.TimestampBackfill{UserID: "u", SetCreated: true, SetUpdated: true}, now)
	require.NotNil(t, upd)
	assert.Equal(t, "SET #c = :now, #u = :now", *upd.UpdateExpression)
	assert.Equal(t, &types.AttributeValueMemberS{Value: "2026-01-02T03:04:05Z"}, upd.ExpressionAttributeValues[":now"])

	upd = backfillUpdate("users", domain.TimestampBackfill{UserID: "u", SetUpdated: true}, now)
	assert.Equal(t, "SET #u = :now", *upd.UpdateExpression)
	assert.Equal(t, map[string]string{"#u": "updated_at"}, upd.ExpressionAttributeNames)

	assert.Nil(t, backfillUpdate("users", domain.TimestampBackfill{UserID: "u"}, now))
}

package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/turo-backend/internal/domain"
)

// StatsRepo maintains the dashboard counters and per-day registration buckets.
type StatsRepo struct {
	client *dynamodb.Client
	sys    string
	daily  string
}

func NewStatsRepo(client *dynamodb.Client, sysTable, dailyTable string) *StatsRepo {
	return &StatsRepo{client: client, sys: sysTable, daily: dailyTable}
}

// RecordRegistration counts one new user of the given role in both the
// global counters and today's UTC bucket, atomically.
func (r *StatsRepo) RecordRegistration(ctx context.Context, role string, now time.Time) error {
	global, daily, err := r.registrationUpdates(role, now)
	if err != nil {
		return err
	}
	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{{Update: global}, {Update: daily}},
	})
	return err
}

func (r *StatsRepo) registrationUpdates(role string, now time.Time) (*types.Update, *types.Update, error) {
	globalAdd := map[string]interface{}{
		fieldTotalUsers:  numberAV(1),
		fieldNewUsers24h: numberAV(1),
	}
	dailyAdd := map[string]interface{}{
		fieldTotalRegistrations: numberAV(1),
	}
	if role == domain.RoleMentor || role == domain.RoleMentee {
		globalAdd[fmt.Sprintf("total_%ss", role)] = numberAV(1)
		dailyAdd[fmt.Sprintf("new_%ss", role)] = numberAV(1)
	}

	g, err := buildUpdate(map[string]interface{}{fieldLastUpdated: timestampAV(now)}, globalAdd)
	if err != nil {
		return nil, nil, err
	}
	d, err := buildUpdate(nil, dailyAdd)
	if err != nil {
		return nil, nil, err
	}

	global := &types.Update{
		TableName:                 aws.String(r.sys),
		Key:                       strKey(keyStatID, domain.DashboardCountersID),
		UpdateExpression:          aws.String(g.Expr),
		ExpressionAttributeNames:  g.Names,
		ExpressionAttributeValues: g.Values,
	}
	daily := &types.Update{
		TableName:                 aws.String(r.daily),
		Key:                       strKey(keyDate, domain.DateKey(now)),
		UpdateExpression:          aws.String(d.Expr),
		ExpressionAttributeNames:  d.Names,
		ExpressionAttributeValues: d.Values,
	}
	return global, daily, nil
}

// ResetDaily zeroes the rolling 24-hour counter.
func (r *StatsRepo) ResetDaily(ctx context.Context, now time.Time) error {
	ue, err := buildUpdateExpr(map[string]interface{}{
		fieldNewUsers24h: numberAV(0),
		fieldLastUpdated: timestampAV(now),
	})
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.sys),
		Key:                       strKey(keyStatID, domain.DashboardCountersID),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return err
}

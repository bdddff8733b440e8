package sns

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/turo-backend/internal/domain"
)

type mockPublishAPI struct{ mock.Mock }

func (m *mockPublishAPI) Publish(ctx context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*sns.PublishOutput)
	return out, args.Error(1)
}

func TestPublish_NoTopicIsNoop(t *testing.T) {
	p := NewActivityPublisher(nil, "")
	assert.NoError(t, p.Publish(context.Background(), &domain.Activity{EventType: domain.EventUserBanned}))
}

func TestPublish_SendsActivityWithEventType(t *testing.T) {
	api := &mockPublishAPI{}
	var sent *sns.PublishInput
	api.On("Publish", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { sent = args.Get(1).(*sns.PublishInput) }).
		Return(&sns.PublishOutput{MessageId: aws.String("m-1")}, nil)

	a := &domain.Activity{
		ActivityID:  "act-1",
		EventType:   domain.EventUserBanned,
		Description: "User banned",
		UserID:      "u1",
		ActorID:     "admin-1",
		Timestamp:   time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	require.NoError(t, NewActivityPublisher(api, "arn:aws:sns:us-east-1:000000000000:audit").Publish(context.Background(), a))

	require.NotNil(t, sent)
	assert.Equal(t, "arn:aws:sns:us-east-1:000000000000:audit", aws.ToString(sent.TopicArn))

	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(sent.Message)), &body))
	assert.Equal(t, "act-1", body["id"])
	assert.Equal(t, domain.EventUserBanned, body["event_type"])
	assert.Equal(t, "u1", body["user_id"])
	assert.Equal(t, "admin-1", body["actor_id"])

	attr, ok := sent.MessageAttributes["event_type"]
	require.True(t, ok)
	assert.Equal(t, "String", aws.ToString(attr.DataType))
	assert.Equal(t, domain.EventUserBanned, aws.ToString(attr.StringValue))
	api.AssertExpectations(t)
}

func TestPublish_ClientErrorIsReturned(t *testing.T) {
	api := &mockPublishAPI{}
	boom := errors.New("throttled")
	api.On("Publish", mock.Anything, mock.Anything).Return(nil, boom)

	err := NewActivityPublisher(api, "arn:topic").Publish(context.Background(), &domain.Activity{EventType: domain.EventUserDeleted})

	assert.ErrorIs(t, err, boom)
}

package sns

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) Publish(ctx context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*sns.PublishOutput)
	return out, args.Error(1)
}

func TestSendSMS_PublishesTransactional(t *testing.T) {
	pub := &mockPublisher{}
	pub.On("Publish", mock.Anything, mock.MatchedBy(func(in *sns.PublishInput) bool {
		attr, ok := in.MessageAttributes["AWS.SNS.SMS.SMSType"]
		return aws.ToString(in.PhoneNumber) == "+989121234567" &&
			aws.ToString(in.Message) == "Your code: 12345" &&
			ok && aws.ToString(attr.StringValue) == "Transactional"
	})).Return(&sns.PublishOutput{}, nil)

	s := &sender{client: pub}
	require.NoError(t, s.SendSMS(context.Background(), "+989121234567", "Your code: 12345"))
	pub.AssertExpectations(t)
}

func TestSendSMS_PropagatesError(t *testing.T) {
	pub := &mockPublisher{}
	pub.On("Publish", mock.Anything, mock.Anything).Return(nil, errors.New("throttled"))

	s := &sender{client: pub}
	assert.EqualError(t, s.SendSMS(context.Background(), "+1", "x"), "throttled")
}

package dynamo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-otp-auth/internal/config"
	"github.com/go-otp-auth/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mock ---

type mockAPI struct{ mock.Mock }

func (m *mockAPI) GetItem(ctx context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.GetItemOutput)
	return out, args.Error(1)
}
func (m *mockAPI) UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.UpdateItemOutput)
	return out, args.Error(1)
}
func (m *mockAPI) DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.DeleteItemOutput)
	return out, args.Error(1)
}
func (m *mockAPI) TransactWriteItems(ctx context.Context, in *dynamodb.TransactWriteItemsInput, _ ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.TransactWriteItemsOutput)
	return out, args.Error(1)
}
func (m *mockAPI) CreateTable(ctx context.Context, in *dynamodb.CreateTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.CreateTableOutput)
	return out, args.Error(1)
}
func (m *mockAPI) UpdateTimeToLive(ctx context.Context, in *dynamodb.UpdateTimeToLiveInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateTimeToLiveOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.UpdateTimeToLiveOutput)
	return out, args.Error(1)
}

func strAttr(v string) types.AttributeValue { return &types.AttributeValueMemberS{Value: v} }

func tableIs(name string) interface{} {
	return mock.MatchedBy(func(in *dynamodb.GetItemInput) bool { return aws.ToString(in.TableName) == name })
}

func newAccountRepo(api *mockAPI) *AccountRepo {
	return NewAccountRepo(api, "accounts", "account_identifiers", time.Second)
}

// --- AccountRepo ---

func TestAccountRepo_FindBy_NotFound(t *testing.T) {
	api := &mockAPI{}
	api.On("GetItem", mock.Anything, tableIs("account_identifiers")).Return(&dynamodb.GetItemOutput{}, nil)

	_, err := newAccountRepo(api).FindBy(context.Background(), domain.MethodEmail, "a@b.com")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestAccountRepo_FindBy_ResolvesThroughIdentifier(t *testing.T) {
	api := &mockAPI{}
	api.On("GetItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.GetItemInput) bool {
		key, _ := in.Key[fieldIdentifier].(*types.AttributeValueMemberS)
		return aws.ToString(in.TableName) == "account_identifiers" && key != nil && key.Value == "phone#+989121234567"
	})).Return(&dynamodb.GetItemOutput{Item: map[string]types.AttributeValue{
		fieldIdentifier: strAttr("phone#+989121234567"),
		fieldAccountID:  strAttr("acc1"),
	}}, nil)
	api.On("GetItem", mock.Anything, tableIs("accounts")).Return(&dynamodb.GetItemOutput{Item: map[string]types.AttributeValue{
		fieldAccountID: strAttr("acc1"),
		"username":     strAttr("m_x"),
		"phone":        strAttr("+989121234567"),
	}}, nil)

	a, err := newAccountRepo(api).FindBy(context.Background(), domain.MethodPhone, "+989121234567")
	require.NoError(t, err)
	assert.Equal(t, "acc1", a.AccountID)
	require.NotNil(t, a.Phone)
	assert.Equal(t, "+989121234567", *a.Phone)
	assert.Nil(t, a.Email)
	api.AssertExpectations(t)
}

func TestAccountRepo_Create_WritesIdentifierRows(t *testing.T) {
	api := &mockAPI{}
	var got *dynamodb.TransactWriteItemsInput
	api.On("TransactWriteItems", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { got = args.Get(1).(*dynamodb.TransactWriteItemsInput) }).
		Return(&dynamodb.TransactWriteItemsOutput{}, nil)

	email := "a@b.com"
	err := newAccountRepo(api).Create(context.Background(), &domain.Account{AccountID: "acc1", Username: "m_x", Email: &email})
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Len(t, got.TransactItems, 3)

	assert.Equal(t, "accounts", aws.ToString(got.TransactItems[0].Put.TableName))
	var idents []string
	for _, ti := range got.TransactItems[1:] {
		assert.Equal(t, "account_identifiers", aws.ToString(ti.Put.TableName))
		assert.Equal(t, "attribute_not_exists(identifier)", aws.ToString(ti.Put.ConditionExpression))
		idents = append(idents, ti.Put.Item[fieldIdentifier].(*types.AttributeValueMemberS).Value)
	}
	assert.ElementsMatch(t, []string{"username#m_x", "email#a@b.com"}, idents)
}

func TestAccountRepo_Create_Conflict(t *testing.T) {
	api := &mockAPI{}
	api.On("TransactWriteItems", mock.Anything, mock.Anything).Return(nil, &types.TransactionCanceledException{
		CancellationReasons: []types.CancellationReason{{Code: aws.String("None")}, {Code: aws.String("ConditionalCheckFailed")}},
	})

	phone := "+989121234567"
	err := newAccountRepo(api).Create(context.Background(), &domain.Account{AccountID: "acc1", Username: "m_x", Phone: &phone})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDuplicateAccount))
}

func TestAccountRepo_Create_OtherErrorPassesThrough(t *testing.T) {
	api := &mockAPI{}
	boom := errors.New("network down")
	api.On("TransactWriteItems", mock.Anything, mock.Anything).Return(nil, boom)

	err := newAccountRepo(api).Create(context.Background(), &domain.Account{AccountID: "acc1", Username: "u"})
	assert.ErrorIs(t, err, boom)
	assert.False(t, errors.Is(err, domain.ErrDuplicateAccount))
}

func TestAccountRepo_MarkVerified_MissingAccount(t *testing.T) {
	api := &mockAPI{}
	api.On("UpdateItem", mock.Anything, mock.Anything).Return(nil, &types.ConditionalCheckFailedException{})

	err := newAccountRepo(api).MarkVerified(context.Background(), "ghost", time.Now())
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

// --- OtpRepo ---

func TestOtpRepo_Upsert_SingleAtomicUpdate(t *testing.T) {
	api := &mockAPI{}
	api.On("UpdateItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.UpdateItemInput) bool {
		key, _ := in.Key[fieldAccountID].(*types.AttributeValueMemberS)
		return aws.ToString(in.TableName) == "otps" &&
			key != nil && key.Value == "acc1" &&
			in.ReturnValues == types.ReturnValueAllNew &&
			aws.ToString(in.UpdateExpression) == "SET #f0 = :v0, #f1 = :v1, #f2 = :v2" &&
			in.ExpressionAttributeNames["#f0"] == fieldAttempts
	})).Return(&dynamodb.UpdateItemOutput{Attributes: map[string]types.AttributeValue{
		fieldAccountID: strAttr("acc1"),
		fieldCode:      strAttr("12345"),
		fieldExpiresAt: &types.AttributeValueMemberN{Value: "1700000120"},
	}}, nil)

	o, err := NewOtpRepo(api, "otps", time.Second).Upsert(context.Background(), "acc1", "12345", 1700000120)
	require.NoError(t, err)
	assert.Equal(t, "acc1", o.AccountID)
	assert.Equal(t, "12345", o.Code)
	assert.Equal(t, int64(1700000120), o.ExpiresAt)
	api.AssertNumberOfCalls(t, "UpdateItem", 1)
	api.AssertNotCalled(t, "GetItem", mock.Anything, mock.Anything)
}

func TestOtpRepo_Attempt_IncrementsUnderCap(t *testing.T) {
	api := &mockAPI{}
	api.On("UpdateItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.UpdateItemInput) bool {
		limit, _ := in.ExpressionAttributeValues[":max"].(*types.AttributeValueMemberN)
		return aws.ToString(in.UpdateExpression) == "ADD #a :one" &&
			in.ExpressionAttributeNames["#a"] == fieldAttempts &&
			limit != nil && limit.Value == "5" &&
			in.ReturnValues == types.ReturnValueAllNew
	})).Return(&dynamodb.UpdateItemOutput{Attributes: map[string]types.AttributeValue{
		fieldAccountID: strAttr("acc1"),
		fieldCode:      strAttr("12345"),
		fieldExpiresAt: &types.AttributeValueMemberN{Value: "1700000120"},
		fieldAttempts:  &types.AttributeValueMemberN{Value: "2"},
	}}, nil)

	o, err := NewOtpRepo(api, "otps", time.Second).Attempt(context.Background(), "acc1", 5)
	require.NoError(t, err)
	assert.Equal(t, "12345", o.Code)
	assert.Equal(t, 2, o.Attempts)
}

func TestOtpRepo_Attempt_MissingOrExhausted(t *testing.T) {
	api := &mockAPI{}
	api.On("UpdateItem", mock.Anything, mock.Anything).Return(nil, &types.ConditionalCheckFailedException{})

	_, err := NewOtpRepo(api, "otps", time.Second).Attempt(context.Background(), "acc1", 5)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestOtpRepo_Delete(t *testing.T) {
	api := &mockAPI{}
	api.On("DeleteItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.DeleteItemInput) bool {
		key, _ := in.Key[fieldAccountID].(*types.AttributeValueMemberS)
		return key != nil && key.Value == "acc1" && in.ConditionExpression == nil
	})).Return(&dynamodb.DeleteItemOutput{}, nil)

	require.NoError(t, NewOtpRepo(api, "otps", time.Second).Delete(context.Background(), "acc1"))
	api.AssertExpectations(t)
}

func TestOtpRepo_Consume(t *testing.T) {
	api := &mockAPI{}
	api.On("DeleteItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.DeleteItemInput) bool {
		c, _ := in.ExpressionAttributeValues[":c"].(*types.AttributeValueMemberS)
		now, _ := in.ExpressionAttributeValues[":now"].(*types.AttributeValueMemberN)
		return c != nil && c.Value == "12345" && now != nil && now.Value == "1700000000"
	})).Return(&dynamodb.DeleteItemOutput{}, nil).Once()
	api.On("DeleteItem", mock.Anything, mock.Anything).Return(nil, &types.ConditionalCheckFailedException{}).Once()

	repo := NewOtpRepo(api, "otps", time.Second)
	require.NoError(t, repo.Consume(context.Background(), "acc1", "12345", 1700000000))

	err := repo.Consume(context.Background(), "acc1", "12345", 1700000000)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

// --- Bootstrap ---

func TestBootstrap_ToleratesExistingTables(t *testing.T) {
	api := &mockAPI{}
	api.On("CreateTable", mock.Anything, mock.MatchedBy(func(in *dynamodb.CreateTableInput) bool {
		return aws.ToString(in.TableName) == "accounts"
	})).Return(nil, &types.ResourceInUseException{})
	api.On("CreateTable", mock.Anything, mock.Anything).Return(&dynamodb.CreateTableOutput{}, nil)
	api.On("UpdateTimeToLive", mock.Anything, mock.MatchedBy(func(in *dynamodb.UpdateTimeToLiveInput) bool {
		return aws.ToString(in.TableName) == "otps" &&
			aws.ToString(in.TimeToLiveSpecification.AttributeName) == fieldExpiresAt
	})).Return(&dynamodb.UpdateTimeToLiveOutput{}, nil)

	Bootstrap(context.Background(), api, config.DynamoTables{
		Accounts:           "accounts",
		AccountIdentifiers: "account_identifiers",
		OTPs:               "otps",
	})

	api.AssertNumberOfCalls(t, "CreateTable", 3)
	api.AssertNumberOfCalls(t, "UpdateTimeToLive", 1)
}

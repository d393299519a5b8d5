package dynamo

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-otp-auth/internal/domain"
)

// OtpRepo manages the single live passcode of each account.
// PK: account_id. expires_at doubles as the table TTL attribute.
type OtpRepo struct {
	client    API
	tableName string
	timeout   time.Duration
}

func NewOtpRepo(client API, tableName string, timeout time.Duration) *OtpRepo {
	return &OtpRepo{client: client, tableName: tableName, timeout: timeout}
}

// Upsert overwrites code and expiry in place and resets the attempt counter,
// creating the row if absent. One UpdateItem call, so concurrent issues for
// the same account never produce a second row.
func (r *OtpRepo) Upsert(ctx context.Context, accountID, code string, expiresAt int64) (*domain.OneTimePasscode, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	ue, err := buildUpdateExpr(map[string]interface{}{
		fieldAttempts:  0,
		fieldCode:      code,
		fieldExpiresAt: expiresAt,
	})
	if err != nil {
		return nil, err
	}
	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(fieldAccountID, accountID),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		return nil, err
	}
	var o domain.OneTimePasscode
	if err := attributevalue.UnmarshalMap(out.Attributes, &o); err != nil {
		return nil, fmt.Errorf("unmarshal otp: %w", err)
	}
	return &o, nil
}

// Attempt atomically counts one verification try against the live passcode
// and returns the row as it stands after the increment. Returns ErrNotFound
// when there is no passcode or maxAttempts tries were already used.
func (r *OtpRepo) Attempt(ctx context.Context, accountID string, maxAttempts int) (*domain.OneTimePasscode, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey(fieldAccountID, accountID),
		UpdateExpression:    aws.String("ADD #a :one"),
		ConditionExpression: aws.String("attribute_exists(#id) AND (attribute_not_exists(#a) OR #a < :max)"),
		ExpressionAttributeNames: map[string]string{
			"#a":  fieldAttempts,
			"#id": fieldAccountID,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one": &types.AttributeValueMemberN{Value: "1"},
			":max": &types.AttributeValueMemberN{Value: strconv.Itoa(maxAttempts)},
		},
		ReturnValues: types.ReturnValueAllNew,
	})
	if isConditionFailed(err) {
		return nil, fmt.Errorf("no otp attempts left: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	var o domain.OneTimePasscode
	if err := attributevalue.UnmarshalMap(out.Attributes, &o); err != nil {
		return nil, fmt.Errorf("unmarshal otp: %w", err)
	}
	return &o, nil
}

// Delete removes the passcode of accountID, if any.
func (r *OtpRepo) Delete(ctx context.Context, accountID string) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(fieldAccountID, accountID),
	})
	return err
}

// Consume deletes the passcode only if it still holds code and has not
// expired at now. Returns ErrNotFound when the condition does not hold.
func (r *OtpRepo) Consume(ctx context.Context, accountID, code string, now int64) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey(fieldAccountID, accountID),
		ConditionExpression: aws.String("#c = :c AND #e > :now"),
		ExpressionAttributeNames: map[string]string{
			"#c": fieldCode,
			"#e": fieldExpiresAt,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":c":   &types.AttributeValueMemberS{Value: code},
			":now": &types.AttributeValueMemberN{Value: strconv.FormatInt(now, 10)},
		},
	})
	if isConditionFailed(err) {
		return fmt.Errorf("otp already consumed or expired: %w", domain.ErrNotFound)
	}
	return err
}

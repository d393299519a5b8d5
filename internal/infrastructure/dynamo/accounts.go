package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-otp-auth/internal/domain"
)

// identifierRow reserves one unique login identifier for an account.
// PK: identifier ("<method>#<value>").
type identifierRow struct {
	Identifier string `dynamodbav:"identifier"`
	AccountID  string `dynamodbav:"account_id"`
}

func identifierKey(m domain.Method, value string) string {
	return string(m) + "#" + value
}

// AccountRepo stores accounts in one table and their unique identifiers
// (username, email, phone) in a second table keyed by identifier, so that
// uniqueness is enforced by conditional writes instead of GSI reads.
type AccountRepo struct {
	client           API
	tableName        string
	identifiersTable string
	timeout          time.Duration
}

func NewAccountRepo(client API, tableName, identifiersTable string, timeout time.Duration) *AccountRepo {
	return &AccountRepo{client: client, tableName: tableName, identifiersTable: identifiersTable, timeout: timeout}
}

// FindBy resolves an account through the identifier of a single method.
func (r *AccountRepo) FindBy(ctx context.Context, method domain.Method, value string) (*domain.Account, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.identifiersTable),
		Key:            strKey(fieldIdentifier, identifierKey(method, value)),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("account not found: %w", domain.ErrNotFound)
	}
	var row identifierRow
	if err := attributevalue.UnmarshalMap(out.Item, &row); err != nil {
		return nil, err
	}
	return r.get(ctx, row.AccountID)
}

func (r *AccountRepo) Get(ctx context.Context, accountID string) (*domain.Account, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()
	return r.get(ctx, accountID)
}

func (r *AccountRepo) get(ctx context.Context, accountID string) (*domain.Account, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey(fieldAccountID, accountID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("account not found: %w", domain.ErrNotFound)
	}
	var a domain.Account
	if err := attributevalue.UnmarshalMap(out.Item, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// Create writes the account and all of its identifier rows in one transaction.
// Returns ErrDuplicateAccount when any identifier is already taken.
func (r *AccountRepo) Create(ctx context.Context, a *domain.Account) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	item, err := attributevalue.MarshalMap(a)
	if err != nil {
		return fmt.Errorf("marshal account: %w", err)
	}
	writes := []types.TransactWriteItem{{
		Put: &types.Put{
			TableName:           aws.String(r.tableName),
			Item:                item,
			ConditionExpression: aws.String("attribute_not_exists(" + fieldAccountID + ")"),
		},
	}}
	for _, m := range []domain.Method{domain.MethodUsername, domain.MethodEmail, domain.MethodPhone} {
		v := a.Identifier(m)
		if v == "" {
			continue
		}
		row, err := attributevalue.MarshalMap(identifierRow{Identifier: identifierKey(m, v), AccountID: a.AccountID})
		if err != nil {
			return fmt.Errorf("marshal identifier: %w", err)
		}
		writes = append(writes, types.TransactWriteItem{
			Put: &types.Put{
				TableName:           aws.String(r.identifiersTable),
				Item:                row,
				ConditionExpression: aws.String("attribute_not_exists(" + fieldIdentifier + ")"),
			},
		})
	}

	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: writes})
	if isTransactionConflict(err) {
		return fmt.Errorf("create account: %w", domain.ErrDuplicateAccount)
	}
	return err
}

// MarkVerified stamps verified_at on an existing account.
func (r *AccountRepo) MarkVerified(ctx context.Context, accountID string, at time.Time) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	ue, err := buildUpdateExpr(map[string]interface{}{
		fieldVerifiedAt: at.UTC(),
		fieldUpdatedAt:  at.UTC(),
	})
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(fieldAccountID, accountID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(" + fieldAccountID + ")"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if isConditionFailed(err) {
		return fmt.Errorf("account not found: %w", domain.ErrNotFound)
	}
	return err
}

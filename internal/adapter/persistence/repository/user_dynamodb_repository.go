package repository

import (
	"context"
	"errors"
	"time"

	"fortunepay/internal/domain/entities"
	"fortunepay/internal/usecase/interfaces"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const (
	defaultUsersTableName = "users"
	usersPhoneIndex       = "phone-index"
)

type userItem struct {
	ID           string `dynamodbav:"id"`
	Phone        string `dynamodbav:"phone,omitempty"`
	IsVip        bool   `dynamodbav:"is_vip"`
	VipExpiresAt string `dynamodbav:"vip_expires_at,omitempty"`
}

// UserDynamoRepository reads/writes the entitlement slice of the user table.
//
// Table requirements:
//   - PK: id (string)
//   - GSI: phone-index (PK: phone)
type UserDynamoRepository struct {
	ddb       *dynamodb.Client
	tableName string
}

var _ interfaces.IUserRepository = (*UserDynamoRepository)(nil)

func NewUserDynamoRepository(ddb *dynamodb.Client) *UserDynamoRepository {
	return &UserDynamoRepository{
		ddb:       ddb,
		tableName: getenvDefault("USERS_TABLE", defaultUsersTableName),
	}
}

func (r *UserDynamoRepository) GetByID(ctx context.Context, id string) (entities.User, error) {
	out, err := r.ddb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return entities.User{}, err
	}
	if len(out.Item) == 0 {
		return entities.User{}, nil
	}

	var it userItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return entities.User{}, err
	}
	return fromUserItem(it), nil
}

func (r *UserDynamoRepository) GetByPhone(ctx context.Context, phone string) (entities.User, error) {
	out, err := r.ddb.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(usersPhoneIndex),
		KeyConditionExpression: aws.String("phone = :phone"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":phone": &types.AttributeValueMemberS{Value: phone},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return entities.User{}, err
	}
	if len(out.Items) == 0 {
		return entities.User{}, nil
	}

	var it userItem
	if err := attributevalue.UnmarshalMap(out.Items[0], &it); err != nil {
		return entities.User{}, err
	}
	return fromUserItem(it), nil
}

func (r *UserDynamoRepository) UpdateVip(ctx context.Context, id string, expiresAt time.Time) (entities.User, error) {
	out, err := r.ddb.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
		ConditionExpression: aws.String("attribute_exists(#id)"),
		UpdateExpression:    aws.String("SET #is_vip = :is_vip, #vip_expires_at = :vip_expires_at"),
		ExpressionAttributeNames: map[string]string{
			"#id":             "id",
			"#is_vip":         "is_vip",
			"#vip_expires_at": "vip_expires_at",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":is_vip":         &types.AttributeValueMemberBOOL{Value: true},
			":vip_expires_at": &types.AttributeValueMemberS{Value: expiresAt.UTC().Format(time.RFC3339Nano)},
		},
		ReturnValues: types.ReturnValueAllNew,
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return entities.User{}, ErrUserNotFound
		}
		return entities.User{}, err
	}

	var it userItem
	if err := attributevalue.UnmarshalMap(out.Attributes, &it); err != nil {
		return entities.User{}, err
	}
	return fromUserItem(it), nil
}

func fromUserItem(it userItem) entities.User {
	u := entities.User{
		ID:    it.ID,
		Phone: it.Phone,
		IsVip: it.IsVip,
	}
	if it.VipExpiresAt != "" {
		if exp, err := time.Parse(time.RFC3339Nano, it.VipExpiresAt); err == nil {
			u.VipExpiresAt = &exp
		}
	}
	return u
}

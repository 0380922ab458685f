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

const defaultOrdersTableName = "orders"

type orderItem struct {
	ID              string  `dynamodbav:"id"`
	Amount          float64 `dynamodbav:"amount"`
	Status          string  `dynamodbav:"status"`
	Method          string  `dynamodbav:"method"`
	Type            string  `dynamodbav:"type"`
	Plan            string  `dynamodbav:"plan,omitempty"`
	UserID          string  `dynamodbav:"user_id,omitempty"`
	ProviderTradeNo string  `dynamodbav:"provider_trade_no,omitempty"`
	CreatedAt       string  `dynamodbav:"created_at"`
	PaidAt          string  `dynamodbav:"paid_at,omitempty"`
}

// OrderDynamoRepository is the durable order store variant.
//
// Table requirements:
//   - PK: id (string)
//
// The pending→paid transition is a conditional UpdateItem on the status
// attribute, so provider retry storms racing on the same order resolve to
// exactly one successful transition; losers re-read and report
// wasAlreadyPaid.
type OrderDynamoRepository struct {
	ddb       *dynamodb.Client
	tableName string
}

var _ interfaces.IOrderRepository = (*OrderDynamoRepository)(nil)

func NewOrderDynamoRepository(ddb *dynamodb.Client) *OrderDynamoRepository {
	return &OrderDynamoRepository{
		ddb:       ddb,
		tableName: getenvDefault("ORDERS_TABLE", defaultOrdersTableName),
	}
}

func (r *OrderDynamoRepository) Create(ctx context.Context, o entities.Order) (entities.Order, error) {
	av, err := attributevalue.MarshalMap(toOrderItem(o))
	if err != nil {
		return entities.Order{}, err
	}

	_, err = r.ddb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(#id)"),
		ExpressionAttributeNames: map[string]string{
			"#id": "id",
		},
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return entities.Order{}, ErrOrderIDCollision
		}
		return entities.Order{}, err
	}
	return o, nil
}

func (r *OrderDynamoRepository) GetByID(ctx context.Context, id string) (entities.Order, error) {
	out, err := r.ddb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return entities.Order{}, err
	}
	if len(out.Item) == 0 {
		return entities.Order{}, nil
	}

	var it orderItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return entities.Order{}, err
	}
	return fromOrderItem(it), nil
}

func (r *OrderDynamoRepository) MarkPaid(ctx context.Context, id string, providerTradeNo string) (entities.Order, bool, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)

	out, err := r.ddb.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
		ConditionExpression: aws.String("attribute_exists(#id) AND #status = :pending"),
		UpdateExpression:    aws.String("SET #status = :paid, #paid_at = :paid_at, #trade_no = :trade_no"),
		ExpressionAttributeNames: map[string]string{
			"#id":       "id",
			"#status":   "status",
			"#paid_at":  "paid_at",
			"#trade_no": "provider_trade_no",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pending":  &types.AttributeValueMemberS{Value: string(entities.OrderStatusPending)},
			":paid":     &types.AttributeValueMemberS{Value: string(entities.OrderStatusPaid)},
			":paid_at":  &types.AttributeValueMemberS{Value: now},
			":trade_no": &types.AttributeValueMemberS{Value: providerTradeNo},
		},
		ReturnValues: types.ReturnValueAllNew,
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if !errors.As(err, &ccf) {
			return entities.Order{}, false, err
		}
		// Condition failed: either the order does not exist or it is already
		// paid. Re-read to tell the two apart.
		existing, getErr := r.GetByID(ctx, id)
		if getErr != nil {
			return entities.Order{}, false, getErr
		}
		if existing.ID == "" {
			return entities.Order{}, false, ErrOrderNotFound
		}
		return existing, true, nil
	}

	var it orderItem
	if err := attributevalue.UnmarshalMap(out.Attributes, &it); err != nil {
		return entities.Order{}, false, err
	}
	return fromOrderItem(it), false, nil
}

func toOrderItem(o entities.Order) orderItem {
	it := orderItem{
		ID:              o.ID,
		Amount:          o.Amount,
		Status:          string(o.Status),
		Method:          string(o.Method),
		Type:            string(o.Type),
		Plan:            string(o.Plan),
		UserID:          o.UserID,
		ProviderTradeNo: o.ProviderTradeNo,
		CreatedAt:       o.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if o.PaidAt != nil {
		it.PaidAt = o.PaidAt.UTC().Format(time.RFC3339Nano)
	}
	return it
}

func fromOrderItem(it orderItem) entities.Order {
	created, _ := time.Parse(time.RFC3339Nano, it.CreatedAt)
	o := entities.Order{
		ID:              it.ID,
		Amount:          it.Amount,
		Status:          entities.OrderStatus(it.Status),
		Method:          entities.PayMethod(it.Method),
		Type:            entities.OrderType(it.Type),
		Plan:            entities.VipPlanID(it.Plan),
		UserID:          it.UserID,
		ProviderTradeNo: it.ProviderTradeNo,
		CreatedAt:       created,
	}
	if it.PaidAt != "" {
		if paid, err := time.Parse(time.RFC3339Nano, it.PaidAt); err == nil {
			o.PaidAt = &paid
		}
	}
	return o
}

package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/promo-claim/internal/domain"
)

const attrDeviceID = "device_id"

// ItemAPI is the subset of the DynamoDB client RecoveryRepo needs.
type ItemAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// RecoveryRepo stores one recovery record per device. Each Set is a full
// PutItem, so the previous record never leaks fields into the new one.
type RecoveryRepo struct {
	client    ItemAPI
	tableName string
}

func NewRecoveryRepo(client ItemAPI, tableName string) *RecoveryRepo {
	return &RecoveryRepo{client: client, tableName: tableName}
}

func (r *RecoveryRepo) Get(ctx context.Context, deviceID string) (*domain.RecoveryRecord, error) {
	if deviceID == "" {
		return nil, fmt.Errorf("get recovery record: device id required: %w", domain.ErrBadRequest)
	}
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey(attrDeviceID, deviceID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get recovery record: %w", err)
	}
	if out.Item == nil {
		return nil, fmt.Errorf("recovery record not found: %w", domain.ErrNotFound)
	}
	var rec domain.RecoveryRecord
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal recovery record: %w", err)
	}
	if rec.PrizeName == "" {
		return nil, fmt.Errorf("recovery record not found: %w", domain.ErrNotFound)
	}
	return &rec, nil
}

func (r *RecoveryRepo) Set(ctx context.Context, deviceID string, rec domain.RecoveryRecord) error {
	if deviceID == "" {
		return fmt.Errorf("put recovery record: device id required: %w", domain.ErrBadRequest)
	}
	rec.DeviceID = deviceID
	rec.UpdatedAt = time.Now().UTC()
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("marshal recovery record: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put recovery record: %w", err)
	}
	return nil
}

// strKey builds a DynamoDB primary key map with a single string attribute.
func strKey(name, value string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		name: &types.AttributeValueMemberS{Value: value},
	}
}

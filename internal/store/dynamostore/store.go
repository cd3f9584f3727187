// Package dynamostore keeps to-do items in a DynamoDB table keyed by
// ownerKey (partition) and itemId (sort).
package dynamostore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"horse.fit/todos/internal/todo"
)

const (
	attrOwnerKey     = "ownerKey"
	attrItemID       = "itemId"
	attrTranslations = "translations"
)

// API is the subset of the DynamoDB client the store calls.
type API interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

type Store struct {
	client API
	table  string
}

// NewClient builds a DynamoDB client. A non-empty endpoint points it at DynamoDB Local.
func NewClient(cfg aws.Config, endpoint string) *dynamodb.Client {
	endpoint = strings.TrimSpace(endpoint)
	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
}

func New(client API, table string) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("dynamodb client is nil")
	}
	table = strings.TrimSpace(table)
	if table == "" {
		return nil, fmt.Errorf("table name is required")
	}
	return &Store{client: client, table: table}, nil
}

// Ping checks that the table exists and is reachable.
func (s *Store) Ping(ctx context.Context) error {
	out, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(s.table)})
	if err != nil {
		return fmt.Errorf("describe table %s: %w", s.table, err)
	}
	if out.Table != nil && out.Table.TableStatus != types.TableStatusActive {
		return fmt.Errorf("table %s is %s", s.table, out.Table.TableStatus)
	}
	return nil
}

func (s *Store) PutItem(ctx context.Context, item todo.Item) error {
	item.EnsureTranslations()
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("marshal todo item: %w", err)
	}
	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      av,
	}); err != nil {
		return fmt.Errorf("put todo item: %w", err)
	}
	return nil
}

func (s *Store) GetItem(ctx context.Context, ownerKey, itemID string) (*todo.Item, error) {
	resp, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key:       itemKey(ownerKey, itemID),
	})
	if err != nil {
		return nil, fmt.Errorf("get todo item: %w", err)
	}
	if resp.Item == nil {
		return nil, todo.ErrItemNotFound
	}
	return unmarshalItem(resp.Item)
}

// QueryItems reads every page of the owner's partition.
func (s *Store) QueryItems(ctx context.Context, ownerKey string) ([]todo.Item, error) {
	paginator := dynamodb.NewQueryPaginator(s.client, &dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		KeyConditionExpression: aws.String("#owner = :owner"),
		ExpressionAttributeNames: map[string]string{
			"#owner": attrOwnerKey,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":owner": &types.AttributeValueMemberS{Value: ownerKey},
		},
	})

	items := make([]todo.Item, 0)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("query todo items: %w", err)
		}
		for _, raw := range page.Items {
			item, err := unmarshalItem(raw)
			if err != nil {
				return nil, err
			}
			items = append(items, *item)
		}
	}
	return items, nil
}

func (s *Store) UpdateItem(ctx context.Context, ownerKey, itemID string, patch todo.Patch) (*todo.Item, error) {
	expr, names, values := buildUpdateExpression(patch)
	if expr == "" {
		return nil, fmt.Errorf("update todo item: patch is empty")
	}
	names["#owner"] = attrOwnerKey

	resp, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.table),
		Key:                       itemKey(ownerKey, itemID),
		UpdateExpression:          aws.String(expr),
		ConditionExpression:       aws.String("attribute_exists(#owner)"),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		if isConditionFailed(err) {
			return nil, todo.ErrItemNotFound
		}
		return nil, fmt.Errorf("update todo item: %w", err)
	}
	return unmarshalItem(resp.Attributes)
}

func (s *Store) SetTranslation(ctx context.Context, ownerKey, itemID, lang, text string) error {
	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(s.table),
		Key:                 itemKey(ownerKey, itemID),
		UpdateExpression:    aws.String("SET #translations.#lang = :translated"),
		ConditionExpression: aws.String("attribute_exists(#owner)"),
		ExpressionAttributeNames: map[string]string{
			"#owner":        attrOwnerKey,
			"#translations": attrTranslations,
			"#lang":         lang,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":translated": &types.AttributeValueMemberS{Value: text},
		},
	})
	if err != nil {
		if isConditionFailed(err) {
			return todo.ErrItemNotFound
		}
		return fmt.Errorf("store todo translation: %w", err)
	}
	return nil
}

// buildUpdateExpression returns a SET expression over the present patch fields.
// status is a DynamoDB reserved word, so every field goes through a name placeholder.
func buildUpdateExpression(patch todo.Patch) (string, map[string]string, map[string]types.AttributeValue) {
	var clauses []string
	names := map[string]string{}
	values := map[string]types.AttributeValue{}

	set := func(field string, value types.AttributeValue) {
		clauses = append(clauses, fmt.Sprintf("#%s = :%s", field, field))
		names["#"+field] = field
		values[":"+field] = value
	}
	if patch.Description != nil {
		set("description", &types.AttributeValueMemberS{Value: *patch.Description})
	}
	if patch.Status != nil {
		set("status", &types.AttributeValueMemberS{Value: *patch.Status})
	}
	if patch.Priority != nil {
		set("priority", &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", *patch.Priority)})
	}
	if patch.Completed != nil {
		set("completed", &types.AttributeValueMemberBOOL{Value: *patch.Completed})
	}

	if len(clauses) == 0 {
		return "", names, values
	}
	return "SET " + strings.Join(clauses, ", "), names, values
}

func itemKey(ownerKey, itemID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrOwnerKey: &types.AttributeValueMemberS{Value: ownerKey},
		attrItemID:   &types.AttributeValueMemberS{Value: itemID},
	}
}

func unmarshalItem(raw map[string]types.AttributeValue) (*todo.Item, error) {
	var item todo.Item
	if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
		return nil, fmt.Errorf("unmarshal todo item: %w", err)
	}
	item.EnsureTranslations()
	return &item, nil
}

func isConditionFailed(err error) bool {
	var condErr *types.ConditionalCheckFailedException
	return errors.As(err, &condErr)
}

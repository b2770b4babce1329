package scm

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"github.com/vvatanabe/scm/internal/clock"
	"github.com/vvatanabe/scm/internal/constant"
)

const (
	defaultScanLimit = 250
	// maxUpdateAttempts bounds the read-merge-write loop of UpdateShipment.
	maxUpdateAttempts = 3

	cancellationConditionalCheckFailed = "ConditionalCheckFailed"
)

// ClientOptions defines configuration options for the DynamoDB-backed client.
//
// Clock, IDGenerator, MarshalMap, UnmarshalMap, UnmarshalListOfMaps and BuildExpression
// exist for tests and should normally be left alone.
type ClientOptions struct {
	// DynamoDB is the client used for database operations.
	DynamoDB *dynamodb.Client
	// ShipmentTableName is the table holding shipments, keyed by "id".
	ShipmentTableName string
	// NotificationTableName is the table holding notifications, keyed by "id".
	NotificationTableName string
	// BaseEndpoint is the base endpoint URL for DynamoDB requests.
	BaseEndpoint string
	// RetryMaxAttempts is the maximum number of attempts for failed DynamoDB operations.
	RetryMaxAttempts int

	Clock               clock.Clock
	IDGenerator         func() string
	MarshalMap          func(in interface{}) (map[string]types.AttributeValue, error)
	UnmarshalMap        func(m map[string]types.AttributeValue, out interface{}) error
	UnmarshalListOfMaps func(l []map[string]types.AttributeValue, out interface{}) error
	BuildExpression     func(b expression.Builder) (expression.Expression, error)
}

// WithShipmentTableName sets the shipments table. The default is "scm-shipments".
func WithShipmentTableName(tableName string) func(*ClientOptions) {
	return func(s *ClientOptions) {
		s.ShipmentTableName = tableName
	}
}

// WithNotificationTableName sets the notifications table. The default is "scm-notifications".
func WithNotificationTableName(tableName string) func(*ClientOptions) {
	return func(s *ClientOptions) {
		s.NotificationTableName = tableName
	}
}

// WithAWSDynamoDBClient sets a pre-configured DynamoDB client.
func WithAWSDynamoDBClient(client *dynamodb.Client) func(*ClientOptions) {
	return func(s *ClientOptions) {
		s.DynamoDB = client
	}
}

// WithAWSBaseEndpoint sets a custom endpoint, such as DynamoDB Local.
// It is ignored when WithAWSDynamoDBClient is used.
func WithAWSBaseEndpoint(baseEndpoint string) func(*ClientOptions) {
	return func(s *ClientOptions) {
		s.BaseEndpoint = baseEndpoint
	}
}

// WithAWSRetryMaxAttempts sets how many times a failed call is retried.
// It is ignored when WithAWSDynamoDBClient is used.
func WithAWSRetryMaxAttempts(retryMaxAttempts int) func(*ClientOptions) {
	return func(s *ClientOptions) {
		s.RetryMaxAttempts = retryMaxAttempts
	}
}

// WithDynamoDBClock replaces the clock used for timestamps.
func WithDynamoDBClock(c clock.Clock) func(*ClientOptions) {
	return func(s *ClientOptions) {
		s.Clock = c
	}
}

// WithDynamoDBIDGenerator replaces the default UUID generator.
func WithDynamoDBIDGenerator(f func() string) func(*ClientOptions) {
	return func(s *ClientOptions) {
		s.IDGenerator = f
	}
}

// NewFromConfig creates a DynamoDB-backed Client from the AWS configuration.
// The tables must already exist.
func NewFromConfig(cfg aws.Config, optFns ...func(*ClientOptions)) (Client, error) {
	o := &ClientOptions{
		ShipmentTableName:     constant.DefaultShipmentTableName,
		NotificationTableName: constant.DefaultNotificationTableName,
		RetryMaxAttempts:      constant.DefaultRetryMaxAttempts,
		Clock:                 &clock.RealClock{},
		IDGenerator:           uuid.NewString,
		MarshalMap:            attributevalue.MarshalMap,
		UnmarshalMap:          attributevalue.UnmarshalMap,
		UnmarshalListOfMaps:   attributevalue.UnmarshalListOfMaps,
		BuildExpression: func(b expression.Builder) (expression.Expression, error) {
			return b.Build()
		},
	}
	for _, opt := range optFns {
		opt(o)
	}
	c := &DynamoDBClient{
		dynamoDB:              o.DynamoDB,
		shipmentTableName:     o.ShipmentTableName,
		notificationTableName: o.NotificationTableName,
		clock:                 o.Clock,
		idGenerator:           o.IDGenerator,
		marshalMap:            o.MarshalMap,
		unmarshalMap:          o.UnmarshalMap,
		unmarshalListOfMaps:   o.UnmarshalListOfMaps,
		buildExpression:       o.BuildExpression,
	}
	if c.dynamoDB != nil {
		return c, nil
	}
	c.dynamoDB = dynamodb.NewFromConfig(cfg, func(options *dynamodb.Options) {
		options.RetryMaxAttempts = o.RetryMaxAttempts
		if o.BaseEndpoint != "" {
			options.BaseEndpoint = aws.String(o.BaseEndpoint)
		}
	})
	return c, nil
}

// DynamoDBClient implements Client on two DynamoDB tables.
// Always use NewFromConfig to create an instance.
type DynamoDBClient struct {
	dynamoDB              *dynamodb.Client
	shipmentTableName     string
	notificationTableName string
	clock                 clock.Clock
	idGenerator           func() string
	marshalMap            func(in interface{}) (map[string]types.AttributeValue, error)
	unmarshalMap          func(m map[string]types.AttributeValue, out interface{}) error
	unmarshalListOfMaps   func(l []map[string]types.AttributeValue, out interface{}) error
	buildExpression       func(b expression.Builder) (expression.Expression, error)
}

func (c *DynamoDBClient) ListShipments(ctx context.Context, _ *ListShipmentsInput) (*ListShipmentsOutput, error) {
	var shipments []*Shipment
	if err := c.scan(ctx, c.shipmentTableName, &shipments); err != nil {
		return &ListShipmentsOutput{}, err
	}
	for _, s := range shipments {
		normalizeShipment(s)
	}
	if shipments == nil {
		shipments = []*Shipment{}
	}
	return &ListShipmentsOutput{Shipments: shipments}, nil
}

func (c *DynamoDBClient) GetShipment(ctx context.Context, params *GetShipmentInput) (*GetShipmentOutput, error) {
	if params == nil {
		params = &GetShipmentInput{}
	}
	if params.ID == "" {
		return &GetShipmentOutput{}, nil
	}
	resp, err := c.dynamoDB.GetItem(ctx, &dynamodb.GetItemInput{
		Key:            idKey(params.ID),
		TableName:      aws.String(c.shipmentTableName),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return &GetShipmentOutput{}, handleDynamoDBError(err)
	}
	if resp.Item == nil {
		return &GetShipmentOutput{}, nil
	}
	s := Shipment{}
	if err := c.unmarshalMap(resp.Item, &s); err != nil {
		return &GetShipmentOutput{}, UnmarshalingAttributeError{Cause: err}
	}
	normalizeShipment(&s)
	return &GetShipmentOutput{Shipment: &s}, nil
}

// CreateShipment writes the shipment and its notification in one transaction,
// so either both are stored or neither is.
func (c *DynamoDBClient) CreateShipment(ctx context.Context, params *CreateShipmentInput) (*CreateShipmentOutput, error) {
	if params == nil {
		params = &CreateShipmentInput{}
	}
	s := params.newShipment(c.idGenerator())
	n := newCreatedNotification(c.idGenerator(), s, clock.FormatRFC3339Nano(c.clock.Now()))
	builder := expression.NewBuilder().
		WithCondition(expression.AttributeNotExists(expression.Name("id")))
	expr, err := c.buildExpression(builder)
	if err != nil {
		return &CreateShipmentOutput{}, BuildingExpressionError{Cause: err}
	}
	putShipment, err := c.newPut(c.shipmentTableName, s, &expr)
	if err != nil {
		return &CreateShipmentOutput{}, err
	}
	putNotification, err := c.newPut(c.notificationTableName, n, nil)
	if err != nil {
		return &CreateShipmentOutput{}, err
	}
	if err := c.transactWrite(ctx, putShipment, putNotification); err != nil {
		return &CreateShipmentOutput{}, err
	}
	return &CreateShipmentOutput{
		Shipment:     s,
		Notification: n,
	}, nil
}

// UpdateShipment reads the shipment, merges the update and then writes the change
// together with its notification in one transaction. The write is conditioned on
// the status that was read, so the notification type always matches the stored
// result. A write that loses a race with another update is retried from the read.
func (c *DynamoDBClient) UpdateShipment(ctx context.Context, params *UpdateShipmentInput) (*UpdateShipmentOutput, error) {
	if params == nil {
		params = &UpdateShipmentInput{}
	}
	if params.ID == "" {
		return &UpdateShipmentOutput{}, nil
	}
	for attempt := 1; ; attempt++ {
		out, err := c.updateShipment(ctx, params)
		if err == nil || !isConditionalCheckFailed(err) || attempt >= maxUpdateAttempts {
			return out, err
		}
	}
}

func (c *DynamoDBClient) updateShipment(ctx context.Context, params *UpdateShipmentInput) (*UpdateShipmentOutput, error) {
	retrieved, err := c.GetShipment(ctx, &GetShipmentInput{ID: params.ID})
	if err != nil {
		return &UpdateShipmentOutput{}, err
	}
	stored := retrieved.Shipment
	if stored == nil {
		return &UpdateShipmentOutput{}, nil
	}
	now := clock.FormatRFC3339Nano(c.clock.Now())
	var cp *Checkpoint
	if params.AddCheckpoint != nil {
		added := newCheckpoint(c.idGenerator(), params.AddCheckpoint, now)
		cp = &added
	}
	merged := stored.Clone()
	params.apply(merged)
	if cp != nil {
		merged.Checkpoints = append(merged.Checkpoints, *cp)
	}
	n := newUpdatedNotification(c.idGenerator(), merged, now)

	shipmentItem, err := c.newShipmentWrite(params, stored.CurrentStatus, cp)
	if err != nil {
		return &UpdateShipmentOutput{}, err
	}
	putNotification, err := c.newPut(c.notificationTableName, n, nil)
	if err != nil {
		return &UpdateShipmentOutput{}, err
	}
	if err := c.transactWrite(ctx, shipmentItem, putNotification); err != nil {
		return &UpdateShipmentOutput{}, err
	}

	// The transaction has committed. A failed re-read falls back to the merged copy.
	if refreshed, err := c.GetShipment(ctx, &GetShipmentInput{ID: params.ID}); err == nil && refreshed.Shipment != nil {
		merged = refreshed.Shipment
	}
	return &UpdateShipmentOutput{
		Shipment:     merged,
		Notification: n,
	}, nil
}

// newShipmentWrite builds the shipment half of an update transaction: an Update
// when fields or a checkpoint change, otherwise a ConditionCheck. Both require the
// shipment to exist with the status that was read.
func (c *DynamoDBClient) newShipmentWrite(params *UpdateShipmentInput, readStatus ShipmentStatus, cp *Checkpoint) (types.TransactWriteItem, error) {
	status := expression.Name("current_status").Equal(expression.Value(readStatus))
	if readStatus == "" {
		status = expression.AttributeNotExists(expression.Name("current_status")).Or(status)
	}
	condition := expression.AttributeExists(expression.Name("id")).And(status)
	builder := expression.NewBuilder().WithCondition(condition)
	hasUpdate := params.hasFieldUpdates() || cp != nil
	if hasUpdate {
		builder = builder.WithUpdate(shipmentUpdate(params, cp))
	}
	expr, err := c.buildExpression(builder)
	if err != nil {
		return types.TransactWriteItem{}, BuildingExpressionError{Cause: err}
	}
	if !hasUpdate {
		return types.TransactWriteItem{
			ConditionCheck: &types.ConditionCheck{
				Key:                       idKey(params.ID),
				TableName:                 aws.String(c.shipmentTableName),
				ConditionExpression:       expr.Condition(),
				ExpressionAttributeNames:  expr.Names(),
				ExpressionAttributeValues: expr.Values(),
			},
		}, nil
	}
	return types.TransactWriteItem{
		Update: &types.Update{
			Key:                       idKey(params.ID),
			TableName:                 aws.String(c.shipmentTableName),
			UpdateExpression:          expr.Update(),
			ConditionExpression:       expr.Condition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
		},
	}, nil
}

func shipmentUpdate(params *UpdateShipmentInput, cp *Checkpoint) expression.UpdateBuilder {
	var update expression.UpdateBuilder
	if params.QuantityKg != nil {
		update = update.Set(expression.Name("quantity_kg"), expression.Value(*params.QuantityKg))
	}
	if params.Condition != nil {
		update = update.Set(expression.Name("condition"), expression.Value(*params.Condition))
	}
	if params.CurrentStatus != nil {
		update = update.Set(expression.Name("current_status"), expression.Value(*params.CurrentStatus))
	}
	if params.CurrentLocation != nil {
		update = update.Set(expression.Name("current_location"), expression.Value(*params.CurrentLocation))
	}
	if params.ETA != nil {
		update = update.Set(expression.Name("eta"), expression.Value(*params.ETA))
	}
	if cp != nil {
		update = update.Set(expression.Name("checkpoints"),
			expression.ListAppend(
				expression.IfNotExists(expression.Name("checkpoints"), expression.Value([]Checkpoint{})),
				expression.Value([]Checkpoint{*cp})))
	}
	return update
}

func (c *DynamoDBClient) ListNotifications(ctx context.Context, _ *ListNotificationsInput) (*ListNotificationsOutput, error) {
	var notifications []*Notification
	if err := c.scan(ctx, c.notificationTableName, &notifications); err != nil {
		return &ListNotificationsOutput{}, err
	}
	if notifications == nil {
		notifications = []*Notification{}
	}
	sortNewestFirst(notifications)
	return &ListNotificationsOutput{Notifications: notifications}, nil
}

func (c *DynamoDBClient) MarkNotificationRead(ctx context.Context, params *MarkNotificationReadInput) (*MarkNotificationReadOutput, error) {
	if params == nil {
		params = &MarkNotificationReadInput{}
	}
	if params.ID == "" {
		return &MarkNotificationReadOutput{}, nil
	}
	builder := expression.NewBuilder().
		WithUpdate(expression.Set(expression.Name("read"), expression.Value(true))).
		WithCondition(expression.AttributeExists(expression.Name("id")))
	expr, err := c.buildExpression(builder)
	if err != nil {
		return &MarkNotificationReadOutput{}, BuildingExpressionError{Cause: err}
	}
	outcome, err := c.dynamoDB.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		Key:                       idKey(params.ID),
		TableName:                 aws.String(c.notificationTableName),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		UpdateExpression:          expr.Update(),
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		err = handleDynamoDBError(err)
		if isConditionalCheckFailed(err) {
			return &MarkNotificationReadOutput{}, nil
		}
		return &MarkNotificationReadOutput{}, err
	}
	n := Notification{}
	if err := c.unmarshalMap(outcome.Attributes, &n); err != nil {
		return &MarkNotificationReadOutput{}, UnmarshalingAttributeError{Cause: err}
	}
	return &MarkNotificationReadOutput{Notification: &n}, nil
}

func (c *DynamoDBClient) GetPerformanceMetrics(ctx context.Context, _ *GetPerformanceMetricsInput) (*GetPerformanceMetricsOutput, error) {
	listed, err := c.ListShipments(ctx, &ListShipmentsInput{})
	if err != nil {
		return &GetPerformanceMetricsOutput{}, err
	}
	return newPerformanceMetricsOutput(listed.Shipments), nil
}

func (c *DynamoDBClient) scan(ctx context.Context, tableName string, out interface{}) error {
	var (
		items             []map[string]types.AttributeValue
		exclusiveStartKey map[string]types.AttributeValue
	)
	for {
		output, err := c.dynamoDB.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(tableName),
			Limit:             aws.Int32(defaultScanLimit),
			ConsistentRead:    aws.Bool(true),
			ExclusiveStartKey: exclusiveStartKey,
		})
		if err != nil {
			return handleDynamoDBError(err)
		}
		items = append(items, output.Items...)
		exclusiveStartKey = output.LastEvaluatedKey
		if exclusiveStartKey == nil {
			break
		}
	}
	if err := c.unmarshalListOfMaps(items, out); err != nil {
		return UnmarshalingAttributeError{Cause: err}
	}
	return nil
}

func (c *DynamoDBClient) newPut(tableName string, v interface{}, expr *expression.Expression) (types.TransactWriteItem, error) {
	item, err := c.marshalMap(v)
	if err != nil {
		return types.TransactWriteItem{}, MarshalingAttributeError{Cause: err}
	}
	put := &types.Put{
		TableName: aws.String(tableName),
		Item:      item,
	}
	if expr != nil {
		put.ConditionExpression = expr.Condition()
		put.ExpressionAttributeNames = expr.Names()
		put.ExpressionAttributeValues = expr.Values()
	}
	return types.TransactWriteItem{Put: put}, nil
}

func (c *DynamoDBClient) transactWrite(ctx context.Context, items ...types.TransactWriteItem) error {
	_, err := c.dynamoDB.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: items,
	})
	if err != nil {
		return handleDynamoDBError(err)
	}
	return nil
}

func idKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"id": &types.AttributeValueMemberS{Value: id},
	}
}

// normalizeShipment restores the empty checkpoint list that DynamoDB stores as NULL.
func normalizeShipment(s *Shipment) {
	if s.Checkpoints == nil {
		s.Checkpoints = []Checkpoint{}
	}
}

// handleDynamoDBError maps a failed condition, alone or inside a cancelled
// transaction, to ConditionalCheckFailedError.
func handleDynamoDBError(err error) error {
	var cause *types.ConditionalCheckFailedException
	if errors.As(err, &cause) {
		return ConditionalCheckFailedError{Cause: cause}
	}
	var canceled *types.TransactionCanceledException
	if errors.As(err, &canceled) {
		for _, reason := range canceled.CancellationReasons {
			if aws.ToString(reason.Code) == cancellationConditionalCheckFailed {
				return ConditionalCheckFailedError{Cause: canceled}
			}
		}
	}
	return DynamoDBAPIError{Cause: err}
}

func isConditionalCheckFailed(err error) bool {
	var target ConditionalCheckFailedError
	return errors.As(err, &target)
}

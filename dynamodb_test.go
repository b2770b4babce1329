package scm_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/upsidr/dynamotest"
	"github.com/vvatanabe/scm"
	"github.com/vvatanabe/scm/internal/clock"
	"github.com/vvatanabe/scm/internal/constant"
	"github.com/vvatanabe/scm/internal/mock"
	"github.com/vvatanabe/scm/internal/test"
)

func newTableInput(tableName string) *dynamodb.CreateTableInput {
	return &dynamodb.CreateTableInput{
		AttributeDefinitions: []types.AttributeDefinition{
			{
				AttributeName: aws.String("id"),
				AttributeType: types.ScalarAttributeTypeS,
			},
		},
		BillingMode:               types.BillingModePayPerRequest,
		DeletionProtectionEnabled: aws.Bool(false),
		KeySchema: []types.KeySchemaElement{
			{
				AttributeName: aws.String("id"),
				KeyType:       types.KeyTypeHash,
			},
		},
		TableName: aws.String(tableName),
	}
}

func newPutRequest(t *testing.T, v interface{}) *types.PutRequest {
	t.Helper()
	item, err := attributevalue.MarshalMap(v)
	if err != nil {
		t.Fatalf("MarshalMap() error = %v", err)
	}
	return &types.PutRequest{Item: item}
}

func setupDynamoDBClient(t *testing.T, optFns []func(*scm.ClientOptions), shipments ...scm.Shipment) scm.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping DynamoDB test in short mode")
	}
	raw, clean := dynamotest.NewDynamoDB(t)
	t.Cleanup(clean)

	suffix := "-" + uuid.NewString()
	shipmentTable := constant.DefaultShipmentTableName + suffix
	notificationTable := constant.DefaultNotificationTableName + suffix
	var initial []*types.PutRequest
	for _, s := range shipments {
		initial = append(initial, newPutRequest(t, s))
	}
	dynamotest.PrepTable(t, raw, dynamotest.InitialTableSetup{
		Table:       newTableInput(shipmentTable),
		InitialData: initial,
	})
	dynamotest.PrepTable(t, raw, dynamotest.InitialTableSetup{
		Table: newTableInput(notificationTable),
	})

	cfg, err := config.LoadDefaultConfig(context.Background())
	if err != nil {
		t.Fatalf("failed to load aws config: %s\n", err)
	}
	opts := append([]func(*scm.ClientOptions){
		scm.WithAWSDynamoDBClient(raw),
		scm.WithShipmentTableName(shipmentTable),
		scm.WithNotificationTableName(notificationTable),
		scm.WithDynamoDBClock(&mock.StepClock{T: test.DefaultTestDate, Step: time.Second}),
		scm.WithDynamoDBIDGenerator(mock.SequentialIDs("id")),
	}, optFns...)
	client, err := scm.NewFromConfig(cfg, opts...)
	if err != nil {
		t.Fatalf("failed to create client: %s\n", err)
	}
	return client
}

func TestDynamoDBClientCreateAndGet(t *testing.T) {
	t.Parallel()
	client := setupDynamoDBClient(t, nil)
	ctx := context.Background()
	in := test.NewCreateShipmentInput("B-100", scm.StatusCreated)
	in.CurrentLocation = &scm.Location{Lat: 30.9, Lng: 75.85}

	created, err := client.CreateShipment(ctx, in)
	if err != nil {
		t.Fatalf("CreateShipment() error = %v", err)
	}
	got, err := client.GetShipment(ctx, &scm.GetShipmentInput{ID: created.Shipment.ID})
	if err != nil {
		t.Fatalf("GetShipment() error = %v", err)
	}
	if diff := cmp.Diff(created.Shipment, got.Shipment); diff != "" {
		t.Errorf("GetShipment() mismatch (-want +got):\n%s", diff)
	}
	if len(got.Shipment.Checkpoints) != 0 || got.Shipment.Checkpoints == nil {
		t.Errorf("Checkpoints = %#v, want empty", got.Shipment.Checkpoints)
	}

	listed, err := client.ListNotifications(ctx, nil)
	if err != nil {
		t.Fatalf("ListNotifications() error = %v", err)
	}
	if len(listed.Notifications) != 1 {
		t.Fatalf("ListNotifications() len = %d, want 1", len(listed.Notifications))
	}
	if diff := cmp.Diff(created.Notification, listed.Notifications[0]); diff != "" {
		t.Errorf("ListNotifications() mismatch (-want +got):\n%s", diff)
	}
}

func TestDynamoDBClientGetUnknown(t *testing.T) {
	t.Parallel()
	client := setupDynamoDBClient(t, nil)
	for _, id := range []string{"", "missing"} {
		out, err := client.GetShipment(context.Background(), &scm.GetShipmentInput{ID: id})
		if err != nil {
			t.Fatalf("GetShipment(%q) error = %v", id, err)
		}
		if out.Shipment != nil {
			t.Errorf("GetShipment(%q) = %+v, want nil", id, out.Shipment)
		}
	}
}

func TestDynamoDBClientListShipments(t *testing.T) {
	t.Parallel()
	seed := test.ShipmentsWithStatuses(scm.StatusCreated, scm.StatusDelivered, scm.StatusDelayed)
	client := setupDynamoDBClient(t, nil, seed...)
	listed, err := client.ListShipments(context.Background(), nil)
	if err != nil {
		t.Fatalf("ListShipments() error = %v", err)
	}
	got := make(map[string]*scm.Shipment)
	for _, s := range listed.Shipments {
		got[s.ID] = s
	}
	for _, s := range seed {
		if diff := cmp.Diff(&s, got[s.ID]); diff != "" {
			t.Errorf("shipment %s mismatch (-want +got):\n%s", s.ID, diff)
		}
	}
}

func TestDynamoDBClientUpdateShipment(t *testing.T) {
	t.Parallel()
	original := test.NewShipment("S-1", "B-1", scm.StatusInTransit)
	client := setupDynamoDBClient(t, nil, original)
	ctx := context.Background()

	delayed := scm.StatusDelayed
	qty := 640.0
	out, err := client.UpdateShipment(ctx, &scm.UpdateShipmentInput{
		ID:            "S-1",
		CurrentStatus: &delayed,
		QuantityKg:    &qty,
		AddCheckpoint: &scm.CheckpointInput{
			Name:        "X",
			HandlerRole: scm.RoleLogistics,
		},
	})
	if err != nil {
		t.Fatalf("UpdateShipment() error = %v", err)
	}
	want := original.Clone()
	want.CurrentStatus = scm.StatusDelayed
	want.QuantityKg = qty
	want.Checkpoints = append(want.Checkpoints, scm.Checkpoint{
		ID:          out.Shipment.LastCheckpoint().ID,
		Name:        "X",
		Timestamp:   out.Notification.CreatedAt,
		HandlerRole: scm.RoleLogistics,
	})
	if diff := cmp.Diff(want, out.Shipment); diff != "" {
		t.Errorf("UpdateShipment() mismatch (-want +got):\n%s", diff)
	}
	if out.Notification.Type != scm.NotificationDelay || out.Notification.RelatedShipmentID != "S-1" {
		t.Errorf("notification = %+v, want delay for S-1", out.Notification)
	}
	got, err := client.GetShipment(ctx, &scm.GetShipmentInput{ID: "S-1"})
	if err != nil {
		t.Fatalf("GetShipment() error = %v", err)
	}
	if diff := cmp.Diff(want, got.Shipment); diff != "" {
		t.Errorf("GetShipment() mismatch (-want +got):\n%s", diff)
	}
}

func TestDynamoDBClientUpdateWithoutFields(t *testing.T) {
	t.Parallel()
	original := test.NewShipment("S-1", "B-1", scm.StatusInTransit)
	client := setupDynamoDBClient(t, nil, original)
	out, err := client.UpdateShipment(context.Background(), &scm.UpdateShipmentInput{ID: "S-1"})
	if err != nil {
		t.Fatalf("UpdateShipment() error = %v", err)
	}
	if diff := cmp.Diff(&original, out.Shipment); diff != "" {
		t.Errorf("UpdateShipment() mismatch (-want +got):\n%s", diff)
	}
	if out.Notification == nil || out.Notification.Type != scm.NotificationUpdate {
		t.Errorf("notification = %+v, want update", out.Notification)
	}
}

func TestDynamoDBClientUpdateUnknown(t *testing.T) {
	t.Parallel()
	client := setupDynamoDBClient(t, nil)
	ctx := context.Background()
	delayed := scm.StatusDelayed
	out, err := client.UpdateShipment(ctx, &scm.UpdateShipmentInput{ID: "missing", CurrentStatus: &delayed})
	if err != nil {
		t.Fatalf("UpdateShipment() error = %v", err)
	}
	if out.Shipment != nil || out.Notification != nil {
		t.Errorf("UpdateShipment() = %+v, want empty output", out)
	}
	listed, err := client.ListNotifications(ctx, nil)
	if err != nil {
		t.Fatalf("ListNotifications() error = %v", err)
	}
	if len(listed.Notifications) != 0 {
		t.Errorf("ListNotifications() len = %d, want 0", len(listed.Notifications))
	}
}

func TestDynamoDBClientNotifications(t *testing.T) {
	t.Parallel()
	client := setupDynamoDBClient(t, nil)
	ctx := context.Background()
	var ids []string
	for _, b := range []string{"B-1", "B-2", "B-3"} {
		out, err := client.CreateShipment(ctx, test.NewCreateShipmentInput(b, scm.StatusCreated))
		if err != nil {
			t.Fatalf("CreateShipment() error = %v", err)
		}
		ids = append(ids, out.Notification.ID)
	}
	listed, err := client.ListNotifications(ctx, nil)
	if err != nil {
		t.Fatalf("ListNotifications() error = %v", err)
	}
	var got []string
	for _, n := range listed.Notifications {
		got = append(got, n.ID)
	}
	want := []string{ids[2], ids[1], ids[0]}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ListNotifications() order (-want +got):\n%s", diff)
	}

	for i := 0; i < 2; i++ {
		out, err := client.MarkNotificationRead(ctx, &scm.MarkNotificationReadInput{ID: ids[0]})
		if err != nil {
			t.Fatalf("MarkNotificationRead() error = %v", err)
		}
		if out.Notification == nil || !out.Notification.Read {
			t.Errorf("MarkNotificationRead() = %+v, want read", out.Notification)
		}
	}
	out, err := client.MarkNotificationRead(ctx, &scm.MarkNotificationReadInput{ID: "missing"})
	if err != nil {
		t.Fatalf("MarkNotificationRead(missing) error = %v", err)
	}
	if out.Notification != nil {
		t.Errorf("MarkNotificationRead(missing) = %+v, want nil", out.Notification)
	}
	listed, err = client.ListNotifications(ctx, nil)
	if err != nil {
		t.Fatalf("ListNotifications() error = %v", err)
	}
	if len(listed.Notifications) != 3 {
		t.Errorf("ListNotifications() len = %d, want 3", len(listed.Notifications))
	}
}

func TestDynamoDBClientGetPerformanceMetrics(t *testing.T) {
	t.Parallel()
	client := setupDynamoDBClient(t, nil, test.ShipmentsWithStatuses(
		scm.StatusDelivered, scm.StatusDelivered, scm.StatusDelivered, scm.StatusDelayed, scm.StatusCreated)...)
	out, err := client.GetPerformanceMetrics(context.Background(), nil)
	if err != nil {
		t.Fatalf("GetPerformanceMetrics() error = %v", err)
	}
	want := scm.PerformanceSummary{Total: 5, Delivered: 3, Delayed: 1, OnTimeRate: 67}
	if out.Summary != want {
		t.Errorf("Summary = %+v, want %+v", out.Summary, want)
	}
}

func TestDynamoDBClientShouldReturnError(t *testing.T) {
	t.Parallel()
	errAttr := errors.New("attribute failure")
	delayed := scm.StatusDelayed
	tests := []struct {
		name      string
		opt       func(*scm.ClientOptions)
		operation func(scm.Client) error
		wantErr   interface{}
	}{
		{
			name: "CreateShipment should return MarshalingAttributeError",
			opt: func(o *scm.ClientOptions) {
				o.MarshalMap = func(interface{}) (map[string]types.AttributeValue, error) { return nil, errAttr }
			},
			operation: func(c scm.Client) error {
				_, err := c.CreateShipment(context.Background(), nil)
				return err
			},
			wantErr: &scm.MarshalingAttributeError{},
		},
		{
			name: "UpdateShipment should return BuildingExpressionError",
			opt: func(o *scm.ClientOptions) {
				o.BuildExpression = func(expression.Builder) (expression.Expression, error) {
					return expression.Expression{}, errAttr
				}
			},
			operation: func(c scm.Client) error {
				_, err := c.UpdateShipment(context.Background(), &scm.UpdateShipmentInput{ID: "S-1", CurrentStatus: &delayed})
				return err
			},
			wantErr: &scm.BuildingExpressionError{},
		},
		{
			name: "GetShipment should return UnmarshalingAttributeError",
			opt: func(o *scm.ClientOptions) {
				o.UnmarshalMap = func(map[string]types.AttributeValue, interface{}) error { return errAttr }
			},
			operation: func(c scm.Client) error {
				_, err := c.GetShipment(context.Background(), &scm.GetShipmentInput{ID: "S-1"})
				return err
			},
			wantErr: &scm.UnmarshalingAttributeError{},
		},
		{
			name: "ListShipments should return UnmarshalingAttributeError",
			opt: func(o *scm.ClientOptions) {
				o.UnmarshalListOfMaps = func([]map[string]types.AttributeValue, interface{}) error { return errAttr }
			},
			operation: func(c scm.Client) error {
				_, err := c.ListShipments(context.Background(), nil)
				return err
			},
			wantErr: &scm.UnmarshalingAttributeError{},
		},
		{
			name: "ListShipments should return DynamoDBAPIError",
			opt:  scm.WithShipmentTableName("missing-table"),
			operation: func(c scm.Client) error {
				_, err := c.ListShipments(context.Background(), nil)
				return err
			},
			wantErr: &scm.DynamoDBAPIError{},
		},
	}
	client := func(t *testing.T, opt func(*scm.ClientOptions)) scm.Client {
		return setupDynamoDBClient(t, []func(*scm.ClientOptions){opt}, test.NewShipment("S-1", "B-1", scm.StatusCreated))
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.operation(client(t, tt.opt))
			if !errors.As(err, tt.wantErr) {
				t.Errorf("error = %v, want %T", err, tt.wantErr)
			}
			if !errors.Is(err, errAttr) {
				var apiErr scm.DynamoDBAPIError
				if !errors.As(err, &apiErr) {
					t.Errorf("error = %v, want cause %v", err, errAttr)
				}
			}
		})
	}
}

func TestDynamoDBClientTimestamps(t *testing.T) {
	t.Parallel()
	client := setupDynamoDBClient(t, []func(*scm.ClientOptions){
		scm.WithDynamoDBClock(mock.Clock{T: test.DefaultTestDate}),
	})
	out, err := client.CreateShipment(context.Background(), test.NewCreateShipmentInput("B-1", scm.StatusCreated))
	if err != nil {
		t.Fatalf("CreateShipment() error = %v", err)
	}
	if want := clock.FormatRFC3339Nano(test.DefaultTestDate); out.Notification.CreatedAt != want {
		t.Errorf("CreatedAt = %q, want %q", out.Notification.CreatedAt, want)
	}
}

type fakeResponse struct {
	status int
	body   string
}

// fakeDynamoDB answers DynamoDB JSON requests from scripted responses per operation
// and records every operation it receives.
type fakeDynamoDB struct {
	mu        sync.Mutex
	responses map[string][]fakeResponse
	targets   []string
	transacts []transactWriteItemsBody
}

type transactWriteItemsBody struct {
	TransactItems []struct {
		Put *struct {
			TableName           string
			ConditionExpression string
		}
		Update *struct {
			TableName           string
			ConditionExpression string
		}
		ConditionCheck *struct {
			TableName string
		}
	}
}

func (f *fakeDynamoDB) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	target := strings.TrimPrefix(r.Header.Get("X-Amz-Target"), "DynamoDB_20120810.")
	body, _ := io.ReadAll(r.Body)

	f.mu.Lock()
	f.targets = append(f.targets, target)
	if target == "TransactWriteItems" {
		var in transactWriteItemsBody
		_ = json.Unmarshal(body, &in)
		f.transacts = append(f.transacts, in)
	}
	resp := fakeResponse{status: http.StatusOK, body: "{}"}
	if queue := f.responses[target]; len(queue) > 0 {
		resp, f.responses[target] = queue[0], queue[1:]
	}
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/x-amz-json-1.0")
	w.WriteHeader(resp.status)
	_, _ = io.WriteString(w, resp.body)
}

func (f *fakeDynamoDB) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.targets...)
}

func (f *fakeDynamoDB) transactions() []transactWriteItemsBody {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]transactWriteItemsBody(nil), f.transacts...)
}

func newFakeDynamoDBClient(t *testing.T, fake *fakeDynamoDB, optFns ...func(*scm.ClientOptions)) scm.Client {
	t.Helper()
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)
	cfg := aws.Config{
		Region: "us-east-1",
		Credentials: aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
			return aws.Credentials{AccessKeyID: "dummy", SecretAccessKey: "dummy"}, nil
		}),
	}
	opts := append([]func(*scm.ClientOptions){
		scm.WithAWSBaseEndpoint(server.URL),
		scm.WithAWSRetryMaxAttempts(1),
		scm.WithShipmentTableName("shipments"),
		scm.WithNotificationTableName("notifications"),
		scm.WithDynamoDBClock(mock.Clock{T: test.DefaultTestDate}),
		scm.WithDynamoDBIDGenerator(mock.SequentialIDs("id")),
	}, optFns...)
	client, err := scm.NewFromConfig(cfg, opts...)
	if err != nil {
		t.Fatalf("failed to create client: %s\n", err)
	}
	return client
}

const (
	inTransitItem = `{"Item":{"id":{"S":"S-1"},"batch_id":{"S":"B-1"},"current_status":{"S":"in_transit"},"checkpoints":{"L":[]}}}`
	delayedItem   = `{"Item":{"id":{"S":"S-1"},"batch_id":{"S":"B-1"},"current_status":{"S":"delayed"},"checkpoints":{"L":[]}}}`
)

func transactionCanceled(codes ...string) fakeResponse {
	reasons := make([]string, 0, len(codes))
	for _, code := range codes {
		reasons = append(reasons, `{"Code":"`+code+`"}`)
	}
	return fakeResponse{
		status: http.StatusBadRequest,
		body: `{"__type":"com.amazonaws.dynamodb.v20120810#TransactionCanceledException",` +
			`"message":"Transaction cancelled","CancellationReasons":[` + strings.Join(reasons, ",") + `]}`,
	}
}

func TestDynamoDBClientCreateShipmentWritesOneTransaction(t *testing.T) {
	t.Parallel()
	fake := &fakeDynamoDB{}
	client := newFakeDynamoDBClient(t, fake)
	out, err := client.CreateShipment(context.Background(), test.NewCreateShipmentInput("B-1", scm.StatusCreated))
	if err != nil {
		t.Fatalf("CreateShipment() error = %v", err)
	}
	if out.Shipment.ID != "id-1" || out.Notification.RelatedShipmentID != "id-1" {
		t.Errorf("CreateShipment() = %+v", out)
	}
	if diff := cmp.Diff([]string{"TransactWriteItems"}, fake.calls()); diff != "" {
		t.Fatalf("operations mismatch (-want +got):\n%s", diff)
	}
	items := fake.transactions()[0].TransactItems
	if len(items) != 2 || items[0].Put == nil || items[1].Put == nil {
		t.Fatalf("TransactItems = %+v, want two puts", items)
	}
	if items[0].Put.TableName != "shipments" || items[0].Put.ConditionExpression == "" {
		t.Errorf("shipment put = %+v, want conditional put on shipments", *items[0].Put)
	}
	if items[1].Put.TableName != "notifications" {
		t.Errorf("notification put = %+v, want put on notifications", *items[1].Put)
	}
}

func TestDynamoDBClientCreateShipmentMarshalFailureWritesNothing(t *testing.T) {
	t.Parallel()
	errMarshal := errors.New("marshal failure")
	fake := &fakeDynamoDB{}
	client := newFakeDynamoDBClient(t, fake, func(o *scm.ClientOptions) {
		o.MarshalMap = func(in interface{}) (map[string]types.AttributeValue, error) {
			if _, ok := in.(*scm.Notification); ok {
				return nil, errMarshal
			}
			return attributevalue.MarshalMap(in)
		}
	})
	_, err := client.CreateShipment(context.Background(), test.NewCreateShipmentInput("B-1", scm.StatusCreated))
	var marshalErr scm.MarshalingAttributeError
	if !errors.As(err, &marshalErr) || !errors.Is(err, errMarshal) {
		t.Errorf("CreateShipment() error = %v, want MarshalingAttributeError", err)
	}
	if calls := fake.calls(); len(calls) != 0 {
		t.Errorf("operations = %v, want none", calls)
	}
}

func TestDynamoDBClientCreateShipmentCanceled(t *testing.T) {
	t.Parallel()
	fake := &fakeDynamoDB{responses: map[string][]fakeResponse{
		"TransactWriteItems": {transactionCanceled("ConditionalCheckFailed", "None")},
	}}
	client := newFakeDynamoDBClient(t, fake)
	out, err := client.CreateShipment(context.Background(), test.NewCreateShipmentInput("B-1", scm.StatusCreated))
	var condErr scm.ConditionalCheckFailedError
	if !errors.As(err, &condErr) {
		t.Errorf("CreateShipment() error = %v, want ConditionalCheckFailedError", err)
	}
	if out.Shipment != nil || out.Notification != nil {
		t.Errorf("CreateShipment() = %+v, want empty output", out)
	}
}

func TestDynamoDBClientUpdateShipmentWritesOneTransaction(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		params    *scm.UpdateShipmentInput
		wantType  scm.NotificationType
		wantWrite string
	}{
		{
			name:      "status change",
			params:    &scm.UpdateShipmentInput{ID: "S-1", CurrentStatus: statusPtr(scm.StatusDelayed)},
			wantType:  scm.NotificationDelay,
			wantWrite: "update",
		},
		{
			name:      "no fields",
			params:    &scm.UpdateShipmentInput{ID: "S-1"},
			wantType:  scm.NotificationUpdate,
			wantWrite: "condition check",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeDynamoDB{responses: map[string][]fakeResponse{
				"GetItem": {{status: http.StatusOK, body: inTransitItem}, {status: http.StatusOK, body: delayedItem}},
			}}
			client := newFakeDynamoDBClient(t, fake)
			out, err := client.UpdateShipment(context.Background(), tt.params)
			if err != nil {
				t.Fatalf("UpdateShipment() error = %v", err)
			}
			if out.Notification == nil || out.Notification.Type != tt.wantType {
				t.Errorf("notification = %+v, want %s", out.Notification, tt.wantType)
			}
			if out.Shipment == nil || out.Shipment.ID != "S-1" {
				t.Errorf("shipment = %+v, want S-1", out.Shipment)
			}
			want := []string{"GetItem", "TransactWriteItems", "GetItem"}
			if diff := cmp.Diff(want, fake.calls()); diff != "" {
				t.Fatalf("operations mismatch (-want +got):\n%s", diff)
			}
			items := fake.transactions()[0].TransactItems
			if len(items) != 2 || items[1].Put == nil || items[1].Put.TableName != "notifications" {
				t.Fatalf("TransactItems = %+v, want shipment write and notification put", items)
			}
			switch tt.wantWrite {
			case "update":
				if items[0].Update == nil || items[0].Update.ConditionExpression == "" {
					t.Errorf("shipment write = %+v, want conditional update", items[0])
				}
			case "condition check":
				if items[0].ConditionCheck == nil || items[0].ConditionCheck.TableName != "shipments" {
					t.Errorf("shipment write = %+v, want condition check", items[0])
				}
			}
		})
	}
}

func TestDynamoDBClientUpdateShipmentRetriesAfterConflict(t *testing.T) {
	t.Parallel()
	fake := &fakeDynamoDB{responses: map[string][]fakeResponse{
		"GetItem": {
			{status: http.StatusOK, body: inTransitItem},
			{status: http.StatusOK, body: delayedItem},
			{status: http.StatusOK, body: delayedItem},
		},
		"TransactWriteItems": {transactionCanceled("ConditionalCheckFailed", "None")},
	}}
	client := newFakeDynamoDBClient(t, fake)
	qty := 10.0
	out, err := client.UpdateShipment(context.Background(), &scm.UpdateShipmentInput{ID: "S-1", QuantityKg: &qty})
	if err != nil {
		t.Fatalf("UpdateShipment() error = %v", err)
	}
	// The second read sees the concurrent delay, so the notification reports it.
	if out.Notification == nil || out.Notification.Type != scm.NotificationDelay {
		t.Errorf("notification = %+v, want delay", out.Notification)
	}
	want := []string{"GetItem", "TransactWriteItems", "GetItem", "TransactWriteItems", "GetItem"}
	if diff := cmp.Diff(want, fake.calls()); diff != "" {
		t.Errorf("operations mismatch (-want +got):\n%s", diff)
	}
}

func TestDynamoDBClientUpdateShipmentFailedTransaction(t *testing.T) {
	t.Parallel()
	fake := &fakeDynamoDB{responses: map[string][]fakeResponse{
		"GetItem":            {{status: http.StatusOK, body: inTransitItem}},
		"TransactWriteItems": {transactionCanceled("None", "ValidationError")},
	}}
	client := newFakeDynamoDBClient(t, fake)
	out, err := client.UpdateShipment(context.Background(), &scm.UpdateShipmentInput{ID: "S-1", CurrentStatus: statusPtr(scm.StatusDelivered)})
	var apiErr scm.DynamoDBAPIError
	if !errors.As(err, &apiErr) {
		t.Errorf("UpdateShipment() error = %v, want DynamoDBAPIError", err)
	}
	if out.Shipment != nil || out.Notification != nil {
		t.Errorf("UpdateShipment() = %+v, want empty output", out)
	}
	want := []string{"GetItem", "TransactWriteItems"}
	if diff := cmp.Diff(want, fake.calls()); diff != "" {
		t.Errorf("operations mismatch (-want +got):\n%s", diff)
	}
}

func TestDynamoDBClientUpdateShipmentUnknownWritesNothing(t *testing.T) {
	t.Parallel()
	fake := &fakeDynamoDB{}
	client := newFakeDynamoDBClient(t, fake)
	out, err := client.UpdateShipment(context.Background(), &scm.UpdateShipmentInput{ID: "missing", CurrentStatus: statusPtr(scm.StatusDelayed)})
	if err != nil {
		t.Fatalf("UpdateShipment() error = %v", err)
	}
	if out.Shipment != nil || out.Notification != nil {
		t.Errorf("UpdateShipment() = %+v, want empty output", out)
	}
	if diff := cmp.Diff([]string{"GetItem"}, fake.calls()); diff != "" {
		t.Errorf("operations mismatch (-want +got):\n%s", diff)
	}
}

func statusPtr(s scm.ShipmentStatus) *scm.ShipmentStatus {
	return &s
}

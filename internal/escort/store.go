package escort

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/carelink/escort-platform/pkg/logging"
)

// dateIndex is the GSI keyed on the calendar date, shared by both tables.
const dateIndex = "date-index"

type dynamoAPI interface {
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(context.Context, *dynamodb.UpdateItemInput, ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Query(context.Context, *dynamodb.QueryInput, ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// RequestStore persists escort requests to DynamoDB.
type RequestStore struct {
	client    dynamoAPI
	tableName string
	logger    *logging.Logger
}

// NewRequestStore builds a store backed by the provided DynamoDB client.
func NewRequestStore(client dynamoAPI, tableName string, logger *logging.Logger) *RequestStore {
	if client == nil {
		panic("escort: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("escort: table name cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &RequestStore{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// Create inserts a new pending request. The ID is minted here when the
// caller has not set one.
func (s *RequestStore) Create(ctx context.Context, req *Request) error {
	if req == nil {
		return errors.New("escort: request cannot be nil")
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	req.Status = RequestStatusPending
	req.CreatedAt = now
	req.UpdatedAt = now

	item, err := attributevalue.MarshalMap(req)
	if err != nil {
		return fmt.Errorf("escort: failed to marshal request: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err != nil {
		return fmt.Errorf("escort: failed to persist request: %w", err)
	}
	return nil
}

// Get fetches a request by ID.
func (s *RequestStore) Get(ctx context.Context, id string) (*Request, error) {
	if id == "" {
		return nil, errors.New("escort: request id required")
	}
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("escort: failed to fetch request %s: %w", id, err)
	}
	if out.Item == nil {
		return nil, ErrNotFound
	}

	var req Request
	if err := attributevalue.UnmarshalMap(out.Item, &req); err != nil {
		return nil, fmt.Errorf("escort: failed to decode request: %w", err)
	}
	return &req, nil
}

// ListPendingByDate returns the pending requests on a calendar date, sorted
// by ID so first-fit scans are reproducible across invocations.
func (s *RequestStore) ListPendingByDate(ctx context.Context, date string) ([]Request, error) {
	return s.listByDate(ctx, date, string(RequestStatusPending))
}

// ListByDate returns every request on a calendar date regardless of status.
func (s *RequestStore) ListByDate(ctx context.Context, date string) ([]Request, error) {
	return s.listByDate(ctx, date, "")
}

func (s *RequestStore) listByDate(ctx context.Context, date, status string) ([]Request, error) {
	if date == "" {
		return nil, errors.New("escort: date required")
	}
	out, err := s.client.Query(ctx, queryByDate(s.tableName, date, status))
	if err != nil {
		return nil, fmt.Errorf("escort: failed to query requests for %s: %w", date, err)
	}

	requests := make([]Request, 0, len(out.Items))
	for _, item := range out.Items {
		var req Request
		if err := attributevalue.UnmarshalMap(item, &req); err != nil {
			return nil, fmt.Errorf("escort: failed to decode request: %w", err)
		}
		requests = append(requests, req)
	}
	sort.Slice(requests, func(i, j int) bool { return requests[i].ID < requests[j].ID })
	return requests, nil
}

// MarkMatched transitions a request to matched and writes the cross-reference
// fields. The update is conditional on the request still being pending, so
// two concurrent matchers cannot both claim it.
func (s *RequestStore) MarkMatched(ctx context.Context, id string, match RequestMatch) error {
	if id == "" {
		return errors.New("escort: request id required")
	}
	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
		UpdateExpression:    aws.String("SET #status = :matched, matchedAvailabilityId = :availability, matchedProviderId = :provider, matchedProviderName = :providerName, updatedAt = :updated"),
		ConditionExpression: aws.String("#status = :pending"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":matched":      &types.AttributeValueMemberS{Value: string(RequestStatusMatched)},
			":pending":      &types.AttributeValueMemberS{Value: string(RequestStatusPending)},
			":availability": &types.AttributeValueMemberS{Value: match.AvailabilityID},
			":provider":     &types.AttributeValueMemberS{Value: match.ProviderID},
			":providerName": &types.AttributeValueMemberS{Value: match.ProviderName},
			":updated":      &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339Nano)},
		},
	})
	if err != nil {
		if isConditionalCheckFailure(err) {
			return ErrAlreadyMatched
		}
		return fmt.Errorf("escort: failed to mark request %s matched: %w", id, err)
	}
	return nil
}

// AvailabilityStore persists volunteer coverage windows to DynamoDB.
type AvailabilityStore struct {
	client    dynamoAPI
	tableName string
	logger    *logging.Logger
}

// NewAvailabilityStore builds a store backed by the provided DynamoDB client.
func NewAvailabilityStore(client dynamoAPI, tableName string, logger *logging.Logger) *AvailabilityStore {
	if client == nil {
		panic("escort: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("escort: table name cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &AvailabilityStore{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// Create inserts a new open availability window.
func (s *AvailabilityStore) Create(ctx context.Context, avail *Availability) error {
	if avail == nil {
		return errors.New("escort: availability cannot be nil")
	}
	if avail.ID == "" {
		avail.ID = uuid.NewString()
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	avail.Status = AvailabilityStatusAvailable
	avail.CreatedAt = now
	avail.UpdatedAt = now

	item, err := attributevalue.MarshalMap(avail)
	if err != nil {
		return fmt.Errorf("escort: failed to marshal availability: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err != nil {
		return fmt.Errorf("escort: failed to persist availability: %w", err)
	}
	return nil
}

// Get fetches an availability window by ID.
func (s *AvailabilityStore) Get(ctx context.Context, id string) (*Availability, error) {
	if id == "" {
		return nil, errors.New("escort: availability id required")
	}
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("escort: failed to fetch availability %s: %w", id, err)
	}
	if out.Item == nil {
		return nil, ErrNotFound
	}

	var avail Availability
	if err := attributevalue.UnmarshalMap(out.Item, &avail); err != nil {
		return nil, fmt.Errorf("escort: failed to decode availability: %w", err)
	}
	return &avail, nil
}

// ListAvailableByDate returns the open windows on a calendar date, sorted by
// ID so first-fit scans are reproducible across invocations.
func (s *AvailabilityStore) ListAvailableByDate(ctx context.Context, date string) ([]Availability, error) {
	return s.listByDate(ctx, date, string(AvailabilityStatusAvailable))
}

// ListByDate returns every window on a calendar date regardless of status.
func (s *AvailabilityStore) ListByDate(ctx context.Context, date string) ([]Availability, error) {
	return s.listByDate(ctx, date, "")
}

func (s *AvailabilityStore) listByDate(ctx context.Context, date, status string) ([]Availability, error) {
	if date == "" {
		return nil, errors.New("escort: date required")
	}
	out, err := s.client.Query(ctx, queryByDate(s.tableName, date, status))
	if err != nil {
		return nil, fmt.Errorf("escort: failed to query availability for %s: %w", date, err)
	}

	windows := make([]Availability, 0, len(out.Items))
	for _, item := range out.Items {
		var avail Availability
		if err := attributevalue.UnmarshalMap(item, &avail); err != nil {
			return nil, fmt.Errorf("escort: failed to decode availability: %w", err)
		}
		windows = append(windows, avail)
	}
	sort.Slice(windows, func(i, j int) bool { return windows[i].ID < windows[j].ID })
	return windows, nil
}

// MarkMatched transitions a window to matched, conditional on it still being
// available.
func (s *AvailabilityStore) MarkMatched(ctx context.Context, id string, match AvailabilityMatch) error {
	if id == "" {
		return errors.New("escort: availability id required")
	}
	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
		UpdateExpression:    aws.String("SET #status = :matched, matchedRequestId = :request, matchedUserId = :user, updatedAt = :updated"),
		ConditionExpression: aws.String("#status = :available"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":matched":   &types.AttributeValueMemberS{Value: string(AvailabilityStatusMatched)},
			":available": &types.AttributeValueMemberS{Value: string(AvailabilityStatusAvailable)},
			":request":   &types.AttributeValueMemberS{Value: match.RequestID},
			":user":      &types.AttributeValueMemberS{Value: match.UserID},
			":updated":   &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339Nano)},
		},
	})
	if err != nil {
		if isConditionalCheckFailure(err) {
			return ErrAlreadyMatched
		}
		return fmt.Errorf("escort: failed to mark availability %s matched: %w", id, err)
	}
	return nil
}

// queryByDate builds a date-index query; an empty status omits the filter.
func queryByDate(tableName, date, status string) *dynamodb.QueryInput {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(tableName),
		IndexName:              aws.String(dateIndex),
		KeyConditionExpression: aws.String("#date = :date"),
		ExpressionAttributeNames: map[string]string{
			"#date": "date",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":date": &types.AttributeValueMemberS{Value: date},
		},
	}
	if status != "" {
		input.FilterExpression = aws.String("#status = :status")
		input.ExpressionAttributeNames["#status"] = "status"
		input.ExpressionAttributeValues[":status"] = &types.AttributeValueMemberS{Value: status}
	}
	return input
}

func isConditionalCheckFailure(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}

package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/carelink/escort-platform/pkg/logging"
)

var (
	// ErrNotFound indicates no profile exists for the user ID.
	ErrNotFound = errors.New("users: profile not found")

	// ErrNoPushToken indicates the profile exists but has never registered a
	// push token. Not an error condition for callers; the notification for
	// that party is simply skipped.
	ErrNoPushToken = errors.New("users: profile has no push token")
)

type dynamoAPI interface {
	GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

type profile struct {
	ID        string `dynamodbav:"id"`
	PushToken string `dynamodbav:"pushToken"`
}

// Store reads user profiles from DynamoDB.
type Store struct {
	client    dynamoAPI
	tableName string
	logger    *logging.Logger
}

// NewStore builds a profile store backed by the provided DynamoDB client.
func NewStore(client dynamoAPI, tableName string, logger *logging.Logger) *Store {
	if client == nil {
		panic("users: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("users: table name cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// GetPushToken returns the push token registered on a user's profile.
func (s *Store) GetPushToken(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		return "", errors.New("users: userID required")
	}
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: userID},
		},
	})
	if err != nil {
		return "", fmt.Errorf("users: failed to fetch profile %s: %w", userID, err)
	}
	if out.Item == nil {
		return "", ErrNotFound
	}

	var p profile
	if err := attributevalue.UnmarshalMap(out.Item, &p); err != nil {
		return "", fmt.Errorf("users: failed to decode profile: %w", err)
	}
	if p.PushToken == "" {
		return "", ErrNoPushToken
	}
	return p.PushToken, nil
}

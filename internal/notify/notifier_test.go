// internal/notify/notifier_test.go
package notify

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sourcing-match/internal/common/config"
	commonerrors "sourcing-match/internal/common/errors"
	"sourcing-match/internal/common/logger"
	"sourcing-match/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

type fakeSES struct {
	calls []*ses.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.calls = append(f.calls, params)
	if f.err != nil {
		return nil, f.err
	}
	return &ses.SendEmailOutput{}, nil
}

type fakeSNS struct {
	calls []*sns.PublishInput
	err   error
}

func (f *fakeSNS) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.calls = append(f.calls, params)
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{}, nil
}

func createTestConfig() config.NotificationConfig {
	var cfg config.NotificationConfig
	cfg.Email.Enabled = true
	cfg.Email.FromEmail = "matches@example.com"
	cfg.SMS.Enabled = true
	cfg.AWS.Region = "us-east-1"
	return cfg
}

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock db: %v", err)
	}
	return db, mock
}

func expectContact(mock sqlmock.Sqlmock, userID, email, phone string) {
	mock.ExpectQuery("FROM users").
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{"email", "phone"}).AddRow(email, phone))
}

// ==========================
// NotifyBuyer Tests
// ==========================

func TestNotifyBuyer_SendsEmail(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	expectContact(mock, "buyer-1", "buyer@example.com", "")

	sesClient := &fakeSES{}
	n := NewWithClients(createTestConfig(), db, sesClient, &fakeSNS{}, logger.NewNoOpLogger())

	err := n.NotifyBuyer(context.Background(), "buyer-1", "req-1", 7)

	require.NoError(t, err)
	require.Len(t, sesClient.calls, 1)
	assert.Equal(t, "matches@example.com", *sesClient.calls[0].Source)
	assert.Equal(t, []string{"buyer@example.com"}, sesClient.calls[0].Destination.ToAddresses)
	assert.Contains(t, *sesClient.calls[0].Message.Body.Text.Data, "7 potential matches")
}

func TestNotifyBuyer_DisabledChannel(t *testing.T) {
	db, _ := setupMockDB(t)
	defer db.Close()

	cfg := createTestConfig()
	cfg.Email.Enabled = false

	sesClient := &fakeSES{}
	n := NewWithClients(cfg, db, sesClient, &fakeSNS{}, logger.NewNoOpLogger())

	require.NoError(t, n.NotifyBuyer(context.Background(), "buyer-1", "req-1", 3))
	assert.Empty(t, sesClient.calls)
}

func TestNotifyBuyer_AnonymousBuyer(t *testing.T) {
	db, _ := setupMockDB(t)
	defer db.Close()

	sesClient := &fakeSES{}
	n := NewWithClients(createTestConfig(), db, sesClient, &fakeSNS{}, logger.NewNoOpLogger())

	require.NoError(t, n.NotifyBuyer(context.Background(), "", "req-1", 3))
	assert.Empty(t, sesClient.calls)
}

func TestNotifyBuyer_UnknownContactIsNotAnError(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	mock.ExpectQuery("FROM users").WillReturnError(sql.ErrNoRows)

	sesClient := &fakeSES{}
	n := NewWithClients(createTestConfig(), db, sesClient, &fakeSNS{}, logger.NewNoOpLogger())

	assert.NoError(t, n.NotifyBuyer(context.Background(), "ghost", "req-1", 3))
	assert.Empty(t, sesClient.calls)
}

func TestNotifyBuyer_DeliveryFailure(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	expectContact(mock, "buyer-1", "buyer@example.com", "")

	sesClient := &fakeSES{err: errors.New("throttled")}
	n := NewWithClients(createTestConfig(), db, sesClient, &fakeSNS{}, logger.NewNoOpLogger())

	err := n.NotifyBuyer(context.Background(), "buyer-1", "req-1", 3)

	require.Error(t, err)
	assert.Equal(t, commonerrors.ErrCodeNotificationSendFailed, commonerrors.CodeOf(err))
	assert.False(t, commonerrors.IsFatal(err))
}

// ==========================
// NotifyMatchedSellers Tests
// ==========================

func TestNotifyMatchedSellers_TextsInternalSellersOnly(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	expectContact(mock, "seller-1", "", "+15550001111")

	snsClient := &fakeSNS{}
	n := NewWithClients(createTestConfig(), db, &fakeSES{}, snsClient, logger.NewNoOpLogger())

	matches := []models.ScoredCandidate{
		{CandidateItem: models.CandidateItem{ID: "int-1", Name: "jacket", Source: models.SourceInternal, SellerID: "seller-1"}, Score: 0.9},
		{CandidateItem: models.CandidateItem{ID: "ebay-1", Name: "jacket", Source: models.SourceEbay, SellerID: "seller-2"}, Score: 0.8},
		{CandidateItem: models.CandidateItem{ID: "int-2", Name: "boots", Source: models.SourceInternal}, Score: 0.7}, // no seller id
	}

	n.NotifyMatchedSellers(context.Background(), matches)

	require.Len(t, snsClient.calls, 1)
	assert.Equal(t, "+15550001111", *snsClient.calls[0].PhoneNumber)
	assert.Contains(t, *snsClient.calls[0].Message, "jacket")
}

func TestNotifyMatchedSellers_OneFailureDoesNotStopTheRest(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	expectContact(mock, "seller-1", "", "+15550001111")
	expectContact(mock, "seller-2", "", "+15550002222")

	snsClient := &fakeSNS{err: errors.New("invalid number")}
	n := NewWithClients(createTestConfig(), db, &fakeSES{}, snsClient, logger.NewNoOpLogger())

	matches := []models.ScoredCandidate{
		{CandidateItem: models.CandidateItem{ID: "int-1", Name: "a", Source: models.SourceInternal, SellerID: "seller-1"}},
		{CandidateItem: models.CandidateItem{ID: "int-2", Name: "b", Source: models.SourceInternal, SellerID: "seller-2"}},
	}

	n.NotifyMatchedSellers(context.Background(), matches)

	assert.Len(t, snsClient.calls, 2)
}

func TestNotifyMatchedSellers_SMSDisabled(t *testing.T) {
	db, _ := setupMockDB(t)
	defer db.Close()

	cfg := createTestConfig()
	cfg.SMS.Enabled = false

	snsClient := &fakeSNS{}
	n := NewWithClients(cfg, db, &fakeSES{}, snsClient, logger.NewNoOpLogger())

	n.NotifyMatchedSellers(context.Background(), []models.ScoredCandidate{
		{CandidateItem: models.CandidateItem{Source: models.SourceInternal, SellerID: "seller-1"}},
	})

	assert.Empty(t, snsClient.calls)
}

// ==========================
// NotifyBuyerOfListing Tests
// ==========================

func TestNotifyBuyerOfListing_SendsEmail(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	expectContact(mock, "buyer-3", "buyer3@example.com", "")

	sesClient := &fakeSES{}
	n := NewWithClients(createTestConfig(), db, sesClient, &fakeSNS{}, logger.NewNoOpLogger())

	err := n.NotifyBuyerOfListing(context.Background(), "buyer-3", "req-3", models.NewListing{
		ListingID: "lst-1",
		Name:      "vintage leather jacket",
		Price:     79.99,
	})

	require.NoError(t, err)
	require.Len(t, sesClient.calls, 1)
	assert.Contains(t, *sesClient.calls[0].Message.Body.Text.Data, "vintage leather jacket")
	assert.Contains(t, *sesClient.calls[0].Message.Body.Text.Data, "req-3")
}

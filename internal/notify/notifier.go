// internal/notify/notifier.go

// Package notify delivers best-effort match notifications to buyers and
// sellers. Delivery failures are logged and never affect the match response.
package notify

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"sourcing-match/internal/common/config"
	commonerrors "sourcing-match/internal/common/errors"
	"sourcing-match/internal/common/logger"
	"sourcing-match/internal/models"
)

// Define interfaces for mocking
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type Notifier struct {
	cfg       config.NotificationConfig
	db        *sql.DB
	sesClient SESService
	snsClient SNSService
	logger    logger.Logger
}

func New(ctx context.Context, cfg config.NotificationConfig, db *sql.DB, log logger.Logger) (*Notifier, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	return NewWithClients(cfg, db, ses.NewFromConfig(awsCfg), sns.NewFromConfig(awsCfg), log), nil
}

// NewWithClients wires explicit SES/SNS clients; tests inject fakes here.
func NewWithClients(cfg config.NotificationConfig, db *sql.DB, sesClient SESService, snsClient SNSService, log logger.Logger) *Notifier {
	return &Notifier{
		cfg:       cfg,
		db:        db,
		sesClient: sesClient,
		snsClient: snsClient,
		logger:    log.WithFields(map[string]interface{}{"component": "notifier"}),
	}
}

// NotifyBuyer emails the buyer how many matches their request produced.
func (n *Notifier) NotifyBuyer(ctx context.Context, buyerID, requestID string, totalMatches int) error {
	if !n.cfg.Email.Enabled || buyerID == "" {
		return nil
	}

	email, _, err := n.recipientContact(ctx, buyerID)
	if err != nil {
		n.logger.Warn("buyer contact not found", map[string]interface{}{
			"buyerId": buyerID,
		})
		return nil
	}

	subject := "We found matches for your request"
	body := fmt.Sprintf("We found %d potential matches for your request %s.", totalMatches, requestID)

	_, err = n.sesClient.SendEmail(ctx, &ses.SendEmailInput{
		Source: aws.String(n.cfg.Email.FromEmail),
		Destination: &types.Destination{
			ToAddresses: []string{email},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
	})
	if err != nil {
		return commonerrors.NewNotificationSendFailedError("email", err)
	}

	n.logger.Info("buyer notified", map[string]interface{}{
		"buyerId":   buyerID,
		"requestId": requestID,
		"matches":   totalMatches,
	})
	return nil
}

// NotifyMatchedSellers texts the sellers of internally-listed items that
// appeared in the ranked matches. Each delivery is independent; one failure
// does not stop the rest.
func (n *Notifier) NotifyMatchedSellers(ctx context.Context, matches []models.ScoredCandidate) {
	if !n.cfg.SMS.Enabled {
		return
	}

	for _, m := range matches {
		if m.Source != models.SourceInternal || m.SellerID == "" {
			continue
		}

		_, phone, err := n.recipientContact(ctx, m.SellerID)
		if err != nil || phone == "" {
			continue
		}

		message := fmt.Sprintf("Your listing %q has been matched with a buyer request.", m.Name)
		_, err = n.snsClient.Publish(ctx, &sns.PublishInput{
			PhoneNumber: aws.String(phone),
			Message:     aws.String(message),
		})
		if err != nil {
			n.logger.Error("seller notification failed", map[string]interface{}{
				"sellerId":  m.SellerID,
				"listingId": m.ID,
				"error":     err.Error(),
			})
			continue
		}

		n.logger.Info("seller notified", map[string]interface{}{
			"sellerId":  m.SellerID,
			"listingId": m.ID,
		})
	}
}

// NotifyBuyerOfListing emails a buyer whose active request matched a freshly
// posted listing.
func (n *Notifier) NotifyBuyerOfListing(ctx context.Context, buyerID, requestID string, listing models.NewListing) error {
	if !n.cfg.Email.Enabled || buyerID == "" {
		return nil
	}

	email, _, err := n.recipientContact(ctx, buyerID)
	if err != nil {
		return nil
	}

	subject := "A new listing matches your request"
	body := fmt.Sprintf("A newly listed item %q (%.2f) matches your request %s.", listing.Name, listing.Price, requestID)

	_, err = n.sesClient.SendEmail(ctx, &ses.SendEmailInput{
		Source: aws.String(n.cfg.Email.FromEmail),
		Destination: &types.Destination{
			ToAddresses: []string{email},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
	})
	if err != nil {
		return commonerrors.NewNotificationSendFailedError("email", err)
	}
	return nil
}

func (n *Notifier) recipientContact(ctx context.Context, userID string) (email, phone string, err error) {
	query := `SELECT COALESCE(email, ''), COALESCE(phone, '') FROM users WHERE user_id = $1`
	err = n.db.QueryRowContext(ctx, query, userID).Scan(&email, &phone)
	return email, phone, err
}

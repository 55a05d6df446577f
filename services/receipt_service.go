package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	appConfig "github.com/Rajvansh-1/starbucks-rewards-api/config"
	"github.com/Rajvansh-1/starbucks-rewards-api/models"
)

// ReceiptInterface archives immutable receipt snapshots of terminal orders.
// Archival is best-effort: a failure is logged by the caller and never fails
// the triggering operation.
type ReceiptInterface interface {
	ArchiveOrder(order *models.Order) (string, error)
}

// ReceiptService uploads JSON receipts to S3. The snapshot preserves the
// prices captured at order time for financial auditability.
type ReceiptService struct {
	client *s3.Client
	bucket string
}

var receiptServiceInstance ReceiptInterface

// InitReceiptService initializes the S3-backed receipt service
func InitReceiptService() (ReceiptInterface, error) {
	cfg := appConfig.GetConfig()

	awsConfig, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(cfg.AWSRegion),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AWSAccessKeyID,
			cfg.AWSSecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsConfig)

	receiptServiceInstance = &ReceiptService{
		client: client,
		bucket: cfg.AWSS3Bucket,
	}

	return receiptServiceInstance, nil
}

// GetReceiptService returns the initialized receipt service instance
func GetReceiptService() ReceiptInterface {
	return receiptServiceInstance
}

// SetReceiptService sets the receipt service instance (primarily for testing)
func SetReceiptService(service ReceiptInterface) {
	receiptServiceInstance = service
}

// ArchiveOrder uploads a JSON snapshot of the order and returns its S3 key.
func (s *ReceiptService) ArchiveOrder(order *models.Order) (string, error) {
	if order.OrderNumber == "" {
		return "", fmt.Errorf("cannot archive order without an order number")
	}

	receipt, err := json.MarshalIndent(order, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal receipt: %w", err)
	}

	// Format: receipts/{orderNumber}.json
	s3Key := fmt.Sprintf("receipts/%s.json", order.OrderNumber)

	_, err = s.client.PutObject(context.TODO(), &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s3Key),
		Body:        bytes.NewReader(receipt),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload receipt to S3: %w", err)
	}

	return s3Key, nil
}

// utils/r2.go
package utils

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

var r2Client *s3.Client
var r2Bucket string
var cdnBaseURL string

// R2Enabled reports whether object storage was configured at startup.
// When false, transfer proofs fall back to the local uploads directory.
func R2Enabled() bool {
	return r2Client != nil
}

func InitR2() error {
	accountID := os.Getenv("CLOUDFLARE_ACCOUNT_ID")
	accessKeyID := os.Getenv("R2_ACCESS_KEY_ID")
	accessKeySecret := os.Getenv("R2_ACCESS_KEY_SECRET")
	r2Bucket = os.Getenv("R2_BUCKET_NAME")
	cdnBaseURL = os.Getenv("CDN_BASE_URL")
	if cdnBaseURL == "" {
		cdnBaseURL = fmt.Sprintf("https://%s.r2.cloudflarestorage.com", accountID)
	}

	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion("auto"),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			accessKeyID, accessKeySecret, "",
		)),
		config.WithEndpointResolver(aws.EndpointResolverFunc(
			func(service, region string) (aws.Endpoint, error) {
				return aws.Endpoint{
					URL: fmt.Sprintf("https://%s.r2.cloudflarestorage.com", accountID),
				}, nil
			}),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to load R2 config: %w", err)
	}

	r2Client = s3.NewFromConfig(cfg)
	return nil
}

// uploadToR2 uploads a multipart file under the given object key and returns
// the public CDN URL.
func uploadToR2(fileHeader *multipart.FileHeader, key string) (string, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, file); err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	_, err = r2Client.PutObject(context.TODO(), &s3.PutObjectInput{
		Bucket:      aws.String(r2Bucket),
		Key:         aws.String(key),
		Body:        buf,
		ContentType: aws.String(fileHeader.Header.Get("Content-Type")),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to R2: %w", err)
	}

	return fmt.Sprintf("%s/%s", cdnBaseURL, key), nil
}

// UploadTransferProof stores an admin's proof-of-transfer image for a
// withdrawal. Uses R2 when configured, otherwise the local uploads dir.
func UploadTransferProof(fileHeader *multipart.FileHeader) (string, error) {
	ext := filepath.Ext(fileHeader.Filename)
	if ext == "" {
		ext = ".jpg"
	}
	name := uuid.NewString() + ext

	if R2Enabled() {
		return uploadToR2(fileHeader, "transfer-proofs/"+name)
	}

	destPath := GetUploadPath(filepath.Join("transfer-proofs", name))
	if err := SaveFile(fileHeader, destPath); err != nil {
		return "", fmt.Errorf("failed to save transfer proof locally: %w", err)
	}
	return "/uploads/transfer-proofs/" + name, nil
}

// UploadPaymentProof stores a pilgrim's proof-of-payment image.
func UploadPaymentProof(fileHeader *multipart.FileHeader) (string, error) {
	ext := filepath.Ext(fileHeader.Filename)
	if ext == "" {
		ext = ".jpg"
	}
	name := uuid.NewString() + ext

	if R2Enabled() {
		return uploadToR2(fileHeader, "payment-proofs/"+name)
	}

	destPath := GetUploadPath(filepath.Join("payment-proofs", name))
	if err := SaveFile(fileHeader, destPath); err != nil {
		return "", fmt.Errorf("failed to save payment proof locally: %w", err)
	}
	return "/uploads/payment-proofs/" + name, nil
}

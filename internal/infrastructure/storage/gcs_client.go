package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/option"

	"livemarket/pkg/logger"
)

const firebaseDownloadBase = "https://firebasestorage.googleapis.com/v0/b"

type CloudStorageClient struct {
	client     *storage.Client
	bucketName string
}

func NewCloudStorageClient(ctx context.Context, bucketName string, opts ...option.ClientOption) (*CloudStorageClient, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %v", err)
	}

	storageClient := &CloudStorageClient{
		client:     client,
		bucketName: bucketName,
	}

	if err := storageClient.setBucketCORS(ctx); err != nil {
		logger.Warn("Failed to set CORS configuration on bucket %s: %v", bucketName, err)
	}

	return storageClient, nil
}

func (c *CloudStorageClient) setBucketCORS(ctx context.Context) error {
	bucket := c.client.Bucket(c.bucketName)

	corsConfig := storage.CORS{
		MaxAge:          3600,
		Methods:         []string{"GET", "HEAD"},
		Origins:         []string{"*"},
		ResponseHeaders: []string{"Content-Type"},
	}

	bucketAttrs, err := bucket.Attrs(ctx)
	if err != nil {
		return fmt.Errorf("failed to get bucket attributes: %v", err)
	}

	if len(bucketAttrs.CORS) == 0 {
		_, err := bucket.Update(ctx, storage.BucketAttrsToUpdate{
			CORS: []storage.CORS{corsConfig},
		})
		if err != nil {
			return fmt.Errorf("failed to update bucket CORS: %v", err)
		}
	}

	return nil
}

// ImageExtension maps an accepted image content type to its file extension.
func ImageExtension(contentType string) (string, bool) {
	switch strings.ToLower(contentType) {
	case "image/jpeg", "image/jpg":
		return ".jpg", true
	case "image/png":
		return ".png", true
	case "image/gif":
		return ".gif", true
	case "image/webp":
		return ".webp", true
	}
	return "", false
}

// ObjectName builds chat_images/<chatID>/<uuid>-<timestamp><ext>.
func ObjectName(chatID, ext string, now time.Time) string {
	return fmt.Sprintf("chat_images/%s/%s-%s%s", chatID, uuid.New().String(), now.Format("20060102150405"), ext)
}

// DownloadURL is the Firebase Storage URL clients render for an object.
func DownloadURL(bucket, objectName, token string) string {
	u := fmt.Sprintf("%s/%s/o/%s?alt=media", firebaseDownloadBase, bucket, url.PathEscape(objectName))
	if token != "" {
		u += "&token=" + url.QueryEscape(token)
	}
	return u
}

// UploadChatImage stores an image for chatID and returns its download URL.
func (c *CloudStorageClient) UploadChatImage(ctx context.Context, chatID, contentType string, file io.Reader) (string, error) {
	ext, ok := ImageExtension(contentType)
	if !ok {
		return "", fmt.Errorf("unsupported content type %q", contentType)
	}

	objectName := ObjectName(chatID, ext, time.Now())
	token := uuid.New().String()

	obj := c.client.Bucket(c.bucketName).Object(objectName)
	wc := obj.NewWriter(ctx)
	wc.ContentType = contentType
	wc.CacheControl = "public, max-age=86400"
	wc.Metadata = map[string]string{
		// honoured by Firebase Storage download URLs
		"firebaseStorageDownloadTokens": token,
	}

	if _, err := io.Copy(wc, file); err != nil {
		wc.Close()
		return "", fmt.Errorf("failed to copy file to GCS: %v", err)
	}

	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("failed to close writer: %v", err)
	}

	return DownloadURL(c.bucketName, objectName, token), nil
}

func (c *CloudStorageClient) DeleteFile(ctx context.Context, objectName string) error {
	if err := c.client.Bucket(c.bucketName).Object(objectName).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete file: %v", err)
	}
	return nil
}

func (c *CloudStorageClient) Close() error {
	return c.client.Close()
}

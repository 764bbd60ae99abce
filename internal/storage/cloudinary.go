package storage

import (
	"context"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"skill_swap/internal/config"
	"skill_swap/pkg/logger"
)

// ObjectStorage — внешнее объектное хранилище. Ядро персистит только
// возвращенные url/path, никогда сырые байты.
type ObjectStorage interface {
	Upload(ctx context.Context, data []byte, path string) (string, error)
	Delete(ctx context.Context, path string) error
}

type cloudinaryStorage struct {
	cfg    config.StorageConfig
	client *http.Client
	log    logger.Logger
}

func NewCloudinaryStorage(cfg config.StorageConfig, log logger.Logger) ObjectStorage {
	return &cloudinaryStorage{
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
		log:    log,
	}
}

func (s *cloudinaryStorage) Upload(ctx context.Context, data []byte, path string) (string, error) {
	if s.cfg.CloudName == "" || s.cfg.APIKey == "" || s.cfg.APISecret == "" {
		return "", fmt.Errorf("storage credentials are not configured")
	}

	publicID := path
	if s.cfg.Folder != "" {
		publicID = s.cfg.Folder + "/" + path
	}

	timestamp := fmt.Sprintf("%d", time.Now().Unix())

	// Подпись: отсортированные параметры + секрет, SHA-1
	signaturePayload := fmt.Sprintf("public_id=%s&timestamp=%s%s", publicID, timestamp, s.cfg.APISecret)
	digest := sha1.Sum([]byte(signaturePayload))
	signature := hex.EncodeToString(digest[:])

	form := url.Values{}
	form.Add("file", "data:application/octet-stream;base64,"+base64.StdEncoding.EncodeToString(data))
	form.Add("api_key", s.cfg.APIKey)
	form.Add("public_id", publicID)
	form.Add("timestamp", timestamp)
	form.Add("signature", signature)

	endpoint := fmt.Sprintf("https://api.cloudinary.com/v1_1/%s/auto/upload", s.cfg.CloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		s.log.Error("Failed to upload file", "error", err, "path", path)
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.log.Error("Upload rejected by storage", "status", resp.StatusCode, "path", path)
		return "", fmt.Errorf("storage upload failed with status %d", resp.StatusCode)
	}

	var result struct {
		SecureURL string `json:"secure_url"`
		URL       string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}

	if result.SecureURL != "" {
		return result.SecureURL, nil
	}
	return result.URL, nil
}

func (s *cloudinaryStorage) Delete(ctx context.Context, path string) error {
	publicID := path
	if s.cfg.Folder != "" {
		publicID = s.cfg.Folder + "/" + path
	}

	timestamp := fmt.Sprintf("%d", time.Now().Unix())
	signaturePayload := fmt.Sprintf("public_id=%s&timestamp=%s%s", publicID, timestamp, s.cfg.APISecret)
	digest := sha1.Sum([]byte(signaturePayload))
	signature := hex.EncodeToString(digest[:])

	form := url.Values{}
	form.Add("api_key", s.cfg.APIKey)
	form.Add("public_id", publicID)
	form.Add("timestamp", timestamp)
	form.Add("signature", signature)

	endpoint := fmt.Sprintf("https://api.cloudinary.com/v1_1/%s/auto/destroy", s.cfg.CloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		s.log.Error("Failed to delete file", "error", err, "path", path)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("storage delete failed with status %d", resp.StatusCode)
	}
	return nil
}

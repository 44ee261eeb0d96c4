package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// SupabaseUploader Supabase Storage 上传实现
type SupabaseUploader struct {
	baseURL    string
	apiKey     string
	bucket     string
	httpClient *http.Client
}

// NewSupabaseUploader 创建 Supabase Storage 客户端
func NewSupabaseUploader(url, key, bucket string) *SupabaseUploader {
	// 确保URL格式正确
	if !strings.HasPrefix(url, "http") {
		url = "https://" + url
	}

	return &SupabaseUploader{
		baseURL: strings.TrimSuffix(url, "/"),
		apiKey:  key,
		bucket:  bucket,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Upload 上传对象并返回公开地址（bucket 需为 public）
func (s *SupabaseUploader) Upload(ctx context.Context, key, contentType string, data []byte) (string, error) {
	endpoint := fmt.Sprintf("/storage/v1/object/%s/%s", s.bucket, key)
	headers := map[string]string{
		"Content-Type": contentType,
		"x-upsert":     "true",
	}
	if _, err := s.makeRequest(ctx, http.MethodPost, endpoint, data, headers); err != nil {
		return "", err
	}
	return s.PublicURL(key), nil
}

// PublicURL 对象的公开访问地址
func (s *SupabaseUploader) PublicURL(key string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.baseURL, s.bucket, key)
}

// makeRequest 发送HTTP请求到Supabase（支持自定义头）
func (s *SupabaseUploader) makeRequest(ctx context.Context, method, endpoint string, body []byte, customHeaders map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// 设置默认请求头
	req.Header.Set("apikey", s.apiKey)
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	// 设置自定义请求头
	for key, value := range customHeaders {
		req.Header.Set(key, value)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("storage request failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	return respBody, nil
}

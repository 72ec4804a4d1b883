package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/lifecycle"
	"github.com/rs/zerolog"

	"github.com/induwarapathirana/cv-creator-sub000/internal/config"
)

// MinIO 存放原始上传文件和提取出的纯文本
// 纯文本用于解析结果的复现排查
type MinIO struct {
	client         *minio.Client
	cfg            *config.MinIOConfig
	originalBucket string
	rawTextBucket  string
	logger         zerolog.Logger
}

// NewMinIO 创建MinIO客户端并确保存储桶存在
func NewMinIO(ctx context.Context, cfg *config.MinIOConfig, logger zerolog.Logger) (*MinIO, error) {
	if cfg == nil {
		return nil, fmt.Errorf("MinIO配置不能为空")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Location,
	})
	if err != nil {
		return nil, fmt.Errorf("创建MinIO客户端失败: %w", err)
	}

	m := &MinIO{
		client:         client,
		cfg:            cfg,
		originalBucket: cfg.OriginalsBucket,
		rawTextBucket:  cfg.RawTextBucket,
		logger:         logger.With().Str("component", "minio").Logger(),
	}

	for _, bucket := range []string{m.originalBucket, m.rawTextBucket} {
		if err := m.ensureBucketExists(ctx, bucket); err != nil {
			return nil, err
		}
	}

	if err := m.setupLifecycleRules(ctx); err != nil {
		// 生命周期规则失败不影响上传
		m.logger.Warn().Err(err).Msg("设置生命周期规则失败")
	}

	m.logger.Info().Str("endpoint", cfg.Endpoint).Msg("MinIO客户端初始化成功")
	return m, nil
}

func (m *MinIO) ensureBucketExists(ctx context.Context, bucketName string) error {
	exists, err := m.client.BucketExists(ctx, bucketName)
	if err != nil {
		return fmt.Errorf("检查存储桶 %s 是否存在时出错: %w", bucketName, err)
	}
	if exists {
		return nil
	}
	if err := m.client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{Region: m.cfg.Location}); err != nil {
		return fmt.Errorf("创建存储桶 %s 失败: %w", bucketName, err)
	}
	m.logger.Info().Str("bucket", bucketName).Msg("存储桶已创建")
	return nil
}

func (m *MinIO) setupLifecycleRules(ctx context.Context) error {
	rules := []struct {
		bucket string
		id     string
		days   int
	}{
		{m.originalBucket, "expire-originals", m.cfg.OriginalFileExpireDays},
		{m.rawTextBucket, "expire-raw-text", m.cfg.RawTextExpireDays},
	}
	for _, r := range rules {
		if r.days <= 0 {
			continue
		}
		lc := lifecycle.NewConfiguration()
		lc.Rules = []lifecycle.Rule{{
			ID:         r.id,
			Status:     "Enabled",
			Expiration: lifecycle.Expiration{Days: lifecycle.ExpirationDays(r.days)},
		}}
		if err := m.client.SetBucketLifecycle(ctx, r.bucket, lc); err != nil {
			return fmt.Errorf("为存储桶 %s 设置生命周期失败: %w", r.bucket, err)
		}
	}
	return nil
}

// OriginalObjectName resume/{uuid}/original{ext}
func OriginalObjectName(submissionUUID, fileName string) string {
	ext := strings.ToLower(path.Ext(fileName))
	if ext == "" {
		ext = ".pdf"
	}
	return fmt.Sprintf("resume/%s/original%s", submissionUUID, ext)
}

// RawTextObjectName resume/{uuid}/raw.txt
func RawTextObjectName(submissionUUID string) string {
	return fmt.Sprintf("resume/%s/raw.txt", submissionUUID)
}

// UploadOriginal 上传原始文件，返回对象键
func (m *MinIO) UploadOriginal(ctx context.Context, submissionUUID, fileName string, data []byte) (string, error) {
	objectName := OriginalObjectName(submissionUUID, fileName)
	_, err := m.client.PutObject(ctx, m.originalBucket, objectName, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{
			ContentType:  getContentType(path.Ext(objectName)),
			UserMetadata: map[string]string{"original-filename": fileName},
		})
	if err != nil {
		return "", fmt.Errorf("上传原始文件 %s 失败: %w", objectName, err)
	}
	m.logger.Debug().Str("object", objectName).Int("size", len(data)).Msg("原始文件已上传")
	return objectName, nil
}

// UploadRawText 上传提取出的纯文本
func (m *MinIO) UploadRawText(ctx context.Context, submissionUUID, text string) (string, error) {
	objectName := RawTextObjectName(submissionUUID)
	_, err := m.client.PutObject(ctx, m.rawTextBucket, objectName, strings.NewReader(text), int64(len(text)),
		minio.PutObjectOptions{ContentType: "text/plain; charset=utf-8"})
	if err != nil {
		return "", fmt.Errorf("上传纯文本 %s 失败: %w", objectName, err)
	}
	return objectName, nil
}

// GetOriginal 下载原始文件
func (m *MinIO) GetOriginal(ctx context.Context, objectName string) ([]byte, error) {
	return m.download(ctx, m.originalBucket, objectName)
}

// GetRawText 下载纯文本
func (m *MinIO) GetRawText(ctx context.Context, objectName string) (string, error) {
	data, err := m.download(ctx, m.rawTextBucket, objectName)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (m *MinIO) download(ctx context.Context, bucket, objectName string) ([]byte, error) {
	obj, err := m.client.GetObject(ctx, bucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("获取对象 %s/%s 失败: %w", bucket, objectName, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		var resp minio.ErrorResponse
		if errors.As(err, &resp) && resp.Code == "NoSuchKey" {
			return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, bucket, objectName)
		}
		return nil, fmt.Errorf("读取对象 %s/%s 失败: %w", bucket, objectName, err)
	}
	return data, nil
}

func getContentType(ext string) string {
	switch strings.ToLower(ext) {
	case ".pdf":
		return "application/pdf"
	case ".txt":
		return "text/plain"
	case ".doc":
		return "application/msword"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	default:
		return "application/octet-stream"
	}
}

package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"go.uber.org/zap"

	"github.com/voyago/travel-booking/internal/config"
)

// ReportWriter persists reconciliation reports for operators.
type ReportWriter interface {
	WriteReport(ctx context.Context, key string, report interface{}) (string, error)
}

// ReportStore writes JSON reports to S3 when AWS is configured, otherwise to a local directory.
type ReportStore struct {
	uploader *s3manager.Uploader
	bucket   string
	region   string
	localDir string
	log      *zap.Logger
}

// NewReportStore picks S3 or local storage based on configuration.
func NewReportStore(cfg *config.Config, log *zap.Logger) (*ReportStore, error) {
	ac := cfg.AWS
	if ac.Region != "" && ac.AccessKeyID != "" && ac.SecretAccessKey != "" && ac.Bucket != "" {
		sess, err := session.NewSession(awsConfig(ac))
		if err != nil {
			return nil, fmt.Errorf("failed to create AWS session: %v", err)
		}
		log.Info("report storage: s3", zap.String("bucket", ac.Bucket))
		return &ReportStore{
			uploader: s3manager.NewUploader(sess),
			bucket:   ac.Bucket,
			region:   ac.Region,
			log:      log,
		}, nil
	}

	if err := os.MkdirAll(filepath.Join(cfg.ReportDir, "reports"), 0755); err != nil {
		return nil, fmt.Errorf("failed to create report directory: %v", err)
	}
	log.Warn("AWS S3 not configured, writing reports to local disk", zap.String("dir", cfg.ReportDir))
	return &ReportStore{localDir: cfg.ReportDir, log: log}, nil
}

// NewLocalReportStore writes reports under dir.
func NewLocalReportStore(dir string, log *zap.Logger) *ReportStore {
	return &ReportStore{localDir: dir, log: log}
}

func awsConfig(c config.AWSConfig) *aws.Config {
	return &aws.Config{
		Region:      aws.String(c.Region),
		Credentials: credentials.NewStaticCredentials(c.AccessKeyID, c.SecretAccessKey, ""),
	}
}

// WriteReport stores report as reports/<key>.json and returns its location.
func (s *ReportStore) WriteReport(ctx context.Context, key string, report interface{}) (string, error) {
	body, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode report: %v", err)
	}
	name := "reports/" + key + ".json"

	if s.uploader != nil {
		_, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
			Bucket:      aws.String(s.bucket),
			Key:         aws.String(name),
			Body:        bytes.NewReader(body),
			ContentType: aws.String("application/json"),
		})
		if err != nil {
			return "", fmt.Errorf("failed to upload report to S3: %v", err)
		}
		location := fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, name)
		s.log.Info("report written", zap.String("location", location))
		return location, nil
	}

	path := filepath.Join(s.localDir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %v", err)
	}
	if err := os.WriteFile(path, body, 0644); err != nil {
		return "", fmt.Errorf("failed to save report: %v", err)
	}
	s.log.Info("report written", zap.String("location", path))
	return path, nil
}

package app

import (
	"strings"

	"github.com/charlesng35/resumex/internal/analyzer"
	"github.com/charlesng35/resumex/internal/storage"
)

// ClientConfig converts AnalyzerConfig into webhook client parameters.
func (c AnalyzerConfig) ClientConfig() analyzer.Config {
	return analyzer.Config{
		WebhookURL: strings.TrimSpace(c.WebhookURL),
		Timeout:    c.Timeout,
	}
}

// S3Config converts the archive settings into the storage package representation.
func (c StorageConfig) S3Config() storage.S3Config {
	return storage.S3Config{
		Bucket:    strings.TrimSpace(c.S3.Bucket),
		Region:    strings.TrimSpace(c.S3.Region),
		Endpoint:  strings.TrimSpace(c.S3.Endpoint),
		AccessKey: strings.TrimSpace(c.S3.AccessKey),
		SecretKey: c.S3.SecretKey,
	}
}

package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"

	apperrors "go-screenshot-inspector/internal/errors"
	"go-screenshot-inspector/internal/logger"
)

// AzureSource downloads azure://<container>/<blob> references to a
// temporary file through shared-key blob storage access.
type AzureSource struct {
	client *azblob.Client
}

func NewAzureSource(accountName, accountKey string) (*AzureSource, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, apperrors.NewInputError("invalid azure credentials", err)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s.blob.core.windows.net", accountName),
		credential,
		nil,
	)
	if err != nil {
		return nil, apperrors.NewInputError("failed to create azure blob client", err)
	}
	return &AzureSource{client: client}, nil
}

func (s *AzureSource) Materialize(ctx context.Context, source string) (string, func(), error) {
	container, blob, err := parseAzureRef(source)
	if err != nil {
		return "", noopCleanup, err
	}

	resp, err := s.client.DownloadStream(ctx, container, blob, nil)
	if err != nil {
		return "", noopCleanup, apperrors.NewInputError(
			fmt.Sprintf("azure download failed: %s", source), err)
	}
	body := resp.Body
	defer body.Close()

	ext := path.Ext(blob)
	if ext == "" {
		ext = ".png"
	}

	tmpFile, err := os.CreateTemp("", "azure-*"+ext)
	if err != nil {
		return "", noopCleanup, apperrors.NewInputError("failed to create temp file for download", err)
	}
	tmpPath := tmpFile.Name()
	cleanup := func() { os.Remove(tmpPath) }

	if _, err := io.Copy(tmpFile, body); err != nil {
		tmpFile.Close()
		cleanup()
		return "", noopCleanup, apperrors.NewInputError(
			fmt.Sprintf("failed to download blob: %s", source), err)
	}
	if err := tmpFile.Close(); err != nil {
		cleanup()
		return "", noopCleanup, apperrors.NewInputError("failed to finalize downloaded blob", err)
	}

	logger.WithField("source", source).Debug("blob downloaded to temp file")
	return tmpPath, cleanup, nil
}

// parseAzureRef splits azure://container/path/to/blob.png into container
// and blob names.
func parseAzureRef(source string) (string, string, error) {
	parsed, err := url.Parse(source)
	if err != nil {
		return "", "", apperrors.NewInputError(fmt.Sprintf("invalid azure reference: %s", source), err)
	}

	container := parsed.Host
	blob := strings.TrimPrefix(parsed.Path, "/")
	if container == "" || blob == "" {
		return "", "", apperrors.NewInputError(
			fmt.Sprintf("azure reference must be azure://container/blob: %s", source), nil)
	}
	return container, blob, nil
}

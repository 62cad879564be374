package ocr

import (
	"bytes"
	"context"
	"strings"

	vision "cloud.google.com/go/vision/apiv1"
	"github.com/pulseai/apiserver/config"
	"google.golang.org/api/option"
)

// VisionClient wraps the Cloud Vision SDK for receipt text recognition.
type VisionClient struct {
	client *vision.ImageAnnotatorClient
}

// NewVisionClient constructs a Vision client from config. When no
// credentials file is configured, application default credentials apply.
func NewVisionClient(ctx context.Context, cfg config.VisionConfig) (*VisionClient, error) {
	var opts []option.ClientOption
	if strings.TrimSpace(cfg.CredentialsFile) != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := vision.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &VisionClient{client: client}, nil
}

// DetectText runs document text detection on an image and returns the
// full recognized text, or the empty string when nothing was found.
func (v *VisionClient) DetectText(ctx context.Context, image []byte) (string, error) {
	img, err := vision.NewImageFromReader(bytes.NewReader(image))
	if err != nil {
		return "", err
	}

	annotation, err := v.client.DetectDocumentText(ctx, img, nil)
	if err != nil {
		return "", err
	}
	if annotation == nil {
		return "", nil
	}
	return annotation.GetText(), nil
}

// Close releases the underlying gRPC connection.
func (v *VisionClient) Close() error {
	return v.client.Close()
}

package ocr

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// Extractor supplies the raw text of an invoice document. It is the text
// source for the first pipeline stage; a failure here fails the whole run.
type Extractor interface {
	ExtractText(ctx context.Context, path string) (string, error)
}

// Config selects and configures the text extraction provider.
type Config struct {
	Provider      string `yaml:"provider" mapstructure:"provider"`
	PdfToTextPath string `yaml:"pdftotext_path" mapstructure:"pdftotext_path"`
	MistralKey    string `yaml:"mistral_api_key" mapstructure:"mistral_api_key"`
	MistralModel  string `yaml:"mistral_ocr_model" mapstructure:"mistral_ocr_model"`
}

// NewExtractor creates an Extractor based on config.
func NewExtractor(cfg Config) (Extractor, error) {
	switch cfg.Provider {
	case "local", "":
		return NewPdfToText(cfg.PdfToTextPath), nil
	case "mistral":
		if cfg.MistralKey == "" {
			return nil, eris.New("ocr: mistral provider requires mistral_api_key")
		}
		return NewMistralOCR(cfg.MistralKey, cfg.MistralModel), nil
	default:
		return nil, eris.Errorf("ocr: unknown provider %q", cfg.Provider)
	}
}

// readPlainText handles non-PDF documents that are already plain text.
// Returns ("", false, nil) when the file should go through the provider.
func readPlainText(path string) (string, bool, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".txt" {
		return "", false, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", true, eris.Wrapf(err, "ocr: read %s", path)
	}
	return string(data), true, nil
}

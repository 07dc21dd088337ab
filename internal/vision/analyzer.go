package vision

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/oubia/medtriage/config"
	"github.com/oubia/medtriage/provider"
)

// Analysis is the outcome of a vision-model pass over one image.
type Analysis struct {
	ImageID   string    `json:"image_id"`
	ImagePath string    `json:"image_path,omitempty"`
	Analysis  string    `json:"analysis"`
	Query     string    `json:"query,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Analyzer runs medical images through the vision model and optionally
// persists them in the content-addressed store.
type Analyzer struct {
	provider provider.Provider
	store    *Store
	prompts  config.PromptsConfig
	logger   *log.Logger
}

func NewAnalyzer(p provider.Provider, store *Store, prompts config.PromptsConfig) *Analyzer {
	return &Analyzer{
		provider: p,
		store:    store,
		prompts:  prompts,
		logger:   log.New(log.Writer(), "[VISION] ", log.LstdFlags),
	}
}

// Store exposes the underlying image store for metadata operations.
func (a *Analyzer) Store() *Store { return a.store }

// Analyze runs the detailed vision prompt over the image, tailored to
// the query when one is given. With saveImage, the binary and a
// metadata record are written before the model call so the image
// survives even if analysis fails.
func (a *Analyzer) Analyze(ctx context.Context, imageData, query string, saveImage bool) (*Analysis, error) {
	imageID := ImageID(imageData)

	var imagePath string
	if saveImage {
		extra := map[string]string{"analyzed_at": time.Now().Format(time.RFC3339)}
		if query != "" {
			extra["query"] = query
		}
		path, err := a.store.Save(imageData, imageID, extra)
		if err != nil {
			return nil, err
		}
		imagePath = path
	}

	prompt := a.prompts.VisionAnalyze
	if query != "" {
		prompt = fmt.Sprintf(a.prompts.VisionAnalyzeQuery, query)
	}

	text, err := a.provider.CompleteVision(ctx, prompt, asDataURL(imageData))
	if err != nil {
		a.logger.Printf("image analysis failed for %s: %v", imageID, err)
		return &Analysis{ImageID: imageID, ImagePath: imagePath, Query: query, Timestamp: time.Now()}, err
	}

	return &Analysis{
		ImageID:   imageID,
		ImagePath: imagePath,
		Analysis:  text,
		Query:     query,
		Timestamp: time.Now(),
	}, nil
}

// Summarize produces a short retrieval-oriented description of the
// image. Failures degrade to a fixed placeholder naming the error so
// ingestion can still proceed.
func (a *Analyzer) Summarize(ctx context.Context, imageData string) string {
	text, err := a.provider.CompleteVision(ctx, a.prompts.VisionSummary, asDataURL(imageData))
	if err != nil {
		a.logger.Printf("image summary failed: %v", err)
		return fmt.Sprintf("Medical image (analysis error: %v)", err)
	}
	return text
}

// asDataURL normalizes a bare base64 payload to a data URL for the
// vision API.
func asDataURL(imageData string) string {
	if strings.HasPrefix(imageData, "data:") {
		return imageData
	}
	return "data:image/jpeg;base64," + imageData
}

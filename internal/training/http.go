// AngelaMos | 2026
// http.go

package training

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/ksdeva/predictor-admin/internal/config"
	"github.com/ksdeva/predictor-admin/internal/core"
)

// HTTPTrainer calls the model training service over its REST API.
type HTTPTrainer struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

func NewHTTPTrainer(cfg config.TrainingConfig, logger *slog.Logger) *HTTPTrainer {
	return &HTTPTrainer{
		baseURL: cfg.BaseURL,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger,
	}
}

type trainRequest struct {
	RequestID   string `json:"request_id"`
	DatasetPath string `json:"dataset_path"`
}

type trainResponse struct {
	ModelFilename string  `json:"model_filename"`
	Accuracy      float64 `json:"accuracy"`
	DataPoints    int     `json:"data_points"`
	Error         string  `json:"error,omitempty"`
}

func (t *HTTPTrainer) Train(
	ctx context.Context,
	requestID uuid.UUID,
	datasetPath string,
) (*TrainResult, error) {
	body, err := json.Marshal(trainRequest{
		RequestID:   requestID.String(),
		DatasetPath: datasetPath,
	})
	if err != nil {
		return nil, fmt.Errorf("encode train request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		t.baseURL+"/train",
		bytes.NewReader(body),
	)
	if err != nil {
		return nil, fmt.Errorf("build train request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := t.client.Do(req)
	if err != nil {
		t.logger.Error("training request failed",
			slog.String("request_id", requestID.String()),
			slog.String("error", err.Error()),
		)
		return nil, core.DependencyError("model training service unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		t.logger.Error("training service returned error",
			slog.String("request_id", requestID.String()),
			slog.Int("status", resp.StatusCode),
			slog.String("body", string(payload)),
		)
		return nil, core.DependencyError("model training failed", nil)
	}

	var result trainResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, core.DependencyError("invalid response from training service", err)
	}

	if result.ModelFilename == "" {
		return nil, core.DependencyError("training service returned no model", nil)
	}

	t.logger.Info("model trained",
		slog.String("request_id", requestID.String()),
		slog.String("model", result.ModelFilename),
		slog.Float64("accuracy", result.Accuracy),
		slog.Int("data_points", result.DataPoints),
		slog.Duration("elapsed", time.Since(start)),
	)

	return &TrainResult{
		ModelFilename: result.ModelFilename,
		Accuracy:      result.Accuracy,
		DataPoints:    result.DataPoints,
	}, nil
}

func (t *HTTPTrainer) Cleanup(ctx context.Context, modelFilename string) error {
	if modelFilename == "" {
		return nil
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodDelete,
		t.baseURL+"/models/"+url.PathEscape(modelFilename),
		nil,
	)
	if err != nil {
		return fmt.Errorf("build cleanup request: %w", err)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return core.DependencyError("model training service unreachable", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent, http.StatusNotFound:
		return nil
	default:
		return core.DependencyError("model cleanup failed", nil)
	}
}

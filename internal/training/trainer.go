// AngelaMos | 2026
// trainer.go

package training

import (
	"context"

	"github.com/google/uuid"
)

// TrainResult describes a successfully trained model.
type TrainResult struct {
	ModelFilename string  `json:"model_filename"`
	Accuracy      float64 `json:"accuracy"`
	DataPoints    int     `json:"data_points"`
}

// Trainer trains and disposes of per-company prediction models.
type Trainer interface {
	// Train builds a model from the dataset attached to a company
	// request. It blocks until training finishes or ctx expires.
	Train(ctx context.Context, requestID uuid.UUID, datasetPath string) (*TrainResult, error)

	// Cleanup removes the stored model artifact. Missing artifacts are
	// not an error.
	Cleanup(ctx context.Context, modelFilename string) error
}

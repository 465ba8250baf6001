package project

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/piwi3910/glasscut/internal/model"
)

// PlanInput is an offline optimization job: the requests to cut and the
// stock available for them.
type PlanInput struct {
	Requests []model.CutRequest  `json:"requests"`
	Stock    model.StockSnapshot `json:"stock"`
}

// SaveSnapshot writes a plan input to a JSON file.
func SaveSnapshot(path string, input PlanInput) error {
	return writeJSON(path, input)
}

// LoadSnapshot reads a plan input written by SaveSnapshot or by hand.
func LoadSnapshot(path string) (PlanInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return PlanInput{}, err
	}
	var input PlanInput
	if err := json.Unmarshal(data, &input); err != nil {
		return PlanInput{}, fmt.Errorf("parse snapshot %s: %w", path, err)
	}
	return input, nil
}

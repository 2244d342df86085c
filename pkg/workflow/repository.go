package workflow

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/avollo/tradewind/pkg/models"
)

// Repository loads workflow definitions from JSON documents in the
// published blocks/connections shape.
type Repository struct {
	validate *validator.Validate
}

func NewRepository() *Repository {
	return &Repository{validate: validator.New()}
}

// Parse decodes and validates one workflow definition.
func (r *Repository) Parse(data []byte) (*models.Workflow, error) {
	var wf models.Workflow
	if err := json.Unmarshal(data, &wf); err != nil {
		return nil, fmt.Errorf("invalid workflow document: %w", err)
	}

	if err := r.validate.Struct(&wf); err != nil {
		return nil, fmt.Errorf("workflow definition invalid: %w", err)
	}

	return &wf, nil
}

// LoadFile reads and parses the workflow definition at path.
func (r *Repository) LoadFile(path string) (*models.Workflow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read workflow file %s: %w", path, err)
	}

	return r.Parse(data)
}

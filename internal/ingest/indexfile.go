package ingest

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ifc-analysis/backend/internal/models"
)

// IndexFileParser loads a pre-built model index in JSON form, as produced by
// the external IFC extraction tool. It stands in for the native parsing
// library so the server runs without a cgo binding to it.
type IndexFileParser struct{}

// Parse reads and decodes the index file, deleting it on success.
func (IndexFileParser) Parse(path string) (*models.ModelIndex, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("lendo arquivo de índice: %w", err)
	}

	var index models.ModelIndex
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("decodificando índice do modelo: %w", err)
	}

	if index.ElementCount == 0 {
		index.ElementCount = len(index.Elements)
	}
	if index.EntitySummary == nil {
		index.EntitySummary = make(map[string]int, 16)
		for _, el := range index.Elements {
			index.EntitySummary[el.EntityType]++
		}
	}

	os.Remove(path)
	return &index, nil
}

package reporting

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/guanw/ReviewMate/internal/ir"
)

// WriteJSON writes the run to <outDir>/<run id>.json.
func WriteJSON(outDir string, run *ir.Run) (string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(outDir, run.ID+".json")
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(run); err != nil {
		return "", err
	}
	return path, nil
}

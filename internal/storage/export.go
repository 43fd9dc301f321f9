package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/orrery/internal/frame"
)

type ExportData struct {
	RunMetadata
	Times  []float64     `json:"times"`
	Frames []frame.Frame `json:"frames"`
}

// Export writes the metadata and every frame of a run as one JSON document.
func (s *Store) Export(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	frames, times, err := s.LoadFrames(runID)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(ExportData{RunMetadata: *meta, Times: times, Frames: frames})
}

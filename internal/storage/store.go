// Package storage records runs to disk: a metadata.json and a frames.csv per
// run under a base directory.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/orrery/internal/frame"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID           string             `json:"id"`
	Policy       string             `json:"policy"`
	Timestamp    time.Time          `json:"timestamp"`
	Seed         int64              `json:"seed"`
	Timestep     float64            `json:"timestep"`
	Bodies       int                `json:"bodies"`
	Ticks        int                `json:"ticks"`
	DistanceUnit float64            `json:"distance_unit"`
	Metrics      map[string]float64 `json:"metrics"`
}

// Recorder writes frames of a single run as they are produced. It satisfies
// loop.Observer.
type Recorder struct {
	dir  string
	meta RunMetadata
	file *os.File
	w    *csv.Writer
}

// Create starts a new run directory and returns a recorder for it. ID and
// Timestamp are filled in when empty.
func (s *Store) Create(meta RunMetadata) (*Recorder, error) {
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	if meta.ID == "" {
		meta.ID = fmt.Sprintf("%s_%d", meta.Policy, meta.Timestamp.UnixNano())
	}

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return nil, err
	}

	file, err := os.Create(filepath.Join(runDir, "frames.csv"))
	if err != nil {
		return nil, err
	}

	r := &Recorder{dir: runDir, meta: meta, file: file, w: csv.NewWriter(file)}
	header := []string{"tick", "time"}
	for i := 0; i < meta.Bodies; i++ {
		header = append(header,
			fmt.Sprintf("b%d_x", i), fmt.Sprintf("b%d_y", i),
			fmt.Sprintf("b%d_z", i), fmt.Sprintf("b%d_r", i))
	}
	if err := r.w.Write(header); err != nil {
		file.Close()
		return nil, err
	}
	return r, nil
}

func (r *Recorder) ID() string { return r.meta.ID }

func (r *Recorder) OnFrame(tick int, t float64, f frame.Frame) error {
	row := make([]string, 0, 2+4*len(f))
	row = append(row, strconv.Itoa(tick), strconv.FormatFloat(t, 'g', -1, 64))
	for _, body := range f {
		for _, v := range body {
			row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
		}
	}
	r.meta.Ticks = tick
	return r.w.Write(row)
}

// Close flushes the frames and writes metadata.json with the final metrics.
func (r *Recorder) Close(metrics map[string]float64) error {
	r.w.Flush()
	if err := r.w.Error(); err != nil {
		r.file.Close()
		return err
	}
	if err := r.file.Close(); err != nil {
		return err
	}

	r.meta.Metrics = metrics
	metaFile, err := os.Create(filepath.Join(r.dir, "metadata.json"))
	if err != nil {
		return err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	return enc.Encode(r.meta)
}

// List returns every recorded run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadFrames reads the recorded frames of a run with their simulated times.
func (s *Store) LoadFrames(runID string) ([]frame.Frame, []float64, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "frames.csv"))
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}

	if len(records) < 2 {
		return []frame.Frame{}, []float64{}, nil
	}

	times := make([]float64, 0, len(records)-1)
	frames := make([]frame.Frame, 0, len(records)-1)

	for i, record := range records[1:] {
		if len(record) < 2 || (len(record)-2)%4 != 0 {
			return nil, nil, fmt.Errorf("frames.csv line %d: %d fields", i+2, len(record))
		}

		t, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return nil, nil, fmt.Errorf("frames.csv line %d: %w", i+2, err)
		}

		f := make(frame.Frame, (len(record)-2)/4)
		for j := range f {
			for k := 0; k < 4; k++ {
				v, err := strconv.ParseFloat(record[2+j*4+k], 64)
				if err != nil {
					return nil, nil, fmt.Errorf("frames.csv line %d: %w", i+2, err)
				}
				f[j][k] = v
			}
		}
		times = append(times, t)
		frames = append(frames, f)
	}

	return frames, times, nil
}

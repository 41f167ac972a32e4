package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/san-kum/clothsim/internal/config"
	"github.com/san-kum/clothsim/internal/experiment"
	"github.com/san-kum/clothsim/internal/layout"
)

const (
	metadataFile  = "metadata.json"
	configFile    = "config.yaml"
	metricsFile   = "metrics.csv"
	positionsFile = "final_positions.bin"
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
	ID          string                `json:"id"`
	Name        string                `json:"name"`
	Timestamp   time.Time             `json:"timestamp"`
	Backend     string                `json:"backend"`
	Resolution  uint32                `json:"resolution"`
	Vertices    int                   `json:"vertices"`
	Size        float32               `json:"size"`
	Dt          float32               `json:"dt"`
	Frames      int                   `json:"frames"`
	FramesRun   int                   `json:"frames_run"`
	SampleEvery int                   `json:"sample_every"`
	ElapsedSec  float64               `json:"elapsed_sec"`
	Material    config.MaterialConfig `json:"material"`
	Sphere      config.SphereConfig   `json:"sphere"`
	Metrics     map[string]float64    `json:"metrics"`
}

// Series is the metric table of one run.
type Series struct {
	Names  []string
	Frames []int
	Times  []float64
	Values [][]float64
}

// Column returns one metric's values, or nil if absent.
func (s *Series) Column(name string) []float64 {
	for i, n := range s.Names {
		if n == name {
			col := make([]float64, len(s.Values))
			for j, row := range s.Values {
				col[j] = row[i]
			}
			return col
		}
	}
	return nil
}

// Save writes a run directory and returns its id.
func (s *Store) Save(name, backend string, cfg *config.Config, result *experiment.Result) (string, error) {
	now := time.Now()
	runID := fmt.Sprintf("%s_%d", name, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:          runID,
		Name:        name,
		Timestamp:   now,
		Backend:     backend,
		Resolution:  cfg.Cloth.Resolution,
		Vertices:    int(cfg.Cloth.Resolution) * int(cfg.Cloth.Resolution),
		Size:        cfg.Cloth.Size,
		Dt:          cfg.Simulation.Dt,
		Frames:      cfg.Simulation.Frames,
		FramesRun:   result.FramesRun,
		SampleEvery: cfg.Simulation.SampleEvery,
		ElapsedSec:  result.Elapsed.Seconds(),
		Material:    cfg.Material,
		Sphere:      cfg.Sphere,
		Metrics:     result.Metrics,
	}
	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := config.Save(filepath.Join(runDir, configFile), cfg); err != nil {
		return "", err
	}
	if err := writeSeries(filepath.Join(runDir, metricsFile), result); err != nil {
		return "", err
	}
	if result.Final != nil {
		if err := writePositions(filepath.Join(runDir, positionsFile), result.Final.Positions); err != nil {
			return "", err
		}
	}
	return runID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeSeries(path string, result *experiment.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := append([]string{"frame", "time"}, result.Names...)
	if err := w.Write(header); err != nil {
		return err
	}
	for _, sample := range result.Samples {
		row := []string{strconv.Itoa(sample.Frame), strconv.FormatFloat(sample.Time, 'f', 6, 64)}
		for _, v := range sample.Values {
			row = append(row, strconv.FormatFloat(v, 'g', 10, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writePositions(path string, positions []mgl32.Vec3) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := layout.WriteVec3s(f, positions); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// List returns every readable run, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0, len(entries))
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
	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("storage: %s: %w", runID, err)
	}
	return &meta, nil
}

// LoadConfig returns the configuration the run was started with.
func (s *Store) LoadConfig(runID string) (*config.Config, error) {
	return config.Load(filepath.Join(s.baseDir, runID, configFile), nil)
}

func (s *Store) LoadSeries(runID string) (*Series, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, metricsFile))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("storage: %s: %w", runID, err)
	}
	if len(records) == 0 {
		return &Series{}, nil
	}

	series := &Series{Names: records[0][2:]}
	for _, rec := range records[1:] {
		frame, err := strconv.Atoi(rec[0])
		if err != nil {
			return nil, fmt.Errorf("storage: %s: bad frame %q", runID, rec[0])
		}
		t, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return nil, fmt.Errorf("storage: %s: bad time %q", runID, rec[1])
		}
		row := make([]float64, len(rec)-2)
		for i, field := range rec[2:] {
			if row[i], err = strconv.ParseFloat(field, 64); err != nil {
				return nil, fmt.Errorf("storage: %s: bad value %q", runID, field)
			}
		}
		series.Frames = append(series.Frames, frame)
		series.Times = append(series.Times, t)
		series.Values = append(series.Values, row)
	}
	return series, nil
}

// LoadPositions reads the committed positions after the last frame.
func (s *Store) LoadPositions(runID string) ([]mgl32.Vec3, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, positionsFile))
	if err != nil {
		return nil, err
	}
	return layout.DecodeVec3s(nil, data)
}

type ExportData struct {
	RunMetadata
	Times  []float64            `json:"times"`
	Frames []int                `json:"frames"`
	Series map[string][]float64 `json:"series"`
}

// ExportJSON writes the metadata and metric series of a run to w.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	series, err := s.LoadSeries(runID)
	if err != nil {
		return err
	}

	data := ExportData{
		RunMetadata: *meta,
		Times:       series.Times,
		Frames:      series.Frames,
		Series:      make(map[string][]float64, len(series.Names)),
	}
	for _, name := range series.Names {
		data.Series[name] = series.Column(name)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

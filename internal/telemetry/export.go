package telemetry

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// LevelReading is one cached peak/RMS pair.
type LevelReading struct {
	PeakDb float64 `json:"peakDb"`
	RmsDb  float64 `json:"rmsDb"`
}

// ThreadReading is one cached per-worker timing sample.
type ThreadReading struct {
	CPUPercent     float64 `json:"cpuPercent"`
	MicrosPerBlock float64 `json:"microsPerBlock"`
}

// SpectralReading is one cached peak-frequency reading for an output
// channel's rolling capture buffer. Zero when the bound source has no
// spectral capture (SpectralSource not implemented) or no full window yet.
type SpectralReading struct {
	PeakHz    float64 `json:"peakHz"`
	Magnitude float64 `json:"magnitude"`
}

// Snapshot is one full telemetry reading across all inputs, outputs and
// worker threads, timestamped for offline inspection.
type Snapshot struct {
	Timestamp time.Time         `json:"timestamp"`
	Inputs    []LevelReading    `json:"inputs"`
	Outputs   []LevelReading    `json:"outputs"`
	Threads   []ThreadReading   `json:"threads"`
	Spectral  []SpectralReading `json:"spectral,omitempty"`
}

// Snapshot captures the coordinator's current cached readings into a single
// timestamped value suitable for export.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.RLock()
	n, m, k, s := len(c.inputs), len(c.outputs), len(c.threads), len(c.spectral)
	c.mu.RUnlock()

	snap := Snapshot{
		Timestamp: time.Now(),
		Inputs:    make([]LevelReading, n),
		Outputs:   make([]LevelReading, m),
		Threads:   make([]ThreadReading, k),
	}
	for i := range snap.Inputs {
		peak, rms := c.InputLevel(i)
		snap.Inputs[i] = LevelReading{PeakDb: peak, RmsDb: rms}
	}
	for j := range snap.Outputs {
		peak, rms := c.OutputLevel(j)
		snap.Outputs[j] = LevelReading{PeakDb: peak, RmsDb: rms}
	}
	for t := range snap.Threads {
		cpu, micros := c.ThreadPerformance(t)
		snap.Threads[t] = ThreadReading{CPUPercent: cpu, MicrosPerBlock: micros}
	}
	if s > 0 {
		snap.Spectral = make([]SpectralReading, s)
		for j := range snap.Spectral {
			hz, mag := c.OutputSpectrum(j)
			snap.Spectral[j] = SpectralReading{PeakHz: hz, Magnitude: mag}
		}
	}
	return snap
}

// Exporter writes telemetry snapshot sequences to disk as CSV or JSON,
// adapted from the teacher's run-export idiom (internal/storage/store.go's
// metadata.json + states.csv pair) for offline inspection of a metering
// session rather than a simulation run.
type Exporter struct {
	baseDir string
}

// NewExporter creates an Exporter rooted at baseDir.
func NewExporter(baseDir string) *Exporter {
	return &Exporter{baseDir: baseDir}
}

// Init creates the export directory if it doesn't already exist.
func (e *Exporter) Init() error {
	return os.MkdirAll(e.baseDir, 0755)
}

// ExportJSON writes the snapshot sequence as a single indented JSON array.
func (e *Exporter) ExportJSON(name string, snapshots []Snapshot) error {
	f, err := os.Create(filepath.Join(e.baseDir, name+".json"))
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(snapshots)
}

// ExportCSV writes the snapshot sequence as one row per snapshot, columns
// named by input/output/thread index. All snapshots must share the same
// input/output/thread counts as snapshots[0].
func (e *Exporter) ExportCSV(name string, snapshots []Snapshot) error {
	f, err := os.Create(filepath.Join(e.baseDir, name+".csv"))
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if len(snapshots) == 0 {
		return nil
	}

	header := []string{"timestamp"}
	for i := range snapshots[0].Inputs {
		header = append(header, fmt.Sprintf("in%d_peak", i), fmt.Sprintf("in%d_rms", i))
	}
	for j := range snapshots[0].Outputs {
		header = append(header, fmt.Sprintf("out%d_peak", j), fmt.Sprintf("out%d_rms", j))
	}
	for t := range snapshots[0].Threads {
		header = append(header, fmt.Sprintf("thread%d_cpu", t), fmt.Sprintf("thread%d_us", t))
	}
	for j := range snapshots[0].Spectral {
		header = append(header, fmt.Sprintf("out%d_peakhz", j), fmt.Sprintf("out%d_mag", j))
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, snap := range snapshots {
		row := []string{snap.Timestamp.Format(time.RFC3339Nano)}
		for _, r := range snap.Inputs {
			row = append(row, strconv.FormatFloat(r.PeakDb, 'f', 3, 64), strconv.FormatFloat(r.RmsDb, 'f', 3, 64))
		}
		for _, r := range snap.Outputs {
			row = append(row, strconv.FormatFloat(r.PeakDb, 'f', 3, 64), strconv.FormatFloat(r.RmsDb, 'f', 3, 64))
		}
		for _, r := range snap.Threads {
			row = append(row, strconv.FormatFloat(r.CPUPercent, 'f', 2, 64), strconv.FormatFloat(r.MicrosPerBlock, 'f', 2, 64))
		}
		for _, r := range snap.Spectral {
			row = append(row, strconv.FormatFloat(r.PeakHz, 'f', 2, 64), strconv.FormatFloat(r.Magnitude, 'f', 4, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// Command wfsrender is the CLI entry point for the wave field synthesis
// rendering engine: load/validate a scene, run it against a real soundcard,
// watch its level meters live, benchmark it, or export a telemetry session
// to disk.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/wfsrender/internal/audioio"
	"github.com/san-kum/wfsrender/internal/config"
	"github.com/san-kum/wfsrender/internal/engine"
	"github.com/san-kum/wfsrender/internal/telemetry"
	"github.com/san-kum/wfsrender/internal/viz"
	"github.com/san-kum/wfsrender/internal/wfslog"
	"github.com/san-kum/wfsrender/internal/wire"
)

var (
	configFile string
	presetName string
	themeName  string
	blockSize  int
	exportDir  string
	exportSecs float64
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "wfsrender",
		Short: "wave field synthesis rendering engine",
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "scene config yaml path")
	rootCmd.PersistentFlags().StringVar(&presetName, "preset", "mono-center", "named scene preset, used when --config is empty")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "render a scene to the default audio device",
		RunE:  runScene,
	}
	runCmd.Flags().IntVar(&blockSize, "block", 0, "override block size (0 = config default)")

	meterCmd := &cobra.Command{
		Use:   "meter",
		Short: "print level meters to stdout without opening an audio device",
		RunE:  runMeter,
	}

	dashboardCmd := &cobra.Command{
		Use:   "dashboard",
		Short: "live terminal dashboard of input/output levels and thread load",
		RunE:  runDashboard,
	}
	dashboardCmd.Flags().StringVar(&themeName, "theme", "cyberpunk", "dashboard color theme")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "measure Process() throughput across a block-size sweep",
		RunE:  runBench,
	}

	sceneCheckCmd := &cobra.Command{
		Use:   "scene-check",
		Short: "validate a scene config against the engine without rendering audio",
		RunE:  runSceneCheck,
	}

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "render a scene offline against a constant test signal and export a telemetry session",
		RunE:  runExport,
	}
	exportCmd.Flags().StringVar(&exportDir, "out", ".wfsrender", "export directory")
	exportCmd.Flags().Float64Var(&exportSecs, "seconds", 5.0, "seconds of synthetic render to capture")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list named scene presets",
		RunE:  runPresets,
	}

	renderMatrixCmd := &cobra.Command{
		Use:   "render-matrix",
		Short: "dump the current delay/gain routing matrix in the §6 wire format",
		RunE:  runRenderMatrix,
	}
	renderMatrixCmd.Flags().StringVar(&exportDir, "out", ".wfsrender", "output directory")

	rootCmd.AddCommand(runCmd, meterCmd, dashboardCmd, benchCmd, sceneCheckCmd, exportCmd, presetsCmd, renderMatrixCmd)

	if err := rootCmd.Execute(); err != nil {
		wfslog.Error("command failed", "err", err)
		os.Exit(1)
	}
}

// loadScene resolves --config if set, else falls back to --preset.
func loadScene() (*config.Config, error) {
	if configFile != "" {
		return config.Load(configFile)
	}
	cfg := config.GetPreset(presetName)
	if cfg == nil {
		return nil, fmt.Errorf("unknown preset %q (see wfsrender presets)", presetName)
	}
	return cfg, nil
}

// prepareEngine builds and prepares an engine.Engine from a loaded config,
// wiring its scene and starting the ~50Hz control loop.
func prepareEngine(cfg *config.Config) (*engine.Engine, error) {
	inputs := cfg.Scene.InputsToModel()
	outputs := cfg.Scene.OutputsToModel()

	e := engine.New()
	if err := e.Prepare(cfg.SampleRate, cfg.SpeedOfSound, cfg.MaxBlockSize, len(inputs), len(outputs)); err != nil {
		return nil, err
	}
	e.SetActiveAlgorithm(engine.Algorithm(cfg.Algorithm))
	e.SetMasterLevel(cfg.MasterLevel)
	e.SetScene(inputs, outputs)
	e.Tick()
	if err := e.Start(); err != nil {
		return nil, err
	}
	return e, nil
}

func runScene(cmd *cobra.Command, args []string) error {
	cfg, err := loadScene()
	if err != nil {
		return err
	}
	if blockSize > 0 {
		cfg.MaxBlockSize = blockSize
	}

	e, err := prepareEngine(cfg)
	if err != nil {
		return err
	}
	defer e.Release()

	stream, err := audioio.NewStream(e, cfg.SampleRate, len(cfg.Scene.Inputs), len(cfg.Scene.Outputs), cfg.MaxBlockSize)
	if err != nil {
		return err
	}
	defer stream.Stop()

	if err := stream.Start(); err != nil {
		return err
	}

	wfslog.Info("rendering", "inputs", len(cfg.Scene.Inputs), "outputs", len(cfg.Scene.Outputs), "sampleRate", cfg.SampleRate)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	<-sig
	return nil
}

func runMeter(cmd *cobra.Command, args []string) error {
	cfg, err := loadScene()
	if err != nil {
		return err
	}
	e, err := prepareEngine(cfg)
	if err != nil {
		return err
	}
	defer e.Release()

	coord := telemetry.New()
	coord.Bind(e)
	coord.SetMeterWindowEnabled(true)
	coord.Start()
	defer coord.Stop()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)

	const historyLen = 30
	history := make([][]float64, e.NumInputs())

	for {
		select {
		case <-sig:
			return nil
		case <-ticker.C:
			for i := 0; i < e.NumInputs(); i++ {
				peak, rms := coord.InputLevel(i)
				fmt.Printf("in[%d]  peak=%6.1fdB rms=%6.1fdB\n", i, peak, rms)
				history[i] = appendCapped(history[i], peak, historyLen)
			}
			for j := 0; j < e.NumOutputs(); j++ {
				peak, rms := coord.OutputLevel(j)
				fmt.Printf("out[%d] peak=%6.1fdB rms=%6.1fdB\n", j, peak, rms)
			}
			fmt.Printf("underruns=%d\n\n", e.Underruns())

			if len(history) > 0 && len(history[0]) > 1 {
				chart := asciigraph.Plot(history[0],
					asciigraph.Height(8), asciigraph.Width(historyLen),
					asciigraph.Caption("in[0] peak dB"))
				fmt.Println(chart)
			}
		}
	}
}

func appendCapped(series []float64, v float64, cap int) []float64 {
	series = append(series, v)
	if len(series) > cap {
		series = series[len(series)-cap:]
	}
	return series
}

func runDashboard(cmd *cobra.Command, args []string) error {
	cfg, err := loadScene()
	if err != nil {
		return err
	}
	e, err := prepareEngine(cfg)
	if err != nil {
		return err
	}
	defer e.Release()

	coord := telemetry.New()
	coord.Bind(e)
	coord.SetMeterWindowEnabled(true)
	coord.Start()
	defer coord.Stop()

	m := viz.NewDashboardModel(coord, e, themeName)
	p := tea.NewProgram(m)
	_, err = p.Run()
	return err
}

func runBench(cmd *cobra.Command, args []string) error {
	cfg, err := loadScene()
	if err != nil {
		return err
	}

	blockSizes := []int{32, 64, 128, 256, 512}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BLOCK\tBLOCKS\tTIME\tBLOCKS/SEC")

	for _, bs := range blockSizes {
		cfg.MaxBlockSize = bs
		e, err := prepareEngine(cfg)
		if err != nil {
			return err
		}

		in := make([][]float32, len(cfg.Scene.Inputs))
		out := make([][]float32, len(cfg.Scene.Outputs))
		for i := range in {
			in[i] = make([]float32, bs)
		}
		for j := range out {
			out[j] = make([]float32, bs)
		}

		const numBlocks = 2000
		start := time.Now()
		for n := 0; n < numBlocks; n++ {
			if err := e.Process(in, out, bs); err != nil {
				e.Release()
				return err
			}
		}
		elapsed := time.Since(start)
		e.Release()

		fmt.Fprintf(w, "%d\t%d\t%v\t%.0f\n", bs, numBlocks, elapsed, float64(numBlocks)/elapsed.Seconds())
	}

	return w.Flush()
}

func runSceneCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadScene()
	if err != nil {
		return err
	}
	e, err := prepareEngine(cfg)
	if err != nil {
		return fmt.Errorf("scene rejected: %w", err)
	}
	defer e.Release()

	in := make([][]float32, e.NumInputs())
	out := make([][]float32, e.NumOutputs())
	for i := range in {
		in[i] = make([]float32, cfg.MaxBlockSize)
	}
	for j := range out {
		out[j] = make([]float32, cfg.MaxBlockSize)
	}
	if err := e.Process(in, out, cfg.MaxBlockSize); err != nil {
		return fmt.Errorf("scene failed a trial block: %w", err)
	}

	fmt.Printf("ok: %d inputs, %d outputs, %.0fHz, block=%d\n",
		e.NumInputs(), e.NumOutputs(), cfg.SampleRate, cfg.MaxBlockSize)
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadScene()
	if err != nil {
		return err
	}
	e, err := prepareEngine(cfg)
	if err != nil {
		return err
	}
	defer e.Release()

	coord := telemetry.New()
	coord.Bind(e)
	coord.SetMeterWindowEnabled(true)

	in := make([][]float32, e.NumInputs())
	out := make([][]float32, e.NumOutputs())
	for i := range in {
		in[i] = make([]float32, cfg.MaxBlockSize)
		for s := range in[i] {
			in[i][s] = 0.1
		}
	}
	for j := range out {
		out[j] = make([]float32, cfg.MaxBlockSize)
	}

	blockSeconds := float64(cfg.MaxBlockSize) / cfg.SampleRate
	numBlocks := int(exportSecs / blockSeconds)

	snapshots := make([]telemetry.Snapshot, 0, numBlocks)
	for n := 0; n < numBlocks; n++ {
		if err := e.Process(in, out, cfg.MaxBlockSize); err != nil {
			return err
		}
		coord.Poll()
		snapshots = append(snapshots, coord.Snapshot())
	}

	exporter := telemetry.NewExporter(exportDir)
	if err := exporter.Init(); err != nil {
		return err
	}
	name := fmt.Sprintf("session-%d", time.Now().UnixNano())
	if err := exporter.ExportJSON(name, snapshots); err != nil {
		return err
	}
	if err := exporter.ExportCSV(name, snapshots); err != nil {
		return err
	}

	fmt.Printf("exported %d snapshots to %s/%s.{json,csv}\n", len(snapshots), exportDir, name)
	return nil
}

func runPresets(cmd *cobra.Command, args []string) error {
	for _, name := range config.ListPresets() {
		fmt.Println(name)
	}
	return nil
}

func runRenderMatrix(cmd *cobra.Command, args []string) error {
	cfg, err := loadScene()
	if err != nil {
		return err
	}
	e, err := prepareEngine(cfg)
	if err != nil {
		return err
	}
	defer e.Release()

	m := e.RoutingMatrix()
	if m == nil {
		return fmt.Errorf("routing matrix not yet computed")
	}

	delays := make([]float32, len(m.Cells))
	gains := make([]float32, len(m.Cells))
	for i, c := range m.Cells {
		delays[i] = float32(c.DelaySamples)
		gains[i] = float32(c.GainLinear)
	}

	payload, err := wire.EncodeRouting(m.NumInputs, m.NumOutputs, delays, gains)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(exportDir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(exportDir, "routing-matrix.bin")
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return err
	}

	fmt.Printf("wrote %d-byte routing matrix (%dx%d) to %s\n", len(payload), m.NumInputs, m.NumOutputs, path)
	return nil
}

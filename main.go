package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/kwv/defocloud/insar"
)

// Version is set at build time via -ldflags
var Version = "dev"

var (
	configFile = flag.String("config", "", "Path to YAML configuration file (optional)")
	inputDir   = flag.String("input-dir", "", "Directory of deformation/coherence raster pairs")
	outputDir  = flag.String("output-dir", "", "Directory for point cloud outputs")
	stride     = flag.Int("stride", 0, "Decimation stride (default from config, else 5)")
	threshold  = flag.Float64("threshold", -1, "Coherence acceptance threshold in [0,1] (default from config, else 0.3)")
	workers    = flag.Int("workers", 0, "Concurrent pair conversions (default from config, else 1)")
	footprint  = flag.Bool("footprint", false, "Also write a GeoJSON footprint per converted pair")
	mqttEvents = flag.Bool("mqtt", false, "Publish conversion events to the configured MQTT broker")

	generateMode = flag.Bool("generate", false, "Generate synthetic sample raster pairs and exit")
	numDates     = flag.Int("num-dates", 3, "Epochs to generate in --generate mode")
	gridSize     = flag.Int("grid-size", 500, "Grid width/height in --generate mode")

	renderFile = flag.String("render", "", "Render a deformation raster preview PNG and exit")
	plotFile   = flag.String("plot", "", "Plot a converted cloud (.bpc or .xyz) and exit")
	plotFormat = flag.String("plot-format", "svg", "Plot output format: svg or png")
	statsFile  = flag.String("stats", "", "Print summary statistics for a cloud file and exit")
	outputFile = flag.String("output", "", "Output file for --render and --plot modes")
)

func main() {
	flag.Parse()
	fmt.Printf("defocloud version: %s\n", Version)

	if *generateMode {
		runGenerate()
		return
	}

	if *renderFile != "" {
		runRender(*renderFile)
		return
	}

	if *plotFile != "" {
		runPlot(*plotFile)
		return
	}

	if *statsFile != "" {
		runStats(*statsFile)
		return
	}

	runConvert()
}

// effectiveConfig loads the config file when given and overlays CLI flags.
func effectiveConfig() *insar.Config {
	config := &insar.Config{}
	if *configFile != "" {
		loaded, err := insar.LoadConfig(*configFile)
		if err != nil {
			log.Fatalf("Error loading config: %v", err)
		}
		config = loaded
	}

	if *inputDir != "" {
		config.InputDir = *inputDir
	}
	if *outputDir != "" {
		config.OutputDir = *outputDir
	}
	if *stride > 0 {
		config.Stride = *stride
	}
	if config.Stride == 0 {
		config.Stride = insar.DefaultStride
	}
	if *threshold >= 0 {
		t := *threshold
		config.CoherenceThreshold = &t
	}
	if *workers > 0 {
		config.Workers = *workers
	}
	if *footprint {
		config.Footprint = true
	}

	if err := config.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	return config
}

// runConvert scans the input directory and converts every raster pair.
func runConvert() {
	config := effectiveConfig()

	if config.InputDir == "" {
		log.Fatal("No input directory: set --input-dir or inputDir in the config file")
	}
	if config.OutputDir == "" {
		log.Fatal("No output directory: set --output-dir or outputDir in the config file")
	}

	var events *insar.Publisher
	if *mqttEvents {
		client, err := insar.ConnectBroker(config.MQTT)
		if err != nil {
			log.Fatalf("Error connecting to MQTT broker: %v", err)
		}
		if client == nil {
			log.Fatal("--mqtt set but no broker configured (mqtt.broker in config)")
		}
		events = insar.NewPublisher(client, config.MQTT.PublishPrefix)
		defer events.Disconnect()
	}

	summary, err := insar.ConvertDirectory(config.InputDir, config.OutputDir, insar.Options{
		Stride:    config.Stride,
		Threshold: config.Threshold(),
		Footprint: config.Footprint,
		Workers:   config.Workers,
		Events:    events,
	})
	if err != nil {
		log.Fatalf("Conversion aborted: %v", err)
	}

	fmt.Printf("Pairs found: %d, converted: %d, failed: %d\n",
		summary.Found, summary.Converted, summary.Failed)
	if summary.Failed > 0 {
		os.Exit(1)
	}
}

// runGenerate writes a synthetic deformation/coherence time series.
func runGenerate() {
	dir := *outputDir
	if dir == "" {
		dir = "sample-data"
	}

	opts := insar.DefaultGenerateOptions()
	opts.NumDates = *numDates
	opts.Width = *gridSize
	opts.Height = *gridSize

	datestamps, err := insar.GenerateSampleData(dir, opts)
	if err != nil {
		log.Fatalf("Error generating sample data: %v", err)
	}

	fmt.Printf("Generated %d raster pair(s) in %s: %s\n",
		len(datestamps), dir, strings.Join(datestamps, ", "))
}

// runRender writes a quick-look PNG for a deformation raster.
func runRender(path string) {
	grid, err := insar.ReadRaster(path)
	if err != nil {
		log.Fatalf("Error reading raster: %v", err)
	}

	out := *outputFile
	if out == "" {
		out = strings.TrimSuffix(path, filepath.Ext(path)) + ".png"
	}

	if err := insar.NewPreviewRenderer(grid).SavePNG(out); err != nil {
		log.Fatalf("Error rendering preview: %v", err)
	}
	fmt.Printf("Rendered %s (%dx%d) to %s\n", path, grid.Width, grid.Height, out)
}

// runPlot draws a converted cloud as an SVG or PNG scatter plot.
func runPlot(path string) {
	pc, err := readCloud(path)
	if err != nil {
		log.Fatalf("Error reading cloud: %v", err)
	}

	out := *outputFile
	if out == "" {
		out = strings.TrimSuffix(path, filepath.Ext(path)) + "." + *plotFormat
	}

	f, err := os.Create(out)
	if err != nil {
		log.Fatalf("Error creating %s: %v", out, err)
	}
	defer func() { _ = f.Close() }()

	plotter := insar.NewCloudPlotter(pc)
	switch *plotFormat {
	case "svg":
		err = plotter.RenderToSVG(f)
	case "png":
		err = plotter.RenderToPNG(f)
	default:
		log.Fatalf("Unknown plot format %q (want svg or png)", *plotFormat)
	}
	if err != nil {
		log.Fatalf("Error plotting cloud: %v", err)
	}
	fmt.Printf("Plotted %d points to %s\n", len(pc.Points), out)
}

// runStats prints per-attribute summary statistics for a cloud file.
func runStats(path string) {
	pc, err := readCloud(path)
	if err != nil {
		log.Fatalf("Error reading cloud: %v", err)
	}

	bound := pc.Bounds()
	fmt.Printf("File: %s\n", path)
	fmt.Printf("Points: %d\n", len(pc.Points))
	if pc.CRS != "" {
		fmt.Printf("CRS: %s\n", pc.CRS)
	}
	if len(pc.Points) > 0 {
		fmt.Printf("Bounds: X [%g, %g]  Y [%g, %g]\n",
			bound.Min[0], bound.Max[0], bound.Min[1], bound.Max[1])
	}

	for _, s := range insar.CloudStats(pc) {
		fmt.Printf("%-12s min %.4f  max %.4f  mean %.4f  median %.4f  stddev %.4f\n",
			s.Name, s.Min, s.Max, s.Mean, s.Median, s.StdDev)
	}
}

// readCloud loads a cloud file by extension.
func readCloud(path string) (*insar.PointCloud, error) {
	switch filepath.Ext(path) {
	case ".bpc":
		return insar.ReadBinaryCloud(path)
	case ".xyz":
		return insar.ReadTextCloud(path)
	default:
		return nil, fmt.Errorf("unknown cloud format %q (want .bpc or .xyz)", filepath.Ext(path))
	}
}

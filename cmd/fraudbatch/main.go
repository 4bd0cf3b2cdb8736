// fraudbatch runs the batch CSV classification pipeline headlessly: same
// input schema, transform and output format as the web upload page.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"fraudguard/detector"
)

type cliOptions struct {
	configPath string
	inputPath  string
	outputPath string
}

func main() {
	opts, err := parseFlags()
	if err != nil {
		log.Fatalf("fraudbatch: %v", err)
	}
	if err := run(opts); err != nil {
		log.Fatalf("fraudbatch: %v", err)
	}
}

func parseFlags() (cliOptions, error) {
	var opts cliOptions
	flag.StringVar(&opts.configPath, "config", "", "Path to config.json (default: ./config.json)")
	flag.StringVar(&opts.inputPath, "input", "", "CSV file containing transactions to classify")
	flag.StringVar(&opts.outputPath, "output", detector.DownloadFilename, "CSV file to write results")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s --input FILE [options]\n\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	opts.configPath = strings.TrimSpace(opts.configPath)
	opts.inputPath = strings.TrimSpace(opts.inputPath)
	opts.outputPath = strings.TrimSpace(opts.outputPath)

	if opts.inputPath == "" {
		flag.Usage()
		return opts, errors.New("missing required --input file")
	}
	return opts, nil
}

func run(opts cliOptions) error {
	cfg, err := detector.LoadConfig(opts.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	encoders, err := detector.LoadLabelEncoders(cfg.EncodersPath)
	if err != nil {
		return fmt.Errorf("load label encoders: %w", err)
	}
	classifier, err := detector.NewOnnxClassifier(cfg.Model)
	if err != nil {
		return fmt.Errorf("load classifier: %w", err)
	}

	logger := log.New(os.Stdout, "", log.LstdFlags)
	svc, err := detector.NewService(classifier, encoders, cfg, logger)
	if err != nil {
		return fmt.Errorf("init service: %w", err)
	}
	defer svc.Close()

	in, err := os.Open(opts.inputPath)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer in.Close()

	batch, err := detector.ParseBatch(in)
	if err != nil {
		return fmt.Errorf("parse input: %w", err)
	}
	result, err := svc.ClassifyBatch(batch)
	if err != nil {
		return fmt.Errorf("classify: %w", err)
	}

	out, err := os.Create(opts.outputPath)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer out.Close()
	if err := detector.WriteCSV(out, result); err != nil {
		return err
	}
	fmt.Printf("wrote %d predictions to %s\n", len(result.Rows), opts.outputPath)
	return nil
}

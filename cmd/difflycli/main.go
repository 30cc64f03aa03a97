package main

import (
	"flag"
	"log"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/difflyhq/difflycore/internal/engine"
	"github.com/difflyhq/difflycore/internal/runconfig"
	"github.com/difflyhq/difflycore/internal/sink"
)

func main() {
	configPath := flag.String("config", "diffly.yaml", "path to run configuration file")
	aPath := flag.String("a", "", "path to the A (before) CSV file")
	bPath := flag.String("b", "", "path to the B (after) CSV file")
	outPath := flag.String("out", "", "path to write JSON-lines events to (defaults to stdout)")
	flag.Parse()

	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if *aPath == "" || *bPath == "" {
		log.Fatalf("both -a and -b are required")
	}

	cfg, err := runconfig.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logrus.SetLevel(parseLevel(cfg.LogLevel))

	opts, err := cfg.Options()
	if err != nil {
		log.Fatalf("invalid run options: %v", err)
	}

	var out engine.Sink
	if *outPath == "" {
		out = sink.NewJSONLines(os.Stdout)
	} else {
		fileSink, err := sink.NewFileSink(*outPath)
		if err != nil {
			log.Fatalf("failed to open output file: %v", err)
		}
		defer fileSink.Close()
		out = fileSink
	}

	if err := engine.RunFiles(*aPath, *bPath, opts, cfg.RunConfig(), engine.NeverCancel{}, out); err != nil {
		log.Fatalf("diff run failed: %v", err)
	}
}

func parseLevel(level string) logrus.Level {
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return logrus.InfoLevel
	}
	return parsed
}

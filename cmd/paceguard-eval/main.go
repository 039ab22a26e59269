package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/claude/paceguard/internal/adapt"
	"github.com/claude/paceguard/internal/coach"
	"github.com/claude/paceguard/internal/config"
	"github.com/claude/paceguard/internal/evaluate"
	"github.com/claude/paceguard/internal/journal"
	"github.com/claude/paceguard/internal/reasoner"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "", "optional path to config file (reasoner and journal settings)")
	journalPath := flag.String("journal", "", "journal database path (overrides config)")
	force := flag.Bool("force", false, "re-evaluate scenarios that are already journaled")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("paceguard-eval", Version)
		return
	}

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if flag.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "Usage: paceguard-eval [-config file] [-journal path] [-force] <scenario.yaml|dir>...\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	_ = godotenv.Load()

	cfg, err := config.LoadTool(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *journalPath != "" {
		cfg.Journal.Path = *journalPath
	}

	files, err := evaluate.Collect(flag.Args())
	if err != nil {
		log.Error("failed to collect scenarios", "error", err)
		os.Exit(1)
	}

	j, err := journal.Open(cfg.Journal.Path)
	if err != nil {
		log.Error("failed to open journal", "error", err)
		os.Exit(1)
	}
	defer j.Close()

	var r adapt.Reasoner
	if cfg.Reasoner.URL != "" {
		r = reasoner.NewClient(cfg.Reasoner.URL, cfg.Reasoner.Model, cfg.Reasoner.Timeout)
	}
	svc := coach.NewService(adapt.NewEngine(r, cfg.Reasoner.Timeout, log), log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stats, err := evaluate.New(svc, j, *force, log).Run(ctx, files)
	printStats(stats, cfg.Journal.Path)
	if err != nil {
		log.Error("evaluation failed", "error", err)
		os.Exit(1)
	}
	if stats.FilesErrored > 0 {
		os.Exit(1)
	}
}

func printStats(stats *evaluate.Stats, journalPath string) {
	fmt.Println()
	fmt.Println("=== Evaluation Summary ===")
	fmt.Printf("  Files total:      %d\n", stats.FilesTotal)
	fmt.Printf("  Files evaluated:  %d\n", stats.FilesEvaluated)
	fmt.Printf("  Files skipped:    %d (already journaled)\n", stats.FilesSkipped)
	fmt.Printf("  Files errored:    %d\n", stats.FilesErrored)
	fmt.Println()
	fmt.Printf("  Journal entries:  %d\n", stats.Entries)
	fmt.Printf("  Insufficient:     %d\n", stats.Insufficient)
	fmt.Printf("  Journal:          %s\n", journalPath)
	fmt.Println()
}

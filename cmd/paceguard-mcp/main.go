package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/claude/paceguard/internal/adapt"
	"github.com/claude/paceguard/internal/coach"
	"github.com/claude/paceguard/internal/config"
	"github.com/claude/paceguard/internal/mcp"
	"github.com/claude/paceguard/internal/reasoner"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "", "optional path to config file (reasoner settings)")
	remote := flag.String("remote", "", "PaceGuard server URL; when set, tools call the REST API instead of the local core")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("paceguard-mcp", Version)
		return
	}

	// stdout carries the MCP protocol, so logs go to stderr.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	_ = godotenv.Load()

	var backend mcp.Backend
	if *remote != "" {
		backend = mcp.NewHTTPClient(*remote)
		log.Info("using remote backend", "url", *remote)
	} else {
		cfg, err := config.LoadTool(*configPath)
		if err != nil {
			log.Error("failed to load config", "error", err)
			os.Exit(1)
		}
		var r adapt.Reasoner
		if cfg.Reasoner.URL != "" {
			r = reasoner.NewClient(cfg.Reasoner.URL, cfg.Reasoner.Model, cfg.Reasoner.Timeout)
		}
		backend = coach.NewService(adapt.NewEngine(r, cfg.Reasoner.Timeout, log), log)
	}

	if err := mcpserver.ServeStdio(mcp.New(backend, Version, log)); err != nil {
		log.Error("mcp server stopped", "error", err)
		os.Exit(1)
	}
}

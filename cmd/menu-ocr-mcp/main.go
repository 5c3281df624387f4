package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/menulens/menu-ocr-mcp/internal/config"
	"github.com/menulens/menu-ocr-mcp/internal/hybrid"
	"github.com/menulens/menu-ocr-mcp/internal/server"
	"github.com/menulens/menu-ocr-mcp/internal/tesseract"
	"github.com/menulens/menu-ocr-mcp/internal/vision"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("menu-ocr-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println("menu-ocr-mcp - MCP server for hybrid menu text recognition")
			fmt.Println()
			fmt.Println("Usage: menu-ocr-mcp [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables:")
			fmt.Println("  MENU_OCR_VISION_API_KEY      Cloud recognition credential (optional; local-only without it)")
			fmt.Println("  MENU_OCR_VISION_ENDPOINT     Override the cloud annotate endpoint")
			fmt.Println("  MENU_OCR_LANGUAGE            Recognition language, default eng")
			fmt.Println("  MENU_OCR_CLOUD_RPS           Cloud request rate limit per second, default 5")
			fmt.Println("  MENU_OCR_CLOUD_TIMEOUT_MS    Cloud request timeout, default 30000")
			fmt.Println("  MENU_OCR_LOG_LEVEL=debug     Enable debug logging")
			fmt.Println()
			fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
			fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
			return
		}
	}

	// Configure logging to stderr (stdout is for MCP protocol)
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	cfg := config.Load()
	if cfg.LogLevel == "debug" {
		log.Printf("Menu OCR MCP Server v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
	}

	local := tesseract.NewEngine(cfg.Language)
	coordinator := hybrid.NewCoordinator(local, func() hybrid.CloudEngine {
		return vision.New(vision.Config{
			Endpoint:          cfg.VisionEndpoint,
			Timeout:           cfg.CloudTimeout,
			RequestsPerSecond: cfg.CloudRPS,
		})
	}, log.Default())

	err := coordinator.Initialize(context.Background(), hybrid.InitOptions{
		CloudCredential: cfg.VisionAPIKey,
	})
	if err != nil {
		// A bad credential is not fatal: recognition still works locally
		// and the credential can be replaced via ocr_update_credential.
		log.Printf("Initialization warning: %v", err)
	}
	defer coordinator.Cleanup()

	srv := server.New(coordinator)
	if err := srv.Run(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

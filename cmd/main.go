// GitHub Models Proxy
//
// This application serves as a compatibility shim between OpenAI API clients
// and the GitHub Models inference API. Point any OpenAI SDK at it, and it
// translates model names, trims oversized requests down to the free-tier
// limits, and relays buffered or streamed responses back unchanged in shape.
//
// CLI Usage:
//
//	The application supports the following command-line flags:
//
//	--port=8000
//	  Port to listen on. Overrides the PORT environment variable.
//	  Example: ./github-models-proxy --port=9000
//
//	--test-prompt="prompt"
//	  Sends a single prompt upstream using the default model and prints the
//	  reply, then exits. Useful for verifying the credential end to end.
//	  Example: ./github-models-proxy --test-prompt="Say hello"
//
//	--print-models
//	  Prints the built-in model name translations and exits.
//	  Example: ./github-models-proxy --print-models
//
// Environment Variables:
//   - GITHUB_TOKEN (required): GitHub token used as the upstream bearer credential
//   - GITHUB_MODELS_URL: Upstream inference endpoint base URL
//   - DEFAULT_MODEL: Fallback upstream model for unknown client model ids
//   - PORT: Port to listen on
//   - MODEL_MAP_FILE: JSON file of extra model translations merged at startup
//   - MAX_REQUEST_TOKENS, MAX_SYSTEM_PROMPT_TOKENS, MAX_HISTORY_MESSAGES,
//     MAX_TOOLS: Truncation limits
//   - TOKEN_ESTIMATOR: Token estimation strategy ("chars" or "heuristic")
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github-models-proxy/internal/app"
	"github-models-proxy/internal/proxy"
	"github-models-proxy/pkg/utils"
)

// loadEnvFile loads environment variables from a .env file if present.
// It attempts to load from the current directory and parent directories
// up to the root directory.
func loadEnvFile() {
	// Try current directory first
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment variables from .env file in current directory")
		return
	}

	workDir, err := os.Getwd()
	if err != nil {
		log.Printf("Warning: Could not determine current directory: %v", err)
		return
	}

	// Try parent directories recursively
	for dir := workDir; dir != "/"; dir = filepath.Dir(dir) {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			if err := godotenv.Load(envPath); err == nil {
				log.Printf("Loaded environment variables from %s", envPath)
				return
			}
		}
	}

	log.Println("No .env file found. Using existing environment variables.")
}

func printModelMap() {
	entries := proxy.DefaultModelEntries()
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Println("Built-in model translations:")
	for _, k := range keys {
		fmt.Printf("  %-22s -> %s\n", k, entries[k])
	}
	fmt.Printf("  %-22s -> %s\n", "(anything else)", proxy.DefaultUpstreamModel)
}

func runTestPrompt(cfg *proxy.Config, prompt string) {
	log.Printf("Sending test prompt to %s with model %s...", cfg.ModelsURL, cfg.DefaultModel)

	service := proxy.NewService(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	response, err := service.SubmitTestPrompt(ctx, prompt)
	if err != nil {
		log.Fatalf("Test prompt failed: %v", err)
	}

	fmt.Println("\nResponse:")
	fmt.Println(response)
}

func main() {
	// Load environment variables from .env file
	loadEnvFile()

	port := flag.Int("port", 0, "Port to listen on (overrides PORT)")
	testPrompt := flag.String("test-prompt", "", "Send a single prompt upstream and exit")
	printModels := flag.Bool("print-models", false, "Print the built-in model translations and exit")
	flag.Parse()

	if *printModels {
		printModelMap()
		os.Exit(0)
	}

	cfg, err := proxy.LoadConfig()
	if err != nil {
		if errors.Is(err, proxy.ErrMissingToken) {
			log.Fatalf("Error: %v\nSet GITHUB_TOKEN in the environment or a .env file.", err)
		}
		log.Fatalf("Error loading configuration: %v", err)
	}
	if *port != 0 {
		cfg.Port = *port
	}

	log.Printf("Using GitHub token: %s", utils.MaskToken(cfg.GitHubToken))
	if !utils.LooksLikeGitHubToken(cfg.GitHubToken) {
		log.Println("Warning: GITHUB_TOKEN does not look like a GitHub token; upstream calls may fail")
	}

	if *testPrompt != "" {
		runTestPrompt(cfg, *testPrompt)
		os.Exit(0)
	}

	// Create a context that will be canceled on program termination
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Println("Shutting down...")
		cancel()
	}()

	a := app.NewApp(cfg)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: a.Router,
	}

	go func() {
		log.Printf("Starting server on :%d...", cfg.Port)
		log.Printf("Upstream endpoint: %s", cfg.ModelsURL)
		log.Printf("Default model: %s", cfg.DefaultModel)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not start server: %v", err)
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during server shutdown: %v", err)
	} else {
		log.Println("Server gracefully stopped")
	}
}

// Package main implements a CLI tool for exercising a running proxy instance
// the way an OpenAI client would.
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"
)

func main() {
	url := flag.String("url", "http://127.0.0.1:8000", "Base URL of the running proxy")
	model := flag.String("model", "gpt-4", "Model id to request (client-side name)")
	prompt := flag.String("prompt", "Hello, what can you do?", "The prompt to send")
	stream := flag.Bool("stream", false, "Request a streamed response and print deltas as they arrive")
	flag.Parse()

	payload := map[string]interface{}{
		"model": *model,
		"messages": []map[string]string{
			{"role": "user", "content": *prompt},
		},
		"stream": *stream,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		log.Fatalf("Failed to build request: %v", err)
	}

	fmt.Println("🚀 GitHub Models Proxy Tester")
	fmt.Println("----------------------------")
	fmt.Printf("Target: %s\n", *url)
	fmt.Printf("Model:  %s\n", *model)
	fmt.Printf("Stream: %v\n", *stream)
	fmt.Println()

	client := &http.Client{Timeout: 2 * time.Minute}
	resp, err := client.Post(strings.TrimRight(*url, "/")+"/v1/chat/completions", "application/json", bytes.NewReader(body))
	if err != nil {
		log.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errBody bytes.Buffer
		errBody.ReadFrom(resp.Body)
		log.Fatalf("Proxy returned %s: %s", resp.Status, errBody.String())
	}

	if *stream {
		printStream(resp)
		return
	}
	printBuffered(resp)
}

func printBuffered(resp *http.Response) {
	var parsed struct {
		Model   string `json:"model"`
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		log.Fatalf("Failed to parse response: %v", err)
	}
	if len(parsed.Choices) == 0 {
		log.Fatal("No choices in response")
	}
	fmt.Printf("Response (model %s):\n%s\n", parsed.Model, parsed.Choices[0].Message.Content)
}

func printStream(resp *http.Response) {
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "[DONE]" {
			fmt.Println()
			fmt.Println("[stream complete]")
			return
		}

		var chunk struct {
			Choices []struct {
				Delta struct {
					Content string `json:"content"`
				} `json:"delta"`
			} `json:"choices"`
		}
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			continue
		}
		for _, c := range chunk.Choices {
			fmt.Print(c.Delta.Content)
		}
	}
	if err := scanner.Err(); err != nil {
		log.Fatalf("Stream read error: %v", err)
	}
	fmt.Println()
	fmt.Println("[stream ended without completion marker]")
}

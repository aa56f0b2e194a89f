package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

const (
	baseURL = "http://localhost:8080"
)

func main() {
	// Wait for server to start
	time.Sleep(2 * time.Second)

	fmt.Println("Starting Integration Test...")

	fmt.Println("1. Graph stats...")
	if _, ok := sendRequest("GET", "/graph/stats", nil); !ok {
		fmt.Println("FAILED: Graph stats")
		os.Exit(1)
	}
	fmt.Println("PASSED: Graph stats")

	fmt.Println("2. Creating session...")
	sessionID := fmt.Sprintf("smoke-%d", time.Now().Unix())
	if _, ok := sendRequest("POST", "/sessions", map[string]string{"session_id": sessionID}); !ok {
		fmt.Println("FAILED: Create session")
		os.Exit(1)
	}
	fmt.Println("PASSED: Create session")

	fmt.Println("3. Asking questions...")
	for _, q := range []string{"Who are you?", "What did I just ask you?"} {
		body, ok := sendRequest("POST", "/sessions/"+sessionID+"/query", map[string]string{"query": q})
		if !ok {
			fmt.Printf("FAILED: Query %q\n", q)
			os.Exit(1)
		}
		var ans struct {
			Response  string `json:"response"`
			CacheHits int    `json:"cache_hits"`
		}
		if err := json.Unmarshal(body, &ans); err != nil || ans.Response == "" {
			fmt.Printf("FAILED: Query %q returned no response\n", q)
			os.Exit(1)
		}
		fmt.Printf("   %s -> %s (cache hits: %d)\n", q, ans.Response, ans.CacheHits)
	}
	fmt.Println("PASSED: Queries")

	fmt.Println("4. Deleting session...")
	if _, ok := sendRequest("DELETE", "/sessions/"+sessionID, nil); !ok {
		fmt.Println("FAILED: Delete session")
		os.Exit(1)
	}
	fmt.Println("PASSED: Delete session")
}

func sendRequest(method, endpoint string, payload interface{}) ([]byte, bool) {
	var body io.Reader
	if payload != nil {
		jsonBytes, _ := json.Marshal(payload)
		body = bytes.NewBuffer(jsonBytes)
	}

	req, err := http.NewRequest(method, baseURL+endpoint, body)
	if err != nil {
		fmt.Printf("Error creating request: %v\n", err)
		return nil, false
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 5 * time.Minute}
	resp, err := client.Do(req)
	if err != nil {
		fmt.Printf("Error sending request: %v\n", err)
		return nil, false
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		fmt.Printf("Unexpected status %d: %s\n", resp.StatusCode, string(respBody))
		return respBody, false
	}
	return respBody, true
}

package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type target struct {
	Method       string `json:"method"`
	Path         string `json:"path"`
	ExpectStatus int    `json:"expect_status"`
	Authed       bool   `json:"authed"`
	Critical     bool   `json:"critical"`
}

type config struct {
	Targets []target `json:"targets"`
}

type check struct {
	Target   target
	Status   int
	OK       bool
	Envelope bool
	Error    error
	Duration time.Duration
}

func main() {
	var (
		base        string
		token       string
		targetsPath string
		timeout     time.Duration
	)

	flag.StringVar(&base, "base", "http://localhost:8080", "API base URL")
	flag.StringVar(&token, "token", "", "Bearer token for authenticated targets")
	flag.StringVar(&targetsPath, "targets", filepath.Join("scripts", "smoke", "targets.json"), "Path to JSON targets file")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.Parse()

	targets, err := loadTargets(targetsPath)
	if err != nil {
		log.Fatalf("failed to load targets: %v", err)
	}

	client := &http.Client{Timeout: timeout}
	var (
		checks   []check
		failures int
	)

	for _, t := range targets {
		c := checkTarget(client, base, token, t)
		if (c.Error != nil || !c.OK) && t.Critical {
			failures++
		}
		checks = append(checks, c)
	}

	printReport(checks)

	fmt.Printf("Critical failures: %d\n", failures)
	if failures > 0 {
		os.Exit(1)
	}
}

func loadTargets(path string) ([]target, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if len(cfg.Targets) == 0 {
		return nil, fmt.Errorf("no targets defined in %s", path)
	}
	return cfg.Targets, nil
}

func checkTarget(client *http.Client, base, token string, tgt target) check {
	c := check{Target: tgt}

	resp, dur, err := performRequest(client, base, token, tgt)
	c.Duration = dur
	if err != nil {
		c.Error = fmt.Errorf("request failed: %w", err)
		return c
	}
	defer resp.Body.Close()

	c.Status = resp.StatusCode
	expected := tgt.ExpectStatus
	if expected == 0 {
		expected = http.StatusOK
	}
	c.OK = c.Status == expected

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.Error = fmt.Errorf("read body: %w", err)
		return c
	}
	c.Envelope = hasEnvelopeShape(body)

	return c
}

func performRequest(client *http.Client, base, token string, tgt target) (*http.Response, time.Duration, error) {
	if client == nil {
		return nil, 0, errors.New("nil client")
	}
	method := strings.ToUpper(strings.TrimSpace(tgt.Method))
	if method == "" {
		method = http.MethodGet
	}
	path := tgt.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	url := strings.TrimRight(base, "/") + path

	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		return nil, 0, err
	}
	if tgt.Authed && token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	return resp, time.Since(start), nil
}

// hasEnvelopeShape reports whether the body parses as JSON carrying at least
// one of the response envelope keys. Non-JSON payloads (CSV, PDF, metrics)
// report false without failing the check.
func hasEnvelopeShape(body []byte) bool {
	var parsed map[string]json.RawMessage
	if err := json.Unmarshal(body, &parsed); err != nil {
		return false
	}
	for _, key := range []string{"data", "error", "status"} {
		if _, ok := parsed[key]; ok {
			return true
		}
	}
	return false
}

func printReport(checks []check) {
	fmt.Println("METHOD  PATH                                      STATUS  OK     ENVELOPE  DURATION")
	for _, c := range checks {
		if c.Error != nil {
			fmt.Printf("%-7s %-41s ERR: %v\n", c.Target.Method, c.Target.Path, c.Error)
			continue
		}
		fmt.Printf("%-7s %-41s %-7d %-6t %-9t %s\n",
			c.Target.Method, c.Target.Path, c.Status, c.OK, c.Envelope, c.Duration.Round(time.Millisecond))
	}
}

package testruns

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// HTTPClient wraps http.Client with timeout
type HTTPClient struct {
	client  *http.Client
	timeout time.Duration
}

// newHTTPClient creates a new HTTP client with timeout
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
		timeout: timeout,
	}
}

// Get performs a GET request
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with JSON body
func (c *HTTPClient) Post(ctx context.Context, url string, body interface{}) (*http.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// readResponseBody reads and closes the response body
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// submission ties a submitted parameter set to the run ID the service
// acknowledged it with.
type submission struct {
	Params    Parameters
	RunID     string
	Duplicate bool
}

// submitRuns submits parameter sets concurrently using a worker pool.
func submitRuns(ctx context.Context, config *Config, sets []Parameters, stats *Stats) ([]submission, error) {
	log.Printf("📤 Submitting %d runs with %d workers...", len(sets), config.Workers)

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/runs"

	var (
		accepted  int64
		duplicate int64
		failed    int64
		submitted int64
	)

	type indexed struct {
		index  int
		params Parameters
	}

	paramChan := make(chan indexed, config.Workers*2)
	results := make([]submission, len(sets))
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for item := range paramChan {
				select {
				case <-ctx.Done():
					return
				default:
					ack, err := submitSingleRun(ctx, client, url, item.params)
					atomic.AddInt64(&submitted, 1)
					if err != nil {
						atomic.AddInt64(&failed, 1)
						if config.Verbose {
							log.Printf("⚠️  Run %d submission failed: %v", item.index, err)
						}
						continue
					}
					if ack.Duplicate {
						atomic.AddInt64(&duplicate, 1)
					} else {
						atomic.AddInt64(&accepted, 1)
					}
					results[item.index] = submission{
						Params:    item.params,
						RunID:     ack.RunID,
						Duplicate: ack.Duplicate,
					}
				}
			}
		}()
	}

	go func() {
		defer close(paramChan)
		for i, params := range sets {
			select {
			case <-ctx.Done():
				return
			case paramChan <- indexed{index: i, params: params}:
			}
		}
	}()

	wg.Wait()

	stats.RunsSubmitted = int(atomic.LoadInt64(&submitted))
	stats.RunsAccepted = int(atomic.LoadInt64(&accepted))
	stats.RunsDuplicate = int(atomic.LoadInt64(&duplicate))
	stats.RunsFailed = int(atomic.LoadInt64(&failed))

	log.Printf(`✅ Run submission completed:
   Accepted: %d
   Duplicate: %d
   Failed: %d
`, stats.RunsAccepted, stats.RunsDuplicate, stats.RunsFailed)

	return results, nil
}

// submitSingleRun posts one parameter set and parses the acknowledgment.
func submitSingleRun(ctx context.Context, client *HTTPClient, url string, params Parameters) (*AckResponse, error) {
	resp, err := client.Post(ctx, url, params)
	if err != nil {
		return nil, fmt.Errorf("submit failed: %w", err)
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusAccepted, http.StatusOK:
		var ack AckResponse
		if err := json.Unmarshal(body, &ack); err != nil {
			return nil, fmt.Errorf("failed to parse acknowledgment: %w", err)
		}
		if ack.RunID == "" {
			return nil, fmt.Errorf("acknowledgment missing run_id")
		}
		return &ack, nil
	case http.StatusTooManyRequests:
		return nil, fmt.Errorf("service reported backpressure")
	default:
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}
}

// fetchRun retrieves a single run, polling until it leaves pending status
// or the attempt budget is exhausted.
func fetchRun(ctx context.Context, client *HTTPClient, baseURL, runID string) (*RunEnvelope, error) {
	url := baseURL + "/runs/" + runID

	for attempt := 0; attempt < defaultPollAttempts; attempt++ {
		resp, err := client.Get(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch run %s: %w", runID, err)
		}

		body, err := readResponseBody(resp)
		if err != nil {
			return nil, fmt.Errorf("failed to read run %s: %w", runID, err)
		}

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("run %s returned status %d", runID, resp.StatusCode)
		}

		var run RunEnvelope
		if err := json.Unmarshal(body, &run); err != nil {
			return nil, fmt.Errorf("failed to parse run %s: %w", runID, err)
		}

		if run.Status != "pending" {
			return &run, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled while polling run %s: %w", runID, ctx.Err())
		case <-time.After(defaultPollInterval):
		}
	}

	return nil, fmt.Errorf("run %s still pending after %d polls", runID, defaultPollAttempts)
}

// simulate invokes the synchronous endpoint and returns the result series.
func simulate(ctx context.Context, client *HTTPClient, baseURL string, params Parameters) (*Result, error) {
	resp, err := client.Post(ctx, baseURL+"/simulate", params)
	if err != nil {
		return nil, fmt.Errorf("simulate request failed: %w", err)
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read simulate response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("simulate returned status %d: %s", resp.StatusCode, string(body))
	}

	var result Result
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse simulate response: %w", err)
	}

	return &result, nil
}

// getLeaderboard fetches the top N completed runs.
func getLeaderboard(ctx context.Context, config *Config, stats *Stats) ([]Entry, error) {
	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/leaderboard?limit=" + strconv.Itoa(config.TopN)

	resp, err := client.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch leaderboard: %w", err)
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read leaderboard: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("leaderboard returned status %d", resp.StatusCode)
	}

	var entries []Entry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse leaderboard: %w", err)
	}

	return entries, nil
}

// getRank fetches the rank of a single run.
func getRank(ctx context.Context, client *HTTPClient, baseURL, runID string) (*Entry, error) {
	resp, err := client.Get(ctx, baseURL+"/rank/"+runID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch rank for %s: %w", runID, err)
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read rank for %s: %w", runID, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rank for %s returned status %d", runID, resp.StatusCode)
	}

	var entry Entry
	if err := json.Unmarshal(body, &entry); err != nil {
		return nil, fmt.Errorf("failed to parse rank for %s: %w", runID, err)
	}

	return &entry, nil
}

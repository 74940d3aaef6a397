package commands

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/techub/techub/internal/core/pipeline"
)

const (
	batchMaxAttempts = 3
)

var (
	batchFile     string
	batchOutFile  string
	batchFormat   string
	batchWorkers  int
	batchPreset   string
	batchVariants []string
	batchDryRun   bool
)

// BatchJob represents one login to process in the worker pool
type BatchJob struct {
	Index int
	Login string
}

// BatchResult represents the result of processing a single login
type BatchResult struct {
	Index    int
	Login    string
	Attempts int
	Result   *pipeline.RunResult
	Error    error
}

// JSONOutput represents the JSON output structure
type JSONOutput struct {
	ProcessedAt time.Time     `json:"processed_at"`
	TotalLogins int           `json:"total_logins"`
	Successful  int           `json:"successful"`
	Partial     int           `json:"partial"`
	Failed      int           `json:"failed"`
	Results     []ResultEntry `json:"results"`
}

// ResultEntry represents a single result entry in JSON output
type ResultEntry struct {
	Login    string              `json:"login"`
	Attempts int                 `json:"attempts"`
	Result   *pipeline.RunResult `json:"result,omitempty"`
	Error    string              `json:"error,omitempty"`
}

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Run the pipeline for multiple logins from a JSON file",
	Long: `Run the generation pipeline for a list of GitHub logins in batch
mode. Logins are read from a JSON file, processed through the selected
preset with per-login retries, and the results are written as JSON or CSV.

A login that fails is retried up to 3 times with a growing backoff; each
attempt starts from a fresh run context. Workers never share a login, so
two runs for the same profile cannot interleave.`,
	Run: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringVar(&batchFile, "file", "", "Path to JSON file containing an array of logins (required)")
	batchCmd.Flags().StringVar(&batchOutFile, "out-file", "", "Output file path (stdout if not specified)")
	batchCmd.Flags().StringVar(&batchFormat, "format", "json", "Output format: json or csv")
	batchCmd.Flags().IntVar(&batchWorkers, "workers", 1, "Number of concurrent workers")
	batchCmd.Flags().StringVar(&batchPreset, "preset", "full-generate", "Stage preset to run")
	batchCmd.Flags().StringSliceVar(&batchVariants, "variants", nil, "Screenshot variants to capture")
	batchCmd.Flags().BoolVar(&batchDryRun, "dry-run", false, "Run without external side effects")

	if err := batchCmd.MarkFlagRequired("file"); err != nil {
		fmt.Printf("Warning: Failed to mark file flag as required: %v\n", err)
	}
}

func runBatch(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	if verbose {
		fmt.Printf("Loading logins from %s...\n", batchFile)
	}
	logins, err := loadLogins(batchFile)
	if err != nil {
		fmt.Printf("Error loading logins: %v\n", err)
		os.Exit(1)
	}
	if verbose {
		fmt.Printf("Loaded %d logins\n", len(logins))
	}

	cfg := loadConfig()

	deps, closeDeps, err := initializeDependencies(ctx, cfg)
	if err != nil {
		fmt.Printf("Error initializing dependencies: %v\n", err)
		os.Exit(1)
	}
	defer closeDeps()
	deps.DryRun = batchDryRun

	stageIDs := pipeline.ResolveStages(nil, batchPreset)
	if verbose {
		fmt.Printf("Pipeline stages: %v\n", stageIDs)
	}

	fmt.Printf("Processing %d logins with %d workers...\n", len(logins), batchWorkers)
	results := processBatch(ctx, logins, deps, stageIDs)

	if err := outputResults(results); err != nil {
		fmt.Printf("Error outputting results: %v\n", err)
		os.Exit(1)
	}

	successful, partial, failed := 0, 0, 0
	for _, r := range results {
		switch {
		case r.Error != nil || (r.Result != nil && r.Result.Status == pipeline.OutcomeFailure):
			failed++
		case r.Result != nil && r.Result.Status == pipeline.OutcomePartialSuccess:
			partial++
		default:
			successful++
		}
	}
	fmt.Printf("\nBatch completed: %d successful, %d partial, %d failed\n", successful, partial, failed)
}

// loadLogins reads and parses a JSON file containing an array of logins
func loadLogins(filePath string) ([]string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var logins []string
	if err := json.Unmarshal(data, &logins); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	if len(logins) == 0 {
		return nil, fmt.Errorf("no logins found in file")
	}

	// Dedupe case-insensitively, keeping first-seen order. A duplicate login
	// would otherwise land on two workers and run concurrently.
	seen := make(map[string]bool, len(logins))
	out := make([]string, 0, len(logins))
	for i, login := range logins {
		normalized := strings.ToLower(strings.TrimSpace(login))
		if normalized == "" {
			return nil, fmt.Errorf("empty login at index %d", i)
		}
		if seen[normalized] {
			continue
		}
		seen[normalized] = true
		out = append(out, normalized)
	}

	return out, nil
}

// processBatch processes all logins using a worker pool pattern
func processBatch(ctx context.Context, logins []string, deps *pipeline.Dependencies, stageIDs []string) []BatchResult {
	jobs := make(chan BatchJob, batchWorkers)
	results := make(chan BatchResult, batchWorkers)
	var wg sync.WaitGroup

	// Start workers
	for i := 0; i < batchWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for job := range jobs {
				if verbose {
					fmt.Printf("[Worker %d] Processing %s\n", workerID, job.Login)
				}

				res := runWithRetries(ctx, deps, stageIDs, job.Login)
				res.Index = job.Index
				results <- res

				if verbose {
					if res.Error != nil {
						fmt.Printf("[Worker %d] %s failed after %d attempts: %v\n", workerID, job.Login, res.Attempts, res.Error)
					} else {
						fmt.Printf("[Worker %d] %s completed (%s)\n", workerID, job.Login, res.Result.Status)
					}
				}
			}
		}(i)
	}

	// Send jobs
	go func() {
		for i, login := range logins {
			jobs <- BatchJob{Index: i, Login: login}
		}
		close(jobs)
	}()

	// Collect results
	go func() {
		wg.Wait()
		close(results)
	}()

	// Gather results in order
	resultMap := make(map[int]BatchResult)
	for result := range results {
		resultMap[result.Index] = result
	}

	orderedResults := make([]BatchResult, len(logins))
	for i := range logins {
		orderedResults[i] = resultMap[i]
	}

	return orderedResults
}

// runWithRetries runs the pipeline for one login, retrying failed runs with
// a quadratic backoff. Every attempt gets a fresh run context; state never
// leaks between attempts.
func runWithRetries(ctx context.Context, deps *pipeline.Dependencies, stageIDs []string, login string) BatchResult {
	out := BatchResult{Login: login}

	for attempt := 1; attempt <= batchMaxAttempts; attempt++ {
		out.Attempts = attempt

		overrides := &pipeline.Overrides{
			ScreenshotVariants: batchVariants,
			TriggerSource:      "batch",
		}
		res, err := executeRun(ctx, deps, stageIDs, login, overrides, nil, nil)
		if err != nil {
			out.Error = err
			return out
		}

		out.Result = res
		out.Error = nil
		if res.Status != pipeline.OutcomeFailure {
			return out
		}

		if attempt < batchMaxAttempts {
			delay := time.Duration(attempt*attempt) * time.Second
			if verbose {
				fmt.Printf("  %s attempt %d failed at %s, retrying in %s\n", login, attempt, res.FailedStage, delay)
			}
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				out.Error = ctx.Err()
				return out
			}
		}
	}

	return out
}

// outputResults formats and writes results to the specified output
func outputResults(results []BatchResult) error {
	var data []byte
	var err error

	// Determine format
	format := batchFormat
	if format == "" && batchOutFile != "" {
		// Infer from file extension
		ext := strings.ToLower(filepath.Ext(batchOutFile))
		if ext == ".csv" {
			format = "csv"
		} else {
			format = "json"
		}
	}
	if format == "" {
		format = "json"
	}

	switch format {
	case "csv":
		data, err = formatCSV(results)
	case "json":
		data, err = formatJSON(results)
	default:
		return fmt.Errorf("unsupported format: %s (use json or csv)", format)
	}

	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}

	if batchOutFile != "" {
		if err := os.WriteFile(batchOutFile, data, 0o644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		fmt.Printf("Results written to %s\n", batchOutFile)
	} else {
		fmt.Println("\n=== Batch Results ===")
		fmt.Println(string(data))
	}

	return nil
}

// formatJSON formats results as JSON
func formatJSON(results []BatchResult) ([]byte, error) {
	successful, partial, failed := 0, 0, 0
	entries := make([]ResultEntry, len(results))

	for i, r := range results {
		entry := ResultEntry{
			Login:    r.Login,
			Attempts: r.Attempts,
			Result:   r.Result,
		}
		switch {
		case r.Error != nil:
			entry.Error = r.Error.Error()
			failed++
		case r.Result != nil && r.Result.Status == pipeline.OutcomeFailure:
			failed++
		case r.Result != nil && r.Result.Status == pipeline.OutcomePartialSuccess:
			partial++
		default:
			successful++
		}
		entries[i] = entry
	}

	output := JSONOutput{
		ProcessedAt: time.Now(),
		TotalLogins: len(results),
		Successful:  successful,
		Partial:     partial,
		Failed:      failed,
		Results:     entries,
	}

	return json.MarshalIndent(output, "", "  ")
}

// formatCSV formats results as CSV
func formatCSV(results []BatchResult) ([]byte, error) {
	var buf strings.Builder
	writer := csv.NewWriter(&buf)

	header := []string{
		"login",
		"status",
		"attempts",
		"card_id",
		"screenshots",
		"degraded_stages",
		"failed_stage",
		"error",
	}
	if err := writer.Write(header); err != nil {
		return nil, err
	}

	for _, r := range results {
		row := make([]string, len(header))
		row[0] = r.Login
		row[2] = strconv.Itoa(r.Attempts)

		if r.Error != nil {
			row[7] = r.Error.Error()
		}
		if r.Result != nil {
			row[1] = string(r.Result.Status)
			row[3] = r.Result.CardID
			row[4] = strconv.Itoa(len(r.Result.Screenshots))
			row[5] = strings.Join(r.Result.DegradedStages, ";")
			row[6] = r.Result.FailedStage
			if row[7] == "" {
				row[7] = r.Result.ErrorMessage
			}
		}

		if err := writer.Write(row); err != nil {
			return nil, err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}

	return []byte(buf.String()), nil
}

package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/techub/techub/internal/core/config"
	"github.com/techub/techub/internal/core/pipeline"
	"github.com/techub/techub/internal/core/store"
	"github.com/techub/techub/internal/integrations/gemini"
	"github.com/techub/techub/internal/integrations/github"
	"github.com/techub/techub/internal/integrations/screenshot"
	"github.com/techub/techub/internal/integrations/storage"
	"github.com/techub/techub/internal/stages"
	"github.com/techub/techub/internal/verifier"
)

// initializeDependencies builds the stage collaborators from config. The
// profile store is mandatory; every external client is optional and its
// absence downgrades the run (skip or fallback) rather than blocking it.
// The returned closer releases client connections.
func initializeDependencies(ctx context.Context, cfg *config.Config) (*pipeline.Dependencies, func(), error) {
	deps := &pipeline.Dependencies{Config: cfg}
	var closers []func()

	fileStore, err := store.NewFileStore(cfg.Storage.DataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open profile store: %w", err)
	}
	deps.Store = fileStore

	if cfg.GitHub.Token != "" {
		deps.Fetcher = github.NewClient(ctx, cfg.GitHub.Token).WithMaxRepos(cfg.GitHub.MaxRepos)
		if verbose {
			fmt.Println("Initialized GitHub client")
		}
	} else {
		fmt.Println("Warning: No GitHub token found in config or GITHUB_TOKEN env var")
	}

	if cfg.Gemini.APIKey != "" {
		synthesizer, err := gemini.NewSynthesizer(cfg.Gemini.APIKey, cfg.Gemini.Model)
		if err != nil {
			fmt.Printf("Warning: Failed to initialize Gemini synthesizer: %v\n", err)
		} else {
			deps.Synthesizer = synthesizer
			closers = append(closers, func() { synthesizer.Close() })
			if verbose {
				fmt.Printf("Initialized Gemini synthesizer with model: %s\n", cfg.Gemini.Model)
			}
		}
	} else if verbose {
		fmt.Println("No Gemini API key found; card generation will use the heuristic")
	}

	if cfg.Screenshot.ToolPath != "" {
		deps.Capturer = screenshot.NewBrowserCapturer(cfg.Screenshot.ToolPath)
	}
	deps.Renderer = screenshot.NewRenderer("")

	if cfg.Storage.Bucket != "" {
		uploader, err := storage.NewGCSUploader(ctx, cfg.Storage.Bucket, cfg.Storage.CDNDomain)
		if err != nil {
			fmt.Printf("Warning: Failed to initialize GCS uploader, using local storage: %v\n", err)
			deps.Uploader = storage.NewLocalUploader(cfg.Storage.DataDir, cfg.Screenshot.Host)
		} else {
			deps.Uploader = uploader
			closers = append(closers, func() { uploader.Close() })
			if verbose {
				fmt.Printf("Initialized GCS uploader for bucket %s\n", cfg.Storage.Bucket)
			}
		}
	} else {
		deps.Uploader = storage.NewLocalUploader(cfg.Storage.DataDir, cfg.Screenshot.Host)
	}

	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}
	return deps, closeAll, nil
}

// executeRun builds the pipeline for the given stage ids and runs it once.
// Retries, if any, belong to the caller.
func executeRun(ctx context.Context, deps *pipeline.Dependencies, stageIDs []string, login string, overrides *pipeline.Overrides, onStatus pipeline.StatusFunc, v *verifier.Verifier) (*pipeline.RunResult, error) {
	registry := stages.NewRegistry()

	built, err := registry.BuildFromIDs(stageIDs, deps)
	if err != nil {
		return nil, err
	}

	stageList := built.Stages()
	if v != nil {
		stageList = v.Wrap(stageList)
	}

	p := pipeline.New(stageList...).
		WithRecorder(deps.Store).
		WithStatusFunc(onStatus)

	rc := pipeline.NewContext(ctx, login, overrides)
	rc.Host = deps.Config.Screenshot.Host

	res := p.Run(rc)

	if v != nil {
		if err := v.WriteReport(rc, res); err != nil {
			fmt.Printf("Warning: Failed to write run report: %v\n", err)
		} else if verbose {
			fmt.Printf("Snapshots written to %s\n", v.Dir())
		}
	}
	return res, nil
}

// isCI reports whether we are in a non-interactive environment.
func isCI() bool {
	return os.Getenv("CI") == "true" || os.Getenv("GITHUB_ACTIONS") == "true"
}

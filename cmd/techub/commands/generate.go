package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/techub/techub/internal/core/config"
	"github.com/techub/techub/internal/core/pipeline"
	"github.com/techub/techub/internal/tui"
)

var (
	genPreset         string
	genStages         []string
	genOnlyStages     []string
	genSkipStages     []string
	genVariants       []string
	genPreserveAvatar bool
	genPreserveFields []string
	genTrigger        string
	genDryRun         bool
	genHost           string
)

// generateCmd represents the generate command
var generateCmd = &cobra.Command{
	Use:   "generate <login>",
	Short: "Run the card generation pipeline for one GitHub login",
	Long: `Run the generation pipeline for a single GitHub login: fetch the
profile, persist it, synthesize a stat card and render its share images.
Stage selection can be narrowed with a preset, an explicit stage list, or
only/skip overrides.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runGenerate(args[0])
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringVar(&genPreset, "preset", "", "Stage preset (full-generate, metadata-resync, screenshot-refresh)")
	generateCmd.Flags().StringSliceVar(&genStages, "stages", nil, "Explicit stage id list (overrides preset)")
	generateCmd.Flags().StringSliceVar(&genOnlyStages, "only", nil, "Run only these stages")
	generateCmd.Flags().StringSliceVar(&genSkipStages, "skip", nil, "Skip these stages")
	generateCmd.Flags().StringSliceVar(&genVariants, "variants", nil, "Screenshot variants to capture (default from config)")
	generateCmd.Flags().BoolVar(&genPreserveAvatar, "preserve-avatar", false, "Keep the stored avatar instead of overwriting it")
	generateCmd.Flags().StringSliceVar(&genPreserveFields, "preserve-fields", nil, "Profile fields the persist stage must not overwrite")
	generateCmd.Flags().StringVar(&genTrigger, "trigger", "cli", "Trigger source recorded on the run")
	generateCmd.Flags().BoolVar(&genDryRun, "dry-run", false, "Run without external side effects")
	generateCmd.Flags().StringVar(&genHost, "host", "", "Override the card preview host")
}

func runGenerate(login string) {
	cfg := loadConfig()
	ctx := context.Background()

	deps, closeDeps, err := initializeDependencies(ctx, cfg)
	if err != nil {
		fmt.Printf("Error initializing dependencies: %v\n", err)
		os.Exit(1)
	}
	defer closeDeps()
	deps.DryRun = genDryRun

	if genHost != "" {
		cfg.Screenshot.Host = genHost
	}

	stageIDs := resolveStageIDs(cfg)
	overrides := &pipeline.Overrides{
		OnlyStages:            genOnlyStages,
		SkipStages:            genSkipStages,
		PreserveProfileAvatar: genPreserveAvatar,
		PreserveProfileFields: genPreserveFields,
		ScreenshotVariants:    genVariants,
		TriggerSource:         genTrigger,
	}

	if isCI() {
		fmt.Println("[techub] Running in CI mode (no TUI)")
		res, err := executeRun(ctx, deps, stageIDs, login, overrides, logStatus, nil)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		printResult(res)
		if res.Status == pipeline.OutcomeFailure {
			os.Exit(1)
		}
		return
	}

	statusChan := make(chan tui.PipelineStatusMsg)
	model := tui.NewModel(stageIDs, statusChan)
	p := tea.NewProgram(model)

	go func() {
		defer close(statusChan)

		onStatus := func(stageID, status, message string) {
			statusChan <- tui.PipelineStatusMsg{Stage: stageID, Status: status, Message: message}
		}

		res, err := executeRun(ctx, deps, stageIDs, login, overrides, onStatus, nil)
		if err != nil {
			p.Send(tui.ResultMsg{Success: false, Output: err.Error()})
			return
		}

		out, _ := json.MarshalIndent(res, "", "  ")
		p.Send(tui.ResultMsg{Success: res.Status != pipeline.OutcomeFailure, Output: string(out)})
	}()

	if _, err := p.Run(); err != nil {
		fmt.Printf("Error running TUI: %v\n", err)
		os.Exit(1)
	}
}

// resolveStageIDs picks the stage list: explicit flag > config > preset.
func resolveStageIDs(cfg *config.Config) []string {
	if len(genStages) > 0 {
		return genStages
	}
	explicit := cfg.Stages
	preset := genPreset
	if preset == "" {
		preset = cfg.Preset
	}
	return pipeline.ResolveStages(explicit, preset)
}

// logStatus is the CI-mode progress callback.
func logStatus(stageID, status, message string) {
	if message != "" {
		fmt.Printf("[techub] %s: %s (%s)\n", stageID, status, message)
		return
	}
	fmt.Printf("[techub] %s: %s\n", stageID, status)
}

func printResult(res *pipeline.RunResult) {
	out, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		fmt.Printf("Result: %+v\n", res)
		return
	}
	fmt.Println(string(out))
}

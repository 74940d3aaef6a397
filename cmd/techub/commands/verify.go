package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/techub/techub/internal/core/pipeline"
	"github.com/techub/techub/internal/verifier"
)

var (
	verifyPreset string
	verifyOutDir string
	verifyDryRun bool
)

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify <login>",
	Short: "Run the pipeline with per-stage context snapshots",
	Long: `Run the pipeline for a login while dumping a numbered before/after
JSON snapshot of the run context around every stage, plus a final run
report. Diff the snapshots to see exactly what each stage changed.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runVerify(args[0])
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().StringVar(&verifyPreset, "preset", "full-generate", "Stage preset to run")
	verifyCmd.Flags().StringVar(&verifyOutDir, "out-dir", "", "Snapshot directory (default: <data_dir>/verify/<login>)")
	verifyCmd.Flags().BoolVar(&verifyDryRun, "dry-run", true, "Run without external side effects")
}

func runVerify(login string) {
	cfg := loadConfig()
	ctx := context.Background()

	deps, closeDeps, err := initializeDependencies(ctx, cfg)
	if err != nil {
		fmt.Printf("Error initializing dependencies: %v\n", err)
		os.Exit(1)
	}
	defer closeDeps()
	deps.DryRun = verifyDryRun

	outDir := verifyOutDir
	if outDir == "" {
		outDir = filepath.Join(cfg.Storage.DataDir, "verify", login)
	}
	v, err := verifier.New(outDir)
	if err != nil {
		fmt.Printf("Error creating snapshot dir: %v\n", err)
		os.Exit(1)
	}

	stageIDs := pipeline.ResolveStages(nil, verifyPreset)
	overrides := &pipeline.Overrides{TriggerSource: "verify"}

	res, err := executeRun(ctx, deps, stageIDs, login, overrides, logStatus, v)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Snapshots written to %s\n", v.Dir())
	printResult(res)
	if res.Status == pipeline.OutcomeFailure {
		os.Exit(1)
	}
}

package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/techub/techub/internal/core/pipeline"
	"github.com/techub/techub/internal/core/recipes"
)

var (
	recipeVariants       []string
	recipePreserveAvatar bool
	recipePreserveFields []string
)

// recipeCmd groups the named partial-run recipes.
var recipeCmd = &cobra.Command{
	Use:   "recipe",
	Short: "Run a named partial-refresh recipe",
	Long: `Recipes are named override presets for common partial runs:
re-rendering screenshots for an existing card, or re-syncing GitHub
metadata while keeping curated content.`,
}

var screenshotRefreshCmd = &cobra.Command{
	Use:   "screenshot-refresh <login>",
	Short: "Re-render card images for an existing profile",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		overrides := recipes.ScreenshotRefresh(recipeVariants)
		if overrides == nil {
			fmt.Println("No valid variants given; nothing to refresh.")
			os.Exit(1)
		}
		runRecipe(args[0], overrides)
	},
}

var metadataResyncCmd = &cobra.Command{
	Use:   "metadata-resync <login>",
	Short: "Re-fetch GitHub fields without touching card images",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		overrides := recipes.MetadataResync(recipePreserveAvatar, recipePreserveFields)
		runRecipe(args[0], overrides)
	},
}

var forceRegenerateCmd = &cobra.Command{
	Use:   "force-regenerate <login>",
	Short: "Re-run everything, overwriting curated content",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runRecipe(args[0], recipes.ForceRegenerate(""))
	},
}

func init() {
	rootCmd.AddCommand(recipeCmd)
	recipeCmd.AddCommand(screenshotRefreshCmd)
	recipeCmd.AddCommand(metadataResyncCmd)
	recipeCmd.AddCommand(forceRegenerateCmd)

	screenshotRefreshCmd.Flags().StringSliceVar(&recipeVariants, "variants", nil, "Variants to re-render (required)")
	metadataResyncCmd.Flags().BoolVar(&recipePreserveAvatar, "preserve-avatar", false, "Keep the stored avatar")
	metadataResyncCmd.Flags().StringSliceVar(&recipePreserveFields, "preserve-fields", nil, "Profile fields to keep")
}

func runRecipe(login string, overrides *pipeline.Overrides) {
	cfg := loadConfig()
	ctx := context.Background()

	deps, closeDeps, err := initializeDependencies(ctx, cfg)
	if err != nil {
		fmt.Printf("Error initializing dependencies: %v\n", err)
		os.Exit(1)
	}
	defer closeDeps()

	stageIDs := pipeline.ResolveStages(nil, "full-generate")
	res, err := executeRun(ctx, deps, stageIDs, login, overrides, logStatus, nil)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	printResult(res)
	if res.Status == pipeline.OutcomeFailure {
		os.Exit(1)
	}
}

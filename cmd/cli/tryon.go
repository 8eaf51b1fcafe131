package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/stylevault/backend/internal/database"
	"github.com/stylevault/backend/internal/models"
	"github.com/stylevault/backend/internal/storage"
)

var tryonCmd = &cobra.Command{
	Use:   "tryon",
	Short: "Manage the try-on render cache",
	Long:  "Commands for inspecting and pruning cached try-on renders",
}

var tryonStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show render cache counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		var total, stale int64
		cutoff := time.Now().AddDate(0, 0, -30)

		if err := database.DB.Model(&models.TryOnRender{}).Count(&total).Error; err != nil {
			return fmt.Errorf("failed to count renders: %w", err)
		}
		database.DB.Model(&models.TryOnRender{}).Where("updated_at < ?", cutoff).Count(&stale)

		fmt.Printf("Cached renders: %d\n", total)
		fmt.Printf("Older than 30 days: %d\n", stale)
		return nil
	},
}

var tryonPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete renders not regenerated within the retention window",
	Long: `Delete cached try-on renders whose last regeneration is older than
the retention window. Removes the S3 objects too unless --keep-objects is set.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		days, _ := cmd.Flags().GetInt("days")
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		keepObjects, _ := cmd.Flags().GetBool("keep-objects")

		cutoff := time.Now().AddDate(0, 0, -days)

		var renders []models.TryOnRender
		if err := database.DB.Where("updated_at < ?", cutoff).Find(&renders).Error; err != nil {
			return fmt.Errorf("failed to load stale renders: %w", err)
		}
		if len(renders) == 0 {
			fmt.Println("Nothing to prune")
			return nil
		}

		if dryRun {
			fmt.Printf("Would delete %d renders older than %d days\n", len(renders), days)
			return nil
		}

		var uploader *storage.S3Uploader
		if !keepObjects {
			var err error
			uploader, err = storage.NewS3Uploader(
				os.Getenv("AWS_REGION"),
				os.Getenv("AWS_BUCKET"),
				os.Getenv("CDN_BASE_URL"),
			)
			if err != nil {
				return fmt.Errorf("failed to initialize S3 uploader: %w", err)
			}
		}

		ctx := context.Background()
		deleted := 0
		for _, render := range renders {
			if uploader != nil {
				if err := uploader.DeleteFile(ctx, render.ImageKey); err != nil {
					fmt.Printf("⚠️  Failed to delete object %s: %v\n", render.ImageKey, err)
				}
			}
			if err := database.DB.Delete(&render).Error; err != nil {
				fmt.Printf("⚠️  Failed to delete render %s: %v\n", render.ID, err)
				continue
			}
			deleted++
		}

		fmt.Printf("✓ Pruned %d of %d stale renders\n", deleted, len(renders))
		return nil
	},
}

func init() {
	tryonPruneCmd.Flags().Int("days", 30, "Retention window in days")
	tryonPruneCmd.Flags().Bool("dry-run", false, "Report what would be deleted without deleting")
	tryonPruneCmd.Flags().Bool("keep-objects", false, "Leave S3 objects in place")

	tryonCmd.AddCommand(tryonStatsCmd)
	tryonCmd.AddCommand(tryonPruneCmd)
}

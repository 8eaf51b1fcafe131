package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/stylevault/backend/internal/database"
	"github.com/stylevault/backend/internal/models"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage user accounts",
	Long:  "Commands for listing accounts and managing admin privileges",
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		var users []models.User
		if err := database.DB.Order("created_at DESC").Limit(limit).Find(&users).Error; err != nil {
			return fmt.Errorf("failed to list users: %w", err)
		}

		if output == "json" {
			return json.NewEncoder(os.Stdout).Encode(users)
		}

		fmt.Printf("%-38s %-24s %-30s %s\n", "ID", "USERNAME", "EMAIL", "ADMIN")
		for _, u := range users {
			admin := ""
			if u.IsAdmin {
				admin = "yes"
			}
			fmt.Printf("%-38s %-24s %-30s %s\n", u.ID, u.Username, u.Email, admin)
		}
		fmt.Printf("\n%d users\n", len(users))
		return nil
	},
}

var userPromoteCmd = &cobra.Command{
	Use:   "promote <email>",
	Short: "Grant admin privileges to an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setAdmin(args[0], true)
	},
}

var userDemoteCmd = &cobra.Command{
	Use:   "demote <email>",
	Short: "Revoke admin privileges from an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setAdmin(args[0], false)
	},
}

func init() {
	userListCmd.Flags().Int("limit", 50, "Maximum number of users to list")

	userCmd.AddCommand(userListCmd)
	userCmd.AddCommand(userPromoteCmd)
	userCmd.AddCommand(userDemoteCmd)
}

func setAdmin(email string, grant bool) error {
	var user models.User
	if err := database.DB.Where("LOWER(email) = LOWER(?)", email).First(&user).Error; err != nil {
		return fmt.Errorf("user not found: %s", email)
	}

	if user.IsAdmin == grant {
		if grant {
			fmt.Printf("⚠️  User %s is already an admin\n", user.Username)
		} else {
			fmt.Printf("⚠️  User %s is not an admin\n", user.Username)
		}
		return nil
	}

	user.IsAdmin = grant
	if err := database.DB.Save(&user).Error; err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	if grant {
		fmt.Printf("✓ Admin privileges granted to %s (%s)\n", user.Username, user.Email)
		fmt.Println("  The user must log out and log back in for changes to take effect")
	} else {
		fmt.Printf("✓ Admin privileges revoked for %s (%s)\n", user.Username, user.Email)
	}
	return nil
}

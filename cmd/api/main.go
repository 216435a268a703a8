package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/remindly/core/cmd/api/commands"
)

// @title Remindly API
// @version 1.0
// @description Personal task lists with reminders, item images and user profiles.

// @host localhost:5000
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	rootCmd := &cobra.Command{
		Use:           "remindly",
		Short:         "Remindly API Server",
		Long:          `Remindly keeps personal task lists with reminders, item images and user profiles.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewMigrateCommand())
	rootCmd.AddCommand(commands.NewUserCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	if err := rootCmd.Execute(); err != nil {
		log.Printf("Command execution failed: %v", err)
		os.Exit(1)
	}
}

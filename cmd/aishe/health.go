package main

import (
	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the AISHE server's health",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		status, err := app.orchestrator.CheckHealth(commandContext(cmd))
		if err != nil {
			return err
		}

		cmd.Printf("Status:            %s\n", status.Status)
		cmd.Printf("Ollama accessible: %t\n", status.ServiceAccessible)
		if status.Message != nil {
			cmd.Printf("Message:           %s\n", *status.Message)
		}
		if !status.Healthy() {
			cmd.Println("The server is up but not fully operational.")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}

package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abdhe/aishe-client/pkg/orchestrator"
)

var askJSON bool

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask the AISHE server a question",
	Long: `Asks a question, answering from the configured cache when possible.
Multiple arguments are joined with spaces.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := strings.Join(args, " ")

	answer, err := app.orchestrator.Ask(commandContext(cmd), question)
	if err != nil {
		return err
	}

	if askJSON {
		return outputAskJSON(cmd, answer)
	}
	outputAnswer(cmd, answer, app.orchestrator.StrategyName())
	return nil
}

type askOutput struct {
	Answer         string  `json:"answer"`
	Sources        any     `json:"sources"`
	ProcessingTime float64 `json:"processing_time"`
	CacheHit       bool    `json:"cache_hit"`
	ElapsedMs      int64   `json:"elapsed_ms"`
}

func outputAskJSON(cmd *cobra.Command, answer *orchestrator.Answer) error {
	data, err := json.MarshalIndent(askOutput{
		Answer:         answer.Answer,
		Sources:        answer.Sources,
		ProcessingTime: answer.ProcessingTime,
		CacheHit:       answer.CacheHit,
		ElapsedMs:      answer.Elapsed.Milliseconds(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal answer: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputAnswer(cmd *cobra.Command, answer *orchestrator.Answer, strategy string) {
	rule := strings.Repeat("=", 70)

	cmd.Println(rule)
	cmd.Println("ANSWER:")
	cmd.Println(rule)
	cmd.Println(answer.Answer)

	if len(answer.Sources) > 0 {
		cmd.Println()
		cmd.Println(rule)
		cmd.Println("SOURCES:")
		cmd.Println(rule)
		for _, source := range answer.Sources {
			cmd.Printf("[%d] %s\n", source.Number, source.Title)
			cmd.Printf("    %s\n", source.URL)
		}
	}

	cmd.Println()
	cmd.Println(rule)
	if answer.CacheHit {
		cmd.Printf("Source: %s cache\n", strategy)
	} else {
		cmd.Printf("Processing time: %.2f seconds\n", answer.ProcessingTime)
	}
	cmd.Printf("Execution time: %.2f seconds\n", answer.Elapsed.Seconds())
	cmd.Println(rule)
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

const (
	summaryPrompt = "Provide a comprehensive summary of this document including key points, main topics, and important conclusions."
	extractPrompt = "Extract key information including: names, dates, amounts, addresses, and any other important data points."
)

var aiCmd = &cobra.Command{
	Use:   "ai",
	Short: "Query file content with Box AI",
}

var aiAskCmd = &cobra.Command{
	Use:   "ask <fileID> <question>",
	Short: "Ask a question about a file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}

		resp, err := client.AskAI(cmd.Context(), args[1], args[0])
		if err != nil {
			return fmt.Errorf("ask failed: %w", err)
		}

		fmt.Println(resp.Answer)
		return nil
	},
}

var aiSummarizeCmd = &cobra.Command{
	Use:   "summarize <fileID>",
	Short: "Generate a summary of a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}

		resp, err := client.GenerateText(cmd.Context(), summaryPrompt, args[0])
		if err != nil {
			return fmt.Errorf("summarize failed: %w", err)
		}

		fmt.Println(resp.Answer)
		return nil
	},
}

var aiExtractCmd = &cobra.Command{
	Use:   "extract <fileID> [prompt]",
	Short: "Extract key information from a file",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		prompt := extractPrompt
		if len(args) == 2 {
			prompt = args[1]
		}

		client, err := newClient()
		if err != nil {
			return err
		}

		resp, err := client.GenerateText(cmd.Context(), prompt, args[0])
		if err != nil {
			return fmt.Errorf("extract failed: %w", err)
		}

		fmt.Println(resp.Answer)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(aiCmd)
	aiCmd.AddCommand(aiAskCmd, aiSummarizeCmd, aiExtractCmd)
}

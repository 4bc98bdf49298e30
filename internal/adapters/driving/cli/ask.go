package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
)

var (
	askDocumentID string
	askExternal   bool
	askJSON       bool
	askEvidence   bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question",
	Long: `Answers a question from an uploaded document, or from Wikipedia and web
search when no document is given.

With --doc the answer comes only from that document. Add --external to fall
back to external sources when the document has nothing relevant. The question
may also be piped on stdin.`,
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askDocumentID, "doc", "d", "", "answer from this document id")
	askCmd.Flags().BoolVarP(&askExternal, "external", "e", false, "fall back to external sources")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	askCmd.Flags().BoolVar(&askEvidence, "evidence", false, "print the evidence chunks")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if queryService == nil {
		return errors.New("query service not configured")
	}

	question := strings.Join(args, " ")
	if strings.TrimSpace(question) == "" {
		text, err := readStdin(cmd)
		if err != nil {
			return errors.New("no question: pass it as an argument or on stdin")
		}
		question = text
	}

	answer, err := queryService.Ask(cmd.Context(), domain.Question{
		Text:          question,
		DocumentID:    askDocumentID,
		AllowExternal: askExternal,
	})
	if err != nil {
		return fmt.Errorf("failed to answer: %w", err)
	}

	if askJSON {
		return outputAnswerJSON(cmd, answer)
	}
	outputAnswer(cmd, answer)
	return nil
}

func outputAnswerJSON(cmd *cobra.Command, answer *domain.VerifiedAnswer) error {
	data, err := json.MarshalIndent(answer, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal answer: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputAnswer(cmd *cobra.Command, answer *domain.VerifiedAnswer) {
	cmd.Println(answer.Text)

	if !answer.Grounded {
		if len(answer.Reasons) > 0 {
			cmd.Println()
			cmd.Println("Flagged:")
			for _, r := range answer.Reasons {
				cmd.Printf("  - %s\n", r)
			}
		}
		return
	}

	if len(answer.Citations) > 0 {
		cmd.Println()
		cmd.Println("Sources:")
		for i, c := range answer.Citations {
			cmd.Printf("  [%d] %s (%s)\n", i+1, c.Title, c.Source)
			if c.URL != "" {
				cmd.Printf("      %s\n", c.URL)
			}
		}
	}

	if askEvidence && len(answer.Evidence) > 0 {
		cmd.Println()
		cmd.Println("Evidence:")
		for _, c := range answer.Evidence {
			cmd.Printf("  [chunk %d] %s\n", c.ID, c.Text)
		}
	}
	if answer.Truncated {
		cmd.Println()
		cmd.Println("Note: the evidence was cut to fit the context budget.")
	}
}

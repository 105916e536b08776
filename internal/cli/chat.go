package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/LeeMinNguyeen/E-com-Automated-Resolution/internal/convstate"
	"github.com/LeeMinNguyeen/E-com-Automated-Resolution/internal/escalate"
	"github.com/LeeMinNguyeen/E-com-Automated-Resolution/internal/llm"
	"github.com/LeeMinNguyeen/E-com-Automated-Resolution/internal/models"
	"github.com/LeeMinNguyeen/E-com-Automated-Resolution/internal/nlu"
	"github.com/LeeMinNguyeen/E-com-Automated-Resolution/internal/orchestrator"
	"github.com/LeeMinNguyeen/E-com-Automated-Resolution/internal/refund"
	"github.com/LeeMinNguyeen/E-com-Automated-Resolution/internal/tools"
)

var chatUserID string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the resolution agent from the terminal",
	Long: `Chat runs the full turn pipeline (NLU triage, tool calling, refunds,
escalations) against the configured LLM and database, reading messages from
stdin. The transcript is persisted exactly as webhook traffic would be.

Examples:
  resolvebot chat
  resolvebot chat --user demo-user-1`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatUserID, "user", "u", "cli-user", "user id for the conversation")
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	logger := cliLogger()
	model, err := llm.NewModel(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init llm: %w", err)
	}

	classifier := nlu.NewHTTPClassifier(cfg.NLUServiceURL, cfg.NLUTimeout, logger)
	refunds := refund.NewService(dbClient, logger)
	escalations := escalate.NewService(dbClient, nil, logger)
	dispatcher := tools.NewDispatcher(logger,
		tools.NewTriageTool(classifier),
		tools.NewOrderLookupTool(refunds),
		tools.NewEligibilityTool(refunds),
		tools.NewProcessRefundTool(refunds),
		tools.NewEscalationTool(escalations),
	)
	agent := orchestrator.New(model, classifier, convstate.NewStore(logger), dispatcher, dbClient, nil, logger)

	fmt.Printf("Chatting as %s (model %s). Type 'exit' to quit.\n\n", chatUserID, model.Model())

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if text == "exit" || text == "quit" {
			break
		}

		turnCtx, cancel := context.WithTimeout(ctx, cfg.TurnTimeout)
		saveMessage(turnCtx, chatUserID, models.RoleUser, models.RoleSystem, text)

		reply, invocations := agent.HandleTurn(turnCtx, chatUserID, text)
		saveMessage(turnCtx, chatUserID, models.RoleSystem, chatUserID, reply)
		cancel()

		if verbose {
			for _, inv := range invocations {
				fmt.Printf("  [tool] %s %v\n", inv.ToolName, inv.Arguments)
			}
		}
		fmt.Printf("\n%s\n\n", reply)
	}

	return scanner.Err()
}

func saveMessage(ctx context.Context, userID, from, to, text string) {
	msg := &models.ChatMessage{
		UserID:    userID,
		From:      from,
		To:        to,
		Text:      text,
		Timestamp: time.Now().UTC(),
	}
	if err := dbClient.InsertChatMessage(ctx, msg); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to save message: %v\n", err)
	}
}

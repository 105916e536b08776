package orchestrator

import (
	"fmt"
	"strings"

	"github.com/LeeMinNguyeen/E-com-Automated-Resolution/internal/models"
)

// policyPrompt encodes the support policy the assistant operates under.
// Kept short: the inference model serves a messaging channel where long
// answers read badly.
const policyPrompt = `You are a customer support assistant for an online grocery and retail platform, chatting with customers over a messaging app. Keep replies brief and friendly.

Rules you must follow:
- To look up an order, you need an order ID in the format ORD followed by 6 digits (e.g. ORD000032). Ask for it if the customer has not provided one.
- Refunds: always check eligibility with check_refund_eligibility before promising anything. Food & Beverage orders (Beverages, Snacks, Dairy, Fruits & Vegetables, Grocery) can never be refunded, due to health and safety policy - explain this politely.
- An eligible refund is the order value minus a 5% shipping fee. State the exact amount and ask the customer to confirm before calling process_refund. Never process a refund without an explicit confirmation.
- Escalate to a human agent with request_human_intervention when the customer is very upset, asks for a human, or you cannot resolve the issue with your tools.
- If the customer changes topic, you may re-classify their message with smart_triage_nlu.
- Never invent order details, amounts, or transaction IDs; only report what the tools return. If a tool reports an error, apologize and tell the customer what you need from them.`

// buildSystemPrompt augments the policy with the turn's NLU signal, the
// conversation-state digest, and an extracted order id hint.
func buildSystemPrompt(nluResult *models.NLUResult, stateSummary, orderID string) string {
	var b strings.Builder
	b.WriteString(policyPrompt)

	if nluResult != nil {
		fmt.Fprintf(&b, "\n\n[NLU ANALYSIS]\nIntent: %s (confidence %.2f)\nSentiment: %s (confidence %.2f)",
			nluResult.Intent, nluResult.IntentConfidence,
			nluResult.Sentiment, nluResult.SentimentConfidence)
	}
	if stateSummary != "" {
		b.WriteString("\n\n")
		b.WriteString(stateSummary)
	}
	if orderID != "" {
		fmt.Fprintf(&b, "\n\nThe customer's message mentions order %s.", orderID)
	}
	return b.String()
}

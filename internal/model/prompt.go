package model

import (
	"strings"

	"github.com/lehuyminh/wallet-assistant/internal/domain"
)

// systemPrompt instructs the model on the command JSON contract. This is a
// soft contract: the model is asked for raw JSON with no surrounding prose,
// but the extractor must still defensively parse whatever comes back.
const systemPrompt = `You are a friendly personal finance assistant managing the user's wallets.

When the user asks to create a wallet, add a transaction, or request statistics,
reply with STRICT JSON only - no comments, no extra text, no Markdown, no code fences.

JSON shapes:
- Create wallet: {"action":"create_wallet","name":"Wallet name","currency":"VND","balance":0}
- Add transaction: {"action":"add_transaction","wallet":"Wallet name","type":"income|expense","amount":12345,"category":"Category","note":"Note","date":"YYYY-MM-DD"}
- Statistics: {"action":"statistic","type":"income|expense|all","period":"today|week|month"}

Rules:
- If the user does not name a wallet, set "wallet" to the most recent wallet.
  If the user has no wallet yet, ask them to create one first.
- Recognize casual phrasing like "chi 30k an sang": infer the amount, the
  category and the note yourself and emit a well-formed add_transaction object.
- For anything that is not one of these operations, answer normally in the
  user's own language - warm, playful, never stiff - and without any JSON.`

// BuildPrompt assembles the full prompt for one conversation turn: system
// instructions, the bounded history window, then the new user message.
func BuildPrompt(history []*domain.Message, userText string) string {
	var b strings.Builder
	b.WriteString(systemPrompt)
	b.WriteString("\n\n")

	if len(history) > 0 {
		b.WriteString("Conversation so far:\n")
		for _, m := range history {
			switch m.Sender {
			case domain.SenderUser:
				b.WriteString("User: ")
			default:
				b.WriteString("Assistant: ")
			}
			b.WriteString(m.Text)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("User message: ")
	b.WriteString(userText)
	return b.String()
}

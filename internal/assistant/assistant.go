package assistant

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/finsight-dev/finsight/internal/logging"
	"github.com/finsight-dev/finsight/internal/model"
)

// Fixed replies used when no model answer is available.
const (
	DisabledMessage = "The AI chat feature is currently disabled because the API key is not configured."
	EmptyQuestion   = "Please ask a question about the GL accounts."
	FailureMessage  = "Sorry, I encountered an error while processing your request. Please check the logs for details."
)

// Completer produces a reply for a pair of prompts. *Client implements it.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Answer is the assistant's reply. Degraded marks a fallback message.
type Answer struct {
	Text     string
	Degraded bool
}

// Assistant answers questions about a snapshot of accounts.
type Assistant struct {
	completer Completer
	enabled   bool
	logger    logrus.FieldLogger
}

// New creates an assistant. A nil completer disables it.
func New(c Completer, logger logrus.FieldLogger) *Assistant {
	if logger == nil {
		logger = logging.Discard()
	}
	enabled := c != nil
	if cl, ok := c.(*Client); ok && !cl.Configured() {
		enabled = false
	}
	return &Assistant{completer: c, enabled: enabled, logger: logger}
}

// Ask answers question using only snapshot. It never fails; problems come
// back as a degraded answer.
func (a *Assistant) Ask(ctx context.Context, question string, snapshot []model.Account) Answer {
	if !a.enabled {
		return Answer{Text: DisabledMessage, Degraded: true}
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return Answer{Text: EmptyQuestion, Degraded: true}
	}

	prompt, err := BuildPrompt(question, snapshot)
	if err != nil {
		logging.LogError(a.logger, "assistant", "prompt", nil, err)
		return Answer{Text: FailureMessage, Degraded: true}
	}

	text, err := a.completer.Complete(ctx, SystemPrompt, prompt)
	if err != nil {
		logging.LogError(a.logger, "assistant", "complete", logrus.Fields{"accounts": len(snapshot)}, err)
		return Answer{Text: FailureMessage, Degraded: true}
	}
	return Answer{Text: text}
}

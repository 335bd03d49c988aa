package assistant

import (
	"encoding/json"
	"fmt"

	"github.com/finsight-dev/finsight/internal/model"
)

// SystemPrompt constrains answers to the supplied account data.
const SystemPrompt = `You are FinSight AI, an assistant for financial auditing and workflow analysis.
Answer questions based ONLY on the JSON data of General Ledger (GL) accounts you are given.
Do not make up information or answer questions outside of this data. If the answer is not in the data, say so clearly.
Keep answers accurate, concise and professional.

Data schema guide:
- "Review Status": the status of the item (Pending, Mismatch, Finalized).
- "Current Stage": the team responsible for the next action (e.g. Checker 1, Checker 2), or Finalized.`

type snapshotRow struct {
	GLAccount     string `json:"GL Account"`
	AccountNumber string `json:"Account Number"`
	Department    string `json:"Department"`
	Category      string `json:"Category"`
	ReviewStatus  string `json:"Review Status"`
	CurrentStage  string `json:"Current Stage"`
	Reviewer      string `json:"Reviewer"`
	SPOC          string `json:"SPOC"`
	MistakeCount  int    `json:"Mistake Count"`
}

// BuildPrompt renders the account snapshot and the question as the user message.
func BuildPrompt(question string, snapshot []model.Account) (string, error) {
	rows := make([]snapshotRow, len(snapshot))
	for i, a := range snapshot {
		rows[i] = snapshotRow{
			GLAccount:     a.AccountName,
			AccountNumber: a.AccountNumber,
			Department:    a.Department,
			Category:      a.MainHead,
			ReviewStatus:  string(a.ReviewStatus),
			CurrentStage:  a.StageLabel(),
			Reviewer:      a.Reviewer,
			SPOC:          a.SPOC,
			MistakeCount:  a.MistakeCount,
		}
	}
	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding snapshot: %w", err)
	}
	return fmt.Sprintf("Here is the GL accounts data:\n%s\n\nUser's question: %q\n\nYour answer:", data, question), nil
}

package dispatch

import (
	"github.com/gagliardetto/solana-go"
)

// txSummary is the logged form of a signed transaction.
type txSummary struct {
	Signatures      []string `json:"signatures"`
	FeePayer        string   `json:"feePayer,omitempty"`
	RecentBlockhash string   `json:"recentBlockhash"`
	Instructions    int      `json:"instructions"`
}

func summarize(txs []*solana.Transaction) []txSummary {
	out := make([]txSummary, 0, len(txs))
	for _, tx := range txs {
		if tx == nil {
			continue
		}
		s := txSummary{
			Signatures:      make([]string, 0, len(tx.Signatures)),
			RecentBlockhash: tx.Message.RecentBlockhash.String(),
			Instructions:    len(tx.Message.Instructions),
		}
		for _, sig := range tx.Signatures {
			s.Signatures = append(s.Signatures, sig.String())
		}
		if len(tx.Message.AccountKeys) > 0 {
			s.FeePayer = tx.Message.AccountKeys[0].String()
		}
		out = append(out, s)
	}
	return out
}

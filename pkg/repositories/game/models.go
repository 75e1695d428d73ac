package game

import (
	"errors"
	"fmt"
	"sort"

	"github.com/fadedpez/blackjack/pkg/entities"
)

func validateSummary(summary *entities.GameSummary) error {
	if summary == nil {
		return errors.New("round summary is required")
	}
	if summary.RoundID == "" {
		return errors.New("round summary has no round ID")
	}
	return nil
}

func errDuplicateRound(roundID string) error {
	return fmt.Errorf("round %s has already been saved", roundID)
}

// sortStatistics orders players by net profit, then by name
func sortStatistics(statsList []*entities.PlayerStatistics) {
	sort.Slice(statsList, func(i, j int) bool {
		a, b := statsList[i].NetProfit().Amount, statsList[j].NetProfit().Amount
		if a != b {
			return a > b
		}
		return statsList[i].PlayerName < statsList[j].PlayerName
	})
}

// ToESRound flattens a round summary into the document indexed in Elasticsearch
func ToESRound(summary *entities.GameSummary) *ESRound {
	doc := &ESRound{
		RoundID:         summary.RoundID,
		StartedAt:       summary.StartedAt,
		CompletedAt:     summary.CompletedAt,
		DealerCards:     cardStrings(summary.DealerCards),
		DealerScore:     summary.DealerValue,
		DealerBusted:    summary.DealerBusted,
		DealerBlackjack: summary.DealerBlackjack,
		PlayerNames:     make([]string, 0, len(summary.Players)),
		Hands:           make([]ESHand, 0, len(summary.Players)),
	}

	wagers := make(map[string]int64)
	returns := make(map[string]int64)
	for _, p := range summary.Payouts.Payouts {
		wagers[p.HandID] += p.Wager.Amount
		returns[p.HandID] += p.TotalReturn.Amount
		doc.Currency = p.Wager.Currency
	}

	for _, player := range summary.Players {
		doc.PlayerNames = append(doc.PlayerNames, player.Name)
		for _, hand := range player.Hands {
			doc.Hands = append(doc.Hands, ESHand{
				PlayerName: player.Name,
				HandID:     hand.HandID,
				Cards:      cardStrings(hand.Cards),
				Score:      hand.Value,
				Result:     hand.Result.String(),
				Bet:        wagers[hand.HandID],
				Returned:   returns[hand.HandID],
				Blackjack:  hand.IsBlackjack,
				Busted:     hand.IsBusted,
				IsSplit:    hand.IsSplit,
				IsDoubled:  hand.IsDoubled,
			})
		}
	}
	return doc
}

func cardStrings(cards []entities.Card) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.String()
	}
	return out
}

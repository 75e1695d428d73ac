package entities

import "time"

// PlayerStatistics represents aggregated blackjack statistics for a player
type PlayerStatistics struct {
	PlayerName    string
	RoundsPlayed  int
	HandsPlayed   int
	Wins          int
	Losses        int
	Pushes        int
	Blackjacks    int
	Surrenders    int
	Busts         int
	Splits        int
	DoubleDowns   int
	TotalBet      Money
	TotalReturned Money
	LastUpdated   time.Time
}

// NetProfit calculates the player's net profit
func (s *PlayerStatistics) NetProfit() Money {
	return Money{Amount: s.TotalReturned.Amount - s.TotalBet.Amount, Currency: s.TotalBet.Currency}
}

// WinRate calculates the player's hand win rate as a percentage
func (s *PlayerStatistics) WinRate() float64 {
	if s.HandsPlayed == 0 {
		return 0.0
	}
	return float64(s.Wins+s.Blackjacks) / float64(s.HandsPlayed) * 100.0
}

// Apply folds one round's summary for this player into the running totals
func (s *PlayerStatistics) Apply(summary PlayerSummary, at time.Time) {
	if s.TotalBet.Currency == "" {
		s.TotalBet.Currency = summary.Wagered.Currency
		s.TotalReturned.Currency = summary.Wagered.Currency
	}

	s.RoundsPlayed++
	for _, hand := range summary.Hands {
		s.HandsPlayed++
		switch hand.Result {
		case ResultWin:
			s.Wins++
		case ResultBlackjack:
			s.Blackjacks++
		case ResultPush:
			s.Pushes++
		case ResultSurrender:
			s.Surrenders++
		default:
			s.Losses++
		}
		if hand.IsBusted {
			s.Busts++
		}
		if hand.IsSplit {
			s.Splits++
		}
		if hand.IsDoubled {
			s.DoubleDowns++
		}
	}
	s.TotalBet.Amount += summary.Wagered.Amount
	s.TotalReturned.Amount += summary.Returned.Amount
	s.LastUpdated = at
}

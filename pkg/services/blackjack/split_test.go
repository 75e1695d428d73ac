package blackjack

import (
	"context"
	"errors"
	"testing"

	"github.com/fadedpez/blackjack/internal/types"
	"github.com/fadedpez/blackjack/pkg/entities"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type mockBankrolls struct {
	mock.Mock
}

func (m *mockBankrolls) GetPlayerBankroll(ctx context.Context, playerName string) (entities.Money, error) {
	args := m.Called(ctx, playerName)
	return args.Get(0).(entities.Money), args.Error(1)
}

type SplitTestSuite struct {
	suite.Suite
	ctx       context.Context
	bankrolls *mockBankrolls
	manager   *SplitHandManager
}

func TestSplitSuite(t *testing.T) {
	suite.Run(t, new(SplitTestSuite))
}

func (s *SplitTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.bankrolls = new(mockBankrolls)
	s.manager = NewSplitHandManager(0, s.bankrolls)
}

func (s *SplitTestSuite) TestDefaults() {
	s.Equal(DefaultMaxSplits, s.manager.MaximumSplits())
	s.Equal(2, NewSplitHandManager(2, s.bankrolls).MaximumSplits())
}

func (s *SplitTestSuite) TestSplitPair() {
	original := handOf(entities.Eight, entities.Eight)
	s.True(s.manager.CanSplit(original))

	first, second, err := s.manager.SplitHand(original)
	s.Require().NoError(err)

	s.Equal(original.ID, first.ID, "The first hand keeps the original ID")
	s.NotEqual(original.ID, second.ID)
	for _, h := range []*Hand{first, second} {
		s.True(h.IsSplitHand())
		s.Equal(1, h.CardCount())
		s.Equal(entities.Eight, h.Cards()[0].Rank)
		s.Equal(original.ID, h.ParentID())
	}

	s.Equal(2, original.CardCount(), "The original hand is not modified")
	s.False(original.IsSplitHand())
}

func (s *SplitTestSuite) TestSplitInvalidHand() {
	tests := []struct {
		name string
		hand *Hand
	}{
		{"not a pair", handOf(entities.King, entities.Queen)},
		{"three cards", handOf(entities.Eight, entities.Eight, entities.Eight)},
		{"one card", handOf(entities.Eight)},
		{"nil hand", nil},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			var before []entities.Card
			if tt.hand != nil {
				before = tt.hand.Cards()
			}

			first, second, err := s.manager.SplitHand(tt.hand)

			s.Nil(first)
			s.Nil(second)
			s.True(types.IsGameError(err, types.ErrInvalidSplit))
			if tt.hand != nil {
				s.Equal(before, tt.hand.Cards())
				s.False(tt.hand.IsSplitHand())
			}
		})
	}
}

func (s *SplitTestSuite) TestIsSplitAcesHand() {
	first, second, err := s.manager.SplitHand(handOf(entities.Ace, entities.Ace))
	s.Require().NoError(err)
	s.True(s.manager.IsSplitAcesHand(first))
	s.True(s.manager.IsSplitAcesHand(second))

	s.False(s.manager.IsSplitAcesHand(handOf(entities.Ace)), "Not a split hand")

	eights, _, err := s.manager.SplitHand(handOf(entities.Eight, entities.Eight))
	s.Require().NoError(err)
	s.False(s.manager.IsSplitAcesHand(eights))

	s.Require().NoError(first.AddCard(card(entities.Five)))
	s.False(s.manager.IsSplitAcesHand(first), "Only while holding the single ace")
}

func (s *SplitTestSuite) TestHasSufficientFundsForSplit() {
	bet := entities.NewBet("alice", "hand-1", entities.Dollars(10), entities.BetTypeStandard)

	s.Run("bankroll covers the bet", func() {
		s.bankrolls.On("GetPlayerBankroll", s.ctx, "alice").Return(entities.Dollars(100), nil).Once()
		ok, err := s.manager.HasSufficientFundsForSplit(s.ctx, "alice", bet)
		s.Require().NoError(err)
		s.True(ok)
	})

	s.Run("bankroll exactly matches", func() {
		s.bankrolls.On("GetPlayerBankroll", s.ctx, "alice").Return(entities.Dollars(10), nil).Once()
		ok, err := s.manager.HasSufficientFundsForSplit(s.ctx, "alice", bet)
		s.Require().NoError(err)
		s.True(ok)
	})

	s.Run("bankroll short", func() {
		s.bankrolls.On("GetPlayerBankroll", s.ctx, "alice").Return(entities.Dollars(9.99), nil).Once()
		ok, err := s.manager.HasSufficientFundsForSplit(s.ctx, "alice", bet)
		s.Require().NoError(err)
		s.False(ok)
	})

	s.Run("lookup fails", func() {
		s.bankrolls.On("GetPlayerBankroll", s.ctx, "alice").Return(entities.Money{}, errors.New("boom")).Once()
		_, err := s.manager.HasSufficientFundsForSplit(s.ctx, "alice", bet)
		s.Error(err)
	})

	s.Run("no active bet", func() {
		ok, err := s.manager.HasSufficientFundsForSplit(s.ctx, "alice", nil)
		s.Require().NoError(err)
		s.False(ok)
	})

	s.bankrolls.AssertExpectations(s.T())
}

func (s *SplitTestSuite) TestCreateSplitBet() {
	original := entities.NewBet("alice", "hand-1", entities.Dollars(10), entities.BetTypeStandard)

	splitBet, err := s.manager.CreateSplitBet(original, "hand-2")
	s.Require().NoError(err)
	s.Equal(entities.BetTypeSplit, splitBet.Type)
	s.Equal(original.Amount, splitBet.Amount)
	s.Equal(original.PlayerName, splitBet.PlayerName)
	s.Equal("hand-2", splitBet.HandID)
	s.NotEqual(original.ID, splitBet.ID)

	_, err = s.manager.CreateSplitBet(splitBet, "hand-3")
	s.True(types.IsGameError(err, types.ErrInvalidOperation), "Only standard bets split")

	settled := entities.NewBet("alice", "hand-1", entities.Dollars(10), entities.BetTypeStandard)
	s.Require().NoError(settled.Settle(entities.Payout{Result: entities.ResultLose}, original.PlacedAt))
	_, err = s.manager.CreateSplitBet(settled, "hand-3")
	s.True(types.IsGameError(err, types.ErrInvalidOperation))
}

func (s *SplitTestSuite) TestSplitCounting() {
	player := NewPlayer("alice")
	player.Hands[0] = handOf(entities.Eight, entities.Eight)
	s.Zero(s.manager.CountSplitHands(player))
	s.True(s.manager.CanSplitAgain(player))

	for i := 0; i < DefaultMaxSplits; i++ {
		first, second, err := s.manager.SplitHand(handOf(entities.Eight, entities.Eight))
		s.Require().NoError(err)
		player.replaceActive(first, second)
	}

	s.Len(player.Hands, DefaultMaxSplits+1)
	s.Equal(DefaultMaxSplits, s.manager.SplitsPerformed(player))
	s.False(s.manager.CanSplitAgain(player))
}

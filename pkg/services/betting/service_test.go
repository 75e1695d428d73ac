package betting

import (
	"context"
	"errors"
	"testing"

	"github.com/coder/quartz"
	"github.com/fadedpez/blackjack/internal/logging"
	"github.com/fadedpez/blackjack/internal/types"
	"github.com/fadedpez/blackjack/pkg/entities"
	walletRepo "github.com/fadedpez/blackjack/pkg/repositories/wallet"
	"github.com/fadedpez/blackjack/pkg/repositories/wallet/mock"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type ServiceTestSuite struct {
	suite.Suite
	ctx     context.Context
	clock   *quartz.Mock
	repo    *walletRepo.MemoryRepository
	service *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceTestSuite))
}

func (s *ServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.clock = quartz.NewMock(s.T())
	s.repo = walletRepo.NewMemoryRepository()
	s.service = NewService(s.repo, DefaultConfig(), WithClock(s.clock), WithLogger(logging.Nop()))
}

func (s *ServiceTestSuite) bankroll(name string, dollars float64) {
	s.Require().NoError(s.service.SetInitialBankroll(s.ctx, name, entities.Dollars(dollars)))
}

func (s *ServiceTestSuite) balance(name string) entities.Money {
	balance, err := s.service.GetPlayerBankroll(s.ctx, name)
	s.Require().NoError(err)
	return balance
}

func (s *ServiceTestSuite) TestCalculatePayout() {
	bet := entities.NewBet("alice", "hand-1", entities.Dollars(10), entities.BetTypeStandard)

	tests := []struct {
		name     string
		result   entities.Result
		winnings entities.Money
		total    entities.Money
	}{
		{"win pays even money", entities.ResultWin, entities.Dollars(10), entities.Dollars(20)},
		{"blackjack pays three to two", entities.ResultBlackjack, entities.Dollars(15), entities.Dollars(25)},
		{"push returns the wager", entities.ResultPush, entities.Dollars(0), entities.Dollars(10)},
		{"loss returns nothing", entities.ResultLose, entities.Dollars(0), entities.Dollars(0)},
		{"surrender returns half", entities.ResultSurrender, entities.Dollars(0), entities.Dollars(5)},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			payout, err := s.service.CalculatePayout(tt.result, bet)
			s.Require().NoError(err)
			s.Equal(tt.winnings, payout.Winnings)
			s.Equal(tt.total, payout.TotalReturn)
			s.Equal(bet.Amount, payout.Wager)
			s.Equal(bet.ID, payout.BetID)
		})
	}
}

func (s *ServiceTestSuite) TestCalculatePayoutCustomMultiplier() {
	cfg := DefaultConfig()
	cfg.BlackjackPayout = 1.2
	service := NewService(s.repo, cfg, WithLogger(logging.Nop()))

	payout, err := service.CalculatePayout(entities.ResultBlackjack,
		entities.NewBet("alice", "hand-1", entities.Dollars(10), entities.BetTypeStandard))
	s.Require().NoError(err)
	s.Equal(entities.Dollars(12), payout.Winnings)
	s.Equal(entities.Dollars(22), payout.TotalReturn)
}

func (s *ServiceTestSuite) TestCalculatePayoutUnknownResult() {
	_, err := s.service.CalculatePayout(entities.Result("MAYBE"),
		entities.NewBet("alice", "hand-1", entities.Dollars(10), entities.BetTypeStandard))
	s.True(types.IsGameError(err, types.ErrInvalidArgument))
}

func (s *ServiceTestSuite) TestValidateBet() {
	s.bankroll("alice", 100)

	tests := []struct {
		name   string
		player string
		amount entities.Money
		code   types.ErrorCode
	}{
		{"zero amount", "alice", entities.Dollars(0), types.ErrInvalidArgument},
		{"negative amount", "alice", entities.Dollars(-10), types.ErrInvalidArgument},
		{"below minimum", "alice", entities.Dollars(1), types.ErrInvalidArgument},
		{"above maximum", "alice", entities.Dollars(501), types.ErrInvalidArgument},
		{"wrong currency", "alice", entities.FromMajor(10, "EUR"), types.ErrCurrencyMismatch},
		{"more than bankroll", "alice", entities.Dollars(150), types.ErrInsufficientFunds},
		{"unknown player", "bob", entities.Dollars(10), types.ErrPlayerNotFound},
		{"empty name", " ", entities.Dollars(10), types.ErrInvalidArgument},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			err := s.service.ValidateBet(s.ctx, tt.player, tt.amount)
			s.True(types.IsGameError(err, tt.code), "expected %s, got %v", tt.code, err)
		})
	}

	s.NoError(s.service.ValidateBet(s.ctx, "alice", entities.Dollars(100)))
}

func (s *ServiceTestSuite) TestPlaceBetDebitsBankroll() {
	s.bankroll("alice", 100)

	bet, err := s.service.PlaceBet(s.ctx, "alice", "hand-1", entities.Dollars(10))
	s.Require().NoError(err)

	s.Equal(entities.BetTypeStandard, bet.Type)
	s.Equal(s.clock.Now(), bet.PlacedAt)
	s.Equal(entities.Dollars(90), s.balance("alice"))
	s.Len(s.service.ActiveBets("alice"), 1)

	txs, err := s.service.Transactions(s.ctx, "alice", 10)
	s.Require().NoError(err)
	s.Require().Len(txs, 2)
	s.Equal(entities.TransactionTypeBet, txs[0].Type)
	s.Equal(entities.Dollars(-10), txs[0].Amount)
	s.Equal(entities.Dollars(90), txs[0].BalanceAfter)
	s.Equal(bet.ID, txs[0].ReferenceID)
	s.Equal(entities.TransactionTypeDeposit, txs[1].Type)
}

func (s *ServiceTestSuite) TestPlaceBetInsufficientFundsLeavesBankroll() {
	s.bankroll("alice", 20)

	bet, err := s.service.PlaceBet(s.ctx, "alice", "hand-1", entities.Dollars(25))

	s.Nil(bet)
	s.True(types.IsGameError(err, types.ErrInsufficientFunds))
	s.Equal(entities.Dollars(20), s.balance("alice"))
	s.Empty(s.service.ActiveBets("alice"))
}

func (s *ServiceTestSuite) TestPlaceBetTwiceOnSameHand() {
	s.bankroll("alice", 100)

	_, err := s.service.PlaceBet(s.ctx, "alice", "hand-1", entities.Dollars(10))
	s.Require().NoError(err)

	_, err = s.service.PlaceBet(s.ctx, "alice", "hand-1", entities.Dollars(10))
	s.True(types.IsGameError(err, types.ErrInvalidOperation))
	s.Equal(entities.Dollars(90), s.balance("alice"))
}

func (s *ServiceTestSuite) TestPlaceAdditionalBet() {
	s.bankroll("alice", 100)
	original, err := s.service.PlaceBet(s.ctx, "alice", "hand-1", entities.Dollars(10))
	s.Require().NoError(err)

	s.Run("split bet on a new hand", func() {
		split := entities.NewBet("alice", "hand-2", original.Amount, entities.BetTypeSplit)
		s.Require().NoError(s.service.PlaceAdditionalBet(s.ctx, split))
		s.Equal(entities.Dollars(80), s.balance("alice"))
	})

	s.Run("split bet on a hand that already has one", func() {
		split := entities.NewBet("alice", "hand-1", original.Amount, entities.BetTypeSplit)
		err := s.service.PlaceAdditionalBet(s.ctx, split)
		s.True(types.IsGameError(err, types.ErrInvalidOperation))
	})

	s.Run("double down", func() {
		double := entities.NewBet("alice", "hand-1", original.Amount, entities.BetTypeDoubleDown)
		s.Require().NoError(s.service.PlaceAdditionalBet(s.ctx, double))
		s.Equal(entities.Dollars(70), s.balance("alice"))
		s.Len(s.service.BetsOnHand("alice", "hand-1"), 2)
	})

	s.Run("double down twice", func() {
		double := entities.NewBet("alice", "hand-1", original.Amount, entities.BetTypeDoubleDown)
		err := s.service.PlaceAdditionalBet(s.ctx, double)
		s.True(types.IsGameError(err, types.ErrInvalidOperation))
	})

	s.Run("double down without a bet", func() {
		double := entities.NewBet("alice", "hand-9", original.Amount, entities.BetTypeDoubleDown)
		err := s.service.PlaceAdditionalBet(s.ctx, double)
		s.True(types.IsGameError(err, types.ErrInvalidOperation))
	})

	s.Run("standard bets go through PlaceBet", func() {
		err := s.service.PlaceAdditionalBet(s.ctx, entities.NewBet("alice", "hand-3", original.Amount, entities.BetTypeStandard))
		s.True(types.IsGameError(err, types.ErrInvalidArgument))
	})

	s.Run("not enough left to cover", func() {
		split := entities.NewBet("alice", "hand-4", entities.Dollars(75), entities.BetTypeSplit)
		err := s.service.PlaceAdditionalBet(s.ctx, split)
		s.True(types.IsGameError(err, types.ErrInsufficientFunds))
		s.Equal(entities.Dollars(70), s.balance("alice"))
	})
}

func (s *ServiceTestSuite) TestProcessPayouts() {
	s.bankroll("alice", 100)
	s.bankroll("bob", 100)

	_, err := s.service.PlaceBet(s.ctx, "alice", "a-1", entities.Dollars(10))
	s.Require().NoError(err)
	s.Require().NoError(s.service.PlaceAdditionalBet(s.ctx,
		entities.NewBet("alice", "a-2", entities.Dollars(10), entities.BetTypeSplit)))
	_, err = s.service.PlaceBet(s.ctx, "bob", "b-1", entities.Dollars(20))
	s.Require().NoError(err)

	outcomes := []entities.HandOutcome{
		{PlayerName: "alice", HandID: "a-1", Result: entities.ResultWin},
		{PlayerName: "alice", HandID: "a-2", Result: entities.ResultLose},
		{PlayerName: "bob", HandID: "b-1", Result: entities.ResultBlackjack},
	}

	summary, err := s.service.ProcessPayouts(s.ctx, outcomes)
	s.Require().NoError(err)

	s.Equal(1, summary.Wins)
	s.Equal(1, summary.Losses)
	s.Equal(1, summary.Blackjacks)
	s.Equal(0, summary.Pushes)
	s.Equal(entities.Dollars(40), summary.TotalWagered)
	s.Equal(entities.Dollars(40), summary.TotalWinnings)
	s.Equal(entities.Dollars(70), summary.TotalReturned)
	s.Len(summary.Payouts, 3)

	// alice: 100 - 20 + 20, bob: 100 - 20 + 50
	s.Equal(entities.Dollars(100), s.balance("alice"))
	s.Equal(entities.Dollars(130), s.balance("bob"))
	s.Empty(s.service.ActiveBets("alice"))

	for _, bet := range s.service.BetsOnHand("bob", "b-1") {
		s.True(bet.IsSettled())
		s.Equal(entities.ResultBlackjack, bet.Result())
		s.Equal(s.clock.Now(), bet.SettledAt())
	}

	s.Run("settles exactly once", func() {
		again, err := s.service.ProcessPayouts(s.ctx, outcomes)
		s.Require().NoError(err)
		s.Empty(again.Payouts)
		s.Equal(0, again.Wins)
		s.Equal(entities.Dollars(130), s.balance("bob"))
	})
}

func (s *ServiceTestSuite) TestProcessPayoutsDoubledHand() {
	s.bankroll("alice", 100)
	_, err := s.service.PlaceBet(s.ctx, "alice", "a-1", entities.Dollars(10))
	s.Require().NoError(err)
	s.Require().NoError(s.service.PlaceAdditionalBet(s.ctx,
		entities.NewBet("alice", "a-1", entities.Dollars(10), entities.BetTypeDoubleDown)))

	summary, err := s.service.ProcessPayouts(s.ctx, []entities.HandOutcome{
		{PlayerName: "alice", HandID: "a-1", Result: entities.ResultWin},
	})
	s.Require().NoError(err)

	s.Equal(1, summary.Wins, "Outcomes are counted per hand")
	s.Len(summary.Payouts, 2)
	s.Equal(entities.Dollars(120), s.balance("alice"))
}

func (s *ServiceTestSuite) TestUpdateBankrollFloorsAtZero() {
	s.bankroll("alice", 30)

	balance, err := s.service.UpdateBankroll(s.ctx, "alice", entities.Dollars(-50))
	s.Require().NoError(err)
	s.Equal(entities.Dollars(0), balance)
	s.Equal(entities.Dollars(0), s.balance("alice"))

	balance, err = s.service.UpdateBankroll(s.ctx, "alice", entities.Dollars(12.5))
	s.Require().NoError(err)
	s.Equal(entities.Dollars(12.5), balance)

	_, err = s.service.UpdateBankroll(s.ctx, "alice", entities.FromMajor(1, "EUR"))
	s.True(types.IsGameError(err, types.ErrCurrencyMismatch))
}

func (s *ServiceTestSuite) TestSetInitialBankrollLimits() {
	err := s.service.SetInitialBankroll(s.ctx, "alice", entities.Dollars(200000))
	s.True(types.IsGameError(err, types.ErrInvalidArgument))

	err = s.service.SetInitialBankroll(s.ctx, "alice", entities.Dollars(-1))
	s.True(types.IsGameError(err, types.ErrInvalidArgument))

	err = s.service.SetInitialBankroll(s.ctx, "", entities.Dollars(10))
	s.True(types.IsGameError(err, types.ErrInvalidArgument))

	_, err = s.service.GetPlayerBankroll(s.ctx, "alice")
	s.True(types.IsGameError(err, types.ErrPlayerNotFound))
}

func (s *ServiceTestSuite) TestEnsureBankroll() {
	balance, err := s.service.EnsureBankroll(s.ctx, "carol")
	s.Require().NoError(err)
	s.Equal(entities.Dollars(1000), balance)

	_, err = s.service.UpdateBankroll(s.ctx, "carol", entities.Dollars(-100))
	s.Require().NoError(err)

	balance, err = s.service.EnsureBankroll(s.ctx, "carol")
	s.Require().NoError(err)
	s.Equal(entities.Dollars(900), balance, "An existing bankroll is kept")
}

func (s *ServiceTestSuite) TestClearSettledBets() {
	s.bankroll("alice", 100)
	_, err := s.service.PlaceBet(s.ctx, "alice", "a-1", entities.Dollars(10))
	s.Require().NoError(err)
	_, err = s.service.PlaceBet(s.ctx, "alice", "a-2", entities.Dollars(10))
	s.Require().NoError(err)

	_, err = s.service.ProcessPayouts(s.ctx, []entities.HandOutcome{
		{PlayerName: "alice", HandID: "a-1", Result: entities.ResultPush},
	})
	s.Require().NoError(err)

	s.service.ClearSettledBets("alice")

	s.Empty(s.service.BetsOnHand("alice", "a-1"))
	s.Len(s.service.BetsOnHand("alice", "a-2"), 1)
	s.Len(s.service.ActiveBets("alice"), 1)
}

type RepositoryFailureTestSuite struct {
	suite.Suite
	ctx     context.Context
	repo    *mock.MockRepository
	service *Service
}

func TestRepositoryFailureSuite(t *testing.T) {
	suite.Run(t, new(RepositoryFailureTestSuite))
}

func (s *RepositoryFailureTestSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.ctx = context.Background()
	s.repo = mock.NewMockRepository(ctrl)
	s.service = NewService(s.repo, DefaultConfig(), WithClock(quartz.NewMock(s.T())), WithLogger(logging.Nop()))
}

func (s *RepositoryFailureTestSuite) TestGetBankrollFailure() {
	s.repo.EXPECT().GetBankroll(gomock.Any(), "alice").Return(nil, errors.New("disk on fire"))

	_, err := s.service.GetPlayerBankroll(s.ctx, "alice")

	s.True(types.IsGameError(err, types.ErrDatabaseError))
	s.ErrorContains(err, "disk on fire")
}

func (s *RepositoryFailureTestSuite) TestPlaceBetSaveFailureKeepsNoBet() {
	bankroll := &entities.Bankroll{PlayerName: "alice", Balance: entities.Dollars(100)}
	s.repo.EXPECT().GetBankroll(gomock.Any(), "alice").Return(bankroll, nil).Times(2)
	s.repo.EXPECT().ApplyTransaction(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("locked"))

	bet, err := s.service.PlaceBet(s.ctx, "alice", "hand-1", entities.Dollars(10))

	s.Nil(bet)
	s.True(types.IsGameError(err, types.ErrDatabaseError))
	s.Empty(s.service.ActiveBets("alice"))
	s.Equal(entities.Dollars(100), bankroll.Balance)
}

// storedBankroll backs the mock with one bankroll that only changes when
// ApplyTransaction succeeds. failNext makes the next write fail.
func (s *RepositoryFailureTestSuite) storedBankroll(balance entities.Money) (*entities.Bankroll, *bool) {
	stored := &entities.Bankroll{PlayerName: "alice", Balance: balance}
	failNext := false

	s.repo.EXPECT().GetBankroll(gomock.Any(), "alice").DoAndReturn(
		func(context.Context, string) (*entities.Bankroll, error) {
			bankrollCopy := *stored
			return &bankrollCopy, nil
		}).AnyTimes()
	s.repo.EXPECT().ApplyTransaction(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, b *entities.Bankroll, tx *entities.Transaction) error {
			if failNext {
				failNext = false
				return errors.New("disk full")
			}
			s.Equal(b.Balance, tx.BalanceAfter)
			*stored = *b
			return nil
		}).AnyTimes()

	return stored, &failNext
}

func (s *RepositoryFailureTestSuite) TestPayoutRetryAfterFailedWriteCreditsOnce() {
	stored, failNext := s.storedBankroll(entities.Dollars(100))

	_, err := s.service.PlaceBet(s.ctx, "alice", "hand-1", entities.Dollars(10))
	s.Require().NoError(err)
	s.Equal(entities.Dollars(90), stored.Balance)

	outcomes := []entities.HandOutcome{{PlayerName: "alice", HandID: "hand-1", Result: entities.ResultWin}}

	*failNext = true
	_, err = s.service.ProcessPayouts(s.ctx, outcomes)
	s.True(types.IsGameError(err, types.ErrDatabaseError))
	s.Equal(entities.Dollars(90), stored.Balance)
	s.Len(s.service.ActiveBets("alice"), 1)

	summary, err := s.service.ProcessPayouts(s.ctx, outcomes)
	s.Require().NoError(err)
	s.Equal(1, summary.Wins)
	s.Equal(entities.Dollars(110), stored.Balance)
	s.Empty(s.service.ActiveBets("alice"))

	again, err := s.service.ProcessPayouts(s.ctx, outcomes)
	s.Require().NoError(err)
	s.Empty(again.Payouts)
	s.Equal(entities.Dollars(110), stored.Balance)
}

func (s *RepositoryFailureTestSuite) TestAdditionalBetFailedWriteLeavesNoBet() {
	stored, failNext := s.storedBankroll(entities.Dollars(100))

	_, err := s.service.PlaceBet(s.ctx, "alice", "hand-1", entities.Dollars(10))
	s.Require().NoError(err)

	*failNext = true
	err = s.service.PlaceAdditionalBet(s.ctx, entities.NewBet("alice", "hand-1", entities.Dollars(10), entities.BetTypeDoubleDown))
	s.True(types.IsGameError(err, types.ErrDatabaseError))
	s.Equal(entities.Dollars(90), stored.Balance)
	s.Len(s.service.BetsOnHand("alice", "hand-1"), 1)
}

func (s *RepositoryFailureTestSuite) TestEnsureBankrollCreatesOnNotFound() {
	gomock.InOrder(
		s.repo.EXPECT().GetBankroll(gomock.Any(), "dave").Return(nil, walletRepo.ErrBankrollNotFound),
		s.repo.EXPECT().ApplyTransaction(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, b *entities.Bankroll, tx *entities.Transaction) error {
				s.Equal("dave", b.PlayerName)
				s.Equal(entities.Dollars(1000), b.Balance)
				s.Equal(entities.TransactionTypeDeposit, tx.Type)
				return nil
			}),
	)

	balance, err := s.service.EnsureBankroll(s.ctx, "dave")
	s.Require().NoError(err)
	s.Equal(entities.Dollars(1000), balance)
}

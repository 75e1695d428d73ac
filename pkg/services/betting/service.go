package betting

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/coder/quartz"
	"github.com/fadedpez/blackjack/internal/logging"
	"github.com/fadedpez/blackjack/internal/types"
	"github.com/fadedpez/blackjack/pkg/entities"
	walletRepo "github.com/fadedpez/blackjack/pkg/repositories/wallet"
	"github.com/google/uuid"
)

// Config holds the table limits the service enforces
type Config struct {
	Currency        string
	MinBet          entities.Money
	MaxBet          entities.Money
	DefaultBankroll entities.Money
	MinBankroll     entities.Money
	MaxBankroll     entities.Money
	BlackjackPayout float64
}

// DefaultConfig returns the limits used when nothing is configured
func DefaultConfig() Config {
	return Config{
		Currency:        entities.DefaultCurrency,
		MinBet:          entities.Dollars(5),
		MaxBet:          entities.Dollars(500),
		DefaultBankroll: entities.Dollars(1000),
		MinBankroll:     entities.Dollars(0),
		MaxBankroll:     entities.Dollars(100000),
		BlackjackPayout: 1.5,
	}
}

// Option configures a Service
type Option func(*Service)

// WithClock sets the clock used to stamp bets and transactions
func WithClock(clock quartz.Clock) Option {
	return func(s *Service) {
		s.clock = clock
	}
}

// WithLogger sets the service's logger
func WithLogger(logger *logging.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// Service owns bankrolls and the bets riding on hands. Bankroll mutation is
// serialised by a single lock.
type Service struct {
	mu     sync.Mutex
	repo   walletRepo.Repository
	cfg    Config
	clock  quartz.Clock
	logger *logging.Logger

	// player -> hand ID -> bets on that hand, in placement order
	bets map[string]map[string][]*entities.Bet
}

// NewService creates a new betting service
func NewService(repo walletRepo.Repository, cfg Config, opts ...Option) *Service {
	if cfg.Currency == "" {
		cfg.Currency = entities.DefaultCurrency
	}
	if cfg.BlackjackPayout <= 0 {
		cfg.BlackjackPayout = 1.5
	}

	s := &Service{
		repo: repo,
		cfg:  cfg,
		bets: make(map[string]map[string][]*entities.Bet),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.clock == nil {
		s.clock = quartz.NewReal()
	}
	if s.logger == nil {
		s.logger = logging.Default
	}
	return s
}

// Config returns the limits the service enforces
func (s *Service) Config() Config {
	return s.cfg
}

// ValidateBet checks an opening wager against the table limits and the
// player's bankroll without placing it
func (s *Service) ValidateBet(ctx context.Context, playerName string, amount entities.Money) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.validateBet(ctx, playerName, amount)
}

func (s *Service) validateBet(ctx context.Context, playerName string, amount entities.Money) error {
	if err := validateName(playerName); err != nil {
		return err
	}
	if !amount.IsPositive() {
		return types.Errorf(types.ErrInvalidArgument, "bet amount must be positive, got %s", amount)
	}
	if amount.Currency != s.cfg.Currency {
		return types.Errorf(types.ErrCurrencyMismatch, "table plays in %s, bet is in %s", s.cfg.Currency, amount.Currency)
	}
	if amount.Amount < s.cfg.MinBet.Amount {
		return types.Errorf(types.ErrInvalidArgument, "bet %s is below the table minimum of %s", amount, s.cfg.MinBet)
	}
	if amount.Amount > s.cfg.MaxBet.Amount {
		return types.Errorf(types.ErrInvalidArgument, "bet %s is above the table maximum of %s", amount, s.cfg.MaxBet)
	}
	return s.checkFunds(ctx, playerName, amount)
}

// checkFunds fails with INSUFFICIENT_FUNDS unless the bankroll covers amount
func (s *Service) checkFunds(ctx context.Context, playerName string, amount entities.Money) error {
	bankroll, err := s.getBankroll(ctx, playerName)
	if err != nil {
		return err
	}
	cmp, err := bankroll.Balance.Cmp(amount)
	if err != nil {
		return err
	}
	if cmp < 0 {
		return types.Errorf(types.ErrInsufficientFunds, "%s has %s, needs %s", playerName, bankroll.Balance, amount)
	}
	return nil
}

// PlaceBet validates and places an opening wager on a hand, debiting the
// bankroll. Nothing is debited when validation fails.
func (s *Service) PlaceBet(ctx context.Context, playerName, handID string, amount entities.Money) (*entities.Bet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if handID == "" {
		return nil, types.NewGameError(types.ErrInvalidArgument, "hand ID is required")
	}
	if err := s.validateBet(ctx, playerName, amount); err != nil {
		return nil, err
	}
	for _, existing := range s.bets[playerName][handID] {
		if existing.IsActive() {
			return nil, types.Errorf(types.ErrInvalidOperation, "%s already has a bet on hand %s", playerName, handID)
		}
	}

	bet := entities.NewBet(playerName, handID, amount, entities.BetTypeStandard)
	if err := s.place(ctx, bet); err != nil {
		return nil, err
	}
	return bet, nil
}

// PlaceAdditionalBet places a split or double-down wager. Table limits do not
// apply; the bankroll must still cover it.
func (s *Service) PlaceAdditionalBet(ctx context.Context, bet *entities.Bet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if bet == nil {
		return types.NewGameError(types.ErrInvalidArgument, "bet is required")
	}
	if !bet.Amount.IsPositive() {
		return types.Errorf(types.ErrInvalidArgument, "bet amount must be positive, got %s", bet.Amount)
	}
	if bet.IsSettled() {
		return types.Errorf(types.ErrInvalidOperation, "bet %s is already settled", bet.ID)
	}

	active := 0
	for _, existing := range s.bets[bet.PlayerName][bet.HandID] {
		if existing.IsActive() {
			active++
		}
	}
	switch bet.Type {
	case entities.BetTypeDoubleDown:
		if active == 0 {
			return types.Errorf(types.ErrInvalidOperation, "hand %s has no bet to double", bet.HandID)
		}
		if active > 1 {
			return types.Errorf(types.ErrInvalidOperation, "hand %s is already doubled", bet.HandID)
		}
	case entities.BetTypeSplit:
		if active > 0 {
			return types.Errorf(types.ErrInvalidOperation, "hand %s already has a bet", bet.HandID)
		}
	default:
		return types.Errorf(types.ErrInvalidArgument, "%s bets are placed with PlaceBet", bet.Type)
	}

	if err := s.checkFunds(ctx, bet.PlayerName, bet.Amount); err != nil {
		return err
	}
	return s.place(ctx, bet)
}

func (s *Service) place(ctx context.Context, bet *entities.Bet) error {
	bet.PlacedAt = s.clock.Now()
	balance, err := s.adjust(ctx, bet.PlayerName, bet.Amount.Neg(), entities.TransactionTypeBet, bet.ID,
		strings.ToLower(string(bet.Type))+" bet on hand "+bet.HandID)
	if err != nil {
		return err
	}

	hands, ok := s.bets[bet.PlayerName]
	if !ok {
		hands = make(map[string][]*entities.Bet)
		s.bets[bet.PlayerName] = hands
	}
	hands[bet.HandID] = append(hands[bet.HandID], bet)

	s.logger.Debug("%s placed %s bet of %s on hand %s, bankroll now %s", bet.PlayerName, bet.Type, bet.Amount, bet.HandID, balance)
	return nil
}

// CalculatePayout works out what a bet returns for result
func (s *Service) CalculatePayout(result entities.Result, bet *entities.Bet) (entities.Payout, error) {
	if bet == nil {
		return entities.Payout{}, types.NewGameError(types.ErrInvalidArgument, "bet is required")
	}

	payout := entities.Payout{
		BetID:      bet.ID,
		PlayerName: bet.PlayerName,
		HandID:     bet.HandID,
		BetType:    bet.Type,
		Result:     result,
		Wager:      bet.Amount,
		Winnings:   entities.Zero(bet.Amount.Currency),
	}

	switch result {
	case entities.ResultWin:
		payout.Winnings = bet.Amount
	case entities.ResultBlackjack:
		payout.Winnings = bet.Amount.MulFloat(s.cfg.BlackjackPayout)
	case entities.ResultPush:
		payout.TotalReturn = bet.Amount
		return payout, nil
	case entities.ResultSurrender:
		payout.TotalReturn = entities.NewMoney(bet.Amount.Amount/2, bet.Amount.Currency)
		return payout, nil
	case entities.ResultLose:
		payout.TotalReturn = entities.Zero(bet.Amount.Currency)
		return payout, nil
	default:
		return entities.Payout{}, types.Errorf(types.ErrInvalidArgument, "unknown result %q", result)
	}

	total, err := bet.Amount.Add(payout.Winnings)
	if err != nil {
		return entities.Payout{}, err
	}
	payout.TotalReturn = total
	return payout, nil
}

// ProcessPayouts settles every active bet on the given hands and credits the
// bankrolls. Bets already settled are skipped, so each pays exactly once.
func (s *Service) ProcessPayouts(ctx context.Context, outcomes []entities.HandOutcome) (*entities.PayoutSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	summary := &entities.PayoutSummary{
		TotalWagered:  entities.Zero(s.cfg.Currency),
		TotalWinnings: entities.Zero(s.cfg.Currency),
		TotalReturned: entities.Zero(s.cfg.Currency),
	}

	// Work out every payout before moving any money
	type settlement struct {
		bet    *entities.Bet
		payout entities.Payout
	}
	var settlements []settlement
	counted := make([]entities.Result, 0, len(outcomes))
	for _, outcome := range outcomes {
		found := false
		for _, bet := range s.bets[outcome.PlayerName][outcome.HandID] {
			if !bet.IsActive() {
				continue
			}
			payout, err := s.CalculatePayout(outcome.Result, bet)
			if err != nil {
				return nil, err
			}
			settlements = append(settlements, settlement{bet: bet, payout: payout})
			found = true
		}
		if found {
			counted = append(counted, outcome.Result)
		}
	}

	now := s.clock.Now()
	for _, st := range settlements {
		if st.payout.TotalReturn.IsPositive() {
			_, err := s.adjust(ctx, st.bet.PlayerName, st.payout.TotalReturn, entities.TransactionTypePayout, st.bet.ID,
				strings.ToLower(string(st.payout.Result))+" on hand "+st.bet.HandID)
			if err != nil {
				return nil, err
			}
		}
		if err := st.bet.Settle(st.payout, now); err != nil {
			return nil, err
		}

		summary.TotalWagered.Amount += st.payout.Wager.Amount
		summary.TotalWinnings.Amount += st.payout.Winnings.Amount
		summary.TotalReturned.Amount += st.payout.TotalReturn.Amount
		summary.Payouts = append(summary.Payouts, st.payout)
	}

	for _, result := range counted {
		switch result {
		case entities.ResultWin:
			summary.Wins++
		case entities.ResultLose:
			summary.Losses++
		case entities.ResultPush:
			summary.Pushes++
		case entities.ResultBlackjack:
			summary.Blackjacks++
		case entities.ResultSurrender:
			summary.Surrenders++
		}
	}

	s.logger.Info("Settled %d bets: wagered %s, returned %s", len(settlements), summary.TotalWagered, summary.TotalReturned)
	return summary, nil
}

// UpdateBankroll applies delta to a bankroll. A debit larger than the balance
// leaves the bankroll at zero.
func (s *Service) UpdateBankroll(ctx context.Context, playerName string, delta entities.Money) (entities.Money, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := validateName(playerName); err != nil {
		return entities.Money{}, err
	}
	if delta.Currency != s.cfg.Currency {
		return entities.Money{}, types.Errorf(types.ErrCurrencyMismatch, "table plays in %s, adjustment is in %s", s.cfg.Currency, delta.Currency)
	}
	return s.adjust(ctx, playerName, delta, entities.TransactionTypeAdjustment, "", "manual adjustment")
}

// GetPlayerBankroll returns the player's current balance
func (s *Service) GetPlayerBankroll(ctx context.Context, playerName string) (entities.Money, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bankroll, err := s.getBankroll(ctx, playerName)
	if err != nil {
		return entities.Money{}, err
	}
	return bankroll.Balance, nil
}

// SetInitialBankroll sets a player's balance, validated against the bankroll limits
func (s *Service) SetInitialBankroll(ctx context.Context, playerName string, amount entities.Money) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := validateName(playerName); err != nil {
		return err
	}
	if amount.Currency != s.cfg.Currency {
		return types.Errorf(types.ErrCurrencyMismatch, "table plays in %s, bankroll is in %s", s.cfg.Currency, amount.Currency)
	}
	if amount.IsNegative() || amount.Amount < s.cfg.MinBankroll.Amount || amount.Amount > s.cfg.MaxBankroll.Amount {
		return types.Errorf(types.ErrInvalidArgument, "bankroll must be between %s and %s, got %s", s.cfg.MinBankroll, s.cfg.MaxBankroll, amount)
	}

	return s.deposit(ctx, playerName, amount, "initial bankroll")
}

// EnsureBankroll returns the player's balance, opening a bankroll with the
// default amount the first time a player is seen
func (s *Service) EnsureBankroll(ctx context.Context, playerName string) (entities.Money, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := validateName(playerName); err != nil {
		return entities.Money{}, err
	}

	bankroll, err := s.getBankroll(ctx, playerName)
	if err == nil {
		return bankroll.Balance, nil
	}
	if !types.IsGameError(err, types.ErrPlayerNotFound) {
		return entities.Money{}, err
	}

	if err := s.deposit(ctx, playerName, s.cfg.DefaultBankroll, "default bankroll"); err != nil {
		return entities.Money{}, err
	}
	s.logger.Info("Opened bankroll for %s with %s", playerName, s.cfg.DefaultBankroll)
	return s.cfg.DefaultBankroll, nil
}

// ActiveBets returns the player's unsettled bets
func (s *Service) ActiveBets(playerName string) []*entities.Bet {
	s.mu.Lock()
	defer s.mu.Unlock()

	var active []*entities.Bet
	for _, bets := range s.bets[playerName] {
		for _, bet := range bets {
			if bet.IsActive() {
				active = append(active, bet)
			}
		}
	}
	return active
}

// BetsOnHand returns every bet placed on a hand, settled or not
func (s *Service) BetsOnHand(playerName, handID string) []*entities.Bet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*entities.Bet(nil), s.bets[playerName][handID]...)
}

// ClearSettledBets forgets the player's settled bets
func (s *Service) ClearSettledBets(playerName string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	hands := s.bets[playerName]
	for handID, bets := range hands {
		kept := bets[:0]
		for _, bet := range bets {
			if bet.IsActive() {
				kept = append(kept, bet)
			}
		}
		if len(kept) == 0 {
			delete(hands, handID)
			continue
		}
		hands[handID] = kept
	}
	if len(hands) == 0 {
		delete(s.bets, playerName)
	}
}

// Transactions returns the player's most recent bankroll movements, newest first
func (s *Service) Transactions(ctx context.Context, playerName string, limit int) ([]*entities.Transaction, error) {
	txs, err := s.repo.GetTransactions(ctx, playerName, limit)
	if err != nil {
		return nil, types.WrapError(types.ErrDatabaseError, "failed to load transactions", err)
	}
	return txs, nil
}

func (s *Service) getBankroll(ctx context.Context, playerName string) (*entities.Bankroll, error) {
	bankroll, err := s.repo.GetBankroll(ctx, playerName)
	if err != nil {
		if errors.Is(err, walletRepo.ErrBankrollNotFound) {
			return nil, types.Errorf(types.ErrPlayerNotFound, "no bankroll for %s", playerName)
		}
		return nil, types.WrapError(types.ErrDatabaseError, "failed to load bankroll", err)
	}
	return bankroll, nil
}

func (s *Service) deposit(ctx context.Context, playerName string, amount entities.Money, description string) error {
	bankroll := &entities.Bankroll{
		PlayerName:  playerName,
		Balance:     amount,
		LastUpdated: s.clock.Now(),
	}
	return s.apply(ctx, bankroll, &entities.Transaction{
		PlayerName:   playerName,
		Amount:       amount,
		Type:         entities.TransactionTypeDeposit,
		Description:  description,
		BalanceAfter: amount,
	})
}

// adjust moves delta into a bankroll, flooring at zero, and records the
// transaction alongside it. Nothing changes when the write fails. Callers
// hold s.mu.
func (s *Service) adjust(ctx context.Context, playerName string, delta entities.Money, txType entities.TransactionType, referenceID, description string) (entities.Money, error) {
	current, err := s.getBankroll(ctx, playerName)
	if err != nil {
		return entities.Money{}, err
	}

	balance, err := current.Balance.Add(delta)
	if err != nil {
		return entities.Money{}, err
	}
	if balance.IsNegative() {
		s.logger.Warn("Debit of %s exceeds %s's balance of %s, flooring at zero", delta.Neg(), playerName, current.Balance)
		balance = entities.Zero(balance.Currency)
	}

	bankroll := *current
	bankroll.Balance = balance
	bankroll.LastUpdated = s.clock.Now()
	err = s.apply(ctx, &bankroll, &entities.Transaction{
		PlayerName:   playerName,
		Amount:       delta,
		Type:         txType,
		ReferenceID:  referenceID,
		Description:  description,
		BalanceAfter: balance,
	})
	if err != nil {
		return entities.Money{}, err
	}
	return balance, nil
}

func (s *Service) apply(ctx context.Context, bankroll *entities.Bankroll, tx *entities.Transaction) error {
	tx.ID = uuid.New().String()
	tx.Timestamp = s.clock.Now()
	if err := s.repo.ApplyTransaction(ctx, bankroll, tx); err != nil {
		return types.WrapError(types.ErrDatabaseError, "failed to update bankroll", err)
	}
	return nil
}

func validateName(playerName string) error {
	if strings.TrimSpace(playerName) == "" {
		return types.NewGameError(types.ErrInvalidArgument, "player name cannot be empty")
	}
	return nil
}

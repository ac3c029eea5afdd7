package service

import (
	"context"
	"fmt"
	"time"

	"github.com/skillbridge/skillbridge-server/internal/models"
)

// getOrCreateWallet returns the user's wallet, creating it with the starting
// balance and a welcome bonus transaction on first use.
func (s *DefaultService) getOrCreateWallet(ctx context.Context, userID string) (*models.Wallet, error) {
	bonus := &models.Transaction{
		Type:        models.TransactionBonus,
		Description: "Welcome bonus credits",
	}

	wallet, err := s.repo.GetOrCreateWallet(ctx, userID, s.credits.StartingBalance, bonus)
	if err != nil {
		return nil, fmt.Errorf("error getting wallet: %w", err)
	}

	return wallet, nil
}

// earn credits the user's wallet and appends the matching ledger entry. The
// two writes are one atomic unit inside the repository.
func (s *DefaultService) earn(
	ctx context.Context,
	userID string,
	amount int,
	kind, description string,
	meetingID, otherUserID *string,
) (*models.Transaction, int, error) {
	if amount <= 0 {
		return nil, 0, models.ErrInvalidAmount
	}

	if _, err := s.getOrCreateWallet(ctx, userID); err != nil {
		return nil, 0, err
	}

	txn := &models.Transaction{
		UserID:      userID,
		Type:        kind,
		Amount:      amount,
		Description: description,
		MeetingID:   meetingID,
		OtherUserID: otherUserID,
	}

	balance, err := s.repo.ApplyTransaction(ctx, txn)
	if err != nil {
		return nil, 0, err
	}

	return txn, balance, nil
}

// spend debits the user's wallet. The balance-sufficiency check and the
// debit are one conditional write, so a shortfall fails with
// InsufficientCreditsError and no state change.
func (s *DefaultService) spend(
	ctx context.Context,
	userID string,
	amount int,
	kind, description string,
	meetingID, otherUserID *string,
) (*models.Transaction, int, error) {
	if amount <= 0 {
		return nil, 0, models.ErrInvalidAmount
	}

	if _, err := s.getOrCreateWallet(ctx, userID); err != nil {
		return nil, 0, err
	}

	txn := &models.Transaction{
		UserID:      userID,
		Type:        kind,
		Amount:      -amount,
		Description: description,
		MeetingID:   meetingID,
		OtherUserID: otherUserID,
	}

	balance, err := s.repo.ApplyTransaction(ctx, txn)
	if err != nil {
		return nil, 0, err
	}

	return txn, balance, nil
}

func (s *DefaultService) GetWallet(ctx context.Context, userID string) (*models.WalletResponse, error) {
	wallet, err := s.getOrCreateWallet(ctx, userID)
	if err != nil {
		return nil, err
	}

	// Stats for the current calendar month, display only
	now := s.now().UTC()
	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	earned, spent, err := s.repo.MonthlyStats(ctx, userID, startOfMonth)
	if err != nil {
		return nil, fmt.Errorf("error getting monthly stats: %w", err)
	}

	return &models.WalletResponse{
		Status:          "success",
		Balance:         wallet.Balance,
		TotalEarned:     wallet.TotalEarned,
		TotalSpent:      wallet.TotalSpent,
		EarnedThisMonth: earned,
		SpentThisMonth:  spent,
	}, nil
}

func (s *DefaultService) ListTransactions(
	ctx context.Context,
	userID string,
	limit,
	offset int,
) (*models.TransactionsResponse, error) {
	if _, err := s.getOrCreateWallet(ctx, userID); err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	transactions, total, err := s.repo.ListTransactions(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("error listing transactions: %w", err)
	}

	if transactions == nil {
		transactions = []models.Transaction{}
	}

	return &models.TransactionsResponse{
		Status:       "success",
		Transactions: transactions,
		Total:        total,
		HasMore:      offset+len(transactions) < total,
	}, nil
}

func (s *DefaultService) CheckBalance(ctx context.Context, userID string) (*models.BalanceCheckResponse, error) {
	wallet, err := s.getOrCreateWallet(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &models.BalanceCheckResponse{
		Status:           "success",
		Balance:          wallet.Balance,
		SessionCost:      s.credits.SessionCost,
		CanAffordSession: wallet.Balance >= s.credits.SessionCost,
	}, nil
}

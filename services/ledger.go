package services

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/inspace/protocoin/models"
	"github.com/inspace/protocoin/storage"
)

// credit increases owner's balance, creating the record if needed and
// attributing the new record's storage to payer.
func (s *TokenService) credit(ctx context.Context, tx storage.Store, owner string, amount models.Amount, payer string) error {
	acct, found, err := tx.GetAccount(ctx, owner, amount.Symbol.Code)
	if err != nil {
		return err
	}
	if !found {
		return tx.SaveAccount(ctx, models.Account{Owner: owner, Balance: amount, OpenedBy: payer})
	}
	balance, err := acct.Balance.Add(amount)
	if err != nil {
		return err
	}
	return tx.SetAccountBalance(ctx, owner, balance)
}

// debit decreases owner's balance. Only the unstaked portion is spendable,
// so the overdraw check is against balance minus live stake.
func (s *TokenService) debit(ctx context.Context, tx storage.Store, owner string, amount models.Amount) error {
	acct, found, err := tx.GetAccount(ctx, owner, amount.Symbol.Code)
	if err != nil {
		return err
	}
	if !found {
		return errors.Wrapf(models.ErrNoBalanceRecord, "owner %s symbol %s", owner, amount.Symbol.Code)
	}
	stake, err := s.stakeOfTx(ctx, tx, owner, amount.Symbol)
	if err != nil {
		return err
	}
	unstaked := acct.Balance.Amount - stake.Amount
	if unstaked < amount.Amount {
		return errors.Wrapf(models.ErrOverdrawn, "unstaked %d, debit %d", unstaked, amount.Amount)
	}
	balance, err := acct.Balance.Sub(amount)
	if err != nil {
		return err
	}
	return tx.SetAccountBalance(ctx, owner, balance)
}

// Open idempotently ensures a zero-balance account record exists.
func (s *TokenService) Open(ctx context.Context, owner string, sym models.Symbol, payer string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.WithinTx(ctx, func(tx storage.Store) error {
		st, found, err := tx.GetCurrencyStats(ctx, sym.Code)
		if err != nil {
			return err
		}
		if !found {
			return errors.Wrapf(models.ErrUnknownSymbol, "symbol %s", sym.Code)
		}
		if !st.Supply.Symbol.Equal(sym) {
			return errors.Wrapf(models.ErrPrecisionMismatch, "want %s, got %s", st.Supply.Symbol, sym)
		}
		_, exists, err := tx.GetAccount(ctx, owner, sym.Code)
		if err != nil || exists {
			return err
		}
		return tx.SaveAccount(ctx, models.Account{Owner: owner, Balance: models.NewAmount(0, sym), OpenedBy: payer})
	})
}

// Close deletes an owner's zero-balance account record.
func (s *TokenService) Close(ctx context.Context, owner, symbolCode string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.WithinTx(ctx, func(tx storage.Store) error {
		acct, found, err := tx.GetAccount(ctx, owner, symbolCode)
		if err != nil {
			return err
		}
		if !found {
			return errors.Wrapf(models.ErrNotFound, "owner %s symbol %s", owner, symbolCode)
		}
		if acct.Balance.Amount != 0 {
			return errors.Wrapf(models.ErrNonZeroBalance, "balance is %s", acct.Balance)
		}
		return tx.DeleteAccount(ctx, owner, symbolCode)
	})
}

// Transfer moves quantity from one owner to another, charging the transfer
// fee against the sender's unstaked balance and routing the stakers' share of
// the fee through the distribution engine.
func (s *TokenService) Transfer(ctx context.Context, from, to string, quantity models.Amount, memo string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.WithinTx(ctx, func(tx storage.Store) error {
		return s.transferTx(ctx, tx, from, to, quantity, memo)
	})
}

// TransferStaked is transfer-then-stake as one atomic action: the recipient's
// own post-transfer balance funds the stake.
func (s *TokenService) TransferStaked(ctx context.Context, from, to string, quantity models.Amount, memo string, durationIndex int, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.WithinTx(ctx, func(tx storage.Store) error {
		if err := s.transferTx(ctx, tx, from, to, quantity, memo); err != nil {
			return err
		}
		return s.addStakeTx(ctx, tx, to, quantity, durationIndex, now)
	})
}

func (s *TokenService) transferTx(ctx context.Context, tx storage.Store, from, to string, quantity models.Amount, memo string) error {
	if from == to {
		return errors.Wrapf(models.ErrSelfTransfer, "from %s", from)
	}
	exists, err := s.dir.OwnerExists(ctx, to)
	if err != nil {
		return err
	}
	if !exists {
		return errors.Wrapf(models.ErrUnknownAccount, "to %s", to)
	}
	st, found, err := tx.GetCurrencyStats(ctx, quantity.Symbol.Code)
	if err != nil {
		return err
	}
	if !found {
		return errors.Wrapf(models.ErrUnknownSymbol, "symbol %s", quantity.Symbol.Code)
	}
	if !quantity.IsPositive() {
		return errors.Wrap(models.ErrInvalidAmount, "must transfer positive quantity")
	}
	if !quantity.Symbol.Equal(st.Supply.Symbol) {
		return errors.Wrapf(models.ErrPrecisionMismatch, "want %s, got %s", st.Supply.Symbol, quantity.Symbol)
	}
	if len(memo) > maxMemoLen {
		return errors.Wrapf(models.ErrMemoTooLong, "%d bytes", len(memo))
	}

	fee := floorMul(quantity.Amount, s.feeRate)
	total := quantity.Amount + fee

	if err := s.debit(ctx, tx, from, models.NewAmount(total, quantity.Symbol)); err != nil {
		return err
	}
	if err := s.credit(ctx, tx, to, quantity, from); err != nil {
		return err
	}

	if fee > 0 {
		toStakers := floorMul(fee, s.feeToStakers)
		distributed, err := s.distributeTx(ctx, tx, models.NewAmount(toStakers, quantity.Symbol))
		if err != nil {
			return err
		}
		if remainder := fee - distributed; remainder > 0 {
			if err := s.credit(ctx, tx, s.cfg.ReserveAccount, models.NewAmount(remainder, quantity.Symbol), s.cfg.ReserveAccount); err != nil {
				return err
			}
		}
		s.log.Debug("transfer fee collected",
			"symbol", quantity.Symbol.Code, "fee", fee, "to_stakers", distributed)
	}

	s.log.Info("transfer", "from", from, "to", to, "quantity", quantity.String())
	return nil
}

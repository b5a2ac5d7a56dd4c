package settlement

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2/log"
	"github.com/greenbasket/greenbasket/app/models"
	"gorm.io/gorm"
)

// CreditResult reports what a wallet credit call did.
type CreditResult int

const (
	CreditApplied CreditResult = iota
	CreditAlreadyApplied
	CreditUserMissing
)

var errCreditAlreadyApplied = errors.New("wallet credit already applied")

// WalletCreditProcessor applies balance increments for wallet funding
// transactions. The conditional PENDING->COMPLETED transition is the
// exactly-once claim; the balance change is a relative increment so it stays
// correct under concurrent credits to the same user from unrelated
// references.
type WalletCreditProcessor struct {
	store Store
}

func NewWalletCreditProcessor(store Store) *WalletCreditProcessor {
	return &WalletCreditProcessor{store: store}
}

// Credit applies the three settlement writes for a successful funding
// attempt: balance increment, status transition, notification row. It
// prefers one atomic multi-write; if the store cannot provide one, the
// writes are applied sequentially with the balance first, since that is the
// financially material effect, and any partial failure is logged loudly for
// operators because it represents a latent double-credit risk on retry.
func (p *WalletCreditProcessor) Credit(ctx context.Context, wtx *models.WalletTransaction) (CreditResult, error) {
	_ = ctx

	if wtx.Type != models.WalletTxTypeCredit {
		return 0, fmt.Errorf("wallet transaction %s is a %s, refusing to credit", wtx.Reference, wtx.Type)
	}

	if _, err := p.store.UserByID(wtx.UserID); err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, err
		}
		claimed, terr := p.store.TransitionWalletTransaction(wtx.Reference, models.PaymentStatusPending, models.PaymentStatusFailed)
		if terr != nil {
			return 0, terr
		}
		if !claimed {
			return CreditAlreadyApplied, nil
		}
		return CreditUserMissing, nil
	}

	err := p.store.Atomic(func(tx Store) error {
		claimed, err := tx.TransitionWalletTransaction(wtx.Reference, models.PaymentStatusPending, models.PaymentStatusCompleted)
		if err != nil {
			return err
		}
		if !claimed {
			return errCreditAlreadyApplied
		}
		if err := tx.IncrementWalletBalance(wtx.UserID, wtx.Amount); err != nil {
			return err
		}
		return tx.CreateNotification(walletCreditNotification(wtx))
	})

	switch {
	case err == nil:
		return CreditApplied, nil
	case errors.Is(err, errCreditAlreadyApplied):
		return CreditAlreadyApplied, nil
	case errors.Is(err, ErrAtomicUnsupported):
		return p.creditSequential(wtx)
	default:
		return 0, err
	}
}

// creditSequential is the degraded path for stores without an atomic
// multi-write. The terminal re-read below keeps a redelivery from
// re-crediting an already settled reference; between that read and the
// increment a concurrent settlement of the same reference can still
// double-credit, and the transition result below detects that and surfaces
// it instead of swallowing it.
func (p *WalletCreditProcessor) creditSequential(wtx *models.WalletTransaction) (CreditResult, error) {
	log.Warnf("settlement: store lacks atomic multi-write, applying wallet credit %s sequentially", wtx.Reference)

	current, err := p.store.WalletTransactionByReference(wtx.Reference)
	if err != nil {
		return 0, err
	}
	if current.IsTerminal() {
		return CreditAlreadyApplied, nil
	}

	if err := p.store.IncrementWalletBalance(wtx.UserID, wtx.Amount); err != nil {
		return 0, err
	}

	claimed, err := p.store.TransitionWalletTransaction(wtx.Reference, models.PaymentStatusPending, models.PaymentStatusCompleted)
	if err != nil {
		log.Errorf("settlement: wallet credit %s: balance incremented but status transition errored (%v); manual reconciliation required", wtx.Reference, err)
		return CreditApplied, err
	}
	if !claimed {
		log.Errorf("settlement: wallet credit %s: balance incremented but transaction was no longer PENDING; possible double credit, manual reconciliation required", wtx.Reference)
		return CreditApplied, nil
	}

	runBestEffort("wallet-credit notification", func() error {
		return p.store.CreateNotification(walletCreditNotification(wtx))
	})
	return CreditApplied, nil
}

func walletCreditNotification(wtx *models.WalletTransaction) *models.Notification {
	return &models.Notification{
		UserID:      wtx.UserID,
		Type:        models.NotificationTypeWallet,
		Title:       "Wallet credited",
		Content:     fmt.Sprintf("Your wallet was credited with %.2f NGN.", wtx.Amount),
		ReferenceID: wtx.ID,
	}
}

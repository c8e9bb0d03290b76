package ledger

import (
	"context"

	"coinmod/database/schemas"
	"coinmod/modules/money"

	"github.com/uptrace/bun"
)

func (s *Store) InsertInvoice(ctx context.Context, inv *schemas.Invoice) error {
	_, err := s.db.NewInsert().Model(inv).Exec(ctx)
	return err
}

func (s *Store) UnpaidInvoices(ctx context.Context, guildID, userID string) ([]schemas.Invoice, error) {
	var invoices []schemas.Invoice
	err := s.db.NewSelect().
		Model(&invoices).
		Where("guild_id = ? AND user_id = ? AND paid = ?", guildID, userID, false).
		Order("id").
		Scan(ctx)
	return invoices, err
}

func (s *Store) PendingTotal(ctx context.Context, guildID, userID string) (money.Amount, error) {
	invoices, err := s.UnpaidInvoices(ctx, guildID, userID)
	if err != nil {
		return 0, err
	}
	return InvoiceTotal(invoices)
}

// InvoiceTotal sums the invoices, failing with money.ErrOutOfRange rather
// than wrapping.
func InvoiceTotal(invoices []schemas.Invoice) (money.Amount, error) {
	amounts := make([]money.Amount, len(invoices))
	for i, inv := range invoices {
		amounts[i] = inv.Amount
	}
	return money.Sum(amounts...)
}

// MarkInvoicesPaid flags exactly the given invoices. Invoices created after the
// caller's snapshot are left untouched.
func (s *Store) MarkInvoicesPaid(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return affected(s.db.NewUpdate().
		Model((*schemas.Invoice)(nil)).
		Set("paid = ?", true).
		Where("id IN (?)", bun.In(ids)).
		Where("paid = ?", false).
		Exec(ctx))
}

func (s *Store) CountUnpaidInvoices(ctx context.Context) (int, error) {
	return s.db.NewSelect().
		Model((*schemas.Invoice)(nil)).
		Where("paid = ?", false).
		Count(ctx)
}

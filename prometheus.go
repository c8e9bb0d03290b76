package main

import (
	"context"
	"time"

	"coinmod/modules/ledger"

	"github.com/prometheus/client_golang/prometheus"
)

const gaugeTimeout = 5 * time.Second

// registerLedgerGauges exposes ledger totals, read on every scrape.
func registerLedgerGauges(store *ledger.Store) {
	prometheus.MustRegister(
		ledgerGauge(store.CountAllAdvertences, "coinmod_active_advertences", "Advertences that have not expired yet"),
		ledgerGauge(store.CountUnpaidInvoices, "coinmod_unpaid_invoices", "Invoices waiting for payment"),
		ledgerGauge(store.CountBans, "coinmod_permanent_bans", "Permanent bans awaiting redemption"),
	)
}

func ledgerGauge(count func(ctx context.Context) (int, error), name, help string) prometheus.GaugeFunc {
	return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: name,
		Help: help,
	}, func() float64 {
		ctx, cancel := context.WithTimeout(context.Background(), gaugeTimeout)
		defer cancel()

		n, err := count(ctx)
		if err != nil {
			return 0
		}
		return float64(n)
	})
}

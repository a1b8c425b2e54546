package main

import (
	"context"
	"fmt"

	"github.com/freshroots/harvest-backend/internal/adapters/repository"
	"github.com/freshroots/harvest-backend/internal/core/invoicing"
	"github.com/freshroots/harvest-backend/internal/models"
	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
)

var recomputeDryRun bool

var invoicesCmd = &cobra.Command{
	Use:   "invoices",
	Short: "Invoice maintenance",
}

var invoicesRecomputeCmd = &cobra.Command{
	Use:   "recompute",
	Short: "Recompute stored invoice totals from their line items",
	Long: `Walks every stored invoice, recomputes line totals, subtotal, tax and
grand total with half-up rounding, and saves the invoices whose stored
figures differ.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDatabase(cmd, func(ctx context.Context, db *mongo.Database) error {
			checked, changed, err := recomputeInvoices(ctx, repository.NewInvoiceRepository(db), recomputeDryRun)
			if err != nil {
				return err
			}
			logrus.WithFields(logrus.Fields{
				"checked": checked,
				"changed": changed,
				"dryRun":  recomputeDryRun,
			}).Info("Invoice recompute complete")
			return nil
		})
	},
}

func init() {
	invoicesRecomputeCmd.Flags().BoolVar(&recomputeDryRun, "dry-run", false, "report drift without saving")
	invoicesCmd.AddCommand(invoicesRecomputeCmd)
}

func recomputeInvoices(ctx context.Context, repo repository.InvoiceRepository, dryRun bool) (checked, changed int, err error) {
	var drifted []models.Invoice
	err = repo.ForEach(ctx, func(inv models.Invoice) error {
		checked++
		after := inv
		after.Items = append([]models.InvoiceItem(nil), inv.Items...)
		invoicing.RecomputeInvoice(&after)
		if !cmp.Equal(inv, after) {
			drifted = append(drifted, after)
		}
		return nil
	})
	if err != nil {
		return checked, 0, err
	}
	for _, inv := range drifted {
		logrus.WithFields(logrus.Fields{"invoice": inv.InvoiceNumber, "total": inv.Total}).Info("Invoice total drifted")
		if dryRun {
			continue
		}
		if err := repo.Update(ctx, inv); err != nil {
			return checked, changed, fmt.Errorf("update %s: %w", inv.InvoiceNumber, err)
		}
		changed++
	}
	if dryRun {
		changed = len(drifted)
	}
	return checked, changed, nil
}

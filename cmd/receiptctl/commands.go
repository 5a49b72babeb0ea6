package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/sangkips/receiptflow-api/internal/app"
	"github.com/sangkips/receiptflow-api/internal/application/service"
	"github.com/sangkips/receiptflow-api/internal/config"
	"github.com/sangkips/receiptflow-api/internal/export"
	"github.com/sangkips/receiptflow-api/pkg/apperror"
	"github.com/sangkips/receiptflow-api/pkg/logger"
	"github.com/spf13/cobra"
)

// withService runs fn against a fully wired receipt service and releases it
// afterwards.
func withService(cmd *cobra.Command, fn func(ctx context.Context, svc *service.ReceiptService) error) error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logger.New(cfg.App.LogLevel, cfg.App.Debug)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx := cmd.Context()
	container, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}

	runErr := fn(ctx, container.Receipts)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	return errors.Join(runErr, container.Close(shutdownCtx))
}

func parseID(arg string) (uuid.UUID, error) {
	id, err := uuid.Parse(arg)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid id %q: %w", arg, err)
	}
	return id, nil
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every receipt, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, func(ctx context.Context, svc *service.ReceiptService) error {
				receipts, err := svc.ListReceipts(ctx)
				if errors.Is(err, apperror.ErrNoRecords) {
					fmt.Fprintln(cmd.OutOrStdout(), "No receipts found")
					return nil
				}
				if err != nil {
					return err
				}

				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tORDER\tCUSTOMER\tTOTAL\tCREATED\tDOCUMENT")
				for _, r := range receipts {
					document := "-"
					if r.HasDocument() {
						document = *r.PdfURL
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
						r.ID, r.OrderID, r.CustomerName, r.Total.StringFixed(2),
						r.CreatedAt.Format("2006-01-02 15:04"), document)
				}
				return tw.Flush()
			})
		},
	}
}

func showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [id]",
		Short: "Print one receipt with its line items as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withService(cmd, func(ctx context.Context, svc *service.ReceiptService) error {
				receipt, err := svc.GetReceipt(ctx, id)
				if err != nil {
					return err
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(receipt)
			})
		},
	}
}

func reissueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reissue [id]",
		Short: "Render, upload and link the document of a stored receipt again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withService(cmd, func(ctx context.Context, svc *service.ReceiptService) error {
				result, err := svc.ReissueDocument(ctx, id)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), result.DocumentURL)
				if !result.DocumentLinked {
					fmt.Fprintln(cmd.ErrOrStderr(), "warning: document stored but not linked to the receipt")
				}
				return nil
			})
		},
	}
}

func deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a receipt and its line items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withService(cmd, func(ctx context.Context, svc *service.ReceiptService) error {
				if err := svc.DeleteReceipt(ctx, id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted receipt %s\n", id)
				return nil
			})
		},
	}
}

func deleteItemCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-item [item-id]",
		Short: "Delete a single line item, keeping its receipt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withService(cmd, func(ctx context.Context, svc *service.ReceiptService) error {
				if err := svc.DeleteLineItem(ctx, id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted line item %s\n", id)
				return nil
			})
		},
	}
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export receipts and line items to an Excel workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, _ := cmd.Flags().GetString("out")
			return withService(cmd, func(ctx context.Context, svc *service.ReceiptService) error {
				receipts, err := svc.ListReceipts(ctx)
				if err != nil && !errors.Is(err, apperror.ErrNoRecords) {
					return err
				}

				var w io.Writer = cmd.OutOrStdout()
				if out != "-" {
					file, err := os.Create(out)
					if err != nil {
						return err
					}
					defer file.Close()
					w = file
				}
				if err := export.WriteXLSX(w, receipts); err != nil {
					return err
				}
				if out != "-" {
					fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d receipts to %s\n", len(receipts), out)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringP("out", "o", "receipts.xlsx", "Output file, - for stdout")

	return cmd
}

package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/Additional-Code/creditdesk/internal/app"
	"github.com/Additional-Code/creditdesk/internal/dto"
	"github.com/Additional-Code/creditdesk/internal/filter"
	"github.com/Additional-Code/creditdesk/internal/service/review"
)

func withService(cmd *cobra.Command, fn func(context.Context, *review.Service) error) error {
	var svc *review.Service
	opts := fx.Options(app.Core, fx.Populate(&svc))
	return runWithApp(cmd.Context(), opts, func(ctx context.Context) error {
		return fn(ctx, svc)
	})
}

func newOrdersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "Review orders from the terminal",
	}
	cmd.AddCommand(newOrdersListCmd(), newOrdersReviewCmd(), newOrdersMarkPaidCmd())
	return cmd
}

func bindListFlags(cmd *cobra.Command, in *dto.ListOrdersQuery) {
	f := cmd.Flags()
	f.StringVar(&in.Status, "status", "", "Review status, e.g. PENDING_REVIEW")
	f.StringVar(&in.PaymentMethod, "payment-method", "", "Payment method code (cash, visa, benefit, floos, credit)")
	f.StringVar(&in.Salesman, "salesman", "", "Salesman user id or name")
	f.StringVar(&in.Account, "account", "", "Account name")
	f.StringVar(&in.Date, "date", "", "Single day, YYYY-MM-DD")
	f.StringVar(&in.DateFrom, "from", "", "Range start, YYYY-MM-DD")
	f.StringVar(&in.DateTo, "to", "", "Range end, YYYY-MM-DD")
	f.StringVar(&in.Month, "month", "", "Calendar month, YYYY-MM")
}

func newOrdersListCmd() *cobra.Command {
	var in dto.ListOrdersQuery
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List orders awaiting review with summary figures",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := in.ToQuery()
			if err != nil {
				return err
			}
			return withService(cmd, func(ctx context.Context, svc *review.Service) error {
				list, err := svc.ListForReview(ctx, q)
				if err != nil {
					return err
				}
				return renderReviewList(cmd.OutOrStdout(), list)
			})
		},
	}
	bindListFlags(cmd, &in)
	return cmd
}

func newOrdersReviewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "review <order-id> <status>",
		Short: "Move an order to another review status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, func(ctx context.Context, svc *review.Service) error {
				out, err := svc.Transition(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s -> %s (%s)\n",
					out.Order.ID, out.Previous, out.Order.EffectiveReviewStatus(), out.Result)
				return nil
			})
		},
	}
}

func newOrdersMarkPaidCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mark-paid <order-id>",
		Short: "Settle a credit order and credit its account back",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, func(ctx context.Context, svc *review.Service) error {
				out, err := svc.MarkAsPaid(ctx, args[0])
				if err != nil {
					return err
				}
				acc := dto.NewAccountResponse(out.Account)
				fmt.Fprintf(cmd.OutOrStdout(), "%s paid %s; %s balance %s, available %s\n",
					out.Order.ID, out.Order.Pricing.Total, acc.Name, acc.CurrentBalance, acc.AvailableBalance)
				return nil
			})
		},
	}
}

func newAccountsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Inspect credit accounts",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List accounts with their available credit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, func(ctx context.Context, svc *review.Service) error {
				accounts, err := svc.ListAccounts(ctx)
				if err != nil {
					return err
				}
				return renderAccounts(cmd.OutOrStdout(), accounts)
			})
		},
	})
	return cmd
}

func renderReviewList(w io.Writer, list *review.ReviewList) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tREVIEW\tPAYMENT\tACCOUNT\tSALESMAN\tTOTAL\tCREATED")
	for _, o := range list.Orders {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			o.ID,
			o.EffectiveReviewStatus(),
			filter.PaymentLabel(string(o.Payment.Method)),
			o.Customer.Name,
			o.CreatedBy.Name,
			o.Pricing.Total.StringFixed(3),
			o.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	s := list.Summary
	fmt.Fprintf(w, "\n%d orders, total %s\n", s.Count, s.Total.StringFixed(3))
	if s.BestAccount != "" {
		fmt.Fprintf(w, "best account: %s (%s)\n", s.BestAccount, s.BestAccountTotal.StringFixed(3))
	}
	fmt.Fprintf(w, "accounts over limit: %d\n", s.OverLimitAccounts)
	_, err := fmt.Fprintf(w, "estimated net profit: %s\n", s.NetProfitEstimate.StringFixed(3))
	return err
}

func renderAccounts(w io.Writer, accounts []review.AccountBalance) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tLIMIT\tBALANCE\tAVAILABLE\tOVER LIMIT")
	for _, a := range accounts {
		over := ""
		if a.OverLimit {
			over = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			a.ID, a.Name,
			a.CreditLimit.StringFixed(3),
			a.CurrentBalance.StringFixed(3),
			a.Available.StringFixed(3),
			over,
		)
	}
	return tw.Flush()
}

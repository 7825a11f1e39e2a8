package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"grundbuch-online/portal/pkg/cli"
	"grundbuch-online/portal/pkg/orders"
	orderstore "grundbuch-online/portal/pkg/orders/store"
)

var ordersFlags struct {
	status        string
	paymentStatus string
	notes         string
	limit         int
	offset        int
	output        string
}

var ordersCmd = &cobra.Command{
	Use:   "orders",
	Short: "Inspect and update orders",
	Long: `Inspect and update orders directly in the configured order store.

Subcommands:
  list        - List orders, newest first
  get         - Show one order by id or order number
  set-status  - Change status, payment status or notes of an order`,
}

var ordersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List orders",
	Long: `List orders, newest first.

Examples:
  portal orders list
  portal orders list --status pending --payment-status paid
  portal orders list --limit 500 --output csv > orders.csv`,
	Args: cobra.NoArgs,
	RunE: runOrdersList,
}

var ordersGetCmd = &cobra.Command{
	Use:   "get <id|order-number>",
	Short: "Show one order",
	Args:  cobra.ExactArgs(1),
	RunE:  runOrdersGet,
}

var ordersSetStatusCmd = &cobra.Command{
	Use:   "set-status <id|order-number>",
	Short: "Update status, payment status or notes",
	Long: `Update the admin-editable fields of an order.

Examples:
  portal orders set-status GB-20240517-ABC123 --status processing
  portal orders set-status GB-20240517-ABC123 --payment-status paid --notes "paid by transfer"`,
	Args: cobra.ExactArgs(1),
	RunE: runOrdersSetStatus,
}

func init() {
	rootCmd.AddCommand(ordersCmd)
	ordersCmd.AddCommand(ordersListCmd, ordersGetCmd, ordersSetStatusCmd)

	ordersListCmd.Flags().StringVar(&ordersFlags.status, "status", "", "filter by status")
	ordersListCmd.Flags().StringVar(&ordersFlags.paymentStatus, "payment-status", "", "filter by payment status")
	ordersListCmd.Flags().IntVar(&ordersFlags.limit, "limit", 50, "maximum number of orders (0 for all)")
	ordersListCmd.Flags().IntVar(&ordersFlags.offset, "offset", 0, "number of orders to skip")
	ordersListCmd.Flags().StringVarP(&ordersFlags.output, "output", "o", "text", "output format (text, json, csv)")

	ordersGetCmd.Flags().StringVarP(&ordersFlags.output, "output", "o", "text", "output format (text, json)")

	ordersSetStatusCmd.Flags().StringVar(&ordersFlags.status, "status", "", "new status")
	ordersSetStatusCmd.Flags().StringVar(&ordersFlags.paymentStatus, "payment-status", "", "new payment status")
	ordersSetStatusCmd.Flags().StringVar(&ordersFlags.notes, "notes", "", "replace the admin notes")
	ordersSetStatusCmd.MarkFlagsOneRequired("status", "payment-status", "notes")
}

// withOrders opens the order store for the duration of fn.
func withOrders(fn func(ctx context.Context, svc *orders.Service) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := setupLogging(cfg.Telemetry.Logging, os.Stderr, true); err != nil {
		return err
	}

	ctx, stop := cli.SetupSignalHandler()
	defer stop()

	store, err := orderstore.New(ctx, cfg.Orders)
	if err != nil {
		return cli.NewCommandError("orders", err)
	}
	defer store.Close()

	return fn(ctx, orders.NewService(store))
}

func runOrdersList(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(ordersFlags.output)
	if err != nil {
		return err
	}
	filter := orders.Filter{
		Status:        orders.Status(ordersFlags.status),
		PaymentStatus: orders.PaymentStatus(ordersFlags.paymentStatus),
		Limit:         ordersFlags.limit,
		Offset:        ordersFlags.offset,
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return cli.NewConfigError("status", fmt.Sprintf("unknown status %q", ordersFlags.status))
	}
	if filter.PaymentStatus != "" && !filter.PaymentStatus.Valid() {
		return cli.NewConfigError("payment-status", fmt.Sprintf("unknown payment status %q", ordersFlags.paymentStatus))
	}
	if filter.Limit < 0 || filter.Offset < 0 {
		return cli.NewConfigError("limit", "limit and offset must not be negative")
	}

	return withOrders(func(ctx context.Context, svc *orders.Service) error {
		list, err := svc.List(ctx, filter)
		if err != nil {
			return cli.NewCommandError("orders list", err)
		}
		return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), orderTable(list))
	})
}

func runOrdersGet(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(ordersFlags.output)
	if err != nil {
		return err
	}
	if format == cli.FormatCSV {
		return cli.NewConfigError("output", "csv is only supported by orders list")
	}

	return withOrders(func(ctx context.Context, svc *orders.Service) error {
		o, err := svc.Get(ctx, args[0])
		if err != nil {
			return cli.NewCommandError("orders get", err)
		}
		if format == cli.FormatJSON {
			return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), o)
		}
		printOrder(cmd.OutOrStdout(), o)
		return nil
	})
}

func runOrdersSetStatus(cmd *cobra.Command, args []string) error {
	patch, err := patchFromFlags(cmd)
	if err != nil {
		return err
	}

	return withOrders(func(ctx context.Context, svc *orders.Service) error {
		o, err := svc.Update(ctx, args[0], patch)
		if err != nil {
			return cli.NewCommandError("orders set-status", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ %s: status=%s payment=%s\n", o.Number, o.Status, o.PaymentStatus)
		return nil
	})
}

// patchFromFlags builds the patch through orders.ParsePatch so the CLI and
// the admin API accept exactly the same values.
func patchFromFlags(cmd *cobra.Command) (orders.Patch, error) {
	raw := map[string]string{}
	if cmd.Flags().Changed("status") {
		raw["status"] = ordersFlags.status
	}
	if cmd.Flags().Changed("payment-status") {
		raw["payment_status"] = ordersFlags.paymentStatus
	}
	if cmd.Flags().Changed("notes") {
		raw["notes"] = ordersFlags.notes
	}
	body, err := json.Marshal(raw)
	if err != nil {
		return orders.Patch{}, err
	}
	patch, err := orders.ParsePatch(body)
	if err != nil {
		return orders.Patch{}, cli.NewConfigError("flags", err.Error())
	}
	return patch, nil
}

func printOrder(w io.Writer, o *orders.Order) {
	fmt.Fprintf(w, "Order:    %s (%s)\n", o.Number, o.ID)
	fmt.Fprintf(w, "Status:   %s, payment %s\n", o.Status, o.PaymentStatus)
	fmt.Fprintf(w, "Created:  %s\n", o.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "Updated:  %s\n", o.UpdatedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "Contact:  %s <%s>", o.Contact.Name, o.Contact.Email)
	if o.Contact.Company != "" {
		fmt.Fprintf(w, ", %s", o.Contact.Company)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Property: KG %s EZ %s\n", o.Property.KG, o.Property.EZ)
	if a := o.Property.Address; a != nil {
		fmt.Fprintf(w, "Address:  %s %s, %s %s\n", a.Street, a.HouseNumber, a.PostalCode, a.City)
	}
	fmt.Fprintf(w, "Products: %s\n", products(o.Products))
	for _, d := range o.Documents {
		fmt.Fprintf(w, "Document: %s (%s, %d bytes)\n", d.Name, d.Type, d.Size)
	}
	if o.Notes != "" {
		fmt.Fprintf(w, "Notes:    %s\n", o.Notes)
	}
}

func products(p orders.Products) string {
	var names []string
	if p.Current {
		names = append(names, "current")
	}
	if p.Historical {
		names = append(names, "historical")
	}
	if p.Deeds {
		names = append(names, "deeds")
	}
	return strings.Join(names, "+")
}

type orderTable []*orders.Order

func (orderTable) Header() []string {
	return []string{"order_number", "created_at", "status", "payment_status", "kg", "ez", "products", "contact"}
}

func (t orderTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, o := range t {
		rows = append(rows, []string{
			o.Number,
			o.CreatedAt.Format(time.RFC3339),
			string(o.Status),
			string(o.PaymentStatus),
			o.Property.KG,
			o.Property.EZ,
			products(o.Products),
			o.Contact.Email,
		})
	}
	return rows
}

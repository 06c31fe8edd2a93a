package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/Apurer/storefront-client/internal/clients/http/storefront"
	catalogapp "github.com/Apurer/storefront-client/internal/domains/catalog/application"
	catalogdomain "github.com/Apurer/storefront-client/internal/domains/catalog/domain"
	ordersdomain "github.com/Apurer/storefront-client/internal/domains/orders/domain"
	sessionapp "github.com/Apurer/storefront-client/internal/domains/session/application"
	sessiondomain "github.com/Apurer/storefront-client/internal/domains/session/domain"
)

// AppFactory builds the App lazily so --help and flag errors never touch a backend.
type AppFactory func(ctx context.Context) (*App, func(), error)

type commandEnv struct {
	factory AppFactory
	app     *App
	cleanup func()
}

func (e *commandEnv) load(cmd *cobra.Command) (*App, error) {
	if e.app != nil {
		return e.app, nil
	}
	app, cleanup, err := e.factory(cmd.Context())
	if err != nil {
		return nil, err
	}
	e.app, e.cleanup = app, cleanup
	return app, nil
}

func (e *commandEnv) close() {
	if e.cleanup != nil {
		e.cleanup()
		e.cleanup = nil
	}
	e.app = nil
}

// NewRootCommand assembles the storefront command tree. The returned close
// releases whatever App the executed command built.
func NewRootCommand(factory AppFactory) (*cobra.Command, func()) {
	env := &commandEnv{factory: factory}
	root := &cobra.Command{
		Use:           "storefront",
		Short:         "Storefront client: accounts, catalog and orders",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newLoginCommand(env),
		newLogoutCommand(env),
		newRegisterCommand(env),
		newWhoAmICommand(env),
		newProductsCommand(env),
		newOrdersCommand(env),
		newOrderCommand(env),
	)
	return root, env.close
}

func newLoginCommand(env *commandEnv) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the credential",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := env.load(cmd)
			if err != nil {
				return err
			}
			identity, err := app.Session.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "logged in as user %s\n", identity.UserID)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newLogoutCommand(env *commandEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored credential",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := env.load(cmd)
			if err != nil {
				return err
			}
			if err := app.Session.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "logged out")
			return nil
		},
	}
}

func newRegisterCommand(env *commandEnv) *cobra.Command {
	var email, password, phone, name string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := sessiondomain.NewRegistration(email, password, phone, name)
			if err != nil {
				return err
			}
			app, err := env.load(cmd)
			if err != nil {
				return err
			}
			if err := app.Session.Register(cmd.Context(), reg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "registered %s, log in to continue\n", reg.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	cmd.Flags().StringVar(&phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	return cmd
}

func newWhoAmICommand(env *commandEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the identity carried by the stored credential",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := env.load(cmd)
			if err != nil {
				return err
			}
			identity, err := app.Session.WhoAmI(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "user %s\n", identity.UserID)
			if !identity.ExpiresAt.IsZero() {
				state := "valid"
				if identity.Expired(time.Now()) {
					state = "expired"
				}
				fmt.Fprintf(out, "token %s until %s\n", state, identity.ExpiresAt.Format(time.RFC3339))
			}
			return nil
		},
	}
}

func newProductsCommand(env *commandEnv) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "products",
		Short: "Browse and manage the catalog",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := env.load(cmd)
			if err != nil {
				return err
			}
			products, err := app.Catalog.Refresh(cmd.Context())
			if err != nil {
				return err
			}
			printProducts(cmd.OutOrStdout(), products)
			return nil
		},
	}

	var name, description, price string
	var quantity int
	create := &cobra.Command{
		Use:   "create",
		Short: "Add a product to the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			amount, err := catalogdomain.ParsePrice(price)
			if err != nil {
				return err
			}
			in, err := catalogdomain.NewProductInput(name, description, amount, quantity)
			if err != nil {
				return err
			}
			app, err := env.load(cmd)
			if err != nil {
				return err
			}
			created, err := app.Catalog.CreateProduct(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created product %s (%s) at %s\n", created.ID, created.Name, created.Price.String())
			return nil
		},
	}
	create.Flags().StringVar(&name, "name", "", "product name")
	create.Flags().StringVar(&description, "description", "", "product description")
	create.Flags().StringVar(&price, "price", "", "unit price")
	create.Flags().IntVar(&quantity, "quantity", 0, "stock quantity")
	_ = create.MarkFlagRequired("name")
	_ = create.MarkFlagRequired("price")

	cmd.AddCommand(list, create)
	return cmd
}

func newOrdersCommand(env *commandEnv) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "View and delete orders",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List orders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := env.load(cmd)
			if err != nil {
				return err
			}
			orders, err := app.Orders.Refresh(cmd.Context())
			if err != nil {
				return err
			}
			printOrders(cmd.OutOrStdout(), orders)
			return nil
		},
	}

	history := &cobra.Command{
		Use:   "history",
		Short: "List the logged-in user's orders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := env.load(cmd)
			if err != nil {
				return err
			}
			identity, err := app.Session.RequireIdentity(cmd.Context())
			if err != nil {
				return err
			}
			if _, err := app.Orders.Refresh(cmd.Context()); err != nil {
				return err
			}
			printHistory(cmd.OutOrStdout(), app.Orders.History(identity.UserID))
			return nil
		},
	}

	remove := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := env.load(cmd)
			if err != nil {
				return err
			}
			if _, err := app.Orders.Refresh(cmd.Context()); err != nil {
				app.Logger.Warn("order list refresh before delete failed", "error", err.Error())
			}
			if err := app.Orders.Remove(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted order %s, %d remaining\n", args[0], len(app.Orders.Orders()))
			return nil
		},
	}

	cmd.AddCommand(list, history, remove)
	return cmd
}

func newOrderCommand(env *commandEnv) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "order",
		Short: "Place orders",
	}

	var productID, quantity, customer string
	create := &cobra.Command{
		Use:   "create",
		Short: "Submit an order for one product",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			qty, err := ordersdomain.ParseQuantity(quantity)
			if err != nil {
				return err
			}
			app, err := env.load(cmd)
			if err != nil {
				return err
			}
			if _, err := app.Catalog.Refresh(cmd.Context()); err != nil {
				return err
			}
			draft := ordersdomain.NewDraft(app.Catalog)
			unsubscribe := app.Catalog.Subscribe(func([]catalogdomain.Product) { draft.OnCatalogRefreshed() })
			defer unsubscribe()

			if productID != "" {
				if err := draft.SetProduct(productID); err != nil {
					return err
				}
			}
			if err := draft.SetQuantity(qty); err != nil {
				return err
			}
			draft.SetCustomerName(customer)
			state := draft.Snapshot()

			order, err := app.Submitter.Submit(cmd.Context(), draft)
			if err != nil {
				return err
			}
			total := order.TotalAmount
			if total.IsZero() {
				total = state.TotalAmount
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "order %s placed", order.ID)
			if order.InvoiceNo != "" {
				fmt.Fprintf(out, " (invoice %s)", order.InvoiceNo)
			}
			fmt.Fprintf(out, ": %d x %s, total %s\n", state.Quantity, state.ProductCode, total.String())
			return nil
		},
	}
	create.Flags().StringVar(&productID, "product", "", "product id (defaults to the first catalog entry)")
	create.Flags().StringVar(&quantity, "quantity", "1", "whole number of units, at least 1")
	create.Flags().StringVar(&customer, "customer", "", "customer name")

	cmd.AddCommand(create)
	return cmd
}

func printProducts(w io.Writer, products []catalogdomain.Product) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCODE\tNAME\tPRICE\tSTOCK")
	for _, p := range products {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", p.ID, p.Code, p.Name, p.Price.String(), p.Quantity)
	}
	tw.Flush()
}

func printOrders(w io.Writer, orders []ordersdomain.Order) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tINVOICE\tCUSTOMER\tDATE\tITEMS\tTOTAL")
	for _, o := range orders {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", o.ID, o.InvoiceNo, o.Customer, formatDate(o.Date), describeLines(o.Lines), o.TotalAmount.String())
	}
	tw.Flush()
}

func printHistory(w io.Writer, entries []ordersdomain.HistoryEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "no orders yet")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NO\tID\tDATE\tITEMS\tTOTAL")
	for _, e := range entries {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", e.Number, e.Order.ID, formatDate(e.Order.Date), describeLines(e.Order.Lines), e.Order.TotalAmount.String())
	}
	tw.Flush()
}

func describeLines(lines []ordersdomain.LineItem) string {
	parts := make([]string, 0, len(lines))
	for _, l := range lines {
		label := l.ProductName
		if label == "" {
			label = l.ProductCode
		}
		parts = append(parts, strconv.Itoa(l.Quantity)+"x "+label)
	}
	return strings.Join(parts, ", ")
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02")
}

// ExitCode maps an error to a process exit status: 2 for local validation,
// 3 for authentication, 4 for API failures, 1 otherwise.
func ExitCode(err error) int {
	var te *storefront.TransportError
	switch {
	case err == nil:
		return 0
	case isValidation(err):
		return 2
	case errors.Is(err, sessiondomain.ErrAuth), storefront.IsUnauthorized(err):
		return 3
	case errors.As(err, &te):
		return 4
	default:
		return 1
	}
}

func isValidation(err error) bool {
	for _, target := range []error{
		ordersdomain.ErrValidation,
		catalogapp.ErrInvalidInput,
		catalogdomain.ErrEmptyName,
		catalogdomain.ErrNegativePrice,
		catalogdomain.ErrNegativeQuantity,
		catalogdomain.ErrInvalidPrice,
		sessionapp.ErrInvalidInput,
		sessiondomain.ErrEmptyEmail,
		sessiondomain.ErrInvalidEmail,
		sessiondomain.ErrEmptyPassword,
		sessiondomain.ErrEmptyName,
		sessiondomain.ErrEmptyPhone,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

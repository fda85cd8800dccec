package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"pocketspend/internal/app"
	"pocketspend/internal/core"
	"pocketspend/internal/services"
)

var errNotLoggedIn = errors.New("not logged in; run 'pocketspend login' first")

type commands struct {
	app    *app.App
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func (c *commands) dispatch(ctx context.Context, args []string) error {
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "login":
		return c.login(ctx, rest)
	case "logout":
		c.app.Finance.Logout()
		fmt.Fprintln(c.stdout, "Logged out")
		return nil
	case "whoami":
		return c.whoami()
	}

	if !c.app.Stores.Auth.State().IsAuthenticated {
		return errNotLoggedIn
	}

	switch cmd {
	case "dashboard":
		return c.dashboard(ctx)
	case "expenses", "budgets":
		if len(rest) == 0 {
			return fmt.Errorf("%s: missing subcommand: %w", cmd, errUsage)
		}
		sub, subArgs := rest[0], rest[1:]
		if cmd == "expenses" {
			return c.expenses(ctx, sub, subArgs)
		}
		return c.budgets(sub, subArgs)
	default:
		return fmt.Errorf("unknown command %q: %w", cmd, errUsage)
	}
}

func (c *commands) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	return fs
}

func (c *commands) login(ctx context.Context, args []string) error {
	fs := c.newFlagSet("login")
	user := fs.String("user", "", "username")
	password := fs.String("password", "", "password (prompted when omitted)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *user == "" {
		return fmt.Errorf("login: -user is required: %w", errUsage)
	}
	if *password == "" {
		p, err := readPassword(c.stdin, c.stderr)
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		*password = p
	}

	if err := c.app.Finance.Login(ctx, *user, *password); err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "Logged in as %s\n", displayName(c.app.Stores.Auth.State().User))
	return nil
}

func (c *commands) whoami() error {
	st := c.app.Stores.Auth.State()
	if !st.IsAuthenticated {
		return errNotLoggedIn
	}
	fmt.Fprintf(c.stdout, "%s <%s>\n", displayName(st.User), st.User.Email)
	return nil
}

func (c *commands) expenses(ctx context.Context, sub string, args []string) error {
	switch sub {
	case "list":
		fs := c.newFlagSet("expenses list")
		query := fs.String("q", "", "filter by name or description")
		if err := fs.Parse(args); err != nil {
			return err
		}
		c.app.Stores.Expenses.FetchExpenses(ctx)
		if msg := c.app.Stores.Expenses.State().Error; msg != "" {
			return errors.New(msg)
		}
		c.printExpenses(c.app.Finance.SearchExpenses(*query))
		return nil

	case "add":
		fs := c.newFlagSet("expenses add")
		var form services.ExpenseForm
		fs.StringVar(&form.Name, "name", "", "expense name")
		fs.StringVar(&form.Amount, "amount", "", "amount, e.g. 12.50")
		fs.StringVar(&form.Description, "description", "", "description")
		fs.StringVar(&form.Category, "category", "", "budget category (optional)")
		if err := fs.Parse(args); err != nil {
			return err
		}
		res, err := c.app.Finance.AddExpense(ctx, form)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.stdout, "Added expense %s (%s)\n", res.Expense.ID, res.Expense.Amount)
		return nil

	case "delete":
		fs := c.newFlagSet("expenses delete")
		id := fs.String("id", "", "expense id")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if *id == "" {
			return fmt.Errorf("expenses delete: -id is required: %w", errUsage)
		}
		if err := c.app.Finance.DeleteExpense(ctx, *id); err != nil {
			return err
		}
		fmt.Fprintf(c.stdout, "Deleted expense %s\n", *id)
		return nil
	}
	return fmt.Errorf("unknown expenses subcommand %q: %w", sub, errUsage)
}

func (c *commands) budgets(sub string, args []string) error {
	switch sub {
	case "list":
		c.printBudgets(c.app.Finance.Budgets())
		return nil

	case "add", "update":
		fs := c.newFlagSet("budgets " + sub)
		var (
			form   services.BudgetForm
			period string
			id     string
		)
		if sub == "update" {
			fs.StringVar(&id, "id", "", "budget id")
		}
		fs.StringVar(&form.Category, "category", "", "category")
		fs.StringVar(&form.Limit, "limit", "", "spending limit")
		fs.StringVar(&period, "period", "", "daily, weekly or monthly")
		if err := fs.Parse(args); err != nil {
			return err
		}
		form.Period = core.Period(period)

		if sub == "add" {
			b, err := c.app.Finance.CreateBudget(form)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.stdout, "Created budget %s\n", b.ID)
			return nil
		}
		if id == "" {
			return fmt.Errorf("budgets update: -id is required: %w", errUsage)
		}
		b, err := c.app.Finance.UpdateBudget(id, form)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.stdout, "Updated budget %s\n", b.ID)
		return nil

	case "delete":
		fs := c.newFlagSet("budgets delete")
		id := fs.String("id", "", "budget id")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if *id == "" {
			return fmt.Errorf("budgets delete: -id is required: %w", errUsage)
		}
		if err := c.app.Finance.DeleteBudget(*id); err != nil {
			return err
		}
		fmt.Fprintf(c.stdout, "Deleted budget %s\n", *id)
		return nil
	}
	return fmt.Errorf("unknown budgets subcommand %q: %w", sub, errUsage)
}

func (c *commands) dashboard(ctx context.Context) error {
	d := c.app.Finance.Dashboard(ctx, true)
	if msg := c.app.Stores.Expenses.State().Error; msg != "" {
		fmt.Fprintf(c.stderr, "warning: %s\n", msg)
	}

	fmt.Fprintf(c.stdout, "Welcome, %s\n\n", displayName(c.app.Stores.Auth.State().User))
	fmt.Fprintf(c.stdout, "Total spent: %s\n\n", d.TotalSpent.Format())
	fmt.Fprintln(c.stdout, "Recent expenses:")
	c.printExpenses(d.Recent)
	if len(d.Exceeding) > 0 {
		fmt.Fprintln(c.stdout, "\nBudgets exceeded:")
		for _, b := range d.Exceeding {
			fmt.Fprintf(c.stdout, "  %s: %s of %s\n", b.Category,
				core.MoneyFromFloat(b.Spent).Format(), core.MoneyFromFloat(b.Limit).Format())
		}
	}
	return nil
}

func (c *commands) printExpenses(expenses []core.Expense) {
	if len(expenses) == 0 {
		fmt.Fprintln(c.stdout, "No expenses")
		return
	}
	tw := tabwriter.NewWriter(c.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tNAME\tAMOUNT\tCATEGORY\tDESCRIPTION")
	for _, e := range expenses {
		date := e.CreatedAt
		if t, ok := e.CreatedTime(); ok {
			date = t.Format("2006-01-02")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			e.ID, date, e.Name, core.MoneyFromFloat(e.AmountValue()).Format(), e.Category, e.Description)
	}
	tw.Flush()
}

func (c *commands) printBudgets(views []services.BudgetView) {
	if len(views) == 0 {
		fmt.Fprintln(c.stdout, "No budgets")
		return
	}
	tw := tabwriter.NewWriter(c.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCATEGORY\tPERIOD\tSPENT\tLIMIT\tPROGRESS")
	for _, v := range views {
		b := v.Budget
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%.0f%% (%s)\n",
			b.ID, b.Category, b.Period,
			core.MoneyFromFloat(b.Spent).Format(), core.MoneyFromFloat(b.Limit).Format(),
			v.Progress.Percent, v.Progress.Level)
	}
	tw.Flush()
}

// printToast shows the notification left by the last action.
func (c *commands) printToast() {
	t := c.app.Stores.Toasts.State()
	if !t.Visible {
		return
	}
	fmt.Fprintf(c.stdout, "[%s] %s\n", strings.ToUpper(string(t.Type)), t.Message)
}

func displayName(u *core.User) string {
	if u == nil {
		return ""
	}
	if u.Name != "" {
		return u.Name
	}
	return u.Username
}

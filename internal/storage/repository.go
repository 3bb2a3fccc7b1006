package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"faktura/internal/core"

	_ "modernc.org/sqlite"
)

const createdAtLayout = "2006-01-02 15:04:05"

type SQLiteRepository struct {
	db *sql.DB
}

var _ Repository = (*SQLiteRepository)(nil)

func dsn(dbPath string) string {
	return "file:" + dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func parseStoredDate(s string) (time.Time, error) {
	t, err := time.Parse(core.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored date %q: %w", s, err)
	}
	return t, nil
}

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Recurring expenses

const recurringColumns = `id, name, amount, day_of_month, first_occurrence, active`

func scanRecurring(s rowScanner) (core.RecurringExpense, error) {
	var (
		e     core.RecurringExpense
		first string
	)
	if err := s.Scan(&e.ID, &e.Name, &e.Amount, &e.DayOfMonth, &first, &e.Active); err != nil {
		return e, err
	}
	t, err := parseStoredDate(first)
	if err != nil {
		return e, err
	}
	e.FirstOccurrence = t
	return e, nil
}

func (r *SQLiteRepository) ListRecurringExpenses(ctx context.Context) ([]core.RecurringExpense, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+recurringColumns+` FROM recurring_expenses ORDER BY day_of_month, id`)
	if err != nil {
		return nil, fmt.Errorf("list recurring expenses: %w", err)
	}
	defer rows.Close()

	var out []core.RecurringExpense
	for rows.Next() {
		e, err := scanRecurring(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recurring expense: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) GetRecurringExpense(ctx context.Context, id int64) (core.RecurringExpense, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+recurringColumns+` FROM recurring_expenses WHERE id = ?`, id)
	e, err := scanRecurring(row)
	if err != nil {
		return e, fmt.Errorf("get recurring expense %d: %w", id, notFound(err))
	}
	return e, nil
}

func (r *SQLiteRepository) CreateRecurringExpense(ctx context.Context, e core.RecurringExpense) (core.RecurringExpense, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO recurring_expenses (name, amount, day_of_month, first_occurrence, active) VALUES (?, ?, ?, ?, ?)`,
		e.Name, e.Amount.String(), e.DayOfMonth, core.FormatDate(e.FirstOccurrence), e.Active)
	if err != nil {
		return e, fmt.Errorf("create recurring expense: %w", err)
	}
	if e.ID, err = res.LastInsertId(); err != nil {
		return e, fmt.Errorf("recurring expense id: %w", err)
	}

	slog.InfoContext(ctx, "Recurring expense saved to SQLite",
		"id", e.ID,
		"name", e.Name,
		"amount", e.Amount.String(),
		"day_of_month", e.DayOfMonth)

	return e, nil
}

func (r *SQLiteRepository) UpdateRecurringExpense(ctx context.Context, e core.RecurringExpense) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE recurring_expenses SET name = ?, amount = ?, day_of_month = ?, first_occurrence = ?, active = ? WHERE id = ?`,
		e.Name, e.Amount.String(), e.DayOfMonth, core.FormatDate(e.FirstOccurrence), e.Active, e.ID)
	if err != nil {
		return fmt.Errorf("update recurring expense %d: %w", e.ID, err)
	}
	if err := checkAffected(res); err != nil {
		return fmt.Errorf("update recurring expense %d: %w", e.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteRecurringExpense(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM recurring_expenses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete recurring expense %d: %w", id, err)
	}
	if err := checkAffected(res); err != nil {
		return fmt.Errorf("delete recurring expense %d: %w", id, err)
	}
	return nil
}

// One-off expenses

const oneOffColumns = `id, name, amount, date, active`

func scanOneOff(s rowScanner) (core.OneOffExpense, error) {
	var (
		e  core.OneOffExpense
		on string
	)
	if err := s.Scan(&e.ID, &e.Name, &e.Amount, &on, &e.Active); err != nil {
		return e, err
	}
	t, err := parseStoredDate(on)
	if err != nil {
		return e, err
	}
	e.Date = t
	return e, nil
}

func (r *SQLiteRepository) ListOneOffExpenses(ctx context.Context) ([]core.OneOffExpense, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+oneOffColumns+` FROM one_off_expenses ORDER BY date, id`)
	if err != nil {
		return nil, fmt.Errorf("list one-off expenses: %w", err)
	}
	defer rows.Close()

	var out []core.OneOffExpense
	for rows.Next() {
		e, err := scanOneOff(rows)
		if err != nil {
			return nil, fmt.Errorf("scan one-off expense: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) GetOneOffExpense(ctx context.Context, id int64) (core.OneOffExpense, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+oneOffColumns+` FROM one_off_expenses WHERE id = ?`, id)
	e, err := scanOneOff(row)
	if err != nil {
		return e, fmt.Errorf("get one-off expense %d: %w", id, notFound(err))
	}
	return e, nil
}

func (r *SQLiteRepository) CreateOneOffExpense(ctx context.Context, e core.OneOffExpense) (core.OneOffExpense, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO one_off_expenses (name, amount, date, active) VALUES (?, ?, ?, ?)`,
		e.Name, e.Amount.String(), core.FormatDate(e.Date), e.Active)
	if err != nil {
		return e, fmt.Errorf("create one-off expense: %w", err)
	}
	if e.ID, err = res.LastInsertId(); err != nil {
		return e, fmt.Errorf("one-off expense id: %w", err)
	}

	slog.InfoContext(ctx, "One-off expense saved to SQLite",
		"id", e.ID,
		"name", e.Name,
		"amount", e.Amount.String(),
		"date", core.FormatDate(e.Date))

	return e, nil
}

func (r *SQLiteRepository) UpdateOneOffExpense(ctx context.Context, e core.OneOffExpense) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE one_off_expenses SET name = ?, amount = ?, date = ?, active = ? WHERE id = ?`,
		e.Name, e.Amount.String(), core.FormatDate(e.Date), e.Active, e.ID)
	if err != nil {
		return fmt.Errorf("update one-off expense %d: %w", e.ID, err)
	}
	if err := checkAffected(res); err != nil {
		return fmt.Errorf("update one-off expense %d: %w", e.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteOneOffExpense(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM one_off_expenses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete one-off expense %d: %w", id, err)
	}
	if err := checkAffected(res); err != nil {
		return fmt.Errorf("delete one-off expense %d: %w", id, err)
	}
	return nil
}

// Invoices

const invoiceColumns = `id, number, recipient_id, issue_date, due_date, status, notes, total_net, total_tax, total_gross`

func scanInvoice(s rowScanner) (core.Invoice, error) {
	var (
		inv        core.Invoice
		issue, due string
		status     string
	)
	err := s.Scan(&inv.ID, &inv.Number, &inv.RecipientID, &issue, &due, &status, &inv.Notes,
		&inv.Net, &inv.Tax, &inv.Gross)
	if err != nil {
		return inv, err
	}
	if inv.IssueDate, err = parseStoredDate(issue); err != nil {
		return inv, err
	}
	if inv.DueDate, err = parseStoredDate(due); err != nil {
		return inv, err
	}
	inv.Status = core.InvoiceStatus(status)
	return inv, nil
}

func (r *SQLiteRepository) ListInvoices(ctx context.Context, f InvoiceFilter) ([]core.Invoice, error) {
	var (
		where []string
		args  []any
	)
	if len(f.Statuses) > 0 {
		where = append(where, "status IN (?"+strings.Repeat(", ?", len(f.Statuses)-1)+")")
		for _, s := range f.Statuses {
			args = append(args, string(s))
		}
	}
	if f.RecipientID > 0 {
		where = append(where, "recipient_id = ?")
		args = append(args, f.RecipientID)
	}
	q := `SELECT ` + invoiceColumns + ` FROM invoices`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY due_date, id`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	var out []core.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) GetInvoice(ctx context.Context, id int64) (core.Invoice, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = ?`, id)
	inv, err := scanInvoice(row)
	if err != nil {
		return inv, fmt.Errorf("get invoice %d: %w", id, notFound(err))
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT position, description, quantity, unit_price, tax_rate FROM line_items WHERE invoice_id = ? ORDER BY position`, id)
	if err != nil {
		return inv, fmt.Errorf("list line items of invoice %d: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var li core.LineItem
		if err := rows.Scan(&li.Position, &li.Description, &li.Quantity, &li.UnitPrice, &li.TaxRate); err != nil {
			return inv, fmt.Errorf("scan line item: %w", err)
		}
		inv.Items = append(inv.Items, li)
	}
	return inv, rows.Err()
}

func (r *SQLiteRepository) CreateInvoice(ctx context.Context, inv core.Invoice) (core.Invoice, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return inv, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO invoices (number, recipient_id, issue_date, due_date, status, notes, total_net, total_tax, total_gross)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.Number, inv.RecipientID, core.FormatDate(inv.IssueDate), core.FormatDate(inv.DueDate),
		string(inv.Status), inv.Notes, inv.Net.String(), inv.Tax.String(), inv.Gross.String())
	if err != nil {
		return inv, fmt.Errorf("create invoice: %w", err)
	}
	if inv.ID, err = res.LastInsertId(); err != nil {
		return inv, fmt.Errorf("invoice id: %w", err)
	}

	for i := range inv.Items {
		li := &inv.Items[i]
		li.Position = i + 1
		_, err := tx.ExecContext(ctx,
			`INSERT INTO line_items (invoice_id, position, description, quantity, unit_price, tax_rate) VALUES (?, ?, ?, ?, ?, ?)`,
			inv.ID, li.Position, li.Description, li.Quantity.String(), li.UnitPrice.String(), li.TaxRate.String())
		if err != nil {
			return inv, fmt.Errorf("create line item %d: %w", li.Position, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return inv, fmt.Errorf("commit invoice: %w", err)
	}

	slog.InfoContext(ctx, "Invoice saved to SQLite",
		"id", inv.ID,
		"number", inv.Number,
		"gross", inv.Gross.String(),
		"due_date", core.FormatDate(inv.DueDate))

	return inv, nil
}

func (r *SQLiteRepository) UpdateInvoiceStatus(ctx context.Context, id int64, status core.InvoiceStatus) error {
	res, err := r.db.ExecContext(ctx, `UPDATE invoices SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("update invoice %d status: %w", id, err)
	}
	if err := checkAffected(res); err != nil {
		return fmt.Errorf("update invoice %d status: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteInvoice(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM line_items WHERE invoice_id = ?`, id); err != nil {
		return fmt.Errorf("delete line items of invoice %d: %w", id, err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM invoices WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete invoice %d: %w", id, err)
	}
	if err := checkAffected(res); err != nil {
		return fmt.Errorf("delete invoice %d: %w", id, err)
	}
	return tx.Commit()
}

func (r *SQLiteRepository) CountInvoicesIssuedBetween(ctx context.Context, from, to time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM invoices WHERE issue_date >= ? AND issue_date <= ?`,
		core.FormatDate(from), core.FormatDate(to)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count invoices: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) InvoiceNumbersWithPrefix(ctx context.Context, prefix string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT number FROM invoices WHERE substr(number, 1, length(?)) = ? ORDER BY number`,
		prefix, prefix)
	if err != nil {
		return nil, fmt.Errorf("list invoice numbers: %w", err)
	}
	defer rows.Close()

	var numbers []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scan invoice number: %w", err)
		}
		numbers = append(numbers, n)
	}
	return numbers, rows.Err()
}

func (r *SQLiteRepository) InvoiceStats(ctx context.Context, latest int) (core.DashboardStats, error) {
	stats := core.DashboardStats{GrossTotal: decimal.Zero}

	// Gross values are exact decimal strings; summing in Go avoids REAL rounding.
	rows, err := r.db.QueryContext(ctx, `SELECT total_gross FROM invoices`)
	if err != nil {
		return stats, fmt.Errorf("read invoice totals: %w", err)
	}
	for rows.Next() {
		var g decimal.Decimal
		if err := rows.Scan(&g); err != nil {
			rows.Close()
			return stats, fmt.Errorf("scan invoice total: %w", err)
		}
		stats.InvoiceCount++
		stats.GrossTotal = stats.GrossTotal.Add(g)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return stats, err
	}

	rows, err = r.db.QueryContext(ctx,
		`SELECT `+invoiceColumns+` FROM invoices ORDER BY issue_date DESC, id DESC LIMIT ?`, latest)
	if err != nil {
		return stats, fmt.Errorf("list latest invoices: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return stats, fmt.Errorf("scan invoice: %w", err)
		}
		stats.LatestInvoices = append(stats.LatestInvoices, inv)
	}
	return stats, rows.Err()
}

// Recipients

const recipientColumns = `id, name, company, email, street, postal_code, city, country, created_at`

func scanRecipient(s rowScanner) (core.Recipient, error) {
	var (
		rc      core.Recipient
		created string
	)
	if err := s.Scan(&rc.ID, &rc.Name, &rc.Company, &rc.Email, &rc.Street, &rc.PostalCode, &rc.City, &rc.Country, &created); err != nil {
		return rc, err
	}
	if t, err := time.Parse(createdAtLayout, created); err == nil {
		rc.CreatedAt = t
	}
	return rc, nil
}

func (r *SQLiteRepository) ListRecipients(ctx context.Context) ([]core.Recipient, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+recipientColumns+` FROM recipients ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list recipients: %w", err)
	}
	defer rows.Close()

	var out []core.Recipient
	for rows.Next() {
		rc, err := scanRecipient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recipient: %w", err)
		}
		out = append(out, rc)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) GetRecipient(ctx context.Context, id int64) (core.Recipient, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+recipientColumns+` FROM recipients WHERE id = ?`, id)
	rc, err := scanRecipient(row)
	if err != nil {
		return rc, fmt.Errorf("get recipient %d: %w", id, notFound(err))
	}
	return rc, nil
}

func (r *SQLiteRepository) CreateRecipient(ctx context.Context, rc core.Recipient) (core.Recipient, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO recipients (name, company, email, street, postal_code, city, country) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rc.Name, rc.Company, rc.Email, rc.Street, rc.PostalCode, rc.City, rc.Country)
	if err != nil {
		return rc, fmt.Errorf("create recipient: %w", err)
	}
	if rc.ID, err = res.LastInsertId(); err != nil {
		return rc, fmt.Errorf("recipient id: %w", err)
	}
	return r.GetRecipient(ctx, rc.ID)
}

func (r *SQLiteRepository) DeleteRecipient(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM recipients WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete recipient %d: %w", id, err)
	}
	if err := checkAffected(res); err != nil {
		return fmt.Errorf("delete recipient %d: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) CountInvoicesForRecipient(ctx context.Context, id int64) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM invoices WHERE recipient_id = ?`, id).Scan(&n); err != nil {
		return 0, fmt.Errorf("count invoices of recipient %d: %w", id, err)
	}
	return n, nil
}

// Settings

func (r *SQLiteRepository) GetSettings(ctx context.Context) (core.Settings, error) {
	var s core.Settings
	err := r.db.QueryRowContext(ctx,
		`SELECT company_name, person_name, tax_number, street, postal_code, city, country, iban, bic,
		        default_tax_rate, invoice_prefix, override_invoice_start_number, starting_balance
		 FROM settings WHERE id = ?`, core.SettingsID).
		Scan(&s.CompanyName, &s.PersonName, &s.TaxNumber, &s.Street, &s.PostalCode, &s.City, &s.Country,
			&s.IBAN, &s.BIC, &s.DefaultTaxRate, &s.InvoicePrefix, &s.OverrideInvoiceStartNumber, &s.StartingBalance)
	if err != nil {
		return s, fmt.Errorf("get settings: %w", notFound(err))
	}
	return s, nil
}

func (r *SQLiteRepository) SaveSettings(ctx context.Context, s core.Settings) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO settings (id, company_name, person_name, tax_number, street, postal_code, city, country, iban, bic,
		                       default_tax_rate, invoice_prefix, override_invoice_start_number, starting_balance)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   company_name = excluded.company_name,
		   person_name = excluded.person_name,
		   tax_number = excluded.tax_number,
		   street = excluded.street,
		   postal_code = excluded.postal_code,
		   city = excluded.city,
		   country = excluded.country,
		   iban = excluded.iban,
		   bic = excluded.bic,
		   default_tax_rate = excluded.default_tax_rate,
		   invoice_prefix = excluded.invoice_prefix,
		   override_invoice_start_number = excluded.override_invoice_start_number,
		   starting_balance = excluded.starting_balance`,
		core.SettingsID, s.CompanyName, s.PersonName, s.TaxNumber, s.Street, s.PostalCode, s.City, s.Country,
		s.IBAN, s.BIC, s.DefaultTaxRate.String(), s.InvoicePrefix, s.OverrideInvoiceStartNumber, s.StartingBalance.String())
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

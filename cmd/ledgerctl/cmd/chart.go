package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/restoreops/backend/internal/domain/finance"
	"github.com/restoreops/backend/internal/domain/ledger"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Chart is the seed file read by `ledgerctl seed`
type Chart struct {
	AccountTypes  []ChartAccountType  `yaml:"account_types"`
	Organizations []ChartOrganization `yaml:"organizations"`
	Approvers     []ChartApprover     `yaml:"approvers"`
}

// ChartAccountType declares an account type and its increase side
type ChartAccountType struct {
	Name            string `yaml:"name"`
	IncreaseIsDebit bool   `yaml:"increase_is_debit"`
}

// ChartOrganization declares an accounting organization with its accounts.
// Receivable and TaxPayable name account codes from Accounts.
type ChartOrganization struct {
	Name       string         `yaml:"name"`
	Location   string         `yaml:"location"`
	LockDay    int            `yaml:"lock_day"`
	Receivable string         `yaml:"receivable"`
	TaxPayable string         `yaml:"tax_payable"`
	Accounts   []ChartAccount `yaml:"accounts"`
}

// ChartAccount declares a GL account
type ChartAccount struct {
	Code            string `yaml:"code"`
	Name            string `yaml:"name"`
	Type            string `yaml:"type"`
	BankAccount     string `yaml:"bank_account"`
	AcceptsPayments bool   `yaml:"accepts_payments"`
	Inactive        bool   `yaml:"inactive"`
}

// ChartApprover declares a user's approval profile. Limits are decimal
// strings; an omitted limit is zero.
type ChartApprover struct {
	User               string   `yaml:"user"`
	PrimaryLocation    string   `yaml:"primary_location"`
	Locations          []string `yaml:"locations"`
	InvoiceLimit       string   `yaml:"invoice_limit"`
	CreditNoteLimit    string   `yaml:"credit_note_limit"`
	PurchaseOrderLimit string   `yaml:"purchase_order_limit"`
}

// ParseChart decodes a chart file, rejecting unknown keys
func ParseChart(r io.Reader) (*Chart, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var chart Chart
	if err := dec.Decode(&chart); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("chart file is empty")
		}
		return nil, fmt.Errorf("failed to parse chart: %w", err)
	}
	return &chart, nil
}

// ChartRepositories are the stores a chart is written to
type ChartRepositories interface {
	AccountTypeRepo() ledger.AccountTypeRepository
	GLAccountRepo() ledger.GLAccountRepository
	OrganizationRepo() finance.AccountingOrganizationRepository
}

// ApproverStore saves approval profiles
type ApproverStore interface {
	Save(ctx context.Context, approver *finance.Approver) error
}

// SeedSummary counts what a seed run wrote
type SeedSummary struct {
	AccountTypes  int `json:"account_types"`
	Organizations int `json:"organizations"`
	Accounts      int `json:"accounts"`
	Approvers     int `json:"approvers"`
}

// Apply writes the chart. Existing rows are matched by natural key (type
// name, active organization of the location, account code) and updated in
// place, so applying the same chart twice is harmless.
func (c *Chart) Apply(ctx context.Context, repos ChartRepositories, approvers ApproverStore) (*SeedSummary, error) {
	summary := &SeedSummary{}
	types := make(map[string]*ledger.AccountType, len(c.AccountTypes))

	for _, ct := range c.AccountTypes {
		at, err := repos.AccountTypeRepo().FindByName(ctx, strings.TrimSpace(ct.Name))
		if err != nil {
			return nil, err
		}
		if at == nil {
			if at, err = ledger.NewAccountType(ct.Name, ct.IncreaseIsDebit); err != nil {
				return nil, err
			}
		}
		at.IncreaseActionIsDebit = ct.IncreaseIsDebit
		if err := repos.AccountTypeRepo().Save(ctx, at); err != nil {
			return nil, fmt.Errorf("failed to save account type %s: %w", ct.Name, err)
		}
		types[at.Name] = at
		summary.AccountTypes++
	}

	for _, co := range c.Organizations {
		n, err := applyOrganization(ctx, repos, types, co)
		if err != nil {
			return nil, fmt.Errorf("organization %q: %w", co.Name, err)
		}
		summary.Organizations++
		summary.Accounts += n
	}

	for i, ca := range c.Approvers {
		approver, err := ca.toApprover()
		if err != nil {
			return nil, fmt.Errorf("approver #%d: %w", i+1, err)
		}
		if err := approvers.Save(ctx, approver); err != nil {
			return nil, fmt.Errorf("failed to save approver %s: %w", approver.UserID, err)
		}
		summary.Approvers++
	}
	return summary, nil
}

func applyOrganization(ctx context.Context, repos ChartRepositories, types map[string]*ledger.AccountType, co ChartOrganization) (int, error) {
	locationID, err := parseID("location", co.Location)
	if err != nil {
		return 0, err
	}
	org, err := repos.OrganizationRepo().FindActiveByLocation(ctx, locationID)
	if err != nil {
		return 0, err
	}
	if org == nil {
		if org, err = finance.NewAccountingOrganization(locationID, co.Name, co.LockDay); err != nil {
			return 0, err
		}
	} else {
		org.Name = strings.TrimSpace(co.Name)
		org.LockDayOfMonth = co.LockDay
	}

	// accounts need the organization id, the organization needs the
	// receivable and tax accounts, so the organization is saved twice
	if err := repos.OrganizationRepo().Save(ctx, org); err != nil {
		return 0, err
	}

	byCode := make(map[string]*ledger.GLAccount, len(co.Accounts))
	for _, ca := range co.Accounts {
		account, err := applyAccount(ctx, repos, types, org.ID, ca)
		if err != nil {
			return 0, fmt.Errorf("account %s: %w", ca.Code, err)
		}
		byCode[account.Code] = account
	}

	receivable, err := chartAccount(ctx, repos, byCode, org.ID, co.Receivable, "receivable")
	if err != nil {
		return 0, err
	}
	taxPayable, err := chartAccount(ctx, repos, byCode, org.ID, co.TaxPayable, "tax_payable")
	if err != nil {
		return 0, err
	}
	org.ReceivableAccountID = receivable.ID
	org.TaxPayableAccountID = taxPayable.ID
	if err := repos.OrganizationRepo().Save(ctx, org); err != nil {
		return 0, err
	}
	return len(co.Accounts), nil
}

func applyAccount(ctx context.Context, repos ChartRepositories, types map[string]*ledger.AccountType, orgID uuid.UUID, ca ChartAccount) (*ledger.GLAccount, error) {
	at, err := accountType(ctx, repos, types, ca.Type)
	if err != nil {
		return nil, err
	}
	account, err := repos.GLAccountRepo().FindByCode(ctx, orgID, strings.TrimSpace(ca.Code))
	if err != nil {
		return nil, err
	}
	if account == nil {
		if account, err = ledger.NewGLAccount(orgID, at, ca.Code, ca.Name); err != nil {
			return nil, err
		}
	} else {
		account.Name = strings.TrimSpace(ca.Name)
		account.AccountTypeID = at.ID
		account.AccountType = at
	}
	account.MarkAsBankAccount(ca.BankAccount)
	account.EnablePaymentsToAccount = ca.AcceptsPayments
	account.IsActive = !ca.Inactive
	if err := repos.GLAccountRepo().Save(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// accountType resolves a type declared in this chart or already stored
func accountType(ctx context.Context, repos ChartRepositories, types map[string]*ledger.AccountType, name string) (*ledger.AccountType, error) {
	name = strings.TrimSpace(name)
	if at, ok := types[name]; ok {
		return at, nil
	}
	at, err := repos.AccountTypeRepo().FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if at == nil {
		return nil, fmt.Errorf("unknown account type %q", name)
	}
	types[name] = at
	return at, nil
}

// chartAccount resolves an account code declared in this organization or
// already stored
func chartAccount(ctx context.Context, repos ChartRepositories, byCode map[string]*ledger.GLAccount, orgID uuid.UUID, code, field string) (*ledger.GLAccount, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, fmt.Errorf("%s account code is required", field)
	}
	if account, ok := byCode[code]; ok {
		return account, nil
	}
	account, err := repos.GLAccountRepo().FindByCode(ctx, orgID, code)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, fmt.Errorf("%s account %q is not defined", field, code)
	}
	return account, nil
}

func (ca ChartApprover) toApprover() (*finance.Approver, error) {
	userID, err := parseID("user", ca.User)
	if err != nil {
		return nil, err
	}
	primary, err := parseID("primary_location", ca.PrimaryLocation)
	if err != nil {
		return nil, err
	}
	locations, err := parseIDs("location", ca.Locations)
	if err != nil {
		return nil, err
	}
	approver := &finance.Approver{
		UserID:            userID,
		PrimaryLocationID: primary,
		LocationIDs:       locations,
	}
	limits := []struct {
		field string
		value string
		dst   *decimal.Decimal
	}{
		{"invoice_limit", ca.InvoiceLimit, &approver.InvoiceApproveLimit},
		{"credit_note_limit", ca.CreditNoteLimit, &approver.CreditNoteApproveLimit},
		{"purchase_order_limit", ca.PurchaseOrderLimit, &approver.PurchaseOrderApproveLimit},
	}
	for _, l := range limits {
		if strings.TrimSpace(l.value) == "" {
			*l.dst = decimal.Zero
			continue
		}
		d, err := decimal.NewFromString(strings.TrimSpace(l.value))
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", l.field, l.value, err)
		}
		if d.IsNegative() {
			return nil, fmt.Errorf("%s must not be negative", l.field)
		}
		*l.dst = d
	}
	return approver, nil
}

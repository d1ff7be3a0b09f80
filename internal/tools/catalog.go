package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/ecofinance/finagent/internal/fimcp"
	"github.com/ecofinance/finagent/internal/session"
)

// Tool names. The catalog is fixed; these constants are the single
// source of truth for dispatch, Genkit registration, and tests.
const (
	ToolAuthenticate          = "authenticate"
	ToolCheckAuth             = "check_auth"
	ToolFetchNetWorth         = "fetch_net_worth"
	ToolFetchCreditReport     = "fetch_credit_report"
	ToolFetchEPFDetails       = "fetch_epf_details"
	ToolFetchMFTransactions   = "fetch_mf_transactions"
	ToolFetchBankTransactions = "fetch_bank_transactions"
	ToolFetchStockTxns        = "fetch_stock_transactions"
	ToolGetFinancialContext   = "get_financial_context"
)

// DataToolNames lists the remote data tools in the order the
// aggregator fetches them.
var DataToolNames = []string{
	ToolFetchNetWorth,
	ToolFetchCreditReport,
	ToolFetchEPFDetails,
	ToolFetchMFTransactions,
	ToolFetchBankTransactions,
	ToolFetchStockTxns,
}

// AuthenticateInput is the model-visible input for the authenticate tool.
type AuthenticateInput struct {
	Passcode string `json:"passcode" jsonschema:"The Fi-MCP passcode that the user provides. This is usually a phone number for the dev server."`
}

// EmptyInput is the input for tools that take no arguments.
type EmptyInput struct{}

// Descriptions are carried unchanged from the Fi MCP tool surface so
// the model elects tools consistently.
var dataToolDescriptions = map[string]string{
	ToolFetchNetWorth:         "Calculate comprehensive net worth using ONLY actual data from accounts users connected on Fi Money including: Bank account balances, Mutual fund investment holdings, Indian Stocks investment holdings, Total US Stocks investment (If investing through Fi Money app), EPF account balances, Credit card debt and loan balances (if credit report connected), Any other assets/liabilities linked to Fi Money platform.",
	ToolFetchCreditReport:     "Retrieve comprehensive credit report including scores, active loans, credit card utilization, payment history, date of birth and recent inquiries from connected credit bureaus.",
	ToolFetchEPFDetails:       "Retrieve detailed EPF (Employee Provident Fund) account information including: Account balance and contributions, Employer and employee contribution history, Interest earned and credited amounts.",
	ToolFetchMFTransactions:   "Retrieve detailed transaction history from accounts connected to Fi Money platform including: Mutual fund transactions.",
	ToolFetchBankTransactions: "Retrieve detailed bank transactions for each bank account connected to Fi money platform.",
	ToolFetchStockTxns:        "Retrieve detailed indian stock transactions for all connected indian stock accounts to Fi money platform.",
}

const (
	authenticateDescription = "Authenticates the user with the Fi-MCP service using a passcode. This is the primary way to log in."
	checkAuthDescription    = "Checks if the user is currently authenticated with the Fi-MCP service. This should be the first tool called before any financial data is fetched."
	contextDescription      = "Fetch all available financial data (net worth, credit report, EPF, mutual fund, bank and stock transactions) in one call and return it as a single context block."
)

// registerCatalog installs the fixed tool set.
func (r *Registry) registerCatalog() error {
	authSchema, err := jsonschema.For[AuthenticateInput](nil)
	if err != nil {
		return fmt.Errorf("authenticate schema: %w", err)
	}
	emptySchema, err := jsonschema.For[EmptyInput](nil)
	if err != nil {
		return fmt.Errorf("empty input schema: %w", err)
	}

	if err := r.register(ToolAuthenticate, authenticateDescription, authSchema, false, r.authenticate); err != nil {
		return err
	}
	if err := r.register(ToolCheckAuth, checkAuthDescription, emptySchema, false, r.checkAuth); err != nil {
		return err
	}
	for _, name := range DataToolNames {
		if err := r.register(name, dataToolDescriptions[name], emptySchema, true, r.remoteHandler(name)); err != nil {
			return err
		}
	}
	return r.register(ToolGetFinancialContext, contextDescription, emptySchema, false, r.financialContext)
}

// authenticate stores the user-supplied passcode as the session
// credential. The remote service judges it on the next data call; a bad
// passcode simply produces another login_required there.
func (r *Registry) authenticate(ctx context.Context, actorID string, args map[string]any) (fimcp.Result, error) {
	passcode, _ := args["passcode"].(string)
	if passcode == "" {
		return fimcp.Failure("authenticate requires a non-empty passcode"), nil
	}
	if err := r.store.Set(ctx, actorID, passcode); err != nil {
		return fimcp.Result{}, fmt.Errorf("storing credential: %w", err)
	}
	r.gate.ObserveAuthenticated(actorID)
	r.logger.InfoContext(ctx, "actor authenticated", "actor_id", actorID)
	return fimcp.Ok(`{"authenticated":true}`, map[string]any{"authenticated": true}), nil
}

// checkAuth reads the live store; the answer reflects TTL expiry
// immediately because expired credentials read as absent. A credential
// adopted from a login URL but not yet confirmed by the user (gate in
// PendingLogin) does not count as logged in.
func (r *Registry) checkAuth(ctx context.Context, actorID string, _ map[string]any) (fimcp.Result, error) {
	_, ok, err := r.store.Get(ctx, actorID)
	if err != nil {
		return fimcp.Result{}, fmt.Errorf("reading credential: %w", err)
	}
	if !ok {
		r.gate.ObserveExpiry(actorID)
	}
	authed := ok && r.gate.State(actorID) != session.StatePendingLogin
	text := fmt.Sprintf(`{"authenticated":%t}`, authed)
	return fimcp.Ok(text, map[string]any{"authenticated": authed}), nil
}

// remoteHandler proxies a data tool to the Fi MCP service.
func (r *Registry) remoteHandler(name string) Handler {
	return func(ctx context.Context, actorID string, args map[string]any) (fimcp.Result, error) {
		return r.invoker.Invoke(ctx, actorID, name, args)
	}
}

// financialContext fetches every data tool sequentially and joins the
// textual payloads into one block. The first login interrupt stops the
// sweep; failed sections are noted and skipped.
func (r *Registry) financialContext(ctx context.Context, actorID string, _ map[string]any) (fimcp.Result, error) {
	var b strings.Builder
	for _, name := range DataToolNames {
		result, err := r.Dispatch(ctx, actorID, name, nil)
		if err != nil {
			return fimcp.Result{}, err
		}
		switch result.Status {
		case fimcp.StatusLoginRequired:
			return result, nil
		case fimcp.StatusFailed:
			fmt.Fprintf(&b, "## %s\nunavailable: %s\n\n", name, result.Reason)
		default:
			fmt.Fprintf(&b, "## %s\n%s\n\n", name, result.Text)
		}
	}
	return fimcp.Ok(strings.TrimRight(b.String(), "\n"), nil), nil
}

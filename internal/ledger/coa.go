package ledger

// DefaultChartOfAccounts is a minimal COA for bookkeeping workflows,
// expanded per client later.
func DefaultChartOfAccounts() map[string]Account {
	accounts := []Account{
		{"1000", "Cash", "ASSET", "DEBIT"},
		{"1060", "Bank", "ASSET", "DEBIT"},
		{"1100", "Accounts Receivable", "ASSET", "DEBIT"},
		{"2000", "Accounts Payable", "LIABILITY", "CREDIT"},
		{"2100", "GST/HST Payable", "LIABILITY", "CREDIT"},
		{"2200", "CPP Payable", "LIABILITY", "CREDIT"},
		{"2210", "EI Payable", "LIABILITY", "CREDIT"},
		{"3000", "Owner's Equity", "EQUITY", "CREDIT"},
		{"4000", "Revenue", "REVENUE", "CREDIT"},
		{"5000", "Cost of Goods Sold", "EXPENSE", "DEBIT"},
		{"6100", "Office Supplies", "EXPENSE", "DEBIT"},
		{"6200", "Meals & Entertainment", "EXPENSE", "DEBIT"},
		{"6300", "Travel", "EXPENSE", "DEBIT"},
		{"6400", "Vehicle Expense", "EXPENSE", "DEBIT"},
		{"6500", "Advertising & Marketing", "EXPENSE", "DEBIT"},
		{"6600", "Professional Fees", "EXPENSE", "DEBIT"},
		{"6700", "Rent", "EXPENSE", "DEBIT"},
		{"6800", "Utilities", "EXPENSE", "DEBIT"},
		{"6900", "Wages Expense", "EXPENSE", "DEBIT"},
	}
	coa := make(map[string]Account, len(accounts))
	for _, a := range accounts {
		coa[a.Code] = a
	}
	return coa
}

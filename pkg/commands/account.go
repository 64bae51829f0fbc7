package commands

// OpenAccount registers a new active account with a zero balance.
type OpenAccount struct {
	BankCode      string
	AccountNumber string
}

// CloseAccount deactivates an account whose balance is zero.
type CloseAccount struct {
	BankCode      string
	AccountNumber string
}

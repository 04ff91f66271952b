package domain

// ValueStore identifies where an asset lives. Only Bridge transactions
// reference value stores.
type ValueStore interface {
	// Location returns a human-readable description of the store.
	Location() string
}

// Cex is a centralized exchange account.
type Cex struct {
	Name string
}

func (c Cex) Location() string { return c.Name }

// Wallet is an on-chain wallet on a specific network.
type Wallet struct {
	Name    string
	Network string
	Address string
}

func (w Wallet) Location() string { return w.Name + "@" + w.Network }

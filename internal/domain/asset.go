package domain

// Asset identifies a tradable asset by its ticker name.
// Identity is the name only; contract addresses are informational and
// never used for matching.
type Asset struct {
	Name            string // ticker, e.g. "ETH", "USDT", "EUR"
	ContractAddress string // optional on-chain address, empty if unknown
}

// NewAsset creates an Asset with the given ticker name.
func NewAsset(name string) Asset {
	return Asset{Name: name}
}

// Is reports whether the asset has the given ticker name.
func (a Asset) Is(name string) bool {
	return a.Name == name
}

// Amount is a quantity of a specific asset.
// A negative quantity denotes an outflow from the acting account; it only
// appears transiently while pairing legs. Finalized trades store unsigned
// quantities with direction implied by source/destination position.
type Amount struct {
	Amount float64
	Asset  Asset
}

// Commission is a fee expressed both in its native asset and as a
// fiat-equivalent value. USDAmount may be a fiat-pegged approximation
// (e.g. USDT commission taken at face value).
type Commission struct {
	Amount    Amount
	USDAmount float64
}

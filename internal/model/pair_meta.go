package model

// PairMeta captures immutable pair metadata.
type PairMeta struct {
	Token0 string `json:"token0"`
	Token1 string `json:"token1"`
}

// PairView is a pair with resolved symbols and current reserves,
// amounts formatted as 18-decimal strings.
type PairView struct {
	Address  string `json:"address"`
	Symbol0  string `json:"symbol0"`
	Symbol1  string `json:"symbol1"`
	Reserve0 string `json:"reserve0"`
	Reserve1 string `json:"reserve1"`
}

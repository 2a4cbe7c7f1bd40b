package model

import "time"

// ActivityEntry records one executed mutating action.
type ActivityEntry struct {
	Type        string    `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	PoolAddress string    `json:"pool_address"`
	Token0      string    `json:"token0"`
	Token1      string    `json:"token1"`
	Amount0     string    `json:"amount0"`
	Amount1     string    `json:"amount1"`
	TxHash      string    `json:"tx_hash"`
}

package enums

import "fmt"

// WalletTransactionType classifies entries in the coin wallet ledger.
type WalletTransactionType string

const (
	WalletTransactionTypeRefund     WalletTransactionType = "refund"
	WalletTransactionTypeReward     WalletTransactionType = "reward"
	WalletTransactionTypeRedemption WalletTransactionType = "redemption"
	WalletTransactionTypeAdjustment WalletTransactionType = "adjustment"
)

var validWalletTransactionTypes = []WalletTransactionType{
	WalletTransactionTypeRefund,
	WalletTransactionTypeReward,
	WalletTransactionTypeRedemption,
	WalletTransactionTypeAdjustment,
}

// IsValid reports whether the value matches the canonical wallet transaction type enum.
func (w WalletTransactionType) IsValid() bool {
	for _, candidate := range validWalletTransactionTypes {
		if candidate == w {
			return true
		}
	}
	return false
}

// ParseWalletTransactionType converts the raw string to WalletTransactionType.
func ParseWalletTransactionType(value string) (WalletTransactionType, error) {
	for _, candidate := range validWalletTransactionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid wallet transaction type %q", value)
}

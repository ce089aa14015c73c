package chain

import (
	"math/big"
	"strings"

	sandboxerr "github.com/mrz1836/phantom-sandbox/pkg/errors"
)

// ErrInvalidAmount indicates an amount string could not be parsed.
var ErrInvalidAmount = &sandboxerr.SandboxError{
	Code:     "INVALID_AMOUNT",
	Message:  "invalid amount format",
	ExitCode: sandboxerr.ExitInput,
}

// ParseDecimalAmount parses a decimal amount string to big.Int with the given decimal places.
// For example, "1.5" with 9 decimals returns 1500000000.
//
//nolint:gocognit,gocyclo // Decimal parsing requires sequential validation steps
func ParseDecimalAmount(amount string, decimalPlaces int, invalidAmountErr error) (*big.Int, error) {
	if amount == "" || strings.HasPrefix(amount, "-") {
		return nil, invalidAmountErr
	}

	parts := strings.Split(amount, ".")
	if len(parts) > 2 {
		return nil, invalidAmountErr
	}

	intPart := parts[0]
	decPart := ""
	if len(parts) == 2 {
		decPart = parts[1]
	}

	if intPart == "" {
		intPart = "0"
	}
	intVal, ok := new(big.Int).SetString(intPart, 10)
	if !ok {
		return nil, invalidAmountErr
	}

	multiplier := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimalPlaces)), nil)
	result := new(big.Int).Mul(intVal, multiplier)

	if decPart != "" {
		for _, c := range decPart {
			if c < '0' || c > '9' {
				return nil, invalidAmountErr
			}
		}

		// Pad or truncate to the unit precision
		for len(decPart) < decimalPlaces {
			decPart += "0"
		}
		decPart = decPart[:decimalPlaces]

		if decPart != "" {
			decVal, ok := new(big.Int).SetString(decPart, 10)
			if !ok {
				return nil, invalidAmountErr
			}
			result = result.Add(result, decVal)
		}
	}

	return result, nil
}

// FormatDecimalAmount converts a big.Int to a human-readable string with the given decimal places.
// Trailing zeros after the decimal point are removed.
// For example, 1500000000 with 9 decimals returns "1.5".
func FormatDecimalAmount(amount *big.Int, decimalPlaces int) string {
	if amount == nil {
		return "0"
	}

	str := amount.String()
	for len(str) <= decimalPlaces {
		str = "0" + str
	}

	decimalPos := len(str) - decimalPlaces
	result := str[:decimalPos] + "." + str[decimalPos:]

	for len(result) > 1 && result[len(result)-1] == '0' && result[len(result)-2] != '.' {
		result = result[:len(result)-1]
	}

	return result
}

// FormatLamports renders a lamport amount as SOL.
func FormatLamports(lamports uint64) string {
	return FormatDecimalAmount(new(big.Int).SetUint64(lamports), Decimals)
}

// ParseSOL parses a SOL amount into lamports.
func ParseSOL(amount string) (uint64, error) {
	v, err := ParseDecimalAmount(amount, Decimals, ErrInvalidAmount)
	if err != nil {
		return 0, err
	}
	if !v.IsUint64() {
		return 0, ErrInvalidAmount
	}
	return v.Uint64(), nil
}

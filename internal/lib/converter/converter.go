package converter

import "strconv"

// Amounts are stored as int64 cents everywhere past the API boundary.

func ConvertAmountFloatToInt(amount float64) int64 {
	if amount >= 0 {
		return int64(amount*100 + 0.5)
	}

	return int64(amount*100 - 0.5)
}

func ConvertAmountIntToFloat(amount int64) float64 {
	return float64(amount) / 100
}

func ConvertAmountIntToString(amount int64) string {
	return strconv.FormatFloat(ConvertAmountIntToFloat(amount), 'f', 2, 64)
}

package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseBet turns a user-supplied bet string into a chip amount against the
// player's current balance. Accepts plain integers, "all"/"allin"/"max",
// "half", percentages like "25%", and k/m suffixes like "10k".
func ParseBet(betStr string, balance int64) (int64, error) {
	betStr = strings.TrimSpace(strings.ToLower(betStr))
	betStr = strings.ReplaceAll(betStr, ",", "")
	betStr = strings.ReplaceAll(betStr, "_", "")

	switch betStr {
	case "all", "allin", "max":
		return balance, nil
	case "half":
		return balance / 2, nil
	}

	if strings.HasSuffix(betStr, "%") {
		percentStr := strings.TrimSuffix(betStr, "%")
		percent, err := strconv.ParseFloat(percentStr, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid percentage: %s", betStr)
		}
		if percent < 0 || percent > 100 {
			return 0, fmt.Errorf("percentage must be between 0 and 100")
		}
		return int64(float64(balance) * percent / 100), nil
	}

	multiplier := int64(1)
	if strings.HasSuffix(betStr, "k") {
		multiplier = 1000
		betStr = strings.TrimSuffix(betStr, "k")
	} else if strings.HasSuffix(betStr, "m") {
		multiplier = 1000000
		betStr = strings.TrimSuffix(betStr, "m")
	}

	bet, err := strconv.ParseInt(betStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid bet amount: %s", betStr)
	}

	return bet * multiplier, nil
}

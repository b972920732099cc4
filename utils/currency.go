package utils

import (
	"strings"

	"github.com/shopspring/decimal"
)

const rupeeSign = "₹"

// FormatINR форматирует сумму в рупиях с индийской группировкой разрядов: ₹12,34,567.89
func FormatINR(amount decimal.Decimal) string {
	fixed := amount.StringFixed(2)

	sign := ""
	if strings.HasPrefix(fixed, "-") {
		fixed = fixed[1:]
		// -0.00 после округления печатается без знака
		if strings.Trim(fixed, "0.") != "" {
			sign = "-"
		}
	}

	intPart, fracPart, _ := strings.Cut(fixed, ".")
	return sign + rupeeSign + groupIndian(intPart) + "." + fracPart
}

// groupIndian расставляет запятые: последние три цифры, затем группы по две
func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}

	head := digits[:len(digits)-3]
	tail := digits[len(digits)-3:]

	var groups []string
	for len(head) > 2 {
		groups = append([]string{head[len(head)-2:]}, groups...)
		head = head[:len(head)-2]
	}
	groups = append([]string{head}, groups...)

	return strings.Join(groups, ",") + "," + tail
}

package utils

import (
	"fmt"
	"math/big"
	"regexp"
	"strings"
)

// 金额统一以字符串十进制存储，最多两位小数
var amountRe = regexp.MustCompile(`^-?\d{1,13}(\.\d{1,2})?$`)

func IsAmount(s string) bool { return amountRe.MatchString(strings.TrimSpace(s)) }

func ParseAmount(s string) (*big.Rat, error) {
	s = strings.TrimSpace(s)
	if !amountRe.MatchString(s) {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	return r, nil
}

// FormatAmount 固定两位小数
func FormatAmount(r *big.Rat) string {
	if r == nil {
		return "0.00"
	}
	return r.FloatString(2)
}

// SumAmounts 非法金额直接报错，不静默跳过
func SumAmounts(amounts ...string) (*big.Rat, error) {
	total := new(big.Rat)
	for _, a := range amounts {
		r, err := ParseAmount(a)
		if err != nil {
			return nil, err
		}
		total.Add(total, r)
	}
	return total, nil
}

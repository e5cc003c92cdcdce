package field

import (
	"math/big"
	"sort"
	"strings"

	mserr "github.com/mrz1836/multisecret/pkg/errors"
)

// Named primes accepted wherever a modulus is configured.
//
//nolint:gochecknoglobals // read-only preset table
var namedPrimes = map[string]string{
	"p256":     "115792089210356248762697446949407573530086143415290314195533631308867097853951",
	"15487469": "15487469",
	"4099":     "4099",
	"1009":     "1009",
}

// DefaultPrime is the preset used when no modulus is configured.
const DefaultPrime = "p256"

// PrimeNames lists the named presets in a stable order.
func PrimeNames() []string {
	names := make([]string, 0, len(namedPrimes))
	for name := range namedPrimes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParsePrime resolves a preset name, a decimal number, or a 0x-prefixed hex
// number. The result is not checked for primality; New does that.
func ParsePrime(s string) (*big.Int, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		s = DefaultPrime
	}
	if v, ok := namedPrimes[s]; ok {
		s = v
	}

	base := 10
	if strings.HasPrefix(s, "0x") {
		s, base = s[2:], 16
	}
	p, ok := new(big.Int).SetString(s, base)
	if !ok {
		return nil, mserr.WithSuggestion(
			mserr.WithDetails(mserr.ErrInvalidModulus, map[string]string{"prime": s}),
			"use a decimal or 0x-prefixed number, or one of: "+strings.Join(PrimeNames(), ", "),
		)
	}
	return p, nil
}

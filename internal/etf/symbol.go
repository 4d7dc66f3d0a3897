package etf

import (
	"fmt"
	"strings"
)

// Symbol is the canonical instrument identifier used throughout the
// pipeline and on disk: "sh.510300" or "sz.159915". Vendor clients
// derive their own code formats from it.
type Symbol string

// ParseSymbol normalizes a user- or vendor-supplied code to the
// canonical form. Bare six-digit codes are classified by the first
// digit: 5 is Shanghai, everything else Shenzhen.
func ParseSymbol(raw string) (Symbol, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return "", fmt.Errorf("empty symbol")
	}

	switch {
	case strings.HasPrefix(s, "sh.") || strings.HasPrefix(s, "sz."):
		// Already canonical.
	case strings.HasPrefix(s, "sh") || strings.HasPrefix(s, "sz"):
		s = s[:2] + "." + s[2:]
	case strings.HasPrefix(s, "5"):
		s = "sh." + s
	default:
		s = "sz." + s
	}

	code := s[3:]
	if len(code) != 6 {
		return "", fmt.Errorf("symbol %q: code must be six digits", raw)
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("symbol %q: code must be six digits", raw)
		}
	}
	return Symbol(s), nil
}

// Code returns the bare six-digit code, e.g. "510300".
func (s Symbol) Code() string {
	str := string(s)
	if i := strings.IndexByte(str, '.'); i >= 0 {
		return str[i+1:]
	}
	return str
}

// Exchange returns "sh" or "sz".
func (s Symbol) Exchange() string {
	str := string(s)
	if i := strings.IndexByte(str, '.'); i >= 0 {
		return str[:i]
	}
	return ""
}

// SinaCode returns the prefix-joined form Sina expects, "sh510300".
func (s Symbol) SinaCode() string {
	return s.Exchange() + s.Code()
}

// TushareCode returns the suffix form Tushare expects, "510300.SH".
func (s Symbol) TushareCode() string {
	return s.Code() + "." + strings.ToUpper(s.Exchange())
}

// EastmoneySecID returns Eastmoney's market-qualified id, "1.510300"
// for Shanghai and "0.159915" for Shenzhen.
func (s Symbol) EastmoneySecID() string {
	if s.Exchange() == "sh" {
		return "1." + s.Code()
	}
	return "0." + s.Code()
}

// FileStem returns the on-disk name component, "sh.510300".
func (s Symbol) FileStem() string {
	return string(s)
}

func (s Symbol) String() string { return string(s) }

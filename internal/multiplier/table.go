package multiplier

import (
	"context"
	"fmt"
	"os"

	"github.com/attaboy/playerdata/internal/domain"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Rule is the configured factor set for one currency.
type Rule struct {
	Default decimal.Decimal
	Reasons map[string]decimal.Decimal
}

// Table is a static, per-currency multiplier configuration.
type Table struct {
	rules map[domain.Currency]Rule
}

type ruleFile struct {
	Default string            `yaml:"default"`
	Reasons map[string]string `yaml:"reasons"`
}

// LoadTable reads a YAML multiplier table from disk.
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read multiplier table: %w", err)
	}
	t, err := ParseTable(data)
	if err != nil {
		return nil, fmt.Errorf("parse multiplier table %s: %w", path, err)
	}
	return t, nil
}

// ParseTable decodes a YAML multiplier table. Unknown currencies and negative
// factors are rejected. A currency without a default uses 1.
func ParseTable(data []byte) (*Table, error) {
	var raw map[string]ruleFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}

	t := &Table{rules: make(map[domain.Currency]Rule, len(raw))}
	for name, rf := range raw {
		currency, err := domain.ParseCurrency(name)
		if err != nil {
			return nil, err
		}
		rule := Rule{Default: decimal.NewFromInt(1), Reasons: make(map[string]decimal.Decimal, len(rf.Reasons))}
		if rf.Default != "" {
			if rule.Default, err = parseFactor(rf.Default); err != nil {
				return nil, fmt.Errorf("%s default: %w", currency, err)
			}
		}
		for reason, v := range rf.Reasons {
			m, err := parseFactor(v)
			if err != nil {
				return nil, fmt.Errorf("%s reason %q: %w", currency, reason, err)
			}
			rule.Reasons[reason] = m
		}
		t.rules[currency] = rule
	}
	return t, nil
}

func parseFactor(s string) (decimal.Decimal, error) {
	m, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, domain.ErrInvalidArgument(fmt.Sprintf("invalid multiplier %q", s))
	}
	if m.IsNegative() {
		return decimal.Zero, domain.ErrInvalidArgument(fmt.Sprintf("multiplier must not be negative, got %s", s))
	}
	return m, nil
}

// MultiplierFor returns the reason override when present, else the currency default.
func (t *Table) MultiplierFor(_ context.Context, currency domain.Currency, reason string) (decimal.Decimal, error) {
	rule, ok := t.rules[currency]
	if !ok {
		return decimal.NewFromInt(1), nil
	}
	if m, ok := rule.Reasons[reason]; ok {
		return m, nil
	}
	return rule.Default, nil
}

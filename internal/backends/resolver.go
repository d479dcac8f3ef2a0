// Package backends routes a model identifier to the backend that serves it.
//
// Models are mapped to categories by an ordered list of prefix rules taken
// from configuration. Each category has one registered Callable and a
// per-call timeout.
package backends

import "strings"

// Rule maps model identifiers starting with Prefix to Category.
type Rule struct {
	Prefix   string `mapstructure:"prefix" yaml:"prefix" validate:"required"`
	Category string `mapstructure:"category" yaml:"category" validate:"required"`
}

// Resolver maps a model identifier to a category name.
type Resolver struct {
	rules           []Rule
	defaultCategory string
}

// NewResolver returns a Resolver that tries rules in order.
func NewResolver(rules []Rule, defaultCategory string) *Resolver {
	rs := make([]Rule, len(rules))
	copy(rs, rules)
	return &Resolver{rules: rs, defaultCategory: defaultCategory}
}

// Resolve returns the category of the first rule whose prefix matches model,
// case-insensitively, or the default category when none match.
func (r *Resolver) Resolve(model string) string {
	m := strings.ToLower(strings.TrimSpace(model))
	for _, rule := range r.rules {
		if strings.HasPrefix(m, strings.ToLower(rule.Prefix)) {
			return rule.Category
		}
	}
	return r.defaultCategory
}

// Rules returns a copy of the configured rules.
func (r *Resolver) Rules() []Rule {
	out := make([]Rule, len(r.rules))
	copy(out, r.rules)
	return out
}

// DefaultCategory returns the fallback category.
func (r *Resolver) DefaultCategory() string {
	return r.defaultCategory
}

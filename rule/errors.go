package rule

import (
	"errors"
	"fmt"
)

// errMultipleHeaderConditions reports a HeaderSource that sets more than
// one of Value, Regex, NotExist; exactly one is a valid condition.
var errMultipleHeaderConditions = errors.New("header source sets more than one of value, regex, notExist")

// InvalidRuleError reports that a Rule was rejected during Compile: a
// malformed regex, a missing required source field, or a duplicate id. The
// offending rule is dropped; other rules in the same batch still load.
type InvalidRuleError struct {
	RuleId string
	Reason string
	Err    error
}

func (e *InvalidRuleError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid rule %q: %s: %v", e.RuleId, e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid rule %q: %s", e.RuleId, e.Reason)
}

func (e *InvalidRuleError) Unwrap() error { return e.Err }

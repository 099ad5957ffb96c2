package rule

import (
	"regexp"
	"strings"

	"github.com/redirectionio/routecore/regexradix"
)

// Compile compiles a batch of Rules into Routes. Rules that fail to
// compile (malformed regex, missing required fields, duplicate id) are
// collected as errors and dropped; every other rule in the batch still
// loads, per the "other rules still load" contract.
func Compile(rules []*Rule) ([]*Route, []error) {
	var routes []*Route
	var errs []error
	seen := make(map[string]struct{}, len(rules))

	for _, r := range rules {
		if r.Id == "" {
			errs = append(errs, &InvalidRuleError{RuleId: r.Id, Reason: "missing id"})
			continue
		}
		if _, dup := seen[r.Id]; dup {
			errs = append(errs, &InvalidRuleError{RuleId: r.Id, Reason: "duplicate id"})
			continue
		}
		if r.Source.PathAndQuery == "" {
			errs = append(errs, &InvalidRuleError{RuleId: r.Id, Reason: "missing source.pathAndQuery"})
			continue
		}

		route, err := compileOne(r)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		seen[r.Id] = struct{}{}
		routes = append(routes, route)
	}

	return routes, errs
}

func compileOne(r *Rule) (*Route, error) {
	path, err := compilePattern(r.Source.PathAndQuery, r.Transformers)
	if err != nil {
		return nil, &InvalidRuleError{RuleId: r.Id, Reason: "invalid source.pathAndQuery", Err: err}
	}

	var host *Pattern
	if r.Source.Host != "" {
		h, err := compilePattern(r.Source.Host, r.Transformers)
		if err != nil {
			return nil, &InvalidRuleError{RuleId: r.Id, Reason: "invalid source.host", Err: err}
		}
		host = &h
	}

	var methods map[string]struct{}
	if len(r.Source.Methods) > 0 {
		methods = make(map[string]struct{}, len(r.Source.Methods))
		for _, m := range r.Source.Methods {
			methods[strings.ToUpper(m)] = struct{}{}
		}
	}

	headers := make([]HeaderCondition, 0, len(r.Source.Headers))
	for _, hs := range r.Source.Headers {
		cond, err := compileHeaderCondition(hs)
		if err != nil {
			return nil, &InvalidRuleError{RuleId: r.Id, Reason: "invalid header condition for " + hs.Name, Err: err}
		}
		headers = append(headers, cond)
	}

	return &Route{
		Id:           r.Id,
		Priority:     r.Priority,
		Scheme:       strings.ToLower(r.Source.Scheme),
		Host:         host,
		PathAndQuery: path,
		Methods:      methods,
		Headers:      headers,
		Rule:         r,
	}, nil
}

// compilePattern classifies source as Static or Dynamic and, for a Dynamic
// source, compiles its regex and captures its named groups. A source is
// Static when it has no regex metacharacter, or when it is a literal path,
// a "?" and a literal query: that "?" is read as the query separator. A
// transformer is attached to a capture when transformers names it by its
// capture name.
func compilePattern(source string, transformers map[string]string) (Pattern, error) {
	if regexradix.LiteralPrefix(source) == source {
		return Pattern{Kind: Static, Literal: source}, nil
	}
	if path, query, ok := strings.Cut(source, "?"); ok && path != "" &&
		regexradix.LiteralPrefix(path) == path && regexradix.LiteralPrefix(query) == query {
		return Pattern{Kind: Static, Literal: source}, nil
	}

	re, err := regexp.Compile(source)
	if err != nil {
		return Pattern{}, err
	}

	var captures []Capture
	for _, name := range re.SubexpNames() {
		if name == "" {
			continue
		}
		captures = append(captures, Capture{Name: name, Transformer: transformers[name]})
	}

	return Pattern{Kind: Dynamic, Source: source, Regex: re, Captures: captures}, nil
}

func compileHeaderCondition(hs HeaderSource) (HeaderCondition, error) {
	name := strings.ToLower(hs.Name)

	set := 0
	if hs.NotExist {
		set++
	}
	if hs.Regex != "" {
		set++
	}
	if hs.Value != "" {
		set++
	}
	if set > 1 {
		return HeaderCondition{}, errMultipleHeaderConditions
	}

	if hs.NotExist {
		return HeaderCondition{Name: name, Kind: CondNotExist}, nil
	}
	if hs.Regex != "" {
		re, err := regexp.Compile(hs.Regex)
		if err != nil {
			return HeaderCondition{}, err
		}
		return HeaderCondition{Name: name, Kind: CondRegex, Source: hs.Regex, Regex: re}, nil
	}
	return HeaderCondition{Name: name, Kind: CondStatic, Value: hs.Value}, nil
}

package internal

import (
	"fmt"
	"log"
	"strings"

	"github.com/Knetic/govaluate"
	"github.com/PaesslerAG/jsonpath"
)

// Rule routes rendered lines for matching deliveries to an extra topic.
// When is either a govaluate expression over the flattened payload
// (`repository.name == "notifico"`) or, with a "jsonpath:" prefix, a JSONPath
// that matches when it resolves to a truthy value. Dotted field references
// are rewritten to govaluate's bracket-escaped parameter form at compile
// time, so both `repository.name` and `[repository.name]` work.
type Rule struct {
	When    string   `yaml:"when"`
	Topic   string   `yaml:"topic"`
	Drivers []string `yaml:"drivers"`
}

// RuleMatch is one matched routing target.
type RuleMatch struct {
	Topic   string
	Drivers []string
}

const jsonPathPrefix = "jsonpath:"

type compiledRule struct {
	topic   string
	drivers []string
	expr    *govaluate.EvaluableExpression
	path    string
}

// RuleEngine evaluates routing rules against incoming deliveries. Rules are
// compiled once at startup; evaluation is read-only and concurrency-safe.
type RuleEngine struct {
	rules  []compiledRule
	logger *log.Logger
}

// RulesConfig carries the rule section of the configuration.
type RulesConfig struct {
	Rules  []Rule `yaml:"rules"`
	Strict bool   `yaml:"rules_strict"`
	Logger *log.Logger
}

func NewRuleEngine(cfg RulesConfig) (*RuleEngine, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	rules := make([]compiledRule, 0, len(cfg.Rules))
	for i, rule := range cfg.Rules {
		compiled := compiledRule{topic: rule.Topic, drivers: rule.Drivers}
		if path, ok := strings.CutPrefix(rule.When, jsonPathPrefix); ok {
			compiled.path = strings.TrimSpace(path)
			if compiled.path == "" {
				return nil, fmt.Errorf("rule %d: empty jsonpath", i)
			}
		} else {
			expr, err := govaluate.NewEvaluableExpression(escapeDottedFields(rule.When))
			if err != nil {
				return nil, fmt.Errorf("rule %d: %w", i, err)
			}
			compiled.expr = expr
		}
		rules = append(rules, compiled)
	}
	return &RuleEngine{rules: rules, logger: logger}, nil
}

// Evaluate returns the routing targets matched by event. Evaluation errors
// (missing fields, type mismatches) count as no-match and are logged, never
// surfaced: a rule that cannot be evaluated must not block delivery to the
// hook's own channels.
func (r *RuleEngine) Evaluate(event Event) []RuleMatch {
	if r == nil || len(r.rules) == 0 {
		return nil
	}
	matches := make([]RuleMatch, 0, 1)
	for _, rule := range r.rules {
		if rule.matches(event, r.logger) {
			matches = append(matches, RuleMatch{Topic: rule.topic, Drivers: rule.drivers})
		}
	}
	return matches
}

func (c compiledRule) matches(event Event, logger *log.Logger) bool {
	if c.path != "" {
		got, err := jsonpath.Get(c.path, event.RawObject)
		if err != nil {
			return false
		}
		return truthy(got)
	}
	result, err := c.expr.Evaluate(event.Data)
	if err != nil {
		logger.Printf("rule eval failed: %v", err)
		return false
	}
	ok, _ := result.(bool)
	return ok
}

// escapeDottedFields rewrites bare dotted identifiers (repository.name) into
// govaluate's bracket-escaped parameter form ([repository.name]), which is the
// only way govaluate accepts a parameter name containing a dot. String
// literals and already-escaped parameters pass through untouched.
func escapeDottedFields(expr string) string {
	var b strings.Builder
	b.Grow(len(expr) + 8)
	for i := 0; i < len(expr); {
		c := expr[i]
		switch {
		case c == '\'' || c == '"':
			j := i + 1
			for j < len(expr) {
				if expr[j] == '\\' && j+1 < len(expr) {
					j += 2
					continue
				}
				if expr[j] == c {
					j++
					break
				}
				j++
			}
			b.WriteString(expr[i:j])
			i = j
		case c == '[':
			end := strings.IndexByte(expr[i:], ']')
			if end < 0 {
				b.WriteString(expr[i:])
				return b.String()
			}
			b.WriteString(expr[i : i+end+1])
			i += end + 1
		case isIdentStart(c):
			j := i + 1
			dotted := false
			for j < len(expr) {
				if isIdentByte(expr[j]) {
					j++
					continue
				}
				if expr[j] == '.' && j+1 < len(expr) && isIdentStart(expr[j+1]) {
					dotted = true
					j += 2
					continue
				}
				break
			}
			if dotted {
				b.WriteByte('[')
				b.WriteString(expr[i:j])
				b.WriteByte(']')
			} else {
				b.WriteString(expr[i:j])
			}
			i = j
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String()
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentByte(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func truthy(v interface{}) bool {
	switch typed := v.(type) {
	case nil:
		return false
	case bool:
		return typed
	case string:
		return typed != ""
	case float64:
		return typed != 0
	case []interface{}:
		return len(typed) > 0
	default:
		return true
	}
}

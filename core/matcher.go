package core

import "strings"

// RoutingKeyMatcher determines whether a routing key matches a pattern.
type RoutingKeyMatcher interface {
	Match(pattern string, routingKey string) bool
}

// TopicMatcher matches routing keys the way a topic exchange matches
// binding keys. Words are separated by dots, "*" stands for exactly one
// word and "#" for zero or more words.
//
// Examples:
//
//	"orders.created" matches "orders.created"
//	"orders.*"       matches "orders.created"
//	"orders.*"       does NOT match "orders" or "orders.us.created"
//	"orders.#"       matches "orders" and "orders.us.created"
//	"#.failed"       matches "failed" and "billing.eu.failed"
//	"#"              matches "", "*" does not
type TopicMatcher struct{}

func (TopicMatcher) Match(pattern, routingKey string) bool {
	return matchWords(words(pattern), words(routingKey))
}

// words splits on dots. The empty string has no words.
func words(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ".")
}

func matchWords(pat, key []string) bool {
	for len(pat) > 0 {
		switch pat[0] {
		case "#":
			for len(pat) > 1 && pat[1] == "#" {
				pat = pat[1:]
			}
			// # at the end matches all remaining words
			if len(pat) == 1 {
				return true
			}
			for i := 0; i <= len(key); i++ {
				if matchWords(pat[1:], key[i:]) {
					return true
				}
			}
			return false
		case "*":
			if len(key) == 0 {
				return false
			}
		default:
			if len(key) == 0 || pat[0] != key[0] {
				return false
			}
		}
		pat, key = pat[1:], key[1:]
	}
	return len(key) == 0
}

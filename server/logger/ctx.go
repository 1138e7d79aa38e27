package logger

import (
	"sort"
	"time"
)

// Ctx holds the key/value pairs attached to a message.
type Ctx map[string]interface{}

// WithCtx merges newCtx into a copy of c. Keys in newCtx win. Neither map is
// modified.
func (c Ctx) WithCtx(newCtx Ctx) Ctx {
	switch {
	case len(newCtx) == 0 && c == nil:
		return newCtx
	case len(newCtx) == 0:
		return c
	case c == nil:
		return newCtx
	}

	ret := make(Ctx, len(c)+len(newCtx))

	for _, src := range []Ctx{c, newCtx} {
		for k, v := range src {
			ret[k] = v
		}
	}

	return ret
}

// SortedKeys returns the keys of c in lexical order.
func (c Ctx) SortedKeys() []string {
	keys := make([]string, 0, len(c))

	for k := range c {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

// Message is a single log entry passed to a Formatter.
type Message struct {
	Timestamp time.Time
	// Namespace is the colon separated namespace of the logger.
	Namespace string
	Level     Level
	Body      string
	Ctx       Ctx
}

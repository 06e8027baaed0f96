// Package useragent picks User-Agent strings for outgoing requests and browser sessions.
package useragent

import (
	"math/rand/v2"

	fakeua "github.com/EDDYCJY/fake-useragent"
)

// Picker returns a random User-Agent on every call.
type Picker struct {
	pool []string
}

// NewPicker draws from pool when it is non-empty and from a generated
// desktop browser list otherwise.
func NewPicker(pool []string) *Picker {
	return &Picker{pool: pool}
}

// Pick returns a User-Agent string.
func (p *Picker) Pick() string {
	if p != nil && len(p.pool) > 0 {
		return p.pool[rand.IntN(len(p.pool))]
	}
	if ua := fakeua.Random(); ua != "" {
		return ua
	}
	return fakeua.Chrome()
}

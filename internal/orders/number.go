package orders

import (
	"strconv"
	"sync"
	"time"
)

// NumberGenerator issues order numbers of the form <prefix><unix millis>.
// Two calls in the same millisecond get consecutive tokens.
type NumberGenerator struct {
	prefix string
	now    func() time.Time

	mu   sync.Mutex
	last int64
}

func NewNumberGenerator(prefix string) *NumberGenerator {
	return &NumberGenerator{prefix: prefix, now: time.Now}
}

func (g *NumberGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	token := g.now().UnixMilli()
	if token <= g.last {
		token = g.last + 1
	}
	g.last = token
	return g.prefix + strconv.FormatInt(token, 10)
}

package checkout

import (
	"fmt"
	"math/rand/v2"
)

// Challenge is a small arithmetic question shown at checkout. It is an
// immutable value: the operands and the expected answer are picked together
// and the whole value is replaced on regeneration, so question and answer
// can never get out of step.
type Challenge struct {
	A      int    `json:"a"`
	B      int    `json:"b"`
	Op     string `json:"op"`
	Answer int    `json:"answer"`
}

// NewChallenge picks two operands in 1..10 and an operator. Operands are
// ordered so subtraction never goes negative.
func NewChallenge() Challenge {
	a := rand.IntN(10) + 1
	b := rand.IntN(10) + 1

	switch rand.IntN(3) {
	case 0:
		return Challenge{A: a, B: b, Op: "+", Answer: a + b}
	case 1:
		if a < b {
			a, b = b, a
		}
		return Challenge{A: a, B: b, Op: "-", Answer: a - b}
	default:
		return Challenge{A: a, B: b, Op: "×", Answer: a * b}
	}
}

func (c Challenge) Question() string {
	return fmt.Sprintf("%d %s %d", c.A, c.Op, c.B)
}

func (c Challenge) Check(answer int) bool {
	return answer == c.Answer
}

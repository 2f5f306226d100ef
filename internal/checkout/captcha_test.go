package checkout

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewChallengeIsConsistent(t *testing.T) {
	for i := 0; i < 1000; i++ {
		ch := NewChallenge()

		require.GreaterOrEqual(t, ch.A, 1)
		require.LessOrEqual(t, ch.A, 10)
		require.GreaterOrEqual(t, ch.B, 1)
		require.LessOrEqual(t, ch.B, 10)

		switch ch.Op {
		case "+":
			require.Equal(t, ch.A+ch.B, ch.Answer)
		case "-":
			require.Equal(t, ch.A-ch.B, ch.Answer)
			require.GreaterOrEqual(t, ch.Answer, 0, "subtraction must not go negative")
		case "×":
			require.Equal(t, ch.A*ch.B, ch.Answer)
		default:
			t.Fatalf("unexpected operator %q", ch.Op)
		}
	}
}

func TestChallengeQuestion(t *testing.T) {
	ch := Challenge{A: 7, B: 3, Op: "+", Answer: 10}
	require.Equal(t, "7 + 3", ch.Question())
}

func TestChallengeCheck(t *testing.T) {
	ch := Challenge{A: 4, B: 2, Op: "×", Answer: 8}
	require.True(t, ch.Check(8))
	require.False(t, ch.Check(6))
}

func TestRegenerationReplacesWholeValue(t *testing.T) {
	// Two freshly generated challenges are independent values; checking one
	// against the other's answer must not accidentally pass unless the
	// answers genuinely coincide.
	for i := 0; i < 100; i++ {
		a := NewChallenge()
		b := NewChallenge()
		if a.Answer != b.Answer {
			require.False(t, a.Check(b.Answer), fmt.Sprintf("%+v vs %+v", a, b))
		}
	}
}

package stats

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBetaCDF_Boundaries(t *testing.T) {
	shapes := [][2]float64{{1, 1}, {1, 5}, {3, 2}, {10, 40}, {0.5, 0.5}}
	for _, s := range shapes {
		p0, err := BetaCDF(s[0], s[1], 0, DefaultMaxError)
		require.NoError(t, err)
		assert.Equal(t, 0.0, p0, "I_0(%g,%g)", s[0], s[1])

		p1, err := BetaCDF(s[0], s[1], 1, DefaultMaxError)
		require.NoError(t, err)
		assert.Equal(t, 1.0, p1, "I_1(%g,%g)", s[0], s[1])
	}
}

func TestBetaCDF_LargeShapes(t *testing.T) {
	// I_x(1, n) = 1 - (1-x)^n holds for the shape sizes of large groups too.
	for _, n := range []float64{50, 150, 300} {
		for _, x := range []float64{1e-12, 1e-6, 0.001, 0.01} {
			got, err := BetaCDF(1, n, x, DefaultMaxError)
			require.NoError(t, err)
			assert.InDelta(t, -math.Expm1(n*math.Log1p(-x)), got, DefaultMaxError, "I_%g(1,%g)", x, n)
		}
	}

	// Symmetry on a wide shape grid near both tails.
	for _, a := range []float64{1, 7, 60, 300} {
		for _, b := range []float64{1, 12, 120, 300} {
			for _, x := range []float64{1e-9, 0.003, 0.3, 0.97, 1 - 1e-9} {
				p, err := BetaCDF(a, b, x, DefaultMaxError)
				require.NoError(t, err)
				q, err := BetaCDF(b, a, 1-x, DefaultMaxError)
				require.NoError(t, err)
				assert.InDelta(t, 1-q, p, 1e-9, "I_%g(%g,%g)", x, a, b)
				assert.GreaterOrEqual(t, p, 0.0)
				assert.LessOrEqual(t, p, 1.0)
			}
		}
	}
}

func TestBetaCDF_ClosedForms(t *testing.T) {
	// I_x(1, n) = 1 - (1-x)^n: the minimum of n uniforms is <= x.
	for _, n := range []float64{1, 2, 5, 20} {
		for _, x := range []float64{0.01, 0.1, 0.5, 0.9} {
			got, err := BetaCDF(1, n, x, DefaultMaxError)
			require.NoError(t, err)
			assert.InDelta(t, 1-math.Pow(1-x, n), got, 1e-10)
		}
	}

	// I_x(n, 1) = x^n: the maximum of n uniforms is <= x.
	for _, n := range []float64{1, 3, 8} {
		for _, x := range []float64{0.01, 0.3, 0.7} {
			got, err := BetaCDF(n, 1, x, DefaultMaxError)
			require.NoError(t, err)
			assert.InDelta(t, math.Pow(x, n), got, 1e-10)
		}
	}
}

func TestBetaCDF_Monotone(t *testing.T) {
	for _, s := range [][2]float64{{1, 10}, {3, 3}, {7, 2}, {30, 60}} {
		prev := 0.0
		for i := 0; i <= 200; i++ {
			x := float64(i) / 200
			p, err := BetaCDF(s[0], s[1], x, DefaultMaxError)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, p, prev-1e-12, "I_x(%g,%g) decreased at x=%g", s[0], s[1], x)
			prev = p
		}
	}
}

func TestBetaCDF_Symmetry(t *testing.T) {
	for _, s := range [][2]float64{{1, 4}, {2, 9}, {5, 5}, {13, 4}} {
		for _, x := range []float64{0.02, 0.2, 0.45, 0.6, 0.95} {
			p, err := BetaCDF(s[0], s[1], x, DefaultMaxError)
			require.NoError(t, err)
			q, err := BetaCDF(s[1], s[0], 1-x, DefaultMaxError)
			require.NoError(t, err)
			assert.InDelta(t, p, 1-q, 1e-9)
		}
	}
}

func TestBetaCDF_InvalidInput(t *testing.T) {
	tests := []struct {
		name    string
		a, b, x float64
		maxErr  float64
		wantErr error
	}{
		{"zero a", 0, 1, 0.5, DefaultMaxError, ErrInvalidShape},
		{"negative b", 1, -2, 0.5, DefaultMaxError, ErrInvalidShape},
		{"nan a", math.NaN(), 1, 0.5, DefaultMaxError, ErrInvalidShape},
		{"x below range", 1, 1, -0.1, DefaultMaxError, ErrInvalidProbability},
		{"x above range", 1, 1, 1.5, DefaultMaxError, ErrInvalidProbability},
		{"nan x", 1, 1, math.NaN(), DefaultMaxError, ErrInvalidProbability},
		{"zero tolerance", 1, 1, 0.5, 0, ErrInvalidTolerance},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BetaCDF(tt.a, tt.b, tt.x, tt.maxErr)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("BetaCDF(%g, %g, %g) error = %v, want %v", tt.a, tt.b, tt.x, err, tt.wantErr)
			}
		})
	}
}

package optimizer

import (
	"errors"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

const (
	simplexTolerance   = 1e-10
	feasibilityEpsilon = 1e-6
)

// SimplexSolver solves the reorder LP with gonum's simplex implementation.
//
// Each coverage inequality gets a surplus variable so the program is in standard form:
//
//	order[i] - surplus[i] = forecast[i] - stock[i]
//
// Rows with a negative right-hand side are negated. Variables are laid out as
// [order_0 .. order_n-1, surplus_0 .. surplus_n-1].
type SimplexSolver struct{}

func (SimplexSolver) Name() string { return SolverSimplex }

func (s SimplexSolver) Solve(p Problem) (map[string]float64, error) {
	n := len(p.SKUs)
	if n == 0 {
		return map[string]float64{}, nil
	}

	c := make([]float64, 2*n)
	A := mat.NewDense(n, 2*n, nil)
	b := make([]float64, n)
	basic := make([]int, n)

	for i, sku := range p.SKUs {
		c[i] = p.Cost[sku]

		gap := p.Forecast[sku] - p.Stock[sku]
		if gap >= 0 {
			A.Set(i, i, 1)
			A.Set(i, n+i, -1)
			b[i] = gap
			basic[i] = i
		} else {
			A.Set(i, i, -1)
			A.Set(i, n+i, 1)
			b[i] = -gap
			basic[i] = n + i
		}
	}

	// The basis above is feasible by construction, so phase one is skipped.
	_, x, err := lp.Simplex(c, A, b, simplexTolerance, basic)
	if err != nil {
		return nil, &SolverError{Solver: s.Name(), Status: simplexStatus(err), Err: err}
	}

	out := make(map[string]float64, n)
	for i, sku := range p.SKUs {
		qty := x[i]
		if qty < 0 {
			if qty < -feasibilityEpsilon {
				return nil, &SolverError{Solver: s.Name(), Status: "negative order for sku " + sku}
			}
			qty = 0
		}
		if p.Stock[sku]+qty < p.Forecast[sku]-feasibilityEpsilon {
			return nil, &SolverError{Solver: s.Name(), Status: "coverage violated for sku " + sku}
		}
		out[sku] = qty
	}
	return out, nil
}

func simplexStatus(err error) string {
	switch {
	case errors.Is(err, lp.ErrInfeasible):
		return "infeasible"
	case errors.Is(err, lp.ErrUnbounded):
		return "unbounded"
	case errors.Is(err, lp.ErrSingular):
		return "singular"
	default:
		return "failed"
	}
}

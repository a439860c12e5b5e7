// Package optimizer sizes single-period reorders.
//
// The contract is the linear program
//
//	minimize   Σ cost[s] · order[s]
//	subject to stock[s] + order[s] >= forecast[s]   for every s in forecast
//	           order[s] >= 0
//
// Every term touches a single SKU, so the optimum is order[s] = max(0, forecast[s] - stock[s]).
// ClosedFormSolver computes that directly; SimplexSolver solves the LP as stated and exists so
// coupled constraints (shared budgets, capacity) can be added without changing callers.
package optimizer

import (
	"fmt"
	"math"
	"sort"

	"github.com/andresuchdata/supplychain-ai/backend-go/internal/analytics"
	"github.com/andresuchdata/supplychain-ai/backend-go/internal/domain"
)

const (
	SolverClosedForm = "closed_form"
	SolverSimplex    = "simplex"
)

// Problem is a validated LP instance. SKUs is sorted and drives variable order.
type Problem struct {
	SKUs     []string
	Forecast domain.ForecastMap
	Stock    domain.StockMap
	Cost     domain.CostMap
}

// Solver returns the unrounded reorder quantity for every SKU in the problem.
type Solver interface {
	Name() string
	Solve(p Problem) (map[string]float64, error)
}

// NewSolver looks a solver up by its configuration name. Empty selects the closed form.
func NewSolver(name string) (Solver, error) {
	switch name {
	case "", SolverClosedForm:
		return ClosedFormSolver{}, nil
	case SolverSimplex:
		return SimplexSolver{}, nil
	default:
		return nil, fmt.Errorf("unknown solver %q", name)
	}
}

type Optimizer struct {
	solver Solver
}

func New(solver Solver) *Optimizer {
	if solver == nil {
		solver = ClosedFormSolver{}
	}
	return &Optimizer{solver: solver}
}

// SolverName reports which solver backs this optimizer.
func (o *Optimizer) SolverName() string {
	return o.solver.Name()
}

// Optimize validates the inputs, solves the LP and rounds each quantity to two decimals.
// Only SKUs present in forecast appear in the plan.
func (o *Optimizer) Optimize(forecast domain.ForecastMap, stock domain.StockMap, cost domain.CostMap) (domain.ReorderPlan, error) {
	p, err := NewProblem(forecast, stock, cost)
	if err != nil {
		return nil, err
	}

	raw, err := o.solver.Solve(p)
	if err != nil {
		return nil, err
	}

	plan := make(domain.ReorderPlan, len(p.SKUs))
	for _, sku := range p.SKUs {
		qty, ok := raw[sku]
		if !ok {
			return nil, &SolverError{Solver: o.solver.Name(), Status: "missing variable for sku " + sku}
		}
		plan[sku] = analytics.Round2(qty)
	}
	return plan, nil
}

// NewProblem checks the caller contract and builds a Problem.
func NewProblem(forecast domain.ForecastMap, stock domain.StockMap, cost domain.CostMap) (Problem, error) {
	if len(forecast) == 0 || len(stock) == 0 {
		return Problem{}, ErrNoData
	}

	skus := make([]string, 0, len(forecast))
	for sku := range forecast {
		skus = append(skus, sku)
	}
	sort.Strings(skus)

	for _, sku := range skus {
		if _, ok := stock[sku]; !ok {
			return Problem{}, &MissingKeyError{SKU: sku, Input: "stock"}
		}
		c, ok := cost[sku]
		if !ok {
			return Problem{}, &MissingKeyError{SKU: sku, Input: "cost"}
		}
		if c <= 0 || math.IsNaN(c) || math.IsInf(c, 0) {
			return Problem{}, &InvalidCostError{SKU: sku, Cost: c}
		}
	}

	return Problem{SKUs: skus, Forecast: forecast, Stock: stock, Cost: cost}, nil
}

// ClosedFormSolver uses the separable optimum max(0, forecast - stock).
type ClosedFormSolver struct{}

func (ClosedFormSolver) Name() string { return SolverClosedForm }

func (ClosedFormSolver) Solve(p Problem) (map[string]float64, error) {
	out := make(map[string]float64, len(p.SKUs))
	for _, sku := range p.SKUs {
		out[sku] = math.Max(0, p.Forecast[sku]-p.Stock[sku])
	}
	return out, nil
}

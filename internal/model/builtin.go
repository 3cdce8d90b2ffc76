package model

import (
	"fmt"
	"math"
	"sort"

	"github.com/banshee-data/sensitivity/internal/sensitivity"
)

// Default returns a registry pre-loaded with the built-in models.
func Default() *Registry {
	reg := NewRegistry()

	reg.Register(&Definition{
		Name:        "sum",
		Version:     "v1",
		Description: "Sum of every numeric argument.",
		Func:        Sum,
	})

	reg.Register(&Definition{
		Name:        "add5",
		Version:     "v1",
		Description: "value1 + value2 + 5.",
		Parameters:  []string{"value1", "value2"},
		Func:        Add5,
	})

	reg.Register(&Definition{
		Name:        "power",
		Version:     "v1",
		Description: "x_1 raised to the power x_2.",
		Parameters:  []string{"x_1", "x_2"},
		Func:        Power,
	})

	reg.Register(&Definition{
		Name:    "npv",
		Version: "v1",
		Description: "Net present value of an investment returning a growing annual " +
			"cash flow, discounted at discount_rate.",
		Parameters: []string{"initial_investment", "cash_flow", "growth_rate", "discount_rate", "years"},
		Defaults: map[string]any{
			"initial_investment": 1000.0,
			"cash_flow":          150.0,
			"growth_rate":        0.02,
			"discount_rate":      0.08,
			"years":              10,
		},
		Func: NPV,
	})

	reg.Register(&Definition{
		Name:        "loan_payment",
		Version:     "v1",
		Description: "Monthly payment of a fully amortising loan.",
		Parameters:  []string{"principal", "annual_rate", "years"},
		Defaults: map[string]any{
			"principal":   250000.0,
			"annual_rate": 0.05,
			"years":       30,
		},
		Func: LoanPayment,
	})

	return reg
}

// Sum adds every argument. Names are visited in sorted order so the result
// does not depend on map iteration.
func Sum(a sensitivity.Args) (float64, error) {
	names := make([]string, 0, len(a))
	for name := range a {
		names = append(names, name)
	}
	sort.Strings(names)
	total := 0.0
	for _, name := range names {
		v, err := a.Float(name)
		if err != nil {
			return 0, err
		}
		total += v
	}
	return total, nil
}

// Add5 returns value1 + value2 + 5.
func Add5(a sensitivity.Args) (float64, error) {
	v1, err := a.Float("value1")
	if err != nil {
		return 0, err
	}
	v2, err := a.Float("value2")
	if err != nil {
		return 0, err
	}
	return v1 + v2 + 5, nil
}

// Power returns x_1 ** x_2.
func Power(a sensitivity.Args) (float64, error) {
	x1, err := a.Float("x_1")
	if err != nil {
		return 0, err
	}
	x2, err := a.Float("x_2")
	if err != nil {
		return 0, err
	}
	return math.Pow(x1, x2), nil
}

// NPV discounts years of cash flow, growing at growth_rate after the first
// year, and subtracts the initial investment.
func NPV(a sensitivity.Args) (float64, error) {
	initial, err := a.Float("initial_investment")
	if err != nil {
		return 0, err
	}
	cash, err := a.Float("cash_flow")
	if err != nil {
		return 0, err
	}
	growth, err := a.Float("growth_rate")
	if err != nil {
		return 0, err
	}
	rate, err := a.Float("discount_rate")
	if err != nil {
		return 0, err
	}
	years, err := a.Int("years")
	if err != nil {
		return 0, err
	}
	if rate <= -1 {
		return 0, fmt.Errorf("discount_rate must be greater than -1, got %g", rate)
	}
	if years < 0 {
		return 0, fmt.Errorf("years must not be negative, got %d", years)
	}

	npv := -initial
	for t := 1; t <= years; t++ {
		flow := cash * math.Pow(1+growth, float64(t-1))
		npv += flow / math.Pow(1+rate, float64(t))
	}
	return npv, nil
}

// LoanPayment returns the monthly payment that repays principal over years
// at annual_rate compounded monthly.
func LoanPayment(a sensitivity.Args) (float64, error) {
	principal, err := a.Float("principal")
	if err != nil {
		return 0, err
	}
	annual, err := a.Float("annual_rate")
	if err != nil {
		return 0, err
	}
	years, err := a.Float("years")
	if err != nil {
		return 0, err
	}
	n := years * 12
	if n <= 0 {
		return 0, fmt.Errorf("years must be positive, got %g", years)
	}
	r := annual / 12
	if r == 0 {
		return principal / n, nil
	}
	return principal * r / (1 - math.Pow(1+r, -n)), nil
}

// Package handlers contains the Gin HTTP handlers for the pricing
// service's internal API.
package handlers

import (
	"github.com/linkmarket/pricing-service/internal/pricing"
)

var (
	calculator *pricing.Calculator
	recorder   *pricing.Recorder
)

// Init wires the pricing engine into the handler package. Must be
// called before any route is served.
func Init(calc *pricing.Calculator, rec *pricing.Recorder) {
	calculator = calc
	recorder = rec
}

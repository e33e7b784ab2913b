// Package calc holds the construction cost formulas. Every calculator turns
// a bound form into a Result whose Record is appended to the materials log.
package calc

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/jengacalc/jengacalc/internal/common"
)

// Calculator names, also used as URL segments.
const (
	Concrete   = "concrete"
	Walling    = "walling"
	Plaster    = "plaster"
	Excavation = "excavation"
)

// Names lists every calculator in menu order.
var Names = []string{Concrete, Walling, Plaster, Excavation}

// Material constants.
const (
	concreteDryFactor = 1.54
	mortarDryFactor   = 1.33

	cementDensity  = 1448.0 // kg/m³
	sandDensity    = 1600.0
	ballastDensity = 2000.0

	cementBagKg = 50.0
	tonKg       = 1000.0

	jointM = 0.02
)

// Line is one priced item: "<desc> ... <qty> <unit> ... <price> ... <cost>".
type Line struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	Unit        string  `json:"unit"`
	UnitPrice   float64 `json:"unitPrice"`
	Cost        float64 `json:"cost"`
}

func (l Line) String() string {
	return fmt.Sprintf("%s ... %s %s ... %s ... %s", l.Description, num(l.Quantity), l.Unit, num(l.UnitPrice), num(l.Cost))
}

// Result is a priced bill of quantities.
type Result struct {
	Calculator string   `json:"calculator"`
	Title      string   `json:"title"`
	Header     []string `json:"header"`
	Lines      []Line   `json:"lines"`
	Materials  float64  `json:"materials"`
	Labor      float64  `json:"labor"`
	Total      float64  `json:"total"`
}

// Record renders the result as a materials log entry.
func (r *Result) Record() string {
	var b strings.Builder
	for _, h := range r.Header {
		b.WriteString(h)
		b.WriteByte('\n')
	}
	b.WriteString("Materials:\n")
	for _, l := range r.Lines {
		b.WriteString(l.String())
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "materials ... %s\n", num(r.Materials))
	fmt.Fprintf(&b, "labor ... %s\n", num(r.Labor))
	fmt.Fprintf(&b, "subtotal ... %s\n\n", num(r.Total))
	return b.String()
}

// price fills the labour and total from the material lines.
func (r *Result) price(laborPercent float64) *Result {
	for _, l := range r.Lines {
		r.Materials += l.Cost
	}
	r.Labor = laborPercent * r.Materials / 100
	r.Total = r.Materials + r.Labor
	return r
}

// ParseRatio parses "1:2:4" into parts proportions. Every proportion must be
// a non-negative number and at least one must be positive.
func ParseRatio(s string, parts int) ([]float64, error) {
	fields := strings.Split(strings.TrimSpace(s), ":")
	if len(fields) != parts {
		return nil, fmt.Errorf("%w: ratio %q needs %d parts", common.ErrInvalidInput, s, parts)
	}

	out := make([]float64, parts)
	var sum float64
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil || v < 0 || math.IsInf(v, 0) || math.IsNaN(v) {
			return nil, fmt.Errorf("%w: ratio %q", common.ErrInvalidInput, s)
		}
		out[i] = v
		sum += v
	}
	if sum == 0 {
		return nil, fmt.Errorf("%w: ratio %q", common.ErrInvalidInput, s)
	}
	return out, nil
}

// split divides dry volume between the ratio parts.
func split(dry float64, ratio []float64) []float64 {
	var sum float64
	for _, r := range ratio {
		sum += r
	}
	out := make([]float64, len(ratio))
	for i, r := range ratio {
		out[i] = r * dry / sum
	}
	return out
}

func bags(volume, density float64) float64 {
	return math.Ceil(volume * density / cementBagKg)
}

func tons(volume, density float64) float64 {
	return math.Ceil(volume * density / tonKg)
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

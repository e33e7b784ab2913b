package calc

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jengacalc/jengacalc/internal/common"
)

// ConcreteInput is the concrete mix form.
type ConcreteInput struct {
	Volume       float64 `form:"concreteVolume" json:"concreteVolume" binding:"required,gt=0"`
	Ratio        string  `form:"concreteRatio" json:"concreteRatio" binding:"required"`
	Cement       string  `form:"cement" json:"cement" binding:"required"`
	CementPrice  float64 `form:"cementPrice" json:"cementPrice" binding:"gte=0"`
	Sand         string  `form:"sand" json:"sand" binding:"required"`
	SandPrice    float64 `form:"sandPrice" json:"sandPrice" binding:"gte=0"`
	Ballast      string  `form:"ballast" json:"ballast" binding:"required"`
	BallastPrice float64 `form:"ballastPrice" json:"ballastPrice" binding:"gte=0"`
	LaborPercent float64 `form:"laborPrice" json:"laborPrice" binding:"gte=0"`
}

// WallingInput is the block walling form. BlockSize is "LxTxH" in mm.
type WallingInput struct {
	Area         float64 `form:"wallArea" json:"wallArea" binding:"required,gt=0"`
	BlockSize    string  `form:"blockSize" json:"blockSize" binding:"required"`
	BlockPrice   float64 `form:"blockPrice" json:"blockPrice" binding:"gte=0"`
	Ratio        string  `form:"mortaRatio" json:"mortaRatio" binding:"required"`
	Cement       string  `form:"cement" json:"cement" binding:"required"`
	CementPrice  float64 `form:"cementPrice" json:"cementPrice" binding:"gte=0"`
	Sand         string  `form:"sand" json:"sand" binding:"required"`
	SandPrice    float64 `form:"sandPrice" json:"sandPrice" binding:"gte=0"`
	LaborPercent float64 `form:"laborPrice" json:"laborPrice" binding:"gte=0"`
}

// PlasterInput is the plaster form. Thickness is in mm.
type PlasterInput struct {
	Area         float64 `form:"plasterArea" json:"plasterArea" binding:"required,gt=0"`
	Thickness    float64 `form:"plasterThickness" json:"plasterThickness" binding:"required,gt=0"`
	Ratio        string  `form:"plasterRatio" json:"plasterRatio" binding:"required"`
	Cement       string  `form:"cement" json:"cement" binding:"required"`
	CementPrice  float64 `form:"cementPrice" json:"cementPrice" binding:"gte=0"`
	Sand         string  `form:"sand" json:"sand" binding:"required"`
	SandPrice    float64 `form:"sandPrice" json:"sandPrice" binding:"gte=0"`
	LaborPercent float64 `form:"laborPrice" json:"laborPrice" binding:"gte=0"`
}

// ExcavationInput is the excavation form. Rate is the price per m³.
type ExcavationInput struct {
	Volume       float64 `form:"excavationVolume" json:"excavationVolume" binding:"required,gt=0"`
	Rate         float64 `form:"excavationRate" json:"excavationRate" binding:"gte=0"`
	LaborPercent float64 `form:"laborPrice" json:"laborPrice" binding:"gte=0"`
}

// Form describes a calculator page.
type Form struct {
	Name   string
	Title  string
	Fields []Field
}

type Field struct {
	Name        string
	Label       string
	Type        string
	Placeholder string
}

// Forms are the input pages, keyed by calculator name.
var Forms = map[string]Form{
	Concrete: {Name: Concrete, Title: "CONCRETE MIX", Fields: []Field{
		{"concreteVolume", "Volume in m³", "number", "Volume in m³"},
		{"concreteRatio", "Mix Ratio", "text", "1:2:4"},
		{"cement", "Cement description", "text", "Bamburi Cement"},
		{"cementPrice", "Price of cement per bag", "number", "850"},
		{"sand", "Sand description", "text", "River Sand"},
		{"sandPrice", "Price of sand per ton", "number", "1350"},
		{"ballast", "Ballast brand", "text", "Mazeras Ballast"},
		{"ballastPrice", "Price of ballast per ton", "number", "2500"},
		{"laborPrice", "Labor percentage of materials", "number", "40"},
	}},
	Walling: {Name: Walling, Title: "WALLING", Fields: []Field{
		{"wallArea", "Area in m²", "number", "Area in m²"},
		{"blockSize", "Size of building block in mm", "text", "360x180x180"},
		{"blockPrice", "Price of block per piece", "number", "75"},
		{"mortaRatio", "Mortar ratio", "text", "1:3"},
		{"cement", "Cement description", "text", "Bamburi Cement"},
		{"cementPrice", "Price of cement per bag", "number", "850"},
		{"sand", "Sand description", "text", "River Sand"},
		{"sandPrice", "Price of sand per ton", "number", "1350"},
		{"laborPrice", "Labor percentage of materials", "number", "40"},
	}},
	Plaster: {Name: Plaster, Title: "PLASTER MIX", Fields: []Field{
		{"plasterArea", "Area in m²", "number", "Area in m²"},
		{"plasterThickness", "Thickness in mm", "number", "Thickness in mm"},
		{"plasterRatio", "Ratio", "text", "1:3"},
		{"cement", "Cement description", "text", "Bamburi Cement"},
		{"cementPrice", "Price of cement per bag", "number", "850"},
		{"sand", "Sand description", "text", "River Sand"},
		{"sandPrice", "Price of sand per ton", "number", "1350"},
		{"laborPrice", "Labor percentage of materials", "number", "40"},
	}},
	Excavation: {Name: Excavation, Title: "EXCAVATION CALCULATOR", Fields: []Field{
		{"excavationVolume", "Volume in m³", "number", "Volume in m³"},
		{"excavationRate", "Rate per m³", "number", "500"},
		{"laborPrice", "Labor percentage", "number", "40"},
	}},
}

// ParseBlockSize parses "360x180x180" (mm) into metres.
func ParseBlockSize(s string) (length, thickness, height float64, err error) {
	dims := strings.Split(strings.ToLower(strings.TrimSpace(s)), "x")
	if len(dims) != 3 {
		return 0, 0, 0, fmt.Errorf("%w: block size %q", common.ErrInvalidInput, s)
	}
	var m [3]float64
	for i, d := range dims {
		v, perr := strconv.ParseFloat(strings.TrimSpace(d), 64)
		if perr != nil || v <= 0 {
			return 0, 0, 0, fmt.Errorf("%w: block size %q", common.ErrInvalidInput, s)
		}
		m[i] = v / 1000
	}
	return m[0], m[1], m[2], nil
}

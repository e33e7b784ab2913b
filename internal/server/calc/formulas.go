package calc

import (
	"fmt"
	"math"
	"strings"

	"github.com/jengacalc/jengacalc/internal/common"
)

// ComputeConcrete prices a concrete mix of in.Volume m³.
func ComputeConcrete(in ConcreteInput) (*Result, error) {
	ratio, err := ParseRatio(in.Ratio, 3)
	if err != nil {
		return nil, err
	}

	vol := split(in.Volume*concreteDryFactor, ratio)
	cem := bags(vol[0], cementDensity)
	sand := tons(vol[1], sandDensity)
	ballast := tons(vol[2], ballastDensity)

	r := &Result{
		Calculator: Concrete,
		Title:      "CONCRETE MIX DATA",
		Header:     []string{"Volume: " + num(in.Volume) + " m³", "Ratio: " + in.Ratio},
		Lines: []Line{
			{in.Cement, cem, "bags", in.CementPrice, in.CementPrice * cem},
			{in.Sand, sand, "tons", in.SandPrice, in.SandPrice * sand},
			{in.Ballast, ballast, "tons", in.BallastPrice, in.BallastPrice * ballast},
		},
	}
	return r.price(in.LaborPercent), nil
}

// ComputeWalling prices blocks and jointing mortar for in.Area m² of wall.
func ComputeWalling(in WallingInput) (*Result, error) {
	length, thickness, height, err := ParseBlockSize(in.BlockSize)
	if err != nil {
		return nil, err
	}
	ratio, err := ParseRatio(in.Ratio, 2)
	if err != nil {
		return nil, err
	}

	blocks := math.Ceil(in.Area / ((length + jointM) * (height + jointM)))
	mortar := in.Area*thickness - blocks*length*thickness*height
	if mortar < 0 {
		return nil, fmt.Errorf("%w: block size %q leaves no mortar", common.ErrInvalidInput, in.BlockSize)
	}

	vol := split(mortar*mortarDryFactor, ratio)
	cem := bags(vol[0], cementDensity)
	sand := tons(vol[1], sandDensity)

	r := &Result{
		Calculator: Walling,
		Title:      "WALLING DATA",
		Header:     []string{"Area: " + num(in.Area) + " m²", "Ratio: " + in.Ratio},
		Lines: []Line{
			{in.BlockSize + " blocks", blocks, "pcs", in.BlockPrice, blocks * in.BlockPrice},
			{strings.ToLower(in.Cement), cem, "bags", in.CementPrice, in.CementPrice * cem},
			{strings.ToLower(in.Sand), sand, "tons", in.SandPrice, in.SandPrice * sand},
		},
	}
	return r.price(in.LaborPercent), nil
}

// ComputePlaster prices a plaster coat of in.Thickness mm over in.Area m².
func ComputePlaster(in PlasterInput) (*Result, error) {
	ratio, err := ParseRatio(in.Ratio, 2)
	if err != nil {
		return nil, err
	}

	vol := split(in.Area*in.Thickness/1000*mortarDryFactor, ratio)
	cem := bags(vol[0], cementDensity)
	sand := tons(vol[1], sandDensity)

	r := &Result{
		Calculator: Plaster,
		Title:      "PLASTER DATA",
		Header: []string{
			"Area: " + num(in.Area) + " m² ... Thickness: " + num(in.Thickness) + "mm",
			"Ratio: " + in.Ratio,
		},
		Lines: []Line{
			{in.Cement, cem, "bags", in.CementPrice, in.CementPrice * cem},
			{in.Sand, sand, "tons", in.SandPrice, in.SandPrice * sand},
		},
	}
	return r.price(in.LaborPercent), nil
}

// ComputeExcavation prices in.Volume m³ at in.Rate per m³.
func ComputeExcavation(in ExcavationInput) (*Result, error) {
	r := &Result{
		Calculator: Excavation,
		Title:      "EXCAVATION DATA",
		Header:     []string{"Volume: " + num(in.Volume) + " m³", "Rate: " + num(in.Rate) + " per m³"},
		Lines: []Line{
			{"Excavation", in.Volume, "m³", in.Rate, in.Volume * in.Rate},
		},
	}
	return r.price(in.LaborPercent), nil
}

package calc

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jengacalc/jengacalc/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRatio(t *testing.T) {
	tests := []struct {
		in      string
		parts   int
		want    []float64
		wantErr bool
	}{
		{in: "1:2:4", parts: 3, want: []float64{1, 2, 4}},
		{in: " 1 : 3 ", parts: 2, want: []float64{1, 3}},
		{in: "1:1.5:3", parts: 3, want: []float64{1, 1.5, 3}},
		{in: "1:2", parts: 3, wantErr: true},
		{in: "1:x:4", parts: 3, wantErr: true},
		{in: "0:0", parts: 2, wantErr: true},
		{in: "-1:3", parts: 2, wantErr: true},
		{in: "", parts: 2, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRatio(tt.in, tt.parts)
			if tt.wantErr {
				assert.ErrorIs(t, err, common.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseRatio mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseBlockSize(t *testing.T) {
	l, th, h, err := ParseBlockSize("400X200x200")
	require.NoError(t, err)
	assert.InDelta(t, 0.4, l, 1e-9)
	assert.InDelta(t, 0.2, th, 1e-9)
	assert.InDelta(t, 0.2, h, 1e-9)

	for _, bad := range []string{"400x200", "400x0x200", "axbxc", ""} {
		_, _, _, err := ParseBlockSize(bad)
		assert.ErrorIs(t, err, common.ErrInvalidInput, bad)
	}
}

func TestComputeConcrete(t *testing.T) {
	r, err := ComputeConcrete(ConcreteInput{
		Volume: 1, Ratio: "1:2:4",
		Cement: "Bamburi Cement", CementPrice: 850,
		Sand: "River Sand", SandPrice: 1350,
		Ballast: "Mazeras Ballast", BallastPrice: 2500,
		LaborPercent: 40,
	})
	require.NoError(t, err)

	want := []Line{
		{"Bamburi Cement", 7, "bags", 850, 5950},
		{"River Sand", 1, "tons", 1350, 1350},
		{"Mazeras Ballast", 2, "tons", 2500, 5000},
	}
	if diff := cmp.Diff(want, r.Lines); diff != "" {
		t.Errorf("lines mismatch (-want +got):\n%s", diff)
	}
	assert.InDelta(t, 12300, r.Materials, 1e-9)
	assert.InDelta(t, 4920, r.Labor, 1e-9)
	assert.InDelta(t, 17220, r.Total, 1e-9)

	assert.Equal(t, `Volume: 1 m³
Ratio: 1:2:4
Materials:
Bamburi Cement ... 7 bags ... 850 ... 5950
River Sand ... 1 tons ... 1350 ... 1350
Mazeras Ballast ... 2 tons ... 2500 ... 5000
materials ... 12300
labor ... 4920
subtotal ... 17220

`, r.Record())
}

func TestComputeConcrete_BadRatio(t *testing.T) {
	_, err := ComputeConcrete(ConcreteInput{Volume: 1, Ratio: "1:2"})
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestComputeWalling(t *testing.T) {
	r, err := ComputeWalling(WallingInput{
		Area: 10, BlockSize: "400x200x200", BlockPrice: 75, Ratio: "1:4",
		Cement: "Bamburi Cement", CementPrice: 850,
		Sand: "River Sand", SandPrice: 1350,
	})
	require.NoError(t, err)

	want := []Line{
		{"400x200x200 blocks", 109, "pcs", 75, 8175},
		{"bamburi cement", 2, "bags", 850, 1700},
		{"river sand", 1, "tons", 1350, 1350},
	}
	if diff := cmp.Diff(want, r.Lines); diff != "" {
		t.Errorf("lines mismatch (-want +got):\n%s", diff)
	}
	assert.InDelta(t, 11225, r.Total, 1e-9)
	assert.Zero(t, r.Labor)
}

func TestComputeWalling_Invalid(t *testing.T) {
	_, err := ComputeWalling(WallingInput{Area: 10, BlockSize: "400x200", Ratio: "1:4"})
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = ComputeWalling(WallingInput{Area: 10, BlockSize: "400x200x200", Ratio: "1:2:3"})
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestComputePlaster(t *testing.T) {
	r, err := ComputePlaster(PlasterInput{
		Area: 10, Thickness: 12, Ratio: "1:3",
		Cement: "Bamburi Cement", CementPrice: 850,
		Sand: "River Sand", SandPrice: 1350,
		LaborPercent: 40,
	})
	require.NoError(t, err)

	assert.Equal(t, float64(2), r.Lines[0].Quantity)
	assert.Equal(t, float64(1), r.Lines[1].Quantity)
	assert.InDelta(t, 3050, r.Materials, 1e-9)
	assert.InDelta(t, 1220, r.Labor, 1e-9)
	assert.InDelta(t, 4270, r.Total, 1e-9)
	assert.Contains(t, r.Record(), "Area: 10 m² ... Thickness: 12mm\n")
}

func TestComputeExcavation(t *testing.T) {
	r, err := ComputeExcavation(ExcavationInput{Volume: 10, Rate: 500, LaborPercent: 40})
	require.NoError(t, err)

	assert.InDelta(t, 5000, r.Materials, 1e-9)
	assert.InDelta(t, 2000, r.Labor, 1e-9)
	assert.InDelta(t, 7000, r.Total, 1e-9)
	assert.Contains(t, r.Record(), "Excavation ... 10 m³ ... 500 ... 5000\n")
}

func TestForms_CoverEveryCalculator(t *testing.T) {
	for _, name := range Names {
		f, ok := Forms[name]
		require.True(t, ok, name)
		assert.Equal(t, name, f.Name)
		assert.NotEmpty(t, f.Fields)
	}
}

package stats

import (
	"errors"
	"math"
	"testing"
)

func TestOLSExactLine(t *testing.T) {
	// y = 3 + 5x exactly: the fit must recover the coefficients with a
	// perfect R2 and zero slope error.
	n := 20
	x := make([]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		x[i] = float64(i)
		y[i] = 3 + 5*x[i]
	}

	fit, err := OLS(x, y)
	if err != nil {
		t.Fatalf("OLS failed: %v", err)
	}

	if math.Abs(fit.Intercept-3) > 1e-9 {
		t.Errorf("intercept = %v, want 3", fit.Intercept)
	}
	if math.Abs(fit.Slope-5) > 1e-9 {
		t.Errorf("slope = %v, want 5", fit.Slope)
	}
	if math.Abs(fit.R2-1) > 1e-9 {
		t.Errorf("r2 = %v, want 1", fit.R2)
	}
	if fit.SlopeStderr > 1e-9 {
		t.Errorf("slope stderr = %v, want 0", fit.SlopeStderr)
	}
}

func TestOLSNoisyLine(t *testing.T) {
	// Alternating +/-1 noise around y = 10 + 2x. The slope estimate must
	// stay close and R2 must remain high.
	n := 100
	x := make([]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		x[i] = float64(i)
		noise := 1.0
		if i%2 == 1 {
			noise = -1.0
		}
		y[i] = 10 + 2*x[i] + noise
	}

	fit, err := OLS(x, y)
	if err != nil {
		t.Fatalf("OLS failed: %v", err)
	}

	if math.Abs(fit.Slope-2) > 0.01 {
		t.Errorf("slope = %v, want ~2", fit.Slope)
	}
	if fit.R2 < 0.99 {
		t.Errorf("r2 = %v, want > 0.99", fit.R2)
	}
	if fit.SlopeStderr <= 0 {
		t.Errorf("slope stderr = %v, want > 0 for noisy data", fit.SlopeStderr)
	}
}

func TestOLSTwoPoints(t *testing.T) {
	fit, err := OLS([]float64{1, 2}, []float64{4, 6})
	if err != nil {
		t.Fatalf("OLS failed: %v", err)
	}
	if math.Abs(fit.Slope-2) > 1e-12 || math.Abs(fit.Intercept-2) > 1e-12 {
		t.Errorf("fit = %+v, want slope 2 intercept 2", fit)
	}
	if fit.SlopeStderr != 0 {
		t.Errorf("two-point fit stderr = %v, want 0", fit.SlopeStderr)
	}
}

func TestOLSInsufficientData(t *testing.T) {
	tests := []struct {
		name string
		x, y []float64
	}{
		{"empty", nil, nil},
		{"single point", []float64{1}, []float64{2}},
		{"zero x variance", []float64{3, 3, 3}, []float64{1, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := OLS(tt.x, tt.y); !errors.Is(err, ErrInsufficientData) {
				t.Errorf("expected ErrInsufficientData, got %v", err)
			}
		})
	}
}

func TestOLSLengthMismatch(t *testing.T) {
	if _, err := OLS([]float64{1, 2, 3}, []float64{1, 2}); err == nil {
		t.Error("expected error for mismatched lengths")
	}
}

func TestMeanVarianceStddev(t *testing.T) {
	xs := []float64{2, 4, 4, 4, 5, 5, 7, 9}

	if m := Mean(xs); m != 5 {
		t.Errorf("mean = %v, want 5", m)
	}
	// Sample variance with n-1 denominator: 32/7.
	if v := Variance(xs); math.Abs(v-32.0/7.0) > 1e-12 {
		t.Errorf("variance = %v, want %v", v, 32.0/7.0)
	}
	if sd := Stddev(xs); math.Abs(sd-math.Sqrt(32.0/7.0)) > 1e-12 {
		t.Errorf("stddev = %v", sd)
	}
}

func TestStdErr(t *testing.T) {
	xs := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9}
	want := Stddev(xs) / 3
	if se := StdErr(xs); math.Abs(se-want) > 1e-12 {
		t.Errorf("stderr = %v, want %v", se, want)
	}

	if se := StdErr(nil); se != 0 {
		t.Errorf("stderr of empty = %v, want 0", se)
	}
}

func TestEdgeValues(t *testing.T) {
	if m := Mean(nil); m != 0 {
		t.Errorf("mean of empty = %v, want 0", m)
	}
	if v := Variance([]float64{42}); v != 0 {
		t.Errorf("variance of singleton = %v, want 0", v)
	}
	if s := Sum([]float64{1.5, 2.5}); s != 4 {
		t.Errorf("sum = %v, want 4", s)
	}
}

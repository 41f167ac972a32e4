package analysis

import (
	"math"
	"testing"
)

func TestPowerSpectrumImpulse(t *testing.T) {
	data := make([]float64, 8)
	data[0] = 1
	ps := PowerSpectrum(data)
	if len(ps) != 4 {
		t.Fatalf("len = %d, want 4", len(ps))
	}
	for i, p := range ps {
		if math.Abs(p-1) > 1e-12 {
			t.Fatalf("bin %d: got %v, want 1", i, p)
		}
	}
}

func TestPad(t *testing.T) {
	p := Pad([]float64{4, 4, 4, 4, 4})
	if len(p) != 8 {
		t.Fatalf("len = %d, want 8", len(p))
	}
	for i, v := range p {
		if math.Abs(v) > 1e-12 {
			t.Fatalf("p[%d] = %v, want 0 after mean removal", i, v)
		}
	}

	p = Pad([]float64{0, 2, 0})
	if p[3] != 0 {
		t.Fatalf("padding not zero: %v", p)
	}
	if p[1] <= 0 {
		t.Fatalf("window removed the centre sample: %v", p)
	}
}

func TestAnalyzeDominantFrequency(t *testing.T) {
	const (
		interval = 0.01
		freq     = 3.125 // lands exactly on a bin for 256 samples
	)
	series := make([]float64, 256)
	for i := range series {
		series[i] = 5 + math.Sin(2*math.Pi*freq*float64(i)*interval)
	}
	spec, err := Analyze(series, interval)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(spec.Dominant-freq) > spec.BinWidth/2 {
		t.Fatalf("dominant = %v, want %v", spec.Dominant, freq)
	}
	if math.Abs(spec.Period()-1/freq) > 1e-9 {
		t.Fatalf("period = %v", spec.Period())
	}
}

func TestAnalyzeErrors(t *testing.T) {
	if _, err := Analyze([]float64{1, 2}, 0.1); err != ErrTooShort {
		t.Fatalf("got %v, want ErrTooShort", err)
	}
	if _, err := Analyze([]float64{1, 2, 3, 4}, 0); err == nil {
		t.Fatal("expected error for zero interval")
	}
}

func TestFlatSeriesHasNoPeriod(t *testing.T) {
	spec, err := Analyze([]float64{2, 2, 2, 2, 2}, 0.1)
	if err != nil {
		t.Fatal(err)
	}
	if spec.Dominant != 0 || spec.Period() != 0 {
		t.Fatalf("flat series: dominant %v period %v", spec.Dominant, spec.Period())
	}
}

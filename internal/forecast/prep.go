package forecast

import (
	"math"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Scaler standardises a single feature column.
type Scaler struct {
	Mean  float64
	Scale float64
}

// FitScaler computes the population mean and standard deviation of values.
// A zero deviation scales by 1 so constant columns map to zero.
func FitScaler(values []float64) Scaler {
	mean, std := stat.PopMeanStdDev(values, nil)
	if std == 0 || math.IsNaN(std) {
		std = 1
	}
	return Scaler{Mean: mean, Scale: std}
}

// Transform returns (v - mean) / scale for every value.
func (s Scaler) Transform(values []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = (v - s.Mean) / s.Scale
	}
	return out
}

// Split returns train and test row indices for n rows. The test share is
// ceil(fraction*n) rows chosen by a seeded permutation.
func Split(n int, fraction float64, seed uint64) (train, test []int) {
	nTest := int(math.Ceil(fraction * float64(n)))
	if nTest >= n {
		nTest = n - 1
	}
	if nTest < 0 {
		nTest = 0
	}
	rng := rand.New(rand.NewPCG(seed, uint64(n)))
	perm := rng.Perm(n)
	test = append([]int(nil), perm[:nTest]...)
	train = append([]int(nil), perm[nTest:]...)
	return train, test
}

// NextBusinessDays returns the count weekdays strictly after from.
func NextBusinessDays(from time.Time, count int) []time.Time {
	days := make([]time.Time, 0, count)
	d := from
	for len(days) < count {
		d = d.AddDate(0, 0, 1)
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		days = append(days, d)
	}
	return days
}

package regime

import (
	"math"
	"math/rand"
	"sort"
)

// gaussianMixture is a one-dimensional GMM fit by EM. Components end up
// sorted by variance ascending, which maps directly onto the calm, normal
// and high_vol regime labels.
type gaussianMixture struct {
	weights   []float64
	means     []float64
	variances []float64
}

const (
	emMaxIterations = 200
	emTolerance     = 1e-8
	varianceFloor   = 1e-10
)

// fitGMM runs EM over the return series. Initialization is deterministic
// for a given seed: component variances start at spread quantiles of the
// squared returns with a small seeded jitter, so repeated runs on the same
// window produce identical fits.
func fitGMM(returns []float64, states int, seed int64) *gaussianMixture {
	n := len(returns)
	rng := rand.New(rand.NewSource(seed))

	m := &gaussianMixture{
		weights:   make([]float64, states),
		means:     make([]float64, states),
		variances: make([]float64, states),
	}

	squared := make([]float64, n)
	for i, r := range returns {
		squared[i] = r * r
	}
	sort.Float64s(squared)

	for k := 0; k < states; k++ {
		m.weights[k] = 1.0 / float64(states)
		m.means[k] = 0
		// Quantiles spread across the ordered squared returns: low, mid,
		// high variance starting points.
		q := float64(2*k+1) / float64(2*states)
		idx := int(q * float64(n-1))
		v := squared[idx]
		if v < varianceFloor {
			v = varianceFloor
		}
		m.variances[k] = v * (1 + 0.01*rng.Float64())
	}

	resp := make([][]float64, n)
	for i := range resp {
		resp[i] = make([]float64, states)
	}

	prevLogLik := math.Inf(-1)
	for iter := 0; iter < emMaxIterations; iter++ {
		// E-step.
		logLik := 0.0
		for i, r := range returns {
			total := 0.0
			for k := 0; k < states; k++ {
				p := m.weights[k] * gaussianPDF(r, m.means[k], m.variances[k])
				resp[i][k] = p
				total += p
			}
			if total <= 0 {
				total = math.SmallestNonzeroFloat64
			}
			for k := 0; k < states; k++ {
				resp[i][k] /= total
			}
			logLik += math.Log(total)
		}

		// M-step.
		for k := 0; k < states; k++ {
			nk := 0.0
			for i := 0; i < n; i++ {
				nk += resp[i][k]
			}
			if nk <= 0 {
				continue
			}
			mean := 0.0
			for i, r := range returns {
				mean += resp[i][k] * r
			}
			mean /= nk

			variance := 0.0
			for i, r := range returns {
				d := r - mean
				variance += resp[i][k] * d * d
			}
			variance /= nk
			if variance < varianceFloor {
				variance = varianceFloor
			}

			m.weights[k] = nk / float64(n)
			m.means[k] = mean
			m.variances[k] = variance
		}

		if math.Abs(logLik-prevLogLik) < emTolerance {
			break
		}
		prevLogLik = logLik
	}

	m.sortByVariance()
	return m
}

// posterior returns the averaged component responsibilities over the given
// observations. The result sums to 1.
func (m *gaussianMixture) posterior(obs []float64) []float64 {
	states := len(m.weights)
	out := make([]float64, states)
	if len(obs) == 0 {
		return out
	}
	for _, r := range obs {
		total := 0.0
		p := make([]float64, states)
		for k := 0; k < states; k++ {
			p[k] = m.weights[k] * gaussianPDF(r, m.means[k], m.variances[k])
			total += p[k]
		}
		if total <= 0 {
			continue
		}
		for k := 0; k < states; k++ {
			out[k] += p[k] / total
		}
	}
	sum := 0.0
	for _, v := range out {
		sum += v
	}
	if sum > 0 {
		for k := range out {
			out[k] /= sum
		}
	}
	return out
}

func (m *gaussianMixture) sortByVariance() {
	idx := make([]int, len(m.variances))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool {
		return m.variances[idx[a]] < m.variances[idx[b]]
	})

	w := make([]float64, len(idx))
	mu := make([]float64, len(idx))
	v := make([]float64, len(idx))
	for i, j := range idx {
		w[i] = m.weights[j]
		mu[i] = m.means[j]
		v[i] = m.variances[j]
	}
	m.weights, m.means, m.variances = w, mu, v
}

func gaussianPDF(x, mean, variance float64) float64 {
	d := x - mean
	return math.Exp(-d*d/(2*variance)) / math.Sqrt(2*math.Pi*variance)
}

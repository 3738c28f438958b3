// Package rating implements the Glicko-2 rating engine: pure update math,
// the per-race updater and the monthly soft reset.
package rating

import (
	"math"

	"github.com/yourusername/podium-engine/internal/models"
)

// Glicko-2 scale between the public 1500 scale and the internal mu/phi scale
const glickoScale = 173.7178

// DefaultTau is the system volatility constraint; 0.5 suits small leagues
// with frequent races.
const DefaultTau = 0.5

const (
	volatilityTolerance = 1e-6
	volatilityMaxIter   = 100
)

// toMuPhi converts public rating/RD to the internal scale
func toMuPhi(rating, rd float64) (mu, phi float64) {
	return (rating - models.DefaultRating) / glickoScale, rd / glickoScale
}

// fromMuPhi converts back to the public scale, clamping RD to its bounds
func fromMuPhi(mu, phi float64) (rating, rd float64) {
	rating = mu*glickoScale + models.DefaultRating
	rd = phi * glickoScale
	if rd < models.MinRD {
		rd = models.MinRD
	}
	if rd > models.MaxRD {
		rd = models.MaxRD
	}
	return rating, rd
}

// gFactor dampens an opponent's influence by their rating uncertainty
func gFactor(phi float64) float64 {
	return 1.0 / math.Sqrt(1.0+3.0*phi*phi/(math.Pi*math.Pi))
}

// expectedScore is the Glicko-2 win expectancy of mu against (muJ, phiJ)
func expectedScore(mu, muJ, phiJ float64) float64 {
	return 1.0 / (1.0 + math.Exp(-gFactor(phiJ)*(mu-muJ)))
}

// Strength returns the Plackett-Luce strength exp(mu*g(phi)) used by the
// odds engine: higher rating raises it, higher uncertainty dampens it.
func Strength(rating, rd float64) float64 {
	mu, phi := toMuPhi(rating, rd)
	return math.Exp(mu * gFactor(phi))
}

// opponent is one virtual pairwise match inside a race
type opponent struct {
	mu    float64
	phi   float64
	score float64
}

// solveVolatility performs the Glicko-2 convergence step for the new
// volatility using the Illinois variant of regula falsi. Pure in its
// inputs; iteration count is bounded and convergence is to 1e-6.
func solveVolatility(delta, phi, v, sigma, tau float64) float64 {
	a := math.Log(sigma * sigma)
	f := func(x float64) float64 {
		ex := math.Exp(x)
		num := ex * (delta*delta - phi*phi - v - ex)
		den := 2.0 * (phi*phi + v + ex) * (phi*phi + v + ex)
		return num/den - (x-a)/(tau*tau)
	}

	// Initial bracket [A, B] per the Glicko-2 convergence procedure.
	A := a
	var B float64
	if delta*delta > phi*phi+v {
		B = math.Log(delta*delta - phi*phi - v)
	} else {
		k := 1.0
		for f(a-k*tau) < 0 && k < 1e6 {
			k *= 2.0
		}
		B = a - k*tau
	}

	fA := f(A)
	fB := f(B)
	for i := 0; i < volatilityMaxIter && math.Abs(B-A) > volatilityTolerance; i++ {
		C := A + (A-B)*fA/(fB-fA)
		fC := f(C)
		if math.IsNaN(fC) || math.IsInf(fC, 0) {
			break
		}
		if fC*fB < 0 {
			A = B
			fA = fB
		} else {
			// Illinois step: halve the retained endpoint's value so the
			// secant cannot stagnate on one side of the root.
			fA /= 2.0
		}
		B = C
		fB = fC
	}

	return math.Exp(A / 2.0)
}

// updateOne computes a competitor's post-race triple from the pre-race
// snapshot of its opponents. It never mutates its inputs.
func updateOne(c *models.Competitor, opponents []opponent, tau float64) (rating, rd, sigma float64) {
	mu, phi := toMuPhi(c.Rating, c.RD)

	var sumG2E float64 // sum of g^2 * E * (1-E)
	var sumGSE float64 // sum of g * (s - E)
	for _, o := range opponents {
		g := gFactor(o.phi)
		e := expectedScore(mu, o.mu, o.phi)
		sumG2E += g * g * e * (1.0 - e)
		sumGSE += g * (o.score - e)
	}

	v := 1.0 / sumG2E
	delta := v * sumGSE

	sigma = solveVolatility(delta, phi, v, c.Volatility, tau)
	phiStar := math.Sqrt(phi*phi + sigma*sigma)
	phiNew := 1.0 / math.Sqrt(1.0/(phiStar*phiStar)+1.0/v)
	muNew := mu + phiNew*phiNew*sumGSE

	rating, rd = fromMuPhi(muNew, phiNew)
	return rating, rd, sigma
}

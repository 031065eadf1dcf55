package dataset

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"
)

// Generate produces the synthetic example dataset: numeric, categorical,
// text and date columns with a few injected cross-column correlations so
// scatter plots have visible structure. Deterministic under a fixed seed.
func Generate(n int, seed int64) (*Table, error) {
	if n <= 0 {
		return nil, fmt.Errorf("row count must be positive, got %d", n)
	}
	r := rand.New(rand.NewSource(seed))

	price := make([]float64, n)
	quantity := make([]float64, n)
	rating := make([]float64, n)
	discount := make([]float64, n)
	revenue := make([]float64, n)
	category := make([]string, n)
	region := make([]string, n)
	customerType := make([]string, n)
	productName := make([]string, n)
	description := make([]string, n)
	purchaseDate := make([]time.Time, n)

	categories := weightedChoice{
		values:  []string{"Electronics", "Clothing", "Books", "Home", "Sports"},
		weights: []float64{0.3, 0.25, 0.2, 0.15, 0.1},
	}
	regions := weightedChoice{
		values:  []string{"North", "South", "East", "West"},
		weights: []float64{0.25, 0.25, 0.25, 0.25},
	}
	customerTypes := weightedChoice{
		values:  []string{"Premium", "Standard", "Basic"},
		weights: []float64{0.2, 0.5, 0.3},
	}

	epoch := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < n; i++ {
		price[i] = math.Exp(r.NormFloat64()*0.5 + 3) // lognormal(3, 0.5)
		quantity[i] = float64(poisson(r, 50))
		rating[i] = clip(r.NormFloat64()*0.8+4.2, 1, 5)
		discount[i] = beta(r, 2, 5) * 100
		category[i] = categories.pick(r)
		region[i] = regions.pick(r)
		customerType[i] = customerTypes.pick(r)
		productName[i] = fmt.Sprintf("Product_%03d", i)
		description[i] = fmt.Sprintf("Description for product %d", i)
		purchaseDate[i] = epoch.AddDate(0, 0, r.Intn(365))
	}

	// Higher priced items tend to have better ratings
	threshold := quantile(price, 0.75)
	for i := 0; i < n; i++ {
		if price[i] > threshold {
			rating[i] = clip(rating[i]+r.NormFloat64()*0.3, 1, 5)
		}
	}

	// Premium customers tend to buy more expensive items
	for i := 0; i < n; i++ {
		if customerType[i] == "Premium" {
			price[i] *= 1.2 + 0.8*r.Float64()
		}
	}

	for i := 0; i < n; i++ {
		revenue[i] = price[i] * quantity[i] * (1 - discount[i]/100)
	}

	return NewTable(
		Column{Name: "price", Kind: KindNumeric, Floats: price},
		Column{Name: "quantity", Kind: KindNumeric, Floats: quantity},
		Column{Name: "rating", Kind: KindNumeric, Floats: rating},
		Column{Name: "discount_pct", Kind: KindNumeric, Floats: discount},
		Column{Name: "revenue", Kind: KindNumeric, Floats: revenue},
		Column{Name: "category", Kind: KindCategorical, Strings: category},
		Column{Name: "region", Kind: KindCategorical, Strings: region},
		Column{Name: "customer_type", Kind: KindCategorical, Strings: customerType},
		Column{Name: "product_name", Kind: KindText, Strings: productName},
		Column{Name: "description", Kind: KindText, Strings: description},
		Column{Name: "purchase_date", Kind: KindDate, Times: purchaseDate},
	)
}

// weightedChoice picks a value by cumulative probability
type weightedChoice struct {
	values  []string
	weights []float64
}

func (w weightedChoice) pick(r *rand.Rand) string {
	u := r.Float64()
	cum := 0.0
	for i, p := range w.weights {
		cum += p
		if u < cum {
			return w.values[i]
		}
	}
	return w.values[len(w.values)-1]
}

// poisson draws from Poisson(lambda) via Knuth's method.
// Fine for the moderate lambda used here.
func poisson(r *rand.Rand, lambda float64) int {
	l := math.Exp(-lambda)
	k := 0
	p := 1.0
	for {
		k++
		p *= r.Float64()
		if p <= l {
			return k - 1
		}
	}
}

// beta draws from Beta(a, b) for integer shapes using the gamma ratio,
// with Gamma(k, 1) sampled as a sum of exponentials
func beta(r *rand.Rand, a, b int) float64 {
	x := gammaInt(r, a)
	y := gammaInt(r, b)
	return x / (x + y)
}

func gammaInt(r *rand.Rand, shape int) float64 {
	prod := 1.0
	for i := 0; i < shape; i++ {
		prod *= 1 - r.Float64() // avoid log(0)
	}
	return -math.Log(prod)
}

func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// quantile returns the q-quantile of values using linear interpolation
func quantile(values []float64, q float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	if len(sorted) == 0 {
		return math.NaN()
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// Package catalog turns raw registry names into catalog records.
package catalog

import (
	"errors"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Lixing-Zhang/medicine-catalog/internal/models"
)

// ErrInvalidRecord is returned for names that are empty after normalization.
var ErrInvalidRecord = errors.New("invalid record: name is empty")

// Synthetic price range. Prices carry no business meaning.
const (
	MinPrice       = 30.0
	MaxPrice       = 400.0
	PricePrecision = 3
)

// Transformer maps raw names to catalog records. It is safe for concurrent use.
type Transformer struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewTransformer creates a transformer with a generator seeded from the clock.
func NewTransformer() *Transformer {
	seed := uint64(time.Now().UnixNano())
	return NewTransformerWithSeed(seed, seed>>1|1)
}

// NewTransformerWithSeed creates a transformer with a fixed PCG seed.
func NewTransformerWithSeed(seed1, seed2 uint64) *Transformer {
	return &Transformer{
		rng: rand.New(rand.NewPCG(seed1, seed2)),
	}
}

// Transform normalizes rawName and assigns a fresh medicine id and price.
// The store-side ID is left empty.
func (t *Transformer) Transform(rawName string) (models.Medicine, error) {
	name := NormalizeName(rawName)
	if name == "" {
		return models.Medicine{}, ErrInvalidRecord
	}

	return models.Medicine{
		MedicineID: uuid.NewString(),
		Name:       name,
		Price:      t.price(),
	}, nil
}

// price draws a uniform value in [MinPrice, MaxPrice) rounded to three places.
func (t *Transformer) price() decimal.Decimal {
	t.mu.Lock()
	f := t.rng.Float64()
	t.mu.Unlock()

	v := MinPrice + f*(MaxPrice-MinPrice)
	return decimal.NewFromFloat(v).Round(PricePrecision)
}

// NormalizeName collapses whitespace runs into single spaces and trims the ends.
func NormalizeName(raw string) string {
	return strings.Join(strings.Fields(raw), " ")
}

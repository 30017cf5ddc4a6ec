package market

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

type Category string

const (
	CategoryGrain     Category = "grain"
	CategoryVegetable Category = "vegetable"
	CategoryInput     Category = "input"
)

// Item is a board entry priced in NPR
type Item struct {
	Name     string          `json:"name"`
	Unit     string          `json:"unit"`
	Price    decimal.Decimal `json:"price"`
	Stock    string          `json:"stock"`
	Category Category        `json:"category"`
}

func (i Item) produce() bool {
	return i.Category == CategoryGrain || i.Category == CategoryVegetable
}

var priceFloor = decimal.NewFromInt(10)

func defaultItems() []Item {
	return []Item{
		{Name: "Paddy", Unit: "kg", Price: decimal.NewFromInt(45), Stock: "High", Category: CategoryGrain},
		{Name: "Maize", Unit: "kg", Price: decimal.NewFromInt(38), Stock: "Medium", Category: CategoryGrain},
		{Name: "Potato", Unit: "kg", Price: decimal.NewFromInt(32), Stock: "High", Category: CategoryVegetable},
		{Name: "Tomato", Unit: "kg", Price: decimal.NewFromInt(55), Stock: "Low", Category: CategoryVegetable},
		{Name: "Urea", Unit: "50kg bag", Price: decimal.NewFromInt(1800), Stock: "Available", Category: CategoryInput},
		{Name: "DAP", Unit: "50kg bag", Price: decimal.NewFromInt(3000), Stock: "Low", Category: CategoryInput},
		{Name: "MoP", Unit: "50kg bag", Price: decimal.NewFromInt(2600), Stock: "Medium", Category: CategoryInput},
	}
}

// Board is a co-op price board. It is safe for concurrent use.
type Board struct {
	mu    sync.RWMutex
	items []Item
}

func NewBoard() *Board {
	return &Board{items: defaultItems()}
}

// NewBoardWith builds a board from the given items
func NewBoardWith(items []Item) *Board {
	return &Board{items: append([]Item(nil), items...)}
}

func (b *Board) Items() []Item {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]Item(nil), b.items...)
}

// AverageProducePrice averages grain and vegetable prices, rounded to one
// decimal place. It is zero when the board has no produce.
func (b *Board) AverageProducePrice() decimal.Decimal {
	b.mu.RLock()
	defer b.mu.RUnlock()

	sum := decimal.Zero
	n := 0
	for _, it := range b.items {
		if it.produce() {
			sum = sum.Add(it.Price)
			n++
		}
	}
	if n == 0 {
		return decimal.Zero
	}
	return sum.Div(decimal.NewFromInt(int64(n))).Round(1)
}

// Tick moves every price by a whole amount in [-2, 4], floored at 10
func (b *Board) Tick(rng *rand.Rand) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := range b.items {
		delta := decimal.NewFromInt(int64(math.Round(rng.Float64()*6 - 2)))
		b.items[i].Price = decimal.Max(priceFloor, b.items[i].Price.Add(delta))
	}
}

// Run ticks the board every interval until ctx is done
func (b *Board) Run(ctx context.Context, interval time.Duration, rng *rand.Rand) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.Tick(rng)
		}
	}
}

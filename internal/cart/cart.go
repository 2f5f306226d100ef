package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/znasser/storefront/internal/models"
)

var ErrValidation = errors.New("validation")

// Line is one purchasable variant (product x color x size) in a cart.
// Descriptive fields and the unit price are fixed when the line is created.
type Line struct {
	LineID    string  `json:"line_id"`
	ProductID uint    `json:"product_id"`
	Name      string  `json:"name"`
	Image     string  `json:"image"`
	Color     string  `json:"color"`
	Size      string  `json:"size"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  uint    `json:"quantity"`
}

// LineID builds the composite key identifying a variant within a cart.
func LineID(productID uint, color, size string) string {
	return fmt.Sprintf("%d|%s|%s", productID, color, size)
}

type State struct {
	Items      []Line  `json:"items"`
	TotalItems uint    `json:"total_items"`
	TotalPrice float64 `json:"total_price"`
}

// Store holds a session cart and writes the full state through to its
// Storage after every mutation. Totals are always recomputed from Items,
// never carried over from a previous state or a persisted snapshot.
type Store struct {
	storage Storage
	key     string
	state   State
}

// NewStore restores the cart persisted under key, or starts empty if the
// key has no snapshot yet.
func NewStore(ctx context.Context, storage Storage, key string) (*Store, error) {
	s := &Store{storage: storage, key: key}

	payload, ok, err := storage.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return s, nil
	}

	var snapshot State
	if err := json.Unmarshal([]byte(payload), &snapshot); err != nil {
		return nil, fmt.Errorf("cart: decode snapshot: %w", err)
	}
	s.Load(snapshot)
	return s, nil
}

func (s *Store) AddItem(ctx context.Context, p models.Product, color, size string, quantity uint) error {
	if color == "" {
		return fmt.Errorf("%w: color is required", ErrValidation)
	}
	if size == "" {
		return fmt.Errorf("%w: size is required", ErrValidation)
	}
	if quantity < 1 {
		return fmt.Errorf("%w: quantity must be at least 1", ErrValidation)
	}

	lineID := LineID(p.ID, color, size)
	if i := s.index(lineID); i >= 0 {
		s.state.Items[i].Quantity += quantity
	} else {
		image := ""
		if len(p.Images) > 0 {
			image = p.Images[0]
		}
		s.state.Items = append(s.state.Items, Line{
			LineID:    lineID,
			ProductID: p.ID,
			Name:      p.Name,
			Image:     image,
			Color:     color,
			Size:      size,
			UnitPrice: p.Price,
			Quantity:  quantity,
		})
	}

	s.recompute()
	return s.persist(ctx)
}

// RemoveItem drops the line with the given id. An unknown id is a no-op.
func (s *Store) RemoveItem(ctx context.Context, lineID string) error {
	i := s.index(lineID)
	if i < 0 {
		return nil
	}
	s.state.Items = append(s.state.Items[:i], s.state.Items[i+1:]...)
	s.recompute()
	return s.persist(ctx)
}

func (s *Store) IncrementQuantity(ctx context.Context, lineID string) error {
	i := s.index(lineID)
	if i < 0 {
		return nil
	}
	s.state.Items[i].Quantity++
	s.recompute()
	return s.persist(ctx)
}

// DecrementQuantity lowers a line's quantity by one, flooring at 1. It
// never removes the line; that takes an explicit RemoveItem.
func (s *Store) DecrementQuantity(ctx context.Context, lineID string) error {
	i := s.index(lineID)
	if i < 0 || s.state.Items[i].Quantity <= 1 {
		return nil
	}
	s.state.Items[i].Quantity--
	s.recompute()
	return s.persist(ctx)
}

func (s *Store) Clear(ctx context.Context) error {
	s.state = State{}
	return s.persist(ctx)
}

// Load replaces the state with a snapshot. The snapshot's stored totals are
// discarded and recomputed from its items, so a corrupted persisted total
// can never survive a restore.
func (s *Store) Load(snapshot State) {
	s.state.Items = append([]Line(nil), snapshot.Items...)
	s.recompute()
}

func (s *Store) GetQuantity(productID uint, color, size string) uint {
	if i := s.index(LineID(productID, color, size)); i >= 0 {
		return s.state.Items[i].Quantity
	}
	return 0
}

func (s *Store) IsInCart(productID uint, color, size string) bool {
	return s.index(LineID(productID, color, size)) >= 0
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	out := s.state
	out.Items = append([]Line(nil), s.state.Items...)
	return out
}

func (s *Store) index(lineID string) int {
	for i := range s.state.Items {
		if s.state.Items[i].LineID == lineID {
			return i
		}
	}
	return -1
}

func (s *Store) recompute() {
	var items uint
	var price float64
	for i := range s.state.Items {
		items += s.state.Items[i].Quantity
		price += float64(s.state.Items[i].Quantity) * s.state.Items[i].UnitPrice
	}
	s.state.TotalItems = items
	s.state.TotalPrice = price
}

func (s *Store) persist(ctx context.Context) error {
	data, err := json.Marshal(s.state)
	if err != nil {
		return fmt.Errorf("cart: encode snapshot: %w", err)
	}
	return s.storage.Set(ctx, s.key, string(data))
}

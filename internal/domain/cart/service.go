// internal/domain/cart/service.go
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/menu-backend/internal/infrastructure/storage"
)

// Store holds the line items of one in-progress order and writes the whole
// cart to its storage key after every mutation.
//
// Storage failures are logged and never returned: a failed load starts an
// empty cart, a failed write keeps the in-memory change. The store does not
// follow writes made to its key by other stores; re-create it to pick them up.
type Store struct {
	mu      sync.Mutex
	storage storage.Storage
	key     string
	items   []CartItem
	now     func() time.Time
	logger  logrus.FieldLogger
}

// Option configures a Store
type Option func(*Store)

// WithClock sets the time source used for item ids
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithLogger sets the logger used for storage failures
func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// NewStore loads the cart persisted under key
func NewStore(ctx context.Context, st storage.Storage, key string, opts ...Option) *Store {
	s := &Store{
		storage: st,
		key:     key,
		items:   []CartItem{},
		now:     time.Now,
		logger:  logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithField("key", key)

	s.load(ctx)
	return s
}

// Items returns a deep copy of the line items in insertion order
func (s *Store) Items() []CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]CartItem, len(s.items))
	for i, item := range s.items {
		items[i] = item.clone()
	}
	return items
}

// Item looks up a line item by id
func (s *Store) Item(itemID string) (CartItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(itemID); i >= 0 {
		return s.items[i].clone(), true
	}
	return CartItem{}, false
}

// Total returns the sum of totalPrice × quantity over all items
func (s *Store) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := decimal.Zero
	for _, item := range s.items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// ItemsCount returns the sum of quantities over all items
func (s *Store) ItemsCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, item := range s.items {
		count += item.Quantity
	}
	return count
}

// AddItem appends item as a new line with quantity 1. Any id or quantity on
// item is ignored. Adding the same dish twice yields two lines.
func (s *Store) AddItem(ctx context.Context, item CartItem) (CartItem, error) {
	if err := item.Validate(); err != nil {
		return CartItem{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item = item.clone()
	item.ID = s.newItemID(item.Dish.ID)
	item.Quantity = 1
	s.items = append(s.items, item)

	s.persist(ctx)
	return item.clone(), nil
}

// UpdateItem replaces the matching line with updated, keeping its id and quantity
func (s *Store) UpdateItem(ctx context.Context, itemID string, updated CartItem) error {
	if err := updated.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(itemID)
	if i < 0 {
		return nil
	}

	updated = updated.clone()
	updated.ID = itemID
	updated.Quantity = s.items[i].Quantity
	s.items[i] = updated

	s.persist(ctx)
	return nil
}

// RemoveItem drops the matching line
func (s *Store) RemoveItem(ctx context.Context, itemID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(itemID)
	if i < 0 {
		return
	}
	s.items = append(s.items[:i], s.items[i+1:]...)

	s.persist(ctx)
}

// UpdateQuantity adds delta to the matching line's quantity; a result of zero
// or less removes the line.
func (s *Store) UpdateQuantity(ctx context.Context, itemID string, delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(itemID)
	if i < 0 {
		return
	}

	quantity := s.items[i].Quantity + delta
	if quantity <= 0 {
		s.items = append(s.items[:i], s.items[i+1:]...)
	} else {
		s.items[i].Quantity = quantity
	}

	s.persist(ctx)
}

// ClearCart removes every line
func (s *Store) ClearCart(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = []CartItem{}
	s.persist(ctx)
}

func (s *Store) indexOf(itemID string) int {
	for i := range s.items {
		if s.items[i].ID == itemID {
			return i
		}
	}
	return -1
}

// newItemID keeps the {dish}_{millis} format and moves to the next
// millisecond while the id is taken.
func (s *Store) newItemID(dishID string) string {
	ts := s.now().UnixMilli()
	for {
		id := fmt.Sprintf("%s_%d", dishID, ts)
		if s.indexOf(id) < 0 {
			return id
		}
		ts++
	}
}

func (s *Store) load(ctx context.Context) {
	raw, err := s.storage.Get(ctx, s.key)
	if errors.Is(err, storage.ErrNotFound) {
		return
	}
	if err != nil {
		s.logger.WithError(err).Warn("Failed to read cart, starting empty")
		return
	}

	var items []CartItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		s.logger.WithError(err).Warn("Stored cart is malformed, starting empty")
		return
	}

	seen := make(map[string]bool, len(items))
	for _, item := range items {
		if item.ID == "" || item.Quantity < 1 || seen[item.ID] {
			s.logger.WithField("item_id", item.ID).Warn("Dropping invalid stored cart item")
			continue
		}
		seen[item.ID] = true
		s.items = append(s.items, item)
	}
}

func (s *Store) persist(ctx context.Context) {
	data, err := json.Marshal(s.items)
	if err != nil {
		s.logger.WithError(err).Error("Failed to encode cart")
		return
	}
	if err := s.storage.Set(ctx, s.key, string(data)); err != nil {
		s.logger.WithError(err).Error("Failed to persist cart")
	}
}

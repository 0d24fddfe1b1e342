// Package commerce owns the cart and favorites of one shopper session and
// keeps them reconciled with the remote commerce backend.
package commerce

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/logging"
)

// ErrProductIDRequired is returned when a favorite carries no product id.
var ErrProductIDRequired = errors.New("product id required")

type remote interface {
	CreateCart(ctx context.Context) (domain.Cart, error)
	FetchCartLines(ctx context.Context, cartID string) ([]domain.CartLine, string, error)
	AddLine(ctx context.Context, cartID, variantID string, quantity int) error
	RemoveLine(ctx context.Context, cartID, lineID string) error
}

type cartPersistence interface {
	LoadCartRef(ctx context.Context, sessionID string) (domain.CartRef, bool)
	SaveCartRef(ctx context.Context, sessionID string, ref domain.CartRef) error
	LoadFavorites(ctx context.Context, sessionID string) []domain.FavoriteEntry
	SaveFavorites(ctx context.Context, sessionID string, favorites []domain.FavoriteEntry) error
}

// State is the cart lifecycle of a Store.
type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateReady
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	default:
		return "uninitialized"
	}
}

// Options tunes a Store.
type Options struct {
	// SerializeMutations runs cart mutations one at a time instead of letting
	// them overlap.
	SerializeMutations bool
}

// AddInput describes an add-to-cart request. Quantity defaults to 1.
type AddInput struct {
	VariantID string `json:"variantId"`
	Quantity  int    `json:"quantity"`
}

// Store is the commerce state of one session. It is safe for concurrent use.
type Store struct {
	sessionID string
	remote    remote
	persist   cartPersistence
	logger    *zap.Logger
	opts      Options

	initMu     sync.Mutex
	mutationMu sync.Mutex
	favMu      sync.Mutex

	mu            sync.RWMutex
	state         State
	cart          domain.Cart
	favorites     []domain.FavoriteEntry
	favLoaded     bool
	closed        bool
	issuedGen     uint64
	appliedGen    uint64
	subscribers   map[int]chan Event
	nextSubscribe int

	inFlight atomic.Int64
}

// NewStore builds an uninitialized store. Call Init before reading the cart.
func NewStore(sessionID string, r remote, p cartPersistence, logger *zap.Logger, opts Options) *Store {
	return &Store{
		sessionID:   sessionID,
		remote:      r,
		persist:     p,
		logger:      logging.OrNop(logger).Named("commerce").With(zap.String("session_id", sessionID)),
		opts:        opts,
		subscribers: make(map[int]chan Event),
	}
}

// SessionID returns the session the store belongs to.
func (s *Store) SessionID() string { return s.sessionID }

// State reports the cart lifecycle state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// InFlight reports the number of cart mutations currently running.
func (s *Store) InFlight() int {
	return int(s.inFlight.Load())
}

// Init loads favorites and resolves the session cart: the persisted cart is
// re-fetched, and a new cart is created when none is persisted or the remote
// no longer knows it. Init is a no-op once the store is ready. On failure the
// store drops back to uninitialized so a later call retries.
func (s *Store) Init(ctx context.Context) error {
	s.initMu.Lock()
	defer s.initMu.Unlock()

	s.loadFavorites(ctx)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return errStoreClosed
	}
	if s.state == StateReady {
		s.mu.Unlock()
		return nil
	}
	s.state = StateLoading
	s.mu.Unlock()

	if ref, ok := s.persist.LoadCartRef(ctx, s.sessionID); ok {
		gen := s.issue()
		lines, checkoutURL, err := s.remote.FetchCartLines(ctx, ref.ID)
		switch {
		case err == nil:
			if checkoutURL == "" {
				checkoutURL = ref.CheckoutURL
			}
			cart := domain.Cart{ID: ref.ID, CheckoutURL: checkoutURL, Lines: lines}
			if checkoutURL != ref.CheckoutURL {
				s.saveRef(ctx, cart.Ref())
			}
			s.apply(gen, cart, true)
			return nil
		case errors.Is(err, domain.ErrCartStale):
			s.logger.Info("persisted cart is stale, recreating", zap.String("cart_id", ref.ID))
		default:
			s.setState(StateUninitialized)
			return fmt.Errorf("load cart: %w", err)
		}
	}
	return s.recreate(ctx)
}

// recreate creates a fresh remote cart, persists it and marks the store ready
// with an empty line list.
func (s *Store) recreate(ctx context.Context) error {
	gen := s.issue()
	cart, err := s.remote.CreateCart(ctx)
	if err != nil {
		s.setState(StateUninitialized)
		return fmt.Errorf("create cart: %w", err)
	}
	cart.Lines = []domain.CartLine{}
	s.saveRef(ctx, cart.Ref())
	s.apply(gen, cart, true)
	s.logger.Info("cart created", zap.String("cart_id", cart.ID))
	return nil
}

func (s *Store) saveRef(ctx context.Context, ref domain.CartRef) {
	if err := s.persist.SaveCartRef(ctx, s.sessionID, ref); err != nil {
		s.logger.Warn("persist cart ref failed", zap.String("cart_id", ref.ID), zap.Error(err))
	}
}

func (s *Store) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// issue reserves a generation for a remote read that will replace the cart.
func (s *Store) issue() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issuedGen++
	return s.issuedGen
}

// apply installs cart if gen is newer than the last applied one and the store
// is still alive. Reports whether the cart was installed.
func (s *Store) apply(gen uint64, cart domain.Cart, ready bool) bool {
	s.mu.Lock()
	if s.closed || gen < s.appliedGen {
		s.mu.Unlock()
		s.logger.Debug("dropping late cart response", zap.Uint64("generation", gen))
		return false
	}
	if cart.Lines == nil {
		cart.Lines = []domain.CartLine{}
	}
	s.appliedGen = gen
	s.cart = cart
	if ready {
		s.state = StateReady
	}
	snapshot := cart.Clone()
	s.broadcastLocked(Event{Kind: EventCart, Cart: &snapshot})
	s.mu.Unlock()
	return true
}

// ensureReady initializes the store on first use and returns the cart id.
func (s *Store) ensureReady(ctx context.Context) (string, error) {
	s.mu.RLock()
	closed, state, id := s.closed, s.state, s.cart.ID
	s.mu.RUnlock()
	if closed {
		return "", errStoreClosed
	}
	if state == StateReady && id != "" {
		return id, nil
	}
	if err := s.Init(ctx); err != nil {
		return "", err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cart.ID, nil
}

// refresh re-fetches the authoritative line list. A stale cart is recreated.
func (s *Store) refresh(ctx context.Context, cartID string) error {
	gen := s.issue()
	lines, checkoutURL, err := s.remote.FetchCartLines(ctx, cartID)
	if errors.Is(err, domain.ErrCartStale) {
		_, err := s.replaceStale(ctx, cartID)
		return err
	}
	if err != nil {
		return fmt.Errorf("refresh cart: %w", err)
	}
	s.mu.RLock()
	current := s.cart
	s.mu.RUnlock()
	if current.ID != cartID {
		return nil
	}
	if checkoutURL == "" {
		checkoutURL = current.CheckoutURL
	}
	s.apply(gen, domain.Cart{ID: cartID, CheckoutURL: checkoutURL, Lines: lines}, false)
	return nil
}

// replaceStale recreates the cart after the remote reported staleID gone and
// returns the id to use from now on. Overlapping callers that saw the same
// stale id share one new cart.
func (s *Store) replaceStale(ctx context.Context, staleID string) (string, error) {
	s.initMu.Lock()
	defer s.initMu.Unlock()

	s.mu.RLock()
	current, closed := s.cart.ID, s.closed
	s.mu.RUnlock()
	if closed {
		return "", errStoreClosed
	}
	if current != "" && current != staleID {
		return current, nil
	}
	s.logger.Info("cart vanished during session, recreating", zap.String("cart_id", staleID))
	if err := s.recreate(ctx); err != nil {
		return "", err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cart.ID, nil
}

func (s *Store) beginMutation() func() {
	if s.opts.SerializeMutations {
		s.mutationMu.Lock()
	}
	s.inFlight.Add(1)
	return func() {
		s.inFlight.Add(-1)
		if s.opts.SerializeMutations {
			s.mutationMu.Unlock()
		}
	}
}

// AddToCart adds a variant to the cart and re-fetches the line list whether
// or not the add succeeded. A blank variant returns domain.ErrVariantRequired
// without touching the remote. When the remote no longer knows the cart, a
// new cart is created and the add is issued once more against it.
func (s *Store) AddToCart(ctx context.Context, in AddInput) error {
	mutErr, refreshErr := s.addToCart(ctx, in)
	if mutErr != nil {
		return mutErr
	}
	return refreshErr
}

// addToCart keeps the mutation error apart from the re-fetch error.
func (s *Store) addToCart(ctx context.Context, in AddInput) (mutErr, refreshErr error) {
	variantID := strings.TrimSpace(in.VariantID)
	if variantID == "" {
		return domain.ErrVariantRequired, nil
	}
	qty := in.Quantity
	if qty <= 0 {
		qty = 1
	}
	cartID, err := s.ensureReady(ctx)
	if err != nil {
		return err, nil
	}

	done := s.beginMutation()
	defer done()

	mutErr = s.remote.AddLine(ctx, cartID, variantID, qty)
	if errors.Is(mutErr, domain.ErrCartStale) {
		newID, err := s.replaceStale(ctx, cartID)
		if err != nil {
			return err, nil
		}
		cartID = newID
		mutErr = s.remote.AddLine(ctx, cartID, variantID, qty)
		if errors.Is(mutErr, domain.ErrCartStale) {
			mutErr = fmt.Errorf("%w: new cart %s vanished", domain.ErrRemoteUnavailable, cartID)
		}
	}
	if mutErr != nil {
		s.logger.Warn("add to cart failed", zap.String("variant_id", variantID), zap.Error(mutErr))
	}
	if err := s.refresh(ctx, cartID); err != nil {
		s.logger.Warn("refresh after add failed", zap.Error(err))
		refreshErr = err
	}
	return mutErr, refreshErr
}

// RemoveFromCart removes a line and re-fetches. A blank line id, or a store
// without a cart, is a no-op.
func (s *Store) RemoveFromCart(ctx context.Context, lineID string) error {
	lineID = strings.TrimSpace(lineID)
	if lineID == "" {
		return nil
	}
	s.mu.RLock()
	cartID, closed := s.cart.ID, s.closed
	s.mu.RUnlock()
	if closed || cartID == "" {
		return nil
	}

	done := s.beginMutation()
	defer done()

	mutErr := s.remote.RemoveLine(ctx, cartID, lineID)
	if errors.Is(mutErr, domain.ErrCartStale) {
		// The line went away with its cart; the re-fetch below recreates it.
		mutErr = nil
	}
	if mutErr != nil {
		s.logger.Warn("remove from cart failed", zap.String("line_id", lineID), zap.Error(mutErr))
	}
	if err := s.refresh(ctx, cartID); err != nil {
		s.logger.Warn("refresh after remove failed", zap.Error(err))
		if mutErr == nil {
			return err
		}
	}
	return mutErr
}

// Cart returns a snapshot of the cart.
func (s *Store) Cart() domain.Cart {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cart.Clone()
}

// CheckoutURL returns the remote-issued checkout redirect, or "" before the
// cart exists.
func (s *Store) CheckoutURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cart.CheckoutURL
}

func (s *Store) loadFavorites(ctx context.Context) {
	s.favMu.Lock()
	defer s.favMu.Unlock()
	s.mu.RLock()
	loaded := s.favLoaded
	s.mu.RUnlock()
	if loaded {
		return
	}
	favs := s.persist.LoadFavorites(ctx, s.sessionID)
	s.mu.Lock()
	s.favorites = favs
	s.favLoaded = true
	s.mu.Unlock()
}

// Favorites returns a copy of the favorites list in insertion order.
func (s *Store) Favorites() []domain.FavoriteEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneFavorites(s.favorites)
}

// Favorite looks up one favorite by product id.
func (s *Store) Favorite(productID string) (domain.FavoriteEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, f := range s.favorites {
		if f.ProductID == productID {
			return f, true
		}
	}
	return domain.FavoriteEntry{}, false
}

// AddToFavorites inserts entry unless a favorite with the same product id
// exists. Reports whether the list changed. The whole list is persisted
// before returning.
func (s *Store) AddToFavorites(ctx context.Context, entry domain.FavoriteEntry) (bool, error) {
	entry.ProductID = strings.TrimSpace(entry.ProductID)
	if entry.ProductID == "" {
		return false, ErrProductIDRequired
	}
	s.loadFavorites(ctx)

	s.favMu.Lock()
	defer s.favMu.Unlock()
	if _, ok := s.Favorite(entry.ProductID); ok {
		return false, nil
	}
	next := append(s.Favorites(), entry)
	return true, s.commitFavorites(ctx, next)
}

// RemoveFromFavorites drops the favorite for productID. Reports whether the
// list changed.
func (s *Store) RemoveFromFavorites(ctx context.Context, productID string) (bool, error) {
	s.loadFavorites(ctx)

	s.favMu.Lock()
	defer s.favMu.Unlock()
	current := s.Favorites()
	next := current[:0]
	for _, f := range current {
		if f.ProductID != productID {
			next = append(next, f)
		}
	}
	if len(next) == len(current) {
		return false, nil
	}
	return true, s.commitFavorites(ctx, next)
}

// commitFavorites persists the list and then installs it, so a failed write
// leaves memory and storage on the previous list. Caller holds favMu.
func (s *Store) commitFavorites(ctx context.Context, next []domain.FavoriteEntry) error {
	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return errStoreClosed
	}
	if err := s.persist.SaveFavorites(ctx, s.sessionID, next); err != nil {
		return fmt.Errorf("persist favorites: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errStoreClosed
	}
	s.favorites = next
	s.broadcastLocked(Event{Kind: EventFavorites, Favorites: cloneFavorites(next)})
	return nil
}

// MoveToCartFromFavorites adds the favorite's variant to the cart, then
// removes the favorite. Entries without a variant are rejected with
// domain.ErrVariantRequired before any remote call. The favorite is kept when
// the add fails. When the add lands but the re-fetch fails, the favorite is
// still removed and the re-fetch error is returned.
func (s *Store) MoveToCartFromFavorites(ctx context.Context, entry domain.FavoriteEntry) error {
	if !entry.HasVariant() {
		return domain.ErrVariantRequired
	}
	mutErr, refreshErr := s.addToCart(ctx, AddInput{VariantID: entry.VariantID, Quantity: 1})
	if mutErr != nil {
		return mutErr
	}
	if _, err := s.RemoveFromFavorites(ctx, entry.ProductID); err != nil {
		return err
	}
	return refreshErr
}

// Close marks the store dead. Late remote responses are discarded and
// subscriber channels are closed.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for id, ch := range s.subscribers {
		close(ch)
		delete(s.subscribers, id)
	}
}

func cloneFavorites(in []domain.FavoriteEntry) []domain.FavoriteEntry {
	out := make([]domain.FavoriteEntry, len(in))
	copy(out, in)
	return out
}

var errStoreClosed = errors.New("commerce store closed")

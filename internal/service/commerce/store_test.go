package commerce

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"storefront/internal/domain"
	"storefront/internal/persistence"
)

// fakeRemote is an in-memory commerce backend.
type fakeRemote struct {
	mu       sync.Mutex
	carts    map[string][]domain.CartLine
	nextCart int
	nextLine int

	createCalls int
	fetchCalls  int
	addCalls    int
	removeCalls int

	createErr error
	fetchErr  error
	addErr    error

	addDelay    time.Duration
	inAdd       int
	maxInAdd    int
	beforeFetch func()
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{carts: make(map[string][]domain.CartLine)}
}

func (f *fakeRemote) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.createCalls + f.fetchCalls + f.addCalls + f.removeCalls
}

func (f *fakeRemote) lines(cartID string) []domain.CartLine {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.CartLine, len(f.carts[cartID]))
	copy(out, f.carts[cartID])
	return out
}

func (f *fakeRemote) CreateCart(_ context.Context) (domain.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if f.createErr != nil {
		return domain.Cart{}, f.createErr
	}
	f.nextCart++
	id := fmt.Sprintf("gid://shopify/Cart/%d", f.nextCart)
	f.carts[id] = []domain.CartLine{}
	return domain.Cart{ID: id, CheckoutURL: fmt.Sprintf("https://shop.example/checkout/%d", f.nextCart)}, nil
}

func (f *fakeRemote) FetchCartLines(_ context.Context, cartID string) ([]domain.CartLine, string, error) {
	if f.beforeFetch != nil {
		f.beforeFetch()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchCalls++
	if f.fetchErr != nil {
		return nil, "", f.fetchErr
	}
	lines, ok := f.carts[cartID]
	if !ok {
		return nil, "", domain.ErrCartStale
	}
	out := make([]domain.CartLine, len(lines))
	copy(out, lines)
	return out, "", nil
}

func (f *fakeRemote) AddLine(_ context.Context, cartID, variantID string, quantity int) error {
	f.mu.Lock()
	f.addCalls++
	f.inAdd++
	if f.inAdd > f.maxInAdd {
		f.maxInAdd = f.inAdd
	}
	delay := f.addDelay
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.inAdd--
	if f.addErr != nil {
		return f.addErr
	}
	lines, ok := f.carts[cartID]
	if !ok {
		return domain.ErrCartStale
	}
	for i := range lines {
		if lines[i].VariantID == variantID {
			lines[i].Quantity += quantity
			return nil
		}
	}
	f.nextLine++
	f.carts[cartID] = append(lines, domain.CartLine{
		ID:        fmt.Sprintf("line-%d", f.nextLine),
		VariantID: variantID,
		Title:     "Item " + variantID,
		UnitPrice: domain.Money{Amount: decimal.NewFromInt(50), CurrencyCode: "USD"},
		Quantity:  quantity,
	})
	return nil
}

func (f *fakeRemote) RemoveLine(_ context.Context, cartID, lineID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removeCalls++
	lines, ok := f.carts[cartID]
	if !ok {
		return domain.ErrCartStale
	}
	out := lines[:0]
	for _, l := range lines {
		if l.ID != lineID {
			out = append(out, l)
		}
	}
	f.carts[cartID] = out
	return nil
}

func newTestStore(t *testing.T, opts Options) (*Store, *fakeRemote, *persistence.MemoryAdapter) {
	t.Helper()
	remote := newFakeRemote()
	mem := persistence.NewMemory(nil)
	st := NewStore("sess-1", remote, mem, nil, opts)
	t.Cleanup(st.Close)
	return st, remote, mem
}

func TestInit_CreatesCartWhenNonePersisted(t *testing.T) {
	ctx := context.Background()
	st, remote, mem := newTestStore(t, Options{})

	if err := st.Init(ctx); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if remote.createCalls != 1 {
		t.Fatalf("expected one create, got %d", remote.createCalls)
	}
	if st.State() != StateReady {
		t.Fatalf("expected ready, got %s", st.State())
	}
	ref, ok := mem.LoadCartRef(ctx, "sess-1")
	if !ok || ref.ID != st.Cart().ID || ref.CheckoutURL == "" {
		t.Fatalf("cart ref not persisted: %+v", ref)
	}
	if st.CheckoutURL() != ref.CheckoutURL {
		t.Fatalf("checkout url mismatch")
	}

	if err := st.Init(ctx); err != nil {
		t.Fatalf("second Init: %v", err)
	}
	if remote.calls() != 1 {
		t.Fatalf("second Init must be a no-op, calls=%d", remote.calls())
	}
}

func TestInit_ReusesPersistedCart(t *testing.T) {
	ctx := context.Background()
	st, remote, mem := newTestStore(t, Options{})
	cart, _ := remote.CreateCart(ctx)
	_ = remote.AddLine(ctx, cart.ID, "v1", 2)
	_ = mem.SaveCartRef(ctx, "sess-1", cart.Ref())
	remote.createCalls = 0

	if err := st.Init(ctx); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if remote.createCalls != 0 {
		t.Fatalf("expected no create, got %d", remote.createCalls)
	}
	got := st.Cart()
	if got.ID != cart.ID || len(got.Lines) != 1 || got.ItemCount() != 2 {
		t.Fatalf("unexpected cart %+v", got)
	}
}

func TestInit_StaleCartRecreatedOnce(t *testing.T) {
	ctx := context.Background()
	st, remote, mem := newTestStore(t, Options{})
	_ = mem.SaveCartRef(ctx, "sess-1", domain.CartRef{ID: "gid://shopify/Cart/expired", CheckoutURL: "https://old"})

	if err := st.Init(ctx); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if remote.createCalls != 1 {
		t.Fatalf("expected exactly one create, got %d", remote.createCalls)
	}
	ref, _ := mem.LoadCartRef(ctx, "sess-1")
	if ref.ID == "gid://shopify/Cart/expired" || ref.ID != st.Cart().ID {
		t.Fatalf("new cart id not persisted: %+v", ref)
	}
	if lines := st.Cart().Lines; lines == nil || len(lines) != 0 {
		t.Fatalf("expected empty line list, got %#v", lines)
	}
}

func TestInit_RemoteDownRetriesLater(t *testing.T) {
	ctx := context.Background()
	st, remote, _ := newTestStore(t, Options{})
	remote.createErr = domain.ErrRemoteUnavailable

	if err := st.Init(ctx); !errors.Is(err, domain.ErrRemoteUnavailable) {
		t.Fatalf("expected remote unavailable, got %v", err)
	}
	if st.State() != StateUninitialized {
		t.Fatalf("expected uninitialized, got %s", st.State())
	}

	remote.mu.Lock()
	remote.createErr = nil
	remote.mu.Unlock()
	if err := st.AddToCart(ctx, AddInput{VariantID: "v1"}); err != nil {
		t.Fatalf("AddToCart: %v", err)
	}
	if st.State() != StateReady || len(st.Cart().Lines) != 1 {
		t.Fatalf("expected ready cart with one line, got %s %+v", st.State(), st.Cart())
	}
}

func TestAddToCart_VariantRequiredMakesNoCalls(t *testing.T) {
	st, remote, _ := newTestStore(t, Options{})

	err := st.AddToCart(context.Background(), AddInput{VariantID: "  ", Quantity: 2})
	if !errors.Is(err, domain.ErrVariantRequired) {
		t.Fatalf("expected variant required, got %v", err)
	}
	if remote.calls() != 0 {
		t.Fatalf("expected zero remote calls, got %d", remote.calls())
	}
}

func TestAddToCart_RefetchesAndDefaultsQuantity(t *testing.T) {
	ctx := context.Background()
	st, remote, _ := newTestStore(t, Options{})
	if err := st.Init(ctx); err != nil {
		t.Fatalf("Init: %v", err)
	}

	if err := st.AddToCart(ctx, AddInput{VariantID: "v1"}); err != nil {
		t.Fatalf("AddToCart: %v", err)
	}
	if remote.fetchCalls != 1 {
		t.Fatalf("expected a re-fetch after add, got %d", remote.fetchCalls)
	}
	cart := st.Cart()
	if len(cart.Lines) != 1 || cart.Lines[0].Quantity != 1 {
		t.Fatalf("unexpected lines %+v", cart.Lines)
	}
	if cart.Subtotal().Amount.String() != "50" {
		t.Fatalf("unexpected subtotal %s", cart.Subtotal())
	}
}

func TestAddToCart_FailedMutationStillRefetches(t *testing.T) {
	ctx := context.Background()
	st, remote, _ := newTestStore(t, Options{})
	_ = st.Init(ctx)
	remote.addErr = domain.ErrRemoteUnavailable

	err := st.AddToCart(ctx, AddInput{VariantID: "v1"})
	if !errors.Is(err, domain.ErrRemoteUnavailable) {
		t.Fatalf("expected mutation error, got %v", err)
	}
	if remote.fetchCalls != 1 {
		t.Fatalf("expected re-fetch after failed add, got %d", remote.fetchCalls)
	}
	if len(st.Cart().Lines) != 0 {
		t.Fatalf("cart should reflect unchanged remote state")
	}
}

func TestRemoveFromCart(t *testing.T) {
	ctx := context.Background()
	st, remote, _ := newTestStore(t, Options{})
	_ = st.Init(ctx)
	_ = st.AddToCart(ctx, AddInput{VariantID: "v1"})
	_ = st.AddToCart(ctx, AddInput{VariantID: "v2"})

	lineID := st.Cart().Lines[0].ID
	if err := st.RemoveFromCart(ctx, lineID); err != nil {
		t.Fatalf("RemoveFromCart: %v", err)
	}
	lines := st.Cart().Lines
	if len(lines) != 1 || lines[0].VariantID != "v2" {
		t.Fatalf("unexpected lines %+v", lines)
	}

	before := remote.calls()
	if err := st.RemoveFromCart(ctx, ""); err != nil {
		t.Fatalf("blank line id: %v", err)
	}
	if remote.calls() != before {
		t.Fatalf("blank line id must not reach the remote")
	}
}

func TestRemoveFromCart_NoCartIsNoop(t *testing.T) {
	st, remote, _ := newTestStore(t, Options{})
	if err := st.RemoveFromCart(context.Background(), "line-1"); err != nil {
		t.Fatalf("RemoveFromCart: %v", err)
	}
	if remote.calls() != 0 {
		t.Fatalf("expected no remote calls, got %d", remote.calls())
	}
}

func TestMutation_StaleCartMidSessionRecreates(t *testing.T) {
	ctx := context.Background()
	st, remote, mem := newTestStore(t, Options{})
	_ = st.Init(ctx)
	oldID := st.Cart().ID

	remote.mu.Lock()
	delete(remote.carts, oldID)
	remote.mu.Unlock()

	if err := st.AddToCart(ctx, AddInput{VariantID: "v1"}); err != nil {
		t.Fatalf("AddToCart on vanished cart: %v", err)
	}
	cart := st.Cart()
	if cart.ID == oldID || len(cart.Lines) != 1 || cart.Lines[0].VariantID != "v1" {
		t.Fatalf("expected new cart holding the added line, got %+v", cart)
	}
	if remote.createCalls != 2 {
		t.Fatalf("expected one recreate after init, got %d creates", remote.createCalls)
	}
	if ref, _ := mem.LoadCartRef(ctx, "sess-1"); ref.ID != cart.ID {
		t.Fatalf("recreated cart not persisted")
	}
}

func TestMutation_OverlappingStaleAddsShareOneNewCart(t *testing.T) {
	ctx := context.Background()
	st, remote, _ := newTestStore(t, Options{})
	_ = st.Init(ctx)

	remote.mu.Lock()
	delete(remote.carts, st.Cart().ID)
	remote.addDelay = 2 * time.Millisecond
	remote.mu.Unlock()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = st.AddToCart(ctx, AddInput{VariantID: fmt.Sprintf("v%d", i)})
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("add %d: %v", i, err)
		}
	}
	if remote.createCalls != 2 {
		t.Fatalf("expected a single recreate, got %d creates", remote.createCalls)
	}
	if lines := st.Cart().Lines; len(lines) != 2 {
		t.Fatalf("expected both lines in the new cart, got %+v", lines)
	}
}

func TestRemoveFromCart_StaleCartIsRecreated(t *testing.T) {
	ctx := context.Background()
	st, remote, _ := newTestStore(t, Options{})
	_ = st.Init(ctx)
	_ = st.AddToCart(ctx, AddInput{VariantID: "v1"})
	oldID := st.Cart().ID
	lineID := st.Cart().Lines[0].ID

	remote.mu.Lock()
	delete(remote.carts, oldID)
	remote.mu.Unlock()

	if err := st.RemoveFromCart(ctx, lineID); err != nil {
		t.Fatalf("RemoveFromCart on vanished cart: %v", err)
	}
	if cart := st.Cart(); cart.ID == oldID || len(cart.Lines) != 0 {
		t.Fatalf("expected fresh empty cart, got %+v", cart)
	}
}

func TestConcurrentMutations_SettleOnRemoteState(t *testing.T) {
	ctx := context.Background()
	st, remote, _ := newTestStore(t, Options{})
	_ = st.Init(ctx)
	remote.addDelay = time.Millisecond

	var wg sync.WaitGroup
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = st.AddToCart(ctx, AddInput{VariantID: fmt.Sprintf("v%d", i%4), Quantity: 1})
		}(i)
	}
	wg.Wait()

	lines := st.Cart().Lines
	for _, l := range lines[:1] {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_ = st.RemoveFromCart(ctx, id)
		}(l.ID)
	}
	wg.Wait()

	want := remote.lines(st.Cart().ID)
	got := st.Cart().Lines
	if len(got) != len(want) {
		t.Fatalf("displayed %d lines, remote has %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("line %d: displayed %+v, remote %+v", i, got[i], want[i])
		}
	}
	if st.InFlight() != 0 {
		t.Fatalf("expected no in-flight mutations")
	}
}

func TestSerializeMutations(t *testing.T) {
	ctx := context.Background()
	st, remote, _ := newTestStore(t, Options{SerializeMutations: true})
	_ = st.Init(ctx)
	remote.addDelay = 2 * time.Millisecond

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = st.AddToCart(ctx, AddInput{VariantID: fmt.Sprintf("v%d", i)})
		}(i)
	}
	wg.Wait()

	if remote.maxInAdd != 1 {
		t.Fatalf("expected serialized adds, saw %d concurrent", remote.maxInAdd)
	}
	if len(st.Cart().Lines) != 6 {
		t.Fatalf("expected 6 lines, got %d", len(st.Cart().Lines))
	}
}

func TestFavorites_AddIsIdempotent(t *testing.T) {
	ctx := context.Background()
	st, remote, mem := newTestStore(t, Options{})
	entry := domain.FavoriteEntry{ProductID: "p1", Title: "Opal Ring", Price: decimal.RequireFromString("120"), Currency: "USD"}

	added, err := st.AddToFavorites(ctx, entry)
	if err != nil || !added {
		t.Fatalf("first add: added=%v err=%v", added, err)
	}
	added, err = st.AddToFavorites(ctx, entry)
	if err != nil || added {
		t.Fatalf("second add: added=%v err=%v", added, err)
	}
	if favs := st.Favorites(); len(favs) != 1 {
		t.Fatalf("expected single entry, got %+v", favs)
	}
	if favs := mem.LoadFavorites(ctx, "sess-1"); len(favs) != 1 {
		t.Fatalf("expected favorites persisted, got %+v", favs)
	}
	if remote.calls() != 0 {
		t.Fatalf("favorites must stay local")
	}
}

func TestFavorites_RemoveThenAddRoundTrip(t *testing.T) {
	ctx := context.Background()
	st, _, _ := newTestStore(t, Options{})
	entry := domain.FavoriteEntry{ProductID: "p1", VariantID: "v1", Title: "Pearl Drop", Handle: "pearl-drop", Price: decimal.RequireFromString("80"), Currency: "USD"}
	_, _ = st.AddToFavorites(ctx, entry)

	removed, err := st.RemoveFromFavorites(ctx, "p1")
	if err != nil || !removed {
		t.Fatalf("remove: removed=%v err=%v", removed, err)
	}
	if len(st.Favorites()) != 0 {
		t.Fatalf("expected empty favorites")
	}
	_, _ = st.AddToFavorites(ctx, entry)
	got, ok := st.Favorite("p1")
	if !ok || got.Title != entry.Title || got.VariantID != entry.VariantID || !got.Price.Equal(entry.Price) {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestFavorites_RequiresProductID(t *testing.T) {
	st, _, _ := newTestStore(t, Options{})
	if _, err := st.AddToFavorites(context.Background(), domain.FavoriteEntry{Title: "x"}); !errors.Is(err, ErrProductIDRequired) {
		t.Fatalf("expected product id error, got %v", err)
	}
}

// failingFavorites rejects favorites writes.
type failingFavorites struct {
	*persistence.MemoryAdapter
	err error
}

func (f failingFavorites) SaveFavorites(context.Context, string, []domain.FavoriteEntry) error {
	return f.err
}

func TestFavorites_PersistFailureKeepsPreviousList(t *testing.T) {
	ctx := context.Background()
	mem := persistence.NewMemory(nil)
	_ = mem.SaveFavorites(ctx, "sess-1", []domain.FavoriteEntry{{ProductID: "p1", Title: "Cuff"}})
	store := failingFavorites{MemoryAdapter: mem, err: errors.New("redis down")}
	st := NewStore("sess-1", newFakeRemote(), store, nil, Options{})
	t.Cleanup(st.Close)
	events, cancel := st.Subscribe()
	defer cancel()

	if _, err := st.AddToFavorites(ctx, domain.FavoriteEntry{ProductID: "p2"}); err == nil {
		t.Fatalf("expected persist error on add")
	}
	if _, err := st.RemoveFromFavorites(ctx, "p1"); err == nil {
		t.Fatalf("expected persist error on remove")
	}

	if favs := st.Favorites(); len(favs) != 1 || favs[0].ProductID != "p1" {
		t.Fatalf("in-memory favorites changed: %+v", favs)
	}
	if favs := mem.LoadFavorites(ctx, "sess-1"); len(favs) != 1 || favs[0].ProductID != "p1" {
		t.Fatalf("persisted favorites changed: %+v", favs)
	}
	select {
	case evt := <-events:
		t.Fatalf("failed write must not broadcast, got %+v", evt)
	default:
	}
}

func TestFavorites_LoadedFromPersistence(t *testing.T) {
	ctx := context.Background()
	st, _, mem := newTestStore(t, Options{})
	_ = mem.SaveFavorites(ctx, "sess-1", []domain.FavoriteEntry{{ProductID: "p9", Title: "Cuff"}})

	if err := st.Init(ctx); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if favs := st.Favorites(); len(favs) != 1 || favs[0].ProductID != "p9" {
		t.Fatalf("unexpected favorites %+v", favs)
	}
}

func TestMoveToCartFromFavorites(t *testing.T) {
	ctx := context.Background()
	st, _, _ := newTestStore(t, Options{})
	_ = st.Init(ctx)
	entry := domain.FavoriteEntry{ProductID: "p1", VariantID: "v7", Title: "Signet"}
	_, _ = st.AddToFavorites(ctx, entry)

	if err := st.MoveToCartFromFavorites(ctx, entry); err != nil {
		t.Fatalf("MoveToCartFromFavorites: %v", err)
	}
	if _, ok := st.Favorite("p1"); ok {
		t.Fatalf("favorite should be removed")
	}
	lines := st.Cart().Lines
	if len(lines) != 1 || lines[0].VariantID != "v7" {
		t.Fatalf("unexpected lines %+v", lines)
	}
}

func TestMoveToCartFromFavorites_WithoutVariant(t *testing.T) {
	ctx := context.Background()
	st, remote, _ := newTestStore(t, Options{})
	entry := domain.FavoriteEntry{ProductID: "p1", Title: "Chain"}
	_, _ = st.AddToFavorites(ctx, entry)

	if err := st.MoveToCartFromFavorites(ctx, entry); !errors.Is(err, domain.ErrVariantRequired) {
		t.Fatalf("expected variant required, got %v", err)
	}
	if remote.calls() != 0 {
		t.Fatalf("expected no remote calls, got %d", remote.calls())
	}
	if _, ok := st.Favorite("p1"); !ok {
		t.Fatalf("favorite should be kept")
	}
}

func TestMoveToCartFromFavorites_AddFailureKeepsFavorite(t *testing.T) {
	ctx := context.Background()
	st, remote, _ := newTestStore(t, Options{})
	_ = st.Init(ctx)
	entry := domain.FavoriteEntry{ProductID: "p1", VariantID: "v1"}
	_, _ = st.AddToFavorites(ctx, entry)
	remote.addErr = domain.ErrRemoteUnavailable

	if err := st.MoveToCartFromFavorites(ctx, entry); !errors.Is(err, domain.ErrRemoteUnavailable) {
		t.Fatalf("expected remote error, got %v", err)
	}
	if _, ok := st.Favorite("p1"); !ok {
		t.Fatalf("favorite should be kept after failed add")
	}
}

func TestMoveToCartFromFavorites_RefreshFailureAfterAdd(t *testing.T) {
	ctx := context.Background()
	st, remote, _ := newTestStore(t, Options{})
	_ = st.Init(ctx)
	entry := domain.FavoriteEntry{ProductID: "p1", VariantID: "v1"}
	_, _ = st.AddToFavorites(ctx, entry)
	remote.fetchErr = domain.ErrRemoteUnavailable

	if err := st.MoveToCartFromFavorites(ctx, entry); !errors.Is(err, domain.ErrRemoteUnavailable) {
		t.Fatalf("expected re-fetch error, got %v", err)
	}
	if _, ok := st.Favorite("p1"); ok {
		t.Fatalf("favorite should be removed once the add landed")
	}
	if lines := remote.lines(st.Cart().ID); len(lines) != 1 || lines[0].VariantID != "v1" {
		t.Fatalf("expected the line in the remote cart, got %+v", lines)
	}
}

func TestSubscribe_ReceivesEvents(t *testing.T) {
	ctx := context.Background()
	st, _, _ := newTestStore(t, Options{})
	events, cancel := st.Subscribe()
	defer cancel()

	_ = st.Init(ctx)
	evt := <-events
	if evt.Kind != EventCart || evt.Cart == nil || evt.Cart.ID == "" {
		t.Fatalf("unexpected event %+v", evt)
	}

	_, _ = st.AddToFavorites(ctx, domain.FavoriteEntry{ProductID: "p1"})
	evt = <-events
	if evt.Kind != EventFavorites || len(evt.Favorites) != 1 {
		t.Fatalf("unexpected event %+v", evt)
	}
}

func TestClose_DiscardsLateResponses(t *testing.T) {
	ctx := context.Background()
	st, remote, _ := newTestStore(t, Options{})
	_ = st.Init(ctx)
	events, _ := st.Subscribe()
	before := st.Cart()

	release := make(chan struct{})
	started := make(chan struct{})
	remote.beforeFetch = func() {
		close(started)
		<-release
	}

	done := make(chan error, 1)
	go func() { done <- st.AddToCart(ctx, AddInput{VariantID: "v1"}) }()
	<-started
	st.Close()
	close(release)
	<-done

	if got := st.Cart(); len(got.Lines) != len(before.Lines) {
		t.Fatalf("late response applied after close: %+v", got)
	}
	if _, ok := <-events; ok {
		t.Fatalf("subscriber channel should be closed")
	}
}

func TestApply_DropsOlderGeneration(t *testing.T) {
	st, _, _ := newTestStore(t, Options{})
	older := st.issue()
	newer := st.issue()

	if !st.apply(newer, domain.Cart{ID: "c1", Lines: []domain.CartLine{{ID: "a"}, {ID: "b"}}}, true) {
		t.Fatalf("newer generation should apply")
	}
	if st.apply(older, domain.Cart{ID: "c1"}, true) {
		t.Fatalf("older generation should be dropped")
	}
	if len(st.Cart().Lines) != 2 {
		t.Fatalf("older response overwrote newer state")
	}
}

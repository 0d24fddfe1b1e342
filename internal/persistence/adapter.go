// Package persistence stores the three per-session records the storefront
// keeps outside the commerce backend: the cart pointer, the favorites list and
// the newsletter popup flags.
//
// Reads never fail. Absent or malformed records come back as empty defaults;
// malformed ones are logged as domain.ErrPersistenceCorrupt.
package persistence

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"storefront/internal/domain"
)

// Adapter is the session-scoped key-value store.
type Adapter interface {
	LoadCartRef(ctx context.Context, sessionID string) (domain.CartRef, bool)
	SaveCartRef(ctx context.Context, sessionID string, ref domain.CartRef) error
	ClearCartRef(ctx context.Context, sessionID string) error

	LoadFavorites(ctx context.Context, sessionID string) []domain.FavoriteEntry
	SaveFavorites(ctx context.Context, sessionID string, favorites []domain.FavoriteEntry) error

	LoadPopupPrefs(ctx context.Context, sessionID string) domain.PopupPrefs
	SavePopupPrefs(ctx context.Context, sessionID string, prefs domain.PopupPrefs) error
}

type record string

const (
	recordCart      record = "cart"
	recordFavorites record = "favorites"
	recordPopup     record = "popup"
)

// rawStore is the byte-level backend shared by the Redis and memory adapters.
type rawStore interface {
	get(ctx context.Context, key string) ([]byte, bool, error)
	set(ctx context.Context, key string, value []byte) error
	del(ctx context.Context, key string) error
}

// codec implements Adapter on top of a rawStore.
type codec struct {
	store  rawStore
	prefix string
	logger *zap.Logger
}

func (c *codec) key(sessionID string, r record) string {
	return fmt.Sprintf("%s:%s:%s", c.prefix, sessionID, r)
}

// load decodes the record into dest and reports whether usable data was found.
func (c *codec) load(ctx context.Context, sessionID string, r record, dest any) bool {
	raw, ok, err := c.store.get(ctx, c.key(sessionID, r))
	if err != nil {
		c.logger.Warn("persistence read failed", zap.String("session_id", sessionID), zap.String("record", string(r)), zap.Error(err))
		return false
	}
	if !ok || len(raw) == 0 {
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		c.logger.Warn("persistence record unreadable, using defaults",
			zap.String("session_id", sessionID),
			zap.String("record", string(r)),
			zap.Error(fmt.Errorf("%w: %v", domain.ErrPersistenceCorrupt, err)))
		return false
	}
	return true
}

func (c *codec) save(ctx context.Context, sessionID string, r record, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", r, err)
	}
	if err := c.store.set(ctx, c.key(sessionID, r), raw); err != nil {
		return fmt.Errorf("save %s: %w", r, err)
	}
	return nil
}

func (c *codec) LoadCartRef(ctx context.Context, sessionID string) (domain.CartRef, bool) {
	var ref domain.CartRef
	if !c.load(ctx, sessionID, recordCart, &ref) || ref.ID == "" {
		return domain.CartRef{}, false
	}
	return ref, true
}

func (c *codec) SaveCartRef(ctx context.Context, sessionID string, ref domain.CartRef) error {
	return c.save(ctx, sessionID, recordCart, ref)
}

func (c *codec) ClearCartRef(ctx context.Context, sessionID string) error {
	return c.store.del(ctx, c.key(sessionID, recordCart))
}

func (c *codec) LoadFavorites(ctx context.Context, sessionID string) []domain.FavoriteEntry {
	var favorites []domain.FavoriteEntry
	if !c.load(ctx, sessionID, recordFavorites, &favorites) {
		return []domain.FavoriteEntry{}
	}
	// Drop entries without a product id; they cannot be matched or removed.
	out := make([]domain.FavoriteEntry, 0, len(favorites))
	for _, f := range favorites {
		if f.ProductID != "" {
			out = append(out, f)
		}
	}
	return out
}

func (c *codec) SaveFavorites(ctx context.Context, sessionID string, favorites []domain.FavoriteEntry) error {
	if favorites == nil {
		favorites = []domain.FavoriteEntry{}
	}
	return c.save(ctx, sessionID, recordFavorites, favorites)
}

func (c *codec) LoadPopupPrefs(ctx context.Context, sessionID string) domain.PopupPrefs {
	var prefs domain.PopupPrefs
	if !c.load(ctx, sessionID, recordPopup, &prefs) {
		return domain.PopupPrefs{}
	}
	if prefs.DismissCount < 0 {
		prefs.DismissCount = 0
	}
	return prefs
}

func (c *codec) SavePopupPrefs(ctx context.Context, sessionID string, prefs domain.PopupPrefs) error {
	return c.save(ctx, sessionID, recordPopup, prefs)
}

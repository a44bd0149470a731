package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"workshop/internal/core/apperror"
	"workshop/internal/metadata"
	"workshop/pkg/logger"
)

// CustomizationChannel is the NOTIFY channel fired by the
// sys_doctype_customizations trigger; the payload is the DocType name.
const CustomizationChannel = "doctype_customized"

// Customizations keeps the registry in sync with the site overlays stored in
// sys_doctype_customizations. Every instance reloads a DocType when any
// instance changes it.
type Customizations struct {
	pool     *pgxpool.Pool
	registry *metadata.Registry

	listeners   []InvalidationListener
	listenersMu sync.RWMutex

	lifecycleMu sync.Mutex
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	started     bool
}

// InvalidationListener is called after a DocType has been reloaded.
type InvalidationListener func(docType string)

func NewCustomizations(pool *pgxpool.Pool, registry *metadata.Registry) *Customizations {
	return &Customizations{pool: pool, registry: registry}
}

// Start applies stored overlays and begins listening for changes.
func (c *Customizations) Start(ctx context.Context) error {
	c.lifecycleMu.Lock()
	if c.started {
		c.lifecycleMu.Unlock()
		return nil
	}
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.started = true
	c.lifecycleMu.Unlock()

	if err := c.loadAll(c.ctx); err != nil {
		c.Stop()
		return fmt.Errorf("load customizations: %w", err)
	}

	c.wg.Add(1)
	go c.listenLoop()
	logger.Info(c.ctx, "customization cache started")
	return nil
}

// Stop ends the listener and waits for it.
func (c *Customizations) Stop() {
	c.lifecycleMu.Lock()
	if !c.started {
		c.lifecycleMu.Unlock()
		return
	}
	cancel := c.cancel
	c.started = false
	c.cancel = nil
	c.lifecycleMu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.wg.Wait()
	logger.Info(context.Background(), "customization cache stopped")
}

// OnReload registers a callback run after a DocType is reloaded.
func (c *Customizations) OnReload(l InvalidationListener) {
	c.listenersMu.Lock()
	c.listeners = append(c.listeners, l)
	c.listenersMu.Unlock()
}

// Save validates the overlay against the registry and stores it. The trigger
// notifies every instance, this one included.
func (c *Customizations) Save(ctx context.Context, docType string, overlay metadata.Customization, userID string) error {
	if _, ok := c.registry.Get(docType); !ok {
		return apperror.NewNotFound("doctype", docType)
	}
	if err := c.registry.SetCustomization(docType, overlay); err != nil {
		return apperror.NewValidation("invalid customization").WithDetail("error", err.Error())
	}
	data, err := json.Marshal(overlay)
	if err != nil {
		return fmt.Errorf("marshal customization: %w", err)
	}
	_, err = c.pool.Exec(ctx, `
		INSERT INTO sys_doctype_customizations (doctype, overlay, updated_at, updated_by)
		VALUES ($1, $2, NOW(), $3)
		ON CONFLICT (doctype) DO UPDATE SET
			overlay = EXCLUDED.overlay,
			updated_at = EXCLUDED.updated_at,
			updated_by = EXCLUDED.updated_by
	`, docType, data, userID)
	if err != nil {
		return fmt.Errorf("save customization of %s: %w", docType, err)
	}
	return nil
}

func (c *Customizations) listenLoop() {
	defer c.wg.Done()

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		conn, err := c.pool.Acquire(c.ctx)
		if err != nil {
			if c.ctx.Err() != nil {
				return
			}
			logger.Error(c.ctx, "acquire connection for LISTEN", "error", err)
			time.Sleep(time.Second)
			continue
		}

		if _, err := conn.Exec(c.ctx, "LISTEN "+CustomizationChannel); err != nil {
			logger.Error(c.ctx, "LISTEN failed", "channel", CustomizationChannel, "error", err)
			conn.Release()
			time.Sleep(time.Second)
			continue
		}

		// notifications may have been missed while reconnecting
		if err := c.loadAll(c.ctx); err != nil {
			logger.Error(c.ctx, "reload customizations", "error", err)
		}
		c.waitForNotifications(conn)
		conn.Release()
	}
}

func (c *Customizations) waitForNotifications(conn *pgxpool.Conn) {
	for {
		ctx, cancel := context.WithTimeout(c.ctx, 30*time.Second)
		n, err := conn.Conn().WaitForNotification(ctx)
		cancel()

		if err != nil {
			if c.ctx.Err() != nil {
				return
			}
			if errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			logger.Warn(c.ctx, "LISTEN connection lost", "error", err)
			return
		}
		c.handleNotification(n.Payload)
	}
}

func (c *Customizations) handleNotification(payload string) {
	docType := strings.TrimSpace(payload)
	var err error
	if docType == "" {
		err = c.loadAll(c.ctx)
	} else {
		err = c.load(c.ctx, docType)
	}
	if err != nil {
		logger.Error(c.ctx, "reload customization", "doctype", docType, "error", err)
		return
	}

	c.listenersMu.RLock()
	defer c.listenersMu.RUnlock()
	for _, l := range c.listeners {
		func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Error(c.ctx, "customization listener panic", "doctype", docType, "panic", r)
				}
			}()
			l(docType)
		}()
	}
}

func (c *Customizations) loadAll(ctx context.Context) error {
	rows, err := c.pool.Query(ctx, `SELECT doctype, overlay FROM sys_doctype_customizations ORDER BY doctype`)
	if err != nil {
		return fmt.Errorf("query customizations: %w", err)
	}
	type row struct {
		docType string
		overlay []byte
	}
	list, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (row, error) {
		var out row
		err := r.Scan(&out.docType, &out.overlay)
		return out, err
	})
	if err != nil {
		return fmt.Errorf("scan customizations: %w", err)
	}

	applied := 0
	for _, r := range list {
		if err := c.apply(r.docType, r.overlay); err != nil {
			// a stale overlay must not keep the other DocTypes from loading
			logger.Error(ctx, "skip customization", "doctype", r.docType, "error", err)
			continue
		}
		applied++
	}
	logger.Info(ctx, "loaded customizations", "doctypes", applied)
	return nil
}

func (c *Customizations) load(ctx context.Context, docType string) error {
	var overlay []byte
	err := c.pool.QueryRow(ctx, `SELECT overlay FROM sys_doctype_customizations WHERE doctype = $1`, docType).Scan(&overlay)
	if errors.Is(err, pgx.ErrNoRows) {
		// deleted: back to the registered definition
		return c.registry.SetCustomization(docType, metadata.Customization{})
	}
	if err != nil {
		return fmt.Errorf("query customization: %w", err)
	}
	return c.apply(docType, overlay)
}

func (c *Customizations) apply(docType string, raw []byte) error {
	overlay, err := DecodeCustomization(raw)
	if err != nil {
		return err
	}
	return c.registry.SetCustomization(docType, overlay)
}

// DecodeCustomization parses a stored overlay.
func DecodeCustomization(raw []byte) (metadata.Customization, error) {
	var overlay metadata.Customization
	if len(raw) == 0 {
		return overlay, nil
	}
	if err := json.Unmarshal(raw, &overlay); err != nil {
		return overlay, fmt.Errorf("decode customization: %w", err)
	}
	return overlay, nil
}

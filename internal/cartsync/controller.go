// Package cartsync keeps a shopper's locally edited cart in step with the
// server copy. Edits are applied optimistically to local state and pushed as
// whole-cart snapshots after a quiet period, so a burst of taps costs one
// upload instead of one per tap.
package cartsync

import (
	"context"
	"log"
	"sync"
	"time"
)

// Line is one locally held cart entry.
type Line struct {
	ProductID string  `json:"productId"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

// Uploader is the server side of the sync. FetchCart returns the stored cart,
// UploadCart replaces it wholesale.
type Uploader interface {
	UploadCart(ctx context.Context, items []Line) error
	FetchCart(ctx context.Context) ([]Line, error)
}

const defaultDebounce = time.Second

// Controller owns one authenticated session's local cart. All methods are
// safe for concurrent use; uploads for one controller never interleave.
type Controller struct {
	uploader Uploader
	logger   *log.Logger
	debounce time.Duration

	mu        sync.Mutex
	items     map[string]Line
	order     []string // product ids in first-add order, for stable snapshots
	timer     *time.Timer
	uploading bool
	queued    bool
	closed    bool

	wg sync.WaitGroup
}

func NewController(uploader Uploader, logger *log.Logger) *Controller {
	return &Controller{
		uploader: uploader,
		logger:   logger,
		debounce: defaultDebounce,
		items:    make(map[string]Line),
	}
}

// Add puts one more of the product in the local cart and schedules an upload.
func (c *Controller) Add(productID string, price float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	if l, ok := c.items[productID]; ok {
		l.Quantity++
		c.items[productID] = l
	} else {
		c.items[productID] = Line{ProductID: productID, Quantity: 1, Price: price}
		c.order = append(c.order, productID)
	}
	c.scheduleLocked()
}

// Remove takes one of the product out; the line disappears at quantity zero.
func (c *Controller) Remove(productID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	l, ok := c.items[productID]
	if !ok {
		return
	}
	if l.Quantity > 1 {
		l.Quantity--
		c.items[productID] = l
	} else {
		c.dropLocked(productID)
	}
	c.scheduleLocked()
}

// Delete drops the whole line regardless of quantity.
func (c *Controller) Delete(productID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if _, ok := c.items[productID]; !ok {
		return
	}
	c.dropLocked(productID)
	c.scheduleLocked()
}

// Items returns a stable-order snapshot of the local cart.
func (c *Controller) Items() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Refresh pulls the server cart, typically right after login. An empty or
// failed response never clobbers local edits; a non-empty response replaces
// local state wholesale (last fetch wins).
func (c *Controller) Refresh(ctx context.Context) {
	server, err := c.uploader.FetchCart(ctx)
	if err != nil {
		c.logger.Printf("cart fetch failed, keeping local state: %v", err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	if len(server) == 0 && len(c.items) > 0 {
		return
	}

	c.items = make(map[string]Line, len(server))
	c.order = c.order[:0]
	for _, l := range server {
		if l.Quantity < 1 {
			continue
		}
		if _, ok := c.items[l.ProductID]; !ok {
			c.order = append(c.order, l.ProductID)
		}
		c.items[l.ProductID] = l
	}
}

// Clear empties the local cart without scheduling an upload (used when an
// order completes; the server cart is cleared by the order flow itself).
func (c *Controller) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]Line)
	c.order = c.order[:0]
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// Close cancels any pending upload and stops the controller. An upload
// already on the wire is left to finish.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.queued = false
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// Wait blocks until in-flight uploads have finished. Test helper.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// scheduleLocked (re)starts the debounce window. Another mutation inside the
// window restarts it, so only the last mutation of a burst triggers the
// upload.
func (c *Controller) scheduleLocked() {
	if len(c.items) == 0 {
		// nothing worth uploading; a pending timer for earlier state stays
		// cancelled
		if c.timer != nil {
			c.timer.Stop()
			c.timer = nil
		}
		return
	}

	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.debounce, c.fire)
}

func (c *Controller) fire() {
	c.mu.Lock()
	c.timer = nil
	if c.closed {
		c.mu.Unlock()
		return
	}
	if c.uploading {
		// an upload is on the wire; remember to send the newer state after
		// it completes instead of interleaving
		c.queued = true
		c.mu.Unlock()
		return
	}
	c.uploading = true
	snapshot := c.snapshotLocked()
	c.wg.Add(1)
	c.mu.Unlock()

	go c.upload(snapshot)
}

func (c *Controller) upload(snapshot []Line) {
	defer c.wg.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	err := c.uploader.UploadCart(ctx, snapshot)
	cancel()
	if err != nil {
		// logged, not retried; local state stays as the shopper left it
		c.logger.Printf("cart upload failed: %v", err)
	}

	c.mu.Lock()
	c.uploading = false
	if c.queued && !c.closed {
		c.queued = false
		c.uploading = true
		next := c.snapshotLocked()
		c.wg.Add(1)
		c.mu.Unlock()
		go c.upload(next)
		return
	}
	c.mu.Unlock()
}

func (c *Controller) snapshotLocked() []Line {
	out := make([]Line, 0, len(c.items))
	for _, id := range c.order {
		if l, ok := c.items[id]; ok {
			out = append(out, l)
		}
	}
	return out
}

func (c *Controller) dropLocked(productID string) {
	delete(c.items, productID)
	for i, id := range c.order {
		if id == productID {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

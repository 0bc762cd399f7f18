package queue

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/semaphore"

	"github.com/joseph-ayodele/syllabus-calendar/constants"
	"github.com/joseph-ayodele/syllabus-calendar/internal/common"
	"github.com/joseph-ayodele/syllabus-calendar/internal/entity"
	"github.com/joseph-ayodele/syllabus-calendar/internal/normalize"
	"github.com/joseph-ayodele/syllabus-calendar/internal/pipeline"
	"github.com/joseph-ayodele/syllabus-calendar/internal/review"
)

const textItemName = "Pasted text"

var (
	ErrNotFound       = fmt.Errorf("queue item: %w", common.ErrNotFound)
	ErrNothingToMerge = errors.New("no completed items")
)

// Processor is the work a queue item runs when it gets a slot.
type Processor interface {
	Process(ctx context.Context, sub pipeline.Submission) (normalize.Result, error)
}

// Coordinator owns an ordered list of items and runs at most maxConcurrent of
// them at a time, oldest pending first.
type Coordinator struct {
	proc          Processor
	logger        *slog.Logger
	maxConcurrent int64
	maxItems      int
	timeout       time.Duration
	now           func() time.Time

	sem     *semaphore.Weighted
	once    sync.Once
	baseCtx context.Context
	stop    context.CancelFunc
	wg      sync.WaitGroup

	mu      sync.Mutex
	items   []Item
	cancels map[string]context.CancelFunc
	subs    []func(Item)
	idle    chan struct{} // closed while nothing is pending or processing
	entropy *ulid.MonotonicEntropy
	closed  bool
}

type Option func(*Coordinator)

func WithMaxConcurrent(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.maxConcurrent = int64(n)
		}
	}
}

func WithMaxItems(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.maxItems = n
		}
	}
}

func WithItemTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		if now != nil {
			c.now = now
		}
	}
}

func NewCoordinator(proc Processor, logger *slog.Logger, opts ...Option) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Coordinator{
		proc:          proc,
		logger:        logger,
		maxConcurrent: 3,
		maxItems:      10,
		timeout:       2 * time.Minute,
		now:           time.Now,
		cancels:       map[string]context.CancelFunc{},
		entropy:       ulid.Monotonic(rand.Reader, 0),
	}
	for _, o := range opts {
		o(c)
	}
	c.start()
	return c
}

func (c *Coordinator) start() {
	c.once.Do(func() {
		c.sem = semaphore.NewWeighted(c.maxConcurrent)
		c.baseCtx, c.stop = context.WithCancel(context.Background())
		c.idle = make(chan struct{})
		close(c.idle)
	})
}

func (c *Coordinator) newID(at time.Time) string {
	return ulid.MustNew(ulid.Timestamp(at), c.entropy).String()
}

// AddFiles admits documents up to the free capacity; the rest are dropped.
func (c *Coordinator) AddFiles(docs ...entity.Document) []Item {
	c.mu.Lock()
	free := c.maxItems - len(c.items)
	if c.closed || free <= 0 {
		c.mu.Unlock()
		c.logger.Warn("queue.add.rejected", "requested", len(docs), "items", c.Len())
		return nil
	}
	if len(docs) > free {
		c.logger.Warn("queue.add.capped", "requested", len(docs), "admitted", free)
		docs = docs[:free]
	}
	at := c.now()
	added := make([]Item, 0, len(docs))
	for i := range docs {
		doc := docs[i]
		it := Item{
			ID:        c.newID(at),
			Source:    constants.SourceFile,
			Name:      doc.Name,
			Document:  &doc,
			Status:    constants.ItemPending,
			AddedAt:   at,
			UpdatedAt: at,
		}
		c.items = append(c.items, it)
		added = append(added, it)
	}
	c.updateIdleLocked()
	c.mu.Unlock()

	for _, it := range added {
		c.logger.Info("queue.add", "item_id", it.ID, "source", it.Source, "name", it.Name, "bytes", it.Document.Size())
		c.notify(it)
	}
	c.dispatch()
	return added
}

// AddText admits one pasted text blob. Blank text or a full queue is refused.
func (c *Coordinator) AddText(text string) (Item, bool) {
	if strings.TrimSpace(text) == "" {
		return Item{}, false
	}
	c.mu.Lock()
	if c.closed || len(c.items) >= c.maxItems {
		c.mu.Unlock()
		c.logger.Warn("queue.add.rejected", "source", constants.SourceText)
		return Item{}, false
	}
	at := c.now()
	it := Item{
		ID:        c.newID(at),
		Source:    constants.SourceText,
		Name:      textItemName,
		Text:      text,
		Status:    constants.ItemPending,
		AddedAt:   at,
		UpdatedAt: at,
	}
	c.items = append(c.items, it)
	c.updateIdleLocked()
	c.mu.Unlock()

	c.logger.Info("queue.add", "item_id", it.ID, "source", it.Source, "text_len", len(text))
	c.notify(it)
	c.dispatch()
	return it, true
}

// SetCourseName records a user override for the item's course.
func (c *Coordinator) SetCourseName(id, name string) error {
	c.mu.Lock()
	i := c.indexOf(id)
	if i < 0 {
		c.mu.Unlock()
		return ErrNotFound
	}
	c.items[i].CourseOverride = strings.TrimSpace(name)
	c.items[i].UpdatedAt = c.now()
	it := c.items[i]
	c.mu.Unlock()

	c.notify(it)
	return nil
}

// Retry moves an errored item back to pending and dispatches.
func (c *Coordinator) Retry(id string) error {
	c.mu.Lock()
	i := c.indexOf(id)
	if i < 0 {
		c.mu.Unlock()
		return ErrNotFound
	}
	next, err := Transition(c.items[i], Retry(c.now()))
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.items[i] = next
	c.mu.Unlock()

	c.logger.Info("queue.retry", "item_id", id)
	c.notify(next)
	c.dispatch()
	return nil
}

// Remove deletes an item in any state. A processing item is detached, not
// cancelled: its call keeps its slot until it returns and the result is discarded.
func (c *Coordinator) Remove(id string) bool {
	c.mu.Lock()
	i := c.indexOf(id)
	if i < 0 {
		c.mu.Unlock()
		return false
	}
	c.items = append(c.items[:i], c.items[i+1:]...)
	c.updateIdleLocked()
	c.mu.Unlock()

	c.logger.Info("queue.remove", "item_id", id)
	return true
}

// Reset drops every item. In-flight calls are detached the same way Remove does.
func (c *Coordinator) Reset() {
	c.mu.Lock()
	n := len(c.items)
	c.items = nil
	c.updateIdleLocked()
	c.mu.Unlock()

	c.logger.Info("queue.reset", "dropped", n)
}

// Items returns a snapshot in admission order.
func (c *Coordinator) Items() []Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Coordinator) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Get returns the current state of one item.
func (c *Coordinator) Get(id string) (Item, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.indexOf(id); i >= 0 {
		return c.items[i], true
	}
	return Item{}, false
}

// CanProceed reports whether at least one item is done.
func (c *Coordinator) CanProceed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, it := range c.items {
		if it.Status == constants.ItemDone {
			return true
		}
	}
	return false
}

// Proceed collects events from done items in queue order. A course override
// replaces the course on every event of that item.
func (c *Coordinator) Proceed() ([]entity.DeadlineEvent, error) {
	c.mu.Lock()
	var batches [][]entity.DeadlineEvent
	for _, it := range c.items {
		if it.Status != constants.ItemDone {
			continue
		}
		batch := make([]entity.DeadlineEvent, len(it.Events))
		copy(batch, it.Events)
		if it.CourseOverride != "" {
			for i := range batch {
				batch[i].Course = it.CourseOverride
			}
		}
		batches = append(batches, batch)
	}
	c.mu.Unlock()

	if len(batches) == 0 {
		return nil, ErrNothingToMerge
	}
	events := review.Merge(batches...)
	c.logger.Info("queue.proceed", "items", len(batches), "events", len(events))
	return events, nil
}

// Subscribe registers fn for every item change. Callbacks run outside the lock
// on the goroutine that made the change.
func (c *Coordinator) Subscribe(fn func(Item)) {
	c.mu.Lock()
	c.subs = append(c.subs, fn)
	c.mu.Unlock()
}

// Wait blocks until nothing is pending or processing, or ctx is done.
func (c *Coordinator) Wait(ctx context.Context) error {
	for {
		c.mu.Lock()
		idle := c.idle
		c.mu.Unlock()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-idle:
		}
		c.mu.Lock()
		busy := c.busyLocked()
		c.mu.Unlock()
		if !busy {
			return nil
		}
	}
}

// Shutdown stops admissions, cancels in-flight items and waits for workers.
func (c *Coordinator) Shutdown(ctx context.Context) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()
	c.stop()

	done := make(chan struct{})
	go func() { defer close(done); c.wg.Wait() }()

	select {
	case <-ctx.Done():
		c.logger.Warn("queue.shutdown.interrupted")
	case <-done:
		c.logger.Info("queue.shutdown.ok")
	}
}

// dispatch starts pending items in admission order while a slot is free.
func (c *Coordinator) dispatch() {
	var started []Item
	c.mu.Lock()
	for i := range c.items {
		if c.closed {
			break
		}
		if c.items[i].Status != constants.ItemPending {
			continue
		}
		if !c.sem.TryAcquire(1) {
			break
		}
		next, err := Transition(c.items[i], Dispatch(c.now()))
		if err != nil {
			c.sem.Release(1)
			continue
		}
		c.items[i] = next

		ctx, cancel := context.WithTimeout(c.baseCtx, c.timeout)
		c.cancels[next.ID] = cancel
		c.wg.Add(1)
		go c.run(ctx, next)
		started = append(started, next)
	}
	c.updateIdleLocked()
	c.mu.Unlock()

	for _, it := range started {
		c.logger.Info("queue.dispatch", "item_id", it.ID, "name", it.Name)
		c.notify(it)
	}
}

func (c *Coordinator) run(ctx context.Context, it Item) {
	defer c.wg.Done()
	start := time.Now()

	sub := pipeline.Submission{Source: it.Source, Document: it.Document, Text: it.Text}
	res, err := c.proc.Process(common.WithItemID(ctx, it.ID), sub)
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		err = common.KindError(common.KindInternal, common.WrapError(err, "item timed out"))
	}

	c.settle(it.ID, res, err, time.Since(start))
}

// settle records the outcome, frees the slot and dispatches the next item.
// Outcomes for removed items are dropped.
func (c *Coordinator) settle(id string, res normalize.Result, procErr error, elapsed time.Duration) {
	c.mu.Lock()
	if cancel, ok := c.cancels[id]; ok {
		cancel()
		delete(c.cancels, id)
	}
	var (
		next    Item
		changed bool
	)
	if i := c.indexOf(id); i >= 0 {
		ev := Succeed(res.CourseName, res.Events, c.now())
		if procErr != nil {
			ev = Fail(common.UserMessage(procErr), c.now())
		}
		if n, err := Transition(c.items[i], ev); err == nil {
			c.items[i] = n
			next, changed = n, true
		}
	}
	c.sem.Release(1)
	c.mu.Unlock()

	switch {
	case !changed:
		c.logger.Info("queue.settle.discarded", "item_id", id)
	case procErr != nil:
		c.logger.Warn("queue.settle.error", "item_id", id, "kind", common.KindOf(procErr), "err", procErr, "elapsed_ms", elapsed.Milliseconds())
	default:
		c.logger.Info("queue.settle.done", "item_id", id, "events", len(next.Events), "elapsed_ms", elapsed.Milliseconds())
	}
	if changed {
		c.notify(next)
	}
	c.dispatch()
}

func (c *Coordinator) notify(it Item) {
	c.mu.Lock()
	subs := make([]func(Item), len(c.subs))
	copy(subs, c.subs)
	c.mu.Unlock()
	for _, fn := range subs {
		fn(it)
	}
}

func (c *Coordinator) indexOf(id string) int {
	for i := range c.items {
		if c.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (c *Coordinator) busyLocked() bool {
	if len(c.cancels) > 0 {
		return true
	}
	for _, it := range c.items {
		if it.Status == constants.ItemPending || it.Status == constants.ItemProcessing {
			return true
		}
	}
	return false
}

// updateIdleLocked keeps the idle channel closed exactly while nothing is busy.
func (c *Coordinator) updateIdleLocked() {
	busy := c.busyLocked()
	select {
	case <-c.idle:
		if busy {
			c.idle = make(chan struct{})
		}
	default:
		if !busy {
			close(c.idle)
		}
	}
}

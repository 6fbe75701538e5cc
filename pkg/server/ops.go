package server

import (
	"context"
	stderrors "errors"
	"math"

	"github.com/matzehuels/coinbubbles/pkg/canvas"
	"github.com/matzehuels/coinbubbles/pkg/directory"
	"github.com/matzehuels/coinbubbles/pkg/errors"
	"github.com/matzehuels/coinbubbles/pkg/integrations"
	"github.com/matzehuels/coinbubbles/pkg/notify"
	"github.com/matzehuels/coinbubbles/pkg/sizes"
)

// selection records what a select did so it can be persisted.
type selection struct {
	id        string
	existed   bool
	restored  bool
	increment float64
	size      float64
}

// Frame returns the current frame.
func (s *Server) Frame(ctx context.Context) (canvas.Frame, error) {
	return s.do(ctx, func(*canvas.Canvas) (bool, error) { return false, nil })
}

// Bubble returns the renderable bubble with the given id.
func (s *Server) Bubble(ctx context.Context, id string) (canvas.Renderable, error) {
	if err := errors.ValidateID(id); err != nil {
		return canvas.Renderable{}, err
	}
	f, err := s.Frame(ctx)
	if err != nil {
		return canvas.Renderable{}, err
	}
	for _, b := range f.Bubbles {
		if b.ID == id {
			return b, nil
		}
	}
	return canvas.Renderable{}, errors.New(errors.ErrCodeNotFound, "no bubble %q", id)
}

// Select adds the item as a new bubble or grows the existing one. A new
// bubble takes its persisted size when the store has one.
func (s *Server) Select(ctx context.Context, it directory.Item) (canvas.Frame, error) {
	if err := errors.ValidateID(it.ID); err != nil {
		return canvas.Frame{}, err
	}
	stored, haveStored := s.storedSize(ctx, it.ID)

	var sel selection
	f, err := s.do(ctx, func(c *canvas.Canvas) (bool, error) {
		_, exists := c.Bubble(it.ID)
		inc := 0.0
		if exists {
			inc = s.grow
		}
		c.AddOrGrow(it.ID, it.Metadata(), inc)
		if !exists && haveStored {
			c.ApplySize(it.ID, stored)
		}
		b, _ := c.Bubble(it.ID)
		sel = selection{id: it.ID, existed: exists, restored: !exists && haveStored, increment: inc, size: b.BaseSize}
		return true, nil
	})
	if err != nil {
		return f, err
	}
	s.logger.Debug("select", "id", sel.id, "size", sel.size, "existed", sel.existed)
	s.persist(sel)
	return f, nil
}

// Move commits a drag of id to (x, y).
func (s *Server) Move(ctx context.Context, id string, x, y float64) (canvas.Frame, error) {
	if err := errors.ValidateID(id); err != nil {
		return canvas.Frame{}, err
	}
	if !finite(x) || !finite(y) {
		return canvas.Frame{}, errors.New(errors.ErrCodeInvalidInput, "coordinates must be finite")
	}
	return s.do(ctx, func(c *canvas.Canvas) (bool, error) {
		if _, ok := c.Bubble(id); !ok {
			return false, errors.New(errors.ErrCodeNotFound, "no bubble %q", id)
		}
		c.MoveBubble(id, x, y)
		return true, nil
	})
}

// Resize records a new viewport.
func (s *Server) Resize(ctx context.Context, width, height float64) (canvas.Frame, error) {
	if !finite(width) || !finite(height) || width < 0 || height < 0 {
		return canvas.Frame{}, errors.New(errors.ErrCodeInvalidInput, "viewport must be finite and non-negative")
	}
	return s.do(ctx, func(c *canvas.Canvas) (bool, error) {
		c.RecomputeScale(width, height)
		return true, nil
	})
}

// Search queries the directory. A blank query returns no items.
func (s *Server) Search(ctx context.Context, query string) ([]directory.Item, error) {
	q, err := errors.ValidateQuery(query)
	if err != nil {
		return nil, err
	}
	if q == "" {
		return []directory.Item{}, nil
	}
	items, err := s.directory.Search(ctx, q)
	if err != nil {
		return nil, searchError(err)
	}
	if items == nil {
		items = []directory.Item{}
	}
	return items, nil
}

func searchError(err error) error {
	switch {
	case errors.GetCode(err) != "":
		return err
	case stderrors.Is(err, integrations.ErrRateLimited):
		return errors.Wrap(errors.ErrCodeRateLimited, err, "coin search is rate limited, try again shortly")
	case stderrors.Is(err, integrations.ErrNotFound):
		return errors.Wrap(errors.ErrCodeNotFound, err, "no coins found")
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		return errors.Wrap(errors.ErrCodeNetwork, err, "coin search timed out")
	default:
		return errors.Wrap(errors.ErrCodeNetwork, err, "coin search failed")
	}
}

func (s *Server) storedSize(ctx context.Context, id string) (float64, bool) {
	if s.store == nil {
		return 0, false
	}
	ctx, cancel := context.WithTimeout(ctx, s.opts.PersistTimeout)
	defer cancel()
	size, ok, err := s.store.Get(ctx, id)
	if err != nil {
		s.logger.Warn("read stored size", "id", id, "err", err)
		return 0, false
	}
	return size, ok
}

// persist queues sel for the persistence worker. Selections are written
// and announced in the order they were made.
func (s *Server) persist(sel selection) {
	if sel.restored || (s.store == nil && s.bus == nil) {
		return
	}
	select {
	case s.persistQ <- sel:
	default:
		s.logger.Warn("persistence queue full, dropping size update", "id", sel.id)
	}
}

// persistWorker drains the queue until ctx is done, then flushes what is
// left.
func (s *Server) persistWorker(ctx context.Context) {
	defer s.pending.Done()
	for {
		select {
		case sel := <-s.persistQ:
			s.flush(sel)
		case <-ctx.Done():
			for {
				select {
				case sel := <-s.persistQ:
					s.flush(sel)
				default:
					return
				}
			}
		}
	}
}

// flush writes sel to the store and announces the resulting size. When the
// store reports a different size, because another instance grew the same
// bubble, the stored value is applied locally.
func (s *Server) flush(sel selection) {
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.PersistTimeout)
	defer cancel()

	size := sel.size
	if s.store != nil {
		n, err := s.write(ctx, sel)
		if err != nil {
			s.logger.Warn("persist size", "id", sel.id, "err", err)
		} else {
			size = n
		}
	}
	if size != sel.size {
		if _, err := s.do(ctx, applySize(sel.id, size)); err != nil {
			s.logger.Debug("stored size not applied", "id", sel.id, "err", err)
		}
	}
	if s.bus != nil {
		ev := notify.SizeChanged{ID: sel.id, BaseSize: size, Origin: s.origin}
		if err := s.bus.Publish(ctx, ev); err != nil {
			s.logger.Warn("publish size", "id", sel.id, "err", err)
		}
	}
}

func (s *Server) write(ctx context.Context, sel selection) (float64, error) {
	if sel.existed {
		n, err := s.store.Increment(ctx, sel.id, sel.increment)
		if !stderrors.Is(err, sizes.ErrNotFound) {
			return n, err
		}
	}
	return sel.size, s.store.Put(ctx, sel.id, sel.size)
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

package cli

import (
	"io"
	"sync"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/joseph-ayodele/syllabus-calendar/constants"
	"github.com/joseph-ayodele/syllabus-calendar/internal/queue"
)

// progress draws one bar per queue item and completes it when the item settles.
type progress struct {
	p *mpb.Progress

	mu   sync.Mutex
	bars map[string]*mpb.Bar
}

func newProgress(w io.Writer) *progress {
	return &progress{
		p:    mpb.New(mpb.WithWidth(64), mpb.WithOutput(w)),
		bars: map[string]*mpb.Bar{},
	}
}

func (pr *progress) bar(it queue.Item) *mpb.Bar {
	if b, ok := pr.bars[it.ID]; ok {
		return b
	}
	name := it.Name
	b := pr.p.AddBar(1,
		mpb.PrependDecorators(
			decor.Name(name, decor.WC{W: len(name) + 1, C: decor.DindentRight}),
			decor.OnAbort(
				decor.OnComplete(decor.Name("extracting"), "Complete"), "Failed",
			),
		),
	)
	pr.bars[it.ID] = b
	return b
}

// track is a queue subscriber.
func (pr *progress) track(it queue.Item) {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	b := pr.bar(it)
	switch it.Status {
	case constants.ItemDone:
		b.SetCurrent(1)
	case constants.ItemError:
		b.Abort(false)
	}
}

func (pr *progress) wait() {
	pr.mu.Lock()
	for _, b := range pr.bars {
		if !b.Completed() && !b.Aborted() {
			b.Abort(false)
		}
	}
	pr.mu.Unlock()
	pr.p.Wait()
}

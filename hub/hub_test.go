package hub

import (
	"context"
	"testing"
	"time"
)

func TestHub(t *testing.T) {
	h := New(5)
	ctx := context.Background()

	done := make(map[string]time.Time)

	go func() {
		hr := <-h.QueryCh()
		time.Sleep(10 * time.Millisecond)
		done["query"] = time.Now()
		hr.Done()
	}()
	go func() {
		hr := <-h.DrawCh()
		if hr.Data() == nil {
			t.Errorf("expected draw options, got nil")
		}
		time.Sleep(10 * time.Millisecond)
		done["draw"] = time.Now()
		hr.Done()
	}()
	go func() {
		hr := <-h.StatusMsgCh()
		if hr.Data().Message() != "Hello, World!" {
			t.Errorf("expected message 'Hello, World!', got %q", hr.Data().Message())
		}
		time.Sleep(10 * time.Millisecond)
		done["status"] = time.Now()
		hr.Done()
	}()
	go func() {
		hr := <-h.PagingCh()
		if hr.Data().Type() != ToLineBelow {
			t.Errorf("expected ToLineBelow, got %v", hr.Data().Type())
		}
		time.Sleep(10 * time.Millisecond)
		done["paging"] = time.Now()
		hr.Done()
	}()

	h.Batch(ctx, func(bctx context.Context) {
		h.SendQuery(bctx, "Hello World!")
		h.SendDraw(bctx, &DrawOptions{ForceSync: true})
		h.SendStatusMsg(bctx, "Hello, World!", 0)
		h.SendPaging(bctx, ToLineBelow)
	})

	phases := []string{"query", "draw", "status", "paging"}
	for i := 0; i < len(phases)-1; i++ {
		cur, next := phases[i], phases[i+1]
		if done[next].Before(done[cur]) {
			t.Errorf("%s executed before %s?!", next, cur)
		}
	}
}

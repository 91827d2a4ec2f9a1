package newscache

import (
	"fmt"
	"sync"
	"testing"

	"github.com/samvad-hq/newstone/internal/domain"
)

func articles(locators ...string) []domain.CachedArticle {
	out := make([]domain.CachedArticle, 0, len(locators))
	for _, loc := range locators {
		out = append(out, domain.CachedArticle{Title: "t-" + loc, Locator: loc, NeutralSummary: "s-" + loc})
	}
	return out
}

func TestCacheLifecycle(t *testing.T) {
	t.Parallel()

	c := New()
	if c.IsPopulated() {
		t.Fatal("new cache must be empty")
	}
	if got := c.Snapshot(); got != nil {
		t.Fatalf("empty snapshot = %v, want nil", got)
	}

	c.Replace(articles("a.com", "b.com"))
	if !c.IsPopulated() || c.Len() != 2 {
		t.Fatalf("populated = %v len = %d", c.IsPopulated(), c.Len())
	}

	snap := c.Snapshot()
	if snap[0].Locator != "a.com" || snap[1].Locator != "b.com" {
		t.Fatalf("snapshot order = %+v", snap)
	}

	c.Replace(articles("c.com"))
	if got := c.Snapshot(); len(got) != 1 || got[0].Locator != "c.com" {
		t.Fatalf("replace did not swap wholesale: %+v", got)
	}

	c.Clear()
	if c.IsPopulated() || c.Len() != 0 {
		t.Fatal("clear must empty the cache")
	}
}

func TestReplaceWithEmptyLeavesCacheUnpopulated(t *testing.T) {
	t.Parallel()

	c := New()
	c.Replace(articles("a.com"))
	c.Replace(nil)
	if c.IsPopulated() {
		t.Fatal("replacing with an empty sequence must leave the cache empty")
	}
}

func TestCacheIsolatedFromCallerSlices(t *testing.T) {
	t.Parallel()

	c := New()
	input := articles("a.com", "b.com")
	c.Replace(input)
	input[0].Title = "mutated"

	snap := c.Snapshot()
	if snap[0].Title != "t-a.com" {
		t.Fatalf("cache observed caller mutation: %q", snap[0].Title)
	}

	snap[1].Title = "mutated"
	if again := c.Snapshot(); again[1].Title != "t-b.com" {
		t.Fatalf("cache observed snapshot mutation: %q", again[1].Title)
	}
}

func TestSnapshotNeverObservesPartialSequence(t *testing.T) {
	t.Parallel()

	c := New()
	small := articles("a.com")
	large := articles("1", "2", "3", "4", "5")

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			if i%2 == 0 {
				c.Replace(small)
			} else {
				c.Replace(large)
			}
		}
	}()

	errs := make(chan error, 1)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			snap := c.Snapshot()
			switch len(snap) {
			case 0, len(small), len(large):
			default:
				select {
				case errs <- fmt.Errorf("snapshot length %d", len(snap)):
				default:
				}
				return
			}
		}
	}()
	wg.Wait()
	close(errs)

	if err := <-errs; err != nil {
		t.Fatal(err)
	}
}

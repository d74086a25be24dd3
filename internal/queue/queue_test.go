package queue

import (
	"sync"
	"testing"
	"time"
)

func TestQueueFIFO(t *testing.T) {
	q := New[int]()
	for i := 0; i < 5; i++ {
		q.Push(i)
	}

	for i := 0; i < 5; i++ {
		v, ok := q.Pop()
		if !ok {
			t.Fatalf("expected item %d, queue empty", i)
		}
		if v != i {
			t.Errorf("expected %d, got %d", i, v)
		}
	}

	if _, ok := q.Pop(); ok {
		t.Error("expected empty queue")
	}
}

func TestQueueReadySignalsAfterPush(t *testing.T) {
	q := New[string]()

	select {
	case <-q.Ready():
		t.Fatal("ready before any push")
	default:
	}

	q.Push("a")
	q.Push("b")

	select {
	case <-q.Ready():
	case <-time.After(time.Second):
		t.Fatal("expected ready signal")
	}

	if q.Len() != 2 {
		t.Errorf("expected 2 items, got %d", q.Len())
	}
}

func TestQueueDrain(t *testing.T) {
	q := New[int]()
	for i := 0; i < 10; i++ {
		q.Push(i)
	}
	q.Pop()

	if n := q.Drain(); n != 9 {
		t.Errorf("expected 9 drained, got %d", n)
	}
	if q.Len() != 0 {
		t.Errorf("expected empty after drain, got %d", q.Len())
	}

	q.Push(42)
	v, ok := q.Pop()
	if !ok || v != 42 {
		t.Errorf("expected 42 after drain, got %d (ok=%v)", v, ok)
	}
}

func TestQueueCompactionKeepsOrder(t *testing.T) {
	q := New[int]()
	for i := 0; i < 200; i++ {
		q.Push(i)
	}
	for i := 0; i < 150; i++ {
		if v, _ := q.Pop(); v != i {
			t.Fatalf("expected %d, got %d", i, v)
		}
	}
	for i := 200; i < 250; i++ {
		q.Push(i)
	}
	for i := 150; i < 250; i++ {
		v, ok := q.Pop()
		if !ok || v != i {
			t.Fatalf("expected %d, got %d (ok=%v)", i, v, ok)
		}
	}
}

func TestQueueConcurrentProducers(t *testing.T) {
	q := New[int]()
	const producers, perProducer = 8, 500

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.Push(i)
			}
		}()
	}
	wg.Wait()

	count := 0
	for {
		if _, ok := q.Pop(); !ok {
			break
		}
		count++
	}
	if count != producers*perProducer {
		t.Errorf("expected %d items, got %d", producers*perProducer, count)
	}
}

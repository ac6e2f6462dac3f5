package core

import (
	"fmt"
	"testing"
)

func Benchmark_Append(b *testing.B) {
	q, _ := SetupTempQueue(b)

	payload := []byte("the quick brown fox jumps over the lazy dog")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := q.Append(payload); err != nil {
			b.Fatalf("Append: %v", err)
		}
	}
}

func Benchmark_Append_Sync(b *testing.B) {
	q, _ := SetupTempQueue(b)

	payload := []byte("the quick brown fox jumps over the lazy dog")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := q.Append(payload); err != nil {
			b.Fatalf("Append: %v", err)
		}
		if err := q.Sync(); err != nil {
			b.Fatalf("Sync: %v", err)
		}
	}
}

func Benchmark_Stream(b *testing.B) {
	q, _ := SetupTempQueue(b)

	const preload = 10000
	for i := 0; i < preload; i++ {
		if err := q.Append([]byte(fmt.Sprintf("record-%d", i))); err != nil {
			b.Fatalf("Append: %v", err)
		}
	}
	if err := q.Sync(); err != nil {
		b.Fatalf("Sync: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s, err := q.Stream(nil)
		if err != nil {
			b.Fatalf("Stream: %v", err)
		}
		for {
			_, ok, err := s.Next()
			if err != nil {
				b.Fatalf("Next: %v", err)
			}
			if !ok {
				break
			}
		}
		_ = s.Close()
	}
}

// TestQueueProducerConsumerAtScale exercises a producer/consumer pass over
// a large number of records, standing in for the million-record scenario
// at a size this test suite can run quickly.
func TestQueueProducerConsumerAtScale(t *testing.T) {
	q, _ := SetupTempQueue(t)

	const n = 50000
	for i := 0; i < n; i++ {
		if err := q.Append([]byte(fmt.Sprintf("payload-%d", i))); err != nil {
			t.Fatalf("Append %d failed: %v", i, err)
		}
	}
	if err := q.Sync(); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}

	s, err := q.Stream(nil)
	if err != nil {
		t.Fatalf("Stream failed: %v", err)
	}
	defer s.Close()

	count := 0
	for {
		got, ok, err := s.Next()
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		if !ok {
			break
		}
		want := fmt.Sprintf("payload-%d", count)
		if string(got.Data) != want {
			t.Fatalf("item %d: got %q, want %q", count, got.Data, want)
		}
		count++
	}

	if count != n {
		t.Fatalf("expected %d records, got %d", n, count)
	}
}

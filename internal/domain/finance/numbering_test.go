package finance

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryCounter struct {
	mu   sync.Mutex
	seqs map[string]int64
	err  error
}

func (c *memoryCounter) NextSequence(_ context.Context, prefix string, year int) (int64, error) {
	if c.err != nil {
		return 0, c.err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.seqs == nil {
		c.seqs = map[string]int64{}
	}
	key := FormatInvoiceNumber(prefix, year, 0)
	c.seqs[key]++
	return c.seqs[key], nil
}

func TestFormatInvoiceNumber(t *testing.T) {
	assert.Equal(t, "INV-2026-0001", FormatInvoiceNumber("INV", 2026, 1))
	assert.Equal(t, "INV-2026-0042", FormatInvoiceNumber("INV", 2026, 42))
	assert.Equal(t, "INV-2026-12345", FormatInvoiceNumber("INV", 2026, 12345))
}

func TestParseInvoiceNumber(t *testing.T) {
	prefix, year, seq, err := ParseInvoiceNumber("INV-2026-0042")
	require.NoError(t, err)
	assert.Equal(t, "INV", prefix)
	assert.Equal(t, 2026, year)
	assert.Equal(t, int64(42), seq)

	_, _, _, err = ParseInvoiceNumber("INV-0042")
	assert.Error(t, err)
	_, _, _, err = ParseInvoiceNumber("INV-20x6-0042")
	assert.Error(t, err)
}

func TestInvoiceNumberGenerator_Next(t *testing.T) {
	t.Run("sequence restarts per year", func(t *testing.T) {
		counter := &memoryCounter{}
		now := time.Date(2025, 12, 31, 10, 0, 0, 0, time.UTC)
		gen := NewInvoiceNumberGenerator(counter, "", time.UTC).WithClock(func() time.Time { return now })

		n1, err := gen.Next(context.Background())
		require.NoError(t, err)
		n2, err := gen.Next(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "INV-2025-0001", n1)
		assert.Equal(t, "INV-2025-0002", n2)

		now = now.AddDate(0, 0, 1)
		n3, err := gen.Next(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "INV-2026-0001", n3)
	})

	t.Run("year follows configured location", func(t *testing.T) {
		loc := time.FixedZone("MYT", 8*3600)
		gen := NewInvoiceNumberGenerator(&memoryCounter{}, "INV", loc).
			WithClock(func() time.Time { return time.Date(2025, 12, 31, 17, 0, 0, 0, time.UTC) })

		n, err := gen.Next(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "INV-2026-0001", n)
	})

	t.Run("concurrent callers get distinct numbers", func(t *testing.T) {
		gen := NewInvoiceNumberGenerator(&memoryCounter{}, "INV", time.UTC)
		const n = 50
		results := make(chan string, n)
		var wg sync.WaitGroup
		for range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				num, err := gen.Next(context.Background())
				assert.NoError(t, err)
				results <- num
			}()
		}
		wg.Wait()
		close(results)

		seen := map[string]bool{}
		for num := range results {
			assert.False(t, seen[num], "duplicate %s", num)
			seen[num] = true
		}
		assert.Len(t, seen, n)
	})

	t.Run("counter failure is wrapped", func(t *testing.T) {
		boom := errors.New("db down")
		gen := NewInvoiceNumberGenerator(&memoryCounter{err: boom}, "INV", time.UTC)
		_, err := gen.Next(context.Background())
		assert.ErrorIs(t, err, boom)
	})
}

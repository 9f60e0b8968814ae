package memory

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/asad-as1/EduAccess/internal/domain"
)

var day1 = time.Date(2025, time.March, 1, 10, 0, 0, 0, time.UTC)

func TestMergeScenario(t *testing.T) {
	// 30s + 45s + two home visits on the same day fold into one record.
	ctx := context.Background()
	repo := NewRepository()

	require.NoError(t, repo.MergeActiveTime(ctx, "u1", 30, day1))
	require.NoError(t, repo.MergeActiveTime(ctx, "u1", 45, day1.Add(time.Minute)))
	require.NoError(t, repo.MergePageVisit(ctx, "u1", "home", day1.Add(2*time.Minute)))
	require.NoError(t, repo.MergePageVisit(ctx, "u1", "home", day1.Add(3*time.Minute)))

	records, err := repo.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	require.Equal(t, domain.DayKey("2025-03-01"), rec.Date)
	require.Equal(t, 75.0, rec.TotalActiveTime)
	require.Equal(t, map[string]int{"home": 2}, rec.PagesVisited)
	require.Equal(t, day1.Add(3*time.Minute), rec.LastUpdated)
}

func TestMergeIsCommutative(t *testing.T) {
	ctx := context.Background()
	deltas := []float64{5, 10, 15, 20, 25}

	var want float64
	for _, d := range deltas {
		want += d
	}

	for trial := 0; trial < 10; trial++ {
		repo := NewRepository()
		shuffled := append([]float64(nil), deltas...)
		rand.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		for i, d := range shuffled {
			require.NoError(t, repo.MergeActiveTime(ctx, "u1", d, day1.Add(time.Duration(i)*time.Second)))
		}

		records, err := repo.ListByUser(ctx, "u1")
		require.NoError(t, err)
		require.Len(t, records, 1)
		require.Equal(t, want, records[0].TotalActiveTime)
	}
}

func TestOutOfOrderDeliveryKeepsMaxLastUpdated(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()

	late := day1.Add(2 * time.Hour)
	require.NoError(t, repo.MergeActiveTime(ctx, "u1", 10, late))
	require.NoError(t, repo.MergeActiveTime(ctx, "u1", 10, day1))

	records, err := repo.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, late, records[0].LastUpdated)
	require.Equal(t, 20.0, records[0].TotalActiveTime)
}

func TestEventsOnDifferentDaysNeverShareARecord(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()

	day2 := day1.AddDate(0, 0, 1)
	require.NoError(t, repo.MergeActiveTime(ctx, "u1", 30, day1))
	require.NoError(t, repo.MergeActiveTime(ctx, "u1", 40, day2))
	require.NoError(t, repo.MergePageVisit(ctx, "u1", "home", day2))

	records, err := repo.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, records, 2)

	require.Equal(t, domain.DayKey("2025-03-01"), records[0].Date)
	require.Equal(t, 30.0, records[0].TotalActiveTime)
	require.Empty(t, records[0].PagesVisited)

	require.Equal(t, domain.DayKey("2025-03-02"), records[1].Date)
	require.Equal(t, 40.0, records[1].TotalActiveTime)
	require.Equal(t, map[string]int{"home": 1}, records[1].PagesVisited)
}

func TestDuplicateDeliveryIsCountedTwice(t *testing.T) {
	// Delivery is at-most-once on the client side, so the store performs no
	// duplicate suppression: a retried send would double-count.
	ctx := context.Background()
	repo := NewRepository()

	require.NoError(t, repo.MergeActiveTime(ctx, "u1", 30, day1))
	require.NoError(t, repo.MergeActiveTime(ctx, "u1", 30, day1))

	records, err := repo.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, 60.0, records[0].TotalActiveTime)
}

func TestConcurrentMergesSerializePerRecord(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()

	const writers = 16
	const eventsPerWriter = 50

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < eventsPerWriter; i++ {
				// Two tabs of u1 plus one other user writing a different record.
				require.NoError(t, repo.MergeActiveTime(ctx, "u1", 1, day1.Add(time.Duration(i)*time.Second)))
				require.NoError(t, repo.MergePageVisit(ctx, "u1", "studynotes", day1))
				require.NoError(t, repo.MergeActiveTime(ctx, "u2", 1, day1))
			}
		}(w)
	}
	wg.Wait()

	records, err := repo.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, float64(writers*eventsPerWriter), records[0].TotalActiveTime)
	require.Equal(t, writers*eventsPerWriter, records[0].PagesVisited["studynotes"])

	other, err := repo.ListByUser(ctx, "u2")
	require.NoError(t, err)
	require.Equal(t, float64(writers*eventsPerWriter), other[0].TotalActiveTime)
}

func TestListByUserEmpty(t *testing.T) {
	records, err := NewRepository().ListByUser(context.Background(), "nobody")
	require.NoError(t, err)
	require.Empty(t, records)
}

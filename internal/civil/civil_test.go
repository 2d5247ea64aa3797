package civil_test

import (
	"testing"
	"time"

	"github.com/Raimguhinov/alarm-go/internal/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadZone(t *testing.T) {
	loc, err := civil.LoadZone("Asia/Seoul")
	require.NoError(t, err)
	assert.Equal(t, "Asia/Seoul", loc.String())

	_, err = civil.LoadZone("Mars/Olympus_Mons")
	require.Error(t, err)

	_, err = civil.LoadZone("")
	require.Error(t, err)
}

func TestRoundTrip(t *testing.T) {
	zones := []string{"Asia/Seoul", "America/Los_Angeles", "Europe/Berlin", "UTC"}

	for _, name := range zones {
		loc, err := civil.LoadZone(name)
		require.NoError(t, err)

		for _, clock := range [][2]int{{0, 0}, {9, 30}, {23, 59}} {
			c := civil.Components{
				Year: 2024, Month: time.June, Day: 10,
				Hour: clock[0], Minute: clock[1],
			}
			instant := civil.Instant(c, loc)
			back := civil.At(instant, loc)

			assert.Equal(t, clock[0], back.Hour, "zone %s", name)
			assert.Equal(t, clock[1], back.Minute, "zone %s", name)
			assert.Equal(t, c.Day, back.Day, "zone %s", name)
		}
	}
}

func TestSeoulToLosAngeles(t *testing.T) {
	seoul, err := civil.LoadZone("Asia/Seoul")
	require.NoError(t, err)
	la, err := civil.LoadZone("America/Los_Angeles")
	require.NoError(t, err)

	// 2024-06-10 09:00 Seoul is 2024-06-09 17:00 in LA (PDT, UTC-7).
	instant := civil.Instant(civil.Components{
		Year: 2024, Month: time.June, Day: 10, Hour: 9,
	}, seoul)
	local := civil.At(instant, la)

	assert.Equal(t, time.June, local.Month)
	assert.Equal(t, 9, local.Day)
	assert.Equal(t, 17, local.Hour)
	assert.Equal(t, 0, local.Minute)
	assert.Equal(t, time.Sunday, local.Weekday)
}

func TestSpringForwardGapNormalizesForward(t *testing.T) {
	la, err := civil.LoadZone("America/Los_Angeles")
	require.NoError(t, err)

	// 2024-03-10 02:30 does not exist in LA; time.Date pushes it past
	// the gap instead of failing.
	instant := civil.Instant(civil.Components{
		Year: 2024, Month: time.March, Day: 10, Hour: 2, Minute: 30,
	}, la)
	back := civil.At(instant, la)

	assert.NotEqual(t, 2, back.Hour)
	assert.Equal(t, 10, back.Day)
}

func TestFallBackAmbiguityPicksFirstOccurrence(t *testing.T) {
	la, err := civil.LoadZone("America/Los_Angeles")
	require.NoError(t, err)

	// 2024-11-03 01:30 happens twice in LA: once in PDT, once an hour
	// later in PST. Instant resolves to the first pass.
	instant := civil.Instant(civil.Components{
		Year: 2024, Month: time.November, Day: 3, Hour: 1, Minute: 30,
	}, la)

	_, offset := instant.Zone()
	assert.Equal(t, -7*3600, offset)

	// The same wall clock repeats one absolute hour later.
	again := instant.Add(time.Hour)
	back := civil.At(again, la)
	assert.Equal(t, 1, back.Hour)
	assert.Equal(t, 30, back.Minute)
	_, secondOffset := again.Zone()
	assert.Equal(t, -8*3600, secondOffset)
}

func TestSameClockDifferentOffsetAcrossDST(t *testing.T) {
	la, err := civil.LoadZone("America/Los_Angeles")
	require.NoError(t, err)

	summer := civil.Instant(civil.Components{
		Year: 2024, Month: time.July, Day: 15, Hour: 9,
	}, la)
	winter := civil.Instant(civil.Components{
		Year: 2024, Month: time.December, Day: 15, Hour: 9,
	}, la)

	_, summerOffset := summer.Zone()
	_, winterOffset := winter.Zone()

	assert.Equal(t, 9, civil.At(summer, la).Hour)
	assert.Equal(t, 9, civil.At(winter, la).Hour)
	assert.Equal(t, 3600, summerOffset-winterOffset)
}

func TestWithClock(t *testing.T) {
	c := civil.Components{
		Year: 2024, Month: time.June, Day: 10,
		Hour: 4, Minute: 12, Second: 33,
	}
	c = c.WithClock(9, 0)

	assert.Equal(t, 9, c.Hour)
	assert.Equal(t, 0, c.Minute)
	assert.Equal(t, 0, c.Second)
	assert.Equal(t, 10, c.Day)
}

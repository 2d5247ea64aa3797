package scheduler_test

import (
	"testing"

	"github.com/Raimguhinov/alarm-go/internal/scheduler"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTriggerIDRoundTrip(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name string
		tid  scheduler.TriggerID
		str  string
	}{
		{"root", scheduler.Root(id), id.String()},
		{"weekday", scheduler.Weekday(id, 3), id.String() + "-weekday-3"},
		{"chain", scheduler.ChainLink(id, 17), id.String() + "-chain-17"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.str, tt.tid.String())

			parsed, err := scheduler.ParseTriggerID(tt.str)
			require.NoError(t, err)
			assert.Equal(t, tt.tid, parsed)
		})
	}
}

func TestParseTriggerIDRejectsGarbage(t *testing.T) {
	for _, s := range []string{
		"",
		"not-a-uuid",
		"not-a-uuid-chain-0",
		uuid.New().String() + "-chain-x",
	} {
		_, err := scheduler.ParseTriggerID(s)
		assert.Error(t, err, "input %q", s)
	}
}

func TestNextLink(t *testing.T) {
	id := uuid.New()

	// Root and weekday deliveries start the chain at 0.
	assert.Equal(t, scheduler.ChainLink(id, 0), scheduler.Root(id).NextLink())
	assert.Equal(t, scheduler.ChainLink(id, 0), scheduler.Weekday(id, 5).NextLink())
	assert.Equal(t, scheduler.ChainLink(id, 8), scheduler.ChainLink(id, 7).NextLink())

	assert.Equal(t, -1, scheduler.Root(id).ChainIndex())
	assert.Equal(t, 4, scheduler.ChainLink(id, 4).ChainIndex())
}

func TestPrefixCoversAllVariants(t *testing.T) {
	id := uuid.New()
	prefix := scheduler.Prefix(id)

	assert.Equal(t, prefix, scheduler.Root(id).String())
	assert.Contains(t, scheduler.Weekday(id, 1).String(), prefix)
	assert.Contains(t, scheduler.ChainLink(id, 99).String(), prefix)
}

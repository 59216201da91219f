package engine_test

import (
	"math"
	"testing"
	"time"

	"github.com/matt-steen/todo-notes/pkg/engine"
	"github.com/stretchr/testify/assert"
)

func TestDayRange(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	since, to, remove, err := engine.DayRange("2024-01-03", "2024-01-07", time.UTC)
	assert.Nil(err)
	assert.False(remove)
	assert.Equal(time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC).UnixMilli(), since)
	assert.Equal(time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC).UnixMilli()-1, to)

	_, _, remove, err = engine.DayRange("", "", time.UTC)
	assert.Nil(err)
	assert.True(remove)

	since, to, _, err = engine.DayRange("", "2024-01-07", time.UTC)
	assert.Nil(err)
	assert.Equal(int64(math.MinInt64), since)
	assert.Less(to, int64(math.MaxInt64))

	_, _, _, err = engine.DayRange("01/03/2024", "", time.UTC)
	assert.NotNil(err)
}

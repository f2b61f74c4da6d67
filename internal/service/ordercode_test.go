package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/apparel_shop/internal/testutil"
)

func TestOrderCoder_Redis(t *testing.T) {
	mr, client := testutil.NewRedis(t)
	coder := &OrderCoder{Seq: &RedisSequence{Client: client, TTL: 48 * time.Hour}}
	ctx := testutil.Context()
	day := time.Date(2024, 3, 9, 23, 59, 0, 0, time.UTC)

	first, err := coder.Next(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, "ORD-20240309-000001", first)

	second, err := coder.Next(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, "ORD-20240309-000002", second)

	next, err := coder.Next(ctx, day.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, "ORD-20240310-000001", next)

	assert.True(t, mr.Exists("ordercode:20240309"))
	assert.Equal(t, 48*time.Hour, mr.TTL("ordercode:20240309"))
}

func TestOrderCoder_SQL(t *testing.T) {
	r := testutil.NewRepo(t)
	coder := &OrderCoder{Seq: &SQLSequence{Repo: r}}
	ctx := testutil.Context()
	day := time.Date(2024, 3, 9, 8, 0, 0, 0, time.FixedZone("ICT", 7*3600))

	for want := 1; want <= 3; want++ {
		code, err := coder.Next(ctx, day)
		require.NoError(t, err)
		assert.Regexp(t, orderCodeRe, code)
		assert.Equal(t, FormatOrderCode("20240309", int64(want)), code)
	}
}

func TestFormatOrderCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "ORD-20240101-000042", FormatOrderCode("20240101", 42))
	assert.Equal(t, "ORD-20240101-1234567", FormatOrderCode("20240101", 1234567))
}

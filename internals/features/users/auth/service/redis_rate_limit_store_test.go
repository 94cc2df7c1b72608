package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"schoolku_backend/internals/features/users/auth/dto"
	authModel "schoolku_backend/internals/features/users/auth/model"
	"schoolku_backend/internals/features/users/auth/service"
	helper "schoolku_backend/internals/helpers"
)

func newRedisStore(t *testing.T) (*miniredis.Miniredis, *service.RedisRateLimitStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, service.NewRedisRateLimitStore(client)
}

func TestRedisStoreMissingKey(t *testing.T) {
	_, store := newRedisStore(t)

	_, found, err := store.Get(context.Background(), testPhone, testIP, time.Now())
	require.NoError(t, err)
	require.False(t, found)
}

func TestRedisStoreIncrementSlidesExpiry(t *testing.T) {
	mr, store := newRedisStore(t)
	ctx := context.Background()
	now := time.Now().UTC()
	key := "otp:rl:" + testPhone + ":" + testIP

	require.NoError(t, store.Increment(ctx, testPhone, testIP, now, 15*time.Minute))
	mr.FastForward(10 * time.Minute)
	require.NoError(t, store.Increment(ctx, testPhone, testIP, now, 15*time.Minute))

	require.Equal(t, 15*time.Minute, mr.TTL(key))
	v, err := mr.Get(key)
	require.NoError(t, err)
	require.Equal(t, "2", v)

	w, found, err := store.Get(ctx, testPhone, testIP, now)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, 2, w.Count)
	require.Equal(t, now.Add(15*time.Minute), w.ExpiresAt)

	require.NoError(t, store.Reset(ctx, testPhone, testIP))
	require.False(t, mr.Exists(key))
	_, found, err = store.Get(ctx, testPhone, testIP, now)
	require.NoError(t, err)
	require.False(t, found)
}

func TestSendOTPRateLimitSlidesOnRedis(t *testing.T) {
	mr, store := newRedisStore(t)
	h := newHarnessWithStore(t, store)
	ctx := context.Background()
	req := dto.SendOTPRequest{CountryCode: testCC, MobileNo: testMobile}

	// redis expiry runs on miniredis time, the service on the fake clock
	advance := func(d time.Duration) {
		h.clock.Advance(d)
		mr.FastForward(d)
	}

	for i := 0; i < 5; i++ {
		_, err := h.auth.SendOTP(ctx, req, testIP)
		require.NoError(t, err, "request %d", i+1)
	}

	_, err := h.auth.SendOTP(ctx, req, testIP)
	require.Equal(t, helper.KindRateLimited, helper.KindOf(err))
	require.Contains(t, err.Error(), "Please try again after 15 minutes")

	_, err = h.auth.SendOTP(ctx, req, "10.0.0.2")
	require.NoError(t, err)

	advance(14 * time.Minute)
	_, err = h.auth.SendOTP(ctx, req, testIP)
	require.Equal(t, helper.KindRateLimited, helper.KindOf(err))
	require.Contains(t, err.Error(), "after 1 minutes")

	advance(time.Minute + time.Second)
	_, err = h.auth.SendOTP(ctx, req, testIP)
	require.NoError(t, err)

	v, err := mr.Get("otp:rl:" + testPhone + ":" + testIP)
	require.NoError(t, err)
	require.Equal(t, "1", v)

	var rows int64
	require.NoError(t, h.db.Model(&authModel.OTPRateLimitModel{}).Count(&rows).Error)
	require.Zero(t, rows)
}

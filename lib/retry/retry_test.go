package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDo(t *testing.T) {
	errFlaky := errors.New("flaky")

	testCases := []struct {
		name        string
		policy      Policy
		failUntil   int
		expectCalls int
		expectErr   error
	}{
		{name: "first try", policy: Policy{Attempts: 3}, failUntil: 0, expectCalls: 1},
		{name: "second try", policy: Policy{Attempts: 3}, failUntil: 1, expectCalls: 2},
		{name: "exhausted", policy: Policy{Attempts: 3}, failUntil: 10, expectCalls: 3, expectErr: errFlaky},
		{name: "zero attempts still tries once", policy: Policy{}, failUntil: 10, expectCalls: 1, expectErr: errFlaky},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			calls := 0
			err := Do(context.Background(), test.policy, func(attempt int) error {
				calls++
				require.Equal(t, calls, attempt)
				if attempt <= test.failUntil {
					return errFlaky
				}
				return nil
			})
			require.Equal(t, test.expectCalls, calls)
			if test.expectErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, test.expectErr)
		})
	}
}

func TestDoPermanent(t *testing.T) {
	errFatal := errors.New("fatal")
	calls := 0
	err := Do(context.Background(), Policy{Attempts: 5}, func(int) error {
		calls++
		return Permanent(errFatal)
	})
	require.Equal(t, 1, calls)
	require.ErrorIs(t, err, errFatal)
}

func TestUntil(t *testing.T) {
	calls := 0
	err := Until(context.Background(), Policy{Attempts: 4, Interval: time.Millisecond}, func(int) (bool, error) {
		calls++
		return calls == 3, nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, calls)

	err = Until(context.Background(), Policy{Attempts: 2}, func(int) (bool, error) {
		return false, nil
	})
	require.ErrorIs(t, err, ErrExhausted)
}

func TestUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Until(ctx, Policy{Attempts: 100, Interval: time.Second}, func(int) (bool, error) {
		return false, nil
	})
	require.Error(t, err)
}

func TestSleep(t *testing.T) {
	require.NoError(t, Sleep(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, Sleep(ctx, time.Hour), context.Canceled)
}

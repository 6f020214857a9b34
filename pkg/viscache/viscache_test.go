package viscache_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dnv-opensource/vista-sdk-go/api/visversion"
	"github.com/dnv-opensource/vista-sdk-go/pkg/viscache"
)

func TestGetOrBuildBuildsOnceUnderConcurrency(t *testing.T) {
	c := viscache.New[string]()

	var builds int32

	build := func(v visversion.VisVersion) (string, error) {
		atomic.AddInt32(&builds, 1)

		return "built-" + v.String(), nil
	}

	var wg sync.WaitGroup

	results := make([]string, 20)

	for i := 0; i < 20; i++ {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			v, err := c.GetOrBuild(visversion.V3_4a, build)
			require.NoError(t, err)
			results[i] = v
		}(i)
	}

	wg.Wait()

	require.Equal(t, int32(1), atomic.LoadInt32(&builds))

	for _, r := range results {
		require.Equal(t, "built-3-4a", r)
	}
}

func TestGetOrBuildPropagatesError(t *testing.T) {
	c := viscache.New[int]()

	wantErr := fmt.Errorf("boom")

	_, err := c.GetOrBuild(visversion.V3_4a, func(visversion.VisVersion) (int, error) {
		return 0, wantErr
	})
	require.ErrorIs(t, err, wantErr)

	require.Equal(t, 0, c.Len())
}

func TestBuildAllPopulatesEveryVersion(t *testing.T) {
	c := viscache.New[string]()

	err := c.BuildAll(context.Background(), visversion.All, func(v visversion.VisVersion) (string, error) {
		return v.String(), nil
	})
	require.NoError(t, err)

	require.Equal(t, len(visversion.All), c.Len())

	v, ok := c.Get(visversion.V3_9a)
	require.True(t, ok)
	require.Equal(t, "3-9a", v)
}

func TestBuildAllReturnsFirstError(t *testing.T) {
	c := viscache.New[int]()

	wantErr := fmt.Errorf("version %s rejected", visversion.V3_6a)

	err := c.BuildAll(context.Background(), visversion.All, func(v visversion.VisVersion) (int, error) {
		if v == visversion.V3_6a {
			return 0, wantErr
		}

		return 1, nil
	})
	require.Error(t, err)
}

func TestBuildAllSkipsAlreadyBuiltVersion(t *testing.T) {
	c := viscache.New[string]()

	_, err := c.GetOrBuild(visversion.V3_4a, func(v visversion.VisVersion) (string, error) {
		return "seeded", nil
	})
	require.NoError(t, err)

	err = c.BuildAll(context.Background(), visversion.All, func(v visversion.VisVersion) (string, error) {
		if v == visversion.V3_4a {
			t.Fatal("should not rebuild an already-cached version")
		}

		return "built-" + v.String(), nil
	})
	require.NoError(t, err)

	v, _ := c.Get(visversion.V3_4a)
	require.Equal(t, "seeded", v)
}

package shm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"runtime"
	"testing"

	"github.com/shirou/gopsutil/v3/disk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapAnonymousRegion(t *testing.T) {
	ctx := context.Background()
	region, err := MapRegion(ctx, MapOptions{Size: 4096})
	require.NoError(t, err)
	assert.Len(t, region.Addr, 4096)
	assert.Equal(t, runtime.GOOS == "linux", region.Mapped())

	region.Addr[0] = 0x5a
	assert.Equal(t, byte(0x5a), region.Addr[0])
	require.NoError(t, UnmapRegion(ctx, region))
	assert.Nil(t, region.Addr)

	// Unmapping twice is a no-op.
	assert.NoError(t, UnmapRegion(ctx, region))
}

func TestMapNamedRegion(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("named regions are only mapped on linux")
	}
	ctx := context.Background()
	name := fmt.Sprintf("atomics-test-%d", os.Getpid())
	owner, err := MapRegion(ctx, MapOptions{Name: name, Size: 4096, Create: true})
	require.NoError(t, err)

	peer, err := MapRegion(ctx, MapOptions{Name: name, Size: 4096})
	require.NoError(t, err)

	owner.Addr[128] = 7
	assert.Equal(t, byte(7), peer.Addr[128])

	require.NoError(t, UnmapRegion(ctx, peer))
	require.NoError(t, UnmapRegion(ctx, owner))
	_, err = os.Stat("/dev/shm/" + name)
	assert.True(t, os.IsNotExist(err))
}

func TestMapRegionRejectsBadSize(t *testing.T) {
	_, err := MapRegion(context.Background(), MapOptions{Size: 0})
	assert.True(t, errors.Is(err, ErrInvalidSize))
}

func TestMapRegionRejectsOversizedNamedRegion(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("free space is only checked on linux")
	}
	stat, err := disk.Usage("/dev/shm")
	if err != nil {
		t.Skipf("usage of /dev/shm: %v", err)
	}
	if stat.Free >= math.MaxInt-1<<30 {
		t.Skip("/dev/shm reports more free space than a region can request")
	}
	_, err = MapRegion(context.Background(), MapOptions{
		Name:   fmt.Sprintf("atomics-huge-%d", os.Getpid()),
		Size:   int(stat.Free) + 1<<30,
		Create: true,
	})
	assert.ErrorIs(t, err, ErrNoSpace)
}

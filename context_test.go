package main

import (
	"testing"

	"github.com/nalgeon/be"
)

func TestReserveGrowsDownwards(t *testing.T) {
	ctx := NewContext(TargetLinux)
	ctx.NewScope()

	be.Equal(t, ctx.Reserve(1), -8)
	be.Equal(t, ctx.Reserve(1), -16)
	be.Equal(t, ctx.Reserve(1), -24)
}

func TestReserveArrayReturnsLowestSlot(t *testing.T) {
	ctx := NewContext(TargetLinux)
	ctx.NewScope()

	be.Equal(t, ctx.Reserve(1), -8)
	// Four words: -40, -32, -24, -16.
	be.Equal(t, ctx.Reserve(4), -40)
	be.Equal(t, ctx.Reserve(1), -48)
}

func TestReleaseIsLastInFirstOut(t *testing.T) {
	ctx := NewContext(TargetLinux)
	ctx.NewScope()

	a := ctx.Reserve(1)
	b := ctx.Reserve(2)
	ctx.Release(2)
	be.Equal(t, ctx.Reserve(2), b)
	ctx.Release(2)
	ctx.Release(1)
	be.Equal(t, ctx.Reserve(1), a)
}

func TestFrameSize(t *testing.T) {
	ctx := NewContext(TargetLinux)
	ctx.NewScope()
	be.Equal(t, ctx.FrameSize(), 16)

	ctx.Reserve(1)
	be.Equal(t, ctx.FrameSize(), 32)

	ctx.Reserve(1)
	be.Equal(t, ctx.FrameSize(), 32)

	// Released slots still count: the frame covers the deepest point.
	ctx.Reserve(3)
	ctx.Release(3)
	be.Equal(t, ctx.FrameSize(), 64)

	ctx.NewScope()
	be.Equal(t, ctx.FrameSize(), 16)
}

func TestBindAndRestore(t *testing.T) {
	ctx := NewContext(TargetLinux)
	ctx.NewScope()
	ctx.Bind("x", ctx.Reserve(1))

	saved := ctx.Snapshot()
	ctx.Bind("x", ctx.Reserve(1))
	ctx.Bind("y", ctx.Reserve(1))
	off, ok := ctx.Offset("x")
	be.True(t, ok)
	be.Equal(t, off, -16)

	ctx.Restore(saved)
	off, ok = ctx.Offset("x")
	be.True(t, ok)
	be.Equal(t, off, -8)
	_, ok = ctx.Offset("y")
	be.True(t, !ok)
}

func TestEndScopeDropsBindings(t *testing.T) {
	ctx := NewContext(TargetLinux)
	ctx.NewScope()
	ctx.Bind("x", ctx.Reserve(1))
	ctx.EndScope()
	_, ok := ctx.Offset("x")
	be.True(t, !ok)
}

func TestFreshLabelIsUnique(t *testing.T) {
	ctx := NewContext(TargetLinux)
	ctx.NewScope()
	be.Equal(t, ctx.FreshLabel("if_else"), ".Lif_else_0")
	be.Equal(t, ctx.FreshLabel("if_end"), ".Lif_end_1")

	// The counter survives new frames.
	ctx.NewScope()
	be.Equal(t, ctx.FreshLabel("return"), ".Lreturn_2")

	darwin := NewContext(TargetDarwin)
	be.Equal(t, darwin.FreshLabel("if_else"), "Lif_else_0")
}

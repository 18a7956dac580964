package main

import "fmt"

// outgoingArea is the space kept free at the bottom of every frame for
// arguments passed in memory.
const outgoingArea = 16

// Context is the per-compilation code generation state. Stack offsets are
// relative to the frame pointer and grow downwards.
type Context struct {
	wordSize    int
	labelPrefix string

	stackOffset int // next free slot
	deepest     int // lowest offset handed out in the current frame
	offsets     map[string]int

	labelCount int // never reset: labels are unique per compilation
}

func NewContext(target Target) *Context {
	return &Context{
		wordSize:    target.WordSize,
		labelPrefix: target.LocalLabelPrefix,
	}
}

// NewScope starts a function frame: a fresh offset map and a cursor one
// word below the frame base.
func (ctx *Context) NewScope() {
	ctx.offsets = make(map[string]int)
	ctx.stackOffset = -ctx.wordSize
	ctx.deepest = 0
}

// EndScope discards the frame's bindings.
func (ctx *Context) EndScope() {
	ctx.offsets = nil
	ctx.stackOffset = 0
}

// Reserve claims words contiguous slots and returns the offset of the
// lowest one.
func (ctx *Context) Reserve(words int) int {
	base := ctx.stackOffset - (words-1)*ctx.wordSize
	ctx.stackOffset = base - ctx.wordSize
	if base < ctx.deepest {
		ctx.deepest = base
	}
	return base
}

// Release returns the most recently reserved words slots. Reservations are
// a stack: release in the reverse order of Reserve.
func (ctx *Context) Release(words int) {
	ctx.stackOffset += words * ctx.wordSize
}

func (ctx *Context) Bind(name string, offset int) {
	ctx.offsets[name] = offset
}

func (ctx *Context) Offset(name string) (int, bool) {
	off, ok := ctx.offsets[name]
	return off, ok
}

// Snapshot copies the current bindings so a block can restore them when it
// ends. Slots are not reused; only names are unbound.
func (ctx *Context) Snapshot() map[string]int {
	out := make(map[string]int, len(ctx.offsets))
	for k, v := range ctx.offsets {
		out[k] = v
	}
	return out
}

func (ctx *Context) Restore(offsets map[string]int) {
	ctx.offsets = offsets
}

// FreshLabel mints a label that is unique across the whole compilation.
func (ctx *Context) FreshLabel(category string) string {
	label := fmt.Sprintf("%s%s_%d", ctx.labelPrefix, category, ctx.labelCount)
	ctx.labelCount++
	return label
}

// FrameSize is the number of bytes to drop sp by below the frame pointer,
// kept 16-byte aligned.
func (ctx *Context) FrameSize() int {
	size := -ctx.deepest + outgoingArea
	return (size + 15) &^ 15
}

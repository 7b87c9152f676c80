package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestElementBoundsXY(t *testing.T) {
	e := &Element{Vertices: []Vertex{
		{X: 1, Y: 5}, {X: -2, Y: 3}, {X: 4, Y: -1},
	}}
	minX, maxX, minY, maxY, ok := e.BoundsXY()
	assert.True(t, ok)
	assert.Equal(t, -2.0, minX)
	assert.Equal(t, 4.0, maxX)
	assert.Equal(t, -1.0, minY)
	assert.Equal(t, 5.0, maxY)
}

func TestElementBoundsXYEmpty(t *testing.T) {
	e := &Element{}
	_, _, _, _, ok := e.BoundsXY()
	assert.False(t, ok)
}

func TestSpansAndSpanContaining(t *testing.T) {
	ladder := []float64{0, 5, 10}
	spans := Spans(ladder)
	assert.Len(t, spans, 2)
	assert.Equal(t, 5.0, spans[0].Height())

	span, ok := SpanContaining(ladder, 3)
	assert.True(t, ok)
	assert.Equal(t, FloorSpan{Bottom: 0, Top: 5}, span)

	_, ok = SpanContaining(ladder, 100)
	assert.False(t, ok)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "COLUMN", Column.String())
	assert.Equal(t, "SLAB", Slab.String())
}

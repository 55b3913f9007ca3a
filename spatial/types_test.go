// Copyright 2025 The Liftfinder Authors
// SPDX-License-Identifier: Apache-2.0

package spatial

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHaversineDistance(t *testing.T) {
	tests := []struct {
		name string
		a, b Point
		want float64 // meters
		tol  float64
	}{
		{
			name: "same point",
			a:    Point{Lat: 33.5186, Lng: -86.8104},
			b:    Point{Lat: 33.5186, Lng: -86.8104},
			want: 0,
			tol:  0.001,
		},
		{
			name: "one degree of latitude",
			a:    Point{Lat: 0, Lng: 0},
			b:    Point{Lat: 1, Lng: 0},
			want: 111195,
			tol:  10,
		},
		{
			name: "birmingham to montgomery",
			a:    Point{Lat: 33.5186, Lng: -86.8104},
			b:    Point{Lat: 32.3668, Lng: -86.3000},
			want: 136640,
			tol:  1000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.a.HaversineDistance(&tt.b), tt.tol)
			assert.InDelta(t, tt.want, tt.b.HaversineDistance(&tt.a), tt.tol)
		})
	}
}

func TestCentroid(t *testing.T) {
	_, ok := Centroid(nil)
	assert.False(t, ok)

	c, ok := Centroid([]Point{{Lat: 10, Lng: -20}, {Lat: 20, Lng: -40}, {Lat: 30, Lng: -60}})
	require.True(t, ok)
	assert.InDelta(t, 20.0, c.Lat, 1e-9)
	assert.InDelta(t, -40.0, c.Lng, 1e-9)
}

func TestValid(t *testing.T) {
	assert.True(t, Point{Lat: 33.5, Lng: -86.8}.Valid())
	assert.False(t, Point{Lat: 91, Lng: 0}.Valid())
	assert.False(t, Point{Lat: 0, Lng: -181}.Valid())
}

func TestCellAndDisk(t *testing.T) {
	p := Point{Lat: 33.5186, Lng: -86.8104}

	cell, err := p.Cell(7)
	require.NoError(t, err)
	assert.Equal(t, 7, cell.Resolution())

	disk, err := p.Disk(7, 1)
	require.NoError(t, err)
	assert.Len(t, disk, 7)
	assert.Contains(t, disk, cell)

	_, err = p.Cell(16)
	assert.Error(t, err)
}

func TestString(t *testing.T) {
	assert.Equal(t, "POINT(-86.810400 33.518600)", Point{Lat: 33.5186, Lng: -86.8104}.String())
}

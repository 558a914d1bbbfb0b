package plane

import (
	"errors"
	"image"
	"image/color"
	"sync"
	"testing"

	"github.com/ironsheep/skeye/internal/geom"
)

func TestNewFilter_Checkerboard(t *testing.T) {
	f := NewFilter(geom.Shape{Rows: 2, Cols: 2})

	tests := []struct {
		r, c int
		want int
	}{
		{0, 0, 2}, // both even
		{0, 1, 1},
		{1, 0, 1},
		{1, 1, 0}, // neither even
	}

	for _, tt := range tests {
		if got := f.Channel(tt.r, tt.c); got != tt.want {
			t.Errorf("Channel(%d,%d): got %d, want %d", tt.r, tt.c, got, tt.want)
		}
	}
}

func TestFilter_IndicesPartition(t *testing.T) {
	shape := geom.Shape{Rows: 5, Cols: 7}
	f := NewFilter(shape)

	seen := make(map[int]int)
	for ch := 0; ch < Channels; ch++ {
		for _, i := range f.Indices(ch) {
			seen[i]++
		}
	}

	if len(seen) != shape.Rows*shape.Cols {
		t.Fatalf("indices cover %d positions, want %d", len(seen), shape.Rows*shape.Cols)
	}
	for i, n := range seen {
		if n != 1 {
			t.Errorf("position %d assigned to %d channels", i, n)
		}
	}

	// 3 even rows x 4 even cols
	if got := len(f.Indices(2)); got != 12 {
		t.Errorf("channel 2 size: got %d, want 12", got)
	}
}

func TestCache_SliceMatchesFresh(t *testing.T) {
	cache := NewCache(0)
	largest := geom.Shape{Rows: 9, Cols: 11}
	cache.Filter(largest)

	for rows := 1; rows <= largest.Rows; rows++ {
		for cols := 1; cols <= largest.Cols; cols++ {
			shape := geom.Shape{Rows: rows, Cols: cols}
			cached := cache.Filter(shape)
			if !cached.Equal(NewFilter(shape)) {
				t.Fatalf("sliced filter for %v differs from fresh computation", shape)
			}
		}
	}
}

func TestCache_ReusesEntries(t *testing.T) {
	cache := NewCache(0)
	shape := geom.Shape{Rows: 4, Cols: 6}

	f1 := cache.Filter(shape)
	f2 := cache.Filter(shape)
	if f1 != f2 {
		t.Error("second lookup did not return the cached filter")
	}
	if cache.Len() != 1 {
		t.Errorf("Len: got %d, want 1", cache.Len())
	}

	cache.Clear()
	if cache.Len() != 0 {
		t.Errorf("Clear did not empty cache: %d entries remain", cache.Len())
	}
}

func TestCache_Limit(t *testing.T) {
	cache := NewCache(2)
	for i := 1; i <= 5; i++ {
		f := cache.Filter(geom.Shape{Rows: i, Cols: i})
		if f.Shape() != (geom.Shape{Rows: i, Cols: i}) {
			t.Fatalf("filter shape: got %v", f.Shape())
		}
	}
	if cache.Len() != 2 {
		t.Errorf("Len: got %d, want 2", cache.Len())
	}
}

func TestCache_ConcurrentAccess(t *testing.T) {
	cache := NewCache(0)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			shape := geom.Shape{Rows: 1 + n%7, Cols: 1 + n%5}
			if !cache.Filter(shape).Equal(NewFilter(shape)) {
				t.Errorf("filter mismatch for %v", shape)
			}
		}(i)
	}
	wg.Wait()
}

func TestSeparate_PicksChannelPerPosition(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			img.Set(x, y, color.RGBA{R: 10, G: 20, B: 30, A: 255})
		}
	}

	data, err := NewCache(0).Separate(img)
	if err != nil {
		t.Fatalf("Separate failed: %v", err)
	}

	want := [2][2]float64{
		{30, 20},
		{20, 10},
	}
	for r := 0; r < 2; r++ {
		for c := 0; c < 2; c++ {
			if got := data.At(r, c); got != want[r][c] {
				t.Errorf("At(%d,%d): got %v, want %v", r, c, got, want[r][c])
			}
		}
	}
}

func TestSeparate_Grayscale(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 3, 2))
	for i := range img.Pix {
		img.Pix[i] = uint8(40 * i)
	}

	data, err := NewCache(0).Separate(img)
	if err != nil {
		t.Fatalf("Separate failed: %v", err)
	}
	if r, c := data.Dims(); r != 2 || c != 3 {
		t.Fatalf("dims: got %dx%d, want 2x3", r, c)
	}
	for r := 0; r < 2; r++ {
		for c := 0; c < 3; c++ {
			if got, want := data.At(r, c), float64(img.GrayAt(c, r).Y); got != want {
				t.Errorf("At(%d,%d): got %v, want %v", r, c, got, want)
			}
		}
	}
}

func TestSeparate_Empty(t *testing.T) {
	_, err := NewCache(0).Separate(image.NewRGBA(image.Rect(0, 0, 0, 0)))
	if !errors.Is(err, ErrEmptyImage) {
		t.Errorf("expected ErrEmptyImage, got %v", err)
	}
}

func TestCompose_ScattersIntoChannels(t *testing.T) {
	cache := NewCache(0)
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}

	out, err := cache.Preview(img)
	if err != nil {
		t.Fatalf("Preview failed: %v", err)
	}

	f := cache.Filter(geom.Shape{Rows: 3, Cols: 4})
	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			px := out.NRGBAAt(x, y)
			var want color.NRGBA
			switch f.Channel(y, x) {
			case 0:
				want = color.NRGBA{R: 200, A: 255}
			case 1:
				want = color.NRGBA{G: 100, A: 255}
			case 2:
				want = color.NRGBA{B: 50, A: 255}
			}
			if px != want {
				t.Errorf("pixel (%d,%d): got %v, want %v", x, y, px, want)
			}
		}
	}
}

func TestToByte(t *testing.T) {
	tests := []struct {
		in   float64
		want uint8
	}{
		{-5, 0},
		{0, 0},
		{127.4, 127},
		{127.6, 128},
		{300, 255},
	}
	for _, tt := range tests {
		if got := toByte(tt.in); got != tt.want {
			t.Errorf("toByte(%v): got %d, want %d", tt.in, got, tt.want)
		}
	}
}

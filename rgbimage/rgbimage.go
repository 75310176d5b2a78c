// Package rgbimage holds 8-bit RGB renders and their on-disk snapshot format.
package rgbimage

import (
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Image is row-major RGB with row 0 at the top.
type Image struct {
	Width, Height int
	Pix           []uint8
}

func New(width, height int) *Image {
	return &Image{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, 3*width*height),
	}
}

func (im *Image) Stride() int {
	return 3 * im.Width
}

func (im *Image) Set(row, col int, r, g, b uint8) {
	idx := row*im.Stride() + 3*col
	im.Pix[idx+0] = r
	im.Pix[idx+1] = g
	im.Pix[idx+2] = b
}

func (im *Image) At(row, col int) (r, g, b uint8) {
	idx := row*im.Stride() + 3*col
	return im.Pix[idx+0], im.Pix[idx+1], im.Pix[idx+2]
}

// Rows returns the rows [src, lim) as an image that shares storage with im.
// Views over disjoint row ranges may be written concurrently.
func (im *Image) Rows(src, lim int) *Image {
	return &Image{
		Width:  im.Width,
		Height: lim - src,
		Pix:    im.Pix[src*im.Stride() : lim*im.Stride() : lim*im.Stride()],
	}
}

// ToRGBA converts to an opaque image.RGBA for the standard encoders.
func (im *Image) ToRGBA() *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, im.Width, im.Height))
	for row := 0; row < im.Height; row++ {
		for col := 0; col < im.Width; col++ {
			r, g, b := im.At(row, col)
			out.SetRGBA(col, row, color.RGBA{R: r, G: g, B: b, A: 0xff})
		}
	}
	return out
}

// SnapshotInfo describes how a snapshot was rendered.
type SnapshotInfo struct {
	Samples int
	Seed    int64
	Scene   string
}

const dataLayoutVersion = 1

// WriteSnapshot writes a little-endian uint64 header length, the header as a
// serialized google.protobuf.Struct, then the zlib-compressed pixels.
func WriteSnapshot(w io.Writer, im *Image, info SnapshotInfo) error {
	hdr, err := structpb.NewStruct(map[string]interface{}{
		"width":               im.Width,
		"height":              im.Height,
		"samples":             info.Samples,
		"seed":                fmt.Sprintf("%d", info.Seed),
		"scene":               info.Scene,
		"data_layout_version": dataLayoutVersion,
	})
	if err != nil {
		return fmt.Errorf("while building header: %w", err)
	}

	hdrBytes, err := proto.Marshal(hdr)
	if err != nil {
		return fmt.Errorf("while marshaling header: %w", err)
	}

	headerLengthBytes := make([]byte, 8)
	binary.LittleEndian.PutUint64(headerLengthBytes, uint64(len(hdrBytes)))
	if _, err := w.Write(headerLengthBytes); err != nil {
		return fmt.Errorf("while writing header length: %w", err)
	}

	if _, err := w.Write(hdrBytes); err != nil {
		return fmt.Errorf("while writing header: %w", err)
	}

	zipWriter := zlib.NewWriter(w)

	if _, err := zipWriter.Write(im.Pix); err != nil {
		return fmt.Errorf("while writing pixels: %w", err)
	}

	if err := zipWriter.Close(); err != nil {
		return fmt.Errorf("while closing zip writer: %w", err)
	}

	return nil
}

// maxHeaderLength bounds the allocation made for a corrupt length prefix.
const maxHeaderLength = 1 << 20

// maxPixels bounds the pixel buffer allocated for a snapshot's dimensions.
const maxPixels = 1 << 28

func ReadSnapshot(in io.Reader) (*Image, SnapshotInfo, error) {
	var headerLength uint64
	if err := binary.Read(in, binary.LittleEndian, &headerLength); err != nil {
		return nil, SnapshotInfo{}, fmt.Errorf("while reading header length: %w", err)
	}
	if headerLength > maxHeaderLength {
		return nil, SnapshotInfo{}, fmt.Errorf("header length %d exceeds limit %d", headerLength, maxHeaderLength)
	}

	headerBytes := make([]byte, int(headerLength))
	if _, err := io.ReadFull(in, headerBytes); err != nil {
		return nil, SnapshotInfo{}, fmt.Errorf("while reading header bytes: %w", err)
	}

	hdr := &structpb.Struct{}
	if err := proto.Unmarshal(headerBytes, hdr); err != nil {
		return nil, SnapshotInfo{}, fmt.Errorf("while unmarshaling header: %w", err)
	}
	fields := hdr.GetFields()

	if v := int(fields["data_layout_version"].GetNumberValue()); v != dataLayoutVersion {
		return nil, SnapshotInfo{}, fmt.Errorf("bad data layout version: %v", v)
	}

	// Checked as floats, before the conversion to int can wrap.
	w := fields["width"].GetNumberValue()
	h := fields["height"].GetNumberValue()
	if !(w >= 0 && h >= 0 && w*h <= maxPixels) {
		return nil, SnapshotInfo{}, fmt.Errorf("bad dimensions %vx%v", w, h)
	}
	width, height := int(w), int(h)

	info := SnapshotInfo{
		Samples: int(fields["samples"].GetNumberValue()),
		Scene:   fields["scene"].GetStringValue(),
	}
	if _, err := fmt.Sscanf(fields["seed"].GetStringValue(), "%d", &info.Seed); err != nil {
		return nil, SnapshotInfo{}, fmt.Errorf("while parsing seed: %w", err)
	}

	zipReader, err := zlib.NewReader(in)
	if err != nil {
		return nil, SnapshotInfo{}, fmt.Errorf("while opening zip reader: %w", err)
	}
	defer zipReader.Close()

	im := New(width, height)
	if _, err := io.ReadFull(zipReader, im.Pix); err != nil {
		return nil, SnapshotInfo{}, fmt.Errorf("while reading pixels: %w", err)
	}

	return im, info, nil
}

func ReadSnapshotFromFile(name string) (*Image, SnapshotInfo, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, SnapshotInfo{}, fmt.Errorf("while opening file: %w", err)
	}
	defer f.Close()

	return ReadSnapshot(f)
}

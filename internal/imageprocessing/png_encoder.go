package imageprocessing

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"image"

	"github.com/klauspost/compress/zlib"
)

// BitDepthForPalette returns the smallest PNG bit depth able to index n colours.
func BitDepthForPalette(n int) (int, error) {
	switch {
	case n <= 0:
		return 0, fmt.Errorf("palette is empty")
	case n <= 2:
		return 1, nil
	case n <= 4:
		return 2, nil
	case n <= 16:
		return 4, nil
	case n <= 256:
		return 8, nil
	default:
		return 0, fmt.Errorf("palette has %d colours, at most 256 can be encoded", n)
	}
}

// EncodeIndexedPNG encodes a paletted image as PNG colour type 3 (indexed)
// with a PLTE chunk and the smallest bit depth that fits the palette, which
// keeps 2- and 4-colour outputs compact for e-ink panels.
func EncodeIndexedPNG(paletted *image.Paletted) ([]byte, error) {
	if paletted == nil {
		return nil, fmt.Errorf("image is nil")
	}

	bounds := paletted.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("image is empty")
	}

	bitDepth, err := BitDepthForPalette(len(paletted.Palette))
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer

	// PNG signature
	buf.Write([]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A})

	writeChunk(&buf, "IHDR", func(data *bytes.Buffer) {
		binary.Write(data, binary.BigEndian, uint32(width))
		binary.Write(data, binary.BigEndian, uint32(height))
		data.WriteByte(uint8(bitDepth))
		data.WriteByte(3) // Color type: indexed
		data.WriteByte(0) // Compression method
		data.WriteByte(0) // Filter method
		data.WriteByte(0) // Interlace method
	})

	writeChunk(&buf, "PLTE", func(data *bytes.Buffer) {
		for _, c := range paletted.Palette {
			r, g, b, _ := c.RGBA()
			data.WriteByte(uint8(r >> 8))
			data.WriteByte(uint8(g >> 8))
			data.WriteByte(uint8(b >> 8))
		}
	})

	imageData, err := packIndexedImageData(paletted, bitDepth)
	if err != nil {
		return nil, fmt.Errorf("failed to pack image data: %w", err)
	}

	compressedData, err := zlibCompress(imageData)
	if err != nil {
		return nil, fmt.Errorf("failed to compress image data: %w", err)
	}

	writeChunk(&buf, "IDAT", func(data *bytes.Buffer) {
		data.Write(compressedData)
	})

	writeChunk(&buf, "IEND", func(data *bytes.Buffer) {})

	return buf.Bytes(), nil
}

// packIndexedImageData packs palette indices MSB-first at bitDepth bits per pixel
func packIndexedImageData(paletted *image.Paletted, bitDepth int) ([]byte, error) {
	bounds := paletted.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	pixelsPerByte := 8 / bitDepth
	bytesPerRow := (width + pixelsPerByte - 1) / pixelsPerByte
	maxIndex := len(paletted.Palette) - 1

	// Filter byte at the start of each row
	data := make([]byte, height*(bytesPerRow+1))

	for y := 0; y < height; y++ {
		rowStart := y * (bytesPerRow + 1)
		data[rowStart] = 0 // Filter type: None

		for x := 0; x < width; x++ {
			index := paletted.ColorIndexAt(bounds.Min.X+x, bounds.Min.Y+y)
			if int(index) > maxIndex {
				return nil, fmt.Errorf("pixel (%d,%d) has index %d outside palette of %d", x, y, index, maxIndex+1)
			}

			byteIndex := rowStart + 1 + x/pixelsPerByte
			bitOffset := (pixelsPerByte - 1 - (x % pixelsPerByte)) * bitDepth

			data[byteIndex] |= index << bitOffset
		}
	}

	return data, nil
}

// writeChunk writes a PNG chunk with proper CRC
func writeChunk(buf *bytes.Buffer, chunkType string, dataWriter func(*bytes.Buffer)) {
	var chunkData bytes.Buffer
	dataWriter(&chunkData)

	data := chunkData.Bytes()

	binary.Write(buf, binary.BigEndian, uint32(len(data)))
	buf.WriteString(chunkType)
	buf.Write(data)

	crc := crc32.NewIEEE()
	crc.Write([]byte(chunkType))
	crc.Write(data)
	binary.Write(buf, binary.BigEndian, crc.Sum32())
}

// zlibCompress compresses data at best compression
func zlibCompress(data []byte) ([]byte, error) {
	var buf bytes.Buffer

	writer, err := zlib.NewWriterLevel(&buf, zlib.BestCompression)
	if err != nil {
		return nil, fmt.Errorf("failed to create zlib writer: %w", err)
	}

	if _, err := writer.Write(data); err != nil {
		writer.Close()
		return nil, fmt.Errorf("failed to write data: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close zlib writer: %w", err)
	}

	return buf.Bytes(), nil
}

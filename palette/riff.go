package palette

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strings"

	"knitchart/raster"

	"golang.org/x/image/riff"
)

/*
typedef struct tagLOGPALETTE {
  WORD         palVersion;
  WORD         palNumEntries;
  PALETTEENTRY palPalEntry[1];
} LOGPALETTE;

typedef struct tagPALETTEENTRY {
  BYTE peRed;
  BYTE peGreen;
  BYTE peBlue;
  BYTE peFlags;
} PALETTEENTRY;
*/

var (
	riffType = riff.FourCC{'R', 'I', 'F', 'F'}
	palType  = riff.FourCC{'P', 'A', 'L', ' '}
	dataType = riff.FourCC{'d', 'a', 't', 'a'}
)

// Named yarn palettes selectable without a PAL file.
var namedPalettes = map[string]Palette{
	"bw": {
		{R: 0x00, G: 0x00, B: 0x00, A: 0xFF},
		{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF},
	},
	"natural": {
		{R: 0x2B, G: 0x22, B: 0x1B, A: 0xFF}, // dark brown
		{R: 0x6E, G: 0x5A, B: 0x41, A: 0xFF}, // walnut
		{R: 0xA8, G: 0x8F, B: 0x6E, A: 0xFF}, // camel
		{R: 0xD9, G: 0xC7, B: 0xA7, A: 0xFF}, // oat
		{R: 0xF2, G: 0xEB, B: 0xDC, A: 0xFF}, // cream
	},
	"wool8": {
		{R: 0x21, G: 0x21, B: 0x21, A: 0xFF}, // charcoal
		{R: 0xF5, G: 0xF0, B: 0xE6, A: 0xFF}, // undyed
		{R: 0x8C, G: 0x1D, B: 0x2F, A: 0xFF}, // madder red
		{R: 0x2E, G: 0x4A, B: 0x6B, A: 0xFF}, // indigo
		{R: 0x4F, G: 0x6B, B: 0x3A, A: 0xFF}, // moss
		{R: 0xC9, G: 0x92, B: 0x2E, A: 0xFF}, // goldenrod
		{R: 0x7A, G: 0x5C, B: 0x8C, A: 0xFF}, // heather
		{R: 0x9B, G: 0x9B, B: 0x93, A: 0xFF}, // slate gray
	},
}

// Load resolves a fixed palette from a built-in yarn palette name or a
// RIFF PAL file path.
func Load(name string) (Palette, error) {
	if pal, ok := namedPalettes[strings.ToLower(name)]; ok {
		out := make(Palette, len(pal))
		copy(out, pal)
		return out, nil
	}

	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("unknown palette %q: %w", name, err)
	}
	defer f.Close()

	return ReadRIFF(f)
}

// ReadRIFF reads a RIFF PAL stream, flattening every data chunk into a
// single palette.
func ReadRIFF(r io.Reader) (Palette, error) {
	formType, rd, err := riff.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("could not open RIFF stream: %w", err)
	} else if formType != palType {
		return nil, fmt.Errorf("unsupported RIFF content type: %s", string(formType[:]))
	}

	var pal Palette
	for chunk := 0; ; chunk++ {
		id, _, data, err := rd.Next()
		if err != nil {
			if err == io.EOF {
				break
			}
			return pal, fmt.Errorf("could not read chunk #%d: %w", chunk, err)
		}
		if id != dataType {
			return pal, fmt.Errorf("unsupported chunk type #%d: %s", chunk, id)
		}

		entries, err := readEntries(data, chunk)
		if err != nil {
			return pal, err
		}
		pal = append(pal, entries...)
	}

	return pal, nil
}

func readEntries(r io.Reader, chunk int) (Palette, error) {
	var head [4]byte
	if _, err := io.ReadFull(r, head[:]); err != nil {
		return nil, fmt.Errorf("could not read palette header from chunk #%d: %w", chunk, err)
	}

	if ver := binary.BigEndian.Uint16(head[:2]); ver != 3 {
		return nil, fmt.Errorf("unsupported palette version in chunk #%d: %d", chunk, ver)
	}

	count := binary.LittleEndian.Uint16(head[2:])
	pal := make(Palette, count)
	var buf [4]byte
	for i := range count {
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return pal, fmt.Errorf("could not read color %d/%d from chunk #%d: %w", i, count, chunk, err)
		}
		pal[i] = raster.Color{R: buf[0], G: buf[1], B: buf[2], A: 0xFF}
	}

	return pal, nil
}

// WriteRIFF writes the palette as a single-chunk RIFF PAL stream, the
// format the Load path accepts back.
func WriteRIFF(w io.Writer, pal Palette) error {
	chunkSize := 4 + len(pal)*4 // palVersion + palNumEntries + 4 bytes/color
	docSize := 4 + 4 + 4 + chunkSize

	if err := writeBytes(w, riffType[:]); err != nil {
		return fmt.Errorf("could not write RIFF magic: %w", err)
	}
	if err := writeBytes(w, binary.LittleEndian.AppendUint32(nil, uint32(docSize))); err != nil {
		return fmt.Errorf("could not write document size: %w", err)
	}
	if err := writeBytes(w, palType[:]); err != nil {
		return fmt.Errorf("could not write content type: %w", err)
	}
	if err := writeBytes(w, dataType[:]); err != nil {
		return fmt.Errorf("could not write chunk type: %w", err)
	}
	if err := writeBytes(w, binary.LittleEndian.AppendUint32(nil, uint32(chunkSize))); err != nil {
		return fmt.Errorf("could not write chunk size: %w", err)
	}
	if err := writeBytes(w, []byte{0, 0x03}); err != nil {
		return fmt.Errorf("could not write palette version: %w", err)
	}
	if err := writeBytes(w, binary.LittleEndian.AppendUint16(nil, uint16(len(pal)))); err != nil {
		return fmt.Errorf("could not write number of colors: %w", err)
	}

	for i, c := range pal {
		if err := writeBytes(w, []byte{c.R, c.G, c.B, 0x00}); err != nil {
			return fmt.Errorf("could not write color %d/%d: %w", i, len(pal), err)
		}
	}

	return nil
}

func writeBytes(w io.Writer, b []byte) error {
	n, err := w.Write(b)
	if err != nil {
		return err
	} else if n != len(b) {
		return fmt.Errorf("wrote only %d/%d bytes", n, len(b))
	}

	return nil
}

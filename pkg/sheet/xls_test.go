package sheet

import (
	"bytes"
	"encoding/binary"
	"testing"
	"unicode/utf16"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	oleSector     = 512
	oleEndOfChain = 0xFFFFFFFE
	oleFreeSect   = 0xFFFFFFFF
	oleFATSect    = 0xFFFFFFFD
	oleCutoff     = 4096
)

// buildXLS writes a single-sheet BIFF8 workbook inside a minimal OLE2
// container. A nil row leaves that sheet row without any record. Cell
// strings must be ASCII.
func buildXLS(t *testing.T, rows [][]string) []byte {
	t.Helper()

	var strs []string
	index := map[string]uint32{}
	for _, row := range rows {
		for _, cell := range row {
			if _, ok := index[cell]; !ok {
				index[cell] = uint32(len(strs))
				strs = append(strs, cell)
			}
		}
	}

	record := func(buf *bytes.Buffer, id uint16, body []byte) {
		require.LessOrEqual(t, len(body), 8224)
		_ = binary.Write(buf, binary.LittleEndian, id)
		_ = binary.Write(buf, binary.LittleEndian, uint16(len(body)))
		buf.Write(body)
	}
	bof := func(kind uint16) []byte {
		body := make([]byte, 16)
		binary.LittleEndian.PutUint16(body[0:], 0x0600)
		binary.LittleEndian.PutUint16(body[2:], kind)
		return body
	}

	sheetName := "Users"
	boundsheet := func(pos uint32) []byte {
		body := make([]byte, 8, 8+len(sheetName))
		binary.LittleEndian.PutUint32(body[0:], pos)
		body[6] = byte(len(sheetName))
		return append(body, sheetName...)
	}

	var sst bytes.Buffer
	_ = binary.Write(&sst, binary.LittleEndian, uint32(len(strs)))
	_ = binary.Write(&sst, binary.LittleEndian, uint32(len(strs)))
	for _, s := range strs {
		require.NotEmpty(t, s)
		_ = binary.Write(&sst, binary.LittleEndian, uint16(len(s)))
		sst.WriteByte(0)
		sst.WriteString(s)
	}

	var globals bytes.Buffer
	record(&globals, 0x0809, bof(0x0005))
	sheetPos := uint32(globals.Len() + 4 + len(boundsheet(0)) + 4 + sst.Len() + 4)
	record(&globals, 0x0085, boundsheet(sheetPos))
	record(&globals, 0x00FC, sst.Bytes())
	record(&globals, 0x000A, nil)
	require.Equal(t, int(sheetPos), globals.Len())

	var ws bytes.Buffer
	record(&ws, 0x0809, bof(0x0010))
	for r, row := range rows {
		if row == nil {
			continue
		}
		info := make([]byte, 16)
		binary.LittleEndian.PutUint16(info[0:], uint16(r))
		binary.LittleEndian.PutUint16(info[4:], uint16(len(row)))
		binary.LittleEndian.PutUint16(info[6:], 0xFF)
		record(&ws, 0x0208, info)
	}
	for r, row := range rows {
		for c, cell := range row {
			body := make([]byte, 10)
			binary.LittleEndian.PutUint16(body[0:], uint16(r))
			binary.LittleEndian.PutUint16(body[2:], uint16(c))
			binary.LittleEndian.PutUint16(body[4:], 0x0F)
			binary.LittleEndian.PutUint32(body[6:], index[cell])
			record(&ws, 0x00FD, body)
		}
	}
	record(&ws, 0x000A, nil)

	stream := append(globals.Bytes(), ws.Bytes()...)
	size := len(stream)
	if size < oleCutoff {
		size = oleCutoff
	}
	size = (size + oleSector - 1) / oleSector * oleSector
	stream = append(stream, make([]byte, size-len(stream))...)
	streamSectors := size / oleSector
	require.LessOrEqual(t, 2+streamSectors, oleSector/4)

	header := make([]byte, oleSector)
	copy(header, oleMagic)
	binary.LittleEndian.PutUint16(header[24:], 0x003E)
	binary.LittleEndian.PutUint16(header[26:], 0x0003)
	binary.LittleEndian.PutUint16(header[28:], 0xFFFE)
	binary.LittleEndian.PutUint16(header[30:], 9)
	binary.LittleEndian.PutUint16(header[32:], 6)
	binary.LittleEndian.PutUint32(header[44:], 1)
	binary.LittleEndian.PutUint32(header[48:], 1)
	binary.LittleEndian.PutUint32(header[56:], oleCutoff)
	binary.LittleEndian.PutUint32(header[60:], oleEndOfChain)
	binary.LittleEndian.PutUint32(header[68:], oleEndOfChain)
	binary.LittleEndian.PutUint32(header[76:], 0)
	for off := 80; off < oleSector; off += 4 {
		binary.LittleEndian.PutUint32(header[off:], oleFreeSect)
	}

	fat := make([]byte, oleSector)
	for i := 0; i < oleSector/4; i++ {
		next := uint32(oleFreeSect)
		switch {
		case i == 0:
			next = oleFATSect
		case i == 1:
			next = oleEndOfChain
		case i >= 2 && i < 1+streamSectors:
			next = uint32(i + 1)
		case i == 1+streamSectors:
			next = oleEndOfChain
		}
		binary.LittleEndian.PutUint32(fat[i*4:], next)
	}

	entry := func(name string, kind byte, child, start, length uint32) []byte {
		e := make([]byte, 128)
		units := utf16.Encode([]rune(name))
		for i, u := range units {
			binary.LittleEndian.PutUint16(e[i*2:], u)
		}
		binary.LittleEndian.PutUint16(e[64:], uint16((len(units)+1)*2))
		e[66] = kind
		e[67] = 1
		binary.LittleEndian.PutUint32(e[68:], oleFreeSect)
		binary.LittleEndian.PutUint32(e[72:], oleFreeSect)
		binary.LittleEndian.PutUint32(e[76:], child)
		binary.LittleEndian.PutUint32(e[116:], start)
		binary.LittleEndian.PutUint32(e[120:], length)
		return e
	}
	dir := make([]byte, 0, oleSector)
	dir = append(dir, entry("Root Entry", 5, 1, oleEndOfChain, 0)...)
	dir = append(dir, entry("Workbook", 2, oleFreeSect, 2, uint32(size))...)
	dir = append(dir, make([]byte, oleSector-len(dir))...)

	out := make([]byte, 0, oleSector*(3+streamSectors))
	out = append(out, header...)
	out = append(out, fat...)
	out = append(out, dir...)
	return append(out, stream...)
}

func TestReadXLS(t *testing.T) {
	data := buildXLS(t, [][]string{
		{"email", "firstName", "lastName"},
		{"ann@example.com", "Ann", "Lee"},
		nil,
		{"bob@example.com", "Bob"},
	})
	require.Equal(t, FormatXLS, Detect(data))

	records, err := Read(data)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, 2, records[0].Line)
	assert.Equal(t, "ann@example.com", records[0].Get("Email"))
	assert.Equal(t, "Lee", records[0].Get("lastName"))
	assert.Equal(t, 4, records[1].Line)
	assert.Equal(t, "Bob", records[1].Get("firstName"))
	assert.Equal(t, "", records[1].Get("lastName"))
}

func TestReadMalformedXLS(t *testing.T) {
	bad := append(append([]byte{}, oleMagic...), make([]byte, oleSector)...)
	_, err := Read(bad)
	assert.Error(t, err)

	_, err = Read(oleMagic)
	assert.Error(t, err)
}

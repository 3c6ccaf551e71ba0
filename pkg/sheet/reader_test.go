package sheet

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestDetect(t *testing.T) {
	assert.Equal(t, FormatXLS, Detect([]byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1, 0x00}))
	assert.Equal(t, FormatXLSX, Detect([]byte("PK\x03\x04rest")))
	assert.Equal(t, FormatCSV, Detect([]byte("email,firstName\n")))
}

func TestReadCSV(t *testing.T) {
	data := []byte("\xef\xbb\xbfemail,firstName,role\nann@example.com,Ann,student\n,,\nbob@example.com,Bob\n")

	records, err := Read(data)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, 2, records[0].Line)
	assert.Equal(t, "ann@example.com", records[0].Get("email"))
	assert.Equal(t, "student", records[0].Get("role"))
	assert.Equal(t, 4, records[1].Line)
	assert.Equal(t, "Bob", records[1].Get("firstName"))
	assert.Equal(t, "", records[1].Get("role"))
}

func TestReadXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheetName := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheetName, "A1", &[]interface{}{"email", "firstName", "lastName"}))
	require.NoError(t, f.SetSheetRow(sheetName, "A2", &[]interface{}{"ann@example.com", "Ann", "Lee"}))
	require.NoError(t, f.SetSheetRow(sheetName, "A3", &[]interface{}{"", "NoEmail", ""}))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	records, err := Read(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Lee", records[0].Get("lastName"))
	assert.Equal(t, "", records[1].Get("email"))
	assert.Equal(t, 3, records[1].Line)
}

func TestReadEmpty(t *testing.T) {
	_, err := Read([]byte("\n\n"))
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestReadMalformedXLSX(t *testing.T) {
	_, err := Read([]byte("PK\x03\x04not-a-zip"))
	assert.Error(t, err)
}

func TestHeadersIgnoreCase(t *testing.T) {
	records, err := Read([]byte("Email, FirstName \nann@example.com,Ann\n"))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "ann@example.com", records[0].Get("email"))
	assert.Equal(t, "Ann", records[0].Get("firstName"))
}

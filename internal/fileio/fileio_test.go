package fileio

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	excelize "github.com/xuri/excelize/v2"
)

func TestSupported(t *testing.T) {
	assert.True(t, Supported("boq.CSV"))
	assert.True(t, Supported("a/b/quote.xlsx"))
	assert.True(t, Supported("old.xls"))
	assert.False(t, Supported("scan.pdf"))
	assert.False(t, Supported("noext"))
}

func TestReadTable_CSV(t *testing.T) {
	src := "Description,Qty,Rate\n" +
		"Cement bag,150,105\n" +
		",,\n" +
		"\"Steel bars, 12mm\",\"1,000\",65\n"

	tab, err := ReadTable(strings.NewReader(src), "boq.csv", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"Description", "Qty", "Rate"}, tab.Headers)
	require.Len(t, tab.Records, 2, "blank rows are dropped")
	assert.Equal(t, Record{"Description": "Cement bag", "Qty": "150", "Rate": "105"}, tab.Records[0])
	assert.Equal(t, "Steel bars, 12mm", tab.Records[1]["Description"])
	assert.Equal(t, "1,000", tab.Records[1]["Qty"])
}

func TestReadTable_HeaderRowAndNames(t *testing.T) {
	src := "Vendor quote,,,\n" +
		"Name,Qty,Name,\n" +
		"a,1,b,x\n" +
		"c,2,d\n"

	tab, err := ReadTable(strings.NewReader(src), "q.csv", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"Name", "Qty", "Name (2)", "Column 4"}, tab.Headers)
	require.Len(t, tab.Records, 2)
	assert.Equal(t, "b", tab.Records[0]["Name (2)"])
	assert.Equal(t, "x", tab.Records[0]["Column 4"])
	assert.Equal(t, "", tab.Records[1]["Column 4"], "short rows are padded")
}

func TestReadTable_Semicolon(t *testing.T) {
	src := "SKU;Description;Unit Price\nCEM-50;Cement;106,25\n"
	tab, err := ReadTable(strings.NewReader(src), "q.csv", 1)
	require.NoError(t, err)
	require.Len(t, tab.Records, 1)
	assert.Equal(t, "106,25", tab.Records[0]["Unit Price"])
}

func TestReadTable_Empty(t *testing.T) {
	tab, err := ReadTable(strings.NewReader(""), "empty.csv", 1)
	require.NoError(t, err)
	assert.Empty(t, tab.Headers)
	assert.Empty(t, tab.Records)
}

func TestReadTable_Unsupported(t *testing.T) {
	_, err := ReadTable(strings.NewReader("x"), "scan.pdf", 1)
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestReadTable_XLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"Description", "Unit", "Qty"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"Ceramic tile 600x600", "sqm", 300}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]any{"Grout", "kg", 25.5}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	tab, err := ReadTable(buf, "boq.xlsx", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"Description", "Unit", "Qty"}, tab.Headers)
	require.Len(t, tab.Records, 2)
	assert.Equal(t, "300", tab.Records[0]["Qty"])
	assert.Equal(t, "25.5", tab.Records[1]["Qty"])
}

func TestDetectDelimiter(t *testing.T) {
	assert.Equal(t, ',', detectDelimiter([]byte("a,b,c\n1;2")))
	assert.Equal(t, ';', detectDelimiter([]byte("a;b;c\n")))
	assert.Equal(t, '\t', detectDelimiter([]byte("a\tb\tc")))
	assert.Equal(t, ',', detectDelimiter(nil))
}

func TestNormalizeCell(t *testing.T) {
	assert.Equal(t, "a b", normalizeCell("\uFEFF\u00A0a\u00A0b\u202F"))
}

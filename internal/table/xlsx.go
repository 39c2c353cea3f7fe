package table

import (
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"
)

// Serial numbers at or above this are Excel dates; smaller numbers are
// plain years.
const minExcelSerial = 10000

// XLSXDecoder reads the first worksheet of an Excel workbook.
type XLSXDecoder struct{}

// Decode implements Decoder.
func (XLSXDecoder) Decode(r io.Reader) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets: %w", ErrEmptyTable)
	}
	records, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}

	header, rest, err := splitHeader(records)
	if err != nil {
		return nil, err
	}
	t, err := fromRecords(header, rest)
	if err != nil {
		return nil, err
	}
	for i := range t.Rows {
		t.Rows[i].Period = serialToDate(t.Rows[i].Period)
	}
	return t, nil
}

// serialToDate renders an Excel serial date as YYYY-MM-DD and returns any
// other value unchanged.
func serialToDate(v string) string {
	n, err := strconv.ParseFloat(v, 64)
	if err != nil || n < minExcelSerial {
		return v
	}
	tm, err := excelize.ExcelDateToTime(n, false)
	if err != nil {
		return v
	}
	return tm.Format("2006-01-02")
}

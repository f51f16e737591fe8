package transfer

import (
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/360EntSecGroup-Skylar/excelize"
	"github.com/pkg/errors"
)

// SheetName is the worksheet written on export and preferred on import.
const SheetName = "Products"

// ReadXLSX reads the Products sheet, or the first sheet when it is absent.
// The first row must be the header.
func ReadXLSX(r io.Reader) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "open xlsx")
	}
	sheet := pickSheet(f.GetSheetMap())
	if sheet == "" {
		return nil, errors.New("xlsx has no worksheet")
	}
	cells := f.GetRows(sheet)
	if len(cells) == 0 {
		return []Row{}, nil
	}
	header := make(map[string]int, len(cells[0]))
	for i, h := range cells[0] {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			header[h] = i
		}
	}
	if _, ok := header["code"]; !ok {
		return nil, errors.New("xlsx header has no code column")
	}
	rows := make([]Row, 0, len(cells)-1)
	for _, line := range cells[1:] {
		rows = append(rows, rowFromValues(header, line))
	}
	return rows, nil
}

func pickSheet(sheets map[int]string) string {
	idx := make([]int, 0, len(sheets))
	for i, name := range sheets {
		if strings.EqualFold(name, SheetName) {
			return name
		}
		idx = append(idx, i)
	}
	if len(idx) == 0 {
		return ""
	}
	sort.Ints(idx)
	return sheets[idx[0]]
}

func WriteXLSX(w io.Writer, rows []Row) error {
	f := excelize.NewFile()
	f.SetSheetName("Sheet1", SheetName)

	header := make([]interface{}, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	f.SetSheetRow(SheetName, "A1", &header)
	for i, r := range rows {
		vals := r.values()
		line := make([]interface{}, len(vals))
		for j, v := range vals {
			line[j] = v
		}
		f.SetSheetRow(SheetName, "A"+strconv.Itoa(i+2), &line)
	}
	return errors.Wrap(f.Write(w), "write xlsx")
}

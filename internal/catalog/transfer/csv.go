package transfer

import (
	"io"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"
)

func ReadCSV(r io.Reader) ([]Row, error) {
	var rows []Row
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, errors.Wrap(err, "parse csv")
	}
	return rows, nil
}

func WriteCSV(w io.Writer, rows []Row) error {
	if rows == nil {
		rows = []Row{}
	}
	return errors.Wrap(gocsv.Marshal(&rows, w), "write csv")
}

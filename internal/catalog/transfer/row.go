// Package transfer moves products in and out of CSV and XLSX files.
package transfer

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/spf13/cast"
	"github.com/vfstudio/vfcatalog/internal/catalog"
	"github.com/vfstudio/vfcatalog/internal/domain"
	"github.com/vfstudio/vfcatalog/pkg/common"
)

// Columns is the header of both file formats.
var Columns = []string{
	"code", "name", "category", "finish", "material",
	"length", "breadth", "height",
	"image", "images", "description", "status", "created_at",
}

// Row is one product as it appears in a file. Every cell stays text until
// ToProduct so bad values can be reported per line.
type Row struct {
	Code        string `csv:"code"`
	Name        string `csv:"name"`
	Category    string `csv:"category"`
	Finish      string `csv:"finish"`
	Material    string `csv:"material"`
	Length      string `csv:"length"`
	Breadth     string `csv:"breadth"`
	Height      string `csv:"height"`
	Image       string `csv:"image"`
	Images      string `csv:"images"`
	Description string `csv:"description"`
	Status      string `csv:"status"`
	CreatedAt   string `csv:"created_at"`
}

func FromProduct(p domain.Product) Row {
	return Row{
		Code:        p.Code,
		Name:        p.Name,
		Category:    p.Category,
		Finish:      p.Finish,
		Material:    p.Material,
		Length:      cast.ToString(p.Length),
		Breadth:     cast.ToString(p.Breadth),
		Height:      cast.ToString(p.Height),
		Image:       p.Image,
		Images:      strings.Join(p.Images, "|"),
		Description: p.Description,
		Status:      p.Status,
		CreatedAt:   p.CreatedAt.Format(time.RFC3339),
	}
}

func (r Row) values() []string {
	return []string{
		r.Code, r.Name, r.Category, r.Finish, r.Material,
		r.Length, r.Breadth, r.Height,
		r.Image, r.Images, r.Description, r.Status, r.CreatedAt,
	}
}

func rowFromValues(header map[string]int, cells []string) Row {
	get := func(col string) string {
		i, ok := header[col]
		if !ok || i >= len(cells) {
			return ""
		}
		return strings.TrimSpace(cells[i])
	}
	return Row{
		Code:        get("code"),
		Name:        get("name"),
		Category:    get("category"),
		Finish:      get("finish"),
		Material:    get("material"),
		Length:      get("length"),
		Breadth:     get("breadth"),
		Height:      get("height"),
		Image:       get("image"),
		Images:      get("images"),
		Description: get("description"),
		Status:      get("status"),
		CreatedAt:   get("created_at"),
	}
}

func (r Row) blank() bool {
	for _, v := range r.values() {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// ToProduct parses and validates the row.
func (r Row) ToProduct() (*domain.Product, error) {
	p := &domain.Product{
		Code:        r.Code,
		Name:        r.Name,
		Category:    r.Category,
		Finish:      r.Finish,
		Material:    r.Material,
		Image:       r.Image,
		Images:      common.SplitList(strings.ReplaceAll(r.Images, ",", "|")),
		Description: strings.TrimSpace(r.Description),
		Status:      r.Status,
	}
	dims := []struct {
		field string
		raw   string
		dst   *float64
	}{
		{"length", r.Length, &p.Length},
		{"breadth", r.Breadth, &p.Breadth},
		{"height", r.Height, &p.Height},
	}
	for _, d := range dims {
		v, err := cast.ToFloat64E(strings.TrimSpace(d.raw))
		if err != nil {
			return nil, &catalog.ValidationError{Field: d.field, Reason: "not a number: " + d.raw}
		}
		*d.dst = v
	}
	if ts := strings.TrimSpace(r.CreatedAt); ts != "" {
		t, err := dateparse.ParseAny(ts)
		if err != nil {
			return nil, &catalog.ValidationError{Field: "created_at", Reason: "unrecognised date " + ts}
		}
		p.CreatedAt = t
	}
	if err := catalog.Prepare(p); err != nil {
		return nil, err
	}
	return p, nil
}

package catalog

import (
	"strings"

	"github.com/vfstudio/vfcatalog/internal/domain"
)

type SortKey string

const (
	SortName     SortKey = "name"
	SortCode     SortKey = "code"
	SortCategory SortKey = "category"
	SortNewest   SortKey = "newest"
)

// ParseSort maps unknown or empty keys to SortName.
func ParseSort(s string) SortKey {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case SortName, SortCode, SortCategory, SortNewest:
		return k
	}
	return SortName
}

// Less orders by the key, breaking ties by ascending id.
func (k SortKey) Less(a, b *domain.Product) bool {
	switch k {
	case SortCode:
		if a.Code != b.Code {
			return a.Code < b.Code
		}
	case SortCategory:
		if a.Category != b.Category {
			return a.Category < b.Category
		}
	case SortNewest:
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
	default:
		if a.Name != b.Name {
			return a.Name < b.Name
		}
	}
	return a.ID < b.ID
}

// orderBy returns the SQL ordering. collate is appended to text columns so
// the database compares bytes like Less does.
func (k SortKey) orderBy(collate string) string {
	switch k {
	case SortCode:
		return "code" + collate + " ASC, id ASC"
	case SortCategory:
		return "category" + collate + " ASC, id ASC"
	case SortNewest:
		return "created_at DESC, id ASC"
	}
	return "name" + collate + " ASC, id ASC"
}

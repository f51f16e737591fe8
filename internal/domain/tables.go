package domain

var Tables = []interface{}{
	// System
	&User{},
	&SysOprLog{},
	// Catalog
	&Product{},
	&WishlistItem{},
	&Feedback{},
}

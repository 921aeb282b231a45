package market

import "time"

type User struct {
	ID          string
	Username    string
	Email       string
	NamaLengkap string
	Bio         string
	AvatarURL   string
	CreatedAt   time.Time
}

type Warung struct {
	ID        string
	Nama      string
	Deskripsi string
	PemilikID string
	CreatedAt time.Time
}

type Product struct {
	ID         string
	WarungID   string
	Nama       string
	Deskripsi  string
	HargaCents int64
	Stok       int
	GambarURL  string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// CartLine is one pending (user, product, qty) selection. Unique per
// (user, product); re-adding increments Jumlah.
type CartLine struct {
	ID        string
	UserID    string
	ProdukID  string
	Jumlah    int
	CreatedAt time.Time
}

// Order is immutable after creation except for Status. One order belongs to
// exactly one warung; a cart spanning warungs is split at checkout.
type Order struct {
	ID               string
	UserID           string
	WarungID         string
	Tanggal          time.Time
	Status           Status
	AlamatPengiriman string
	TotalCents       int64
}

// OrderItem freezes the unit price at order time; later catalog price
// changes never touch it.
type OrderItem struct {
	ID               int64
	OrderID          string
	ProdukID         string
	Jumlah           int
	HargaSatuanCents int64
}

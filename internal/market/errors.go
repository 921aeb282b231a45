package market

import "errors"

var (
	ErrEmptyCart         = errors.New("keranjang kosong")
	ErrMissingAddress    = errors.New("alamat pengiriman tidak boleh kosong")
	ErrInvalidQty        = errors.New("jumlah tidak valid")
	ErrProductNotFound   = errors.New("produk tidak ditemukan")
	ErrWarungNotFound    = errors.New("warung tidak ditemukan")
	ErrOrderNotFound     = errors.New("pesanan tidak ditemukan")
	ErrUserNotFound      = errors.New("user tidak ditemukan")
	ErrInsufficientStock = errors.New("stok tidak mencukupi")
	ErrProductMismatch   = errors.New("produk bukan milik warung ini")
	ErrPriceMismatch     = errors.New("harga produk tidak sesuai")
	ErrTotalMismatch     = errors.New("total harga tidak sesuai")
	ErrInvalidStatus     = errors.New("status tidak valid")
	ErrUnauthorized      = errors.New("bukan pemilik")
)

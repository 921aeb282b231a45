package market

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repo is the catalog store: users, warungs, products.
type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) GetUser(ctx context.Context, id string) (User, error) {
	var u User
	err := r.DB.QueryRow(ctx, `
		SELECT id, username, email, COALESCE(nama_lengkap,''), COALESCE(bio,''), COALESCE(avatar_url,''), created_at
		FROM users WHERE id=$1`, id).
		Scan(&u.ID, &u.Username, &u.Email, &u.NamaLengkap, &u.Bio, &u.AvatarURL, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	return u, err
}

func (r *Repo) UpdateUser(ctx context.Context, u User) error {
	ct, err := r.DB.Exec(ctx, `
		UPDATE users SET username=$2, nama_lengkap=$3, bio=$4, avatar_url=$5 WHERE id=$1`,
		u.ID, u.Username, u.NamaLengkap, u.Bio, u.AvatarURL)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return ErrUserNotFound
	}
	return nil
}

func (r *Repo) CreateWarung(ctx context.Context, w *Warung) error {
	w.ID = uuid.NewString()
	return r.DB.QueryRow(ctx, `
		INSERT INTO warungs(id, nama, deskripsi, pemilik_id)
		VALUES ($1,$2,$3,$4)
		RETURNING created_at`,
		w.ID, w.Nama, w.Deskripsi, w.PemilikID).Scan(&w.CreatedAt)
}

func (r *Repo) GetWarung(ctx context.Context, id string) (Warung, error) {
	var w Warung
	err := r.DB.QueryRow(ctx, `
		SELECT id, nama, COALESCE(deskripsi,''), pemilik_id, created_at
		FROM warungs WHERE id=$1`, id).
		Scan(&w.ID, &w.Nama, &w.Deskripsi, &w.PemilikID, &w.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Warung{}, ErrWarungNotFound
	}
	return w, err
}

// WarungListing adds the owner's username for public listing responses.
type WarungListing struct {
	Warung
	PemilikUsername string
}

func (r *Repo) ListWarung(ctx context.Context) ([]WarungListing, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT w.id, w.nama, COALESCE(w.deskripsi,''), w.pemilik_id, w.created_at, u.username
		FROM warungs w JOIN users u ON u.id = w.pemilik_id
		ORDER BY w.nama`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []WarungListing
	for rows.Next() {
		var w WarungListing
		if err := rows.Scan(&w.ID, &w.Nama, &w.Deskripsi, &w.PemilikID, &w.CreatedAt, &w.PemilikUsername); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (r *Repo) ListWarungByOwner(ctx context.Context, ownerID string) ([]Warung, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, nama, COALESCE(deskripsi,''), pemilik_id, created_at
		FROM warungs WHERE pemilik_id=$1 ORDER BY nama`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Warung
	for rows.Next() {
		var w Warung
		if err := rows.Scan(&w.ID, &w.Nama, &w.Deskripsi, &w.PemilikID, &w.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (r *Repo) UpdateWarung(ctx context.Context, w Warung) error {
	ct, err := r.DB.Exec(ctx, `UPDATE warungs SET nama=$2, deskripsi=$3 WHERE id=$1`,
		w.ID, w.Nama, w.Deskripsi)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return ErrWarungNotFound
	}
	return nil
}

// DeleteWarung removes a warung and all its products in one transaction.
func (r *Repo) DeleteWarung(ctx context.Context, id string) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM products WHERE warung_id=$1`, id); err != nil {
		return err
	}
	ct, err := tx.Exec(ctx, `DELETE FROM warungs WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return ErrWarungNotFound
	}
	return tx.Commit(ctx)
}

func (r *Repo) CreateProduct(ctx context.Context, p *Product) error {
	p.ID = uuid.NewString()
	return r.DB.QueryRow(ctx, `
		INSERT INTO products(id, warung_id, nama, deskripsi, harga_cents, stok, gambar_url)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at, updated_at`,
		p.ID, p.WarungID, p.Nama, p.Deskripsi, p.HargaCents, p.Stok, p.GambarURL).
		Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (r *Repo) GetProduct(ctx context.Context, id string) (Product, error) {
	var p Product
	err := r.DB.QueryRow(ctx, `
		SELECT id, warung_id, nama, COALESCE(deskripsi,''), harga_cents, stok, COALESCE(gambar_url,''), created_at, updated_at
		FROM products WHERE id=$1`, id).
		Scan(&p.ID, &p.WarungID, &p.Nama, &p.Deskripsi, &p.HargaCents, &p.Stok, &p.GambarURL, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrProductNotFound
	}
	return p, err
}

func (r *Repo) ListProductsByWarung(ctx context.Context, warungID string) ([]Product, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, warung_id, nama, COALESCE(deskripsi,''), harga_cents, stok, COALESCE(gambar_url,''), created_at, updated_at
		FROM products WHERE warung_id=$1 ORDER BY nama`, warungID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.WarungID, &p.Nama, &p.Deskripsi, &p.HargaCents, &p.Stok, &p.GambarURL, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repo) UpdateProduct(ctx context.Context, p Product) error {
	ct, err := r.DB.Exec(ctx, `
		UPDATE products
		SET nama=$2, deskripsi=$3, harga_cents=$4, stok=$5, gambar_url=$6, updated_at=now()
		WHERE id=$1`,
		p.ID, p.Nama, p.Deskripsi, p.HargaCents, p.Stok, p.GambarURL)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return ErrProductNotFound
	}
	return nil
}

func (r *Repo) DeleteProduct(ctx context.Context, id string) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM products WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return ErrProductNotFound
	}
	return nil
}

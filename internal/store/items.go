package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/erazemk/poshledger/internal/model"
)

// ErrNotFound is returned when a row to change does not exist.
var ErrNotFound = errors.New("not found")

const itemColumns = `id, owner_id, item_name, quantity, original_price, sold_price, poshmark_fee,
	profit, purchase_date, store, return_by, image_url, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner, item *model.Item) error {
	return row.Scan(&item.ID, &item.OwnerID, &item.Name, &item.Quantity,
		&item.OriginalPrice, &item.SoldPrice, &item.PoshmarkFee, &item.Profit,
		&item.PurchaseDate, &item.Store, &item.ReturnBy, &item.ImageURL,
		&item.CreatedAt, &item.UpdatedAt)
}

// CreateItem inserts a new item and returns it as stored.
func CreateItem(ctx context.Context, db *sql.DB, item *model.Item) (*model.Item, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO items (owner_id, item_name, quantity, original_price, sold_price,
		                    poshmark_fee, profit, purchase_date, store, return_by, image_url)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.OwnerID, item.Name, item.Quantity, item.OriginalPrice, item.SoldPrice,
		item.PoshmarkFee, item.Profit, item.PurchaseDate, item.Store, item.ReturnBy, item.ImageURL,
	)
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting item id: %w", err)
	}

	return GetItem(ctx, db, item.OwnerID, id)
}

// GetItem returns an owner's item by ID, or nil if there is none.
func GetItem(ctx context.Context, db *sql.DB, ownerID, id int64) (*model.Item, error) {
	item := &model.Item{}
	err := scanItem(db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = ? AND owner_id = ?`, id, ownerID,
	), item)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// ListItems returns all items of an owner in the given order.
func ListItems(ctx context.Context, db *sql.DB, ownerID int64, sort Sort) ([]model.Item, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE owner_id = ? `+sort.orderBy(), ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		var item model.Item
		if err := scanItem(rows, &item); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// UpdateItem replaces every editable column of an item.
func UpdateItem(ctx context.Context, db *sql.DB, item *model.Item) error {
	result, err := db.ExecContext(ctx,
		`UPDATE items SET item_name = ?, quantity = ?, original_price = ?, sold_price = ?,
		        poshmark_fee = ?, profit = ?, purchase_date = ?, store = ?, return_by = ?,
		        image_url = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND owner_id = ?`,
		item.Name, item.Quantity, item.OriginalPrice, item.SoldPrice,
		item.PoshmarkFee, item.Profit, item.PurchaseDate, item.Store, item.ReturnBy,
		item.ImageURL, item.ID, item.OwnerID,
	)
	if err != nil {
		return fmt.Errorf("updating item: %w", err)
	}
	return expectOneRow(result, "updating item")
}

// DeleteItem removes an item.
func DeleteItem(ctx context.Context, db *sql.DB, ownerID, id int64) error {
	result, err := db.ExecContext(ctx,
		`DELETE FROM items WHERE id = ? AND owner_id = ?`, id, ownerID,
	)
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}
	return expectOneRow(result, "deleting item")
}

// ItemInserter returns a function that stores imported items.
func ItemInserter(db *sql.DB) func(ctx context.Context, item *model.Item) error {
	return func(ctx context.Context, item *model.Item) error {
		_, err := CreateItem(ctx, db, item)
		return err
	}
}

// ImageRefCount returns how many items, of any owner, reference the image.
func ImageRefCount(ctx context.Context, db *sql.DB, ref string) (int, error) {
	var n int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items WHERE image_url = ?`, ref).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting image references: %w", err)
	}
	return n, nil
}

// ImageInUse returns a check reporting whether any item still references
// an image. Imports can copy a reference, so one file may back many items.
func ImageInUse(db *sql.DB) func(ctx context.Context, ref string) (bool, error) {
	return func(ctx context.Context, ref string) (bool, error) {
		n, err := ImageRefCount(ctx, db, ref)
		return n > 0, err
	}
}

func expectOneRow(result sql.Result, op string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}

package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"snapstream/internal/logging"
	"snapstream/internal/media"
	"snapstream/internal/store"
)

// ListItems returns items visible to ownerID, newest first. Admins see
// everything.
func (d *Database) ListItems(ctx context.Context, ownerID string, isAdmin bool) ([]media.Item, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("list_items", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	queryCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := `SELECT id, owner_id, name, type, profile, size, upload_date, status,
		COALESCE(url, ''), COALESCE(thumbnail_url, ''), analysis_results
		FROM media_items`
	args := []interface{}{}
	if !isAdmin {
		query += " WHERE owner_id = ?"
		args = append(args, ownerID)
	}
	query += " ORDER BY upload_date DESC, created_at DESC"

	rows, err := d.db.QueryContext(queryCtx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list media items: %w", err)
	}
	defer rows.Close()

	items := []media.Item{}
	for rows.Next() {
		var item media.Item
		var analysisJSON sql.NullString
		if err = rows.Scan(&item.ID, &item.OwnerID, &item.Name, &item.Type, &item.Profile,
			&item.Size, &item.UploadDate, &item.Status, &item.URL, &item.ThumbnailURL,
			&analysisJSON); err != nil {
			return nil, fmt.Errorf("failed to scan media item: %w", err)
		}
		if analysisJSON.Valid && analysisJSON.String != "" {
			var result media.AnalysisResult
			if jsonErr := json.Unmarshal([]byte(analysisJSON.String), &result); jsonErr != nil {
				logging.Warn("Corrupt analysis results for item %s: %v", item.ID, jsonErr)
			} else {
				item.Analysis = &result
			}
		}
		items = append(items, item)
	}
	err = rows.Err()
	if err != nil {
		return nil, err
	}
	return items, nil
}

// CreateItem inserts a new media record.
func (d *Database) CreateItem(ctx context.Context, item media.Item) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("create_item", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	execCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var analysisJSON interface{}
	if item.Analysis != nil {
		data, jsonErr := json.Marshal(item.Analysis)
		if jsonErr != nil {
			err = fmt.Errorf("failed to encode analysis results: %w", jsonErr)
			return err
		}
		analysisJSON = string(data)
	}

	_, err = d.db.ExecContext(execCtx,
		`INSERT INTO media_items (id, owner_id, name, type, profile, size, upload_date, status, url, thumbnail_url, analysis_results)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.OwnerID, item.Name, item.Type, item.Profile, item.Size,
		item.UploadDate, item.Status, item.URL, item.ThumbnailURL, analysisJSON,
	)
	if err != nil {
		if isUniqueViolation(err) {
			err = store.ErrConflict
			return err
		}
		err = fmt.Errorf("failed to create media item: %w", err)
		return err
	}
	return nil
}

// UpdateAnalysis stores the analysis result and marks the item
// completed.
func (d *Database) UpdateAnalysis(ctx context.Context, id string, result *media.AnalysisResult) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("update_analysis", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	execCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode analysis results: %w", err)
	}

	res, err := d.db.ExecContext(execCtx,
		"UPDATE media_items SET analysis_results = ?, status = ? WHERE id = ?",
		string(data), media.StatusCompleted, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update analysis results: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		err = store.ErrNotFound
		return err
	}
	return nil
}

// DeleteItem removes a media record.
func (d *Database) DeleteItem(ctx context.Context, id string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("delete_item", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	execCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := d.db.ExecContext(execCtx, "DELETE FROM media_items WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete media item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		err = store.ErrNotFound
		return err
	}
	return nil
}

// GetItem returns a single media record by id.
func (d *Database) GetItem(ctx context.Context, id string) (*media.Item, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_item", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	queryCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var item media.Item
	var analysisJSON sql.NullString
	err = d.db.QueryRowContext(queryCtx,
		`SELECT id, owner_id, name, type, profile, size, upload_date, status,
		COALESCE(url, ''), COALESCE(thumbnail_url, ''), analysis_results
		FROM media_items WHERE id = ?`, id,
	).Scan(&item.ID, &item.OwnerID, &item.Name, &item.Type, &item.Profile,
		&item.Size, &item.UploadDate, &item.Status, &item.URL, &item.ThumbnailURL,
		&analysisJSON)
	if err == sql.ErrNoRows {
		err = store.ErrNotFound
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get media item: %w", err)
	}
	if analysisJSON.Valid && analysisJSON.String != "" {
		var result media.AnalysisResult
		if jsonErr := json.Unmarshal([]byte(analysisJSON.String), &result); jsonErr == nil {
			item.Analysis = &result
		}
	}
	return &item, nil
}

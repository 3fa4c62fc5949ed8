package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/tunesmith/internal/models"
	"github.com/desertthunder/tunesmith/internal/providers"
	"github.com/desertthunder/tunesmith/internal/shared"
)

// ListArtists returns every artist, ordered by name for deterministic
// enumeration.
func (s *Store) ListArtists(ctx context.Context) ([]models.Artist, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, image_url, updated_at FROM artists ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list artists: %w", err)
	}
	defer rows.Close()

	var artists []models.Artist
	for rows.Next() {
		var artist models.Artist
		var updatedAt sql.NullTime
		if err := rows.Scan(&artist.ID, &artist.Name, &artist.Description, &artist.ImageURL, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan artist: %w", err)
		}
		if updatedAt.Valid {
			artist.UpdatedAt = updatedAt.Time
		}
		artists = append(artists, artist)
	}
	return artists, rows.Err()
}

// GetArtist retrieves one artist by id.
func (s *Store) GetArtist(ctx context.Context, id string) (*models.Artist, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, image_url, updated_at FROM artists WHERE id = ?`, id)

	var artist models.Artist
	var updatedAt sql.NullTime
	err := row.Scan(&artist.ID, &artist.Name, &artist.Description, &artist.ImageURL, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: artist %s", shared.ErrInvalidArgument, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load artist: %w", err)
	}
	if updatedAt.Valid {
		artist.UpdatedAt = updatedAt.Time
	}
	return &artist, nil
}

// CreateArtist inserts an artist with a fresh id.
func (s *Store) CreateArtist(ctx context.Context, name string) (*models.Artist, error) {
	artist := models.Artist{ID: shared.GenerateID(), Name: name}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO artists (id, name) VALUES (?, ?)`, artist.ID, artist.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to create artist: %w", err)
	}
	return &artist, nil
}

// UpdateArtistDescription stores a fetched biography.
func (s *Store) UpdateArtistDescription(ctx context.Context, id, description string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE artists SET description = ?, updated_at = ? WHERE id = ?`,
		description, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update artist description: %w", err)
	}
	return nil
}

// UpdateArtistImage stores a fetched image URL.
func (s *Store) UpdateArtistImage(ctx context.Context, id, imageURL string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE artists SET image_url = ?, updated_at = ? WHERE id = ?`,
		imageURL, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update artist image: %w", err)
	}
	return nil
}

// SaveScrobbles inserts listen history in one transaction, ignoring rows
// already recorded.
func (s *Store) SaveScrobbles(ctx context.Context, scrobbles []providers.Scrobble) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, scrobble := range scrobbles {
			_, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO scrobbles (id, track, artist, album, listened_at) VALUES (?, ?, ?, ?, ?)`,
				shared.GenerateID(), scrobble.Track, scrobble.Artist, scrobble.Album, scrobble.ListenedAt)
			if err != nil {
				return fmt.Errorf("failed to insert scrobble: %w", err)
			}
		}
		return nil
	})
}

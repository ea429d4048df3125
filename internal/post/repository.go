package post

import (
	"context"
	"errors"
	"fmt"

	"github.com/maiimostafaa/voyager-sub001/internal/db"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const postColumns = `id, author_id, location_name, latitude, longitude, notes, created_at, updated_at`

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

type Repository struct {
	db db.Querier
}

func NewRepository(db db.Querier) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Get(ctx context.Context, id string) (Post, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+postColumns+`
		FROM posts WHERE id=$1
	`, id)
	p, err := scanPost(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Post{}, ErrNotFound
	}
	return p, err
}

// PostsByAuthors returns every post written by authorIDs, newest first. The
// result is unbounded.
func (r *Repository) PostsByAuthors(ctx context.Context, authorIDs []string) ([]Post, error) {
	if len(authorIDs) == 0 {
		return []Post{}, nil
	}
	return r.queryPosts(ctx, `
		SELECT `+postColumns+`
		FROM posts WHERE author_id = ANY($1)
		ORDER BY created_at DESC
	`, authorIDs)
}

func (r *Repository) PostsByUser(ctx context.Context, userID string) ([]Post, error) {
	return r.queryPosts(ctx, `
		SELECT `+postColumns+`
		FROM posts WHERE author_id=$1
		ORDER BY created_at DESC
	`, userID)
}

// SavedPosts returns the posts userID saved, most recently saved first.
func (r *Repository) SavedPosts(ctx context.Context, userID string) ([]Post, error) {
	return r.queryPosts(ctx, `
		SELECT p.id, p.author_id, p.location_name, p.latitude, p.longitude, p.notes, p.created_at, p.updated_at
		FROM posts p
		JOIN post_saves s ON s.post_id = p.id
		WHERE s.user_id=$1
		ORDER BY s.created_at DESC
	`, userID)
}

func (r *Repository) Tags(ctx context.Context, postIDs []string) ([]Tag, error) {
	if len(postIDs) == 0 {
		return nil, nil
	}
	rows, err := r.db.Query(ctx, `
		SELECT post_id, tag_name
		FROM post_tags WHERE post_id = ANY($1)
	`, postIDs)
	if err != nil {
		return nil, fmt.Errorf("query tags: %w", err)
	}
	defer rows.Close()

	var tags []Tag
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.PostID, &t.Name); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

func (r *Repository) Images(ctx context.Context, postIDs []string) ([]Image, error) {
	if len(postIDs) == 0 {
		return nil, nil
	}
	rows, err := r.db.Query(ctx, `
		SELECT post_id, image_url, created_at
		FROM post_images WHERE post_id = ANY($1)
		ORDER BY created_at
	`, postIDs)
	if err != nil {
		return nil, fmt.Errorf("query images: %w", err)
	}
	defer rows.Close()

	var images []Image
	for rows.Next() {
		var img Image
		if err := rows.Scan(&img.PostID, &img.URL, &img.CreatedAt); err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

// LikesBy returns userID's likes restricted to postIDs.
func (r *Repository) LikesBy(ctx context.Context, userID string, postIDs []string) ([]Reaction, error) {
	return r.reactionsBy(ctx, "post_likes", userID, postIDs)
}

// SavesBy returns userID's saves restricted to postIDs.
func (r *Repository) SavesBy(ctx context.Context, userID string, postIDs []string) ([]Reaction, error) {
	return r.reactionsBy(ctx, "post_saves", userID, postIDs)
}

func (r *Repository) LikeCounts(ctx context.Context, postIDs []string) ([]LikeCount, error) {
	if len(postIDs) == 0 {
		return nil, nil
	}
	rows, err := r.db.Query(ctx, `
		SELECT post_id, COUNT(*)
		FROM post_likes WHERE post_id = ANY($1)
		GROUP BY post_id
	`, postIDs)
	if err != nil {
		return nil, fmt.Errorf("query like counts: %w", err)
	}
	defer rows.Close()

	var counts []LikeCount
	for rows.Next() {
		var c LikeCount
		if err := rows.Scan(&c.PostID, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

func (r *Repository) Like(ctx context.Context, postID, userID string) error {
	return r.insertReaction(ctx, `
		INSERT INTO post_likes (post_id, user_id)
		VALUES ($1,$2)
		ON CONFLICT (post_id, user_id) DO NOTHING
	`, postID, userID)
}

func (r *Repository) Unlike(ctx context.Context, postID, userID string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM post_likes WHERE post_id=$1 AND user_id=$2`, postID, userID)
	return err
}

func (r *Repository) Save(ctx context.Context, postID, userID string) error {
	return r.insertReaction(ctx, `
		INSERT INTO post_saves (post_id, user_id)
		VALUES ($1,$2)
		ON CONFLICT (post_id, user_id) DO NOTHING
	`, postID, userID)
}

func (r *Repository) Unsave(ctx context.Context, postID, userID string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM post_saves WHERE post_id=$1 AND user_id=$2`, postID, userID)
	return err
}

// Insert writes the post and its tags in one transaction.
func (r *Repository) Insert(ctx context.Context, p *Post, tags []string) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			INSERT INTO posts (id, author_id, location_name, latitude, longitude, notes)
			VALUES ($1,$2,$3,$4,$5,$6)
			RETURNING created_at, updated_at
		`, p.ID, p.AuthorID, p.LocationName, p.Latitude, p.Longitude, p.Notes)
		if err := row.Scan(&p.CreatedAt, &p.UpdatedAt); err != nil {
			return fmt.Errorf("insert post: %w", err)
		}
		return insertTags(ctx, tx, p.ID, tags)
	})
}

// Update rewrites the mutable columns and, when tags is non-nil, replaces the
// tag set.
func (r *Repository) Update(ctx context.Context, p *Post, tags []string) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			UPDATE posts
			SET location_name=$2, latitude=$3, longitude=$4, notes=$5, updated_at=now()
			WHERE id=$1
			RETURNING updated_at
		`, p.ID, p.LocationName, p.Latitude, p.Longitude, p.Notes)
		if err := row.Scan(&p.UpdatedAt); err != nil {
			return fmt.Errorf("update post: %w", err)
		}
		if tags == nil {
			return nil
		}
		if _, err := tx.Exec(ctx, `DELETE FROM post_tags WHERE post_id=$1`, p.ID); err != nil {
			return fmt.Errorf("clear tags: %w", err)
		}
		return insertTags(ctx, tx, p.ID, tags)
	})
}

func (r *Repository) Delete(ctx context.Context, id, authorID string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM posts WHERE id=$1 AND author_id=$2`, id, authorID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) InsertImage(ctx context.Context, postID, url string) (Image, error) {
	img := Image{PostID: postID, URL: url}
	row := r.db.QueryRow(ctx, `
		INSERT INTO post_images (post_id, image_url)
		VALUES ($1,$2)
		RETURNING created_at
	`, postID, url)
	if err := row.Scan(&img.CreatedAt); err != nil {
		return Image{}, err
	}
	return img, nil
}

func (r *Repository) reactionsBy(ctx context.Context, table, userID string, postIDs []string) ([]Reaction, error) {
	if len(postIDs) == 0 {
		return nil, nil
	}
	rows, err := r.db.Query(ctx, `
		SELECT post_id, user_id, created_at
		FROM `+table+` WHERE user_id=$1 AND post_id = ANY($2)
	`, userID, postIDs)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	var out []Reaction
	for rows.Next() {
		var re Reaction
		if err := rows.Scan(&re.PostID, &re.UserID, &re.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, re)
	}
	return out, rows.Err()
}

// insertReaction treats an existing (post, user) row as success.
func (r *Repository) insertReaction(ctx context.Context, sql, postID, userID string) error {
	_, err := r.db.Exec(ctx, sql, postID, userID)
	switch {
	case hasCode(err, uniqueViolation):
		return nil
	case hasCode(err, foreignKeyViolation):
		return ErrNotFound
	}
	return err
}

func (r *Repository) queryPosts(ctx context.Context, sql string, args ...any) ([]Post, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	posts := []Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

func (r *Repository) inTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

func insertTags(ctx context.Context, tx pgx.Tx, postID string, tags []string) error {
	for _, tag := range tags {
		if _, err := tx.Exec(ctx, `
			INSERT INTO post_tags (post_id, tag_name)
			VALUES ($1,$2)
			ON CONFLICT DO NOTHING
		`, postID, tag); err != nil {
			return fmt.Errorf("insert tag %q: %w", tag, err)
		}
	}
	return nil
}

func scanPost(row pgx.Row) (Post, error) {
	var p Post
	err := row.Scan(&p.ID, &p.AuthorID, &p.LocationName, &p.Latitude, &p.Longitude, &p.Notes, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func hasCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

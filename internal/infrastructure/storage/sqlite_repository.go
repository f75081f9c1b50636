package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"

	"FeedbackAnalyzer/internal/domain"
	"FeedbackAnalyzer/internal/ports"
)

// SQLiteRepository persists the feedback aggregate and its pipeline
// children. Child rows carry a unique feedback_id and are upserted, so a
// reprocessed item replaces its children instead of duplicating them.
type SQLiteRepository struct {
	db *sql.DB
}

var _ ports.FeedbackRepository = (*SQLiteRepository)(nil)

// Open creates the SQLite handle. One worker plus the request handlers
// share it; busy_timeout covers the brief write overlaps.
func Open(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=on", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	return db, nil
}

// NewSQLiteRepository wires a sql.DB implementation.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Init creates the tables when they do not exist yet.
func (r *SQLiteRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// CreateFeedback inserts the submission row in its initial state.
func (r *SQLiteRepository) CreateFeedback(ctx context.Context, item *domain.FeedbackItem) error {
	query, args, err := sq.Insert("feedback").
		Columns("id", "text", "category", "processing_status", "created_at", "updated_at").
		Values(item.ID, item.Text, item.Category, item.ProcessingStatus, item.CreatedAt, item.UpdatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert feedback: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert feedback: %w", err)
	}
	return nil
}

// GetFeedback loads one item hydrated with whichever children exist.
func (r *SQLiteRepository) GetFeedback(ctx context.Context, id string) (*domain.FeedbackItem, error) {
	query, args, err := sq.Select("id", "text", "category", "processing_status", "created_at", "updated_at").
		From("feedback").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select feedback: %w", err)
	}

	item := &domain.FeedbackItem{}
	row := r.db.QueryRowContext(ctx, query, args...)
	err = row.Scan(&item.ID, &item.Text, &item.Category, &item.ProcessingStatus, &item.CreatedAt, &item.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ports.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan feedback: %w", err)
	}

	if err := r.hydrate(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// ListFeedback returns one page ordered newest first plus the total count.
func (r *SQLiteRepository) ListFeedback(ctx context.Context, q ports.ListQuery) ([]*domain.FeedbackItem, int, error) {
	base := sq.Select("id", "text", "category", "processing_status", "created_at", "updated_at").
		From("feedback")
	countQ := sq.Select("COUNT(*)").From("feedback")

	if q.Category != "" {
		base = base.Where(sq.Eq{"category": q.Category})
		countQ = countQ.Where(sq.Eq{"category": q.Category})
	}

	query, args, err := countQ.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count feedback: %w", err)
	}
	var total int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count feedback: %w", err)
	}

	offset := (q.Page - 1) * q.PerPage
	query, args, err = base.
		OrderBy("created_at DESC").
		Limit(uint64(q.PerPage)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list feedback: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list feedback: %w", err)
	}
	defer rows.Close()

	var items []*domain.FeedbackItem
	for rows.Next() {
		item := &domain.FeedbackItem{}
		if err := rows.Scan(&item.ID, &item.Text, &item.Category, &item.ProcessingStatus,
			&item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan feedback row: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows iteration: %w", err)
	}

	for _, item := range items {
		if err := r.hydrate(ctx, item); err != nil {
			return nil, 0, err
		}
	}
	return items, total, nil
}

// UpdateStatus commits a status transition.
func (r *SQLiteRepository) UpdateStatus(ctx context.Context, id string, status domain.ProcessingStatus) error {
	query, args, err := sq.Update("feedback").
		Set("processing_status", status).
		Set("updated_at", sq.Expr("CURRENT_TIMESTAMP")).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update status: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ports.ErrNotFound
	}
	return nil
}

// SaveSentiment upserts the stage-1 child row.
func (r *SQLiteRepository) SaveSentiment(ctx context.Context, result *domain.SentimentResult) error {
	scores, err := json.Marshal(result.Scores)
	if err != nil {
		return fmt.Errorf("marshal confidence scores: %w", err)
	}
	phrases, err := json.Marshal(result.KeyPhrases)
	if err != nil {
		return fmt.Errorf("marshal key phrases: %w", err)
	}
	sentences, err := json.Marshal(result.Sentences)
	if err != nil {
		return fmt.Errorf("marshal sentences: %w", err)
	}
	opinions, err := json.Marshal(result.Opinions)
	if err != nil {
		return fmt.Errorf("marshal opinions: %w", err)
	}

	query, args, err := sq.Insert("sentiment_analysis").
		Columns("id", "feedback_id", "sentiment", "confidence_score",
			"confidence_scores", "key_phrases", "sentences", "opinions", "processed_at").
		Values(result.ID, result.FeedbackID, result.Sentiment, result.ConfidenceScore,
			string(scores), string(phrases), string(sentences), string(opinions), result.ProcessedAt).
		Suffix(`ON CONFLICT (feedback_id) DO UPDATE SET
			sentiment = excluded.sentiment,
			confidence_score = excluded.confidence_score,
			confidence_scores = excluded.confidence_scores,
			key_phrases = excluded.key_phrases,
			sentences = excluded.sentences,
			opinions = excluded.opinions,
			processed_at = excluded.processed_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert sentiment: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert sentiment: %w", err)
	}
	return nil
}

// SaveResponse upserts the stage-2 child row.
func (r *SQLiteRepository) SaveResponse(ctx context.Context, response *domain.GeneratedResponse) error {
	query, args, err := sq.Insert("ai_responses").
		Columns("id", "feedback_id", "response_text", "model_used", "tokens_used", "generated_at").
		Values(response.ID, response.FeedbackID, response.ResponseText,
			response.ModelUsed, response.TokensUsed, response.GeneratedAt).
		Suffix(`ON CONFLICT (feedback_id) DO UPDATE SET
			response_text = excluded.response_text,
			model_used = excluded.model_used,
			tokens_used = excluded.tokens_used,
			generated_at = excluded.generated_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert response: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert response: %w", err)
	}
	return nil
}

// SaveAudio upserts the optional stage-3 child row.
func (r *SQLiteRepository) SaveAudio(ctx context.Context, artifact *domain.AudioArtifact) error {
	query, args, err := sq.Insert("audio_files").
		Columns("id", "feedback_id", "file_path", "blob_url", "storage_type",
			"file_size", "duration_seconds", "voice_used", "emotion_style", "created_at").
		Values(artifact.ID, artifact.FeedbackID, artifact.FilePath, artifact.BlobURL,
			artifact.StorageKind, artifact.FileSize, artifact.DurationSeconds,
			artifact.VoiceUsed, artifact.EmotionStyle, artifact.CreatedAt).
		Suffix(`ON CONFLICT (feedback_id) DO UPDATE SET
			file_path = excluded.file_path,
			blob_url = excluded.blob_url,
			storage_type = excluded.storage_type,
			file_size = excluded.file_size,
			duration_seconds = excluded.duration_seconds,
			voice_used = excluded.voice_used,
			emotion_style = excluded.emotion_style,
			created_at = excluded.created_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert audio: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert audio: %w", err)
	}
	return nil
}

// GetAudio loads one audio artifact by its own id (not the feedback id).
func (r *SQLiteRepository) GetAudio(ctx context.Context, audioID string) (*domain.AudioArtifact, error) {
	query, args, err := sq.Select("id", "feedback_id", "file_path", "blob_url", "storage_type",
		"file_size", "duration_seconds", "voice_used", "emotion_style", "created_at").
		From("audio_files").
		Where(sq.Eq{"id": audioID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select audio: %w", err)
	}

	artifact := &domain.AudioArtifact{}
	var blobURL, voice, style sql.NullString
	var duration sql.NullFloat64
	row := r.db.QueryRowContext(ctx, query, args...)
	err = row.Scan(&artifact.ID, &artifact.FeedbackID, &artifact.FilePath, &blobURL,
		&artifact.StorageKind, &artifact.FileSize, &duration, &voice, &style, &artifact.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ports.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan audio: %w", err)
	}

	artifact.BlobURL = blobURL.String
	artifact.DurationSeconds = duration.Float64
	artifact.VoiceUsed = voice.String
	artifact.EmotionStyle = style.String
	return artifact, nil
}

// Stats aggregates the dashboard counters plus the five newest items.
func (r *SQLiteRepository) Stats(ctx context.Context) (*domain.DashboardStats, error) {
	stats := &domain.DashboardStats{
		SentimentBreakdown: map[string]int{},
		CategoryBreakdown:  map[string]int{},
	}

	query, args, err := sq.Select("COUNT(*)").From("feedback").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build total count: %w", err)
	}
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&stats.TotalFeedback); err != nil {
		return nil, fmt.Errorf("total count: %w", err)
	}

	if err := r.groupCount(ctx,
		sq.Select("sentiment", "COUNT(*)").From("sentiment_analysis").GroupBy("sentiment"),
		func(label string, n int) { stats.SentimentBreakdown[label] = n }); err != nil {
		return nil, err
	}

	if err := r.groupCount(ctx,
		sq.Select("COALESCE(NULLIF(category, ''), 'uncategorized')", "COUNT(*)").
			From("feedback").
			GroupBy("COALESCE(NULLIF(category, ''), 'uncategorized')"),
		func(label string, n int) { stats.CategoryBreakdown[label] = n }); err != nil {
		return nil, err
	}

	recent, _, err := r.ListFeedback(ctx, ports.ListQuery{Page: 1, PerPage: 5})
	if err != nil {
		return nil, fmt.Errorf("recent feedback: %w", err)
	}
	stats.RecentFeedback = recent
	return stats, nil
}

func (r *SQLiteRepository) groupCount(ctx context.Context, builder sq.SelectBuilder, collect func(string, int)) error {
	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("build group count: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("group count: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var label string
		var n int
		if err := rows.Scan(&label, &n); err != nil {
			return fmt.Errorf("scan group count: %w", err)
		}
		collect(label, n)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("group count iteration: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) hydrate(ctx context.Context, item *domain.FeedbackItem) error {
	if err := r.loadSentiment(ctx, item); err != nil {
		return err
	}
	if err := r.loadResponse(ctx, item); err != nil {
		return err
	}
	return r.loadAudio(ctx, item)
}

func (r *SQLiteRepository) loadSentiment(ctx context.Context, item *domain.FeedbackItem) error {
	query, args, err := sq.Select("id", "sentiment", "confidence_score",
		"confidence_scores", "key_phrases", "sentences", "opinions", "processed_at").
		From("sentiment_analysis").
		Where(sq.Eq{"feedback_id": item.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build select sentiment: %w", err)
	}

	result := &domain.SentimentResult{FeedbackID: item.ID}
	var scores, phrases, sentences, opinions sql.NullString
	row := r.db.QueryRowContext(ctx, query, args...)
	err = row.Scan(&result.ID, &result.Sentiment, &result.ConfidenceScore,
		&scores, &phrases, &sentences, &opinions, &result.ProcessedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("scan sentiment: %w", err)
	}

	if err := unmarshalColumn(scores, &result.Scores); err != nil {
		return fmt.Errorf("decode confidence scores: %w", err)
	}
	if err := unmarshalColumn(phrases, &result.KeyPhrases); err != nil {
		return fmt.Errorf("decode key phrases: %w", err)
	}
	if err := unmarshalColumn(sentences, &result.Sentences); err != nil {
		return fmt.Errorf("decode sentences: %w", err)
	}
	if err := unmarshalColumn(opinions, &result.Opinions); err != nil {
		return fmt.Errorf("decode opinions: %w", err)
	}

	item.Sentiment = result
	return nil
}

func (r *SQLiteRepository) loadResponse(ctx context.Context, item *domain.FeedbackItem) error {
	query, args, err := sq.Select("id", "response_text", "model_used", "tokens_used", "generated_at").
		From("ai_responses").
		Where(sq.Eq{"feedback_id": item.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build select response: %w", err)
	}

	response := &domain.GeneratedResponse{FeedbackID: item.ID}
	var model sql.NullString
	row := r.db.QueryRowContext(ctx, query, args...)
	err = row.Scan(&response.ID, &response.ResponseText, &model, &response.TokensUsed, &response.GeneratedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("scan response: %w", err)
	}

	response.ModelUsed = model.String
	item.Response = response
	return nil
}

func (r *SQLiteRepository) loadAudio(ctx context.Context, item *domain.FeedbackItem) error {
	query, args, err := sq.Select("id", "file_path", "blob_url", "storage_type",
		"file_size", "duration_seconds", "voice_used", "emotion_style", "created_at").
		From("audio_files").
		Where(sq.Eq{"feedback_id": item.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build select audio child: %w", err)
	}

	artifact := &domain.AudioArtifact{FeedbackID: item.ID}
	var blobURL, voice, style sql.NullString
	var duration sql.NullFloat64
	row := r.db.QueryRowContext(ctx, query, args...)
	err = row.Scan(&artifact.ID, &artifact.FilePath, &blobURL, &artifact.StorageKind,
		&artifact.FileSize, &duration, &voice, &style, &artifact.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("scan audio child: %w", err)
	}

	artifact.BlobURL = blobURL.String
	artifact.DurationSeconds = duration.Float64
	artifact.VoiceUsed = voice.String
	artifact.EmotionStyle = style.String
	item.Audio = artifact
	return nil
}

func unmarshalColumn(column sql.NullString, v any) error {
	if !column.Valid || column.String == "" {
		return nil
	}
	return json.Unmarshal([]byte(column.String), v)
}

package storage

const schema = `
CREATE TABLE IF NOT EXISTS feedback (
    id                TEXT PRIMARY KEY,
    text              TEXT NOT NULL,
    category          TEXT,
    processing_status TEXT NOT NULL DEFAULT 'processing',
    created_at        TIMESTAMP NOT NULL,
    updated_at        TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_feedback_category ON feedback(category);
CREATE INDEX IF NOT EXISTS idx_feedback_created_category ON feedback(created_at, category);

CREATE TABLE IF NOT EXISTS sentiment_analysis (
    id                TEXT PRIMARY KEY,
    feedback_id       TEXT NOT NULL UNIQUE REFERENCES feedback(id),
    sentiment         TEXT NOT NULL,
    confidence_score  REAL,
    confidence_scores TEXT,
    key_phrases       TEXT,
    sentences         TEXT,
    opinions          TEXT,
    processed_at      TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sentiment_label ON sentiment_analysis(sentiment);

CREATE TABLE IF NOT EXISTS ai_responses (
    id            TEXT PRIMARY KEY,
    feedback_id   TEXT NOT NULL UNIQUE REFERENCES feedback(id),
    response_text TEXT NOT NULL,
    model_used    TEXT,
    tokens_used   INTEGER NOT NULL DEFAULT 0,
    generated_at  TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS audio_files (
    id               TEXT PRIMARY KEY,
    feedback_id      TEXT NOT NULL UNIQUE REFERENCES feedback(id),
    file_path        TEXT NOT NULL,
    blob_url         TEXT,
    storage_type     TEXT NOT NULL DEFAULT 'local',
    file_size        INTEGER NOT NULL DEFAULT 0,
    duration_seconds REAL,
    voice_used       TEXT,
    emotion_style    TEXT,
    created_at       TIMESTAMP NOT NULL
);
`

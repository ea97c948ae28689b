package migrations

func init() {
	Register(Migration{
		Timestamp:   "20250901-000000",
		Description: "Initial schema",
		Up: []string{
			// Service subscriptions - one row per user, tracks plan and
			// monthly banner usage. user_id comes from the auth provider
			// (no FK constraint since accounts live there).
			`CREATE TABLE IF NOT EXISTS service_subscriptions (
				id TEXT PRIMARY KEY,
				user_id TEXT UNIQUE NOT NULL,
				plan TEXT NOT NULL DEFAULT 'free',
				monthly_usage INTEGER NOT NULL DEFAULT 0,
				last_usage_reset TEXT NOT NULL,
				first_login_at TEXT,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_service_subscriptions_user_id ON service_subscriptions(user_id)`,

			// Generations - one row per generated banner image, written
			// after a successful generation and never mutated.
			`CREATE TABLE IF NOT EXISTS generations (
				id TEXT PRIMARY KEY,
				user_id TEXT,
				batch_id TEXT NOT NULL,
				pattern_letter TEXT NOT NULL,
				source_url TEXT NOT NULL,
				size TEXT NOT NULL,
				image_prompt TEXT NOT NULL,
				analysis_json TEXT,
				image_data_url TEXT,
				used_model TEXT,
				share_to_gallery INTEGER NOT NULL DEFAULT 0,
				share_profile INTEGER NOT NULL DEFAULT 0,
				created_at TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_generations_user_id ON generations(user_id)`,
			`CREATE INDEX IF NOT EXISTS idx_generations_batch_id ON generations(batch_id)`,
		},
	})
}

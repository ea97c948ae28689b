package migrations

func init() {
	Register(Migration{
		Timestamp:   "20251102-093000",
		Description: "Object storage archival key and gallery listing index",
		Up: []string{
			// storage_key holds the object key when the image was archived
			// to S3-compatible storage instead of (or alongside) the inline
			// data URL.
			`ALTER TABLE generations ADD COLUMN storage_key TEXT`,
			`CREATE INDEX IF NOT EXISTS idx_generations_gallery ON generations(share_to_gallery, created_at)`,
		},
	})
}

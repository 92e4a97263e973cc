package database

import (
	"context"
	"database/sql"
)

// statements create the terminal's tables when they do not exist yet. The
// credential identity and the profile are deliberately separate tables: the
// registration flow writes them in two steps with no transaction, mirroring
// the split between the auth provider and the profiles table it replaced.
var statements = []string{
	`CREATE TABLE IF NOT EXISTS credentials (
		id            CHAR(36)     NOT NULL,
		email         VARCHAR(255) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		created_at    DATETIME(3)  NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
		PRIMARY KEY (id),
		UNIQUE KEY uq_credentials_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS profiles (
		id         CHAR(36)     NOT NULL,
		full_name  VARCHAR(255) NOT NULL,
		email      VARCHAR(255) NOT NULL,
		phone      VARCHAR(32)  NOT NULL DEFAULT '',
		role       VARCHAR(16)  NOT NULL DEFAULT 'USER',
		provider   VARCHAR(16)  NOT NULL DEFAULT 'EMAIL',
		created_at DATETIME(3)  NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
		PRIMARY KEY (id),
		UNIQUE KEY uq_profiles_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS emissions (
		id          CHAR(36)    NOT NULL,
		user_id     CHAR(36)    NOT NULL,
		scope1      INT         NOT NULL,
		scope2      INT         NOT NULL,
		scope3      INT         NOT NULL,
		total       INT         NOT NULL,
		ai_insights TEXT        NULL,
		created_at  DATETIME(3) NOT NULL,
		PRIMARY KEY (id),
		KEY idx_emissions_user_created (user_id, created_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS activity_logs (
		id         CHAR(36)     NOT NULL,
		user_id    CHAR(36)     NOT NULL,
		user_name  VARCHAR(255) NOT NULL,
		action     VARCHAR(64)  NOT NULL,
		details    TEXT         NULL,
		created_at DATETIME(3)  NOT NULL,
		PRIMARY KEY (id),
		KEY idx_activity_user_created (user_id, created_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		user_id    CHAR(36)        NOT NULL,
		token_hash CHAR(64)        NOT NULL,
		expires_at DATETIME(3)     NOT NULL,
		revoked_at DATETIME(3)     NULL,
		created_at DATETIME(3)     NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
		PRIMARY KEY (id),
		UNIQUE KEY uq_refresh_hash (token_hash),
		KEY idx_refresh_user (user_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// EnsureSchema creates missing tables. Safe to run on every start.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

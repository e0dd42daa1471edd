package database

// schema holds the DDL for every table, in dependency order.  user_stats and
// leaderboard share a shape on purpose: the first is the per-user canonical
// row, the second the public projection, and both are written in the same
// transaction.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id CHAR(36) NOT NULL PRIMARY KEY,
		email VARCHAR(255) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		display_name VARCHAR(120) NOT NULL,
		photo_url VARCHAR(512) NOT NULL DEFAULT '',
		role ENUM('USER','ADMIN') NOT NULL DEFAULT 'USER',
		is_active TINYINT(1) NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_users_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		user_id CHAR(36) NOT NULL,
		token_hash CHAR(64) NOT NULL,
		expires_at DATETIME NOT NULL,
		revoked_at DATETIME NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_refresh_hash (token_hash),
		KEY idx_refresh_user (user_id),
		CONSTRAINT fk_refresh_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS contributions (
		id CHAR(36) NOT NULL PRIMARY KEY,
		owner_user_id CHAR(36) NOT NULL,
		category ENUM('restaurant','hotel','market','travelGuide') NOT NULL,
		status ENUM('pending','approved','rejected') NOT NULL DEFAULT 'pending',
		points_awarded INT NOT NULL DEFAULT 0,
		title VARCHAR(255) NOT NULL,
		location VARCHAR(255) NOT NULL DEFAULT '',
		details JSON NULL,
		reject_reason VARCHAR(1024) NOT NULL DEFAULT '',
		reviewed_by CHAR(36) NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		reviewed_at DATETIME NULL,
		KEY idx_contrib_status (status, created_at),
		KEY idx_contrib_owner (owner_user_id, created_at),
		KEY idx_contrib_category (category, status),
		CONSTRAINT fk_contrib_owner FOREIGN KEY (owner_user_id) REFERENCES users(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS user_stats (
		user_id CHAR(36) NOT NULL PRIMARY KEY,
		total_points INT NOT NULL DEFAULT 0,
		restaurants INT NOT NULL DEFAULT 0,
		hotels INT NOT NULL DEFAULT 0,
		markets INT NOT NULL DEFAULT 0,
		travel_guides INT NOT NULL DEFAULT 0,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		CONSTRAINT fk_stats_user FOREIGN KEY (user_id) REFERENCES users(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS leaderboard (
		user_id CHAR(36) NOT NULL PRIMARY KEY,
		display_name VARCHAR(120) NOT NULL,
		photo_url VARCHAR(512) NOT NULL DEFAULT '',
		total_points INT NOT NULL DEFAULT 0,
		restaurants INT NOT NULL DEFAULT 0,
		hotels INT NOT NULL DEFAULT 0,
		markets INT NOT NULL DEFAULT 0,
		travel_guides INT NOT NULL DEFAULT 0,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		KEY idx_leaderboard_points (total_points DESC),
		CONSTRAINT fk_leaderboard_user FOREIGN KEY (user_id) REFERENCES users(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS tours (
		id CHAR(36) NOT NULL PRIMARY KEY,
		owner_user_id CHAR(36) NOT NULL,
		name VARCHAR(255) NOT NULL,
		destination VARCHAR(255) NOT NULL,
		start_date VARCHAR(10) NOT NULL DEFAULT '',
		end_date VARCHAR(10) NOT NULL DEFAULT '',
		members JSON NOT NULL,
		budget DECIMAL(14,2) NOT NULL DEFAULT 0,
		expenses JSON NOT NULL,
		places JSON NOT NULL,
		todos JSON NOT NULL,
		is_active TINYINT(1) NOT NULL DEFAULT 1,
		converted_to_guide TINYINT(1) NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		KEY idx_tours_owner (owner_user_id, created_at),
		CONSTRAINT fk_tours_owner FOREIGN KEY (owner_user_id) REFERENCES users(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS travel_guides (
		id CHAR(36) NOT NULL PRIMARY KEY,
		author_user_id CHAR(36) NOT NULL,
		source_tour_id CHAR(36) NULL,
		title VARCHAR(255) NOT NULL,
		destination VARCHAR(255) NOT NULL,
		how_to_go TEXT NOT NULL,
		must_visit JSON NOT NULL,
		members JSON NULL,
		start_date VARCHAR(10) NOT NULL DEFAULT '',
		end_date VARCHAR(10) NOT NULL DEFAULT '',
		total_expense DECIMAL(14,2) NOT NULL DEFAULT 0,
		tips TEXT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_guides_source_tour (source_tour_id),
		KEY idx_guides_created (created_at),
		CONSTRAINT fk_guides_author FOREIGN KEY (author_user_id) REFERENCES users(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

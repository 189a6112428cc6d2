package database

import (
	"fmt"
	"log/slog"

	"sudonet/internal/middleware"
	"sudonet/internal/models"

	"gorm.io/gorm"
)

// upsertProfileFunction creates or replaces the atomic profile upsert used by the profile editor.
const upsertProfileFunction = `
CREATE OR REPLACE FUNCTION update_userinfo_profile(
	p_user_id varchar, p_username varchar, p_photo_url text, p_gender varchar,
	p_email varchar, p_phone varchar, p_bio text, p_about text,
	p_github_url text, p_linkedin_url text, p_twitter_url text, p_instagram_url text, p_facebook_url text,
	p_address_line1 text, p_address_line2 text, p_city varchar, p_state varchar, p_country varchar,
	p_postal_code varchar, p_archetype varchar, p_is_public boolean
) RETURNS void AS $$
BEGIN
	INSERT INTO userinfo (
		id, user_id, username, photo_url, gender, email, phone, bio, about,
		github_url, linkedin_url, twitter_url, instagram_url, facebook_url,
		address_line1, address_line2, city, state, country, postal_code,
		archetype, is_public, created_at, updated_at
	) VALUES (
		gen_random_uuid()::varchar, p_user_id, p_username, p_photo_url, p_gender, p_email, p_phone, p_bio, p_about,
		p_github_url, p_linkedin_url, p_twitter_url, p_instagram_url, p_facebook_url,
		p_address_line1, p_address_line2, p_city, p_state, p_country, p_postal_code,
		p_archetype, p_is_public, now(), now()
	)
	ON CONFLICT (user_id) DO UPDATE SET
		username = EXCLUDED.username,
		photo_url = COALESCE(EXCLUDED.photo_url, userinfo.photo_url),
		gender = EXCLUDED.gender,
		email = EXCLUDED.email,
		phone = EXCLUDED.phone,
		bio = EXCLUDED.bio,
		about = EXCLUDED.about,
		github_url = EXCLUDED.github_url,
		linkedin_url = EXCLUDED.linkedin_url,
		twitter_url = EXCLUDED.twitter_url,
		instagram_url = EXCLUDED.instagram_url,
		facebook_url = EXCLUDED.facebook_url,
		address_line1 = EXCLUDED.address_line1,
		address_line2 = EXCLUDED.address_line2,
		city = EXCLUDED.city,
		state = EXCLUDED.state,
		country = EXCLUDED.country,
		postal_code = EXCLUDED.postal_code,
		archetype = EXCLUDED.archetype,
		is_public = EXCLUDED.is_public,
		updated_at = now();
END;
$$ LANGUAGE plpgsql;`

// Migrate creates the schema. The stored procedure is Postgres-only and optional:
// profile writes fall back to select-then-update-or-insert without it.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.UserInfo{},
		&models.Post{},
		&models.Comment{},
		&models.StreetCred{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	if db.Dialector.Name() == "postgres" {
		if fnErr := db.Exec(upsertProfileFunction).Error; fnErr != nil {
			middleware.Logger.Warn("Failed to create update_userinfo_profile function (profile writes will use the fallback path)",
				slog.String("error", fnErr.Error()))
		}
	}

	middleware.Logger.Info("Database migration completed")
	return nil
}

package db

import (
	"errors"
	"fmt"

	"readit/internal/models"
	"readit/internal/utils"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SeedUser creates a user with a bcrypt-hashed password unless the username
// is already taken, and returns the stored row.
func SeedUser(db *gorm.DB, username, email, password string) (*models.User, error) {
	var existing models.User
	err := db.Where("username = ?", username).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := models.User{Username: username, Email: email, Password: string(hash)}
	if err := db.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// SeedSubs creates the given subs when the table is empty.
func SeedSubs(db *gorm.DB, owner string, subs []models.Sub) (int, error) {
	var count int64
	if err := db.Model(&models.Sub{}).Count(&count).Error; err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}

	created := 0
	for _, sub := range subs {
		sub.Username = owner
		if err := db.Create(&sub).Error; err != nil {
			return created, fmt.Errorf("create sub %s: %w", sub.Name, err)
		}
		created++
	}
	return created, nil
}

// SeedPost creates a post in sub unless one with the same title exists there.
func SeedPost(db *gorm.DB, sub, author, title, body string) (*models.Post, error) {
	var posts []models.Post
	if err := db.Where("sub_name = ? AND title = ?", sub, title).Limit(1).Find(&posts).Error; err != nil {
		return nil, err
	}
	if len(posts) > 0 {
		return &posts[0], nil
	}

	post := models.Post{
		Identifier: utils.MakeID(7),
		Slug:       utils.Slugify(title),
		Title:      title,
		Body:       body,
		SubName:    sub,
		Username:   author,
	}
	if err := db.Create(&post).Error; err != nil {
		return nil, fmt.Errorf("create post %q: %w", title, err)
	}
	return &post, nil
}

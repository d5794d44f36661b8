package domain

// User is a registered player. Password holds the hex scrypt hash of the password with Salt.
type User struct {
	ID       int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Username string `gorm:"type:text;not null;uniqueIndex:idx_users_username" json:"username"`
	Password string `gorm:"type:text;not null" json:"-"`
	Salt     string `gorm:"type:text;not null" json:"-"`
}

// TableName returns the database table name for User.
func (User) TableName() string {
	return "users"
}

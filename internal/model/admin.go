package model

import "gorm.io/gorm"

// Admin 管理员表，对应 admins
type Admin struct {
	AdminID      string `gorm:"primaryKey;size:36"              json:"admin_id"`
	Username     string `gorm:"size:50;not null;uniqueIndex"    json:"username"`
	PasswordHash string `gorm:"size:255;not null"               json:"-"`
	BaseModel
}

// TableName 指定表名
func (Admin) TableName() string { return "admins" }

// BeforeCreate 生成主键
func (a *Admin) BeforeCreate(_ *gorm.DB) error {
	newID(&a.AdminID)
	return nil
}

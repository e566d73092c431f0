package models

// Category groups tasks. Names are unique.
type Category struct {
	BaseModel

	Name string `gorm:"uniqueIndex;size:50;not null" json:"name"`
}

// TableName keeps the plural table name stable across naming strategies.
func (Category) TableName() string {
	return "categories"
}

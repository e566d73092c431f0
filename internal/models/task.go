package models

// Task is a priced catalog entry belonging to a category.
type Task struct {
	BaseModel

	Name       string    `gorm:"uniqueIndex;not null" json:"name"`
	CategoryID string    `gorm:"type:uuid;not null;index" json:"category_id"`
	Category   *Category `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"category,omitempty"`
	Price      float64   `gorm:"type:numeric(10,2);not null" json:"price"`
}

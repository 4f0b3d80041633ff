package domain

import "time"

// Company is a reference-table entry joined into the records read model.
type Company struct {
	CompanyID   string     `gorm:"type:varchar(50);primaryKey" json:"company_id"`
	CompanyName string     `gorm:"type:varchar(200);not null" json:"company_name"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `gorm:"index" json:"-"`
}

// TableName returns the database table name for Company.
func (Company) TableName() string {
	return "companies"
}

// Category is an account category belonging to a company.
type Category struct {
	CategoryID   string     `gorm:"type:varchar(50);primaryKey" json:"category_id"`
	CompanyID    string     `gorm:"type:varchar(50);index" json:"company_id"`
	CategoryName string     `gorm:"type:varchar(200);not null" json:"category_name"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	DeletedAt    *time.Time `gorm:"index" json:"-"`
}

// TableName returns the database table name for Category.
func (Category) TableName() string {
	return "categories"
}
